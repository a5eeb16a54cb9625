package container

import (
	"bytes"
	"testing"

	"github.com/drobin/nutsgo/backend"
	"github.com/drobin/nutsgo/backend/memory"
	"github.com/drobin/nutsgo/internal/cryptocore"
	"github.com/drobin/nutsgo/internal/kdf"
)

// TestCreateWriteReadNoneCipher is spec.md §8 scenario 1.
func TestCreateWriteReadNoneCipher(t *testing.T) {
	b := memory.New(12)
	c, err := Create(b, CreateOptions{Cipher: cryptocore.None})
	if err != nil {
		t.Fatal(err)
	}

	id, err := c.Acquire()
	if err != nil {
		t.Fatal(err)
	}

	data := []byte{0, 0, 0, 1, 0, 0, 0, 2, 0, 0, 0, 3}
	n, err := c.Write(id, data)
	if err != nil {
		t.Fatal(err)
	}
	if n != 12 {
		t.Fatalf("Write returned %d, want 12", n)
	}

	got := make([]byte, 12)
	n, err = c.Read(id, got)
	if err != nil {
		t.Fatal(err)
	}
	if n != 12 || !bytes.Equal(got, data) {
		t.Fatalf("Read: n=%d got=% x, want=% x", n, got, data)
	}
}

func TestCreateOpenRoundTripWithPassword(t *testing.T) {
	b := memory.New(512)
	password := []byte("correct horse battery staple")
	pwFn := func() ([]byte, error) { return password, nil }

	k := kdf.NewPbkdf2(kdf.Sha256, 100, []byte("saltsaltsalt1234"))
	c, err := Create(b, CreateOptions{
		Cipher:       cryptocore.Aes128Gcm,
		Kdf:          &k,
		PasswordFunc: pwFn,
	})
	if err != nil {
		t.Fatal(err)
	}

	id, err := c.Acquire()
	if err != nil {
		t.Fatal(err)
	}
	payload := bytes.Repeat([]byte{0x7a}, int(c.BlockSize()))
	if _, err := c.Write(id, payload); err != nil {
		t.Fatal(err)
	}

	opened, err := Open(b, OpenOptions{PasswordFunc: pwFn})
	if err != nil {
		t.Fatal(err)
	}
	got := make([]byte, opened.BlockSize())
	if _, err := opened.Read(id, got); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("got % x, want % x", got, payload)
	}
}

func TestOpenWrongPasswordFailsOnGCM(t *testing.T) {
	b := memory.New(512)
	k := kdf.NewPbkdf2(kdf.Sha256, 100, []byte("saltsaltsalt1234"))
	_, err := Create(b, CreateOptions{
		Cipher:       cryptocore.Aes128Gcm,
		Kdf:          &k,
		PasswordFunc: func() ([]byte, error) { return []byte("right"), nil },
	})
	if err != nil {
		t.Fatal(err)
	}

	_, err = Open(b, OpenOptions{PasswordFunc: func() ([]byte, error) { return []byte("wrong"), nil }})
	cerr, ok := err.(*Error)
	if !ok || cerr.Kind != KindCipherAuth {
		t.Fatalf("got %v, want KindCipherAuth", err)
	}
}

func TestOpenRejectsBadMagic(t *testing.T) {
	b := memory.New(64)
	block := make([]byte, 64)
	copy(block, []byte("bogus!!"))
	if _, err := b.Write(b.HeaderID(), block); err != nil {
		t.Fatal(err)
	}

	_, err := Open(b, OpenOptions{})
	cerr, ok := err.(*Error)
	if !ok || cerr.Kind != KindInvalidHeader {
		t.Fatalf("got %v, want KindInvalidHeader", err)
	}
}

func TestServiceBindingMismatch(t *testing.T) {
	b := memory.New(512)
	c, err := Create(b, CreateOptions{Cipher: cryptocore.None})
	if err != nil {
		t.Fatal(err)
	}
	if err := c.CreateService(7, backend.NullID); err != nil {
		t.Fatal(err)
	}

	if err := c.CreateService(9, backend.NullID); err == nil {
		t.Fatal("expected UnexpectedSid binding a second service")
	}

	if _, err := c.OpenService(9); err == nil {
		t.Fatal("expected UnexpectedSid opening the wrong service")
	}
	got, err := c.OpenService(7)
	if err != nil {
		t.Fatal(err)
	}
	if !got.IsNull() {
		t.Fatalf("got %v, want null top-id", got)
	}
}

// fakeMigration recovers a fixed (sid, topID) pair regardless of userdata
// contents, for exercising Migrator's plumbing without a real rev0 fixture.
type fakeMigration struct {
	sid   uint32
	topID []byte
}

func (m fakeMigration) MigrateRev0(userdata []byte) (uint32, []byte, error) {
	return m.sid, m.topID, nil
}

func TestMigrateRev0OnOpen(t *testing.T) {
	b := memory.New(512)
	c, err := Create(b, CreateOptions{Cipher: cryptocore.None})
	if err != nil {
		t.Fatal(err)
	}

	// Force the on-disk header back to revision 0 to simulate an old
	// fixture, keeping the same cipher/kdf/key/iv bytes.
	rewriteAtRevision(t, b, c, 0)

	migrated, err := Open(b, OpenOptions{
		Migrate:  true,
		Migrator: NewMigrator(fakeMigration{sid: 42, topID: []byte("top-block-id")}),
	})
	if err != nil {
		t.Fatal(err)
	}
	if migrated.revision != currentRevision {
		t.Fatalf("revision = %d, want %d", migrated.revision, currentRevision)
	}
	if migrated.serviceID == nil || *migrated.serviceID != 42 {
		t.Fatalf("serviceID = %v, want 42", migrated.serviceID)
	}
	if string(migrated.topID.Bytes()) != "top-block-id" {
		t.Fatalf("topID = %q, want top-block-id", migrated.topID.Bytes())
	}

	reopened, err := Open(b, OpenOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if reopened.revision != currentRevision {
		t.Fatalf("revision not persisted: got %d", reopened.revision)
	}
}

func TestMigrateFalseLeavesRevisionUntouched(t *testing.T) {
	b := memory.New(512)
	c, err := Create(b, CreateOptions{Cipher: cryptocore.None})
	if err != nil {
		t.Fatal(err)
	}
	rewriteAtRevision(t, b, c, 0)

	before := make([]byte, b.BlockSize())
	if _, err := b.Read(b.HeaderID(), before); err != nil {
		t.Fatal(err)
	}

	opened, err := Open(b, OpenOptions{Migrate: false})
	if err != nil {
		t.Fatal(err)
	}
	if opened.revision != 0 {
		t.Fatalf("revision = %d, want 0 (untouched)", opened.revision)
	}

	after := make([]byte, b.BlockSize())
	if _, err := b.Read(b.HeaderID(), after); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(before, after) {
		t.Fatal("header bytes changed despite migrate=false")
	}
}

// rewriteAtRevision re-serializes c's header at the given legacy revision,
// bypassing WriteHeader's always-currentRevision behavior, to build a rev0
// fixture in-process without needing an external binary fixture file.
func rewriteAtRevision(t *testing.T, b backend.Backend, c *Container, revision uint32) {
	t.Helper()
	hdr := &Header{
		Revision: revision,
		Cipher:   c.cipher,
		Kdf:      c.kdf,
		Key:      c.key,
		IV:       c.iv,
	}
	if err := writeHeaderAtRevision(b, hdr, c.wrapKey, revision); err != nil {
		t.Fatal(err)
	}
}
