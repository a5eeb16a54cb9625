package container

import (
	"bytes"
	"testing"

	"github.com/drobin/nutsgo/backend/memory"
	"github.com/drobin/nutsgo/internal/buffer"
	"github.com/drobin/nutsgo/internal/cryptocore"
	"github.com/drobin/nutsgo/internal/kdf"
)

func TestWriteReadHeaderRoundTrip(t *testing.T) {
	b := memory.New(256)
	k := kdf.NewPbkdf2(kdf.Sha256, 50, []byte("0123456789abcdef"))
	hdr := &Header{
		Cipher: cryptocore.Aes256Gcm,
		Kdf:    k,
		Key:    buffer.Wrap(cryptocore.RandBytes(cryptocore.Aes256Gcm.KeyLen())),
		IV:     buffer.Wrap(cryptocore.RandBytes(cryptocore.Aes256Gcm.IVLen())),
	}
	password := []byte("hunter2")
	if err := WriteHeader(b, hdr, password); err != nil {
		t.Fatal(err)
	}

	got, err := ReadHeader(b, func() ([]byte, error) { return password, nil })
	if err != nil {
		t.Fatal(err)
	}
	defer got.Key.Release()
	defer got.IV.Release()

	if got.Revision != currentRevision {
		t.Fatalf("revision = %d, want %d", got.Revision, currentRevision)
	}
	if got.Cipher != cryptocore.Aes256Gcm {
		t.Fatalf("cipher = %v, want Aes256Gcm", got.Cipher)
	}
	if !bytes.Equal(got.Key.Bytes(), hdr.Key.Bytes()) {
		t.Fatalf("key mismatch")
	}
	if !bytes.Equal(got.IV.Bytes(), hdr.IV.Bytes()) {
		t.Fatalf("iv mismatch")
	}
}

func TestHeaderNoPasswordCallbackConfigured(t *testing.T) {
	b := memory.New(256)
	k := kdf.NewPbkdf2(kdf.Sha256, 50, []byte("0123456789abcdef"))
	hdr := &Header{
		Cipher: cryptocore.Aes128Ctr,
		Kdf:    k,
		Key:    buffer.Wrap(cryptocore.RandBytes(cryptocore.Aes128Ctr.KeyLen())),
		IV:     buffer.Wrap(cryptocore.RandBytes(cryptocore.Aes128Ctr.IVLen())),
	}
	if err := WriteHeader(b, hdr, []byte("pw")); err != nil {
		t.Fatal(err)
	}

	_, err := ReadHeader(b, nil)
	cerr, ok := err.(*Error)
	if !ok || cerr.Kind != KindPassword {
		t.Fatalf("got %v, want KindPassword", err)
	}
}
