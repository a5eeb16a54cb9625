package directory

import (
	"bytes"
	"testing"

	"github.com/drobin/nutsgo/backend"
)

func newTestBackend(t *testing.T) *Backend {
	t.Helper()
	b, err := New(Options{Path: t.TempDir(), BlockSize: 16})
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestAcquireWriteRead(t *testing.T) {
	b := newTestBackend(t)

	id, err := b.Acquire()
	if err != nil {
		t.Fatal(err)
	}

	data := []byte("0123456789abcdef")
	if n, err := b.Write(id, data); err != nil || n != 16 {
		t.Fatalf("Write: n=%d err=%v", n, err)
	}

	got := make([]byte, 16)
	if n, err := b.Read(id, got); err != nil || n != 16 {
		t.Fatalf("Read: n=%d err=%v", n, err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("got % x, want % x", got, data)
	}
}

func TestHeaderIDNeverAcquired(t *testing.T) {
	b := newTestBackend(t)
	for i := 0; i < 50; i++ {
		id, err := b.Acquire()
		if err != nil {
			t.Fatal(err)
		}
		if id.Equal(b.HeaderID()) {
			t.Fatalf("acquire returned the header id")
		}
	}
}

func TestReleaseThenReadFails(t *testing.T) {
	b := newTestBackend(t)
	id, _ := b.Acquire()

	if err := b.Release(id); err != nil {
		t.Fatal(err)
	}
	if _, err := b.Read(id, make([]byte, 16)); err != backend.ErrNoSuchID {
		t.Fatalf("got %v, want ErrNoSuchID", err)
	}
}

func TestReleaseTwiceFails(t *testing.T) {
	b := newTestBackend(t)
	id, _ := b.Acquire()
	_ = b.Release(id)

	if err := b.Release(id); err != backend.ErrAlreadyReleased {
		t.Fatalf("got %v, want ErrAlreadyReleased", err)
	}
}

func TestHeaderReadWrite(t *testing.T) {
	b := newTestBackend(t)
	data := bytes.Repeat([]byte{0x42}, 16)
	if _, err := b.Write(b.HeaderID(), data); err != nil {
		t.Fatal(err)
	}
	got := make([]byte, 16)
	if _, err := b.Read(b.HeaderID(), got); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("got % x, want % x", got, data)
	}
}
