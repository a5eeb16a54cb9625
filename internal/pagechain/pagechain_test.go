package pagechain

import (
	"bytes"
	"testing"

	"github.com/drobin/nutsgo/backend/memory"
	"github.com/drobin/nutsgo/container"
	"github.com/drobin/nutsgo/internal/cryptocore"
)

func newTestContainer(t *testing.T, blockSize uint32) *container.Container {
	t.Helper()
	b := memory.New(blockSize)
	c, err := container.Create(b, container.CreateOptions{Cipher: cryptocore.None})
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestNewHeadIsTerminal(t *testing.T) {
	c := newTestContainer(t, 64)
	s, err := NewHead(c)
	if err != nil {
		t.Fatal(err)
	}
	if ok, err := s.Next(); err != nil || ok {
		t.Fatalf("Next on a fresh head: ok=%v err=%v, want false/nil", ok, err)
	}
}

func TestWriteReadRoundTripSinglePage(t *testing.T) {
	c := newTestContainer(t, 64)
	s, err := NewHead(c)
	if err != nil {
		t.Fatal(err)
	}
	head := s.ID()

	payload := bytes.Repeat([]byte{0xab}, 10)
	n, err := s.Write(payload)
	if err != nil {
		t.Fatal(err)
	}
	if n != len(payload) {
		t.Fatalf("Write n = %d, want %d", n, len(payload))
	}
	if err := s.Flush(); err != nil {
		t.Fatal(err)
	}

	rs, err := Open(c, head)
	if err != nil {
		t.Fatal(err)
	}
	got := make([]byte, len(payload))
	n, err = rs.Read(got)
	if err != nil {
		t.Fatal(err)
	}
	if n != len(payload) || !bytes.Equal(got, payload) {
		t.Fatalf("Read: n=%d got=% x, want=% x", n, got, payload)
	}

	// The page's user region is fixed-size: the rest of it (zero padding
	// after the payload) is read before the chain is exhausted.
	rest := make([]byte, UserCapacity(c)-len(payload))
	n, err = rs.Read(rest)
	if err != nil || n != len(rest) {
		t.Fatalf("Read rest of page: n=%d err=%v, want %d/nil", n, err, len(rest))
	}

	// Past end of the (single, terminal) chain, Read returns 0 with no error.
	tail := make([]byte, 4)
	n, err = rs.Read(tail)
	if err != nil || n != 0 {
		t.Fatalf("Read past end: n=%d err=%v, want 0/nil", n, err)
	}
}

func TestWriteSpansMultiplePages(t *testing.T) {
	c := newTestContainer(t, 64)
	s, err := NewHead(c)
	if err != nil {
		t.Fatal(err)
	}
	head := s.ID()

	capacity := UserCapacity(c)
	payload := bytes.Repeat([]byte{0x11, 0x22, 0x33, 0x44}, capacity) // well over 3 pages
	if _, err := s.Write(payload); err != nil {
		t.Fatal(err)
	}
	if err := s.Flush(); err != nil {
		t.Fatal(err)
	}

	rs, err := Open(c, head)
	if err != nil {
		t.Fatal(err)
	}
	got := make([]byte, len(payload))
	n, err := rs.Read(got)
	if err != nil {
		t.Fatal(err)
	}
	if n != len(payload) || !bytes.Equal(got, payload) {
		t.Fatalf("round trip across pages failed: n=%d", n)
	}
}

func TestZeroLengthWritePerformsNoIO(t *testing.T) {
	c := newTestContainer(t, 64)
	s, err := NewHead(c)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Flush(); err != nil {
		t.Fatal(err)
	}

	n, err := s.Write(nil)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("n = %d, want 0", n)
	}
	if s.dirty {
		t.Fatal("zero-length write marked the page dirty")
	}
}

func TestInsertLinksPages(t *testing.T) {
	c := newTestContainer(t, 64)
	s, err := NewHead(c)
	if err != nil {
		t.Fatal(err)
	}
	head := s.ID()

	newID, err := s.Insert()
	if err != nil {
		t.Fatal(err)
	}
	if newID.Equal(head) {
		t.Fatal("Insert returned the same id as the head")
	}
	if !s.ID().Equal(newID) {
		t.Fatalf("Stream not repositioned at the new page")
	}

	rs, err := Open(c, head)
	if err != nil {
		t.Fatal(err)
	}
	ok, err := rs.Next()
	if err != nil {
		t.Fatal(err)
	}
	if !ok || !rs.ID().Equal(newID) {
		t.Fatalf("head's next does not resolve to the inserted page")
	}
}
