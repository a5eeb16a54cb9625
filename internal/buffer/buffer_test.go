package buffer

import "testing"

func TestNewZeroFilled(t *testing.T) {
	s := New(32)
	defer s.Release()

	if s.Len() != 32 {
		t.Fatalf("Len() = %d, want 32", s.Len())
	}
	for i, b := range s.Bytes() {
		if b != 0 {
			t.Fatalf("byte %d not zero: %d", i, b)
		}
	}
}

func TestWrapTakesOwnership(t *testing.T) {
	data := []byte("supersecretkeymaterial")
	s := Wrap(data)
	defer s.Release()

	if string(s.Bytes()) != "supersecretkeymaterial" {
		t.Fatalf("Bytes() mismatch")
	}
}

func TestReleaseZeroizes(t *testing.T) {
	s := New(16)
	copy(s.Bytes(), []byte("0123456789abcdef"))
	data := s.Bytes()
	s.Release()

	for i, b := range data {
		if b != 0 {
			t.Fatalf("byte %d not zeroized: %d", i, b)
		}
	}
	if s.Bytes() != nil {
		t.Fatalf("Bytes() should be nil after Release")
	}
}

func TestReleaseIdempotent(t *testing.T) {
	s := New(8)
	s.Release()
	s.Release() // must not panic
}

func TestStringDoesNotLeakContents(t *testing.T) {
	s := New(8)
	copy(s.Bytes(), []byte("leakme!!"))
	defer s.Release()

	str := s.String()
	if str == "leakme!!" {
		t.Fatalf("String() leaked contents")
	}
}

func TestEmptyBuffer(t *testing.T) {
	s := New(0)
	defer s.Release()

	if s.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", s.Len())
	}
}
