package bytecodec

import (
	"bytes"
	"testing"
)

func TestFixedWidthRoundTrip(t *testing.T) {
	sink := NewVecSink()
	w := NewWriter(sink)

	if err := w.PutU8(0xAB); err != nil {
		t.Fatal(err)
	}
	if err := w.PutU16(0x1234); err != nil {
		t.Fatal(err)
	}
	if err := w.PutU32(0xDEADBEEF); err != nil {
		t.Fatal(err)
	}
	if err := w.PutU64(0x0102030405060708); err != nil {
		t.Fatal(err)
	}
	if err := w.PutI64(-1); err != nil {
		t.Fatal(err)
	}

	want := []byte{
		0xAB,
		0x12, 0x34,
		0xDE, 0xAD, 0xBE, 0xEF,
		0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08,
		0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF,
	}
	if !bytes.Equal(sink.Bytes(), want) {
		t.Fatalf("got % x, want % x", sink.Bytes(), want)
	}

	r := NewReader(NewSliceSource(sink.Bytes()))
	u8, _ := r.TakeU8()
	u16, _ := r.TakeU16()
	u32, _ := r.TakeU32()
	u64, _ := r.TakeU64()
	i64, _ := r.TakeI64()

	if u8 != 0xAB || u16 != 0x1234 || u32 != 0xDEADBEEF || u64 != 0x0102030405060708 || i64 != -1 {
		t.Fatalf("round trip mismatch: %x %x %x %x %d", u8, u16, u32, u64, i64)
	}
}

func TestStringRoundTrip(t *testing.T) {
	sink := NewVecSink()
	w := NewWriter(sink)
	if err := w.PutString("hello, nuts"); err != nil {
		t.Fatal(err)
	}

	r := NewReader(NewSliceSource(sink.Bytes()))
	s, err := r.TakeString()
	if err != nil {
		t.Fatal(err)
	}
	if s != "hello, nuts" {
		t.Fatalf("got %q", s)
	}
}

func TestStringInvalidUTF8(t *testing.T) {
	sink := NewVecSink()
	w := NewWriter(sink)
	if err := w.PutVec([]byte{0xff, 0xfe, 0xfd}); err != nil {
		t.Fatal(err)
	}

	r := NewReader(NewSliceSource(sink.Bytes()))
	if _, err := r.TakeString(); err == nil {
		t.Fatal("expected InvalidString error")
	} else if e, ok := err.(*Error); !ok || e.Kind != ErrInvalidString {
		t.Fatalf("got %v, want ErrInvalidString", err)
	}
}

func TestVariantTagRoundTrip(t *testing.T) {
	sink := NewVecSink()
	w := NewWriter(sink)
	if err := w.PutVariant(2); err != nil {
		t.Fatal(err)
	}

	r := NewReader(NewSliceSource(sink.Bytes()))
	tag, err := r.TakeVariant()
	if err != nil {
		t.Fatal(err)
	}
	if tag != 2 {
		t.Fatalf("got %d, want 2", tag)
	}
}

func TestBoundedBytesRejectsOversize(t *testing.T) {
	sink := NewVecSink()
	w := NewWriter(sink)
	big := make([]byte, 256)

	err := w.PutBoundedBytes(big, 1)
	if err == nil {
		t.Fatal("expected ErrBoundsExceeded")
	}
	if e, ok := err.(*Error); !ok || e.Kind != ErrBoundsExceeded {
		t.Fatalf("got %v", err)
	}
}

func TestBoundedBytesRoundTrip(t *testing.T) {
	sink := NewVecSink()
	w := NewWriter(sink)
	data := []byte{1, 2, 3, 4, 5}
	if err := w.PutBoundedBytes(data, 2); err != nil {
		t.Fatal(err)
	}

	r := NewReader(NewSliceSource(sink.Bytes()))
	got, err := r.TakeBoundedBytes(2)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("got % x, want % x", got, data)
	}
}

func TestSliceSourceEOF(t *testing.T) {
	r := NewReader(NewSliceSource([]byte{1, 2}))
	if _, err := r.TakeU32(); err == nil {
		t.Fatal("expected ErrEOF")
	} else if e, ok := err.(*Error); !ok || e.Kind != ErrEOF {
		t.Fatalf("got %v", err)
	}
}

func TestFixedSinkNoSpace(t *testing.T) {
	buf := make([]byte, 2)
	w := NewWriter(NewFixedSink(buf))
	if err := w.PutU32(1); err == nil {
		t.Fatal("expected ErrNoSpace")
	} else if e, ok := err.(*Error); !ok || e.Kind != ErrNoSpace {
		t.Fatalf("got %v", err)
	}
}

func TestVecRoundTripLength(t *testing.T) {
	sink := NewVecSink()
	w := NewWriter(sink)
	data := []byte("arbitrary length payload data")
	if err := w.PutVec(data); err != nil {
		t.Fatal(err)
	}
	// u64 length prefix + payload
	if len(sink.Bytes()) != 8+len(data) {
		t.Fatalf("encoded length = %d, want %d", len(sink.Bytes()), 8+len(data))
	}

	r := NewReader(NewSliceSource(sink.Bytes()))
	got, err := r.TakeVec()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("got % x", got)
	}
}
