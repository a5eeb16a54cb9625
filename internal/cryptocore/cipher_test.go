package cryptocore

import (
	"bytes"
	"testing"

	"github.com/drobin/nutsgo/internal/bytecodec"
)

func allCiphers() []Cipher {
	return []Cipher{None, Aes128Ctr, Aes192Ctr, Aes256Ctr, Aes128Gcm, Aes192Gcm, Aes256Gcm}
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	const bsizeNet = 32
	for _, c := range allCiphers() {
		key := RandBytes(c.KeyLen())
		iv := RandBytes(c.IVLen())
		plaintext := PadOrTruncate([]byte("hello from the container layer!"), bsizeNet)

		ciphertext, err := c.Encrypt(key, iv, plaintext)
		if err != nil {
			t.Fatalf("%s: Encrypt: %v", c, err)
		}
		if len(ciphertext) != bsizeNet+c.TagSize() {
			t.Fatalf("%s: ciphertext len = %d, want %d", c, len(ciphertext), bsizeNet+c.TagSize())
		}

		got, err := c.Decrypt(key, iv, ciphertext)
		if err != nil {
			t.Fatalf("%s: Decrypt: %v", c, err)
		}
		if !bytes.Equal(got, plaintext) {
			t.Fatalf("%s: round trip mismatch: got % x, want % x", c, got, plaintext)
		}
	}
}

func TestGCMTamperDetection(t *testing.T) {
	for _, c := range []Cipher{Aes128Gcm, Aes192Gcm, Aes256Gcm} {
		key := RandBytes(c.KeyLen())
		iv := RandBytes(c.IVLen())
		plaintext := PadOrTruncate([]byte("authenticated data"), 32)

		ciphertext, err := c.Encrypt(key, iv, plaintext)
		if err != nil {
			t.Fatal(err)
		}
		ciphertext[0] ^= 0x01 // flip a bit

		if _, err := c.Decrypt(key, iv, ciphertext); err != ErrAuth {
			t.Fatalf("%s: got %v, want ErrAuth", c, err)
		}
	}
}

func TestPadOrTruncate(t *testing.T) {
	short := PadOrTruncate([]byte{1, 2, 3}, 5)
	if !bytes.Equal(short, []byte{1, 2, 3, 0, 0}) {
		t.Fatalf("pad: got % x", short)
	}

	long := PadOrTruncate([]byte{1, 2, 3, 4, 5}, 3)
	if !bytes.Equal(long, []byte{1, 2, 3}) {
		t.Fatalf("truncate: got % x", long)
	}
}

func TestCipherWireTagEncoding(t *testing.T) {
	sink := bytecodec.NewVecSink()
	w := bytecodec.NewWriter(sink)
	if err := Aes128Gcm.Encode(w); err != nil {
		t.Fatal(err)
	}
	want := []byte{0x00, 0x00, 0x00, 0x02}
	if !bytes.Equal(sink.Bytes(), want) {
		t.Fatalf("got % x, want % x", sink.Bytes(), want)
	}

	r := bytecodec.NewReader(bytecodec.NewSliceSource(sink.Bytes()))
	got, err := DecodeCipher(r)
	if err != nil {
		t.Fatal(err)
	}
	if got != Aes128Gcm {
		t.Fatalf("got %v, want Aes128Gcm", got)
	}
}

func TestCipherInvalidWireTag(t *testing.T) {
	sink := bytecodec.NewVecSink()
	w := bytecodec.NewWriter(sink)
	_ = w.PutU32(7)

	r := bytecodec.NewReader(bytecodec.NewSliceSource(sink.Bytes()))
	_, err := DecodeCipher(r)
	if err == nil {
		t.Fatal("expected InvalidVariantIndex(7)")
	}
}

func TestDeriveBlockIV(t *testing.T) {
	rootIV := []byte{0xff, 0xff, 0xff, 0xff}
	blockID := []byte{0x00, 0x00, 0x00, 0x01}
	iv := DeriveBlockIV(rootIV, blockID)
	want := []byte{0xff, 0xff, 0xff, 0xfe}
	if !bytes.Equal(iv, want) {
		t.Fatalf("got % x, want % x", iv, want)
	}
}

func TestCipherStringRoundTrip(t *testing.T) {
	for _, c := range allCiphers() {
		parsed, err := CipherFromString(c.String())
		if err != nil {
			t.Fatal(err)
		}
		if parsed != c {
			t.Fatalf("got %v, want %v", parsed, c)
		}
	}
}
