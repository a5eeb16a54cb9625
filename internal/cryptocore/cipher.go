// Package cryptocore implements per-block encryption and decryption for
// the container layer: AES in CTR or GCM mode at three key sizes, plus a
// "None" identity cipher, and the per-block IV derivation shared by all of
// them. It mirrors the AEAD construction style of the teacher's
// cryptocore.OptimizedBackend (stdlib crypto/aes + crypto/cipher) without
// the SIMD/batch dispatch machinery, which has no place in a
// single-threaded container.
package cryptocore

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"

	"github.com/drobin/nutsgo/internal/bytecodec"
)

// Cipher identifies one of the container's supported ciphers. The zero
// value is None.
type Cipher uint32

const (
	None Cipher = iota
	Aes128Ctr
	Aes128Gcm
	Aes192Ctr
	Aes192Gcm
	Aes256Ctr
	Aes256Gcm
)

type props struct {
	name      string
	keyLen    int
	ivLen     int
	tagSize   int
	blockSize int
}

var table = map[Cipher]props{
	None:      {"none", 0, 0, 0, 1},
	Aes128Ctr: {"aes128-ctr", 16, 16, 0, 16},
	Aes192Ctr: {"aes192-ctr", 24, 16, 0, 16},
	Aes256Ctr: {"aes256-ctr", 32, 16, 0, 16},
	Aes128Gcm: {"aes128-gcm", 16, 12, 16, 16},
	Aes192Gcm: {"aes192-gcm", 24, 12, 16, 16},
	Aes256Gcm: {"aes256-gcm", 32, 12, 16, 16},
}

// spec.md §3 "Header" serializes the cipher as this fixed variant-index
// order: None=0, Aes128Ctr=1, Aes128Gcm=2, Aes192Ctr=3, Aes192Gcm=4,
// Aes256Ctr=5, Aes256Gcm=6. The Cipher constants above are declared in Go
// iota order for readability; tagOrder below is the wire order.
var tagOrder = []Cipher{None, Aes128Ctr, Aes128Gcm, Aes192Ctr, Aes192Gcm, Aes256Ctr, Aes256Gcm}

func (c Cipher) wireTag() (uint32, bool) {
	for i, v := range tagOrder {
		if v == c {
			return uint32(i), true
		}
	}
	return 0, false
}

func cipherFromWireTag(tag uint32) (Cipher, bool) {
	if int(tag) >= len(tagOrder) {
		return 0, false
	}
	return tagOrder[tag], true
}

// KeyLen returns the key length in bytes.
func (c Cipher) KeyLen() int { return table[c].keyLen }

// IVLen returns the IV length in bytes.
func (c Cipher) IVLen() int { return table[c].ivLen }

// TagSize returns the AEAD authentication tag length in bytes (0 for
// ciphers without an authentication tag).
func (c Cipher) TagSize() int { return table[c].tagSize }

// BlockSize returns the underlying block cipher's block size in bytes.
func (c Cipher) BlockSize() int { return table[c].blockSize }

// String returns the canonical CLI/config name of the cipher.
func (c Cipher) String() string {
	if p, ok := table[c]; ok {
		return p.name
	}
	return fmt.Sprintf("cipher(%d)", uint32(c))
}

// CipherFromString parses the canonical name produced by String.
func CipherFromString(s string) (Cipher, error) {
	for c, p := range table {
		if p.name == s {
			return c, nil
		}
	}
	return 0, fmt.Errorf("cryptocore: unknown cipher %q", s)
}

// Encode writes the cipher's u32 wire tag (spec.md §3 field 3).
func (c Cipher) Encode(w *bytecodec.Writer) error {
	tag, ok := c.wireTag()
	if !ok {
		return fmt.Errorf("cryptocore: cipher %d has no wire tag", uint32(c))
	}
	return w.PutU32(tag)
}

// DecodeCipher reads a u32 wire tag and resolves it to a Cipher, failing
// with bytecodec.InvalidVariant for unknown tags.
func DecodeCipher(r *bytecodec.Reader) (Cipher, error) {
	tag, err := r.TakeVariant()
	if err != nil {
		return 0, err
	}
	c, ok := cipherFromWireTag(tag)
	if !ok {
		return 0, bytecodec.InvalidVariant(tag)
	}
	return c, nil
}

// RandBytes returns n cryptographically random bytes, used for salts, IVs
// and master keys.
func RandBytes(n int) []byte {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		panic(fmt.Sprintf("cryptocore: crypto/rand failed: %v", err))
	}
	return buf
}

// DeriveBlockIV computes the per-block IV (spec.md §4.3): the root IV
// XORed with the big-endian serialization of the block id, left-padded
// with zeros to ivLen and truncated on the right if the id is longer.
func DeriveBlockIV(rootIV []byte, blockID []byte) []byte {
	ivLen := len(rootIV)
	iv := make([]byte, ivLen)
	copy(iv, rootIV)

	padded := make([]byte, ivLen)
	// Left-pad blockID with zeros to ivLen; if blockID is longer, keep
	// only its rightmost ivLen bytes (big-endian truncation).
	if len(blockID) >= ivLen {
		copy(padded, blockID[len(blockID)-ivLen:])
	} else {
		copy(padded[ivLen-len(blockID):], blockID)
	}

	for i := range iv {
		iv[i] ^= padded[i]
	}
	return iv
}

// newAEAD builds the cipher.AEAD for a GCM cipher.
func newAEAD(c Cipher, key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// Encrypt runs the cipher primitive over plaintext and, for AEAD ciphers,
// appends the authentication tag. Callers are responsible for padding or
// truncating plaintext to bsize_net first (see PadOrTruncate); Encrypt
// itself does not resize its input.
func (c Cipher) Encrypt(key, iv, plaintext []byte) ([]byte, error) {
	switch {
	case c == None:
		out := make([]byte, len(plaintext))
		copy(out, plaintext)
		return out, nil

	case c == Aes128Ctr || c == Aes192Ctr || c == Aes256Ctr:
		block, err := aes.NewCipher(key)
		if err != nil {
			return nil, err
		}
		stream := cipher.NewCTR(block, iv)
		out := make([]byte, len(plaintext))
		stream.XORKeyStream(out, plaintext)
		return out, nil

	case c == Aes128Gcm || c == Aes192Gcm || c == Aes256Gcm:
		aead, err := newAEAD(c, key)
		if err != nil {
			return nil, err
		}
		// Seal appends the tag to the ciphertext, matching spec.md's
		// "last tag_size bytes hold the tag" layout.
		return aead.Seal(nil, iv, plaintext, nil), nil

	default:
		return nil, fmt.Errorf("cryptocore: unsupported cipher %d", uint32(c))
	}
}

// Decrypt inverts Encrypt. For AEAD ciphers, a tag mismatch is reported via
// ErrAuth.
func (c Cipher) Decrypt(key, iv, ciphertext []byte) ([]byte, error) {
	switch {
	case c == None:
		out := make([]byte, len(ciphertext))
		copy(out, ciphertext)
		return out, nil

	case c == Aes128Ctr || c == Aes192Ctr || c == Aes256Ctr:
		block, err := aes.NewCipher(key)
		if err != nil {
			return nil, err
		}
		stream := cipher.NewCTR(block, iv)
		out := make([]byte, len(ciphertext))
		stream.XORKeyStream(out, ciphertext)
		return out, nil

	case c == Aes128Gcm || c == Aes192Gcm || c == Aes256Gcm:
		aead, err := newAEAD(c, key)
		if err != nil {
			return nil, err
		}
		out, err := aead.Open(nil, iv, ciphertext, nil)
		if err != nil {
			return nil, ErrAuth
		}
		return out, nil

	default:
		return nil, fmt.Errorf("cryptocore: unsupported cipher %d", uint32(c))
	}
}

// ErrAuth is returned by Decrypt when an AEAD tag fails to verify. It maps
// to container.KindCipherAuth, a fatal condition with no retry.
var ErrAuth = authError{}

type authError struct{}

func (authError) Error() string { return "cryptocore: AEAD authentication failed" }
