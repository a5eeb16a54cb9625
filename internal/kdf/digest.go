package kdf

import (
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"

	"github.com/drobin/nutsgo/internal/bytecodec"
)

// Digest identifies a hash function used as PBKDF2's underlying HMAC.
type Digest uint32

const (
	Sha1 Digest = iota
	Sha224
	Sha256
	Sha384
	Sha512
)

var digestNames = map[Digest]string{
	Sha1:   "sha1",
	Sha224: "sha224",
	Sha256: "sha256",
	Sha384: "sha384",
	Sha512: "sha512",
}

var digestSizes = map[Digest]int{
	Sha1:   20,
	Sha224: 28,
	Sha256: 32,
	Sha384: 48,
	Sha512: 64,
}

// Size returns the digest's output length in bytes.
func (d Digest) Size() int { return digestSizes[d] }

func (d Digest) String() string {
	if n, ok := digestNames[d]; ok {
		return n
	}
	return fmt.Sprintf("digest(%d)", uint32(d))
}

// DigestFromString parses the canonical name produced by String.
func DigestFromString(s string) (Digest, error) {
	for d, n := range digestNames {
		if n == s {
			return d, nil
		}
	}
	return 0, fmt.Errorf("kdf: unknown digest %q", s)
}

func (d Digest) newHash() func() hash.Hash {
	switch d {
	case Sha1:
		return sha1.New
	case Sha224:
		return sha256.New224
	case Sha256:
		return sha256.New
	case Sha384:
		return sha512.New384
	case Sha512:
		return sha512.New
	default:
		return nil
	}
}

// Encode writes the digest's u32 wire tag.
func (d Digest) Encode(w *bytecodec.Writer) error {
	if _, ok := digestNames[d]; !ok {
		return fmt.Errorf("kdf: digest %d has no wire tag", uint32(d))
	}
	return w.PutU32(uint32(d))
}

// DecodeDigest reads a u32 wire tag, failing with bytecodec.InvalidVariant
// for unknown tags.
func DecodeDigest(r *bytecodec.Reader) (Digest, error) {
	tag, err := r.TakeVariant()
	if err != nil {
		return 0, err
	}
	d := Digest(tag)
	if _, ok := digestNames[d]; !ok {
		return 0, bytecodec.InvalidVariant(tag)
	}
	return d, nil
}
