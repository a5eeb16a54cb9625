// Package kdf implements password-to-key derivation for the container
// header: the "None" KDF (only valid alongside cryptocore.None) and
// PBKDF2-HMAC with a selectable digest, serializable the same way the
// teacher's configfile.ScryptKDF/Argon2idKDF structs are: a parameter
// struct, a New...KDF constructor that fills in a random salt, a
// validateParams step, and a DeriveKey(password) method — the algorithm
// itself swapped for PBKDF2 per spec.md §4.4.
package kdf

import (
	"fmt"

	"golang.org/x/crypto/pbkdf2"

	"github.com/drobin/nutsgo/internal/buffer"
	"github.com/drobin/nutsgo/internal/bytecodec"
	"github.com/drobin/nutsgo/internal/cryptocore"
)

// Kind distinguishes the KDF variants.
type Kind uint32

const (
	KindNone Kind = iota
	KindPbkdf2
)

// DefaultIterations is used by CreateOptions when the caller does not
// specify a PBKDF2 iteration count, matching spec.md §4.7's
// "default PBKDF2-SHA256-65536-salt16".
const DefaultIterations = 65536

// DefaultSaltLen is the default PBKDF2 salt length in bytes.
const DefaultSaltLen = 16

// Kdf is either the identity KDF (None) or PBKDF2 with the given
// parameters. The zero value is None.
type Kdf struct {
	kind   Kind
	digest Digest
	iter   uint32
	salt   []byte
}

// None returns the identity KDF, valid only with cryptocore.None.
func None() Kdf {
	return Kdf{kind: KindNone}
}

// NewPbkdf2 builds a PBKDF2 KDF with explicit parameters.
func NewPbkdf2(digest Digest, iterations uint32, salt []byte) Kdf {
	return Kdf{kind: KindPbkdf2, digest: digest, iter: iterations, salt: salt}
}

// GeneratePbkdf2 builds a PBKDF2 KDF with iterations iterations and a
// fresh, cryptographically random salt of saltLen bytes.
func GeneratePbkdf2(digest Digest, iterations uint32, saltLen int) Kdf {
	return NewPbkdf2(digest, iterations, cryptocore.RandBytes(saltLen))
}

// DefaultPbkdf2 returns PBKDF2-SHA256 with DefaultIterations and a fresh
// DefaultSaltLen-byte salt, the container's default KDF (spec.md §4.7).
func DefaultPbkdf2() Kdf {
	return GeneratePbkdf2(Sha256, DefaultIterations, DefaultSaltLen)
}

// IsNone reports whether this is the identity KDF.
func (k Kdf) IsNone() bool { return k.kind == KindNone }

// Digest returns the PBKDF2 digest; only meaningful when !IsNone().
func (k Kdf) Digest() Digest { return k.digest }

// Iterations returns the PBKDF2 iteration count; only meaningful when
// !IsNone().
func (k Kdf) Iterations() uint32 { return k.iter }

// Salt returns the PBKDF2 salt; only meaningful when !IsNone().
func (k Kdf) Salt() []byte { return k.salt }

func (k Kdf) validate() error {
	if k.iter == 0 {
		return fmt.Errorf("kdf: iterations must be > 0")
	}
	return nil
}

// CreateKey derives a keyLen-byte key from password, returning it in a
// secure buffer. Fails if password or the salt is empty (spec.md §4.4).
func (k Kdf) CreateKey(password []byte, keyLen int) (*buffer.Secure, error) {
	if k.kind == KindNone {
		return buffer.New(keyLen), nil
	}
	if len(password) == 0 {
		return nil, fmt.Errorf("kdf: invalid password, cannot be empty")
	}
	if len(k.salt) == 0 {
		return nil, fmt.Errorf("kdf: invalid salt, cannot be empty")
	}
	if err := k.validate(); err != nil {
		return nil, err
	}
	hashFn := k.digest.newHash()
	if hashFn == nil {
		return nil, fmt.Errorf("kdf: unsupported digest %v", k.digest)
	}
	key := pbkdf2.Key(password, k.salt, int(k.iter), keyLen, hashFn)
	return buffer.Wrap(key), nil
}

// Encode writes the KDF's wire form: a u32 variant tag, then for Pbkdf2,
// {digest tag, iterations, salt as a length-prefixed byte vector}.
func (k Kdf) Encode(w *bytecodec.Writer) error {
	if err := w.PutU32(uint32(k.kind)); err != nil {
		return err
	}
	if k.kind == KindNone {
		return nil
	}
	if err := k.digest.Encode(w); err != nil {
		return err
	}
	if err := w.PutU32(k.iter); err != nil {
		return err
	}
	return w.PutVec(k.salt)
}

// Decode reads the wire form written by Encode, failing with
// bytecodec.InvalidVariant for an unknown KDF tag.
func Decode(r *bytecodec.Reader) (Kdf, error) {
	tag, err := r.TakeVariant()
	if err != nil {
		return Kdf{}, err
	}
	switch Kind(tag) {
	case KindNone:
		return None(), nil
	case KindPbkdf2:
		digest, err := DecodeDigest(r)
		if err != nil {
			return Kdf{}, err
		}
		iter, err := r.TakeU32()
		if err != nil {
			return Kdf{}, err
		}
		salt, err := r.TakeVec()
		if err != nil {
			return Kdf{}, err
		}
		return NewPbkdf2(digest, iter, salt), nil
	default:
		return Kdf{}, bytecodec.InvalidVariant(tag)
	}
}
