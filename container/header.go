package container

import (
	"fmt"

	"github.com/drobin/nutsgo/backend"
	"github.com/drobin/nutsgo/internal/buffer"
	"github.com/drobin/nutsgo/internal/bytecodec"
	"github.com/drobin/nutsgo/internal/cryptocore"
	"github.com/drobin/nutsgo/internal/kdf"
)

const (
	magic           = "nuts-io"
	currentRevision = uint32(2)
)

var acceptedRevisions = map[uint32]bool{0: true, 1: true, 2: true}

// Header is the container's on-disk prologue (spec.md §3 "Header"):
// magic, revision, cipher, KDF and an encrypted secret payload that holds
// the master key/IV plus the optional service binding and archive top-id.
type Header struct {
	Revision  uint32
	Cipher    cryptocore.Cipher
	Kdf       kdf.Kdf
	Key       *buffer.Secure
	IV        *buffer.Secure
	ServiceID *uint32
	TopID     backend.BlockID
}

// PasswordFunc supplies the user's password on demand. It is called at
// most once per header read or write, and never when the header's KDF is
// KindNone.
type PasswordFunc func() ([]byte, error)

type secretPayload struct {
	key   []byte
	iv    []byte
	sid   *uint32
	topID []byte
}

// encode serializes p to match decodeSecretPayload's shape for revision:
// rev0 writes only key+iv, rev1 adds the service-id flag/value, rev2 adds
// the top-id flag/value on top of that.
func (p secretPayload) encode(revision uint32) ([]byte, error) {
	sink := bytecodec.NewVecSink()
	w := bytecodec.NewWriter(sink)

	if err := w.PutVec(p.key); err != nil {
		return nil, err
	}
	if err := w.PutVec(p.iv); err != nil {
		return nil, err
	}
	if revision == 0 {
		return sink.Bytes(), nil
	}

	if err := w.PutBool(p.sid != nil); err != nil {
		return nil, err
	}
	if p.sid != nil {
		if err := w.PutU32(*p.sid); err != nil {
			return nil, err
		}
	}
	if revision == 1 {
		return sink.Bytes(), nil
	}

	if err := w.PutBool(p.topID != nil); err != nil {
		return nil, err
	}
	if p.topID != nil {
		if err := w.PutVec(p.topID); err != nil {
			return nil, err
		}
	}
	return sink.Bytes(), nil
}

// decodeSecretPayload inverts encode for a given header revision. Rev0
// omits the service-id and top-id entirely (they lived in a separate
// userdata block, recovered only via Migration); rev1 carries the
// service-id but not the top-id.
func decodeSecretPayload(revision uint32, raw []byte) (secretPayload, error) {
	r := bytecodec.NewReader(bytecodec.NewSliceSource(raw))
	var p secretPayload
	var err error

	if p.key, err = r.TakeVec(); err != nil {
		return p, errCodec(err)
	}
	if p.iv, err = r.TakeVec(); err != nil {
		return p, errCodec(err)
	}
	if revision == 0 {
		return p, nil
	}

	hasSid, err := r.TakeBool()
	if err != nil {
		return p, errCodec(err)
	}
	if hasSid {
		sid, err := r.TakeU32()
		if err != nil {
			return p, errCodec(err)
		}
		p.sid = &sid
	}
	if revision == 1 {
		return p, nil
	}

	hasTopID, err := r.TakeBool()
	if err != nil {
		return p, errCodec(err)
	}
	if hasTopID {
		if p.topID, err = r.TakeVec(); err != nil {
			return p, errCodec(err)
		}
	}
	return p, nil
}

// WriteHeader serializes hdr at currentRevision and writes it to b's
// header block, deriving the wrap key from password first. Prefer
// writeHeaderWithKey when a wrap key is already held (service binding,
// migration), to avoid re-running the KDF.
func WriteHeader(b backend.Backend, hdr *Header, password []byte) error {
	passKey, err := hdr.Kdf.CreateKey(password, hdr.Cipher.KeyLen())
	if err != nil {
		return errPassword(err)
	}
	defer passKey.Release()
	return writeHeaderWithKey(b, hdr, passKey)
}

// writeHeaderWithKey is WriteHeader with an already-derived wrap key,
// saving a PBKDF2 run when only the service binding or top-id changed. It
// always writes at currentRevision; writeHeaderAtRevision exists
// separately for migration fixtures and tests that need an older shape.
func writeHeaderWithKey(b backend.Backend, hdr *Header, passKey *buffer.Secure) error {
	return writeHeaderAtRevision(b, hdr, passKey, currentRevision)
}

// writeHeaderAtRevision serializes hdr's secret payload in the shape for
// revision (see secretPayload.encode) and writes the whole header block.
// Production code always calls this via writeHeaderWithKey at
// currentRevision; older revisions are only ever produced by legacy
// fixtures or migration tests.
func writeHeaderAtRevision(b backend.Backend, hdr *Header, passKey *buffer.Secure, revision uint32) error {
	prefixSink := bytecodec.NewVecSink()
	pw := bytecodec.NewWriter(prefixSink)

	if err := pw.PutBytes([]byte(magic)); err != nil {
		return errCodec(err)
	}
	if err := pw.PutU32(revision); err != nil {
		return errCodec(err)
	}
	if err := hdr.Cipher.Encode(pw); err != nil {
		return errCodec(err)
	}
	if err := hdr.Kdf.Encode(pw); err != nil {
		return errCodec(err)
	}
	prefix := prefixSink.Bytes()

	blockSize := int(b.BlockSize())
	gross := blockSize - len(prefix)
	net := gross - hdr.Cipher.TagSize()
	if net < 0 {
		return errCodec(fmt.Errorf("container: block size %d too small for header", blockSize))
	}

	var topID []byte
	if !hdr.TopID.IsNull() {
		topID = hdr.TopID.Bytes()
	}
	plain, err := secretPayload{key: hdr.Key.Bytes(), iv: hdr.IV.Bytes(), sid: hdr.ServiceID, topID: topID}.encode(revision)
	if err != nil {
		return errCodec(err)
	}
	plain = cryptocore.PadOrTruncate(plain, net)

	// The wrap key is single-use: a fresh KDF salt is generated on every
	// create/modify, so a zero IV here never repeats under the same key.
	wrapIV := make([]byte, hdr.Cipher.IVLen())
	ciphertext, err := hdr.Cipher.Encrypt(passKey.Bytes(), wrapIV, plain)
	if err != nil {
		return errCodec(err)
	}
	if len(ciphertext) != gross {
		return errCodec(fmt.Errorf("container: encrypted header payload is %d bytes, want %d", len(ciphertext), gross))
	}

	block := append(prefix, ciphertext...)
	if _, err := b.Write(b.HeaderID(), block); err != nil {
		return errBackend(err)
	}
	return nil
}

// ReadHeader reads and parses b's header block, decrypting the secret
// payload with a key derived from passwordFn. passwordFn may be nil when
// the stored KDF is KindNone.
func ReadHeader(b backend.Backend, passwordFn PasswordFunc) (*Header, error) {
	hdr, passKey, err := readHeaderWithKey(b, passwordFn)
	if passKey != nil {
		passKey.Release()
	}
	return hdr, err
}

// readHeaderWithKey is ReadHeader but also returns the derived wrap key, so
// Container.Open can hold onto it for cheap header rewrites later instead
// of re-running the KDF.
func readHeaderWithKey(b backend.Backend, passwordFn PasswordFunc) (*Header, *buffer.Secure, error) {
	block := make([]byte, b.BlockSize())
	if _, err := b.Read(b.HeaderID(), block); err != nil {
		return nil, nil, errBackend(err)
	}

	src := bytecodec.NewSliceSource(block)
	r := bytecodec.NewReader(src)

	gotMagic := make([]byte, len(magic))
	if err := r.TakeBytes(gotMagic); err != nil {
		return nil, nil, errCodec(err)
	}
	if string(gotMagic) != magic {
		return nil, nil, errInvalidHeader()
	}

	revision, err := r.TakeU32()
	if err != nil {
		return nil, nil, errCodec(err)
	}
	if !acceptedRevisions[revision] {
		return nil, nil, errInvalidRevision(currentRevision, revision)
	}

	cipher, err := cryptocore.DecodeCipher(r)
	if err != nil {
		return nil, nil, errCodec(err)
	}
	kd, err := kdf.Decode(r)
	if err != nil {
		return nil, nil, errCodec(err)
	}

	var password []byte
	if !kd.IsNone() {
		if passwordFn == nil {
			return nil, nil, errPassword(fmt.Errorf("container: password required, no callback configured"))
		}
		password, err = passwordFn()
		if err != nil {
			return nil, nil, errPassword(err)
		}
	}

	passKey, err := kd.CreateKey(password, cipher.KeyLen())
	if err != nil {
		return nil, nil, errPassword(err)
	}

	ciphertext := src.Remaining()
	wrapIV := make([]byte, cipher.IVLen())
	plain, err := cipher.Decrypt(passKey.Bytes(), wrapIV, ciphertext)
	if err != nil {
		passKey.Release()
		if err == cryptocore.ErrAuth {
			return nil, nil, errCipherAuth()
		}
		return nil, nil, errPassword(err)
	}

	payload, err := decodeSecretPayload(revision, plain)
	if err != nil {
		passKey.Release()
		return nil, nil, err
	}

	hdr := &Header{
		Revision:  revision,
		Cipher:    cipher,
		Kdf:       kd,
		Key:       buffer.Wrap(payload.key),
		IV:        buffer.Wrap(payload.iv),
		ServiceID: payload.sid,
		TopID:     blockIDOrNull(payload.topID),
	}
	return hdr, passKey, nil
}

func blockIDOrNull(raw []byte) backend.BlockID {
	if len(raw) == 0 {
		return backend.NullID
	}
	return backend.NewBlockID(raw)
}
