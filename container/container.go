// Package container implements the encrypted block container: header
// format, cipher/KDF pipeline, encrypted block I/O, service binding, and
// revision migration (spec.md §4.6, §4.7). It is grounded on
// zchee-go-qcow2's fixed-layout image header (magic + version fields) for
// the on-disk shape, and on internal/configfile's KDF-wrapped-secret
// pattern for how the password-derived key guards the master secret.
package container

import (
	"github.com/drobin/nutsgo/backend"
	"github.com/drobin/nutsgo/internal/buffer"
	"github.com/drobin/nutsgo/internal/cryptocore"
	"github.com/drobin/nutsgo/internal/kdf"
	"github.com/drobin/nutsgo/internal/tlog"
)

// CreateOptions configures Create.
type CreateOptions struct {
	// Cipher selects the block cipher. The zero value is cryptocore.None.
	Cipher cryptocore.Cipher
	// Kdf, if nil, defaults to kdf.None() for Cipher none and
	// kdf.DefaultPbkdf2() otherwise (spec.md §4.7).
	Kdf *kdf.Kdf
	// PasswordFunc supplies the password; required unless the resolved
	// Kdf is KindNone.
	PasswordFunc PasswordFunc
}

// OpenOptions configures Open.
type OpenOptions struct {
	// PasswordFunc supplies the password; required unless the header's
	// stored KDF is KindNone.
	PasswordFunc PasswordFunc
	// ExpectedServiceID, if non-nil, must match the header's bound
	// service id (or its absence); mismatches fail with UnexpectedSid.
	ExpectedServiceID *uint32
	// Migrate opts into rewriting a revision 0/1 header to the current
	// revision, per Migrator's recovered service binding and top-id.
	Migrate bool
	// Migrator supplies the legacy-userdata recovery callback; required
	// when Migrate is true and the header is revision 0 or 1.
	Migrator Migrator
	// LegacyUserdataID is the block holding a revision 0/1 container's
	// userdata, as tracked by the caller's own (out-of-scope) container
	// registry. Only read when Migrate is true.
	LegacyUserdataID backend.BlockID
}

// ModifyOptions rotates the header's KDF and/or password.
type ModifyOptions struct {
	Kdf          kdf.Kdf
	PasswordFunc PasswordFunc
}

// Info describes a container for display (spec.md §4.7 "info").
type Info struct {
	Revision   uint32
	Cipher     cryptocore.Cipher
	Kdf        kdf.Kdf
	BsizeGross uint32
	BsizeNet   uint32
	Backend    map[string]string
}

// Container binds a header to a backend and a cipher, exposing encrypted
// block I/O plus service attach/open and KDF/password rotation. A
// Container must not be shared across goroutines (spec.md §5).
type Container struct {
	backend backend.Backend

	cipher cryptocore.Cipher
	kdf    kdf.Kdf

	key *buffer.Secure
	iv  *buffer.Secure

	wrapKey *buffer.Secure

	revision  uint32
	serviceID *uint32
	topID     backend.BlockID
}

// Create writes a fresh header to b and returns a Container with no user
// blocks allocated (spec.md §4.7 "create").
func Create(b backend.Backend, opts CreateOptions) (*Container, error) {
	buffer.HardenProcess()

	resolvedKdf := opts.Kdf
	if resolvedKdf == nil {
		if opts.Cipher == cryptocore.None {
			k := kdf.None()
			resolvedKdf = &k
		} else {
			k := kdf.DefaultPbkdf2()
			resolvedKdf = &k
		}
	}

	var password []byte
	if !resolvedKdf.IsNone() {
		if opts.PasswordFunc == nil {
			return nil, errPassword(errNoPasswordCallback)
		}
		var err error
		password, err = opts.PasswordFunc()
		if err != nil {
			return nil, errPassword(err)
		}
	}

	key := buffer.Wrap(cryptocore.RandBytes(opts.Cipher.KeyLen()))
	iv := buffer.Wrap(cryptocore.RandBytes(opts.Cipher.IVLen()))

	wrapKey, err := resolvedKdf.CreateKey(password, opts.Cipher.KeyLen())
	if err != nil {
		key.Release()
		iv.Release()
		return nil, errPassword(err)
	}

	hdr := &Header{
		Revision: currentRevision,
		Cipher:   opts.Cipher,
		Kdf:      *resolvedKdf,
		Key:      key,
		IV:       iv,
	}
	if err := writeHeaderWithKey(b, hdr, wrapKey); err != nil {
		key.Release()
		iv.Release()
		wrapKey.Release()
		return nil, err
	}

	tlog.Info.Printf("container: created, cipher=%s kdf=%v", opts.Cipher, resolvedKdf.IsNone())
	return &Container{
		backend:  b,
		cipher:   opts.Cipher,
		kdf:      *resolvedKdf,
		key:      key,
		iv:       iv,
		wrapKey:  wrapKey,
		revision: currentRevision,
	}, nil
}

// Open validates b's header and unwraps its secrets into a Container
// (spec.md §4.7 "open").
func Open(b backend.Backend, opts OpenOptions) (*Container, error) {
	buffer.HardenProcess()

	hdr, passKey, err := readHeaderWithKey(b, opts.PasswordFunc)
	if err != nil {
		return nil, err
	}

	if opts.ExpectedServiceID != nil {
		if hdr.ServiceID == nil || *hdr.ServiceID != *opts.ExpectedServiceID {
			var got uint32
			if hdr.ServiceID != nil {
				got = *hdr.ServiceID
			}
			passKey.Release()
			hdr.Key.Release()
			hdr.IV.Release()
			return nil, errUnexpectedSid(*opts.ExpectedServiceID, got)
		}
	}

	c := &Container{
		backend:   b,
		cipher:    hdr.Cipher,
		kdf:       hdr.Kdf,
		key:       hdr.Key,
		iv:        hdr.IV,
		wrapKey:   passKey,
		revision:  hdr.Revision,
		serviceID: hdr.ServiceID,
		topID:     hdr.TopID,
	}

	if hdr.Revision < currentRevision && opts.Migrate {
		if err := c.migrate(opts.Migrator, opts.LegacyUserdataID); err != nil {
			return nil, err
		}
	}

	tlog.Info.Printf("container: opened, revision=%d cipher=%s", c.revision, c.cipher)
	return c, nil
}

func (c *Container) migrate(m Migrator, userdataID backend.BlockID) error {
	userdata := make([]byte, c.backend.BlockSize())
	if !userdataID.IsNull() {
		if _, err := c.backend.Read(userdataID, userdata); err != nil {
			return errBackend(err)
		}
	}

	result, err := m.migrateRev0(userdata)
	if err != nil {
		return err
	}
	if result == nil {
		// No migrator configured: leave the header at its original
		// revision, touching nothing on the backend.
		return nil
	}

	// A revision 1 header already carries the service id; only the top-id
	// is taken from the migration result in that case.
	if c.revision != 1 || c.serviceID == nil {
		sid := result.serviceID
		c.serviceID = &sid
	}
	c.topID = blockIDOrNull(result.topID)
	c.revision = currentRevision

	if err := c.persistHeader(); err != nil {
		return err
	}
	tlog.Info.Printf("container: migrated to revision %d", currentRevision)
	return nil
}

// persistHeader rewrites the header block from the container's current
// in-memory state, reusing the already-derived wrap key.
func (c *Container) persistHeader() error {
	hdr := &Header{
		Revision:  currentRevision,
		Cipher:    c.cipher,
		Kdf:       c.kdf,
		Key:       c.key,
		IV:        c.iv,
		ServiceID: c.serviceID,
		TopID:     c.topID,
	}
	return writeHeaderWithKey(c.backend, hdr, c.wrapKey)
}

// BlockSize returns the net (usable, post-tag) block size.
func (c *Container) BlockSize() uint32 {
	return c.backend.BlockSize() - uint32(c.cipher.TagSize())
}

// Acquire allocates one block from the backend.
func (c *Container) Acquire() (backend.BlockID, error) {
	id, err := c.backend.Acquire()
	if err != nil {
		return backend.BlockID{}, errBackend(err)
	}
	return id, nil
}

// Release returns id to the backend's free list.
func (c *Container) Release(id backend.BlockID) error {
	if err := c.backend.Release(id); err != nil {
		return mapBackendErr(err)
	}
	return nil
}

// Read decrypts the block named by id into buf, which must be at least
// BlockSize() bytes, and returns the number of plaintext bytes written.
func (c *Container) Read(id backend.BlockID, buf []byte) (int, error) {
	gross := make([]byte, c.backend.BlockSize())
	if _, err := c.backend.Read(id, gross); err != nil {
		return 0, mapBackendErr(err)
	}

	iv := cryptocore.DeriveBlockIV(c.iv.Bytes(), id.Bytes())
	plain, err := c.cipher.Decrypt(c.key.Bytes(), iv, gross)
	if err != nil {
		if err == cryptocore.ErrAuth {
			return 0, errCipherAuth()
		}
		return 0, errCodec(err)
	}
	n := copy(buf, plain)
	return n, nil
}

// Write encrypts data (padded/truncated to BlockSize()) and stores it
// under id, returning the number of plaintext bytes consumed.
func (c *Container) Write(id backend.BlockID, data []byte) (int, error) {
	net := int(c.BlockSize())
	plain := cryptocore.PadOrTruncate(data, net)

	iv := cryptocore.DeriveBlockIV(c.iv.Bytes(), id.Bytes())
	gross, err := c.cipher.Encrypt(c.key.Bytes(), iv, plain)
	if err != nil {
		return 0, errCodec(err)
	}

	if _, err := c.backend.Write(id, gross); err != nil {
		return 0, mapBackendErr(err)
	}

	n := len(data)
	if n > net {
		n = net
	}
	return n, nil
}

// Info describes the container for display.
func (c *Container) Info() Info {
	return Info{
		Revision:   c.revision,
		Cipher:     c.cipher,
		Kdf:        c.kdf,
		BsizeGross: c.backend.BlockSize(),
		BsizeNet:   c.BlockSize(),
		Backend:    c.backend.Info(),
	}
}

// ServiceID returns the bound service id, or nil if none is bound.
func (c *Container) ServiceID() *uint32 {
	return c.serviceID
}

// TopID returns the service's top-id block, or the null id if none is set.
func (c *Container) TopID() backend.BlockID {
	return c.topID
}

// CreateService binds sid and topID to the container, failing with
// UnexpectedSid if a different service is already bound.
func (c *Container) CreateService(sid uint32, topID backend.BlockID) error {
	if c.serviceID != nil && *c.serviceID != sid {
		return errUnexpectedSid(sid, *c.serviceID)
	}
	c.serviceID = &sid
	c.topID = topID
	return c.persistHeader()
}

// OpenService validates that sid matches the bound service (if any migrate
// step hasn't already happened) and returns the service's top-id.
func (c *Container) OpenService(sid uint32) (backend.BlockID, error) {
	if c.serviceID == nil || *c.serviceID != sid {
		var got uint32
		if c.serviceID != nil {
			got = *c.serviceID
		}
		return backend.BlockID{}, errUnexpectedSid(sid, got)
	}
	return c.topID, nil
}

// Modify rotates the header's KDF and/or password, keeping the master key
// stable. The header block is rewritten with one backend Write; whether
// that write is atomic depends on the backend (the directory backend
// replaces the file atomically, the memory and plugin backends make no
// such guarantee).
func (c *Container) Modify(opts ModifyOptions) error {
	var password []byte
	if !opts.Kdf.IsNone() {
		if opts.PasswordFunc == nil {
			return errPassword(errNoPasswordCallback)
		}
		var err error
		password, err = opts.PasswordFunc()
		if err != nil {
			return errPassword(err)
		}
	}

	newWrapKey, err := opts.Kdf.CreateKey(password, c.cipher.KeyLen())
	if err != nil {
		return errPassword(err)
	}

	hdr := &Header{
		Revision:  currentRevision,
		Cipher:    c.cipher,
		Kdf:       opts.Kdf,
		Key:       c.key,
		IV:        c.iv,
		ServiceID: c.serviceID,
		TopID:     c.topID,
	}
	if err := writeHeaderWithKey(c.backend, hdr, newWrapKey); err != nil {
		newWrapKey.Release()
		return err
	}

	if c.wrapKey != nil {
		c.wrapKey.Release()
	}
	c.wrapKey = newWrapKey
	c.kdf = opts.Kdf
	return nil
}

// Delete advisory-releases every block id the container knows about: the
// service's top-id, if any. Archive-internal block ids are the archive
// service's own responsibility to enumerate and release first.
func (c *Container) Delete() error {
	if c.wrapKey != nil {
		c.wrapKey.Release()
		c.wrapKey = nil
	}
	c.key.Release()
	c.iv.Release()
	if !c.topID.IsNull() {
		if err := c.backend.Release(c.topID); err != nil && err != backend.ErrAlreadyReleased {
			return mapBackendErr(err)
		}
	}
	return nil
}

func mapBackendErr(err error) error {
	switch err {
	case backend.ErrNoSuchID:
		return errNoSuchID(err)
	case backend.ErrAlreadyReleased:
		return errAlreadyReleased(err)
	case backend.ErrNoSpace:
		return errNoSpace(err)
	default:
		return errBackend(err)
	}
}

var errNoPasswordCallback = passwordCallbackError{}

type passwordCallbackError struct{}

func (passwordCallbackError) Error() string {
	return "container: password required, no callback configured"
}
