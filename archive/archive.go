// Package archive implements the forward-linked archive service on top of
// a container: an archive header at the container's top-id block, an
// ordinal→block-id tree, and entries (file, directory, symlink) built
// from page-chain segments (spec.md §4.9, §4.10). It is grounded on
// distr1-distri's use of a forward-linked archive format (cpio) over a
// byte stream, and on original_source/nuts-archive for the entry/tree
// shapes.
package archive

import (
	"time"

	"github.com/drobin/nutsgo/backend"
	"github.com/drobin/nutsgo/container"
)

// Archive binds an archive header and its tree index to a container. An
// Archive must not be shared across goroutines, inheriting the
// container's single-threaded model (spec.md §5).
type Archive struct {
	c        *container.Container
	headerID backend.BlockID
	h        *Header
	tree     tree
}

// Create initializes a new, empty archive on c, binding the archive
// service to the container's top-id.
func Create(c *container.Container) (*Archive, error) {
	id, err := c.Acquire()
	if err != nil {
		return nil, err
	}
	if err := c.CreateService(serviceID, id); err != nil {
		return nil, err
	}

	now := time.Now().UnixMilli()
	h := &Header{Ctime: now, Mtime: now}
	if err := writeHeader(c, id, h); err != nil {
		return nil, err
	}

	return &Archive{c: c, headerID: id, h: h, tree: newTree(c)}, nil
}

// Open loads the archive bound to c's top-id.
func Open(c *container.Container) (*Archive, error) {
	id := c.TopID()
	h, err := readHeader(c, id)
	if err != nil {
		return nil, err
	}
	return &Archive{c: c, headerID: id, h: h, tree: newTree(c)}, nil
}

// Count returns the number of entries in the archive.
func (a *Archive) Count() uint64 { return a.h.Count }

// TotalSize returns the sum of every file entry's size.
func (a *Archive) TotalSize() uint64 { return a.h.TotalSize }

// AddFile begins a new file entry, returning a Builder to stream its
// content into before calling Build.
func (a *Archive) AddFile(name string) (*Builder, error) {
	return a.beginEntry(name, ModeFile)
}

// AddSymlink appends a complete symlink entry in one call.
func (a *Archive) AddSymlink(name, target string) error {
	b, err := a.beginEntry(name, ModeSymlink)
	if err != nil {
		return err
	}
	if _, err := b.Write([]byte(target)); err != nil {
		return err
	}
	return b.Build()
}

// AddDirectory appends a complete, payload-less directory entry.
func (a *Archive) AddDirectory(name string) error {
	b, err := a.beginEntry(name, ModeDirectory)
	if err != nil {
		return err
	}
	return b.Build()
}
