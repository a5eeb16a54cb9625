package archive

import "github.com/drobin/nutsgo/internal/bytecodec"

// Mode is the packed 32-bit entry-type field of spec.md §4.10: a
// type-class in the low bits, with the remaining bits reserved for
// future flags (permissions, etc. are out of scope per spec.md §1).
type Mode uint32

const modeTypeMask = 0x7

const (
	// ModeFile marks a regular file entry.
	ModeFile Mode = iota + 1
	// ModeDirectory marks a directory entry (no payload).
	ModeDirectory
	// ModeSymlink marks a symbolic link entry (target path as payload).
	ModeSymlink
)

func (m Mode) IsFile() bool      { return m&modeTypeMask == ModeFile }
func (m Mode) IsDirectory() bool { return m&modeTypeMask == ModeDirectory }
func (m Mode) IsSymlink() bool   { return m&modeTypeMask == ModeSymlink }

func (m Mode) String() string {
	switch m & modeTypeMask {
	case ModeFile:
		return "file"
	case ModeDirectory:
		return "dir"
	case ModeSymlink:
		return "symlink"
	default:
		return "unknown"
	}
}

// Timestamps holds an entry's four tracked instants, ms since the Unix
// epoch (spec.md §3).
type Timestamps struct {
	Appended int64
	Created  int64
	Changed  int64
	Modified int64
}

// inner is the entry header written at the start of an entry's first
// page (spec.md §3 "Archive entry header").
type inner struct {
	Name string
	Mode Mode
	Size uint64
	TS   Timestamps
}

// sizeFieldOffset is how far into the encoded inner header the Size
// field begins: past the length-prefixed name and the mode u32. Size is
// the only field a builder rewrites after the initial write (spec.md
// §4.10 "build() flushes and updates the entry header's size in-place"),
// so callers only ever need this one offset, not a general re-seek.
func sizeFieldOffset(name string) int {
	return 8 + len(name) + 4
}

func encodeInner(w *bytecodec.Writer, in *inner) error {
	if err := w.PutString(in.Name); err != nil {
		return err
	}
	if err := w.PutU32(uint32(in.Mode)); err != nil {
		return err
	}
	if err := w.PutU64(in.Size); err != nil {
		return err
	}
	if err := w.PutI64(in.TS.Appended); err != nil {
		return err
	}
	if err := w.PutI64(in.TS.Created); err != nil {
		return err
	}
	if err := w.PutI64(in.TS.Changed); err != nil {
		return err
	}
	return w.PutI64(in.TS.Modified)
}

func decodeInner(r *bytecodec.Reader) (*inner, error) {
	name, err := r.TakeString()
	if err != nil {
		return nil, err
	}
	modeVal, err := r.TakeU32()
	if err != nil {
		return nil, err
	}
	size, err := r.TakeU64()
	if err != nil {
		return nil, err
	}
	var ts Timestamps
	if ts.Appended, err = r.TakeI64(); err != nil {
		return nil, err
	}
	if ts.Created, err = r.TakeI64(); err != nil {
		return nil, err
	}
	if ts.Changed, err = r.TakeI64(); err != nil {
		return nil, err
	}
	if ts.Modified, err = r.TakeI64(); err != nil {
		return nil, err
	}
	return &inner{Name: name, Mode: Mode(modeVal), Size: size, TS: ts}, nil
}
