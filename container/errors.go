package container

import "fmt"

// Kind classifies a container-level error (spec.md §7 "Error handling
// design").
type Kind int

const (
	KindInvalidHeader Kind = iota
	KindInvalidRevision
	KindPassword
	KindCipherAuth
	KindUnexpectedSid
	KindNoSuchID
	KindAlreadyReleased
	KindNoSpace
	KindCodec
	KindBackend
	KindMigration
)

func (k Kind) String() string {
	switch k {
	case KindInvalidHeader:
		return "invalid header"
	case KindInvalidRevision:
		return "invalid revision"
	case KindPassword:
		return "password"
	case KindCipherAuth:
		return "cipher authentication failed"
	case KindUnexpectedSid:
		return "unexpected service id"
	case KindNoSuchID:
		return "no such block id"
	case KindAlreadyReleased:
		return "block id already released"
	case KindNoSpace:
		return "no space"
	case KindCodec:
		return "codec"
	case KindBackend:
		return "backend"
	case KindMigration:
		return "migration"
	default:
		return "unknown"
	}
}

// Error is the error type returned by every container operation. Expected
// and Got are only meaningful for KindInvalidRevision and KindUnexpectedSid.
type Error struct {
	Kind     Kind
	Expected uint32
	Got      uint32
	Err      error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindInvalidRevision:
		return fmt.Sprintf("container: invalid revision: expected %d, got %d", e.Expected, e.Got)
	case KindUnexpectedSid:
		return fmt.Sprintf("container: unexpected service id: expected %d, got %d", e.Expected, e.Got)
	case KindMigration:
		return fmt.Sprintf("container: migration: %v", e.Err)
	default:
		if e.Err != nil {
			return fmt.Sprintf("container: %s: %v", e.Kind, e.Err)
		}
		return fmt.Sprintf("container: %s", e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error with the same Kind, so callers can
// write `errors.Is(err, &container.Error{Kind: container.KindCipherAuth})`.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	return ok && other.Kind == e.Kind
}

func errInvalidHeader() error {
	return &Error{Kind: KindInvalidHeader}
}

func errInvalidRevision(expected, got uint32) error {
	return &Error{Kind: KindInvalidRevision, Expected: expected, Got: got}
}

func errPassword(err error) error {
	return &Error{Kind: KindPassword, Err: err}
}

func errCipherAuth() error {
	return &Error{Kind: KindCipherAuth}
}

func errUnexpectedSid(expected, got uint32) error {
	return &Error{Kind: KindUnexpectedSid, Expected: expected, Got: got}
}

func errNoSuchID(err error) error {
	return &Error{Kind: KindNoSuchID, Err: err}
}

func errAlreadyReleased(err error) error {
	return &Error{Kind: KindAlreadyReleased, Err: err}
}

func errNoSpace(err error) error {
	return &Error{Kind: KindNoSpace, Err: err}
}

func errCodec(err error) error {
	return &Error{Kind: KindCodec, Err: err}
}

func errBackend(err error) error {
	return &Error{Kind: KindBackend, Err: err}
}

func errMigration(err error) error {
	return &Error{Kind: KindMigration, Err: err}
}
