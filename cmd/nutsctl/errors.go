package main

import (
	"errors"

	"github.com/drobin/nutsgo/archive"
	"github.com/drobin/nutsgo/container"
	"github.com/drobin/nutsgo/internal/exitcodes"
)

// exitcodeFor maps a container.Error/archive.Error kind onto the process
// exit code it corresponds to (SPEC_FULL.md §4.12).
func exitcodeFor(err error) int {
	var cerr *container.Error
	if errors.As(err, &cerr) {
		switch cerr.Kind {
		case container.KindInvalidHeader:
			return exitcodes.InvalidHeader
		case container.KindInvalidRevision:
			return exitcodes.InvalidRevision
		case container.KindPassword:
			return exitcodes.BadPassword
		case container.KindCipherAuth:
			return exitcodes.CipherAuth
		case container.KindUnexpectedSid:
			return exitcodes.UnexpectedSid
		case container.KindMigration:
			return exitcodes.MigrationRequired
		case container.KindBackend, container.KindNoSuchID, container.KindAlreadyReleased, container.KindNoSpace:
			return exitcodes.BackendError
		default:
			return exitcodes.Generic
		}
	}

	var aerr *archive.Error
	if errors.As(err, &aerr) {
		return exitcodes.Generic
	}

	return exitcodes.Generic
}
