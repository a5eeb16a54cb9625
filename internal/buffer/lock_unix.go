//go:build unix

package buffer

import (
	"golang.org/x/sys/unix"

	"github.com/drobin/nutsgo/internal/tlog"
)

// lockMemory mlocks data and marks it MADV_DONTDUMP so it is excluded from
// core dumps and never swapped. Best-effort: failures are logged at debug
// level and do not prevent the buffer from being used.
func lockMemory(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	if err := unix.Mlock(data); err != nil {
		tlog.Debug.Printf("buffer: mlock failed: %v", err)
		return false
	}
	madviseDontDump(data)
	return true
}

func unlockMemory(data []byte) {
	if len(data) == 0 {
		return
	}
	if err := unix.Munlock(data); err != nil {
		tlog.Debug.Printf("buffer: munlock failed: %v", err)
	}
}
