//go:build linux

package buffer

import (
	"golang.org/x/sys/unix"

	"github.com/drobin/nutsgo/internal/tlog"
)

// disableCoreDumps marks the process non-dumpable and sets RLIMIT_CORE to
// zero, mirroring the teacher's processhardening.HardenProcess.
func disableCoreDumps() {
	if err := unix.Prctl(unix.PR_SET_DUMPABLE, 0, 0, 0, 0); err != nil {
		tlog.Debug.Printf("buffer: prctl PR_SET_DUMPABLE failed: %v", err)
	}
	lim := unix.Rlimit{Cur: 0, Max: 0}
	if err := unix.Setrlimit(unix.RLIMIT_CORE, &lim); err != nil {
		tlog.Debug.Printf("buffer: setrlimit RLIMIT_CORE failed: %v", err)
	}
}
