//go:build linux

package buffer

import (
	"golang.org/x/sys/unix"

	"github.com/drobin/nutsgo/internal/tlog"
)

// madviseDontDump excludes data from core dumps. Linux-only flag.
func madviseDontDump(data []byte) {
	if err := unix.Madvise(data, unix.MADV_DONTDUMP); err != nil {
		tlog.Debug.Printf("buffer: madvise MADV_DONTDUMP failed: %v", err)
	}
}
