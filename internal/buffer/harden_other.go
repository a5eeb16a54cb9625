//go:build !linux

package buffer

// disableCoreDumps is a no-op on platforms without prctl(PR_SET_DUMPABLE).
func disableCoreDumps() {}
