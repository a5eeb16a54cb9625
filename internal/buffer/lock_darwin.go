//go:build darwin

package buffer

// madviseDontDump is a no-op on Darwin: there is no MADV_DONTDUMP
// equivalent exposed by golang.org/x/sys/unix for this platform.
func madviseDontDump(data []byte) {}
