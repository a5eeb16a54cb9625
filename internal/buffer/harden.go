package buffer

import "sync"

var hardenOnce sync.Once

// HardenProcess disables core dumps for the current process. It is called
// once, the first time a container holding a master key is created or
// opened, so that a crash of the process embedding this library does not
// write unencrypted key material to disk in a core file.
func HardenProcess() {
	hardenOnce.Do(disableCoreDumps)
}
