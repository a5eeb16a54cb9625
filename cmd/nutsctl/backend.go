package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/drobin/nutsgo/backend"
	"github.com/drobin/nutsgo/backend/directory"
	"github.com/drobin/nutsgo/backend/memory"
	"github.com/drobin/nutsgo/backend/plugin"
	"golang.org/x/term"
)

// backendFlags holds the flags common to every verb that opens or creates
// a backend: which kind, and (for directory/plugin) how to reach it.
type backendFlags struct {
	kind      string
	pluginArg string
	blockSize uint
}

func addBackendFlags(fs *flag.FlagSet, bf *backendFlags) {
	fs.StringVar(&bf.kind, "backend", "memory", "backend kind: memory, directory, or plugin")
	fs.StringVar(&bf.pluginArg, "plugin-arg", "", "argument passed to the plugin executable (plugin backend only)")
	fs.UintVar(&bf.blockSize, "block-size", 4096, "gross block size in bytes")
}

// openBackend constructs the backend.Backend named by bf, rooted/pointed
// at path. The memory backend ignores path entirely; it exists so that a
// single process invocation can create and then immediately act on a
// throwaway container without a filesystem round trip.
func openBackend(bf *backendFlags, path string) (backend.Backend, error) {
	switch bf.kind {
	case "memory":
		return memory.New(uint32(bf.blockSize)), nil
	case "directory":
		return directory.New(directory.Options{Path: path, BlockSize: uint32(bf.blockSize)})
	case "plugin":
		var args []string
		if bf.pluginArg != "" {
			args = []string{bf.pluginArg}
		}
		return plugin.New(plugin.Options{Path: path, Args: args, BlockSize: uint32(bf.blockSize)})
	default:
		return nil, fmt.Errorf("unknown backend kind %q", bf.kind)
	}
}

// readPassword returns the NUTS_PASSWORD env var if set, otherwise prompts
// on the terminal via golang.org/x/term.
func readPassword() ([]byte, error) {
	if pw, ok := os.LookupEnv("NUTS_PASSWORD"); ok {
		return []byte(pw), nil
	}
	fmt.Fprint(os.Stderr, "password: ")
	pw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("reading password: %w", err)
	}
	return pw, nil
}
