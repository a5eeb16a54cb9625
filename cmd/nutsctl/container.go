package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"os"

	"github.com/drobin/nutsgo/backend"
	"github.com/drobin/nutsgo/container"
	"github.com/drobin/nutsgo/internal/cryptocore"
	"github.com/drobin/nutsgo/internal/kdf"
)

func runContainer(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("container: expected a subcommand and a path")
	}
	sub, rest := args[0], args[1:]

	switch sub {
	case "create":
		return containerCreate(rest)
	case "open":
		return containerOpen(rest)
	case "info":
		return containerInfo(rest)
	case "read":
		return containerReadCmd(rest)
	case "write":
		return containerWriteCmd(rest)
	default:
		return fmt.Errorf("container: unknown subcommand %q", sub)
	}
}

func containerCreate(args []string) error {
	fs := flag.NewFlagSet("container create", flag.ExitOnError)
	var bf backendFlags
	addBackendFlags(fs, &bf)
	cipherName := fs.String("cipher", "aes256-gcm", "cipher: none, aes128-ctr, aes128-gcm, aes192-ctr, aes192-gcm, aes256-ctr, aes256-gcm")
	digestName := fs.String("digest", "sha256", "PBKDF2 digest: sha1, sha224, sha256, sha384, sha512")
	iterations := fs.Uint("iterations", kdf.DefaultIterations, "PBKDF2 iteration count")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("container create: expected a path")
	}
	path := fs.Arg(0)

	cipher, err := cryptocore.CipherFromString(*cipherName)
	if err != nil {
		return err
	}

	b, err := openBackend(&bf, path)
	if err != nil {
		return err
	}

	opts := container.CreateOptions{Cipher: cipher}
	if cipher != cryptocore.None {
		digest, err := kdf.DigestFromString(*digestName)
		if err != nil {
			return err
		}
		resolved := kdf.GeneratePbkdf2(digest, uint32(*iterations), kdf.DefaultSaltLen)
		opts.Kdf = &resolved
		opts.PasswordFunc = readPassword
	}

	c, err := container.Create(b, opts)
	if err != nil {
		return err
	}
	printInfo(c.Info())
	return nil
}

func containerOpen(args []string) error {
	fs := flag.NewFlagSet("container open", flag.ExitOnError)
	var bf backendFlags
	addBackendFlags(fs, &bf)
	migrate := fs.Bool("migrate", false, "opt into revision 0/1 header migration (nutsctl configures no migrator, so the header is left unchanged)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("container open: expected a path")
	}
	path := fs.Arg(0)

	c, err := openContainer(&bf, path, *migrate)
	if err != nil {
		return err
	}
	printInfo(c.Info())
	return nil
}

func containerInfo(args []string) error {
	fs := flag.NewFlagSet("container info", flag.ExitOnError)
	var bf backendFlags
	addBackendFlags(fs, &bf)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("container info: expected a path")
	}
	c, err := openContainer(&bf, fs.Arg(0), false)
	if err != nil {
		return err
	}
	printInfo(c.Info())
	return nil
}

func containerReadCmd(args []string) error {
	fs := flag.NewFlagSet("container read", flag.ExitOnError)
	var bf backendFlags
	addBackendFlags(fs, &bf)
	idHex := fs.String("id", "", "block id, hex-encoded")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 || *idHex == "" {
		return fmt.Errorf("container read: expected a path and --id")
	}
	c, err := openContainer(&bf, fs.Arg(0), false)
	if err != nil {
		return err
	}
	id, err := parseBlockID(*idHex)
	if err != nil {
		return err
	}
	buf := make([]byte, c.BlockSize())
	n, err := c.Read(id, buf)
	if err != nil {
		return err
	}
	fmt.Println(hex.EncodeToString(buf[:n]))
	return nil
}

func containerWriteCmd(args []string) error {
	fs := flag.NewFlagSet("container write", flag.ExitOnError)
	var bf backendFlags
	addBackendFlags(fs, &bf)
	idHex := fs.String("id", "", "block id, hex-encoded")
	dataHex := fs.String("data", "", "plaintext data, hex-encoded")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 || *idHex == "" {
		return fmt.Errorf("container write: expected a path and --id")
	}
	c, err := openContainer(&bf, fs.Arg(0), false)
	if err != nil {
		return err
	}
	id, err := parseBlockID(*idHex)
	if err != nil {
		return err
	}
	data, err := hex.DecodeString(*dataHex)
	if err != nil {
		return fmt.Errorf("--data: %w", err)
	}
	n, err := c.Write(id, data)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "wrote %d bytes\n", n)
	return nil
}

// openContainer opens path's backend and, on a non-None cipher, prompts
// for a password lazily: readPassword is only invoked once the header is
// actually read and found to need one.
func openContainer(bf *backendFlags, path string, migrate bool) (*container.Container, error) {
	b, err := openBackend(bf, path)
	if err != nil {
		return nil, err
	}
	return container.Open(b, container.OpenOptions{
		PasswordFunc: readPassword,
		Migrate:      migrate,
	})
}

func parseBlockID(s string) (backend.BlockID, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return backend.BlockID{}, fmt.Errorf("--id: %w", err)
	}
	return backend.NewBlockID(raw), nil
}

func printInfo(info container.Info) {
	fmt.Printf("revision:   %d\n", info.Revision)
	fmt.Printf("cipher:     %s\n", info.Cipher)
	fmt.Printf("block size: %d gross / %d net\n", info.BsizeGross, info.BsizeNet)
	for k, v := range info.Backend {
		fmt.Printf("backend.%s: %s\n", k, v)
	}
}
