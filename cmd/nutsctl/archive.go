package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"io"

	"github.com/drobin/nutsgo/archive"
)

func runArchive(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("archive: expected a subcommand")
	}
	sub, rest := args[0], args[1:]

	switch sub {
	case "create":
		return archiveCreate(rest)
	case "list":
		return archiveList(rest)
	case "add-file":
		return archiveAddFile(rest)
	case "add-symlink":
		return archiveAddSymlink(rest)
	case "add-dir":
		return archiveAddDir(rest)
	default:
		return fmt.Errorf("archive: unknown subcommand %q", sub)
	}
}

func archiveCreate(args []string) error {
	fs := flag.NewFlagSet("archive create", flag.ExitOnError)
	var bf backendFlags
	addBackendFlags(fs, &bf)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("archive create: expected a path")
	}

	c, err := openContainer(&bf, fs.Arg(0), false)
	if err != nil {
		return err
	}
	a, err := archive.Create(c)
	if err != nil {
		return err
	}
	fmt.Printf("archive created, count=%d\n", a.Count())
	return nil
}

func archiveList(args []string) error {
	fs := flag.NewFlagSet("archive list", flag.ExitOnError)
	var bf backendFlags
	addBackendFlags(fs, &bf)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("archive list: expected a path")
	}

	c, err := openContainer(&bf, fs.Arg(0), false)
	if err != nil {
		return err
	}
	a, err := archive.Open(c)
	if err != nil {
		return err
	}

	s := a.Scan()
	for {
		e, err := s.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		fmt.Printf("%s\t%s\t%d\n", e.Mode(), e.Name(), e.Size())
	}
	fmt.Printf("total: %d entries, %d bytes\n", a.Count(), a.TotalSize())
	return nil
}

func archiveAddFile(args []string) error {
	fs := flag.NewFlagSet("archive add-file", flag.ExitOnError)
	var bf backendFlags
	addBackendFlags(fs, &bf)
	name := fs.String("name", "", "entry name")
	dataHex := fs.String("data", "", "file content, hex-encoded")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 || *name == "" {
		return fmt.Errorf("archive add-file: expected a path and --name")
	}
	data, err := hex.DecodeString(*dataHex)
	if err != nil {
		return fmt.Errorf("--data: %w", err)
	}

	c, err := openContainer(&bf, fs.Arg(0), false)
	if err != nil {
		return err
	}
	a, err := archive.Open(c)
	if err != nil {
		return err
	}
	b, err := a.AddFile(*name)
	if err != nil {
		return err
	}
	if _, err := b.Write(data); err != nil {
		return err
	}
	return b.Build()
}

func archiveAddSymlink(args []string) error {
	fs := flag.NewFlagSet("archive add-symlink", flag.ExitOnError)
	var bf backendFlags
	addBackendFlags(fs, &bf)
	name := fs.String("name", "", "entry name")
	target := fs.String("target", "", "symlink target")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 || *name == "" {
		return fmt.Errorf("archive add-symlink: expected a path and --name")
	}

	c, err := openContainer(&bf, fs.Arg(0), false)
	if err != nil {
		return err
	}
	a, err := archive.Open(c)
	if err != nil {
		return err
	}
	return a.AddSymlink(*name, *target)
}

func archiveAddDir(args []string) error {
	fs := flag.NewFlagSet("archive add-dir", flag.ExitOnError)
	var bf backendFlags
	addBackendFlags(fs, &bf)
	name := fs.String("name", "", "entry name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 || *name == "" {
		return fmt.Errorf("archive add-dir: expected a path and --name")
	}

	c, err := openContainer(&bf, fs.Arg(0), false)
	if err != nil {
		return err
	}
	a, err := archive.Open(c)
	if err != nil {
		return err
	}
	return a.AddDirectory(*name)
}
