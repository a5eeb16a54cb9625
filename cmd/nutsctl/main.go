// Command nutsctl is the command-line front-end over the container and
// archive packages (spec.md §6 "External interfaces", SPEC_FULL.md §4.15).
// It rolls its own subcommand dispatch with flag.NewFlagSet per verb, in
// the style of distr1-distri's cmd/zi verb switch, rather than pulling in
// a CLI framework.
package main

import (
	"fmt"
	"os"

	"github.com/drobin/nutsgo/internal/exitcodes"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) < 1 {
		usage()
		return exitcodes.Generic
	}

	var err error
	switch args[0] {
	case "container":
		err = runContainer(args[1:])
	case "archive":
		err = runArchive(args[1:])
	case "help", "-h", "--help":
		usage()
		return exitcodes.Success
	default:
		fmt.Fprintf(os.Stderr, "nutsctl: unknown verb %q\n", args[0])
		usage()
		return exitcodes.Generic
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "nutsctl: %v\n", err)
		return exitcodeFor(err)
	}
	return exitcodes.Success
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: nutsctl <verb> <subcommand> [flags]

verbs:
  container create <path> --backend memory|directory|plugin [--cipher NAME] [--iterations N]
  container open   <path> --backend memory|directory|plugin [--migrate]
  container info   <path> --backend memory|directory|plugin
  container read   <path> --backend memory|directory|plugin --id HEX
  container write  <path> --backend memory|directory|plugin --id HEX --data HEX

  archive create      <path> --backend memory|directory|plugin
  archive list         <path> --backend memory|directory|plugin
  archive add-file     <path> --backend memory|directory|plugin --name NAME --data HEX
  archive add-symlink  <path> --backend memory|directory|plugin --name NAME --target TARGET
  archive add-dir      <path> --backend memory|directory|plugin --name NAME`)
}
