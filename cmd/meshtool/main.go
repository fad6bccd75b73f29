// meshtool is a CLI utility for inspecting mesh containers and the
// geometry derived from their subsets.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stderr)
		os.Exit(1)
	}

	err := run(os.Args[1], os.Args[2:], os.Stdout)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(command string, args []string, out io.Writer) error {
	switch command {
	case "info":
		return cmdInfo(args, out)
	case "subsets", "ls":
		return cmdSubsets(args, out)
	case "dump":
		return cmdDump(args, out)
	case "geometry", "geo":
		return cmdGeometry(args, out)
	case "preview":
		return cmdPreview(args, out)
	case "watch":
		return cmdWatch(args, out)
	case "config":
		return cmdConfig(args, out)
	case "help", "-h", "--help":
		printUsage(out)
		return nil
	default:
		printUsage(os.Stderr)
		return fmt.Errorf("unknown command: %s", command)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `meshtool - mesh container utility

Usage:
  meshtool <command> [options] <file>

Commands:
  info <file>                     Show trailer and mesh summary
  subsets <file>                  List subsets of every mesh
  dump [-mesh N] [-subset N] [-n N] <file>
                                  Print per-vertex attribute values
  geometry [-mesh N] [-subset N] <file>
                                  Show derived geometry buffer sizes
  preview [-mesh N] [-subset N] [-o out.png] <file>
                                  Render a wireframe image (.png or .webp)
  watch [-mesh N] [-subset N] [-o out.png] <file>
                                  Rebuild geometry whenever the file changes
  config [-o path | -save]        Print or write the effective configuration

Common options:
  -config <path>   Config file
  -debug           Debug logging
  -uv0             Interleave only UV channel 0
  -size <px>       Preview size
  -view <name>     Preview view: front, top or side

Examples:
  meshtool info model.mesh
  meshtool dump -subset 2 -n 10 model.mesh
  meshtool preview -view top -o model.webp model.mesh`)
}
