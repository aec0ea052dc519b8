// Command ssc is a thin illustrative driver over the compiler core
// (spec.md §6: "CLI (collaborator)" — out of scope for the tested core,
// kept here only as an example of how an external caller invokes it).
package main

import (
	"fmt"
	"os"

	"github.com/Sherif-Abdou/simplescript/internal/compiler"
)

func main() {
	if len(os.Args) < 3 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	path := os.Args[2]

	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ssc: %v\n", err)
		os.Exit(1)
	}

	switch command {
	case "check":
		prog, table, err := compiler.Parse(string(source), path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ssc: %v\n", err)
			os.Exit(1)
		}
		if err := compiler.Annotate(prog, table); err != nil {
			fmt.Fprintf(os.Stderr, "ssc: %v\n", err)
			os.Exit(1)
		}
	case "compile":
		emitter := newTextEmitter(os.Stdout)
		if err := compiler.Compile(string(source), path, emitter); err != nil {
			fmt.Fprintf(os.Stderr, "ssc: %v\n", err)
			os.Exit(1)
		}
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "Usage: ssc check <file.ss>")
	fmt.Fprintln(os.Stderr, "       ssc compile <file.ss>")
}
