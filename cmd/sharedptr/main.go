// Package main implements the sharedptr CLI tool.
//
// The sharedptr tool is the developer companion to the shared handle
// library. It provides:
//
//  1. Static misuse scanning (handles created but never released,
//     owning results discarded) over a package directory
//  2. Scenario-driven concurrency stress runs that hammer the handle
//     operations from many goroutines and verify the lifecycle books
//     balance at the end
//
// Usage:
//
//	sharedptr check ./internal/pool      # scan a package for handle misuse
//	sharedptr stress scenario.yaml       # run a stress scenario
//
// This is the CLI entry point for the standalone tool.
package main

import (
	"fmt"
	"os"

	"github.com/kolkov/sharedptr/shared"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "check":
		checkCommand(os.Args[2:])
	case "stress":
		stressCommand(os.Args[2:])
	case "version", "--version", "-v":
		fmt.Printf("sharedptr version %s\n", shared.Version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Print(`sharedptr - Shared Ownership Handle Tool

USAGE:
    sharedptr <command> [arguments]

COMMANDS:
    check      Scan Go sources for shared-handle misuse
    stress     Run a scenario-driven concurrency stress test
    version    Show version information
    help       Show this help message

EXAMPLES:
    # Scan a package directory for leaked or discarded handles
    sharedptr check ./internal/pool

    # Scan with per-file statistics
    sharedptr check -v ./internal/pool

    # Run a stress scenario and verify lifecycle balance
    sharedptr stress examples/stress/basic.yaml

    # Stress without the progress bar (CI logs)
    sharedptr stress -q examples/stress/soak.yaml

ABOUT:
    sharedptr provides deterministic shared-ownership lifetimes for Go:
    reference-counted handles whose release action runs exactly once, when
    the last owner lets go. The check command finds the misuse patterns the
    type system cannot (plain copies, missing releases); the stress command
    demonstrates the exactly-once destruction guarantee under concurrency.

FOR MORE INFORMATION:
    Repository: https://github.com/kolkov/sharedptr
    Documentation: https://github.com/kolkov/sharedptr/blob/main/README.md
    Issues: https://github.com/kolkov/sharedptr/issues

`)
}
