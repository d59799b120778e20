// check.go implements the 'sharedptr check' command.
package main

import (
	"fmt"
	"os"

	"github.com/kolkov/sharedptr/cmd/sharedptr/lint"
	"github.com/kolkov/sharedptr/cmd/sharedptr/modinfo"
)

// checkConfig holds configuration for the check command.
type checkConfig struct {
	// Directories to scan (default ".")
	dirs []string

	// Verbose output flag (-v): per-scan statistics and module info
	verbose bool
}

// checkCommand implements the 'sharedptr check' command.
//
// Flow:
//  1. Parse arguments (directories + flags)
//  2. Resolve the enclosing module (context for the report)
//  3. Scan each directory for handle misuse
//  4. Print findings and exit non-zero if any were found
func checkCommand(args []string) {
	config, err := parseCheckArgs(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if config.verbose {
		if info, err := modinfo.Resolve(config.dirs[0]); err == nil {
			fmt.Printf("module %s (go %s)\n", info.ModulePath, info.GoVersion)
			if info.SharedptrVersion != "" {
				fmt.Printf("requires %s %s\n", modinfo.LibraryModulePath, info.SharedptrVersion)
			}
		}
	}

	scanner := lint.NewScanner()
	for _, dir := range config.dirs {
		if err := scanner.ScanDir(dir); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	for _, issue := range scanner.Issues() {
		fmt.Printf("%s\n", issue.String())
	}

	stats := scanner.Stats()
	if config.verbose {
		fmt.Printf("\nScanned %d file(s), skipped %d without handle usage\n",
			stats.FilesScanned, stats.FilesSkipped)
		fmt.Printf("Tracked %d handle(s): %d never released, %d discarded\n",
			stats.HandlesTracked, stats.NeverReleased, stats.Discards)
	}

	if n := stats.IssueCount(); n > 0 {
		fmt.Fprintf(os.Stderr, "\n%d issue(s) found\n", n)
		os.Exit(1)
	}
	if config.verbose {
		fmt.Println("No issues found")
	}
}

// parseCheckArgs parses command-line arguments for 'sharedptr check'.
func parseCheckArgs(args []string) (*checkConfig, error) {
	config := &checkConfig{}

	for _, arg := range args {
		switch arg {
		case "-v", "--verbose":
			config.verbose = true
		default:
			if len(arg) > 0 && arg[0] == '-' {
				return nil, fmt.Errorf("unknown flag: %s", arg)
			}
			config.dirs = append(config.dirs, arg)
		}
	}
	if len(config.dirs) == 0 {
		config.dirs = []string{"."}
	}
	return config, nil
}
