// Package modinfo resolves the Go module a directory belongs to and reads
// the facts the sharedptr tool reports: module path, Go version, and the
// sharedptr requirement, parsed from go.mod via golang.org/x/mod.
package modinfo

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/mod/modfile"
)

// LibraryModulePath is the module path of the sharedptr library itself,
// looked up in the target module's require list.
const LibraryModulePath = "github.com/kolkov/sharedptr"

// Info describes the module enclosing a scanned directory.
type Info struct {
	// Dir is the module root (the directory holding go.mod).
	Dir string

	// GoModPath is the absolute path of the parsed go.mod.
	GoModPath string

	// ModulePath is the module's declared path.
	ModulePath string

	// GoVersion is the go directive value, empty if absent.
	GoVersion string

	// SharedptrVersion is the required sharedptr version, empty when the
	// module does not depend on sharedptr (or is sharedptr itself).
	SharedptrVersion string
}

// Resolve walks up from startDir to the nearest go.mod and parses it.
// Returns an error when no go.mod encloses startDir or the file does not
// parse.
func Resolve(startDir string) (*Info, error) {
	abs, err := filepath.Abs(startDir)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", startDir, err)
	}

	modPath := findGoMod(abs)
	if modPath == "" {
		return nil, fmt.Errorf("no go.mod found above %s", abs)
	}

	data, err := os.ReadFile(modPath)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", modPath, err)
	}
	mf, err := modfile.Parse(modPath, data, nil)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", modPath, err)
	}

	info := &Info{
		Dir:       filepath.Dir(modPath),
		GoModPath: modPath,
	}
	if mf.Module != nil {
		info.ModulePath = mf.Module.Mod.Path
	}
	if mf.Go != nil {
		info.GoVersion = mf.Go.Version
	}
	for _, req := range mf.Require {
		if req.Mod.Path == LibraryModulePath {
			info.SharedptrVersion = req.Mod.Version
			break
		}
	}
	return info, nil
}

// findGoMod walks up the directory tree looking for go.mod. Returns the
// empty string when the filesystem root is reached without a hit.
func findGoMod(dir string) string {
	for {
		candidate := filepath.Join(dir, "go.mod")
		if st, err := os.Stat(candidate); err == nil && !st.IsDir() {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
