// Package lint statically scans Go sources for shared-handle misuse.
//
// The scan is a per-function heuristic over the AST, not a type-checked
// escape analysis. It flags the two shapes that account for nearly every
// leak in practice:
//
//  1. an owning-handle expression whose result is discarded
//     (`shared.New(obj)` as a statement, or assigned to `_`)
//  2. a handle-typed local that is created but never released, moved,
//     passed on, or returned inside its function
//
// A handle that escapes — returned, stored, passed by address or as an
// argument — is assumed intentional and not flagged; the scanner prefers
// missed leaks over false alarms on correct code.
package lint

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// libraryImportPath is the public package whose constructors produce
// owning handles.
const libraryImportPath = "github.com/kolkov/sharedptr/shared"

// constructorFuncs are package-level functions returning an owning handle.
var constructorFuncs = map[string]bool{
	"New":            true,
	"NewWithDeleter": true,
	"Make":           true,
	"FromUnique":     true,
	"AdoptUnique":    true,
	"Cast":           true,
	"MustCast":       true,
	"Alias":          true,
}

// constructorMethods are methods returning an owning handle regardless of
// receiver (no type information at this layer).
var constructorMethods = map[string]bool{
	"Clone": true,
	"Move":  true,
}

// settlingMethods transfer or drop a handle's claim; a tracked local that
// reaches one of these is accounted for.
var settlingMethods = map[string]bool{
	"Release":  true,
	"Move":     true,
	"MoveFrom": true,
	"Swap":     true,
	"Assign":   true,
}

// Observer calls (Get, UseCount, Valid, ...) and Clone do not appear in
// settlingMethods on purpose: reading through a handle, or minting new
// owners from it, does not account for the handle's own claim.

// Stats summarizes one scan, reported by the check command with -v.
type Stats struct {
	FilesScanned   int // files parsed
	FilesSkipped   int // files not importing the library
	HandlesTracked int // constructor results followed
	Discards       int // owning results thrown away
	NeverReleased  int // locals with no release/transfer
}

// IssueCount returns the total number of findings.
func (s Stats) IssueCount() int {
	return s.Discards + s.NeverReleased
}

// Scanner walks Go sources collecting handle-misuse issues. Not safe for
// concurrent use; one Scanner per scan.
type Scanner struct {
	fset   *token.FileSet
	issues []Issue
	stats  Stats
}

// NewScanner returns an empty Scanner.
func NewScanner() *Scanner {
	return &Scanner{fset: token.NewFileSet()}
}

// Issues returns the findings collected so far, in scan order.
func (s *Scanner) Issues() []Issue {
	return s.issues
}

// Stats returns the scan summary.
func (s *Scanner) Stats() Stats {
	return s.stats
}

// ScanDir scans every non-test .go file directly in dir.
func (s *Scanner) ScanDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read directory %s: %w", dir, err)
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			continue
		}
		if err := s.ScanFile(filepath.Join(dir, name)); err != nil {
			return err
		}
	}
	return nil
}

// ScanFile scans a single file from disk.
func (s *Scanner) ScanFile(path string) error {
	return s.scanSource(path, nil)
}

// scanSource parses and scans one file; src follows parser.ParseFile's
// contract (nil reads from disk, otherwise source text). Split out so tests
// can feed sources inline.
func (s *Scanner) scanSource(filename string, src any) error {
	file, err := parser.ParseFile(s.fset, filename, src, parser.SkipObjectResolution)
	if err != nil {
		return fmt.Errorf("parse %s: %w", filename, err)
	}

	pkgName := libraryImportName(file)
	if pkgName == "" {
		s.stats.FilesSkipped++
		return nil
	}
	s.stats.FilesScanned++

	for _, decl := range file.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if ok && fn.Body != nil {
			s.scanFunc(pkgName, fn)
		}
	}
	return nil
}

// libraryImportName returns the local name the file imports the shared
// package under, or "" when the file does not import it.
func libraryImportName(file *ast.File) string {
	for _, imp := range file.Imports {
		path, err := strconv.Unquote(imp.Path.Value)
		if err != nil || path != libraryImportPath {
			continue
		}
		if imp.Name != nil {
			if imp.Name.Name == "_" || imp.Name.Name == "." {
				return "" // nothing referencable to track
			}
			return imp.Name.Name
		}
		return "shared"
	}
	return ""
}

// tracked is one handle-typed local followed through its function.
type tracked struct {
	name    string
	pos     token.Pos
	settled bool
}

// scanFunc applies both checks to one function body.
func (s *Scanner) scanFunc(pkgName string, fn *ast.FuncDecl) {
	locals := s.collectHandleLocals(pkgName, fn)

	if len(locals) > 0 {
		markSettled(fn, locals)
		for _, tr := range locals {
			if tr.settled {
				continue
			}
			s.stats.NeverReleased++
			s.issues = append(s.issues, newIssue(s.fset, tr.pos,
				fmt.Sprintf("shared handle %q created but never released or transferred", tr.name),
				fmt.Sprintf("add `defer %s.Release()` after creation, or pass ownership on", tr.name)))
		}
	}
}

// collectHandleLocals finds constructor results and flags the discarded
// ones on the way.
func (s *Scanner) collectHandleLocals(pkgName string, fn *ast.FuncDecl) []*tracked {
	var locals []*tracked

	ast.Inspect(fn.Body, func(n ast.Node) bool {
		switch node := n.(type) {
		case *ast.ExprStmt:
			if call, ok := node.X.(*ast.CallExpr); ok && isConstructor(pkgName, call) {
				s.stats.Discards++
				s.issues = append(s.issues, newIssue(s.fset, call.Pos(),
					"owning handle discarded; its claim can never be released",
					"assign the result and release it, or drop the call"))
			}
		case *ast.AssignStmt:
			// Mixed multi-assign (x, err := AdoptUnique(...)) counts too:
			// pair each lhs with its rhs when lengths match, otherwise
			// attribute every constructor on the rhs to the first
			// non-blank lhs.
			for i, rhs := range node.Rhs {
				call, ok := rhs.(*ast.CallExpr)
				if !ok || !isConstructor(pkgName, call) {
					continue
				}
				name := assignTarget(node, i)
				if name == "_" {
					s.stats.Discards++
					s.issues = append(s.issues, newIssue(s.fset, call.Pos(),
						"owning handle assigned to blank identifier; its claim can never be released",
						"assign the result and release it, or drop the call"))
					continue
				}
				if name == "" {
					continue // field/index target: stored, assumed escaped
				}
				s.stats.HandlesTracked++
				locals = append(locals, &tracked{name: name, pos: call.Pos()})
			}
		}
		return true
	})
	return locals
}

// assignTarget returns the simple identifier receiving rhs index i, "" for
// anything that is not a plain local.
func assignTarget(assign *ast.AssignStmt, i int) string {
	if len(assign.Lhs) != len(assign.Rhs) {
		i = 0
	}
	if i >= len(assign.Lhs) {
		return ""
	}
	if ident, ok := assign.Lhs[i].(*ast.Ident); ok {
		return ident.Name
	}
	return ""
}

// isConstructor reports whether call produces an owning handle: a shared.*
// constructor function or a Clone/Move method call.
func isConstructor(pkgName string, call *ast.CallExpr) bool {
	sel, ok := call.Fun.(*ast.SelectorExpr)
	if !ok {
		// Generic instantiation shared.Cast[To](p) parses the Fun as an
		// IndexExpr/IndexListExpr around the selector.
		switch idx := call.Fun.(type) {
		case *ast.IndexExpr:
			sel, ok = idx.X.(*ast.SelectorExpr)
		case *ast.IndexListExpr:
			sel, ok = idx.X.(*ast.SelectorExpr)
		}
		if !ok {
			return false
		}
	}
	if ident, isIdent := sel.X.(*ast.Ident); isIdent && ident.Name == pkgName {
		return constructorFuncs[sel.Sel.Name]
	}
	return constructorMethods[sel.Sel.Name]
}

// markSettled walks the body once more and marks every tracked local whose
// claim is accounted for: a settling method call, or any escaping use.
func markSettled(fn *ast.FuncDecl, locals []*tracked) {
	byName := make(map[string]*tracked, len(locals))
	for _, tr := range locals {
		byName[tr.name] = tr
	}
	settle := func(name string) {
		if tr, ok := byName[name]; ok {
			tr.settled = true
		}
	}

	ast.Inspect(fn.Body, func(n ast.Node) bool {
		switch node := n.(type) {
		case *ast.CallExpr:
			// h.Release(), h.MoveFrom(...), defer h.Release().
			if sel, ok := node.Fun.(*ast.SelectorExpr); ok {
				if ident, isIdent := sel.X.(*ast.Ident); isIdent && settlingMethods[sel.Sel.Name] {
					settle(ident.Name)
				}
			}
			// A handle passed as a plain argument escapes.
			for _, arg := range node.Args {
				if ident, ok := arg.(*ast.Ident); ok {
					settle(ident.Name)
				}
			}
		case *ast.UnaryExpr:
			// &h escapes (Cast, Alias, MoveFrom targets, storage).
			if node.Op == token.AND {
				if ident, ok := node.X.(*ast.Ident); ok {
					settle(ident.Name)
				}
			}
		case *ast.ReturnStmt:
			for _, res := range node.Results {
				markEscapingExpr(res, settle)
			}
		case *ast.SendStmt:
			markEscapingExpr(node.Value, settle)
		case *ast.CompositeLit:
			for _, elt := range node.Elts {
				if kv, ok := elt.(*ast.KeyValueExpr); ok {
					elt = kv.Value
				}
				markEscapingExpr(elt, settle)
			}
		case *ast.AssignStmt:
			// Re-assignment into a field or another variable escapes the
			// claim from this function's accounting.
			for _, rhs := range node.Rhs {
				if ident, ok := rhs.(*ast.Ident); ok {
					settle(ident.Name)
				}
			}
		}
		return true
	})
}

// markEscapingExpr settles a plain identifier or a method-call chain rooted
// at one (return h, return h.Move(), ch <- h).
func markEscapingExpr(expr ast.Expr, settle func(string)) {
	switch e := expr.(type) {
	case *ast.Ident:
		settle(e.Name)
	case *ast.CallExpr:
		if sel, ok := e.Fun.(*ast.SelectorExpr); ok {
			if ident, isIdent := sel.X.(*ast.Ident); isIdent {
				settle(ident.Name)
			}
		}
	}
}
