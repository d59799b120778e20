// Package lint - diagnostic type for handle misuse findings.
//
// Findings carry file position (file:line:column) and a suggestion, so the
// check command's output drops straight into an editor's quickfix list.
//
// Example output:
//
//	pool.go:42:8: shared handle created but never released or transferred
//
//	Suggestion: add `defer conn.Release()` or return the handle to the caller
package lint

import (
	"fmt"
	"go/token"
)

// Issue is one handle-misuse finding.
//
// Fields mirror what an editor needs to jump to the spot: file path, line
// and column (both 1-indexed), the finding, and an optional suggestion.
type Issue struct {
	File       string // source file path
	Line       int    // line number (1-indexed)
	Column     int    // column number (1-indexed)
	Message    string // what is wrong
	Suggestion string // how to fix it (empty if none)
}

// String formats the issue as file:line:column: message, with the
// suggestion appended on its own line when present.
func (i *Issue) String() string {
	result := fmt.Sprintf("%s:%d:%d: %s", i.File, i.Line, i.Column, i.Message)
	if i.Suggestion != "" {
		result += fmt.Sprintf("\n\nSuggestion: %s", i.Suggestion)
	}
	return result
}

// newIssue builds an Issue with position information from an AST node.
func newIssue(fset *token.FileSet, pos token.Pos, msg, suggestion string) Issue {
	position := fset.Position(pos)
	return Issue{
		File:       position.Filename,
		Line:       position.Line,
		Column:     position.Column,
		Message:    msg,
		Suggestion: suggestion,
	}
}
