package session

import (
	"io"

	"github.com/chazu/kestrel/ast"
	"github.com/chazu/kestrel/typecheck"
)

// Analysis is the static view of one document: its statements, every
// diagnostic the static passes produced and the checker holding node types.
type Analysis struct {
	Statements  []ast.Stmt
	Diagnostics []Diagnostic
	Checker     *typecheck.Checker
}

// AnalyzeSource runs the static passes over source in a fresh session.
// Declarations that parsed are still resolved and checked when other parts
// of the document have syntax errors, so editors keep type information.
func AnalyzeSource(source string) *Analysis {
	s := New(Options{Out: io.Discard, TypeCheck: true})
	stmts, _ := s.Parse(source)
	s.Analyze(stmts)
	return &Analysis{
		Statements:  stmts,
		Diagnostics: s.Diagnostics(),
		Checker:     s.Checker(),
	}
}
