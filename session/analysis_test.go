package session

import (
	"testing"

	"github.com/chazu/kestrel/ast"
)

func TestAnalyzeSourceKeepsTypesDespiteSyntaxErrors(t *testing.T) {
	a := AnalyzeSource("var total = 1 + 2\nprint(1 +)\n")
	if len(a.Diagnostics) != 1 || a.Diagnostics[0].Kind != KindParse {
		t.Fatalf("diagnostics = %v", a.Diagnostics)
	}
	typ, ok := a.Checker.Lookup("total")
	if !ok || typ.String() != "Int" {
		t.Errorf("total = %v, %v", typ, ok)
	}
}

func TestAnalyzeSourceDoesNotExecute(t *testing.T) {
	a := AnalyzeSource("print(undefinedAtRuntime)")
	if len(a.Diagnostics) != 0 {
		t.Errorf("diagnostics = %v", a.Diagnostics)
	}
	if len(a.Statements) != 1 {
		t.Fatalf("statements = %d", len(a.Statements))
	}
	call := a.Statements[0].(*ast.Expression).Expression
	if a.Checker.TypeOf(call) == nil {
		t.Error("call has no type")
	}
}

func TestAnalyzeSourceTypeError(t *testing.T) {
	a := AnalyzeSource("class A { }\nA().nope")
	if len(a.Diagnostics) != 1 || a.Diagnostics[0].Kind != KindType || a.Diagnostics[0].Line != 2 {
		t.Errorf("diagnostics = %v", a.Diagnostics)
	}
}
