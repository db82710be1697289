package typecheck

import (
	"io"
	"strings"
	"testing"

	"github.com/chazu/kestrel/ast"
	"github.com/chazu/kestrel/compiler"
	"github.com/chazu/kestrel/vm"
)

type diagnostic struct {
	line int
	msg  string
}

func newChecker(diags *[]diagnostic) *Checker {
	env := vm.New(io.Discard, nil).Globals()
	return New(env, func(tok ast.Token, msg string) {
		*diags = append(*diags, diagnostic{tok.Line, msg})
	})
}

func checkSource(t *testing.T, c *Checker, source string) []ast.Stmt {
	t.Helper()
	stmts, errs := compiler.Parse(source)
	if len(errs) > 0 {
		t.Fatalf("parse %q: %v", source, errs[0])
	}
	c.Check(stmts)
	return stmts
}

// check runs a fresh checker over source and returns its diagnostics.
func check(t *testing.T, source string) (*Checker, []ast.Stmt, []diagnostic) {
	t.Helper()
	var diags []diagnostic
	c := newChecker(&diags)
	stmts := checkSource(t, c, source)
	return c, stmts, diags
}

func expectClean(t *testing.T, source string) *Checker {
	t.Helper()
	c, _, diags := check(t, source)
	if len(diags) > 0 {
		t.Fatalf("unexpected type error: %v", diags)
	}
	return c
}

func globalType(t *testing.T, c *Checker, name string) string {
	t.Helper()
	typ, ok := c.Lookup(name)
	if !ok {
		t.Fatalf("global %s not found", name)
	}
	return typ.String()
}

func TestTypeErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"reassign", `var x = 1; x = "s";`, "cannot redefine variable of type Int to type String"},
		{"first assignment fixes type", "var v\nv = 1\nv = \"s\"", "cannot redefine variable of type Int to type String"},
		{"multiple returns", "fun f(a) {\n if a { return 1 }\n return \"s\"\n}", "Function 'f' has multiple return types: Int and String."},
		{"arity", "fun f(a) { }\nf(1, 2)", "Expected 1 arguments but got 2."},
		{"argument type", "fun f(Int a) { }\nf(\"s\")", "Expected Int for parameter 'a' of 'f' but got String."},
		{"native argument type", `1 + "s"`, "Expected Number for parameter 'other' of 'add' but got String."},
		{"unknown type", "fun f(Foo a) { }", "Unknown type 'Foo'."},
		{"default type", `fun f(Int a = "s") { }`, "Default for parameter 'a' must be Int, got String."},
		{"undefined property", "class A { }\nA().z", "Undefined property 'z' on A."},
		{"undefined native method", `"s".nope()`, "Undefined property 'nope' on String."},
		{"not callable", "var x = 1\nx()", "Can only call functions and classes."},
		{"not iterable", "for x in true { }", "Value of class Bool is not iterable."},
		{"superclass value", "var A = 1\nclass B < A { }", "Superclass must be a class."},
		{"native superclass", "class B < List { }", "Superclass must be a class."},
		{"abstract native", "Number()", "Class Number cannot be instantiated."},
		{"attribute type", "class A {\n init() { self.x = 1 }\n m() { self.x = \"s\" }\n}", "cannot redefine attribute of type Int to type String"},
		{"fields on natives", "1.x = 2", "Only instances have fields."},
		{"ambiguous", "class A { m() { } }\nclass B { m() { } }\nclass C < A, B { }\nC().m()", "Ambiguous method 'm': inherited through A and B."},
		{"unknown named argument", "fun f(a) { }\nf(b: 1)", "Unknown parameter 'b'."},
		{"missing argument", "fun f(a, b = 1) { }\nf(b: 2)", "Missing argument for parameter 'a'."},
		{"constructor arity", "class P { init(x) { } }\nP()", "Expected 1 arguments but got 0."},
		{"pair element type", "for p in Map() { p.nope }", "Undefined property 'nope' on Pair."},
		{"unrelated classes", "class A { }\nclass B { }\nvar v = A()\nv = B()", "cannot redefine variable of type A to type B"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, diags := check(t, tt.source)
			if len(diags) != 1 {
				t.Fatalf("diagnostics = %v, want one", diags)
			}
			if !strings.Contains(diags[0].msg, tt.want) {
				t.Errorf("error = %q, want %q", diags[0].msg, tt.want)
			}
		})
	}
}

func TestErrorLocation(t *testing.T) {
	_, _, diags := check(t, "var a = 1\n\na = \"s\"")
	if len(diags) != 1 || diags[0].line != 3 {
		t.Errorf("diagnostics = %v, want one on line 3", diags)
	}
}

func TestCheckStopsAtFirstError(t *testing.T) {
	c, _, diags := check(t, "var a = 1\na = \"s\"\nvar later = 2")
	if len(diags) != 1 {
		t.Fatalf("diagnostics = %v", diags)
	}
	if _, ok := c.Lookup("later"); ok {
		t.Error("checking continued past the first error")
	}
	if !c.HadError() {
		t.Error("HadError = false")
	}
}

func TestInferredTypes(t *testing.T) {
	c := expectClean(t, `
var i = 1
var f = 1 + 2.0
var s = "a" + "b"
var b = 1 < 2
var l = [1, 2]
var n = nil
var either = 1 or 2
var mixed = 1 or "s"
fun answer() { return 42 }
var r = answer()
var lam = fun (Int x) { return x }
`)
	tests := map[string]string{
		"i":      "Int",
		"f":      "Float",
		"s":      "String",
		"b":      "Bool",
		"l":      "List",
		"n":      "Nil",
		"either": "Int",
		"mixed":  "Object",
		"answer": "fun() -> Int",
		"r":      "Int",
		"lam":    "fun(Int x) -> Int",
	}
	for name, want := range tests {
		if got := globalType(t, c, name); got != want {
			t.Errorf("%s: %s, want %s", name, got, want)
		}
	}
}

func TestVariadicAndDefaultSignature(t *testing.T) {
	c := expectClean(t, "fun f(a, Int b = 1, ...rest) { return rest }\nf(1)\nf(1, 2, 3, 4)\nf(1, b: 2)")
	if got := globalType(t, c, "f"); got != "fun(Object a, Int b, Object ...rest) -> Varargs" {
		t.Errorf("f: %s", got)
	}
}

func TestUnifyIsSymmetric(t *testing.T) {
	c := expectClean(t, "class A { }\nclass B < A { }\nclass X { }")
	a, _ := c.Lookup("A")
	b, _ := c.Lookup("B")
	x, _ := c.Lookup("X")

	ab, ok1 := Unify(a.Instance, b.Instance)
	ba, ok2 := Unify(b.Instance, a.Instance)
	if !ok1 || !ok2 || ab != a.Instance || ba != a.Instance {
		t.Errorf("Unify(A, B) = %v, Unify(B, A) = %v", ab, ba)
	}
	if _, ok := Unify(a.Instance, x.Instance); ok {
		t.Error("unrelated classes unified")
	}
	if u, ok := Unify(x.Instance, c.object); !ok || u != c.object {
		t.Errorf("Unify(X, Object) = %v", u)
	}
	if u, ok := Unify(c.object, x.Instance); !ok || u != c.object {
		t.Errorf("Unify(Object, X) = %v", u)
	}
}

func TestSharedAncestorDoesNotUnify(t *testing.T) {
	c := expectClean(t, "class A { }\nclass B < A { }\nclass C < A { }")
	b, _ := c.Lookup("B")
	cc, _ := c.Lookup("C")
	if u, ok := Unify(b.Instance, cc.Instance); ok {
		t.Errorf("Unify(B, C) = %v, want failure", u)
	}

	_, _, diags := check(t, "var n = 1\nn = 2.0")
	if len(diags) != 1 || diags[0].msg != "cannot redefine variable of type Int to type Float" {
		t.Errorf("diagnostics = %v", diags)
	}
}

func TestSubclassAssignment(t *testing.T) {
	c := expectClean(t, "class A { }\nclass B < A { }\nvar v = B()\nv = A()\nfun take(A a) { }\ntake(B())")
	if got := globalType(t, c, "v"); got != "A" {
		t.Errorf("v widened to %s, want A", got)
	}
}

func TestAttributesThroughSuper(t *testing.T) {
	expectClean(t, `
class A { init() { self.x = 1 } }
class B < A { init() { super.init() } }
class D < A { }
var bx = B().x
var dx = D().x
`)

	_, _, diags := check(t, `
class A { init() { self.x = 1 } }
class C < A { init() { } }
C().x
`)
	if len(diags) != 1 || !strings.Contains(diags[0].msg, "Undefined property 'x' on C.") {
		t.Errorf("diagnostics = %v", diags)
	}
}

func TestBareSuperMarksMethod(t *testing.T) {
	c := expectClean(t, `
class A { init(Int n) { self.n = n } }
class B < A { init() { super(1) } }
var n = B().n
`)
	if got := globalType(t, c, "n"); got != "Int" {
		t.Errorf("n: %s", got)
	}
	b, _ := c.Lookup("B")
	if !b.Members["init"].CallsSuper {
		t.Error("B.init should be marked as calling super")
	}
}

func TestInitializerReturnsInstance(t *testing.T) {
	c := expectClean(t, "class P { init() { } }\nvar p = P()\nvar again = p.init()")
	if got := globalType(t, c, "again"); got != "P" {
		t.Errorf("again: %s", got)
	}
}

func TestForLoopElementTypes(t *testing.T) {
	expectClean(t, `
for c in "abc" { c.upper() }
for i in 3 { i + 1 }
for p in Map() { p.first }
for x in [1, "a"] { x.anything }
`)
}

func TestUserIteratorMustDeclareIterate(t *testing.T) {
	_, _, diags := check(t, "class A { }\nfor x in A() { }")
	if len(diags) != 1 || !strings.Contains(diags[0].msg, "Value of class A is not iterable.") {
		t.Errorf("diagnostics = %v", diags)
	}
	expectClean(t, "class A { iterate() { return self } }\nfor x in A() { }")
}

func TestCheckerPersistsAcrossInputs(t *testing.T) {
	var diags []diagnostic
	c := newChecker(&diags)
	checkSource(t, c, "var x = 1")
	checkSource(t, c, "x = 2")
	if len(diags) != 0 {
		t.Fatalf("diagnostics = %v", diags)
	}
	checkSource(t, c, `x = "s"`)
	if len(diags) != 1 {
		t.Fatalf("diagnostics = %v", diags)
	}
	checkSource(t, c, "var y = x + 1")
	if c.HadError() {
		t.Error("HadError should reset per input")
	}
}

func TestRejectedInputIsRolledBack(t *testing.T) {
	var diags []diagnostic
	c := newChecker(&diags)
	checkSource(t, c, "class P { init() { self.n = 1 } }")
	checkSource(t, c, "var fresh = 1\nvar p = P()\np.extra = 2\nfresh = \"s\"")
	if len(diags) != 1 {
		t.Fatalf("diagnostics = %v", diags)
	}
	for _, name := range []string{"fresh", "p"} {
		if _, ok := c.Lookup(name); ok {
			t.Errorf("%s survived a rejected input", name)
		}
	}
	p, _ := c.Lookup("P")
	if _, ok := p.Attributes["extra"]; ok {
		t.Error("attribute added by a rejected input survived")
	}
	if _, ok := p.Attributes["n"]; !ok {
		t.Error("attribute from an accepted input was lost")
	}
	checkSource(t, c, "fresh = \"s\"")
	if len(diags) != 1 {
		t.Errorf("diagnostics = %v", diags)
	}
}

func TestTypesRecordedForNodes(t *testing.T) {
	c, stmts, diags := check(t, "var a = 1\nprint(a + 2)\nclass K { m() { return self } }")
	if len(diags) > 0 {
		t.Fatalf("diagnostics = %v", diags)
	}
	ast.InspectAll(stmts, func(n ast.Node) bool {
		switch n.(type) {
		case *ast.Var, *ast.Expression, *ast.ClassDecl, *ast.Lambda, *ast.Return,
			*ast.Binary, *ast.Call, *ast.Variable, *ast.Literal, *ast.Self:
			if c.TypeOf(n) == nil {
				t.Errorf("no type for %s", ast.Sprint(n))
			}
		}
		return true
	})
	if len(c.Types()) == 0 {
		t.Error("Types() is empty")
	}
}

func TestMemberNames(t *testing.T) {
	c := expectClean(t, `
class A { init() { self.a = 1 } base() { } }
class B < A { init() { super.init(); self.b = 2 } own() { } }
class C < A { init() { self.c = 3 } }
`)
	has := func(names []string, want string) bool {
		for _, n := range names {
			if n == want {
				return true
			}
		}
		return false
	}

	b, _ := c.Lookup("B")
	names := b.Instance.MemberNames()
	for _, want := range []string{"a", "b", "base", "own", "init", "toString", "equals"} {
		if !has(names, want) {
			t.Errorf("B members %v lack %s", names, want)
		}
	}

	cc, _ := c.Lookup("C")
	if has(cc.Instance.MemberNames(), "a") {
		t.Error("C does not call super, so a should not be listed")
	}

	list, _ := c.Lookup("List")
	names = list.Instance.MemberNames()
	if !has(names, "pop") || has(names, "first") {
		t.Errorf("List members = %v", names)
	}
}

func TestNativeClassesAreGlobals(t *testing.T) {
	c := expectClean(t, "")
	for _, name := range []string{"Object", "Int", "Float", "String", "List", "Map", "print", "clock"} {
		if _, ok := c.Globals()[name]; !ok {
			t.Errorf("global %s missing", name)
		}
	}
	if got := globalType(t, c, "print"); got != "fun(Object ...values) -> Nil" {
		t.Errorf("print: %s", got)
	}
}
