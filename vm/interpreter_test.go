package vm

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/chazu/kestrel/ast"
	"github.com/chazu/kestrel/compiler"
)

// load parses and resolves source, failing the test on static errors.
func load(t *testing.T, source string) ([]ast.Stmt, ast.Locals) {
	t.Helper()
	stmts, errs := compiler.Parse(source)
	if len(errs) > 0 {
		t.Fatalf("parse error: %v", errs[0])
	}
	locals, ok := compiler.Resolve(stmts, func(tok ast.Token, msg string) {
		t.Errorf("resolve error at %s: %s", tok.Lexeme, msg)
	})
	if !ok {
		t.FailNow()
	}
	return stmts, locals
}

// runIn interprets source in an existing interpreter.
func runIn(t *testing.T, in *Interpreter, source string) error {
	t.Helper()
	stmts, locals := load(t, source)
	in.AddLocals(locals)
	return in.Interpret(stmts)
}

// run interprets source in a fresh interpreter and returns what it printed.
func run(t *testing.T, source string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	in := New(&out, nil)
	err := runIn(t, in, source)
	return out.String(), err
}

// expectOutput runs source and compares its output.
func expectOutput(t *testing.T, source, want string) {
	t.Helper()
	got, err := run(t, source)
	if err != nil {
		t.Fatalf("unexpected runtime error: %v", err)
	}
	if got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

// expectRuntimeError runs source and checks the error message.
func expectRuntimeError(t *testing.T, source, wantMsg string) *RuntimeError {
	t.Helper()
	_, err := run(t, source)
	if err == nil {
		t.Fatalf("expected runtime error containing %q", wantMsg)
	}
	var re *RuntimeError
	if !errors.As(err, &re) {
		t.Fatalf("error %T is not a *RuntimeError", err)
	}
	if !strings.Contains(re.Message, wantMsg) {
		t.Errorf("error = %q, want it to contain %q", re.Message, wantMsg)
	}
	return re
}

// ---------------------------------------------------------------------------
// Arithmetic and operators
// ---------------------------------------------------------------------------

func TestArithmetic(t *testing.T) {
	tests := []struct {
		source string
		want   string
	}{
		{"print(1 + 1);", "2\n"},
		{"print(1 + 1.0);", "2.0\n"},
		{"print(7 / 2);", "3\n"},
		{"print(7.0 / 2);", "3.5\n"},
		{"print(7 % 3);", "1\n"},
		{"print(2 * 3 - 1);", "5\n"},
		{"print(-(4));", "-4\n"},
		{"print(\"a\" + \"b\");", "ab\n"},
		{"print(1, \"x\", nil, true);", "1 x nil true\n"},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			expectOutput(t, tt.source, tt.want)
		})
	}
}

func TestComparisonOperators(t *testing.T) {
	tests := []struct {
		source string
		want   string
	}{
		{"print(2 >= 2);", "true\n"},
		{"print(3 >= 2);", "true\n"},
		{"print(1 >= 2);", "false\n"},
		{"print(1 < 2);", "true\n"},
		{"print(2 < 2);", "false\n"},
		{"print(3 <= 2);", "false\n"},
		{"print(2 <= 2);", "true\n"},
		{"print(1 != 2);", "true\n"},
		{"print(1 == 1.0);", "true\n"},
		{"print(!nil);", "true\n"},
		{"print(!0);", "true\n"},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			expectOutput(t, tt.source, tt.want)
		})
	}
}

func TestLogicalOperatorsReturnDecidingOperand(t *testing.T) {
	expectOutput(t, `
print(nil or "x");
print(1 and 2);
print(false and undefinedName);
print("left" or undefinedName);
`, "x\n2\nfalse\nleft\n")
}

func TestUserOperatorOverloading(t *testing.T) {
	expectOutput(t, `
class V {
  init(x) { self.x = x; }
  add(o) { return V(self.x + o.x); }
  greaterThan(o) { return self.x > o.x; }
  equals(o) { return self.x == o.x; }
  toString() { return "V(" + self.x.toString() + ")"; }
}
print(V(1) + V(2));
print(V(1) < V(2), V(2) <= V(2), V(3) >= V(4));
print(V(1) == V(1), V(1) != V(1));
`, "V(3)\ntrue true false\ntrue false\n")
}

// ---------------------------------------------------------------------------
// Truthiness
// ---------------------------------------------------------------------------

func TestTruthinessDispatchesIsTrue(t *testing.T) {
	expectOutput(t, `
class Flag {
  init(on) { self.on = on; }
  isTrue() { return self.on; }
}
if Flag(false) { print("yes"); } else { print("no"); }
if Flag(true) { print("yes"); } else { print("no"); }
if "" { print("string"); } else { print("empty string"); }
if 0 { print("zero"); } else { print("not zero"); }
`, "no\nyes\nempty string\nnot zero\n")
}

func TestTruthinessRequiresBool(t *testing.T) {
	expectRuntimeError(t, `
class Odd { isTrue() { return 1; } }
if Odd() { print("never"); }
`, "protocol method returned the wrong class")
}

// ---------------------------------------------------------------------------
// Variables, scopes and closures
// ---------------------------------------------------------------------------

func TestBlockScoping(t *testing.T) {
	expectOutput(t, `
var a = "global";
{
  var a = "inner";
  print(a);
}
print(a);
`, "inner\nglobal\n")
}

func TestClosureCapturesByReference(t *testing.T) {
	expectOutput(t, `
fun makeCounter() {
  var i = 0;
  fun count() {
    i = i + 1;
    return i;
  }
  return count;
}
var c = makeCounter();
c();
print(c());
var d = makeCounter();
print(d());
`, "2\n1\n")
}

func TestClosureResolvesStatically(t *testing.T) {
	expectOutput(t, `
var a = "global";
{
  fun show() { print(a); }
  show();
  var a = "block";
  show();
}
`, "global\nglobal\n")
}

func TestLambda(t *testing.T) {
	expectOutput(t, `
var twice = fun (f, x) { return f(f(x)); };
print(twice(fun (n) { return n * 3; }, 2));
`, "18\n")
}

func TestWhileLoop(t *testing.T) {
	expectOutput(t, `
var i = 0;
while i < 3 {
  print(i);
  i = i + 1;
}
`, "0\n1\n2\n")
}

func TestAssignToUndeclaredDefinesGlobal(t *testing.T) {
	expectOutput(t, `
fun f() { created = 5; }
f();
print(created);
`, "5\n")
}

func TestUnresolvedAssignmentWritesGlobal(t *testing.T) {
	// f is resolved before the block declares x, so both its write and its
	// read of x name the global.
	expectOutput(t, `
{
  fun f() { x = 1; print(x); }
  var x = 0;
  f();
  print(x);
}
`, "1\n0\n")
}

// ---------------------------------------------------------------------------
// Iteration
// ---------------------------------------------------------------------------

func TestForOverInt(t *testing.T) {
	expectOutput(t, "for x in 3 { print(x); }", "0\n1\n2\n")
}

func TestForOverCollections(t *testing.T) {
	expectOutput(t, `
for x in [1, "two", 3.0] { print(x); }
for c in "hi" { print(c); }
var m = Map();
m.set("k", 1);
for p in m { print(p.first, p.second); }
`, "1\ntwo\n3.0\nh\ni\nk 1\n")
}

func TestForClosuresCaptureEachElement(t *testing.T) {
	expectOutput(t, `
var fs = [];
for i in 3 { fs.add(fun () { return i; }); }
for f in fs { print(f()); }
`, "0\n1\n2\n")
}

func TestForReturnsFromFunction(t *testing.T) {
	expectOutput(t, `
fun first(xs) {
  for x in xs { return x; }
  return nil;
}
print(first([7, 8]));
print(first([]));
`, "7\nnil\n")
}

func TestForUserIterator(t *testing.T) {
	expectOutput(t, `
class Countdown {
  init(n) { self.n = n; }
  iterate() { return self; }
  next() {
    if self.n == 0 { return IteratorResult(nil, true); }
    self.n = self.n - 1;
    return IteratorResult(self.n + 1, false);
  }
}
for x in Countdown(3) { print(x); }
`, "3\n2\n1\n")
}

func TestForNotIterable(t *testing.T) {
	expectRuntimeError(t, "for x in nil { print(x); }", "Value of class Nil is not iterable.")
}

// ---------------------------------------------------------------------------
// Classes and inheritance
// ---------------------------------------------------------------------------

func TestClassFieldsAndMethods(t *testing.T) {
	expectOutput(t, `
class Point {
  init(x, y) {
    self.x = x;
    self.y = y;
  }
  sum() { return self.x + self.y; }
}
var p = Point(1, 2);
print(p.sum());
p.x = 10;
print(p.sum());
print(p);
print(Point);
`, "3\n12\n<Point instance>\n<class Point>\n")
}

func TestInitializerReturnsInstance(t *testing.T) {
	expectOutput(t, `
class A {
  init() { self.v = 1; return; }
}
var a = A();
print(a.init() == a);
`, "true\n")
}

func TestSuperInit(t *testing.T) {
	expectOutput(t, `
class A {
  init(x) { self.x = x; }
}
class B < A {
  init() {
    super.init(5);
    self.y = 1;
  }
}
var b = B();
print(b.x + b.y);
`, "6\n")
}

func TestBareSuperCallsHomeMethod(t *testing.T) {
	expectOutput(t, `
class A {
  init(x) { self.x = x; }
  describe() { return "A"; }
}
class B < A {
  init() { super(7); }
  describe() { return "B<" + super() + ">"; }
}
var b = B();
print(b.x);
print(b.describe());
`, "7\nB<A>\n")
}

func TestBareSuperInLambdaUsesEnclosingMethod(t *testing.T) {
	expectOutput(t, `
class A {
  name() { return "A"; }
}
class B < A {
  name() {
    var f = fun () { return super(); };
    return f;
  }
}
var f = B().name();
print(f());
`, "A\n")
}

func TestInheritedInit(t *testing.T) {
	expectOutput(t, `
class A { init(x) { self.x = x; } }
class B < A {}
print(B(4).x);
`, "4\n")
}

func TestMultipleInheritanceNearestWins(t *testing.T) {
	expectOutput(t, `
class A { m() { return "A"; } }
class D < A {}
class G < D, A {}
print(G().m());
class H { m() { return "H"; } }
class K < D, H {}
print(K().m());
`, "A\nH\n")
}

func TestMultipleInheritanceAmbiguity(t *testing.T) {
	expectRuntimeError(t, `
class A { m() { return 1; } }
class B { m() { return 2; } }
class C < A, B {}
C().m();
`, "Ambiguous method 'm': inherited through A and B.")
}

func TestDiamondIsAmbiguous(t *testing.T) {
	expectRuntimeError(t, `
class A { m() { return 1; } }
class D < A {}
class E < A {}
class F < D, E {}
F().m();
`, "Ambiguous method 'm'")
}

func TestSuperclassMustBeClass(t *testing.T) {
	expectRuntimeError(t, `
var NotAClass = "x";
class A < NotAClass {}
`, "Superclass must be a class.")
}

func TestNativeSuperclassRejected(t *testing.T) {
	expectRuntimeError(t, "class MyList < List {}", "Superclass must be a class.")
}

func TestRootProtocolOnInstances(t *testing.T) {
	expectOutput(t, `
class A {}
var a = A();
print(a.equals(a), a.equals(A()), a.isTrue(), a.toString());
`, "true false true <A instance>\n")
}

// ---------------------------------------------------------------------------
// Calls: arity, named arguments, defaults and varargs
// ---------------------------------------------------------------------------

func TestDefaultsAndNamedArguments(t *testing.T) {
	expectOutput(t, `
fun greet(name, greeting = "hello") { return greeting + " " + name; }
print(greet("bob"));
print(greet("bob", "hey"));
print(greet("bob", greeting: "hi"));
print(greet(greeting: "yo", name: "al"));
`, "hello bob\nhey bob\nhi bob\nyo al\n")
}

func TestDefaultsEvaluatedPerCall(t *testing.T) {
	expectOutput(t, `
fun push(x, xs = []) { xs.add(x); return xs.length(); }
print(push(1));
print(push(2));
`, "1\n1\n")
}

func TestVarargs(t *testing.T) {
	expectOutput(t, `
fun sum(...xs) {
  var t = 0;
  for x in xs { t = t + x; }
  return t;
}
print(sum());
print(sum(1, 2, 3));
fun tagged(tag, ...rest) { return tag + rest.length().toString(); }
print(tagged("n", 1, 2));
`, "0\n6\nn2\n")
}

func TestArgumentErrors(t *testing.T) {
	tests := []struct {
		source string
		want   string
	}{
		{"fun f(a) {} f(1, 2);", "Expected 1 arguments but got 2."},
		{"fun f(a, b = 1) {} f();", "Expected 1 to 2 arguments but got 0."},
		{"fun f(a, ...r) {} f();", "Expected at least 1 arguments but got 0."},
		{"fun f(a) {} f(b: 1);", "Unknown parameter 'b'."},
		{"fun f(a, b = 2) {} f(1, a: 2);", "Parameter 'a' given twice."},
		{"fun f(a, ...r) {} f(1, r: 2);", "Can't pass variadic parameter 'r' by name."},
		{"fun f(a, b) {} f(b: 1, c: 2);", "Unknown parameter 'c'."},
		{"fun f(a = 1, b = 2) {} f(a: 1, a2: 2);", "Unknown parameter 'a2'."},
		{"fun f(a, b = 1) {} f(b: 3);", "Missing argument for parameter 'a'."},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			expectRuntimeError(t, tt.source, tt.want)
		})
	}
}

// ---------------------------------------------------------------------------
// Runtime errors
// ---------------------------------------------------------------------------

func TestRuntimeErrors(t *testing.T) {
	tests := []struct {
		source string
		want   string
	}{
		{"print(nope);", "Undefined variable 'nope'."},
		{"\"s\"();", "Can only call functions and classes."},
		{"class A {} A().z;", "Undefined property 'z'."},
		{"print(1 / 0);", "division by zero"},
		{"print(1 + \"a\");", "wrong argument class"},
		{"[1].get(5);", "index out of range"},
		{"[].pop();", "empty list"},
		{"Map().get(1);", "key not found"},
		{"Number();", "class cannot be instantiated"},
		{"nil.z = 1;", "Only instances have fields."},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			expectRuntimeError(t, tt.source, tt.want)
		})
	}
}

func TestRuntimeErrorLocation(t *testing.T) {
	re := expectRuntimeError(t, "var a = 1;\nvar b = 2;\nprint(a / 0);", "division by zero")
	if re.Token.Line != 3 {
		t.Errorf("error line = %d, want 3", re.Token.Line)
	}
	if !strings.HasSuffix(re.Error(), "[line 3]") {
		t.Errorf("Error() = %q", re.Error())
	}
}

func TestRuntimeErrorInsideNativeCallback(t *testing.T) {
	re := expectRuntimeError(t, `
class Bad {
  toString() { return 1; }
}
print(Bad());
`, "protocol method returned the wrong class")
	if re.Token.Line != 5 {
		t.Errorf("error line = %d, want 5", re.Token.Line)
	}
}

func TestStackOverflow(t *testing.T) {
	var out bytes.Buffer
	in := New(&out, nil)
	in.MaxDepth = 50
	err := runIn(t, in, "fun f() { return f(); }\nf();")
	var re *RuntimeError
	if !errors.As(err, &re) || re.Message != "Stack overflow." {
		t.Fatalf("err = %v, want Stack overflow.", err)
	}
	// The frame stack unwinds, so the interpreter is usable afterwards.
	if err := runIn(t, in, "fun g() { return 1; }\nprint(g());"); err != nil {
		t.Fatalf("interpreter unusable after overflow: %v", err)
	}
	if out.String() != "1\n" {
		t.Errorf("output = %q", out.String())
	}
}

func TestErrorReportedOnce(t *testing.T) {
	var reports []string
	in := New(&bytes.Buffer{}, func(tok ast.Token, msg string) {
		reports = append(reports, msg)
	})
	err := runIn(t, in, "print(\"a\");\nprint(nope);\nprint(\"b\");")
	if err == nil {
		t.Fatal("expected error")
	}
	if len(reports) != 1 || reports[0] != "Undefined variable 'nope'." {
		t.Errorf("reports = %v", reports)
	}
}

func TestInterpreterSurvivesErrors(t *testing.T) {
	var out bytes.Buffer
	in := New(&out, nil)
	if err := runIn(t, in, "var kept = 41;\nfun boom() { { var x = 1; return nope; } }"); err != nil {
		t.Fatal(err)
	}
	if err := runIn(t, in, "boom();"); err == nil {
		t.Fatal("expected error from boom()")
	}
	if err := runIn(t, in, "print(kept + 1);"); err != nil {
		t.Fatalf("after error: %v", err)
	}
	if out.String() != "42\n" {
		t.Errorf("output = %q, want 42", out.String())
	}
}

// ---------------------------------------------------------------------------
// Host API
// ---------------------------------------------------------------------------

func TestHostCallsIntoProgram(t *testing.T) {
	var out bytes.Buffer
	in := New(&out, nil)
	if err := runIn(t, in, `
fun double(x) { return x * 2; }
class Box { init(v) { self.v = v; } get() { return self.v; } }
var box = Box(9);
`); err != nil {
		t.Fatal(err)
	}

	double, err := in.Globals().Get("double")
	if err != nil {
		t.Fatal(err)
	}
	v, err := in.Call(double, Int(21))
	if err != nil || v != Int(42) {
		t.Errorf("double(21) = %v, %v", v, err)
	}

	box, _ := in.Globals().Get("box")
	v, err = in.CallMethod(box, "get")
	if err != nil || v != Int(9) {
		t.Errorf("box.get() = %v, %v", v, err)
	}

	s, err := in.Stringify(box)
	if err != nil || s != "<Box instance>" {
		t.Errorf("Stringify(box) = %q, %v", s, err)
	}
}

func TestSetOutput(t *testing.T) {
	var first, second bytes.Buffer
	in := New(&first, nil)
	if err := runIn(t, in, "print(1);"); err != nil {
		t.Fatal(err)
	}
	in.SetOutput(&second)
	if err := runIn(t, in, "print(2);"); err != nil {
		t.Fatal(err)
	}
	if first.String() != "1\n" || second.String() != "2\n" {
		t.Errorf("outputs = %q, %q", first.String(), second.String())
	}
}
