package vm

import (
	"strings"
	"testing"

	"github.com/chazu/kestrel/ast"
)

func TestClassArityFollowsInit(t *testing.T) {
	base := NewClass("Base")
	base.Methods["init"] = &Function{
		Declaration: &ast.Lambda{Params: []*ast.Parameter{
			Param("Object", "a"),
			withDefault(Param("Object", "b")),
		}},
		IsInitializer: true,
	}
	derived := NewClass("Derived", base)
	empty := NewClass("Empty")

	if derived.LowerArity() != 1 || derived.UpperArity() != 2 {
		t.Errorf("inherited init arity = %d..%d, want 1..2", derived.LowerArity(), derived.UpperArity())
	}
	if empty.LowerArity() != 0 || empty.UpperArity() != 0 {
		t.Errorf("class without init arity = %d..%d", empty.LowerArity(), empty.UpperArity())
	}
}

func TestIsSubclassOf(t *testing.T) {
	a := NewClass("A")
	b := NewClass("B")
	c := NewClass("C", a, b)
	d := NewClass("D", c)

	if !d.IsSubclassOf(a) || !d.IsSubclassOf(b) || !d.IsSubclassOf(d) {
		t.Error("D should inherit from A, B and itself")
	}
	if a.IsSubclassOf(d) {
		t.Error("A is not a subclass of D")
	}
}

func TestInstanceFields(t *testing.T) {
	obj := NewInstance(NewClass("Point"))
	if len(obj.Fields) != 0 {
		t.Fatalf("new instance has fields %v", obj.Fields)
	}
	obj.Set("x", Int(1))
	obj.Set("x", Int(2))
	if obj.Fields["x"] != Int(2) || len(obj.Fields) != 1 {
		t.Errorf("fields = %v", obj.Fields)
	}
	if obj.TypeName() != "Point" || obj.String() != "<Point instance>" {
		t.Errorf("TypeName %q String %q", obj.TypeName(), obj.String())
	}
}

func TestClassCallWithoutInit(t *testing.T) {
	in := New(&strings.Builder{}, nil)
	c := NewClass("Plain")
	v, err := in.Call(c)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	obj, ok := v.(*Instance)
	if !ok || obj.Class != c {
		t.Errorf("Call returned %v", v)
	}
}

func TestNativeClassHierarchy(t *testing.T) {
	if !IntClass.IsSubclassOf(NumberClass) || !FloatClass.IsSubclassOf(NumberClass) {
		t.Error("Int and Float should be Numbers")
	}
	if NumberClass.Instantiable() {
		t.Error("Number should not be instantiable")
	}
	if !ListClass.Instantiable() || !MapClass.Instantiable() {
		t.Error("List and Map should be instantiable")
	}

	m, err := IntClass.FindMethod("add")
	if err != nil || m == nil {
		t.Fatalf("Int.add: %v, %v", m, err)
	}
	if m, _ := StringClass.FindMethod("negate"); m != nil {
		t.Error("String should not answer negate")
	}
	if p := PairClass.FindProperty("first"); p == nil {
		t.Error("Pair.first property missing")
	}
}

func TestNativeMethodNamesSorted(t *testing.T) {
	names := ListClass.MethodNames()
	for i := 1; i < len(names); i++ {
		if names[i-1] > names[i] {
			t.Fatalf("MethodNames not sorted: %v", names)
		}
	}
	found := false
	for _, n := range names {
		if n == "pop" {
			found = true
		}
	}
	if !found {
		t.Errorf("List methods %v lack pop", names)
	}
}
