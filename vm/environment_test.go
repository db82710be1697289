package vm

import (
	"errors"
	"testing"
)

func TestEnvironmentDefineAndGet(t *testing.T) {
	globals := NewEnvironment(nil)
	globals.Define("a", Int(1))
	inner := NewEnvironment(globals)
	inner.Define("b", Int(2))

	if v, err := inner.Get("a"); err != nil || v != Int(1) {
		t.Errorf("Get(a) = %v, %v", v, err)
	}
	if v, err := inner.Get("b"); err != nil || v != Int(2) {
		t.Errorf("Get(b) = %v, %v", v, err)
	}
	if _, err := globals.Get("b"); !errors.Is(err, ErrUndefinedVar) {
		t.Errorf("outer scope sees inner binding, err = %v", err)
	}
}

func TestEnvironmentShadowing(t *testing.T) {
	globals := NewEnvironment(nil)
	globals.Define("x", String("outer"))
	inner := NewEnvironment(globals)
	inner.Define("x", String("inner"))

	if v, _ := inner.Get("x"); v != String("inner") {
		t.Errorf("inner Get = %v", v)
	}
	if v, _ := globals.Get("x"); v != String("outer") {
		t.Errorf("outer Get = %v", v)
	}
}

func TestEnvironmentAssign(t *testing.T) {
	globals := NewEnvironment(nil)
	globals.Define("x", Int(1))
	middle := NewEnvironment(globals)
	inner := NewEnvironment(middle)

	inner.Assign("x", Int(2))
	if v, _ := globals.Get("x"); v != Int(2) {
		t.Errorf("assign did not reach the binding scope, x = %v", v)
	}
	if inner.Has("x") || middle.Has("x") {
		t.Error("assign created a binding in a nested scope")
	}

	inner.Assign("fresh", Int(3))
	if !globals.Has("fresh") {
		t.Error("assign to an unbound name should define it in the outermost scope")
	}
}

func TestEnvironmentAtDistance(t *testing.T) {
	globals := NewEnvironment(nil)
	a := NewEnvironment(globals)
	b := NewEnvironment(a)
	a.Define("n", Int(10))
	b.Define("n", Int(20))

	if v := b.GetAt(0, "n"); v != Int(20) {
		t.Errorf("GetAt(0) = %v", v)
	}
	if v := b.GetAt(1, "n"); v != Int(10) {
		t.Errorf("GetAt(1) = %v", v)
	}
	if v := b.GetAt(5, "n"); v != nil {
		t.Errorf("GetAt past the chain = %v, want nil", v)
	}

	b.AssignAt(1, "n", Int(11))
	if v, _ := a.Get("n"); v != Int(11) {
		t.Errorf("AssignAt(1) wrote elsewhere, a.n = %v", v)
	}
	if v := b.GetAt(0, "n"); v != Int(20) {
		t.Errorf("AssignAt(1) touched scope 0, b.n = %v", v)
	}
}

func TestEnvironmentNames(t *testing.T) {
	env := NewEnvironment(nil)
	env.Define("zeta", Nil)
	env.Define("alpha", Nil)
	names := env.Names()
	if len(names) != 2 || names[0] != "alpha" || names[1] != "zeta" {
		t.Errorf("Names() = %v", names)
	}
	if env.Enclosing() != nil {
		t.Error("globals should have no enclosing scope")
	}
}
