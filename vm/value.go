package vm

import (
	"fmt"
	"math"

	"github.com/chazu/kestrel/ast"
)

// ---------------------------------------------------------------------------
// Value protocol
// ---------------------------------------------------------------------------

// Value is a runtime value. Every concrete value type is comparable, so
// identity equality is a plain ==.
type Value interface {
	// TypeName is the name of the value's class.
	TypeName() string
}

// NativeValue is a value whose behavior comes from a native class. The class
// pointer is shared by every value of the type.
type NativeValue interface {
	Value
	Class() *NativeClass
}

// Callable is implemented by every value that can appear in callee position.
// Call receives arguments already matched to Parameters(): a nil slot means
// the parameter was omitted and its default must be evaluated, and a
// variadic parameter receives a *Varargs.
type Callable interface {
	Value
	Parameters() []*ast.Parameter
	LowerArity() int
	UpperArity() int
	Call(in *Interpreter, site ast.Token, args []Value) (Value, error)
}

// Unbounded is the upper arity of a callable with a variadic parameter.
const Unbounded = math.MaxInt

// lowerArity counts required parameters.
func lowerArity(params []*ast.Parameter) int {
	n := 0
	for _, p := range params {
		if p.Default == nil && !p.Variadic {
			n++
		}
	}
	return n
}

// upperArity is the parameter count, or Unbounded with a variadic tail.
func upperArity(params []*ast.Parameter) int {
	if len(params) > 0 && params[len(params)-1].Variadic {
		return Unbounded
	}
	return len(params)
}

// Arity returns the bounds a call's argument count must fall within.
func Arity(params []*ast.Parameter) (lower, upper int) {
	return lowerArity(params), upperArity(params)
}

// ArityString renders an arity range for error messages.
func ArityString(lower, upper int) string {
	switch {
	case upper == Unbounded:
		return fmt.Sprintf("at least %d", lower)
	case lower == upper:
		return fmt.Sprintf("%d", lower)
	default:
		return fmt.Sprintf("%d to %d", lower, upper)
	}
}

// ---------------------------------------------------------------------------
// Parameter helpers for native metadata
// ---------------------------------------------------------------------------

// Param declares a required native parameter of the given class.
func Param(class, name string) *ast.Parameter {
	return &ast.Parameter{Type: ast.Synthetic(class), Name: ast.Synthetic(name)}
}

// VariadicParam declares a trailing native parameter collecting the rest of
// the positional arguments.
func VariadicParam(class, name string) *ast.Parameter {
	p := Param(class, name)
	p.Variadic = true
	return p
}

// describe renders a value for default toString and debugging.
func describe(v Value) string {
	if s, ok := v.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("<%s>", v.TypeName())
}
