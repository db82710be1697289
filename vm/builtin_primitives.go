package vm

import (
	"fmt"
	"strings"
	"time"

	"github.com/chazu/kestrel/ast"
)

// ---------------------------------------------------------------------------
// Free functions and the global table
// ---------------------------------------------------------------------------

// NativeClasses lists every native class in registration order.
func NativeClasses() []*NativeClass {
	return []*NativeClass{
		ObjectClass, NilClass, BoolClass, NumberClass, IntClass, FloatClass,
		StringClass, ListClass, MapClass, PairClass, VarargsClass,
		IteratorClass, IteratorResultClass,
	}
}

// NativeFunctions returns the free functions every interpreter defines.
func NativeFunctions() []*NativeFunction {
	return []*NativeFunction{
		NewNativeFunction("print", []*ast.Parameter{VariadicParam("Object", "values")}, "Nil", builtinPrint),
		NewNativeFunction("clock", nil, "Float", builtinClock),
		NewNativeFunction("typeOf", []*ast.Parameter{Param("Object", "value")}, "String", builtinTypeOf),
	}
}

// builtinPrint writes the toString of each value, space separated, and a
// newline to the interpreter's output.
func builtinPrint(in *Interpreter, args []Value) (Value, error) {
	values := args[0].(*Varargs).Items
	parts := make([]string, len(values))
	for i, v := range values {
		s, err := in.Stringify(v)
		if err != nil {
			return nil, err
		}
		parts[i] = s
	}
	if _, err := fmt.Fprintln(in.out, strings.Join(parts, " ")); err != nil {
		return nil, fmt.Errorf("print: %w", err)
	}
	return Nil, nil
}

func builtinClock(_ *Interpreter, _ []Value) (Value, error) {
	return Float(float64(time.Now().UnixNano()) / float64(time.Second)), nil
}

func builtinTypeOf(_ *Interpreter, args []Value) (Value, error) {
	return String(args[0].TypeName()), nil
}
