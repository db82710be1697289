package vm

import (
	"math"
	"strconv"
	"strings"
)

// ---------------------------------------------------------------------------
// Float Primitives
// ---------------------------------------------------------------------------

// FloatClass is the class of floating point numbers.
var FloatClass = NewNativeClass("Float", NumberClass)

// Float is a 64-bit floating point number.
type Float float64

func (Float) TypeName() string    { return "Float" }
func (Float) Class() *NativeClass { return FloatClass }

// String always shows a fractional part, so 2.0 never prints as 2.
func (f Float) String() string {
	s := strconv.FormatFloat(float64(f), 'f', -1, 64)
	if math.IsInf(float64(f), 0) || math.IsNaN(float64(f)) || strings.ContainsAny(s, ".e") {
		return s
	}
	return s + ".0"
}

// toFloat accepts either numeric class.
func toFloat(v Value) (Float, bool) {
	switch n := v.(type) {
	case Float:
		return n, true
	case Int:
		return Float(n), true
	}
	return 0, false
}

func floatDivide(a, b Float) (Value, error) {
	if b == 0 {
		return nil, ErrDivisionByZero
	}
	return a / b, nil
}

func floatModulo(a, b Float) (Value, error) {
	if b == 0 {
		return nil, ErrDivisionByZero
	}
	return Float(math.Mod(float64(a), float64(b))), nil
}

func init() {
	registerFloatPrimitives()
}

func floatArith(c *NativeClass, name string, op func(a, b Float) (Value, error)) {
	c.AddMethod1(name, Param("Number", "other"), "Float", func(_ *Interpreter, self Value, arg Value) (Value, error) {
		other, ok := toFloat(arg)
		if !ok {
			return nil, wrongArgument("Float."+name, "Number", arg)
		}
		return op(self.(Float), other)
	})
}

func registerFloatPrimitives() {
	c := FloatClass

	floatArith(c, "add", func(a, b Float) (Value, error) { return a + b, nil })
	floatArith(c, "subtract", func(a, b Float) (Value, error) { return a - b, nil })
	floatArith(c, "multiply", func(a, b Float) (Value, error) { return a * b, nil })
	floatArith(c, "divide", floatDivide)
	floatArith(c, "modulo", floatModulo)

	c.AddMethod0("negate", "Float", func(_ *Interpreter, self Value) (Value, error) {
		return -self.(Float), nil
	})

	c.AddMethod1("greaterThan", Param("Number", "other"), "Bool", func(_ *Interpreter, self Value, arg Value) (Value, error) {
		other, ok := toFloat(arg)
		if !ok {
			return nil, wrongArgument("Float.greaterThan", "Number", arg)
		}
		return Bool(self.(Float) > other), nil
	})

	c.AddMethod1("equals", Param("Object", "other"), "Bool", func(_ *Interpreter, self Value, arg Value) (Value, error) {
		other, ok := toFloat(arg)
		return Bool(ok && self.(Float) == other), nil
	})

	c.AddMethod0("isTrue", "Bool", func(_ *Interpreter, self Value) (Value, error) {
		return Bool(self.(Float) != 0), nil
	})

	c.AddMethod0("floor", "Float", func(_ *Interpreter, self Value) (Value, error) {
		return Float(math.Floor(float64(self.(Float)))), nil
	})

	c.AddMethod0("toInt", "Int", func(_ *Interpreter, self Value) (Value, error) {
		return Int(self.(Float)), nil
	})

	c.AddMethod0("toString", "String", func(_ *Interpreter, self Value) (Value, error) {
		return String(self.(Float).String()), nil
	})
}
