package vm

import "strconv"

// ---------------------------------------------------------------------------
// Number and Int Primitives
// ---------------------------------------------------------------------------

// NumberClass is the abstract superclass of Int and Float. It cannot be
// instantiated; it exists so parameters can accept either.
var NumberClass = NewNativeClass("Number")

// IntClass is the class of integers.
var IntClass = NewNativeClass("Int", NumberClass)

// Int is a 64-bit integer.
type Int int64

func (Int) TypeName() string    { return "Int" }
func (Int) Class() *NativeClass { return IntClass }
func (i Int) String() string    { return strconv.FormatInt(int64(i), 10) }

func init() {
	registerIntPrimitives()
}

// intArith builds a binary arithmetic method that widens to Float when the
// argument is a Float.
func intArith(c *NativeClass, name string, ints func(a, b Int) (Value, error), floats func(a, b Float) (Value, error)) {
	c.AddMethod1(name, Param("Number", "other"), "Int", func(_ *Interpreter, self Value, arg Value) (Value, error) {
		switch other := arg.(type) {
		case Int:
			return ints(self.(Int), other)
		case Float:
			return floats(Float(self.(Int)), other)
		}
		return nil, wrongArgument("Int."+name, "Number", arg)
	}).ReturnsFor("Float", "Float")
}

func registerIntPrimitives() {
	c := IntClass
	c.Elements = "Int"

	intArith(c, "add",
		func(a, b Int) (Value, error) { return a + b, nil },
		func(a, b Float) (Value, error) { return a + b, nil })

	intArith(c, "subtract",
		func(a, b Int) (Value, error) { return a - b, nil },
		func(a, b Float) (Value, error) { return a - b, nil })

	intArith(c, "multiply",
		func(a, b Int) (Value, error) { return a * b, nil },
		func(a, b Float) (Value, error) { return a * b, nil })

	intArith(c, "divide",
		func(a, b Int) (Value, error) {
			if b == 0 {
				return nil, ErrDivisionByZero
			}
			return a / b, nil
		},
		floatDivide)

	intArith(c, "modulo",
		func(a, b Int) (Value, error) {
			if b == 0 {
				return nil, ErrDivisionByZero
			}
			return a % b, nil
		},
		floatModulo)

	c.AddMethod0("negate", "Int", func(_ *Interpreter, self Value) (Value, error) {
		return -self.(Int), nil
	})

	// Comparison
	c.AddMethod1("greaterThan", Param("Number", "other"), "Bool", func(_ *Interpreter, self Value, arg Value) (Value, error) {
		switch other := arg.(type) {
		case Int:
			return Bool(self.(Int) > other), nil
		case Float:
			return Bool(Float(self.(Int)) > other), nil
		}
		return nil, wrongArgument("Int.greaterThan", "Number", arg)
	})

	c.AddMethod1("equals", Param("Object", "other"), "Bool", func(_ *Interpreter, self Value, arg Value) (Value, error) {
		switch other := arg.(type) {
		case Int:
			return Bool(self.(Int) == other), nil
		case Float:
			return Bool(Float(self.(Int)) == other), nil
		}
		return False, nil
	})

	c.AddMethod0("isTrue", "Bool", func(_ *Interpreter, self Value) (Value, error) {
		return Bool(self.(Int) != 0), nil
	})

	// Conversion
	c.AddMethod0("toFloat", "Float", func(_ *Interpreter, self Value) (Value, error) {
		return Float(self.(Int)), nil
	})

	c.AddMethod0("toString", "String", func(_ *Interpreter, self Value) (Value, error) {
		return String(self.(Int).String()), nil
	})

	// Iteration counts from zero up to the receiver, exclusive.
	c.AddMethod0("iterate", "Iterator", func(_ *Interpreter, self Value) (Value, error) {
		n := self.(Int)
		var i Int
		return NewIterator(func() (Value, bool) {
			if i >= n {
				return nil, false
			}
			v := i
			i++
			return v, true
		}), nil
	})
}
