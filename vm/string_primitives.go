package vm

import (
	"fmt"
	"strings"
)

// ---------------------------------------------------------------------------
// String Primitives
// ---------------------------------------------------------------------------

// StringClass is the class of strings.
var StringClass = NewNativeClass("String")

// String is an immutable string. Indexing and iteration work on characters
// (runes), not bytes.
type String string

func (String) TypeName() string    { return "String" }
func (String) Class() *NativeClass { return StringClass }
func (s String) String() string    { return string(s) }

func init() {
	registerStringPrimitives()
}

// stringArg checks that a native method argument is a String.
func stringArg(method string, v Value) (String, error) {
	s, ok := v.(String)
	if !ok {
		return "", wrongArgument(method, "String", v)
	}
	return s, nil
}

// index converts an Int argument to a bounds-checked slice index.
func index(method string, v Value, length int) (int, error) {
	i, ok := v.(Int)
	if !ok {
		return 0, wrongArgument(method, "Int", v)
	}
	if i < 0 || int(i) >= length {
		return 0, fmt.Errorf("%w: %d not in 0..%d", ErrIndexOutOfRange, i, length-1)
	}
	return int(i), nil
}

func registerStringPrimitives() {
	c := StringClass
	c.Elements = "String"

	c.AddMethod1("add", Param("String", "other"), "String", func(_ *Interpreter, self Value, arg Value) (Value, error) {
		other, err := stringArg("String.add", arg)
		if err != nil {
			return nil, err
		}
		return self.(String) + other, nil
	})

	c.AddMethod0("length", "Int", func(_ *Interpreter, self Value) (Value, error) {
		return Int(len([]rune(string(self.(String))))), nil
	})

	c.AddMethod1("get", Param("Int", "index"), "String", func(_ *Interpreter, self Value, arg Value) (Value, error) {
		runes := []rune(string(self.(String)))
		i, err := index("String.get", arg, len(runes))
		if err != nil {
			return nil, err
		}
		return String(runes[i]), nil
	})

	c.AddMethod1("contains", Param("String", "part"), "Bool", func(_ *Interpreter, self Value, arg Value) (Value, error) {
		part, err := stringArg("String.contains", arg)
		if err != nil {
			return nil, err
		}
		return Bool(strings.Contains(string(self.(String)), string(part))), nil
	})

	c.AddMethod1("split", Param("String", "separator"), "List", func(_ *Interpreter, self Value, arg Value) (Value, error) {
		sep, err := stringArg("String.split", arg)
		if err != nil {
			return nil, err
		}
		parts := strings.Split(string(self.(String)), string(sep))
		items := make([]Value, len(parts))
		for i, p := range parts {
			items[i] = String(p)
		}
		return NewList(items), nil
	})

	c.AddMethod0("upper", "String", func(_ *Interpreter, self Value) (Value, error) {
		return String(strings.ToUpper(string(self.(String)))), nil
	})

	c.AddMethod0("lower", "String", func(_ *Interpreter, self Value) (Value, error) {
		return String(strings.ToLower(string(self.(String)))), nil
	})

	c.AddMethod1("equals", Param("Object", "other"), "Bool", func(_ *Interpreter, self Value, arg Value) (Value, error) {
		other, ok := arg.(String)
		return Bool(ok && other == self.(String)), nil
	})

	c.AddMethod1("greaterThan", Param("String", "other"), "Bool", func(_ *Interpreter, self Value, arg Value) (Value, error) {
		other, err := stringArg("String.greaterThan", arg)
		if err != nil {
			return nil, err
		}
		return Bool(self.(String) > other), nil
	})

	c.AddMethod0("isTrue", "Bool", func(_ *Interpreter, self Value) (Value, error) {
		return Bool(self.(String) != ""), nil
	})

	c.AddMethod0("toString", "String", func(_ *Interpreter, self Value) (Value, error) {
		return self, nil
	})

	c.AddMethod0("iterate", "Iterator", func(_ *Interpreter, self Value) (Value, error) {
		runes := []rune(string(self.(String)))
		i := 0
		return NewIterator(func() (Value, bool) {
			if i >= len(runes) {
				return nil, false
			}
			i++
			return String(runes[i-1]), true
		}), nil
	})
}
