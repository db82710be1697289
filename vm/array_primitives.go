package vm

import (
	"strings"

	"github.com/chazu/kestrel/ast"
)

// ---------------------------------------------------------------------------
// List and Varargs Primitives
// ---------------------------------------------------------------------------

// ListClass is the class of growable lists.
var ListClass = NewNativeClass("List")

// VarargsClass is the class of collected variadic arguments.
var VarargsClass = NewNativeClass("Varargs")

// List is a mutable sequence.
type List struct {
	Items []Value
}

// NewList creates a list owning items.
func NewList(items []Value) *List {
	return &List{Items: items}
}

func (*List) TypeName() string    { return "List" }
func (*List) Class() *NativeClass { return ListClass }

// Varargs holds the trailing positional arguments of a variadic call.
type Varargs struct {
	Items []Value
}

// NewVarargs creates a Varargs owning items.
func NewVarargs(items []Value) *Varargs {
	return &Varargs{Items: items}
}

func (*Varargs) TypeName() string    { return "Varargs" }
func (*Varargs) Class() *NativeClass { return VarargsClass }

// iterateItems walks a slice by index, so appends made during iteration are
// visited.
func iterateItems(items func() []Value) *Iterator {
	i := 0
	return NewIterator(func() (Value, bool) {
		current := items()
		if i >= len(current) {
			return nil, false
		}
		i++
		return current[i-1], true
	})
}

// renderItems joins the toString of each item.
func renderItems(in *Interpreter, items []Value) (string, error) {
	parts := make([]string, len(items))
	for i, item := range items {
		s, err := in.Stringify(item)
		if err != nil {
			return "", err
		}
		parts[i] = s
	}
	return strings.Join(parts, ", "), nil
}

func init() {
	registerListPrimitives()
	registerVarargsPrimitives()
}

func registerListPrimitives() {
	c := ListClass

	c.Construct([]*ast.Parameter{VariadicParam("Object", "items")}, func(_ *Interpreter, args []Value) (Value, error) {
		rest := args[0].(*Varargs).Items
		items := make([]Value, len(rest))
		copy(items, rest)
		return NewList(items), nil
	})

	c.AddMethod1("add", Param("Object", "item"), "Nil", func(_ *Interpreter, self Value, item Value) (Value, error) {
		l := self.(*List)
		l.Items = append(l.Items, item)
		return Nil, nil
	})

	c.AddMethod1("get", Param("Int", "index"), "Object", func(_ *Interpreter, self Value, arg Value) (Value, error) {
		l := self.(*List)
		i, err := index("List.get", arg, len(l.Items))
		if err != nil {
			return nil, err
		}
		return l.Items[i], nil
	})

	c.AddMethod2("set", Param("Int", "index"), Param("Object", "item"), "Nil", func(_ *Interpreter, self Value, arg, item Value) (Value, error) {
		l := self.(*List)
		i, err := index("List.set", arg, len(l.Items))
		if err != nil {
			return nil, err
		}
		l.Items[i] = item
		return Nil, nil
	})

	c.AddMethod0("length", "Int", func(_ *Interpreter, self Value) (Value, error) {
		return Int(len(self.(*List).Items)), nil
	})

	c.AddMethod0("pop", "Object", func(_ *Interpreter, self Value) (Value, error) {
		l := self.(*List)
		if len(l.Items) == 0 {
			return nil, ErrEmptyList
		}
		last := l.Items[len(l.Items)-1]
		l.Items = l.Items[:len(l.Items)-1]
		return last, nil
	})

	c.AddMethod1("contains", Param("Object", "item"), "Bool", func(in *Interpreter, self Value, item Value) (Value, error) {
		for _, v := range self.(*List).Items {
			eq, err := in.equal(v, item)
			if err != nil {
				return nil, err
			}
			if eq {
				return True, nil
			}
		}
		return False, nil
	})

	c.AddMethod1("equals", Param("Object", "other"), "Bool", func(in *Interpreter, self Value, arg Value) (Value, error) {
		other, ok := arg.(*List)
		if !ok {
			return False, nil
		}
		l := self.(*List)
		if len(l.Items) != len(other.Items) {
			return False, nil
		}
		for i := range l.Items {
			eq, err := in.equal(l.Items[i], other.Items[i])
			if err != nil || !eq {
				return False, err
			}
		}
		return True, nil
	})

	c.AddMethod0("iterate", "Iterator", func(_ *Interpreter, self Value) (Value, error) {
		l := self.(*List)
		return iterateItems(func() []Value { return l.Items }), nil
	})

	c.AddMethod0("toString", "String", func(in *Interpreter, self Value) (Value, error) {
		s, err := renderItems(in, self.(*List).Items)
		if err != nil {
			return nil, err
		}
		return String("[" + s + "]"), nil
	})
}

func registerVarargsPrimitives() {
	c := VarargsClass

	c.AddMethod0("length", "Int", func(_ *Interpreter, self Value) (Value, error) {
		return Int(len(self.(*Varargs).Items)), nil
	})

	c.AddMethod1("get", Param("Int", "index"), "Object", func(_ *Interpreter, self Value, arg Value) (Value, error) {
		v := self.(*Varargs)
		i, err := index("Varargs.get", arg, len(v.Items))
		if err != nil {
			return nil, err
		}
		return v.Items[i], nil
	})

	c.AddMethod0("iterate", "Iterator", func(_ *Interpreter, self Value) (Value, error) {
		v := self.(*Varargs)
		return iterateItems(func() []Value { return v.Items }), nil
	})

	c.AddMethod0("toList", "List", func(_ *Interpreter, self Value) (Value, error) {
		v := self.(*Varargs)
		items := make([]Value, len(v.Items))
		copy(items, v.Items)
		return NewList(items), nil
	})

	c.AddMethod0("toString", "String", func(in *Interpreter, self Value) (Value, error) {
		s, err := renderItems(in, self.(*Varargs).Items)
		if err != nil {
			return nil, err
		}
		return String("(" + s + ")"), nil
	})
}
