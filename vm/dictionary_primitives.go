package vm

import (
	"fmt"
	"strings"

	"github.com/chazu/kestrel/ast"
)

// ---------------------------------------------------------------------------
// Map Storage: Go maps with insertion order
// ---------------------------------------------------------------------------

// MapClass is the class of maps.
var MapClass = NewNativeClass("Map")

// PairClass is the class of key/value pairs.
var PairClass = NewNativeClass("Pair")

// Map associates keys with values and remembers insertion order. Keys
// compare as Go values: primitives by content, everything else by identity.
type Map struct {
	values map[Value]Value
	keys   []Value
}

// NewMap creates an empty map.
func NewMap() *Map {
	return &Map{values: make(map[Value]Value)}
}

func (*Map) TypeName() string    { return "Map" }
func (*Map) Class() *NativeClass { return MapClass }

// Get returns the value stored under key.
func (m *Map) Get(key Value) (Value, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Set stores value under key.
func (m *Map) Set(key, value Value) {
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// Remove deletes key and returns its value.
func (m *Map) Remove(key Value) (Value, bool) {
	v, ok := m.values[key]
	if !ok {
		return nil, false
	}
	delete(m.values, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
	return v, true
}

// Len returns the number of entries.
func (m *Map) Len() int {
	return len(m.keys)
}

// Keys returns the keys in insertion order.
func (m *Map) Keys() []Value {
	out := make([]Value, len(m.keys))
	copy(out, m.keys)
	return out
}

// Pair is an immutable two-element tuple.
type Pair struct {
	First  Value
	Second Value
}

func (*Pair) TypeName() string    { return "Pair" }
func (*Pair) Class() *NativeClass { return PairClass }

func init() {
	registerMapPrimitives()
	registerPairPrimitives()
}

func keyNotFound(key Value) error {
	return fmt.Errorf("%w: %s", ErrKeyNotFound, describe(key))
}

func registerMapPrimitives() {
	c := MapClass
	c.Elements = "Pair"

	c.Construct(nil, func(_ *Interpreter, _ []Value) (Value, error) {
		return NewMap(), nil
	})

	c.AddMethod2("set", Param("Object", "key"), Param("Object", "value"), "Nil", func(_ *Interpreter, self Value, key, value Value) (Value, error) {
		self.(*Map).Set(key, value)
		return Nil, nil
	})

	c.AddMethod1("get", Param("Object", "key"), "Object", func(_ *Interpreter, self Value, key Value) (Value, error) {
		v, ok := self.(*Map).Get(key)
		if !ok {
			return nil, keyNotFound(key)
		}
		return v, nil
	})

	c.AddMethod1("has", Param("Object", "key"), "Bool", func(_ *Interpreter, self Value, key Value) (Value, error) {
		_, ok := self.(*Map).Get(key)
		return Bool(ok), nil
	})

	c.AddMethod1("remove", Param("Object", "key"), "Object", func(_ *Interpreter, self Value, key Value) (Value, error) {
		v, ok := self.(*Map).Remove(key)
		if !ok {
			return nil, keyNotFound(key)
		}
		return v, nil
	})

	c.AddMethod0("length", "Int", func(_ *Interpreter, self Value) (Value, error) {
		return Int(self.(*Map).Len()), nil
	})

	c.AddMethod0("keys", "List", func(_ *Interpreter, self Value) (Value, error) {
		return NewList(self.(*Map).Keys()), nil
	})

	// Iteration yields a Pair per entry over a snapshot of the keys.
	c.AddMethod0("iterate", "Iterator", func(_ *Interpreter, self Value) (Value, error) {
		m := self.(*Map)
		keys := m.Keys()
		i := 0
		return NewIterator(func() (Value, bool) {
			for i < len(keys) {
				k := keys[i]
				i++
				if v, ok := m.Get(k); ok {
					return &Pair{First: k, Second: v}, true
				}
			}
			return nil, false
		}), nil
	})

	c.AddMethod0("toString", "String", func(in *Interpreter, self Value) (Value, error) {
		m := self.(*Map)
		parts := make([]string, 0, m.Len())
		for _, k := range m.keys {
			ks, err := in.Stringify(k)
			if err != nil {
				return nil, err
			}
			vs, err := in.Stringify(m.values[k])
			if err != nil {
				return nil, err
			}
			parts = append(parts, ks+": "+vs)
		}
		return String("{" + strings.Join(parts, ", ") + "}"), nil
	})
}

func registerPairPrimitives() {
	c := PairClass

	c.Construct([]*ast.Parameter{Param("Object", "first"), Param("Object", "second")}, func(_ *Interpreter, args []Value) (Value, error) {
		return &Pair{First: args[0], Second: args[1]}, nil
	})

	c.AddProperty("first", "Object", func(self Value) Value { return self.(*Pair).First })
	c.AddProperty("second", "Object", func(self Value) Value { return self.(*Pair).Second })

	c.AddMethod0("toString", "String", func(in *Interpreter, self Value) (Value, error) {
		p := self.(*Pair)
		s, err := renderItems(in, []Value{p.First, p.Second})
		if err != nil {
			return nil, err
		}
		return String("(" + s + ")"), nil
	})
}
