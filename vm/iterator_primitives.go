package vm

import "github.com/chazu/kestrel/ast"

// ---------------------------------------------------------------------------
// Iterator Primitives
// ---------------------------------------------------------------------------

// IteratorClass is shared by every native iterator.
var IteratorClass = NewNativeClass("Iterator")

// IteratorResultClass is the class of the values next() answers.
var IteratorResultClass = NewNativeClass("IteratorResult")

// Iterator walks a native sequence. advance returns false once the sequence
// is exhausted and keeps returning false afterwards.
type Iterator struct {
	advance func() (Value, bool)
	done    bool
}

// NewIterator wraps a step function as an Iterator.
func NewIterator(advance func() (Value, bool)) *Iterator {
	return &Iterator{advance: advance}
}

func (*Iterator) TypeName() string    { return "Iterator" }
func (*Iterator) Class() *NativeClass { return IteratorClass }

// Next returns the next result. The end result carries no element.
func (it *Iterator) Next() *IteratorResult {
	if !it.done {
		if v, ok := it.advance(); ok {
			return &IteratorResult{Value: v}
		}
		it.done = true
	}
	return &IteratorResult{Value: Nil, IsEnd: true}
}

// IteratorResult is one step of an iteration.
type IteratorResult struct {
	Value Value
	IsEnd bool
}

func (*IteratorResult) TypeName() string    { return "IteratorResult" }
func (*IteratorResult) Class() *NativeClass { return IteratorResultClass }

func init() {
	registerIteratorPrimitives()
}

func registerIteratorPrimitives() {
	IteratorClass.AddMethod0("next", "IteratorResult", func(_ *Interpreter, self Value) (Value, error) {
		return self.(*Iterator).Next(), nil
	})

	// An iterator iterates as itself, so it can stand in a for loop.
	IteratorClass.AddMethod0("iterate", "Iterator", func(_ *Interpreter, self Value) (Value, error) {
		return self, nil
	})

	r := IteratorResultClass
	r.AddProperty("value", "Object", func(self Value) Value {
		return self.(*IteratorResult).Value
	})
	r.AddProperty("isEnd", "Bool", func(self Value) Value {
		return Bool(self.(*IteratorResult).IsEnd)
	})
	r.Construct([]*ast.Parameter{Param("Object", "value"), Param("Bool", "isEnd")}, func(_ *Interpreter, args []Value) (Value, error) {
		end, ok := args[1].(Bool)
		if !ok {
			return nil, wrongArgument("IteratorResult", "Bool", args[1])
		}
		return &IteratorResult{Value: args[0], IsEnd: bool(end)}, nil
	})
}
