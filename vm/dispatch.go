package vm

import (
	"errors"
	"fmt"

	"github.com/chazu/kestrel/ast"
)

// ---------------------------------------------------------------------------
// Message dispatch
// ---------------------------------------------------------------------------

// namedArg is an evaluated name: value call argument.
type namedArg struct {
	name  string
	value Value
}

// ClassOf returns the native class that supplies v's shared methods. Values
// without one (user instances, classes, functions) answer the root class.
func ClassOf(v Value) *NativeClass {
	if nv, ok := v.(NativeValue); ok {
		return nv.Class()
	}
	return ObjectClass
}

// wrapError turns an error escaping a call into a RuntimeError at site.
// RuntimeErrors raised deeper keep their own location.
func wrapError(site ast.Token, err error) error {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re
	}
	return &RuntimeError{Token: site, Message: err.Error()}
}

func runtimeErrorf(site ast.Token, format string, args ...any) *RuntimeError {
	return &RuntimeError{Token: site, Message: fmt.Sprintf(format, args...)}
}

// member reads name from obj: instance fields, then class methods (bound
// fresh on every read), then native properties, then the root protocol.
func (in *Interpreter) member(site ast.Token, obj Value, name string) (Value, error) {
	switch o := obj.(type) {
	case *Instance:
		if v, ok := o.Fields[name]; ok {
			return v, nil
		}
		m, err := o.Class.FindMethod(name)
		if err != nil {
			return nil, wrapError(site, err)
		}
		if m != nil {
			return m.Bind(o), nil
		}
	case NativeValue:
		c := o.Class()
		m, err := c.FindMethod(name)
		if err != nil {
			return nil, wrapError(site, err)
		}
		if m != nil {
			return &BoundMethod{Receiver: o, Method: m}, nil
		}
		if p := c.FindProperty(name); p != nil {
			return p.get(o), nil
		}
	}
	if m, ok := ObjectClass.Methods[name]; ok {
		return &BoundMethod{Receiver: obj, Method: m}, nil
	}
	return nil, runtimeErrorf(site, "Undefined property '%s'.", name)
}

// invoke checks arity, matches arguments to parameters and calls callee.
func (in *Interpreter) invoke(site ast.Token, callee Value, positional []Value, named []namedArg) (Value, error) {
	fn, ok := callee.(Callable)
	if !ok {
		return nil, runtimeErrorf(site, "Can only call functions and classes.")
	}

	count := len(positional) + len(named)
	lower, upper := fn.LowerArity(), fn.UpperArity()
	if count < lower || count > upper {
		return nil, runtimeErrorf(site, "Expected %s arguments but got %d.", ArityString(lower, upper), count)
	}

	args, err := bindArguments(fn.Parameters(), positional, named)
	if err != nil {
		return nil, runtimeErrorf(site, "%s", err.Error())
	}

	prev := in.site
	in.site = site
	result, err := fn.Call(in, site, args)
	in.site = prev
	if err != nil {
		return nil, wrapError(site, err)
	}
	return result, nil
}

// bindArguments lays arguments out in parameter order. Positional arguments
// fill parameters left to right, a variadic tail collects the rest, named
// arguments fill by name, and a nil slot marks a parameter whose default
// applies.
func bindArguments(params []*ast.Parameter, positional []Value, named []namedArg) ([]Value, error) {
	slots := make([]Value, len(params))
	fixed := len(params)
	variadic := fixed > 0 && params[fixed-1].Variadic
	if variadic {
		fixed--
	}

	var rest []Value
	for i, v := range positional {
		if i < fixed {
			slots[i] = v
			continue
		}
		rest = append(rest, v)
	}
	if variadic {
		slots[fixed] = NewVarargs(rest)
	}

	for _, arg := range named {
		i := paramIndex(params, arg.name)
		switch {
		case i < 0:
			return nil, fmt.Errorf("Unknown parameter '%s'.", arg.name)
		case params[i].Variadic:
			return nil, fmt.Errorf("Can't pass variadic parameter '%s' by name.", arg.name)
		case slots[i] != nil:
			return nil, fmt.Errorf("Parameter '%s' given twice.", arg.name)
		}
		slots[i] = arg.value
	}

	for i := 0; i < fixed; i++ {
		if slots[i] == nil && params[i].Default == nil {
			return nil, fmt.Errorf("Missing argument for parameter '%s'.", params[i].Name.Lexeme)
		}
	}
	return slots, nil
}

func paramIndex(params []*ast.Parameter, name string) int {
	for i, p := range params {
		if p.Name.Lexeme == name {
			return i
		}
	}
	return -1
}

// send dispatches name to receiver with positional arguments.
func (in *Interpreter) send(site ast.Token, receiver Value, name string, args ...Value) (Value, error) {
	method, err := in.member(site, receiver, name)
	if err != nil {
		return nil, err
	}
	return in.invoke(site, method, args, nil)
}

// truthy asks v whether it is true. Bool answers directly; everything else
// goes through isTrue, which must answer a Bool.
func (in *Interpreter) truthy(v Value) (bool, error) {
	if b, ok := v.(Bool); ok {
		return bool(b), nil
	}
	r, err := in.send(in.site, v, "isTrue")
	if err != nil {
		return false, err
	}
	b, ok := r.(Bool)
	if !ok {
		return false, wrapError(in.site, fmt.Errorf("%w: isTrue answered %s", ErrBadProtocolReply, r.TypeName()))
	}
	return bool(b), nil
}

// equal dispatches equals and interprets the answer.
func (in *Interpreter) equal(a, b Value) (bool, error) {
	r, err := in.send(in.site, a, "equals", b)
	if err != nil {
		return false, err
	}
	return in.truthy(r)
}

// Stringify renders v through its toString method.
func (in *Interpreter) Stringify(v Value) (string, error) {
	if s, ok := v.(String); ok {
		return string(s), nil
	}
	r, err := in.send(in.site, v, "toString")
	if err != nil {
		return "", err
	}
	s, ok := r.(String)
	if !ok {
		return "", wrapError(in.site, fmt.Errorf("%w: toString answered %s", ErrBadProtocolReply, r.TypeName()))
	}
	return string(s), nil
}

// CallMethod sends name to receiver from host code.
func (in *Interpreter) CallMethod(receiver Value, name string, args ...Value) (Value, error) {
	return in.send(in.site, receiver, name, args...)
}

// Call calls a callable value from host code.
func (in *Interpreter) Call(callee Value, args ...Value) (Value, error) {
	return in.invoke(in.site, callee, args, nil)
}
