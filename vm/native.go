package vm

import (
	"fmt"
	"sort"

	"github.com/chazu/kestrel/ast"
)

// NativeFunc implements a native method. Arguments arrive matched to the
// method's parameters; a variadic parameter receives a *Varargs.
type NativeFunc func(in *Interpreter, self Value, args []Value) (Value, error)

// Method0Func is a native method taking no arguments.
type Method0Func func(in *Interpreter, self Value) (Value, error)

// Method1Func is a native method taking one argument.
type Method1Func func(in *Interpreter, self Value, arg Value) (Value, error)

// Method2Func is a native method taking two arguments.
type Method2Func func(in *Interpreter, self Value, arg1, arg2 Value) (Value, error)

// ---------------------------------------------------------------------------
// NativeMethod
// ---------------------------------------------------------------------------

// NativeMethod is a method implemented in Go. Params and Returns are
// metadata for the type checker; ReturnsByArg overrides Returns when the
// first argument's class is listed (Int.add(Float) answers a Float).
type NativeMethod struct {
	Name         string
	Params       []*ast.Parameter
	Returns      ast.Token
	ReturnsByArg map[string]ast.Token
	fn           NativeFunc
}

// Invoke runs the method on self.
func (m *NativeMethod) Invoke(in *Interpreter, self Value, args []Value) (Value, error) {
	return m.fn(in, self, args)
}

// ReturnsFor records that the method answers returns when its first
// argument is of class argClass.
func (m *NativeMethod) ReturnsFor(argClass, returns string) *NativeMethod {
	if m.ReturnsByArg == nil {
		m.ReturnsByArg = make(map[string]ast.Token)
	}
	m.ReturnsByArg[argClass] = ast.Synthetic(returns)
	return m
}

// NativeProperty is a read-only attribute of a native value.
type NativeProperty struct {
	Name    string
	Returns ast.Token
	get     func(self Value) Value
}

// ---------------------------------------------------------------------------
// NativeClass
// ---------------------------------------------------------------------------

// NativeClass describes a host-implemented class: its method and property
// tables, its superclasses and, for iterable classes, the class of the
// elements iterate() produces.
type NativeClass struct {
	Name       string
	Supers     []*NativeClass
	Methods    map[string]*NativeMethod
	Properties map[string]*NativeProperty
	Elements   string

	params    []*ast.Parameter
	construct NativeFunc
}

// NewNativeClass creates an empty native class.
func NewNativeClass(name string, supers ...*NativeClass) *NativeClass {
	return &NativeClass{
		Name:       name,
		Supers:     supers,
		Methods:    make(map[string]*NativeMethod),
		Properties: make(map[string]*NativeProperty),
		Elements:   "Object",
	}
}

func (c *NativeClass) TypeName() string { return "Class" }
func (c *NativeClass) String() string   { return fmt.Sprintf("<class %s>", c.Name) }

// AddMethod0 registers a zero-argument method.
func (c *NativeClass) AddMethod0(name, returns string, fn Method0Func) *NativeMethod {
	return c.AddMethodN(name, nil, returns, func(in *Interpreter, self Value, _ []Value) (Value, error) {
		return fn(in, self)
	})
}

// AddMethod1 registers a one-argument method.
func (c *NativeClass) AddMethod1(name string, p *ast.Parameter, returns string, fn Method1Func) *NativeMethod {
	return c.AddMethodN(name, []*ast.Parameter{p}, returns, func(in *Interpreter, self Value, args []Value) (Value, error) {
		return fn(in, self, args[0])
	})
}

// AddMethod2 registers a two-argument method.
func (c *NativeClass) AddMethod2(name string, p1, p2 *ast.Parameter, returns string, fn Method2Func) *NativeMethod {
	return c.AddMethodN(name, []*ast.Parameter{p1, p2}, returns, func(in *Interpreter, self Value, args []Value) (Value, error) {
		return fn(in, self, args[0], args[1])
	})
}

// AddMethodN registers a method with an arbitrary parameter list.
func (c *NativeClass) AddMethodN(name string, params []*ast.Parameter, returns string, fn NativeFunc) *NativeMethod {
	m := &NativeMethod{
		Name:    name,
		Params:  params,
		Returns: ast.Synthetic(returns),
		fn:      fn,
	}
	c.Methods[name] = m
	return m
}

// AddProperty registers a read-only property.
func (c *NativeClass) AddProperty(name, returns string, get func(self Value) Value) {
	c.Properties[name] = &NativeProperty{
		Name:    name,
		Returns: ast.Synthetic(returns),
		get:     get,
	}
}

// Construct makes the class callable. Classes without a constructor raise
// ErrNotInstantiable.
func (c *NativeClass) Construct(params []*ast.Parameter, fn func(in *Interpreter, args []Value) (Value, error)) {
	c.params = params
	c.construct = func(in *Interpreter, _ Value, args []Value) (Value, error) {
		return fn(in, args)
	}
}

// Instantiable reports whether the class has a constructor.
func (c *NativeClass) Instantiable() bool {
	return c.construct != nil
}

func (c *NativeClass) Parameters() []*ast.Parameter { return c.params }
func (c *NativeClass) LowerArity() int              { return lowerArity(c.params) }
func (c *NativeClass) UpperArity() int              { return upperArity(c.params) }

// Call runs the constructor.
func (c *NativeClass) Call(in *Interpreter, _ ast.Token, args []Value) (Value, error) {
	if c.construct == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotInstantiable, c.Name)
	}
	return c.construct(in, c, args)
}

// MethodNames returns the names of the class's own methods, sorted.
func (c *NativeClass) MethodNames() []string {
	names := make([]string, 0, len(c.Methods))
	for name := range c.Methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsSubclassOf returns true if c is other or inherits from it.
func (c *NativeClass) IsSubclassOf(other *NativeClass) bool {
	if c == other {
		return true
	}
	for _, s := range c.Supers {
		if s.IsSubclassOf(other) {
			return true
		}
	}
	return false
}

var nativeHierarchy = Hierarchy[*NativeClass, *NativeMethod]{
	Own: func(c *NativeClass, name string) (*NativeMethod, bool) {
		m, ok := c.Methods[name]
		return m, ok
	},
	Supers: func(c *NativeClass) []*NativeClass { return c.Supers },
	Name:   func(c *NativeClass) string { return c.Name },
}

// FindMethod looks name up through the class, its ancestors and finally the
// root Object class.
func (c *NativeClass) FindMethod(name string) (*NativeMethod, error) {
	m, ok, err := nativeHierarchy.Lookup(c, name)
	if err != nil {
		return nil, err
	}
	if ok {
		return m, nil
	}
	if c != ObjectClass {
		if m, ok := ObjectClass.Methods[name]; ok {
			return m, nil
		}
	}
	return nil, nil
}

// FindProperty looks a property up through the class and its ancestors.
func (c *NativeClass) FindProperty(name string) *NativeProperty {
	if p, ok := c.Properties[name]; ok {
		return p
	}
	for _, s := range c.Supers {
		if p := s.FindProperty(name); p != nil {
			return p
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// BoundMethod
// ---------------------------------------------------------------------------

// BoundMethod is a native method paired with its receiver. Reading a native
// method as a property produces one; binding is never cached.
type BoundMethod struct {
	Receiver Value
	Method   *NativeMethod
}

func (b *BoundMethod) TypeName() string { return "Function" }
func (b *BoundMethod) String() string {
	return fmt.Sprintf("<native method %s.%s>", b.Receiver.TypeName(), b.Method.Name)
}

func (b *BoundMethod) Parameters() []*ast.Parameter { return b.Method.Params }
func (b *BoundMethod) LowerArity() int              { return lowerArity(b.Method.Params) }
func (b *BoundMethod) UpperArity() int              { return upperArity(b.Method.Params) }

func (b *BoundMethod) Call(in *Interpreter, _ ast.Token, args []Value) (Value, error) {
	return b.Method.Invoke(in, b.Receiver, args)
}

// ---------------------------------------------------------------------------
// NativeFunction
// ---------------------------------------------------------------------------

// NativeFunction is a free function implemented in Go.
type NativeFunction struct {
	Name    string
	Params  []*ast.Parameter
	Returns ast.Token
	fn      func(in *Interpreter, args []Value) (Value, error)
}

// NewNativeFunction creates a free function.
func NewNativeFunction(name string, params []*ast.Parameter, returns string, fn func(in *Interpreter, args []Value) (Value, error)) *NativeFunction {
	return &NativeFunction{
		Name:    name,
		Params:  params,
		Returns: ast.Synthetic(returns),
		fn:      fn,
	}
}

func (f *NativeFunction) TypeName() string { return "Function" }
func (f *NativeFunction) String() string   { return fmt.Sprintf("<native fn %s>", f.Name) }

func (f *NativeFunction) Parameters() []*ast.Parameter { return f.Params }
func (f *NativeFunction) LowerArity() int              { return lowerArity(f.Params) }
func (f *NativeFunction) UpperArity() int              { return upperArity(f.Params) }

func (f *NativeFunction) Call(in *Interpreter, _ ast.Token, args []Value) (Value, error) {
	return f.fn(in, args)
}
