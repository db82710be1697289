package vm

import (
	"fmt"

	"github.com/chazu/kestrel/ast"
)

// ---------------------------------------------------------------------------
// Class: user-defined classes
// ---------------------------------------------------------------------------

// Class is a user-defined class. Superclasses are ordered as declared.
type Class struct {
	Name         string
	Superclasses []*Class
	Methods      map[string]*Function
}

// NewClass creates a class with no methods.
func NewClass(name string, supers ...*Class) *Class {
	return &Class{
		Name:         name,
		Superclasses: supers,
		Methods:      make(map[string]*Function),
	}
}

// classHierarchy is the lookup rule over user classes.
var classHierarchy = Hierarchy[*Class, *Function]{
	Own: func(c *Class, name string) (*Function, bool) {
		m, ok := c.Methods[name]
		return m, ok
	},
	Supers: func(c *Class) []*Class { return c.Superclasses },
	Name:   func(c *Class) string { return c.Name },
}

// FindMethod looks a method up through the class and its ancestors. It
// returns nil without error when no class declares the name.
func (c *Class) FindMethod(name string) (*Function, error) {
	m, ok, err := classHierarchy.Lookup(c, name)
	if err != nil || !ok {
		return nil, err
	}
	return m, nil
}

// IsSubclassOf returns true if c is other or inherits from it.
func (c *Class) IsSubclassOf(other *Class) bool {
	if c == other {
		return true
	}
	for _, s := range c.Superclasses {
		if s.IsSubclassOf(other) {
			return true
		}
	}
	return false
}

func (c *Class) TypeName() string { return "Class" }
func (c *Class) String() string   { return fmt.Sprintf("<class %s>", c.Name) }

// initializer returns the init method, own or inherited. An ambiguous init
// is treated as absent here; Call reports the ambiguity.
func (c *Class) initializer() *Function {
	m, _ := c.FindMethod("init")
	return m
}

// Parameters are the parameters of init, or none.
func (c *Class) Parameters() []*ast.Parameter {
	if init := c.initializer(); init != nil {
		return init.Parameters()
	}
	return nil
}

func (c *Class) LowerArity() int { return lowerArity(c.Parameters()) }
func (c *Class) UpperArity() int { return upperArity(c.Parameters()) }

// Call instantiates the class: a new instance is created, init is bound and
// invoked when present, and the instance is returned whatever init returns.
func (c *Class) Call(in *Interpreter, site ast.Token, args []Value) (Value, error) {
	instance := NewInstance(c)
	init, err := c.FindMethod("init")
	if err != nil {
		return nil, err
	}
	if init != nil {
		if _, err := init.Bind(instance).Call(in, site, args); err != nil {
			return nil, err
		}
	}
	return instance, nil
}

// ---------------------------------------------------------------------------
// Instance
// ---------------------------------------------------------------------------

// Instance is an object of a user-defined class. Fields appear on first
// assignment.
type Instance struct {
	Class  *Class
	Fields map[string]Value
}

// NewInstance creates an instance with no fields.
func NewInstance(c *Class) *Instance {
	return &Instance{Class: c, Fields: make(map[string]Value)}
}

func (i *Instance) TypeName() string { return i.Class.Name }
func (i *Instance) String() string   { return fmt.Sprintf("<%s instance>", i.Class.Name) }

// Set writes a field.
func (i *Instance) Set(name string, value Value) {
	i.Fields[name] = value
}

// ---------------------------------------------------------------------------
// Superclass list
// ---------------------------------------------------------------------------

// superclasses is the value bound to "super" in a class body scope.
type superclasses struct {
	classes []*Class
}

func (s *superclasses) TypeName() string { return "Superclasses" }

// find resolves a super.method() lookup, skipping the subclass.
func (s *superclasses) find(name string) (*Function, error) {
	m, ok, err := classHierarchy.LookupSupers(s.classes, name)
	if err != nil || !ok {
		return nil, err
	}
	return m, nil
}
