// Package typecheck implements the structural static checker. It predicts
// the classes values will have at run time and rejects programs whose
// calls, member accesses or reassignments could not succeed.
package typecheck

import (
	"fmt"
	"sort"
	"strings"

	"github.com/chazu/kestrel/ast"
	"github.com/chazu/kestrel/vm"
)

// Kind is the category of a Type.
type Kind int

const (
	// KindInstance is the type of a value of some class.
	KindInstance Kind = iota
	// KindClass is the type of a class object itself.
	KindClass
	// KindFunction is the type of a function, method or lambda.
	KindFunction
)

func (k Kind) String() string {
	switch k {
	case KindInstance:
		return "instance"
	case KindClass:
		return "class"
	case KindFunction:
		return "function"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Type is the checker's picture of a value. A class is described by a pair
// of types: the class type holds members, attributes and superclasses, and
// its Instance type describes objects made from it.
type Type struct {
	Kind Kind
	Name string
	Decl ast.Token

	// Functions
	Params       []*ast.Parameter
	ParamTypes   []*Type // declared types; a variadic parameter's element type
	Return       *Type   // nil while the body has not been checked
	ReturnsByArg map[string]*Type
	CallsSuper   bool

	// Classes
	Members    map[string]*Type
	Attributes map[string]*Type
	Supers     []*Type
	Native     *vm.NativeClass

	// Links between a class type and its instance type.
	Class    *Type
	Instance *Type
}

// newClassType creates a class type and its instance type.
func newClassType(name string, decl ast.Token) *Type {
	class := &Type{
		Kind:       KindClass,
		Name:       name,
		Decl:       decl,
		Members:    make(map[string]*Type),
		Attributes: make(map[string]*Type),
	}
	class.Instance = &Type{
		Kind:  KindInstance,
		Name:  name,
		Decl:  decl,
		Class: class,
	}
	return class
}

func (t *Type) String() string {
	if t == nil {
		return "Object"
	}
	switch t.Kind {
	case KindClass:
		return "class " + t.Name
	case KindFunction:
		parts := make([]string, len(t.Params))
		for i, p := range t.Params {
			prefix := ""
			if p.Variadic {
				prefix = "..."
			}
			parts[i] = fmt.Sprintf("%s %s%s", t.ParamTypes[i], prefix, p.Name.Lexeme)
		}
		return fmt.Sprintf("fun(%s) -> %s", strings.Join(parts, ", "), t.Return)
	}
	return t.Name
}

// IsObject reports whether t is the dynamic root type.
func (t *Type) IsObject() bool {
	return t == nil || (t.Kind == KindInstance && t.Class.Native == vm.ObjectClass)
}

// SubclassOf reports whether class type t is other or inherits from it.
func (t *Type) SubclassOf(other *Type) bool {
	if t == other {
		return true
	}
	for _, s := range t.Supers {
		if s.SubclassOf(other) {
			return true
		}
	}
	return false
}

// Same reports whether a and b describe the same values. Function types
// compare by signature; everything else by identity.
func Same(a, b *Type) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return a.IsObject() && b.IsObject()
	}
	if a.Kind != KindFunction || b.Kind != KindFunction {
		return false
	}
	if len(a.ParamTypes) != len(b.ParamTypes) {
		return false
	}
	for i := range a.ParamTypes {
		if !Same(a.ParamTypes[i], b.ParamTypes[i]) || a.Params[i].Variadic != b.Params[i].Variadic {
			return false
		}
	}
	return Same(a.Return, b.Return)
}

// Unify returns the more general of a and b when one is an ancestor of the
// other. Object is the ancestor of every type. Unify is symmetric.
func Unify(a, b *Type) (*Type, bool) {
	switch {
	case Same(a, b):
		return a, true
	case a.IsObject():
		return a, true
	case b.IsObject():
		return b, true
	case a.Kind == KindInstance && b.Kind == KindInstance:
		if a.Class.SubclassOf(b.Class) {
			return b, true
		}
		if b.Class.SubclassOf(a.Class) {
			return a, true
		}
	}
	return nil, false
}

// Assignable reports whether a value of type arg may be passed where param
// is declared. Object on either side is unchecked.
func Assignable(param, arg *Type) bool {
	if param.IsObject() || arg.IsObject() || Same(param, arg) {
		return true
	}
	return param.Kind == KindInstance && arg.Kind == KindInstance && arg.Class.SubclassOf(param.Class)
}

// ---------------------------------------------------------------------------
// Member lookup
// ---------------------------------------------------------------------------

// methods is the lookup rule over user class types, shared with the
// interpreter.
var methods = vm.Hierarchy[*Type, *Type]{
	Own: func(c *Type, name string) (*Type, bool) {
		m, ok := c.Members[name]
		return m, ok
	},
	Supers: func(c *Type) []*Type { return c.Supers },
	Name:   func(c *Type) string { return c.Name },
}

// attributes follows only the superclasses whose initializer runs for
// instances of c.
var attributes = vm.Hierarchy[*Type, *Type]{
	Own: func(c *Type, name string) (*Type, bool) {
		a, ok := c.Attributes[name]
		return a, ok
	},
	Supers: func(c *Type) []*Type {
		if inheritsAttributes(c) {
			return c.Supers
		}
		return nil
	},
	Name: func(c *Type) string { return c.Name },
}

// inheritsAttributes reports whether ancestors' attributes exist on
// instances of c: its own init calls super, or it has no init of its own.
func inheritsAttributes(c *Type) bool {
	init, ok := c.Members["init"]
	if !ok {
		return true
	}
	return init.CallsSuper
}

// ---------------------------------------------------------------------------
// Scopes
// ---------------------------------------------------------------------------

// scope maps variable names to their types.
type scope struct {
	parent *scope
	vars   map[string]*Type
}

func newScope(parent *scope) *scope {
	return &scope{parent: parent, vars: make(map[string]*Type)}
}

func (s *scope) define(name string, t *Type) {
	s.vars[name] = t
}

// lookup finds name and the scope binding it.
func (s *scope) lookup(name string) (*Type, *scope) {
	for sc := s; sc != nil; sc = sc.parent {
		if t, ok := sc.vars[name]; ok {
			return t, sc
		}
	}
	return nil, nil
}

// ---------------------------------------------------------------------------
// Errors
// ---------------------------------------------------------------------------

// Error is a type error at a source location.
type Error struct {
	Token   ast.Token
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("line %d: %s", e.Token.Line, e.Message)
}

func errorf(tok ast.Token, format string, args ...any) *Error {
	return &Error{Token: tok, Message: fmt.Sprintf(format, args...)}
}

// MemberNames lists the names reachable on a value of type t, sorted. The
// root protocol is always included.
func (t *Type) MemberNames() []string {
	seen := make(map[string]bool)
	for name := range vm.ObjectClass.Methods {
		seen[name] = true
	}
	if t != nil && t.Kind == KindInstance {
		collectMembers(t.Class, seen, true)
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func collectMembers(c *Type, seen map[string]bool, attrs bool) {
	if c.Native != nil {
		for _, name := range c.Native.MethodNames() {
			seen[name] = true
		}
		for name := range c.Native.Properties {
			seen[name] = true
		}
	}
	for name := range c.Members {
		seen[name] = true
	}
	if attrs {
		for name := range c.Attributes {
			seen[name] = true
		}
	}
	inherit := attrs && inheritsAttributes(c)
	for _, s := range c.Supers {
		collectMembers(s, seen, inherit)
	}
}
