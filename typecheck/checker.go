package typecheck

import (
	"errors"

	"github.com/chazu/kestrel/ast"
	"github.com/chazu/kestrel/vm"
)

// funcContext is the function whose body is being checked.
type funcContext struct {
	fn          *Type
	returns     []*Type
	returnToks  []ast.Token
	initializer bool

	// home is the method a bare super refers to; method is that method's
	// type, flagged when the body touches super. Lambdas inherit both.
	home   string
	method *Type
	class  *Type
}

// Checker assigns a Type to every node and reports the first type error in
// each top-level statement list. One Checker can check many lists in turn;
// declarations from earlier lists stay visible.
type Checker struct {
	report  ast.ReportFunc
	types   map[ast.Node]*Type
	globals *scope
	scope   *scope
	fn      *funcContext

	natives       map[*vm.NativeClass]*Type
	nativeMethods map[*vm.NativeMethod]*Type
	object        *Type
	hadError      bool
}

// New creates a checker seeded with a type for every native class and free
// function bound in env, normally the interpreter's globals.
func New(env *vm.Environment, report ast.ReportFunc) *Checker {
	if report == nil {
		report = func(ast.Token, string) {}
	}
	c := &Checker{
		report:        report,
		types:         make(map[ast.Node]*Type),
		globals:       newScope(nil),
		natives:       make(map[*vm.NativeClass]*Type),
		nativeMethods: make(map[*vm.NativeMethod]*Type),
	}
	c.scope = c.globals
	c.object = c.nativeClass(vm.ObjectClass).Instance

	for _, name := range env.Names() {
		v, _ := env.Get(name)
		switch val := v.(type) {
		case *vm.NativeClass:
			c.globals.define(name, c.nativeClass(val))
		case *vm.NativeFunction:
			c.globals.define(name, c.signature(val.Name, ast.Synthetic(val.Name), val.Params, val.Returns))
		default:
			c.globals.define(name, c.object)
		}
	}
	return c
}

// Types returns the type of every node checked so far.
func (c *Checker) Types() map[ast.Node]*Type {
	return c.types
}

// TypeOf returns the type recorded for n, or nil.
func (c *Checker) TypeOf(n ast.Node) *Type {
	return c.types[n]
}

// Lookup returns the type of a global name.
func (c *Checker) Lookup(name string) (*Type, bool) {
	t, sc := c.globals.lookup(name)
	return t, sc != nil
}

// Globals returns the global names and their types.
func (c *Checker) Globals() map[string]*Type {
	out := make(map[string]*Type, len(c.globals.vars))
	for k, v := range c.globals.vars {
		out[k] = v
	}
	return out
}

// HadError reports whether the last Check call found an error.
func (c *Checker) HadError() bool {
	return c.hadError
}

// Check checks a top-level statement list. The first error is reported and
// ends checking of the list. A rejected list never runs, so the global
// scope is rolled back to what it was before the list.
func (c *Checker) Check(stmts []ast.Stmt) bool {
	c.hadError = false
	c.scope = c.globals
	c.fn = nil
	saved := c.snapshot()
	for _, stmt := range stmts {
		if err := c.stmt(stmt); err != nil {
			var te *Error
			if !errors.As(err, &te) {
				te = errorf(stmt.Pos(), "%s", err.Error())
			}
			c.hadError = true
			c.report(te.Token, te.Message)
			saved.restore(c)
			c.scope = c.globals
			c.fn = nil
			return false
		}
	}
	return true
}

// globalState is a copy of the global bindings and of the attributes of
// every global class.
type globalState struct {
	vars       map[string]*Type
	attributes map[*Type]map[string]*Type
}

func (c *Checker) snapshot() globalState {
	st := globalState{
		vars:       make(map[string]*Type, len(c.globals.vars)),
		attributes: make(map[*Type]map[string]*Type),
	}
	for name, t := range c.globals.vars {
		st.vars[name] = t
		if t != nil && t.Kind == KindClass && t.Native == nil {
			attrs := make(map[string]*Type, len(t.Attributes))
			for k, v := range t.Attributes {
				attrs[k] = v
			}
			st.attributes[t] = attrs
		}
	}
	return st
}

func (st globalState) restore(c *Checker) {
	c.globals.vars = st.vars
	for class, attrs := range st.attributes {
		class.Attributes = attrs
	}
}

// ---------------------------------------------------------------------------
// Native metadata
// ---------------------------------------------------------------------------

// nativeClass returns the class type for a native class, creating it and
// its superclasses on first use.
func (c *Checker) nativeClass(nc *vm.NativeClass) *Type {
	if t, ok := c.natives[nc]; ok {
		return t
	}
	t := newClassType(nc.Name, ast.Synthetic(nc.Name))
	t.Native = nc
	c.natives[nc] = t
	for _, s := range nc.Supers {
		t.Supers = append(t.Supers, c.nativeClass(s))
	}
	return t
}

// builtin returns the instance type of a native class.
func (c *Checker) builtin(nc *vm.NativeClass) *Type {
	return c.nativeClass(nc).Instance
}

// nativeMethod converts native method metadata to a function type.
func (c *Checker) nativeMethod(m *vm.NativeMethod) *Type {
	if t, ok := c.nativeMethods[m]; ok {
		return t
	}
	t := c.signature(m.Name, ast.Synthetic(m.Name), m.Params, m.Returns)
	for arg, ret := range m.ReturnsByArg {
		if t.ReturnsByArg == nil {
			t.ReturnsByArg = make(map[string]*Type)
		}
		t.ReturnsByArg[arg] = c.namedType(ret)
	}
	c.nativeMethods[m] = t
	return t
}

// signature builds a function type from native parameter metadata.
func (c *Checker) signature(name string, decl ast.Token, params []*ast.Parameter, returns ast.Token) *Type {
	t := &Type{Kind: KindFunction, Name: name, Decl: decl, Params: params}
	for _, p := range params {
		t.ParamTypes = append(t.ParamTypes, c.namedType(p.Type))
	}
	t.Return = c.namedType(returns)
	return t
}

// namedType resolves a native class name, falling back to Object.
func (c *Checker) namedType(tok ast.Token) *Type {
	if t, err := c.typeIn(c.globals, tok); err == nil {
		return t
	}
	return c.object
}

// typeNamed resolves a declared type token to an instance type.
func (c *Checker) typeNamed(tok ast.Token) (*Type, error) {
	return c.typeIn(c.scope, tok)
}

func (c *Checker) typeIn(sc *scope, tok ast.Token) (*Type, error) {
	if tok.Lexeme == "" || tok.Lexeme == "Object" {
		return c.object, nil
	}
	t, found := sc.lookup(tok.Lexeme)
	if found == nil || t == nil || t.Kind != KindClass {
		return nil, errorf(tok, "Unknown type '%s'.", tok.Lexeme)
	}
	return t.Instance, nil
}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

func (c *Checker) record(n ast.Node, t *Type) *Type {
	c.types[n] = t
	return t
}

func (c *Checker) stmts(stmts []ast.Stmt) error {
	for _, s := range stmts {
		if err := c.stmt(s); err != nil {
			return err
		}
	}
	return nil
}

// block checks stmts in a new scope.
func (c *Checker) block(stmts []ast.Stmt, sc *scope) error {
	previous := c.scope
	c.scope = sc
	defer func() { c.scope = previous }()
	return c.stmts(stmts)
}

func (c *Checker) stmt(stmt ast.Stmt) error {
	nilType := c.builtin(vm.NilClass)
	switch s := stmt.(type) {
	case *ast.Expression:
		t, err := c.expr(s.Expression)
		if err != nil {
			return err
		}
		c.record(s, t)

	case *ast.Var:
		// Without an initializer the first assignment fixes the type.
		if s.Initializer == nil {
			c.scope.define(s.Name.Lexeme, nil)
			c.record(s, nilType)
			return nil
		}
		t, err := c.expr(s.Initializer)
		if err != nil {
			return err
		}
		c.scope.define(s.Name.Lexeme, t)
		c.record(s, t)

	case *ast.Function:
		fn, err := c.declareFunction(s.Lambda)
		if err != nil {
			return err
		}
		c.scope.define(s.Lambda.FunctionName(), fn)
		c.record(s, fn)
		if err := c.functionBody(s.Lambda, fn, c.scope, c.childContext(fn)); err != nil {
			return err
		}

	case *ast.ClassDecl:
		return c.class(s)

	case *ast.Block:
		c.record(s, nilType)
		return c.block(s.Statements, newScope(c.scope))

	case *ast.If:
		c.record(s, nilType)
		if _, err := c.expr(s.Condition); err != nil {
			return err
		}
		if err := c.stmt(s.Then); err != nil {
			return err
		}
		if s.Else != nil {
			return c.stmt(s.Else)
		}

	case *ast.While:
		c.record(s, nilType)
		if _, err := c.expr(s.Condition); err != nil {
			return err
		}
		return c.stmt(s.Body)

	case *ast.For:
		return c.forStmt(s)

	case *ast.Return:
		t := nilType
		if s.Value != nil {
			rt, err := c.expr(s.Value)
			if err != nil {
				return err
			}
			t = rt
		}
		c.record(s, t)
		if c.fn != nil {
			c.fn.returns = append(c.fn.returns, t)
			c.fn.returnToks = append(c.fn.returnToks, s.Keyword)
		}
	}
	return nil
}

// forStmt types the loop variable from the iterable's element class.
func (c *Checker) forStmt(s *ast.For) error {
	c.record(s, c.builtin(vm.NilClass))
	it, err := c.expr(s.Iterable)
	if err != nil {
		return err
	}
	elem := c.object
	switch {
	case it.IsObject():
	case it.Kind == KindInstance && it.Class.Native != nil:
		m, err := it.Class.Native.FindMethod("iterate")
		if err != nil || m == nil {
			return errorf(s.Keyword, "Value of class %s is not iterable.", it.Name)
		}
		elem = c.namedType(ast.Synthetic(it.Class.Native.Elements))
	case it.Kind == KindInstance:
		m, ok, err := methods.Lookup(it.Class, "iterate")
		if err != nil {
			return errorf(s.Keyword, "%s", err.Error())
		}
		if !ok || m == nil {
			return errorf(s.Keyword, "Value of class %s is not iterable.", it.Name)
		}
	default:
		return errorf(s.Keyword, "Value of %s is not iterable.", it)
	}

	loop := newScope(c.scope)
	loop.define(s.Name.Lexeme, elem)
	previous := c.scope
	c.scope = loop
	defer func() { c.scope = previous }()
	return c.stmt(s.Body)
}

// ---------------------------------------------------------------------------
// Functions
// ---------------------------------------------------------------------------

// childContext starts a context for a function or lambda nested in the
// current one.
func (c *Checker) childContext(fn *Type) *funcContext {
	ctx := &funcContext{fn: fn}
	if c.fn != nil {
		ctx.home = c.fn.home
		ctx.method = c.fn.method
		ctx.class = c.fn.class
	}
	return ctx
}

// declareFunction builds a function type from its declaration. Defaults
// are checked against their parameter types in the enclosing scope.
func (c *Checker) declareFunction(decl *ast.Lambda) (*Type, error) {
	fn := &Type{
		Kind:   KindFunction,
		Name:   decl.FunctionName(),
		Decl:   decl.Pos(),
		Params: decl.Params,
	}
	for _, p := range decl.Params {
		pt, err := c.typeNamed(p.Type)
		if err != nil {
			return nil, err
		}
		if p.Default != nil {
			dt, err := c.expr(p.Default)
			if err != nil {
				return nil, err
			}
			if !Assignable(pt, dt) {
				return nil, errorf(p.Name, "Default for parameter '%s' must be %s, got %s.", p.Name.Lexeme, pt, dt)
			}
		}
		fn.ParamTypes = append(fn.ParamTypes, pt)
	}
	return fn, nil
}

// functionBody checks the body in a scope holding the parameters and
// settles the return type.
func (c *Checker) functionBody(decl *ast.Lambda, fn *Type, enclosing *scope, ctx *funcContext) error {
	sc := newScope(enclosing)
	for i, p := range decl.Params {
		if p.Variadic {
			sc.define(p.Name.Lexeme, c.builtin(vm.VarargsClass))
			continue
		}
		sc.define(p.Name.Lexeme, fn.ParamTypes[i])
	}

	previous := c.fn
	c.fn = ctx
	defer func() { c.fn = previous }()

	if err := c.block(decl.Body, sc); err != nil {
		return err
	}
	if ctx.initializer {
		fn.Return = ctx.class.Instance
		return nil
	}
	if len(ctx.returns) == 0 {
		fn.Return = c.builtin(vm.NilClass)
		return nil
	}
	ret := ctx.returns[0]
	for i, t := range ctx.returns[1:] {
		u, ok := Unify(ret, t)
		if !ok {
			return errorf(ctx.returnToks[i+1], "Function '%s' has multiple return types: %s and %s.", fn.Name, ret, t)
		}
		ret = u
	}
	fn.Return = ret
	return nil
}

// ---------------------------------------------------------------------------
// Classes
// ---------------------------------------------------------------------------

// class declares the class, registers every method signature, then checks
// init before the other methods so attributes it assigns are known.
func (c *Checker) class(s *ast.ClassDecl) error {
	class := newClassType(s.Name.Lexeme, s.Name)
	for _, sv := range s.Superclasses {
		st, err := c.expr(sv)
		if err != nil {
			return err
		}
		if st.Kind != KindClass || st.Native != nil {
			return errorf(sv.Name, "Superclass must be a class.")
		}
		class.Supers = append(class.Supers, st)
	}
	c.scope.define(s.Name.Lexeme, class)
	c.record(s, class)

	self := newScope(c.scope)
	self.define("self", class.Instance)

	previous := c.scope
	c.scope = self
	defer func() { c.scope = previous }()

	ordered := make([]*ast.Lambda, 0, len(s.Methods))
	for _, m := range s.Methods {
		fn, err := c.declareFunction(m)
		if err != nil {
			return err
		}
		class.Members[m.FunctionName()] = fn
		c.record(m, fn)
		if m.FunctionName() == "init" {
			ordered = append([]*ast.Lambda{m}, ordered...)
			continue
		}
		ordered = append(ordered, m)
	}

	for _, m := range ordered {
		fn := class.Members[m.FunctionName()]
		ctx := &funcContext{
			fn:          fn,
			home:        m.FunctionName(),
			method:      fn,
			class:       class,
			initializer: m.FunctionName() == "init",
		}
		if err := c.functionBody(m, fn, self, ctx); err != nil {
			return err
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Member access
// ---------------------------------------------------------------------------

// member resolves name on a value of type t: attributes, then methods, then
// native properties, then the root protocol.
func (c *Checker) member(t *Type, name ast.Token) (*Type, error) {
	if t.IsObject() {
		return c.object, nil
	}
	if t.Kind == KindInstance {
		class := t.Class
		if class.Native != nil {
			m, err := class.Native.FindMethod(name.Lexeme)
			if err != nil {
				return nil, errorf(name, "%s", err.Error())
			}
			if m != nil {
				return c.nativeMethod(m), nil
			}
			if p := class.Native.FindProperty(name.Lexeme); p != nil {
				return c.namedType(p.Returns), nil
			}
		} else {
			a, ok, err := attributes.Lookup(class, name.Lexeme)
			if err != nil {
				return nil, errorf(name, "%s", err.Error())
			}
			if ok {
				return a, nil
			}
			m, ok, err := methods.Lookup(class, name.Lexeme)
			if err != nil {
				return nil, errorf(name, "%s", err.Error())
			}
			if ok {
				return m, nil
			}
		}
	}
	if m, ok := vm.ObjectClass.Methods[name.Lexeme]; ok {
		return c.nativeMethod(m), nil
	}
	return nil, errorf(name, "Undefined property '%s' on %s.", name.Lexeme, t)
}

// setAttribute records or checks an attribute assignment.
func (c *Checker) setAttribute(t *Type, name ast.Token, value *Type) error {
	if t.IsObject() {
		return nil
	}
	if t.Kind != KindInstance || t.Class.Native != nil {
		return errorf(name, "Only instances have fields.")
	}
	class := t.Class
	existing, ok, err := attributes.Lookup(class, name.Lexeme)
	if err != nil {
		return errorf(name, "%s", err.Error())
	}
	if !ok {
		class.Attributes[name.Lexeme] = value
		return nil
	}
	u, ok := Unify(existing, value)
	if !ok {
		return errorf(name, "cannot redefine attribute of type %s to type %s", existing, value)
	}
	if _, own := class.Attributes[name.Lexeme]; own {
		class.Attributes[name.Lexeme] = u
	}
	return nil
}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

// operatorMethods names the method each dispatching operator calls.
var operatorMethods = map[ast.TokenKind]string{
	ast.TokenPlus:         "add",
	ast.TokenMinus:        "subtract",
	ast.TokenStar:         "multiply",
	ast.TokenSlash:        "divide",
	ast.TokenPercent:      "modulo",
	ast.TokenEqualEqual:   "equals",
	ast.TokenBangEqual:    "equals",
	ast.TokenGreater:      "greaterThan",
	ast.TokenGreaterEqual: "greaterThan",
	ast.TokenLess:         "greaterThan",
	ast.TokenLessEqual:    "greaterThan",
}

func (c *Checker) expr(expr ast.Expr) (*Type, error) {
	t, err := c.exprType(expr)
	if err != nil {
		return nil, err
	}
	return c.record(expr, t), nil
}

func (c *Checker) exprType(expr ast.Expr) (*Type, error) {
	switch e := expr.(type) {
	case *ast.Literal:
		switch e.Value.(type) {
		case int64:
			return c.builtin(vm.IntClass), nil
		case float64:
			return c.builtin(vm.FloatClass), nil
		case string:
			return c.builtin(vm.StringClass), nil
		case bool:
			return c.builtin(vm.BoolClass), nil
		}
		return c.builtin(vm.NilClass), nil

	case *ast.Grouping:
		return c.expr(e.Expression)

	case *ast.List:
		for _, elem := range e.Elements {
			if _, err := c.expr(elem); err != nil {
				return nil, err
			}
		}
		return c.builtin(vm.ListClass), nil

	case *ast.Variable:
		t, sc := c.scope.lookup(e.Name.Lexeme)
		switch {
		case sc == nil:
			return c.object, nil
		case t == nil:
			return c.builtin(vm.NilClass), nil
		}
		return t, nil

	case *ast.Self:
		if t, sc := c.scope.lookup("self"); sc != nil {
			return t, nil
		}
		return c.object, nil

	case *ast.Assign:
		value, err := c.expr(e.Value)
		if err != nil {
			return nil, err
		}
		existing, sc := c.scope.lookup(e.Name.Lexeme)
		switch {
		case sc == nil:
			c.globals.define(e.Name.Lexeme, value)
			return value, nil
		case existing == nil:
			sc.define(e.Name.Lexeme, value)
			return value, nil
		}
		u, ok := Unify(existing, value)
		if !ok {
			return nil, errorf(e.Name, "cannot redefine variable of type %s to type %s", existing, value)
		}
		sc.define(e.Name.Lexeme, u)
		return value, nil

	case *ast.Super:
		return c.super(e)

	case *ast.Unary:
		right, err := c.expr(e.Right)
		if err != nil {
			return nil, err
		}
		name := "isNotTrue"
		if e.Operator.Kind == ast.TokenMinus {
			name = "negate"
		}
		return c.send(e.Operator, right, name, nil)

	case *ast.Binary:
		left, err := c.expr(e.Left)
		if err != nil {
			return nil, err
		}
		right, err := c.expr(e.Right)
		if err != nil {
			return nil, err
		}
		result, err := c.send(e.Operator, left, operatorMethods[e.Operator.Kind], []*Type{right})
		if err != nil {
			return nil, err
		}
		switch e.Operator.Kind {
		case ast.TokenGreaterEqual, ast.TokenLess, ast.TokenLessEqual, ast.TokenBangEqual:
			return c.builtin(vm.BoolClass), nil
		}
		return result, nil

	case *ast.Logical:
		left, err := c.expr(e.Left)
		if err != nil {
			return nil, err
		}
		right, err := c.expr(e.Right)
		if err != nil {
			return nil, err
		}
		if u, ok := Unify(left, right); ok {
			return u, nil
		}
		return c.object, nil

	case *ast.Call:
		return c.call(e)

	case *ast.Get:
		obj, err := c.expr(e.Object)
		if err != nil {
			return nil, err
		}
		return c.member(obj, e.Name)

	case *ast.Set:
		obj, err := c.expr(e.Object)
		if err != nil {
			return nil, err
		}
		value, err := c.expr(e.Value)
		if err != nil {
			return nil, err
		}
		if err := c.setAttribute(obj, e.Name, value); err != nil {
			return nil, err
		}
		return value, nil

	case *ast.Lambda:
		fn, err := c.declareFunction(e)
		if err != nil {
			return nil, err
		}
		if err := c.functionBody(e, fn, c.scope, c.childContext(fn)); err != nil {
			return nil, err
		}
		return fn, nil
	}
	return c.object, nil
}

// send types a dispatched method call on receiver.
func (c *Checker) send(site ast.Token, receiver *Type, name string, args []*Type) (*Type, error) {
	tok := site
	tok.Lexeme = name
	m, err := c.member(receiver, tok)
	if err != nil {
		return nil, errorf(site, "%s", err.(*Error).Message)
	}
	return c.callType(site, m, args, nil)
}

// super types super.method and bare super, and flags the enclosing method.
func (c *Checker) super(e *ast.Super) (*Type, error) {
	if c.fn == nil || c.fn.class == nil {
		return c.object, nil
	}
	if c.fn.method != nil {
		c.fn.method.CallsSuper = true
	}
	name := c.fn.home
	if e.Method != nil {
		name = e.Method.Lexeme
	}
	m, ok, err := methods.LookupSupers(c.fn.class.Supers, name)
	if err != nil {
		return nil, errorf(e.Keyword, "%s", err.Error())
	}
	if ok {
		return m, nil
	}
	if nm, ok := vm.ObjectClass.Methods[name]; ok {
		return c.nativeMethod(nm), nil
	}
	return nil, errorf(e.Keyword, "Undefined property '%s' on superclass.", name)
}

// ---------------------------------------------------------------------------
// Calls
// ---------------------------------------------------------------------------

type namedArg struct {
	name ast.Token
	t    *Type
}

func (c *Checker) call(e *ast.Call) (*Type, error) {
	callee, err := c.expr(e.Callee)
	if err != nil {
		return nil, err
	}
	args := make([]*Type, len(e.Args))
	for i, arg := range e.Args {
		t, err := c.expr(arg)
		if err != nil {
			return nil, err
		}
		args[i] = t
	}
	named := make([]namedArg, len(e.Named))
	for i, arg := range e.Named {
		t, err := c.expr(arg.Value)
		if err != nil {
			return nil, err
		}
		named[i] = namedArg{name: arg.Name, t: t}
	}
	return c.callType(e.Paren, callee, args, named)
}

// callType validates a call of callee and returns the result type.
func (c *Checker) callType(site ast.Token, callee *Type, args []*Type, named []namedArg) (*Type, error) {
	if callee.IsObject() {
		return c.object, nil
	}
	switch callee.Kind {
	case KindFunction:
		if err := c.arguments(site, callee, args, named); err != nil {
			return nil, err
		}
		if len(args) > 0 && callee.ReturnsByArg != nil {
			if r, ok := callee.ReturnsByArg[args[0].Name]; ok && args[0].Kind == KindInstance {
				return r, nil
			}
		}
		if callee.Return == nil {
			return c.object, nil
		}
		return callee.Return, nil

	case KindClass:
		init, err := c.constructor(site, callee)
		if err != nil {
			return nil, err
		}
		if err := c.arguments(site, init, args, named); err != nil {
			return nil, err
		}
		return callee.Instance, nil
	}
	return nil, errorf(site, "Can only call functions and classes.")
}

// constructor returns the signature a class is called with.
func (c *Checker) constructor(site ast.Token, class *Type) (*Type, error) {
	if class.Native != nil {
		if !class.Native.Instantiable() {
			return nil, errorf(site, "Class %s cannot be instantiated.", class.Name)
		}
		return c.signature(class.Name, class.Decl, class.Native.Parameters(), ast.Synthetic(class.Name)), nil
	}
	init, ok, err := methods.Lookup(class, "init")
	if err != nil {
		return nil, errorf(site, "%s", err.Error())
	}
	if !ok {
		return &Type{Kind: KindFunction, Name: class.Name, Return: class.Instance}, nil
	}
	return init, nil
}

// arguments checks arity, named arguments and each argument's type,
// expanding a variadic tail to the actual argument count.
func (c *Checker) arguments(site ast.Token, fn *Type, args []*Type, named []namedArg) error {
	params := fn.Params
	lower, upper := vm.Arity(params)
	count := len(args) + len(named)
	if count < lower || count > upper {
		return errorf(site, "Expected %s arguments but got %d.", vm.ArityString(lower, upper), count)
	}

	fixed := len(params)
	if fixed > 0 && params[fixed-1].Variadic {
		fixed--
	}
	given := make([]bool, len(params))
	for i, arg := range args {
		p := i
		if i >= fixed {
			p = fixed
		}
		if err := c.argument(site, fn, p, arg); err != nil {
			return err
		}
		given[p] = true
	}
	for _, arg := range named {
		p := -1
		for i, param := range params {
			if param.Name.Lexeme == arg.name.Lexeme {
				p = i
			}
		}
		switch {
		case p < 0:
			return errorf(arg.name, "Unknown parameter '%s'.", arg.name.Lexeme)
		case params[p].Variadic:
			return errorf(arg.name, "Can't pass variadic parameter '%s' by name.", arg.name.Lexeme)
		case given[p]:
			return errorf(arg.name, "Parameter '%s' given twice.", arg.name.Lexeme)
		}
		if err := c.argument(arg.name, fn, p, arg.t); err != nil {
			return err
		}
		given[p] = true
	}
	for i := 0; i < fixed; i++ {
		if !given[i] && params[i].Default == nil {
			return errorf(site, "Missing argument for parameter '%s'.", params[i].Name.Lexeme)
		}
	}
	return nil
}

func (c *Checker) argument(site ast.Token, fn *Type, p int, arg *Type) error {
	want := fn.ParamTypes[p]
	if !Assignable(want, arg) {
		return errorf(site, "Expected %s for parameter '%s' of '%s' but got %s.", want, fn.Params[p].Name.Lexeme, fn.Name, arg)
	}
	return nil
}
