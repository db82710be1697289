package vm

import (
	"errors"
	"io"

	"github.com/chazu/kestrel/ast"
)

// ---------------------------------------------------------------------------
// Call frames and completions
// ---------------------------------------------------------------------------

// frame is one active user function call.
type frame struct {
	home     string
	function *Function
}

// completion is the outcome of executing a statement. A returning
// completion travels up through blocks and loops until Function.Call
// consumes it.
type completion struct {
	returning bool
	value     Value
}

var normal = completion{}

// DefaultMaxDepth bounds nested user calls.
const DefaultMaxDepth = 1000

// ---------------------------------------------------------------------------
// Interpreter: tree-walking evaluator
// ---------------------------------------------------------------------------

// Interpreter executes resolved programs. It keeps its globals between
// Interpret calls, so a REPL can feed it one line at a time.
type Interpreter struct {
	globals     *Environment
	environment *Environment
	locals      ast.Locals
	frames      []frame

	out     io.Writer
	onError ast.ReportFunc
	site    ast.Token // innermost call site, for errors raised inside natives

	// MaxDepth bounds nested user calls; deeper calls fail with
	// "Stack overflow.".
	MaxDepth int
}

// New creates an interpreter whose globals hold every native class and free
// function. print writes to out; runtime errors go to onError.
func New(out io.Writer, onError ast.ReportFunc) *Interpreter {
	if out == nil {
		out = io.Discard
	}
	if onError == nil {
		onError = func(ast.Token, string) {}
	}
	globals := NewEnvironment(nil)
	for _, c := range NativeClasses() {
		globals.Define(c.Name, c)
	}
	for _, f := range NativeFunctions() {
		globals.Define(f.Name, f)
	}
	return &Interpreter{
		globals:     globals,
		environment: globals,
		locals:      make(ast.Locals),
		out:         out,
		onError:     onError,
		MaxDepth:    DefaultMaxDepth,
	}
}

// Globals returns the outermost environment.
func (in *Interpreter) Globals() *Environment {
	return in.globals
}

// SetOutput redirects print.
func (in *Interpreter) SetOutput(out io.Writer) {
	in.out = out
}

// AddLocals merges resolver distances.
func (in *Interpreter) AddLocals(locals ast.Locals) {
	for expr, depth := range locals {
		in.locals[expr] = depth
	}
}

// Interpret executes a top-level statement list. The first runtime error is
// reported, stops execution and is returned; the interpreter is left ready
// for the next program with its globals intact.
func (in *Interpreter) Interpret(stmts []ast.Stmt) error {
	for _, stmt := range stmts {
		if _, err := in.execute(stmt); err != nil {
			re := wrapError(stmt.Pos(), err).(*RuntimeError)
			in.onError(re.Token, re.Message)
			in.environment = in.globals
			in.frames = in.frames[:0]
			in.site = ast.Token{}
			return re
		}
	}
	return nil
}

// home is the method a bare super refers to in the current frame.
func (in *Interpreter) home() string {
	if len(in.frames) == 0 {
		return ""
	}
	return in.frames[len(in.frames)-1].home
}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

func (in *Interpreter) execute(stmt ast.Stmt) (completion, error) {
	switch s := stmt.(type) {
	case *ast.Expression:
		_, err := in.evaluate(s.Expression)
		return normal, err

	case *ast.Var:
		var value Value = Nil
		if s.Initializer != nil {
			v, err := in.evaluate(s.Initializer)
			if err != nil {
				return normal, err
			}
			value = v
		}
		in.environment.Define(s.Name.Lexeme, value)
		return normal, nil

	case *ast.Function:
		in.environment.Define(s.Lambda.FunctionName(), in.closure(s.Lambda))
		return normal, nil

	case *ast.ClassDecl:
		return normal, in.executeClass(s)

	case *ast.Block:
		return in.executeBlock(s.Statements, NewEnvironment(in.environment))

	case *ast.If:
		v, err := in.evaluate(s.Condition)
		if err != nil {
			return normal, err
		}
		t, err := in.condition(s.Keyword, v)
		if err != nil {
			return normal, err
		}
		if t {
			return in.execute(s.Then)
		}
		if s.Else != nil {
			return in.execute(s.Else)
		}
		return normal, nil

	case *ast.While:
		for {
			v, err := in.evaluate(s.Condition)
			if err != nil {
				return normal, err
			}
			t, err := in.condition(s.Keyword, v)
			if err != nil || !t {
				return normal, err
			}
			c, err := in.execute(s.Body)
			if err != nil || c.returning {
				return c, err
			}
		}

	case *ast.For:
		return in.executeFor(s)

	case *ast.Return:
		var value Value = Nil
		if s.Value != nil {
			v, err := in.evaluate(s.Value)
			if err != nil {
				return normal, err
			}
			value = v
		}
		return completion{returning: true, value: value}, nil
	}
	return normal, runtimeErrorf(stmt.Pos(), "Unknown statement.")
}

// executeBlock runs stmts in env and restores the previous environment on
// every exit path.
func (in *Interpreter) executeBlock(stmts []ast.Stmt, env *Environment) (completion, error) {
	previous := in.environment
	in.environment = env
	defer func() { in.environment = previous }()

	for _, stmt := range stmts {
		c, err := in.execute(stmt)
		if err != nil || c.returning {
			return c, err
		}
	}
	return normal, nil
}

// executeClass builds the class. Methods close over a scope holding the
// superclass list, matching the frame the resolver opens for super.
func (in *Interpreter) executeClass(s *ast.ClassDecl) error {
	supers := make([]*Class, 0, len(s.Superclasses))
	for _, sv := range s.Superclasses {
		v, err := in.evaluate(sv)
		if err != nil {
			return err
		}
		c, ok := v.(*Class)
		if !ok {
			return runtimeErrorf(sv.Name, "Superclass must be a class.")
		}
		supers = append(supers, c)
	}

	superEnv := NewEnvironment(in.environment)
	superEnv.Define("super", &superclasses{classes: supers})

	class := NewClass(s.Name.Lexeme, supers...)
	for _, m := range s.Methods {
		name := m.FunctionName()
		class.Methods[name] = &Function{
			Declaration:   m,
			Closure:       superEnv,
			Home:          name,
			IsInitializer: name == "init",
		}
	}
	in.environment.Define(s.Name.Lexeme, class)
	return nil
}

// executeFor drives the iterate()/next() protocol. Each element gets a
// fresh scope holding the loop variable, so closures capture one element.
func (in *Interpreter) executeFor(s *ast.For) (completion, error) {
	iterable, err := in.evaluate(s.Iterable)
	if err != nil {
		return normal, err
	}
	iterate, err := in.member(s.Keyword, iterable, "iterate")
	if err != nil {
		return normal, runtimeErrorf(s.Keyword, "Value of class %s is not iterable.", iterable.TypeName())
	}
	iterator, err := in.invoke(s.Keyword, iterate, nil, nil)
	if err != nil {
		return normal, err
	}

	for {
		result, err := in.send(s.Keyword, iterator, "next")
		if err != nil {
			return normal, err
		}
		end, err := in.member(s.Keyword, result, "isEnd")
		if err != nil {
			return normal, err
		}
		done, err := in.condition(s.Keyword, end)
		if err != nil || done {
			return normal, err
		}
		value, err := in.member(s.Keyword, result, "value")
		if err != nil {
			return normal, err
		}

		loopEnv := NewEnvironment(in.environment)
		loopEnv.Define(s.Name.Lexeme, value)
		c, err := in.executeBlock([]ast.Stmt{s.Body}, loopEnv)
		if err != nil || c.returning {
			return c, err
		}
	}
}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

// operatorMethods maps operators that dispatch directly to their method.
var operatorMethods = map[ast.TokenKind]string{
	ast.TokenPlus:       "add",
	ast.TokenMinus:      "subtract",
	ast.TokenStar:       "multiply",
	ast.TokenSlash:      "divide",
	ast.TokenPercent:    "modulo",
	ast.TokenEqualEqual: "equals",
	ast.TokenGreater:    "greaterThan",
}

// evaluateIn evaluates expr with env as the active environment.
func (in *Interpreter) evaluateIn(expr ast.Expr, env *Environment) (Value, error) {
	previous := in.environment
	in.environment = env
	defer func() { in.environment = previous }()
	return in.evaluate(expr)
}

func (in *Interpreter) evaluate(expr ast.Expr) (Value, error) {
	switch e := expr.(type) {
	case *ast.Literal:
		return literalValue(e.Value), nil

	case *ast.Grouping:
		return in.evaluate(e.Expression)

	case *ast.List:
		items := make([]Value, len(e.Elements))
		for i, elem := range e.Elements {
			v, err := in.evaluate(elem)
			if err != nil {
				return nil, err
			}
			items[i] = v
		}
		return NewList(items), nil

	case *ast.Variable:
		return in.lookUpVariable(e.Name, e.Name.Lexeme, e)

	case *ast.Self:
		return in.lookUpVariable(e.Keyword, "self", e)

	case *ast.Assign:
		value, err := in.evaluate(e.Value)
		if err != nil {
			return nil, err
		}
		if distance, ok := in.locals[e]; ok {
			in.environment.AssignAt(distance, e.Name.Lexeme, value)
		} else {
			in.globals.Assign(e.Name.Lexeme, value)
		}
		return value, nil

	case *ast.Super:
		return in.evaluateSuper(e)

	case *ast.Unary:
		right, err := in.evaluate(e.Right)
		if err != nil {
			return nil, err
		}
		if e.Operator.Kind == ast.TokenMinus {
			return in.send(e.Operator, right, "negate")
		}
		return in.send(e.Operator, right, "isNotTrue")

	case *ast.Binary:
		return in.evaluateBinary(e)

	case *ast.Logical:
		left, err := in.evaluate(e.Left)
		if err != nil {
			return nil, err
		}
		t, err := in.condition(e.Operator, left)
		if err != nil {
			return nil, err
		}
		if (e.Operator.Kind == ast.TokenOr) == t {
			return left, nil
		}
		return in.evaluate(e.Right)

	case *ast.Call:
		return in.evaluateCall(e)

	case *ast.Get:
		obj, err := in.evaluate(e.Object)
		if err != nil {
			return nil, err
		}
		return in.member(e.Name, obj, e.Name.Lexeme)

	case *ast.Set:
		obj, err := in.evaluate(e.Object)
		if err != nil {
			return nil, err
		}
		instance, ok := obj.(*Instance)
		if !ok {
			return nil, runtimeErrorf(e.Name, "Only instances have fields.")
		}
		value, err := in.evaluate(e.Value)
		if err != nil {
			return nil, err
		}
		instance.Set(e.Name.Lexeme, value)
		return value, nil

	case *ast.Lambda:
		return in.closure(e), nil
	}
	return nil, runtimeErrorf(expr.Pos(), "Unknown expression.")
}

// closure captures the current environment. Functions created inside a
// call share that call's home method.
func (in *Interpreter) closure(decl *ast.Lambda) *Function {
	return &Function{
		Declaration: decl,
		Closure:     in.environment,
		Home:        in.home(),
	}
}

func literalValue(v any) Value {
	switch lit := v.(type) {
	case int64:
		return Int(lit)
	case float64:
		return Float(lit)
	case string:
		return String(lit)
	case bool:
		return Bool(lit)
	}
	return Nil
}

// lookUpVariable reads a resolved local at its distance, or a global by
// name.
func (in *Interpreter) lookUpVariable(tok ast.Token, name string, expr ast.Expr) (Value, error) {
	if distance, ok := in.locals[expr]; ok {
		if v := in.environment.GetAt(distance, name); v != nil {
			return v, nil
		}
	} else if v, err := in.globals.Get(name); err == nil {
		return v, nil
	}
	return nil, runtimeErrorf(tok, "Undefined variable '%s'.", name)
}

// condition evaluates v for a branch taken at tok.
func (in *Interpreter) condition(tok ast.Token, v Value) (bool, error) {
	prev := in.site
	in.site = tok
	defer func() { in.site = prev }()
	t, err := in.truthy(v)
	if err != nil {
		return false, wrapError(tok, err)
	}
	return t, nil
}

func (in *Interpreter) evaluateBinary(e *ast.Binary) (Value, error) {
	left, err := in.evaluate(e.Left)
	if err != nil {
		return nil, err
	}
	right, err := in.evaluate(e.Right)
	if err != nil {
		return nil, err
	}
	op := e.Operator

	if method, ok := operatorMethods[op.Kind]; ok {
		return in.send(op, left, method, right)
	}

	switch op.Kind {
	case ast.TokenBangEqual:
		eq, err := in.send(op, left, "equals", right)
		if err != nil {
			return nil, err
		}
		return in.send(op, eq, "isNotTrue")

	case ast.TokenGreaterEqual, ast.TokenLess, ast.TokenLessEqual:
		gt, err := in.send(op, left, "greaterThan", right)
		if err != nil {
			return nil, err
		}
		greater, err := in.condition(op, gt)
		if err != nil {
			return nil, err
		}
		switch {
		case op.Kind == ast.TokenLessEqual:
			return Bool(!greater), nil
		case greater:
			return Bool(op.Kind == ast.TokenGreaterEqual), nil
		}
		eq, err := in.send(op, left, "equals", right)
		if err != nil {
			return nil, err
		}
		equal, err := in.condition(op, eq)
		if err != nil {
			return nil, err
		}
		if op.Kind == ast.TokenGreaterEqual {
			return Bool(equal), nil
		}
		return Bool(!equal), nil
	}
	return nil, runtimeErrorf(op, "Unknown operator '%s'.", op.Lexeme)
}

func (in *Interpreter) evaluateCall(e *ast.Call) (Value, error) {
	callee, err := in.evaluate(e.Callee)
	if err != nil {
		return nil, err
	}
	positional := make([]Value, len(e.Args))
	for i, arg := range e.Args {
		v, err := in.evaluate(arg)
		if err != nil {
			return nil, err
		}
		positional[i] = v
	}
	var named []namedArg
	for _, arg := range e.Named {
		v, err := in.evaluate(arg.Value)
		if err != nil {
			return nil, err
		}
		named = append(named, namedArg{name: arg.Name.Lexeme, value: v})
	}
	return in.invoke(e.Paren, callee, positional, named)
}

// evaluateSuper binds the superclass method to self. A bare super names the
// home method of the executing frame, which is init inside a constructor.
func (in *Interpreter) evaluateSuper(e *ast.Super) (Value, error) {
	distance, ok := in.locals[e]
	if !ok {
		return nil, runtimeErrorf(e.Keyword, "Can't use 'super' here.")
	}
	supers, ok := in.environment.GetAt(distance, "super").(*superclasses)
	if !ok {
		return nil, runtimeErrorf(e.Keyword, "Can't use 'super' here.")
	}
	self := in.environment.GetAt(distance-1, "self")

	name := in.home()
	if e.Method != nil {
		name = e.Method.Lexeme
	}
	if name == "" {
		return nil, runtimeErrorf(e.Keyword, "Can't infer the method for 'super' here.")
	}

	m, err := supers.find(name)
	if err != nil {
		var amb *AmbiguityError
		if errors.As(err, &amb) {
			return nil, runtimeErrorf(e.Keyword, "%s", amb.Error())
		}
		return nil, wrapError(e.Keyword, err)
	}
	if m != nil {
		return m.Bind(self), nil
	}
	if nm, ok := ObjectClass.Methods[name]; ok {
		return &BoundMethod{Receiver: self, Method: nm}, nil
	}
	return nil, runtimeErrorf(e.Keyword, "Undefined property '%s' on superclass.", name)
}
