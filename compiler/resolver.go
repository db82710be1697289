package compiler

import "github.com/chazu/kestrel/ast"

// ---------------------------------------------------------------------------
// Resolver: static scope analysis
// ---------------------------------------------------------------------------

type functionKind int

const (
	kindNone functionKind = iota
	kindFunction
	kindMethod
	kindInitializer
)

type classKind int

const (
	classNone classKind = iota
	classPlain
	classDerived
)

// scopeFrame maps a declared name to whether its initializer has finished.
type scopeFrame map[string]bool

// Resolver computes, for every variable reference, how many scopes separate
// the use from its binding. References it cannot find are globals and are
// looked up by name at run time.
//
// Errors are reported through the callback and do not stop resolution.
type Resolver struct {
	report ast.ReportFunc
	locals ast.Locals
	scopes []scopeFrame

	currentFunction functionKind
	currentClass    classKind
	hadError        bool
}

// NewResolver creates a resolver. Locals accumulate across Resolve calls so
// a REPL can keep one resolver for its whole session.
func NewResolver(report ast.ReportFunc) *Resolver {
	if report == nil {
		report = func(ast.Token, string) {}
	}
	return &Resolver{
		report: report,
		locals: make(ast.Locals),
	}
}

// Resolve resolves a top-level statement list and returns all distances
// recorded so far.
func (r *Resolver) Resolve(stmts []ast.Stmt) ast.Locals {
	r.hadError = false
	r.resolveStatements(stmts)
	return r.locals
}

// Locals returns the distances recorded so far.
func (r *Resolver) Locals() ast.Locals {
	return r.locals
}

// HadError reports whether the last Resolve call reported an error.
func (r *Resolver) HadError() bool {
	return r.hadError
}

func (r *Resolver) errorAt(tok ast.Token, message string) {
	r.hadError = true
	r.report(tok, message)
}

// ---------------------------------------------------------------------------
// Scope handling
// ---------------------------------------------------------------------------

func (r *Resolver) beginScope() {
	r.scopes = append(r.scopes, make(scopeFrame))
}

func (r *Resolver) endScope() {
	r.scopes = r.scopes[:len(r.scopes)-1]
}

// declare adds a name to the innermost frame, marked as not yet usable.
// Globals (no open frame) may be redeclared freely.
func (r *Resolver) declare(name ast.Token) {
	if len(r.scopes) == 0 {
		return
	}
	scope := r.scopes[len(r.scopes)-1]
	if _, exists := scope[name.Lexeme]; exists {
		r.errorAt(name, "Already a variable with this name in this scope.")
	}
	scope[name.Lexeme] = false
}

func (r *Resolver) define(name ast.Token) {
	if len(r.scopes) == 0 {
		return
	}
	r.scopes[len(r.scopes)-1][name.Lexeme] = true
}

// resolveLocal records the distance to the innermost frame binding name.
func (r *Resolver) resolveLocal(expr ast.Expr, name string) {
	for i := len(r.scopes) - 1; i >= 0; i-- {
		if _, ok := r.scopes[i][name]; ok {
			r.locals[expr] = len(r.scopes) - 1 - i
			return
		}
	}
}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

func (r *Resolver) resolveStatements(stmts []ast.Stmt) {
	for _, stmt := range stmts {
		r.resolveStmt(stmt)
	}
}

func (r *Resolver) resolveStmt(stmt ast.Stmt) {
	switch s := stmt.(type) {
	case *ast.Block:
		r.beginScope()
		r.resolveStatements(s.Statements)
		r.endScope()
	case *ast.Var:
		r.declare(s.Name)
		if s.Initializer != nil {
			r.resolveExpr(s.Initializer)
		}
		r.define(s.Name)
	case *ast.Function:
		r.declare(*s.Lambda.Name)
		r.define(*s.Lambda.Name)
		r.resolveFunction(s.Lambda, kindFunction)
	case *ast.ClassDecl:
		r.resolveClass(s)
	case *ast.Expression:
		r.resolveExpr(s.Expression)
	case *ast.If:
		r.resolveExpr(s.Condition)
		r.resolveStmt(s.Then)
		if s.Else != nil {
			r.resolveStmt(s.Else)
		}
	case *ast.While:
		r.resolveExpr(s.Condition)
		r.resolveStmt(s.Body)
	case *ast.For:
		r.resolveExpr(s.Iterable)
		r.beginScope()
		r.declare(s.Name)
		r.define(s.Name)
		r.resolveStmt(s.Body)
		r.endScope()
	case *ast.Return:
		if r.currentFunction == kindNone {
			r.errorAt(s.Keyword, "Can't return from top-level code.")
		}
		if s.Value != nil {
			r.resolveExpr(s.Value)
		}
	}
}

// resolveClass opens the two class frames: "super" outside, "self" inside.
// Runtime method binding builds the same two environments, so distances
// computed here line up with the interpreter's chain.
func (r *Resolver) resolveClass(c *ast.ClassDecl) {
	enclosingClass := r.currentClass
	r.currentClass = classPlain
	defer func() { r.currentClass = enclosingClass }()

	r.declare(c.Name)
	r.define(c.Name)

	for _, super := range c.Superclasses {
		if super.Name.Lexeme == c.Name.Lexeme {
			r.errorAt(super.Name, "A class can't inherit from itself.")
			continue
		}
		r.resolveExpr(super)
	}
	if len(c.Superclasses) > 0 {
		r.currentClass = classDerived
	}

	r.beginScope()
	r.scopes[len(r.scopes)-1]["super"] = true
	r.beginScope()
	r.scopes[len(r.scopes)-1]["self"] = true

	for _, method := range c.Methods {
		kind := kindMethod
		if method.Name != nil && method.Name.Lexeme == "init" {
			kind = kindInitializer
		}
		r.resolveFunction(method, kind)
	}

	r.endScope()
	r.endScope()
}

// resolveFunction resolves defaults in the enclosing frame, then the body in
// a frame holding the parameters. The interpreter evaluates defaults in the
// closure and runs the body in the call environment, matching this layout.
func (r *Resolver) resolveFunction(fn *ast.Lambda, kind functionKind) {
	for _, param := range fn.Params {
		if param.Default != nil {
			r.resolveExpr(param.Default)
		}
	}

	enclosing := r.currentFunction
	r.currentFunction = kind
	defer func() { r.currentFunction = enclosing }()

	r.beginScope()
	for _, param := range fn.Params {
		r.declare(param.Name)
		r.define(param.Name)
	}
	r.resolveStatements(fn.Body)
	r.endScope()
}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

func (r *Resolver) resolveExpr(expr ast.Expr) {
	switch e := expr.(type) {
	case *ast.Variable:
		if len(r.scopes) > 0 {
			if defined, ok := r.scopes[len(r.scopes)-1][e.Name.Lexeme]; ok && !defined {
				r.errorAt(e.Name, "Can't read local variable in its own initializer.")
			}
		}
		r.resolveLocal(e, e.Name.Lexeme)
	case *ast.Assign:
		r.resolveExpr(e.Value)
		r.resolveLocal(e, e.Name.Lexeme)
	case *ast.Self:
		if r.currentClass == classNone {
			r.errorAt(e.Keyword, "Can't use 'self' outside of a class.")
			return
		}
		r.resolveLocal(e, "self")
	case *ast.Super:
		switch r.currentClass {
		case classNone:
			r.errorAt(e.Keyword, "Can't use 'super' outside of a class.")
			return
		case classPlain:
			r.errorAt(e.Keyword, "Can't use 'super' in a class with no superclass.")
			return
		}
		r.resolveLocal(e, "super")
	case *ast.Lambda:
		r.resolveFunction(e, kindFunction)
	case *ast.Binary:
		r.resolveExpr(e.Left)
		r.resolveExpr(e.Right)
	case *ast.Logical:
		r.resolveExpr(e.Left)
		r.resolveExpr(e.Right)
	case *ast.Unary:
		r.resolveExpr(e.Right)
	case *ast.Grouping:
		r.resolveExpr(e.Expression)
	case *ast.Call:
		r.resolveExpr(e.Callee)
		for _, arg := range e.Args {
			r.resolveExpr(arg)
		}
		for _, arg := range e.Named {
			r.resolveExpr(arg.Value)
		}
	case *ast.Get:
		r.resolveExpr(e.Object)
	case *ast.Set:
		r.resolveExpr(e.Value)
		r.resolveExpr(e.Object)
	case *ast.List:
		for _, elem := range e.Elements {
			r.resolveExpr(elem)
		}
	case *ast.Literal:
		// nothing to resolve
	}
}

// Resolve is a convenience wrapper that resolves stmts with a fresh
// resolver. ok is false when an error was reported.
func Resolve(stmts []ast.Stmt, report ast.ReportFunc) (locals ast.Locals, ok bool) {
	r := NewResolver(report)
	locals = r.Resolve(stmts)
	return locals, !r.HadError()
}
