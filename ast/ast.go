package ast

// ---------------------------------------------------------------------------
// AST: Abstract Syntax Tree
// ---------------------------------------------------------------------------

// Node is the interface implemented by all AST nodes.
type Node interface {
	// Pos returns the token that best locates the node in source.
	Pos() Token
	node() // marker method
}

// Expr is the interface for expression nodes.
type Expr interface {
	Node
	expr() // marker method
}

// Stmt is the interface for statement nodes.
type Stmt interface {
	Node
	stmt() // marker method
}

// ---------------------------------------------------------------------------
// Expression nodes
// ---------------------------------------------------------------------------

// Assign binds a new value to a variable (x = expr).
type Assign struct {
	Name  Token
	Value Expr
}

func (n *Assign) Pos() Token { return n.Name }
func (n *Assign) node()      {}
func (n *Assign) expr()      {}

// Binary is an operator applied to two operands. It evaluates by dispatch on
// the left operand.
type Binary struct {
	Left     Expr
	Operator Token
	Right    Expr
}

func (n *Binary) Pos() Token { return n.Operator }
func (n *Binary) node()      {}
func (n *Binary) expr()      {}

// NamedArg is a call argument matched to a parameter by name (name: expr).
type NamedArg struct {
	Name  Token
	Value Expr
}

// Call invokes a callee with positional arguments followed by named ones.
type Call struct {
	Callee Expr
	Paren  Token // closing paren, used for error locations
	Args   []Expr
	Named  []*NamedArg
}

func (n *Call) Pos() Token { return n.Paren }
func (n *Call) node()      {}
func (n *Call) expr()      {}

// Get reads a member of an object (obj.name).
type Get struct {
	Object Expr
	Name   Token
}

func (n *Get) Pos() Token { return n.Name }
func (n *Get) node()      {}
func (n *Get) expr()      {}

// Set writes a field of an object (obj.name = expr).
type Set struct {
	Object Expr
	Name   Token
	Value  Expr
}

func (n *Set) Pos() Token { return n.Name }
func (n *Set) node()      {}
func (n *Set) expr()      {}

// Grouping is a parenthesized expression.
type Grouping struct {
	Paren      Token
	Expression Expr
}

func (n *Grouping) Pos() Token { return n.Paren }
func (n *Grouping) node()      {}
func (n *Grouping) expr()      {}

// Literal is a constant. Value holds int64, float64, string, bool or nil.
type Literal struct {
	Token Token
	Value any
}

func (n *Literal) Pos() Token { return n.Token }
func (n *Literal) node()      {}
func (n *Literal) expr()      {}

// List is a list display ([a, b, c]).
type List struct {
	Bracket  Token
	Elements []Expr
}

func (n *List) Pos() Token { return n.Bracket }
func (n *List) node()      {}
func (n *List) expr()      {}

// Logical is a short-circuit and/or.
type Logical struct {
	Left     Expr
	Operator Token
	Right    Expr
}

func (n *Logical) Pos() Token { return n.Operator }
func (n *Logical) node()      {}
func (n *Logical) expr()      {}

// Self refers to the receiver of the enclosing method.
type Self struct {
	Keyword Token
}

func (n *Self) Pos() Token { return n.Keyword }
func (n *Self) node()      {}
func (n *Self) expr()      {}

// Super refers to a method of the enclosing class's superclasses. Method is
// nil for a bare super(...) call, whose method name is inferred at run time.
type Super struct {
	Keyword Token
	Method  *Token
}

func (n *Super) Pos() Token { return n.Keyword }
func (n *Super) node()      {}
func (n *Super) expr()      {}

// Unary is a prefix operator (!x, -x).
type Unary struct {
	Operator Token
	Right    Expr
}

func (n *Unary) Pos() Token { return n.Operator }
func (n *Unary) node()      {}
func (n *Unary) expr()      {}

// Variable is a variable reference.
type Variable struct {
	Name Token
}

func (n *Variable) Pos() Token { return n.Name }
func (n *Variable) node()      {}
func (n *Variable) expr()      {}

// Parameter is a declared function parameter.
type Parameter struct {
	Type     Token // declared type; "Object" when the source omits it
	Name     Token
	Default  Expr // nil when the parameter is required
	Variadic bool
}

// Lambda is a function literal. Named functions and methods carry their
// name; anonymous lambdas have a nil Name.
type Lambda struct {
	Keyword Token
	Name    *Token
	Params  []*Parameter
	Body    []Stmt
}

func (n *Lambda) Pos() Token {
	if n.Name != nil {
		return *n.Name
	}
	return n.Keyword
}
func (n *Lambda) node() {}
func (n *Lambda) expr() {}

// FunctionName returns the declared name or "lambda".
func (n *Lambda) FunctionName() string {
	if n.Name != nil {
		return n.Name.Lexeme
	}
	return "lambda"
}

// ---------------------------------------------------------------------------
// Statement nodes
// ---------------------------------------------------------------------------

// Block is a braced statement list with its own scope.
type Block struct {
	Brace      Token
	Statements []Stmt
}

func (n *Block) Pos() Token { return n.Brace }
func (n *Block) node()      {}
func (n *Block) stmt()      {}

// ClassDecl declares a class with an ordered superclass list.
type ClassDecl struct {
	Name         Token
	Superclasses []*Variable
	Methods      []*Lambda
}

func (n *ClassDecl) Pos() Token { return n.Name }
func (n *ClassDecl) node()      {}
func (n *ClassDecl) stmt()      {}

// Expression evaluates an expression for its side effects.
type Expression struct {
	Expression Expr
}

func (n *Expression) Pos() Token { return n.Expression.Pos() }
func (n *Expression) node()      {}
func (n *Expression) stmt()      {}

// Function declares a named function in the current scope.
type Function struct {
	Lambda *Lambda
}

func (n *Function) Pos() Token { return n.Lambda.Pos() }
func (n *Function) node()      {}
func (n *Function) stmt()      {}

// If is a conditional. Else is nil, a *Block, or a nested *If.
type If struct {
	Keyword   Token
	Condition Expr
	Then      *Block
	Else      Stmt
}

func (n *If) Pos() Token { return n.Keyword }
func (n *If) node()      {}
func (n *If) stmt()      {}

// For iterates over the value of Iterable through its iterate() protocol.
type For struct {
	Keyword  Token
	Name     Token
	Iterable Expr
	Body     *Block
}

func (n *For) Pos() Token { return n.Keyword }
func (n *For) node()      {}
func (n *For) stmt()      {}

// Return leaves the enclosing function. Value may be nil.
type Return struct {
	Keyword Token
	Value   Expr
}

func (n *Return) Pos() Token { return n.Keyword }
func (n *Return) node()      {}
func (n *Return) stmt()      {}

// Var declares a variable in the current scope. Initializer may be nil.
type Var struct {
	Name        Token
	Initializer Expr
}

func (n *Var) Pos() Token { return n.Name }
func (n *Var) node()      {}
func (n *Var) stmt()      {}

// While loops while Condition is true.
type While struct {
	Keyword   Token
	Condition Expr
	Body      *Block
}

func (n *While) Pos() Token { return n.Keyword }
func (n *While) node()      {}
func (n *While) stmt()      {}
