package compiler

import (
	"fmt"

	"github.com/chazu/kestrel/ast"
)

// ---------------------------------------------------------------------------
// Parser: Recursive descent parser for Kestrel
// ---------------------------------------------------------------------------

// ParseError is a syntax error at a token.
type ParseError struct {
	Token   ast.Token
	Message string
}

func (e *ParseError) Error() string {
	if e.Token.Kind == ast.TokenEOF {
		return fmt.Sprintf("line %d: at end: %s", e.Token.Line, e.Message)
	}
	return fmt.Sprintf("line %d: at '%s': %s", e.Token.Line, e.Token.Lexeme, e.Message)
}

// bailout unwinds the parser to the nearest statement boundary.
type bailout struct{}

// Parser parses a token stream into statements.
type Parser struct {
	tokens  []ast.Token
	current int
	errors  []*ParseError
}

// NewParser creates a new parser for the given input.
func NewParser(input string) *Parser {
	return &Parser{tokens: NewLexer(input).Tokens()}
}

// Parse is a convenience wrapper that parses a whole program.
func Parse(input string) ([]ast.Stmt, []*ParseError) {
	p := NewParser(input)
	stmts := p.ParseProgram()
	return stmts, p.Errors()
}

// Errors returns accumulated parse errors.
func (p *Parser) Errors() []*ParseError {
	return p.errors
}

// Incomplete reports whether parsing failed because input ended early. The
// REPL uses it to ask for a continuation line.
func (p *Parser) Incomplete() bool {
	for _, err := range p.errors {
		if err.Token.Kind == ast.TokenEOF {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// Token helpers
// ---------------------------------------------------------------------------

func (p *Parser) peek() ast.Token {
	return p.tokens[p.current]
}

func (p *Parser) peekNext() ast.Token {
	if p.current+1 >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.current+1]
}

func (p *Parser) previous() ast.Token {
	return p.tokens[p.current-1]
}

func (p *Parser) atEnd() bool {
	return p.peek().Kind == ast.TokenEOF
}

func (p *Parser) advance() ast.Token {
	if !p.atEnd() {
		p.current++
	}
	return p.previous()
}

func (p *Parser) check(kind ast.TokenKind) bool {
	return p.peek().Kind == kind
}

func (p *Parser) match(kinds ...ast.TokenKind) bool {
	for _, kind := range kinds {
		if p.check(kind) {
			p.advance()
			return true
		}
	}
	return false
}

// expect consumes a token of the given kind or bails out.
func (p *Parser) expect(kind ast.TokenKind, message string) ast.Token {
	if p.check(kind) {
		return p.advance()
	}
	p.fail(p.peek(), message)
	return ast.Token{}
}

// errorAt records an error without unwinding.
func (p *Parser) errorAt(tok ast.Token, format string, args ...any) {
	if tok.Kind == ast.TokenIllegal {
		format, args = "%s", []any{tok.Lexeme}
	}
	p.errors = append(p.errors, &ParseError{Token: tok, Message: fmt.Sprintf(format, args...)})
}

// fail records an error and unwinds to the enclosing declaration.
func (p *Parser) fail(tok ast.Token, format string, args ...any) {
	p.errorAt(tok, format, args...)
	panic(bailout{})
}

// synchronize skips tokens until a likely statement start.
func (p *Parser) synchronize() {
	p.advance()
	for !p.atEnd() {
		if p.previous().Kind == ast.TokenSemicolon {
			return
		}
		switch p.peek().Kind {
		case ast.TokenClass, ast.TokenFun, ast.TokenVar, ast.TokenFor, ast.TokenIf, ast.TokenWhile, ast.TokenReturn:
			return
		}
		p.advance()
	}
}

// ---------------------------------------------------------------------------
// Declarations and statements
// ---------------------------------------------------------------------------

// ParseProgram parses declarations until EOF.
func (p *Parser) ParseProgram() []ast.Stmt {
	var stmts []ast.Stmt
	for !p.atEnd() {
		if stmt := p.safeDeclaration(); stmt != nil {
			stmts = append(stmts, stmt)
		}
	}
	return stmts
}

// safeDeclaration parses one declaration, recovering from a bailout.
func (p *Parser) safeDeclaration() (stmt ast.Stmt) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(bailout); !ok {
				panic(r)
			}
			p.synchronize()
			stmt = nil
		}
	}()
	return p.declaration()
}

func (p *Parser) declaration() ast.Stmt {
	var stmt ast.Stmt
	switch {
	case p.match(ast.TokenClass):
		stmt = p.classDeclaration()
	case p.check(ast.TokenFun) && p.peekNext().Kind == ast.TokenIdentifier:
		p.advance()
		stmt = &ast.Function{Lambda: p.function(p.previous())}
	case p.match(ast.TokenVar):
		stmt = p.varDeclaration()
	default:
		stmt = p.statement()
	}
	p.match(ast.TokenSemicolon)
	return stmt
}

func (p *Parser) classDeclaration() ast.Stmt {
	name := p.expect(ast.TokenIdentifier, "expected class name")
	decl := &ast.ClassDecl{Name: name}

	if p.match(ast.TokenLess) {
		for {
			super := p.expect(ast.TokenIdentifier, "expected superclass name")
			decl.Superclasses = append(decl.Superclasses, &ast.Variable{Name: super})
			if !p.match(ast.TokenComma) {
				break
			}
		}
	}

	p.expect(ast.TokenLeftBrace, "expected '{' before class body")
	for !p.check(ast.TokenRightBrace) && !p.atEnd() {
		keyword := p.peek()
		p.match(ast.TokenFun)
		if !p.check(ast.TokenIdentifier) {
			p.fail(p.peek(), "expected method name")
		}
		decl.Methods = append(decl.Methods, p.function(keyword))
		p.match(ast.TokenSemicolon)
	}
	p.expect(ast.TokenRightBrace, "expected '}' after class body")
	return decl
}

// function parses a named function after its keyword.
func (p *Parser) function(keyword ast.Token) *ast.Lambda {
	name := p.expect(ast.TokenIdentifier, "expected function name")
	lambda := p.lambdaRest(keyword)
	lambda.Name = &name
	return lambda
}

// lambdaRest parses "(params) { body }".
func (p *Parser) lambdaRest(keyword ast.Token) *ast.Lambda {
	p.expect(ast.TokenLeftParen, "expected '(' before parameters")
	var params []*ast.Parameter
	if !p.check(ast.TokenRightParen) {
		for {
			params = append(params, p.parameter(params))
			if !p.match(ast.TokenComma) {
				break
			}
		}
	}
	p.expect(ast.TokenRightParen, "expected ')' after parameters")
	body := p.block()
	return &ast.Lambda{Keyword: keyword, Params: params, Body: body.Statements}
}

// parameter parses "[Type] [...] name [= default]" and enforces ordering
// against the parameters already parsed.
func (p *Parser) parameter(prior []*ast.Parameter) *ast.Parameter {
	param := &ast.Parameter{Type: ast.Synthetic("Object")}

	switch {
	case p.check(ast.TokenIdentifier) && p.peekNext().Kind == ast.TokenIdentifier:
		param.Type = p.advance()
	case p.check(ast.TokenIdentifier) && p.peekNext().Kind == ast.TokenEllipsis:
		param.Type = p.advance()
	}
	if p.match(ast.TokenEllipsis) {
		param.Variadic = true
	}
	param.Name = p.expect(ast.TokenIdentifier, "expected parameter name")
	if p.match(ast.TokenEqual) {
		param.Default = p.expression()
	}

	if len(prior) > 0 {
		last := prior[len(prior)-1]
		if last.Variadic {
			p.errorAt(param.Name, "variadic parameter must be last")
		}
		if last.Default != nil && param.Default == nil && !param.Variadic {
			p.errorAt(param.Name, "parameter without default follows parameter with default")
		}
	}
	if param.Variadic && param.Default != nil {
		p.errorAt(param.Name, "variadic parameter cannot have a default")
	}
	for _, other := range prior {
		if other.Name.Lexeme == param.Name.Lexeme {
			p.errorAt(param.Name, "duplicate parameter '%s'", param.Name.Lexeme)
		}
	}
	return param
}

func (p *Parser) varDeclaration() ast.Stmt {
	name := p.expect(ast.TokenIdentifier, "expected variable name")
	var init ast.Expr
	if p.match(ast.TokenEqual) {
		init = p.expression()
	}
	return &ast.Var{Name: name, Initializer: init}
}

func (p *Parser) statement() ast.Stmt {
	switch {
	case p.match(ast.TokenFor):
		return p.forStatement()
	case p.match(ast.TokenIf):
		return p.ifStatement()
	case p.match(ast.TokenWhile):
		keyword := p.previous()
		cond := p.expression()
		return &ast.While{Keyword: keyword, Condition: cond, Body: p.block()}
	case p.match(ast.TokenReturn):
		return p.returnStatement()
	case p.check(ast.TokenLeftBrace):
		return p.block()
	}
	return &ast.Expression{Expression: p.expression()}
}

func (p *Parser) forStatement() ast.Stmt {
	keyword := p.previous()
	name := p.expect(ast.TokenIdentifier, "expected loop variable after 'for'")
	p.expect(ast.TokenIn, "expected 'in' after loop variable")
	iterable := p.expression()
	return &ast.For{Keyword: keyword, Name: name, Iterable: iterable, Body: p.block()}
}

func (p *Parser) ifStatement() ast.Stmt {
	keyword := p.previous()
	cond := p.expression()
	stmt := &ast.If{Keyword: keyword, Condition: cond, Then: p.block()}
	if p.match(ast.TokenElse) {
		if p.match(ast.TokenIf) {
			stmt.Else = p.ifStatement()
		} else {
			stmt.Else = p.block()
		}
	}
	return stmt
}

// returnStatement parses "return [expr]". The value must start on the same
// line as the keyword.
func (p *Parser) returnStatement() ast.Stmt {
	keyword := p.previous()
	stmt := &ast.Return{Keyword: keyword}
	next := p.peek()
	if next.Line == keyword.Line && next.Kind != ast.TokenRightBrace && next.Kind != ast.TokenSemicolon && next.Kind != ast.TokenEOF {
		stmt.Value = p.expression()
	}
	return stmt
}

// block parses "{ declarations }".
func (p *Parser) block() *ast.Block {
	brace := p.expect(ast.TokenLeftBrace, "expected '{'")
	block := &ast.Block{Brace: brace}
	for !p.check(ast.TokenRightBrace) && !p.atEnd() {
		block.Statements = append(block.Statements, p.declaration())
	}
	p.expect(ast.TokenRightBrace, "expected '}' after block")
	return block
}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

func (p *Parser) expression() ast.Expr {
	return p.assignment()
}

func (p *Parser) assignment() ast.Expr {
	expr := p.or()
	if p.match(ast.TokenEqual) {
		equals := p.previous()
		value := p.assignment()
		switch target := expr.(type) {
		case *ast.Variable:
			return &ast.Assign{Name: target.Name, Value: value}
		case *ast.Get:
			return &ast.Set{Object: target.Object, Name: target.Name, Value: value}
		}
		p.errorAt(equals, "invalid assignment target")
	}
	return expr
}

func (p *Parser) or() ast.Expr {
	expr := p.and()
	for p.match(ast.TokenOr) {
		op := p.previous()
		expr = &ast.Logical{Left: expr, Operator: op, Right: p.and()}
	}
	return expr
}

func (p *Parser) and() ast.Expr {
	expr := p.equality()
	for p.match(ast.TokenAnd) {
		op := p.previous()
		expr = &ast.Logical{Left: expr, Operator: op, Right: p.equality()}
	}
	return expr
}

// binaryLevel parses a left-associative chain of operators.
func (p *Parser) binaryLevel(next func() ast.Expr, ops ...ast.TokenKind) ast.Expr {
	expr := next()
	for p.match(ops...) {
		op := p.previous()
		expr = &ast.Binary{Left: expr, Operator: op, Right: next()}
	}
	return expr
}

func (p *Parser) equality() ast.Expr {
	return p.binaryLevel(p.comparison, ast.TokenBangEqual, ast.TokenEqualEqual)
}

func (p *Parser) comparison() ast.Expr {
	return p.binaryLevel(p.term, ast.TokenGreater, ast.TokenGreaterEqual, ast.TokenLess, ast.TokenLessEqual)
}

func (p *Parser) term() ast.Expr {
	return p.binaryLevel(p.factor, ast.TokenMinus, ast.TokenPlus)
}

func (p *Parser) factor() ast.Expr {
	return p.binaryLevel(p.unary, ast.TokenSlash, ast.TokenStar, ast.TokenPercent)
}

func (p *Parser) unary() ast.Expr {
	if p.match(ast.TokenBang, ast.TokenMinus) {
		op := p.previous()
		return &ast.Unary{Operator: op, Right: p.unary()}
	}
	return p.call()
}

// call parses postfix calls and member accesses. A '(' on a later line than
// the previous token starts a new statement instead of a call.
func (p *Parser) call() ast.Expr {
	expr := p.primary()
	for {
		switch {
		case p.check(ast.TokenLeftParen) && p.peek().Line == p.previous().Line:
			p.advance()
			expr = p.finishCall(expr)
		case p.match(ast.TokenDot):
			name := p.expect(ast.TokenIdentifier, "expected property name after '.'")
			expr = &ast.Get{Object: expr, Name: name}
		default:
			return expr
		}
	}
}

// finishCall parses the argument list; named arguments must follow every
// positional one.
func (p *Parser) finishCall(callee ast.Expr) ast.Expr {
	call := &ast.Call{Callee: callee}
	if !p.check(ast.TokenRightParen) {
		for {
			if p.check(ast.TokenIdentifier) && p.peekNext().Kind == ast.TokenColon {
				name := p.advance()
				p.advance() // ':'
				for _, prior := range call.Named {
					if prior.Name.Lexeme == name.Lexeme {
						p.errorAt(name, "duplicate named argument '%s'", name.Lexeme)
					}
				}
				call.Named = append(call.Named, &ast.NamedArg{Name: name, Value: p.expression()})
			} else {
				arg := p.expression()
				if len(call.Named) > 0 {
					p.errorAt(arg.Pos(), "positional argument follows named argument")
				}
				call.Args = append(call.Args, arg)
			}
			if !p.match(ast.TokenComma) {
				break
			}
		}
	}
	call.Paren = p.expect(ast.TokenRightParen, "expected ')' after arguments")
	return call
}

func (p *Parser) primary() ast.Expr {
	tok := p.peek()
	switch tok.Kind {
	case ast.TokenFalse:
		p.advance()
		return &ast.Literal{Token: tok, Value: false}
	case ast.TokenTrue:
		p.advance()
		return &ast.Literal{Token: tok, Value: true}
	case ast.TokenNil:
		p.advance()
		return &ast.Literal{Token: tok, Value: nil}
	case ast.TokenInteger, ast.TokenFloat, ast.TokenString:
		p.advance()
		return &ast.Literal{Token: tok, Value: tok.Literal}
	case ast.TokenIdentifier:
		p.advance()
		return &ast.Variable{Name: tok}
	case ast.TokenSelf:
		p.advance()
		return &ast.Self{Keyword: tok}
	case ast.TokenSuper:
		p.advance()
		super := &ast.Super{Keyword: tok}
		if p.match(ast.TokenDot) {
			method := p.expect(ast.TokenIdentifier, "expected superclass method name")
			super.Method = &method
		} else if !p.check(ast.TokenLeftParen) {
			p.fail(p.peek(), "expected '.' or '(' after 'super'")
		}
		return super
	case ast.TokenFun:
		p.advance()
		return p.lambdaRest(tok)
	case ast.TokenLeftParen:
		p.advance()
		inner := p.expression()
		p.expect(ast.TokenRightParen, "expected ')' after expression")
		return &ast.Grouping{Paren: tok, Expression: inner}
	case ast.TokenLeftBracket:
		p.advance()
		list := &ast.List{Bracket: tok}
		if !p.check(ast.TokenRightBracket) {
			for {
				list.Elements = append(list.Elements, p.expression())
				if !p.match(ast.TokenComma) {
					break
				}
			}
		}
		p.expect(ast.TokenRightBracket, "expected ']' after list elements")
		return list
	}
	p.fail(tok, "expected expression")
	return nil
}
