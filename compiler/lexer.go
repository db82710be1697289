package compiler

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/chazu/kestrel/ast"
)

// ---------------------------------------------------------------------------
// Lexer: Tokenizer for Kestrel source
// ---------------------------------------------------------------------------

// Lexer tokenizes Kestrel source code.
type Lexer struct {
	input   string
	pos     int  // current position in input
	readPos int  // reading position (after current char)
	ch      rune // current character
	line    int  // current line (1-based)
	col     int  // column of ch (1-based)
}

// NewLexer creates a new lexer for the given input.
func NewLexer(input string) *Lexer {
	l := &Lexer{
		input: input,
		line:  1,
	}
	l.readChar()
	return l
}

// readChar reads the next character.
func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
		l.col = 0
	}
	if l.readPos >= len(l.input) {
		l.ch = 0 // EOF
		l.pos = l.readPos
		l.col++
		return
	}
	r, size := utf8.DecodeRuneInString(l.input[l.readPos:])
	l.ch = r
	l.pos = l.readPos
	l.readPos += size
	l.col++
}

// peekChar returns the next character without consuming it.
func (l *Lexer) peekChar() rune {
	if l.readPos >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPos:])
	return r
}

// Tokens lexes the whole input. The last token is always EOF.
func (l *Lexer) Tokens() []ast.Token {
	var toks []ast.Token
	for {
		tok := l.NextToken()
		toks = append(toks, tok)
		if tok.Kind == ast.TokenEOF {
			return toks
		}
	}
}

// NextToken returns the next token.
func (l *Lexer) NextToken() ast.Token {
	l.skipWhitespaceAndComments()

	line, col := l.line, l.col
	tok := func(kind ast.TokenKind, lexeme string) ast.Token {
		return ast.Token{Kind: kind, Lexeme: lexeme, Line: line, Column: col}
	}
	// two consumes the current char and, if the next one is want, that too.
	two := func(single ast.TokenKind, want rune, double ast.TokenKind) ast.Token {
		first := l.ch
		l.readChar()
		if l.ch == want {
			l.readChar()
			return tok(double, string(first)+string(want))
		}
		return tok(single, string(first))
	}

	switch {
	case l.ch == 0:
		return tok(ast.TokenEOF, "")
	case l.ch == '(':
		l.readChar()
		return tok(ast.TokenLeftParen, "(")
	case l.ch == ')':
		l.readChar()
		return tok(ast.TokenRightParen, ")")
	case l.ch == '{':
		l.readChar()
		return tok(ast.TokenLeftBrace, "{")
	case l.ch == '}':
		l.readChar()
		return tok(ast.TokenRightBrace, "}")
	case l.ch == '[':
		l.readChar()
		return tok(ast.TokenLeftBracket, "[")
	case l.ch == ']':
		l.readChar()
		return tok(ast.TokenRightBracket, "]")
	case l.ch == ',':
		l.readChar()
		return tok(ast.TokenComma, ",")
	case l.ch == ';':
		l.readChar()
		return tok(ast.TokenSemicolon, ";")
	case l.ch == ':':
		l.readChar()
		return tok(ast.TokenColon, ":")
	case l.ch == '+':
		l.readChar()
		return tok(ast.TokenPlus, "+")
	case l.ch == '-':
		l.readChar()
		return tok(ast.TokenMinus, "-")
	case l.ch == '*':
		l.readChar()
		return tok(ast.TokenStar, "*")
	case l.ch == '/':
		l.readChar()
		return tok(ast.TokenSlash, "/")
	case l.ch == '%':
		l.readChar()
		return tok(ast.TokenPercent, "%")
	case l.ch == '.':
		if l.peekChar() == '.' && l.readPos+1 < len(l.input) && l.input[l.readPos+1] == '.' {
			l.readChar()
			l.readChar()
			l.readChar()
			return tok(ast.TokenEllipsis, "...")
		}
		l.readChar()
		return tok(ast.TokenDot, ".")
	case l.ch == '!':
		return two(ast.TokenBang, '=', ast.TokenBangEqual)
	case l.ch == '=':
		return two(ast.TokenEqual, '=', ast.TokenEqualEqual)
	case l.ch == '>':
		return two(ast.TokenGreater, '=', ast.TokenGreaterEqual)
	case l.ch == '<':
		return two(ast.TokenLess, '=', ast.TokenLessEqual)
	case l.ch == '"':
		return l.readString(line, col)
	case isDigit(l.ch):
		return l.readNumber(line, col)
	case isLetter(l.ch):
		return l.readIdentifier(line, col)
	default:
		ch := l.ch
		l.readChar()
		return tok(ast.TokenIllegal, fmt.Sprintf("unexpected character: %c", ch))
	}
}

// skipWhitespaceAndComments skips whitespace and # line comments.
func (l *Lexer) skipWhitespaceAndComments() {
	for {
		for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
			l.readChar()
		}
		if l.ch != '#' {
			return
		}
		for l.ch != '\n' && l.ch != 0 {
			l.readChar()
		}
	}
}

// readString reads a double-quoted string with backslash escapes.
func (l *Lexer) readString(line, col int) ast.Token {
	start := l.pos
	l.readChar() // opening quote
	var sb strings.Builder
	for l.ch != '"' {
		if l.ch == 0 {
			return ast.Token{Kind: ast.TokenIllegal, Lexeme: "unterminated string", Line: line, Column: col}
		}
		if l.ch == '\\' {
			l.readChar()
			switch l.ch {
			case 'n':
				sb.WriteRune('\n')
			case 't':
				sb.WriteRune('\t')
			case '"':
				sb.WriteRune('"')
			case '\\':
				sb.WriteRune('\\')
			case 0:
				continue
			default:
				sb.WriteRune('\\')
				sb.WriteRune(l.ch)
			}
			l.readChar()
			continue
		}
		sb.WriteRune(l.ch)
		l.readChar()
	}
	l.readChar() // closing quote
	return ast.Token{
		Kind:    ast.TokenString,
		Lexeme:  l.input[start:l.pos],
		Literal: sb.String(),
		Line:    line,
		Column:  col,
	}
}

// readNumber reads an integer or a float. A float needs digits on both sides
// of the dot so that 3.toString() stays a method call.
func (l *Lexer) readNumber(line, col int) ast.Token {
	start := l.pos
	for isDigit(l.ch) {
		l.readChar()
	}
	isFloat := false
	if l.ch == '.' && isDigit(l.peekChar()) {
		isFloat = true
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	text := l.input[start:l.pos]
	if isFloat {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return ast.Token{Kind: ast.TokenIllegal, Lexeme: "invalid float: " + text, Line: line, Column: col}
		}
		return ast.Token{Kind: ast.TokenFloat, Lexeme: text, Literal: f, Line: line, Column: col}
	}
	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return ast.Token{Kind: ast.TokenIllegal, Lexeme: "integer out of range: " + text, Line: line, Column: col}
	}
	return ast.Token{Kind: ast.TokenInteger, Lexeme: text, Literal: n, Line: line, Column: col}
}

// readIdentifier reads an identifier or keyword.
func (l *Lexer) readIdentifier(line, col int) ast.Token {
	start := l.pos
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	text := l.input[start:l.pos]
	kind := ast.TokenIdentifier
	if kw, ok := ast.Keywords[text]; ok {
		kind = kw
	}
	return ast.Token{Kind: kind, Lexeme: text, Line: line, Column: col}
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isLetter(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}
