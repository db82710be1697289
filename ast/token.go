package ast

import "fmt"

// ---------------------------------------------------------------------------
// Tokens
// ---------------------------------------------------------------------------

// TokenKind identifies the lexical class of a token.
type TokenKind int

const (
	// Special tokens
	TokenEOF TokenKind = iota
	TokenIllegal

	// Literals
	TokenIdentifier
	TokenInteger
	TokenFloat
	TokenString

	// Delimiters
	TokenLeftParen    // (
	TokenRightParen   // )
	TokenLeftBrace    // {
	TokenRightBrace   // }
	TokenLeftBracket  // [
	TokenRightBracket // ]
	TokenComma        // ,
	TokenDot          // .
	TokenEllipsis     // ...
	TokenSemicolon    // ;
	TokenColon        // :

	// Operators
	TokenPlus         // +
	TokenMinus        // -
	TokenStar         // *
	TokenSlash        // /
	TokenPercent      // %
	TokenBang         // !
	TokenBangEqual    // !=
	TokenEqual        // =
	TokenEqualEqual   // ==
	TokenGreater      // >
	TokenGreaterEqual // >=
	TokenLess         // <
	TokenLessEqual    // <=

	// Keywords
	TokenAnd
	TokenClass
	TokenElse
	TokenFalse
	TokenFor
	TokenFun
	TokenIf
	TokenIn
	TokenNil
	TokenOr
	TokenReturn
	TokenSelf
	TokenSuper
	TokenTrue
	TokenVar
	TokenWhile
)

var kindNames = map[TokenKind]string{
	TokenEOF:          "EOF",
	TokenIllegal:      "ILLEGAL",
	TokenIdentifier:   "IDENTIFIER",
	TokenInteger:      "INTEGER",
	TokenFloat:        "FLOAT",
	TokenString:       "STRING",
	TokenLeftParen:    "(",
	TokenRightParen:   ")",
	TokenLeftBrace:    "{",
	TokenRightBrace:   "}",
	TokenLeftBracket:  "[",
	TokenRightBracket: "]",
	TokenComma:        ",",
	TokenDot:          ".",
	TokenEllipsis:     "...",
	TokenSemicolon:    ";",
	TokenColon:        ":",
	TokenPlus:         "+",
	TokenMinus:        "-",
	TokenStar:         "*",
	TokenSlash:        "/",
	TokenPercent:      "%",
	TokenBang:         "!",
	TokenBangEqual:    "!=",
	TokenEqual:        "=",
	TokenEqualEqual:   "==",
	TokenGreater:      ">",
	TokenGreaterEqual: ">=",
	TokenLess:         "<",
	TokenLessEqual:    "<=",
	TokenAnd:          "and",
	TokenClass:        "class",
	TokenElse:         "else",
	TokenFalse:        "false",
	TokenFor:          "for",
	TokenFun:          "fun",
	TokenIf:           "if",
	TokenIn:           "in",
	TokenNil:          "nil",
	TokenOr:           "or",
	TokenReturn:       "return",
	TokenSelf:         "self",
	TokenSuper:        "super",
	TokenTrue:         "true",
	TokenVar:          "var",
	TokenWhile:        "while",
}

func (k TokenKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Token(%d)", int(k))
}

// Keywords maps reserved words to their token kinds.
var Keywords = map[string]TokenKind{
	"and":    TokenAnd,
	"class":  TokenClass,
	"else":   TokenElse,
	"false":  TokenFalse,
	"for":    TokenFor,
	"fun":    TokenFun,
	"if":     TokenIf,
	"in":     TokenIn,
	"nil":    TokenNil,
	"or":     TokenOr,
	"return": TokenReturn,
	"self":   TokenSelf,
	"super":  TokenSuper,
	"true":   TokenTrue,
	"var":    TokenVar,
	"while":  TokenWhile,
}

// Token is a lexical token. Tokens are values and never mutated after the
// lexer produces them.
type Token struct {
	Kind    TokenKind
	Lexeme  string // the raw text
	Literal any    // int64, float64 or string for literal tokens
	Line    int    // 1-based
	Column  int    // 1-based
}

func (t Token) String() string {
	if t.Kind == TokenEOF {
		return "EOF"
	}
	return fmt.Sprintf("%s(%q)", t.Kind, t.Lexeme)
}

// Synthetic returns an identifier token that does not come from source text,
// used for implicit parameter types and native method metadata.
func Synthetic(lexeme string) Token {
	return Token{Kind: TokenIdentifier, Lexeme: lexeme}
}

// ReportFunc receives static diagnostics. The core never prints; callers
// decide what to do with a report.
type ReportFunc func(tok Token, message string)

// Locals maps variable-reference expressions to the number of scopes between
// the use and its binding. Keys are node pointers, so two textually identical
// uses are distinct entries.
type Locals map[Expr]int
