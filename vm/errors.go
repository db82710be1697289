package vm

import (
	"errors"
	"fmt"

	"github.com/chazu/kestrel/ast"
)

// Internal errors returned by native methods. The interpreter catches them at
// the call boundary and re-raises them as RuntimeErrors at the call site.
var (
	ErrDivisionByZero   = errors.New("division by zero")
	ErrIndexOutOfRange  = errors.New("index out of range")
	ErrWrongArgument    = errors.New("wrong argument class")
	ErrKeyNotFound      = errors.New("key not found")
	ErrEmptyList        = errors.New("empty list")
	ErrNotInstantiable  = errors.New("class cannot be instantiated")
	ErrUndefinedVar     = errors.New("undefined variable")
	ErrBadProtocolReply = errors.New("protocol method returned the wrong class")
)

// RuntimeError is a user-visible error raised while executing a program.
type RuntimeError struct {
	Token   ast.Token
	Message string
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("%s\n[line %d]", e.Message, e.Token.Line)
}

// AmbiguityError reports a method reachable through more than one
// superclass at the same depth.
type AmbiguityError struct {
	Name     string
	Branches []string
}

func (e *AmbiguityError) Error() string {
	return fmt.Sprintf("Ambiguous method '%s': inherited through %s.", e.Name, joinNames(e.Branches))
}

func joinNames(names []string) string {
	switch len(names) {
	case 0:
		return "several superclasses"
	case 1:
		return names[0]
	}
	out := names[0]
	for _, n := range names[1 : len(names)-1] {
		out += ", " + n
	}
	return out + " and " + names[len(names)-1]
}

// wrongArgument builds an ErrWrongArgument for a native method.
func wrongArgument(method, want string, got Value) error {
	return fmt.Errorf("%w: %s expects %s, got %s", ErrWrongArgument, method, want, got.TypeName())
}
