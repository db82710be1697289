package vm

import (
	"fmt"

	"github.com/chazu/kestrel/ast"
)

// Function is a closure over a user-declared function, method or lambda.
//
// Home is the method a bare super(...) inside the body refers to. Methods
// are their own home; functions and lambdas inherit the home of the frame
// that created them, so the answer does not depend on when they run.
type Function struct {
	Declaration   *ast.Lambda
	Closure       *Environment
	Home          string
	IsInitializer bool
}

// Name returns the declared name, or "lambda".
func (f *Function) Name() string {
	return f.Declaration.FunctionName()
}

func (f *Function) TypeName() string { return "Function" }
func (f *Function) String() string   { return fmt.Sprintf("<fn %s>", f.Name()) }

// Bind returns a new closure whose scope defines self. Every call makes a
// fresh environment; nothing is cached on f.
func (f *Function) Bind(self Value) *Function {
	env := NewEnvironment(f.Closure)
	env.Define("self", self)
	return &Function{
		Declaration:   f.Declaration,
		Closure:       env,
		Home:          f.Home,
		IsInitializer: f.IsInitializer,
	}
}

func (f *Function) Parameters() []*ast.Parameter { return f.Declaration.Params }
func (f *Function) LowerArity() int              { return lowerArity(f.Declaration.Params) }
func (f *Function) UpperArity() int              { return upperArity(f.Declaration.Params) }

// Call runs the body in a new scope holding the parameters. Omitted
// parameters take their default, evaluated in the closure at call time.
// Initializers always answer self.
func (f *Function) Call(in *Interpreter, site ast.Token, args []Value) (Value, error) {
	if len(in.frames) >= in.MaxDepth {
		return nil, &RuntimeError{Token: site, Message: "Stack overflow."}
	}

	in.frames = append(in.frames, frame{home: f.Home, function: f})
	defer func() { in.frames = in.frames[:len(in.frames)-1] }()

	env := NewEnvironment(f.Closure)
	for i, param := range f.Declaration.Params {
		value := args[i]
		if value == nil {
			v, err := in.evaluateIn(param.Default, f.Closure)
			if err != nil {
				return nil, err
			}
			value = v
		}
		env.Define(param.Name.Lexeme, value)
	}

	result, err := in.executeBlock(f.Declaration.Body, env)
	if err != nil {
		return nil, err
	}
	if f.IsInitializer {
		return f.Closure.GetAt(0, "self"), nil
	}
	if result.returning {
		return result.value, nil
	}
	return Nil, nil
}
