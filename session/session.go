// Package session drives the Kestrel pipeline: parse, resolve, type check
// and interpret. A Session keeps its interpreter, resolver and checker
// alive between runs, which is what a REPL needs.
package session

import (
	"errors"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/tliron/commonlog"

	"github.com/chazu/kestrel/ast"
	"github.com/chazu/kestrel/compiler"
	"github.com/chazu/kestrel/typecheck"
	"github.com/chazu/kestrel/vm"
)

// Exit statuses used by the command line tool.
const (
	ExitOK      = 0
	ExitUsage   = 64
	ExitStatic  = 65
	ExitRuntime = 70
)

// ErrStatic is returned by Run when parsing, resolution or type checking
// failed and the program was not executed.
var ErrStatic = errors.New("static errors prevented execution")

var log = commonlog.GetLogger("kestrel.session")

// Options configure a Session.
type Options struct {
	// Out receives print output. Defaults to os.Stdout.
	Out io.Writer
	// TypeCheck runs the checker before execution.
	TypeCheck bool
	// OnDiagnostic, when set, sees every diagnostic as it is reported.
	OnDiagnostic func(Diagnostic)
}

// Session is a persistent pipeline.
type Session struct {
	id          string
	opts        Options
	interpreter *vm.Interpreter
	resolver    *compiler.Resolver
	checker     *typecheck.Checker

	diagnostics     []Diagnostic
	hadStaticError  bool
	hadRuntimeError bool
}

// New creates a session.
func New(opts Options) *Session {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	s := &Session{id: "session_" + uuid.New().String(), opts: opts}
	s.interpreter = vm.New(opts.Out, s.reporter(KindRuntime))
	s.resolver = compiler.NewResolver(s.reporter(KindResolve))
	s.checker = typecheck.New(s.interpreter.Globals(), s.reporter(KindType))
	return s
}

// ID identifies the session in logs and reports.
func (s *Session) ID() string {
	return s.id
}

// reporter returns a callback recording diagnostics of one kind.
func (s *Session) reporter(kind Kind) ast.ReportFunc {
	return func(tok ast.Token, message string) {
		s.add(newDiagnostic(kind, tok, message))
	}
}

func (s *Session) add(d Diagnostic) {
	if d.Kind.Static() {
		s.hadStaticError = true
	} else {
		s.hadRuntimeError = true
	}
	log.Debugf("%s: %s diagnostic at line %d: %s", s.id, d.Kind, d.Line, d.Message)
	s.diagnostics = append(s.diagnostics, d)
	if s.opts.OnDiagnostic != nil {
		s.opts.OnDiagnostic(d)
	}
}

// Interpreter returns the session's interpreter.
func (s *Session) Interpreter() *vm.Interpreter {
	return s.interpreter
}

// Checker returns the session's type checker.
func (s *Session) Checker() *typecheck.Checker {
	return s.checker
}

// Diagnostics returns everything reported since the last Reset.
func (s *Session) Diagnostics() []Diagnostic {
	return s.diagnostics
}

// HadStaticError reports a parse, resolve or type error since the last Reset.
func (s *Session) HadStaticError() bool {
	return s.hadStaticError
}

// HadRuntimeError reports a runtime error since the last Reset.
func (s *Session) HadRuntimeError() bool {
	return s.hadRuntimeError
}

// Reset clears the flags and diagnostics, keeping all program state.
func (s *Session) Reset() {
	s.diagnostics = nil
	s.hadStaticError = false
	s.hadRuntimeError = false
}

// ExitCode maps the flags to the command line exit status.
func (s *Session) ExitCode() int {
	switch {
	case s.hadStaticError:
		return ExitStatic
	case s.hadRuntimeError:
		return ExitRuntime
	}
	return ExitOK
}

// Parse parses source, reporting syntax errors. incomplete is true when the
// input ended in the middle of a construct.
func (s *Session) Parse(source string) (stmts []ast.Stmt, incomplete bool) {
	p := compiler.NewParser(source)
	stmts = p.ParseProgram()
	for _, err := range p.Errors() {
		s.add(newDiagnostic(KindParse, err.Token, err.Message))
	}
	return stmts, p.Incomplete()
}

// Analyze runs the static passes over stmts and reports whether they
// passed. Resolution always runs to completion; checking runs only when
// enabled and resolution succeeded.
func (s *Session) Analyze(stmts []ast.Stmt) bool {
	s.resolver.Resolve(stmts)
	if s.resolver.HadError() {
		return false
	}
	if s.opts.TypeCheck && !s.checker.Check(stmts) {
		return false
	}
	return true
}

// Check parses and analyzes source without executing it.
func (s *Session) Check(source string) bool {
	before := len(s.diagnostics)
	stmts, _ := s.Parse(source)
	if len(s.diagnostics) > before {
		return false
	}
	return s.Analyze(stmts)
}

// Run parses, analyzes and executes source. Static errors prevent
// execution and yield ErrStatic; a runtime error is returned as the
// *vm.RuntimeError that stopped the program.
func (s *Session) Run(source string) error {
	before := len(s.diagnostics)
	stmts, _ := s.Parse(source)
	if len(s.diagnostics) > before || !s.Analyze(stmts) {
		log.Infof("%s: not executing: %d static diagnostic(s)", s.id, len(s.diagnostics)-before)
		return ErrStatic
	}
	return s.Execute(stmts)
}

// Execute interprets statements that already passed Analyze.
func (s *Session) Execute(stmts []ast.Stmt) error {
	s.interpreter.AddLocals(s.resolver.Locals())
	if err := s.interpreter.Interpret(stmts); err != nil {
		log.Debugf("%s: runtime error: %s", s.id, err)
		return err
	}
	return nil
}
