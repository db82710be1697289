// Kestrel CLI - runs, checks and serves Kestrel programs
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/tliron/commonlog"

	"github.com/chazu/kestrel/manifest"
	"github.com/chazu/kestrel/server"
	"github.com/chazu/kestrel/session"

	_ "github.com/tliron/commonlog/simple"
)

const version = "0.1.0"

// exitIOErr is returned when the program file cannot be read.
const exitIOErr = 74

var log = commonlog.GetLogger("kestrel.cli")

// options are the resolved command line settings.
type options struct {
	interactive bool
	checkOnly   bool
	report      string
	typeCheck   bool
	path        string
	history     string
}

func main() {
	os.Exit(run())
}

func run() int {
	interactive := flag.Bool("i", false, "Start interactive REPL (after running the file, if any)")
	checkOnly := flag.Bool("check", false, "Run the static passes only")
	reportPath := flag.String("report", "", "Write a CBOR diagnostics report to this path")
	lspMode := flag.Bool("lsp", false, "Start the language server on stdio")
	verbosity := flag.Int("v", 0, "Log verbosity")
	noTypeCheck := flag.Bool("no-typecheck", false, "Skip the type checker")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: kestrel [options] [file]\n\n")
		fmt.Fprintf(os.Stderr, "Runs a Kestrel program, or starts the REPL when no file is given.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  kestrel                    # Start REPL\n")
		fmt.Fprintf(os.Stderr, "  kestrel main.ks            # Run a program\n")
		fmt.Fprintf(os.Stderr, "  kestrel -check main.ks     # Parse, resolve and type check only\n")
		fmt.Fprintf(os.Stderr, "  kestrel -i main.ks         # Run, then continue in the REPL\n")
		fmt.Fprintf(os.Stderr, "  kestrel -lsp               # Language server for editors\n")
	}
	flag.Parse()

	if flag.NArg() > 1 {
		flag.Usage()
		return session.ExitUsage
	}

	wd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitIOErr
	}
	m, err := manifest.FindAndLoad(wd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return session.ExitUsage
	}

	level := *verbosity
	if !flagSet("v") && m != nil {
		level = m.Log.Verbosity
	}
	commonlog.Configure(level, m.LogFilePath())

	if m != nil {
		log.Infof("using manifest %s (project %q)", m.Dir, m.Project.Name)
	}

	if *lspMode {
		if err := server.NewLSP(version).Run(); err != nil {
			log.Errorf("language server: %s", err)
			return 1
		}
		return session.ExitOK
	}

	opts := options{
		interactive: *interactive,
		checkOnly:   *checkOnly,
		report:      *reportPath,
		typeCheck:   m.TypeCheckEnabled() && !*noTypeCheck,
		path:        flag.Arg(0),
	}
	if opts.path == "" {
		opts.path = m.EntryPath()
	}
	if m != nil {
		opts.history = m.HistoryPath()
	}

	if opts.path == "" {
		if opts.checkOnly {
			fmt.Fprintln(os.Stderr, "Error: -check needs a file")
			return session.ExitUsage
		}
		return runREPL(newSession(opts), opts)
	}

	s := newSession(opts)
	code := runFile(s, opts)
	if opts.interactive && code != exitIOErr {
		s.Reset()
		return runREPL(s, opts)
	}
	return code
}

// flagSet reports whether the named flag was given on the command line.
func flagSet(name string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

// newSession creates a session that prints diagnostics to stderr.
func newSession(opts options) *session.Session {
	return session.New(session.Options{
		Out:       os.Stdout,
		TypeCheck: opts.typeCheck,
		OnDiagnostic: func(d session.Diagnostic) {
			fmt.Fprintln(os.Stderr, d)
		},
	})
}

// runFile runs or checks the program at opts.path and returns the exit
// status.
func runFile(s *session.Session, opts options) int {
	source, err := os.ReadFile(opts.path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitIOErr
	}

	if opts.checkOnly {
		s.Check(string(source))
	} else if err := s.Run(string(source)); err != nil && !errors.Is(err, session.ErrStatic) {
		log.Debugf("%s: %s", opts.path, err)
	}

	if opts.report != "" {
		if err := session.WriteReport(opts.report, s.Report(opts.path)); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return exitIOErr
		}
	}
	return s.ExitCode()
}
