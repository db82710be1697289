package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/peterh/liner"

	"github.com/chazu/kestrel/compiler"
	"github.com/chazu/kestrel/session"
)

const (
	historyFile = ".kestrel_history"
	promptMain  = ">> "
	promptCont  = ".. "
)

const helpText = `REPL commands:
  :help, :h     Show this help
  :globals      List global names and their types
  :quit         Exit the REPL
Ctrl+C cancels the current input, Ctrl+D exits.`

// runREPL reads programs line by line and runs them in s until EOF. Globals,
// resolver state and checker scope persist between inputs.
func runREPL(s *session.Session, opts options) int {
	fmt.Printf("Kestrel %s REPL (type :help for commands)\n", version)

	histPath := opts.history
	if histPath == "" {
		home, _ := os.UserHomeDir()
		histPath = filepath.Join(home, historyFile)
	}

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		} else {
			log.Errorf("cannot save history: %s", err)
		}
	}()

	for {
		src, ok := readInput(ln)
		if !ok {
			fmt.Println()
			return session.ExitOK
		}
		trimmed := strings.TrimSpace(src)
		if trimmed == "" {
			continue
		}
		ln.AppendHistory(src)

		if strings.HasPrefix(trimmed, ":") {
			if quit := handleCommand(s, trimmed); quit {
				return session.ExitOK
			}
			continue
		}

		// Diagnostics are printed as they are reported; only the flags need
		// clearing so one bad input does not taint the next.
		s.Reset()
		if err := s.Run(src); err != nil {
			log.Debugf("input failed: %s", err)
		}
	}
}

// readInput prompts until the collected lines form a complete program.
// ok is false at end of input. A Ctrl-C discards what was typed.
func readInput(ln *liner.State) (string, bool) {
	var b strings.Builder
	for {
		prompt := promptMain
		if b.Len() > 0 {
			prompt = promptCont
		}
		line, err := ln.Prompt(prompt)
		if errors.Is(err, liner.ErrPromptAborted) {
			b.Reset()
			continue
		}
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if err != nil {
			log.Errorf("reading input: %s", err)
			return "", false
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if strings.HasPrefix(strings.TrimSpace(src), ":") || !incomplete(src) {
			return src, true
		}
	}
}

// incomplete reports whether src stops in the middle of a construct.
func incomplete(src string) bool {
	p := compiler.NewParser(src)
	p.ParseProgram()
	return p.Incomplete()
}

// handleCommand runs a REPL meta-command and reports whether to quit.
func handleCommand(s *session.Session, cmd string) bool {
	switch cmd {
	case ":quit", ":q":
		return true
	case ":help", ":h", ":?":
		fmt.Println(helpText)
	case ":globals":
		globals := s.Checker().Globals()
		names := make([]string, 0, len(globals))
		for name := range globals {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Printf("  %-12s %s\n", name, globals[name])
		}
	default:
		fmt.Printf("Unknown command: %s (type :help for commands)\n", cmd)
	}
	return false
}
