// Package manifest handles kestrel.toml project configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FileName is the manifest file looked for in a project directory.
const FileName = "kestrel.toml"

// Manifest represents a kestrel.toml project configuration.
type Manifest struct {
	Project Project    `toml:"project"`
	Source  Source     `toml:"source"`
	Check   Check      `toml:"check"`
	Log     Log        `toml:"log"`
	REPL    REPLConfig `toml:"repl"`

	// Dir is the directory containing the kestrel.toml file (set at load time).
	Dir string `toml:"-"`
}

// Project contains project metadata.
type Project struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

// Source configures the program to run.
type Source struct {
	Entry string `toml:"entry"`
}

// Check configures the static passes.
type Check struct {
	TypeCheck *bool `toml:"typecheck"`
}

// Log configures commonlog.
type Log struct {
	Verbosity int    `toml:"verbosity"`
	File      string `toml:"file"`
}

// REPLConfig configures the interactive prompt.
type REPLConfig struct {
	History string `toml:"history"`
}

// Load parses a kestrel.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	// Defaults
	if m.Check.TypeCheck == nil {
		enabled := true
		m.Check.TypeCheck = &enabled
	}
	if m.REPL.History == "" {
		m.REPL.History = ".kestrel_history"
	}

	return &m, nil
}

// FindAndLoad walks up from startDir to find a kestrel.toml file,
// then loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

// TypeCheckEnabled reports whether the checker should run. A nil manifest
// means defaults.
func (m *Manifest) TypeCheckEnabled() bool {
	if m == nil || m.Check.TypeCheck == nil {
		return true
	}
	return *m.Check.TypeCheck
}

// EntryPath returns the absolute path of the entry program, or "" when none
// is configured.
func (m *Manifest) EntryPath() string {
	if m == nil || m.Source.Entry == "" {
		return ""
	}
	if filepath.IsAbs(m.Source.Entry) {
		return m.Source.Entry
	}
	return filepath.Join(m.Dir, m.Source.Entry)
}

// LogFilePath returns the absolute log file path, or nil to log to stderr.
func (m *Manifest) LogFilePath() *string {
	if m == nil || m.Log.File == "" {
		return nil
	}
	path := m.Log.File
	if !filepath.IsAbs(path) {
		path = filepath.Join(m.Dir, path)
	}
	return &path
}

// HistoryPath returns the absolute REPL history file path.
func (m *Manifest) HistoryPath() string {
	if filepath.IsAbs(m.REPL.History) {
		return m.REPL.History
	}
	return filepath.Join(m.Dir, m.REPL.History)
}
