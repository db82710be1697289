package manifest

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	tomlContent := `
[project]
name = "test-app"
version = "0.1.0"

[source]
entry = "main.ks"

[check]
typecheck = false

[log]
verbosity = 2
file = "logs/kestrel.log"

[repl]
history = "/tmp/history"
`
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(tomlContent), 0644); err != nil {
		t.Fatal(err)
	}

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if m.Project.Name != "test-app" {
		t.Errorf("project name = %q, want test-app", m.Project.Name)
	}
	if m.Project.Version != "0.1.0" {
		t.Errorf("project version = %q, want 0.1.0", m.Project.Version)
	}
	if m.Source.Entry != "main.ks" {
		t.Errorf("source entry = %q, want main.ks", m.Source.Entry)
	}
	if m.TypeCheckEnabled() {
		t.Error("typecheck = true, want false")
	}
	if m.Log.Verbosity != 2 {
		t.Errorf("log verbosity = %d, want 2", m.Log.Verbosity)
	}
	if got := m.EntryPath(); got != filepath.Join(m.Dir, "main.ks") {
		t.Errorf("entry path = %q", got)
	}
	if got := m.LogFilePath(); got == nil || *got != filepath.Join(m.Dir, "logs", "kestrel.log") {
		t.Errorf("log file path = %v", got)
	}
	if got := m.HistoryPath(); got != "/tmp/history" {
		t.Errorf("history path = %q, want /tmp/history", got)
	}
}

func TestLoadManifestDefaults(t *testing.T) {
	dir := t.TempDir()
	tomlContent := `
[project]
name = "minimal"
`
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(tomlContent), 0644); err != nil {
		t.Fatal(err)
	}

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if !m.TypeCheckEnabled() {
		t.Error("typecheck should default to true")
	}
	if m.EntryPath() != "" {
		t.Errorf("entry path = %q, want empty", m.EntryPath())
	}
	if m.LogFilePath() != nil {
		t.Errorf("log file path = %v, want nil", *m.LogFilePath())
	}
	if m.HistoryPath() != filepath.Join(m.Dir, ".kestrel_history") {
		t.Errorf("history path = %q", m.HistoryPath())
	}
}

func TestLoadManifestSyntaxError(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte("[project\nname ="), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(dir); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestNilManifestDefaults(t *testing.T) {
	var m *Manifest
	if !m.TypeCheckEnabled() {
		t.Error("nil manifest should enable typecheck")
	}
	if m.EntryPath() != "" || m.LogFilePath() != nil {
		t.Error("nil manifest should have no entry or log file")
	}
}

func TestFindAndLoad(t *testing.T) {
	dir := t.TempDir()
	subDir := filepath.Join(dir, "a", "b", "c")
	if err := os.MkdirAll(subDir, 0755); err != nil {
		t.Fatal(err)
	}

	tomlContent := `[project]
name = "found-project"
`
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(tomlContent), 0644); err != nil {
		t.Fatal(err)
	}

	// Should find manifest when starting from a deep subdirectory
	m, err := FindAndLoad(subDir)
	if err != nil {
		t.Fatalf("FindAndLoad failed: %v", err)
	}
	if m == nil {
		t.Fatal("FindAndLoad returned nil")
	}
	if m.Project.Name != "found-project" {
		t.Errorf("project name = %q, want found-project", m.Project.Name)
	}
}

func TestFindAndLoadNotFound(t *testing.T) {
	dir := t.TempDir()
	m, err := FindAndLoad(dir)
	if err != nil {
		t.Fatalf("FindAndLoad error: %v", err)
	}
	if m != nil {
		t.Error("expected nil manifest when no kestrel.toml exists")
	}
}
