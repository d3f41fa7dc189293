package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"quill/internal/config"
	"quill/internal/testsupport"
)

func writeConfigFile(t *testing.T, cfg *config.Config) string {
	t.Helper()

	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	path := filepath.Join(testsupport.BaseDir(cfg), "quill.toml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

const testUnit = "## 09:15 - Morning\n\nMorning! Meeting at noon.\n"

func TestProcessCommandEndToEnd(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	configPath := writeConfigFile(t, cfg)
	testsupport.WriteStagedUnit(t, cfg.Paths.StagingDir, "alice", "2026-01-04", testUnit)

	out, err := runCommand(t, "--config", configPath, "process")
	if err != nil {
		t.Fatalf("process: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Processed") {
		t.Fatalf("output missing summary:\n%s", out)
	}

	note, err := os.ReadFile(filepath.Join(cfg.Paths.ProcessedDir, "alice", "2026-01-04.md"))
	if err != nil {
		t.Fatalf("read note: %v", err)
	}
	if !strings.Contains(string(note), "Meeting at noon") {
		t.Fatalf("note = %q", note)
	}
	if !strings.Contains(string(note), "#meeting") {
		t.Fatalf("rule tag missing from note:\n%s", note)
	}
}

func TestProcessCommandDryRunWritesNothing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	configPath := writeConfigFile(t, cfg)
	testsupport.WriteStagedUnit(t, cfg.Paths.StagingDir, "alice", "2026-01-04", testUnit)

	out, err := runCommand(t, "--config", configPath, "process", "--dry-run")
	if err != nil {
		t.Fatalf("process --dry-run: %v\n%s", err, out)
	}
	if _, err := os.Stat(filepath.Join(cfg.Paths.ProcessedDir, "alice", "2026-01-04.md")); !os.IsNotExist(err) {
		t.Fatal("dry run wrote a note")
	}
}

func TestRegisterThenStatus(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	configPath := writeConfigFile(t, cfg)
	testsupport.WriteStagedUnit(t, cfg.Paths.StagingDir, "alice", "2026-01-04", testUnit)

	out, err := runCommand(t, "--config", configPath, "register")
	if err != nil {
		t.Fatalf("register: %v\n%s", err, out)
	}
	if !strings.Contains(out, "1 now pending") {
		t.Fatalf("register output:\n%s", out)
	}

	out, err = runCommand(t, "--config", configPath, "--json", "status")
	if err != nil {
		t.Fatalf("status: %v\n%s", err, out)
	}
	if !strings.Contains(out, "alice") {
		t.Fatalf("status output missing contact:\n%s", out)
	}
}

func TestProcessCommandJSONReport(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	configPath := writeConfigFile(t, cfg)
	testsupport.WriteStagedUnit(t, cfg.Paths.StagingDir, "bob", "2026-02-01", testUnit)

	out, err := runCommand(t, "--config", configPath, "--json", "process")
	if err != nil {
		t.Fatalf("process --json: %v\n%s", err, out)
	}
	if !strings.Contains(out, "\"units_processed\": 1") {
		t.Fatalf("json report:\n%s", out)
	}
}
