package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTestConfig(t *testing.T) string {
	t.Helper()
	base := t.TempDir()
	configPath := filepath.Join(base, "copernicus.toml")
	content := fmt.Sprintf(`[paths]
staging_dir = %q
log_dir = %q
api_bind = ""

[storage]
backend = "local"
local_dir = %q
`,
		filepath.Join(base, "staging"),
		filepath.Join(base, "logs"),
		filepath.Join(base, "objects"),
	)
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return configPath
}

func runCommand(t *testing.T, configPath string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", configPath}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestSubmitFallsBackToStore(t *testing.T) {
	configPath := writeTestConfig(t)

	out, err := runCommand(t, configPath, "submit", "Gravitational wave detectors", "--category", "physics", "--kind", "evergreen")
	if err != nil {
		t.Fatalf("submit: %v\n%s", err, out)
	}
	if !strings.Contains(out, "accepted") {
		t.Fatalf("expected acceptance message, got %q", out)
	}

	out, err = runCommand(t, configPath, "jobs", "list")
	if err != nil {
		t.Fatalf("jobs list: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Gravitational wave detectors") {
		t.Fatalf("expected listed topic, got %q", out)
	}
}

func TestSubmitRejectsUnknownCategory(t *testing.T) {
	configPath := writeTestConfig(t)

	out, err := runCommand(t, configPath, "submit", "Anything", "--category", "alchemy")
	if err == nil {
		t.Fatalf("expected category validation error, got output %q", out)
	}
}

func TestShowDisplaysJobDetails(t *testing.T) {
	configPath := writeTestConfig(t)

	if out, err := runCommand(t, configPath, "submit", "Protein folding", "--category", "biology"); err != nil {
		t.Fatalf("submit: %v\n%s", err, out)
	}

	out, err := runCommand(t, configPath, "show", "1")
	if err != nil {
		t.Fatalf("show: %v\n%s", err, out)
	}
	for _, want := range []string{"Job #1", "Protein folding", "biology", "Accepted"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output, got %q", want, out)
		}
	}
}

func TestShowUnknownJobFails(t *testing.T) {
	configPath := writeTestConfig(t)

	if _, err := runCommand(t, configPath, "show", "99"); err == nil {
		t.Fatal("expected error for unknown job")
	}
}

func TestJobsStatsEmptyQueue(t *testing.T) {
	configPath := writeTestConfig(t)

	out, err := runCommand(t, configPath, "jobs", "stats")
	if err != nil {
		t.Fatalf("jobs stats: %v\n%s", err, out)
	}
	if !strings.Contains(out, "No jobs found") {
		t.Fatalf("expected empty queue message, got %q", out)
	}
}

func TestJobsRetryWithNoFailures(t *testing.T) {
	configPath := writeTestConfig(t)

	out, err := runCommand(t, configPath, "jobs", "retry")
	if err != nil {
		t.Fatalf("jobs retry: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Retried 0 failed jobs") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestJobsRemove(t *testing.T) {
	configPath := writeTestConfig(t)

	if out, err := runCommand(t, configPath, "submit", "Group theory primer", "--category", "mathematics"); err != nil {
		t.Fatalf("submit: %v\n%s", err, out)
	}
	out, err := runCommand(t, configPath, "jobs", "remove", "1")
	if err != nil {
		t.Fatalf("jobs remove: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Removed 1 jobs") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestConfigInitWritesSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")

	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"config", "init", "--path", target})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("config init: %v\n%s", err, out.String())
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected sample config at %s: %v", target, err)
	}

	cmd = newRootCommand()
	out.Reset()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"config", "init", "--path", target})
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error when config already exists")
	}
}

func TestParseVoiceFlags(t *testing.T) {
	voices, err := parseVoiceFlags([]string{"HOST=nova", "expert=echo"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if voices["HOST"] != "nova" || voices["expert"] != "echo" {
		t.Fatalf("unexpected voices %v", voices)
	}
	if _, err := parseVoiceFlags([]string{"HOST"}); err == nil {
		t.Fatal("expected error for missing separator")
	}
}
