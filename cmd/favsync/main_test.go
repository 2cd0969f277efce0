package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestConfigInitWritesSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")
	out, err := executeCommand(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, target) {
		t.Fatalf("output should mention target path, got %q", out)
	}

	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	for _, section := range []string{"[jellyfin]", "[sync]", "[logging]", "[history]", "[notifications]"} {
		if !strings.Contains(string(data), section) {
			t.Fatalf("sample missing %s section", section)
		}
	}
}

func TestConfigInitRefusesOverwrite(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")
	if _, err := executeCommand(t, "config", "init", "--path", target); err != nil {
		t.Fatalf("first init: %v", err)
	}
	if _, err := executeCommand(t, "config", "init", "--path", target); err == nil {
		t.Fatal("second init without --overwrite should fail")
	}
	if _, err := executeCommand(t, "config", "init", "--path", target, "--overwrite"); err != nil {
		t.Fatalf("init with --overwrite: %v", err)
	}
}

func TestConfigPathReportsExplicitFlag(t *testing.T) {
	target := filepath.Join(t.TempDir(), "custom.toml")
	out, err := executeCommand(t, "--config", target, "config", "path")
	if err != nil {
		t.Fatalf("config path: %v", err)
	}
	if !strings.Contains(out, target) {
		t.Fatalf("expected %q in output, got %q", target, out)
	}
	if !strings.Contains(out, "not present") {
		t.Fatalf("expected missing-file note, got %q", out)
	}
}

func TestRenderTable(t *testing.T) {
	out := renderTable(
		[]string{"Name", "Count"},
		[][]string{{"alpha", "3"}, {"beta", "12"}},
		[]columnAlignment{alignLeft, alignRight},
	)
	if !strings.Contains(out, "Name") || !strings.Contains(out, "beta") {
		t.Fatalf("unexpected table output:\n%s", out)
	}
}
