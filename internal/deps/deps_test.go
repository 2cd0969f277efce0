package deps

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"favsync/internal/services"
	"favsync/internal/testsupport"
)

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := filepath.Join(binDir, "present")
	script := []byte("#!/bin/sh\nexit 0\n")
	if err := os.WriteFile(present, script, 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}
	if !results[0].Available {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}
	if results[0].Detail != "" {
		t.Fatalf("unexpected detail for available dependency: %s", results[0].Detail)
	}
	if results[1].Available {
		t.Fatalf("expected missing binary to be unavailable")
	}
	if results[1].Detail == "" {
		t.Fatalf("expected detail message for missing binary")
	}
}

func TestVerifyWithStubbedFFmpeg(t *testing.T) {
	testsupport.WithStubbedBinaries(t, map[string]string{"ffmpeg": ""})
	cfg := testsupport.NewConfig(t)
	if err := Verify(cfg); err != nil {
		t.Fatalf("Verify: %v", err)
	}
}

func TestVerifyMissingFFmpeg(t *testing.T) {
	t.Setenv("PATH", t.TempDir())
	cfg := testsupport.NewConfig(t)
	err := Verify(cfg)
	if err == nil {
		t.Fatal("expected error for missing ffmpeg")
	}
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration marker, got %v", err)
	}
	if !services.IsFatal(err) {
		t.Fatalf("missing binary must be fatal, got %v", err)
	}
}
