package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// WithStubbedBinaries writes stub executables for the provided names and
// prepends their directory to PATH for the remainder of the test. An empty
// script value installs a stub that exits successfully.
func WithStubbedBinaries(t testing.TB, scripts map[string]string) {
	t.Helper()

	binDir := filepath.Join(t.TempDir(), "bin")
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		t.Fatalf("mkdir bin dir: %v", err)
	}
	for name, script := range scripts {
		if script == "" {
			script = "#!/bin/sh\nexit 0\n"
		}
		target := filepath.Join(binDir, name)
		if err := os.WriteFile(target, []byte(script), 0o755); err != nil {
			t.Fatalf("write stub %s: %v", name, err)
		}
	}

	t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))
}
