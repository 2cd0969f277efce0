// Package testsupport provides shared helpers for package tests: seeded
// configurations, stub external binaries, and file fixtures.
package testsupport

import (
	"path/filepath"
	"testing"

	"favsync/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Jellyfin.URL = "http://127.0.0.1:0"
	cfg.Jellyfin.APIKey = "test-key"
	cfg.Jellyfin.UserID = "test-user"
	cfg.Sync.Root = filepath.Join(base, "library")
	cfg.Sync.Workers = 2
	cfg.History.Path = filepath.Join(base, "history.db")

	for _, opt := range opts {
		opt(&cfg)
	}

	return &cfg
}

// WithJellyfin points the test config at the given server URL.
func WithJellyfin(url string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Jellyfin.URL = url
	}
}

// WithCodec selects the target codec on the test config.
func WithCodec(codec string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Sync.Codec = codec
	}
}

// WithHistoryDisabled turns off run-history persistence.
func WithHistoryDisabled() ConfigOption {
	return func(cfg *config.Config) {
		cfg.History.Enabled = false
	}
}
