package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Codecs maps a configured target codec to its ffmpeg encoder name and
// destination extension. The extension is fixed per codec so canonical paths
// never depend on the source file.
var Codecs = map[string]struct {
	Encoder   string
	Extension string
}{
	"mp3":  {Encoder: "libmp3lame", Extension: ".mp3"},
	"opus": {Encoder: "libopus", Extension: ".opus"},
	"flac": {Encoder: "flac", Extension: ".flac"},
}

// Validate reports configuration problems that must abort startup.
func (c *Config) Validate() error {
	var problems []string

	if c.Jellyfin.URL == "" {
		problems = append(problems, "jellyfin.url is required")
	} else if parsed, err := url.Parse(c.Jellyfin.URL); err != nil || parsed.Scheme == "" || parsed.Host == "" {
		problems = append(problems, fmt.Sprintf("jellyfin.url %q is not a valid URL", c.Jellyfin.URL))
	}
	if c.Jellyfin.APIKey == "" {
		problems = append(problems, "jellyfin.api_key is required")
	}
	if c.Jellyfin.UserID == "" {
		problems = append(problems, "jellyfin.user_id is required")
	}
	if strings.TrimSpace(c.Sync.Root) == "" {
		problems = append(problems, "sync.root is required")
	}
	if _, ok := Codecs[c.Sync.Codec]; !ok {
		problems = append(problems, fmt.Sprintf("sync.codec %q is not supported", c.Sync.Codec))
	}
	if c.History.Enabled && strings.TrimSpace(c.History.Path) == "" {
		problems = append(problems, "history.path is required when history is enabled")
	}
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("logging.format %q is not supported", c.Logging.Format))
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// TargetExtension returns the destination file extension for the configured
// codec, including the leading dot.
func (c *Config) TargetExtension() string {
	return Codecs[c.Sync.Codec].Extension
}

// TargetEncoder returns the ffmpeg encoder name for the configured codec.
func (c *Config) TargetEncoder() string {
	return Codecs[c.Sync.Codec].Encoder
}
