package config

import (
	"strings"
)

// normalize expands paths and trims string fields before validation.
func (c *Config) normalize() error {
	c.Jellyfin.URL = strings.TrimRight(strings.TrimSpace(c.Jellyfin.URL), "/")
	c.Jellyfin.APIKey = strings.TrimSpace(c.Jellyfin.APIKey)
	c.Jellyfin.UserID = strings.TrimSpace(c.Jellyfin.UserID)
	if c.Jellyfin.RequestsPerSecond <= 0 {
		c.Jellyfin.RequestsPerSecond = defaultRequestsPerSecond
	}

	c.Sync.Codec = strings.ToLower(strings.TrimSpace(c.Sync.Codec))
	if c.Sync.Codec == "" {
		c.Sync.Codec = defaultCodec
	}
	if c.Sync.Quality < 0 {
		c.Sync.Quality = defaultQuality
	}
	if c.Sync.SampleRate <= 0 {
		c.Sync.SampleRate = defaultSampleRate
	}
	if c.Sync.Channels <= 0 {
		c.Sync.Channels = defaultChannels
	}
	if c.Sync.Workers < 0 {
		c.Sync.Workers = 0
	}

	root, err := expandPath(c.Sync.Root)
	if err != nil {
		return err
	}
	c.Sync.Root = root

	if strings.TrimSpace(c.History.Path) != "" {
		historyPath, err := expandPath(c.History.Path)
		if err != nil {
			return err
		}
		c.History.Path = historyPath
	}

	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyRequestTimeout
	}
	return nil
}
