package config

const (
	defaultSyncRoot             = "~/music/favorites"
	defaultCodec                = "mp3"
	defaultQuality              = 2
	defaultSampleRate           = 44100
	defaultChannels             = 2
	defaultRequestsPerSecond    = 8.0
	defaultLogFormat            = ""
	defaultLogLevel             = "info"
	defaultHistoryPath          = "~/.local/share/favsync/history.db"
	defaultNotifyRequestTimeout = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Jellyfin: Jellyfin{
			RequestsPerSecond: defaultRequestsPerSecond,
		},
		Sync: Sync{
			Root:       defaultSyncRoot,
			Codec:      defaultCodec,
			Quality:    defaultQuality,
			SampleRate: defaultSampleRate,
			Channels:   defaultChannels,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		History: History{
			Enabled: true,
			Path:    defaultHistoryPath,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
		},
	}
}
