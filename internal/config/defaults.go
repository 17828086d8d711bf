package config

const (
	defaultDataDir           = "~/.local/share/scribe"
	defaultLogDir            = "~/.local/share/scribe/logs"
	defaultStorageRegion     = "us-east-1"
	defaultPartSizeMiB       = 8
	defaultRequestTimeout    = 30
	defaultNotifyTimeout     = 10
	defaultPollInterval      = 5
	defaultMaxPolls          = 360
	defaultCompletionPauseMS = 500
	defaultAPIBind           = "127.0.0.1:7583"
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Storage: Storage{
			Region:         defaultStorageRegion,
			PartSizeMiB:    defaultPartSizeMiB,
			RequestTimeout: defaultRequestTimeout,
		},
		Transcribe: Transcribe{
			RequestTimeout: defaultRequestTimeout,
		},
		Workflow: Workflow{
			PollInterval:      defaultPollInterval,
			MaxPolls:          defaultMaxPolls,
			CompletionPauseMS: defaultCompletionPauseMS,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
		},
		API: API{
			Bind: defaultAPIBind,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
