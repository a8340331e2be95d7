package config

const (
	defaultDataDir              = "~/.local/share/prodflow"
	defaultLogDir               = "~/.local/share/prodflow/logs"
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	defaultLogRetentionDays     = 60
	defaultDeadlinePollInterval = 60
	defaultAlertWindowMinutes   = 120
	defaultErrorRetryInterval   = 10
	defaultHistoryRetentionDays = 365
	defaultRequestTimeout       = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Workflow: Workflow{
			DeadlinePollInterval: defaultDeadlinePollInterval,
			AlertWindowMinutes:   defaultAlertWindowMinutes,
			ErrorRetryInterval:   defaultErrorRetryInterval,
			HistoryRetentionDays: defaultHistoryRetentionDays,
		},
		Identity: Identity{
			RequestTimeout: defaultRequestTimeout,
		},
		Attachments: Attachments{
			RequestTimeout: defaultRequestTimeout,
		},
		Notifications: Notifications{
			RequestTimeout: defaultRequestTimeout,
			Deadlines:      true,
			Transitions:    true,
			Completion:     true,
			Errors:         true,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
