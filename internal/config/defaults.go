package config

const (
	defaultStorageRoot              = "~/podcasts"
	defaultDataDir                  = "~/.local/share/podpull"
	defaultLogDir                   = "~/.local/share/podpull/logs"
	defaultAPIBind                  = "127.0.0.1:7397"
	defaultFetchIntervalMinutes     = 360
	defaultFetchTimeoutSeconds      = 30
	defaultFetchMaxConcurrency      = 4
	defaultFetchRequestsPerSecond   = 2.0
	defaultUserAgent                = "podpull/dev"
	defaultDownloadMaxConcurrency   = 3
	defaultDownloadTimeoutSeconds   = 300
	defaultDownloadRetryLimit       = 3
	defaultStaleClaimTimeoutMinutes = defaultFetchIntervalMinutes
	defaultMinFreeSpaceMiB          = 512
	defaultLogFormat                = "console"
	defaultLogLevel                 = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StorageRoot: defaultStorageRoot,
			DataDir:     defaultDataDir,
			LogDir:      defaultLogDir,
			APIBind:     defaultAPIBind,
		},
		Fetch: Fetch{
			IntervalMinutes:   defaultFetchIntervalMinutes,
			TimeoutSeconds:    defaultFetchTimeoutSeconds,
			MaxConcurrency:    defaultFetchMaxConcurrency,
			RequestsPerSecond: defaultFetchRequestsPerSecond,
			UserAgent:         defaultUserAgent,
		},
		Download: Download{
			MaxConcurrency:           defaultDownloadMaxConcurrency,
			TimeoutSeconds:           defaultDownloadTimeoutSeconds,
			RetryLimit:               defaultDownloadRetryLimit,
			StaleClaimTimeoutMinutes: defaultStaleClaimTimeoutMinutes,
			MinFreeSpaceMiB:          defaultMinFreeSpaceMiB,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
