package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeFeeds()
	c.normalizeFetch()
	c.normalizeDownload()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.StorageRoot, err = expandPath(c.Paths.StorageRoot); err != nil {
		return fmt.Errorf("paths.storage_root: %w", err)
	}
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	return nil
}

func (c *Config) normalizeFeeds() {
	for i := range c.Feeds {
		c.Feeds[i].Name = strings.TrimSpace(c.Feeds[i].Name)
		c.Feeds[i].URL = strings.TrimSpace(c.Feeds[i].URL)
	}
}

func (c *Config) normalizeFetch() {
	if c.Fetch.IntervalMinutes <= 0 {
		c.Fetch.IntervalMinutes = defaultFetchIntervalMinutes
	}
	if c.Fetch.TimeoutSeconds <= 0 {
		c.Fetch.TimeoutSeconds = defaultFetchTimeoutSeconds
	}
	if c.Fetch.MaxConcurrency <= 0 {
		c.Fetch.MaxConcurrency = defaultFetchMaxConcurrency
	}
	if c.Fetch.MaxEntriesPerFeed < 0 {
		c.Fetch.MaxEntriesPerFeed = 0
	}
	if c.Fetch.RequestsPerSecond <= 0 {
		c.Fetch.RequestsPerSecond = defaultFetchRequestsPerSecond
	}
	c.Fetch.UserAgent = strings.TrimSpace(c.Fetch.UserAgent)
	if c.Fetch.UserAgent == "" {
		if value, ok := os.LookupEnv("PODPULL_USER_AGENT"); ok {
			c.Fetch.UserAgent = strings.TrimSpace(value)
		}
	}
	if c.Fetch.UserAgent == "" {
		c.Fetch.UserAgent = defaultUserAgent
	}
}

func (c *Config) normalizeDownload() {
	if c.Download.MaxConcurrency <= 0 {
		c.Download.MaxConcurrency = defaultDownloadMaxConcurrency
	}
	if c.Download.TimeoutSeconds <= 0 {
		c.Download.TimeoutSeconds = defaultDownloadTimeoutSeconds
	}
	if c.Download.RetryLimit <= 0 {
		c.Download.RetryLimit = defaultDownloadRetryLimit
	}
	if c.Download.StaleClaimTimeoutMinutes <= 0 {
		c.Download.StaleClaimTimeoutMinutes = c.Fetch.IntervalMinutes
	}
	if c.Download.MinFreeSpaceMiB < 0 {
		c.Download.MinFreeSpaceMiB = 0
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
