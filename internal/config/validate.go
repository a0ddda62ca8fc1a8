package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateFeeds(); err != nil {
		return err
	}
	if err := c.validateFetch(); err != nil {
		return err
	}
	if err := c.validateDownload(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.StorageRoot) == "" {
		return errors.New("paths.storage_root must be set")
	}
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return errors.New("paths.data_dir must be set")
	}
	return nil
}

func (c *Config) validateFeeds() error {
	seen := make(map[string]string, len(c.Feeds))
	for i, feed := range c.Feeds {
		if feed.URL == "" {
			return fmt.Errorf("feeds[%d].url must be set", i)
		}
		parsed, err := url.Parse(feed.URL)
		if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
			return fmt.Errorf("feeds[%d].url %q must be an http(s) URL", i, feed.URL)
		}
		if prior, exists := seen[feed.URL]; exists {
			return fmt.Errorf("feeds[%d].url %q duplicates feed %q", i, feed.URL, prior)
		}
		name := feed.Name
		if name == "" {
			name = feed.URL
		}
		seen[feed.URL] = name
	}
	return nil
}

func (c *Config) validateFetch() error {
	if err := ensurePositiveMap(map[string]int{
		"fetch.interval_minutes": c.Fetch.IntervalMinutes,
		"fetch.timeout_seconds":  c.Fetch.TimeoutSeconds,
		"fetch.max_concurrency":  c.Fetch.MaxConcurrency,
	}); err != nil {
		return err
	}
	if c.Fetch.RequestsPerSecond <= 0 {
		return errors.New("fetch.requests_per_second must be positive")
	}
	return nil
}

func (c *Config) validateDownload() error {
	return ensurePositiveMap(map[string]int{
		"download.max_concurrency":             c.Download.MaxConcurrency,
		"download.timeout_seconds":             c.Download.TimeoutSeconds,
		"download.retry_limit":                 c.Download.RetryLimit,
		"download.stale_claim_timeout_minutes": c.Download.StaleClaimTimeoutMinutes,
	})
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
