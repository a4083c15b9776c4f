package feed

import (
	"fmt"
	"time"

	"postlabor-feed/internal/domain/entity"
)

const (
	// DefaultBatchLimit is the number of cards shown by the feed.
	DefaultBatchLimit = 6
	// DefaultPollInterval is the refresh cadence.
	DefaultPollInterval = 5 * time.Minute
	// DefaultFetchTimeout bounds a single fetch.
	DefaultFetchTimeout = 10 * time.Second

	maxBatchLimit = 50
)

// Config holds the controller settings.
type Config struct {
	BatchLimit   int
	PollInterval time.Duration
	FetchTimeout time.Duration
	Mode         Mode
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		BatchLimit:   DefaultBatchLimit,
		PollInterval: DefaultPollInterval,
		FetchTimeout: DefaultFetchTimeout,
		Mode:         ModeLatest,
	}
}

// withDefaults fills zero fields from DefaultConfig.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.BatchLimit == 0 {
		c.BatchLimit = def.BatchLimit
	}
	if c.PollInterval == 0 {
		c.PollInterval = def.PollInterval
	}
	if c.FetchTimeout == 0 {
		c.FetchTimeout = def.FetchTimeout
	}
	if c.Mode == "" {
		c.Mode = def.Mode
	}
	return c
}

// Validate checks the configuration after defaults are applied.
func (c Config) Validate() error {
	if c.BatchLimit < 1 || c.BatchLimit > maxBatchLimit {
		return fmt.Errorf("%w: batch limit must be between 1 and %d, got %d",
			entity.ErrInvalidInput, maxBatchLimit, c.BatchLimit)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("%w: poll interval must be positive, got %v", entity.ErrInvalidInput, c.PollInterval)
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("%w: fetch timeout must be positive, got %v", entity.ErrInvalidInput, c.FetchTimeout)
	}
	if _, err := ParseMode(string(c.Mode)); err != nil {
		return err
	}
	return nil
}
