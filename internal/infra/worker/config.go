package worker

import (
	"errors"
	"fmt"
	"log/slog"
	"net/netip"
	"os"
	"strings"
	"time"

	"postlabor-feed/internal/domain/entity"
	"postlabor-feed/internal/infra/notifier"
	"postlabor-feed/internal/infra/research"
	"postlabor-feed/internal/pkg/config"
	"postlabor-feed/internal/usecase/announce"
	"postlabor-feed/internal/usecase/feed"
)

// Feed source kinds.
const (
	SourceResearch = "research"
	SourceRSS      = "rss"
)

const webhookTimeout = 10 * time.Second

// WatchConfig holds the configuration of the feedwatch daemon.
//
// Configuration sources:
//   - Environment variables (loaded via LoadConfigFromEnv)
//   - Default values (provided by DefaultConfig)
//
// Every field has a default, so the daemon can start with an empty
// environment.
type WatchConfig struct {
	// ResearchBaseURL is the research agent endpoint base.
	ResearchBaseURL string

	// BatchLimit is the number of updates per fetch (1-50).
	BatchLimit int

	// PollInterval is the refresh cadence (10s-24h).
	PollInterval time.Duration

	// FetchTimeout bounds one fetch (1s-2m).
	FetchTimeout time.Duration

	// Mode is "latest" or "archive".
	Mode string

	// Source is "research" or "rss". RSSURL is required for "rss".
	Source string
	RSSURL string

	// RateLimit and RateBurst bound calls to the research API.
	RateLimit float64
	RateBurst int

	// KeepAlive pings the research backend on a cron schedule so the
	// hosting platform does not spin it down.
	KeepAliveEnabled  bool
	KeepAliveSchedule string
	KeepAliveTimezone string

	HealthPort  int
	MetricsPort int
	StatusPort  int

	// TrustedProxies are the peers whose X-Forwarded-For and X-Real-IP
	// headers the status server honors when rate limiting. Empty means
	// clients are keyed by their TCP address only.
	TrustedProxies []netip.Prefix

	AnnounceMaxPerBatch   int
	AnnounceMaxConcurrent int

	Discord notifier.DiscordConfig
	Slack   notifier.SlackConfig
}

// DefaultConfig returns a WatchConfig with production defaults: the
// public research agent, 6 items every 5 minutes and a keep-alive ping
// every 10 minutes.
func DefaultConfig() WatchConfig {
	return WatchConfig{
		ResearchBaseURL:       research.DefaultBaseURL,
		BatchLimit:            feed.DefaultBatchLimit,
		PollInterval:          feed.DefaultPollInterval,
		FetchTimeout:          feed.DefaultFetchTimeout,
		Mode:                  string(feed.ModeLatest),
		Source:                SourceResearch,
		RateLimit:             2,
		RateBurst:             4,
		KeepAliveEnabled:      true,
		KeepAliveSchedule:     "*/10 * * * *",
		KeepAliveTimezone:     "UTC",
		HealthPort:            9091,
		MetricsPort:           9090,
		StatusPort:            8080,
		AnnounceMaxPerBatch:   announce.DefaultMaxPerBatch,
		AnnounceMaxConcurrent: announce.DefaultMaxConcurrent,
		Discord:               notifier.DiscordConfig{Timeout: webhookTimeout},
		Slack:                 notifier.SlackConfig{Timeout: webhookTimeout},
	}
}

// Validate checks every field and returns all problems joined together.
func (c *WatchConfig) Validate() error {
	var errs []error

	if err := config.ValidateHTTPURL(c.ResearchBaseURL); err != nil {
		errs = append(errs, fmt.Errorf("research base url: %w", err))
	}
	if err := config.ValidateIntRange(c.BatchLimit, research.MinLimit, research.MaxLimit); err != nil {
		errs = append(errs, fmt.Errorf("batch limit: %w", err))
	}
	if err := config.ValidateDuration(c.PollInterval, 10*time.Second, 24*time.Hour); err != nil {
		errs = append(errs, fmt.Errorf("poll interval: %w", err))
	}
	if err := config.ValidateDuration(c.FetchTimeout, time.Second, 2*time.Minute); err != nil {
		errs = append(errs, fmt.Errorf("fetch timeout: %w", err))
	}
	if _, err := feed.ParseMode(c.Mode); err != nil {
		errs = append(errs, fmt.Errorf("mode: %w", err))
	}
	switch c.Source {
	case SourceResearch:
	case SourceRSS:
		if err := entity.ValidateFeedURL(c.RSSURL); err != nil {
			errs = append(errs, fmt.Errorf("rss url: %w", err))
		}
	default:
		errs = append(errs, fmt.Errorf("source: must be %s or %s, got '%s'", SourceResearch, SourceRSS, c.Source))
	}
	if err := config.ValidateFloatRange(c.RateLimit, 0, 100); err != nil {
		errs = append(errs, fmt.Errorf("rate limit: %w", err))
	}
	if err := config.ValidateIntRange(c.RateBurst, 1, 100); err != nil {
		errs = append(errs, fmt.Errorf("rate burst: %w", err))
	}
	if c.KeepAliveEnabled {
		if err := config.ValidateCronSchedule(c.KeepAliveSchedule); err != nil {
			errs = append(errs, fmt.Errorf("keep-alive schedule: %w", err))
		}
		if err := config.ValidateTimezone(c.KeepAliveTimezone); err != nil {
			errs = append(errs, fmt.Errorf("keep-alive timezone: %w", err))
		}
	}
	for name, port := range map[string]int{"health": c.HealthPort, "metrics": c.MetricsPort, "status": c.StatusPort} {
		if err := config.ValidateIntRange(port, 1024, 65535); err != nil {
			errs = append(errs, fmt.Errorf("%s port: %w", name, err))
		}
	}
	if err := config.ValidateIntRange(c.AnnounceMaxPerBatch, 1, 50); err != nil {
		errs = append(errs, fmt.Errorf("announce max per batch: %w", err))
	}
	if err := config.ValidateIntRange(c.AnnounceMaxConcurrent, 1, 50); err != nil {
		errs = append(errs, fmt.Errorf("announce max concurrent: %w", err))
	}
	if c.Discord.Enabled {
		if err := validateDiscordURL(c.Discord.WebhookURL); err != nil {
			errs = append(errs, fmt.Errorf("discord webhook: %w", err))
		}
	}
	if c.Slack.Enabled {
		if err := validateSlackURL(c.Slack.WebhookURL); err != nil {
			errs = append(errs, fmt.Errorf("slack webhook: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed: %w", errors.Join(errs...))
	}
	return nil
}

// FeedConfig returns the controller settings.
func (c *WatchConfig) FeedConfig() feed.Config {
	mode, err := feed.ParseMode(c.Mode)
	if err != nil {
		mode = feed.ModeLatest
	}
	return feed.Config{
		BatchLimit:   c.BatchLimit,
		PollInterval: c.PollInterval,
		FetchTimeout: c.FetchTimeout,
		Mode:         mode,
	}
}

// ClientConfig returns the research client settings.
func (c *WatchConfig) ClientConfig() research.ClientConfig {
	cc := research.DefaultClientConfig()
	cc.BaseURL = c.ResearchBaseURL
	cc.Timeout = c.FetchTimeout
	cc.RateLimit = c.RateLimit
	cc.RateBurst = c.RateBurst
	return cc
}

// AnnounceConfig returns the announcer settings.
func (c *WatchConfig) AnnounceConfig() announce.Config {
	ac := announce.DefaultConfig()
	ac.MaxPerBatch = c.AnnounceMaxPerBatch
	ac.MaxConcurrent = c.AnnounceMaxConcurrent
	return ac
}

// LoadConfigFromEnv loads the daemon configuration from environment
// variables with automatic fallback to default values.
//
// This function implements the fail-open strategy:
//  1. Start with DefaultConfig() as base
//  2. Load and validate each field from its environment variable
//  3. On failure keep the default, log a warning and count the fallback
//  4. Never return an error; the result always passes Validate
//
// Webhook URLs carry secrets, so their warnings never echo the value. An
// enabled channel whose URL is invalid is disabled.
func LoadConfigFromEnv(logger *slog.Logger, metrics *WatcherMetrics) (*WatchConfig, error) {
	cfg := DefaultConfig()
	var cm *config.ConfigMetrics
	if metrics != nil {
		cm = metrics.ConfigMetrics
	}
	tr := config.NewTracker(logger, cm)

	cfg.ResearchBaseURL = config.Track(tr, "research_base_url",
		config.LoadEnvWithFallback("RESEARCH_API_BASE_URL", cfg.ResearchBaseURL, config.ValidateHTTPURL))
	cfg.ResearchBaseURL = entity.NormalizeBaseURL(cfg.ResearchBaseURL)

	cfg.BatchLimit = config.Track(tr, "batch_limit",
		config.LoadEnvInt("FEED_BATCH_LIMIT", cfg.BatchLimit, func(v int) error {
			return config.ValidateIntRange(v, research.MinLimit, research.MaxLimit)
		}))
	cfg.PollInterval = config.Track(tr, "poll_interval",
		config.LoadEnvDuration("FEED_POLL_INTERVAL", cfg.PollInterval, func(d time.Duration) error {
			return config.ValidateDuration(d, 10*time.Second, 24*time.Hour)
		}))
	cfg.FetchTimeout = config.Track(tr, "fetch_timeout",
		config.LoadEnvDuration("FEED_FETCH_TIMEOUT", cfg.FetchTimeout, func(d time.Duration) error {
			return config.ValidateDuration(d, time.Second, 2*time.Minute)
		}))
	cfg.Mode = strings.ToLower(config.Track(tr, "mode",
		config.LoadEnvWithFallback("FEED_MODE", cfg.Mode, config.ValidateOneOf(string(feed.ModeLatest), string(feed.ModeArchive)))))

	cfg.Source = strings.ToLower(config.Track(tr, "source",
		config.LoadEnvWithFallback("FEED_SOURCE", cfg.Source, config.ValidateOneOf(SourceResearch, SourceRSS))))
	cfg.RSSURL = config.Track(tr, "rss_url",
		config.LoadEnvWithFallback("FEED_RSS_URL", "", entity.ValidateFeedURL))
	if cfg.Source == SourceRSS && cfg.RSSURL == "" {
		cfg.Source = config.Track(tr, "source", config.Result[string]{
			Value:           SourceResearch,
			Warnings:        []string{"FEED_SOURCE=rss requires a valid FEED_RSS_URL, falling back to default 'research'"},
			FallbackApplied: true,
		})
	}

	cfg.RateLimit = config.Track(tr, "rate_limit",
		config.LoadEnvFloat("RESEARCH_API_RATE_LIMIT", cfg.RateLimit, func(v float64) error {
			return config.ValidateFloatRange(v, 0, 100)
		}))
	cfg.RateBurst = config.Track(tr, "rate_burst",
		config.LoadEnvInt("RESEARCH_API_RATE_BURST", cfg.RateBurst, func(v int) error {
			return config.ValidateIntRange(v, 1, 100)
		}))

	cfg.KeepAliveEnabled = config.Track(tr, "keepalive_enabled",
		config.LoadEnvBool("KEEPALIVE_ENABLED", cfg.KeepAliveEnabled))
	cfg.KeepAliveSchedule = config.Track(tr, "keepalive_schedule",
		config.LoadEnvWithFallback("KEEPALIVE_SCHEDULE", cfg.KeepAliveSchedule, config.ValidateCronSchedule))
	cfg.KeepAliveTimezone = config.Track(tr, "keepalive_timezone",
		config.LoadEnvWithFallback("KEEPALIVE_TIMEZONE", cfg.KeepAliveTimezone, config.ValidateTimezone))

	portRange := func(v int) error { return config.ValidateIntRange(v, 1024, 65535) }
	cfg.HealthPort = config.Track(tr, "health_port", config.LoadEnvInt("WATCH_HEALTH_PORT", cfg.HealthPort, portRange))
	cfg.MetricsPort = config.Track(tr, "metrics_port", config.LoadEnvInt("METRICS_PORT", cfg.MetricsPort, portRange))
	cfg.StatusPort = config.Track(tr, "status_port", config.LoadEnvInt("STATUS_PORT", cfg.StatusPort, portRange))
	cfg.TrustedProxies = config.Track(tr, "trusted_proxies",
		config.LoadEnv("STATUS_TRUSTED_PROXIES", cfg.TrustedProxies, config.ParsePrefixes, nil))

	announceRange := func(v int) error { return config.ValidateIntRange(v, 1, 50) }
	cfg.AnnounceMaxPerBatch = config.Track(tr, "announce_max_per_batch",
		config.LoadEnvInt("ANNOUNCE_MAX_PER_BATCH", cfg.AnnounceMaxPerBatch, announceRange))
	cfg.AnnounceMaxConcurrent = config.Track(tr, "announce_max_concurrent",
		config.LoadEnvInt("ANNOUNCE_MAX_CONCURRENT", cfg.AnnounceMaxConcurrent, announceRange))

	cfg.Discord.Enabled, cfg.Discord.WebhookURL = loadWebhook(tr, "discord", "DISCORD_ENABLED", "DISCORD_WEBHOOK_URL", validateDiscordURL)
	cfg.Slack.Enabled, cfg.Slack.WebhookURL = loadWebhook(tr, "slack", "SLACK_ENABLED", "SLACK_WEBHOOK_URL", validateSlackURL)

	tr.Finish()
	return &cfg, nil
}

func loadWebhook(tr *config.Tracker, field, enabledKey, urlKey string, validate func(string) error) (bool, string) {
	enabled := config.Track(tr, field+"_enabled", config.LoadEnvBool(enabledKey, false))
	if !enabled {
		return false, ""
	}
	raw := strings.TrimSpace(os.Getenv(urlKey))
	if err := validate(raw); err != nil {
		config.Track(tr, field+"_webhook_url", config.Result[bool]{
			Warnings:        []string{fmt.Sprintf("Invalid %s: %v, disabling %s notifications", urlKey, err, field)},
			FallbackApplied: true,
		})
		return false, ""
	}
	return true, raw
}

func validateDiscordURL(raw string) error {
	return entity.ValidateWebhookURL(raw, "discord.com", "/api/webhooks/")
}

func validateSlackURL(raw string) error {
	return entity.ValidateWebhookURL(raw, "hooks.slack.com", "/services/")
}
