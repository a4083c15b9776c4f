package main

import (
	"fmt"
	"log/slog"
	"os"

	"postlabor-feed/internal/infra/research"
	"postlabor-feed/internal/infra/worker"
	"postlabor-feed/internal/observability/logging"
	"postlabor-feed/internal/ui/tui"
	"postlabor-feed/internal/usecase/channel"
	"postlabor-feed/internal/usecase/feed"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

const defaultLogFile = "feedview.log"

// openLog returns a file logger. The terminal belongs to the viewer, so
// nothing is logged to stdout or stderr.
func openLog() (*slog.Logger, func() error, error) {
	path := logFileFlag
	if path == "" {
		path = os.Getenv("FEEDVIEW_LOG_FILE")
	}
	if path == "" {
		path = defaultLogFile
	}
	return logging.NewFileLogger(path)
}

// loadConfig reads the shared environment configuration and applies the
// command-line overrides.
func loadConfig(cmd *cobra.Command, logger *slog.Logger) (*worker.WatchConfig, error) {
	cfg, err := worker.LoadConfigFromEnv(logger, worker.NewWatcherMetrics(prometheus.NewRegistry()))
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	if cmd.Flags().Changed("mode") {
		mode, err := feed.ParseMode(modeFlag)
		if err != nil {
			return nil, err
		}
		cfg.Mode = string(mode)
	}
	if cmd.Flags().Changed("limit") {
		cfg.BatchLimit = limitFlag
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newClient(cfg *worker.WatchConfig, logger *slog.Logger) (*research.Client, error) {
	client, err := research.NewClient(cfg.ClientConfig(), research.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("research client: %w", err)
	}
	return client, nil
}

func runViewer(cmd *cobra.Command, _ []string) error {
	logger, closeLog, err := openLog()
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()
	slog.SetDefault(logger)

	cfg, err := loadConfig(cmd, logger)
	if err != nil {
		return err
	}
	client, err := newClient(cfg, logger)
	if err != nil {
		return err
	}
	src, err := cfg.BuildSource(client, logger)
	if err != nil {
		return err
	}

	channelsPath := channelsFlag
	if channelsPath == "" {
		channelsPath = os.Getenv("FEEDVIEW_CHANNELS_FILE")
	}
	channels, err := channel.Load(channelsPath)
	if err != nil {
		return fmt.Errorf("load channels: %w", err)
	}
	sel, err := channel.NewSelector(channels)
	if err != nil {
		return err
	}

	ctrl, err := feed.NewController(src, cfg.FeedConfig(), feed.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("feed controller: %w", err)
	}
	defer ctrl.Close()

	ctrl.Initialize(cmd.Context())
	if err := ctrl.StartPolling(cfg.PollInterval); err != nil {
		return fmt.Errorf("start polling: %w", err)
	}

	logger.Info("feedview started",
		slog.String("mode", cfg.Mode),
		slog.Int("channels", sel.Len()))
	if _, err := tea.NewProgram(tui.New(ctrl, sel), tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("run viewer: %w", err)
	}
	logger.Info("feedview stopped")
	return nil
}
