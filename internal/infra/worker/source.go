package worker

import (
	"fmt"
	"log/slog"
	"net/http"

	"postlabor-feed/internal/infra/research"
	"postlabor-feed/internal/infra/rssfeed"
	"postlabor-feed/internal/usecase/feed"
)

// BuildSource returns client itself for the research source, or an RSS
// source reading c.RSSURL.
func (c *WatchConfig) BuildSource(client *research.Client, logger *slog.Logger) (feed.Source, error) {
	if c.Source != SourceRSS {
		return client, nil
	}
	src, err := rssfeed.NewSource(&http.Client{Timeout: c.FetchTimeout}, c.RSSURL)
	if err != nil {
		return nil, fmt.Errorf("build rss source: %w", err)
	}
	if logger != nil {
		logger.Info("using rss source", slog.String("url", c.RSSURL))
		src = src.WithLogger(logger)
	}
	return src, nil
}
