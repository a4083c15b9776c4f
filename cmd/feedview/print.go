package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"postlabor-feed/internal/domain/entity"
	hfeed "postlabor-feed/internal/handler/http/feed"
	"postlabor-feed/internal/infra/worker"

	"github.com/spf13/cobra"
)

const (
	outputText = "text"
	outputJSON = "json"
)

type historyEntry struct {
	Topic        string `json:"topic"`
	Count        int    `json:"count"`
	LastResearch string `json:"last_research"`
}

// withClient opens the log, loads configuration and runs fn against a
// research client bounded by the fetch timeout.
func withClient(cmd *cobra.Command, fn func(ctx context.Context, r researchReader, cfg *worker.WatchConfig) error) error {
	if outputFlag != outputText && outputFlag != outputJSON {
		return fmt.Errorf("unknown output format %q (want text or json)", outputFlag)
	}
	logger, closeLog, err := openLog()
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	cfg, err := loadConfig(cmd, logger)
	if err != nil {
		return err
	}
	client, err := newClient(cfg, logger)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.FetchTimeout)
	defer cancel()
	return fn(ctx, client, cfg)
}

// researchReader is the read side of *research.Client used by the one-shot
// commands.
type researchReader interface {
	Latest(ctx context.Context, limit int) ([]entity.ContentItem, error)
	Topics(ctx context.Context) ([]string, error)
	History(ctx context.Context) ([]entity.TopicHistory, error)
}

func runLatest(cmd *cobra.Command, _ []string) error {
	return withClient(cmd, func(ctx context.Context, r researchReader, cfg *worker.WatchConfig) error {
		return printLatest(ctx, cmd.OutOrStdout(), r, cfg.BatchLimit, outputFlag)
	})
}

func runTopics(cmd *cobra.Command, _ []string) error {
	return withClient(cmd, func(ctx context.Context, r researchReader, _ *worker.WatchConfig) error {
		return printTopics(ctx, cmd.OutOrStdout(), r, outputFlag)
	})
}

func runHistory(cmd *cobra.Command, _ []string) error {
	return withClient(cmd, func(ctx context.Context, r researchReader, _ *worker.WatchConfig) error {
		return printHistory(ctx, cmd.OutOrStdout(), r, outputFlag)
	})
}

// printLatest writes the newest limit updates.
func printLatest(ctx context.Context, w io.Writer, r researchReader, limit int, format string) error {
	items, err := r.Latest(ctx, limit)
	if err != nil {
		return fmt.Errorf("fetch latest: %w", err)
	}
	if format == outputJSON {
		out := make([]hfeed.ItemDTO, 0, len(items))
		for _, it := range items {
			out = append(out, hfeed.NewItemDTO(it))
		}
		return writeJSON(w, out)
	}

	if len(items) == 0 {
		_, err := fmt.Fprintln(w, "No research updates yet.")
		return err
	}
	for i, it := range items {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "#%d  %s\n", it.ID, it.Title)
		fmt.Fprintf(w, "    %s, %d source(s)\n", it.FormatCreatedAt(), len(it.Sources))
		for _, fact := range it.KeyFactsPreview(2) {
			fmt.Fprintf(w, "    - %s\n", fact)
		}
	}
	return nil
}

func printTopics(ctx context.Context, w io.Writer, r researchReader, format string) error {
	topics, err := r.Topics(ctx)
	if err != nil {
		return fmt.Errorf("fetch topics: %w", err)
	}
	if format == outputJSON {
		return writeJSON(w, topics)
	}
	if len(topics) == 0 {
		_, err := fmt.Fprintln(w, "No topics configured.")
		return err
	}
	_, err = fmt.Fprintln(w, strings.Join(topics, "\n"))
	return err
}

func printHistory(ctx context.Context, w io.Writer, r researchReader, format string) error {
	history, err := r.History(ctx)
	if err != nil {
		return fmt.Errorf("fetch history: %w", err)
	}

	entries := make([]historyEntry, 0, len(history))
	for _, h := range history {
		last := h.LastResearchRaw
		if last == "" && !h.LastResearch.IsZero() {
			last = h.LastResearch.UTC().Format(time.RFC3339)
		}
		entries = append(entries, historyEntry{Topic: h.Topic, Count: h.Count, LastResearch: last})
	}
	if format == outputJSON {
		return writeJSON(w, entries)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TOPIC\tCOUNT\tLAST RESEARCH")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", e.Topic, e.Count, e.LastResearch)
	}
	return tw.Flush()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
