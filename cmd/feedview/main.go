// Command feedview is the terminal viewer for the research feed. Without a
// subcommand it opens the interactive viewer; latest, topics and history
// print one-shot answers from the research API.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	modeFlag     string
	limitFlag    int
	channelsFlag string
	logFileFlag  string
	outputFlag   string
)

var rootCmd = &cobra.Command{
	Use:   "feedview",
	Short: "Browse post-labor research updates in the terminal",
	Long: `Opens a live view of the research feed.

The feed is polled in the background; press r to refresh, a to switch
between the latest batch and the full archive, [ and ] to flip media
channels, and q to quit.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runViewer,
}

var latestCmd = &cobra.Command{
	Use:   "latest",
	Short: "Print the newest research updates",
	Args:  cobra.NoArgs,
	RunE:  runLatest,
}

var topicsCmd = &cobra.Command{
	Use:   "topics",
	Short: "Print the research topics the agent rotates through",
	Args:  cobra.NoArgs,
	RunE:  runTopics,
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Print how often each topic has been researched",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	rootCmd.Flags().StringVar(&modeFlag, "mode", "", "feed mode: latest or archive (default from FEED_MODE)")
	rootCmd.Flags().IntVar(&limitFlag, "limit", 0, "batch size in latest mode (default from FEED_BATCH_LIMIT)")
	rootCmd.Flags().StringVar(&channelsFlag, "channels", "", "YAML media channel list (default from FEEDVIEW_CHANNELS_FILE)")
	rootCmd.Flags().StringVar(&logFileFlag, "log-file", "", "log destination (default from FEEDVIEW_LOG_FILE, then feedview.log)")

	latestCmd.Flags().IntVar(&limitFlag, "limit", 0, "number of updates (default from FEED_BATCH_LIMIT)")
	for _, c := range []*cobra.Command{latestCmd, topicsCmd, historyCmd} {
		c.Flags().StringVarP(&outputFlag, "output", "o", "text", "output format: text or json")
	}

	rootCmd.AddCommand(latestCmd, topicsCmd, historyCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "feedview:", err)
		os.Exit(1)
	}
}
