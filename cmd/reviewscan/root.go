package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for reviewscan.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reviewscan",
		Short: "Scrape restaurant reviews and score their sentiment",
		Long: `reviewscan fetches Yelp search result pages through the ScraperAPI
forwarding proxy, extracts the restaurant name and review texts, and scores
every review for sentiment (AFINN) and emotion (NRC).

Results are written to sentiment_analysis_results.csv and
emotions_analysis.txt. Runs can optionally be saved to a local history.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewScrapeCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
