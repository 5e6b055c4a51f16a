package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/friendsincode/tourwatch/internal/browser"
	"github.com/friendsincode/tourwatch/internal/scraper"
)

var (
	scrapeLanguage string
	scrapeHeadful  bool
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape <url> <date>",
	Short: "Run one comparison scrape and print the results as JSON",
	Long:  "Scrape a single Civitatis activity page for the given date (YYYY-MM-DD) without starting the server, and print the slot results to stdout.",
	Args:  cobra.ExactArgs(2),
	RunE:  runScrape,
}

func init() {
	scrapeCmd.Flags().StringVar(&scrapeLanguage, "language", "es", "page language code")
	scrapeCmd.Flags().BoolVar(&scrapeHeadful, "headful", false, "run the browser with a visible window")
	rootCmd.AddCommand(scrapeCmd)
}

func runScrape(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}

	url, date := args[0], args[1]
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return fmt.Errorf("date must be YYYY-MM-DD: %w", err)
	}

	sessions := browser.NewFactory(!scrapeHeadful)
	engine := scraper.New(sessions, scraper.DefaultProviders(), logger)

	results := engine.CompareAllSchedules(context.Background(), url, date, scrapeLanguage)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}
