package main

import (
	"github.com/spf13/cobra"
)

var (
	importTitles string
	importPrices string
	importNotify bool
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import the title and price datasets into the database",
	Long: `Fetch the datasets, normalize them and replace the stored catalog in one
transaction. Sources may be local files, CSV URLs, or pages that link CSV
files.

Examples:
  streamlens import --titles data/titles.csv --prices data/prices.csv
  streamlens import --titles https://example.com/datasets/ --notify`,
	Args: cobra.NoArgs,
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().StringVar(&importTitles, "titles", "", "Titles source (overrides config)")
	importCmd.Flags().StringVar(&importPrices, "prices", "", "Prices source (overrides config)")
	importCmd.Flags().BoolVar(&importNotify, "notify", false, "Send the reload summary mail when email is configured")
}

func runImport(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if importTitles != "" {
		a.cfg.TitlesSource = importTitles
	}
	if importPrices != "" {
		a.cfg.PricesSource = importPrices
	}

	job, err := a.newReloadJob(nil)
	if err != nil {
		return err
	}
	if !importNotify {
		job.Notifier = nil
	}
	return job.Run(cmd.Context())
}
