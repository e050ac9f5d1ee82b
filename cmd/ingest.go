package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sells-group/dealsource/internal/feeds"
)

var ingestFeedsFile string

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Pull configured news feeds and queue new article URLs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		e, err := initDataEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		feedsCfg := cfg.Feeds
		if ingestFeedsFile != "" {
			sources, err := feeds.LoadSources(ingestFeedsFile)
			if err != nil {
				return err
			}
			feedsCfg.Sources = sources
		}

		ingester := feeds.NewIngester(e.Articles, e.Tracker, feedsCfg)
		result, err := ingester.Ingest(ctx)
		if err != nil {
			return err
		}

		fmt.Printf("ingest: %d items, %d new, %d known, %d feeds failed\n",
			result.Fetched, result.Inserted, result.Skipped, result.Failed)
		return nil
	},
}

func init() {
	ingestCmd.Flags().StringVar(&ingestFeedsFile, "feeds", "", "YAML file listing feed sources (overrides config)")
	rootCmd.AddCommand(ingestCmd)
}
