package main

import (
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var runSource string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Process pending article URLs through the deal pipeline",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		e, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		var filter func(url string) bool
		if runSource != "" {
			articles, err := e.Articles.List(ctx, runSource, 0)
			if err != nil {
				return eris.Wrapf(err, "list articles for source %s", runSource)
			}
			links := make(map[string]bool, len(articles))
			for _, a := range articles {
				links[a.Link] = true
			}
			filter = func(url string) bool { return links[url] }
		}

		summary, err := e.Orchestrator.Run(ctx, filter)
		if err != nil {
			return err
		}

		fmt.Printf("run %s: processed=%d crawled=%d no_deals=%d errors=%d in %s\n",
			summary.RunID, summary.Processed, summary.Crawled, summary.NoDeals,
			summary.Errored, summary.Duration.Round(time.Second))
		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&runSource, "source", "", "only process URLs ingested from this feed source")
	rootCmd.AddCommand(runCmd)
}
