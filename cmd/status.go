package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sells-group/dealsource/internal/model"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Summarize per-URL processing state",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		e, err := initDataEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		statuses, err := e.Tracker.Load(ctx)
		if err != nil {
			return err
		}

		counts := summarizeStatuses(statuses)
		fmt.Printf("urls: %d total, %d new, %d processing, %d crawled, %d no_deals, %d error\n",
			counts.Total, counts.New, counts.Processing, counts.Crawled, counts.NoDeals, counts.Errored)
		return nil
	},
}

// statusSummary aggregates tracker contents for display and the HTTP API.
type statusSummary struct {
	Total      int `json:"total"`
	New        int `json:"new"`
	Processing int `json:"processing"`
	Crawled    int `json:"crawled"`
	NoDeals    int `json:"no_deals"`
	Errored    int `json:"error"`
}

func summarizeStatuses(statuses map[string]model.ProcessingStatus) statusSummary {
	s := statusSummary{Total: len(statuses)}
	for _, st := range statuses {
		switch st.Status {
		case model.StatusNew:
			s.New++
		case model.StatusProcessing:
			s.Processing++
		case model.StatusCrawled:
			s.Crawled++
		case model.StatusNoDeals:
			s.NoDeals++
		case model.StatusError:
			s.Errored++
		}
	}
	return s
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
