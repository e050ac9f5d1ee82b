package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/dealsource/internal/model"
)

func TestSummarizeStatuses(t *testing.T) {
	statuses := map[string]model.ProcessingStatus{
		"https://a.example/1": {URL: "https://a.example/1", Status: model.StatusNew},
		"https://a.example/2": {URL: "https://a.example/2", Status: model.StatusProcessing},
		"https://a.example/3": {URL: "https://a.example/3", Status: model.StatusCrawled},
		"https://a.example/4": {URL: "https://a.example/4", Status: model.StatusCrawled},
		"https://a.example/5": {URL: "https://a.example/5", Status: model.StatusNoDeals},
		"https://a.example/6": {URL: "https://a.example/6", Status: model.StatusError},
	}

	s := summarizeStatuses(statuses)
	assert.Equal(t, 6, s.Total)
	assert.Equal(t, 1, s.New)
	assert.Equal(t, 1, s.Processing)
	assert.Equal(t, 2, s.Crawled)
	assert.Equal(t, 1, s.NoDeals)
	assert.Equal(t, 1, s.Errored)
}

func TestSummarizeStatuses_Empty(t *testing.T) {
	s := summarizeStatuses(nil)
	assert.Equal(t, statusSummary{}, s)
}
