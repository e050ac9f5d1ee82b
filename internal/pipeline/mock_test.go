package pipeline

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/dealsource/internal/model"
	"github.com/sells-group/dealsource/pkg/anthropic"
)

// --- Anthropic mock ---

type mockAnthropicClient struct {
	mock.Mock
}

func (m *mockAnthropicClient) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*anthropic.MessageResponse), args.Error(1)
}

// textResponse wraps plain text as a message response.
func textResponse(text string) *anthropic.MessageResponse {
	return &anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: text}},
	}
}

// --- Forager mock ---

type mockForagerClient struct {
	mock.Mock
}

func (m *mockForagerClient) LookupWebsite(ctx context.Context, name string) (string, error) {
	args := m.Called(ctx, name)
	return args.String(0), args.Error(1)
}

// --- Fetcher mock ---

type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) Fetch(ctx context.Context, url string) (string, error) {
	args := m.Called(ctx, url)
	return args.String(0), args.Error(1)
}

// --- Stage mocks for orchestrator tests ---

type mockClassifier struct {
	mock.Mock
}

func (m *mockClassifier) IsDealRelated(ctx context.Context, title, content string) (bool, error) {
	args := m.Called(ctx, title, content)
	return args.Bool(0), args.Error(1)
}

type mockExtractor struct {
	mock.Mock
}

func (m *mockExtractor) Extract(ctx context.Context, title, link, content string) (model.DealRecord, error) {
	args := m.Called(ctx, title, link, content)
	return args.Get(0).(model.DealRecord), args.Error(1)
}

type mockEnricher struct {
	mock.Mock
}

func (m *mockEnricher) Enrich(ctx context.Context, rec model.DealRecord) model.DealRecord {
	args := m.Called(ctx, rec)
	return args.Get(0).(model.DealRecord)
}
