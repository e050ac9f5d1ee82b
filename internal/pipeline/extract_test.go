package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/dealsource/internal/llm"
	"github.com/sells-group/dealsource/internal/model"
	"github.com/sells-group/dealsource/pkg/anthropic"
)

const extractResponse = "```json\n" + `{
  "deal_type": "acquisition",
  "announcement_date": "2025-04-01",
  "buyer": "Acme Corp",
  "seller": "",
  "company": "",
  "investor": "",
  "divestor": "",
  "target": "Widget Co",
  "amount": "$50M",
  "currency": "USD",
  "stake_percentage": "100",
  "countries_involved": "US",
  "advisors": "BigBank",
  "strategic_rationale": "industrial scale",
  "additional_notes": ""
}` + "\n```"

func TestExtractor_Success(t *testing.T) {
	ctx := context.Background()
	ai := &mockAnthropicClient{}
	ai.On("CreateMessage", ctx, mock.AnythingOfType("anthropic.MessageRequest")).
		Return(textResponse(extractResponse), nil).Once()

	rec, err := NewExtractor(ai, testAICfg).Extract(ctx,
		"Acme buys Widget", "https://news.example/acme",
		"Acme Corp acquires Widget Co for $50M")
	require.NoError(t, err)

	assert.Equal(t, model.RelevanceYes, rec.IsDealRelated)
	assert.Equal(t, "Acme buys Widget", rec.ArticleTitle)
	assert.Equal(t, "https://news.example/acme", rec.ArticleLink)
	assert.Equal(t, "acquisition", rec.DealType)
	assert.Equal(t, "Acme Corp", rec.Buyer)
	assert.Equal(t, "Widget Co", rec.Target)
	assert.Equal(t, "$50M", rec.Amount)
	assert.Empty(t, rec.BuyerWebsite) // enrichment fills websites later
	ai.AssertExpectations(t)
}

func TestExtractor_ParseFailureReturnsStubRecord(t *testing.T) {
	ctx := context.Background()
	ai := &mockAnthropicClient{}
	ai.On("CreateMessage", ctx, mock.AnythingOfType("anthropic.MessageRequest")).
		Return(textResponse("I could not find structured data in this article."), nil).Once()

	rec, err := NewExtractor(ai, testAICfg).Extract(ctx, "title", "https://news.example/x", "content")
	require.Error(t, err)

	var parseErr *llm.ParseError
	require.ErrorAs(t, err, &parseErr)

	// The stub record still identifies the article so the caller can
	// export it with a diagnostic note.
	assert.Equal(t, "https://news.example/x", rec.ArticleLink)
	assert.Equal(t, model.RelevanceYes, rec.IsDealRelated)
	assert.Empty(t, rec.Buyer)
}

func TestExtractor_UsesSonnetModel(t *testing.T) {
	ctx := context.Background()
	ai := &mockAnthropicClient{}
	ai.On("CreateMessage", ctx, mock.AnythingOfType("anthropic.MessageRequest")).
		Return(textResponse(extractResponse), nil).Once()

	_, err := NewExtractor(ai, testAICfg).Extract(ctx, "t", "https://news.example/y", "c")
	require.NoError(t, err)

	req := ai.Calls[0].Arguments.Get(1).(anthropic.MessageRequest)
	assert.Equal(t, testAICfg.SonnetModel, req.Model)
}
