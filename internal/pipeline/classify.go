package pipeline

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/dealsource/internal/config"
	"github.com/sells-group/dealsource/internal/fetch"
	"github.com/sells-group/dealsource/internal/llm"
	"github.com/sells-group/dealsource/pkg/anthropic"
)

const classifySystemPrompt = `You are an analyst screening news articles for financial transactions. An article is deal-related if it describes a merger, acquisition, investment, financing round, or divestiture. Respond with exactly one word: YES or NO.`

const classifyUserPrompt = `Title: %s

Article excerpt:
%s

Is this article about a deal (merger, acquisition, investment, financing, or divestiture)? Answer YES or NO.`

// classifyExcerptChars is the default bound on how much article text is sent
// for screening, used when no limit is configured.
const classifyExcerptChars = 1500

// Classifier decides whether an article describes a deal.
type Classifier struct {
	ai       anthropic.Client
	cfg      config.AnthropicConfig
	maxChars int
}

// NewClassifier returns a Classifier backed by the given inference client.
// maxChars bounds the excerpt sent per article; <= 0 falls back to the
// default.
func NewClassifier(ai anthropic.Client, cfg config.AnthropicConfig, maxChars int) *Classifier {
	if maxChars <= 0 {
		maxChars = classifyExcerptChars
	}
	return &Classifier{ai: ai, cfg: cfg, maxChars: maxChars}
}

// IsDealRelated screens the article. Rate-limited page content short-circuits
// to false without an inference call. Any answer that does not contain YES is
// treated as NO, so ambiguous output never reads as relevant.
func (c *Classifier) IsDealRelated(ctx context.Context, title, content string) (bool, error) {
	if fetch.IsRateLimitMarker(title, content) {
		zap.L().Debug("classify: rate-limit marker, skipping inference",
			zap.String("title", title),
		)
		return false, nil
	}

	excerpt := content
	if len(excerpt) > c.maxChars {
		excerpt = excerpt[:c.maxChars]
	}

	resp, err := c.ai.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     c.cfg.HaikuModel,
		MaxTokens: 16,
		System:    anthropic.BuildCachedSystemBlocks(classifySystemPrompt),
		Messages: []anthropic.Message{
			{Role: "user", Content: fmt.Sprintf(classifyUserPrompt, title, excerpt)},
		},
	})
	if err != nil {
		return false, err
	}

	answer := strings.ToUpper(llm.ExtractText(resp))
	related := strings.Contains(answer, "YES")

	zap.L().Debug("classify: screened article",
		zap.String("title", title),
		zap.Bool("deal_related", related),
	)
	return related, nil
}
