package pipeline

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/dealsource/internal/config"
	"github.com/sells-group/dealsource/internal/llm"
	"github.com/sells-group/dealsource/internal/model"
	"github.com/sells-group/dealsource/pkg/anthropic"
)

const extractSystemPrompt = `You are an M&A analyst extracting structured deal data from news articles. Return a valid JSON object with exactly these fields, using "" for anything the article does not state:
{
  "deal_type": "<merger|acquisition|investment|financing|divestiture>",
  "announcement_date": "<YYYY-MM-DD or as stated>",
  "buyer": "", "seller": "", "company": "", "investor": "", "divestor": "", "target": "",
  "amount": "", "currency": "", "stake_percentage": "",
  "countries_involved": "", "advisors": "", "strategic_rationale": "", "additional_notes": ""
}
Return only the JSON object.`

const extractUserPrompt = `Title: %s

Article text:
%s`

// extractFields mirrors the inference response shape. Role websites are never
// requested here; enrichment fills them afterward.
type extractFields struct {
	DealType         string `json:"deal_type"`
	AnnouncementDate string `json:"announcement_date"`

	Buyer    string `json:"buyer"`
	Seller   string `json:"seller"`
	Company  string `json:"company"`
	Investor string `json:"investor"`
	Divestor string `json:"divestor"`
	Target   string `json:"target"`

	Amount             string `json:"amount"`
	Currency           string `json:"currency"`
	StakePercentage    string `json:"stake_percentage"`
	CountriesInvolved  string `json:"countries_involved"`
	Advisors           string `json:"advisors"`
	StrategicRationale string `json:"strategic_rationale"`
	AdditionalNotes    string `json:"additional_notes"`
}

// Extractor turns deal-related article text into a structured record.
type Extractor struct {
	ai  anthropic.Client
	cfg config.AnthropicConfig
}

// NewExtractor returns an Extractor backed by the given inference client.
func NewExtractor(ai anthropic.Client, cfg config.AnthropicConfig) *Extractor {
	return &Extractor{ai: ai, cfg: cfg}
}

// Extract sends the full article text for structured extraction. A malformed
// response surfaces as an *llm.ParseError so the caller can record the URL
// with empty fields and a diagnostic note instead of aborting the run.
func (e *Extractor) Extract(ctx context.Context, title, link, content string) (model.DealRecord, error) {
	rec := model.DealRecord{
		ArticleTitle:  title,
		ArticleLink:   link,
		IsDealRelated: model.RelevanceYes,
	}

	resp, err := e.ai.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     e.cfg.SonnetModel,
		MaxTokens: int64(e.cfg.MaxTokens),
		System:    anthropic.BuildCachedSystemBlocks(extractSystemPrompt),
		Messages: []anthropic.Message{
			{Role: "user", Content: fmt.Sprintf(extractUserPrompt, title, content)},
		},
	})
	if err != nil {
		return rec, eris.Wrapf(err, "extract: %s", link)
	}

	var fields extractFields
	if err := llm.ParseJSON(llm.ExtractText(resp), &fields); err != nil {
		return rec, err
	}

	rec.DealType = fields.DealType
	rec.AnnouncementDate = fields.AnnouncementDate
	rec.Buyer = fields.Buyer
	rec.Seller = fields.Seller
	rec.Company = fields.Company
	rec.Investor = fields.Investor
	rec.Divestor = fields.Divestor
	rec.Target = fields.Target
	rec.Amount = fields.Amount
	rec.Currency = fields.Currency
	rec.StakePercentage = fields.StakePercentage
	rec.CountriesInvolved = fields.CountriesInvolved
	rec.Advisors = fields.Advisors
	rec.StrategicRationale = fields.StrategicRationale
	rec.AdditionalNotes = fields.AdditionalNotes

	zap.L().Debug("extract: structured article",
		zap.String("url", link),
		zap.String("deal_type", rec.DealType),
	)
	return rec, nil
}
