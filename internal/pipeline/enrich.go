package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/dealsource/internal/config"
	"github.com/sells-group/dealsource/internal/llm"
	"github.com/sells-group/dealsource/internal/model"
	"github.com/sells-group/dealsource/pkg/anthropic"
	"github.com/sells-group/dealsource/pkg/forager"
)

const enrichSystemPrompt = `You resolve company names to their canonical website domains. Respond with a valid JSON object mapping each requested key to a bare domain like "acme.com", or "" if unknown. Return only the JSON object.`

const enrichUserPrompt = `Resolve the website domain for each company below.

%s
Return JSON with exactly these keys: %s`

// Enricher resolves role names on a record to canonical website domains,
// with a per-name direct lookup fallback when the batched inference response
// cannot be parsed.
type Enricher struct {
	ai     anthropic.Client
	lookup forager.Client
	cfg    config.AnthropicConfig
}

// NewEnricher returns an Enricher using ai for batched resolution and lookup
// as the fallback path.
func NewEnricher(ai anthropic.Client, lookup forager.Client, cfg config.AnthropicConfig) *Enricher {
	return &Enricher{ai: ai, lookup: lookup, cfg: cfg}
}

// Enrich fills the website field for every present role. Records with no
// roles are returned unchanged. Failures are per-role and non-fatal: an
// unresolved role keeps an empty website.
func (e *Enricher) Enrich(ctx context.Context, rec model.DealRecord) model.DealRecord {
	roles := rec.PresentRoles()
	if len(roles) == 0 {
		return rec
	}

	websites, err := e.resolveBatch(ctx, &rec, roles)
	if err != nil {
		zap.L().Warn("enrich: batched resolution failed, falling back to direct lookup",
			zap.String("url", rec.ArticleLink),
			zap.Error(err),
		)
		websites = e.resolveDirect(ctx, &rec, roles)
	}

	for role, site := range websites {
		rec.SetRoleWebsite(role, site)
	}
	return rec
}

// resolveBatch issues one inference request covering every present role.
func (e *Enricher) resolveBatch(ctx context.Context, rec *model.DealRecord, roles []model.Role) (map[model.Role]string, error) {
	var names strings.Builder
	var keys []string
	for _, role := range roles {
		key := string(role) + "_website"
		keys = append(keys, key)
		fmt.Fprintf(&names, "%s: %s\n", key, rec.RoleName(role))
	}

	resp, err := e.ai.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     e.cfg.HaikuModel,
		MaxTokens: 512,
		System:    anthropic.BuildCachedSystemBlocks(enrichSystemPrompt),
		Messages: []anthropic.Message{
			{Role: "user", Content: fmt.Sprintf(enrichUserPrompt, names.String(), strings.Join(keys, ", "))},
		},
	})
	if err != nil {
		return nil, err
	}

	var mapping map[string]string
	if err := llm.ParseJSON(llm.ExtractText(resp), &mapping); err != nil {
		return nil, err
	}

	websites := make(map[model.Role]string, len(roles))
	for _, role := range roles {
		websites[role] = mapping[string(role)+"_website"]
	}
	return websites, nil
}

// resolveDirect looks each role name up individually. A failed lookup leaves
// that role's website empty and moves on.
func (e *Enricher) resolveDirect(ctx context.Context, rec *model.DealRecord, roles []model.Role) map[model.Role]string {
	websites := make(map[model.Role]string, len(roles))
	for _, role := range roles {
		site, err := e.lookup.LookupWebsite(ctx, rec.RoleName(role))
		if err != nil {
			if !errors.Is(err, forager.ErrNotFound) {
				zap.L().Warn("enrich: direct lookup failed",
					zap.String("role", string(role)),
					zap.String("name", rec.RoleName(role)),
					zap.Error(err),
				)
			}
			continue
		}
		websites[role] = site
	}
	return websites
}
