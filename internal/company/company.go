// Package company persists the companies sighted in deal records. The store
// is keyed by exact name; registration is idempotent per role per record.
package company

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/dealsource/internal/model"
)

// Outcome reports what an upsert did.
type Outcome string

const (
	OutcomeInserted  Outcome = "inserted"
	OutcomeUpdated   Outcome = "updated"
	OutcomeUnchanged Outcome = "unchanged"
)

// Store defines row-level persistence for company records.
type Store interface {
	// GetByName returns the record for an exact name, or nil when absent.
	GetByName(ctx context.Context, name string) (*model.CompanyRecord, error)
	// Insert adds a new record.
	Insert(ctx context.Context, rec model.CompanyRecord) error
	// UpdateWebsite replaces the stored website for a name.
	UpdateWebsite(ctx context.Context, name, website string) error
	// List returns every record ordered by name.
	List(ctx context.Context) ([]model.CompanyRecord, error)
}

// Registrar applies the upsert policy on top of a Store.
type Registrar struct {
	store Store
}

// NewRegistrar creates a Registrar.
func NewRegistrar(store Store) *Registrar {
	return &Registrar{store: store}
}

// Upsert inserts or updates a company by exact name. The stored website is
// replaced only by a non-empty, differing value; an empty incoming website
// never clobbers a stored one. Name collisions are last-write-wins.
func (r *Registrar) Upsert(ctx context.Context, name, website string) (Outcome, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return OutcomeUnchanged, nil
	}
	website = strings.TrimSpace(website)

	existing, err := r.store.GetByName(ctx, name)
	if err != nil {
		return OutcomeUnchanged, err
	}

	if existing == nil {
		if err := r.store.Insert(ctx, model.CompanyRecord{Name: name, Website: website}); err != nil {
			return OutcomeUnchanged, err
		}
		zap.L().Info("company: inserted",
			zap.String("name", name),
			zap.String("website", website),
		)
		return OutcomeInserted, nil
	}

	if website == "" || website == existing.Website {
		return OutcomeUnchanged, nil
	}

	if err := r.store.UpdateWebsite(ctx, name, website); err != nil {
		return OutcomeUnchanged, err
	}
	zap.L().Info("company: website updated",
		zap.String("name", name),
		zap.String("website", website),
	)
	return OutcomeUpdated, nil
}

// RegisterRoles upserts every present role of a record, independently. A
// failure on one role is logged and does not stop the others.
func (r *Registrar) RegisterRoles(ctx context.Context, rec *model.DealRecord) int {
	registered := 0
	for _, role := range rec.PresentRoles() {
		outcome, err := r.Upsert(ctx, rec.RoleName(role), rec.RoleWebsite(role))
		if err != nil {
			zap.L().Warn("company: upsert failed",
				zap.String("role", string(role)),
				zap.String("name", rec.RoleName(role)),
				zap.Error(err),
			)
			continue
		}
		if outcome != OutcomeUnchanged {
			registered++
		}
	}
	return registered
}
