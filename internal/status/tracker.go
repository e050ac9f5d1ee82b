// Package status owns the durable per-URL processing state. The tracker is
// the single source of truth for which URLs a run may select; everything
// else in the pipeline treats it as append-only bookkeeping.
package status

import (
	"context"

	"github.com/sells-group/dealsource/internal/model"
)

// Tracker persists one ProcessingStatus per URL.
type Tracker interface {
	// Load returns every known status keyed by URL. An unreadable backing
	// store is a fatal error: without it a run cannot pick a correct
	// starting point.
	Load(ctx context.Context) (map[string]model.ProcessingStatus, error)

	// Pending returns URLs eligible for processing, in backing-store order:
	// status NEW or ERROR, or no status recorded at all.
	Pending(ctx context.Context) ([]string, error)

	// Update durably records a status for a URL before returning. URLs not
	// yet known to the store are appended.
	Update(ctx context.Context, url string, status model.URLStatus, notes string) error
}
