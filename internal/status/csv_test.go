package status

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/dealsource/internal/model"
)

func newTestCSVTracker(t *testing.T) *CSVTracker {
	t.Helper()
	tracker, err := NewCSVTracker(filepath.Join(t.TempDir(), "url_status.csv"))
	require.NoError(t, err)
	return tracker
}

func TestCSVTracker_CreatesFileWithHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "url_status.csv")
	_, err := NewCSVTracker(path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "url,status,notes\n", string(data))
}

func TestCSVTracker_UpdateAndLoad(t *testing.T) {
	ctx := context.Background()
	tracker := newTestCSVTracker(t)

	require.NoError(t, tracker.Update(ctx, "https://a.example", model.StatusCrawled, "done"))
	require.NoError(t, tracker.Update(ctx, "https://b.example", model.StatusError, "failed crawl"))

	statuses, err := tracker.Load(ctx)
	require.NoError(t, err)
	require.Len(t, statuses, 2)
	assert.Equal(t, model.StatusCrawled, statuses["https://a.example"].Status)
	assert.Equal(t, "failed crawl", statuses["https://b.example"].Notes)
}

func TestCSVTracker_UpdateOverwritesExistingRow(t *testing.T) {
	ctx := context.Background()
	tracker := newTestCSVTracker(t)

	require.NoError(t, tracker.Update(ctx, "https://a.example", model.StatusProcessing, ""))
	require.NoError(t, tracker.Update(ctx, "https://a.example", model.StatusCrawled, "done"))

	statuses, err := tracker.Load(ctx)
	require.NoError(t, err)
	require.Len(t, statuses, 1)
	assert.Equal(t, model.StatusCrawled, statuses["https://a.example"].Status)
}

func TestCSVTracker_Pending(t *testing.T) {
	ctx := context.Background()
	tracker := newTestCSVTracker(t)

	require.NoError(t, tracker.Update(ctx, "https://new.example", model.StatusNew, ""))
	require.NoError(t, tracker.Update(ctx, "https://done.example", model.StatusCrawled, ""))
	require.NoError(t, tracker.Update(ctx, "https://nodeals.example", model.StatusNoDeals, ""))
	require.NoError(t, tracker.Update(ctx, "https://err.example", model.StatusError, "boom"))

	pending, err := tracker.Pending(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://new.example", "https://err.example"}, pending)
}

func TestCSVTracker_SkipsMalformedRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "url_status.csv")
	content := "url,status,notes\n" +
		"https://good.example,crawled,done\n" +
		",error,row without url\n" +
		"https://short.example\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	tracker, err := NewCSVTracker(path)
	require.NoError(t, err)

	statuses, err := tracker.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, statuses, 2)
	assert.Equal(t, model.StatusCrawled, statuses["https://good.example"].Status)
	// Missing columns default, not fail.
	assert.Equal(t, model.StatusNew, statuses["https://short.example"].Status)
}

func TestCSVTracker_DuplicateURLKeepsLast(t *testing.T) {
	path := filepath.Join(t.TempDir(), "url_status.csv")
	content := "url,status,notes\n" +
		"https://a.example,processing,\n" +
		"https://a.example,crawled,done\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	tracker, err := NewCSVTracker(path)
	require.NoError(t, err)

	statuses, err := tracker.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, statuses, 1)
	assert.Equal(t, model.StatusCrawled, statuses["https://a.example"].Status)
}

func TestCSVTracker_NotesWithCommasRoundTrip(t *testing.T) {
	ctx := context.Background()
	tracker := newTestCSVTracker(t)

	notes := `extraction failed: invalid character ',' after value`
	require.NoError(t, tracker.Update(ctx, "https://a.example", model.StatusError, notes))

	statuses, err := tracker.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, notes, statuses["https://a.example"].Notes)
}
