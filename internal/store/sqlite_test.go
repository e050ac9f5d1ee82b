package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/dealsource/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "articles.db"))
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testArticle(link, source string) model.Article {
	return model.Article{
		Title:     "Acme buys Widget",
		Link:      link,
		Summary:   "Acme Corp acquires Widget Co",
		Source:    source,
		Published: time.Date(2025, 4, 7, 9, 0, 0, 0, time.UTC),
	}
}

func TestSQLiteStore_InsertDedupesOnLink(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	inserted, err := s.Insert(ctx, testArticle("https://news.example/acme", "dealwire"))
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = s.Insert(ctx, testArticle("https://news.example/acme", "dealwire"))
	require.NoError(t, err)
	assert.False(t, inserted)

	all, err := s.List(ctx, "", 0)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestSQLiteStore_GetByLink(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.Insert(ctx, testArticle("https://news.example/acme", "dealwire"))
	require.NoError(t, err)

	a, err := s.GetByLink(ctx, "https://news.example/acme")
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, "Acme buys Widget", a.Title)
	assert.Equal(t, "dealwire", a.Source)
	assert.False(t, a.Processed)
	assert.Nil(t, a.IsDealRelated)

	missing, err := s.GetByLink(ctx, "https://news.example/absent")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSQLiteStore_ListFiltersAndLimits(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	for i, link := range []string{
		"https://news.example/1",
		"https://news.example/2",
		"https://other.example/3",
	} {
		a := testArticle(link, "dealwire")
		if i == 2 {
			a.Source = "otherwire"
		}
		a.Published = a.Published.Add(time.Duration(i) * time.Hour)
		_, err := s.Insert(ctx, a)
		require.NoError(t, err)
	}

	dealwire, err := s.List(ctx, "dealwire", 0)
	require.NoError(t, err)
	require.Len(t, dealwire, 2)
	// Newest first.
	assert.Equal(t, "https://news.example/2", dealwire[0].Link)

	limited, err := s.List(ctx, "", 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "https://other.example/3", limited[0].Link)
}

func TestSQLiteStore_MarkProcessed(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.Insert(ctx, testArticle("https://news.example/acme", "dealwire"))
	require.NoError(t, err)

	require.NoError(t, s.MarkProcessed(ctx, "https://news.example/acme", true))

	a, err := s.GetByLink(ctx, "https://news.example/acme")
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.True(t, a.Processed)
	require.NotNil(t, a.IsDealRelated)
	assert.True(t, *a.IsDealRelated)

	err = s.MarkProcessed(ctx, "https://news.example/absent", false)
	assert.ErrorContains(t, err, "not found")
}
