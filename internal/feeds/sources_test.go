package feeds

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/dealsource/internal/config"
)

func writeSourcesFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "feeds.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadSources(t *testing.T) {
	path := writeSourcesFile(t, `sources:
  - name: prnewswire
    url: https://www.prnewswire.com/rss/news-releases-list.rss
  - name: businesswire
    url: https://feed.businesswire.com/rss/home
`)

	sources, err := LoadSources(path)
	require.NoError(t, err)
	assert.Equal(t, []config.FeedSource{
		{Name: "prnewswire", URL: "https://www.prnewswire.com/rss/news-releases-list.rss"},
		{Name: "businesswire", URL: "https://feed.businesswire.com/rss/home"},
	}, sources)
}

func TestLoadSources_MissingFile(t *testing.T) {
	_, err := LoadSources(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadSources_InvalidYAML(t *testing.T) {
	path := writeSourcesFile(t, "sources: [unclosed")
	_, err := LoadSources(path)
	assert.Error(t, err)
}

func TestLoadSources_EmptyList(t *testing.T) {
	path := writeSourcesFile(t, "sources: []")
	_, err := LoadSources(path)
	assert.ErrorContains(t, err, "no sources")
}

func TestLoadSources_SourceMissingURL(t *testing.T) {
	path := writeSourcesFile(t, `sources:
  - name: nourl
`)
	_, err := LoadSources(path)
	assert.ErrorContains(t, err, "missing name or url")
}
