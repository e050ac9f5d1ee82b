package fetch

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// snapshot writes the raw HTML for a fetched URL under SnapshotDir. Purely
// a debugging artifact; every failure path is log-and-continue.
func (f *Fetcher) snapshot(url, html string) {
	if f.cfg.SnapshotDir == "" {
		return
	}

	if err := os.MkdirAll(f.cfg.SnapshotDir, 0o755); err != nil {
		zap.L().Warn("fetch: snapshot dir unavailable", zap.Error(err))
		return
	}

	name := sanitizeURL(url) + "_" + time.Now().Format("20060102_150405") + ".html"
	path := filepath.Join(f.cfg.SnapshotDir, name)
	if err := os.WriteFile(path, []byte(html), 0o644); err != nil {
		zap.L().Warn("fetch: snapshot write failed",
			zap.String("path", path),
			zap.Error(err),
		)
	}
}

// sanitizeURL turns a URL into a filesystem-safe prefix, bounded at 50 chars.
func sanitizeURL(url string) string {
	r := strings.NewReplacer("://", "_", "/", "_", ".", "_", "?", "_", "&", "_", "=", "_")
	s := r.Replace(url)
	if len(s) > 50 {
		s = s[:50]
	}
	return s
}
