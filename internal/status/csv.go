package status

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/dealsource/internal/model"
)

var csvHeader = []string{"url", "status", "notes"}

// CSVTracker stores statuses in a single CSV file with columns
// url,status,notes. Every update rewrites the full file through a temp file
// and rename, so a crash never leaves a partial write visible.
type CSVTracker struct {
	mu   sync.Mutex
	path string
}

// NewCSVTracker opens (or creates) the backing file at path.
func NewCSVTracker(path string) (*CSVTracker, error) {
	t := &CSVTracker{path: path}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := t.writeAll(nil); err != nil {
			return nil, eris.Wrapf(err, "status: initialize %s", path)
		}
	} else if err != nil {
		return nil, eris.Wrapf(err, "status: stat %s", path)
	}

	return t, nil
}

func (t *CSVTracker) Load(ctx context.Context) (map[string]model.ProcessingStatus, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	rows, err := t.readAll(ctx)
	if err != nil {
		return nil, err
	}

	statuses := make(map[string]model.ProcessingStatus, len(rows))
	for _, r := range rows {
		statuses[r.URL] = r
	}
	return statuses, nil
}

func (t *CSVTracker) Pending(ctx context.Context) ([]string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	rows, err := t.readAll(ctx)
	if err != nil {
		return nil, err
	}

	var pending []string
	for _, r := range rows {
		if r.Status.Pending() {
			pending = append(pending, r.URL)
		}
	}
	return pending, nil
}

func (t *CSVTracker) Update(ctx context.Context, url string, status model.URLStatus, notes string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	rows, err := t.readAll(ctx)
	if err != nil {
		return err
	}

	found := false
	for i := range rows {
		if rows[i].URL == url {
			rows[i].Status = status
			rows[i].Notes = notes
			found = true
			break
		}
	}
	if !found {
		rows = append(rows, model.ProcessingStatus{URL: url, Status: status, Notes: notes})
	}

	if err := t.writeAll(rows); err != nil {
		return eris.Wrapf(err, "status: update %s", url)
	}

	zap.L().Info("status: updated",
		zap.String("url", url),
		zap.String("status", string(status)),
	)
	return nil
}

// readAll parses every row, skipping malformed ones with a warning. URLs are
// unique in the file; a duplicate keeps the last occurrence.
func (t *CSVTracker) readAll(ctx context.Context) ([]model.ProcessingStatus, error) {
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "status: read canceled")
	}

	f, err := os.Open(t.path)
	if err != nil {
		return nil, eris.Wrapf(err, "status: open %s", t.path)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	var rows []model.ProcessingStatus
	seen := make(map[string]int)
	first := true
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			zap.L().Warn("status: skipping malformed row", zap.Error(err))
			continue
		}
		if first {
			first = false
			if len(record) > 0 && record[0] == "url" {
				continue
			}
		}
		if len(record) < 1 || record[0] == "" {
			zap.L().Warn("status: skipping row without url")
			continue
		}

		row := model.ProcessingStatus{URL: record[0]}
		if len(record) > 1 {
			row.Status = model.URLStatus(record[1])
		}
		if len(record) > 2 {
			row.Notes = record[2]
		}

		if idx, ok := seen[row.URL]; ok {
			rows[idx] = row
			continue
		}
		seen[row.URL] = len(rows)
		rows = append(rows, row)
	}

	return rows, nil
}

// writeAll rewrites the backing file atomically: temp file, fsync, rename.
func (t *CSVTracker) writeAll(rows []model.ProcessingStatus) error {
	dir := filepath.Dir(t.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(t.path)+".tmp-*")
	if err != nil {
		return eris.Wrap(err, "status: create temp file")
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	w := csv.NewWriter(tmp)
	if err := w.Write(csvHeader); err != nil {
		_ = tmp.Close()
		return eris.Wrap(err, "status: write header")
	}
	for _, r := range rows {
		if err := w.Write([]string{r.URL, string(r.Status), r.Notes}); err != nil {
			_ = tmp.Close()
			return eris.Wrapf(err, "status: write row %s", r.URL)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = tmp.Close()
		return eris.Wrap(err, "status: flush")
	}

	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return eris.Wrap(err, "status: sync")
	}
	if err := tmp.Close(); err != nil {
		return eris.Wrap(err, "status: close temp file")
	}

	if err := os.Rename(tmpPath, t.path); err != nil {
		return eris.Wrap(err, "status: rename temp file")
	}
	return nil
}
