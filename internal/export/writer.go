// Package export writes per-URL outcomes to the run's export sinks: an
// append-only CSV log and a full JSON snapshot (optionally mirrored as an
// XLSX workbook) rewritten after every record.
package export

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/sells-group/dealsource/internal/model"
)

// Writer persists records durably, one call per URL. Safe for concurrent
// use: the read-accumulate-rewrite cycle is a single critical section.
type Writer struct {
	mu sync.Mutex

	csvFile   *os.File
	csvWriter *csv.Writer

	jsonPath string
	xlsxPath string

	// deal-related records only; the snapshot reflects every Write so far.
	results []model.DealRecord
}

// NewWriter creates the CSV log with its header and remembers the snapshot
// paths. xlsxPath may be empty to skip the workbook sink.
func NewWriter(csvPath, jsonPath, xlsxPath string) (*Writer, error) {
	f, err := os.Create(csvPath)
	if err != nil {
		return nil, eris.Wrapf(err, "export: create %s", csvPath)
	}

	w := csv.NewWriter(f)
	if err := w.Write(model.ExportColumns); err != nil {
		_ = f.Close()
		return nil, eris.Wrap(err, "export: write header")
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return nil, eris.Wrap(err, "export: flush header")
	}

	return &Writer{
		csvFile:   f,
		csvWriter: w,
		jsonPath:  jsonPath,
		xlsxPath:  xlsxPath,
	}, nil
}

// Write appends the record to the CSV log and, when the record is
// deal-related, rewrites the snapshot sinks to include it. The CSV row is
// flushed and synced before returning.
func (w *Writer) Write(rec model.DealRecord) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.csvWriter.Write(rec.ExportRow()); err != nil {
		return eris.Wrapf(err, "export: write row %s", rec.ArticleLink)
	}
	w.csvWriter.Flush()
	if err := w.csvWriter.Error(); err != nil {
		return eris.Wrap(err, "export: flush row")
	}
	if err := w.csvFile.Sync(); err != nil {
		return eris.Wrap(err, "export: sync csv")
	}

	if rec.IsDealRelated == model.RelevanceYes {
		w.results = append(w.results, rec)
	}

	if err := w.writeJSONSnapshot(); err != nil {
		return err
	}
	if err := w.writeXLSXSnapshot(); err != nil {
		return err
	}

	zap.L().Info("export: wrote result",
		zap.String("url", rec.ArticleLink),
		zap.String("relevance", string(rec.IsDealRelated)),
	)
	return nil
}

// Results returns a copy of the accumulated deal-related records.
func (w *Writer) Results() []model.DealRecord {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]model.DealRecord, len(w.results))
	copy(out, w.results)
	return out
}

// Close flushes and closes the CSV log.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.csvWriter.Flush()
	if err := w.csvWriter.Error(); err != nil {
		_ = w.csvFile.Close()
		return eris.Wrap(err, "export: final flush")
	}
	return eris.Wrap(w.csvFile.Close(), "export: close csv")
}

// writeJSONSnapshot rewrites the full snapshot atomically.
func (w *Writer) writeJSONSnapshot() error {
	data, err := json.MarshalIndent(w.results, "", "  ")
	if err != nil {
		return eris.Wrap(err, "export: marshal snapshot")
	}
	if err := atomicWrite(w.jsonPath, data); err != nil {
		return eris.Wrapf(err, "export: write %s", w.jsonPath)
	}
	return nil
}

// writeXLSXSnapshot rewrites the workbook sink, when configured.
func (w *Writer) writeXLSXSnapshot() error {
	if w.xlsxPath == "" {
		return nil
	}

	wb := xlsx.NewFile()
	sheet, err := wb.AddSheet("deals")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	header := sheet.AddRow()
	for _, col := range model.ExportColumns {
		header.AddCell().SetString(col)
	}
	for i := range w.results {
		row := sheet.AddRow()
		for _, val := range w.results[i].ExportRow() {
			row.AddCell().SetString(val)
		}
	}

	if err := wb.Save(w.xlsxPath); err != nil {
		return eris.Wrapf(err, "export: write %s", w.xlsxPath)
	}
	return nil
}

// ReadSnapshot loads a JSON snapshot back into records.
func ReadSnapshot(path string) ([]model.DealRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "export: read %s", path)
	}
	var recs []model.DealRecord
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, eris.Wrapf(err, "export: decode %s", path)
	}
	return recs, nil
}

func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}
