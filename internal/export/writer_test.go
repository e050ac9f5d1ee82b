package export

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/dealsource/internal/model"
)

func testRecord(link string) model.DealRecord {
	return model.DealRecord{
		ArticleTitle:       "Acme acquires Widget",
		ArticleLink:        link,
		IsDealRelated:      model.RelevanceYes,
		DealType:           "acquisition",
		AnnouncementDate:   "2025-04-01",
		Buyer:              "Acme Corp",
		BuyerWebsite:       "acme.com",
		Target:             "Widget Co",
		TargetWebsite:      "widget.co",
		Amount:             "$50M",
		Currency:           "USD",
		StakePercentage:    "100",
		CountriesInvolved:  "US",
		Advisors:           "BigBank",
		StrategicRationale: "scale",
		AdditionalNotes:    "all-cash",
	}
}

func newTestWriter(t *testing.T, xlsxName string) (*Writer, string) {
	t.Helper()
	dir := t.TempDir()
	xlsxPath := ""
	if xlsxName != "" {
		xlsxPath = filepath.Join(dir, xlsxName)
	}
	w, err := NewWriter(
		filepath.Join(dir, "deals.csv"),
		filepath.Join(dir, "deals.json"),
		xlsxPath,
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })
	return w, dir
}

func TestWriter_SnapshotRoundTrip(t *testing.T) {
	w, dir := newTestWriter(t, "")

	rec := testRecord("https://news.example/acme")
	require.NoError(t, w.Write(rec))

	back, err := ReadSnapshot(filepath.Join(dir, "deals.json"))
	require.NoError(t, err)
	require.Len(t, back, 1)
	assert.Equal(t, rec, back[0])
}

func TestWriter_CSVAppendsEveryRecord(t *testing.T) {
	w, dir := newTestWriter(t, "")

	require.NoError(t, w.Write(testRecord("https://news.example/one")))

	noDeal := model.DealRecord{
		ArticleTitle:  "Weather report",
		ArticleLink:   "https://news.example/two",
		IsDealRelated: model.RelevanceNo,
	}
	require.NoError(t, w.Write(noDeal))

	f, err := os.Open(filepath.Join(dir, "deals.csv"))
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3) // header plus both records
	assert.Equal(t, model.ExportColumns, rows[0])
	assert.Equal(t, "Yes", rows[1][2])
	assert.Equal(t, "No", rows[2][2])
}

func TestWriter_SnapshotHoldsDealRelatedOnly(t *testing.T) {
	w, dir := newTestWriter(t, "")

	require.NoError(t, w.Write(testRecord("https://news.example/deal")))
	require.NoError(t, w.Write(model.DealRecord{
		ArticleLink:   "https://news.example/nodeal",
		IsDealRelated: model.RelevanceNo,
	}))
	require.NoError(t, w.Write(model.DealRecord{
		ArticleLink:   "https://news.example/unknown",
		IsDealRelated: model.RelevanceUnknown,
	}))

	back, err := ReadSnapshot(filepath.Join(dir, "deals.json"))
	require.NoError(t, err)
	require.Len(t, back, 1)
	assert.Equal(t, "https://news.example/deal", back[0].ArticleLink)

	results := w.Results()
	require.Len(t, results, 1)
}

func TestWriter_SnapshotReflectsEveryWrite(t *testing.T) {
	w, dir := newTestWriter(t, "")

	for i, link := range []string{"https://a.example", "https://b.example", "https://c.example"} {
		require.NoError(t, w.Write(testRecord(link)))

		back, err := ReadSnapshot(filepath.Join(dir, "deals.json"))
		require.NoError(t, err)
		assert.Len(t, back, i+1)
	}
}

func TestWriter_XLSXSnapshot(t *testing.T) {
	w, dir := newTestWriter(t, "deals.xlsx")

	require.NoError(t, w.Write(testRecord("https://news.example/acme")))

	wb, err := xlsx.OpenFile(filepath.Join(dir, "deals.xlsx"))
	require.NoError(t, err)
	require.Len(t, wb.Sheets, 1)

	sheet := wb.Sheets[0]
	require.GreaterOrEqual(t, len(sheet.Rows), 2)
	assert.Equal(t, "article_title", sheet.Rows[0].Cells[0].String())
	assert.Equal(t, "Acme acquires Widget", sheet.Rows[1].Cells[0].String())
}
