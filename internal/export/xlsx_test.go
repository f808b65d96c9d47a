package export

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"ADRFlow/internal/model"
	"ADRFlow/internal/report"
)

func sampleReport() *report.Report {
	pair := model.CrossListing{Local: "YPFD.BA", Foreign: "YPF"}
	return &report.Report{
		Snapshots: []report.Snapshot{
			{
				Date:  time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC),
				Ratio: model.ConversionRatio{Pair: pair, Value: 50, Valid: true},
				Baskets: []report.BasketSummary{
					{Name: "adr", Label: "ADRs", Currency: "USD", Raw: 1000, Value: 1000, Share: 1,
						Resolved: []model.TradingRecord{{Symbol: "YPF"}}},
					{Name: "panel_lider", Currency: "ARS", Normalized: true, Failed: []string{"GGAL.BA"}},
				},
				Total: 1000,
			},
			{
				Date:  time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC),
				Ratio: model.ConversionRatio{Pair: pair},
				Baskets: []report.BasketSummary{
					{Name: "adr", Label: "ADRs", Currency: "USD", Raw: 2000, Value: 2000, Share: 1},
					{Name: "panel_lider", Currency: "ARS", Normalized: true, Failed: []string{"GGAL.BA", "YPFD.BA"}},
				},
				Total: 2000,
			},
		},
		Changes: []report.Change{
			{Basket: "adr", From: 1000, To: 2000, Delta: 1000, Percent: 100, PercentValid: true},
			{Basket: "panel_lider"},
		},
	}
}

func TestWriteXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	require.NoError(t, WriteXLSX(sampleReport(), path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"2024-05-03", "2024-05-10", "Changes", "Failures"}, f.GetSheetList())

	v, err := f.GetCellValue("2024-05-03", "A2")
	require.NoError(t, err)
	assert.Equal(t, "ADRs", v)
	v, _ = f.GetCellValue("2024-05-03", "D2")
	assert.Equal(t, "1000", v)
	v, _ = f.GetCellValue("2024-05-03", "F2")
	assert.Equal(t, "1", v)
	v, _ = f.GetCellValue("2024-05-03", "A3")
	assert.Equal(t, "panel_lider", v)
	v, _ = f.GetCellValue("2024-05-03", "D6")
	assert.Equal(t, "50", v)
	v, _ = f.GetCellValue("2024-05-10", "D6")
	assert.Equal(t, "unavailable", v)

	v, _ = f.GetCellValue("Changes", "E2")
	assert.Equal(t, "100", v)
	v, _ = f.GetCellValue("Changes", "E3")
	assert.Equal(t, "n/a", v)

	rows, err := f.GetRows("Failures")
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Date", "Basket", "Symbol"},
		{"2024-05-03", "panel_lider", "GGAL.BA"},
		{"2024-05-10", "panel_lider", "GGAL.BA"},
		{"2024-05-10", "panel_lider", "YPFD.BA"},
	}, rows)
}

func TestWorkbook_SingleDate(t *testing.T) {
	rep := sampleReport()
	rep.Snapshots = rep.Snapshots[:1]
	rep.Changes = nil

	f, err := Workbook(rep)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"2024-05-03", "Failures"}, f.GetSheetList())
}
