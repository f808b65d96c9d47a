package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"ADRFlow/internal/model"
	"ADRFlow/internal/report"
)

const (
	failuresSheet = "Failures"
	changesSheet  = "Changes"
)

var basketHeader = []interface{}{"Basket", "Currency", "Raw dollar volume", "Value", "Share", "Resolved", "Failed"}

// WriteXLSX saves rep as a workbook at path: one sheet per date with a basket
// table and column chart, a Changes sheet when two dates were compared, and a
// Failures sheet listing every unresolved symbol.
func WriteXLSX(rep *report.Report, path string) error {
	f, err := Workbook(rep)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

// Workbook builds the workbook in memory.
func Workbook(rep *report.Report) (*excelize.File, error) {
	f := excelize.NewFile()
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create style: %w", err)
	}

	for i, snap := range rep.Snapshots {
		if err := writeSnapshot(f, snap, bold); err != nil {
			f.Close()
			return nil, err
		}
		if i == 0 {
			if err := f.DeleteSheet("Sheet1"); err != nil {
				f.Close()
				return nil, fmt.Errorf("delete default sheet: %w", err)
			}
		}
	}
	if len(rep.Changes) > 0 {
		if err := writeChanges(f, rep, bold); err != nil {
			f.Close()
			return nil, err
		}
	}
	if err := writeFailures(f, rep, bold); err != nil {
		f.Close()
		return nil, err
	}
	f.SetActiveSheet(0)
	return f, nil
}

func writeSnapshot(f *excelize.File, snap report.Snapshot, bold int) error {
	sheet := snap.Date.Format(model.DateLayout)
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("new sheet %s: %w", sheet, err)
	}
	if err := writeRow(f, sheet, 1, basketHeader); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", "G1", bold); err != nil {
		return err
	}

	for i, b := range snap.Baskets {
		row := []interface{}{
			label(b), b.Currency, b.Raw, b.Value, b.Share,
			len(b.Resolved), len(b.Failed),
		}
		if err := writeRow(f, sheet, i+2, row); err != nil {
			return err
		}
	}
	last := len(snap.Baskets) + 1

	ratio := interface{}("unavailable")
	if snap.Ratio.Valid {
		ratio = snap.Ratio.Value
	}
	footer := [][]interface{}{
		{"Total", "", "", snap.Total},
		{fmt.Sprintf("Ratio %s/%s", snap.Ratio.Pair.Local, snap.Ratio.Pair.Foreign), "", "", ratio},
	}
	for i, row := range footer {
		if err := writeRow(f, sheet, last+2+i, row); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(sheet, "A", "A", 22); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "B", "G", 16); err != nil {
		return err
	}

	if len(snap.Baskets) == 0 {
		return nil
	}
	ref := fmt.Sprintf("'%s'!", sheet)
	err := f.AddChart(sheet, "I2", &excelize.Chart{
		Type: excelize.Col,
		Series: []excelize.ChartSeries{{
			Name:       ref + "$D$1",
			Categories: fmt.Sprintf("%s$A$2:$A$%d", ref, last),
			Values:     fmt.Sprintf("%s$D$2:$D$%d", ref, last),
		}},
		Title:  []excelize.RichTextRun{{Text: "Dollar volume " + sheet}},
		Legend: excelize.ChartLegend{Position: "none"},
	})
	if err != nil {
		return fmt.Errorf("add chart %s: %w", sheet, err)
	}
	return nil
}

func writeChanges(f *excelize.File, rep *report.Report, bold int) error {
	if _, err := f.NewSheet(changesSheet); err != nil {
		return fmt.Errorf("new sheet %s: %w", changesSheet, err)
	}
	header := []interface{}{"Basket", "From", "To", "Delta", "Percent"}
	if err := writeRow(f, changesSheet, 1, header); err != nil {
		return err
	}
	if err := f.SetCellStyle(changesSheet, "A1", "E1", bold); err != nil {
		return err
	}
	for i, c := range rep.Changes {
		pct := interface{}("n/a")
		if c.PercentValid {
			pct = c.Percent
		}
		if err := writeRow(f, changesSheet, i+2, []interface{}{c.Basket, c.From, c.To, c.Delta, pct}); err != nil {
			return err
		}
	}
	return nil
}

func writeFailures(f *excelize.File, rep *report.Report, bold int) error {
	if _, err := f.NewSheet(failuresSheet); err != nil {
		return fmt.Errorf("new sheet %s: %w", failuresSheet, err)
	}
	if err := writeRow(f, failuresSheet, 1, []interface{}{"Date", "Basket", "Symbol"}); err != nil {
		return err
	}
	if err := f.SetCellStyle(failuresSheet, "A1", "C1", bold); err != nil {
		return err
	}
	row := 2
	for _, snap := range rep.Snapshots {
		date := snap.Date.Format(model.DateLayout)
		for _, b := range snap.Baskets {
			for _, sym := range b.Failed {
				if err := writeRow(f, failuresSheet, row, []interface{}{date, b.Name, sym}); err != nil {
					return err
				}
				row++
			}
		}
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s!%s: %w", sheet, cell, err)
	}
	return nil
}

func label(b report.BasketSummary) string {
	if b.Label != "" {
		return b.Label
	}
	return b.Name
}
