package report

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/banshee-data/activity.report/internal/analysis"
)

// workbookCell converts a table value for excelize. Non-finite numbers are
// left blank and times are written as text in the table layout.
func workbookCell(v interface{}) interface{} {
	switch x := v.(type) {
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil
		}
	case time.Time:
		return x.Format(cellTimeLayout)
	}
	return v
}

// WriteWorkbook writes an XLSX workbook with sheets Daily, Sleep, Bouts and
// Hourly. Every sheet has a bold header row, even when it has no data.
func WriteWorkbook(w io.Writer, r *analysis.Result) error {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	for i, t := range participantTables(r) {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", t.name); err != nil {
				return fmt.Errorf("failed to rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(t.name); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", t.name, err)
		}
		if err := writeSheet(f, t, headerStyle); err != nil {
			return err
		}
	}
	f.SetActiveSheet(0)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, t table, headerStyle int) error {
	header := make([]interface{}, len(t.header))
	for i, h := range t.header {
		header[i] = h
	}
	if err := f.SetSheetRow(t.name, "A1", &header); err != nil {
		return fmt.Errorf("failed to write %s header: %w", t.name, err)
	}
	last, err := excelize.CoordinatesToCellName(len(t.header), 1)
	if err != nil {
		return fmt.Errorf("failed to convert coordinates: %w", err)
	}
	if err := f.SetCellStyle(t.name, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("failed to style %s header: %w", t.name, err)
	}

	for i, row := range t.rows {
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = workbookCell(v)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetSheetRow(t.name, cell, &cells); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", t.name, i+2, err)
		}
	}

	lastCol, err := excelize.ColumnNumberToName(len(t.header))
	if err != nil {
		return fmt.Errorf("failed to convert column number: %w", err)
	}
	if err := f.SetColWidth(t.name, "A", lastCol, 18); err != nil {
		return fmt.Errorf("failed to set %s column width: %w", t.name, err)
	}
	return nil
}
