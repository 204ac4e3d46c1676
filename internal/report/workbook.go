package report

import (
	"fmt"
	"math"

	"github.com/xuri/excelize/v2"
)

const summarySheet = "summary"

// writeWorkbook stores the summary and every sheet of r in one XLSX file.
func writeWorkbook(path string, r Report) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()

	if err := f.SetSheetName(f.GetSheetName(0), summarySheet); err != nil {
		return fmt.Errorf("report: workbook: %w", err)
	}
	s := r.Summary
	stats := [][]any{
		{"statistic", "processing_time_days"},
		{"count", s.Count},
		{"mean", xlsxValue(s.Mean)},
		{"std", xlsxValue(s.Std)},
		{"min", xlsxValue(s.Min)},
		{"25%", xlsxValue(s.Q25)},
		{"50%", xlsxValue(s.Q50)},
		{"75%", xlsxValue(s.Q75)},
		{"max", xlsxValue(s.Max)},
	}
	if err := setRows(f, summarySheet, stats); err != nil {
		return err
	}

	for _, sh := range r.Sheets {
		name := sh.Name()
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("report: workbook sheet %s: %w", name, err)
		}
		rows := make([][]any, 0, len(sh.Rows)+1)
		header := make([]any, len(sh.Header))
		for i, h := range sh.Header {
			header[i] = h
		}
		rows = append(rows, header)
		for _, row := range sh.Rows {
			out := make([]any, len(row))
			for i, v := range row {
				out[i] = xlsxValue(v)
			}
			rows = append(rows, out)
		}
		if err := setRows(f, name, rows); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("report: save %s: %w", path, err)
	}
	return nil
}

func setRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("report: workbook %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

// xlsxValue leaves NaN cells empty.
func xlsxValue(v any) any {
	if x, ok := v.(float64); ok && math.IsNaN(x) {
		return nil
	}
	return v
}
