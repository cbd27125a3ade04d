// Package export writes evaluation reports as Excel workbooks.
package export

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/techieRahul17/intervuex/internal/types"
)

const (
	summarySheet = "Summary"
	resultsSheet = "Test Results"
)

// ReportMeta describes what was evaluated.
type ReportMeta struct {
	Challenge string
	Candidate string
}

// WriteXLSX saves report to outputPath, adding the .xlsx extension if missing.
// It returns the path written.
func WriteXLSX(report *types.SubmitReport, meta ReportMeta, outputPath string) (string, error) {
	if !strings.HasSuffix(strings.ToLower(outputPath), ".xlsx") {
		outputPath += ".xlsx"
	}
	outputPath = filepath.Clean(outputPath)

	f, err := Build(report, meta)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := f.SaveAs(outputPath); err != nil {
		return "", fmt.Errorf("failed to save workbook: %w", err)
	}
	return outputPath, nil
}

// Write streams the workbook for report to w.
func Write(w io.Writer, report *types.SubmitReport, meta ReportMeta) error {
	f, err := Build(report, meta)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Write(w)
}

// Build creates the workbook in memory. The caller closes it.
func Build(report *types.SubmitReport, meta ReportMeta) (*excelize.File, error) {
	if report == nil {
		return nil, fmt.Errorf("report is required")
	}

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		f.Close()
		return nil, err
	}
	if _, err := f.NewSheet(resultsSheet); err != nil {
		f.Close()
		return nil, err
	}

	if err := writeSummary(f, report, meta); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write summary sheet: %w", err)
	}
	if err := writeResults(f, report.Results); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write results sheet: %w", err)
	}
	return f, nil
}

func headerStyle(f *excelize.File) (int, error) {
	return f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center"},
	})
}

func writeSummary(f *excelize.File, report *types.SubmitReport, meta ReportMeta) error {
	if err := f.SetColWidth(summarySheet, "A", "A", 26); err != nil {
		return err
	}
	if err := f.SetColWidth(summarySheet, "B", "B", 40); err != nil {
		return err
	}
	label, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	submitted := report.SubmittedAt
	if submitted.IsZero() {
		submitted = time.Now()
	}
	rows := [][2]any{
		{"Challenge", meta.Challenge},
		{"Candidate", meta.Candidate},
		{"Language", string(report.Language)},
		{"Passed", fmt.Sprintf("%d / %d", report.Passed, report.Total)},
		{"Score", report.Score},
		{"Average execution time (ms)", report.AverageExecutionTime},
		{"Memory usage", report.MemoryUsage},
		{"Submitted", submitted.Format("2006-01-02 15:04:05")},
	}
	for i, r := range rows {
		row := i + 1
		if err := f.SetCellValue(summarySheet, fmt.Sprintf("A%d", row), r[0]); err != nil {
			return err
		}
		if err := f.SetCellStyle(summarySheet, fmt.Sprintf("A%d", row), fmt.Sprintf("A%d", row), label); err != nil {
			return err
		}
		if err := f.SetCellValue(summarySheet, fmt.Sprintf("B%d", row), r[1]); err != nil {
			return err
		}
	}
	return nil
}

func writeResults(f *excelize.File, results []types.TestResult) error {
	style, err := headerStyle(f)
	if err != nil {
		return err
	}
	headers := []string{"#", "Test case", "Expected", "Result", "Passed", "Time (ms)"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(resultsSheet, cell, h); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(resultsSheet, "A1", "F1", style); err != nil {
		return err
	}
	if err := f.SetColWidth(resultsSheet, "B", "D", 30); err != nil {
		return err
	}

	for i, r := range results {
		values := []any{i + 1, r.TestCase, r.Expected, r.Result, r.Passed, r.ExecutionTime}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			if err := f.SetCellValue(resultsSheet, cell, v); err != nil {
				return err
			}
		}
	}
	return nil
}
