package export

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/techieRahul17/intervuex/internal/types"
)

func sampleReport() *types.SubmitReport {
	return &types.SubmitReport{
		RunReport: types.RunReport{
			Language: types.LanguageJavaScript,
			Results: []types.TestResult{
				{TestCase: "[2,7,11,15], 9", Expected: "[0,1]", Result: "[0,1]", Passed: true, ExecutionTime: 0.42},
				{TestCase: "[3,3], 6", Expected: "[0,1]", Result: "undefined", Passed: false, ExecutionTime: 0.1},
			},
			Passed: 1,
			Total:  2,
			Score:  50,
		},
		AverageExecutionTime: 0.26,
		MemoryUsage:          "23.4 MB",
		SubmittedAt:          time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestWriteXLSX(t *testing.T) {
	path, err := WriteXLSX(sampleReport(), ReportMeta{Challenge: "Two Sum", Candidate: "a@b.com"}, filepath.Join(t.TempDir(), "report"))
	require.NoError(t, err)
	assert.Equal(t, ".xlsx", filepath.Ext(path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Summary", "Test Results"}, f.GetSheetList())

	challenge, err := f.GetCellValue("Summary", "B1")
	require.NoError(t, err)
	assert.Equal(t, "Two Sum", challenge)

	passed, err := f.GetCellValue("Summary", "B4")
	require.NoError(t, err)
	assert.Equal(t, "1 / 2", passed)

	rows, err := f.GetRows("Test Results")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Test case", rows[0][1])
	assert.Equal(t, "undefined", rows[2][3])
}

func TestWrite_Stream(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleReport(), ReportMeta{}))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	assert.Contains(t, f.GetSheetList(), "Test Results")
}

func TestBuild_NilReport(t *testing.T) {
	_, err := Build(nil, ReportMeta{})
	assert.Error(t, err)
}
