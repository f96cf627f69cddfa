package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"pdfocr/pkg/models"
)

func sampleItems() []models.BatchItem {
	return []models.BatchItem{
		{FilePath: "/in/a.pdf", FileName: "a.pdf", Text: "Grüße aus a", Success: true},
		{FilePath: "/in/b.pdf", FileName: "b.pdf", Error: "Error processing PDF.", Success: false},
		{FilePath: "/in/scan.v2.PDF", FileName: "scan.v2.PDF", Text: "c", Success: true},
	}
}

func TestWriteTextIsUTF8(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	require.NoError(t, WriteText(path, "Straße\n\n--- Page 1 ---\n\nÉté"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Straße\n\n--- Page 1 ---\n\nÉté", string(data))
}

func TestWriteTextFailsForMissingDirectory(t *testing.T) {
	err := WriteText(filepath.Join(t.TempDir(), "missing", "out.txt"), "x")
	assert.Error(t, err)
}

func TestTextFileName(t *testing.T) {
	assert.Equal(t, "invoice.txt", TextFileName("/tmp/invoice.pdf"))
	assert.Equal(t, "scan.v2.txt", TextFileName("scan.v2.PDF"))
	assert.Equal(t, "README.txt", TextFileName("README"))
}

func TestSaveBatchResultsSkipsFailures(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "texts")

	saved, err := SaveBatchResults(sampleItems(), dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.txt"), filepath.Join(dir, "scan.v2.txt")}, saved)

	data, err := os.ReadFile(filepath.Join(dir, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "Grüße aus a", string(data))
	assert.NoFileExists(t, filepath.Join(dir, "b.txt"))
}

func TestSaveBatchResultsSkipsEmptyText(t *testing.T) {
	dir := t.TempDir()
	items := []models.BatchItem{
		{FilePath: "/in/blank.pdf", FileName: "blank.pdf", Text: "", Success: true},
		{FilePath: "/in/a.pdf", FileName: "a.pdf", Text: "a", Success: true},
	}

	saved, err := SaveBatchResults(items, dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.txt")}, saved)
	assert.NoFileExists(t, filepath.Join(dir, "blank.txt"))
}

func TestSaveBatchResultsCollidingNamesKeepLastWrite(t *testing.T) {
	dir := t.TempDir()
	items := []models.BatchItem{
		{FilePath: "/in/one/report.pdf", FileName: "report.pdf", Text: "first", Success: true},
		{FilePath: "/in/two/report.pdf", FileName: "report.pdf", Text: "second", Success: true},
	}

	saved, err := SaveBatchResults(items, dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "report.txt")}, saved)

	data, err := os.ReadFile(filepath.Join(dir, "report.txt"))
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))
}

func TestReportFormat(t *testing.T) {
	tests := []struct {
		path    string
		want    string
		wantErr bool
	}{
		{"report.json", FormatJSON, false},
		{"out/REPORT.JSON", FormatJSON, false},
		{"report.yaml", FormatYAML, false},
		{"report.yml", FormatYAML, false},
		{"report.csv", "", true},
		{"report", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := ReportFormat(tt.path)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWriteReportJSONUsesConsumerFieldNames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "batch.json")
	resp := models.BatchResponse{Success: true, Results: sampleItems()}

	require.NoError(t, WriteReport(path, resp))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, true, raw["success"])
	results, ok := raw["results"].([]any)
	require.True(t, ok)
	require.Len(t, results, 3)

	first := results[0].(map[string]any)
	assert.Equal(t, "/in/a.pdf", first["filePath"])
	assert.Equal(t, "a.pdf", first["fileName"])
	second := results[1].(map[string]any)
	assert.Equal(t, "Error processing PDF.", second["error"])
	assert.NotContains(t, second, "text")
}

func TestWriteReportYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "batch.yaml")
	resp := models.BatchResponse{Success: true, Results: sampleItems()}

	require.NoError(t, WriteReport(path, resp))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var got models.BatchResponse
	require.NoError(t, yaml.Unmarshal(data, &got))
	assert.Equal(t, resp, got)
	assert.Contains(t, string(data), "fileName: b.pdf")
}

func TestWriteReportRejectsUnknownExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "batch.xml")
	err := WriteReport(path, models.BatchResponse{})
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	assert.NoFileExists(t, path)
}
