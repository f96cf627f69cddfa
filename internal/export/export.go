// Package export writes extraction results to disk: a single document's
// text, one .txt per successful batch item, and a batch report.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"pdfocr/internal/logger"
	"pdfocr/pkg/models"
)

// ErrUnsupportedFormat is returned for report paths that are neither JSON nor YAML.
var ErrUnsupportedFormat = errors.New("unsupported report format")

// Report formats recognised by WriteReport.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// WriteText writes text as UTF-8 to path, replacing any existing file.
func WriteText(path, text string) error {
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("failed to write text file: %w", err)
	}
	return nil
}

// TextFileName returns the <base>.txt name used for a source PDF.
func TextFileName(sourcePath string) string {
	base := filepath.Base(sourcePath)
	return strings.TrimSuffix(base, filepath.Ext(base)) + ".txt"
}

// SaveBatchResults writes <base>.txt into dir for every successful item that
// produced text and returns the paths written. Failed and empty items are
// skipped. Items whose names collide overwrite each other in completion order.
func SaveBatchResults(items []models.BatchItem, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	log := logger.WithComponent("export")
	written := make(map[string]string, len(items))
	saved := make([]string, 0, len(items))
	for _, item := range items {
		if !item.Success || item.Text == "" {
			continue
		}
		name := item.FileName
		if name == "" {
			name = item.FilePath
		}
		path := filepath.Join(dir, TextFileName(name))
		if prev, ok := written[path]; ok {
			log.Warn().
				Str("path", path).
				Str("previous", prev).
				Str("file", item.FilePath).
				Msg("Text file name collision, overwriting")
		}
		if err := WriteText(path, item.Text); err != nil {
			return saved, fmt.Errorf("%s: %w", item.FileName, err)
		}
		if _, ok := written[path]; !ok {
			saved = append(saved, path)
		}
		written[path] = item.FilePath
	}
	return saved, nil
}

// ReportFormat picks the report format from the file extension.
func ReportFormat(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q (use .json, .yaml or .yml)", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// MarshalReport encodes a batch response in the given format.
func MarshalReport(resp models.BatchResponse, format string) ([]byte, error) {
	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to marshal JSON report: %w", err)
		}
		return append(data, '\n'), nil
	case FormatYAML:
		data, err := yaml.Marshal(resp)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal YAML report: %w", err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// WriteReport writes resp to path as JSON or YAML, chosen by extension.
func WriteReport(path string, resp models.BatchResponse) error {
	format, err := ReportFormat(path)
	if err != nil {
		return err
	}
	data, err := MarshalReport(resp, format)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
