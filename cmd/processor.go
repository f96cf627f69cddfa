package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"pdfocr/internal/config"
	"pdfocr/internal/logger"
	"pdfocr/internal/ocr"
	"pdfocr/internal/pipeline"
	"pdfocr/internal/raster"
)

// newProcessor wires the rasterizer, engine factory and pool policy from cfg.
func newProcessor(cfg *config.Config) (*pipeline.Processor, error) {
	locator := raster.NewSystemLocator(cfg.PdftoppmPath)
	rasterizer := raster.New(locator,
		raster.WithDPI(cfg.RasterDPI),
		raster.WithTimeout(cfg.RasterTimeout),
		raster.WithLogger(logger.WithComponent("raster")),
	)

	factory, err := ocr.NewEngineFactory(cfg.GetEngineConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to configure OCR engine: %w", err)
	}

	return pipeline.NewProcessor(rasterizer, factory,
		pipeline.WithPoolSize(cfg.GetSizePolicy().Size(runtime.NumCPU())),
		pipeline.WithEngineBudget(cfg.MaxEngines),
		pipeline.WithTempRoot(cfg.WorkspaceRoot),
		pipeline.WithLogger(logger.WithComponent("pipeline")),
	), nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// validatePDFFile checks that the file exists, is a non-empty regular file,
// and warns when it lacks a .pdf extension.
func validatePDFFile(pdfPath string, log zerolog.Logger) (os.FileInfo, error) {
	fileInfo, err := os.Stat(pdfPath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Error().
				Str("file", pdfPath).
				Msg("PDF file not found")
			return nil, fmt.Errorf("PDF file not found: %s", pdfPath)
		}
		if os.IsPermission(err) {
			log.Error().
				Str("file", pdfPath).
				Msg("Permission denied accessing PDF file")
			return nil, fmt.Errorf("permission denied accessing PDF file: %s", pdfPath)
		}
		return nil, fmt.Errorf("error accessing PDF file: %w", err)
	}

	if !fileInfo.Mode().IsRegular() {
		log.Error().
			Str("file", pdfPath).
			Msg("Path is not a regular file")
		return nil, fmt.Errorf("path is not a regular file: %s", pdfPath)
	}

	if !strings.HasSuffix(strings.ToLower(pdfPath), ".pdf") {
		log.Warn().
			Str("file", pdfPath).
			Msg("File does not have .pdf extension")
	}

	if fileInfo.Size() == 0 {
		log.Error().
			Str("file", pdfPath).
			Msg("PDF file is empty")
		return nil, fmt.Errorf("PDF file is empty: %s", pdfPath)
	}

	return fileInfo, nil
}

// findPDFFiles finds all PDF files below folderPath, sorted by path.
func findPDFFiles(folderPath string) ([]string, error) {
	var pdfFiles []string

	err := filepath.Walk(folderPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if !info.IsDir() && strings.HasSuffix(strings.ToLower(info.Name()), ".pdf") {
			pdfFiles = append(pdfFiles, path)
		}

		return nil
	})

	sort.Strings(pdfFiles)
	return pdfFiles, err
}

// collectPDFFiles expands folders into the PDFs they contain and keeps plain
// files as given. A path listed twice is processed once.
func collectPDFFiles(args []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("path not found: %s", arg)
			}
			return nil, fmt.Errorf("error accessing %s: %w", arg, err)
		}

		if !info.IsDir() {
			add(filepath.Clean(arg))
			continue
		}

		found, err := findPDFFiles(arg)
		if err != nil {
			return nil, fmt.Errorf("failed to find PDF files in %s: %w", arg, err)
		}
		for _, path := range found {
			add(filepath.Clean(path))
		}
	}

	return files, nil
}
