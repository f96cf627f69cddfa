package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"pdfocr/internal/config"
	"pdfocr/internal/export"
	"pdfocr/internal/logger"
	"pdfocr/internal/pipeline"
	"pdfocr/internal/progress"
	"pdfocr/pkg/models"
)

var extractCmd = &cobra.Command{
	Use:   "extract [pdf-file]",
	Short: "Extract text from a PDF",
	Long: `Render every page of a PDF with pdftoppm and run OCR over the pages.

The text of each page is written in page order, separated by a
"--- Page N ---" marker. Page progress is printed to stderr.

Relevant environment variables:
  OCR_ENGINE      - tesseract (default), vision or documentai
  OCR_LANGUAGE    - Tesseract language code (default: eng)
  PDFTOPPM_PATH   - Explicit path to the pdftoppm binary
  RASTER_TIMEOUT  - Maximum time for rasterizing one PDF (default: 5m)`,
	Example: `  # Extract text from scan.pdf to stdout
  pdfocr extract scan.pdf

  # Save extracted text to a file
  pdfocr extract scan.pdf -o scan.txt

  # Output the result as JSON
  pdfocr extract scan.pdf --json -o result.json`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	extractCmd.Flags().Bool("json", false, "Output as JSON")
	extractCmd.Flags().BoolP("quiet", "q", false, "Do not print page progress")
}

func runExtract(cmd *cobra.Command, args []string) error {
	pdfPath := args[0]
	log := logger.WithDocument("extract", pdfPath)

	outputPath, _ := cmd.Flags().GetString("output")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	quiet, _ := cmd.Flags().GetBool("quiet")

	log.Info().
		Str("output", outputPath).
		Bool("json", jsonOutput).
		Msg("Starting OCR extraction")

	if _, err := validatePDFFile(pdfPath, log); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	processor, err := newProcessor(cfg)
	if err != nil {
		return err
	}

	stderr := cmd.ErrOrStderr()
	sink := progress.Discard
	if !quiet {
		sink = pageProgress(stderr)
	}

	result, err := processor.ProcessDocument(commandContext(cmd), pdfPath, sink)
	if !quiet {
		fmt.Fprintln(stderr)
	}
	if err != nil {
		message := pipeline.UserMessage(err)
		if jsonOutput {
			resp := models.DocumentResponse{Success: false, Error: message}
			if writeErr := writeDocumentJSON(cmd.OutOrStdout(), outputPath, resp, log); writeErr != nil {
				log.Warn().Err(writeErr).Msg("Failed to write JSON error response")
			}
		}
		return errors.New(message)
	}

	if jsonOutput {
		resp := models.DocumentResponse{
			Success:    true,
			Text:       result.Text,
			TotalPages: result.TotalPages,
		}
		return writeDocumentJSON(cmd.OutOrStdout(), outputPath, resp, log)
	}
	return writeOutput(cmd.OutOrStdout(), outputPath, result.Text, log)
}

// pageProgress rewrites a single "Processing page X/Y" line on w.
func pageProgress(w io.Writer) progress.Sink {
	return progress.Funcs{
		OnPage: func(e progress.PageEvent) {
			fmt.Fprintf(w, "\rProcessing page %d/%d", e.Completed, e.Total)
		},
	}
}

func writeDocumentJSON(stdout io.Writer, outputPath string, resp models.DocumentResponse, log zerolog.Logger) error {
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal JSON output")
		return fmt.Errorf("failed to create JSON output: %w", err)
	}
	return writeOutput(stdout, outputPath, string(data)+"\n", log)
}

// writeOutput writes text to outputPath, or to stdout when no path is given.
func writeOutput(stdout io.Writer, outputPath, text string, log zerolog.Logger) error {
	if outputPath == "" {
		if _, err := io.WriteString(stdout, text); err != nil {
			log.Error().Err(err).Msg("Failed to write to stdout")
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}

	if err := export.WriteText(outputPath, text); err != nil {
		log.Error().
			Err(err).
			Str("output_file", outputPath).
			Msg("Failed to write output file")
		return err
	}

	log.Info().
		Str("output_file", outputPath).
		Int("bytes", len(text)).
		Msg("OCR results written to file")
	return nil
}
