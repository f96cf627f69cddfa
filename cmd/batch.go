package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"pdfocr/internal/config"
	"pdfocr/internal/export"
	"pdfocr/internal/logger"
	"pdfocr/internal/progress"
	"pdfocr/pkg/models"
)

var batchCmd = &cobra.Command{
	Use:   "batch [pdf-or-folder]...",
	Short: "Extract text from many PDFs",
	Long: `Extract text from every given PDF and from all PDFs found in the given
folders (searched recursively).

Files are processed a few at a time; a failing file is reported and the rest
of the batch continues. Every result is printed with a running tally of
successes and failures.

With --sheet-url, results are also appended to a Google Sheet using the
service account in GOOGLE_APPLICATION_CREDENTIALS or GOOGLE_CREDENTIALS.

Relevant environment variables:
  BATCH_CONCURRENCY - Files processed at once (default: 4)
  OCR_MAX_ENGINES   - Upper bound on OCR engines alive at once (default: 32)`,
	Example: `  # Process a folder, saving one .txt per PDF
  pdfocr batch ./scans --output-dir ./texts

  # Process two files and a folder, two at a time, with a YAML report
  pdfocr batch a.pdf b.pdf ./more -c 2 --report report.yaml`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntP("concurrency", "c", 0, "Files processed at once (default: BATCH_CONCURRENCY)")
	batchCmd.Flags().String("output-dir", "", "Save <name>.txt for every successful file into this folder")
	batchCmd.Flags().String("report", "", "Write a batch report (.json, .yaml or .yml)")
	batchCmd.Flags().String("sheet-url", "", "Append one row per file to this Google Sheet")
	batchCmd.Flags().String("sheet-name", export.DefaultSheetName, "Sheet tab used with --sheet-url")
	batchCmd.Flags().Bool("verbose", false, "Print page progress of every file")
}

func runBatch(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("batch")

	outputDir, _ := cmd.Flags().GetString("output-dir")
	reportPath, _ := cmd.Flags().GetString("report")
	sheetURL, _ := cmd.Flags().GetString("sheet-url")
	sheetName, _ := cmd.Flags().GetString("sheet-name")
	verbose, _ := cmd.Flags().GetBool("verbose")

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	concurrency := cfg.BatchConcurrency
	if cmd.Flags().Changed("concurrency") {
		concurrency, _ = cmd.Flags().GetInt("concurrency")
	}
	if concurrency < 1 {
		return fmt.Errorf("invalid concurrency %d (must be at least 1)", concurrency)
	}

	if reportPath != "" {
		if _, err := export.ReportFormat(reportPath); err != nil {
			return err
		}
	}

	if sheetURL != "" {
		if _, err := export.SpreadsheetID(sheetURL); err != nil {
			return err
		}
	}

	pdfFiles, err := collectPDFFiles(args)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(pdfFiles) == 0 {
		fmt.Fprintln(out, "No PDF files found.")
		return nil
	}

	processor, err := newProcessor(cfg)
	if err != nil {
		return err
	}

	log.Info().
		Int("files", len(pdfFiles)).
		Int("concurrency", concurrency).
		Int("pool_size", processor.PoolSize()).
		Str("output_dir", outputDir).
		Str("report", reportPath).
		Msg("Starting batch processing")

	fmt.Fprintln(out, strings.Repeat("=", 60))
	fmt.Fprintln(out, "                   BATCH OCR")
	fmt.Fprintln(out, strings.Repeat("=", 60))
	fmt.Fprintf(out, "Processing %d PDFs, %d at a time...\n\n", len(pdfFiles), concurrency)

	items, err := processor.ProcessBatch(commandContext(cmd), pdfFiles, concurrency, batchProgress(out, cmd.ErrOrStderr(), verbose))
	if err != nil {
		return err
	}

	resp := models.BatchResponse{Success: true, Results: items}
	succeeded, failed := resp.Tally()

	fmt.Fprintln(out)
	fmt.Fprintln(out, strings.Repeat("=", 60))
	fmt.Fprintf(out, "Succeeded: %d\n", succeeded)
	if failed > 0 {
		fmt.Fprintf(out, "Failed: %d\n", failed)
	}

	if outputDir != "" {
		saved, err := export.SaveBatchResults(items, outputDir)
		if err != nil {
			log.Error().Err(err).Str("output_dir", outputDir).Msg("Failed to save batch results")
			return err
		}
		fmt.Fprintf(out, "Saved %d text files to %s\n", len(saved), outputDir)
	}

	if reportPath != "" {
		if err := export.WriteReport(reportPath, resp); err != nil {
			log.Error().Err(err).Str("report", reportPath).Msg("Failed to write batch report")
			return err
		}
		fmt.Fprintf(out, "Report: %s\n", reportPath)
	}

	if sheetURL != "" {
		// Upload even if interrupted after processing.
		ctx := context.WithoutCancel(commandContext(cmd))
		writer, err := export.NewSheetsWriter(ctx, sheetURL)
		if err != nil {
			return err
		}
		if err := writer.WriteBatch(ctx, items, sheetName); err != nil {
			log.Error().Err(err).Str("sheet", sheetName).Msg("Failed to write Google Sheet")
			return err
		}
		fmt.Fprintf(out, "Sheet: %s (%d rows)\n", sheetName, len(items))
	}

	log.Info().
		Int("total", len(items)).
		Int("success", succeeded).
		Int("errors", failed).
		Msg("Batch processing completed")

	return nil
}

// batchProgress prints one line per finished file with a running tally.
// Batch events arrive one at a time; page events may interleave across files.
func batchProgress(out, stderr io.Writer, verbose bool) progress.Sink {
	var succeeded, failed int
	var pageMu sync.Mutex

	sink := progress.Funcs{
		OnBatch: func(e progress.BatchEvent) {
			if e.Success {
				succeeded++
			} else {
				failed++
			}
			fmt.Fprintf(out, "[%d/%d] %s - %s", e.Completed, e.Total, e.Current, statusSymbol(e.Success))
			if e.Error != "" {
				fmt.Fprintf(out, " (%s)", e.Error)
			}
			fmt.Fprintf(out, "  [ok: %d, failed: %d]\n", succeeded, failed)
		},
	}
	if verbose {
		sink.OnPage = func(e progress.PageEvent) {
			pageMu.Lock()
			defer pageMu.Unlock()
			fmt.Fprintf(stderr, "  %s: page %d/%d\n", e.File, e.Completed, e.Total)
		}
	}
	return sink
}

func statusSymbol(success bool) string {
	if success {
		return "✅"
	}
	return "❌"
}
