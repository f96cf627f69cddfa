package cmd

import (
	"context"
	"os"
	"syscall"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "pdfocr",
	Short: "Extract text from PDF documents via OCR",
	Long: `pdfocr turns scanned or image-only PDFs into plain text.

Each PDF is rendered to grayscale page images with pdftoppm (poppler), the
pages are recognized by a pool of OCR engines running in parallel, and the
page texts are joined in page order with a "--- Page N ---" marker between
pages.

Configuration is read from the environment and from a .env file in the
working directory. See "pdfocr check" for what this machine would use.`,
	SilenceUsage: true,
}

// Execute runs the CLI. Interrupt and SIGTERM cancel the command context.
func Execute(ctx context.Context, version string) error {
	return fang.Execute(
		ctx,
		rootCmd,
		fang.WithVersion(version),
		fang.WithNotifySignal(os.Interrupt, syscall.SIGTERM),
	)
}
