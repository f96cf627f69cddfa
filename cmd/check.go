package cmd

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"pdfocr/internal/config"
	"pdfocr/internal/logger"
	"pdfocr/internal/ocr"
	"pdfocr/internal/pipeline"
	"pdfocr/internal/raster"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Show which rasterizer and OCR settings this machine would use",
	Long: `Locate pdftoppm the same way extraction does (PDFTOPPM_PATH, a bundled
copy next to the executable, then PATH) and print the result together with
the OCR engine and pool size.

With --engine, one OCR engine is also started and closed to verify that it
is installed and, for cloud engines, that credentials are usable.`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().Bool("engine", false, "Also start one OCR engine")
}

func runCheck(cmd *cobra.Command, _ []string) error {
	log := logger.WithComponent("check")
	ctx := commandContext(cmd)
	out := cmd.OutOrStdout()
	startEngine, _ := cmd.Flags().GetBool("engine")

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	tool, err := raster.NewSystemLocator(cfg.PdftoppmPath).Locate(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Rasterizer check failed")
		fmt.Fprintf(out, "pdftoppm:     %s\n", pipeline.UserMessage(err))
		return errors.New(pipeline.UserMessage(err))
	}
	fmt.Fprintf(out, "pdftoppm:     %s\n", tool.Path)
	if len(tool.Env) > 0 {
		fmt.Fprintf(out, "environment:  %s\n", strings.Join(tool.Env, " "))
	}

	processor, err := newProcessor(cfg)
	if err != nil {
		return err
	}

	budget := "unlimited"
	if cfg.MaxEngines > 0 {
		budget = fmt.Sprintf("%d", cfg.MaxEngines)
	}
	fmt.Fprintf(out, "engine:       %s (%s)\n", cfg.OCREngine, cfg.OCRLanguage)
	fmt.Fprintf(out, "cpu cores:    %d\n", runtime.NumCPU())
	fmt.Fprintf(out, "pool size:    %d\n", processor.PoolSize())
	fmt.Fprintf(out, "engine cap:   %s\n", budget)
	fmt.Fprintf(out, "concurrency:  %d\n", cfg.BatchConcurrency)

	if !startEngine {
		return nil
	}

	factory, err := ocr.NewEngineFactory(cfg.GetEngineConfig())
	if err != nil {
		return err
	}
	engine, err := factory(ctx)
	if err != nil {
		log.Error().Err(err).Str("engine", cfg.OCREngine).Msg("OCR engine check failed")
		fmt.Fprintf(out, "engine check: %s\n", pipeline.MsgEngineInit)
		return fmt.Errorf("OCR engine %q could not be started: %w", cfg.OCREngine, err)
	}
	if err := engine.Close(); err != nil {
		log.Warn().Err(err).Msg("Failed to close OCR engine")
	}
	fmt.Fprintln(out, "engine check: ok")

	log.Info().
		Str("pdftoppm", tool.Path).
		Str("engine", cfg.OCREngine).
		Int("pool_size", processor.PoolSize()).
		Msg("Environment check passed")
	return nil
}
