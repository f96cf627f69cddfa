// Package pipeline turns PDF files into text: it rasterizes each document
// into a private workspace, runs the page images through a pool of OCR
// engines, and stitches the page texts back together in page order.
//
// ProcessDocument handles one file; ProcessBatch runs many files with a
// bounded concurrency and reports each file's outcome without letting one
// failure affect the others.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"pdfocr/internal/logger"
	"pdfocr/internal/ocr"
	"pdfocr/internal/progress"
	"pdfocr/internal/raster"
)

// DefaultEngineBudget caps the OCR engines alive at once across all
// documents processed by one Processor.
const DefaultEngineBudget = 32

// Rasterizer renders a PDF into page images inside outDir.
type Rasterizer interface {
	Rasterize(ctx context.Context, pdfPath, outDir string) ([]raster.Page, error)
}

// DocumentResult is the extracted text of one PDF.
type DocumentResult struct {
	Path       string
	Text       string
	TotalPages int
	Duration   time.Duration
}

// Processor runs the OCR pipeline. It is safe for concurrent use; every
// call gets its own workspace and its own engine pool.
type Processor struct {
	rasterizer Rasterizer
	factory    ocr.EngineFactory
	poolSize   int
	tempRoot   string
	budgetSize int
	budget     *semaphore.Weighted
	log        zerolog.Logger
}

// Option configures a Processor.
type Option func(*Processor)

// WithPoolSize sets the number of OCR engines created per document.
func WithPoolSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.poolSize = size
		}
	}
}

// WithTempRoot sets the directory that holds per-document workspaces.
func WithTempRoot(dir string) Option {
	return func(p *Processor) { p.tempRoot = dir }
}

// WithEngineBudget caps the engines alive at once across concurrent
// documents. Zero removes the cap.
func WithEngineBudget(engines int) Option {
	return func(p *Processor) {
		if engines >= 0 {
			p.budgetSize = engines
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) Option {
	return func(p *Processor) { p.log = log }
}

// NewProcessor creates a Processor. The pool size defaults to
// ocr.DefaultPoolSize and is clamped to the engine budget.
func NewProcessor(rasterizer Rasterizer, factory ocr.EngineFactory, opts ...Option) *Processor {
	p := &Processor{
		rasterizer: rasterizer,
		factory:    factory,
		poolSize:   ocr.DefaultPoolSize(),
		budgetSize: DefaultEngineBudget,
		log:        logger.WithComponent("pipeline"),
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.budgetSize > 0 {
		if p.poolSize > p.budgetSize {
			p.poolSize = p.budgetSize
		}
		p.budget = semaphore.NewWeighted(int64(p.budgetSize))
	}
	return p
}

// PoolSize returns the number of engines each document uses.
func (p *Processor) PoolSize() int {
	return p.poolSize
}

// ProcessDocument extracts the text of one PDF. On any failure no text is
// returned; the engine pool is shut down and the workspace removed before
// the error is returned.
func (p *Processor) ProcessDocument(ctx context.Context, pdfPath string, sink progress.Sink) (*DocumentResult, error) {
	log := p.log.With().Str("file", pdfPath).Logger()
	sink = progress.OrDiscard(sink)
	start := time.Now()

	result, err := p.processDocument(ctx, pdfPath, sink, log)
	if err != nil {
		log.Error().
			Err(err).
			Dur("duration", time.Since(start)).
			Msg("Document processing failed")
		return nil, &DocumentError{Path: pdfPath, Err: err}
	}

	result.Duration = time.Since(start)
	log.Info().
		Int("pages", result.TotalPages).
		Int("text_length", len(result.Text)).
		Dur("duration", result.Duration).
		Msg("Document processed")
	return result, nil
}

func (p *Processor) processDocument(ctx context.Context, pdfPath string, sink progress.Sink, log zerolog.Logger) (*DocumentResult, error) {
	ws, err := newWorkspace(p.tempRoot)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}
	defer ws.release(log)

	pages, err := p.rasterizer.Rasterize(ctx, pdfPath, ws.dir)
	if err != nil {
		return nil, err
	}
	if len(pages) == 0 {
		return nil, raster.ErrNoPagesProduced
	}
	log.Debug().Int("pages", len(pages)).Str("workspace", ws.dir).Msg("PDF rasterized")

	release, err := p.reserveEngines(ctx, p.poolSize)
	if err != nil {
		return nil, err
	}
	defer release()

	pool, err := ocr.NewPool(ctx, p.poolSize, p.factory)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := pool.Shutdown(); err != nil {
			log.Warn().Err(err).Msg("OCR pool shutdown reported errors")
		}
	}()
	log.Debug().Int("pool_size", pool.Size()).Msg("OCR pool ready")

	results, err := p.recognizePages(ctx, pool, pdfPath, pages, sink, log)
	if err != nil {
		return nil, err
	}

	return &DocumentResult{
		Path:       pdfPath,
		Text:       joinPages(results),
		TotalPages: len(pages),
	}, nil
}

// reserveEngines blocks until n engines fit in the budget.
func (p *Processor) reserveEngines(ctx context.Context, n int) (func(), error) {
	if p.budget == nil {
		return func() {}, nil
	}
	if err := p.budget.Acquire(ctx, int64(n)); err != nil {
		return nil, err
	}
	return func() { p.budget.Release(int64(n)) }, nil
}

type pageResult struct {
	index int
	text  string
}

// recognizePages runs pages through the pool one batch of pool.Size() pages
// at a time. Page i of a batch always goes to worker i, so no worker sees
// two pages at once, and the next batch starts only after the current one
// has finished.
func (p *Processor) recognizePages(ctx context.Context, pool *ocr.Pool, pdfPath string, pages []raster.Page, sink progress.Sink, log zerolog.Logger) ([]pageResult, error) {
	total := len(pages)
	results := make([]pageResult, 0, total)

	var mu sync.Mutex
	completed := 0

	// Work that has been dispatched runs to completion; cancellation only
	// stops batches that have not started.
	workCtx := context.WithoutCancel(ctx)

	for start := 0; start < total; start += pool.Size() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		end := min(start+pool.Size(), total)
		var g errgroup.Group
		for worker, page := range pages[start:end] {
			g.Go(func() (err error) {
				defer func() {
					if r := recover(); r != nil {
						err = &PageError{Index: page.Index, Err: fmt.Errorf("%w: engine panic: %v", ocr.ErrOCRFailed, r)}
					}
				}()

				text, err := recognizePage(workCtx, pool, worker, page, log)
				if err != nil {
					return err
				}

				mu.Lock()
				defer mu.Unlock()
				results = append(results, pageResult{index: page.Index, text: text})
				completed++
				sink.Page(progress.PageEvent{File: pdfPath, Completed: completed, Total: total})
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	return results, nil
}

// recognizePage OCRs one image and deletes it, whether or not OCR succeeded.
func recognizePage(ctx context.Context, pool *ocr.Pool, worker int, page raster.Page, log zerolog.Logger) (string, error) {
	defer func() {
		if err := os.Remove(page.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			log.Debug().Err(err).Str("path", page.Path).Msg("Could not delete page image")
		}
	}()

	image, err := os.ReadFile(page.Path)
	if err != nil {
		return "", &PageError{Index: page.Index, Err: fmt.Errorf("%w: %w", ErrIO, err)}
	}

	text, err := pool.Recognize(ctx, worker, image)
	if err != nil {
		return "", &PageError{Index: page.Index, Err: err}
	}
	return text, nil
}

// PageSeparator returns the marker placed after the n-th page (1-based).
func PageSeparator(n int) string {
	return fmt.Sprintf("\n\n--- Page %d ---\n\n", n)
}

// joinPages orders results by page index and joins them with separators
// between pages, none after the last.
func joinPages(results []pageResult) string {
	sort.Slice(results, func(i, j int) bool { return results[i].index < results[j].index })

	var b strings.Builder
	for i, r := range results {
		b.WriteString(r.text)
		if i < len(results)-1 {
			b.WriteString(PageSeparator(i + 1))
		}
	}
	return b.String()
}
