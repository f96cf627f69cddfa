package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/panjf2000/ants/v2"

	"pdfocr/internal/progress"
	"pdfocr/pkg/models"
)

// DefaultBatchConcurrency is the number of documents processed at once.
const DefaultBatchConcurrency = 4

// ItemState is the lifecycle of one document in a batch. There are no
// automatic retries: a failed item stays failed.
type ItemState string

const (
	StateQueued     ItemState = "queued"
	StateProcessing ItemState = "processing"
	StateSucceeded  ItemState = "succeeded"
	StateFailed     ItemState = "failed"
)

// ProcessBatch extracts text from every path, concurrency documents at a
// time. Files are taken in chunks of concurrency and a chunk finishes before
// the next starts. One file failing never stops the others; it is reported
// as a failed item. Results are in completion order.
//
// The only error returned is for an invalid concurrency or a worker pool
// that cannot start. Cancelling ctx fails every item that has not started.
func (p *Processor) ProcessBatch(ctx context.Context, paths []string, concurrency int, sink progress.Sink) ([]models.BatchItem, error) {
	if concurrency < 1 {
		return nil, fmt.Errorf("%w (got %d)", ErrInvalidConcurrency, concurrency)
	}
	sink = progress.OrDiscard(sink)

	total := len(paths)
	results := make([]models.BatchItem, 0, total)
	if total == 0 {
		return results, nil
	}

	workers, err := ants.NewPool(concurrency)
	if err != nil {
		return nil, fmt.Errorf("create batch worker pool: %w", err)
	}
	defer workers.Release()

	log := p.log.With().Int("files", total).Int("concurrency", concurrency).Logger()
	log.Info().Msg("Batch started")
	for _, path := range paths {
		log.Debug().Str("file", path).Str("state", string(StateQueued)).Msg("Batch item queued")
	}

	var mu sync.Mutex
	completed := 0
	record := func(item models.BatchItem) {
		mu.Lock()
		defer mu.Unlock()
		completed++
		results = append(results, item)
		sink.Batch(progress.BatchEvent{
			Completed: completed,
			Total:     total,
			Current:   item.FileName,
			Success:   item.Success,
			Error:     item.Error,
		})
	}

	// Documents already dispatched finish even if ctx is cancelled.
	workCtx := context.WithoutCancel(ctx)

	for start := 0; start < total; start += concurrency {
		if err := ctx.Err(); err != nil {
			for _, path := range paths[start:] {
				log.Debug().Str("file", path).Str("state", string(StateFailed)).Msg("Batch item skipped")
				record(failedItem(path, err))
			}
			break
		}

		var wg sync.WaitGroup
		for _, path := range paths[start:min(start+concurrency, total)] {
			wg.Add(1)
			task := func() {
				defer wg.Done()
				defer func() {
					if r := recover(); r != nil {
						log.Error().Str("file", path).Interface("panic", r).Msg("Batch item panicked")
						record(failedItem(path, fmt.Errorf("%w: %v", ErrDocumentPanic, r)))
					}
				}()
				record(p.processItem(workCtx, path, sink))
			}
			if err := workers.Submit(task); err != nil {
				wg.Done()
				record(failedItem(path, err))
			}
		}
		wg.Wait()
	}

	succeeded := 0
	for _, item := range results {
		if item.Success {
			succeeded++
		}
	}
	log.Info().
		Int("succeeded", succeeded).
		Int("failed", total-succeeded).
		Msg("Batch finished")

	return results, nil
}

func (p *Processor) processItem(ctx context.Context, path string, sink progress.Sink) models.BatchItem {
	log := p.log.With().Str("file", path).Logger()
	log.Debug().Str("state", string(StateProcessing)).Msg("Batch item started")

	result, err := p.ProcessDocument(ctx, path, sink)
	if err != nil {
		log.Debug().Str("state", string(StateFailed)).Msg("Batch item finished")
		return failedItem(path, err)
	}

	log.Debug().Str("state", string(StateSucceeded)).Msg("Batch item finished")
	return models.BatchItem{
		FilePath: path,
		FileName: filepath.Base(path),
		Text:     result.Text,
		Success:  true,
	}
}

func failedItem(path string, err error) models.BatchItem {
	return models.BatchItem{
		FilePath: path,
		FileName: filepath.Base(path),
		Error:    UserMessage(err),
		Success:  false,
	}
}
