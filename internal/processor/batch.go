// Package processor tags batches of events with a worker pool.
package processor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonesrussell/north-cloud/geotagger/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/geotagger/internal/domain"
)

const defaultConcurrency = 4

// Tagger tags one event.
type Tagger interface {
	Tag(ctx context.Context, event *domain.Event, mode domain.Mode) (domain.TagResult, error)
}

// ProcessResult holds the outcome for one event. Result is the empty
// result when Error is set.
type ProcessResult struct {
	Event  *domain.Event
	Result domain.TagResult
	Error  error
}

type job struct {
	index int
	event *domain.Event
}

// BatchProcessor tags events in parallel.
type BatchProcessor struct {
	tagger      Tagger
	concurrency int
	log         logger.Logger
}

// NewBatchProcessor creates a batch processor.
func NewBatchProcessor(tagger Tagger, concurrency int, log logger.Logger) *BatchProcessor {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &BatchProcessor{tagger: tagger, concurrency: concurrency, log: log}
}

// Process tags every event. Results are in input order. Events not started
// before ctx ends get ctx's error.
func (b *BatchProcessor) Process(ctx context.Context, events []*domain.Event, mode domain.Mode) []ProcessResult {
	results := make([]ProcessResult, len(events))
	if len(events) == 0 {
		return results
	}

	b.log.Info("Starting batch tagging",
		logger.Int("batch_size", len(events)),
		logger.Int("concurrency", b.concurrency),
		logger.String("mode", string(mode)),
	)
	startTime := time.Now()

	jobs := make(chan job, len(events))
	for i, ev := range events {
		jobs <- job{index: i, event: ev}
	}
	close(jobs)

	var wg sync.WaitGroup
	for range min(b.concurrency, len(events)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.worker(ctx, jobs, mode, results)
		}()
	}
	wg.Wait()

	failed := 0
	for i := range results {
		if results[i].Error != nil {
			failed++
		}
	}

	duration := time.Since(startTime)
	b.log.Info("Batch tagging complete",
		logger.Int("total", len(events)),
		logger.Int("success", len(events)-failed),
		logger.Int("errors", failed),
		logger.Duration("duration", duration),
	)
	return results
}

// worker writes each result into its own slot.
func (b *BatchProcessor) worker(ctx context.Context, jobs <-chan job, mode domain.Mode, results []ProcessResult) {
	for j := range jobs {
		if err := ctx.Err(); err != nil {
			results[j.index] = ProcessResult{Event: j.event, Result: domain.EmptyResult(), Error: err}
			continue
		}
		results[j.index] = b.processItem(ctx, j.event, mode)
	}
}

func (b *BatchProcessor) processItem(ctx context.Context, event *domain.Event, mode domain.Mode) (result ProcessResult) {
	result.Event = event

	defer func() {
		if r := recover(); r != nil {
			b.log.Error("Tagging panicked",
				logger.String("sequence", string(event.Sequence)),
				logger.Any("panic", r),
			)
			result.Result = domain.EmptyResult()
			result.Error = fmt.Errorf("tagging panicked: %v", r)
		}
	}()

	tagged, err := b.tagger.Tag(ctx, event, mode)
	if err != nil {
		b.log.Error("Failed to tag event",
			logger.String("sequence", string(event.Sequence)),
			logger.Error(err),
		)
		result.Result = domain.EmptyResult()
		result.Error = fmt.Errorf("tag %s: %w", event.Sequence, err)
		return result
	}

	result.Result = tagged
	return result
}
