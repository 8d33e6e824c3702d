// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package scrape orchestrates a full run across the source adapters.
//
// Fetching and transforming run concurrently on a worker pool, one task
// per adapter. Uploads stay strictly sequential afterward so the store
// sees one writer and the batch delays hold. A file lock guards against
// two scrape runs racing each other on the same data directory.
package scrape

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gofrs/flock"
	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/dishpipe/activity"
	"github.com/poiesic/dishpipe/core"
	"github.com/poiesic/dishpipe/filter"
	"github.com/poiesic/dishpipe/ingestion"
	"github.com/poiesic/dishpipe/sources"
)

var (
	// ErrAlreadyRunning means another scrape holds the run lock.
	ErrAlreadyRunning = errors.New("another scrape run is already in progress")

	// ErrPipelineRequired is returned when creating a runner without
	// an upload pipeline.
	ErrPipelineRequired = errors.New("upload pipeline is required")
)

// SourceResult is the outcome for one adapter.
type SourceResult struct {
	Source   string
	Fetched  int
	Filtered int
	Stats    *ingestion.Stats
	Err      error
}

// Runner drives all configured adapters through fetch, transform,
// filter and upload.
type Runner struct {
	adapters []sources.Adapter
	pipeline *ingestion.Pipeline
	filter   *filter.Filter
	journal  *activity.Logger
	lock     *flock.Flock
	poolSize int
	logger   *slog.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithFilter sets the content filter. Default is the stock denylist.
func WithFilter(f *filter.Filter) RunnerOption {
	return func(r *Runner) { r.filter = f }
}

// WithActivityLog attaches the rolling activity journal.
func WithActivityLog(journal *activity.Logger) RunnerOption {
	return func(r *Runner) { r.journal = journal }
}

// WithPoolSize caps the number of adapters fetching at once.
func WithPoolSize(size int) RunnerOption {
	return func(r *Runner) {
		if size < 1 {
			size = 1
		}
		r.poolSize = size
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
	}
}

// NewRunner creates a scrape runner. lockPath is the file lock guarding
// against concurrent runs.
func NewRunner(adapters []sources.Adapter, pipeline *ingestion.Pipeline, lockPath string, opts ...RunnerOption) (*Runner, error) {
	if pipeline == nil {
		return nil, ErrPipelineRequired
	}

	r := &Runner{
		adapters: adapters,
		pipeline: pipeline,
		filter:   filter.New(nil),
		lock:     flock.New(lockPath),
		poolSize: len(adapters),
		logger:   slog.Default(),
	}
	if r.poolSize < 1 {
		r.poolSize = 1
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Run executes a full scrape. Each adapter's failure is isolated: a
// fetch error or quota refusal costs only that adapter's records, and
// the run reports per-source results rather than failing outright.
func (r *Runner) Run(ctx context.Context) ([]SourceResult, error) {
	locked, err := r.lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire run lock: %w", err)
	}
	if !locked {
		return nil, ErrAlreadyRunning
	}
	defer func() {
		if err := r.lock.Unlock(); err != nil {
			r.logger.Warn("failed to release run lock", slog.Any("error", err))
		}
	}()

	r.journalLog(ctx, activity.KindScrape, "scrape run started", map[string]any{
		"sources": len(r.adapters),
	})

	// Phase one: fetch and transform concurrently, one task per
	// adapter. The pool bounds how many providers we hit at once.
	pool, err := ants.NewPool(r.poolSize)
	if err != nil {
		return nil, err
	}
	defer pool.Release()

	results := make([]SourceResult, len(r.adapters))
	fetched := make([][]*core.Dish, len(r.adapters))
	var wg sync.WaitGroup
	for i, adapter := range r.adapters {
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			results[i], fetched[i] = r.fetchSource(ctx, adapter)
		})
		if submitErr != nil {
			wg.Done()
			results[i] = SourceResult{Source: adapter.Source(), Err: submitErr}
		}
	}
	wg.Wait()

	// Phase two: filter and upload sequentially per source.
	for i := range results {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		r.uploadSource(ctx, &results[i], fetched[i])
	}

	r.journalLog(ctx, activity.KindScrape, "scrape run finished", summarize(results))
	return results, nil
}

func (r *Runner) fetchSource(ctx context.Context, adapter sources.Adapter) (SourceResult, []*core.Dish) {
	result := SourceResult{Source: adapter.Source()}

	records, err := adapter.FetchBatch(ctx)
	if err != nil && !errors.Is(err, sources.ErrQuotaExceeded) {
		r.logger.Error("fetch failed",
			slog.String("source", adapter.Source()), slog.Any("error", err))
		r.journalLog(ctx, activity.KindError, "fetch failed: "+adapter.Source(), map[string]any{
			"error": err.Error(),
		})
		result.Err = err
		return result, nil
	}
	if errors.Is(err, sources.ErrQuotaExceeded) {
		r.journalLog(ctx, activity.KindAPI, "quota exceeded: "+adapter.Source(), nil)
	}
	result.Fetched = len(records)

	var dishes []*core.Dish
	for _, record := range records {
		dish, terr := adapter.Transform(record)
		if terr != nil {
			r.logger.Warn("transform failed",
				slog.String("source", adapter.Source()), slog.Any("error", terr))
			continue
		}
		dishes = append(dishes, dish)
	}
	return result, dishes
}

func (r *Runner) uploadSource(ctx context.Context, result *SourceResult, dishes []*core.Dish) {
	if result.Err != nil {
		return
	}

	kept, excluded := r.filter.Apply(dishes)
	result.Filtered = len(excluded)
	for _, dish := range excluded {
		r.journalLog(ctx, activity.KindFilter, "filtered: "+dish.Name, map[string]any{
			"source": result.Source,
		})
	}
	if len(kept) == 0 {
		result.Stats = &ingestion.Stats{}
		return
	}

	stats, err := r.pipeline.UploadBatch(ctx, kept)
	result.Stats = stats
	if err != nil {
		result.Err = err
	}
}

func (r *Runner) journalLog(ctx context.Context, kind activity.Kind, message string, metadata map[string]any) {
	if r.journal == nil {
		return
	}
	r.journal.Log(ctx, kind, message, metadata)
}

func summarize(results []SourceResult) map[string]any {
	total, success, failed := 0, 0, 0
	for _, res := range results {
		if res.Stats == nil {
			continue
		}
		total += res.Stats.Total
		success += res.Stats.Success
		failed += res.Stats.Failed
	}
	return map[string]any{
		"candidates": total,
		"uploaded":   success,
		"failed":     failed,
	}
}
