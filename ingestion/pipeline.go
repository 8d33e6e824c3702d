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

package ingestion

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/poiesic/dishpipe/activity"
	"github.com/poiesic/dishpipe/core"
	"github.com/poiesic/dishpipe/dedup"
	"github.com/poiesic/dishpipe/storage"
)

const (
	// DefaultChunkSize is how many dishes go into one upload chunk.
	DefaultChunkSize = 50

	// DefaultBatchDelay is the pause between consecutive chunks.
	DefaultBatchDelay = 2 * time.Second
)

// Stats summarizes one upload run.
type Stats struct {
	Total           int
	Success         int
	Failed          int
	ExactDuplicates int
	FuzzyDuplicates int
	BatchCount      int
}

// Duplicates returns the combined duplicate count.
func (s *Stats) Duplicates() int {
	return s.ExactDuplicates + s.FuzzyDuplicates
}

// Pipeline uploads candidate dishes through duplicate detection and
// validation into the store.
type Pipeline struct {
	repo       storage.DishRepository
	detector   *dedup.Detector
	journal    *activity.Logger
	failed     *FailedLog
	chunkSize  int
	batchDelay time.Duration
	sleep      func(ctx context.Context, d time.Duration) error
	logger     *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithActivityLog attaches the rolling activity journal. Without one,
// journal entries are skipped.
func WithActivityLog(journal *activity.Logger) Option {
	return func(p *Pipeline) error {
		p.journal = journal
		return nil
	}
}

// WithFailedLog attaches the durable side log for rejected candidates.
// Without one, rejections are only counted.
func WithFailedLog(failed *FailedLog) Option {
	return func(p *Pipeline) error {
		p.failed = failed
		return nil
	}
}

// WithChunkSize sets the upload chunk size. Values below 1 fall back to
// the default.
func WithChunkSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = DefaultChunkSize
		}
		p.chunkSize = size
		return nil
	}
}

// WithBatchDelay sets the pause between chunks. Negative values are
// treated as zero.
func WithBatchDelay(d time.Duration) Option {
	return func(p *Pipeline) error {
		if d < 0 {
			d = 0
		}
		p.batchDelay = d
		return nil
	}
}

// withSleep replaces the inter-chunk sleep. Tests use this to avoid
// real delays.
func withSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(p *Pipeline) error {
		p.sleep = sleep
		return nil
	}
}

// NewPipeline creates an upload pipeline.
func NewPipeline(repo storage.DishRepository, detector *dedup.Detector, opts ...Option) (*Pipeline, error) {
	if repo == nil {
		return nil, ErrRepositoryRequired
	}
	if detector == nil {
		return nil, ErrDetectorRequired
	}

	p := &Pipeline{
		repo:       repo,
		detector:   detector,
		chunkSize:  DefaultChunkSize,
		batchDelay: DefaultBatchDelay,
		sleep:      sleepCtx,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// UploadBatch runs every candidate through detection, validation and
// insertion. Individual failures never abort the run; context
// cancellation does, returning the stats gathered so far. Consecutive
// chunks are separated by the batch delay, with no delay after the
// last one.
func (p *Pipeline) UploadBatch(ctx context.Context, candidates []*core.Dish) (*Stats, error) {
	stats := &Stats{Total: len(candidates)}
	if len(candidates) == 0 {
		return stats, nil
	}

	p.detector.Reset()
	chunks := chunkDishes(candidates, p.chunkSize)
	stats.BatchCount = len(chunks)

	p.logger.Info("starting upload",
		slog.Int("candidates", len(candidates)), slog.Int("chunks", len(chunks)))

	for i, chunk := range chunks {
		if i > 0 {
			if err := p.sleep(ctx, p.batchDelay); err != nil {
				return stats, err
			}
		}
		for _, dish := range chunk {
			if err := ctx.Err(); err != nil {
				return stats, err
			}
			p.processOne(ctx, dish, stats)
		}
		p.logger.Debug("chunk done", slog.Int("chunk", i+1), slog.Int("of", len(chunks)))
	}

	p.logger.Info("upload finished",
		slog.Int("total", stats.Total),
		slog.Int("success", stats.Success),
		slog.Int("failed", stats.Failed),
		slog.Int("duplicates", stats.Duplicates()))
	p.journalLog(ctx, activity.KindScrape, "upload batch finished", map[string]any{
		"total":      stats.Total,
		"success":    stats.Success,
		"failed":     stats.Failed,
		"duplicates": stats.Duplicates(),
	})
	return stats, nil
}

func (p *Pipeline) processOne(ctx context.Context, dish *core.Dish, stats *Stats) {
	match, err := p.detector.Check(ctx, dish)
	if err != nil {
		p.recordFailure(ctx, dish, "duplicate check failed: "+err.Error())
		stats.Failed++
		return
	}
	if match != nil {
		p.recordDuplicate(ctx, dish, match, stats)
		return
	}

	normalized, err := core.ValidateDish(dish)
	if err != nil {
		p.recordFailure(ctx, dish, err.Error())
		stats.Failed++
		return
	}

	if err := p.repo.Insert(ctx, normalized); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			p.recordDuplicate(ctx, dish, &dedup.Match{
				Kind:        dedup.MatchExact,
				MatchedName: dish.Name,
				Similarity:  1.0,
			}, stats)
			return
		}
		p.recordFailure(ctx, dish, "insert failed: "+err.Error())
		stats.Failed++
		return
	}

	p.detector.Remember(normalized)
	stats.Success++
}

func (p *Pipeline) recordDuplicate(ctx context.Context, dish *core.Dish, match *dedup.Match, stats *Stats) {
	if match.Kind == dedup.MatchExact {
		stats.ExactDuplicates++
	} else {
		stats.FuzzyDuplicates++
	}
	p.logger.Debug("skipping duplicate",
		slog.String("name", dish.Name),
		slog.String("kind", string(match.Kind)),
		slog.String("matched", match.MatchedName))
	p.journalLog(ctx, activity.KindDuplicate, "skipped duplicate: "+dish.Name, map[string]any{
		"kind":    string(match.Kind),
		"matched": match.MatchedName,
		"country": dish.Country,
	})
}

func (p *Pipeline) recordFailure(ctx context.Context, dish *core.Dish, reason string) {
	p.logger.Warn("candidate rejected",
		slog.String("name", dish.Name), slog.String("reason", reason))
	if p.failed != nil {
		if err := p.failed.Append(dish, reason); err != nil {
			p.logger.Error("failed to append to side log", slog.Any("error", err))
		}
	}
	p.journalLog(ctx, activity.KindError, "rejected: "+dish.Name, map[string]any{
		"reason": reason,
	})
}

func (p *Pipeline) journalLog(ctx context.Context, kind activity.Kind, message string, metadata map[string]any) {
	if p.journal == nil {
		return
	}
	p.journal.Log(ctx, kind, message, metadata)
}

// Resume replays a failed side log through UploadBatch. An unreadable
// log is the only hard error; the replay itself reports per-candidate
// outcomes through the returned stats.
func (p *Pipeline) Resume(ctx context.Context, path string) (*Stats, error) {
	entries, err := ReadFailedLog(path)
	if err != nil {
		return nil, err
	}

	candidates := make([]*core.Dish, 0, len(entries))
	for _, entry := range entries {
		if entry.Recipe != nil {
			candidates = append(candidates, entry.Recipe)
		}
	}
	p.logger.Info("resuming from side log",
		slog.String("path", path), slog.Int("candidates", len(candidates)))
	return p.UploadBatch(ctx, candidates)
}

func chunkDishes(dishes []*core.Dish, size int) [][]*core.Dish {
	var chunks [][]*core.Dish
	for len(dishes) > size {
		chunks = append(chunks, dishes[:size])
		dishes = dishes[size:]
	}
	return append(chunks, dishes)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
