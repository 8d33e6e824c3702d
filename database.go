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

package dishpipe

import (
	"log/slog"

	"github.com/poiesic/dishpipe/activity"
	"github.com/poiesic/dishpipe/config"
	"github.com/poiesic/dishpipe/dedup"
	"github.com/poiesic/dishpipe/filter"
	"github.com/poiesic/dishpipe/ingestion"
	"github.com/poiesic/dishpipe/scrape"
	"github.com/poiesic/dishpipe/sources"
	"github.com/poiesic/dishpipe/storage"
	"github.com/poiesic/dishpipe/storage/badger"
)

// Database bundles the dish store with the pipeline services built on
// top of it.
type Database struct {
	cfg      *config.Config
	backend  *badger.Backend
	dishRepo storage.DishRepository
	journal  *activity.Logger
	logger   *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	logger *slog.Logger
}

// WithDatabaseLogger sets the structured logger used by the facade and
// everything it constructs.
func WithDatabaseLogger(logger *slog.Logger) DatabaseOption {
	return func(o *databaseOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// NewDatabase opens the store and activity journal described by cfg.
func NewDatabase(cfg *config.Config, opts ...DatabaseOption) (*Database, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	options := &databaseOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(cfg.Store(), false)
	if err != nil {
		return nil, err
	}

	dishRepo, err := badger.NewDishRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	journal, err := activity.NewLogger(cfg.ActivityLogPath(),
		activity.WithLogger(options.logger))
	if err != nil {
		dishRepo.Close()
		backend.Close()
		return nil, err
	}

	return &Database{
		cfg:      cfg,
		backend:  backend,
		dishRepo: dishRepo,
		journal:  journal,
		logger:   options.logger,
	}, nil
}

// Close releases the repository and backend.
func (db *Database) Close() error {
	if err := db.dishRepo.Close(); err != nil {
		db.logger.Error("error closing dish repository", "err", err)
		return err
	}
	if err := db.backend.Close(); err != nil {
		db.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

// DishRepository returns the underlying dish store.
func (db *Database) DishRepository() storage.DishRepository {
	return db.dishRepo
}

// ActivityLog returns the rolling activity journal.
func (db *Database) ActivityLog() *activity.Logger {
	return db.journal
}

// NewDetector creates a duplicate detector over the store.
func (db *Database) NewDetector() *dedup.Detector {
	return dedup.NewDetector(db.dishRepo)
}

// NewUploadPipeline creates an upload pipeline wired to the store, the
// activity journal and the failed side log from the configuration.
func (db *Database) NewUploadPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	failed, err := ingestion.NewFailedLog(db.cfg.FailedLogPath())
	if err != nil {
		return nil, err
	}

	base := []ingestion.Option{
		ingestion.WithLogger(db.logger),
		ingestion.WithActivityLog(db.journal),
		ingestion.WithFailedLog(failed),
		ingestion.WithChunkSize(db.cfg.ChunkSize),
		ingestion.WithBatchDelay(db.cfg.BatchDelay.Std()),
	}
	return ingestion.NewPipeline(db.dishRepo, db.NewDetector(), append(base, opts...)...)
}

// NewRunner creates a scrape runner over the configured source
// adapters and a fresh upload pipeline.
func (db *Database) NewRunner(adapters []sources.Adapter, opts ...scrape.RunnerOption) (*scrape.Runner, error) {
	pipeline, err := db.NewUploadPipeline()
	if err != nil {
		return nil, err
	}

	base := []scrape.RunnerOption{
		scrape.WithLogger(db.logger),
		scrape.WithActivityLog(db.journal),
		scrape.WithFilter(filter.New(db.cfg.Denylist)),
	}
	return scrape.NewRunner(adapters, pipeline, db.cfg.LockPath(), append(base, opts...)...)
}

// Adapters builds the source adapters enabled in the configuration.
func (db *Database) Adapters() []sources.Adapter {
	deny := filter.New(db.cfg.Denylist)
	var adapters []sources.Adapter

	if sc := db.cfg.Source("themealdb"); sc.Enabled {
		var opts []sources.MealDBOption
		opts = append(opts,
			sources.WithMealDBLogger(db.logger),
			sources.WithMealDBNameFilter(deny.MatchesName))
		if sc.BaseURL != "" {
			opts = append(opts, sources.WithMealDBBaseURL(sc.BaseURL))
		}
		if sc.RateLimit > 0 {
			opts = append(opts, sources.WithMealDBDelay(sc.RateLimit.Std()))
		}
		adapters = append(adapters, sources.NewMealDB(opts...))
	}

	if sc := db.cfg.Source("spoonacular"); sc.Enabled {
		var opts []sources.SpoonacularOption
		opts = append(opts, sources.WithSpoonacularLogger(db.logger))
		if sc.BaseURL != "" {
			opts = append(opts, sources.WithSpoonacularBaseURL(sc.BaseURL))
		}
		if sc.RateLimit > 0 {
			opts = append(opts, sources.WithSpoonacularDelay(sc.RateLimit.Std()))
		}
		adapters = append(adapters, sources.NewSpoonacular(sc.APIKey, opts...))
	}

	if sc := db.cfg.Source("edamam"); sc.Enabled {
		var opts []sources.EdamamOption
		opts = append(opts, sources.WithEdamamLogger(db.logger))
		if sc.BaseURL != "" {
			opts = append(opts, sources.WithEdamamBaseURL(sc.BaseURL))
		}
		if sc.RateLimit > 0 {
			opts = append(opts, sources.WithEdamamDelay(sc.RateLimit.Std()))
		}
		adapters = append(adapters, sources.NewEdamam(sc.AppID, sc.AppKey, opts...))
	}

	if sc := db.cfg.Source("recipepuppy"); sc.Enabled {
		var opts []sources.RecipePuppyOption
		opts = append(opts, sources.WithRecipePuppyLogger(db.logger))
		if sc.BaseURL != "" {
			opts = append(opts, sources.WithRecipePuppyBaseURL(sc.BaseURL))
		}
		if sc.RateLimit > 0 {
			opts = append(opts, sources.WithRecipePuppyDelay(sc.RateLimit.Std()))
		}
		adapters = append(adapters, sources.NewRecipePuppy(opts...))
	}

	return adapters
}
