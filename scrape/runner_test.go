package scrape

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/dishpipe/core"
	"github.com/poiesic/dishpipe/dedup"
	"github.com/poiesic/dishpipe/ingestion"
	"github.com/poiesic/dishpipe/sources"
	"github.com/poiesic/dishpipe/storage"
	storebadger "github.com/poiesic/dishpipe/storage/badger"
)

// stubAdapter serves canned dishes as raw JSON records.
type stubAdapter struct {
	name     string
	dishes   []*core.Dish
	fetchErr error
	badJSON  bool
}

func (s *stubAdapter) Source() string          { return s.name }
func (s *stubAdapter) MinDelay() time.Duration { return 0 }

func (s *stubAdapter) FetchBatch(ctx context.Context) ([]sources.RawRecord, error) {
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	var records []sources.RawRecord
	if s.badJSON {
		records = append(records, sources.RawRecord(`{broken`))
	}
	for _, dish := range s.dishes {
		data, err := json.Marshal(dish)
		if err != nil {
			return nil, err
		}
		records = append(records, data)
	}
	return records, nil
}

func (s *stubAdapter) Transform(record sources.RawRecord) (*core.Dish, error) {
	var dish core.Dish
	if err := json.Unmarshal(record, &dish); err != nil {
		return nil, &sources.TransformError{Source: s.name, Reason: "invalid record", Err: err}
	}
	return &dish, nil
}

func validDish(id, name, country string) *core.Dish {
	return &core.Dish{
		Id:            id,
		Name:          name,
		Description:   "A dish prepared for the runner tests.",
		Country:       country,
		Tags:          []string{"test"},
		Difficulty:    core.DifficultyEasy,
		Calories:      400,
		DietaryInfo:   []string{"Vegetarian"},
		SpiceLevel:    core.SpiceMild,
		Allergens:     []string{},
		CookingMethod: "Baking",
		MealType:      "Dinner",
		Season:        "All",
		Instructions:  "Combine everything and bake for 30 minutes.",
		CookTime:      30,
		Servings:      4,
	}
}

func newTestSetup(t *testing.T) (storage.DishRepository, *ingestion.Pipeline, string) {
	t.Helper()
	repo, backend, err := storebadger.NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() {
		repo.Close()
		backend.Close()
	})

	pipeline, err := ingestion.NewPipeline(repo, dedup.NewDetector(repo),
		ingestion.WithBatchDelay(0))
	require.NoError(t, err)

	return repo, pipeline, filepath.Join(t.TempDir(), "scrape.lock")
}

func TestRunUploadsAllSources(t *testing.T) {
	repo, pipeline, lockPath := newTestSetup(t)

	adapters := []sources.Adapter{
		&stubAdapter{name: "alpha", dishes: []*core.Dish{
			validDish("a-1", "Margherita Pizza", "Italy"),
			validDish("a-2", "Panna Cotta", "Italy"),
		}},
		&stubAdapter{name: "beta", dishes: []*core.Dish{
			validDish("b-1", "Pad Thai", "Thailand"),
		}},
	}

	runner, err := NewRunner(adapters, pipeline, lockPath)
	require.NoError(t, err)

	results, err := runner.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, 2, results[0].Stats.Success)
	assert.Equal(t, 1, results[1].Stats.Success)

	count, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestRunIsolatesFailingSource(t *testing.T) {
	repo, pipeline, lockPath := newTestSetup(t)

	adapters := []sources.Adapter{
		&stubAdapter{name: "down", fetchErr: errors.New("connection refused")},
		&stubAdapter{name: "up", dishes: []*core.Dish{
			validDish("u-1", "Margherita Pizza", "Italy"),
		}},
	}

	runner, err := NewRunner(adapters, pipeline, lockPath)
	require.NoError(t, err)

	results, err := runner.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Error(t, results[0].Err)
	assert.Nil(t, results[0].Stats)
	assert.Equal(t, 1, results[1].Stats.Success)

	count, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRunSkipsBadRecords(t *testing.T) {
	_, pipeline, lockPath := newTestSetup(t)

	adapters := []sources.Adapter{
		&stubAdapter{name: "mixed", badJSON: true, dishes: []*core.Dish{
			validDish("m-1", "Margherita Pizza", "Italy"),
		}},
	}

	runner, err := NewRunner(adapters, pipeline, lockPath)
	require.NoError(t, err)

	results, err := runner.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, results[0].Fetched)
	assert.Equal(t, 1, results[0].Stats.Success)
}

func TestRunFiltersDeniedDishes(t *testing.T) {
	repo, pipeline, lockPath := newTestSetup(t)

	adapters := []sources.Adapter{
		&stubAdapter{name: "meaty", dishes: []*core.Dish{
			validDish("m-1", "Beef Wellington", "United Kingdom"),
			validDish("m-2", "Vegetable Wellington", "United Kingdom"),
		}},
	}

	runner, err := NewRunner(adapters, pipeline, lockPath)
	require.NoError(t, err)

	results, err := runner.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, results[0].Filtered)
	assert.Equal(t, 1, results[0].Stats.Success)

	count, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRunRefusesConcurrentRun(t *testing.T) {
	_, pipeline, lockPath := newTestSetup(t)

	holder := flock.New(lockPath)
	locked, err := holder.TryLock()
	require.NoError(t, err)
	require.True(t, locked)
	defer holder.Unlock()

	runner, err := NewRunner(nil, pipeline, lockPath)
	require.NoError(t, err)

	_, err = runner.Run(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyRunning)
}
