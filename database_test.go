package dishpipe

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/dishpipe/config"
	"github.com/poiesic/dishpipe/core"
	"github.com/poiesic/dishpipe/ingestion"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	cfg.BatchDelay = 0
	return cfg
}

func TestDatabaseLifecycle(t *testing.T) {
	db, err := NewDatabase(testConfig(t))
	require.NoError(t, err)

	dish := &core.Dish{
		Id:            "d-1",
		Name:          "Margherita Pizza",
		Description:   "A pizza with tomato, mozzarella and basil.",
		Country:       "Italy",
		Tags:          []string{"pizza"},
		Difficulty:    core.DifficultyEasy,
		Calories:      700,
		DietaryInfo:   []string{"Vegetarian"},
		SpiceLevel:    core.SpiceMild,
		Allergens:     []string{"Dairy", "Gluten"},
		CookingMethod: "Baking",
		MealType:      "Dinner",
		Season:        "All",
		Instructions:  "Stretch the dough, top it and bake hot.",
		CookTime:      15,
		Servings:      2,
	}

	ctx := context.Background()
	require.NoError(t, db.DishRepository().Insert(ctx, dish))

	got, err := db.DishRepository().Get(ctx, "d-1")
	require.NoError(t, err)
	assert.Equal(t, "Margherita Pizza", got.Name)

	require.NoError(t, db.Close())
}

func TestDatabaseUploadPipeline(t *testing.T) {
	db, err := NewDatabase(testConfig(t))
	require.NoError(t, err)
	defer db.Close()

	pipeline, err := db.NewUploadPipeline(ingestion.WithBatchDelay(0))
	require.NoError(t, err)

	// A duplicate detector fresh from the facade sees the store.
	detector := db.NewDetector()
	require.NotNil(t, detector)
	require.NotNil(t, pipeline)
}

func TestDatabaseAdaptersFollowConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Sources = map[string]config.SourceConfig{
		"themealdb":   {Enabled: true, RateLimit: config.Duration(50 * time.Millisecond)},
		"spoonacular": {Enabled: true, APIKey: "sk-test"},
		"edamam":      {Enabled: false},
		"recipepuppy": {Enabled: false},
	}

	db, err := NewDatabase(cfg)
	require.NoError(t, err)
	defer db.Close()

	adapters := db.Adapters()
	require.Len(t, adapters, 2)
	assert.Equal(t, "TheMealDB", adapters[0].Source())
	assert.Equal(t, 50*time.Millisecond, adapters[0].MinDelay())
	assert.Equal(t, "Spoonacular", adapters[1].Source())

	_, err = db.NewRunner(adapters)
	require.NoError(t, err)

	// The journal path lives under the data dir.
	assert.Equal(t, filepath.Join(cfg.DataDir, "activity-log.json"), cfg.ActivityLogPath())
}
