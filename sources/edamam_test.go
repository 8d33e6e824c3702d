package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const edamamRecipeFixture = `{
	"uri": "http://www.edamam.com/ontologies/edamam.owl#recipe_b79327d05b8e5b838ad6cfd9576b30b6",
	"label": "Chicken Vesuvio",
	"image": "https://example.test/vesuvio.jpg",
	"source": "Serious Eats",
	"url": "https://example.test/chicken-vesuvio",
	"yield": 4,
	"healthLabels": ["Peanut-Free"],
	"ingredientLines": ["1/2 cup olive oil", "5 cloves garlic", "2 chickens"],
	"ingredients": [
		{"food": "olive oil", "text": "1/2 cup olive oil"},
		{"food": "garlic", "text": "5 cloves garlic"},
		{"food": "chicken", "text": "2 chickens"}
	],
	"calories": 4228,
	"totalTime": 60,
	"cuisineType": ["italian"],
	"mealType": ["lunch/dinner"],
	"totalNutrients": {
		"PROCNT": {"quantity": 256},
		"CHOCDF": {"quantity": 48},
		"FAT": {"quantity": 320},
		"FIBTG": {"quantity": 8}
	}
}`

func TestEdamamFetchBatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("app_id") != "test-id" || q.Get("app_key") != "test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		fmt.Fprintf(w, `{"hits":[{"recipe":%s}]}`, edamamRecipeFixture)
	}))
	defer server.Close()

	adapter := NewEdamam("test-id", "test-key",
		WithEdamamBaseURL(server.URL),
		WithEdamamQueries([]string{"chicken", "soup"}),
		WithEdamamDelay(0),
	)

	records, err := adapter.FetchBatch(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestEdamamFetchBatchMissingCredentials(t *testing.T) {
	adapter := NewEdamam("", "")
	_, err := adapter.FetchBatch(context.Background())
	assert.ErrorIs(t, err, ErrMissingCredentials)
}

func TestEdamamFetchBatchRateLimited(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls > 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprintf(w, `{"hits":[{"recipe":%s}]}`, edamamRecipeFixture)
	}))
	defer server.Close()

	adapter := NewEdamam("test-id", "test-key",
		WithEdamamBaseURL(server.URL),
		WithEdamamQueries([]string{"chicken", "soup", "salad"}),
		WithEdamamDelay(0),
	)

	records, err := adapter.FetchBatch(context.Background())
	assert.ErrorIs(t, err, ErrQuotaExceeded)
	assert.Len(t, records, 1)
}

func TestEdamamTransform(t *testing.T) {
	adapter := NewEdamam("test-id", "test-key")

	dish, err := adapter.Transform(RawRecord(edamamRecipeFixture))
	require.NoError(t, err)

	assert.Equal(t, "edamam-b79327d05b8e5b838ad6cfd9576b30b6", dish.Id)
	assert.Equal(t, "Chicken Vesuvio", dish.Name)
	assert.Equal(t, "Italian", dish.Country)
	assert.Equal(t, "Lunch/dinner", dish.MealType)
	assert.Equal(t, 60, dish.CookTime)
	assert.Equal(t, 4, dish.Servings)

	// Whole-recipe totals are divided by the yield.
	assert.Equal(t, 1057.0, dish.Calories)
	assert.Equal(t, 64.0, dish.Protein)
	assert.Equal(t, 12.0, dish.Carbs)
	assert.Equal(t, 80.0, dish.Fat)
	assert.Equal(t, 2.0, dish.Fiber)
}

func TestEdamamTransformRejectsMalformed(t *testing.T) {
	adapter := NewEdamam("test-id", "test-key")

	var terr *TransformError
	_, err := adapter.Transform(RawRecord(`{"label":"No URI"}`))
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, "Edamam", terr.Source)
}
