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

const recipePuppyResultFixture = `{
	"title": "Grilled Garlic Chicken ",
	"href": "https://example.test/garlic-chicken",
	"ingredients": "chicken, garlic, olive oil",
	"thumbnail": "https://example.test/thumb.jpg"
}`

func TestRecipePuppyFetchBatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"results":[%s]}`, recipePuppyResultFixture)
	}))
	defer server.Close()

	adapter := NewRecipePuppy(
		WithRecipePuppyBaseURL(server.URL),
		WithRecipePuppySearches([]string{"chicken", "garlic"}),
		WithRecipePuppyDelay(0),
	)

	records, err := adapter.FetchBatch(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestRecipePuppyUnreachableHost(t *testing.T) {
	// A closed server simulates the API being down.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	adapter := NewRecipePuppy(
		WithRecipePuppyBaseURL(server.URL),
		WithRecipePuppyDelay(0),
	)

	records, err := adapter.FetchBatch(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestRecipePuppyTransform(t *testing.T) {
	adapter := NewRecipePuppy()

	dish, err := adapter.Transform(RawRecord(recipePuppyResultFixture))
	require.NoError(t, err)

	assert.Equal(t, "Grilled Garlic Chicken", dish.Name)
	assert.Equal(t, "International", dish.Country)
	assert.Equal(t, "View recipe at https://example.test/garlic-chicken.", dish.Instructions)
	require.Len(t, dish.Ingredients, 3)
	assert.Equal(t, "chicken", dish.Ingredients[0].Name)
	assert.Equal(t, "some", dish.Ingredients[0].Amount)

	// No native id, so the derived id must be stable across replays.
	again, err := adapter.Transform(RawRecord(recipePuppyResultFixture))
	require.NoError(t, err)
	assert.Equal(t, dish.Id, again.Id)
	assert.Contains(t, dish.Id, "recipepuppy-grilled-garlic-chicken-")
}

func TestRecipePuppyTransformRejectsMalformed(t *testing.T) {
	adapter := NewRecipePuppy()

	var terr *TransformError
	_, err := adapter.Transform(RawRecord(`{"href":"https://example.test"}`))
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, "RecipePuppy", terr.Source)
}
