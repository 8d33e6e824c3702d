package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mealDBDetailFixture = `{
	"idMeal": "52772",
	"strMeal": "Teriyaki Chicken Casserole",
	"strCategory": "Chicken",
	"strArea": "Japanese",
	"strInstructions": "Preheat oven to 350F. Combine soy sauce and sugar in a pan. Simmer for 45 minutes. Add chicken and rice. Bake until done.",
	"strMealThumb": "https://example.test/meal.jpg",
	"strTags": "Meat,Casserole",
	"strSource": "https://example.test/recipe",
	"strIngredient1": "soy sauce",
	"strMeasure1": "3/4 cup",
	"strIngredient2": "chicken breasts",
	"strMeasure2": "2",
	"strIngredient3": "brown rice",
	"strMeasure3": "3 cups",
	"strIngredient4": "",
	"strMeasure4": null
}`

func newMealDBServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/filter.php", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"meals":[
			{"strMeal":"Teriyaki Chicken Casserole","idMeal":"52772"},
			{"strMeal":"Beef Wellington","idMeal":"52803"}
		]}`)
	})
	mux.HandleFunc("/lookup.php", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("i") != "52772" {
			t.Errorf("unexpected detail lookup for %s", r.URL.Query().Get("i"))
		}
		fmt.Fprintf(w, `{"meals":[%s]}`, mealDBDetailFixture)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestMealDBFetchBatch(t *testing.T) {
	server := newMealDBServer(t)

	adapter := NewMealDB(
		WithMealDBBaseURL(server.URL),
		WithMealDBCategories([]string{"Chicken"}),
		WithMealDBDelay(0),
		WithMealDBNameFilter(func(name string) bool {
			return strings.Contains(strings.ToLower(name), "beef")
		}),
	)

	records, err := adapter.FetchBatch(context.Background())
	require.NoError(t, err)
	// Beef Wellington is dropped before its detail fetch.
	require.Len(t, records, 1)
}

func TestMealDBTransform(t *testing.T) {
	adapter := NewMealDB()

	dish, err := adapter.Transform(RawRecord(mealDBDetailFixture))
	require.NoError(t, err)

	assert.Equal(t, "mealdb-52772", dish.Id)
	assert.Equal(t, "Teriyaki Chicken Casserole", dish.Name)
	assert.Equal(t, "Japanese", dish.Country)
	assert.Equal(t, "https://example.test/recipe", dish.Source)
	assert.Equal(t, 45, dish.CookTime)
	assert.Contains(t, dish.Tags, "themealdb")
	assert.Contains(t, dish.Tags, "chicken")
	assert.Contains(t, dish.Tags, "casserole")

	require.Len(t, dish.Ingredients, 3)
	assert.Equal(t, "soy sauce", dish.Ingredients[0].Name)
	assert.Equal(t, "3/4 cup", dish.Ingredients[0].Amount)

	// soy sauce trips Soy, chicken trips the meat check.
	assert.Contains(t, dish.Allergens, "Soy")
	assert.Equal(t, []string{"Non-Vegetarian"}, dish.DietaryInfo)
}

func TestMealDBTransformRejectsMalformed(t *testing.T) {
	adapter := NewMealDB()

	_, err := adapter.Transform(RawRecord(`{"strMeal":"No ID"}`))
	var terr *TransformError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, "TheMealDB", terr.Source)

	_, err = adapter.Transform(RawRecord(`not json`))
	require.ErrorAs(t, err, &terr)
}
