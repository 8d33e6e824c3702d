package sources

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/poiesic/dishpipe/core"
)

func ings(names ...string) []core.Ingredient {
	out := make([]core.Ingredient, len(names))
	for i, n := range names {
		out[i] = core.Ingredient{Name: n, Amount: "some"}
	}
	return out
}

func TestDetectAllergens(t *testing.T) {
	allergens := DetectAllergens(ings("Plain Flour", "Free Range Eggs", "Double Cream"))
	assert.Equal(t, []string{"Dairy", "Gluten", "Eggs"}, allergens)

	assert.Empty(t, DetectAllergens(ings("Rice", "Carrot", "Onion")))
}

func TestDetectDietaryInfo(t *testing.T) {
	// No meat, no animal products.
	info := DetectDietaryInfo(ings("Rice", "Tofu", "Spring Onion"), "")
	assert.Equal(t, []string{"Vegan", "Vegetarian"}, info)

	// Cheese blocks Vegan but not Vegetarian.
	info = DetectDietaryInfo(ings("Pasta", "Cheese", "Tomato"), "")
	assert.Equal(t, []string{"Vegetarian"}, info)

	// Meat blocks both and falls back to the catch-all label.
	info = DetectDietaryInfo(ings("Chicken Breast", "Rice"), "")
	assert.Equal(t, []string{"Non-Vegetarian"}, info)

	// Category labels apply regardless of ingredients.
	info = DetectDietaryInfo(ings("Mystery Stock"), "Vegan")
	assert.Contains(t, info, "Vegan")
}

func TestEstimateCaloriesDeterministic(t *testing.T) {
	list := ings("Chicken", "Rice", "Soy Sauce")

	first := EstimateCalories(list)
	second := EstimateCalories(list)
	assert.Equal(t, first, second)
	assert.GreaterOrEqual(t, first, 200.0)
	assert.Less(t, first, 800.0)

	// Different ingredients give a different draw from the range.
	other := EstimateCalories(ings("Lentils", "Spinach"))
	assert.GreaterOrEqual(t, other, 200.0)
	assert.Less(t, other, 800.0)
}

func TestEstimateDifficulty(t *testing.T) {
	assert.Equal(t, core.DifficultyMedium, EstimateDifficulty(""))
	assert.Equal(t, core.DifficultyEasy, EstimateDifficulty("Mix. Bake. Serve."))
	assert.Equal(t, core.DifficultyMedium,
		EstimateDifficulty("One. Two. Three. Four. Five. Six. Seven."))
	assert.Equal(t, core.DifficultyHard,
		EstimateDifficulty("A. B. C. D. E. F. G. H. I. J. K. L."))
}

func TestEstimateCookTime(t *testing.T) {
	assert.Equal(t, 45, EstimateCookTime("Simmer for 45 minutes until thick."))
	assert.Equal(t, 120, EstimateCookTime("Roast for 2 hours."))
	assert.Equal(t, 25, EstimateCookTime("Bake 25 min at 180C."))
	assert.Equal(t, 30, EstimateCookTime("Cook until golden."))
	assert.Equal(t, 30, EstimateCookTime(""))
}

func TestStripMarkup(t *testing.T) {
	assert.Equal(t, "A rich and hearty stew.",
		StripMarkup("<p>A <b>rich</b> and hearty stew.</p>"))
	assert.Equal(t, "plain text", StripMarkup("plain text"))
	assert.Equal(t, "", StripMarkup(""))
}
