package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/poiesic/dishpipe/core"
)

func TestShouldExcludeByName(t *testing.T) {
	f := New(nil)

	tests := []struct {
		name     string
		excluded bool
		keyword  string
	}{
		{"Beef Wellington", true, "beef"},
		{"Vegetable Wellington", false, ""},
		{"Pork Belly Bao", true, "pork"},
		{"Spicy Chorizo Paella", true, "chorizo"},
		{"Margherita Pizza", false, ""},
		{"Hamburger", true, "ham"},
		{"Goat Meat Stew", true, "goat meat"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			skip, kw := f.ShouldExclude(&core.Dish{Name: tt.name})
			assert.Equal(t, tt.excluded, skip)
			assert.Equal(t, tt.keyword, kw)
		})
	}
}

func TestShouldExcludeByIngredient(t *testing.T) {
	f := New(nil)

	dish := &core.Dish{
		Name: "Caesar Salad",
		Ingredients: []core.Ingredient{
			{Name: "Romaine Lettuce", Amount: "1 head"},
			{Name: "Bacon Bits", Amount: "50g"},
		},
	}
	skip, kw := f.ShouldExclude(dish)
	assert.True(t, skip)
	assert.Equal(t, "bacon", kw)

	clean := &core.Dish{
		Name: "Caesar Salad",
		Ingredients: []core.Ingredient{
			{Name: "Romaine Lettuce", Amount: "1 head"},
			{Name: "Parmesan", Amount: "30g"},
		},
	}
	skip, _ = f.ShouldExclude(clean)
	assert.False(t, skip)
}

func TestCustomDenylist(t *testing.T) {
	f := New([]string{"durian"})

	assert.True(t, f.MatchesName("Durian Pancakes"))
	// The stock list no longer applies.
	assert.False(t, f.MatchesName("Beef Wellington"))
}

func TestApplyPartitions(t *testing.T) {
	f := New(nil)
	dishes := []*core.Dish{
		{Name: "Margherita Pizza"},
		{Name: "Lamb Rogan Josh"},
		{Name: "Vegetable Biryani"},
	}

	kept, excluded := f.Apply(dishes)
	assert.Len(t, kept, 2)
	assert.Len(t, excluded, 1)
	assert.Equal(t, "Lamb Rogan Josh", excluded[0].Name)
	assert.Equal(t, "Margherita Pizza", kept[0].Name)
}

func TestShouldExcludeNilDish(t *testing.T) {
	f := New(nil)
	skip, _ := f.ShouldExclude(nil)
	assert.False(t, skip)
}
