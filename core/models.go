package core

import (
	"encoding/binary"
	"fmt"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// Difficulty grades how hard a dish is to prepare.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// Valid reports whether the difficulty is one of the known grades.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// SpiceLevel grades how spicy a dish is.
type SpiceLevel string

const (
	SpiceMild     SpiceLevel = "Mild"
	SpiceMedium   SpiceLevel = "Medium"
	SpiceHot      SpiceLevel = "Hot"
	SpiceExtraHot SpiceLevel = "Extra Hot"
	SpiceInsane   SpiceLevel = "Insane"
)

// Valid reports whether the spice level is one of the known grades.
func (s SpiceLevel) Valid() bool {
	switch s {
	case SpiceMild, SpiceMedium, SpiceHot, SpiceExtraHot, SpiceInsane:
		return true
	}
	return false
}

// Ingredient is one entry of a dish's flat ingredient list.
type Ingredient struct {
	Name   string `json:"name"`
	Amount string `json:"amount,omitempty"`
}

// Variation is a named variant of a dish. It is owned by exactly one Dish,
// is never persisted on its own, and carries a calorie delta relative to
// its parent rather than an absolute value.
type Variation struct {
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Calories    float64    `json:"calories,omitempty"`
	SpiceLevel  SpiceLevel `json:"spiceLevel,omitempty"`
}

// Dish is the canonical normalized recipe record persisted by the system.
// Source adapters produce candidates of this shape; the upload pipeline
// validates and persists them.
type Dish struct {
	Id          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Country     string `json:"country"`
	Region      string `json:"region,omitempty"`

	Tags       []string   `json:"tags"`
	Difficulty Difficulty `json:"difficulty"`

	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
	Fiber    float64 `json:"fiber"`

	DietaryInfo []string   `json:"dietaryInfo"`
	SpiceLevel  SpiceLevel `json:"spiceLevel"`
	Allergens   []string   `json:"allergens"`

	CookingMethod string `json:"cookingMethod"`
	MealType      string `json:"mealType"`
	Season        string `json:"season"`
	Instructions  string `json:"instructions"`

	Variations []Variation `json:"variations,omitempty"`

	CookTime int `json:"cookTime"`
	Servings int `json:"servings"`

	Source string `json:"source,omitempty"`
	Image  string `json:"image,omitempty"`

	// Ingredients is optional: not every source keeps a usable ingredient
	// list, and the content filter falls back to name-only matching when
	// it is absent.
	Ingredients []Ingredient `json:"ingredients,omitempty"`

	// ParentDish is set only on records derived from a variation via
	// ExpandVariation. The ingestion pipeline never persists derived
	// records; only a seed load stores them alongside their parents.
	ParentDish string `json:"parent_dish,omitempty"`
}

// Slugify lowercases a name and collapses whitespace runs into hyphens.
func Slugify(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(name))), "-")
}

// ContentHash generates a deterministic 64-bit hash from text using BLAKE2b.
// Identical content always produces the identical hash; it seeds the
// nutrition estimation heuristics so re-transforming a record is stable.
func ContentHash(text string) uint64 {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return binary.LittleEndian.Uint64(sum)
}

// SourceDishID builds the stable identifier for a record fetched from an
// upstream provider. Re-fetching the same upstream record yields the same id.
func SourceDishID(sourcePrefix, nativeID string) string {
	return sourcePrefix + "-" + nativeID
}

// UserDishID builds an identifier for a user-submitted dish: slugified name
// plus submission timestamp.
func UserDishID(name string, submitted time.Time) string {
	return fmt.Sprintf("%s-%d", Slugify(name), submitted.UnixMilli())
}

// ExpandVariation materializes a variation as a derived Dish-shaped record
// for display. The id is derived from the parent id plus the slugified
// variation name, and nutrition is the parent value plus the variation delta.
// The result inherits everything the variation does not override and is
// marked with ParentDish so listings can exclude it.
func ExpandVariation(dish *Dish, variation Variation) *Dish {
	slug := Slugify(variation.Name)

	spice := dish.SpiceLevel
	if variation.SpiceLevel != "" {
		spice = variation.SpiceLevel
	}

	tags := make([]string, 0, len(dish.Tags)+1)
	tags = append(tags, dish.Tags...)
	tags = append(tags, slug)

	return &Dish{
		Id:            dish.Id + "-" + slug,
		Name:          variation.Name,
		Description:   variation.Description,
		Country:       dish.Country,
		Region:        dish.Region,
		Tags:          tags,
		Difficulty:    dish.Difficulty,
		Calories:      dish.Calories + variation.Calories,
		Protein:       dish.Protein,
		Carbs:         dish.Carbs,
		Fat:           dish.Fat,
		Fiber:         dish.Fiber,
		DietaryInfo:   dish.DietaryInfo,
		SpiceLevel:    spice,
		Allergens:     dish.Allergens,
		CookingMethod: dish.CookingMethod,
		MealType:      dish.MealType,
		Season:        dish.Season,
		Instructions:  dish.Instructions,
		CookTime:      dish.CookTime,
		Servings:      dish.Servings,
		Source:        dish.Source,
		Image:         dish.Image,
		ParentDish:    dish.Name,
	}
}

// ExpandAll returns every dish plus the derived record for each of its
// variations, preserving input order.
func ExpandAll(dishes []*Dish) []*Dish {
	var out []*Dish
	for _, dish := range dishes {
		out = append(out, dish)
		for _, v := range dish.Variations {
			out = append(out, ExpandVariation(dish, v))
		}
	}
	return out
}
