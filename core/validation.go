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


package core

import "fmt"

const (
	minNameLen        = 2
	maxNameLen        = 100
	minDescriptionLen = 10
	minCountryLen     = 2
	minInstructionLen = 10
)

// ValidateDish validates a Dish against the canonical schema.
//
// It collects every violation in one pass instead of failing fast; on
// success it returns a normalized copy of the input with nil collection
// fields canonicalized to empty slices, ready for persistence.
//
// Rules:
//   - Id required
//   - Name 2-100 chars, Description >= 10 chars
//   - Country required (>= 2 chars), Region optional
//   - Tags and DietaryInfo non-empty, Allergens present but may be empty
//   - Difficulty and SpiceLevel enum membership
//   - Calories/Protein/Carbs/Fat/Fiber non-negative
//   - CookingMethod/MealType/Season required
//   - Instructions >= 10 chars
//   - CookTime and Servings non-negative
//   - Variations validated recursively for shape (name required, spice
//     override must be a known level when set)
func ValidateDish(dish *Dish) (*Dish, error) {
	if dish == nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDish, ErrNilDish)
	}

	var violations []Violation
	add := func(field, format string, args ...any) {
		violations = append(violations, Violation{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if dish.Id == "" {
		add("id", "is required")
	}
	if len(dish.Name) < minNameLen {
		add("name", "must be at least %d characters", minNameLen)
	} else if len(dish.Name) > maxNameLen {
		add("name", "must be at most %d characters", maxNameLen)
	}
	if len(dish.Description) < minDescriptionLen {
		add("description", "must be at least %d characters", minDescriptionLen)
	}
	if len(dish.Country) < minCountryLen {
		add("country", "must be at least %d characters", minCountryLen)
	}
	if len(dish.Tags) == 0 {
		add("tags", "must contain at least 1 entry")
	}
	if !dish.Difficulty.Valid() {
		add("difficulty", "must be one of Easy, Medium, Hard (got %q)", dish.Difficulty)
	}

	nutrition := []struct {
		field string
		value float64
	}{
		{"calories", dish.Calories},
		{"protein", dish.Protein},
		{"carbs", dish.Carbs},
		{"fat", dish.Fat},
		{"fiber", dish.Fiber},
	}
	for _, n := range nutrition {
		if n.value < 0 {
			add(n.field, "must be non-negative (got %v)", n.value)
		}
	}

	if len(dish.DietaryInfo) == 0 {
		add("dietaryInfo", "must contain at least 1 entry")
	}
	if !dish.SpiceLevel.Valid() {
		add("spiceLevel", "must be one of Mild, Medium, Hot, Extra Hot, Insane (got %q)", dish.SpiceLevel)
	}
	if dish.CookingMethod == "" {
		add("cookingMethod", "is required")
	}
	if dish.MealType == "" {
		add("mealType", "is required")
	}
	if dish.Season == "" {
		add("season", "is required")
	}
	if len(dish.Instructions) < minInstructionLen {
		add("instructions", "must be at least %d characters", minInstructionLen)
	}
	if dish.CookTime < 0 {
		add("cookTime", "must be non-negative (got %d)", dish.CookTime)
	}
	if dish.Servings < 0 {
		add("servings", "must be non-negative (got %d)", dish.Servings)
	}

	for i, v := range dish.Variations {
		if v.Name == "" {
			add(fmt.Sprintf("variations[%d].name", i), "is required")
		}
		if v.SpiceLevel != "" && !v.SpiceLevel.Valid() {
			add(fmt.Sprintf("variations[%d].spiceLevel", i), "must be a known spice level (got %q)", v.SpiceLevel)
		}
	}

	if len(violations) > 0 {
		return nil, &ValidationError{Violations: violations}
	}

	value := *dish
	if value.Tags == nil {
		value.Tags = []string{}
	}
	if value.DietaryInfo == nil {
		value.DietaryInfo = []string{}
	}
	if value.Allergens == nil {
		value.Allergens = []string{}
	}
	return &value, nil
}
