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

package sources

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/poiesic/dishpipe/core"
)

// allergenKeywords maps each allergen label to the ingredient substrings
// that imply it. Order is the report order.
var allergenKeywords = []struct {
	label    string
	keywords []string
}{
	{"Dairy", []string{"milk", "butter", "cheese", "cream", "yogurt", "ghee"}},
	{"Gluten", []string{"flour", "bread", "pasta", "wheat", "barley", "rye"}},
	{"Nuts", []string{"almond", "peanut", "walnut", "cashew", "pistachio", "pecan"}},
	{"Eggs", []string{"egg"}},
	{"Shellfish", []string{"shrimp", "crab", "lobster", "oyster", "clam", "mussel"}},
	{"Soy", []string{"soy", "tofu", "edamame"}},
	{"Fish", []string{"fish", "salmon", "tuna", "cod", "trout", "halibut"}},
}

var meatKeywords = []string{
	"chicken", "beef", "pork", "lamb", "fish", "turkey",
	"bacon", "ham", "sausage", "meat", "steak",
}

var animalProductKeywords = []string{
	"milk", "butter", "cheese", "egg", "honey", "cream", "yogurt", "ghee",
}

// DetectAllergens scans ingredient names for common allergen keywords.
func DetectAllergens(ingredients []core.Ingredient) []string {
	detected := []string{}
	for _, entry := range allergenKeywords {
		if anyIngredientContains(ingredients, entry.keywords) {
			detected = append(detected, entry.label)
		}
	}
	return detected
}

// DetectDietaryInfo labels a dish Vegan and/or Vegetarian based on its
// ingredients and the provider's category string.
func DetectDietaryInfo(ingredients []core.Ingredient, category string) []string {
	hasMeat := anyIngredientContains(ingredients, meatKeywords)
	hasAnimalProducts := anyIngredientContains(ingredients, animalProductKeywords)
	cat := strings.ToLower(category)

	var info []string
	addLabel := func(label string) {
		for _, existing := range info {
			if existing == label {
				return
			}
		}
		info = append(info, label)
	}

	if !hasMeat && !hasAnimalProducts {
		addLabel("Vegan")
	}
	if !hasMeat {
		addLabel("Vegetarian")
	}
	if strings.Contains(cat, "vegan") {
		addLabel("Vegan")
	}
	if strings.Contains(cat, "vegetarian") {
		addLabel("Vegetarian")
	}
	// The schema requires at least one label.
	if len(info) == 0 {
		info = []string{"Non-Vegetarian"}
	}
	return info
}

func anyIngredientContains(ingredients []core.Ingredient, keywords []string) bool {
	for _, ing := range ingredients {
		name := strings.ToLower(ing.Name)
		for _, kw := range keywords {
			if strings.Contains(name, kw) {
				return true
			}
		}
	}
	return false
}

// EstimateCalories derives a stable calorie figure in [200, 800) from
// the ingredient list. The same ingredients always produce the same
// number, so replaying a record cannot change the stored dish.
func EstimateCalories(ingredients []core.Ingredient) float64 {
	return estimateInRange(ingredientKey(ingredients), 200, 800)
}

// EstimateMacros derives stable protein, carb, fat and fiber figures
// from the ingredient list.
func EstimateMacros(ingredients []core.Ingredient) (protein, carbs, fat, fiber float64) {
	key := ingredientKey(ingredients)
	protein = estimateInRange(key+"|protein", 5, 25)
	carbs = estimateInRange(key+"|carbs", 10, 50)
	fat = estimateInRange(key+"|fat", 5, 20)
	fiber = 2
	return protein, carbs, fat, fiber
}

func ingredientKey(ingredients []core.Ingredient) string {
	names := make([]string, len(ingredients))
	for i, ing := range ingredients {
		names[i] = strings.ToLower(strings.TrimSpace(ing.Name))
	}
	return strings.Join(names, ",")
}

func estimateInRange(seed string, lo, hi int) float64 {
	return float64(lo + int(core.ContentHash(seed)%uint64(hi-lo)))
}

// EstimateDifficulty rates a dish by how many instruction steps it has.
func EstimateDifficulty(instructions string) core.Difficulty {
	if instructions == "" {
		return core.DifficultyMedium
	}
	steps := 0
	for _, part := range splitSteps(instructions) {
		if strings.TrimSpace(part) != "" {
			steps++
		}
	}
	switch {
	case steps < 5:
		return core.DifficultyEasy
	case steps < 10:
		return core.DifficultyMedium
	default:
		return core.DifficultyHard
	}
}

var stepSplitter = regexp.MustCompile(`\.\s|\n`)

func splitSteps(instructions string) []string {
	return stepSplitter.Split(instructions, -1)
}

var cookTimePattern = regexp.MustCompile(`(?i)(\d+)\s*(min|minute|hour)`)

// EstimateCookTime extracts the first duration mentioned in the
// instructions, in minutes. Defaults to 30 when nothing matches.
func EstimateCookTime(instructions string) int {
	m := cookTimePattern.FindStringSubmatch(instructions)
	if m == nil {
		return 30
	}
	value, err := strconv.Atoi(m[1])
	if err != nil {
		return 30
	}
	if strings.HasPrefix(strings.ToLower(m[2]), "hour") {
		return value * 60
	}
	return value
}

// StripMarkup flattens an HTML fragment to its text content. Some
// providers embed markup in summaries and instructions.
func StripMarkup(fragment string) string {
	if !strings.ContainsAny(fragment, "<&") {
		return strings.TrimSpace(fragment)
	}
	root, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return strings.TrimSpace(fragment)
	}

	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	return strings.Join(strings.Fields(b.String()), " ")
}
