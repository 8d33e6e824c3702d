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
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/poiesic/dishpipe/core"
)

const (
	mealDBDefaultBaseURL = "https://www.themealdb.com/api/json/v1/1"

	// detailAttempts caps retries for a single lookup.php request.
	detailAttempts = 3
)

var mealDBCategories = []string{
	"Beef", "Chicken", "Dessert", "Lamb", "Pasta", "Pork", "Seafood",
	"Vegetarian", "Breakfast", "Goat", "Vegan", "Side", "Starter",
}

// MealDB adapts TheMealDB. It walks the category listings and fetches
// the full detail record for each meal, honoring MinDelay between
// detail requests.
type MealDB struct {
	baseURL    string
	httpClient *http.Client
	categories []string
	nameFilter func(string) bool
	minDelay   time.Duration
	logger     *slog.Logger
}

// MealDBOption configures a MealDB adapter.
type MealDBOption func(*MealDB)

// WithMealDBBaseURL overrides the API base URL.
func WithMealDBBaseURL(base string) MealDBOption {
	return func(m *MealDB) { m.baseURL = strings.TrimRight(base, "/") }
}

// WithMealDBHTTPClient overrides the HTTP client.
func WithMealDBHTTPClient(client *http.Client) MealDBOption {
	return func(m *MealDB) { m.httpClient = client }
}

// WithMealDBCategories restricts the categories to walk.
func WithMealDBCategories(categories []string) MealDBOption {
	return func(m *MealDB) { m.categories = categories }
}

// WithMealDBNameFilter drops listed meals whose name matches before the
// detail request is spent on them.
func WithMealDBNameFilter(exclude func(name string) bool) MealDBOption {
	return func(m *MealDB) { m.nameFilter = exclude }
}

// WithMealDBDelay overrides the inter-request delay.
func WithMealDBDelay(d time.Duration) MealDBOption {
	return func(m *MealDB) { m.minDelay = d }
}

// WithMealDBLogger sets the structured logger.
func WithMealDBLogger(logger *slog.Logger) MealDBOption {
	return func(m *MealDB) { m.logger = logger }
}

// NewMealDB creates a TheMealDB adapter with the stock category list.
func NewMealDB(opts ...MealDBOption) *MealDB {
	m := &MealDB{
		baseURL:    mealDBDefaultBaseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		categories: mealDBCategories,
		minDelay:   200 * time.Millisecond,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

var _ Adapter = (*MealDB)(nil)

func (m *MealDB) Source() string          { return "TheMealDB" }
func (m *MealDB) MinDelay() time.Duration { return m.minDelay }

type mealDBListing struct {
	Meals []struct {
		StrMeal string `json:"strMeal"`
		IDMeal  string `json:"idMeal"`
	} `json:"meals"`
}

type mealDBDetail struct {
	Meals []json.RawMessage `json:"meals"`
}

// FetchBatch walks every category, listing meals and then fetching
// detail records. A failed detail fetch is logged and skipped so one
// bad meal cannot sink the whole category.
func (m *MealDB) FetchBatch(ctx context.Context) ([]RawRecord, error) {
	var records []RawRecord
	for _, category := range m.categories {
		listing, err := m.fetchCategory(ctx, category)
		if err != nil {
			return records, fmt.Errorf("list category %q: %w", category, err)
		}
		m.logger.Debug("listed category",
			slog.String("category", category), slog.Int("meals", len(listing.Meals)))

		for _, summary := range listing.Meals {
			if m.nameFilter != nil && m.nameFilter(summary.StrMeal) {
				continue
			}
			if err := sleepCtx(ctx, m.minDelay); err != nil {
				return records, err
			}
			detail, err := m.fetchDetail(ctx, summary.IDMeal)
			if err != nil {
				if ctx.Err() != nil {
					return records, ctx.Err()
				}
				m.logger.Warn("failed to fetch meal detail",
					slog.String("id", summary.IDMeal), slog.Any("error", err))
				continue
			}
			if detail != nil {
				records = append(records, detail)
			}
		}
	}
	return records, nil
}

func (m *MealDB) fetchCategory(ctx context.Context, category string) (*mealDBListing, error) {
	endpoint := fmt.Sprintf("%s/filter.php?c=%s", m.baseURL, url.QueryEscape(category))
	var listing mealDBListing
	if err := m.getJSON(ctx, endpoint, &listing); err != nil {
		return nil, err
	}
	return &listing, nil
}

func (m *MealDB) fetchDetail(ctx context.Context, id string) (RawRecord, error) {
	endpoint := fmt.Sprintf("%s/lookup.php?i=%s", m.baseURL, url.QueryEscape(id))
	var detail mealDBDetail
	err := retryWithBackoff(ctx, func() error {
		return m.getJSON(ctx, endpoint, &detail)
	}, detailAttempts, m.minDelay)
	if err != nil {
		return nil, err
	}
	if len(detail.Meals) == 0 {
		return nil, nil
	}
	return detail.Meals[0], nil
}

func (m *MealDB) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	resp, err := m.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Transform converts one meal detail record. TheMealDB stores up to 20
// positional ingredient and measure columns, empty past the last one.
func (m *MealDB) Transform(record RawRecord) (*core.Dish, error) {
	var fields map[string]any
	if err := json.Unmarshal(record, &fields); err != nil {
		return nil, transformErr(m.Source(), "invalid meal record", err)
	}

	id := jsonStr(fields, "idMeal")
	name := strings.TrimSpace(jsonStr(fields, "strMeal"))
	if id == "" || name == "" {
		return nil, transformErr(m.Source(), "meal missing id or name", nil)
	}

	category := jsonStr(fields, "strCategory")
	area := jsonStr(fields, "strArea")
	if area == "" || strings.EqualFold(area, "unknown") {
		area = "International"
	}
	instructions := strings.TrimSpace(jsonStr(fields, "strInstructions"))

	var ingredients []core.Ingredient
	for i := 1; i <= 20; i++ {
		ingName := strings.TrimSpace(jsonStr(fields, fmt.Sprintf("strIngredient%d", i)))
		if ingName == "" {
			continue
		}
		amount := strings.TrimSpace(jsonStr(fields, fmt.Sprintf("strMeasure%d", i)))
		if amount == "" {
			amount = "to taste"
		}
		ingredients = append(ingredients, core.Ingredient{Name: ingName, Amount: amount})
	}

	tags := []string{"themealdb"}
	if category != "" {
		tags = append(tags, core.Slugify(category))
	}
	for _, tag := range strings.Split(jsonStr(fields, "strTags"), ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, core.Slugify(tag))
		}
	}

	protein, carbs, fat, fiber := EstimateMacros(ingredients)
	source := jsonStr(fields, "strSource")
	if source == "" {
		source = "TheMealDB"
	}

	dish := &core.Dish{
		Id:            core.SourceDishID("mealdb", id),
		Name:          name,
		Description:   fmt.Sprintf("A %s dish from %s cuisine.", strings.ToLower(category), area),
		Country:       area,
		Tags:          tags,
		Difficulty:    EstimateDifficulty(instructions),
		Calories:      EstimateCalories(ingredients),
		Protein:       protein,
		Carbs:         carbs,
		Fat:           fat,
		Fiber:         fiber,
		DietaryInfo:   DetectDietaryInfo(ingredients, category),
		SpiceLevel:    core.SpiceMedium,
		Allergens:     DetectAllergens(ingredients),
		CookingMethod: "Various",
		MealType:      mealTypeForCategory(category),
		Season:        "All",
		Instructions:  instructions,
		CookTime:      EstimateCookTime(instructions),
		Servings:      4,
		Source:        source,
		Image:         jsonStr(fields, "strMealThumb"),
		Ingredients:   ingredients,
	}
	return dish, nil
}

func mealTypeForCategory(category string) string {
	switch strings.ToLower(category) {
	case "breakfast":
		return "Breakfast"
	case "dessert":
		return "Dessert"
	case "side", "starter":
		return "Side"
	default:
		return "Dinner"
	}
}

// jsonStr reads a string field from a decoded JSON object, treating
// null and missing keys as empty.
func jsonStr(fields map[string]any, key string) string {
	if v, ok := fields[key].(string); ok {
		return v
	}
	return ""
}
