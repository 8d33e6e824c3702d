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
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/poiesic/dishpipe/core"
)

const edamamDefaultBaseURL = "https://api.edamam.com/api/recipes/v2"

var edamamDefaultQueries = []string{"chicken", "salad", "soup", "pasta", "fish"}

// Edamam adapts the Edamam recipe search API. The free tier allows ten
// requests per minute, hence the long default delay. Nutrition figures
// arrive as whole-recipe totals and are divided by the yield to get
// per-serving values.
type Edamam struct {
	appID      string
	appKey     string
	baseURL    string
	httpClient *http.Client
	queries    []string
	minDelay   time.Duration
	logger     *slog.Logger
}

// EdamamOption configures an Edamam adapter.
type EdamamOption func(*Edamam)

// WithEdamamBaseURL overrides the API base URL.
func WithEdamamBaseURL(base string) EdamamOption {
	return func(e *Edamam) { e.baseURL = strings.TrimRight(base, "/") }
}

// WithEdamamHTTPClient overrides the HTTP client.
func WithEdamamHTTPClient(client *http.Client) EdamamOption {
	return func(e *Edamam) { e.httpClient = client }
}

// WithEdamamQueries overrides the search terms.
func WithEdamamQueries(queries []string) EdamamOption {
	return func(e *Edamam) { e.queries = queries }
}

// WithEdamamDelay overrides the inter-request delay.
func WithEdamamDelay(d time.Duration) EdamamOption {
	return func(e *Edamam) { e.minDelay = d }
}

// WithEdamamLogger sets the structured logger.
func WithEdamamLogger(logger *slog.Logger) EdamamOption {
	return func(e *Edamam) { e.logger = logger }
}

// NewEdamam creates an Edamam adapter.
func NewEdamam(appID, appKey string, opts ...EdamamOption) *Edamam {
	e := &Edamam{
		appID:      appID,
		appKey:     appKey,
		baseURL:    edamamDefaultBaseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		queries:    edamamDefaultQueries,
		minDelay:   6 * time.Second,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var _ Adapter = (*Edamam)(nil)

func (e *Edamam) Source() string          { return "Edamam" }
func (e *Edamam) MinDelay() time.Duration { return e.minDelay }

type edamamSearchResponse struct {
	Hits []struct {
		Recipe json.RawMessage `json:"recipe"`
	} `json:"hits"`
}

// FetchBatch searches each configured query term in turn. A 429
// response means the per-minute quota is spent; the records gathered so
// far are returned alongside ErrQuotaExceeded.
func (e *Edamam) FetchBatch(ctx context.Context) ([]RawRecord, error) {
	if e.appID == "" || e.appKey == "" {
		return nil, ErrMissingCredentials
	}

	var records []RawRecord
	for i, query := range e.queries {
		if i > 0 {
			if err := sleepCtx(ctx, e.minDelay); err != nil {
				return records, err
			}
		}
		hits, err := e.search(ctx, query)
		if err != nil {
			if err == ErrQuotaExceeded {
				e.logger.Warn("rate limit reached",
					slog.String("query", query), slog.Int("queries_done", i))
				return records, ErrQuotaExceeded
			}
			return records, fmt.Errorf("search %q: %w", query, err)
		}
		records = append(records, hits...)
	}
	return records, nil
}

func (e *Edamam) search(ctx context.Context, query string) ([]RawRecord, error) {
	params := url.Values{}
	params.Set("type", "public")
	params.Set("q", query)
	params.Set("app_id", e.appID)
	params.Set("app_key", e.appKey)
	endpoint := e.baseURL + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusTooManyRequests:
		return nil, ErrQuotaExceeded
	default:
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var body edamamSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}
	records := make([]RawRecord, 0, len(body.Hits))
	for _, hit := range body.Hits {
		records = append(records, hit.Recipe)
	}
	return records, nil
}

type edamamRecipe struct {
	URI             string   `json:"uri"`
	Label           string   `json:"label"`
	Image           string   `json:"image"`
	Source          string   `json:"source"`
	URL             string   `json:"url"`
	Yield           float64  `json:"yield"`
	HealthLabels    []string `json:"healthLabels"`
	IngredientLines []string `json:"ingredientLines"`
	Ingredients     []struct {
		Food string `json:"food"`
		Text string `json:"text"`
	} `json:"ingredients"`
	Calories       float64  `json:"calories"`
	TotalTime      float64  `json:"totalTime"`
	CuisineType    []string `json:"cuisineType"`
	MealType       []string `json:"mealType"`
	TotalNutrients map[string]struct {
		Quantity float64 `json:"quantity"`
	} `json:"totalNutrients"`
}

// Transform converts one Edamam recipe. The id is the fragment after
// "#recipe_" in the recipe URI, which Edamam keeps stable per recipe.
func (e *Edamam) Transform(record RawRecord) (*core.Dish, error) {
	var raw edamamRecipe
	if err := json.Unmarshal(record, &raw); err != nil {
		return nil, transformErr(e.Source(), "invalid recipe record", err)
	}

	name := strings.TrimSpace(raw.Label)
	nativeID := edamamURIFragment(raw.URI)
	if nativeID == "" || name == "" {
		return nil, transformErr(e.Source(), "recipe missing uri or label", nil)
	}

	ingredients := make([]core.Ingredient, 0, len(raw.Ingredients))
	for _, ing := range raw.Ingredients {
		food := strings.TrimSpace(ing.Food)
		if food == "" {
			continue
		}
		amount := strings.TrimSpace(ing.Text)
		if amount == "" {
			amount = "to taste"
		}
		ingredients = append(ingredients, core.Ingredient{Name: food, Amount: amount})
	}

	yield := raw.Yield
	if yield <= 0 {
		yield = 1
	}

	country := "International"
	if len(raw.CuisineType) > 0 && raw.CuisineType[0] != "" {
		country = titleCase(raw.CuisineType[0])
	}
	mealType := "Dinner"
	if len(raw.MealType) > 0 && raw.MealType[0] != "" {
		mealType = titleCase(raw.MealType[0])
	}

	instructions := fmt.Sprintf("Full instructions at %s.", raw.URL)
	if raw.URL == "" {
		instructions = "No instructions provided."
	}

	cookTime := int(raw.TotalTime)
	if cookTime <= 0 {
		cookTime = 30
	}

	dietary := DetectDietaryInfo(ingredients, strings.Join(raw.HealthLabels, " "))

	dish := &core.Dish{
		Id:            core.SourceDishID("edamam", nativeID),
		Name:          name,
		Description:   fmt.Sprintf("A %s recipe with %d ingredients.", strings.ToLower(country), len(raw.IngredientLines)),
		Country:       country,
		Tags:          []string{"edamam"},
		Difficulty:    difficultyForIngredients(len(ingredients)),
		Calories:      perServing(raw.Calories, yield),
		Protein:       perServing(raw.nutrient("PROCNT"), yield),
		Carbs:         perServing(raw.nutrient("CHOCDF"), yield),
		Fat:           perServing(raw.nutrient("FAT"), yield),
		Fiber:         perServing(raw.nutrient("FIBTG"), yield),
		DietaryInfo:   dietary,
		SpiceLevel:    core.SpiceMedium,
		Allergens:     DetectAllergens(ingredients),
		CookingMethod: "Various",
		MealType:      mealType,
		Season:        "All",
		Instructions:  instructions,
		CookTime:      cookTime,
		Servings:      int(yield),
		Source:        firstNonEmpty(raw.URL, "Edamam"),
		Image:         raw.Image,
		Ingredients:   ingredients,
	}
	return dish, nil
}

func (r *edamamRecipe) nutrient(code string) float64 {
	return r.TotalNutrients[code].Quantity
}

func perServing(total, yield float64) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(total / yield)
}

func difficultyForIngredients(count int) core.Difficulty {
	switch {
	case count <= 5:
		return core.DifficultyEasy
	case count <= 10:
		return core.DifficultyMedium
	default:
		return core.DifficultyHard
	}
}

// edamamURIFragment extracts the stable recipe id from a URI like
// "http://www.edamam.com/ontologies/edamam.owl#recipe_abc123".
func edamamURIFragment(uri string) string {
	const marker = "#recipe_"
	idx := strings.LastIndex(uri, marker)
	if idx < 0 {
		return ""
	}
	return uri[idx+len(marker):]
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
