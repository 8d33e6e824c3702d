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

const recipePuppyDefaultBaseURL = "http://www.recipepuppy.com/api"

var recipePuppyDefaultSearches = []string{
	"chicken", "pasta", "cheese", "garlic", "chocolate",
}

// RecipePuppy adapts the RecipePuppy search API. The service is flaky
// and frequently unreachable, so connection failures produce an empty
// batch rather than an error.
type RecipePuppy struct {
	baseURL    string
	httpClient *http.Client
	searches   []string
	minDelay   time.Duration
	logger     *slog.Logger
}

// RecipePuppyOption configures a RecipePuppy adapter.
type RecipePuppyOption func(*RecipePuppy)

// WithRecipePuppyBaseURL overrides the API base URL.
func WithRecipePuppyBaseURL(base string) RecipePuppyOption {
	return func(r *RecipePuppy) { r.baseURL = strings.TrimRight(base, "/") }
}

// WithRecipePuppyHTTPClient overrides the HTTP client.
func WithRecipePuppyHTTPClient(client *http.Client) RecipePuppyOption {
	return func(r *RecipePuppy) { r.httpClient = client }
}

// WithRecipePuppySearches overrides the ingredient search terms.
func WithRecipePuppySearches(searches []string) RecipePuppyOption {
	return func(r *RecipePuppy) { r.searches = searches }
}

// WithRecipePuppyDelay overrides the inter-request delay.
func WithRecipePuppyDelay(d time.Duration) RecipePuppyOption {
	return func(r *RecipePuppy) { r.minDelay = d }
}

// WithRecipePuppyLogger sets the structured logger.
func WithRecipePuppyLogger(logger *slog.Logger) RecipePuppyOption {
	return func(r *RecipePuppy) { r.logger = logger }
}

// NewRecipePuppy creates a RecipePuppy adapter.
func NewRecipePuppy(opts ...RecipePuppyOption) *RecipePuppy {
	r := &RecipePuppy{
		baseURL:    recipePuppyDefaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		searches:   recipePuppyDefaultSearches,
		minDelay:   time.Second,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var _ Adapter = (*RecipePuppy)(nil)

func (r *RecipePuppy) Source() string          { return "RecipePuppy" }
func (r *RecipePuppy) MinDelay() time.Duration { return r.minDelay }

type recipePuppyResponse struct {
	Results []json.RawMessage `json:"results"`
}

// FetchBatch searches each configured ingredient. An unreachable host
// ends the batch with whatever was gathered, without error.
func (r *RecipePuppy) FetchBatch(ctx context.Context) ([]RawRecord, error) {
	var records []RawRecord
	for i, search := range r.searches {
		if i > 0 {
			if err := sleepCtx(ctx, r.minDelay); err != nil {
				return records, err
			}
		}
		results, err := r.search(ctx, search)
		if err != nil {
			if ctx.Err() != nil {
				return records, ctx.Err()
			}
			r.logger.Warn("recipepuppy unreachable, skipping remaining searches",
				slog.String("search", search), slog.Any("error", err))
			return records, nil
		}
		records = append(records, results...)
	}
	return records, nil
}

func (r *RecipePuppy) search(ctx context.Context, ingredient string) ([]RawRecord, error) {
	endpoint := fmt.Sprintf("%s/?i=%s&p=1", r.baseURL, url.QueryEscape(ingredient))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var body recipePuppyResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}
	return body.Results, nil
}

type recipePuppyResult struct {
	Title       string `json:"title"`
	Href        string `json:"href"`
	Ingredients string `json:"ingredients"`
	Thumbnail   string `json:"thumbnail"`
}

// Transform converts one RecipePuppy result. The provider has no native
// id, so one is derived from the title and ingredient list. Replaying
// the same record yields the same id.
func (r *RecipePuppy) Transform(record RawRecord) (*core.Dish, error) {
	var raw recipePuppyResult
	if err := json.Unmarshal(record, &raw); err != nil {
		return nil, transformErr(r.Source(), "invalid result record", err)
	}

	name := strings.TrimSpace(raw.Title)
	if name == "" {
		return nil, transformErr(r.Source(), "result missing title", nil)
	}

	var ingredients []core.Ingredient
	for _, part := range strings.Split(raw.Ingredients, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		// RecipePuppy does not provide amounts.
		ingredients = append(ingredients, core.Ingredient{Name: part, Amount: "some"})
	}

	instructions := "No instructions."
	if raw.Href != "" {
		instructions = fmt.Sprintf("View recipe at %s.", raw.Href)
	}

	nativeID := fmt.Sprintf("%s-%x", core.Slugify(name), core.ContentHash(raw.Ingredients))
	protein, carbs, fat, fiber := EstimateMacros(ingredients)

	dish := &core.Dish{
		Id:            core.SourceDishID("recipepuppy", nativeID),
		Name:          name,
		Description:   fmt.Sprintf("A generic dish with %s.", raw.Ingredients),
		Country:       "International",
		Tags:          []string{"recipe-puppy"},
		Difficulty:    core.DifficultyMedium,
		Calories:      EstimateCalories(ingredients),
		Protein:       protein,
		Carbs:         carbs,
		Fat:           fat,
		Fiber:         fiber,
		DietaryInfo:   DetectDietaryInfo(ingredients, ""),
		SpiceLevel:    core.SpiceMedium,
		Allergens:     DetectAllergens(ingredients),
		CookingMethod: "Various",
		MealType:      "Dinner",
		Season:        "All",
		Instructions:  instructions,
		CookTime:      30,
		Servings:      4,
		Source:        firstNonEmpty(raw.Href, "RecipePuppy"),
		Image:         raw.Thumbnail,
		Ingredients:   ingredients,
	}
	return dish, nil
}
