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
	"strconv"
	"strings"
	"time"

	"github.com/poiesic/dishpipe/core"
)

const spoonacularDefaultBaseURL = "https://api.spoonacular.com/recipes"

// Spoonacular adapts the Spoonacular random-recipe endpoint. The free
// plan has a daily point quota; a 402 response means the quota is spent
// and FetchBatch returns whatever it gathered so far alongside
// ErrQuotaExceeded.
type Spoonacular struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	pageSize   int
	pages      int
	minDelay   time.Duration
	logger     *slog.Logger
}

// SpoonacularOption configures a Spoonacular adapter.
type SpoonacularOption func(*Spoonacular)

// WithSpoonacularBaseURL overrides the API base URL.
func WithSpoonacularBaseURL(base string) SpoonacularOption {
	return func(s *Spoonacular) { s.baseURL = strings.TrimRight(base, "/") }
}

// WithSpoonacularHTTPClient overrides the HTTP client.
func WithSpoonacularHTTPClient(client *http.Client) SpoonacularOption {
	return func(s *Spoonacular) { s.httpClient = client }
}

// WithSpoonacularPages sets how many random pages to fetch and how many
// recipes per page.
func WithSpoonacularPages(pages, pageSize int) SpoonacularOption {
	return func(s *Spoonacular) {
		s.pages = pages
		s.pageSize = pageSize
	}
}

// WithSpoonacularDelay overrides the inter-request delay.
func WithSpoonacularDelay(d time.Duration) SpoonacularOption {
	return func(s *Spoonacular) { s.minDelay = d }
}

// WithSpoonacularLogger sets the structured logger.
func WithSpoonacularLogger(logger *slog.Logger) SpoonacularOption {
	return func(s *Spoonacular) { s.logger = logger }
}

// NewSpoonacular creates a Spoonacular adapter.
func NewSpoonacular(apiKey string, opts ...SpoonacularOption) *Spoonacular {
	s := &Spoonacular{
		apiKey:     apiKey,
		baseURL:    spoonacularDefaultBaseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		pageSize:   10,
		pages:      3,
		minDelay:   time.Second,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ Adapter = (*Spoonacular)(nil)

func (s *Spoonacular) Source() string          { return "Spoonacular" }
func (s *Spoonacular) MinDelay() time.Duration { return s.minDelay }

type spoonacularRandomResponse struct {
	Recipes []json.RawMessage `json:"recipes"`
}

// FetchBatch pulls random recipe pages until the configured page count
// or the daily quota is reached.
func (s *Spoonacular) FetchBatch(ctx context.Context) ([]RawRecord, error) {
	if s.apiKey == "" {
		return nil, ErrMissingCredentials
	}

	var records []RawRecord
	for page := 0; page < s.pages; page++ {
		if page > 0 {
			if err := sleepCtx(ctx, s.minDelay); err != nil {
				return records, err
			}
		}
		recipes, err := s.fetchRandom(ctx)
		if err != nil {
			// A spent quota is not a failure; keep what we have.
			if err == ErrQuotaExceeded {
				s.logger.Warn("daily quota exhausted",
					slog.Int("pages_fetched", page))
				return records, ErrQuotaExceeded
			}
			return records, err
		}
		records = append(records, recipes...)
	}
	return records, nil
}

func (s *Spoonacular) fetchRandom(ctx context.Context) ([]RawRecord, error) {
	endpoint := fmt.Sprintf("%s/random?number=%d&apiKey=%s",
		s.baseURL, s.pageSize, url.QueryEscape(s.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusPaymentRequired:
		return nil, ErrQuotaExceeded
	default:
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var body spoonacularRandomResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}
	return body.Recipes, nil
}

type spoonacularRecipe struct {
	ID                  int64    `json:"id"`
	Title               string   `json:"title"`
	Summary             string   `json:"summary"`
	Instructions        string   `json:"instructions"`
	Cuisines            []string `json:"cuisines"`
	DishTypes           []string `json:"dishTypes"`
	ReadyInMinutes      int      `json:"readyInMinutes"`
	Servings            int      `json:"servings"`
	SourceURL           string   `json:"sourceUrl"`
	Image               string   `json:"image"`
	Vegetarian          bool     `json:"vegetarian"`
	Vegan               bool     `json:"vegan"`
	ExtendedIngredients []struct {
		Name     string `json:"name"`
		Original string `json:"original"`
	} `json:"extendedIngredients"`
}

// Transform converts one Spoonacular recipe. Summaries and instructions
// arrive with embedded HTML and are flattened to plain text.
func (s *Spoonacular) Transform(record RawRecord) (*core.Dish, error) {
	var raw spoonacularRecipe
	if err := json.Unmarshal(record, &raw); err != nil {
		return nil, transformErr(s.Source(), "invalid recipe record", err)
	}

	name := strings.TrimSpace(raw.Title)
	if raw.ID == 0 || name == "" {
		return nil, transformErr(s.Source(), "recipe missing id or title", nil)
	}

	ingredients := make([]core.Ingredient, 0, len(raw.ExtendedIngredients))
	for _, ing := range raw.ExtendedIngredients {
		ingName := strings.TrimSpace(ing.Name)
		if ingName == "" {
			continue
		}
		amount := strings.TrimSpace(ing.Original)
		if amount == "" {
			amount = "to taste"
		}
		ingredients = append(ingredients, core.Ingredient{Name: ingName, Amount: amount})
	}

	country := "International"
	if len(raw.Cuisines) > 0 && raw.Cuisines[0] != "" {
		country = raw.Cuisines[0]
	}

	instructions := StripMarkup(raw.Instructions)
	if instructions == "" {
		instructions = "No instructions provided."
	}
	description := StripMarkup(raw.Summary)
	if len(description) < 10 {
		description = fmt.Sprintf("A %s recipe from Spoonacular.", strings.ToLower(country))
	}

	dietary := DetectDietaryInfo(ingredients, strings.Join(raw.DishTypes, " "))
	if raw.Vegan {
		dietary = appendUnique(dietary, "Vegan")
	}
	if raw.Vegetarian {
		dietary = appendUnique(dietary, "Vegetarian")
	}

	cookTime := raw.ReadyInMinutes
	if cookTime <= 0 {
		cookTime = EstimateCookTime(instructions)
	}
	servings := raw.Servings
	if servings <= 0 {
		servings = 4
	}
	source := raw.SourceURL
	if source == "" {
		source = "Spoonacular"
	}

	tags := []string{"spoonacular"}
	for _, dt := range raw.DishTypes {
		if dt = strings.TrimSpace(dt); dt != "" {
			tags = append(tags, core.Slugify(dt))
		}
	}

	protein, carbs, fat, fiber := EstimateMacros(ingredients)

	dish := &core.Dish{
		Id:            core.SourceDishID("spoonacular", strconv.FormatInt(raw.ID, 10)),
		Name:          name,
		Description:   description,
		Country:       country,
		Tags:          tags,
		Difficulty:    EstimateDifficulty(instructions),
		Calories:      EstimateCalories(ingredients),
		Protein:       protein,
		Carbs:         carbs,
		Fat:           fat,
		Fiber:         fiber,
		DietaryInfo:   dietary,
		SpiceLevel:    core.SpiceMedium,
		Allergens:     DetectAllergens(ingredients),
		CookingMethod: "Various",
		MealType:      "Dinner",
		Season:        "All",
		Instructions:  instructions,
		CookTime:      cookTime,
		Servings:      servings,
		Source:        source,
		Image:         raw.Image,
		Ingredients:   ingredients,
	}
	return dish, nil
}

func appendUnique(labels []string, label string) []string {
	for _, existing := range labels {
		if existing == label {
			return labels
		}
	}
	return append(labels, label)
}
