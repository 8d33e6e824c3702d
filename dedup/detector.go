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

package dedup

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/poiesic/dishpipe/core"
	"github.com/poiesic/dishpipe/storage"
)

// MatchKind says which tier flagged a duplicate.
type MatchKind string

const (
	MatchExact MatchKind = "exact"
	MatchFuzzy MatchKind = "fuzzy"
)

// Match describes a detected duplicate.
type Match struct {
	Kind        MatchKind
	MatchedName string
	Similarity  float64
}

// Detector checks candidate dishes against the store and against names
// admitted earlier in the same run. The in-run memory closes the window
// where two near-identical dishes arrive in one batch before either is
// persisted.
type Detector struct {
	repo      storage.DishRepository
	threshold float64

	// admitted maps country to the names accepted this run.
	admitted map[string][]string
}

// NewDetector creates a detector with the default similarity threshold.
func NewDetector(repo storage.DishRepository) *Detector {
	return &Detector{
		repo:      repo,
		threshold: Threshold,
		admitted:  make(map[string][]string),
	}
}

// Check runs both tiers for the dish. A nil Match means the dish is new.
func (d *Detector) Check(ctx context.Context, dish *core.Dish) (*Match, error) {
	if dish == nil {
		return nil, core.ErrNilDish
	}

	// Exact tier: the name+country index.
	existing, err := d.repo.FindByNameAndCountry(ctx, dish.Name, dish.Country)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("exact duplicate lookup: %w", err)
	}
	if existing != nil {
		return &Match{Kind: MatchExact, MatchedName: existing.Name, Similarity: 1.0}, nil
	}

	// Fuzzy tier: stored names in the same country, then names admitted
	// earlier in this run. Short-circuits on the first hit.
	names, err := d.repo.NamesByCountry(ctx, dish.Country)
	if err != nil {
		return nil, fmt.Errorf("fuzzy duplicate lookup: %w", err)
	}
	if m := d.fuzzyMatch(dish.Name, names); m != nil {
		return m, nil
	}
	if m := d.fuzzyMatch(dish.Name, d.admitted[countryKey(dish.Country)]); m != nil {
		return m, nil
	}

	return nil, nil
}

// Remember records a name admitted during this run so later candidates in
// the same batch are checked against it.
func (d *Detector) Remember(dish *core.Dish) {
	if dish == nil {
		return
	}
	key := countryKey(dish.Country)
	d.admitted[key] = append(d.admitted[key], dish.Name)
}

// Reset clears the in-run memory.
func (d *Detector) Reset() {
	d.admitted = make(map[string][]string)
}

func (d *Detector) fuzzyMatch(name string, candidates []string) *Match {
	for _, candidate := range candidates {
		if score := Similarity(name, candidate); score > d.threshold {
			return &Match{Kind: MatchFuzzy, MatchedName: candidate, Similarity: score}
		}
	}
	return nil
}

func countryKey(country string) string {
	return strings.ToLower(strings.TrimSpace(country))
}
