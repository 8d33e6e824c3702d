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
	"encoding/json"
	"math"
	"os"
	"sort"

	"github.com/poiesic/dishpipe/storage"
)

// Pair is one suspected duplicate in an offline report.
type Pair struct {
	Recipe1    string  `json:"recipe1"`
	Recipe2    string  `json:"recipe2"`
	Similarity float64 `json:"similarity"`
	Country    string  `json:"country"`
}

// Report scans the whole store pairwise within each country and returns
// every pair above the threshold. Similarity scores are rounded to two
// decimals for the report.
func Report(ctx context.Context, repo storage.DishRepository) ([]Pair, error) {
	dishes, err := repo.All(ctx)
	if err != nil {
		return nil, err
	}

	byCountry := make(map[string][]string)
	for _, dish := range dishes {
		key := countryKey(dish.Country)
		byCountry[key] = append(byCountry[key], dish.Name)
	}

	countries := make([]string, 0, len(byCountry))
	for c := range byCountry {
		countries = append(countries, c)
	}
	sort.Strings(countries)

	var pairs []Pair
	for _, country := range countries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		names := byCountry[country]
		for i := 0; i < len(names); i++ {
			for j := i + 1; j < len(names); j++ {
				score := Similarity(names[i], names[j])
				if score > Threshold {
					pairs = append(pairs, Pair{
						Recipe1:    names[i],
						Recipe2:    names[j],
						Similarity: math.Round(score*100) / 100,
						Country:    country,
					})
				}
			}
		}
	}
	return pairs, nil
}

// WriteReport writes pairs as pretty-printed JSON to the given path.
func WriteReport(path string, pairs []Pair) error {
	if pairs == nil {
		pairs = []Pair{}
	}
	data, err := json.MarshalIndent(pairs, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
