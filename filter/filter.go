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

// Package filter excludes dishes whose name or ingredient list matches a
// keyword denylist. Matching is case-insensitive substring matching, so
// "Beef Wellington" and "beefsteak" both trip the "beef" keyword.
package filter

import (
	"strings"

	"github.com/poiesic/dishpipe/core"
)

// DefaultDenylist is the stock set of excluded keywords.
var DefaultDenylist = []string{
	"beef", "pork", "bacon", "ham", "sausage", "pepperoni",
	"prosciutto", "salami", "chorizo", "veal", "lamb", "mutton",
	"goat meat", "lard", "gelatin",
}

// Filter screens dishes against a denylist.
type Filter struct {
	keywords []string
}

// New creates a filter. A nil or empty keyword list falls back to
// DefaultDenylist.
func New(keywords []string) *Filter {
	if len(keywords) == 0 {
		keywords = DefaultDenylist
	}
	lowered := make([]string, len(keywords))
	for i, kw := range keywords {
		lowered[i] = strings.ToLower(kw)
	}
	return &Filter{keywords: lowered}
}

// ShouldExclude reports whether the dish trips the denylist, along with
// the keyword that matched. The dish name is always checked; ingredients
// are checked when present.
func (f *Filter) ShouldExclude(dish *core.Dish) (bool, string) {
	if dish == nil {
		return false, ""
	}
	name := strings.ToLower(dish.Name)
	for _, kw := range f.keywords {
		if strings.Contains(name, kw) {
			return true, kw
		}
	}
	for _, ing := range dish.Ingredients {
		ingName := strings.ToLower(ing.Name)
		for _, kw := range f.keywords {
			if strings.Contains(ingName, kw) {
				return true, kw
			}
		}
	}
	return false, ""
}

// MatchesName reports whether a bare dish name trips the denylist. Source
// adapters use this to drop records before paying for a detail fetch.
func (f *Filter) MatchesName(name string) bool {
	lowered := strings.ToLower(name)
	for _, kw := range f.keywords {
		if strings.Contains(lowered, kw) {
			return true
		}
	}
	return false
}

// Apply partitions dishes into kept and excluded sets, preserving order.
func (f *Filter) Apply(dishes []*core.Dish) (kept, excluded []*core.Dish) {
	for _, dish := range dishes {
		if skip, _ := f.ShouldExclude(dish); skip {
			excluded = append(excluded, dish)
			continue
		}
		kept = append(kept, dish)
	}
	return kept, excluded
}
