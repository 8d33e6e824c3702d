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
	"strings"

	"github.com/poiesic/dishpipe/storage"
)

// Cleanup removes exact duplicates already in the store. Dishes are
// grouped by trimmed, lowercased name regardless of country; the first
// occurrence in scan order is kept and the rest are deleted. Returns the
// number of dishes removed.
func Cleanup(ctx context.Context, repo storage.DishRepository) (int, error) {
	dishes, err := repo.All(ctx)
	if err != nil {
		return 0, err
	}

	seen := make(map[string]bool)
	var doomed []string
	for _, dish := range dishes {
		key := strings.ToLower(strings.TrimSpace(dish.Name))
		if seen[key] {
			doomed = append(doomed, dish.Id)
			continue
		}
		seen[key] = true
	}

	if len(doomed) == 0 {
		return 0, nil
	}
	return repo.DeleteByIDs(ctx, doomed...)
}
