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


package storage

import (
	"encoding/json"
	"fmt"

	"github.com/poiesic/dishpipe/core"
)

// Dishes are stored as JSON documents. The same encoding is shared by the
// failed-recipe side-log, the duplicate report and the activity log, so a
// stored value can be inspected or resubmitted with ordinary tools.

// MarshalDish serializes a Dish to its stored document form.
func MarshalDish(dish *core.Dish) ([]byte, error) {
	data, err := json.Marshal(dish)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return data, nil
}

// UnmarshalDish deserializes a stored document back into a Dish. Unknown
// fields in the document are dropped.
func UnmarshalDish(data []byte) (*core.Dish, error) {
	var dish core.Dish
	if err := json.Unmarshal(data, &dish); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &dish, nil
}
