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


package core

import (
	"errors"
	"fmt"
	"strings"
)

// Domain validation errors
var (
	// ErrInvalidDish indicates a Dish failed schema validation.
	ErrInvalidDish = errors.New("invalid dish")

	// ErrNilDish indicates a nil Dish was passed to validation.
	ErrNilDish = errors.New("dish is nil")
)

// Violation describes a single schema violation on one field.
type Violation struct {
	Field   string
	Message string
}

func (v Violation) String() string {
	return v.Field + ": " + v.Message
}

// ValidationError reports every schema violation found in one pass rather
// than stopping at the first, so callers can surface everything wrong with
// a candidate at once.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		msgs[i] = v.String()
	}
	return fmt.Sprintf("%v: %s", ErrInvalidDish, strings.Join(msgs, "; "))
}

// Unwrap lets errors.Is(err, ErrInvalidDish) succeed on validation failures.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidDish
}

// Fields returns the names of all violated fields, in report order.
func (e *ValidationError) Fields() []string {
	fields := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		fields[i] = v.Field
	}
	return fields
}
