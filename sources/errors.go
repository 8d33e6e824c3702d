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
	"errors"
	"fmt"
)

var (
	// ErrQuotaExceeded marks a provider refusing further requests for
	// the current period. Records gathered before the refusal are
	// still returned.
	ErrQuotaExceeded = errors.New("provider quota exceeded")

	// ErrMissingCredentials means an adapter was asked to fetch
	// without the API credentials it needs.
	ErrMissingCredentials = errors.New("missing provider credentials")
)

// TransformError reports a raw record that could not be turned into a
// dish. The runner drops the record and keeps going.
type TransformError struct {
	Source string
	Reason string
	Err    error
}

func (e *TransformError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Source, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Source, e.Reason)
}

func (e *TransformError) Unwrap() error {
	return e.Err
}

func transformErr(source, reason string, err error) *TransformError {
	return &TransformError{Source: source, Reason: reason, Err: err}
}
