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

// Package sources provides adapters for the upstream recipe providers.
// Each adapter fetches raw provider records and transforms them into the
// shared dish schema. Transforms are pure functions of their input so a
// record can be replayed later and yield the same dish.
package sources

import (
	"context"
	"encoding/json"
	"time"

	"github.com/poiesic/dishpipe/core"
)

// RawRecord is one provider record as fetched, before transformation.
type RawRecord = json.RawMessage

// Adapter is implemented by each upstream provider.
type Adapter interface {
	// Source names the provider, used in logs and dish ids.
	Source() string

	// MinDelay is the minimum gap between requests to this provider.
	MinDelay() time.Duration

	// FetchBatch retrieves a batch of raw records. Providers with
	// quotas return what they gathered before hitting the limit.
	FetchBatch(ctx context.Context) ([]RawRecord, error)

	// Transform converts one raw record into a dish. Malformed input
	// yields a *TransformError.
	Transform(record RawRecord) (*core.Dish, error)
}

// sleepCtx waits for d or until the context is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
