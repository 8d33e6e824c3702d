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

package ingestion

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/poiesic/dishpipe/core"
)

// FailedEntry is one rejected candidate with the reason it failed.
type FailedEntry struct {
	Recipe    *core.Dish `json:"recipe"`
	Reason    string     `json:"reason"`
	Timestamp time.Time  `json:"timestamp"`
}

// FailedLog is a durable JSON side log of rejected candidates. The file
// holds a single JSON array and survives process restarts, so a later
// run can replay its contents.
type FailedLog struct {
	path string
	mu   sync.Mutex
}

// NewFailedLog creates a side log at path. The parent directory is
// created if needed.
func NewFailedLog(path string) (*FailedLog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return &FailedLog{path: path}, nil
}

// Path returns the log's file path.
func (f *FailedLog) Path() string {
	return f.path
}

// Append records a rejected candidate.
func (f *FailedLog) Append(dish *core.Dish, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := readFailedEntries(f.path)
	if err != nil {
		return err
	}
	entries = append(entries, FailedEntry{
		Recipe:    dish,
		Reason:    reason,
		Timestamp: time.Now().UTC(),
	})

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(f.path, data, 0o644)
}

// ReadAll returns every entry in the log.
func (f *FailedLog) ReadAll() ([]FailedEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return readFailedEntries(f.path)
}

// Clear truncates the log.
func (f *FailedLog) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	err := os.Remove(f.path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// ReadFailedLog reads a side log file directly, without a FailedLog.
// Used when replaying a log produced by an earlier run.
func ReadFailedLog(path string) ([]FailedEntry, error) {
	return readFailedEntries(path)
}

func readFailedEntries(path string) ([]FailedEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}
	var entries []FailedEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
