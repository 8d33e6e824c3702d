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

// Package activity keeps a small rolling journal of pipeline events on
// disk. Entries are append-only from the caller's point of view but the
// file itself is rewritten on every write, newest first, capped at a
// fixed number of entries. Logging is best effort: a broken journal must
// never fail an upload, so errors are reported to the structured logger
// and swallowed.
package activity

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Kind classifies a journal entry.
type Kind string

const (
	KindScrape    Kind = "scrape"
	KindDuplicate Kind = "duplicate"
	KindError     Kind = "error"
	KindFilter    Kind = "filter"
	KindAPI       Kind = "api"
)

// maxEntries bounds the journal file. Older entries fall off the end.
const maxEntries = 100

// Entry is a single journal record.
type Entry struct {
	ID        string         `json:"id"`
	Kind      Kind           `json:"kind"`
	Message   string         `json:"message"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Logger appends entries to a JSON journal file.
type Logger struct {
	path    string
	logger  *slog.Logger
	entropy *ulid.MonotonicEntropy

	mu sync.Mutex
}

// Option configures a Logger.
type Option func(*Logger)

// WithLogger sets the structured logger used to report journal failures.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Logger) {
		l.logger = logger
	}
}

// NewLogger creates a journal backed by the given file path. The parent
// directory is created if needed.
func NewLogger(path string, opts ...Option) (*Logger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	l := &Logger{
		path:    path,
		logger:  slog.Default(),
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Log records an entry. It never returns an error; failures are logged
// and dropped so the journal can never abort the pipeline.
func (l *Logger) Log(ctx context.Context, kind Kind, message string, metadata map[string]any) {
	if ctx.Err() != nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	entries, err := l.readLocked()
	if err != nil {
		l.logger.Warn("activity journal unreadable, starting fresh",
			slog.String("path", l.path), slog.Any("error", err))
		entries = nil
	}

	entry := Entry{
		ID:        ulid.MustNew(ulid.Now(), l.entropy).String(),
		Kind:      kind,
		Message:   message,
		Metadata:  metadata,
		Timestamp: time.Now().UTC(),
	}

	entries = append([]Entry{entry}, entries...)
	if len(entries) > maxEntries {
		entries = entries[:maxEntries]
	}

	if err := l.writeLocked(entries); err != nil {
		l.logger.Warn("failed to write activity journal",
			slog.String("path", l.path), slog.Any("error", err))
	}
}

// Recent returns up to n journal entries, newest first.
func (l *Logger) Recent(n int) ([]Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries, err := l.readLocked()
	if err != nil {
		return nil, err
	}
	if n > 0 && len(entries) > n {
		entries = entries[:n]
	}
	return entries, nil
}

func (l *Logger) readLocked() ([]Entry, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (l *Logger) writeLocked(entries []Entry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(l.path, data, 0o644)
}
