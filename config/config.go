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

// Package config loads the pipeline configuration from a YAML file and
// fills in defaults for everything unset.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML values like "500ms" parse.
type Duration time.Duration

// UnmarshalYAML accepts either a duration string or nanoseconds.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		parsed, perr := time.ParseDuration(s)
		if perr != nil {
			return fmt.Errorf("invalid duration %q: %w", s, perr)
		}
		*d = Duration(parsed)
		return nil
	}
	var n int64
	if err := value.Decode(&n); err != nil {
		return fmt.Errorf("invalid duration value: %w", err)
	}
	*d = Duration(n)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// SourceConfig holds per-provider settings.
type SourceConfig struct {
	Enabled bool `yaml:"enabled"`

	// BaseURL overrides the provider endpoint, mainly for testing.
	BaseURL string `yaml:"base_url,omitempty"`

	// RateLimit overrides the minimum delay between requests.
	RateLimit Duration `yaml:"rate_limit,omitempty"`

	// Credentials. Which fields matter depends on the provider.
	APIKey string `yaml:"api_key,omitempty"`
	AppID  string `yaml:"app_id,omitempty"`
	AppKey string `yaml:"app_key,omitempty"`
}

// Config is the full pipeline configuration.
type Config struct {
	// DataDir is where the store, locks and side logs live.
	DataDir string `yaml:"data_dir"`

	// StorePath overrides the badger database location. Defaults to
	// DataDir/dishes.
	StorePath string `yaml:"store_path,omitempty"`

	ChunkSize  int      `yaml:"chunk_size"`
	BatchDelay Duration `yaml:"batch_delay"`

	// Denylist overrides the stock content filter keywords.
	Denylist []string `yaml:"denylist,omitempty"`

	Sources map[string]SourceConfig `yaml:"sources"`
}

// Default returns the stock configuration.
func Default() *Config {
	return &Config{
		DataDir:    defaultDataDir(),
		ChunkSize:  50,
		BatchDelay: Duration(2 * time.Second),
		Sources: map[string]SourceConfig{
			"themealdb":   {Enabled: true},
			"spoonacular": {Enabled: false},
			"edamam":      {Enabled: false},
			"recipepuppy": {Enabled: false},
		},
	}
}

// Load reads a YAML config file and merges it over the defaults. A
// missing file yields the defaults without error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for unusable values.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir must not be empty")
	}
	if c.ChunkSize < 1 {
		return fmt.Errorf("chunk_size must be at least 1 (got %d)", c.ChunkSize)
	}
	if c.BatchDelay < 0 {
		return fmt.Errorf("batch_delay must be non-negative (got %s)", c.BatchDelay.Std())
	}
	return nil
}

// Store returns the badger database path.
func (c *Config) Store() string {
	if c.StorePath != "" {
		return c.StorePath
	}
	return filepath.Join(c.DataDir, "dishes")
}

// LockPath returns the scrape run lock file path.
func (c *Config) LockPath() string {
	return filepath.Join(c.DataDir, "scrape.lock")
}

// ActivityLogPath returns the rolling activity journal path.
func (c *Config) ActivityLogPath() string {
	return filepath.Join(c.DataDir, "activity-log.json")
}

// FailedLogPath returns the rejected-candidate side log path.
func (c *Config) FailedLogPath() string {
	return filepath.Join(c.DataDir, "failed-recipes.json")
}

// Source returns the settings for a provider, zero-valued when absent.
func (c *Config) Source(name string) SourceConfig {
	return c.Sources[name]
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".dishpipe"
	}
	return filepath.Join(home, ".dishpipe")
}
