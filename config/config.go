// Copyright 2025 Binaek Sarkar
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads the engine's redwire.toml: workers, request
// timeouts, the findings output path, and OTel export settings.
package config

import (
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"

	"github.com/redwire/redwire/constants"
)

// ErrConfigFileNotFound is returned when no redwire.toml is found at or
// above root.
var ErrConfigFileNotFound = errors.New("config file not found")

// Config is the engine-level configuration, independent of any one pack.
type Config struct {
	Workers        int           `toml:"workers,omitempty"`
	RequestTimeout time.Duration `toml:"request_timeout,omitempty"`
	OutputPath     string        `toml:"output_path,omitempty"`
	Otel           OtelConfig    `toml:"otel,omitempty"`

	// Location is the directory the config file was found in, not
	// part of the file's own contents.
	Location string `toml:"-"`
}

// OtelConfig controls trace export.
type OtelConfig struct {
	Enabled  bool   `toml:"enabled,omitempty"`
	Endpoint string `toml:"endpoint,omitempty"`
}

// Default returns the configuration used when no redwire.toml is present.
func Default() *Config {
	return &Config{
		Workers:        runtime.NumCPU(),
		RequestTimeout: 10 * time.Second,
		OutputPath:     "findings.jsonl",
	}
}

// Load reads root/redwire.toml (or walks up from root looking for one,
// mirroring the teacher's pack-file lookup), filling in defaults for any
// field the file leaves unset. A missing config file is not an error:
// Load falls back to Default().
func Load(root string) (*Config, error) {
	path, err := locate(root)
	if err != nil {
		if errors.Is(err, ErrConfigFileNotFound) {
			return Default(), nil
		}
		return nil, err
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config file")
	}

	cfg := Default()
	if err := toml.Unmarshal(b, cfg); err != nil {
		return nil, errors.Wrap(err, "parse config file")
	}
	cfg.Location = filepath.Dir(path)
	return cfg, nil
}

func locate(root string) (string, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return "", errors.Wrap(err, "absolute path")
	}

	info, err := os.Stat(root)
	if err != nil {
		return "", errors.Wrap(err, "locate config file")
	}
	if !info.IsDir() {
		root = filepath.Dir(root)
	}

	for {
		candidate := filepath.Join(root, constants.ConfigFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		parent := filepath.Dir(root)
		if parent == root {
			return "", ErrConfigFileNotFound
		}
		root = parent
	}
}
