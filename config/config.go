// seehuhn.de/go/svgfonts - embed fonts into SVG documents
// Copyright (C) 2025  Jochen Voss <voss@seehuhn.de>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package config reads the optional svgfonts configuration file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// envCacheDir overrides the configured cache directory when set.
const envCacheDir = "SVGFONTS_CACHE_DIR"

// A Duration is a [time.Duration] which reads from YAML in the format
// accepted by [time.ParseDuration], for example "30s" or "24h".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// A ConfigError describes a problem with the configuration file.
type ConfigError struct {
	Field   string
	Message string
	Err     error
}

func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config error in %q: %s", e.Field, e.Message)
	}
	return "config error: " + e.Message
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Config holds the user-level defaults for font embedding.  Command
// line flags take precedence over these values.
type Config struct {
	// CacheDir is the directory for the on-disk font cache.  An
	// empty string disables caching.
	CacheDir string `yaml:"cache-dir"`

	// CacheTTL is the maximum age of cache entries.  Zero means
	// entries never expire.
	CacheTTL Duration `yaml:"cache-ttl"`

	// Source selects the font source preference: "auto", "google",
	// "fontget" or "local".
	Source string `yaml:"source"`

	// Timeout bounds a whole embedding run.  Zero means no limit.
	Timeout Duration `yaml:"timeout"`

	// MaxConcurrent is the number of fonts resolved in parallel.
	MaxConcurrent int `yaml:"max-concurrent"`

	// FontDirs replaces the platform default system font
	// directories when non-empty.
	FontDirs []string `yaml:"font-dirs"`

	// GoogleURL overrides the Google Fonts endpoint, for testing.
	GoogleURL string `yaml:"google-url"`

	// FontGetURL overrides the FontGet registry endpoint.
	FontGetURL string `yaml:"fontget-url"`
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	cfg := &Config{
		Source:        "auto",
		MaxConcurrent: 4,
	}
	if dir, err := os.UserCacheDir(); err == nil {
		cfg.CacheDir = filepath.Join(dir, "svgfonts")
	}
	cfg.applyEnv()
	return cfg
}

// Load reads a configuration file.  Missing fields keep their
// defaults; unknown fields are an error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{
			Message: fmt.Sprintf("cannot read %s", path),
			Err:     err,
		}
	}
	return Parse(data)
}

// Parse decodes configuration data.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	err := dec.Decode(cfg)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, &ConfigError{Message: "invalid YAML", Err: err}
	}
	cfg.applyEnv()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Config) applyEnv() {
	if dir := os.Getenv(envCacheDir); dir != "" {
		cfg.CacheDir = dir
	}
}

func (cfg *Config) validate() error {
	switch cfg.Source {
	case "", "auto", "google", "fontget", "local":
		// ok
	default:
		return &ConfigError{
			Field:   "source",
			Message: fmt.Sprintf("unknown font source %q", cfg.Source),
		}
	}
	if cfg.MaxConcurrent < 0 {
		return &ConfigError{
			Field:   "max-concurrent",
			Message: "must not be negative",
		}
	}
	if cfg.CacheTTL < 0 {
		return &ConfigError{
			Field:   "cache-ttl",
			Message: "must not be negative",
		}
	}
	if cfg.Timeout < 0 {
		return &ConfigError{
			Field:   "timeout",
			Message: "must not be negative",
		}
	}
	return nil
}
