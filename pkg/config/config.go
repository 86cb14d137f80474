// Copyright 2025 walteh LLC
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

package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// DefaultPrefix mirrors locator.DefaultPrefix so config stays a leaf package.
const DefaultPrefix = "PRD"

// 🔌 Parser is the interface for config parsers
type Parser interface {
	// 📝 Parse parses the config from bytes
	Parse(ctx context.Context, data []byte) (*Config, error)

	// 🔍 CanParse checks if this parser can handle the given file
	CanParse(filename string) bool
}

var (
	// 🗺️ parsers is a list of available parsers
	parsers []Parser
)

// 📝 Register registers a parser
func Register(p Parser) {
	parsers = append(parsers, p)
}

// 🎯 GetParser returns a parser that can handle the given file
func GetParser(filename string) Parser {
	for _, p := range parsers {
		if p.CanParse(filename) {
			return p
		}
	}
	return nil
}

// 📚 Config represents the complete configuration
type Config struct {
	Source         string   `json:"source" yaml:"source"`
	Target         string   `json:"target" yaml:"target"`
	Move           bool     `json:"move" yaml:"move"`
	Convert        bool     `json:"convert" yaml:"convert"`
	Prefix         string   `json:"prefix" yaml:"prefix"`
	IgnorePatterns []string `json:"ignore_patterns" yaml:"ignore_patterns"`
	VerifyChecksum bool     `json:"verify_checksum" yaml:"verify_checksum"`
	Lock           bool     `json:"lock" yaml:"lock"`
}

// 🏭 Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{
		Prefix: DefaultPrefix,
		Lock:   true,
	}
}

// 🎯 Load loads the configuration from a file
func Load(ctx context.Context, path string) (*Config, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("path", path).Msg("loading configuration")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading config file: %w", err)
	}

	p := GetParser(path)
	if p == nil {
		return nil, errors.Errorf("unsupported config file extension %q", filepath.Ext(path))
	}

	cfg, err := p.Parse(ctx, data)
	if err != nil {
		return nil, errors.Errorf("parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// 🔍 Validate checks if the configuration is valid and normalizes paths
func (cfg *Config) Validate() error {
	cfg.Prefix = strings.TrimSpace(cfg.Prefix)
	if cfg.Prefix == "" {
		cfg.Prefix = DefaultPrefix
	}
	if strings.ContainsRune(cfg.Prefix, filepath.Separator) {
		return errors.Errorf("prefix %q must not contain a path separator", cfg.Prefix)
	}

	for i, p := range cfg.IgnorePatterns {
		if !doublestar.ValidatePattern(p) {
			return errors.Errorf("ignore_patterns[%d]: invalid pattern %q", i, p)
		}
	}

	if cfg.Source != "" {
		cfg.Source = filepath.Clean(cfg.Source)
	}
	if cfg.Target != "" {
		cfg.Target = filepath.Clean(cfg.Target)
	}
	return nil
}

// 📝 String returns a string representation of the config
func (cfg *Config) String() string {
	mode := "copy"
	if cfg.Move {
		mode = "move"
	}
	if cfg.Convert {
		mode += "+convert"
	}
	return fmt.Sprintf("%s/%s* -> %s (%s)", cfg.Source, cfg.Prefix, cfg.Target, mode)
}
