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

// Package locator finds photo assets under a source tree.
package locator

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// DefaultPrefix is the file name prefix the game gives every photo asset.
const DefaultPrefix = "PRD"

// 📸 Asset is a candidate photo file found under a source root.
type Asset struct {
	Path string // Path of the file, rooted like the walked source
	Name string // Bare file name
	Size int64  // Size in bytes at scan time
}

// 🔎 Locator matches assets by file name prefix, honoring ignore globs.
type Locator struct {
	prefix string
	ignore []string
}

// 🏭 New creates a locator. Ignore patterns are doublestar globs matched against
// the slash-separated path relative to the walked root.
func New(prefix string, ignorePatterns []string) (*Locator, error) {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	for _, p := range ignorePatterns {
		if !doublestar.ValidatePattern(p) {
			return nil, errors.Errorf("invalid ignore pattern %q", p)
		}
	}
	return &Locator{
		prefix: prefix,
		ignore: ignorePatterns,
	}, nil
}

// Default returns a locator for DefaultPrefix without ignore patterns.
func Default() *Locator {
	return &Locator{prefix: DefaultPrefix}
}

// Prefix returns the file name prefix assets must carry.
func (l *Locator) Prefix() string {
	return l.prefix
}

// Matches reports whether a bare file name carries the asset prefix.
func (l *Locator) Matches(name string) bool {
	return strings.HasPrefix(name, l.prefix)
}

// 📋 Locate walks root at any depth and returns every asset in traversal order.
// Entries that cannot be read are skipped; only a root that cannot be walked at
// all is an error.
func (l *Locator) Locate(ctx context.Context, root string) ([]Asset, error) {
	var assets []Asset
	err := l.walk(ctx, root, func(a Asset) bool {
		assets = append(assets, a)
		return true
	})
	if err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Debug().
		Str("root", root).
		Int("assets", len(assets)).
		Msg("located assets")

	return assets, nil
}

// ⚡ HasAny reports whether root holds at least one asset, stopping at the first.
func (l *Locator) HasAny(ctx context.Context, root string) (bool, error) {
	found := false
	err := l.walk(ctx, root, func(Asset) bool {
		found = true
		return false
	})
	if err != nil {
		return false, err
	}
	return found, nil
}

// walk calls visit for each asset until visit returns false.
func (l *Locator) walk(ctx context.Context, root string, visit func(Asset) bool) error {
	logger := zerolog.Ctx(ctx)

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		if walkErr != nil {
			if path == root {
				return walkErr
			}
			logger.Debug().Err(walkErr).Str("path", path).Msg("skipping unreadable entry")
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if path != root && l.ignored(root, path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() || !l.Matches(d.Name()) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			logger.Debug().Err(err).Str("path", path).Msg("skipping asset without stat")
			return nil
		}

		if !visit(Asset{Path: path, Name: d.Name(), Size: info.Size()}) {
			return filepath.SkipAll
		}
		return nil
	})
	if err != nil {
		return errors.Errorf("walking %s: %w", root, err)
	}
	return nil
}

func (l *Locator) ignored(root, path string) bool {
	if len(l.ignore) == 0 {
		return false
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, pattern := range l.ignore {
		matched, err := doublestar.Match(pattern, rel)
		if err != nil {
			continue
		}
		if matched {
			return true
		}
	}
	return false
}
