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

package locator_test

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/prdbackup/pkg/locator"
	"github.com/walteh/prdbackup/pkg/testutils"
)

func names(assets []locator.Asset) []string {
	out := make([]string, 0, len(assets))
	for _, a := range assets {
		out = append(out, a.Name)
	}
	sort.Strings(out)
	return out
}

func TestLocate(t *testing.T) {
	ctx := testutils.Context(t)
	root := t.TempDir()

	testutils.WriteFile(t, filepath.Join(root, "PRDR1"), []byte("a"))
	testutils.WriteFile(t, filepath.Join(root, "nested", "deeper", "PRDR2"), []byte("bb"))
	testutils.WriteFile(t, filepath.Join(root, "nested", "readme.txt"), []byte("x"))
	testutils.WriteFile(t, filepath.Join(root, "xPRDR3"), []byte("x"))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "PRDdir"), 0o755))

	assets, err := locator.Default().Locate(ctx, root)
	require.NoError(t, err)
	assert.Equal(t, []string{"PRDR1", "PRDR2"}, names(assets))

	for _, a := range assets {
		assert.Equal(t, a.Name, filepath.Base(a.Path))
		info, err := os.Stat(a.Path)
		require.NoError(t, err)
		assert.Equal(t, info.Size(), a.Size)
	}
}

func TestLocateDescendsIntoPrefixedDirectories(t *testing.T) {
	ctx := testutils.Context(t)
	root := t.TempDir()
	testutils.WriteFile(t, filepath.Join(root, "PRDalbum", "PRDR9"), []byte("a"))

	assets, err := locator.Default().Locate(ctx, root)
	require.NoError(t, err)
	assert.Equal(t, []string{"PRDR9"}, names(assets), "directories are never assets")
}

func TestLocateIgnorePatterns(t *testing.T) {
	ctx := testutils.Context(t)
	root := t.TempDir()
	testutils.WriteFile(t, filepath.Join(root, "keep", "PRDR1"), []byte("a"))
	testutils.WriteFile(t, filepath.Join(root, "trash", "PRDR2"), []byte("a"))
	testutils.WriteFile(t, filepath.Join(root, "keep", "PRDR3.bak"), []byte("a"))

	loc, err := locator.New("", []string{"trash", "**/*.bak"})
	require.NoError(t, err)
	assert.Equal(t, locator.DefaultPrefix, loc.Prefix())

	assets, err := loc.Locate(ctx, root)
	require.NoError(t, err)
	assert.Equal(t, []string{"PRDR1"}, names(assets))
}

func TestLocateCustomPrefix(t *testing.T) {
	ctx := testutils.Context(t)
	root := t.TempDir()
	testutils.WriteFile(t, filepath.Join(root, "PGTA1"), []byte("a"))
	testutils.WriteFile(t, filepath.Join(root, "PRDR1"), []byte("a"))

	loc, err := locator.New("PGTA", nil)
	require.NoError(t, err)

	assets, err := loc.Locate(ctx, root)
	require.NoError(t, err)
	assert.Equal(t, []string{"PGTA1"}, names(assets))
}

func TestNewRejectsInvalidPattern(t *testing.T) {
	_, err := locator.New("PRD", []string{"[unclosed"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid ignore pattern")
}

func TestLocateMissingRoot(t *testing.T) {
	ctx := testutils.Context(t)
	_, err := locator.Default().Locate(ctx, filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLocateSkipsUnreadableSubtree(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for root")
	}
	ctx := testutils.Context(t)
	root := t.TempDir()
	testutils.WriteFile(t, filepath.Join(root, "PRDR1"), []byte("a"))
	locked := filepath.Join(root, "locked")
	testutils.WriteFile(t, filepath.Join(locked, "PRDR2"), []byte("a"))
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	assets, err := locator.Default().Locate(ctx, root)
	require.NoError(t, err)
	assert.Equal(t, []string{"PRDR1"}, names(assets))
}

func TestLocateCancelled(t *testing.T) {
	root := t.TempDir()
	testutils.WriteFile(t, filepath.Join(root, "PRDR1"), []byte("a"))

	ctx, cancel := context.WithCancel(testutils.Context(t))
	cancel()

	_, err := locator.Default().Locate(ctx, root)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHasAny(t *testing.T) {
	tests := []struct {
		name  string
		files []string
		want  bool
	}{
		{name: "empty", want: false},
		{name: "no_match", files: []string{"a.txt", "sub/b.jpeg"}, want: false},
		{name: "nested_match", files: []string{"a.txt", "sub/deep/PRDR1"}, want: true},
		{name: "many_matches", files: []string{"PRDR1", "PRDR2", "sub/PRDR3"}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := testutils.Context(t)
			root := t.TempDir()
			for _, f := range tt.files {
				testutils.WriteFile(t, filepath.Join(root, filepath.FromSlash(f)), []byte("x"))
			}

			got, err := locator.Default().HasAny(ctx, root)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHasAnyMissingRoot(t *testing.T) {
	ctx := testutils.Context(t)
	_, err := locator.Default().HasAny(ctx, filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}
