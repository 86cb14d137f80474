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

package status

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"
)

func testContext(t *testing.T) context.Context {
	return zerolog.New(zerolog.NewTestWriter(t)).WithContext(context.Background())
}

func TestManagerTracksInOrder(t *testing.T) {
	ctx := testContext(t)
	mgr := New()

	mgr.TrackFile(ctx, "/dst/PRD2", FileInfo{Source: "/src/PRD2", Status: StatusCopied, Size: 2})
	mgr.TrackFile(ctx, "/dst/PRD1", FileInfo{Source: "/src/PRD1", Status: StatusCopied, Size: 1})
	mgr.TrackFile(ctx, "/dst/PRD2", FileInfo{Source: "/src/PRD2", Status: StatusMoved, Size: 2})

	files := mgr.ListFiles(ctx)
	require.Len(t, files, 2)
	assert.Equal(t, "/dst/PRD2", files[0].Path, "first tracked file should stay first")
	assert.Equal(t, StatusMoved, files[0].Status, "re-tracking should replace the info")
	assert.Equal(t, "/dst/PRD1", files[1].Path)
	assert.Equal(t, "/src/PRD1", files[1].Source)
}

func TestManagerProgress(t *testing.T) {
	ctx := testContext(t)
	mgr := New()

	mgr.StartOperation(ctx, "copy", 3)
	operation, processed, total := mgr.Progress()
	assert.Equal(t, "copy", operation)
	assert.Equal(t, 0, processed)
	assert.Equal(t, 3, total)

	mgr.UpdateProgress(ctx, 2)
	_, processed, _ = mgr.Progress()
	assert.Equal(t, 2, processed)

	mgr.FinishOperation(ctx)
	_, processed, total = mgr.Progress()
	assert.Equal(t, 2, processed, "finishing should not fake completion")
	assert.Equal(t, 3, total)
}

func TestChecksum(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "PRD1")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	sum := sha256.Sum256([]byte("hello"))
	got, err := Checksum(path)
	require.NoError(t, err)
	assert.Equal(t, hex.EncodeToString(sum[:]), got)

	_, err = Checksum(filepath.Join(dir, "missing"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFileStatusString(t *testing.T) {
	assert.Equal(t, "copied", StatusCopied.String())
	assert.Equal(t, "moved", StatusMoved.String())
	assert.Equal(t, "converted", StatusConverted.String())
	assert.Equal(t, "failed", StatusFailed.String())
	assert.Equal(t, "unknown", StatusUnknown.String())
}

// 🧪 TestDefaultFileFormatter tests the default file formatter implementation
func TestDefaultFileFormatter(t *testing.T) {
	f := NewDefaultFileFormatter()

	tests := []struct {
		name   string
		path   string
		status FileStatus
		want   string
	}{
		{name: "copied", path: "/dst/PRD1", status: StatusCopied, want: "✨ Copied PRD1"},
		{name: "moved", path: "/dst/PRD1", status: StatusMoved, want: "🚚 Moved PRD1"},
		{name: "converted", path: "/dst/2024_PRD1.jpeg", status: StatusConverted, want: "🖼️  Converted 2024_PRD1.jpeg"},
		{name: "failed", path: "PRD1", status: StatusFailed, want: "❌ Failed PRD1"},
		{name: "unknown", path: "PRD1", status: StatusUnknown, want: "👀 Seen PRD1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.FormatFileOperation(tt.path, tt.status))
		})
	}
}

func TestFormatProgress(t *testing.T) {
	f := NewDefaultFileFormatter()

	assert.Equal(t, "⏳ Progress: 1/4 (25%)", f.FormatProgress(1, 4))
	assert.Equal(t, "✅ Progress: 4/4 (100%)", f.FormatProgress(4, 4))
	assert.Equal(t, "✅ Progress: 0/0 (0%)", f.FormatProgress(0, 0))
}

func TestFormatError(t *testing.T) {
	f := NewDefaultFileFormatter()

	assert.Equal(t, "", f.FormatError(nil))
	assert.Equal(t, "❌ Error: boom", f.FormatError(errors.New("boom")))
}
