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

package codec_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/prdbackup/pkg/codec"
	"github.com/walteh/prdbackup/pkg/testutils"
)

func TestParseHeader(t *testing.T) {
	tests := []struct {
		name    string
		header  []byte
		want    codec.CaptureMetadata
		wantErr error
	}{
		{
			name:   "simple_date",
			header: testutils.Header("09", "29", "2024"),
			want:   codec.CaptureMetadata{Year: "2024", Month: "09", Day: "29"},
		},
		{
			name:   "month_is_last_token_year_is_first_token",
			header: testutils.HeaderText("Valentine 09/29/2024 14:03" + codec.DateMarker),
			want:   codec.CaptureMetadata{Year: "2024", Month: "09", Day: "29"},
		},
		{
			name:   "nul_interleaved_text",
			header: []byte("\x000\x009\x00/\x002\x009\x00/\x002\x004\x00 \x04 PHOTO - \x00"),
			want:   codec.CaptureMetadata{Year: "24", Month: "09", Day: "29"},
		},
		{
			name:   "tokens_are_not_validated",
			header: testutils.Header("13", "99", "abcd"),
			want:   codec.CaptureMetadata{Year: "abcd", Month: "13", Day: "99"},
		},
		{
			name:   "text_after_marker_is_ignored",
			header: testutils.HeaderText("01/02/2003" + codec.DateMarker + "7/8/9"),
			want:   codec.CaptureMetadata{Year: "2003", Month: "01", Day: "02"},
		},
		{
			name:    "invalid_utf8",
			header:  []byte{0xc3, 0x28, '/', '/', 0x04},
			wantErr: codec.ErrInvalidHeader,
		},
		{
			name:    "missing_marker",
			header:  testutils.HeaderText("09/29/2024 PHOTO"),
			wantErr: codec.ErrMissingMarker,
		},
		{
			name:    "too_few_segments",
			header:  testutils.HeaderText("09/29" + codec.DateMarker),
			wantErr: codec.ErrMalformedDate,
		},
		{
			name:    "no_month_token",
			header:  testutils.HeaderText("  /29/2024" + codec.DateMarker),
			wantErr: codec.ErrMalformedDate,
		},
		{
			name:    "no_year_token",
			header:  testutils.HeaderText("09/29/ " + codec.DateMarker),
			wantErr: codec.ErrMalformedDate,
		},
		{
			name:    "empty_day",
			header:  testutils.HeaderText("09//2024" + codec.DateMarker),
			wantErr: codec.ErrMalformedDate,
		},
		{
			name:    "empty_header",
			header:  nil,
			wantErr: codec.ErrMissingMarker,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := codec.ParseHeader(tt.header)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractMetadata(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "PRDR34088256_1")
	testutils.WriteAsset(t, path, "09", "29", "2024")

	first, err := codec.ExtractMetadata(path)
	require.NoError(t, err)
	second, err := codec.ExtractMetadata(path)
	require.NoError(t, err)

	assert.Equal(t, codec.CaptureMetadata{Year: "2024", Month: "09", Day: "29"}, first)
	assert.Equal(t, first, second, "extraction should be repeatable")
}

func TestExtractMetadataReadsOnlyHeaderRegion(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "PRDlate")

	// The marker sits past the header region, so it must not be seen.
	header := make([]byte, codec.HeaderSize)
	data := append(header, []byte("09/29/2024"+codec.DateMarker)...)
	testutils.WriteFile(t, path, data)

	_, err := codec.ExtractMetadata(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, codec.ErrMissingMarker)
}

func TestExtractMetadataMissingFile(t *testing.T) {
	_, err := codec.ExtractMetadata(filepath.Join(t.TempDir(), "PRDnope"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestOutputName(t *testing.T) {
	meta := codec.CaptureMetadata{Year: "2024", Month: "09", Day: "29"}
	assert.Equal(t, "20240929_PRDR34088256_1.jpeg", codec.OutputName(meta, "PRDR34088256_1"))
	assert.Equal(t, "20240929", meta.Stamp())
}

func TestReencode(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "PRDR34088256_1")
	data := testutils.WriteAsset(t, path, "09", "29", "2024")

	meta, err := codec.ExtractMetadata(path)
	require.NoError(t, err)

	out, err := codec.Reencode(path, meta)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "20240929_PRDR34088256_1.jpeg"), out)

	got, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, data[codec.PayloadOffset:], got, "payload should be copied verbatim")

	original, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, data, original, "source asset should be untouched")
}

func TestReencodeShortAsset(t *testing.T) {
	tests := []struct {
		name string
		size int
	}{
		{name: "header_only", size: codec.HeaderSize},
		{name: "one_byte_short", size: codec.PayloadOffset - 1},
		{name: "empty", size: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, "PRDshort")
			testutils.WriteFile(t, path, make([]byte, tt.size))

			meta := codec.CaptureMetadata{Year: "2024", Month: "09", Day: "29"}
			_, err := codec.Reencode(path, meta)
			require.Error(t, err)
			assert.ErrorIs(t, err, codec.ErrShortAsset)

			entries, err := os.ReadDir(dir)
			require.NoError(t, err)
			assert.Len(t, entries, 1, "no output file should be created")
		})
	}
}

func TestReencodeEmptyPayload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "PRDexact")
	data := testutils.Asset(testutils.Header("09", "29", "2024"), nil)
	require.Len(t, data, codec.PayloadOffset)
	testutils.WriteFile(t, path, data)

	meta, err := codec.ExtractMetadata(path)
	require.NoError(t, err)

	out, err := codec.Reencode(path, meta)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "20240929_PRDexact.jpeg"), out)

	got, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Empty(t, got, "payload of an asset ending at the offset is empty")
}

func TestConvert(t *testing.T) {
	ctx := testutils.Context(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "PRDR34088256_1")
	data := testutils.WriteAsset(t, path, "09", "29", "2024")

	out, err := codec.Convert(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, "20240929_PRDR34088256_1.jpeg", filepath.Base(out))
	assert.Equal(t, dir, filepath.Dir(out), "output should sit next to the asset")

	got, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, data[codec.PayloadOffset:], got)
}

func TestConvertMalformedAsset(t *testing.T) {
	ctx := testutils.Context(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "PRDbroken")
	testutils.WriteFile(t, path, testutils.Asset(testutils.HeaderText("no date here"), testutils.Payload("x")))

	_, err := codec.Convert(ctx, path)
	require.Error(t, err)
	assert.ErrorIs(t, err, codec.ErrMissingMarker)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
