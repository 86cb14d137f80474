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

package codec

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/google/renameio/v2"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 📐 Layout of a PRD photo asset
const (
	// HeaderSize is the length of the text block holding the capture date.
	HeaderSize = 54
	// PayloadOffset is where the embedded JPEG stream starts.
	PayloadOffset = 300
	// DateMarker terminates the date-bearing prefix of the header text.
	DateMarker = "\x04 PHOTO - "
	// OutputExt is appended to every converted file name.
	OutputExt = ".jpeg"

	dateSeparator = "/"
)

var (
	// ErrInvalidHeader means the header region is not valid UTF-8.
	ErrInvalidHeader = errors.Base("header is not valid UTF-8")
	// ErrMissingMarker means the header text never reaches DateMarker.
	ErrMissingMarker = errors.Base("header has no date marker")
	// ErrMalformedDate means the text before the marker is not a month/day/year triple.
	ErrMalformedDate = errors.Base("header date is malformed")
	// ErrShortAsset means the asset ends before PayloadOffset.
	ErrShortAsset = errors.Base("asset is shorter than the payload offset")
)

// 📅 CaptureMetadata holds the date tokens found in an asset header.
// The fields are opaque strings; no calendar validation is done.
type CaptureMetadata struct {
	Year  string `json:"year"`
	Month string `json:"month"`
	Day   string `json:"day"`
}

// Stamp returns the date tokens concatenated as year, month, day.
func (m CaptureMetadata) Stamp() string {
	return m.Year + m.Month + m.Day
}

// 🔍 ExtractMetadata reads the header of the asset at path and returns its capture date.
func ExtractMetadata(path string) (CaptureMetadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return CaptureMetadata{}, errors.Errorf("opening asset: %w", err)
	}
	defer f.Close()

	buf := make([]byte, HeaderSize)
	n, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return CaptureMetadata{}, errors.Errorf("reading header: %w", err)
	}

	meta, err := ParseHeader(buf[:n])
	if err != nil {
		return CaptureMetadata{}, errors.Errorf("parsing header of %s: %w", filepath.Base(path), err)
	}
	return meta, nil
}

// ParseHeader decodes the capture date from raw header bytes.
func ParseHeader(header []byte) (CaptureMetadata, error) {
	if !utf8.Valid(header) {
		return CaptureMetadata{}, errors.WithStack(ErrInvalidHeader)
	}

	text := strings.ReplaceAll(string(header), "\x00", "")

	prefix, _, found := strings.Cut(text, DateMarker)
	if !found {
		return CaptureMetadata{}, errors.WithStack(ErrMissingMarker)
	}

	segments := strings.Split(prefix, dateSeparator)
	if len(segments) < 3 {
		return CaptureMetadata{}, errors.Errorf("%w: want 3 segments, got %d", ErrMalformedDate, len(segments))
	}

	monthTokens := strings.Fields(segments[0])
	if len(monthTokens) == 0 {
		return CaptureMetadata{}, errors.Errorf("%w: no month token", ErrMalformedDate)
	}
	yearTokens := strings.Fields(segments[2])
	if len(yearTokens) == 0 {
		return CaptureMetadata{}, errors.Errorf("%w: no year token", ErrMalformedDate)
	}
	if segments[1] == "" {
		return CaptureMetadata{}, errors.Errorf("%w: empty day", ErrMalformedDate)
	}

	return CaptureMetadata{
		Year:  yearTokens[0],
		Month: monthTokens[len(monthTokens)-1],
		Day:   segments[1],
	}, nil
}

// OutputName composes the file name of the converted image for an asset named name.
func OutputName(meta CaptureMetadata, name string) string {
	return meta.Stamp() + "_" + name + OutputExt
}

// 🖼️ Reencode writes the payload of the asset at path to a sibling JPEG file
// named after meta and returns the path of the new file.
func Reencode(path string, meta CaptureMetadata) (string, error) {
	src, err := os.Open(path)
	if err != nil {
		return "", errors.Errorf("opening asset: %w", err)
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return "", errors.Errorf("stat asset: %w", err)
	}
	if info.Size() < PayloadOffset {
		return "", errors.Errorf("%w: %s is %d bytes, payload starts at %d", ErrShortAsset, filepath.Base(path), info.Size(), PayloadOffset)
	}

	if _, err := src.Seek(PayloadOffset, io.SeekStart); err != nil {
		return "", errors.Errorf("seeking to payload: %w", err)
	}

	out := filepath.Join(filepath.Dir(path), OutputName(meta, filepath.Base(path)))

	pending, err := renameio.NewPendingFile(out, renameio.WithPermissions(0o644))
	if err != nil {
		return "", errors.Errorf("creating output file: %w", err)
	}
	defer pending.Cleanup()

	if _, err := io.Copy(pending, src); err != nil {
		return "", errors.Errorf("writing payload: %w", err)
	}

	if err := pending.CloseAtomicallyReplace(); err != nil {
		return "", errors.Errorf("replacing output file: %w", err)
	}

	return out, nil
}

// 🔄 Convert extracts the capture date of the asset at path and writes its payload
// next to it. It returns the path of the converted image.
func Convert(ctx context.Context, path string) (string, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("path", path).Msg("converting asset to jpeg")

	meta, err := ExtractMetadata(path)
	if err != nil {
		return "", errors.Errorf("extracting metadata: %w", err)
	}

	out, err := Reencode(path, meta)
	if err != nil {
		return "", errors.Errorf("reencoding %s: %w", filepath.Base(path), err)
	}

	logger.Info().
		Str("asset", filepath.Base(path)).
		Str("output", filepath.Base(out)).
		Str("stamp", meta.Stamp()).
		Msg("converted asset")

	return out, nil
}
