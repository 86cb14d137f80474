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

// Package testutils holds fixtures shared by the package tests.
package testutils

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/walteh/prdbackup/pkg/codec"
)

// 🧪 Header builds a header region whose date text yields the given tokens.
// The text is NUL-padded the way the game writes it.
func Header(month, day, year string) []byte {
	return HeaderText(fmt.Sprintf("%s/%s/%s%s", month, day, year, codec.DateMarker))
}

// HeaderText pads text with NULs up to the header size. Text longer than the
// header is kept as-is.
func HeaderText(text string) []byte {
	buf := []byte{0, 0, 0, 0}
	buf = append(buf, text...)
	for len(buf) < codec.HeaderSize {
		buf = append(buf, 0)
	}
	return buf
}

// Asset assembles a full asset: header, filler up to the payload offset, payload.
func Asset(header []byte, payload []byte) []byte {
	buf := bytes.Clone(header)
	for len(buf) < codec.PayloadOffset {
		buf = append(buf, 0xff)
	}
	return append(buf[:codec.PayloadOffset], payload...)
}

// Payload returns a recognizable JPEG-like byte stream.
func Payload(tag string) []byte {
	return append([]byte{0xff, 0xd8, 0xff, 0xe0}, []byte("payload:"+tag)...)
}

// WriteAsset writes a dated asset at path, creating parent directories.
func WriteAsset(t *testing.T, path, month, day, year string) []byte {
	t.Helper()
	data := Asset(Header(month, day, year), Payload(filepath.Base(path)))
	WriteFile(t, path, data)
	return data
}

// WriteFile writes data at path, creating parent directories.
func WriteFile(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755), "creating parent directories")
	require.NoError(t, os.WriteFile(path, data, 0o644), "writing %s", path)
}

// Context returns a context carrying a logger that writes to the test log.
func Context(t *testing.T) context.Context {
	logger := zerolog.New(zerolog.NewTestWriter(t)).Level(zerolog.DebugLevel)
	return logger.WithContext(context.Background())
}

// Snapshot maps every file under root (relative path) to its contents.
func Snapshot(t *testing.T, root string) map[string][]byte {
	t.Helper()
	out := map[string][]byte{}
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		out[filepath.ToSlash(rel)] = data
		return nil
	})
	require.NoError(t, err, "walking %s", root)
	return out
}
