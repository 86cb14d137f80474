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
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 📊 FileStatus represents what a run did to a file
type FileStatus int

const (
	StatusUnknown   FileStatus = iota
	StatusCopied               // Asset copied into the target
	StatusMoved                // Asset copied and its source removed
	StatusConverted            // Copied asset re-encoded as a JPEG
	StatusFailed               // Processing the file failed
)

// String returns a string representation of FileStatus
func (s FileStatus) String() string {
	switch s {
	case StatusCopied:
		return "copied"
	case StatusMoved:
		return "moved"
	case StatusConverted:
		return "converted"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// 📄 FileInfo contains what is known about one processed file
type FileInfo struct {
	Path     string     // Destination or output path
	Source   string     // Path the file was produced from
	Status   FileStatus // Current status
	Size     int64      // File size in bytes
	Checksum string     // Content hash, when verified
	Error    error      // Any error associated with this file
}

// 📈 Reporter tracks file status and reports progress
type Reporter interface {
	TrackFile(ctx context.Context, path string, info FileInfo)
	ListFiles(ctx context.Context) []FileInfo

	StartOperation(ctx context.Context, name string, total int)
	UpdateProgress(ctx context.Context, processed int)
	FinishOperation(ctx context.Context)
}

// 🔧 Manager is the in-memory Reporter used by a backup run
type Manager struct {
	formatter FileFormatter

	mu    sync.RWMutex
	order []string
	files map[string]FileInfo

	operation string
	total     int
	processed int
}

var _ Reporter = (*Manager)(nil)

// 🏭 New creates a new status manager
func New() *Manager {
	return &Manager{
		formatter: NewDefaultFileFormatter(),
		files:     make(map[string]FileInfo),
	}
}

// TrackFile records info for path. Tracking the same path again keeps its
// original position and replaces the info.
func (m *Manager) TrackFile(ctx context.Context, path string, info FileInfo) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if info.Path == "" {
		info.Path = path
	}
	if _, ok := m.files[path]; !ok {
		m.order = append(m.order, path)
	}
	m.files[path] = info

	msg := m.formatter.FormatFileOperation(path, info.Status)
	if info.Error != nil {
		msg = m.formatter.FormatError(info.Error)
	}
	zerolog.Ctx(ctx).Debug().
		Str("path", path).
		Str("source", info.Source).
		Stringer("status", info.Status).
		Msg(msg)
}

// ListFiles returns tracked files in the order they were first seen
func (m *Manager) ListFiles(ctx context.Context) []FileInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	files := make([]FileInfo, 0, len(m.order))
	for _, p := range m.order {
		files = append(files, m.files[p])
	}
	return files
}

func (m *Manager) StartOperation(ctx context.Context, name string, total int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.operation = name
	m.total = total
	m.processed = 0
	zerolog.Ctx(ctx).Info().
		Str("operation", name).
		Int("total", total).
		Msg(m.formatter.FormatProgress(0, total))
}

func (m *Manager) UpdateProgress(ctx context.Context, processed int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.processed = processed
	zerolog.Ctx(ctx).Debug().
		Str("operation", m.operation).
		Int("processed", processed).
		Int("total", m.total).
		Msg(m.formatter.FormatProgress(processed, m.total))
}

func (m *Manager) FinishOperation(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	zerolog.Ctx(ctx).Info().
		Str("operation", m.operation).
		Int("processed", m.processed).
		Int("total", m.total).
		Msg(m.formatter.FormatProgress(m.processed, m.total))
}

// Progress returns the name and counts of the latest operation
func (m *Manager) Progress() (operation string, processed, total int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.operation, m.processed, m.total
}

// 🔍 Checksum returns the hex SHA-256 of the file at path
func Checksum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errors.Errorf("opening file: %w", err)
	}
	defer f.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, f); err != nil {
		return "", errors.Errorf("hashing file: %w", err)
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}
