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

// Package transfer copies located assets into a flat target directory.
package transfer

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"
	"github.com/rs/zerolog"
	"github.com/walteh/prdbackup/pkg/locator"
	"github.com/walteh/prdbackup/pkg/status"
	"gitlab.com/tozd/go/errors"
)

// Replaceable for tests that need a copy, stat or delete to misbehave.
var (
	copyFunc   = copyFile
	statFunc   = os.Stat
	removeFunc = os.Remove
)

// ErrIntegrity is matched by every IntegrityError.
var ErrIntegrity = errors.Base("transfer integrity check failed")

// ErrSameFile means an asset's destination is the asset itself.
var ErrSameFile = errors.Base("destination is the source file")

// IntegrityError reports copies that did not materialize in the target.
type IntegrityError struct {
	Attempted int
	Confirmed int
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("%s: %d of %d copies confirmed", ErrIntegrity, e.Confirmed, e.Attempted)
}

func (e *IntegrityError) Unwrap() error { return ErrIntegrity }

// 📦 Result lists confirmed destinations paired by index with their sources.
type Result struct {
	Destinations []string
	Sources      []string
	Bytes        int64
}

// Len returns the number of confirmed transfers.
func (r *Result) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Destinations)
}

// 🔧 Options configures an Engine.
type Options struct {
	// VerifyChecksum compares source and destination hashes after each copy.
	VerifyChecksum bool
	// Status receives per-file updates and progress. Optional.
	Status status.Reporter
}

// 🚚 Engine copies assets and removes originals on move.
type Engine struct {
	opts Options
}

// 🏭 New creates a transfer engine.
func New(opts Options) *Engine {
	if opts.Status == nil {
		opts.Status = status.New()
	}
	return &Engine{opts: opts}
}

// 🏃 Transfer copies every asset to targetDir under its bare name. When move is
// set, sources are deleted only after every copy has been confirmed. Any I/O
// failure aborts the whole transfer without rolling back finished copies.
func (e *Engine) Transfer(ctx context.Context, assets []locator.Asset, targetDir string, move bool) (*Result, error) {
	logger := zerolog.Ctx(ctx)
	reporter := e.opts.Status

	reporter.StartOperation(ctx, "transfer", len(assets))
	defer reporter.FinishOperation(ctx)

	result := &Result{}
	written := make(map[string]string, len(assets))
	tracked := make(map[string]status.FileInfo, len(assets))
	attempted := 0

	for i, asset := range assets {
		if err := ctx.Err(); err != nil {
			return nil, errors.Errorf("transfer interrupted: %w", err)
		}

		dst := filepath.Join(targetDir, asset.Name)
		if prev, ok := written[dst]; ok {
			logger.Warn().
				Str("destination", dst).
				Str("previous", prev).
				Str("source", asset.Path).
				Msg("overwriting destination written earlier in this run")
		}

		if sameFile(asset.Path, dst) {
			return nil, errors.Errorf("%w: %s", ErrSameFile, dst)
		}

		attempted++
		n, err := copyFunc(asset.Path, dst)
		if err != nil {
			reporter.TrackFile(ctx, dst, status.FileInfo{Source: asset.Path, Status: status.StatusFailed, Error: err})
			return nil, errors.Errorf("copying %s: %w", asset.Path, err)
		}
		written[dst] = asset.Path

		checksum, ok, err := e.verify(ctx, asset.Path, dst)
		if err != nil {
			return nil, errors.Errorf("verifying %s: %w", dst, err)
		}
		info := status.FileInfo{
			Path:     dst,
			Source:   asset.Path,
			Status:   status.StatusCopied,
			Size:     n,
			Checksum: checksum,
		}
		if ok {
			result.Destinations = append(result.Destinations, dst)
			result.Sources = append(result.Sources, asset.Path)
			result.Bytes += n
		} else {
			info.Status = status.StatusFailed
			info.Error = errors.Errorf("copy of %s not confirmed", asset.Path)
		}
		tracked[dst] = info
		reporter.TrackFile(ctx, dst, info)

		reporter.UpdateProgress(ctx, i+1)
	}

	if len(result.Destinations) != attempted {
		return nil, errors.WithStack(&IntegrityError{Attempted: attempted, Confirmed: len(result.Destinations)})
	}

	if move {
		for i, src := range result.Sources {
			if err := removeFunc(src); err != nil {
				return nil, errors.Errorf("removing %s: %w", src, err)
			}
			dst := result.Destinations[i]
			info := tracked[dst]
			info.Source = src
			info.Status = status.StatusMoved
			reporter.TrackFile(ctx, dst, info)
		}
	}

	logger.Info().
		Int("files", result.Len()).
		Int64("bytes", result.Bytes).
		Bool("move", move).
		Str("target", targetDir).
		Msg("transfer complete")

	return result, nil
}

// verify reports whether dst materialized and, when enabled, matches src.
func (e *Engine) verify(ctx context.Context, src, dst string) (string, bool, error) {
	if _, err := statFunc(dst); err != nil {
		zerolog.Ctx(ctx).Debug().Err(err).Str("destination", dst).Msg("copy not found after write")
		return "", false, nil
	}

	if !e.opts.VerifyChecksum {
		return "", true, nil
	}

	want, err := status.Checksum(src)
	if err != nil {
		return "", false, err
	}
	got, err := status.Checksum(dst)
	if err != nil {
		return "", false, err
	}
	if want != got {
		zerolog.Ctx(ctx).Warn().
			Str("source", src).
			Str("destination", dst).
			Msg("checksum mismatch after copy")
		return got, false, nil
	}
	return got, true, nil
}

func sameFile(a, b string) bool {
	ai, err := os.Stat(a)
	if err != nil {
		return false
	}
	bi, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(ai, bi)
}

// copyFile writes the contents of src to dst through a temporary sibling file,
// keeping the source permission bits. It returns the number of bytes copied.
func copyFile(src, dst string) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, errors.Errorf("opening source file: %w", err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return 0, errors.Errorf("stat source file: %w", err)
	}

	out, err := renameio.NewPendingFile(dst, renameio.WithPermissions(info.Mode().Perm()))
	if err != nil {
		return 0, errors.Errorf("creating destination file: %w", err)
	}
	defer out.Cleanup()

	n, err := io.Copy(out, in)
	if err != nil {
		return 0, errors.Errorf("copying file content: %w", err)
	}

	if err := out.CloseAtomicallyReplace(); err != nil {
		return 0, errors.Errorf("replacing destination file: %w", err)
	}

	return n, nil
}
