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

package backup

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
	"github.com/rs/zerolog"
	"github.com/walteh/prdbackup/pkg/codec"
	"github.com/walteh/prdbackup/pkg/locator"
	"github.com/walteh/prdbackup/pkg/status"
	"github.com/walteh/prdbackup/pkg/transfer"
	"gitlab.com/tozd/go/errors"
)

// lockDir holds the per-target lock files.
var lockDir = os.TempDir()

// 🎛️ Mode selects the backup pipeline.
type Mode struct {
	Move    bool
	Convert bool
}

var (
	ModeCopy        = Mode{}
	ModeCopyConvert = Mode{Convert: true}
	ModeMove        = Mode{Move: true}
	ModeMoveConvert = Mode{Move: true, Convert: true}
)

func (m Mode) String() string {
	name := "copy"
	if m.Move {
		name = "move"
	}
	if m.Convert {
		name += "+convert"
	}
	return name
}

// 🔧 Options configures a backup run.
type Options struct {
	Source string
	Target string
	Mode   Mode

	// Locator finds assets in Source. Defaults to locator.Default().
	Locator *locator.Locator
	// VerifyChecksum compares hashes after each copy.
	VerifyChecksum bool
	// Lock takes an advisory lock on Target for the duration of the run.
	Lock bool
	// Status collects per-file results. Defaults to a fresh status.Manager.
	Status *status.Manager
}

// 📦 Report describes what a run produced.
type Report struct {
	Mode      Mode
	Transfer  *transfer.Result
	Converted []string
	Files     []status.FileInfo
}

// Transferred reports whether at least one file was transferred.
func (r *Report) Transferred() bool {
	return r != nil && r.Transfer.Len() > 0
}

// ✅ Validate checks that source and target are existing, disjoint directories
// and that source holds at least one asset. It never modifies the file system.
func Validate(ctx context.Context, source, target string, loc *locator.Locator) error {
	if err := checkDir(RoleSource, source); err != nil {
		return err
	}
	if err := checkDir(RoleTarget, target); err != nil {
		return err
	}
	if err := checkDisjoint(source, target); err != nil {
		return err
	}

	if loc == nil {
		loc = locator.Default()
	}
	found, err := loc.HasAny(ctx, source)
	if err != nil {
		return &EnvironmentError{Role: RoleSource, Path: source, Reason: "cannot be scanned", Err: err}
	}
	if !found {
		return errors.Errorf("%w in %s (prefix %q)", ErrNothingToBackup, source, loc.Prefix())
	}
	return nil
}

// 🔍 Inspect lists the assets a run would pick up from source without
// requiring a target.
func Inspect(ctx context.Context, source string, loc *locator.Locator) ([]locator.Asset, error) {
	if err := checkDir(RoleSource, source); err != nil {
		return nil, err
	}
	if loc == nil {
		loc = locator.Default()
	}
	assets, err := loc.Locate(ctx, source)
	if err != nil {
		return nil, &EnvironmentError{Role: RoleSource, Path: source, Reason: "cannot be scanned", Err: err}
	}
	if len(assets) == 0 {
		return nil, errors.Errorf("%w in %s (prefix %q)", ErrNothingToBackup, source, loc.Prefix())
	}
	return assets, nil
}

// checkDisjoint rejects a target that is the source or lies inside it. Such a
// target is walked as part of the source, so a move could delete the only copy.
func checkDisjoint(source, target string) error {
	src, err := resolveDir(source)
	if err != nil {
		return &EnvironmentError{Role: RoleSource, Path: source, Reason: "cannot be resolved", Err: err}
	}
	tgt, err := resolveDir(target)
	if err != nil {
		return &EnvironmentError{Role: RoleTarget, Path: target, Reason: "cannot be resolved", Err: err}
	}

	rel, err := filepath.Rel(src, tgt)
	if err != nil {
		return &EnvironmentError{Role: RoleTarget, Path: target, Reason: "cannot be compared with the source", Err: err}
	}
	switch {
	case rel == ".":
		return &EnvironmentError{Role: RoleTarget, Path: target, Reason: "is the source directory"}
	case rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)):
		return &EnvironmentError{Role: RoleTarget, Path: target, Reason: "is inside the source directory"}
	}
	return nil
}

func resolveDir(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	}
	return abs, nil
}

func checkDir(role Role, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &EnvironmentError{Role: role, Path: path, Reason: "does not exist"}
		}
		return &EnvironmentError{Role: role, Path: path, Reason: "cannot be inspected", Err: err}
	}
	if !info.IsDir() {
		return &EnvironmentError{Role: role, Path: path, Reason: "is not a directory"}
	}
	return nil
}

// 🏃 Run validates the environment, transfers every asset and converts the copies
// when the mode asks for it. The first failure after validation aborts the run;
// nothing already written is rolled back.
func Run(ctx context.Context, opts Options) (*Report, error) {
	if opts.Locator == nil {
		opts.Locator = locator.Default()
	}
	if opts.Status == nil {
		opts.Status = status.New()
	}

	ctx = zerolog.Ctx(ctx).With().
		Str("mode", opts.Mode.String()).
		Str("source", opts.Source).
		Str("target", opts.Target).
		Logger().WithContext(ctx)
	logger := zerolog.Ctx(ctx)

	if err := Validate(ctx, opts.Source, opts.Target, opts.Locator); err != nil {
		return nil, err
	}

	if opts.Lock {
		unlock, err := lockTarget(ctx, opts.Target)
		if err != nil {
			return nil, err
		}
		defer unlock()
	}

	assets, err := opts.Locator.Locate(ctx, opts.Source)
	if err != nil {
		return nil, errors.Errorf("locating assets: %w", err)
	}

	engine := transfer.New(transfer.Options{
		VerifyChecksum: opts.VerifyChecksum,
		Status:         opts.Status,
	})
	result, err := engine.Transfer(ctx, assets, opts.Target, opts.Mode.Move)
	if err != nil {
		return nil, errors.Errorf("transferring assets: %w", err)
	}

	report := &Report{Mode: opts.Mode, Transfer: result}

	if opts.Mode.Convert {
		converted, err := convertAll(ctx, result.Destinations, opts.Status)
		if err != nil {
			return nil, err
		}
		report.Converted = converted
	}

	report.Files = opts.Status.ListFiles(ctx)

	logger.Info().
		Int("transferred", result.Len()).
		Int("converted", len(report.Converted)).
		Msg("backup complete")

	return report, nil
}

func convertAll(ctx context.Context, files []string, reporter status.Reporter) ([]string, error) {
	reporter.StartOperation(ctx, "convert", len(files))
	defer reporter.FinishOperation(ctx)

	converted := make([]string, 0, len(files))
	for i, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, errors.Errorf("conversion interrupted: %w", err)
		}
		out, err := codec.Convert(ctx, file)
		if err != nil {
			reporter.TrackFile(ctx, file, status.FileInfo{Source: file, Status: status.StatusFailed, Error: err})
			return nil, errors.Errorf("converting %s: %w", file, err)
		}

		size := int64(0)
		if info, err := os.Stat(out); err == nil {
			size = info.Size()
		}
		reporter.TrackFile(ctx, out, status.FileInfo{Source: file, Status: status.StatusConverted, Size: size})
		converted = append(converted, out)
		reporter.UpdateProgress(ctx, i+1)
	}
	return converted, nil
}

// lockTarget takes a non-blocking advisory lock keyed on the absolute target path.
func lockTarget(ctx context.Context, target string) (func(), error) {
	abs, err := filepath.Abs(target)
	if err != nil {
		return nil, errors.Errorf("resolving target path: %w", err)
	}
	sum := sha256.Sum256([]byte(abs))
	path := filepath.Join(lockDir, "prdbackup-"+hex.EncodeToString(sum[:8])+".lock")

	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, errors.Errorf("acquiring lock %s: %w", path, err)
	}
	if !ok {
		return nil, errors.Errorf("%w: %s", ErrLocked, abs)
	}

	zerolog.Ctx(ctx).Debug().Str("lock", path).Msg("acquired target lock")
	return func() {
		if err := lock.Unlock(); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("lock", path).Msg("releasing target lock")
		}
	}, nil
}

// 📋 Backup copies every asset from source into target.
// It reports whether any file was transferred.
func Backup(ctx context.Context, source, target string) (bool, error) {
	report, err := Run(ctx, Options{Source: source, Target: target, Mode: ModeCopy})
	if err != nil {
		return false, err
	}
	return report.Transferred(), nil
}

// 🖼️ BackupAndConvert moves every asset from source into target and converts
// each copy to a JPEG next to it.
func BackupAndConvert(ctx context.Context, source, target string) (bool, error) {
	report, err := Run(ctx, Options{Source: source, Target: target, Mode: ModeMoveConvert})
	if err != nil {
		return false, err
	}
	return report.Transferred(), nil
}
