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

package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/prdbackup/cmd/prdbackup/opts"
	"github.com/walteh/prdbackup/pkg/backup"
	"github.com/walteh/prdbackup/pkg/config"
	"github.com/walteh/prdbackup/pkg/locator"
	"github.com/walteh/prdbackup/pkg/log"
	"github.com/walteh/prdbackup/pkg/status"
)

// backupFlags are the per-run overrides of the loaded config
type backupFlags struct {
	move    bool
	convert bool
	verify  bool
	noLock  bool
	prefix  string
	ignore  []string
}

// NewBackupCmd creates the backup command
func NewBackupCmd(o *opts.RootOpts) *cobra.Command {
	flags := &backupFlags{}

	cmd := &cobra.Command{
		Use:   "backup [source] [target]",
		Short: "Copy or move PRD assets into a backup directory",
		Long: `Backup collects every PRD asset under source and writes it flat into target.
It will:
1. Check that source and target are existing directories holding assets
2. Copy every asset and confirm each copy
3. Delete the originals after a fully confirmed pass (--move)
4. Write a dated JPEG next to every copy (--convert)

Source and target may also come from the config file.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 0 && len(args) != 2 {
				return errors.Errorf("accepts 0 or 2 arg(s), received %d", len(args))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := resolveBackupConfig(cmd, o.Config, flags, args)
			if err != nil {
				return err
			}

			loc, err := locator.New(cfg.Prefix, cfg.IgnorePatterns)
			if err != nil {
				return errors.Errorf("creating locator: %w", err)
			}

			mode := backup.Mode{Move: cfg.Move, Convert: cfg.Convert}
			mgr := status.New()

			logger := log.FromContext(ctx)
			logger.Header(fmt.Sprintf("%s %s -> %s", mode, cfg.Source, cfg.Target))
			if cfg.Move {
				logger.Warningf("originals in %s are deleted once every copy is confirmed", cfg.Source)
			}

			report, err := backup.Run(ctx, backup.Options{
				Source:         cfg.Source,
				Target:         cfg.Target,
				Mode:           mode,
				Locator:        loc,
				VerifyChecksum: cfg.VerifyChecksum,
				Lock:           cfg.Lock,
				Status:         mgr,
			})

			files := mgr.ListFiles(ctx)
			if len(files) > 0 {
				logger.StartRun(ctx, log.RunOperation{Source: cfg.Source, Target: cfg.Target, Mode: mode.String()})
				for _, f := range files {
					logger.LogFileOperation(ctx, log.FileOperationFromInfo(f))
				}
				logger.EndRun(ctx)
				logger.LogNewline()
			}

			for _, f := range files {
				if f.Status == status.StatusFailed {
					o.UserLogger.LogFileChange(log.FileChangeFromInfo(f))
				}
			}

			if err != nil {
				if operation, processed, total := mgr.Progress(); total > 0 {
					logger.Errorf("%s stopped after %d of %d files", operation, processed, total)
				}
				return errors.Errorf("backing up %s: %w", cfg.Source, err)
			}

			logger.Successf("%d assets backed up, %d converted (%s)",
				report.Transfer.Len(), len(report.Converted), mode)
			return nil
		},
	}

	cmd.Flags().BoolVar(&flags.move, "move", false, "delete the originals after a confirmed copy")
	cmd.Flags().BoolVar(&flags.convert, "convert", false, "write a dated JPEG next to every copy")
	cmd.Flags().BoolVar(&flags.verify, "verify", false, "compare checksums after every copy")
	cmd.Flags().BoolVar(&flags.noLock, "no-lock", false, "do not lock the target directory")
	cmd.Flags().StringVar(&flags.prefix, "prefix", "", "asset name prefix (default from config, PRD)")
	cmd.Flags().StringArrayVar(&flags.ignore, "ignore", nil, "glob of paths to skip, relative to source (repeatable)")

	return cmd
}

// resolveBackupConfig layers positional arguments and changed flags over the
// loaded config.
func resolveBackupConfig(cmd *cobra.Command, base *config.Config, flags *backupFlags, args []string) (*config.Config, error) {
	cfg := config.Default()
	if base != nil {
		copied := *base
		copied.IgnorePatterns = append([]string(nil), base.IgnorePatterns...)
		cfg = &copied
	}

	if len(args) == 2 {
		cfg.Source, cfg.Target = args[0], args[1]
	}

	changed := cmd.Flags().Changed
	if changed("move") {
		cfg.Move = flags.move
	}
	if changed("convert") {
		cfg.Convert = flags.convert
	}
	if changed("verify") {
		cfg.VerifyChecksum = flags.verify
	}
	if changed("no-lock") {
		cfg.Lock = !flags.noLock
	}
	if changed("prefix") {
		cfg.Prefix = flags.prefix
	}
	if changed("ignore") {
		cfg.IgnorePatterns = append(cfg.IgnorePatterns, flags.ignore...)
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Errorf("invalid options: %w", err)
	}
	if cfg.Source == "" || cfg.Target == "" {
		return nil, errors.New("source and target are required, as arguments or in the config file")
	}
	return cfg, nil
}
