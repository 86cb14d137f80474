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

package main

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/prdbackup/cmd/prdbackup/commands"
	"github.com/walteh/prdbackup/cmd/prdbackup/opts"
	"github.com/walteh/prdbackup/pkg/config"
	"github.com/walteh/prdbackup/pkg/log"
)

// rootFlags holds the persistent flags shared by every command
type rootFlags struct {
	configFile string
	debug      bool
}

// newRootCmd creates the root command with every subcommand attached
func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	flags := &rootFlags{}
	rootOpts := &opts.RootOpts{}

	rootCmd := &cobra.Command{
		Use:   "prdbackup",
		Short: "Back up PRD photo assets and convert them to JPEG",
		Long: `prdbackup copies or moves proprietary PRD photo assets from a source tree
into a flat backup directory, and can turn each copy into a standalone JPEG
named after its capture date.`,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// arguments were accepted, so failures from here on are not usage errors
			cmd.SilenceUsage = true

			ctx := setupLogging(cmd.Context(), stderr, flags.debug)

			ctx, err := newRootOpts(ctx, flags, stdout, rootOpts)
			if err != nil {
				return err
			}
			cmd.SetContext(ctx)
			return nil
		},
	}

	addRootFlags(rootCmd, flags)

	rootCmd.AddCommand(
		commands.NewBackupCmd(rootOpts),
		commands.NewConvertCmd(rootOpts),
		commands.NewCheckCmd(rootOpts),
		newVersionCmd(),
	)

	return rootCmd
}

// newRootOpts fills rootOpts with initialized dependencies and returns a
// context carrying the console logger
func newRootOpts(ctx context.Context, flags *rootFlags, stdout io.Writer, rootOpts *opts.RootOpts) (context.Context, error) {
	cfg := config.Default()
	if flags.configFile != "" {
		loaded, err := config.Load(ctx, flags.configFile)
		if err != nil {
			return ctx, errors.Errorf("loading config: %w", err)
		}
		cfg = loaded
	}

	zerolog.Ctx(ctx).Debug().Stringer("config", cfg).Msg("configuration ready")

	rootOpts.Config = cfg
	rootOpts.UserLogger = log.NewUserLoggerWithWriter(ctx, stdout)
	rootOpts.Stdout = stdout

	return log.NewContext(ctx, log.New(stdout, *zerolog.Ctx(ctx))), nil
}

// addRootFlags adds shared flags to the root command
func addRootFlags(cmd *cobra.Command, flags *rootFlags) {
	cmd.PersistentFlags().StringVarP(&flags.configFile, "config", "c", "", "config file path (.yaml, .hcl or .json)")
	cmd.PersistentFlags().BoolVarP(&flags.debug, "debug", "d", false, "enable debug logging")
}

// setupLogging builds the run logger and stores it in the context
func setupLogging(ctx context.Context, w io.Writer, debug bool) context.Context {
	level := zerolog.WarnLevel
	if debug {
		level = zerolog.DebugLevel
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}).
		Level(level).
		With().
		Timestamp().
		Str("run_id", uuid.NewString()).
		Logger()

	return logger.WithContext(ctx)
}
