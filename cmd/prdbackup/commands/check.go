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

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/prdbackup/cmd/prdbackup/opts"
	"github.com/walteh/prdbackup/pkg/backup"
	"github.com/walteh/prdbackup/pkg/locator"
	"github.com/walteh/prdbackup/pkg/log"
)

// NewCheckCmd creates the check command
func NewCheckCmd(o *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [source]",
		Short: "List the assets a backup would pick up",
		Long: `Check scans source the same way backup does and reports what it found.
Nothing is copied, moved or written.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			source := o.Config.Source
			if len(args) == 1 {
				source = args[0]
			}
			if source == "" {
				return errors.New("source is required, as an argument or in the config file")
			}

			loc, err := locator.New(o.Config.Prefix, o.Config.IgnorePatterns)
			if err != nil {
				return errors.Errorf("creating locator: %w", err)
			}

			log.FromContext(ctx).Infof("scanning %s for %s* assets", source, loc.Prefix())

			assets, err := backup.Inspect(ctx, source, loc)
			if err != nil {
				return errors.Errorf("checking %s: %w", source, err)
			}

			var total int64
			for _, a := range assets {
				total += a.Size
				fmt.Fprintf(o.Stdout, "%s\t%s\n", a.Path, humanize.Bytes(uint64(a.Size)))
			}

			o.UserLogger.LogValidation(true,
				fmt.Sprintf("%d assets found in %s (%s)", len(assets), source, humanize.Bytes(uint64(total))), nil)
			return nil
		},
	}

	return cmd
}
