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
	"path/filepath"
	"sync"

	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"

	"github.com/walteh/prdbackup/cmd/prdbackup/opts"
	"github.com/walteh/prdbackup/pkg/codec"
	"github.com/walteh/prdbackup/pkg/log"
)

// NewConvertCmd creates the convert command
func NewConvertCmd(o *opts.RootOpts) *cobra.Command {
	var jobs int

	cmd := &cobra.Command{
		Use:   "convert <file>...",
		Short: "Write a dated JPEG next to each PRD asset",
		Long: `Convert reads the capture date from each asset header and writes the
embedded JPEG payload as {year}{month}{day}_{name}.jpeg in the same directory.
The asset itself is left untouched. The first failure stops the batch.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if jobs < 1 {
				return errors.Errorf("--jobs must be at least 1, got %d", jobs)
			}

			g, ctx := errgroup.WithContext(cmd.Context())
			g.SetLimit(jobs)

			var mu sync.Mutex // serializes console output and converted
			converted := 0
			for _, path := range args {
				path := path
				g.Go(func() error {
					if err := ctx.Err(); err != nil {
						return err
					}

					out, err := codec.Convert(ctx, path)

					mu.Lock()
					defer mu.Unlock()
					if err != nil {
						o.UserLogger.LogFileChange(log.FileChange{Type: log.FileError, Path: path, Error: err})
						return errors.Errorf("converting %s: %w", path, err)
					}
					converted++
					o.UserLogger.LogFileChange(log.FileChange{
						Type:        log.FileConverted,
						Path:        out,
						Description: "from " + filepath.Base(path),
					})
					return nil
				})
			}

			if err := g.Wait(); err != nil {
				return err
			}

			o.UserLogger.LogStateChange(fmt.Sprintf("%d assets converted", converted))
			return nil
		},
	}

	cmd.Flags().IntVarP(&jobs, "jobs", "j", 1, "number of assets converted at once")

	return cmd
}
