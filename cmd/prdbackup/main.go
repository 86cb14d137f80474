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
	"os"

	"gitlab.com/tozd/go/errors"

	"github.com/walteh/prdbackup/pkg/backup"
	"github.com/walteh/prdbackup/pkg/log"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the root command and maps its outcome onto an exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	rootCmd := newRootCmd(stdout, stderr)
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	userLogger := log.NewUserLoggerWithWriter(ctx, stderr)

	if errors.Is(err, backup.ErrNothingToBackup) {
		userLogger.LogValidation(false, err.Error(), nil)
		return 0
	}

	if backup.IsEnvironment(err) {
		userLogger.LogValidation(false, "Invalid source or target directory", err)
		return 1
	}

	userLogger.LogValidation(false, "Command failed", err)
	return 1
}
