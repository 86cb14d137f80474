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

package log

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
	"github.com/walteh/prdbackup/pkg/status"
)

// 📢 UserLogger provides user-friendly feedback about a backup run
type UserLogger struct {
	log zerolog.Logger // for debug/error logging
	out io.Writer
}

// 🎨 FileChangeType represents the type of change made to a file
type FileChangeType int

const (
	FileCopied FileChangeType = iota
	FileMoved
	FileConverted
	FileSkipped
	FileError
)

// 🖼️ FileChange represents a change to a file during a run
type FileChange struct {
	Type        FileChangeType
	Path        string
	Description string
	Error       error
}

// FileChangeFromInfo maps a tracked file onto a user-facing change.
func FileChangeFromInfo(info status.FileInfo) FileChange {
	change := FileChange{Path: info.Path, Error: info.Error}
	switch info.Status {
	case status.StatusCopied:
		change.Type = FileCopied
	case status.StatusMoved:
		change.Type = FileMoved
	case status.StatusConverted:
		change.Type = FileConverted
	case status.StatusFailed:
		change.Type = FileError
	default:
		change.Type = FileSkipped
	}
	if info.Source != "" && info.Source != info.Path {
		change.Description = "from " + filepath.Base(info.Source)
	}
	return change
}

// 🎯 NewUserLogger creates a new user logger printing to stdout
func NewUserLogger(ctx context.Context) *UserLogger {
	return NewUserLoggerWithWriter(ctx, os.Stdout)
}

// 🎯 NewUserLoggerWithWriter creates a user logger printing to w
func NewUserLoggerWithWriter(ctx context.Context, w io.Writer) *UserLogger {
	return &UserLogger{
		log: *zerolog.Ctx(ctx),
		out: w,
	}
}

func (u *UserLogger) printer(base pterm.PrefixPrinter, prefix string) *pterm.PrefixPrinter {
	return base.WithPrefix(pterm.Prefix{Text: prefix, Style: base.Prefix.Style}).WithWriter(u.out)
}

// 📝 LogFileChange logs a file change with appropriate emoji and formatting
func (u *UserLogger) LogFileChange(change FileChange) {
	relPath := filepath.Base(change.Path)

	var action string
	var printer *pterm.PrefixPrinter
	switch change.Type {
	case FileCopied:
		action = "Copied"
		printer = u.printer(pterm.Success, "✨")
	case FileMoved:
		action = "Moved"
		printer = u.printer(pterm.Info, "🚚")
	case FileConverted:
		action = "Converted"
		printer = u.printer(pterm.Success, "🖼️")
	case FileSkipped:
		action = "Skipped"
		printer = u.printer(pterm.Warning, "⏭️")
	default:
		action = "Error"
		printer = u.printer(pterm.Error, "❌")
	}

	msg := fmt.Sprintf("%s %s", action, relPath)
	if change.Description != "" {
		msg += fmt.Sprintf(" (%s)", change.Description)
	}

	printer.Println(msg)
	if change.Error != nil {
		u.printer(pterm.Error, "ERROR").Println(change.Error)
		u.log.Error().Err(change.Error).Str("path", change.Path).Msg(msg)
		return
	}
	u.log.Info().Str("path", change.Path).Msg(msg)
}

// 📊 LogStateChange logs a change to the overall run
func (u *UserLogger) LogStateChange(description string) {
	u.printer(pterm.Info, "📦").Println(description)
	u.log.Info().Msg(description)
}

// 🔍 LogValidation logs validation results
func (u *UserLogger) LogValidation(valid bool, description string, err error) {
	if valid {
		u.printer(pterm.Success, "✅").Println(description)
		u.log.Info().Msg(description)
		return
	}
	if err != nil {
		u.printer(pterm.Error, "❌").Println(description)
		u.printer(pterm.Error, "ERROR").Println(err)
		u.log.Error().Err(err).Msg(description)
		return
	}
	u.printer(pterm.Warning, "⚠️").Println(description)
	u.log.Warn().Msg(description)
}
