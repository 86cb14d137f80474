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
	"path/filepath"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/walteh/prdbackup/pkg/status"
)

// 🎨 Display configuration
const (
	fileIndent  = 4  // spaces to indent file entries
	nameWidth   = 35 // Base width for filename
	statusWidth = 12 // Width for status text
)

// 🎯 FileOperation represents a file operation for logging
type FileOperation struct {
	Path   string            // Destination or output path
	Source string            // Path the file was produced from
	Status status.FileStatus // What happened to the file
	Size   int64             // Bytes written
	Err    error             // Failure, when Status is StatusFailed
}

// FileOperationFromInfo converts a tracked file into a loggable operation.
func FileOperationFromInfo(info status.FileInfo) FileOperation {
	return FileOperation{
		Path:   info.Path,
		Source: info.Source,
		Status: info.Status,
		Size:   info.Size,
		Err:    info.Error,
	}
}

// 📦 RunOperation describes one backup run for logging
type RunOperation struct {
	Source string // Directory the assets come from
	Target string // Directory the assets go to
	Mode   string // Pipeline name (copy, move+convert, ...)
}

// 🎯 Logger handles structured logging with console output
type Logger struct {
	zlog       zerolog.Logger
	console    io.Writer
	mu         sync.Mutex
	currentRun *RunOperation
	operations []FileOperation
}

// 🏭 New creates a logger printing to console and mirroring to zlog
func New(console io.Writer, zlog zerolog.Logger) *Logger {
	return &Logger{
		zlog:    zlog,
		console: console,
		mu:      sync.Mutex{},
	}
}

// 🔑 contextKey is the type for context values
type contextKey struct{}

// 🎯 FromContext gets the logger from context
func FromContext(ctx context.Context) *Logger {
	logger, ok := ctx.Value(contextKey{}).(*Logger)
	if !ok {
		panic("logger not found in context")
	}
	return logger
}

// 🎯 NewContext adds the logger to context
func NewContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// 📝 formatFileOperation formats a file operation for display
func (l *Logger) formatFileOperation(op FileOperation) string {
	var symbol rune
	var symbolColor color.Attribute
	switch op.Status {
	case status.StatusCopied:
		symbol = '✓'
		symbolColor = color.FgGreen
	case status.StatusMoved:
		symbol = '→'
		symbolColor = color.FgBlue
	case status.StatusConverted:
		symbol = '◆'
		symbolColor = color.FgMagenta
	case status.StatusFailed:
		symbol = '✗'
		symbolColor = color.FgRed
	default:
		symbol = '-'
		symbolColor = color.FgYellow
	}

	size := ""
	if op.Size > 0 {
		size = humanize.Bytes(uint64(op.Size))
	}
	if op.Err != nil {
		size = op.Err.Error()
	}

	return fmt.Sprintf("%s%s %s %s %s",
		fmt.Sprintf("%*s", fileIndent, ""),
		color.New(symbolColor).Sprint(string(symbol)),
		fmt.Sprintf("%-*s", nameWidth, filepath.Base(op.Path)),
		color.New(symbolColor).Sprint(fmt.Sprintf("%-*s", statusWidth, op.Status)),
		color.New(color.Faint).Sprint(size))
}

// 📝 LogFileOperation logs a file operation
func (l *Logger) LogFileOperation(ctx context.Context, op FileOperation) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.operations = append(l.operations, op)

	fmt.Fprintln(l.console, l.formatFileOperation(op))

	var event *zerolog.Event
	if op.Err != nil {
		event = l.zlog.Error().Err(op.Err)
	} else {
		event = l.zlog.Info()
	}
	event.
		Str("file", op.Path).
		Str("source", op.Source).
		Str("status", op.Status.String()).
		Int64("size", op.Size).
		Msg("file operation")
}

// 📝 StartRun starts a new backup run
func (l *Logger) StartRun(ctx context.Context, op RunOperation) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.currentRun = &op
	l.operations = nil

	fmt.Fprintf(l.console, "[backing up %s]\n",
		color.New(color.FgCyan).Sprint(op.Target))

	fmt.Fprintf(l.console, "%s %s %s %s\n",
		color.New(color.FgMagenta).Sprint("◆"),
		color.New(color.Bold).Sprint(op.Source),
		color.New(color.Faint).Sprint("•"),
		color.New(color.FgYellow).Sprint(op.Mode))

	l.zlog.Info().
		Str("source", op.Source).
		Str("target", op.Target).
		Str("mode", op.Mode).
		Msg("starting backup run")
}

// 📝 EndRun ends the current backup run and prints a summary line
func (l *Logger) EndRun(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.currentRun == nil {
		return
	}

	var total int64
	failed := 0
	for _, op := range l.operations {
		total += op.Size
		if op.Status == status.StatusFailed {
			failed++
		}
	}

	fmt.Fprintf(l.console, "%s %d files, %s\n",
		color.New(color.Faint).Sprint("∑"),
		len(l.operations),
		humanize.Bytes(uint64(total)))

	l.zlog.Info().
		Str("target", l.currentRun.Target).
		Int("files", len(l.operations)).
		Int("failed", failed).
		Int64("bytes", total).
		Msg("backup run complete")

	l.currentRun = nil
	l.operations = nil
}

// 📝 LogNewline logs a newline
func (l *Logger) LogNewline() {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.console)
}

// 📝 Header logs a header
func (l *Logger) Header(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	name := color.New(color.Bold, color.FgCyan).Sprint("prdbackup")
	fmt.Fprintf(l.console, "\n%s %s\n\n", name, color.New(color.Faint).Sprint("• "+msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Success logs a success message
func (l *Logger) Success(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "✅ %s\n", color.New(color.FgGreen).Sprint(msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Warning logs a warning message
func (l *Logger) Warning(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "⚠️  %s\n", color.New(color.FgYellow).Sprint(msg))
	l.zlog.Warn().Msg(msg)
}

// 📝 Error logs an error message
func (l *Logger) Error(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "❌ %s\n", color.New(color.FgRed).Sprint(msg))
	l.zlog.Error().Msg(msg)
}

// 📝 Info logs an info message
func (l *Logger) Info(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "ℹ️  %s\n", color.New(color.FgCyan).Sprint(msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Infof logs a formatted info message
func (l *Logger) Infof(format string, args ...interface{}) {
	l.Info(fmt.Sprintf(format, args...))
}

// 📝 Warningf logs a formatted warning message
func (l *Logger) Warningf(format string, args ...interface{}) {
	l.Warning(fmt.Sprintf(format, args...))
}

// 📝 Errorf logs a formatted error message
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.Error(fmt.Sprintf(format, args...))
}

// 📝 Successf logs a formatted success message
func (l *Logger) Successf(format string, args ...interface{}) {
	l.Success(fmt.Sprintf(format, args...))
}
