// Copyright (C) 2025-2026 CardinalHQ, Inc
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, version 3.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

// Package logging builds named loggers that write colored lines to stdout
// and plain lines to a size-rotated file under a log directory, at the
// level configured in the application settings.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fatih/color"
	slogmulti "github.com/samber/slog-multi"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/cardinalhq/healthengine/config"
)

const (
	DefaultDir        = "logs"
	DefaultMaxSizeMB  = 10 // 10,485,760 bytes
	DefaultMaxBackups = 5
)

// LevelSource returns the name of the level new loggers start at.
type LevelSource func() (string, error)

// SettingsLevel reads LogLevel from the process-wide settings.
func SettingsLevel() (string, error) {
	s, err := config.Get()
	if err != nil {
		return "", err
	}
	return s.LogLevel, nil
}

// Factory hands out one Logger per name.
type Factory struct {
	dir        string
	stdout     io.Writer
	color      bool
	maxSizeMB  int
	maxBackups int
	level      LevelSource

	stdoutMu sync.Mutex
	palette  *palette

	mu      sync.Mutex
	loggers map[string]*Logger
}

type Option func(*Factory)

// WithDir sets the directory log files are written to.
func WithDir(dir string) Option {
	return func(f *Factory) { f.dir = dir }
}

// WithStdout replaces os.Stdout as the console destination.
func WithStdout(w io.Writer) Option {
	return func(f *Factory) { f.stdout = w }
}

// WithColor forces console coloring on or off. By default lines are colored
// when stdout is a terminal and NO_COLOR is not set.
func WithColor(enabled bool) Option {
	return func(f *Factory) { f.color = enabled }
}

// WithMaxSizeMB sets the size in megabytes at which a log file is rotated.
func WithMaxSizeMB(mb int) Option {
	return func(f *Factory) { f.maxSizeMB = mb }
}

// WithMaxBackups sets how many rotated files are kept per logger.
func WithMaxBackups(n int) Option {
	return func(f *Factory) { f.maxBackups = n }
}

// WithLevel replaces SettingsLevel as the source of the starting level.
func WithLevel(src LevelSource) Option {
	return func(f *Factory) { f.level = src }
}

func NewFactory(opts ...Option) *Factory {
	f := &Factory{
		dir:        DefaultDir,
		stdout:     os.Stdout,
		color:      !color.NoColor,
		maxSizeMB:  DefaultMaxSizeMB,
		maxBackups: DefaultMaxBackups,
		level:      SettingsLevel,
		loggers:    map[string]*Logger{},
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.color {
		f.palette = newPalette()
	}
	return f
}

// Setup returns the logger called name, creating it on first use. A new
// logger gets a console handler and a rotating file handler at
// <dir>/<name>.log, both gated by one shared level read from the factory's
// LevelSource. Later calls with the same name return the same logger and
// attach nothing, so records are never written twice.
func (f *Factory) Setup(name string) (*Logger, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if l, ok := f.loggers[name]; ok {
		return l, nil
	}

	levelName, err := f.level()
	if err != nil {
		return nil, fmt.Errorf("resolve log level for %s: %w", name, err)
	}
	level, err := ParseLevel(levelName)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log directory %s: %w", f.dir, err)
	}

	lv := new(slog.LevelVar)
	lv.Set(level)

	path := filepath.Join(f.dir, name+".log")
	file := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    f.maxSizeMB,
		MaxBackups: f.maxBackups,
	}

	console := newLineHandler(f.stdout, &f.stdoutMu, name, lv, f.palette)
	plain := newLineHandler(file, new(sync.Mutex), name, lv, nil)

	l := &Logger{
		Logger: slog.New(slogmulti.Fanout(console, plain)),
		name:   name,
		level:  lv,
		path:   path,
		file:   file,
	}
	f.loggers[name] = l
	return l, nil
}

// Close closes every log file the factory opened. Loggers remain usable;
// a later write reopens its file.
func (f *Factory) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	var firstErr error
	for _, l := range f.loggers {
		if err := l.file.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

var defaultFactory = sync.OnceValue(func() *Factory {
	return NewFactory()
})

// Default is the process-wide factory used by Setup.
func Default() *Factory {
	return defaultFactory()
}

// Setup is Default().Setup(name).
func Setup(name string) (*Logger, error) {
	return Default().Setup(name)
}
