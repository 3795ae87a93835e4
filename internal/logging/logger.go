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

package logging

import (
	"context"
	"log/slog"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is a named slog.Logger whose threshold applies to every handler
// it writes to.
type Logger struct {
	*slog.Logger

	name  string
	level *slog.LevelVar
	path  string
	file  *lumberjack.Logger
}

func (l *Logger) Name() string {
	return l.name
}

// Level is the current threshold.
func (l *Logger) Level() slog.Level {
	return l.level.Level()
}

// SetLevel changes the threshold for the console and the file at once.
func (l *Logger) SetLevel(level slog.Level) {
	l.level.Set(level)
}

// FilePath is the active log file; rotated copies sit next to it.
func (l *Logger) FilePath() string {
	return l.path
}

func (l *Logger) Critical(msg string, args ...any) {
	l.Log(context.Background(), LevelCritical, msg, args...)
}

func (l *Logger) CriticalContext(ctx context.Context, msg string, args ...any) {
	l.Log(ctx, LevelCritical, msg, args...)
}

// Rotate closes the active file and starts a new one, keeping the old file
// as a backup.
func (l *Logger) Rotate() error {
	return l.file.Rotate()
}
