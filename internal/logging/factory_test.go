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
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardinalhq/healthengine/config"
)

func fixedLevel(name string) LevelSource {
	return func() (string, error) { return name, nil }
}

func countLogFiles(dir, name string) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return -1
	}
	n := 0
	for _, e := range entries {
		if e.Name() == name+".log" || strings.HasPrefix(e.Name(), name+"-") {
			n++
		}
	}
	return n
}

func TestSetupUsesSettingsLevel(t *testing.T) {
	config.Override(&config.Settings{LogLevel: "WARNING"})
	t.Cleanup(config.Reset)

	dir := t.TempDir()
	var stdout bytes.Buffer
	f := NewFactory(WithDir(dir), WithStdout(&stdout), WithColor(false))
	t.Cleanup(func() { _ = f.Close() })

	l, err := f.Setup("worker")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, l.Level())
	assert.Equal(t, "worker", l.Name())
	assert.Equal(t, filepath.Join(dir, "worker.log"), l.FilePath())

	l.Info("dropped")
	l.Warn("kept")

	assert.NotContains(t, stdout.String(), "dropped")
	assert.Contains(t, stdout.String(), " - worker - WARNING - kept\n")

	data, err := os.ReadFile(filepath.Join(dir, "worker.log"))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "dropped")
	assert.Contains(t, string(data), " - worker - WARNING - kept\n")
}

func TestSetupSettingsFailure(t *testing.T) {
	config.Reset()
	t.Cleanup(config.Reset)
	t.Setenv(config.EnvDatabaseURL, "")
	t.Setenv(config.EnvJWTSecretKey, "")

	f := NewFactory(WithDir(t.TempDir()), WithStdout(&bytes.Buffer{}))
	_, err := f.Setup("worker")

	var missing *config.MissingFieldError
	assert.ErrorAs(t, err, &missing)
}

// Asking for the same name twice must not attach a second pair of handlers;
// each record is written exactly once to each destination.
func TestSetupIsIdempotentPerName(t *testing.T) {
	dir := t.TempDir()
	var stdout bytes.Buffer
	f := NewFactory(WithDir(dir), WithStdout(&stdout), WithColor(false), WithLevel(fixedLevel("INFO")))
	t.Cleanup(func() { _ = f.Close() })

	first, err := f.Setup("api")
	require.NoError(t, err)
	second, err := f.Setup("api")
	require.NoError(t, err)
	assert.Same(t, first, second)

	second.Info("once")

	assert.Equal(t, 1, strings.Count(stdout.String(), "once"))
	data, err := os.ReadFile(filepath.Join(dir, "api.log"))
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), "once"))
}

func TestSetupSeparateNames(t *testing.T) {
	dir := t.TempDir()
	var stdout bytes.Buffer
	f := NewFactory(WithDir(dir), WithStdout(&stdout), WithColor(false), WithLevel(fixedLevel("DEBUG")))
	t.Cleanup(func() { _ = f.Close() })

	a, err := f.Setup("ingest")
	require.NoError(t, err)
	b, err := f.Setup("scoring")
	require.NoError(t, err)
	assert.NotSame(t, a, b)

	a.Debug("from ingest")
	b.Debug("from scoring")

	ingest, err := os.ReadFile(filepath.Join(dir, "ingest.log"))
	require.NoError(t, err)
	assert.Contains(t, string(ingest), " - ingest - DEBUG - from ingest")
	assert.NotContains(t, string(ingest), "from scoring")
}

func TestSetupCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "logs")
	f := NewFactory(WithDir(dir), WithStdout(&bytes.Buffer{}), WithLevel(fixedLevel("INFO")))
	t.Cleanup(func() { _ = f.Close() })

	_, err := f.Setup("worker")
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestSetupRejectsUnknownLevel(t *testing.T) {
	f := NewFactory(WithDir(t.TempDir()), WithStdout(&bytes.Buffer{}), WithLevel(fixedLevel("VERBOSE")))

	_, err := f.Setup("worker")
	assert.ErrorContains(t, err, "VERBOSE")
}

func TestSetupColoredConsolePlainFile(t *testing.T) {
	dir := t.TempDir()
	var stdout bytes.Buffer
	f := NewFactory(WithDir(dir), WithStdout(&stdout), WithColor(true), WithLevel(fixedLevel("INFO")))
	t.Cleanup(func() { _ = f.Close() })

	l, err := f.Setup("worker")
	require.NoError(t, err)
	l.Info("hello")
	l.Critical("down")

	assert.True(t, strings.HasPrefix(stdout.String(), "\x1b[38;5;39m"), stdout.String())
	assert.Contains(t, stdout.String(), "\x1b[31;1m")
	assert.Contains(t, stdout.String(), " - worker - CRITICAL - down")

	data, err := os.ReadFile(filepath.Join(dir, "worker.log"))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "\x1b[")
	assert.Contains(t, string(data), " - worker - INFO - hello\n")
	assert.Contains(t, string(data), " - worker - CRITICAL - down\n")
}

func TestSetLevelAppliesToBothHandlers(t *testing.T) {
	dir := t.TempDir()
	var stdout bytes.Buffer
	f := NewFactory(WithDir(dir), WithStdout(&stdout), WithColor(false), WithLevel(fixedLevel("ERROR")))
	t.Cleanup(func() { _ = f.Close() })

	l, err := f.Setup("worker")
	require.NoError(t, err)
	l.Info("before")
	l.SetLevel(slog.LevelInfo)
	l.Info("after")

	data, err := os.ReadFile(filepath.Join(dir, "worker.log"))
	require.NoError(t, err)
	for _, out := range []string{stdout.String(), string(data)} {
		assert.NotContains(t, out, "before")
		assert.Contains(t, out, "after")
	}
}

func TestDefaultRotationSize(t *testing.T) {
	assert.Equal(t, 10_485_760, DefaultMaxSizeMB*1024*1024)
	assert.Equal(t, 5, DefaultMaxBackups)
}

func TestRotationKeepsBoundedBackups(t *testing.T) {
	dir := t.TempDir()
	f := NewFactory(
		WithDir(dir),
		WithStdout(&bytes.Buffer{}),
		WithColor(false),
		WithLevel(fixedLevel("INFO")),
		WithMaxSizeMB(1),
		WithMaxBackups(5),
	)
	t.Cleanup(func() { _ = f.Close() })

	l, err := f.Setup("worker")
	require.NoError(t, err)

	// Roughly 7.5 MiB against a 1 MiB limit forces several rotations.
	payload := strings.Repeat("x", 1024)
	for range 7500 {
		l.Info(payload)
	}

	assert.Eventually(t, func() bool {
		n := countLogFiles(dir, "worker")
		return n > 1 && n <= 6
	}, 10*time.Second, 50*time.Millisecond)

	info, err := os.Stat(filepath.Join(dir, "worker.log"))
	require.NoError(t, err)
	assert.LessOrEqual(t, info.Size(), int64(1024*1024))
}

func TestRotateKeepsBackup(t *testing.T) {
	dir := t.TempDir()
	f := NewFactory(WithDir(dir), WithStdout(&bytes.Buffer{}), WithLevel(fixedLevel("INFO")))
	t.Cleanup(func() { _ = f.Close() })

	l, err := f.Setup("worker")
	require.NoError(t, err)
	l.Info("first")
	require.NoError(t, l.Rotate())
	l.Info("second")

	assert.Equal(t, 2, countLogFiles(dir, "worker"))
}

func TestPackageSetup(t *testing.T) {
	config.Override(&config.Settings{LogLevel: "DEBUG"})
	t.Cleanup(config.Reset)
	t.Chdir(t.TempDir())
	t.Cleanup(func() { _ = Default().Close() })

	l, err := Setup("worker")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, l.Level())
	assert.Equal(t, filepath.Join("logs", "worker.log"), l.FilePath())

	l.Debug("package default")
	_, err = os.Stat(filepath.Join("logs", "worker.log"))
	assert.NoError(t, err)

	again, err := Setup("worker")
	require.NoError(t, err)
	assert.Same(t, l, again)
}
