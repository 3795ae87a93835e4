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

package cmd

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cardinalhq/healthengine/internal/logging"
)

var logAttrs []string

func init() {
	logCmd.Flags().StringArrayVar(&logAttrs, "attr", nil, "Attribute to attach as key=value (repeatable)")
	rootCmd.AddCommand(logCmd)
}

var logCmd = &cobra.Command{
	Use:   "log <name> <level> <message...>",
	Short: "Write one record through the named logger",
	Long: `Write one record through the named logger. The record goes to stdout and
to logs/<name>.log when its level is at or above the configured log_level.`,
	Args: cobra.MinimumNArgs(3),
	RunE: func(c *cobra.Command, args []string) error {
		level, err := logging.ParseLevel(args[1])
		if err != nil {
			return err
		}
		attrs, err := parseAttrs(logAttrs)
		if err != nil {
			return err
		}

		l, err := setupLogger(args[0])
		if err != nil {
			return err
		}
		defer func() { _ = logging.Default().Close() }()

		ctx := logging.WithLogger(c.Context(), l)
		logging.FromContext(ctx).Log(ctx, level, strings.Join(args[2:], " "), attrs...)
		return nil
	},
}

// setupLogger builds the named logger and makes it the slog default.
func setupLogger(name string) (*logging.Logger, error) {
	l, err := logging.Setup(name)
	if err != nil {
		return nil, fmt.Errorf("set up logger %s: %w", name, err)
	}
	slog.SetDefault(l.Logger)
	return l, nil
}

func parseAttrs(pairs []string) ([]any, error) {
	attrs := make([]any, 0, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("attribute %q is not key=value", p)
		}
		attrs = append(attrs, slog.String(k, v))
	}
	return attrs, nil
}
