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
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/cardinalhq/healthengine/config"
)

var errSettingsInvalid = errors.New("settings are invalid")

var (
	envFile      string
	outputFormat string
)

func init() {
	settingsCmd.PersistentFlags().StringVar(&envFile, "env-file", config.DefaultEnvFile, "Path to the dotenv file read below the process environment")
	settingsShowCmd.Flags().StringVarP(&outputFormat, "output", "o", "json", "Output format (json or yaml)")

	settingsCmd.AddCommand(settingsCheckCmd)
	settingsCmd.AddCommand(settingsShowCmd)
	rootCmd.AddCommand(settingsCmd)
}

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Settings commands",
}

var settingsCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the settings and report every problem found",
	RunE: func(c *cobra.Command, _ []string) error {
		s, err := loadSettings()
		if err != nil {
			reportSettingsErrors(c.ErrOrStderr(), err)
			return errSettingsInvalid
		}
		if err := s.ValidateDerived(); err != nil {
			reportSettingsErrors(c.ErrOrStderr(), err)
			return errSettingsInvalid
		}
		fmt.Fprintf(c.OutOrStdout(), "settings ok: %s %s (%s)\n", s.AppName, s.AppVersion, s.Environment)
		return nil
	},
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective settings with secrets masked",
	RunE: func(c *cobra.Command, _ []string) error {
		s, err := loadSettings()
		if err != nil {
			reportSettingsErrors(c.ErrOrStderr(), err)
			return errSettingsInvalid
		}
		return writeSettings(c.OutOrStdout(), s.Redacted(), outputFormat)
	},
}

// loadSettings loads through the process-wide accessor when the default
// dotenv file is in use so later consumers see the same instance.
func loadSettings() (*config.Settings, error) {
	if envFile == config.DefaultEnvFile {
		return config.Get()
	}
	s, err := config.Load(config.WithEnvFile(envFile))
	if err != nil {
		return nil, err
	}
	config.Override(s)
	return s, nil
}

func reportSettingsErrors(w io.Writer, err error) {
	var merr *multierror.Error
	if !errors.As(err, &merr) {
		fmt.Fprintf(w, "error: %v\n", err)
		return
	}
	for _, e := range merr.Errors {
		fmt.Fprintf(w, "error: %v\n", e)
	}
}

func writeSettings(w io.Writer, s *config.Settings, format string) error {
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(s); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
