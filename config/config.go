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

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/viper"
)

type loadOptions struct {
	envFile string
}

// LoadOption adjusts how Load finds its sources.
type LoadOption func(*loadOptions)

// WithEnvFile reads the given dotenv file instead of DefaultEnvFile.
func WithEnvFile(path string) LoadOption {
	return func(o *loadOptions) {
		o.envFile = path
	}
}

// WithoutEnvFile skips the dotenv file entirely.
func WithoutEnvFile() LoadOption {
	return func(o *loadOptions) {
		o.envFile = ""
	}
}

// Load builds Settings from the process environment, a dotenv file and the
// declared defaults, in that order of precedence. Setting keys match
// environment variable names case-insensitively, so "DATABASE_URL",
// "database_url" and "Database_Url" all set DatabaseURL. An environment
// variable set to the empty string is present: it is checked like any other
// value, except that optional settings treat it as absent.
//
// Every field is converted and checked in one pass. On failure the returned
// error is a *multierror.Error holding one *FieldError or *MissingFieldError
// per bad setting, and no Settings is returned.
func Load(opts ...LoadOption) (*Settings, error) {
	o := loadOptions{envFile: DefaultEnvFile}
	for _, opt := range opts {
		opt(&o)
	}

	v := viper.New()
	v.AllowEmptyEnv(true)
	if err := readEnvFile(v, o.envFile); err != nil {
		return nil, err
	}
	bindEnvs(v, reflect.TypeOf(Settings{}), os.Environ())

	return decode(v)
}

func readEnvFile(v *viper.Viper, path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	v.SetConfigFile(path)
	v.SetConfigType("dotenv")
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read env file %s: %w", path, err)
	}
	return nil
}

// bindEnvs registers the default and the environment variable names for
// every setting key in typ. Viper looks environment variables up by exact
// name, so any spelling of the key present in environ is bound alongside the
// upper-case form.
func bindEnvs(v *viper.Viper, typ reflect.Type, environ []string) {
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		key := settingKey(f)
		if def, ok := f.Tag.Lookup("default"); ok {
			v.SetDefault(key, def)
		}
		_ = v.BindEnv(append([]string{key}, envNames(key, environ)...)...)
	}
}

func envNames(key string, environ []string) []string {
	names := []string{strings.ToUpper(key)}
	for _, kv := range environ {
		name, _, _ := strings.Cut(kv, "=")
		if name != names[0] && strings.EqualFold(name, key) {
			names = append(names, name)
		}
	}
	return names
}

func settingKey(f reflect.StructField) string {
	if tag := f.Tag.Get("mapstructure"); tag != "" {
		return tag
	}
	return strings.ToLower(f.Name)
}

func decode(v *viper.Viper) (*Settings, error) {
	s := &Settings{}
	val := reflect.ValueOf(s).Elem()
	typ := val.Type()

	var errs *multierror.Error
	unconverted := map[string]bool{}
	for i := 0; i < typ.NumField(); i++ {
		key := settingKey(typ.Field(i))
		raw := v.Get(key)
		if err := assign(val.Field(i), raw); err != nil {
			unconverted[key] = true
			errs = multierror.Append(errs, &FieldError{
				Field:  key,
				Value:  fmt.Sprint(raw),
				Reason: err.Error(),
				Err:    err,
			})
		}
	}
	errs = multierror.Append(errs, constraintErrors(s, unconverted)...)

	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	return s, nil
}

var constraints = sync.OnceValue(func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(settingKey)
	return v
})

// constraintErrors translates validate tag failures into FieldError and
// MissingFieldError values. Fields in skip already failed conversion and
// hold zero values, so their constraint failures are noise.
func constraintErrors(s *Settings, skip map[string]bool) []error {
	err := constraints().Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []error{err}
	}

	var out []error
	for _, fe := range verrs {
		key := fe.Field()
		if skip[key] {
			continue
		}
		switch fe.Tag() {
		case "required":
			out = append(out, &MissingFieldError{Field: key})
		case "min":
			out = append(out, &FieldError{
				Field:  key,
				Value:  fmt.Sprint(fe.Value()),
				Reason: "must be greater than or equal to " + fe.Param(),
			})
		case "max":
			out = append(out, &FieldError{
				Field:  key,
				Value:  fmt.Sprint(fe.Value()),
				Reason: "must be less than or equal to " + fe.Param(),
			})
		case "oneof":
			out = append(out, &FieldError{
				Field:  key,
				Value:  fmt.Sprint(fe.Value()),
				Reason: fmt.Sprintf("must be one of [%s]", strings.Join(strings.Fields(fe.Param()), ", ")),
			})
		default:
			out = append(out, &FieldError{
				Field:  key,
				Value:  fmt.Sprint(fe.Value()),
				Reason: fmt.Sprintf("failed %s constraint", fe.Tag()),
			})
		}
	}
	return out
}
