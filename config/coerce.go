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
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// assign converts raw, as returned by viper, into field. A nil raw, or an
// empty one for an optional field, leaves the zero value in place: optional
// settings stay absent and required ones are reported by the constraint pass.
func assign(field reflect.Value, raw any) error {
	if raw == nil {
		return nil
	}

	switch field.Kind() {
	case reflect.Pointer:
		s, err := cast.ToStringE(raw)
		if err != nil {
			return err
		}
		if s == "" {
			return nil
		}
		field.Set(reflect.ValueOf(&s))
	case reflect.String:
		s, err := cast.ToStringE(raw)
		if err != nil {
			return err
		}
		field.SetString(s)
	case reflect.Bool:
		b, err := parseBool(raw)
		if err != nil {
			return err
		}
		field.SetBool(b)
	case reflect.Int:
		n, err := parseInt(raw)
		if err != nil {
			return err
		}
		field.SetInt(int64(n))
	case reflect.Slice:
		l, err := parseList(raw)
		if err != nil {
			return err
		}
		field.Set(reflect.ValueOf(l))
	default:
		return fmt.Errorf("unsupported setting type %s", field.Type())
	}
	return nil
}

// parseBool accepts the usual switch words in any case.
func parseBool(raw any) (bool, error) {
	if b, ok := raw.(bool); ok {
		return b, nil
	}
	s, err := cast.ToStringE(raw)
	if err != nil {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "t", "1", "yes", "y", "on", "enable", "enabled":
		return true, nil
	case "false", "f", "0", "no", "n", "off", "disable", "disabled":
		return false, nil
	default:
		return false, errors.New("value is not a valid boolean")
	}
}

// parseInt reads base-10 integers only; "010" is ten.
func parseInt(raw any) (int, error) {
	if n, ok := raw.(int); ok {
		return n, nil
	}
	s, err := cast.ToStringE(raw)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, errors.New("value is not a valid integer")
	}
	return n, nil
}

// parseList accepts a JSON array of strings or a comma separated list.
func parseList(raw any) ([]string, error) {
	switch l := raw.(type) {
	case []string:
		return append([]string(nil), l...), nil
	case []any:
		return cast.ToStringSliceE(l)
	}

	s, err := cast.ToStringE(raw)
	if err != nil {
		return nil, err
	}
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "[") {
		var out []string
		if err := json.Unmarshal([]byte(s), &out); err != nil {
			return nil, errors.New("value is not a valid JSON list of strings")
		}
		return out, nil
	}

	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out, nil
}
