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
	"fmt"
	"sync"
	"sync/atomic"
)

type memo struct {
	once     sync.Once
	settings *Settings
	err      error
}

var current atomic.Pointer[memo]

func init() {
	current.Store(&memo{})
}

// Get returns the process-wide Settings. The first call runs Load; every
// later call returns the same pointer, or the same error, without reading
// the environment again. Concurrent first calls wait for a single Load.
func Get() (*Settings, error) {
	m := current.Load()
	m.once.Do(func() {
		m.settings, m.err = Load()
	})
	return m.settings, m.err
}

// MustGet is Get for process entry points; it panics when the settings
// cannot be loaded.
func MustGet() *Settings {
	s, err := Get()
	if err != nil {
		panic(fmt.Errorf("config: load settings: %w", err))
	}
	return s
}

// Reset drops the memoized result so the next Get loads again.
func Reset() {
	current.Store(&memo{})
}

// Override makes Get return s until the next Reset or Override. It panics
// when s is nil.
func Override(s *Settings) {
	if s == nil {
		panic("config: Override called with nil settings")
	}
	m := &memo{settings: s}
	m.once.Do(func() {})
	current.Store(m)
}
