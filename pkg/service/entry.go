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

package service

import (
	"context"
	"path"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 🗺️ Entry maps a client path to the alias its actions and state use
type Entry struct {
	Path  string `json:"path" yaml:"path"`
	Alias string `json:"alias,omitempty" yaml:"alias,omitempty"`
}

// Name is the alias, falling back to the path
func (e Entry) Name() string {
	if e.Alias != "" {
		return e.Alias
	}
	return e.Path
}

// List aliases every name to itself, keeping order
func List(names ...string) []Entry {
	out := make([]Entry, 0, len(names))
	for _, n := range names {
		out = append(out, Entry{Path: n, Alias: n})
	}
	return out
}

// Mapping turns a path-to-alias map into entries sorted by path
func Mapping(m map[string]string) []Entry {
	out := make([]Entry, 0, len(m))
	for p, alias := range m {
		out = append(out, Entry{Path: p, Alias: alias})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// IsPattern reports whether the path contains glob metacharacters
func (e Entry) IsPattern() bool {
	return strings.ContainsAny(e.Path, "*?[{")
}

// Expand replaces glob entries with one entry per matching client path. A
// glob entry must not carry an alias; each match is aliased by its last
// path segment.
func Expand(ctx context.Context, client Client, entries []Entry) ([]Entry, error) {
	logger := zerolog.Ctx(ctx)

	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if !e.IsPattern() {
			out = append(out, e)
			continue
		}

		if e.Alias != "" {
			return nil, errors.Errorf("glob %q cannot carry alias %q", e.Path, e.Alias)
		}
		if !doublestar.ValidatePattern(e.Path) {
			return nil, errors.Errorf("invalid glob %q", e.Path)
		}

		lister, ok := client.(PathLister)
		if !ok {
			return nil, errors.Errorf("expanding %q: client cannot list its services", e.Path)
		}

		paths := lister.Paths()
		sort.Strings(paths)

		matched := 0
		for _, p := range paths {
			ok, err := doublestar.Match(e.Path, p)
			if err != nil {
				return nil, errors.Errorf("matching %q against %q: %w", e.Path, p, err)
			}
			if !ok {
				continue
			}
			matched++
			out = append(out, Entry{Path: p, Alias: aliasFor(p)})
		}

		logger.Debug().Str("pattern", e.Path).Int("matched", matched).Msg("expanded service glob")
		if matched == 0 {
			return nil, errors.Errorf("glob %q matched no services", e.Path)
		}
	}
	return out, nil
}

func aliasFor(p string) string {
	base := path.Base(strings.Trim(p, "/"))
	if i := strings.IndexAny(base, ":"); i > 0 {
		base = base[:i]
	}
	return base
}
