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

package record

import (
	"github.com/benbjohnson/immutable"
	"github.com/walteh/reduxify/pkg/action"
)

// Map is the persistent record type: a HAMT keyed by field name
type Map = *immutable.Map[string, any]

// NewMap builds a persistent record holding exactly the given fields
func NewMap(fields Fields) Map {
	m := immutable.NewMap[string, any](nil)
	for f, v := range fields {
		m = m.Set(string(f), v)
	}
	return m
}

// Persistent backs records with immutable maps. Unchanged fields are shared
// between successive records.
type Persistent struct{}

var _ Backing[Map] = Persistent{}

func (Persistent) Name() string { return "persistent" }

func (Persistent) Default() Map {
	return NewMap(Fields{
		FieldIsError:     nil,
		FieldIsLoading:   false,
		FieldIsSaving:    false,
		FieldIsFinished:  false,
		FieldData:        nil,
		FieldQueryResult: EmptyQueryResult(),
		FieldStore:       nil,
	})
}

func (Persistent) Absent(s Map) bool { return s == nil }

func (Persistent) TracksPending() bool { return false }

func (Persistent) Value(s Map, f Field) any {
	if s == nil {
		return nil
	}
	v, _ := s.Get(string(f))
	return v
}

func (p Persistent) Bool(s Map, f Field) bool {
	b, _ := p.Value(s, f).(bool)
	return b
}

func (Persistent) Merge(s Map, fields Fields) Map {
	if s == nil {
		s = immutable.NewMap[string, any](nil)
	}
	for f, v := range fields {
		if f == FieldIsError {
			if err := action.AsError(v); err != nil {
				s = s.Set(string(f), err)
				continue
			}
			v = nil
		}
		s = s.Set(string(f), v)
	}
	return s
}
