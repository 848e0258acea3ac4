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

package reducer

import (
	"github.com/walteh/reduxify/pkg/action"
	"github.com/walteh/reduxify/pkg/record"
)

// Func is a reducer as a plain function value
type Func[S any] func(prev S, a action.Action) S

// 🔁 Reducer folds one service's lifecycle actions into its status record
type Reducer[S any] struct {
	service string
	prefix  string
	backing record.Backing[S]
}

// New builds the reducer for service over backing b
func New[S any](service string, b record.Backing[S]) *Reducer[S] {
	return &Reducer[S]{
		service: service,
		prefix:  action.Prefix(service),
		backing: b,
	}
}

// Service is the name the reducer's action types are built from
func (r *Reducer[S]) Service() string {
	return r.service
}

// Backing returns the record encoding this reducer writes
func (r *Reducer[S]) Backing() record.Backing[S] {
	return r.backing
}

// Init returns the default record, what a store seeds the slice with
func (r *Reducer[S]) Init() S {
	return r.backing.Default()
}

// Func exposes Reduce for composition by a host store
func (r *Reducer[S]) Func() Func[S] {
	return r.Reduce
}

// Reduce is pure: prev is never mutated. Actions that don't belong to this
// service return prev, or the default record when prev is absent.
func (r *Reducer[S]) Reduce(prev S, a action.Action) S {
	b := r.backing
	if b.Absent(prev) {
		prev = b.Default()
	}

	parsed, ok := action.Parse(r.prefix, a.Type)
	if !ok {
		return prev
	}

	switch parsed.Kind {
	case action.KindLifecycle:
		return b.Merge(prev, r.lifecycle(parsed.Method, parsed.Step, a.Payload))
	case action.KindReset:
		// an in-flight request would land on a blank record otherwise
		if b.Bool(prev, record.FieldIsLoading) || b.Bool(prev, record.FieldIsSaving) {
			return prev
		}
		fields := record.Defaults(b)
		if keepQuery(a.Payload) {
			delete(fields, record.FieldQueryResult)
		}
		return b.Merge(prev, fields)
	case action.KindStore:
		return b.Merge(prev, record.Fields{record.FieldStore: a.Payload})
	}

	return prev
}

func (r *Reducer[S]) lifecycle(m action.Method, step action.Step, payload any) record.Fields {
	var fields record.Fields

	switch step {
	case action.StepPending:
		fields = record.Fields{
			record.FieldIsError:    nil,
			record.FieldIsLoading:  m.IsRead(),
			record.FieldIsSaving:   !m.IsRead(),
			record.FieldIsFinished: false,
		}
		if r.backing.TracksPending() {
			for _, other := range action.Methods() {
				fields[record.PendingField(other)] = other == m
			}
		}
		return fields

	case action.StepFulfilled:
		fields = record.Fields{
			record.FieldIsError:    nil,
			record.FieldIsLoading:  false,
			record.FieldIsSaving:   false,
			record.FieldIsFinished: true,
		}
		if m == action.MethodFind {
			fields[record.FieldQueryResult] = payload
		} else {
			fields[record.FieldData] = payload
		}

	case action.StepRejected:
		fields = record.Fields{
			record.FieldIsError:    action.AsError(payload),
			record.FieldIsLoading:  false,
			record.FieldIsSaving:   false,
			record.FieldIsFinished: true,
		}
	}

	if r.backing.TracksPending() {
		fields[record.PendingField(m)] = false
	}
	return fields
}

func keepQuery(payload any) bool {
	switch v := payload.(type) {
	case bool:
		return v
	case nil:
		return false
	case string:
		return v != ""
	case int:
		return v != 0
	}
	return true
}
