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
	"github.com/walteh/reduxify/pkg/action"
)

// 🔑 Field names a key of the status record
type Field string

const (
	FieldIsError     Field = "isError"
	FieldIsLoading   Field = "isLoading"
	FieldIsSaving    Field = "isSaving"
	FieldIsFinished  Field = "isFinished"
	FieldData        Field = "data"
	FieldQueryResult Field = "queryResult"
	FieldStore       Field = "store"
)

// BaseFields are the fields every backing carries, in display order
var BaseFields = []Field{
	FieldIsError,
	FieldIsLoading,
	FieldIsSaving,
	FieldIsFinished,
	FieldData,
	FieldQueryResult,
	FieldStore,
}

// PendingField is the per-method in-flight flag, e.g. findPending
func PendingField(m action.Method) Field {
	return Field(string(m) + "Pending")
}

// Fields is a partial update applied by Merge
type Fields map[Field]any

// 📄 QueryResult is the paginated shape a find call resolves with
type QueryResult struct {
	Total int   `json:"total" yaml:"total"`
	Limit int   `json:"limit" yaml:"limit"`
	Skip  int   `json:"skip" yaml:"skip"`
	Data  []any `json:"data" yaml:"data"`
}

// EmptyQueryResult is the default queryResult of a fresh record
func EmptyQueryResult() QueryResult {
	return QueryResult{Data: []any{}}
}

// 🧱 Backing abstracts how a status record is stored so one reducer
// algorithm serves both the plain and the persistent encodings.
type Backing[S any] interface {
	// Name identifies the backing in config and logs
	Name() string
	// Default returns a fresh default record
	Default() S
	// Absent reports whether s stands for "no previous state"
	Absent(s S) bool
	// Value reads a field, nil when unset
	Value(s S, f Field) any
	// Bool reads a boolean field, false when unset
	Bool(s S, f Field) bool
	// Merge returns a new record with fields applied; s is never mutated
	Merge(s S, fields Fields) S
	// TracksPending reports whether per-method pending flags are stored
	TracksPending() bool
}

// Defaults returns the field values of a default record for backing b
func Defaults[S any](b Backing[S]) Fields {
	d := b.Default()
	out := Fields{}
	for _, f := range BaseFields {
		out[f] = b.Value(d, f)
	}
	if b.TracksPending() {
		for _, m := range action.Methods() {
			out[PendingField(m)] = false
		}
	}
	return out
}

// Snapshot flattens a record into a plain map for display or encoding
func Snapshot[S any](b Backing[S], s S) map[string]any {
	if b.Absent(s) {
		return nil
	}
	out := make(map[string]any, len(BaseFields)+len(action.Methods()))
	for _, f := range BaseFields {
		v := b.Value(s, f)
		if err, ok := v.(error); ok && err != nil {
			v = err.Error()
		}
		out[string(f)] = v
	}
	if b.TracksPending() {
		for _, m := range action.Methods() {
			out[string(PendingField(m))] = b.Bool(s, PendingField(m))
		}
	}
	return out
}
