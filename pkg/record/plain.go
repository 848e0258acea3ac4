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

// 📋 Status is the plain status record of one service
type Status struct {
	IsError     error `json:"isError"`
	IsLoading   bool  `json:"isLoading"`
	IsSaving    bool  `json:"isSaving"`
	IsFinished  bool  `json:"isFinished"`
	Data        any   `json:"data"`
	QueryResult any   `json:"queryResult"`
	Store       any   `json:"store"`

	FindPending   bool `json:"findPending"`
	GetPending    bool `json:"getPending"`
	CreatePending bool `json:"createPending"`
	UpdatePending bool `json:"updatePending"`
	PatchPending  bool `json:"patchPending"`
	RemovePending bool `json:"removePending"`
}

// DefaultStatus is the record every plain slice starts from
func DefaultStatus() *Status {
	return &Status{QueryResult: EmptyQueryResult()}
}

func (s *Status) pending(m action.Method) *bool {
	switch m {
	case action.MethodFind:
		return &s.FindPending
	case action.MethodGet:
		return &s.GetPending
	case action.MethodCreate:
		return &s.CreatePending
	case action.MethodUpdate:
		return &s.UpdatePending
	case action.MethodPatch:
		return &s.PatchPending
	case action.MethodRemove:
		return &s.RemovePending
	}
	return nil
}

// Plain backs records with *Status values; every merge copies the struct
type Plain struct{}

var _ Backing[*Status] = Plain{}

func (Plain) Name() string { return "plain" }

func (Plain) Default() *Status { return DefaultStatus() }

func (Plain) Absent(s *Status) bool { return s == nil }

func (Plain) TracksPending() bool { return true }

func (Plain) Value(s *Status, f Field) any {
	if s == nil {
		return nil
	}
	switch f {
	case FieldIsError:
		if s.IsError == nil {
			return nil
		}
		return s.IsError
	case FieldIsLoading:
		return s.IsLoading
	case FieldIsSaving:
		return s.IsSaving
	case FieldIsFinished:
		return s.IsFinished
	case FieldData:
		return s.Data
	case FieldQueryResult:
		return s.QueryResult
	case FieldStore:
		return s.Store
	}
	for _, m := range action.Methods() {
		if f == PendingField(m) {
			return *s.pending(m)
		}
	}
	return nil
}

func (p Plain) Bool(s *Status, f Field) bool {
	b, _ := p.Value(s, f).(bool)
	return b
}

func (Plain) Merge(s *Status, fields Fields) *Status {
	next := Status{}
	if s != nil {
		next = *s
	}
	for f, v := range fields {
		switch f {
		case FieldIsError:
			next.IsError = action.AsError(v)
		case FieldIsLoading:
			next.IsLoading, _ = v.(bool)
		case FieldIsSaving:
			next.IsSaving, _ = v.(bool)
		case FieldIsFinished:
			next.IsFinished, _ = v.(bool)
		case FieldData:
			next.Data = v
		case FieldQueryResult:
			next.QueryResult = v
		case FieldStore:
			next.Store = v
		default:
			for _, m := range action.Methods() {
				if f == PendingField(m) {
					*next.pending(m), _ = v.(bool)
				}
			}
		}
	}
	return &next
}
