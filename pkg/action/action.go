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

package action

import (
	"strings"
)

// 📨 Action is the record every reducer folds
type Action struct {
	Type    string `json:"type" yaml:"type"`
	Payload any    `json:"payload,omitempty" yaml:"payload,omitempty"`
}

// 🔧 Method is one of the six CRUD methods a service exposes
type Method string

const (
	MethodFind   Method = "find"
	MethodGet    Method = "get"
	MethodCreate Method = "create"
	MethodUpdate Method = "update"
	MethodPatch  Method = "patch"
	MethodRemove Method = "remove"
)

var methods = []Method{MethodFind, MethodGet, MethodCreate, MethodUpdate, MethodPatch, MethodRemove}

// Methods returns every CRUD method in canonical order
func Methods() []Method {
	out := make([]Method, len(methods))
	copy(out, methods)
	return out
}

// ParseMethod resolves a method name, ignoring case
func ParseMethod(s string) (Method, bool) {
	for _, m := range methods {
		if strings.EqualFold(string(m), s) {
			return m, true
		}
	}
	return "", false
}

// IsRead reports whether the method only reads (find/get), which drives isLoading vs isSaving
func (m Method) IsRead() bool {
	return m == MethodFind || m == MethodGet
}

func (m Method) upper() string {
	return strings.ToUpper(string(m))
}

// ⏳ Step is a lifecycle stage of an asynchronous call
type Step string

const (
	StepPending   Step = "PENDING"
	StepFulfilled Step = "FULFILLED"
	StepRejected  Step = "REJECTED"
)

var steps = []Step{StepPending, StepFulfilled, StepRejected}

// Steps returns the three lifecycle steps in order
func Steps() []Step {
	out := make([]Step, len(steps))
	copy(out, steps)
	return out
}

const (
	typeNamespace = "SERVICES"
	suffixReset   = "RESET"
	suffixStore   = "STORE"
)

// Prefix is the action-type prefix shared by every action of a service
func Prefix(service string) string {
	return typeNamespace + "_" + strings.ToUpper(service) + "_"
}

// TypeOf builds SERVICES_<SERVICE>_<METHOD>_<STEP>
func TypeOf(service string, m Method, s Step) string {
	return Prefix(service) + m.upper() + "_" + string(s)
}

// ResetType builds SERVICES_<SERVICE>_RESET
func ResetType(service string) string {
	return Prefix(service) + suffixReset
}

// StoreType builds SERVICES_<SERVICE>_STORE
func StoreType(service string) string {
	return Prefix(service) + suffixStore
}

// AllTypes lists every action type a service can emit, lifecycle first
func AllTypes(service string) []string {
	out := make([]string, 0, len(methods)*len(steps)+2)
	for _, m := range methods {
		for _, s := range steps {
			out = append(out, TypeOf(service, m, s))
		}
	}
	return append(out, ResetType(service), StoreType(service))
}

// 🏷️ Kind classifies a parsed action type
type Kind int

const (
	KindUnknown Kind = iota
	KindLifecycle
	KindReset
	KindStore
)

// Parsed is the result of matching an action type against a service prefix
type Parsed struct {
	Kind   Kind
	Method Method
	Step   Step
}

// Parse matches typ against prefix. Only an exact suffix counts, so a longer
// service name sharing the prefix never matches.
func Parse(prefix, typ string) (Parsed, bool) {
	suffix, ok := strings.CutPrefix(typ, prefix)
	if !ok {
		return Parsed{}, false
	}

	switch suffix {
	case suffixReset:
		return Parsed{Kind: KindReset}, true
	case suffixStore:
		return Parsed{Kind: KindStore}, true
	}

	for _, m := range methods {
		rest, ok := strings.CutPrefix(suffix, m.upper()+"_")
		if !ok {
			continue
		}
		for _, s := range steps {
			if rest == string(s) {
				return Parsed{Kind: KindLifecycle, Method: m, Step: s}, true
			}
		}
	}

	return Parsed{}, false
}
