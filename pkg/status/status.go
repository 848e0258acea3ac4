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

package status

import (
	"fmt"

	"github.com/walteh/reduxify/pkg/record"
)

const (
	ClassError   = "isError"
	ClassLoading = "isLoading"
	ClassSaving  = "isSaving"
)

// 📊 Status is the single most relevant condition across a set of services
type Status struct {
	Message     string `json:"message" yaml:"message"`
	ClassName   string `json:"className" yaml:"className"`
	ServiceName string `json:"serviceName" yaml:"serviceName"`
}

// Idle reports whether no service is failing or in flight
func (s Status) Idle() bool {
	return s == Status{}
}

type classNamer interface {
	GetClassName() string
}

// Get scans names in order and returns the first error, else the first
// loading service, else the first saving one. Each tier is scanned across the
// whole list before the next, so an error anywhere outranks every in-flight
// request. Names missing from root are skipped.
func Get[S any](root map[string]S, b record.Backing[S], names ...string) Status {
	for _, name := range names {
		s, ok := root[name]
		if !ok || b.Absent(s) {
			continue
		}
		if msg, class, ok := errorOf(b.Value(s, record.FieldIsError)); ok {
			return Status{
				Message:     fmt.Sprintf("%s: %s", name, msg),
				ClassName:   class,
				ServiceName: name,
			}
		}
	}

	for _, name := range names {
		if s, ok := root[name]; ok && !b.Absent(s) && b.Bool(s, record.FieldIsLoading) {
			return Status{Message: loadingMessage(name), ClassName: ClassLoading, ServiceName: name}
		}
	}

	for _, name := range names {
		if s, ok := root[name]; ok && !b.Absent(s) && b.Bool(s, record.FieldIsSaving) {
			return Status{Message: savingMessage(name), ClassName: ClassSaving, ServiceName: name}
		}
	}

	return Status{}
}

// errorOf treats an empty message as no error at all
func errorOf(v any) (msg, class string, ok bool) {
	switch e := v.(type) {
	case nil:
		return "", "", false
	case error:
		msg = e.Error()
		class = ClassError
		if cn, isNamer := e.(classNamer); isNamer && cn.GetClassName() != "" {
			class = cn.GetClassName()
		}
	case string:
		msg = e
		class = ClassError
	default:
		return "", "", false
	}
	return msg, class, msg != ""
}

func loadingMessage(name string) string {
	return name + " is loading"
}

func savingMessage(name string) string {
	return name + " is saving"
}
