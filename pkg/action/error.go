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
	"fmt"
)

// ❌ Error is the rejection shape service clients deliver
type Error struct {
	Message   string `json:"message" yaml:"message"`
	ClassName string `json:"className,omitempty" yaml:"className,omitempty"`
	Code      int    `json:"code,omitempty" yaml:"code,omitempty"`
	Data      any    `json:"data,omitempty" yaml:"data,omitempty"`
}

// NewError builds a service error
func NewError(className string, code int, msg string) *Error {
	return &Error{Message: msg, ClassName: className, Code: code}
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

// GetClassName returns the class used when rendering the error in a status
func (e *Error) GetClassName() string {
	if e == nil {
		return ""
	}
	return e.ClassName
}

// AsError normalizes a rejection payload into an error. Errors pass through
// verbatim, strings become an *Error carrying that message and an object with
// a "message" key becomes an *Error built from its fields. A nil *Error is nil.
func AsError(payload any) error {
	switch p := payload.(type) {
	case nil:
		return nil
	case *Error:
		if p == nil {
			return nil
		}
		return p
	case error:
		return p
	case string:
		return &Error{Message: p}
	case map[string]any:
		if e, ok := fromObject(p); ok {
			return e
		}
	}
	return &Error{Message: fmt.Sprintf("%v", payload)}
}

func fromObject(m map[string]any) (*Error, bool) {
	raw, ok := m["message"]
	if !ok {
		return nil, false
	}
	msg, ok := raw.(string)
	if !ok {
		return nil, false
	}

	e := &Error{Message: msg, Data: m["data"]}
	e.ClassName, _ = m["className"].(string)
	switch c := m["code"].(type) {
	case int:
		e.Code = c
	case int64:
		e.Code = int(c)
	case float64:
		e.Code = int(c)
	}
	return e, true
}
