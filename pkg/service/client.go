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
)

// Params carries call options, e.g. {"query": {...}}
type Params map[string]any

// Query returns params["query"] as a map, or nil
func (p Params) Query() map[string]any {
	if p == nil {
		return nil
	}
	q, _ := p["query"].(map[string]any)
	return q
}

// Listener receives the payload of a real-time event
type Listener func(data any)

// Client is the remote collaborator: a lookup of named services
type Client interface {
	// Service returns the service mounted at path
	Service(path string) (Service, error)
}

// PathLister is implemented by clients that can enumerate their services,
// which enables glob entries
type PathLister interface {
	Paths() []string
}

// Service is the capability one remote resource exposes
type Service interface {
	Find(ctx context.Context, params Params) (any, error)
	Get(ctx context.Context, id any, params Params) (any, error)
	Create(ctx context.Context, data any, params Params) (any, error)
	Update(ctx context.Context, id any, data any, params Params) (any, error)
	Patch(ctx context.Context, id any, data any, params Params) (any, error)
	Remove(ctx context.Context, id any, params Params) (any, error)

	// On registers l for event and returns a function removing it
	On(event string, l Listener) (off func())
}
