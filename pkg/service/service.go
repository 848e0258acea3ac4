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
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/walteh/reduxify/pkg/action"
	"github.com/walteh/reduxify/pkg/record"
	"github.com/walteh/reduxify/pkg/reducer"
	"github.com/walteh/reduxify/pkg/store"
	"gitlab.com/tozd/go/errors"
)

// EventHandler turns a real-time event into dispatches
type EventHandler[S any] func(event string, data any, dispatch action.Dispatch, getState func() store.State[S])

// 🔌 Binding holds the action creators and reducer for one wrapped service
type Binding[S any] struct {
	Name    string
	Path    string
	Reducer *reducer.Reducer[S]
	// Index is the position of the entry after glob expansion
	Index int

	svc Service
}

// Services maps alias to binding
type Services[S any] map[string]*Binding[S]

// 🏭 Reduxify binds every entry of client to action creators and a reducer
// writing records through backing b.
func Reduxify[S any](ctx context.Context, client Client, entries []Entry, b record.Backing[S]) (Services[S], error) {
	logger := zerolog.Ctx(ctx)

	if client == nil {
		return nil, errors.Errorf("client is required")
	}
	if b == nil {
		return nil, errors.Errorf("record backing is required")
	}

	expanded, err := Expand(ctx, client, entries)
	if err != nil {
		return nil, errors.Errorf("expanding services: %w", err)
	}

	out := make(Services[S], len(expanded))
	// action types uppercase the alias, so aliases differing only in case collide
	seen := make(map[string]string, len(expanded))
	for i, e := range expanded {
		name := e.Name()
		if name == "" {
			return nil, errors.Errorf("service entry has neither path nor alias")
		}
		if prev, dup := seen[strings.ToUpper(name)]; dup {
			return nil, errors.Errorf("duplicate service alias %q (collides with %q)", name, prev)
		}
		seen[strings.ToUpper(name)] = name

		svc, err := client.Service(e.Path)
		if err != nil {
			return nil, errors.Errorf("looking up service %q: %w", e.Path, err)
		}

		out[name] = &Binding[S]{
			Name:    name,
			Path:    e.Path,
			Reducer: reducer.New(name, b),
			Index:   i,
			svc:     svc,
		}
		logger.Debug().Str("path", e.Path).Str("alias", name).Str("backing", b.Name()).Msg("reduxified service")
	}

	return out, nil
}

// Names lists the aliases in sorted order
func (s Services[S]) Names() []string {
	names := make([]string, 0, len(s))
	for n := range s {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Order lists the aliases in entry order, the order status lookups default to
func (s Services[S]) Order() []string {
	names := s.Names()
	sort.SliceStable(names, func(i, j int) bool { return s[names[i]].Index < s[names[j]].Index })
	return names
}

// Reducers is the per-key reducer map a store composes
func (s Services[S]) Reducers() map[string]*reducer.Reducer[S] {
	out := make(map[string]*reducer.Reducer[S], len(s))
	for n, b := range s {
		out[n] = b.Reducer
	}
	return out
}

func (b *Binding[S]) promise(m action.Method, call func(ctx context.Context) (any, error)) action.Promise {
	return action.Promise{Service: b.Name, Method: m, Call: call}
}

// Find wraps Service.Find
func (b *Binding[S]) Find(params Params) action.Promise {
	return b.promise(action.MethodFind, func(ctx context.Context) (any, error) {
		return b.svc.Find(ctx, params)
	})
}

// Get wraps Service.Get
func (b *Binding[S]) Get(id any, params Params) action.Promise {
	return b.promise(action.MethodGet, func(ctx context.Context) (any, error) {
		return b.svc.Get(ctx, id, params)
	})
}

// Create wraps Service.Create
func (b *Binding[S]) Create(data any, params Params) action.Promise {
	return b.promise(action.MethodCreate, func(ctx context.Context) (any, error) {
		return b.svc.Create(ctx, data, params)
	})
}

// Update wraps Service.Update
func (b *Binding[S]) Update(id any, data any, params Params) action.Promise {
	return b.promise(action.MethodUpdate, func(ctx context.Context) (any, error) {
		return b.svc.Update(ctx, id, data, params)
	})
}

// Patch wraps Service.Patch
func (b *Binding[S]) Patch(id any, data any, params Params) action.Promise {
	return b.promise(action.MethodPatch, func(ctx context.Context) (any, error) {
		return b.svc.Patch(ctx, id, data, params)
	})
}

// Remove wraps Service.Remove
func (b *Binding[S]) Remove(id any, params Params) action.Promise {
	return b.promise(action.MethodRemove, func(ctx context.Context) (any, error) {
		return b.svc.Remove(ctx, id, params)
	})
}

// Call builds the promise for m from generic arguments, as a script would
func (b *Binding[S]) Call(m action.Method, id any, data any, params Params) (action.Promise, error) {
	switch m {
	case action.MethodFind:
		return b.Find(params), nil
	case action.MethodGet:
		return b.Get(id, params), nil
	case action.MethodCreate:
		return b.Create(data, params), nil
	case action.MethodUpdate:
		return b.Update(id, data, params), nil
	case action.MethodPatch:
		return b.Patch(id, data, params), nil
	case action.MethodRemove:
		return b.Remove(id, params), nil
	}
	return action.Promise{}, errors.Errorf("unknown method %q", m)
}

// On returns a thunk that hands the event to handler along with the store's
// dispatch and state accessor.
func (b *Binding[S]) On(event string, data any, handler EventHandler[S]) action.Thunk[store.State[S]] {
	return func(dispatch action.Dispatch, getState func() store.State[S]) {
		handler(event, data, dispatch, getState)
	}
}

// Listen subscribes to the service's real-time events and runs each delivery
// through st as an On thunk. The returned function unsubscribes from all of them.
func (b *Binding[S]) Listen(st *store.Store[S], handler EventHandler[S], events ...string) func() {
	offs := make([]func(), 0, len(events))
	for _, event := range events {
		offs = append(offs, b.svc.On(event, func(data any) {
			st.Run(b.On(event, data, handler))
		}))
	}
	return func() {
		for _, off := range offs {
			off()
		}
	}
}

// Reset builds the RESET action; keepQuery preserves queryResult
func (b *Binding[S]) Reset(keepQuery ...bool) action.Action {
	a := action.Action{Type: action.ResetType(b.Name)}
	if len(keepQuery) > 0 && keepQuery[0] {
		a.Payload = true
	}
	return a
}

// Store builds the STORE action carrying value
func (b *Binding[S]) Store(value any) action.Action {
	return action.Action{Type: action.StoreType(b.Name), Payload: value}
}

// Types lists every action type this binding can produce
func (b *Binding[S]) Types() []string {
	return action.AllTypes(b.Name)
}
