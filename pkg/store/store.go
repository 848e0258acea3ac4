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

package store

import (
	"context"
	"sort"
	"sync"

	"github.com/rs/zerolog"
	"github.com/walteh/reduxify/pkg/action"
	"github.com/walteh/reduxify/pkg/reducer"
)

// State is the root state: one record per service key
type State[S any] map[string]S

// Listener is notified after every dispatch with the new root state
type Listener[S any] func(a action.Action, state State[S])

// 🏪 Store composes per-service reducers under their keys and serializes dispatches
type Store[S any] struct {
	reducers map[string]*reducer.Reducer[S]
	logger   *zerolog.Logger
	metrics  *Metrics

	mu    sync.Mutex
	state State[S]

	subMu     sync.RWMutex
	listeners map[int]Listener[S]
	nextID    int
}

// Option configures a Store
type Option[S any] func(*Store[S])

// WithLogger logs every dispatched action at debug level
func WithLogger[S any](logger *zerolog.Logger) Option[S] {
	return func(s *Store[S]) {
		s.logger = logger
	}
}

// WithMetrics records dispatches in a prometheus collector
func WithMetrics[S any](m *Metrics) Option[S] {
	return func(s *Store[S]) {
		s.metrics = m
	}
}

// 🏭 New creates a store and seeds every slice with its reducer's default
func New[S any](reducers map[string]*reducer.Reducer[S], opts ...Option[S]) *Store[S] {
	nop := zerolog.Nop()
	s := &Store[S]{
		reducers:  make(map[string]*reducer.Reducer[S], len(reducers)),
		logger:    &nop,
		state:     make(State[S], len(reducers)),
		listeners: map[int]Listener[S]{},
	}
	for key, r := range reducers {
		s.reducers[key] = r
		s.state[key] = r.Init()
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Keys lists the slice keys in sorted order
func (s *Store[S]) Keys() []string {
	keys := make([]string, 0, len(s.reducers))
	for k := range s.reducers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Dispatch runs every reducer over a and swaps in the new root. Listeners run
// after the lock is released, so they may dispatch.
func (s *Store[S]) Dispatch(a action.Action) {
	s.mu.Lock()
	next := make(State[S], len(s.state))
	for key, r := range s.reducers {
		next[key] = r.Reduce(s.state[key], a)
	}
	s.state = next
	s.mu.Unlock()

	s.logger.Debug().Str("type", a.Type).Msg("dispatched")
	if s.metrics != nil {
		s.metrics.observe(s.labels(a))
	}

	s.subMu.RLock()
	listeners := make([]Listener[S], 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.subMu.RUnlock()

	for _, l := range listeners {
		l(a, next)
	}
}

// labels names the service and step of a for metrics. Actions no reducer
// claims are counted under an empty service with step "unknown".
func (s *Store[S]) labels(a action.Action) (string, string) {
	for _, r := range s.reducers {
		p, ok := action.Parse(action.Prefix(r.Service()), a.Type)
		if !ok {
			continue
		}
		switch p.Kind {
		case action.KindReset:
			return r.Service(), "RESET"
		case action.KindStore:
			return r.Service(), "STORE"
		}
		return r.Service(), string(p.Step)
	}
	return "", "unknown"
}

// GetState returns the current root. The map is never written after it is
// published, so callers may read it freely but must not modify it.
func (s *Store[S]) GetState() State[S] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe registers l and returns a function removing it
func (s *Store[S]) Subscribe(l Listener[S]) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	id := s.nextID
	s.nextID++
	s.listeners[id] = l

	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.listeners, id)
	}
}

// Run executes a thunk with the store's dispatch and state accessor
func (s *Store[S]) Run(thunk action.Thunk[State[S]]) {
	if thunk == nil {
		return
	}
	thunk(s.Dispatch, s.GetState)
}

// Await settles a CRUD promise through this store
func (s *Store[S]) Await(ctx context.Context, p action.Promise) (any, error) {
	if s.metrics == nil {
		return action.Settle(ctx, s.Dispatch, p)
	}

	done := s.metrics.start(p)
	res, err := action.Settle(ctx, s.Dispatch, p)
	done(err)
	return res, err
}
