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

package memory

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/walteh/reduxify/pkg/action"
	"github.com/walteh/reduxify/pkg/record"
	"github.com/walteh/reduxify/pkg/service"
	"gitlab.com/tozd/go/errors"
)

// Event names emitted after each successful mutation
const (
	EventCreated = "created"
	EventUpdated = "updated"
	EventPatched = "patched"
	EventRemoved = "removed"
)

// IDField is the key every stored record carries its id under
const IDField = "id"

// 📦 App is an in-memory service client
type App struct {
	mu       sync.RWMutex
	services map[string]*Service
}

var _ service.Client = (*App)(nil)
var _ service.PathLister = (*App)(nil)

// New creates an empty app
func New() *App {
	return &App{services: map[string]*Service{}}
}

// Use mounts svc at path
func (a *App) Use(path string, svc *Service) *App {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.services[path] = svc
	return a
}

// Service returns the service mounted at path
func (a *App) Service(path string) (service.Service, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	svc, ok := a.services[path]
	if !ok {
		return nil, errors.Errorf("no service mounted at %q", path)
	}
	return svc, nil
}

// Paths lists mounted paths in sorted order
func (a *App) Paths() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := make([]string, 0, len(a.services))
	for p := range a.services {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// 🗄️ Service stores records keyed by an auto-incrementing integer id
type Service struct {
	mu       sync.RWMutex
	records  map[int]map[string]any
	nextID   int
	failures map[action.Method]error

	lmu          sync.RWMutex
	listeners    map[string]map[int]service.Listener
	nextListener int
}

var _ service.Service = (*Service)(nil)

// NewService creates a service seeded with records, ids assigned in order.
// A seed whose explicit id is already taken is skipped.
func NewService(seed ...map[string]any) *Service {
	s := &Service{
		records:   map[int]map[string]any{},
		nextID:    1,
		failures:  map[action.Method]error{},
		listeners: map[string]map[int]service.Listener{},
	}
	for _, r := range seed {
		if id, err := toID(r[IDField]); err == nil && id > 0 {
			if _, taken := s.records[id]; taken {
				continue
			}
		}
		s.insert(r)
	}
	return s
}

// Fail makes the next call of m return err instead of touching the store
func (s *Service) Fail(m action.Method, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[m] = err
}

// Len is the number of stored records
func (s *Service) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func (s *Service) insert(data map[string]any) map[string]any {
	rec := clone(data)
	id := s.nextID
	if given, err := toID(rec[IDField]); err == nil && given > 0 {
		id = given
	}
	if id >= s.nextID {
		s.nextID = id + 1
	}
	rec[IDField] = id
	s.records[id] = rec
	return clone(rec)
}

// begin checks ctx and consumes an injected failure
func (s *Service) begin(ctx context.Context, m action.Method) error {
	if err := ctx.Err(); err != nil {
		return errors.Errorf("%s: %w", m, err)
	}
	if err, ok := s.failures[m]; ok {
		delete(s.failures, m)
		return err
	}
	return nil
}

func (s *Service) Find(ctx context.Context, params service.Params) (any, error) {
	s.mu.Lock()
	if err := s.begin(ctx, action.MethodFind); err != nil {
		s.mu.Unlock()
		return nil, err
	}

	query := params.Query()
	ids := make([]int, 0, len(s.records))
	for id, rec := range s.records {
		if matches(rec, query) {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)

	data := make([]any, 0, len(ids))
	for _, id := range ids {
		data = append(data, clone(s.records[id]))
	}
	s.mu.Unlock()

	skip, err := intParam(query, "$skip")
	if err != nil {
		return nil, err
	}
	limit, err := intParam(query, "$limit")
	if err != nil {
		return nil, err
	}

	total := len(data)
	if skip > len(data) {
		skip = len(data)
	}
	data = data[skip:]
	if limit > 0 && limit < len(data) {
		data = data[:limit]
	}

	zerolog.Ctx(ctx).Debug().Int("total", total).Int("returned", len(data)).Msg("memory find")
	return record.QueryResult{Total: total, Limit: limit, Skip: skip, Data: data}, nil
}

func (s *Service) Get(ctx context.Context, id any, params service.Params) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.begin(ctx, action.MethodGet); err != nil {
		return nil, err
	}
	_, rec, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	return clone(rec), nil
}

func (s *Service) Create(ctx context.Context, data any, params service.Params) (any, error) {
	s.mu.Lock()
	if err := s.begin(ctx, action.MethodCreate); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	fields, err := asFields(data)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	delete(fields, IDField)
	created := s.insert(fields)
	s.mu.Unlock()

	s.emit(EventCreated, created)
	return created, nil
}

func (s *Service) Update(ctx context.Context, id any, data any, params service.Params) (any, error) {
	return s.write(ctx, action.MethodUpdate, EventUpdated, id, data, false)
}

func (s *Service) Patch(ctx context.Context, id any, data any, params service.Params) (any, error) {
	return s.write(ctx, action.MethodPatch, EventPatched, id, data, true)
}

func (s *Service) write(ctx context.Context, m action.Method, event string, id any, data any, merge bool) (any, error) {
	s.mu.Lock()
	if err := s.begin(ctx, m); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	key, rec, err := s.lookup(id)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	fields, err := asFields(data)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}

	next := map[string]any{}
	if merge {
		next = clone(rec)
	}
	for k, v := range fields {
		next[k] = v
	}
	next[IDField] = key
	s.records[key] = next
	out := clone(next)
	s.mu.Unlock()

	s.emit(event, out)
	return out, nil
}

func (s *Service) Remove(ctx context.Context, id any, params service.Params) (any, error) {
	s.mu.Lock()
	if err := s.begin(ctx, action.MethodRemove); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	key, rec, err := s.lookup(id)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	delete(s.records, key)
	s.mu.Unlock()

	s.emit(EventRemoved, rec)
	return rec, nil
}

// On registers l for event; listeners run synchronously after the mutation
func (s *Service) On(event string, l service.Listener) func() {
	s.lmu.Lock()
	defer s.lmu.Unlock()

	if s.listeners[event] == nil {
		s.listeners[event] = map[int]service.Listener{}
	}
	id := s.nextListener
	s.nextListener++
	s.listeners[event][id] = l

	return func() {
		s.lmu.Lock()
		defer s.lmu.Unlock()
		delete(s.listeners[event], id)
	}
}

func (s *Service) emit(event string, data any) {
	s.lmu.RLock()
	ids := make([]int, 0, len(s.listeners[event]))
	for id := range s.listeners[event] {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	ls := make([]service.Listener, 0, len(ids))
	for _, id := range ids {
		ls = append(ls, s.listeners[event][id])
	}
	s.lmu.RUnlock()

	for _, l := range ls {
		l(data)
	}
}

func (s *Service) lookup(id any) (int, map[string]any, error) {
	key, err := toID(id)
	if err != nil {
		return 0, nil, action.NewError("bad-request", 400, err.Error())
	}
	rec, ok := s.records[key]
	if !ok {
		return 0, nil, action.NewError("not-found", 404, fmt.Sprintf("No record found for id '%v'", id))
	}
	return key, rec, nil
}

func toID(v any) (int, error) {
	switch id := v.(type) {
	case int:
		return id, nil
	case int64:
		return int(id), nil
	case uint64:
		return int(id), nil
	case float64:
		return int(id), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(id))
		if err != nil {
			return 0, errors.Errorf("invalid id %q", id)
		}
		return n, nil
	case nil:
		return 0, errors.Errorf("missing id")
	}
	return 0, errors.Errorf("invalid id type %T", v)
}

func asFields(data any) (map[string]any, error) {
	switch d := data.(type) {
	case map[string]any:
		return clone(d), nil
	case nil:
		return map[string]any{}, nil
	}
	return nil, action.NewError("bad-request", 400, fmt.Sprintf("data must be an object, got %T", data))
}

func intParam(query map[string]any, key string) (int, error) {
	v, ok := query[key]
	if !ok {
		return 0, nil
	}
	n, err := toID(v)
	if err != nil || n < 0 {
		return 0, action.NewError("bad-request", 400, fmt.Sprintf("invalid %s %v", key, v))
	}
	return n, nil
}

func matches(rec map[string]any, query map[string]any) bool {
	for k, want := range query {
		if strings.HasPrefix(k, "$") {
			continue
		}
		got, ok := rec[k]
		if !ok || !equal(got, want) {
			return false
		}
	}
	return true
}

func equal(a, b any) bool {
	if an, ok := number(a); ok {
		if bn, ok := number(b); ok {
			return an == bn
		}
	}
	return reflect.DeepEqual(a, b)
}

// number widens the numeric types config decoders produce
func number(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func clone(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
