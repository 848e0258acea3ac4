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
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/reduxify/pkg/action"
	"github.com/walteh/reduxify/pkg/record"
	"github.com/walteh/reduxify/pkg/service"
	"github.com/walteh/reduxify/pkg/store"
	"gitlab.com/tozd/go/errors"
)

func testContext(t *testing.T) context.Context {
	logger := zerolog.New(zerolog.TestWriter{T: t}).With().Timestamp().Logger()
	return logger.WithContext(context.Background())
}

func seeded() *Service {
	return NewService(
		map[string]any{"name": "alice", "role": "admin"},
		map[string]any{"name": "bob", "role": "user"},
		map[string]any{"name": "carol", "role": "admin"},
	)
}

func TestApp(t *testing.T) {
	app := New().Use("users", NewService()).Use("messages", NewService())
	assert.Equal(t, []string{"messages", "users"}, app.Paths())

	_, err := app.Service("users")
	require.NoError(t, err)
	_, err = app.Service("todos")
	require.Error(t, err)
}

func TestSeedIDs(t *testing.T) {
	ctx := testContext(t)
	svc := NewService(
		map[string]any{"id": 1, "name": "alice"},
		map[string]any{"name": "bob"},
		map[string]any{"id": 2, "name": "carol"},
		map[string]any{"id": 7, "name": "dave"},
		map[string]any{"name": "erin"},
	)

	assert.Equal(t, 4, svc.Len(), "colliding seed is skipped")

	res, err := svc.Get(ctx, 2, nil)
	require.NoError(t, err)
	assert.Equal(t, "bob", res.(map[string]any)["name"], "auto-assigned record is kept")

	res, err = svc.Get(ctx, 8, nil)
	require.NoError(t, err)
	assert.Equal(t, "erin", res.(map[string]any)["name"])
}

func TestFind(t *testing.T) {
	ctx := testContext(t)
	svc := seeded()

	tests := []struct {
		name      string
		query     map[string]any
		wantNames []string
		wantTotal int
	}{
		{"all", nil, []string{"alice", "bob", "carol"}, 3},
		{"filter", map[string]any{"role": "admin"}, []string{"alice", "carol"}, 2},
		{"filter_by_id", map[string]any{"id": 2}, []string{"bob"}, 1},
		{"filter_by_float_id", map[string]any{"id": 2.0}, []string{"bob"}, 1},
		{"fractional_never_matches_int", map[string]any{"id": 1.5}, []string{}, 0},
		{"limit", map[string]any{"$limit": 2}, []string{"alice", "bob"}, 3},
		{"skip", map[string]any{"$skip": 1}, []string{"bob", "carol"}, 3},
		{"skip_past_end", map[string]any{"$skip": 10}, []string{}, 3},
		{"no_match", map[string]any{"role": "owner"}, []string{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var params service.Params
			if tt.query != nil {
				params = service.Params{"query": tt.query}
			}
			res, err := svc.Find(ctx, params)
			require.NoError(t, err)

			qr, ok := res.(record.QueryResult)
			require.True(t, ok, "find returns a query result")
			assert.Equal(t, tt.wantTotal, qr.Total)

			names := []string{}
			for _, d := range qr.Data {
				names = append(names, d.(map[string]any)["name"].(string))
			}
			assert.Equal(t, tt.wantNames, names)
		})
	}

	t.Run("bad_limit", func(t *testing.T) {
		_, err := svc.Find(ctx, service.Params{"query": map[string]any{"$limit": "many"}})
		require.Error(t, err)
	})
}

func TestGet(t *testing.T) {
	ctx := testContext(t)
	svc := seeded()

	res, err := svc.Get(ctx, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"id": 1, "name": "alice", "role": "admin"}, res)

	res, err = svc.Get(ctx, "3", nil)
	require.NoError(t, err)
	assert.Equal(t, "carol", res.(map[string]any)["name"])

	_, err = svc.Get(ctx, 99, nil)
	require.Error(t, err)
	var ae *action.Error
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, "not-found", ae.ClassName)
	assert.Equal(t, 404, ae.Code)

	// mutating the result leaves the stored record alone
	res, err = svc.Get(ctx, 1, nil)
	require.NoError(t, err)
	res.(map[string]any)["name"] = "mallory"
	res, err = svc.Get(ctx, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, "alice", res.(map[string]any)["name"])
}

func TestMutations(t *testing.T) {
	ctx := testContext(t)
	svc := seeded()

	var events []string
	for _, e := range []string{EventCreated, EventUpdated, EventPatched, EventRemoved} {
		svc.On(e, func(data any) {
			events = append(events, e)
		})
	}

	created, err := svc.Create(ctx, map[string]any{"name": "dave", "id": 1}, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, created.(map[string]any)["id"], "create ignores a caller supplied id")

	updated, err := svc.Update(ctx, 4, map[string]any{"nick": "d"}, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"id": 4, "nick": "d"}, updated)

	patched, err := svc.Patch(ctx, 4, map[string]any{"name": "dave"}, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"id": 4, "nick": "d", "name": "dave"}, patched)

	removed, err := svc.Remove(ctx, 4, nil)
	require.NoError(t, err)
	assert.Equal(t, "dave", removed.(map[string]any)["name"])
	assert.Equal(t, 3, svc.Len())

	assert.Equal(t, []string{EventCreated, EventUpdated, EventPatched, EventRemoved}, events)

	_, err = svc.Create(ctx, "not an object", nil)
	require.Error(t, err)
	_, err = svc.Remove(ctx, 4, nil)
	require.Error(t, err)
}

func TestOff(t *testing.T) {
	ctx := testContext(t)
	svc := NewService()

	calls := 0
	off := svc.On(EventCreated, func(any) { calls++ })

	_, err := svc.Create(ctx, map[string]any{}, nil)
	require.NoError(t, err)
	off()
	_, err = svc.Create(ctx, map[string]any{}, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
}

func TestFailAndCancel(t *testing.T) {
	ctx := testContext(t)
	svc := seeded()

	svc.Fail(action.MethodFind, action.NewError("timeout", 408, "too slow"))
	_, err := svc.Find(ctx, nil)
	require.Error(t, err)
	assert.Equal(t, "too slow", err.Error())

	_, err = svc.Find(ctx, nil)
	require.NoError(t, err, "failures are consumed by one call")

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = svc.Get(cancelled, 1, nil)
	require.ErrorIs(t, err, context.Canceled)
}

func TestWithStore(t *testing.T) {
	ctx := testContext(t)
	app := New().Use("users", seeded())

	services, err := service.Reduxify(ctx, app, service.List("users"), record.Plain{})
	require.NoError(t, err)
	st := store.New(services.Reducers())

	_, err = st.Await(ctx, services["users"].Find(service.Params{"query": map[string]any{"role": "admin"}}))
	require.NoError(t, err)

	users := st.GetState()["users"]
	assert.True(t, users.IsFinished)
	require.NotNil(t, users.QueryResult)
	assert.Equal(t, 2, users.QueryResult.(record.QueryResult).Total)

	_, err = st.Await(ctx, services["users"].Get(42, nil))
	require.Error(t, err)
	assert.Equal(t, "No record found for id '42'", st.GetState()["users"].IsError.Error())
}
