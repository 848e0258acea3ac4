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

package reducer

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/reduxify/pkg/action"
	"github.com/walteh/reduxify/pkg/record"
)

func lifecycleAction(m action.Method, step action.Step, payload any) action.Action {
	return action.Action{Type: action.TypeOf("users", m, step), Payload: payload}
}

// 🧪 testBacking runs the shared transition table against one encoding
func testBacking[S any](t *testing.T, b record.Backing[S]) {
	r := New[S]("users", b)
	var absent S

	seeded := func() S {
		return b.Merge(b.Default(), record.Fields{
			record.FieldData:        map[string]any{"a": "a"},
			record.FieldQueryResult: []any{map[string]any{"a": "a"}},
		})
	}

	t.Run("initial_state", func(t *testing.T) {
		state := r.Reduce(absent, action.Action{Type: "@@INIT"})
		require.False(t, b.Absent(state))
		assert.Equal(t, record.Snapshot(b, b.Default()), record.Snapshot(b, state))
	})

	t.Run("unknown_action_returns_previous", func(t *testing.T) {
		prev := seeded()
		next := r.Reduce(prev, action.Action{Type: "SERVICES_MESSAGES_FIND_PENDING"})
		assert.Equal(t, record.Snapshot(b, prev), record.Snapshot(b, next))
	})

	for _, m := range action.Methods() {
		t.Run(fmt.Sprintf("%s_pending", m), func(t *testing.T) {
			prev := seeded()
			state := r.Reduce(prev, lifecycleAction(m, action.StepPending, nil))

			assert.Equal(t, m.IsRead(), b.Bool(state, record.FieldIsLoading), "isLoading")
			assert.Equal(t, !m.IsRead(), b.Bool(state, record.FieldIsSaving), "isSaving")
			assert.False(t, b.Bool(state, record.FieldIsFinished), "isFinished")
			assert.Nil(t, b.Value(state, record.FieldIsError), "isError")
			assert.Equal(t, b.Value(prev, record.FieldData), b.Value(state, record.FieldData), "data unchanged")
			assert.Equal(t, b.Value(prev, record.FieldQueryResult), b.Value(state, record.FieldQueryResult), "queryResult unchanged")

			if b.TracksPending() {
				for _, other := range action.Methods() {
					assert.Equal(t, other == m, b.Bool(state, record.PendingField(other)), "%sPending", other)
				}
			}
		})

		t.Run(fmt.Sprintf("%s_fulfilled", m), func(t *testing.T) {
			prev := r.Reduce(seeded(), lifecycleAction(m, action.StepPending, nil))
			state := r.Reduce(prev, lifecycleAction(m, action.StepFulfilled, "xxx"))

			assert.False(t, b.Bool(state, record.FieldIsLoading), "isLoading")
			assert.False(t, b.Bool(state, record.FieldIsSaving), "isSaving")
			assert.True(t, b.Bool(state, record.FieldIsFinished), "isFinished")
			assert.Nil(t, b.Value(state, record.FieldIsError), "isError")

			if m == action.MethodFind {
				assert.Equal(t, "xxx", b.Value(state, record.FieldQueryResult))
				assert.Equal(t, b.Value(prev, record.FieldData), b.Value(state, record.FieldData), "data unchanged")
			} else {
				assert.Equal(t, "xxx", b.Value(state, record.FieldData))
				assert.Equal(t, b.Value(prev, record.FieldQueryResult), b.Value(state, record.FieldQueryResult), "queryResult unchanged")
			}

			if b.TracksPending() {
				assert.False(t, b.Bool(state, record.PendingField(m)))
			}
		})

		t.Run(fmt.Sprintf("%s_rejected", m), func(t *testing.T) {
			prev := r.Reduce(seeded(), lifecycleAction(m, action.StepPending, nil))
			state := r.Reduce(prev, lifecycleAction(m, action.StepRejected, action.NewError("yyy", 400, "xxx")))

			assert.False(t, b.Bool(state, record.FieldIsLoading), "isLoading")
			assert.False(t, b.Bool(state, record.FieldIsSaving), "isSaving")
			assert.True(t, b.Bool(state, record.FieldIsFinished), "isFinished")

			err, ok := b.Value(state, record.FieldIsError).(error)
			require.True(t, ok, "isError holds an error")
			assert.Equal(t, "xxx", err.Error())

			assert.Equal(t, b.Value(prev, record.FieldData), b.Value(state, record.FieldData), "data unchanged")
			assert.Equal(t, b.Value(prev, record.FieldQueryResult), b.Value(state, record.FieldQueryResult), "queryResult unchanged")
		})
	}

	t.Run("rejected_string_payload", func(t *testing.T) {
		state := r.Reduce(absent, lifecycleAction(action.MethodGet, action.StepRejected, "xxx"))
		err, ok := b.Value(state, record.FieldIsError).(error)
		require.True(t, ok)
		assert.Equal(t, "xxx", err.Error())
	})

	t.Run("error_cleared_by_next_pending", func(t *testing.T) {
		state := r.Reduce(absent, lifecycleAction(action.MethodGet, action.StepRejected, "xxx"))
		state = r.Reduce(state, lifecycleAction(action.MethodGet, action.StepPending, nil))
		assert.Nil(t, b.Value(state, record.FieldIsError))
	})

	t.Run("reset", func(t *testing.T) {
		prev := r.Reduce(seeded(), action.Action{Type: action.StoreType("users"), Payload: "harry"})
		state := r.Reduce(prev, action.Action{Type: action.ResetType("users")})
		assert.Equal(t, record.Snapshot(b, b.Default()), record.Snapshot(b, state))
	})

	t.Run("reset_keep_query", func(t *testing.T) {
		prev := seeded()
		state := r.Reduce(prev, action.Action{Type: action.ResetType("users"), Payload: true})

		want := record.Snapshot(b, b.Default())
		want[string(record.FieldQueryResult)] = b.Value(prev, record.FieldQueryResult)
		assert.Equal(t, want, record.Snapshot(b, state))
	})

	for _, f := range []record.Field{record.FieldIsLoading, record.FieldIsSaving} {
		t.Run(fmt.Sprintf("reset_ignored_while_%s", f), func(t *testing.T) {
			prev := b.Merge(seeded(), record.Fields{f: true})
			state := r.Reduce(prev, action.Action{Type: action.ResetType("users")})
			assert.Equal(t, record.Snapshot(b, prev), record.Snapshot(b, state))
		})
	}

	t.Run("store_changes_only_store", func(t *testing.T) {
		prev := r.Reduce(seeded(), lifecycleAction(action.MethodPatch, action.StepRejected, "xxx"))
		state := r.Reduce(prev, action.Action{Type: action.StoreType("users"), Payload: "harry"})

		want := record.Snapshot(b, prev)
		want[string(record.FieldStore)] = "harry"
		assert.Equal(t, want, record.Snapshot(b, state))
	})

	t.Run("previous_state_not_mutated", func(t *testing.T) {
		prev := b.Default()
		before := record.Snapshot(b, prev)
		_ = r.Reduce(prev, lifecycleAction(action.MethodCreate, action.StepPending, nil))
		_ = r.Reduce(prev, action.Action{Type: action.StoreType("users"), Payload: "harry"})
		assert.Equal(t, before, record.Snapshot(b, prev))
	})

	t.Run("invariants_hold_over_sequences", func(t *testing.T) {
		state := r.Init()
		for _, m := range action.Methods() {
			for _, step := range action.Steps() {
				state = r.Reduce(state, lifecycleAction(m, step, "xxx"))
				loading := b.Bool(state, record.FieldIsLoading)
				saving := b.Bool(state, record.FieldIsSaving)
				finished := b.Bool(state, record.FieldIsFinished)
				assert.False(t, loading && saving, "%s %s: loading and saving", m, step)
				assert.False(t, finished && (loading || saving), "%s %s: finished while in flight", m, step)
			}
		}
	})
}

func TestReducerPlain(t *testing.T) {
	testBacking[*record.Status](t, record.Plain{})
}

func TestReducerPersistent(t *testing.T) {
	testBacking[record.Map](t, record.Persistent{})
}

func TestReducerServiceScoping(t *testing.T) {
	users := New[*record.Status]("users", record.Plain{})
	prev := users.Init()

	next := users.Reduce(prev, action.Action{Type: "SERVICES_USERS_ADMIN_FIND_PENDING"})
	assert.Same(t, prev, next, "a longer service name sharing the prefix is ignored")

	next = users.Reduce(prev, action.Action{Type: "SERVICES_USERS_FIND_PENDING"})
	assert.NotSame(t, prev, next)
	assert.True(t, next.IsLoading)
	assert.True(t, next.FindPending)
}

func TestReducerFunc(t *testing.T) {
	r := New[record.Map]("messages", record.Persistent{})
	fn := r.Func()

	state := fn(nil, action.Action{Type: action.TypeOf("messages", action.MethodCreate, action.StepPending)})
	assert.True(t, r.Backing().Bool(state, record.FieldIsSaving))
	assert.Equal(t, "messages", r.Service())
}

func TestKeepQuery(t *testing.T) {
	assert.False(t, keepQuery(nil))
	assert.False(t, keepQuery(false))
	assert.False(t, keepQuery(""))
	assert.False(t, keepQuery(0))
	assert.True(t, keepQuery(true))
	assert.True(t, keepQuery("yes"))
	assert.True(t, keepQuery(1))
	assert.True(t, keepQuery(map[string]any{}))
}
