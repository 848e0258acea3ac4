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
	"context"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// Dispatch delivers an action to a store
type Dispatch func(Action)

// Thunk is a deferred action run with the store's dispatch and state accessor
type Thunk[R any] func(dispatch Dispatch, getState func() R)

// 🤝 Promise is a CRUD call that has not been settled yet
type Promise struct {
	Service string
	Method  Method
	Call    func(ctx context.Context) (any, error)
}

// Type returns the action type for the given step of this call
func (p Promise) Type(s Step) string {
	return TypeOf(p.Service, p.Method, s)
}

// Settle dispatches PENDING, runs the call, then dispatches exactly one of
// FULFILLED or REJECTED. Overlapping calls are not coordinated: each produces
// its own pair and whichever settles last wins in the reducer.
func Settle(ctx context.Context, dispatch Dispatch, p Promise) (any, error) {
	if dispatch == nil {
		return nil, errors.Errorf("settling %s.%s: nil dispatch", p.Service, p.Method)
	}
	if p.Call == nil {
		return nil, errors.Errorf("settling %s.%s: nil call", p.Service, p.Method)
	}

	logger := zerolog.Ctx(ctx)

	dispatch(Action{Type: p.Type(StepPending)})

	result, err := p.Call(ctx)
	if err != nil {
		logger.Debug().Err(err).Str("service", p.Service).Str("method", string(p.Method)).Msg("call rejected")
		dispatch(Action{Type: p.Type(StepRejected), Payload: err})
		return nil, err
	}

	logger.Debug().Str("service", p.Service).Str("method", string(p.Method)).Msg("call fulfilled")
	dispatch(Action{Type: p.Type(StepFulfilled), Payload: result})
	return result, nil
}
