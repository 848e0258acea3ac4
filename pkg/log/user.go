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

package log

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
	"github.com/walteh/reduxify/pkg/action"
	"github.com/walteh/reduxify/pkg/store"
)

// 📢 UserLogger prints every dispatched action as a friendly line
type UserLogger struct {
	log      zerolog.Logger
	out      io.Writer
	services []string
	mu       sync.Mutex
}

// 🎯 NewUserLogger creates a user logger for the named services
func NewUserLogger(ctx context.Context, out io.Writer, services ...string) *UserLogger {
	return &UserLogger{
		log:      *zerolog.Ctx(ctx),
		out:      out,
		services: services,
	}
}

// Listen adapts u into a store listener
func Listen[S any](u *UserLogger) store.Listener[S] {
	return func(a action.Action, _ store.State[S]) {
		u.LogAction(a)
	}
}

func (u *UserLogger) match(typ string) (string, action.Parsed, bool) {
	for _, name := range u.services {
		if p, ok := action.Parse(action.Prefix(name), typ); ok {
			return name, p, true
		}
	}
	return "", action.Parsed{}, false
}

// 📝 LogAction prints a with a prefix for its kind and step
func (u *UserLogger) LogAction(a action.Action) {
	u.mu.Lock()
	defer u.mu.Unlock()

	name, p, ok := u.match(a.Type)
	if !ok {
		pterm.Warning.WithWriter(u.out).WithPrefix(pterm.Prefix{Text: "❓"}).Println(a.Type)
		u.log.Warn().Str("type", a.Type).Msg("unrecognized action")
		return
	}

	var printer *pterm.PrefixPrinter
	var msg string
	switch p.Kind {
	case action.KindReset:
		printer = pterm.Info.WithPrefix(pterm.Prefix{Text: "🔄"})
		msg = fmt.Sprintf("%s reset", name)
		if a.Payload == true {
			msg += " (query kept)"
		}
	case action.KindStore:
		printer = pterm.Info.WithPrefix(pterm.Prefix{Text: "📦"})
		msg = fmt.Sprintf("%s store %v", name, a.Payload)
	default:
		msg = fmt.Sprintf("%s %s", name, p.Method)
		switch p.Step {
		case action.StepPending:
			printer = pterm.Info.WithPrefix(pterm.Prefix{Text: "⏳"})
			msg += " pending"
		case action.StepFulfilled:
			printer = pterm.Success.WithPrefix(pterm.Prefix{Text: "✅"})
			msg += " fulfilled"
		case action.StepRejected:
			printer = pterm.Error.WithPrefix(pterm.Prefix{Text: "❌"})
			msg += fmt.Sprintf(" rejected: %v", action.AsError(a.Payload))
		}
	}

	printer.WithWriter(u.out).Println(msg)

	ev := u.log.Debug()
	if p.Step == action.StepRejected {
		ev = u.log.Warn().Err(action.AsError(a.Payload))
	}
	ev.Str("type", a.Type).Str("service", name).Msg(msg)
}
