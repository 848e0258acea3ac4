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

package commands

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/reduxify/cmd/reduxify/opts"
	"github.com/walteh/reduxify/pkg/action"
	"github.com/walteh/reduxify/pkg/config"
	"github.com/walteh/reduxify/pkg/log"
	"github.com/walteh/reduxify/pkg/record"
	"github.com/walteh/reduxify/pkg/remote/memory"
	"github.com/walteh/reduxify/pkg/service"
	"github.com/walteh/reduxify/pkg/status"
	"github.com/walteh/reduxify/pkg/store"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

var events = []string{memory.EventCreated, memory.EventUpdated, memory.EventPatched, memory.EventRemoved}

// Result is the outcome of a script run
type Result[S any] struct {
	State    store.State[S]
	Status   status.Status
	Rejected int
}

// NewRunCmd creates the run command
func NewRunCmd(o *opts.RootOpts) *cobra.Command {
	var showMetrics bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the configured script against the services",
		Long: `Run reduxifies the configured services, wires them into a store and
executes the script. Consecutive parallel steps run together. A rejected
call is reported but does not stop the script.

When the run finishes it prints the aggregated status and a snapshot of
every service record.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			client, err := NewClient(ctx, o.Config)
			if err != nil {
				return err
			}

			reg := prometheus.NewRegistry()
			metrics := store.NewMetrics()
			if err := reg.Register(metrics); err != nil {
				return errors.Errorf("registering metrics: %w", err)
			}

			switch o.Config.Variant {
			case config.VariantPersistent:
				_, err = Run(ctx, o, client, record.Persistent{}, metrics)
			default:
				_, err = Run(ctx, o, client, record.Plain{}, metrics)
			}
			if err != nil {
				return err
			}

			if showMetrics {
				return writeMetrics(log.FromContext(ctx), reg)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showMetrics, "metrics", false, "print prometheus metrics after the run")

	return cmd
}

// Run executes the script with records kept in backing b
func Run[S any](ctx context.Context, o *opts.RootOpts, client service.Client, b record.Backing[S], metrics *store.Metrics) (*Result[S], error) {
	logger := zerolog.Ctx(ctx)
	console := log.FromContext(ctx)
	cfg := o.Config

	services, err := service.Reduxify(ctx, client, cfg.Entries(), b)
	if err != nil {
		return nil, errors.Errorf("reduxifying services: %w", err)
	}

	storeOpts := []store.Option[S]{store.WithLogger[S](logger)}
	if metrics != nil {
		storeOpts = append(storeOpts, store.WithMetrics[S](metrics))
	}
	st := store.New(services.Reducers(), storeOpts...)
	st.Subscribe(log.Listen[S](log.NewUserLogger(ctx, o.Out, services.Names()...)))

	for _, name := range services.Names() {
		off := services[name].Listen(st, storeEvent[S](services[name]), events...)
		defer off()
	}

	console.Header(fmt.Sprintf("running %d steps against %d services (%s)", len(cfg.Script), len(services), b.Name()))

	var rejected atomic.Int64
	for _, group := range cfg.Groups() {
		g, gctx := errgroup.WithContext(ctx)
		for _, step := range group {
			g.Go(func() error {
				ok, err := runStep(gctx, o, st, services, step)
				if err != nil {
					return err
				}
				if !ok {
					rejected.Add(1)
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	names := cfg.Status
	if len(names) == 0 {
		names = services.Order()
	}

	state := st.GetState()
	res := &Result[S]{
		State:    state,
		Status:   status.Get(state, b, names...),
		Rejected: int(rejected.Load()),
	}

	console.LogNewline()
	console.Status(res.Status)
	console.Records(status.FormatRecords(status.NewDefaultFormatter(), state, b, names...))
	if res.Rejected > 0 {
		console.Warningf("%d of %d calls rejected", res.Rejected, len(cfg.Script))
	} else {
		console.Successf("%d calls settled", len(cfg.Script))
	}

	if err := writeSnapshot(console, b, state); err != nil {
		return nil, err
	}
	return res, nil
}

// runStep reports false when the call was rejected
func runStep[S any](ctx context.Context, o *opts.RootOpts, st *store.Store[S], services service.Services[S], step config.Step) (bool, error) {
	bnd, ok := services[step.Service]
	if !ok {
		return false, errors.Errorf("script references unknown service %q", step.Service)
	}
	m, ok := action.ParseMethod(step.Method)
	if !ok {
		return false, errors.Errorf("unknown method %q", step.Method)
	}

	p, err := bnd.Call(m, step.ID, step.Data, step.Params())
	if err != nil {
		return false, err
	}

	if _, err := st.Await(ctx, p); err != nil {
		zerolog.Ctx(ctx).Debug().Err(err).Str("service", step.Service).Str("method", string(m)).Msg("call rejected")
		return false, nil
	}
	return true, nil
}

// storeEvent records the latest real-time event in the service's store field
func storeEvent[S any](bnd *service.Binding[S]) service.EventHandler[S] {
	return func(event string, data any, dispatch action.Dispatch, _ func() store.State[S]) {
		dispatch(bnd.Store(map[string]any{"event": event, "data": data}))
	}
}

func writeSnapshot[S any](console *log.Logger, b record.Backing[S], state store.State[S]) error {
	snap := make(map[string]map[string]any, len(state))
	for name, rec := range state {
		snap[name] = record.Snapshot(b, rec)
	}

	out, err := yaml.Marshal(snap)
	if err != nil {
		return errors.Errorf("encoding snapshot: %w", err)
	}

	console.LogNewline()
	if _, err := console.Write(out); err != nil {
		return errors.Errorf("writing snapshot: %w", err)
	}
	return nil
}

func writeMetrics(console *log.Logger, reg *prometheus.Registry) error {
	families, err := reg.Gather()
	if err != nil {
		return errors.Errorf("gathering metrics: %w", err)
	}
	console.LogNewline()
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(console, mf); err != nil {
			return errors.Errorf("writing metric %s: %w", mf.GetName(), err)
		}
	}
	return nil
}
