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
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/walteh/reduxify/pkg/action"
)

const metricsNamespace = "reduxify"

// Metrics is a prometheus.Collector for store dispatches and the CRUD calls
// settled through Await.
type Metrics struct {
	actions  *prometheus.CounterVec
	inFlight *prometheus.GaugeVec
	duration *prometheus.HistogramVec
}

// NewMetrics returns a new Metrics collector
func NewMetrics() *Metrics {
	return &Metrics{
		actions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "actions_total",
				Help:      "The number of actions dispatched, by service and step.",
			}, []string{"service", "step"},
		),
		inFlight: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Name:      "requests_in_flight",
				Help:      "The number of service calls awaiting settlement.",
			}, []string{"service", "method"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "request_duration_seconds",
				Help:      "The time from pending to settlement of a service call.",
				Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5},
			}, []string{"service", "method", "step"},
		),
	}
}

// Describe is part of the prometheus.Collector interface.
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	m.actions.Describe(ch)
	m.inFlight.Describe(ch)
	m.duration.Describe(ch)
}

// Collect is part of the prometheus.Collector interface.
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	m.actions.Collect(ch)
	m.inFlight.Collect(ch)
	m.duration.Collect(ch)
}

func (m *Metrics) observe(service, step string) {
	m.actions.WithLabelValues(service, step).Inc()
}

func (m *Metrics) start(p action.Promise) func(err error) {
	gauge := m.inFlight.WithLabelValues(p.Service, string(p.Method))
	gauge.Inc()
	began := time.Now()

	return func(err error) {
		gauge.Dec()
		step := action.StepFulfilled
		if err != nil {
			step = action.StepRejected
		}
		m.duration.WithLabelValues(p.Service, string(p.Method), string(step)).Observe(time.Since(began).Seconds())
	}
}
