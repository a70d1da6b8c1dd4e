// Copyright 2026 The Inkwell Authors
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

package authz

import (
	"context"
	"log/slog"

	"github.com/inkwell-cms/inkwell/internal/observability/logger"
	"github.com/inkwell-cms/inkwell/internal/observability/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const instrumentationName = "github.com/inkwell-cms/inkwell/internal/authz"

var tracer = otel.Tracer(instrumentationName)

// instruments holds the counters recorded by the workflow and the gate.
type instruments struct {
	transitions metric.Int64Counter
	decisions   metric.Int64Counter
}

func newInstruments(m *metrics.Meter) *instruments {
	if m == nil {
		m = metrics.Disabled()
	}
	return &instruments{
		transitions: counter(m, "inkwell.authz.assignment.transitions", "Role assignment lifecycle transitions"),
		decisions:   counter(m, "inkwell.authz.gate.decisions", "Authorization gate decisions"),
	}
}

func counter(m *metrics.Meter, name, description string) metric.Int64Counter {
	c, err := m.CreateCounter(name, description)
	if err != nil {
		slog.Warn("metric disabled", logger.Component("authz"), logger.String("metric", name), logger.Error(err))
		return noop.Int64Counter{}
	}
	return c
}

func (i *instruments) transition(ctx context.Context, to Status) {
	i.transitions.Add(ctx, 1, metric.WithAttributes(attribute.String("status", string(to))))
}

func (i *instruments) decision(ctx context.Context, d Decision) {
	outcome := "allow"
	if !d.Allowed {
		outcome = string(d.Reason.Code)
	}
	i.decisions.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}
