// Copyright 2026 Skillflow Authors
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

package tracing

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/skillflow/skillflow/pkg/engine"
	"github.com/skillflow/skillflow/pkg/skill"
)

// Metrics collects execution metrics. It implements engine.Listener, so
// wiring it up is a single SetListener call.
type Metrics struct {
	executionsTotal   metric.Int64Counter
	stepsTotal        metric.Int64Counter
	executionDuration metric.Float64Histogram
	stepDuration      metric.Float64Histogram

	mu     sync.Mutex
	active map[string]bool
}

var _ engine.Listener = (*Metrics)(nil)

// NewMetrics creates a metrics collector using the given meter provider.
func NewMetrics(meterProvider metric.MeterProvider) (*Metrics, error) {
	meter := meterProvider.Meter("skillflow")

	m := &Metrics{active: make(map[string]bool)}

	var err error
	m.executionsTotal, err = meter.Int64Counter(
		"skillflow_executions_total",
		metric.WithDescription("Total number of skill executions, by terminal state"),
		metric.WithUnit("{execution}"),
	)
	if err != nil {
		return nil, err
	}

	m.stepsTotal, err = meter.Int64Counter(
		"skillflow_steps_total",
		metric.WithDescription("Total number of steps executed"),
		metric.WithUnit("{step}"),
	)
	if err != nil {
		return nil, err
	}

	m.executionDuration, err = meter.Float64Histogram(
		"skillflow_execution_duration_seconds",
		metric.WithDescription("Skill execution duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	m.stepDuration, err = meter.Float64Histogram(
		"skillflow_step_duration_seconds",
		metric.WithDescription("Step execution duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	_, err = meter.Int64ObservableGauge(
		"skillflow_active_executions",
		metric.WithDescription("Number of currently running skill executions"),
		metric.WithUnit("{execution}"),
		metric.WithInt64Callback(func(ctx context.Context, observer metric.Int64Observer) error {
			m.mu.Lock()
			count := len(m.active)
			m.mu.Unlock()
			observer.Observe(int64(count))
			return nil
		}),
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}

// OnSkillStart marks the execution as active.
func (m *Metrics) OnSkillStart(sk *skill.Skill, executionID string) {
	m.mu.Lock()
	m.active[executionID] = true
	m.mu.Unlock()
}

// OnSkillComplete records the terminal state and the duration. Awaiting
// counts as a completion here; the resumed run reports its own.
func (m *Metrics) OnSkillComplete(sk *skill.Skill, result *engine.Result) {
	m.mu.Lock()
	delete(m.active, result.ExecutionID)
	m.mu.Unlock()

	ctx := context.Background()
	attrs := metric.WithAttributes(
		attribute.String("skill", sk.ID),
		attribute.String("state", string(result.State)),
	)
	m.executionsTotal.Add(ctx, 1, attrs)
	m.executionDuration.Record(ctx, result.Duration.Seconds(), attrs)
}

// OnStepStart is a no-op; steps are recorded on completion.
func (m *Metrics) OnStepStart(st *skill.Step, index, total int) {}

// OnStepComplete records the step's status and duration.
func (m *Metrics) OnStepComplete(st *skill.Step, result *engine.StepResult, index, total int) {
	ctx := context.Background()
	attrs := metric.WithAttributes(
		attribute.String("step", result.StepName),
		attribute.String("kind", string(st.Kind)),
		attribute.String("status", string(result.Status)),
	)
	m.stepsTotal.Add(ctx, 1, attrs)
	m.stepDuration.Record(ctx, float64(result.DurationMS)/1000, attrs)
}
