package engine

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var (
	tracer = otel.Tracer("taskdeps.engine")
	meter  = otel.Meter("taskdeps.engine")
)

var (
	opLatency      metric.Float64Histogram
	opTotal        metric.Int64Counter
	cyclesDetected metric.Int64Counter
	rejections     metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		opLatency, err = meter.Float64Histogram(
			"taskdeps_operation_duration_seconds",
			metric.WithDescription("Duration of engine operations"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		opTotal, err = meter.Int64Counter(
			"taskdeps_operation_total",
			metric.WithDescription("Total number of engine operations"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		cyclesDetected, err = meter.Int64Counter(
			"taskdeps_cycles_detected_total",
			metric.WithDescription("Computations aborted because the snapshot contained a cycle"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		rejections, err = meter.Int64Counter(
			"taskdeps_dependency_rejections_total",
			metric.WithDescription("Proposed dependencies rejected by validation"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

func recordOperation(ctx context.Context, op string, duration time.Duration, success bool) {
	if err := initMetrics(); err != nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("operation", op),
		attribute.Bool("success", success),
	)
	opLatency.Record(ctx, duration.Seconds(), attrs)
	opTotal.Add(ctx, 1, attrs)
}

func recordCycle(ctx context.Context, op string) {
	if err := initMetrics(); err != nil {
		return
	}
	cyclesDetected.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", op)))
}

func recordRejection(ctx context.Context, reason string) {
	if err := initMetrics(); err != nil {
		return
	}
	rejections.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

func startSpan(ctx context.Context, op string, tasks, deps int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Engine."+op,
		trace.WithAttributes(
			attribute.Int("taskdeps.task_count", tasks),
			attribute.Int("taskdeps.dependency_count", deps),
		),
	)
}
