package resolve

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/mj1618/desktop-replay/internal/resolve"

var (
	resolveAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "desktop_replay",
		Subsystem: "resolve",
		Name:      "attempts_total",
		Help:      "Resolution attempts by outcome.",
	}, []string{"outcome"})

	stageFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "desktop_replay",
		Subsystem: "resolve",
		Name:      "stage_failures_total",
		Help:      "Failed resolution attempts by pipeline stage.",
	}, []string{"stage"})

	executionMethods = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "desktop_replay",
		Subsystem: "execution",
		Name:      "method_total",
		Help:      "Executed actions by method.",
	}, []string{"method"})

	searchVisited = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "desktop_replay",
		Subsystem: "search",
		Name:      "visited_nodes",
		Help:      "Nodes visited per adaptive search.",
		Buckets:   []float64{10, 50, 100, 500, 1000, 5000, 10000, 20000},
	})
)

func defaultTracer() trace.Tracer {
	return otel.GetTracerProvider().Tracer(tracerName)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// recordAttempt counts one attempt and annotates the attempt span.
func recordAttempt(span trace.Span, res *Result, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
		if st := StageOf(err); st != "" {
			stageFailures.WithLabelValues(string(st)).Inc()
		}
	}
	resolveAttempts.WithLabelValues(outcome).Inc()
	if res != nil && res.Executed && res.Method != "" {
		executionMethods.WithLabelValues(res.Method).Inc()
	}
	if res != nil {
		span.SetAttributes(
			attribute.Bool("resolve.executed", res.Executed),
			attribute.String("resolve.method", res.Method),
			attribute.Int("resolve.mismatches", len(res.Mismatches)),
			attribute.String("resolve.stage", string(res.Stage)),
		)
	}
	if err != nil {
		span.RecordError(err)
	}
}

// startResolveSpan opens the span wrapping a whole ResolveAndExecute call.
func startResolveSpan(ctx context.Context, t trace.Tracer, role, label string) (context.Context, trace.Span) {
	return t.Start(ctx, "resolve.Engine.ResolveAndExecute",
		trace.WithAttributes(
			attribute.String("recorded.role", role),
			attribute.String("recorded.label", label),
		),
	)
}
