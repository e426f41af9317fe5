package pipeline

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/torosent/corpusrun/internal/tracing"
)

// Pipeline attempts the scan, parse and generate stages on one input path.
// Implementations must be safe for concurrent use and should return promptly
// once ctx is cancelled.
type Pipeline interface {
	Attempt(ctx context.Context, path string) Outcome
}

// Func adapts an ordinary function to the Pipeline interface.
type Func func(ctx context.Context, path string) Outcome

func (f Func) Attempt(ctx context.Context, path string) Outcome {
	return f(ctx, path)
}

// DetectDialect returns alternate when path contains any of the patterns and
// primary otherwise.
func DetectDialect(path string, patterns []string, primary, alternate string) string {
	for _, p := range patterns {
		if p != "" && strings.Contains(path, p) {
			return alternate
		}
	}
	return primary
}

// WithTracing wraps p so every attempt runs inside its own span.
func WithTracing(p Pipeline, tracer trace.Tracer) Pipeline {
	if tracer == nil {
		return p
	}
	return Func(func(ctx context.Context, path string) Outcome {
		ctx, span := tracing.StartAttemptSpan(ctx, tracer, path)
		out := p.Attempt(ctx, path)
		var err error
		if !out.OK() {
			err = &AttemptError{Outcome: out}
		}
		tracing.EndSpan(span, err,
			attribute.String("corpusrun.outcome", out.Kind.String()),
			attribute.String("corpusrun.dialect", out.Dialect),
		)
		return out
	})
}

// AttemptError exposes a failed outcome as an error.
type AttemptError struct {
	Outcome Outcome
}

func (e *AttemptError) Error() string {
	if e.Outcome.Message == "" {
		return e.Outcome.Kind.String()
	}
	return e.Outcome.Kind.String() + ": " + e.Outcome.Message
}
