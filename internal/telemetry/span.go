package telemetry

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/trace"
)

// StartSpan starts a span representing one operation performed by the
// subsystem. It also records the operation against the recorder's built-in
// operation metrics.
func (r *Recorder) StartSpan(
	ctx context.Context,
	name string,
	attrs ...Attr,
) (context.Context, trace.Span) {
	ctx, s := r.tracer.Start(
		ctx,
		name,
		trace.WithAttributes(asAttrKeyValues(attrs)...),
	)

	r.operationCount(ctx, 1)
	r.operationsInFlightCount(ctx, 1)

	return ctx, &span{
		Span:     s,
		recorder: r,
	}
}

// span decorates a [trace.Span] so that the in-flight operation count is
// decremented exactly once when the span ends.
type span struct {
	trace.Span
	recorder *Recorder
	ended    sync.Once
}

func (s *span) End(opts ...trace.SpanEndOption) {
	s.ended.Do(func() {
		s.recorder.operationsInFlightCount(context.Background(), -1)
	})

	s.Span.End(opts...)
}
