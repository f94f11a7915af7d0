package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/metric"
)

// Instrument records values against a single metric.
type Instrument[T int64 | float64] func(ctx context.Context, value T, attrs ...Attr)

// Counter returns an instrument that adds increments to a monotonic counter.
func (r *Recorder) Counter(name, unit, desc string) Instrument[int64] {
	c, err := r.meter.Int64Counter(
		name,
		metric.WithUnit(unit),
		metric.WithDescription(desc),
	)
	if err != nil {
		panic(err)
	}

	return func(ctx context.Context, value int64, attrs ...Attr) {
		c.Add(
			ctx,
			value,
			metric.WithAttributes(asAttrKeyValues(attrs)...),
		)
	}
}

// UpDownCounter returns an instrument that adds deltas to a non-monotonic
// counter.
func (r *Recorder) UpDownCounter(name, unit, desc string) Instrument[int64] {
	c, err := r.meter.Int64UpDownCounter(
		name,
		metric.WithUnit(unit),
		metric.WithDescription(desc),
	)
	if err != nil {
		panic(err)
	}

	return func(ctx context.Context, value int64, attrs ...Attr) {
		c.Add(
			ctx,
			value,
			metric.WithAttributes(asAttrKeyValues(attrs)...),
		)
	}
}

// Histogram returns an instrument that records values in a histogram.
func (r *Recorder) Histogram(name, unit, desc string) Instrument[int64] {
	h, err := r.meter.Int64Histogram(
		name,
		metric.WithUnit(unit),
		metric.WithDescription(desc),
	)
	if err != nil {
		panic(err)
	}

	return func(ctx context.Context, value int64, attrs ...Attr) {
		h.Record(
			ctx,
			value,
			metric.WithAttributes(asAttrKeyValues(attrs)...),
		)
	}
}
