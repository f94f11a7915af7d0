package scope

import (
	"context"

	"github.com/dogmatiq/scopekit/internal/telemetry"
	"github.com/dogmatiq/scopekit/internal/x/xtelemetry"
	"go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// WithTelemetry returns a [Client] that adds telemetry to c.
func WithTelemetry(
	c Client,
	p trace.TracerProvider,
	m metric.MeterProvider,
	l log.LoggerProvider,
) Client {
	provider := telemetry.Provider{
		TracerProvider: p,
		MeterProvider:  m,
		LoggerProvider: l,
	}

	telem := provider.Recorder(
		"github.com/dogmatiq/scopekit/scope",
		telemetry.Type("scope.client", c),
		telemetry.String("client.handle", xtelemetry.HandleID()),
	)

	return &instrumentedClient{
		Next:      c,
		Telemetry: telem,

		ItemsRead:   telem.Counter("items.read", "{item}", "The number of key/value pairs that have been fetched from the scope."),
		KeysWritten: telem.Counter("keys.written", "{key}", "The number of keys that have been inserted or overwritten in the scope."),
		KeysDeleted: telem.Counter("keys.deleted", "{key}", "The number of keys that have been submitted for deletion from the scope."),
		Changes:     telem.Counter("changes.observed", "{change}", "The number of change notifications that have been observed on the scope."),
	}
}

// instrumentedClient is a decorator that adds instrumentation to a [Client].
type instrumentedClient struct {
	Next      Client
	Telemetry *telemetry.Recorder

	ItemsRead   telemetry.Instrument[int64]
	KeysWritten telemetry.Instrument[int64]
	KeysDeleted telemetry.Instrument[int64]
	Changes     telemetry.Instrument[int64]
}

func (c *instrumentedClient) FetchAll(ctx context.Context) (Snapshot, error) {
	ctx, span := c.Telemetry.StartSpan(ctx, "scope.fetch-all")
	defer span.End()

	snapshot, err := c.Next.FetchAll(ctx)
	if err != nil {
		c.Telemetry.Error(ctx, "scope.fetch-all.error", err)
		return nil, err
	}

	count := int64(len(snapshot))
	c.ItemsRead(ctx, count)

	c.Telemetry.Info(
		ctx,
		"scope.fetch-all.ok",
		"fetched scope contents",
		telemetry.Int("items_read", count),
	)

	return snapshot, nil
}

func (c *instrumentedClient) SubmitUpdate(ctx context.Context, b Batch) error {
	inserts := int64(len(b.Insert))
	deletes := int64(len(b.Delete))

	ctx, span := c.Telemetry.StartSpan(
		ctx,
		"scope.submit-update",
		telemetry.Int("insert_count", inserts),
		telemetry.Int("delete_count", deletes),
	)
	defer span.End()

	if err := c.Next.SubmitUpdate(ctx, b); err != nil {
		c.Telemetry.Error(ctx, "scope.submit-update.error", err)
		return err
	}

	c.KeysWritten(ctx, inserts)
	c.KeysDeleted(ctx, deletes)

	c.Telemetry.Info(
		ctx,
		"scope.submit-update.ok",
		"submitted update batch",
		telemetry.Int("insert_count", inserts),
		telemetry.Int("delete_count", deletes),
	)

	return nil
}

func (c *instrumentedClient) OnChange(fn func(Change)) (remove func()) {
	return c.Next.OnChange(
		func(change Change) {
			ctx := context.Background()

			c.Changes(ctx, 1)

			c.Telemetry.Info(
				ctx,
				"scope.change",
				"observed a change to the scope made by another writer",
				telemetry.Int("changed_count", len(change.Changed)),
				telemetry.Int("deleted_count", len(change.Deleted)),
			)

			fn(change)
		},
	)
}

func (c *instrumentedClient) Close() error {
	ctx, span := c.Telemetry.StartSpan(context.Background(), "scope.close")
	defer span.End()

	if err := c.Next.Close(); err != nil {
		c.Telemetry.Error(ctx, "scope.close.error", err)
		return err
	}

	c.Telemetry.Info(ctx, "scope.close.ok", "released local subscriptions")

	return nil
}
