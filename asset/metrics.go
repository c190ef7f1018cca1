package asset

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var meter = otel.Meter("github.com/imrenagi/go-product-images/asset")

// Instruments are resolved lazily so they bind to whatever meter provider
// the binary installs before the first operation.
func recordOperation(op string, err error) {
	c, cerr := meter.Int64Counter("asset.operations",
		metric.WithDescription("Asset store operations by result"))
	if cerr != nil {
		return
	}
	c.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("op", op),
		attribute.String("result", Outcome(err)),
	))
}

func recordCleanupFailure() {
	c, err := meter.Int64Counter("asset.cleanup.failures",
		metric.WithDescription("Stale images that could not be removed during update"))
	if err != nil {
		return
	}
	c.Add(context.Background(), 1)
}
