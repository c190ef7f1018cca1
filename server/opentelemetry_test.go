package server

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/imrenagi/go-product-images/asset"
	"github.com/imrenagi/go-product-images/product"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestInitTelemetryRecordsAssetOperations(t *testing.T) {
	ctx := context.Background()
	reader := metric.NewManualReader()
	shutdown, err := InitTelemetry(ctx, Opts{ServiceName: "product-images-test"}, reader)
	require.NoError(t, err)
	defer shutdown(ctx)

	images, err := asset.New(t.TempDir(), asset.WithLogger(zerolog.Nop()))
	require.NoError(t, err)
	src := filepath.Join(t.TempDir(), "a.png")
	require.NoError(t, os.WriteFile(src, []byte("a"), 0644))
	require.NoError(t, images.Save(&product.Product{ID: 1, Image: src}))
	require.NoError(t, images.Remove(1))

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	counts := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "asset.operations" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				op, _ := dp.Attributes.Value(attribute.Key("op"))
				result, _ := dp.Attributes.Value(attribute.Key("result"))
				counts[op.AsString()+"/"+result.AsString()] += dp.Value
			}
		}
	}
	assert.Equal(t, int64(1), counts["save/success"])
	assert.Equal(t, int64(1), counts["remove/success"])
}
