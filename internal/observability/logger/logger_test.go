package logger

import (
	"context"
	"testing"

	obscontext "github.com/smallbiznis/orderpulse/internal/observability/context"
	"github.com/smallbiznis/orderpulse/pkg/telemetry/correlation"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestWithContextAddsPipelineFields(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	base := zap.New(core)

	ctx := obscontext.WithRequestID(context.Background(), "req-1")
	ctx = obscontext.WithShop(ctx, "demo.myshopify.com")
	ctx = obscontext.WithOrderID(ctx, "820982911946154508")
	ctx = correlation.ContextWithCorrelationID(ctx, "01HZX")

	WithContext(ctx, base).Info("processed")

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		fields := entries[0].ContextMap()
		assert.Equal(t, "req-1", fields["request_id"])
		assert.Equal(t, "demo.myshopify.com", fields["shop"])
		assert.Equal(t, "820982911946154508", fields["order_id"])
		assert.Equal(t, "01HZX", fields["correlation_id"])
		assert.Equal(t, "", fields["trace_id"])
	}
}

func TestOperationFromSQL(t *testing.T) {
	tests := map[string]string{
		`INSERT INTO "ai_insights" ("shop") VALUES ($1) ON CONFLICT DO UPDATE`: "INSERT",
		`  select * from customer_snapshots`:                                   "SELECT",
		`WITH x AS (SELECT 1) DELETE FROM t`:                                   "SELECT",
		``:                                                                     "UNKNOWN",
	}
	for sql, want := range tests {
		assert.Equal(t, want, operationFromSQL(sql), sql)
	}
}
