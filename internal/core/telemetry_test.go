// AngelaMos | 2026
// telemetry_test.go

package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/carterperez-dev/vipledger/internal/config"
)

func TestLedgerSampler(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(recorder),
		sdktrace.WithSampler(NewLedgerSampler(0.0000001)),
	)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	tracer := tp.Tracer("test")

	_, purchase := tracer.Start(context.Background(), "ledger.PurchasePackage")
	purchase.End()
	assert.True(t, purchase.SpanContext().IsSampled())

	_, other := tracer.Start(context.Background(), "GET /v1/packages")
	other.End()
	assert.False(t, other.SpanContext().IsSampled())

	require.Len(t, recorder.Ended(), 1)
	assert.Equal(t, "ledger.PurchasePackage", recorder.Ended()[0].Name())
}

func TestNewTelemetry_DisabledUsesAppName(t *testing.T) {
	tel, err := NewTelemetry(
		context.Background(),
		config.OtelConfig{Enabled: false},
		config.AppConfig{Name: "vipledger"},
	)
	require.NoError(t, err)

	ctx, span := tel.Tracer.Start(context.Background(), "ledger.ProcessReturns")
	span.End()
	assert.NotEmpty(t, TraceIDFromContext(ctx))
	assert.Equal(t, span.SpanContext().TraceID().String(), TraceIDFromContext(ctx))

	require.NoError(t, tel.Shutdown(context.Background()))
}

func TestTraceIDFromContext_NoSpan(t *testing.T) {
	assert.Empty(t, TraceIDFromContext(trace.ContextWithSpanContext(
		context.Background(), trace.SpanContext{},
	)))
}
