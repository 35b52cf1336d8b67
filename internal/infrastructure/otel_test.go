package infrastructure

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"valuationcli/internal/config"
	"valuationcli/internal/shared/testutil"
	"valuationcli/pkg/contracts/domain"
)

func scrape(t *testing.T, h http.Handler) string {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestOTelConfigFrom(t *testing.T) {
	cfg := OTelConfigFrom(config.TelemetryConfig{
		ServiceName:   "valuation-test",
		EnableMetrics: true,
		EnableTracing: true,
		TraceExporter: "none",
	})
	assert.Equal(t, "valuation-test", cfg.ServiceName)
	assert.True(t, cfg.EnableMetrics)
	assert.True(t, cfg.EnableTracing)
	assert.Equal(t, "none", cfg.TraceExporter)
	assert.Equal(t, "prometheus", cfg.MetricExporter)
}

func TestInitializeOTelDisabled(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	cfg := DefaultOTelConfig()
	cfg.EnableMetrics = false
	cfg.EnableTracing = false

	providers, err := InitializeOTel(cfg, logger)
	require.NoError(t, err)
	assert.Nil(t, providers.MeterProvider)
	assert.Nil(t, providers.TracerProvider)
	assert.Nil(t, providers.PrometheusHTTP)
	require.NotNil(t, providers.Meter)
	require.NotNil(t, providers.Tracer)

	metrics, err := NewValuationMetrics(providers.Meter)
	require.NoError(t, err)
	metrics.RecordSymbol(context.Background(), "valuation", time.Second, nil)
	assert.NoError(t, providers.Shutdown(context.Background()))
}

func TestInitializeOTelUnsupportedExporters(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)

	cfg := DefaultOTelConfig()
	cfg.MetricExporter = "statsd"
	_, err := InitializeOTel(cfg, logger)
	assert.Error(t, err)

	cfg = DefaultOTelConfig()
	cfg.EnableTracing = true
	cfg.TraceExporter = "jaeger"
	_, err = InitializeOTel(cfg, logger)
	assert.Error(t, err)
}

func TestPrometheusEndpoint(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	providers, err := InitializeOTel(DefaultOTelConfig(), logger)
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())
	require.NotNil(t, providers.PrometheusHTTP)

	metrics, err := NewValuationMetrics(providers.Meter)
	require.NoError(t, err)
	require.NoError(t, RegisterSystemMetrics(providers.Meter, time.Now()))

	ctx := context.Background()
	metrics.RecordSymbol(ctx, "valuation", 250*time.Millisecond, nil)
	metrics.RecordSymbol(ctx, "valuation", time.Second, assert.AnError)

	body := scrape(t, providers.PrometheusHTTP)
	assert.Contains(t, body, "valuation_symbols_processed")
	assert.Contains(t, body, "valuation_symbol_duration")
	assert.Contains(t, body, `status="failure"`)
	assert.Contains(t, body, "system_goroutines")
}

func TestPrometheusRegistriesAreIndependent(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	for range 2 {
		providers, err := InitializeOTel(DefaultOTelConfig(), logger)
		require.NoError(t, err)
		require.NoError(t, providers.Shutdown(context.Background()))
	}
}

func TestTracingToWriter(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	var out bytes.Buffer

	cfg := DefaultOTelConfig()
	cfg.EnableMetrics = false
	cfg.EnableTracing = true
	cfg.TraceOutput = &out

	providers, err := InitializeOTel(cfg, logger)
	require.NoError(t, err)

	ctx, span := providers.Tracer.Start(context.Background(), "value symbol")
	assert.NotEmpty(t, TraceIDFromContext(ctx))
	SetSpanAttributes(ctx, map[string]any{"symbol": "AAPL", "contracts": 4, "ok": true})
	RecordError(ctx, assert.AnError)
	span.End()

	require.NoError(t, providers.Shutdown(context.Background()))
	assert.Contains(t, out.String(), "value symbol")
	assert.Contains(t, out.String(), "AAPL")
}

func TestTraceIDFromContextWithoutSpan(t *testing.T) {
	assert.Empty(t, TraceIDFromContext(context.Background()))
}

func sumOf(t *testing.T, rm metricdata.ResourceMetrics, name string) int64 {
	t.Helper()
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "%s is not an int64 sum", name)
			var total int64
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
			return total
		}
	}
	return 0
}

func TestRecordValuation(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())

	metrics, err := NewValuationMetrics(mp.Meter(MeterName))
	require.NoError(t, err)

	full := &domain.ValuationResult{
		BSM:          domain.Available(1),
		MonteCarlo:   domain.Available(1),
		BinomialTree: domain.Available(1),
		Delta:        domain.Available(0.5),
		Gamma:        domain.Available(0.1),
		Vega:         domain.Available(0.2),
		Theta:        domain.Available(-0.01),
		Rho:          domain.Available(0.3),
	}
	americanPut := &domain.ValuationResult{
		BinomialTree: domain.Available(2),
		Delta:        domain.Available(-0.4),
		Gamma:        domain.Available(0.1),
		Vega:         domain.Available(0.2),
		Theta:        domain.Available(-0.01),
		Rho:          domain.Available(-0.3),
	}

	ctx := context.Background()
	metrics.RecordValuation(ctx, domain.SymbolValuation{
		Symbol: "AAPL",
		Contracts: []domain.OptionContract{
			{Valuation: full},
			{Valuation: americanPut},
			{},
		},
		Skipped: 2,
	})
	metrics.RecordBenford(ctx, "all")
	metrics.SymbolStarted(ctx)
	metrics.SymbolFinished(ctx)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	assert.Equal(t, int64(2), sumOf(t, rm, "valuation_contracts_valued_total"))
	assert.Equal(t, int64(2), sumOf(t, rm, "valuation_contracts_skipped_total"))
	assert.Equal(t, int64(2), sumOf(t, rm, "valuation_fields_unavailable_total"))
	assert.Equal(t, int64(1), sumOf(t, rm, "valuation_benford_profiles_total"))
	assert.Equal(t, int64(0), sumOf(t, rm, "valuation_active_symbols"))
}

func TestNilMetricsAreNoop(t *testing.T) {
	var metrics *ValuationMetrics
	ctx := context.Background()
	assert.NotPanics(t, func() {
		metrics.RecordSymbol(ctx, "valuation", time.Second, nil)
		metrics.RecordValuation(ctx, domain.SymbolValuation{})
		metrics.RecordBenford(ctx, "latest")
		metrics.SymbolStarted(ctx)
		metrics.SymbolFinished(ctx)
	})
}

func TestCollectSystemStats(t *testing.T) {
	stats := CollectSystemStats(time.Now().Add(-time.Minute))
	assert.Positive(t, stats.GoRoutines)
	assert.Positive(t, stats.CPUCount)
	assert.GreaterOrEqual(t, stats.ProcessUptime, 60.0)
}
