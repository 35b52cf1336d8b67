package infrastructure

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"valuationcli/pkg/contracts/domain"
)

// Symbol outcome attribute values.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// ValuationMetrics holds the batch metrics of the valuation tools
type ValuationMetrics struct {
	SymbolsProcessed  metric.Int64Counter
	SymbolDuration    metric.Float64Histogram
	ActiveSymbols     metric.Int64UpDownCounter
	ContractsValued   metric.Int64Counter
	ContractsSkipped  metric.Int64Counter
	FieldsUnavailable metric.Int64Counter
	BenfordProfiles   metric.Int64Counter
}

// NewValuationMetrics creates the valuation instruments on meter
func NewValuationMetrics(meter metric.Meter) (*ValuationMetrics, error) {
	symbolsProcessed, err := meter.Int64Counter(
		"valuation_symbols_processed_total",
		metric.WithDescription("Symbols processed by a batch run, by status"),
	)
	if err != nil {
		return nil, fmt.Errorf("symbols processed counter: %w", err)
	}

	symbolDuration, err := meter.Float64Histogram(
		"valuation_symbol_duration_seconds",
		metric.WithDescription("Time spent on one symbol"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("symbol duration histogram: %w", err)
	}

	activeSymbols, err := meter.Int64UpDownCounter(
		"valuation_active_symbols",
		metric.WithDescription("Symbols currently being processed"),
	)
	if err != nil {
		return nil, fmt.Errorf("active symbols counter: %w", err)
	}

	contractsValued, err := meter.Int64Counter(
		"valuation_contracts_valued_total",
		metric.WithDescription("Option contracts valued"),
	)
	if err != nil {
		return nil, fmt.Errorf("contracts valued counter: %w", err)
	}

	contractsSkipped, err := meter.Int64Counter(
		"valuation_contracts_skipped_total",
		metric.WithDescription("Option contracts skipped as expired"),
	)
	if err != nil {
		return nil, fmt.Errorf("contracts skipped counter: %w", err)
	}

	fieldsUnavailable, err := meter.Int64Counter(
		"valuation_fields_unavailable_total",
		metric.WithDescription("Valuation fields reported as unavailable, by field"),
	)
	if err != nil {
		return nil, fmt.Errorf("fields unavailable counter: %w", err)
	}

	benfordProfiles, err := meter.Int64Counter(
		"valuation_benford_profiles_total",
		metric.WithDescription("Benford profiles computed from financial statements"),
	)
	if err != nil {
		return nil, fmt.Errorf("benford profiles counter: %w", err)
	}

	return &ValuationMetrics{
		SymbolsProcessed:  symbolsProcessed,
		SymbolDuration:    symbolDuration,
		ActiveSymbols:     activeSymbols,
		ContractsValued:   contractsValued,
		ContractsSkipped:  contractsSkipped,
		FieldsUnavailable: fieldsUnavailable,
		BenfordProfiles:   benfordProfiles,
	}, nil
}

// RecordSymbol records the outcome of one symbol task. Nil metrics are a
// no-op.
func (m *ValuationMetrics) RecordSymbol(ctx context.Context, command string, duration time.Duration, err error) {
	if m == nil {
		return
	}

	status := StatusSuccess
	if err != nil {
		status = StatusFailure
	}
	attrs := metric.WithAttributes(
		attribute.String("command", command),
		attribute.String("status", status),
	)
	m.SymbolsProcessed.Add(ctx, 1, attrs)
	m.SymbolDuration.Record(ctx, duration.Seconds(), attrs)

	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.AddEvent("symbol.metrics_recorded",
			trace.WithAttributes(
				attribute.String("status", status),
				attribute.Float64("duration_seconds", duration.Seconds()),
			),
		)
	}
}

// SymbolStarted and SymbolFinished track in-flight symbols.
func (m *ValuationMetrics) SymbolStarted(ctx context.Context) {
	if m != nil {
		m.ActiveSymbols.Add(ctx, 1)
	}
}

func (m *ValuationMetrics) SymbolFinished(ctx context.Context) {
	if m != nil {
		m.ActiveSymbols.Add(ctx, -1)
	}
}

// RecordValuation counts the valued, skipped and unavailable results of a
// symbol valuation.
func (m *ValuationMetrics) RecordValuation(ctx context.Context, sv domain.SymbolValuation) {
	if m == nil {
		return
	}

	valued := 0
	for _, c := range sv.Contracts {
		if c.Valuation == nil {
			continue
		}
		valued++
		for field, e := range map[string]domain.Estimate{
			domain.KeyBSM:          c.Valuation.BSM,
			domain.KeyMonteCarlo:   c.Valuation.MonteCarlo,
			domain.KeyBinomialTree: c.Valuation.BinomialTree,
			"delta":                c.Valuation.Delta,
			"gamma":                c.Valuation.Gamma,
			"vega":                 c.Valuation.Vega,
			"theta":                c.Valuation.Theta,
			"rho":                  c.Valuation.Rho,
		} {
			if !e.OK {
				m.FieldsUnavailable.Add(ctx, 1, metric.WithAttributes(attribute.String("field", field)))
			}
		}
	}

	m.ContractsValued.Add(ctx, int64(valued))
	if sv.Skipped > 0 {
		m.ContractsSkipped.Add(ctx, int64(sv.Skipped))
	}
}

// RecordBenford counts a computed Benford profile.
func (m *ValuationMetrics) RecordBenford(ctx context.Context, scope string) {
	if m == nil {
		return
	}
	m.BenfordProfiles.Add(ctx, 1, metric.WithAttributes(attribute.String("scope", scope)))
}
