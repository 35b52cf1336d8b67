package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"valuationcli/internal/benford"
	apperrors "valuationcli/internal/errors"
	"valuationcli/internal/infrastructure"
	"valuationcli/internal/operations"
	"valuationcli/internal/valuation"
	"valuationcli/pkg/contracts/domain"
)

// RunValuation values the filtered chain of every symbol, then writes
// output.json and one file per configured bias screen.
func (a *Application) RunValuation(ctx context.Context, symbols []string) (operations.Summary, error) {
	orch, err := valuation.NewOrchestrator(ValuationParams(a.Config.Valuation), a.Logger)
	if err != nil {
		return operations.Summary{}, fmt.Errorf("valuation parameters: %w", err)
	}
	filter, err := ChainFilter(a.Config.Filter)
	if err != nil {
		return operations.Summary{}, err
	}
	asOf := a.now()

	var (
		mu      sync.Mutex
		results []domain.SymbolValuation
	)
	task := operations.TaskFunc(func(ctx context.Context, symbol string) error {
		series, err := a.Source.Prices(ctx, symbol)
		if err != nil {
			return err
		}
		last, ok := series.Last()
		if !ok {
			return apperrors.NewAppError(apperrors.ErrTypeValidation, "empty price series", nil).
				WithContext("symbol", symbol)
		}
		chain, err := a.Source.Chain(ctx, symbol)
		if err != nil {
			return err
		}

		selected := filter.Apply(chain, last.Close, asOf)
		infrastructure.SetSpanAttributes(ctx, map[string]any{
			"spot":      last.Close,
			"contracts": len(chain),
			"selected":  len(selected),
		})
		a.Logger.DebugContext(ctx, "filtered option chain",
			slog.String("symbol", symbol),
			slog.Int("contracts", len(chain)),
			slog.Int("selected", len(selected)))

		sv, err := orch.Value(ctx, series, selected)
		if err != nil {
			return err
		}
		a.Metrics.RecordValuation(ctx, sv)

		mu.Lock()
		results = append(results, sv)
		mu.Unlock()
		return nil
	})

	summary, err := a.Runner.Run(ctx, CommandValuation, symbols, task)
	if err != nil {
		return summary, err
	}

	if err := a.Writer.WriteValuations(results); err != nil {
		return summary, err
	}
	for _, s := range Screens(a.Config.Screens) {
		flagged := s.Apply(results)
		if err := a.Writer.WriteScreen(s.Name(), flagged); err != nil {
			return summary, err
		}
		a.Logger.InfoContext(ctx, "bias screen applied",
			slog.String("screen", s.Name()),
			slog.Int("symbols", len(flagged)))
	}
	return summary, nil
}

// RunBenford scores the financial statements of every symbol not refreshed
// within the update interval and saves the merged profiles.
func (a *Application) RunBenford(ctx context.Context, symbols []string) (operations.Summary, error) {
	store := a.Writer.NewBenfordStore()
	if err := store.Load(); err != nil {
		return operations.Summary{}, err
	}
	now := a.now()
	cfg := a.Config.Benford

	task := operations.TaskFunc(func(ctx context.Context, symbol string) error {
		if !store.ShouldUpdate(symbol, now, cfg.UpdateInterval) {
			a.Logger.DebugContext(ctx, "benford profile is recent, skipping",
				slog.String("symbol", symbol))
			return nil
		}

		statements, err := a.Source.Statements(ctx, symbol)
		if err != nil {
			return err
		}
		profile, err := benford.ScoreFinancialReports(statements, cfg.SkipFields, cfg.LatestOnly)
		if err != nil {
			return fmt.Errorf("score %s: %w", symbol, err)
		}
		profile.Symbol = symbol

		store.Put(symbol, profile, now)
		a.Metrics.RecordBenford(ctx, profile.Scope)
		return nil
	})

	summary, err := a.Runner.Run(ctx, CommandBenford, symbols, task)
	if err != nil {
		return summary, err
	}
	return summary, store.Save(now)
}

// RunPutCall computes the put/call ratios of every symbol's full chain
func (a *Application) RunPutCall(ctx context.Context, symbols []string) (operations.Summary, error) {
	var (
		mu     sync.Mutex
		ratios []domain.PutCallRatio
	)
	task := operations.TaskFunc(func(ctx context.Context, symbol string) error {
		chain, err := a.Source.Chain(ctx, symbol)
		if err != nil {
			return err
		}
		pcr := valuation.PutCallRatio(symbol, chain)

		mu.Lock()
		ratios = append(ratios, pcr)
		mu.Unlock()
		return nil
	})

	summary, err := a.Runner.Run(ctx, CommandPutCall, symbols, task)
	if err != nil {
		return summary, err
	}
	return summary, a.Writer.WritePutCall(ratios, a.now())
}
