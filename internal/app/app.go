package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"valuationcli/internal/config"
	apperrors "valuationcli/internal/errors"
	"valuationcli/internal/exporter"
	"valuationcli/internal/infrastructure"
	"valuationcli/internal/marketdata"
	"valuationcli/internal/operations"
	handlers "valuationcli/internal/transport/http"
	"valuationcli/pkg/contracts"
)

// Command names
const (
	CommandValuation = "valuation"
	CommandBenford   = "benford"
	CommandPutCall   = "putcall"
)

// ErrUnknownCommand is returned by Run for an unrecognized command
var ErrUnknownCommand = errors.New("unknown command")

// DataSource is the market data the commands read. FileProvider implements it.
type DataSource interface {
	marketdata.Provider
	Symbols() ([]string, error)
}

// Application holds the components shared by every command
type Application struct {
	Config        *config.Config
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.ValuationMetrics
	Source        DataSource
	Runner        *operations.Runner
	Writer        *exporter.ResultWriter
	Server        *handlers.Server

	now       func() time.Time
	startTime time.Time
}

// Option customizes an Application
type Option func(*Application)

// WithLogger replaces the global logger
func WithLogger(logger *slog.Logger) Option {
	return func(a *Application) { a.Logger = logger }
}

// WithSource replaces the file-backed market data provider
func WithSource(src DataSource) Option {
	return func(a *Application) { a.Source = src }
}

// WithClock fixes the time used for filtering and update stamps
func WithClock(now func() time.Time) Option {
	return func(a *Application) { a.now = now }
}

// NewApplication wires the components described by cfg
func NewApplication(cfg *config.Config, opts ...Option) (*Application, error) {
	a := &Application{
		Config:    cfg,
		now:       time.Now,
		startTime: time.Now(),
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.Logger == nil {
		logger, err := infrastructure.InitializeLogger(cfg.Logging)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize logger: %w", err)
		}
		a.Logger = logger
	}

	a.Logger.Info("application starting",
		slog.String("name", config.AppName),
		slog.String("version", contracts.Version),
		slog.String("data_dir", cfg.Paths.DataDir),
		slog.String("output_dir", cfg.Paths.OutputDir))

	providers, err := infrastructure.InitializeOTel(infrastructure.OTelConfigFrom(cfg.Telemetry), a.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}
	a.OTelProviders = providers

	a.Metrics, err = infrastructure.NewValuationMetrics(providers.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}
	if err := infrastructure.RegisterSystemMetrics(providers.Meter, a.startTime); err != nil {
		return nil, fmt.Errorf("failed to register system metrics: %w", err)
	}

	if a.Source == nil {
		a.Source = marketdata.NewFileProvider(cfg.Paths.DataDir, cfg.Valuation.HistoryDays, a.Logger)
	}

	a.Runner = operations.NewRunner(operations.Config{
		Workers:       cfg.Workers.Count,
		RatePerSecond: cfg.Workers.RatePerSecond,
		Burst:         cfg.Workers.Burst,
		TaskTimeout:   cfg.Workers.TaskTimeout,
	}, a.Logger,
		operations.WithMetrics(a.Metrics),
		operations.WithTracer(providers.Tracer))

	a.Writer = exporter.NewResultWriter(cfg.Paths.OutputDir, cfg.Paths.Compress, a.Logger)

	if cfg.Server.Enabled {
		a.Server, err = handlers.NewServer(cfg.Server, a.Runner, providers, a.Logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create status server: %w", err)
		}
	}

	return a, nil
}

// ResolveSymbols picks the batch: explicit args first, then the configured
// symbol list file, then every symbol with a price file.
func (a *Application) ResolveSymbols(args []string) ([]string, error) {
	if len(args) > 0 {
		symbols := marketdata.ParseSymbols(strings.Join(args, ","))
		if len(symbols) == 0 {
			return nil, apperrors.NewAppValidationError("no symbols given")
		}
		return symbols, nil
	}
	if path := a.Config.Paths.SymbolsFile; path != "" {
		return marketdata.LoadSymbols(path)
	}
	symbols, err := a.Source.Symbols()
	if err != nil {
		return nil, err
	}
	if len(symbols) == 0 {
		return nil, apperrors.NewNotFoundError("price files in " + a.Config.Paths.DataDir)
	}
	return symbols, nil
}

// Run executes command over symbols. The status server, when enabled, runs
// for the duration of the batch.
func (a *Application) Run(ctx context.Context, command string, symbols []string) (operations.Summary, error) {
	ctx = infrastructure.EnsureTraceID(ctx)

	if a.Server != nil {
		if err := a.Server.Start(ctx); err != nil {
			return operations.Summary{}, err
		}
		defer func() {
			if err := a.Server.Stop(context.Background()); err != nil {
				a.Logger.ErrorContext(ctx, "failed to stop status server", slog.String("error", err.Error()))
			}
		}()
	}

	ctx, span := a.OTelProviders.Tracer.Start(ctx, "command."+command)
	defer span.End()

	var (
		summary operations.Summary
		err     error
	)
	switch command {
	case CommandValuation:
		summary, err = a.RunValuation(ctx, symbols)
	case CommandBenford:
		summary, err = a.RunBenford(ctx, symbols)
	case CommandPutCall:
		summary, err = a.RunPutCall(ctx, symbols)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownCommand, command)
	}
	if err != nil {
		infrastructure.RecordError(ctx, err)
	}
	return summary, err
}

// Close flushes telemetry and the log file
func (a *Application) Close(ctx context.Context) error {
	var errs []error
	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown telemetry: %w", err))
		}
	}
	if err := infrastructure.CloseLogFile(); err != nil {
		errs = append(errs, fmt.Errorf("close log file: %w", err))
	}
	return errors.Join(errs...)
}
