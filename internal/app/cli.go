package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"valuationcli/internal/config"
	"valuationcli/pkg/contracts"
)

// Exit codes
const (
	ExitOK     = 0
	ExitFailed = 1
	ExitUsage  = 2
)

type cliFlags struct {
	configPath string
	symbols    string
	dataDir    string
	outputDir  string
	workers    int
	seed       uint64
	contract   string
	compress   bool
	serve      bool
	version    bool
}

func parseFlags(command string, args []string, stderr io.Writer) (*cliFlags, *flag.FlagSet, error) {
	fs := flag.NewFlagSet(command, flag.ContinueOnError)
	fs.SetOutput(stderr)

	f := &cliFlags{}
	fs.StringVar(&f.configPath, "config", "", "path to the YAML configuration file")
	fs.StringVar(&f.symbols, "symbols", "", "comma separated symbols (defaults to the symbols file or every price file)")
	fs.StringVar(&f.dataDir, "data", "", "market data directory")
	fs.StringVar(&f.outputDir, "out", "", "output directory")
	fs.IntVar(&f.workers, "workers", 0, "number of symbols processed concurrently")
	fs.BoolVar(&f.compress, "compress", false, "write zstd-compressed JSON")
	fs.BoolVar(&f.serve, "serve", false, "run the status server during the batch")
	fs.BoolVar(&f.version, "version", false, "print version and exit")
	if command == CommandValuation {
		fs.Uint64Var(&f.seed, "seed", 0, "random seed for reproducible simulations")
		fs.StringVar(&f.contract, "contract", "", "value a single EXPIRY_KIND_STRIKE contract")
	}

	if err := fs.Parse(args); err != nil {
		return nil, fs, err
	}
	return f, fs, nil
}

// apply overrides cfg with flags that were set
func (f *cliFlags) apply(cfg *config.Config) {
	if f.dataDir != "" {
		cfg.Paths.DataDir = f.dataDir
	}
	if f.outputDir != "" {
		cfg.Paths.OutputDir = f.outputDir
	}
	if f.workers > 0 {
		cfg.Workers.Count = f.workers
	}
	if f.seed != 0 {
		cfg.Valuation.Seed = f.seed
	}
	if f.contract != "" {
		cfg.Filter.Contract = f.contract
	}
	if f.compress {
		cfg.Paths.Compress = true
	}
	if f.serve {
		cfg.Server.Enabled = true
	}
}

// RunCLI is the shared main of the command binaries. It returns the process
// exit code.
func RunCLI(command string, args []string, stdout, stderr io.Writer) int {
	flags, fs, err := parseFlags(command, args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ExitOK
		}
		return ExitUsage
	}
	if flags.version {
		fmt.Fprintln(stdout, contracts.GetFullVersionString(command))
		return ExitOK
	}

	cfg, err := config.Load(flags.configPath)
	if err != nil {
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		return ExitFailed
	}
	flags.apply(cfg)

	a, err := NewApplication(cfg)
	if err != nil {
		slog.Error("failed to initialize application", slog.String("error", err.Error()))
		return ExitFailed
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.Close(closeCtx); err != nil {
			slog.Error("shutdown error", slog.String("error", err.Error()))
		}
	}()

	var symbolArgs []string
	if flags.symbols != "" {
		symbolArgs = append(symbolArgs, flags.symbols)
	}
	symbolArgs = append(symbolArgs, fs.Args()...)

	symbols, err := a.ResolveSymbols(symbolArgs)
	if err != nil {
		a.Logger.Error("failed to resolve symbols", slog.String("error", err.Error()))
		return ExitFailed
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := a.Run(ctx, command, symbols)
	if err != nil {
		a.Logger.ErrorContext(ctx, "command failed",
			slog.String("command", command),
			slog.String("error", err.Error()))
		return ExitFailed
	}
	if summary.Total > 0 && summary.Succeeded == 0 {
		a.Logger.ErrorContext(ctx, "every symbol failed",
			slog.String("command", command),
			slog.Int("symbols", summary.Total))
		return ExitFailed
	}
	return ExitOK
}
