package marketdata

import (
	"bufio"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	apperrors "valuationcli/internal/errors"
	"valuationcli/pkg/contracts/domain"
)

// PriceProvider supplies daily close series.
type PriceProvider interface {
	Prices(ctx context.Context, symbol string) (domain.PriceSeries, error)
}

// ChainProvider supplies option chain snapshots.
type ChainProvider interface {
	Chain(ctx context.Context, symbol string) ([]domain.OptionContract, error)
}

// StatementProvider supplies financial statements.
type StatementProvider interface {
	Statements(ctx context.Context, symbol string) ([]domain.Statement, error)
}

// Provider is everything the commands read per symbol.
type Provider interface {
	PriceProvider
	ChainProvider
	StatementProvider
}

// FileProvider reads per-symbol files under a data directory:
//
//	prices/<SYMBOL>.csv
//	chains/<SYMBOL>.csv
//	statements/<SYMBOL>.xlsx
type FileProvider struct {
	dir         string
	historyDays int
	logger      *slog.Logger
}

// NewFileProvider returns a provider rooted at dir. A positive historyDays
// keeps only the most recent observations of each price series.
func NewFileProvider(dir string, historyDays int, logger *slog.Logger) *FileProvider {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileProvider{
		dir:         dir,
		historyDays: historyDays,
		logger:      logger.With(slog.String("component", "marketdata")),
	}
}

// PricePath returns the price file of symbol.
func (p *FileProvider) PricePath(symbol string) string {
	return filepath.Join(p.dir, "prices", fileSymbol(symbol)+".csv")
}

// ChainPath returns the option chain file of symbol.
func (p *FileProvider) ChainPath(symbol string) string {
	return filepath.Join(p.dir, "chains", fileSymbol(symbol)+".csv")
}

// StatementPath returns the statement workbook of symbol.
func (p *FileProvider) StatementPath(symbol string) string {
	return filepath.Join(p.dir, "statements", fileSymbol(symbol)+".xlsx")
}

// Prices implements PriceProvider.
func (p *FileProvider) Prices(ctx context.Context, symbol string) (domain.PriceSeries, error) {
	if err := ctx.Err(); err != nil {
		return domain.PriceSeries{}, err
	}
	series, err := LoadPriceSeries(p.PricePath(symbol), symbol, p.logger)
	if err != nil {
		return domain.PriceSeries{}, err
	}
	return series.Tail(p.historyDays), nil
}

// Chain implements ChainProvider.
func (p *FileProvider) Chain(ctx context.Context, symbol string) ([]domain.OptionContract, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return LoadOptionChain(p.ChainPath(symbol), symbol, p.logger)
}

// Statements implements StatementProvider.
func (p *FileProvider) Statements(ctx context.Context, symbol string) ([]domain.Statement, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return LoadStatementsXLSX(p.StatementPath(symbol), p.logger)
}

// Symbols lists the symbols that have a price file, sorted.
func (p *FileProvider) Symbols() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(p.dir, "prices", "*.csv"))
	if err != nil {
		return nil, apperrors.NewStorageError("list price files", err)
	}
	symbols := make([]string, 0, len(matches))
	for _, m := range matches {
		symbols = append(symbols, strings.ToUpper(strings.TrimSuffix(filepath.Base(m), ".csv")))
	}
	sort.Strings(symbols)
	return symbols, nil
}

// LoadSymbols reads a symbol list file: one symbol per line or comma
// separated, blank lines and # comments ignored, duplicates dropped.
func LoadSymbols(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewStorageError("open symbol list", err)
	}
	defer file.Close()

	var raw []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		if i := strings.Index(line, "#"); i >= 0 {
			line = line[:i]
		}
		raw = append(raw, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, apperrors.NewParsingError("read symbol list", err)
	}
	return ParseSymbols(strings.Join(raw, ",")), nil
}

// ParseSymbols splits a comma separated list, normalizing case and dropping
// blanks and duplicates while keeping order.
func ParseSymbols(s string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, part := range strings.Split(s, ",") {
		sym := strings.ToUpper(strings.TrimSpace(part))
		if sym == "" {
			continue
		}
		if _, dup := seen[sym]; dup {
			continue
		}
		seen[sym] = struct{}{}
		out = append(out, sym)
	}
	return out
}

// fileSymbol maps a ticker to a file name; class shares such as BRK/B use
// a dash.
func fileSymbol(symbol string) string {
	return strings.NewReplacer("/", "-", "\\", "-").Replace(strings.ToUpper(strings.TrimSpace(symbol)))
}
