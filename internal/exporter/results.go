package exporter

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strconv"

	"valuationcli/pkg/contracts/domain"
)

// Output file names
const (
	ValuationFile = "output"
	PutCallFile   = "put-call-ratio"
	BenfordFile   = "stock-benford-law"
)

// ResultWriter writes the files of a valuation run to one directory
type ResultWriter struct {
	dir      string
	compress bool
	csv      *CSVWriter
	logger   *slog.Logger
}

// NewResultWriter creates a writer for dir. With compress set JSON files get
// a .zst suffix.
func NewResultWriter(dir string, compress bool, logger *slog.Logger) *ResultWriter {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "exporter"))
	return &ResultWriter{
		dir:      dir,
		compress: compress,
		csv:      NewCSVWriter(dir, logger),
		logger:   logger,
	}
}

// Dir returns the output directory
func (w *ResultWriter) Dir() string {
	return w.dir
}

// JSONPath returns the path of the JSON file named name
func (w *ResultWriter) JSONPath(name string) string {
	path := filepath.Join(w.dir, name+".json")
	if w.compress {
		path += CompressedExt
	}
	return path
}

// WriteValuations writes every symbol of the run to output.json and the
// flattened contracts to output.csv. Symbols are sorted for stable output.
func (w *ResultWriter) WriteValuations(results []domain.SymbolValuation) error {
	return w.writeSet(ValuationFile, results)
}

// WriteScreen writes the symbols a bias screen kept to output_<name>.json
// and output_<name>.csv.
func (w *ResultWriter) WriteScreen(name string, results []domain.SymbolValuation) error {
	return w.writeSet(ValuationFile+"_"+name, results)
}

func (w *ResultWriter) writeSet(name string, results []domain.SymbolValuation) error {
	sorted := make([]domain.SymbolValuation, len(results))
	copy(sorted, results)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Symbol < sorted[j].Symbol })

	path := w.JSONPath(name)
	if err := WriteJSON(path, sorted); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}

	headers, records := ContractRecords(sorted)
	if err := w.csv.WriteSimpleCSV(name+".csv", headers, records); err != nil {
		return fmt.Errorf("write %s csv: %w", name, err)
	}

	w.logger.Info("wrote valuation results",
		slog.String("file", path),
		slog.Int("symbols", len(sorted)),
		slog.Int("contracts", len(records)))
	return nil
}

var contractHeaders = []string{
	"symbol", "stockPrice", "expiryDate", "kind", "strike", "lastPrice",
	"volume", "openInterest", "impliedVolatility", "daysToExpiry", "volatility",
	domain.KeyBSM, domain.KeyMonteCarlo, domain.KeyBinomialTree,
	"delta", "gamma", "vega", "theta", "rho",
}

// ContractRecords flattens the valued contracts of results into CSV rows.
// Kelly columns are the sorted union of the edge keys present.
func ContractRecords(results []domain.SymbolValuation) ([]string, [][]string) {
	keySet := make(map[string]struct{})
	for _, sv := range results {
		for _, c := range sv.Contracts {
			if c.Valuation == nil {
				continue
			}
			for k := range c.Valuation.Kelly {
				keySet[k] = struct{}{}
			}
		}
	}
	kellyKeys := make([]string, 0, len(keySet))
	for k := range keySet {
		kellyKeys = append(kellyKeys, k)
	}
	sort.Strings(kellyKeys)

	headers := append(append([]string{}, contractHeaders...), kellyKeys...)

	var records [][]string
	for _, sv := range results {
		for _, c := range sv.Contracts {
			v := c.Valuation
			if v == nil {
				continue
			}
			row := []string{
				sv.Symbol,
				formatFloat(sv.StockPrice),
				formatDate(c.Expiry),
				c.Kind.String(),
				strconv.FormatFloat(c.Strike, 'f', -1, 64),
				formatFloat(c.LastPrice),
				formatInt(c.Volume),
				formatInt(c.OpenInterest),
				formatFloat(c.ImpliedVolatility),
				strconv.Itoa(v.DaysToExpiry),
				formatFloat(v.Volatility),
				formatEstimate(v.BSM),
				formatEstimate(v.MonteCarlo),
				formatEstimate(v.BinomialTree),
				formatEstimate(v.Delta),
				formatEstimate(v.Gamma),
				formatEstimate(v.Vega),
				formatEstimate(v.Theta),
				formatEstimate(v.Rho),
			}
			for _, k := range kellyKeys {
				edge, ok := v.Kelly[k]
				if !ok {
					row = append(row, "")
					continue
				}
				row = append(row, formatFloat(edge))
			}
			records = append(records, row)
		}
	}
	return headers, records
}
