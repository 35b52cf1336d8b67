package marketdata

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	apperrors "valuationcli/internal/errors"
	"valuationcli/pkg/contracts/domain"
)

// LoadOptionChain reads an option chain snapshot CSV. Required columns are
// expiry, kind (or type), strike and lastPrice; bid, ask, volume,
// openInterest, impliedVolatility, lastTradeDate and style are optional.
// Rows failing to parse or validate are logged and skipped.
func LoadOptionChain(path, symbol string, logger *slog.Logger) ([]domain.OptionContract, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NewNotFoundError("option chain "+filepath.Base(path)).WithContext("symbol", symbol)
		}
		return nil, apperrors.NewStorageError("open option chain", err)
	}
	defer file.Close()

	return ReadOptionChain(file, symbol, logger)
}

type chainColumns struct {
	expiry, kind, strike, last                 int
	bid, ask, volume, oi, iv, lastTrade, style int
}

// ReadOptionChain parses option chain CSV content.
func ReadOptionChain(r io.Reader, symbol string, logger *slog.Logger) ([]domain.OptionContract, error) {
	if logger == nil {
		logger = slog.Default()
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, apperrors.NewParsingError("read option chain CSV", err).WithContext("symbol", symbol)
	}
	if len(records) == 0 {
		return nil, apperrors.NewParsingError("empty option chain CSV", nil).WithContext("symbol", symbol)
	}

	cols, err := mapChainColumns(headerIndex(records[0]))
	if err != nil {
		return nil, apperrors.NewParsingError("option chain header", err).WithContext("symbol", symbol)
	}

	chain := make([]domain.OptionContract, 0, len(records)-1)
	for i, record := range records[1:] {
		c, err := parseContract(record, cols)
		if err == nil {
			c.Symbol = strings.ToUpper(symbol)
			err = apperrors.ValidateStruct("option contract", c)
		}
		if err != nil {
			logger.Warn("skipping option chain record", "symbol", symbol, "line", i+2, "error", err)
			continue
		}
		chain = append(chain, c)
	}
	return chain, nil
}

func mapChainColumns(idx map[string]int) (chainColumns, error) {
	cols := chainColumns{bid: -1, ask: -1, volume: -1, oi: -1, iv: -1, lastTrade: -1, style: -1}
	var ok bool
	if cols.expiry, ok = column(idx, "expiry", "expiryDate", "expiration"); !ok {
		return cols, fmt.Errorf("missing expiry column")
	}
	if cols.kind, ok = column(idx, "kind", "type", "optionType"); !ok {
		return cols, fmt.Errorf("missing kind column")
	}
	if cols.strike, ok = column(idx, "strike"); !ok {
		return cols, fmt.Errorf("missing strike column")
	}
	if cols.last, ok = column(idx, "lastPrice", "last"); !ok {
		return cols, fmt.Errorf("missing lastPrice column")
	}

	optional := []struct {
		dst   *int
		names []string
	}{
		{&cols.bid, []string{"bid"}},
		{&cols.ask, []string{"ask"}},
		{&cols.volume, []string{"volume", "vol"}},
		{&cols.oi, []string{"openInterest", "oi"}},
		{&cols.iv, []string{"impliedVolatility", "iv"}},
		{&cols.lastTrade, []string{"lastTradeDate", "lastTrade"}},
		{&cols.style, []string{"style", "exercise"}},
	}
	for _, o := range optional {
		if i, found := column(idx, o.names...); found {
			*o.dst = i
		}
	}
	return cols, nil
}

func parseContract(record []string, cols chainColumns) (domain.OptionContract, error) {
	var c domain.OptionContract
	var err error

	if c.Expiry, err = parseDate(cell(record, cols.expiry)); err != nil {
		return c, err
	}
	if c.Kind, err = domain.ParseOptionKind(cell(record, cols.kind)); err != nil {
		return c, err
	}
	if c.Strike, err = requiredNumber(record, cols.strike, "strike"); err != nil {
		return c, err
	}
	if c.LastPrice, err = requiredNumber(record, cols.last, "lastPrice"); err != nil {
		return c, err
	}

	for _, f := range []struct {
		col int
		dst *float64
	}{
		{cols.bid, &c.Bid},
		{cols.ask, &c.Ask},
		{cols.iv, &c.ImpliedVolatility},
	} {
		v, err := optionalNumber(record, f.col)
		if err != nil {
			return c, err
		}
		*f.dst = v
	}

	volume, err := optionalNumber(record, cols.volume)
	if err != nil {
		return c, err
	}
	c.Volume = int64(volume)
	oi, err := optionalNumber(record, cols.oi)
	if err != nil {
		return c, err
	}
	c.OpenInterest = int64(oi)

	if s := cell(record, cols.lastTrade); s != "" {
		if c.LastTradeDate, err = parseDate(s); err != nil {
			return c, err
		}
	}
	if s := strings.ToLower(cell(record, cols.style)); s != "" {
		c.Style = domain.ExerciseStyle(s)
	}
	return c, nil
}

func requiredNumber(record []string, col int, name string) (float64, error) {
	v, err := parseNumber(cell(record, col))
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) {
		return 0, fmt.Errorf("missing %s", name)
	}
	return v, nil
}

// optionalNumber treats missing cells as zero.
func optionalNumber(record []string, col int) (float64, error) {
	v, err := parseNumber(cell(record, col))
	if err != nil || math.IsNaN(v) {
		return 0, err
	}
	return v, nil
}
