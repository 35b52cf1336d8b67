package marketdata

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	apperrors "valuationcli/internal/errors"
	"valuationcli/pkg/contracts/domain"
)

// LoadPriceSeries reads a daily price CSV with a header row containing a
// date column and a close column ("Close", "Adj Close" or "Price"). Rows in
// either chronological direction are accepted; rows that do not parse or
// carry a non-positive close are logged and skipped.
func LoadPriceSeries(path, symbol string, logger *slog.Logger) (domain.PriceSeries, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.PriceSeries{}, apperrors.NewNotFoundError("price file "+filepath.Base(path)).
				WithContext("symbol", symbol)
		}
		return domain.PriceSeries{}, apperrors.NewStorageError("open price file", err)
	}
	defer file.Close()

	return ReadPriceSeries(file, symbol, logger)
}

// ReadPriceSeries parses price CSV content.
func ReadPriceSeries(r io.Reader, symbol string, logger *slog.Logger) (domain.PriceSeries, error) {
	if logger == nil {
		logger = slog.Default()
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return domain.PriceSeries{}, apperrors.NewParsingError("read price CSV", err).WithContext("symbol", symbol)
	}
	if len(records) < 2 {
		return domain.PriceSeries{}, apperrors.NewParsingError("price CSV has no data rows", nil).WithContext("symbol", symbol)
	}

	idx := headerIndex(records[0])
	dateCol, ok := column(idx, "date", "timestamp")
	if !ok {
		return domain.PriceSeries{}, apperrors.NewParsingError("price CSV has no date column", nil).WithContext("symbol", symbol)
	}
	closeCol, ok := column(idx, "adj close", "adjclose", "close", "price")
	if !ok {
		return domain.PriceSeries{}, apperrors.NewParsingError("price CSV has no close column", nil).WithContext("symbol", symbol)
	}

	points := make([]domain.PricePoint, 0, len(records)-1)
	for i, record := range records[1:] {
		line := i + 2
		date, err := parseDate(cell(record, dateCol))
		if err != nil {
			logger.Warn("failed to parse price record", "symbol", symbol, "line", line, "error", err)
			continue
		}
		closePrice, err := parseNumber(cell(record, closeCol))
		if err != nil || math.IsNaN(closePrice) || closePrice <= 0 {
			logger.Warn("skipping price record without a positive close",
				"symbol", symbol, "line", line, "value", cell(record, closeCol))
			continue
		}
		points = append(points, domain.PricePoint{Date: date, Close: closePrice})
	}

	series := domain.NewPriceSeries(symbol, points)
	if err := series.Validate(); err != nil {
		return domain.PriceSeries{}, apperrors.NewParsingError("price series", err).WithContext("symbol", symbol)
	}
	return series, nil
}

// WritePriceSeries writes a series in the format ReadPriceSeries accepts.
func WritePriceSeries(w io.Writer, series domain.PriceSeries) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Date", "Close"}); err != nil {
		return err
	}
	for _, p := range series.Points {
		if err := cw.Write([]string{p.Date.Format("2006-01-02"), fmt.Sprintf("%g", p.Close)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
