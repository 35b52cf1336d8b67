package exporter

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"valuationcli/pkg/contracts/domain"
)

// SideTotals is the volume and open interest of one option kind
type SideTotals struct {
	TotalVolume       int64 `json:"totalVolume"`
	TotalOpenInterest int64 `json:"totalOpenInterest"`
}

// PutCallEntry is the put-call-ratio.json record of one symbol
type PutCallEntry struct {
	OpenInterestRatio domain.Estimate `json:"PCR_OpenInterest"`
	VolumeRatio       domain.Estimate `json:"PCR_Volume"`
	Calls             SideTotals      `json:"calls"`
	Puts              SideTotals      `json:"puts"`
}

// PutCallReport is the document written to put-call-ratio.json
type PutCallReport struct {
	UpdateTime time.Time               `json:"update_time"`
	Data       map[string]PutCallEntry `json:"data"`
}

// NewPutCallReport builds a report from per-symbol ratios
func NewPutCallReport(ratios []domain.PutCallRatio, now time.Time) PutCallReport {
	report := PutCallReport{
		UpdateTime: now.UTC(),
		Data:       make(map[string]PutCallEntry, len(ratios)),
	}
	for _, r := range ratios {
		report.Data[r.Symbol] = PutCallEntry{
			OpenInterestRatio: r.OpenInterestRatio,
			VolumeRatio:       r.VolumeRatio,
			Calls:             SideTotals{TotalVolume: r.CallVolume, TotalOpenInterest: r.CallOpenInterest},
			Puts:              SideTotals{TotalVolume: r.PutVolume, TotalOpenInterest: r.PutOpenInterest},
		}
	}
	return report
}

var putCallHeaders = []string{
	"symbol", "PCR_OpenInterest", "PCR_Volume",
	"callTotalVolume", "callTotalOpenInterest", "putTotalVolume", "putTotalOpenInterest",
}

// WritePutCall writes put-call-ratio.json and put-call-ratio.csv
func (w *ResultWriter) WritePutCall(ratios []domain.PutCallRatio, now time.Time) error {
	path := w.JSONPath(PutCallFile)
	if err := WriteJSON(path, NewPutCallReport(ratios, now)); err != nil {
		return fmt.Errorf("write %s: %w", PutCallFile, err)
	}

	sorted := make([]domain.PutCallRatio, len(ratios))
	copy(sorted, ratios)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Symbol < sorted[j].Symbol })

	records := make([][]string, 0, len(sorted))
	for _, r := range sorted {
		records = append(records, []string{
			r.Symbol,
			formatEstimate(r.OpenInterestRatio),
			formatEstimate(r.VolumeRatio),
			formatInt(r.CallVolume),
			formatInt(r.CallOpenInterest),
			formatInt(r.PutVolume),
			formatInt(r.PutOpenInterest),
		})
	}
	if err := w.csv.WriteSimpleCSV(PutCallFile+".csv", putCallHeaders, records); err != nil {
		return fmt.Errorf("write %s csv: %w", PutCallFile, err)
	}

	w.logger.Info("wrote put-call ratios",
		slog.String("file", path),
		slog.Int("symbols", len(ratios)))
	return nil
}
