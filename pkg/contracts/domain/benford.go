package domain

import "time"

// Statement is one financial statement table (income statement, balance
// sheet, cash flow). Values of each line item align with Periods; missing
// cells are NaN.
type Statement struct {
	Name    string      `json:"name" validate:"required"`
	Periods []time.Time `json:"periods" validate:"required,min=1"`
	Items   []LineItem  `json:"items" validate:"dive"`
}

// LineItem is a named row of a statement.
type LineItem struct {
	Field  string    `json:"field" validate:"required"`
	Values []float64 `json:"values"`
}

// LatestPeriod returns the column index of the most recent period.
func (s Statement) LatestPeriod() int {
	latest := -1
	for i, p := range s.Periods {
		if latest < 0 || p.After(s.Periods[latest]) {
			latest = i
		}
	}
	return latest
}

// BenfordProfile is the leading-digit profile of a set of numbers.
type BenfordProfile struct {
	Symbol        string     `json:"symbol,omitempty"`
	Scope         string     `json:"scope,omitempty"`
	Samples       int        `json:"samples"`
	Counts        [9]int     `json:"digitCounts"`
	Probabilities [9]float64 `json:"digitProbs"`
	SSE           float64    `json:"sse"`
}
