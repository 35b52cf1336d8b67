package benford

import (
	"fmt"
	"strings"

	"valuationcli/pkg/contracts/domain"
)

// DefaultSkipFields are per-share and ratio rows that are not count-like and
// so are not expected to follow Benford's law.
var DefaultSkipFields = []string{
	"Basic EPS",
	"Diluted EPS",
	"EPS",
	"Tax Rate For Calcs",
	"Dividends Per Share",
	"Basic Average Shares",
	"Diluted Average Shares",
}

// Scopes of a report profile.
const (
	ScopeAll    = "all"
	ScopeLatest = "latest"
)

// ScoreFinancialReports flattens the line items of every statement, drops the
// fields named in skipFields (case-insensitive) and scores the rest. With
// latestOnly set only each statement's most recent period is used.
func ScoreFinancialReports(statements []domain.Statement, skipFields []string, latestOnly bool) (domain.BenfordProfile, error) {
	skip := make(map[string]struct{}, len(skipFields))
	for _, f := range skipFields {
		skip[normalizeField(f)] = struct{}{}
	}

	var numbers []float64
	for _, st := range statements {
		col := -1
		if latestOnly {
			if col = st.LatestPeriod(); col < 0 {
				continue
			}
		}
		for _, item := range st.Items {
			if _, ok := skip[normalizeField(item.Field)]; ok {
				continue
			}
			if col >= 0 {
				if col < len(item.Values) {
					numbers = append(numbers, item.Values[col])
				}
				continue
			}
			numbers = append(numbers, item.Values...)
		}
	}

	profile, err := Profile(numbers)
	if err != nil {
		return domain.BenfordProfile{}, fmt.Errorf("score %d statements: %w", len(statements), err)
	}
	profile.Scope = ScopeAll
	if latestOnly {
		profile.Scope = ScopeLatest
	}
	return profile, nil
}

func normalizeField(f string) string {
	return strings.ToLower(strings.Join(strings.Fields(f), " "))
}
