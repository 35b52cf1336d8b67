// Package shared groups helpers used by more than one internal package.
//
// The testutil subpackage holds test-only helpers: a log capture handler for
// asserting on structured logs, and price series and option chain fixtures
// with known volatility values.
//
//	func TestSomething(t *testing.T) {
//	    logger, logs := testutil.NewTestLogger(t)
//	    series := testutil.ReferenceSeries("TEST")
//	    ...
//	    logs.AssertContains(t, slog.LevelInfo, "valuation completed")
//	}
package shared
