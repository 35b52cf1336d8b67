// Package app wires configuration, logging, telemetry, market data, the
// valuation engine and the exporters into the three batch commands.
//
// # Initialization Flow
//
//	1. Load configuration (defaults, YAML, .env, environment)
//	2. Initialize the slog logger and OpenTelemetry providers
//	3. Create the market data provider, runner and result writer
//	4. Optionally start the status server
//	5. Run the command over every symbol and write the results
//
// # Commands
//
//	valuation  value filtered option chains and write output.json plus one
//	           file per bias screen
//	benford    score financial statements against Benford's law, skipping
//	           symbols refreshed within the update interval
//	putcall    compute put/call volume and open interest ratios
//
// A failing symbol is logged and skipped. A cancelled context stops the
// batch and no result files are written.
package app
