// Package config loads the configuration of the valuation commands.
//
// # Configuration Sources
//
// Configuration is built from the following sources, later ones winning:
//
//	1. Default values
//	2. A YAML file (valuation.yaml, configs/valuation.yaml or an explicit path)
//	3. A .env file in the working directory
//	4. VALUATION_* environment variables
//
// # Environment Variables
//
// Nested sections join their names with underscores:
//
//	VALUATION_LOGGING_LEVEL=debug
//	VALUATION_PATHS_DATA_DIR=/srv/market
//	VALUATION_VALUATION_SEED=42
//	VALUATION_WORKERS_COUNT=8
//	VALUATION_SERVER_ENABLED=true
//
// Bias screens are only configurable from the YAML file.
//
// # Usage
//
//	cfg, err := config.Load("")
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
