package config

import "time"

// Application constants
const (
	AppName = "valuation"

	// EnvPrefix namespaces environment overrides, e.g. VALUATION_WORKERS_COUNT.
	EnvPrefix = "VALUATION"

	DefaultConfigFile = "valuation.yaml"

	// File Paths (relative to the working directory)
	DefaultDataDir   = "data"
	DefaultOutputDir = "output"
	DefaultLogsDir   = "logs"

	// Price history handed to the estimators, in trading days
	DefaultHistoryDays = 504

	// Worker pool
	DefaultWorkerCount = 4
	DefaultTaskTimeout = 10 * time.Minute

	// Statements scored within this interval are not rescored
	DefaultBenfordInterval = 30 * 24 * time.Hour

	// Log Settings
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	// Status server endpoints
	HealthEndpoint   = "/healthz"
	ReadyEndpoint    = "/readyz"
	MetricsEndpoint  = "/metrics"
	ProgressEndpoint = "/progress"
)
