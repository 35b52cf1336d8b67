package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"valuationcli/internal/benford"
)

// Config represents the complete application configuration
type Config struct {
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	Valuation ValuationConfig `yaml:"valuation" envconfig:"VALUATION"`
	Filter    FilterConfig    `yaml:"filter" envconfig:"FILTER"`
	Screens   []ScreenConfig  `yaml:"screens" ignored:"true"`
	Workers   WorkersConfig   `yaml:"workers" envconfig:"WORKERS"`
	Benford   BenfordConfig   `yaml:"benford" envconfig:"BENFORD"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL"`
	Format      string `yaml:"format" envconfig:"FORMAT"`
	Output      string `yaml:"output" envconfig:"OUTPUT"`
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	DataDir     string `yaml:"data_dir" envconfig:"DATA_DIR"`
	OutputDir   string `yaml:"output_dir" envconfig:"OUTPUT_DIR"`
	SymbolsFile string `yaml:"symbols_file" envconfig:"SYMBOLS_FILE"`
	// Compress writes result JSON as .json.zst
	Compress bool `yaml:"compress" envconfig:"COMPRESS"`
}

// ValuationConfig holds the pricing model parameters.
type ValuationConfig struct {
	RiskFreeRate    float64 `yaml:"risk_free_rate" envconfig:"RISK_FREE_RATE"`
	DividendYield   float64 `yaml:"dividend_yield" envconfig:"DIVIDEND_YIELD"`
	TradingDays     int     `yaml:"trading_days" envconfig:"TRADING_DAYS"`
	VolWindow       int     `yaml:"vol_window" envconfig:"VOL_WINDOW"`
	EWMALambda      float64 `yaml:"ewma_lambda" envconfig:"EWMA_LAMBDA"`
	MCIterations    int     `yaml:"mc_iterations" envconfig:"MC_ITERATIONS"`
	BTSteps         int     `yaml:"bt_steps" envconfig:"BT_STEPS"`
	KellyIterations int     `yaml:"kelly_iterations" envconfig:"KELLY_ITERATIONS"`
	Seed            uint64  `yaml:"seed" envconfig:"SEED"`
	CalcKellyIV     bool    `yaml:"calc_kelly_iv" envconfig:"CALC_KELLY_IV"`
	HistoryDays     int     `yaml:"history_days" envconfig:"HISTORY_DAYS"`
}

// FilterConfig holds the option chain thresholds. Contract selects a
// single EXPIRY_KIND_STRIKE contract.
type FilterConfig struct {
	MinPrice      float64 `yaml:"min_price" envconfig:"MIN_PRICE"`
	OnlyOTM       bool    `yaml:"only_otm" envconfig:"ONLY_OTM"`
	MinNextDays   int     `yaml:"min_next_days" envconfig:"MIN_NEXT_DAYS"`
	MaxNextDays   int     `yaml:"max_next_days" envconfig:"MAX_NEXT_DAYS"`
	MinVolume     int64   `yaml:"min_volume" envconfig:"MIN_VOLUME"`
	LastTradeDays int     `yaml:"last_trade_days" envconfig:"LAST_TRADE_DAYS"`
	Contract      string  `yaml:"contract" envconfig:"CONTRACT"`
}

// ScreenConfig is one bias screen. Nil thresholds are disabled.
type ScreenConfig struct {
	PriceThreshold float64  `yaml:"price_threshold"`
	Premium        *float64 `yaml:"premium_threshold"`
	Discount       *float64 `yaml:"discount_threshold"`
}

// WorkersConfig sizes the symbol worker pool.
type WorkersConfig struct {
	Count         int           `yaml:"count" envconfig:"COUNT"`
	RatePerSecond float64       `yaml:"rate_per_second" envconfig:"RATE_PER_SECOND"`
	Burst         int           `yaml:"burst" envconfig:"BURST"`
	TaskTimeout   time.Duration `yaml:"task_timeout" envconfig:"TASK_TIMEOUT"`
}

// BenfordConfig controls statement scoring.
type BenfordConfig struct {
	SkipFields     []string      `yaml:"skip_fields" envconfig:"SKIP_FIELDS"`
	LatestOnly     bool          `yaml:"latest_only" envconfig:"LATEST_ONLY"`
	UpdateInterval time.Duration `yaml:"update_interval" envconfig:"UPDATE_INTERVAL"`
}

// TelemetryConfig toggles OpenTelemetry metrics and tracing.
type TelemetryConfig struct {
	ServiceName    string `yaml:"service_name" envconfig:"SERVICE_NAME"`
	EnableMetrics  bool   `yaml:"enable_metrics" envconfig:"ENABLE_METRICS"`
	EnableTracing  bool   `yaml:"enable_tracing" envconfig:"ENABLE_TRACING"`
	TraceExporter  string `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER"`
	MetricExporter string `yaml:"metric_exporter" envconfig:"METRIC_EXPORTER"`
}

// ServerConfig contains status server configuration
type ServerConfig struct {
	Enabled         bool          `yaml:"enabled" envconfig:"ENABLED"`
	Port            int           `yaml:"port" envconfig:"PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	// RateLimit caps requests per second; 0 disables the limiter
	RateLimit float64 `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
	RateBurst int     `yaml:"rate_burst" envconfig:"RATE_BURST"`
}

// Load builds the configuration from defaults, the YAML file at path (when
// non-empty, otherwise the first file found in the usual locations), a .env
// file and VALUATION_* environment variables, in that order.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = getConfigFilePath()
	}
	if path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	// A missing .env is normal.
	_ = godotenv.Load()

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to process env config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// loadFromFile loads configuration from a YAML file over cfg
func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	locations := []string{
		DefaultConfigFile,
		filepath.Join("configs", DefaultConfigFile),
		filepath.Join("..", "configs", DefaultConfigFile),
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// validate validates the configuration
func (c *Config) validate() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %q", c.Logging.Level)
	}

	switch c.Logging.Output {
	case "console", "file", "both":
	default:
		return fmt.Errorf("invalid log output: %q", c.Logging.Output)
	}

	if c.Logging.Format != "json" {
		c.Logging.Format = "json"
	}

	if c.Logging.Output != "console" && c.Logging.FilePath == "" {
		c.Logging.FilePath = filepath.Join(DefaultLogsDir, "valuation.log")
	}

	if c.Paths.DataDir == "" {
		return fmt.Errorf("data directory must be set")
	}

	if c.Paths.OutputDir == "" {
		return fmt.Errorf("output directory must be set")
	}

	if c.Valuation.HistoryDays < 0 {
		return fmt.Errorf("history days must not be negative: %d", c.Valuation.HistoryDays)
	}

	if c.Workers.Count <= 0 {
		return fmt.Errorf("worker count must be positive: %d", c.Workers.Count)
	}

	if c.Workers.RatePerSecond < 0 {
		return fmt.Errorf("worker rate must not be negative: %v", c.Workers.RatePerSecond)
	}

	if c.Workers.TaskTimeout < 0 {
		return fmt.Errorf("task timeout must not be negative: %s", c.Workers.TaskTimeout)
	}

	if c.Benford.UpdateInterval < 0 {
		return fmt.Errorf("benford update interval must not be negative: %s", c.Benford.UpdateInterval)
	}

	for i, s := range c.Screens {
		if s.PriceThreshold < 0 {
			return fmt.Errorf("screen %d: price threshold must not be negative", i)
		}
		if s.Premium == nil && s.Discount == nil {
			return fmt.Errorf("screen %d: needs a premium or a discount threshold", i)
		}
	}

	switch c.Telemetry.TraceExporter {
	case "", "stdout", "none":
	default:
		return fmt.Errorf("unsupported trace exporter: %q", c.Telemetry.TraceExporter)
	}

	switch c.Telemetry.MetricExporter {
	case "", "prometheus", "none":
	default:
		return fmt.Errorf("unsupported metric exporter: %q", c.Telemetry.MetricExporter)
	}

	if c.Server.Enabled {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			return fmt.Errorf("invalid server port: %d", c.Server.Port)
		}
		if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 {
			return fmt.Errorf("server timeouts must be positive")
		}
		if c.Server.RateLimit < 0 {
			return fmt.Errorf("invalid server rate limit: %v", c.Server.RateLimit)
		}
	}

	return nil
}

// Default returns default configuration
func Default() *Config {
	premium, discount := 1.0, -0.5
	return &Config{
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
			Output: "console",
		},
		Paths: PathsConfig{
			DataDir:   DefaultDataDir,
			OutputDir: DefaultOutputDir,
		},
		Valuation: ValuationConfig{
			RiskFreeRate:    0.0152,
			TradingDays:     252,
			VolWindow:       21,
			EWMALambda:      0.94,
			MCIterations:    1_000_000,
			BTSteps:         1000,
			KellyIterations: 100_000,
			CalcKellyIV:     true,
			HistoryDays:     DefaultHistoryDays,
		},
		Filter: FilterConfig{
			MinPrice:      0.1,
			OnlyOTM:       true,
			MaxNextDays:   40,
			MinVolume:     5,
			LastTradeDays: 3,
		},
		Screens: []ScreenConfig{
			{PriceThreshold: 0.1, Premium: &premium},
			{PriceThreshold: 0.5, Discount: &discount},
		},
		Workers: WorkersConfig{
			Count:         DefaultWorkerCount,
			RatePerSecond: 0,
			Burst:         1,
			TaskTimeout:   DefaultTaskTimeout,
		},
		Benford: BenfordConfig{
			SkipFields:     append([]string(nil), benford.DefaultSkipFields...),
			UpdateInterval: DefaultBenfordInterval,
		},
		Telemetry: TelemetryConfig{
			ServiceName:    AppName,
			EnableMetrics:  true,
			EnableTracing:  false,
			TraceExporter:  "stdout",
			MetricExporter: "prometheus",
		},
		Server: ServerConfig{
			Enabled:         false,
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			RateLimit:       20,
			RateBurst:       40,
		},
	}
}
