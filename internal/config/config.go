package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config captures the settings required to run the log analyzer.
type Config struct {
	Logging     LoggingConfig     `yaml:"logging"`
	Insights    InsightsConfig    `yaml:"insights"`
	Analysis    AnalysisConfig    `yaml:"analysis"`
	Processing  ProcessingConfig  `yaml:"processing"`
	Remediation RemediationConfig `yaml:"remediation"`
	Metrics     MetricsConfig     `yaml:"metrics"`
}

// LoggingConfig controls structured logging.
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// InsightsConfig configures access to the log query service.
type InsightsConfig struct {
	BaseURL            string        `yaml:"baseURL"`
	Timeout            time.Duration `yaml:"timeout"`
	PollInterval       time.Duration `yaml:"pollInterval"`
	MaxResultsPerQuery int           `yaml:"maxResultsPerQuery"`
	MinWindow          time.Duration `yaml:"minWindow"`
	DefaultQuery       string        `yaml:"defaultQuery"`
}

// AnalysisConfig configures the text-generation backend.
type AnalysisConfig struct {
	Model       string        `yaml:"model"`
	APIKey      string        `yaml:"apiKey"`
	Temperature float64       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxAttempts int           `yaml:"maxAttempts"`
}

// ProcessingConfig bounds the chunked map-reduce pipeline.
type ProcessingConfig struct {
	ChunkSize     int           `yaml:"chunkSize"`
	MaxChunks     int           `yaml:"maxChunks"`
	MaxWorkers    int           `yaml:"maxWorkers"`
	WorkerTimeout time.Duration `yaml:"workerTimeout"`
}

// RemediationConfig configures the external auto-fix registration service.
type RemediationConfig struct {
	Enabled    bool          `yaml:"enabled"`
	BaseURL    string        `yaml:"baseURL"`
	Repository string        `yaml:"repository"`
	Timeout    time.Duration `yaml:"timeout"`
}

// MetricsConfig controls the optional Prometheus endpoint served while a
// run is in flight.
type MetricsConfig struct {
	Address string `yaml:"address"`
}

// DefaultQueryString is the query issued when the caller supplies none. The
// sort clause is what guarantees chronological rows per window.
const DefaultQueryString = "fields @timestamp, @message | sort @timestamp asc"

// Load initialises Config from a YAML file and optional environment overrides.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("AUTOFIX_CONFIG")
	}

	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config file %s not found: %w", path, err)
			}
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnvOverrides(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func defaultConfig() Config {
	return Config{
		Logging: LoggingConfig{Level: "info", JSON: false},
		Insights: InsightsConfig{
			Timeout:            30 * time.Second,
			PollInterval:       time.Second,
			MaxResultsPerQuery: 10000,
			MinWindow:          time.Second,
			DefaultQuery:       DefaultQueryString,
		},
		Analysis: AnalysisConfig{
			Model:       "gemini-2.5-pro",
			Temperature: 0.3,
			Timeout:     300 * time.Second,
			MaxAttempts: 10,
		},
		Processing: ProcessingConfig{
			ChunkSize:     2000,
			MaxChunks:     5,
			MaxWorkers:    5,
			WorkerTimeout: 300 * time.Second,
		},
		Remediation: RemediationConfig{
			Enabled: false,
			Timeout: 10 * time.Second,
		},
	}
}

func validate(cfg *Config) error {
	if cfg.Processing.ChunkSize <= 0 {
		return fmt.Errorf("processing.chunkSize must be positive, got %d", cfg.Processing.ChunkSize)
	}
	if cfg.Processing.MaxChunks <= 0 {
		return fmt.Errorf("processing.maxChunks must be positive, got %d", cfg.Processing.MaxChunks)
	}
	if cfg.Processing.MaxWorkers <= 0 {
		return fmt.Errorf("processing.maxWorkers must be positive, got %d", cfg.Processing.MaxWorkers)
	}
	if cfg.Insights.MaxResultsPerQuery <= 0 {
		return fmt.Errorf("insights.maxResultsPerQuery must be positive, got %d", cfg.Insights.MaxResultsPerQuery)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("AUTOFIX_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("AUTOFIX_LOG_FORMAT"); v == "json" {
		cfg.Logging.JSON = true
	}
	if v := os.Getenv("AUTOFIX_INSIGHTS_BASE_URL"); v != "" {
		cfg.Insights.BaseURL = v
	}
	if v := os.Getenv("AUTOFIX_INSIGHTS_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Insights.Timeout = d
		}
	}
	if v := os.Getenv("AUTOFIX_INSIGHTS_POLL_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Insights.PollInterval = d
		}
	}
	if v := os.Getenv("AUTOFIX_MAX_RESULTS_PER_QUERY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Insights.MaxResultsPerQuery = n
		}
	}
	if v := os.Getenv("AUTOFIX_ANALYSIS_MODEL"); v != "" {
		cfg.Analysis.Model = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.Analysis.APIKey = v
	}
	if v := os.Getenv("AUTOFIX_ANALYSIS_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Analysis.Timeout = d
		}
	}
	if v := os.Getenv("AUTOFIX_ANALYSIS_MAX_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Analysis.MaxAttempts = n
		}
	}
	if v := os.Getenv("AUTOFIX_CHUNK_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Processing.ChunkSize = n
		}
	}
	if v := os.Getenv("AUTOFIX_MAX_CHUNKS_TO_PROCESS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Processing.MaxChunks = n
		}
	}
	if v := os.Getenv("AUTOFIX_MAX_PARALLEL_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Processing.MaxWorkers = n
		}
	}
	if v := os.Getenv("AUTOFIX_WORKER_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Processing.WorkerTimeout = d
		}
	}
	if v := os.Getenv("AUTOFIX_REMEDIATION_ENABLED"); v != "" {
		cfg.Remediation.Enabled = strings.EqualFold(v, "true") || strings.EqualFold(v, "1")
	}
	if v := os.Getenv("AUTOFIX_REMEDIATION_BASE_URL"); v != "" {
		cfg.Remediation.BaseURL = v
	}
	if v := os.Getenv("AUTOFIX_REMEDIATION_REPOSITORY"); v != "" {
		cfg.Remediation.Repository = v
	}
	if v := os.Getenv("AUTOFIX_METRICS_ADDRESS"); v != "" {
		cfg.Metrics.Address = v
	}
}
