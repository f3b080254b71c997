package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Dataset DatasetConfig `yaml:"dataset" envconfig:"DATASET"`
	Store   StoreConfig   `yaml:"store" envconfig:"STORE"`
	Upload  UploadConfig  `yaml:"upload" envconfig:"UPLOAD"`
	Logging LoggingConfig `yaml:"logging" envconfig:"LOGGING"`
	Metrics MetricsConfig `yaml:"metrics" envconfig:"METRICS"`
}

// DatasetConfig locates the raw recording dumps on disk
type DatasetConfig struct {
	BaseDir string `yaml:"base_dir" envconfig:"BASE_DIR" default:"data/raw" validate:"required"`
}

// StoreConfig configures the analytical store
type StoreConfig struct {
	Path string `yaml:"path" envconfig:"PATH" default:"data/analytics.db" validate:"required"`
}

// UploadConfig controls measurement batching toward the store
type UploadConfig struct {
	// ChunkSize bounds per-insert payload size and memory footprint, not
	// correctness.
	ChunkSize int `yaml:"chunk_size" envconfig:"CHUNK_SIZE" default:"50000" validate:"min=1"`
	// RateLimit caps chunk writes per second; zero means unlimited.
	RateLimit float64 `yaml:"rate_limit" envconfig:"RATE_LIMIT" default:"0" validate:"min=0"`
	Burst     int     `yaml:"burst" envconfig:"BURST" default:"1" validate:"min=1"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info" validate:"oneof=debug info warn warning error"`
	Format   string `yaml:"format" envconfig:"FORMAT" default:"json"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"console" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/loader.log"`
}

// MetricsConfig controls the optional metrics listener for long batch runs
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" envconfig:"ENABLED" default:"false"`
	Port    int    `yaml:"port" envconfig:"PORT" default:"9090" validate:"min=1,max=65535"`
	Path    string `yaml:"path" envconfig:"PATH" default:"/metrics"`
}

// Load loads configuration from environment variables and the optional
// config file. Environment variables take precedence over file values.
func Load() (*Config, error) {
	return LoadFrom(configFilePath())
}

// LoadFrom is Load with an explicit config file path, for tests.
func LoadFrom(configFile string) (*Config, error) {
	var cfg Config

	if err := envconfig.Process("PHYSIO", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if configFile != "" {
		if _, err := os.Stat(configFile); err == nil {
			fileCfg, err := loadFromFile(configFile)
			if err != nil {
				return nil, fmt.Errorf("failed to load config from file: %w", err)
			}
			cfg = mergeConfigs(*fileCfg, cfg)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// Default returns the built-in configuration without consulting the
// environment or any file.
func Default() *Config {
	return &Config{
		Dataset: DatasetConfig{BaseDir: "data/raw"},
		Store:   StoreConfig{Path: "data/analytics.db"},
		Upload:  UploadConfig{ChunkSize: 50000, Burst: 1},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/loader.log",
		},
		Metrics: MetricsConfig{Port: 9090, Path: "/metrics"},
	}
}

// loadFromFile loads configuration from a YAML file
func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// mergeConfigs merges file config with env config (env takes precedence)
func mergeConfigs(fileConfig, envConfig Config) Config {
	defaults := Default()

	if envConfig.Dataset.BaseDir == defaults.Dataset.BaseDir && fileConfig.Dataset.BaseDir != "" {
		envConfig.Dataset.BaseDir = fileConfig.Dataset.BaseDir
	}
	if envConfig.Store.Path == defaults.Store.Path && fileConfig.Store.Path != "" {
		envConfig.Store.Path = fileConfig.Store.Path
	}
	if envConfig.Upload.ChunkSize == defaults.Upload.ChunkSize && fileConfig.Upload.ChunkSize != 0 {
		envConfig.Upload.ChunkSize = fileConfig.Upload.ChunkSize
	}
	if envConfig.Upload.RateLimit == 0 && fileConfig.Upload.RateLimit != 0 {
		envConfig.Upload.RateLimit = fileConfig.Upload.RateLimit
	}
	if envConfig.Upload.Burst == defaults.Upload.Burst && fileConfig.Upload.Burst != 0 {
		envConfig.Upload.Burst = fileConfig.Upload.Burst
	}
	if envConfig.Logging.Level == defaults.Logging.Level && fileConfig.Logging.Level != "" {
		envConfig.Logging.Level = fileConfig.Logging.Level
	}
	if envConfig.Logging.Format == defaults.Logging.Format && fileConfig.Logging.Format != "" {
		envConfig.Logging.Format = fileConfig.Logging.Format
	}
	if envConfig.Logging.Output == defaults.Logging.Output && fileConfig.Logging.Output != "" {
		envConfig.Logging.Output = fileConfig.Logging.Output
	}
	if envConfig.Logging.FilePath == defaults.Logging.FilePath && fileConfig.Logging.FilePath != "" {
		envConfig.Logging.FilePath = fileConfig.Logging.FilePath
	}
	if !envConfig.Metrics.Enabled && fileConfig.Metrics.Enabled {
		envConfig.Metrics.Enabled = true
	}
	if envConfig.Metrics.Port == defaults.Metrics.Port && fileConfig.Metrics.Port != 0 {
		envConfig.Metrics.Port = fileConfig.Metrics.Port
	}
	if envConfig.Metrics.Path == defaults.Metrics.Path && fileConfig.Metrics.Path != "" {
		envConfig.Metrics.Path = fileConfig.Metrics.Path
	}

	return envConfig
}

// validate checks the configuration against struct-level constraints
func (c *Config) validate() error {
	return validator.New().Struct(c)
}

// configFilePath returns the default config file location
func configFilePath() string {
	if path := os.Getenv("PHYSIO_CONFIG_FILE"); path != "" {
		return path
	}
	return "config.yaml"
}
