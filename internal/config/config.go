package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// envPrefix is the prefix for all environment variables (DTX_SERVER_PORT, ...).
const envPrefix = "DTX"

// defaultConfigFile is consulted when DTX_CONFIG_FILE is unset.
const defaultConfigFile = "dtxcli.yml"

// Config is the complete application configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server" envconfig:"SERVER"`
	Logging LoggingConfig `yaml:"logging" envconfig:"LOGGING"`
	Data    DataConfig    `yaml:"data" envconfig:"DATA"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Format   string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json text"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// DataConfig controls where the source workbook is found and how it is
// consolidated and scored.
type DataConfig struct {
	// WorkbookFile pins an explicit workbook path. When empty, the first
	// workbook discovered across Dirs (in order) is used.
	WorkbookFile string `yaml:"workbook_file" envconfig:"WORKBOOK_FILE"`

	// Dirs is the ordered list of candidate directories probed for a
	// workbook. Replaces the hardcoded path fallbacks of earlier revisions.
	Dirs []string `yaml:"dirs" envconfig:"DIRS"`

	// ExportDir receives generated CSV/XLSX snapshots.
	ExportDir string `yaml:"export_dir" envconfig:"EXPORT_DIR"`

	// SheetPolicy selects which sheets are consolidated:
	// "year-sheets" (digit-named only) or "all-sheets".
	SheetPolicy string `yaml:"sheet_policy" envconfig:"SHEET_POLICY" validate:"oneof=year-sheets all-sheets"`

	// IndexPolicy selects the normalization strategy:
	// "year-relative" (default) or "global-minmax".
	IndexPolicy string `yaml:"index_policy" envconfig:"INDEX_POLICY" validate:"oneof=year-relative global-minmax"`
}

// defaultConfig returns the baseline configuration. Defaults live here, not
// in envconfig struct tags: envconfig applies a default tag whenever the env
// var is unset, which would clobber values read from the YAML file.
func defaultConfig() Config {
	var cfg Config
	cfg.Server = ServerConfig{
		Port:            8080,
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    15 * time.Second,
		IdleTimeout:     60 * time.Second,
		ShutdownTimeout: 30 * time.Second,
	}
	cfg.Logging = LoggingConfig{
		Level:    "info",
		Format:   "json",
		Output:   "console",
		FilePath: "logs/dtxcli.log",
	}
	cfg.Data = DataConfig{
		Dirs:        []string{"data", "."},
		ExportDir:   "data/exports",
		SheetPolicy: "year-sheets",
		IndexPolicy: "year-relative",
	}
	return cfg
}

var validate = validator.New()

// Load builds the configuration with precedence env > file > default: the
// baseline defaults are overlaid with the optional YAML file, then with
// environment variables, and the result is validated.
func Load() (*Config, error) {
	cfg := defaultConfig()

	configFile := os.Getenv(envPrefix + "_CONFIG_FILE")
	if configFile == "" {
		configFile = defaultConfigFile
	}
	if _, err := os.Stat(configFile); err == nil {
		if err := loadFromFile(configFile, &cfg); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configFile, err)
		}
	}

	// With no default tags, envconfig leaves a field untouched unless its
	// env var is set, so file values survive.
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}
