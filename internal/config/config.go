package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/Alias1177/futures-analyzer/internal/features"
	"github.com/Alias1177/futures-analyzer/internal/labeling"
	"github.com/Alias1177/futures-analyzer/internal/trading/risk"
	"github.com/Alias1177/futures-analyzer/internal/training"
)

// Config holds all application configuration
type Config struct {
	LogLevel     string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat    string `env:"LOG_FORMAT" envDefault:"console"` // console or json
	PipelineFile string `env:"PIPELINE_CONFIG"`
	MetricsAddr  string `env:"METRICS_ADDR"` // empty disables /metrics
	DataFile     string `env:"DATA_FILE"`
	DataURL      string `env:"DATA_URL"`
	// ColumnMapping is a comma separated list of source=field pairs
	ColumnMapping string `env:"COLUMN_MAPPING"`

	Database DatabaseConfig

	TelegramBotToken string `env:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID   int64  `env:"TELEGRAM_CHAT_ID"`

	Pipeline PipelineConfig
}

// DatabaseConfig describes the Postgres bar table and recommendation journal
type DatabaseConfig struct {
	Host     string `env:"DB_HOST"` // empty disables Postgres
	Port     int    `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER" envDefault:"postgres"`
	Password string `env:"DB_PASSWORD"`
	Name     string `env:"DB_NAME" envDefault:"futures"`
	SSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`
	Table    string `env:"DB_BARS_TABLE" envDefault:"price_bars"`
}

// Enabled reports whether a database host is configured
func (d DatabaseConfig) Enabled() bool {
	return d.Host != ""
}

// DSN returns a lib/pq connection string
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// PipelineConfig carries the parameters of every analysis stage
type PipelineConfig struct {
	Features features.Config `yaml:"features"`
	Labels   labeling.Params `yaml:"labels"`
	Training training.Params `yaml:"training"`
	Risk     risk.Config     `yaml:"risk"`
}

// DefaultPipeline returns the stock stage parameters
func DefaultPipeline() PipelineConfig {
	return PipelineConfig{
		Features: features.DefaultConfig(),
		Labels:   labeling.DefaultParams(),
		Training: training.DefaultParams(),
		Risk:     risk.DefaultConfig(),
	}
}

// Validate checks every stage block
func (p PipelineConfig) Validate() error {
	if err := p.Features.Validate(); err != nil {
		return fmt.Errorf("features: %w", err)
	}
	if err := p.Labels.Validate(); err != nil {
		return fmt.Errorf("labels: %w", err)
	}
	if err := p.Training.Validate(); err != nil {
		return fmt.Errorf("training: %w", err)
	}
	if err := p.Risk.Validate(); err != nil {
		return fmt.Errorf("risk: %w", err)
	}
	return nil
}

// Load initializes configuration from environment variables.
// Stage parameters start from defaults, are overlaid by the PIPELINE_CONFIG file
// and finally by individual environment variables.
func Load() (*Config, error) {
	// Load environment variables from .env file if present
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, relying on actual environment variables")
	}

	var cfg Config

	cfg.LogLevel = getEnvWithDefault("LOG_LEVEL", "info")
	cfg.LogFormat = getEnvWithDefault("LOG_FORMAT", "console")
	cfg.PipelineFile = os.Getenv("PIPELINE_CONFIG")
	cfg.MetricsAddr = os.Getenv("METRICS_ADDR")
	cfg.DataFile = os.Getenv("DATA_FILE")
	cfg.DataURL = os.Getenv("DATA_URL")
	cfg.ColumnMapping = os.Getenv("COLUMN_MAPPING")

	cfg.Database = DatabaseConfig{
		Host:     os.Getenv("DB_HOST"),
		Port:     getEnvIntWithDefault("DB_PORT", 5432),
		User:     getEnvWithDefault("DB_USER", "postgres"),
		Password: os.Getenv("DB_PASSWORD"),
		Name:     getEnvWithDefault("DB_NAME", "futures"),
		SSLMode:  getEnvWithDefault("DB_SSLMODE", "disable"),
		Table:    getEnvWithDefault("DB_BARS_TABLE", "price_bars"),
	}

	cfg.TelegramBotToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	cfg.TelegramChatID = getEnvInt64WithDefault("TELEGRAM_CHAT_ID", 0)

	pipeline, err := LoadPipeline(cfg.PipelineFile)
	if err != nil {
		return nil, err
	}
	applyEnvOverrides(&pipeline)
	if err := pipeline.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pipeline configuration: %w", err)
	}
	cfg.Pipeline = pipeline

	return &cfg, nil
}

// LoadPipeline reads stage parameters from a YAML file over the defaults.
// An empty path returns the defaults.
func LoadPipeline(path string) (PipelineConfig, error) {
	p := DefaultPipeline()
	if path == "" {
		return p, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("read pipeline config: %w", err)
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("parse pipeline config %s: %w", path, err)
	}
	return p, nil
}

func applyEnvOverrides(p *PipelineConfig) {
	p.Training.ModelType = getEnvWithDefault("MODEL_TYPE", p.Training.ModelType)
	p.Training.TestFraction = getEnvFloatWithDefault("TEST_FRACTION", p.Training.TestFraction)
	p.Labels.Lookforward = getEnvIntWithDefault("LOOKFORWARD", p.Labels.Lookforward)
	p.Labels.ProfitThreshold = getEnvFloatWithDefault("PROFIT_THRESHOLD", p.Labels.ProfitThreshold)
	p.Labels.LossThreshold = getEnvFloatWithDefault("LOSS_THRESHOLD", p.Labels.LossThreshold)
	p.Risk.AccountSize = getEnvFloatWithDefault("ACCOUNT_SIZE", p.Risk.AccountSize)
}

// Helper functions for environment variable handling
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64WithDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatWithDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
