package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/viper"
)

// Config defines the application configuration structure
type Config struct {
	Provider ProviderConfig `mapstructure:"provider"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Broker   BrokerConfig   `mapstructure:"broker"`
	Alpaca   AlpacaConfig   `mapstructure:"alpaca"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Batch    BatchConfig    `mapstructure:"batch"`
	Trigger  TriggerConfig  `mapstructure:"trigger"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ProviderConfig selects and tunes the market-data provider
type ProviderConfig struct {
	Name           string `mapstructure:"name"`
	YahooBaseURL   string `mapstructure:"yahoo_base_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// AuthConfig defines Kite authentication configuration
type AuthConfig struct {
	AuthServiceURL    string `mapstructure:"auth_service_url"`
	AuthServiceAPIKey string `mapstructure:"auth_service_api_key"`
	BrokerName        string `mapstructure:"broker_name"`
	ApiKey            string `mapstructure:"api_key"`
	ApiSecret         string `mapstructure:"api_secret"`
	SessionToken      string `mapstructure:"session_token"`
}

// BrokerConfig defines where Kite instrument dumps are fetched from and cached
type BrokerConfig struct {
	InstrumentsNSEURL string `mapstructure:"instruments_nse_url"`
	InstrumentsPath   string `mapstructure:"instruments_path"`
}

// AlpacaConfig holds credentials for the Alpaca market-data API
type AlpacaConfig struct {
	APIKey    string `mapstructure:"api_key"`
	APISecret string `mapstructure:"api_secret"`
	DataURL   string `mapstructure:"data_url"`
}

// StorageConfig defines the object store and prefixes for raw and refined data
type StorageConfig struct {
	Bucket        string `mapstructure:"bucket"`
	RawPrefix     string `mapstructure:"raw_prefix"`
	RefinedPrefix string `mapstructure:"refined_prefix"`
	Region        string `mapstructure:"region"`
	Endpoint      string `mapstructure:"endpoint"`
}

// CatalogConfig defines the table catalog used by the batch refiner
type CatalogConfig struct {
	Backend      string `mapstructure:"backend"`
	SQLitePath   string `mapstructure:"sqlite_path"`
	Database     string `mapstructure:"database"`
	RawTable     string `mapstructure:"raw_table"`
	RefinedTable string `mapstructure:"refined_table"`
}

// BatchConfig tunes the batch refiner
type BatchConfig struct {
	JobName     string `mapstructure:"job_name"`
	Parallelism int    `mapstructure:"parallelism"`
}

// TriggerConfig defines the job started on object-created events
type TriggerConfig struct {
	JobName string `mapstructure:"job_name"`
}

// LoggingConfig configures the structured logger
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// envBindings maps config keys to the environment variables that override
// them. Generic AWS and job variables keep their conventional names.
var envBindings = map[string][]string{
	"provider.name":            {"B3QUOTES_PROVIDER"},
	"provider.yahoo_base_url":  {"B3QUOTES_YAHOO_BASE_URL"},
	"provider.timeout_seconds": {"B3QUOTES_PROVIDER_TIMEOUT"},

	"auth.auth_service_url":     {"B3QUOTES_AUTH_SERVICE_URL"},
	"auth.auth_service_api_key": {"B3QUOTES_AUTH_SERVICE_KEY"},
	"auth.broker_name":          {"B3QUOTES_BROKER_NAME"},
	"auth.api_key":              {"B3QUOTES_KITE_API_KEY"},
	"auth.api_secret":           {"B3QUOTES_KITE_API_SECRET"},
	"auth.session_token":        {"B3QUOTES_KITE_SESSION_TOKEN"},

	"broker.instruments_nse_url": {"B3QUOTES_INSTRUMENTS_NSE_URL"},
	"broker.instruments_path":    {"B3QUOTES_INSTRUMENTS_PATH"},

	"alpaca.api_key":    {"B3QUOTES_ALPACA_API_KEY", "APCA_API_KEY_ID"},
	"alpaca.api_secret": {"B3QUOTES_ALPACA_API_SECRET", "APCA_API_SECRET_KEY"},
	"alpaca.data_url":   {"B3QUOTES_ALPACA_DATA_URL"},

	"storage.bucket":         {"B3QUOTES_S3_BUCKET", "S3_BUCKET"},
	"storage.raw_prefix":     {"B3QUOTES_RAW_PREFIX"},
	"storage.refined_prefix": {"B3QUOTES_REFINED_PREFIX"},
	"storage.region":         {"B3QUOTES_AWS_REGION", "AWS_REGION"},
	"storage.endpoint":       {"B3QUOTES_S3_ENDPOINT", "AWS_ENDPOINT_URL"},

	"catalog.backend":       {"B3QUOTES_CATALOG_BACKEND"},
	"catalog.sqlite_path":   {"B3QUOTES_CATALOG_SQLITE_PATH"},
	"catalog.database":      {"B3QUOTES_CATALOG_DATABASE"},
	"catalog.raw_table":     {"B3QUOTES_RAW_TABLE"},
	"catalog.refined_table": {"B3QUOTES_REFINED_TABLE"},

	"batch.job_name":    {"B3QUOTES_BATCH_JOB_NAME"},
	"batch.parallelism": {"B3QUOTES_BATCH_PARALLELISM"},

	"trigger.job_name": {"GLUE_JOB_NAME"},

	"logging.level":  {"B3QUOTES_LOG_LEVEL", "LOG_LEVEL"},
	"logging.format": {"B3QUOTES_LOG_FORMAT"},
}

// LoadConfig loads configuration from file and overrides with environment
// variables. An empty path, or a path that does not exist, falls back to
// environment variables and defaults.
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	for key, envs := range envBindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return Config{}, fmt.Errorf("error binding env for %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return Config{}, fmt.Errorf("error reading config file %s: %w", path, err)
			}
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("error unmarshaling config: %w", err)
	}

	applyDefaults(&config)
	return config, nil
}

// applyDefaults sets default values for any config values not set from file or environment
func applyDefaults(config *Config) {
	if config.Provider.Name == "" {
		config.Provider.Name = "yahoo"
	}
	if config.Provider.YahooBaseURL == "" {
		config.Provider.YahooBaseURL = "https://query1.finance.yahoo.com"
	}
	if config.Provider.TimeoutSeconds == 0 {
		config.Provider.TimeoutSeconds = 30
	}

	if config.Auth.BrokerName == "" {
		config.Auth.BrokerName = "zerodha"
	}
	if config.Broker.InstrumentsNSEURL == "" {
		config.Broker.InstrumentsNSEURL = "https://api.kite.trade/instruments/NSE"
	}
	if config.Broker.InstrumentsPath == "" {
		config.Broker.InstrumentsPath = "./instruments.csv"
	}

	if config.Storage.RawPrefix == "" {
		config.Storage.RawPrefix = "raw"
	}
	if config.Storage.RefinedPrefix == "" {
		config.Storage.RefinedPrefix = "refined"
	}

	if config.Catalog.Backend == "" {
		config.Catalog.Backend = "glue"
	}
	if config.Catalog.SQLitePath == "" {
		config.Catalog.SQLitePath = "./catalog.db"
	}
	if config.Catalog.Database == "" {
		config.Catalog.Database = "b3_quotes"
	}
	if config.Catalog.RawTable == "" {
		config.Catalog.RawTable = "raw_quotes"
	}
	if config.Catalog.RefinedTable == "" {
		config.Catalog.RefinedTable = "refined_quotes"
	}

	if config.Batch.JobName == "" {
		config.Batch.JobName = "b3-refine"
	}
	if config.Batch.Parallelism <= 0 {
		config.Batch.Parallelism = 8
	}

	if config.Logging.Level == "" {
		config.Logging.Level = "info"
	}
	if config.Logging.Format == "" {
		config.Logging.Format = "json"
	}
}
