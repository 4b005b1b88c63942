package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// FileEnv names an optional YAML file layered under the environment.
const FileEnv = "ESTATEDOCS_CONFIG"

type Config struct {
	Port            string        `mapstructure:"port"`
	Env             string        `mapstructure:"environment"`
	LogLevel        string        `mapstructure:"log_level"`
	LogFormat       string        `mapstructure:"log_format"`
	PublicBaseURL   string        `mapstructure:"public_base_url"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	GeneratorBackend string        `mapstructure:"generator_backend"`
	OpenAIAPIKey     string        `mapstructure:"openai_api_key"`
	OpenAIModel      string        `mapstructure:"openai_model"`
	OpenAIBaseURL    string        `mapstructure:"openai_base_url"`
	OpenAITimeout    time.Duration `mapstructure:"openai_timeout"`

	StripeSecretKey      string `mapstructure:"stripe_secret_key"`
	StripePublishableKey string `mapstructure:"stripe_publishable_key"`

	StorageBackend string `mapstructure:"storage_backend"`
	DownloadDir    string `mapstructure:"download_dir"`
	MinioEndpoint  string `mapstructure:"minio_endpoint"`
	MinioAccessKey string `mapstructure:"minio_access_key"`
	MinioSecretKey string `mapstructure:"minio_secret_key"`
	MinioBucket    string `mapstructure:"minio_bucket"`
	MinioUseSSL    bool   `mapstructure:"minio_use_ssl"`
	MinioRegion    string `mapstructure:"minio_region"`

	// RegistryDSN switches token reservation to Postgres when set.
	RegistryDSN string `mapstructure:"registry_dsn"`
}

var defaults = map[string]any{
	"port":              "5001",
	"environment":       "development",
	"log_level":         "info",
	"log_format":        "text",
	"public_base_url":   "http://127.0.0.1:5001",
	"read_timeout":      "30s",
	"write_timeout":     "180s",
	"idle_timeout":      "120s",
	"shutdown_timeout":  "30s",
	"generator_backend": "openai",
	"openai_model":      "gpt-4-turbo",
	"openai_timeout":    "120s",
	"storage_backend":   "filesystem",
	"download_dir":      "static/downloads",
	"minio_bucket":      "estatedocs",
}

// keys lists every setting; each binds to its upper-cased environment variable.
var keys = []string{
	"port", "environment", "log_level", "log_format", "public_base_url",
	"read_timeout", "write_timeout", "idle_timeout", "shutdown_timeout",
	"generator_backend", "openai_api_key", "openai_model", "openai_base_url", "openai_timeout",
	"stripe_secret_key", "stripe_publishable_key",
	"storage_backend", "download_dir",
	"minio_endpoint", "minio_access_key", "minio_secret_key", "minio_bucket", "minio_use_ssl", "minio_region",
	"registry_dsn",
}

// Load reads the configuration and checks everything the server needs.
func Load() (*Config, error) {
	cfg, err := ReadEnv()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ReadEnv reads the file named by FileEnv, if any, without validating.
func ReadEnv() (*Config, error) {
	return Read(os.Getenv(FileEnv))
}

// Read merges defaults, the optional YAML file at path and the environment,
// without validating.
func Read(path string) (*Config, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	for _, k := range keys {
		if err := v.BindEnv(k, strings.ToUpper(k)); err != nil {
			return nil, fmt.Errorf("bind %s: %w", k, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.PublicBaseURL = strings.TrimRight(cfg.PublicBaseURL, "/")
	return &cfg, nil
}

// Validate reports every missing or inconsistent setting at once.
func (c *Config) Validate() error {
	var errs []error
	if err := c.ValidateGenerator(); err != nil {
		errs = append(errs, err)
	}
	if c.StripeSecretKey == "" {
		errs = append(errs, errors.New("STRIPE_SECRET_KEY environment variable is required"))
	}
	if err := c.ValidateStorage(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (c *Config) ValidateGenerator() error {
	switch c.GeneratorBackend {
	case "openai":
		if c.OpenAIAPIKey == "" {
			return errors.New("OPENAI_API_KEY environment variable is required")
		}
	case "mock":
	default:
		return fmt.Errorf("GENERATOR_BACKEND must be openai or mock, got %q", c.GeneratorBackend)
	}
	return nil
}

func (c *Config) ValidateStorage() error {
	switch c.StorageBackend {
	case "filesystem":
		if c.DownloadDir == "" {
			return errors.New("DOWNLOAD_DIR must not be empty")
		}
	case "minio":
		if c.MinioEndpoint == "" || c.MinioBucket == "" {
			return errors.New("MINIO_ENDPOINT and MINIO_BUCKET are required for minio storage")
		}
		// markers for the filesystem registry still live under DOWNLOAD_DIR
		if c.RegistryDSN == "" && c.DownloadDir == "" {
			return errors.New("REGISTRY_DSN or DOWNLOAD_DIR is required for token reservation")
		}
	default:
		return fmt.Errorf("STORAGE_BACKEND must be filesystem or minio, got %q", c.StorageBackend)
	}
	return nil
}
