package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	DBDriver      string `yaml:"db_driver"` // postgres | sqlite
	DBDSN         string `yaml:"db_dsn"`
	DBMaxAttempts int    `yaml:"db_max_attempts"`
	AutoMigrate   bool   `yaml:"auto_migrate"`
	ServerPort    string `yaml:"server_port"`
	GinMode       string `yaml:"gin_mode"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"` // text | json

	MediaRoot     string `yaml:"media_root"`
	MediaURL      string `yaml:"media_url"`
	MaxEmbedBytes int64  `yaml:"max_embed_bytes"`

	Storage StorageConfig `yaml:"storage"`

	AdminUsername string `yaml:"admin_username"`
	AdminEmail    string `yaml:"admin_email"`
	AdminPassword string `yaml:"-"`
}

type StorageConfig struct {
	Adapter string        `yaml:"adapter"` // filesystem | s3
	Path    string        `yaml:"path"`
	Timeout time.Duration `yaml:"timeout"`
	S3      S3Config      `yaml:"s3"`
}

type S3Config struct {
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"` // minio / localstack
	AccessKeyID     string `yaml:"-"`
	SecretAccessKey string `yaml:"-"`
	MaxRetries      int    `yaml:"max_retries"`
}

func defaults() *Config {
	return &Config{
		DBDriver:      "postgres",
		DBMaxAttempts: 10,
		AutoMigrate:   true,
		ServerPort:    "8080",
		GinMode:       "release",
		LogLevel:      "info",
		LogFormat:     "text",
		MediaRoot:     "./media",
		MediaURL:      "/media/",
		MaxEmbedBytes: 10 << 20,
		Storage: StorageConfig{
			Adapter: "filesystem",
			Path:    "./data",
			Timeout: 30 * time.Second,
			S3: S3Config{
				Region:     "us-east-1",
				MaxRetries: 3,
			},
		},
		AdminUsername: "admin",
		AdminEmail:    "admin@vulnsphere.local",
	}
}

// Load: значения по умолчанию -> YAML из CONFIG_FILE (если задан) -> переменные окружения.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	cfg.DBDriver = getEnv("DB_DRIVER", cfg.DBDriver)
	cfg.DBDSN = getEnv("DB_DSN", cfg.DBDSN)
	cfg.DBMaxAttempts = getInt("DB_MAX_ATTEMPTS", cfg.DBMaxAttempts)
	cfg.AutoMigrate = getBool("DB_AUTO_MIGRATE", cfg.AutoMigrate)
	cfg.ServerPort = getEnv("SERVER_PORT", cfg.ServerPort)
	cfg.GinMode = getEnv("GIN_MODE", cfg.GinMode)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnv("LOG_FORMAT", cfg.LogFormat)
	cfg.MediaRoot = getEnv("MEDIA_ROOT", cfg.MediaRoot)
	cfg.MediaURL = getEnv("MEDIA_URL", cfg.MediaURL)
	cfg.MaxEmbedBytes = int64(getInt("MAX_EMBED_BYTES", int(cfg.MaxEmbedBytes)))

	cfg.Storage.Adapter = getEnv("STORAGE_ADAPTER", cfg.Storage.Adapter)
	cfg.Storage.Path = getEnv("STORAGE_PATH", cfg.Storage.Path)
	cfg.Storage.Timeout = getDuration("STORAGE_TIMEOUT", cfg.Storage.Timeout)
	cfg.Storage.S3.Bucket = getEnv("S3_BUCKET", cfg.Storage.S3.Bucket)
	cfg.Storage.S3.Region = getEnv("S3_REGION", cfg.Storage.S3.Region)
	cfg.Storage.S3.Endpoint = getEnv("S3_ENDPOINT", cfg.Storage.S3.Endpoint)
	cfg.Storage.S3.AccessKeyID = getEnv("AWS_ACCESS_KEY_ID", "")
	cfg.Storage.S3.SecretAccessKey = getEnv("AWS_SECRET_ACCESS_KEY", "")
	cfg.Storage.S3.MaxRetries = getInt("S3_MAX_RETRIES", cfg.Storage.S3.MaxRetries)

	cfg.AdminUsername = getEnv("ADMIN_USERNAME", cfg.AdminUsername)
	cfg.AdminEmail = getEnv("ADMIN_EMAIL", cfg.AdminEmail)
	cfg.AdminPassword = getEnv("ADMIN_PASSWORD", "")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.DBDSN == "" {
		errs = append(errs, errors.New("DB_DSN is not set"))
	}
	switch c.DBDriver {
	case "postgres", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver))
	}
	if c.DBMaxAttempts < 1 {
		errs = append(errs, errors.New("DB_MAX_ATTEMPTS must be positive"))
	}
	if c.MediaRoot == "" {
		errs = append(errs, errors.New("MEDIA_ROOT is not set"))
	}
	switch c.Storage.Adapter {
	case "filesystem":
		if c.Storage.Path == "" {
			errs = append(errs, errors.New("STORAGE_PATH is required for filesystem storage"))
		}
	case "s3":
		if c.Storage.S3.Bucket == "" {
			errs = append(errs, errors.New("S3_BUCKET is required for s3 storage"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported STORAGE_ADAPTER %q", c.Storage.Adapter))
	}
	return errors.Join(errs...)
}
