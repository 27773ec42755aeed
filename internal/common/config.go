package common

import (
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Storage  StorageConfig  `yaml:"storage"`
	Ingest   IngestConfig   `yaml:"ingest"`
	Server   ServerConfig   `yaml:"server"`
	OCR      OCRConfig      `yaml:"ocr"`
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	DSN              string        `yaml:"dsn" env:"DB_URL"`
	InMemory         bool          `yaml:"inmem" env:"DB_INMEM" env-default:"false"`
	MaxConns         int32         `yaml:"max_conns" env:"DB_MAX_CONNS" env-default:"20"`
	MinConns         int32         `yaml:"min_conns" env:"DB_MIN_CONNS" env-default:"5"`
	MaxConnLifetime  time.Duration `yaml:"max_conn_lifetime" env:"DB_MAX_CONN_LIFETIME" env-default:"30m"`
	MaxConnIdleTime  time.Duration `yaml:"max_conn_idle_time" env:"DB_MAX_CONN_IDLE_TIME" env-default:"5m"`
	DialTimeout      time.Duration `yaml:"dial_timeout" env:"DB_DIAL_TIMEOUT" env-default:"3s"`
	StatementTimeout time.Duration `yaml:"statement_timeout" env:"DB_STATEMENT_TIMEOUT" env-default:"0s"`
}

// StorageConfig selects the object storage backend
type StorageConfig struct {
	Backend   string `yaml:"backend" env:"STORAGE_BACKEND" env-default:"local"`
	LocalRoot string `yaml:"local_root" env:"STORAGE_LOCAL_ROOT" env-default:"./data/buckets"`
	Region    string `yaml:"region" env:"S3_REGION" env-default:"eu-central-1"`
	Endpoint  string `yaml:"endpoint" env:"S3_ENDPOINT"`
	AccessKey string `yaml:"access_key" env:"S3_ACCESS_KEY"`
	SecretKey string `yaml:"secret_key" env:"S3_SECRET_KEY"`
	PathStyle bool   `yaml:"path_style" env:"S3_PATH_STYLE" env-default:"false"`
}

// IngestConfig holds batch and daemon ingestion settings
type IngestConfig struct {
	Bucket          string        `yaml:"bucket" env:"INGEST_BUCKET" env-default:"invoices"`
	DefaultCurrency string        `yaml:"default_currency" env:"INGEST_DEFAULT_CURRENCY" env-default:"EUR"`
	RulesFile       string        `yaml:"rules_file" env:"INGEST_RULES_FILE"`
	WatchDir        string        `yaml:"watch_dir" env:"INGEST_WATCH_DIR"`
	SkipHidden      bool          `yaml:"skip_hidden" env:"INGEST_SKIP_HIDDEN" env-default:"true"`
	Workers         int           `yaml:"workers" env:"INGEST_WORKERS" env-default:"2"`
	QueueSize       int           `yaml:"queue_size" env:"INGEST_QUEUE_SIZE" env-default:"64"`
	DocumentTimeout time.Duration `yaml:"document_timeout" env:"INGEST_DOCUMENT_TIMEOUT" env-default:"2m"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	GRPCAddr string `yaml:"grpc_addr" env:"GRPC_ADDR" env-default:":8080"`
}

// OCRConfig configures the external recognizer command
type OCRConfig struct {
	Command   string        `yaml:"command" env:"OCR_COMMAND"`
	Args      []string      `yaml:"args" env:"OCR_ARGS" env-separator:" "`
	Timeout   time.Duration `yaml:"timeout" env:"OCR_TIMEOUT" env-default:"2m"`
	TempDir   string        `yaml:"temp_dir" env:"OCR_TEMP_DIR"`
	Processor string        `yaml:"processor" env:"OCR_PROCESSOR" env-default:"doctr"`
}

// LoadConfig reads CONFIG_FILE when set, then overlays environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, NewAppError("CONFIG_ERROR", "failed to read "+path, err)
		}
		return &cfg, nil
	}
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, NewAppError("CONFIG_ERROR", "failed to read environment", err)
	}
	return &cfg, nil
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Database.DSN == "" && !c.Database.InMemory {
		return NewAppError("CONFIG_ERROR", "DB_URL is required", ErrInvalidInput)
	}
	switch c.Storage.Backend {
	case "local":
		if c.Storage.LocalRoot == "" {
			return NewAppError("CONFIG_ERROR", "STORAGE_LOCAL_ROOT is required", ErrInvalidInput)
		}
	case "s3":
		if c.Storage.Region == "" {
			return NewAppError("CONFIG_ERROR", "S3_REGION is required", ErrInvalidInput)
		}
	default:
		return NewAppError("CONFIG_ERROR", "STORAGE_BACKEND must be local or s3", ErrInvalidInput)
	}
	if len(c.Ingest.DefaultCurrency) != 3 {
		return NewAppError("CONFIG_ERROR", "INGEST_DEFAULT_CURRENCY must be an ISO 4217 code", ErrInvalidInput)
	}
	if c.Ingest.Workers < 1 {
		return NewAppError("CONFIG_ERROR", "INGEST_WORKERS must be positive", ErrInvalidInput)
	}
	if c.Server.GRPCAddr == "" {
		return NewAppError("CONFIG_ERROR", "GRPC_ADDR is required", ErrInvalidInput)
	}
	return nil
}
