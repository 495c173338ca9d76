package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// The values are read by Viper from a config file or environment variables.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Storage  StorageConfig  `mapstructure:"storage"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	AI       AIConfig       `mapstructure:"ai"`
	Upload   UploadConfig   `mapstructure:"upload"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Log      LogConfig      `mapstructure:"log"`
	PDF      PDFConfig      `mapstructure:"pdf"`
}

type ServerConfig struct {
	Address        string        `mapstructure:"address"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	// Per-user token bucket for the processing endpoints.
	ProcessingRate  float64 `mapstructure:"processing_rate"`
	ProcessingBurst int     `mapstructure:"processing_burst"`
}

// DatabaseConfig selects the store backend. Driver is one of
// "postgres", "sqlite" (both via gorm, using DSN) or "mongo" (URI + Name).
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
	URI    string `mapstructure:"uri"`
	Name   string `mapstructure:"name"`
}

// StorageConfig configures where rendered PDFs are kept.
type StorageConfig struct {
	Driver string   `mapstructure:"driver"` // "local" or "s3"
	Path   string   `mapstructure:"path"`
	S3     S3Config `mapstructure:"s3"`
}

type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	BucketName      string `mapstructure:"bucket_name"`
}

// JWTConfig defines JWT specific configuration
type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	Expiration time.Duration `mapstructure:"expiration"`
}

// AIConfig points at the generative-AI endpoint used for summaries.
// An empty APIKey disables the remote call.
type AIConfig struct {
	BaseURL         string        `mapstructure:"base_url"`
	Model           string        `mapstructure:"model"`
	APIKey          string        `mapstructure:"api_key"`
	Timeout         time.Duration `mapstructure:"timeout"`
	MaxPreviewChars int           `mapstructure:"max_preview_chars"`
}

type UploadConfig struct {
	MaxBytes         int64 `mapstructure:"max_bytes"`
	PreviewRows      int   `mapstructure:"preview_rows"`
	ReportRows       int   `mapstructure:"report_rows"`
	PreviewTextChars int   `mapstructure:"preview_text_chars"`
}

type AuthConfig struct {
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

type LogConfig struct {
	Mode string `mapstructure:"mode"`
}

type PDFConfig struct {
	// TrueType font used for report text. Empty uses the bundled Go fonts.
	FontFile string `mapstructure:"font_file"`
}

// LoadConfig reads configuration from file or environment variables.
// A .env file in path is loaded into the process environment first, without
// overriding variables that are already set.
func LoadConfig(path string) (Config, error) {
	var config Config

	if err := godotenv.Load(filepath.Join(path, ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return config, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// server.address -> SERVER_ADDRESS, jwt.expiration -> JWT_EXPIRATION
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`))
	_ = v.BindEnv("ai.api_key", "AI_API_KEY", "GEMINI_API_KEY")
	_ = v.BindEnv("upload.max_bytes", "UPLOAD_MAX_BYTES", "MAX_FILE_SIZE")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return config, fmt.Errorf("read config: %w", err)
		}
	}

	if err := v.Unmarshal(&config); err != nil {
		return config, fmt.Errorf("decode config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return config, err
	}
	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.read_timeout", "30s")
	// Generous enough to cover the AI call on the processing endpoints.
	v.SetDefault("server.write_timeout", "150s")
	v.SetDefault("server.processing_rate", 0.5)
	v.SetDefault("server.processing_burst", 5)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "file:reports.db?_foreign_keys=on")
	v.SetDefault("database.uri", "mongodb://localhost:27017")
	v.SetDefault("database.name", "ai_reports")

	v.SetDefault("storage.driver", "local")
	v.SetDefault("storage.path", "uploads")
	v.SetDefault("storage.s3.endpoint", "")
	v.SetDefault("storage.s3.region", "us-east-1")
	v.SetDefault("storage.s3.access_key_id", "")
	v.SetDefault("storage.s3.secret_access_key", "")
	v.SetDefault("storage.s3.bucket_name", "")

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expiration", "1h")

	v.SetDefault("ai.base_url", "https://generativelanguage.googleapis.com")
	v.SetDefault("ai.model", "gemini-2.5-flash")
	v.SetDefault("ai.api_key", "")
	v.SetDefault("ai.timeout", "120s")
	v.SetDefault("ai.max_preview_chars", 3500)

	v.SetDefault("upload.max_bytes", 10*1024*1024)
	v.SetDefault("upload.preview_rows", 15)
	v.SetDefault("upload.report_rows", 500)
	v.SetDefault("upload.preview_text_chars", 2000)

	v.SetDefault("auth.sweep_interval", "1h")
	v.SetDefault("log.mode", "development")
	v.SetDefault("pdf.font_file", "")
}

// Validate reports configuration the server cannot start with.
func (c Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("jwt.secret (JWT_SECRET) is required")
	}
	switch c.Database.Driver {
	case "postgres", "sqlite", "mongo":
	default:
		return fmt.Errorf("unsupported database.driver %q", c.Database.Driver)
	}
	switch c.Storage.Driver {
	case "local":
	case "s3":
		if c.Storage.S3.BucketName == "" {
			return errors.New("storage.s3.bucket_name is required for the s3 driver")
		}
	default:
		return fmt.Errorf("unsupported storage.driver %q", c.Storage.Driver)
	}
	if c.Upload.MaxBytes <= 0 {
		return errors.New("upload.max_bytes must be positive")
	}
	return nil
}
