package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server  ServerConfig
	DB      DBConfig
	S3      S3Config
	Gemini  GeminiConfig
	Mistral MistralConfig
	CORS    CORSConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// S3Config holds object storage settings for the image archive. An empty
// bucket disables archiving.
type S3Config struct {
	Region        string `mapstructure:"region"`
	Bucket        string `mapstructure:"bucket"`
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	MaxFileSizeMB int64  `mapstructure:"max_file_size_mb"`
	PresignExpiry int64  `mapstructure:"presign_expiry"`
}

// GeminiConfig holds Google Gemini API settings.
type GeminiConfig struct {
	APIKey      string `mapstructure:"api_key"`
	ChatModel   string `mapstructure:"chat_model"`
	VisionModel string `mapstructure:"vision_model"`
	TimeoutSecs int    `mapstructure:"timeout_secs"`
}

// MistralConfig holds Mistral chat-completions API settings.
type MistralConfig struct {
	APIKey       string `mapstructure:"api_key"`
	APIURL       string `mapstructure:"api_url"`
	DefaultModel string `mapstructure:"default_model"`
	TimeoutSecs  int    `mapstructure:"timeout_secs"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// Load reads configuration from environment variables with the NOTASCAN_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("NOTASCAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.environment", "development")

	// DB defaults
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "notascan")
	v.SetDefault("db.password", "notascan_secret")
	v.SetDefault("db.name", "notascan_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 25)
	v.SetDefault("db.max_idle", 10)

	// S3 defaults (archiving off until a bucket is configured)
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.bucket", "")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.max_file_size_mb", 10)
	v.SetDefault("s3.presign_expiry", 3600)

	// Gemini defaults
	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.chat_model", "gemini-2.0-flash")
	v.SetDefault("gemini.vision_model", "gemini-1.5-flash")
	v.SetDefault("gemini.timeout_secs", 120)

	// Mistral defaults
	v.SetDefault("mistral.api_key", "")
	v.SetDefault("mistral.api_url", "https://api.mistral.ai/v1/chat/completions")
	v.SetDefault("mistral.default_model", "mistral-medium")
	v.SetDefault("mistral.timeout_secs", 60)

	// CORS defaults (frontend dev origin)
	v.SetDefault("cors.allowed_origins", "http://localhost:4200,http://127.0.0.1:4200")

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":           "NOTASCAN_SERVER_PORT",
		"server.read_timeout":   "NOTASCAN_SERVER_READ_TIMEOUT",
		"server.write_timeout":  "NOTASCAN_SERVER_WRITE_TIMEOUT",
		"server.environment":    "NOTASCAN_SERVER_ENVIRONMENT",
		"db.host":               "NOTASCAN_DB_HOST",
		"db.port":               "NOTASCAN_DB_PORT",
		"db.user":               "NOTASCAN_DB_USER",
		"db.password":           "NOTASCAN_DB_PASSWORD",
		"db.name":               "NOTASCAN_DB_NAME",
		"db.sslmode":            "NOTASCAN_DB_SSLMODE",
		"db.max_open":           "NOTASCAN_DB_MAX_OPEN",
		"db.max_idle":           "NOTASCAN_DB_MAX_IDLE",
		"s3.region":             "NOTASCAN_S3_REGION",
		"s3.bucket":             "NOTASCAN_S3_BUCKET",
		"s3.endpoint":           "NOTASCAN_S3_ENDPOINT",
		"s3.access_key":         "NOTASCAN_S3_ACCESS_KEY",
		"s3.secret_key":         "NOTASCAN_S3_SECRET_KEY",
		"s3.max_file_size_mb":   "NOTASCAN_S3_MAX_FILE_SIZE_MB",
		"s3.presign_expiry":     "NOTASCAN_S3_PRESIGN_EXPIRY",
		"gemini.api_key":        "NOTASCAN_GEMINI_API_KEY",
		"gemini.chat_model":     "NOTASCAN_GEMINI_CHAT_MODEL",
		"gemini.vision_model":   "NOTASCAN_GEMINI_VISION_MODEL",
		"gemini.timeout_secs":   "NOTASCAN_GEMINI_TIMEOUT_SECS",
		"mistral.api_key":       "NOTASCAN_MISTRAL_API_KEY",
		"mistral.api_url":       "NOTASCAN_MISTRAL_API_URL",
		"mistral.default_model": "NOTASCAN_MISTRAL_DEFAULT_MODEL",
		"mistral.timeout_secs":  "NOTASCAN_MISTRAL_TIMEOUT_SECS",
		"cors.allowed_origins":  "NOTASCAN_CORS_ALLOWED_ORIGINS",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if NOTASCAN_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("NOTASCAN_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}
	cfg.DB = DBConfig{
		Host:     v.GetString("db.host"),
		Port:     v.GetInt("db.port"),
		User:     v.GetString("db.user"),
		Password: v.GetString("db.password"),
		Name:     v.GetString("db.name"),
		SSLMode:  v.GetString("db.sslmode"),
		MaxOpen:  v.GetInt("db.max_open"),
		MaxIdle:  v.GetInt("db.max_idle"),
	}
	cfg.S3 = S3Config{
		Region:        v.GetString("s3.region"),
		Bucket:        v.GetString("s3.bucket"),
		Endpoint:      v.GetString("s3.endpoint"),
		AccessKey:     v.GetString("s3.access_key"),
		SecretKey:     v.GetString("s3.secret_key"),
		MaxFileSizeMB: v.GetInt64("s3.max_file_size_mb"),
		PresignExpiry: v.GetInt64("s3.presign_expiry"),
	}
	cfg.Gemini = GeminiConfig{
		APIKey:      v.GetString("gemini.api_key"),
		ChatModel:   v.GetString("gemini.chat_model"),
		VisionModel: v.GetString("gemini.vision_model"),
		TimeoutSecs: v.GetInt("gemini.timeout_secs"),
	}
	cfg.Mistral = MistralConfig{
		APIKey:       v.GetString("mistral.api_key"),
		APIURL:       v.GetString("mistral.api_url"),
		DefaultModel: v.GetString("mistral.default_model"),
		TimeoutSecs:  v.GetInt("mistral.timeout_secs"),
	}

	// Parse CORS allowed origins from comma-separated string
	var corsOrigins []string
	for _, o := range strings.Split(v.GetString("cors.allowed_origins"), ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			corsOrigins = append(corsOrigins, o)
		}
	}
	cfg.CORS = CORSConfig{AllowedOrigins: corsOrigins}

	return cfg, nil
}
