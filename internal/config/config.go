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
	Server   ServerConfig
	DB       DBConfig
	JWT      JWTConfig
	S3       S3Config
	Log      LogConfig
	CORS     CORSConfig
	Oracle   OracleConfig
	Pipeline PipelineConfig
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// OracleProviderConfig holds settings for a single generative model provider.
type OracleProviderConfig struct {
	Provider        string `mapstructure:"provider"`
	APIKey          string `mapstructure:"api_key"`
	BaseURL         string `mapstructure:"base_url"`
	ExtractionModel string `mapstructure:"extraction_model"`
	MatchingModel   string `mapstructure:"matching_model"`
	TimeoutSecs     int    `mapstructure:"timeout_secs"`
}

// Timeout returns the per-request timeout, defaulting to two minutes.
func (p *OracleProviderConfig) Timeout() time.Duration {
	if p.TimeoutSecs <= 0 {
		return 2 * time.Minute
	}
	return time.Duration(p.TimeoutSecs) * time.Second
}

// OracleConfig holds the ordered provider chain used for extraction and matching.
type OracleConfig struct {
	Primary           OracleProviderConfig `mapstructure:"primary"`
	Secondary         OracleProviderConfig `mapstructure:"secondary"`
	Tertiary          OracleProviderConfig `mapstructure:"tertiary"`
	RequestsPerMinute int                  `mapstructure:"requests_per_minute"`
	RetryBaseDelay    time.Duration        `mapstructure:"retry_base_delay"`
	MaxRetries        int                  `mapstructure:"max_retries"`
}

// Providers returns the configured providers in fallback order.
func (o *OracleConfig) Providers() []*OracleProviderConfig {
	var out []*OracleProviderConfig
	for _, p := range []*OracleProviderConfig{&o.Primary, &o.Secondary, &o.Tertiary} {
		if p.Provider != "" {
			out = append(out, p)
		}
	}
	return out
}

// PipelineConfig holds batch processing settings.
type PipelineConfig struct {
	Concurrency   int     `mapstructure:"concurrency"`
	WordBudget    int     `mapstructure:"word_budget"`
	MinTextWords  int     `mapstructure:"min_text_words"`
	LineThreshold float64 `mapstructure:"line_threshold"`
	RenderScale   float64 `mapstructure:"render_scale"`
	JPEGQuality   int     `mapstructure:"jpeg_quality"`
	PdftoppmPath  string  `mapstructure:"pdftoppm_path"`
	TempDir       string  `mapstructure:"temp_dir"`
	MaxFiles      int     `mapstructure:"max_files"`
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

// JWTConfig holds JWT signing and expiry settings.
type JWTConfig struct {
	Secret string        `mapstructure:"secret"`
	Expiry time.Duration `mapstructure:"expiry"`
	Issuer string        `mapstructure:"issuer"`
}

// S3Config holds object storage settings for uploaded documents.
type S3Config struct {
	Region        string `mapstructure:"region"`
	Bucket        string `mapstructure:"bucket"`
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	MaxFileSizeMB int64  `mapstructure:"max_file_size_mb"`
	PresignExpiry int64  `mapstructure:"presign_expiry"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from environment variables with the POINTAKE_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("POINTAKE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.environment", "development")

	// DB defaults
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "pointake")
	v.SetDefault("db.password", "pointake_secret")
	v.SetDefault("db.name", "pointake_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 25)
	v.SetDefault("db.max_idle", 10)

	// JWT defaults
	v.SetDefault("jwt.secret", "change-me-in-production")
	v.SetDefault("jwt.expiry", "24h")
	v.SetDefault("jwt.issuer", "pointake")

	// S3 defaults
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.bucket", "pointake-documents")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.max_file_size_mb", 25)
	v.SetDefault("s3.presign_expiry", 86400)

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	// CORS defaults (localhost origins for development)
	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000,http://localhost:5173")

	// Oracle defaults
	v.SetDefault("oracle.primary.provider", "gemini")
	v.SetDefault("oracle.primary.api_key", "")
	v.SetDefault("oracle.primary.base_url", "")
	v.SetDefault("oracle.primary.extraction_model", "gemini-2.5-flash")
	v.SetDefault("oracle.primary.matching_model", "gemini-2.0-flash-lite")
	v.SetDefault("oracle.primary.timeout_secs", 120)
	v.SetDefault("oracle.secondary.provider", "")
	v.SetDefault("oracle.secondary.api_key", "")
	v.SetDefault("oracle.secondary.base_url", "")
	v.SetDefault("oracle.secondary.extraction_model", "")
	v.SetDefault("oracle.secondary.matching_model", "")
	v.SetDefault("oracle.secondary.timeout_secs", 120)
	v.SetDefault("oracle.tertiary.provider", "")
	v.SetDefault("oracle.tertiary.api_key", "")
	v.SetDefault("oracle.tertiary.base_url", "")
	v.SetDefault("oracle.tertiary.extraction_model", "")
	v.SetDefault("oracle.tertiary.matching_model", "")
	v.SetDefault("oracle.tertiary.timeout_secs", 120)
	v.SetDefault("oracle.requests_per_minute", 0)
	v.SetDefault("oracle.retry_base_delay", "2s")
	v.SetDefault("oracle.max_retries", 3)

	// Pipeline defaults
	v.SetDefault("pipeline.concurrency", 2)
	v.SetDefault("pipeline.word_budget", 950)
	v.SetDefault("pipeline.min_text_words", 10)
	v.SetDefault("pipeline.line_threshold", 5.0)
	v.SetDefault("pipeline.render_scale", 2.0)
	v.SetDefault("pipeline.jpeg_quality", 80)
	v.SetDefault("pipeline.pdftoppm_path", "pdftoppm")
	v.SetDefault("pipeline.temp_dir", "")
	v.SetDefault("pipeline.max_files", 50)

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":                       "POINTAKE_SERVER_PORT",
		"server.read_timeout":               "POINTAKE_SERVER_READ_TIMEOUT",
		"server.write_timeout":              "POINTAKE_SERVER_WRITE_TIMEOUT",
		"server.environment":                "POINTAKE_SERVER_ENVIRONMENT",
		"db.host":                           "POINTAKE_DB_HOST",
		"db.port":                           "POINTAKE_DB_PORT",
		"db.user":                           "POINTAKE_DB_USER",
		"db.password":                       "POINTAKE_DB_PASSWORD",
		"db.name":                           "POINTAKE_DB_NAME",
		"db.sslmode":                        "POINTAKE_DB_SSLMODE",
		"db.max_open":                       "POINTAKE_DB_MAX_OPEN",
		"db.max_idle":                       "POINTAKE_DB_MAX_IDLE",
		"jwt.secret":                        "POINTAKE_JWT_SECRET",
		"jwt.expiry":                        "POINTAKE_JWT_EXPIRY",
		"jwt.issuer":                        "POINTAKE_JWT_ISSUER",
		"s3.region":                         "POINTAKE_S3_REGION",
		"s3.bucket":                         "POINTAKE_S3_BUCKET",
		"s3.endpoint":                       "POINTAKE_S3_ENDPOINT",
		"s3.access_key":                     "POINTAKE_S3_ACCESS_KEY",
		"s3.secret_key":                     "POINTAKE_S3_SECRET_KEY",
		"s3.max_file_size_mb":               "POINTAKE_S3_MAX_FILE_SIZE_MB",
		"s3.presign_expiry":                 "POINTAKE_S3_PRESIGN_EXPIRY",
		"log.level":                         "POINTAKE_LOG_LEVEL",
		"log.format":                        "POINTAKE_LOG_FORMAT",
		"cors.allowed_origins":              "POINTAKE_CORS_ALLOWED_ORIGINS",
		"oracle.primary.provider":           "POINTAKE_ORACLE_PRIMARY_PROVIDER",
		"oracle.primary.api_key":            "POINTAKE_ORACLE_PRIMARY_API_KEY",
		"oracle.primary.base_url":           "POINTAKE_ORACLE_PRIMARY_BASE_URL",
		"oracle.primary.extraction_model":   "POINTAKE_ORACLE_PRIMARY_EXTRACTION_MODEL",
		"oracle.primary.matching_model":     "POINTAKE_ORACLE_PRIMARY_MATCHING_MODEL",
		"oracle.primary.timeout_secs":       "POINTAKE_ORACLE_PRIMARY_TIMEOUT_SECS",
		"oracle.secondary.provider":         "POINTAKE_ORACLE_SECONDARY_PROVIDER",
		"oracle.secondary.api_key":          "POINTAKE_ORACLE_SECONDARY_API_KEY",
		"oracle.secondary.base_url":         "POINTAKE_ORACLE_SECONDARY_BASE_URL",
		"oracle.secondary.extraction_model": "POINTAKE_ORACLE_SECONDARY_EXTRACTION_MODEL",
		"oracle.secondary.matching_model":   "POINTAKE_ORACLE_SECONDARY_MATCHING_MODEL",
		"oracle.secondary.timeout_secs":     "POINTAKE_ORACLE_SECONDARY_TIMEOUT_SECS",
		"oracle.tertiary.provider":          "POINTAKE_ORACLE_TERTIARY_PROVIDER",
		"oracle.tertiary.api_key":           "POINTAKE_ORACLE_TERTIARY_API_KEY",
		"oracle.tertiary.base_url":          "POINTAKE_ORACLE_TERTIARY_BASE_URL",
		"oracle.tertiary.extraction_model":  "POINTAKE_ORACLE_TERTIARY_EXTRACTION_MODEL",
		"oracle.tertiary.matching_model":    "POINTAKE_ORACLE_TERTIARY_MATCHING_MODEL",
		"oracle.tertiary.timeout_secs":      "POINTAKE_ORACLE_TERTIARY_TIMEOUT_SECS",
		"oracle.requests_per_minute":        "POINTAKE_ORACLE_REQUESTS_PER_MINUTE",
		"oracle.retry_base_delay":           "POINTAKE_ORACLE_RETRY_BASE_DELAY",
		"oracle.max_retries":                "POINTAKE_ORACLE_MAX_RETRIES",
		"pipeline.concurrency":              "POINTAKE_PIPELINE_CONCURRENCY",
		"pipeline.word_budget":              "POINTAKE_PIPELINE_WORD_BUDGET",
		"pipeline.min_text_words":           "POINTAKE_PIPELINE_MIN_TEXT_WORDS",
		"pipeline.line_threshold":           "POINTAKE_PIPELINE_LINE_THRESHOLD",
		"pipeline.render_scale":             "POINTAKE_PIPELINE_RENDER_SCALE",
		"pipeline.jpeg_quality":             "POINTAKE_PIPELINE_JPEG_QUALITY",
		"pipeline.pdftoppm_path":            "POINTAKE_PIPELINE_PDFTOPPM_PATH",
		"pipeline.temp_dir":                 "POINTAKE_PIPELINE_TEMP_DIR",
		"pipeline.max_files":                "POINTAKE_PIPELINE_MAX_FILES",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Hosting platforms set a PORT env var. Use it if POINTAKE_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("POINTAKE_SERVER_PORT") == "" {
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
	cfg.JWT = JWTConfig{
		Secret: v.GetString("jwt.secret"),
		Expiry: v.GetDuration("jwt.expiry"),
		Issuer: v.GetString("jwt.issuer"),
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
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}
	// Parse CORS allowed origins from comma-separated string
	var corsOrigins []string
	for _, o := range strings.Split(v.GetString("cors.allowed_origins"), ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			corsOrigins = append(corsOrigins, o)
		}
	}
	cfg.CORS = CORSConfig{
		AllowedOrigins: corsOrigins,
	}

	cfg.Oracle = OracleConfig{
		Primary:           loadProvider(v, "oracle.primary"),
		Secondary:         loadProvider(v, "oracle.secondary"),
		Tertiary:          loadProvider(v, "oracle.tertiary"),
		RequestsPerMinute: v.GetInt("oracle.requests_per_minute"),
		RetryBaseDelay:    v.GetDuration("oracle.retry_base_delay"),
		MaxRetries:        v.GetInt("oracle.max_retries"),
	}

	cfg.Pipeline = PipelineConfig{
		Concurrency:   v.GetInt("pipeline.concurrency"),
		WordBudget:    v.GetInt("pipeline.word_budget"),
		MinTextWords:  v.GetInt("pipeline.min_text_words"),
		LineThreshold: v.GetFloat64("pipeline.line_threshold"),
		RenderScale:   v.GetFloat64("pipeline.render_scale"),
		JPEGQuality:   v.GetInt("pipeline.jpeg_quality"),
		PdftoppmPath:  v.GetString("pipeline.pdftoppm_path"),
		TempDir:       v.GetString("pipeline.temp_dir"),
		MaxFiles:      v.GetInt("pipeline.max_files"),
	}

	if len(cfg.Oracle.Providers()) == 0 {
		return nil, fmt.Errorf("no oracle provider configured")
	}
	return cfg, nil
}

func loadProvider(v *viper.Viper, prefix string) OracleProviderConfig {
	return OracleProviderConfig{
		Provider:        v.GetString(prefix + ".provider"),
		APIKey:          v.GetString(prefix + ".api_key"),
		BaseURL:         v.GetString(prefix + ".base_url"),
		ExtractionModel: v.GetString(prefix + ".extraction_model"),
		MatchingModel:   v.GetString(prefix + ".matching_model"),
		TimeoutSecs:     v.GetInt(prefix + ".timeout_secs"),
	}
}
