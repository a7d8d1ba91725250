// Package config provides application configuration management with multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (runtime override)
//  2. Config file (~/.syncmind/config.yaml)
//  3. Default values (sensible defaults for quick start)
//
// Main configuration categories:
//   - Storage: PostgreSQL connection (see storage.go)
//   - Embedding: provider selection, model, vector dimension
//   - Summarization: OpenRouter model for content summaries
//   - Server: HTTP listen address, CORS, rate limiting
//
// Secrets (GEMINI_API_KEY, OPENROUTER_API_KEY, DATABASE_URL) are read from
// the environment only and never written to the config file.
//
// Error Handling:
//   - Uses sentinel errors for Go-idiomatic error checking with errors.Is()
//   - Wrap with context using fmt.Errorf("%w: details", ErrXxx)
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrMissingAPIKey indicates a required API key is missing.
	ErrMissingAPIKey = errors.New("missing API key")

	// ErrInvalidProvider indicates the embedding provider is not supported.
	ErrInvalidProvider = errors.New("invalid embedding provider")

	// ErrInvalidEmbedderModel indicates the embedder model is invalid.
	ErrInvalidEmbedderModel = errors.New("invalid embedder model")

	// ErrInvalidDimension indicates the embedding dimension is out of range.
	ErrInvalidDimension = errors.New("invalid embedding dimension")

	// ErrInvalidTopK indicates the search top-k value is out of range.
	ErrInvalidTopK = errors.New("invalid top k")

	// ErrInvalidServerPort indicates the HTTP listen port is out of range.
	ErrInvalidServerPort = errors.New("invalid server port")

	// ErrInvalidSummaryModel indicates the summarization model is invalid.
	ErrInvalidSummaryModel = errors.New("invalid summary model")

	// ErrInvalidPostgresHost indicates the PostgreSQL host is invalid.
	ErrInvalidPostgresHost = errors.New("invalid PostgreSQL host")

	// ErrInvalidPostgresPort indicates the PostgreSQL port is out of range.
	ErrInvalidPostgresPort = errors.New("invalid PostgreSQL port")

	// ErrInvalidPostgresDBName indicates the PostgreSQL database name is invalid.
	ErrInvalidPostgresDBName = errors.New("invalid PostgreSQL database name")

	// ErrInvalidPostgresPassword indicates the PostgreSQL password is invalid.
	ErrInvalidPostgresPassword = errors.New("invalid PostgreSQL password")

	// ErrInvalidPostgresSSLMode indicates the PostgreSQL SSL mode is invalid.
	ErrInvalidPostgresSSLMode = errors.New("invalid PostgreSQL SSL mode")
)

// Embedding provider identifiers used in Config.EmbedderProvider.
const (
	// ProviderGoogleAI embeds through the Gemini API via Genkit.
	ProviderGoogleAI = "googleai"

	// ProviderHTTP embeds through a local sidecar exposing a
	// sentence-transformer model over HTTP.
	ProviderHTTP = "http"
)

const (
	// DefaultEmbedderModel supports truncation to lower dimensions via
	// OutputDimensionality (Matryoshka Representation Learning), which
	// is how we get DefaultDimension-sized vectors out of it.
	DefaultEmbedderModel = "gemini-embedding-001"

	// DefaultDimension matches the vector column width in the documents
	// schema. Changing it requires a migration.
	DefaultDimension = 384

	// DefaultSummaryModel is the OpenRouter model used for summaries.
	DefaultSummaryModel = "deepseek/deepseek-chat-v3-0324:free"
)

// Config stores application configuration.
type Config struct {
	// HTTP server
	ServerHost string `mapstructure:"server_host"`
	ServerPort int    `mapstructure:"server_port"`

	// Storage configuration (see storage.go for documentation)
	PostgresHost     string `mapstructure:"postgres_host"`
	PostgresPort     int    `mapstructure:"postgres_port"`
	PostgresUser     string `mapstructure:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password"` // SENSITIVE: never logged
	PostgresDBName   string `mapstructure:"postgres_db_name"`
	PostgresSSLMode  string `mapstructure:"postgres_ssl_mode"`

	// Embedding configuration
	EmbedderProvider string `mapstructure:"embedder_provider"` // "googleai" (default) or "http"
	EmbedderModel    string `mapstructure:"embedder_model"`
	Dimension        int    `mapstructure:"embedding_dimension"`
	EmbedderBaseURL  string `mapstructure:"embedder_base_url"` // only used when provider is "http"

	// Search configuration
	TopK int `mapstructure:"top_k"`

	// Summarization configuration
	SummaryModel      string `mapstructure:"summary_model"`
	OpenRouterBaseURL string `mapstructure:"openrouter_base_url"`

	// Enrichment configuration
	TranscriptLang     string `mapstructure:"transcript_lang"`
	ScraperTimeoutSecs int    `mapstructure:"scraper_timeout_seconds"`
	ScraperUserAgent   string `mapstructure:"scraper_user_agent"`

	// Server security
	CORSOrigins []string `mapstructure:"cors_origins"`
	TrustProxy  bool     `mapstructure:"trust_proxy"` // set true behind reverse proxy
	RateBurst   int      `mapstructure:"rate_burst"`

	// Observability
	TracingEnabled bool   `mapstructure:"tracing_enabled"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`

	// Logging
	LogLevel string `mapstructure:"log_level"`
	LogJSON  bool   `mapstructure:"log_json"`
}

// Load loads configuration.
// Priority: Environment variables > Configuration file > Default values
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".syncmind")
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir)
	viper.AddConfigPath(".") // Also support current directory

	setDefaults()
	bindEnvVariables()

	if err := viper.ReadInConfig(); err != nil {
		// Configuration file not found is not an error, use default values
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using default values",
			"search_paths", []string{configDir, "."},
			"config_name", "config.yaml")
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	// DATABASE_URL overrides individual postgres_* settings.
	if err := cfg.parseDatabaseURL(); err != nil {
		return nil, fmt.Errorf("parsing DATABASE_URL: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults() {
	// Server defaults
	viper.SetDefault("server_host", "0.0.0.0")
	viper.SetDefault("server_port", 5000)

	// PostgreSQL defaults (matching docker-compose.yml)
	viper.SetDefault("postgres_host", "localhost")
	viper.SetDefault("postgres_port", 5432)
	viper.SetDefault("postgres_user", "syncmind")
	viper.SetDefault("postgres_password", "syncmind_dev_password")
	viper.SetDefault("postgres_db_name", "syncmind")
	viper.SetDefault("postgres_ssl_mode", "disable")

	// Embedding defaults
	viper.SetDefault("embedder_provider", ProviderGoogleAI)
	viper.SetDefault("embedder_model", DefaultEmbedderModel)
	viper.SetDefault("embedding_dimension", DefaultDimension)
	viper.SetDefault("embedder_base_url", "http://localhost:8100")

	// Search defaults
	viper.SetDefault("top_k", 1)

	// Summarization defaults
	viper.SetDefault("summary_model", DefaultSummaryModel)
	viper.SetDefault("openrouter_base_url", "https://openrouter.ai/api/v1")

	// Enrichment defaults
	viper.SetDefault("transcript_lang", "en")
	viper.SetDefault("scraper_timeout_seconds", 10)
	viper.SetDefault("scraper_user_agent", "Mozilla/5.0")

	// CORS defaults
	viper.SetDefault("cors_origins", []string{"http://localhost:4200"})

	// Proxy trust (default: false — safe for direct exposure)
	viper.SetDefault("trust_proxy", false)
	viper.SetDefault("rate_burst", 60)

	// Observability defaults
	viper.SetDefault("tracing_enabled", false)
	viper.SetDefault("otlp_endpoint", "localhost:4318")

	// Logging defaults
	viper.SetDefault("log_level", "info")
	viper.SetDefault("log_json", true)
}

// bindEnvVariables binds environment variable overrides explicitly.
//
// Secrets stay out of Viper entirely:
//   - GEMINI_API_KEY is read directly by the Genkit plugin; its presence
//     is checked in Validate() when the googleai provider is selected.
//   - OPENROUTER_API_KEY is read directly by the summarization client.
//   - DATABASE_URL is parsed separately in parseDatabaseURL().
func bindEnvVariables() {
	// Helper to panic on unexpected bind errors (hardcoded strings can't fail).
	// If this panics, it's a BUG in our code, not a runtime error.
	mustBind := func(key, envVar string) {
		if err := viper.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("server_host", "SYNCMIND_SERVER_HOST")
	mustBind("server_port", "SYNCMIND_SERVER_PORT")
	mustBind("embedder_provider", "SYNCMIND_EMBEDDER_PROVIDER")
	mustBind("embedder_model", "SYNCMIND_EMBEDDER_MODEL")
	mustBind("embedder_base_url", "SYNCMIND_EMBEDDER_BASE_URL")
	mustBind("summary_model", "SYNCMIND_SUMMARY_MODEL")
	mustBind("top_k", "SYNCMIND_TOP_K")
	mustBind("transcript_lang", "SYNCMIND_TRANSCRIPT_LANG")
	mustBind("scraper_timeout_seconds", "SYNCMIND_SCRAPER_TIMEOUT_SECONDS")
	mustBind("scraper_user_agent", "SYNCMIND_SCRAPER_USER_AGENT")
	mustBind("cors_origins", "SYNCMIND_CORS_ORIGINS")
	mustBind("trust_proxy", "SYNCMIND_TRUST_PROXY")
	mustBind("tracing_enabled", "SYNCMIND_TRACING_ENABLED")
	mustBind("otlp_endpoint", "SYNCMIND_OTLP_ENDPOINT")
	mustBind("log_level", "SYNCMIND_LOG_LEVEL")
}

// maskedValue is the placeholder for masked sensitive data. Full-width
// blocks avoid substring collisions with real password characters.
const maskedValue = "████████"

// maskSecret masks a secret string for safe logging. Secrets of 8 chars
// or fewer are fully masked; longer ones keep the first and last two
// characters for debug utility.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return maskedValue
	}
	return s[:2] + "<" + maskedValue + ">" + s[len(s)-2:]
}

// MarshalJSON implements json.Marshaler with sensitive field masking.
// When adding new sensitive fields, update this method.
func (c Config) MarshalJSON() ([]byte, error) {
	type alias Config
	a := alias(c)
	a.PostgresPassword = maskSecret(a.PostgresPassword)
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}

// String implements Stringer to prevent accidental printing of secrets.
func (c Config) String() string {
	data, err := c.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("Config{error: %v}", err)
	}
	return string(data)
}

// OpenRouterAPIKey returns the summarization provider credential from
// the environment. Empty means summaries will degrade to failure
// strings; that is allowed, so no validation error is raised for it.
func (c *Config) OpenRouterAPIKey() string {
	return os.Getenv("OPENROUTER_API_KEY")
}
