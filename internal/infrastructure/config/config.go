package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the application configuration.
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Server     ServerConfig     `mapstructure:"server"`
	Kroger     KrogerConfig     `mapstructure:"kroger"`
	Normalizer NormalizerConfig `mapstructure:"normalizer"`
	Session    SessionConfig    `mapstructure:"session"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
	Alexa      AlexaConfig      `mapstructure:"alexa"`
	LogLevel   string           `mapstructure:"log_level"`
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Env     string `mapstructure:"env"`
	Debug   bool   `mapstructure:"debug"`
	Version string `mapstructure:"version"`
	Name    string `mapstructure:"name"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	DedupWindow  time.Duration `mapstructure:"dedup_window"`
}

// KrogerConfig holds the grocery catalog and OAuth settings.
type KrogerConfig struct {
	ClientID     string        `mapstructure:"client_id"`
	ClientSecret string        `mapstructure:"client_secret"`
	BaseURL      string        `mapstructure:"base_url"`
	OAuthBaseURL string        `mapstructure:"oauth_base_url"`
	RedirectURL  string        `mapstructure:"redirect_url"`
	Scope        string        `mapstructure:"scope"`
	Timeout      time.Duration `mapstructure:"timeout"`
	SearchLimit  int           `mapstructure:"search_limit"`
	StoreLimit   int           `mapstructure:"store_limit"`
}

// NormalizerConfig holds the semantic ingredient normalizer settings.
type NormalizerConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	APIKey    string        `mapstructure:"api_key"`
	BaseURL   string        `mapstructure:"base_url"`
	Model     string        `mapstructure:"model"`
	MaxTokens int           `mapstructure:"max_tokens"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// SessionConfig holds workflow session store settings.
type SessionConfig struct {
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	TTL           time.Duration `mapstructure:"ttl"`
	CleanupEvery  time.Duration `mapstructure:"cleanup_every"`
}

// RateLimitConfig holds rate limiting settings.
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// AlexaConfig holds voice-assistant verification settings.
type AlexaConfig struct {
	SkillID      string        `mapstructure:"skill_id"`
	MaxTimestamp time.Duration `mapstructure:"max_timestamp"`
}

// LoadConfig loads configuration from defaults, .env and the environment.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		// .env is optional; environment variables still apply.
		fmt.Println("Warning: .env file not found")
	}

	setDefaults()

	viper.SetEnvPrefix("APP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.BindEnv("kroger.client_id", "KROGER_CLIENT_ID")
	viper.BindEnv("kroger.client_secret", "KROGER_CLIENT_SECRET")
	viper.BindEnv("kroger.redirect_url", "KROGER_REDIRECT_URL")
	viper.BindEnv("normalizer.api_key", "OPENROUTER_API_KEY")
	viper.BindEnv("normalizer.model", "OPENROUTER_MODEL")
	viper.BindEnv("normalizer.enabled", "NORMALIZER_ENABLED")
	viper.BindEnv("session.redis_addr", "REDIS_ADDR")
	viper.BindEnv("session.redis_password", "REDIS_PASSWORD")
	viper.BindEnv("rate_limit.enabled", "RATE_LIMIT_ENABLED")
	viper.BindEnv("rate_limit.requests", "RATE_LIMIT_REQUESTS")
	viper.BindEnv("rate_limit.window", "RATE_LIMIT_WINDOW")
	viper.BindEnv("alexa.skill_id", "ALEXA_SKILL_ID")
	viper.BindEnv("log_level", "LOG_LEVEL")

	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Logger is not initialized yet, so plain stdout here.
	fmt.Println("Loading configuration",
		"kroger_client_id:", maskSecret(viper.GetString("kroger.client_id")),
		"normalizer_model:", viper.GetString("normalizer.model"),
	)

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// maskSecret shows only the first and last 4 characters of a secret.
func maskSecret(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

func setDefaults() {
	viper.SetDefault("app.env", "development")
	viper.SetDefault("app.debug", true)
	viper.SetDefault("app.version", "1.0.0")
	viper.SetDefault("app.name", "auto-cart")

	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")
	viper.SetDefault("server.idle_timeout", "120s")
	viper.SetDefault("server.dedup_window", "1s")

	viper.SetDefault("kroger.base_url", "https://api.kroger.com/v1")
	viper.SetDefault("kroger.oauth_base_url", "https://api.kroger.com/v1/connect/oauth2")
	viper.SetDefault("kroger.scope", "cart.basic:write product.compact profile.compact")
	viper.SetDefault("kroger.timeout", "10s")
	viper.SetDefault("kroger.search_limit", 10)
	viper.SetDefault("kroger.store_limit", 5)

	viper.SetDefault("normalizer.enabled", true)
	viper.SetDefault("normalizer.base_url", "https://openrouter.ai/api/v1")
	viper.SetDefault("normalizer.model", "qwen/qwen2.5-vl-72b-instruct:free")
	viper.SetDefault("normalizer.max_tokens", 1000)
	viper.SetDefault("normalizer.timeout", "10s")

	viper.SetDefault("session.redis_addr", "")
	viper.SetDefault("session.ttl", "30m")
	viper.SetDefault("session.cleanup_every", "5m")

	viper.SetDefault("rate_limit.enabled", true)
	viper.SetDefault("rate_limit.requests", 100)
	viper.SetDefault("rate_limit.window", "1m")

	viper.SetDefault("alexa.max_timestamp", "150s")

	viper.SetDefault("log_level", "info")
}

func validateConfig(config *Config) error {
	if config.Server.Port == 0 {
		return fmt.Errorf("server port is required")
	}

	if config.Kroger.SearchLimit <= 0 {
		return fmt.Errorf("invalid kroger search limit")
	}
	if config.Kroger.StoreLimit <= 0 {
		return fmt.Errorf("invalid kroger store limit")
	}
	if config.Kroger.Timeout <= 0 {
		return fmt.Errorf("invalid kroger timeout")
	}

	if config.Session.TTL <= 0 {
		return fmt.Errorf("invalid session ttl")
	}
	if config.Session.CleanupEvery <= 0 {
		return fmt.Errorf("invalid session cleanup interval")
	}

	if config.Normalizer.Enabled && config.Normalizer.Timeout <= 0 {
		return fmt.Errorf("invalid normalizer timeout")
	}

	return nil
}
