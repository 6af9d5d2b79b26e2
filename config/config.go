package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// ServerConfig holds all configuration for the server.
// Tags use mapstructure for Viper unmarshalling.
type ServerConfig struct {
	HTTPPort    string `mapstructure:"HTTP_PORT"`
	MongoURI    string `mapstructure:"MONGO_URI"`
	MongoDBName string `mapstructure:"MONGO_DB_NAME"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`
	LogPretty   bool   `mapstructure:"LOG_PRETTY"`

	// TracingEnabled turns on the OpenTelemetry tracer provider. Mongo
	// driver spans are emitted either way but go nowhere without it.
	TracingEnabled bool `mapstructure:"TRACING_ENABLED"`

	// FrontendURL is where the OAuth callback redirects the browser, with
	// the exchange token (or an error) in the query string.
	FrontendURL string `mapstructure:"FRONTEND_URL"`

	// Exchange token store. RedisAddr empty means the in-memory store; set
	// it when running more than one instance behind a load balancer.
	ExchangeTokenTTLMin int    `mapstructure:"EXCHANGE_TOKEN_TTL_MIN"`
	ExchangeGraceSec    int    `mapstructure:"EXCHANGE_GRACE_SEC"`
	RedisAddr           string `mapstructure:"REDIS_ADDR"`
	RedisPassword       string `mapstructure:"REDIS_PASSWORD"`
	RedisKeyPrefix      string `mapstructure:"REDIS_KEY_PREFIX"`
	SessionTokenTTLMin  int    `mapstructure:"SESSION_TOKEN_TTL_MIN"`
	EmailTokenTTLHour   int    `mapstructure:"EMAIL_TOKEN_TTL_HOUR"`

	// Google OAuth sign-in.
	GoogleClientID     string `mapstructure:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `mapstructure:"GOOGLE_CLIENT_SECRET"`
	OAuthRedirectURL   string `mapstructure:"OAUTH_REDIRECT_URL"`

	// Outbound mail. Empty SMTPHost selects the logging mailer (dev mode).
	SMTPHost  string `mapstructure:"SMTP_HOST"`
	SMTPPort  string `mapstructure:"SMTP_PORT"`
	SMTPUser  string `mapstructure:"SMTP_USER"`
	SMTPPass  string `mapstructure:"SMTP_PASS"`
	MailFrom  string `mapstructure:"MAIL_FROM"`
	PublicURL string `mapstructure:"PUBLIC_URL"`
}

// LoadConfig reads configuration from file, environment variables, and
// defaults.
func LoadConfig() (*ServerConfig, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/localspot/")
	v.AddConfigPath("$HOME/.localspot")
	v.AddConfigPath(".")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("HTTP_PORT", "8080")
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017/localspot_dev")
	v.SetDefault("MONGO_DB_NAME", "localspot_dev")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_PRETTY", true)
	v.SetDefault("TRACING_ENABLED", false)
	v.SetDefault("FRONTEND_URL", "http://localhost:3000/auth/callback")
	v.SetDefault("EXCHANGE_TOKEN_TTL_MIN", 15)
	v.SetDefault("EXCHANGE_GRACE_SEC", 60)
	v.SetDefault("REDIS_KEY_PREFIX", "localspot")
	v.SetDefault("SESSION_TOKEN_TTL_MIN", 60*24)
	v.SetDefault("EMAIL_TOKEN_TTL_HOUR", 48)
	v.SetDefault("OAUTH_REDIRECT_URL", "http://localhost:8080/auth/oauth/google/callback")
	v.SetDefault("SMTP_PORT", "587")
	v.SetDefault("MAIL_FROM", "no-reply@localspot.dev")
	v.SetDefault("PUBLIC_URL", "http://localhost:8080")

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; env vars and defaults apply.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg ServerConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	return &cfg, nil
}
