package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

// ErrMissingJWTSecret is returned when no usable signing secret is configured.
// The service refuses to start rather than fall back to a built-in secret.
var ErrMissingJWTSecret = errors.New("JWT_SECRET is required and must be at least 16 bytes")

// MinSecretLength is the shortest accepted JWT_SECRET.
const MinSecretLength = 16

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	Store     StoreConfig
	MongoDB   MongoDBConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Password  PasswordConfig
	OAuth     OAuthConfig
	RateLimit RateLimitConfig
	MinIO     MinIOConfig
	Admin     AdminConfig
	Log       LogConfig
}

type ServerConfig struct {
	Port           string
	Host           string
	Environment    string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	AllowedOrigins []string
}

// StoreConfig selects the credential store backend: memory, mongo or postgres.
type StoreConfig struct {
	Backend string
}

type MongoDBConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

type PostgresConfig struct {
	URL string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// Addr returns host:port, or "" when Redis is not configured.
func (r RedisConfig) Addr() string {
	if r.Host == "" {
		return ""
	}
	return r.Host + ":" + r.Port
}

type JWTConfig struct {
	Secret   string
	TokenTTL time.Duration
	Issuer   string
}

type PasswordConfig struct {
	Cost int
}

type OAuthConfig struct {
	Google   ProviderConfig
	Facebook ProviderConfig
	Timeout  time.Duration
}

// ProviderConfig describes one third-party identity provider.
type ProviderConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	// ProfileURL overrides the provider's identity endpoint (tests, proxies).
	ProfileURL string
}

type RateLimitConfig struct {
	Enabled       bool
	RPS           float64
	Burst         int
	UseRedis      bool
	WindowSeconds int
}

type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
}

// AdminConfig bootstraps an admin account at startup when Email and Password are set.
type AdminConfig struct {
	Name     string
	Email    string
	Password string
}

type LogConfig struct {
	Level  string
	Format string
}

// LoadConfig loads configuration from environment variables and .env file
func LoadConfig() (*Config, error) {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	_ = godotenv.Load(envFile)

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("SERVER_PORT", "5001")
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_ENVIRONMENT", "development")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("STORE_BACKEND", "memory")
	v.SetDefault("MONGODB_DATABASE", "seatrack")
	v.SetDefault("MONGODB_TIMEOUT", 10)
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("JWT_TOKEN_TTL", 1440)
	v.SetDefault("JWT_ISSUER", "seatrack-auth")
	v.SetDefault("BCRYPT_COST", bcrypt.DefaultCost)
	v.SetDefault("OAUTH_TIMEOUT", 10)
	v.SetDefault("GOOGLE_REDIRECT_URI", "http://localhost:3000/auth/callback/google")
	v.SetDefault("FACEBOOK_REDIRECT_URI", "http://localhost:3000/auth/callback/facebook")
	v.SetDefault("RATE_LIMIT_ENABLED", false)
	v.SetDefault("RATE_LIMIT_RPS", 5)
	v.SetDefault("RATE_LIMIT_BURST", 10)
	v.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 1)
	v.SetDefault("MINIO_BUCKET", "seatrack-avatars")
	v.SetDefault("ADMIN_NAME", "Admin User")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")

	cfg := &Config{
		Server: ServerConfig{
			Port:           v.GetString("SERVER_PORT"),
			Host:           v.GetString("SERVER_HOST"),
			Environment:    v.GetString("SERVER_ENVIRONMENT"),
			ReadTimeout:    30 * time.Second,
			WriteTimeout:   30 * time.Second,
			AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Store: StoreConfig{
			Backend: strings.ToLower(strings.TrimSpace(v.GetString("STORE_BACKEND"))),
		},
		MongoDB: MongoDBConfig{
			URI:      v.GetString("MONGODB_URI"),
			Database: v.GetString("MONGODB_DATABASE"),
			Timeout:  time.Duration(v.GetInt("MONGODB_TIMEOUT")) * time.Second,
		},
		Postgres: PostgresConfig{
			URL: v.GetString("POSTGRES_URL"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			Secret:   v.GetString("JWT_SECRET"),
			TokenTTL: time.Duration(v.GetInt("JWT_TOKEN_TTL")) * time.Minute,
			Issuer:   v.GetString("JWT_ISSUER"),
		},
		Password: PasswordConfig{
			Cost: clampCost(v.GetInt("BCRYPT_COST")),
		},
		OAuth: OAuthConfig{
			Google: ProviderConfig{
				ClientID:     v.GetString("GOOGLE_CLIENT_ID"),
				ClientSecret: v.GetString("GOOGLE_CLIENT_SECRET"),
				RedirectURI:  v.GetString("GOOGLE_REDIRECT_URI"),
				ProfileURL:   v.GetString("GOOGLE_USERINFO_URL"),
			},
			Facebook: ProviderConfig{
				ClientID:     v.GetString("FACEBOOK_APP_ID"),
				ClientSecret: v.GetString("FACEBOOK_APP_SECRET"),
				RedirectURI:  v.GetString("FACEBOOK_REDIRECT_URI"),
				ProfileURL:   v.GetString("FACEBOOK_GRAPH_URL"),
			},
			Timeout: time.Duration(v.GetInt("OAUTH_TIMEOUT")) * time.Second,
		},
		RateLimit: RateLimitConfig{
			Enabled:       v.GetBool("RATE_LIMIT_ENABLED"),
			RPS:           v.GetFloat64("RATE_LIMIT_RPS"),
			Burst:         v.GetInt("RATE_LIMIT_BURST"),
			UseRedis:      v.GetBool("RATE_LIMIT_USE_REDIS"),
			WindowSeconds: v.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
		},
		MinIO: MinIOConfig{
			Endpoint:  v.GetString("MINIO_ENDPOINT"),
			AccessKey: v.GetString("MINIO_ACCESS_KEY"),
			SecretKey: v.GetString("MINIO_SECRET_KEY"),
			UseSSL:    v.GetBool("MINIO_USE_SSL"),
			Bucket:    v.GetString("MINIO_BUCKET"),
		},
		Admin: AdminConfig{
			Name:     v.GetString("ADMIN_NAME"),
			Email:    v.GetString("ADMIN_EMAIL"),
			Password: v.GetString("ADMIN_PASSWORD"),
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings the service cannot run without.
func (c *Config) Validate() error {
	if len(strings.TrimSpace(c.JWT.Secret)) < MinSecretLength {
		return ErrMissingJWTSecret
	}
	if c.JWT.TokenTTL <= 0 {
		c.JWT.TokenTTL = 24 * time.Hour
	}
	switch c.Store.Backend {
	case "", "memory":
		c.Store.Backend = "memory"
	case "mongo":
		if c.MongoDB.URI == "" {
			return errors.New("STORE_BACKEND=mongo requires MONGODB_URI")
		}
	case "postgres":
		if c.Postgres.URL == "" {
			return errors.New("STORE_BACKEND=postgres requires POSTGRES_URL")
		}
	default:
		return errors.New("STORE_BACKEND must be one of memory, mongo, postgres")
	}
	return nil
}

func clampCost(c int) int {
	if c < bcrypt.MinCost {
		return bcrypt.DefaultCost
	}
	if c > bcrypt.MaxCost {
		return bcrypt.MaxCost
	}
	return c
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
