package config

import (
	"errors"
	"fmt"
	"net/netip"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	devJWTSecret = "dev-secret-change-in-production"
)

var ErrMissingJWTSecret = errors.New("JWT_SECRET must be set in production")

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	WebSocket WebSocketConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
	Logging   LoggingConfig
	Catalog   CatalogConfig
}

type ServerConfig struct {
	Port            string
	Host            string
	Env             string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

func (c ServerConfig) Addr() string {
	return c.Host + ":" + c.Port
}

type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	MongoURI string
	Timeout  time.Duration
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	// DevSecret is set when no secret was configured and the development fallback is in use.
	DevSecret bool
}

type WebSocketConfig struct {
	ReadBufferSize  int
	WriteBufferSize int
	MaxMessageSize  int64
	WriteWait       time.Duration
	PongWait        time.Duration
	PingPeriod      time.Duration
	MaxConnPerUser  int
}

type RateLimitConfig struct {
	Enabled                bool
	LoginRequestsPerMinute int
	// TrustedProxies are the peers whose X-Forwarded-For and X-Real-IP headers are believed.
	TrustedProxies []netip.Prefix
}

type CORSConfig struct {
	AllowedOrigins string
	AllowedMethods string
	AllowedHeaders string
}

type LoggingConfig struct {
	Level string
}

type CatalogConfig struct {
	// PublicMovies leaves GET /movies outside the authorization gate.
	PublicMovies bool
}

var defaults = map[string]interface{}{
	"PORT":             "8080",
	"HOST":             "0.0.0.0",
	"ENV":              EnvDevelopment,
	"READ_TIMEOUT":     "15s",
	"WRITE_TIMEOUT":    "15s",
	"IDLE_TIMEOUT":     "60s",
	"SHUTDOWN_TIMEOUT": "10s",

	"DB_DRIVER":   "couch",
	"DB_HOST":     "localhost",
	"DB_PORT":     "5984",
	"DB_USER":     "admin",
	"DB_PASSWORD": "password",
	"DB_NAME":     "myflix",
	"MONGO_URI":   "mongodb://localhost:27017",
	"DB_TIMEOUT":  "5s",

	"JWT_SECRET":     "",
	"JWT_EXPIRATION": "168h",

	"WS_READ_BUFFER_SIZE":  1024,
	"WS_WRITE_BUFFER_SIZE": 1024,
	"WS_MAX_MESSAGE_SIZE":  4096,
	"WS_WRITE_WAIT":        "10s",
	"WS_PONG_WAIT":         "60s",
	"WS_PING_PERIOD":       "54s",
	"WS_MAX_CONN_PER_USER": 5,

	"RATE_LIMIT_ENABLED":          true,
	"RATE_LIMIT_LOGIN_PER_MINUTE": 10,
	"RATE_LIMIT_TRUSTED_PROXIES":  "",

	"CORS_ALLOWED_ORIGINS": "*",
	"CORS_ALLOWED_METHODS": "GET,POST,PUT,DELETE,OPTIONS",
	"CORS_ALLOWED_HEADERS": "Content-Type,Authorization",

	"LOG_LEVEL": "info",

	"MOVIES_PUBLIC": true,
}

// Load reads configuration from the environment, after merging an optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: v.GetString("PORT"),
			Host: v.GetString("HOST"),
			Env:  strings.ToLower(v.GetString("ENV")),
		},
		Database: DatabaseConfig{
			Driver:   strings.ToLower(v.GetString("DB_DRIVER")),
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			Name:     v.GetString("DB_NAME"),
			MongoURI: v.GetString("MONGO_URI"),
		},
		JWT: JWTConfig{
			Secret: v.GetString("JWT_SECRET"),
		},
		WebSocket: WebSocketConfig{
			ReadBufferSize:  v.GetInt("WS_READ_BUFFER_SIZE"),
			WriteBufferSize: v.GetInt("WS_WRITE_BUFFER_SIZE"),
			MaxMessageSize:  v.GetInt64("WS_MAX_MESSAGE_SIZE"),
			MaxConnPerUser:  v.GetInt("WS_MAX_CONN_PER_USER"),
		},
		RateLimit: RateLimitConfig{
			Enabled:                v.GetBool("RATE_LIMIT_ENABLED"),
			LoginRequestsPerMinute: v.GetInt("RATE_LIMIT_LOGIN_PER_MINUTE"),
		},
		CORS: CORSConfig{
			AllowedOrigins: v.GetString("CORS_ALLOWED_ORIGINS"),
			AllowedMethods: v.GetString("CORS_ALLOWED_METHODS"),
			AllowedHeaders: v.GetString("CORS_ALLOWED_HEADERS"),
		},
		Logging: LoggingConfig{
			Level: v.GetString("LOG_LEVEL"),
		},
		Catalog: CatalogConfig{
			PublicMovies: v.GetBool("MOVIES_PUBLIC"),
		},
	}

	for key, dst := range map[string]*time.Duration{
		"READ_TIMEOUT":     &cfg.Server.ReadTimeout,
		"WRITE_TIMEOUT":    &cfg.Server.WriteTimeout,
		"IDLE_TIMEOUT":     &cfg.Server.IdleTimeout,
		"SHUTDOWN_TIMEOUT": &cfg.Server.ShutdownTimeout,
		"DB_TIMEOUT":       &cfg.Database.Timeout,
		"JWT_EXPIRATION":   &cfg.JWT.Expiration,
		"WS_WRITE_WAIT":    &cfg.WebSocket.WriteWait,
		"WS_PONG_WAIT":     &cfg.WebSocket.PongWait,
		"WS_PING_PERIOD":   &cfg.WebSocket.PingPeriod,
	} {
		d, err := time.ParseDuration(v.GetString(key))
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", key, err)
		}
		*dst = d
	}

	proxies, err := parseTrustedProxies(v.GetString("RATE_LIMIT_TRUSTED_PROXIES"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_TRUSTED_PROXIES: %w", err)
	}
	cfg.RateLimit.TrustedProxies = proxies

	if cfg.JWT.Expiration <= 0 {
		return nil, fmt.Errorf("invalid JWT_EXPIRATION: must be positive")
	}

	if cfg.WebSocket.PingPeriod >= cfg.WebSocket.PongWait {
		return nil, fmt.Errorf("WS_PING_PERIOD must be shorter than WS_PONG_WAIT")
	}

	if cfg.JWT.Secret == "" {
		if cfg.Server.Env == EnvProduction {
			return nil, ErrMissingJWTSecret
		}
		cfg.JWT.Secret = devJWTSecret
		cfg.JWT.DevSecret = true
	}

	return cfg, nil
}

// parseTrustedProxies reads a comma separated list of CIDR ranges or single addresses.
func parseTrustedProxies(list string) ([]netip.Prefix, error) {
	var prefixes []netip.Prefix
	for _, item := range strings.Split(list, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}

		if strings.Contains(item, "/") {
			p, err := netip.ParsePrefix(item)
			if err != nil {
				return nil, err
			}
			prefixes = append(prefixes, p.Masked())
			continue
		}

		addr, err := netip.ParseAddr(item)
		if err != nil {
			return nil, err
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, nil
}
