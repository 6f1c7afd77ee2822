package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreBackendPostgres = "postgres"
	StoreBackendMemory   = "memory"

	RateLimitBackendRedis  = "redis"
	RateLimitBackendMemory = "memory"
)

type Config struct {
	ServerHost  string
	ServerPort  string
	Environment string

	StoreBackend  string
	DatabaseURL   string
	DBAutoMigrate bool

	JWTSecret            string
	JWTIssuer            string
	AccessTokenTTL       time.Duration
	RefreshTokenTTL      time.Duration
	AccessTokenHeader    string
	RefreshTokenHeader   string
	RefreshTokenRotation bool
	RefreshTokenSalt     string
	LogoutRevokesRefresh bool
	BcryptCost           int

	RateLimitEnabled       bool
	RateLimitBackend       string
	RedisURL               string
	RateLimitLoginAttempts int
	RateLimitLoginWindow   time.Duration
	RateLimitBlockDuration time.Duration
	// peers whose X-Forwarded-For / X-Real-IP headers are believed
	TrustedProxies []*net.IPNet

	LogLevel  string
	LogFormat string

	CORSEnabled          bool
	CORSAllowedOrigins   []string
	CORSAllowCredentials bool

	MetricsEnabled bool
}

var (
	ErrMissingDatabaseURL  = errors.New("DATABASE_URL is required")
	ErrMissingJWTSecret    = errors.New("JWT_SECRET is required")
	ErrMissingRefreshSalt  = errors.New("REFRESH_TOKEN_SALT is required")
	ErrInvalidTokenTTL     = errors.New("invalid token TTL format")
	ErrInvalidStoreBackend = errors.New("STORE_BACKEND must be postgres or memory")
	ErrInvalidRateBackend  = errors.New("RATE_LIMIT_BACKEND must be redis or memory")
	ErrInvalidBcryptCost   = errors.New("BCRYPT_COST must be between 4 and 31")
	ErrInvalidTrustedProxy = errors.New("TRUSTED_PROXIES must list IPs or CIDRs")
)

func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		ServerHost:  getEnvOrDefault("SERVER_HOST", "0.0.0.0"),
		ServerPort:  getEnvOrDefault("SERVER_PORT", "8080"),
		Environment: getEnvOrDefault("ENV", "development"),

		StoreBackend:  strings.ToLower(getEnvOrDefault("STORE_BACKEND", StoreBackendPostgres)),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		DBAutoMigrate: getEnvOrDefaultBool("DB_AUTO_MIGRATE", true),

		JWTSecret:            os.Getenv("JWT_SECRET"),
		JWTIssuer:            getEnvOrDefault("JWT_ISSUER", "port-in-scan"),
		AccessTokenHeader:    getEnvOrDefault("JWT_ACCESS_HEADER", "Authorization"),
		RefreshTokenHeader:   getEnvOrDefault("JWT_REFRESH_HEADER", "Authorization-refresh"),
		RefreshTokenRotation: getEnvOrDefaultBool("REFRESH_TOKEN_ROTATION", true),
		RefreshTokenSalt:     os.Getenv("REFRESH_TOKEN_SALT"),
		LogoutRevokesRefresh: getEnvOrDefaultBool("LOGOUT_REVOKES_REFRESH_TOKEN", false),
		BcryptCost:           getEnvOrDefaultInt("BCRYPT_COST", 10),

		RateLimitEnabled:       getEnvOrDefaultBool("RATE_LIMIT_ENABLED", true),
		RateLimitBackend:       strings.ToLower(getEnvOrDefault("RATE_LIMIT_BACKEND", RateLimitBackendMemory)),
		RedisURL:               getEnvOrDefault("REDIS_URL", "redis://localhost:6379/0"),
		RateLimitLoginAttempts: getEnvOrDefaultInt("RATE_LIMIT_LOGIN_ATTEMPTS", 10),

		LogLevel:  getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "json"),

		CORSEnabled:          getEnvOrDefaultBool("CORS_ENABLED", true),
		CORSAllowCredentials: getEnvOrDefaultBool("CORS_ALLOW_CREDENTIALS", true),
		CORSAllowedOrigins:   parseList(getEnvOrDefault("CORS_ALLOWED_ORIGINS", "")),

		MetricsEnabled: getEnvOrDefaultBool("METRICS_ENABLED", true),
	}

	var err error
	if cfg.AccessTokenTTL, err = parseTokenTTL(getEnvOrDefault("JWT_ACCESS_TOKEN_TTL", "3600")); err != nil {
		return nil, ErrInvalidTokenTTL
	}
	if cfg.RefreshTokenTTL, err = parseTokenTTL(getEnvOrDefault("JWT_REFRESH_TOKEN_TTL", "1209600")); err != nil {
		return nil, ErrInvalidTokenTTL
	}
	if cfg.RateLimitLoginWindow, err = parseTokenTTL(getEnvOrDefault("RATE_LIMIT_LOGIN_WINDOW", "900")); err != nil {
		return nil, ErrInvalidTokenTTL
	}
	if cfg.RateLimitBlockDuration, err = parseTokenTTL(getEnvOrDefault("RATE_LIMIT_BLOCK_DURATION", "1800")); err != nil {
		return nil, ErrInvalidTokenTTL
	}

	if cfg.TrustedProxies, err = parseTrustedProxies(parseList(os.Getenv("TRUSTED_PROXIES"))); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the combination of settings.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return ErrMissingJWTSecret
	}
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		return ErrInvalidTokenTTL
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return ErrInvalidBcryptCost
	}

	switch c.StoreBackend {
	case StoreBackendPostgres:
		if c.DatabaseURL == "" {
			return ErrMissingDatabaseURL
		}
		if c.RefreshTokenSalt == "" {
			return ErrMissingRefreshSalt
		}
	case StoreBackendMemory:
	default:
		return ErrInvalidStoreBackend
	}

	if c.RateLimitEnabled {
		switch c.RateLimitBackend {
		case RateLimitBackendRedis, RateLimitBackendMemory:
		default:
			return ErrInvalidRateBackend
		}
	}
	return nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.ServerHost, c.ServerPort)
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvOrDefaultBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return defaultValue
		}
		return parsed
	}
	return defaultValue
}

func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return defaultValue
		}
		return parsed
	}
	return defaultValue
}

// parseTokenTTL reads a whole number of seconds.
func parseTokenTTL(value string) (time.Duration, error) {
	seconds, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	return time.Duration(seconds) * time.Second, nil
}

// parseTrustedProxies accepts bare IPs as single-host networks.
func parseTrustedProxies(entries []string) ([]*net.IPNet, error) {
	nets := make([]*net.IPNet, 0, len(entries))
	for _, entry := range entries {
		if _, network, err := net.ParseCIDR(entry); err == nil {
			nets = append(nets, network)
			continue
		}
		ip := net.ParseIP(entry)
		if ip == nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidTrustedProxy, entry)
		}
		bits := 8 * net.IPv6len
		if v4 := ip.To4(); v4 != nil {
			ip, bits = v4, 8*net.IPv4len
		}
		nets = append(nets, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
	}
	return nets, nil
}

func parseList(value string) []string {
	if value == "" {
		return []string{}
	}
	parts := strings.Split(value, ",")
	res := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			res = append(res, trimmed)
		}
	}
	return res
}
