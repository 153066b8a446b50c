package app

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/owtlabs/owt/pkg/jwtx"

	"github.com/joho/godotenv"
)

type Config struct {
	Issuer string // Optional: issuer claim for tokens (default: owt-auth)

	// The two signing contexts are independent on purpose: an access token
	// can never pass refresh verification and vice versa.
	AccessSecret  string        // Required: HMAC secret for access tokens
	RefreshSecret string        // Required: HMAC secret for refresh tokens
	AccessTTL     time.Duration // Optional: access token lifetime (default: 15m)
	RefreshTTL    time.Duration // Optional: refresh token lifetime (default: 168h)

	DatabaseFile string // Optional: path to SQLite database file (default: ./auth.db)
	PepperFile   string // Optional: path to pepper file for secret hashing (default: ./pepper)

	// Naver federation. All three or none; federation stays disabled when
	// they are absent.
	NaverClientID     string
	NaverClientSecret string
	NaverCallbackURL  string

	// AllowedRedirects are origin prefixes a federated login may bounce back
	// to; the first doubles as the default destination.
	AllowedRedirects []string

	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
}

// ConfigError reports fatal startup misconfiguration: the service refuses to
// boot rather than sign tokens with an empty secret.
type ConfigError struct {
	Missing []string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("missing required configuration: %s", strings.Join(e.Missing, ", "))
}

func LoadConfig() Config {
	// A .env file is a dev convenience; absence is not an error.
	_ = godotenv.Load()

	cfg := Config{
		Issuer:              getEnvOrDefault("AUTH_ISSUER", "owt-auth"),
		AccessSecret:        os.Getenv("AUTH_JWT_ACCESS_SECRET"),
		RefreshSecret:       os.Getenv("AUTH_JWT_REFRESH_SECRET"),
		AccessTTL:           getEnvDurationOrDefault("AUTH_ACCESS_TOKEN_TTL", jwtx.DefaultAccessTokenTTL),
		RefreshTTL:          getEnvDurationOrDefault("AUTH_REFRESH_TOKEN_TTL", jwtx.DefaultRefreshTokenTTL),
		DatabaseFile:        getEnvOrDefault("AUTH_DATABASE_FILE", "auth.db"),
		PepperFile:          getEnvOrDefault("AUTH_PEPPER_FILE", "pepper"),
		NaverClientID:       os.Getenv("NAVER_CLIENT_ID"),
		NaverClientSecret:   os.Getenv("NAVER_CLIENT_SECRET"),
		NaverCallbackURL:    os.Getenv("NAVER_CALLBACK_URL"),
		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}

	if origins := os.Getenv("AUTH_ALLOWED_REDIRECTS"); origins != "" {
		for _, origin := range strings.Split(origins, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				cfg.AllowedRedirects = append(cfg.AllowedRedirects, origin)
			}
		}
	}

	return cfg
}

// Validate reports every missing required value at once instead of failing
// on the first.
func (cfg Config) Validate() error {
	var missing []string
	if cfg.AccessSecret == "" {
		missing = append(missing, "AUTH_JWT_ACCESS_SECRET")
	}
	if cfg.RefreshSecret == "" {
		missing = append(missing, "AUTH_JWT_REFRESH_SECRET")
	}

	// Partial Naver credentials are a misconfiguration, not a disabled
	// feature.
	naverSet := 0
	for _, v := range []string{cfg.NaverClientID, cfg.NaverClientSecret, cfg.NaverCallbackURL} {
		if v != "" {
			naverSet++
		}
	}
	if naverSet > 0 && naverSet < 3 {
		if cfg.NaverClientID == "" {
			missing = append(missing, "NAVER_CLIENT_ID")
		}
		if cfg.NaverClientSecret == "" {
			missing = append(missing, "NAVER_CLIENT_SECRET")
		}
		if cfg.NaverCallbackURL == "" {
			missing = append(missing, "NAVER_CALLBACK_URL")
		}
	}

	if len(missing) > 0 {
		return &ConfigError{Missing: missing}
	}
	return nil
}

// FederationEnabled reports whether Naver login is configured.
func (cfg Config) FederationEnabled() bool {
	return cfg.NaverClientID != "" && cfg.NaverClientSecret != "" && cfg.NaverCallbackURL != ""
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	return defaultValue
}
