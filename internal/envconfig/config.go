// Package envconfig reads process settings for the storefront shell from the
// environment, with defaults suited to local development.
package envconfig

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds shell settings loaded from environment variables.
type Config struct {
	AppName string
	Env     string // development, staging, production
	Addr    string

	// Remote APIs
	AuthAPIURL      string
	CatalogAPIURL   string
	HTTPTimeout     time.Duration
	BreakerFailures int
	BreakerOpen     time.Duration

	// Redis; empty address selects file credential storage and no cart persistence
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	CredentialFile   string
	CredentialPrefix string
	CredentialTTL    time.Duration
	CartID           string
	CartTTL          time.Duration
	ProductCacheTTL  time.Duration

	LocalExpiryCheck bool
	PendingWait      time.Duration
	AuditEnabled     bool

	LoginMaxAttempts int
	LoginWindow      time.Duration
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getbool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			log.Printf("invalid boolean for %s: %v, using default %v", key, err, def)
			return def
		}
		return b
	}
	return def
}

func getint(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err != nil {
			log.Printf("invalid int for %s: %v, using default %d", key, err, def)
			return def
		}
		return i
	}
	return def
}

func getdur(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			log.Printf("invalid duration for %s: %v, using default %v", key, err, def)
			return def
		}
		return d
	}
	return def
}

// LoadDotenv loads the given files (default .env) when present. Variables
// already set in the environment win.
func LoadDotenv(files ...string) {
	_ = godotenv.Load(files...)
}

// Load reads configuration from the environment.
func Load() *Config {
	return &Config{
		AppName: getenv("APP_NAME", "storefront"),
		Env:     getenv("APP_ENV", "development"),
		Addr:    getenv("ADDR", ":8080"),

		AuthAPIURL:      strings.TrimRight(getenv("AUTH_API_URL", "http://localhost:5000/api"), "/"),
		CatalogAPIURL:   strings.TrimRight(getenv("CATALOG_API_URL", "http://localhost:5000/api"), "/"),
		HTTPTimeout:     getdur("HTTP_TIMEOUT", 10*time.Second),
		BreakerFailures: getint("BREAKER_FAILURES", 5),
		BreakerOpen:     getdur("BREAKER_OPEN", 30*time.Second),

		RedisAddr:     getenv("REDIS_ADDR", ""),
		RedisPassword: getenv("REDIS_PASSWORD", ""),
		RedisDB:       getint("REDIS_DB", 0),

		CredentialFile:   getenv("CREDENTIAL_FILE", ".storefront/credentials.json"),
		CredentialPrefix: getenv("CREDENTIAL_PREFIX", "sf:credential"),
		CredentialTTL:    getdur("CREDENTIAL_TTL", 7*24*time.Hour),
		CartID:           getenv("CART_ID", "default"),
		CartTTL:          getdur("CART_TTL", 30*24*time.Hour),
		ProductCacheTTL:  getdur("PRODUCT_CACHE_TTL", 5*time.Minute),

		LocalExpiryCheck: getbool("LOCAL_EXPIRY_CHECK", true),
		PendingWait:      getdur("PENDING_WAIT", 2*time.Second),
		AuditEnabled:     getbool("AUDIT_ENABLED", false),

		LoginMaxAttempts: getint("LOGIN_MAX_ATTEMPTS", 5),
		LoginWindow:      getdur("LOGIN_WINDOW", 15*time.Minute),
	}
}

// Development reports whether Env is development.
func (c *Config) Development() bool {
	return c.Env == "development"
}
