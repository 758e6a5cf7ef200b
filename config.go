package storefront

import (
	"fmt"
	"strings"
	"time"
)

// Config is the full client configuration. Obtain defaults with DefaultConfig.
type Config struct {
	Session SessionConfig
	Gate    GateConfig
	Cart    CartConfig
	Audit   AuditConfig
	Metrics MetricsConfig
}

// SessionConfig tunes the Session Store.
type SessionConfig struct {
	CredentialKey          string
	LocalExpiryCheck       bool
	LoginFailureMessage    string
	RegisterFailureMessage string
	// InitializeOnBuild runs Initialize in the background right after Build.
	InitializeOnBuild bool
}

// GateConfig tunes how long callers wait on an uninitialized session.
type GateConfig struct {
	PendingWait time.Duration
	LoginPath   string
}

// CartConfig tunes cart persistence. Ignored without a persister.
type CartConfig struct {
	WriteTimeout   time.Duration
	RestoreOnBuild bool
}

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls in-process counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

func defaultConfig() Config {
	return Config{
		Session: SessionConfig{
			CredentialKey:          "token",
			LoginFailureMessage:    "login failed",
			RegisterFailureMessage: "registration failed",
		},
		Gate: GateConfig{
			PendingWait: 2 * time.Second,
			LoginPath:   "/login",
		},
		Cart: CartConfig{
			WriteTimeout:   2 * time.Second,
			RestoreOnBuild: true,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: true,
		},
	}
}

// DefaultConfig returns the baseline configuration.
func DefaultConfig() Config {
	return defaultConfig()
}

func cloneConfig(cfg Config) Config {
	return cfg
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Session.CredentialKey) == "" {
		return fmt.Errorf("%w: Session.CredentialKey must not be empty", ErrInvalidConfig)
	}
	if c.Gate.PendingWait < 0 {
		return fmt.Errorf("%w: Gate.PendingWait must be >= 0", ErrInvalidConfig)
	}
	if !strings.HasPrefix(c.Gate.LoginPath, "/") {
		return fmt.Errorf("%w: Gate.LoginPath must start with /", ErrInvalidConfig)
	}
	if c.Cart.WriteTimeout < 0 {
		return fmt.Errorf("%w: Cart.WriteTimeout must be >= 0", ErrInvalidConfig)
	}
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return fmt.Errorf("%w: Audit.BufferSize must be > 0 when audit is enabled", ErrInvalidConfig)
	}
	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return fmt.Errorf("%w: latency histograms require Metrics.Enabled", ErrInvalidConfig)
	}
	return nil
}
