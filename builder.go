package storefront

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/MrEthical07/storefront/cart"
	"github.com/MrEthical07/storefront/permission"
	"github.com/MrEthical07/storefront/session"
)

// Builder assembles a Client. A Builder is single-use.
type Builder struct {
	config Config

	auth          session.Authenticator
	storage       session.CredentialStorage
	cartPersister cart.Persister
	routes        []permission.Route
	logger        logrus.FieldLogger
	auditSink     AuditSink

	built bool
}

// New starts a Builder with DefaultConfig and the default route table.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
		routes: permission.DefaultRoutes(),
	}
}

func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithAuthenticator sets the remote Auth API client. Required.
func (b *Builder) WithAuthenticator(a session.Authenticator) *Builder {
	b.auth = a
	return b
}

// WithCredentialStorage sets durable credential storage. Required.
func (b *Builder) WithCredentialStorage(s session.CredentialStorage) *Builder {
	b.storage = s
	return b
}

// WithCartPersister enables write-behind cart persistence.
func (b *Builder) WithCartPersister(p cart.Persister) *Builder {
	b.cartPersister = p
	return b
}

// WithRoutes replaces the guarded route table.
func (b *Builder) WithRoutes(routes []permission.Route) *Builder {
	b.routes = routes
	return b
}

func (b *Builder) WithLogger(l logrus.FieldLogger) *Builder {
	b.logger = l
	return b
}

// WithAuditSink sets the audit destination and enables audit.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	b.config.Audit.Enabled = sink != nil
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	if !enabled {
		b.config.Metrics.EnableLatencyHistograms = false
	}
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates configuration and constructs the Client.
func (b *Builder) Build() (*Client, error) {
	if b.built {
		return nil, ErrBuilderUsed
	}
	if b.auth == nil {
		return nil, ErrMissingAuthenticator
	}
	if b.storage == nil {
		return nil, ErrMissingCredentialStorage
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	registry := permission.NewRegistry()
	for _, r := range b.routes {
		if err := registry.Register(r.Pattern, r.Required); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	}
	registry.Freeze()

	log := b.logger
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}

	c := &Client{
		config:  cfg,
		routes:  registry,
		log:     log,
		metrics: NewMetrics(cfg.Metrics),
		audit:   newAuditDispatcher(cfg.Audit, b.auditSink),
	}

	store, err := session.NewStore(b.auth, b.storage, session.Config{
		CredentialKey:          cfg.Session.CredentialKey,
		LocalExpiryCheck:       cfg.Session.LocalExpiryCheck,
		LoginFailureMessage:    cfg.Session.LoginFailureMessage,
		RegisterFailureMessage: cfg.Session.RegisterFailureMessage,
	}, session.WithLogger(log), session.WithObserver(session.ObserverFunc(c.observe)))
	if err != nil {
		c.audit.close()
		return nil, err
	}
	c.session = store

	cartOpts := []cart.Option{cart.WithLogger(log)}
	if b.cartPersister != nil {
		cartOpts = append(cartOpts, cart.WithPersister(b.cartPersister, cart.PersistConfig{WriteTimeout: cfg.Cart.WriteTimeout}))
	}
	c.cart = cart.NewStore(cartOpts...)

	if b.cartPersister != nil && cfg.Cart.RestoreOnBuild {
		ctx, cancel := context.WithTimeout(context.Background(), restoreTimeout(cfg))
		if err := c.cart.Restore(ctx); err != nil {
			log.WithError(err).Warn("storefront: cart restore failed, starting empty")
		}
		cancel()
	}

	b.built = true

	if cfg.Session.InitializeOnBuild {
		go c.Initialize(context.Background())
	}
	return c, nil
}

func restoreTimeout(cfg Config) time.Duration {
	if cfg.Cart.WriteTimeout > 0 {
		return cfg.Cart.WriteTimeout
	}
	return defaultConfig().Cart.WriteTimeout
}
