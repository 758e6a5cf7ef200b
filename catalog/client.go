package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/MrEthical07/storefront/internal/remote"
)

var (
	// ErrProductNotFound is returned for an unknown product id.
	ErrProductNotFound = errors.New("catalog: product not found")
	// ErrUnavailable is returned while the circuit breaker is open.
	ErrUnavailable = remote.ErrUnavailable
)

// Config configures a Client.
type Config struct {
	BaseURL    string
	HTTPClient *http.Client
	Breaker    remote.BreakerConfig
	// Cache is consulted before the API. Optional.
	Cache  Cache
	Logger logrus.FieldLogger
}

// Client reads products.
type Client struct {
	caller *remote.Caller
	cache  Cache
	log    logrus.FieldLogger
	group  singleflight.Group
}

// New returns a Client.
func New(cfg Config) (*Client, error) {
	caller, err := remote.New(remote.Config{Name: "catalog-api", BaseURL: cfg.BaseURL, HTTPClient: cfg.HTTPClient, Breaker: cfg.Breaker})
	if err != nil {
		return nil, err
	}
	log := cfg.Logger
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Client{caller: caller, cache: cfg.Cache, log: log}, nil
}

// GetProduct returns product id. Concurrent lookups of the same id share one request.
func (c *Client) GetProduct(ctx context.Context, id string) (Product, error) {
	if id == "" {
		return Product{}, ErrProductNotFound
	}
	v, err, _ := c.group.Do(id, func() (any, error) {
		return c.load(ctx, id)
	})
	if err != nil {
		return Product{}, err
	}
	return v.(Product), nil
}

func (c *Client) load(ctx context.Context, id string) (Product, error) {
	if c.cache != nil {
		p, err := c.cache.Get(ctx, id)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			c.log.WithError(err).WithField("product_id", id).Warn("catalog: cache read failed")
		}
	}

	var out struct {
		Data *Product `json:"data"`
		Product
	}
	err := c.caller.Do(ctx, remote.Request{Method: http.MethodGet, Path: "/products/" + url.PathEscape(id)}, &out)
	if remote.StatusCode(err) == http.StatusNotFound {
		return Product{}, fmt.Errorf("%w: %s", ErrProductNotFound, id)
	}
	if err != nil {
		return Product{}, err
	}
	p := out.Product
	if out.Data != nil {
		p = *out.Data
	}
	if p.ID == "" {
		return Product{}, fmt.Errorf("%w: %s", ErrProductNotFound, id)
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, p); err != nil {
			c.log.WithError(err).WithField("product_id", id).Warn("catalog: cache write failed")
		}
	}
	return p, nil
}
