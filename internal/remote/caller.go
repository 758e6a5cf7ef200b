package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	// RequestIDHeader carries a per-call uuid.
	RequestIDHeader = "X-Request-ID"

	maxBodyBytes = 1 << 20
)

var (
	// ErrUnavailable is returned while the circuit breaker is open or saturated.
	ErrUnavailable = errors.New("remote: service unavailable")
	// ErrBadResponse is returned when a 2xx body cannot be decoded.
	ErrBadResponse = errors.New("remote: malformed response")
)

// Error is a non-2xx response. Message comes from the JSON error payload and may be empty.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("remote: status %d", e.Status)
	}
	return fmt.Sprintf("remote: status %d: %s", e.Status, e.Message)
}

// UserMessage returns the server-supplied message.
func (e *Error) UserMessage() string {
	return e.Message
}

// StatusCode reports the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var re *Error
	if errors.As(err, &re) {
		return re.Status
	}
	return 0
}

// BreakerConfig tunes the circuit breaker. Zero values take defaults.
type BreakerConfig struct {
	// ConsecutiveFailures opens the breaker. Default 5.
	ConsecutiveFailures uint32
	// OpenTimeout is how long the breaker stays open. Default 30s.
	OpenTimeout time.Duration
	// HalfOpenRequests is the probe budget while half-open. Default 1.
	HalfOpenRequests uint32
}

// Config configures a Caller.
type Config struct {
	Name       string
	BaseURL    string
	HTTPClient *http.Client
	Breaker    BreakerConfig
}

// Caller issues JSON requests against one base URL.
type Caller struct {
	base    string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[struct{}]
}

// New builds a Caller. The supplied HTTP client's transport is wrapped with
// OpenTelemetry instrumentation; a nil client gets a 10s timeout.
func New(cfg Config) (*Caller, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("remote: base URL is required")
	}
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		return nil, fmt.Errorf("remote: base URL %q must be http(s)", base)
	}

	var hc http.Client
	if cfg.HTTPClient != nil {
		hc = *cfg.HTTPClient
	} else {
		hc.Timeout = 10 * time.Second
	}
	inner := hc.Transport
	if inner == nil {
		inner = http.DefaultTransport
	}
	hc.Transport = otelhttp.NewTransport(inner)

	bc := cfg.Breaker
	if bc.ConsecutiveFailures == 0 {
		bc.ConsecutiveFailures = 5
	}
	if bc.OpenTimeout <= 0 {
		bc.OpenTimeout = 30 * time.Second
	}
	if bc.HalfOpenRequests == 0 {
		bc.HalfOpenRequests = 1
	}
	name := cfg.Name
	if name == "" {
		name = base
	}

	cb := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        name,
		MaxRequests: bc.HalfOpenRequests,
		Timeout:     bc.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= bc.ConsecutiveFailures
		},
		IsSuccessful: countsAsSuccess,
	})

	return &Caller{base: base, http: &hc, breaker: cb}, nil
}

// countsAsSuccess keeps client errors and caller cancellation from tripping the breaker.
func countsAsSuccess(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}
	if status := StatusCode(err); status > 0 && status < 500 {
		return true
	}
	return false
}

// Request describes one call.
type Request struct {
	Method string
	Path   string
	Bearer string
	Body   any
}

// Do sends req and decodes a 2xx JSON body into out (nil discards it).
func (c *Caller) Do(ctx context.Context, req Request, out any) error {
	_, err := c.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, c.do(ctx, req, out)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return errors.Join(ErrUnavailable, err)
	}
	return err
}

// BreakerState exposes the breaker state name for diagnostics.
func (c *Caller) BreakerState() string {
	return c.breaker.State().String()
}

func (c *Caller) do(ctx context.Context, req Request, out any) error {
	var body io.Reader
	if req.Body != nil {
		raw, err := json.Marshal(req.Body)
		if err != nil {
			return fmt.Errorf("remote: encode body: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.base+req.Path, body)
	if err != nil {
		return fmt.Errorf("remote: build request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set(RequestIDHeader, uuid.NewString())
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if req.Bearer != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.Bearer)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("remote: %s %s: %w", req.Method, req.Path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("remote: read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &Error{Status: resp.StatusCode, Message: errorMessage(raw)}
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return errors.Join(ErrBadResponse, err)
	}
	return nil
}

type errorPayload struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func errorMessage(raw []byte) string {
	var p errorPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return ""
	}
	if p.Message != "" {
		return p.Message
	}
	return p.Error
}
