package storefront

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/MrEthical07/storefront/cart"
	"github.com/MrEthical07/storefront/gate"
	"github.com/MrEthical07/storefront/permission"
	"github.com/MrEthical07/storefront/session"
)

// Client is the storefront client core: one Session Store, one Cart Store and
// the guarded route table, with metrics and audit around them.
type Client struct {
	config  Config
	session *session.Store
	cart    *cart.Store
	routes  *permission.Registry
	log     logrus.FieldLogger
	metrics *Metrics
	audit   *auditDispatcher
	closed  atomic.Bool
}

func (c *Client) Session() *session.Store { return c.session }

func (c *Client) Cart() *cart.Store { return c.cart }

func (c *Client) Routes() *permission.Registry { return c.routes }

// Config returns a copy of the effective configuration.
func (c *Client) Config() Config { return cloneConfig(c.config) }

// Initialize restores the persisted session. See session.Store.Initialize.
func (c *Client) Initialize(ctx context.Context) {
	if c.closed.Load() {
		return
	}
	c.session.Initialize(ctx)
}

func (c *Client) Login(ctx context.Context, email, password string) session.Result {
	if c.closed.Load() {
		return session.Result{Message: ErrClosed.Error(), Err: ErrClosed}
	}
	return c.session.Login(ctx, email, password)
}

func (c *Client) Register(ctx context.Context, username, email, password string) session.Result {
	if c.closed.Load() {
		return session.Result{Message: ErrClosed.Error(), Err: ErrClosed}
	}
	return c.session.Register(ctx, username, email, password)
}

// Logout clears the session. It stays available after Close so a closing
// shell can still sign the user out.
func (c *Client) Logout(ctx context.Context) {
	c.session.Logout(ctx)
}

func (c *Client) HasRole(required permission.Set) bool {
	return c.session.HasRole(required)
}

// CanEnter reports whether the current identity may open pattern. Patterns
// missing from the route table are public.
func (c *Client) CanEnter(pattern string) bool {
	required, guarded := c.routes.Lookup(pattern)
	if !guarded {
		return true
	}
	return gate.CanEnter(c.session.Identity(), required)
}

// Decide evaluates the gate for pattern and records the outcome.
func (c *Client) Decide(ctx context.Context, pattern string) gate.Decision {
	required, guarded := c.routes.Lookup(pattern)
	if !guarded {
		return gate.Allow
	}
	d := gate.Decide(c.session, required)
	c.ObserveDecision(ctx, pattern, d)
	return d
}

// Wait blocks until the session is initialized or Gate.PendingWait elapses,
// then decides. A Pending result means the wait ran out.
func (c *Client) Wait(ctx context.Context, pattern string) gate.Decision {
	required, guarded := c.routes.Lookup(pattern)
	if !guarded {
		return gate.Allow
	}
	if c.config.Gate.PendingWait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.Gate.PendingWait)
		defer cancel()
	}
	d := gate.Wait(ctx, c.session, required)
	c.ObserveDecision(context.WithoutCancel(ctx), pattern, d)
	return d
}

// ObserveDecision records a gate outcome in metrics and, for denials, audit.
// HTTP guards report through it.
func (c *Client) ObserveDecision(ctx context.Context, pattern string, d gate.Decision) {
	switch d {
	case gate.Allow:
		c.metrics.Inc(MetricGateAllow)
	case gate.RedirectLogin:
		c.metrics.Inc(MetricGateRedirect)
	default:
		c.metrics.Inc(MetricGatePending)
	}
	if d == gate.Allow {
		return
	}
	ev := AuditEvent{
		EventType: AuditGate,
		Success:   false,
		Metadata:  map[string]string{"route": pattern, "decision": d.String()},
	}
	if id := c.session.Identity(); id != nil {
		ev.UserID = id.ID
	}
	c.audit.emit(ctx, ev)
}

// AddToCart adds item, merging with an existing line of the same product and variant.
func (c *Client) AddToCart(item cart.LineItem) {
	c.cart.AddToCart(item)
	c.metrics.Inc(MetricCartMutation)
}

func (c *Client) UpdateQuantity(productID, variant string, n int) {
	c.cart.UpdateQuantity(productID, variant, n)
	c.metrics.Inc(MetricCartMutation)
}

func (c *Client) RemoveFromCart(productID, variant string) {
	c.cart.RemoveFromCart(productID, variant)
	c.metrics.Inc(MetricCartMutation)
}

func (c *Client) ClearCart() {
	c.cart.ClearCart()
	c.metrics.Inc(MetricCartMutation)
}

// MetricsSnapshot returns the counters with cart persistence stats folded in.
func (c *Client) MetricsSnapshot() MetricsSnapshot {
	s := c.metrics.Snapshot()
	if !c.metrics.Enabled() {
		return s
	}
	ps := c.cart.PersistStats()
	s.Counters[MetricCartPersistWrite] += ps.Writes
	s.Counters[MetricCartPersistFailure] += ps.Failures
	return s
}

// AuditDropped is the number of audit events lost to a full buffer.
func (c *Client) AuditDropped() uint64 {
	return c.audit.droppedCount()
}

// Close flushes the cart and drains the audit queue. Safe to call repeatedly.
func (c *Client) Close() {
	if !c.closed.CompareAndSwap(false, true) {
		return
	}
	c.cart.Close()
	c.audit.close()
}

// observe bridges session events into metrics and audit.
func (c *Client) observe(ctx context.Context, ev session.Event) {
	switch ev.Kind {
	case session.EventVerified:
		c.metrics.Inc(MetricVerifySuccess)
	case session.EventVerifyFailed:
		c.metrics.Inc(MetricVerifyFailure)
	case session.EventVerifySkipped:
		c.metrics.Inc(MetricVerifySkipped)
	case session.EventLogin:
		c.metrics.Inc(MetricLoginSuccess)
	case session.EventLoginFailed:
		if errors.Is(ev.Err, session.ErrInvalidInput) {
			c.metrics.Inc(MetricLoginInvalidInput)
		} else {
			c.metrics.Inc(MetricLoginFailure)
		}
	case session.EventRegister:
		c.metrics.Inc(MetricRegisterSuccess)
	case session.EventRegisterFailed:
		c.metrics.Inc(MetricRegisterFailure)
	case session.EventLogout:
		c.metrics.Inc(MetricLogout)
	case session.EventSuperseded:
		c.metrics.Inc(MetricSuperseded)
	}
	if ev.Duration > 0 {
		c.metrics.Observe(MetricAuthAPILatency, ev.Duration)
	}

	ae := AuditEvent{
		EventType: auditTypeFor(ev.Kind),
		UserID:    ev.UserID,
		Success:   ev.Err == nil,
	}
	if ev.Err != nil {
		ae.Error = ev.Err.Error()
	}
	if ev.Kind == session.EventVerifySkipped {
		ae.Metadata = map[string]string{"reason": "expired_locally"}
	}
	c.audit.emit(ctx, ae)
}

func auditTypeFor(k session.EventKind) string {
	switch k {
	case session.EventVerified, session.EventVerifyFailed, session.EventVerifySkipped:
		return AuditVerify
	case session.EventLogin, session.EventLoginFailed:
		return AuditLogin
	case session.EventRegister, session.EventRegisterFailed:
		return AuditRegister
	case session.EventLogout:
		return AuditLogout
	default:
		return AuditStale
	}
}
