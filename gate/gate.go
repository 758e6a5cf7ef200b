// Package gate decides whether a view that needs a set of roles may be entered
// given the current session. It holds no state of its own.
package gate

import (
	"context"

	"github.com/MrEthical07/storefront/permission"
	"github.com/MrEthical07/storefront/session"
)

// Decision is the gate outcome for one view.
type Decision uint8

const (
	// Pending means the session has not finished initializing; show a placeholder.
	Pending Decision = iota
	// Allow renders the protected view.
	Allow
	// RedirectLogin sends the user to the login view.
	RedirectLogin
)

func (d Decision) String() string {
	switch d {
	case Pending:
		return "pending"
	case Allow:
		return "allow"
	case RedirectLogin:
		return "redirect_login"
	default:
		return "unknown"
	}
}

// View is the read side of the Session Store the gate needs.
type View interface {
	State() session.State
	Ready() <-chan struct{}
}

var _ View = (*session.Store)(nil)

// CanEnter reports whether identity satisfies required. An empty set admits
// any signed-in identity.
func CanEnter(identity *session.Identity, required permission.Set) bool {
	if identity == nil {
		return false
	}
	if required.Empty() {
		return true
	}
	return required.Has(identity.Role)
}

// Decide maps the current session state to a Decision.
func Decide(v View, required permission.Set) Decision {
	return decideState(v.State(), required)
}

func decideState(st session.State, required permission.Set) Decision {
	if st.Identity == nil && !st.Initialized {
		return Pending
	}
	if CanEnter(st.Identity, required) {
		return Allow
	}
	return RedirectLogin
}

// Wait blocks until the session is initialized or ctx ends, then decides.
// It returns Pending only when ctx ended first.
func Wait(ctx context.Context, v View, required permission.Set) Decision {
	if d := Decide(v, required); d != Pending {
		return d
	}
	select {
	case <-v.Ready():
		return Decide(v, required)
	case <-ctx.Done():
		return Pending
	}
}
