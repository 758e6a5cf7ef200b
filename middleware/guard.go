package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrEthical07/storefront/gate"
	"github.com/MrEthical07/storefront/permission"
	"github.com/MrEthical07/storefront/session"
)

const (
	defaultPendingWait = 2 * time.Second
	defaultLoginPath   = "/login"
	retryAfterSeconds  = 1
)

// Options tunes guard responses.
type Options struct {
	// PendingWait bounds how long a request waits for session initialization.
	PendingWait time.Duration
	// LoginPath is the redirect target for denied requests.
	LoginPath string
	// OnDecision, when set, observes every decision of a guarded request.
	OnDecision func(ctx context.Context, pattern string, d gate.Decision)
}

func (o Options) withDefaults() Options {
	if o.PendingWait <= 0 {
		o.PendingWait = defaultPendingWait
	}
	if o.LoginPath == "" {
		o.LoginPath = defaultLoginPath
	}
	return o
}

type identityContextKey struct{}

// IdentityFromContext returns the identity a guard admitted.
func IdentityFromContext(ctx context.Context) (*session.Identity, bool) {
	id, ok := ctx.Value(identityContextKey{}).(*session.Identity)
	return id, ok && id != nil
}

// Guard admits requests whose identity satisfies required.
func Guard(view gate.View, required permission.Set, opts Options) func(http.Handler) http.Handler {
	opts = opts.withDefaults()
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			serveGuarded(w, r, next, view, routePattern(r), required, opts)
		})
	}
}

// GuardRoutes guards every request whose chi route pattern (or, before routing,
// URL path) is registered in reg. Unregistered routes pass through.
func GuardRoutes(reg *permission.Registry, view gate.View, opts Options) func(http.Handler) http.Handler {
	opts = opts.withDefaults()
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			pattern := routePattern(r)
			required, guarded := reg.Lookup(pattern)
			if !guarded {
				next.ServeHTTP(w, r)
				return
			}
			serveGuarded(w, r, next, view, pattern, required, opts)
		})
	}
}

func serveGuarded(w http.ResponseWriter, r *http.Request, next http.Handler, view gate.View, pattern string, required permission.Set, opts Options) {
	d := gate.RedirectLogin
	if view != nil {
		ctx, cancel := context.WithTimeout(r.Context(), opts.PendingWait)
		d = gate.Wait(ctx, view, required)
		cancel()
	}
	if opts.OnDecision != nil {
		opts.OnDecision(r.Context(), pattern, d)
	}

	switch d {
	case gate.Allow:
		st := view.State()
		ctx := context.WithValue(r.Context(), identityContextKey{}, st.Identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	case gate.RedirectLogin:
		target := opts.LoginPath + "?next=" + url.QueryEscape(r.URL.RequestURI())
		http.Redirect(w, r, target, http.StatusFound)
	default:
		w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "pending"})
	}
}

func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return r.URL.Path
}
