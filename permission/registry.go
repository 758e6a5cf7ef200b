package permission

import (
	"errors"
	"sort"
	"strings"
	"sync"
)

// Route is one guarded entry of the route table.
type Route struct {
	Pattern  string
	Required Set
}

// Registry maps route patterns to the role set required to enter them. A pattern
// registered with the empty Set only requires a signed-in identity. Patterns that
// are not registered are public.
type Registry struct {
	mu     sync.RWMutex
	routes map[string]Set
	frozen bool
}

// NewRegistry returns an empty, unfrozen registry.
func NewRegistry() *Registry {
	return &Registry{
		routes: make(map[string]Set),
	}
}

// DefaultRoutes is the storefront route table: account pages require a signed-in
// identity, the admin dashboard requires Admin and the seller dashboard accepts
// Seller or Admin.
func DefaultRoutes() []Route {
	return []Route{
		{Pattern: "/checkout"},
		{Pattern: "/profile"},
		{Pattern: "/wishlist"},
		{Pattern: "/orders"},
		{Pattern: "/dashboard"},
		{Pattern: "/dashboard/admin", Required: Of(RoleAdmin)},
		{Pattern: "/dashboard/seller", Required: Of(RoleSeller, RoleAdmin)},
	}
}

// Register adds a guarded pattern. Must be called before [Registry.Freeze].
func (r *Registry) Register(pattern string, required Set) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return errors.New("registry frozen")
	}

	pattern = strings.TrimSpace(pattern)
	if pattern == "" || !strings.HasPrefix(pattern, "/") {
		return errors.New("route pattern must start with /")
	}

	if _, exists := r.routes[pattern]; exists {
		return errors.New("route already registered: " + pattern)
	}

	r.routes[pattern] = required
	return nil
}

// Lookup returns the required set for pattern and whether the pattern is guarded.
func (r *Registry) Lookup(pattern string) (Set, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	required, ok := r.routes[pattern]
	return required, ok
}

// Routes returns the registered routes sorted by pattern.
func (r *Registry) Routes() []Route {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Route, 0, len(r.routes))
	for p, s := range r.routes {
		out = append(out, Route{Pattern: p, Required: s})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Pattern < out[j].Pattern })
	return out
}

// Freeze prevents further registrations.
func (r *Registry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen = true
}

// Count returns the number of guarded patterns.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.routes)
}
