package middleware

import (
	"net/http"

	"github.com/MrEthical07/storefront/gate"
	"github.com/MrEthical07/storefront/permission"
)

// RequireIdentity admits any signed-in identity.
func RequireIdentity(view gate.View, opts Options) func(http.Handler) http.Handler {
	return Guard(view, 0, opts)
}

// RequireRole admits identities holding at least one of roles.
func RequireRole(view gate.View, opts Options, roles ...permission.Role) func(http.Handler) http.Handler {
	return Guard(view, permission.Of(roles...), opts)
}
