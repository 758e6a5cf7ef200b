// Package middleware adapts the authorization gate to net/http.
//
// # Guards
//
//   - [Guard] protects one handler with a fixed role set.
//   - [RequireIdentity] accepts any signed-in identity.
//   - [RequireRole] accepts identities holding one of the listed roles.
//   - [GuardRoutes] looks the request's route up in a [permission.Registry].
//
// A guard waits up to Options.PendingWait for the session to finish
// initializing. Allowed requests carry the identity in their context
// ([IdentityFromContext]); denied ones are redirected to the login page with
// a next query parameter; requests that time out while the session is still
// pending get 503 with Retry-After.
//
// # Architecture boundaries
//
// Decisions come from the gate package. This package only translates them
// into HTTP responses and never talks to the Auth API or credential storage.
package middleware
