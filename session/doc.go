// Package session implements the storefront Session Store: the single source of truth
// for the signed-in [Identity] and the bearer credential used to call the remote API.
//
// # Lifecycle
//
// A [Store] is constructed once per application and passed to its consumers. It starts
// in the loading state; [Store.Initialize] reconciles a credential found in durable
// storage with the remote verification endpoint and always ends by closing
// [Store.Ready]. Login, Register and Logout follow.
//
// # Consistency
//
// Identity and credential are swapped together under one lock, and the credential is
// persisted before that swap. A verification is discarded once a login commits or a
// Logout runs while it is in flight. A login response is discarded once a newer login
// has committed or a Logout ran after it started. Failed logins commit nothing and
// discard nothing. Discarded responses report [ErrSuperseded] and never touch state.
//
// # Architecture boundaries
//
// The store depends on two ports it defines: [Authenticator] (remote Auth API) and
// [CredentialStorage] (durable client storage). Implementations live in authapi and
// credential.
//
// # What this package must NOT do
//
//   - Return bare errors or panic across the store boundary; failures become [Result].
//   - Make HTTP calls directly or know the Auth API wire format.
//   - Import storefront, gate, middleware, or cart.
package session
