// Package storefront composes the client-side core of the storefront: the Session
// Store, the Authorization Gate and the Cart Store, plus the route table they are
// checked against.
//
// A [Client] is built once with [Builder] and passed explicitly to every consumer;
// there is no package-level state. Client methods are safe for concurrent use.
//
// # Architecture boundaries
//
// storefront wires session, gate, cart and permission together and adds metrics
// and audit around session operations. Remote calls live in authapi and catalog;
// durable storage lives in credential and cart.
//
// # What this package must NOT do
//
//   - Make HTTP calls itself or know Auth API payload shapes.
//   - Hold globals; two Clients in one process are independent.
//   - Import internal/shell or the metrics exporters (they import storefront).
package storefront
