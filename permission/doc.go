// Package permission provides the storefront role enum, role sets used as capability
// requirements, and the frozen route registry that maps guarded views to the roles
// allowed to enter them.
//
// # Roles and sets
//
// [Role] is a closed enum. A [Set] is a 64-bit mask of roles; the zero Set means
// "no specific role required". Role names are checked against the enum at compile
// time, so adding a role without naming it fails the build.
//
// # Architecture boundaries
//
// This package is a pure in-memory data structure with no I/O.
//
// # What this package must NOT do
//
//   - Access storage, the network, or the session store.
//   - Import storefront, session, gate, or middleware.
package permission
