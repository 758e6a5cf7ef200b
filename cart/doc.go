// Package cart implements the in-memory Cart Store: an ordered list of line items
// keyed by product and variant, with derived totals.
//
// Mutations never fail and never block on I/O. Invalid quantities are clamped
// (add) or treated as removal (update). When a [Persister] is configured, every
// mutation hands the resulting item list to a background flusher that writes
// only the newest pending snapshot.
package cart
