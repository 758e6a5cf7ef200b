// Package remote is the shared HTTP/JSON caller used by the Auth API and catalog
// clients: instrumented transport, request ids, circuit breaking and error payload
// decoding.
//
// # What this package must NOT do
//
//   - Know endpoint paths or payload shapes beyond the error envelope.
//   - Retry requests; the breaker only fails fast.
package remote
