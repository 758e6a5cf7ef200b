// Package otel publishes storefront client metrics as OpenTelemetry observable
// instruments. Values are read from a snapshot source inside a single
// registered callback, so collection never blocks the client.
package otel
