// Package prometheus renders storefront client metrics in the Prometheus text
// exposition format (version 0.0.4) without pulling in the Prometheus client
// library.
package prometheus
