// Package observability builds the gateway's zap loggers and Prometheus
// collectors for token introspection and request authentication.
package observability
