// Package observability builds the process-wide zap logger and the
// request-scoped child loggers used by handlers and middleware.
package observability
