// Package observability provides structured logging for the enrollment service.
//
// This package implements:
//   - zap logger construction from configuration (JSON or console encoding)
//   - Request ID propagation into log fields
package observability
