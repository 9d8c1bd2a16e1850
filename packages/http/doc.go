// Package http provides the HTTP client hitcheck uses to fetch the response
// a case is checked against.
//
// It wraps the standard library's http package with:
//   - Configurable timeouts
//   - Redirect handling
//   - Default headers, proxy and TLS verification settings
//   - A Response type that reads the whole body and exposes it as JSON
package http
