// Package client talks to the sealdrop HTTP API and bootstraps the local
// SQLite database of the CLI.
//
// # Overview
//
// The package provides:
//  1. The Client interface, the API contract used by the client services.
//  2. HTTPClient, a net/http implementation. It attaches the bearer access
//     token, refreshes an expired token once and retries the request, and
//     maps error bodies back to the sentinels of internal/common.
//  3. InitDatabase and RunMigrations, which open the local SQLite database
//     and apply the embedded goose migrations.
//
// # Error Handling
//
// Non-2xx responses are returned as *APIError, which unwraps to a sentinel,
// so callers match with errors.Is (common.ErrEscrowMissing,
// common.ErrInvalidTransition, ...). Transport failures wrap ErrUnavailable.
//
// HTTPClient is safe for concurrent use.
package client
