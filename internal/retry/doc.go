// Package retry applies a backoff policy to calls against external providers.
//
// A Policy describes attempt count and delay growth; Do runs a function under
// that policy, retrying only errors the supplied classifier marks transient.
// Fatal errors return immediately, parent context cancellation stops the loop
// between attempts, and exhausting the budget yields an *ExhaustedError that
// wraps the last failure.
//
// IsTransient is the default classifier: rate limits, server errors, request
// timeouts, network timeouts, dropped connections, and per-attempt deadlines.
// HTTP clients expose their status through StatusCoder so classification does
// not depend on error strings.
package retry
