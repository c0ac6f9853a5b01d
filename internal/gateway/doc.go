// ABOUTME: Package documentation for the gateway package
// ABOUTME: Describes dispatch semantics, credential precedence, and error contract

// Package gateway mediates access to the remote SpaceTraders API on behalf of
// multiple independent agents.
//
// Every dispatch flows through the same sequence: acquire a slot from the
// shared rate limiter, resolve a bearer credential (account token, a stored
// agent token, or none), issue exactly one HTTP call, and hand the raw
// status-plus-body response back to the caller. The gateway never retries and
// never interprets response content; non-2xx statuses are data, not errors.
// Local errors are limited to precondition violations (missing account token,
// invalid construction) and transport failures.
package gateway
