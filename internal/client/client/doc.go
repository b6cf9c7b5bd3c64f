// Package client wraps the ledger gRPC service for command-line use. Each
// call attaches the configured access token and is bounded by the request
// timeout. Transport failures map onto ErrUnavailable and authentication
// failures onto ErrUnauthorized; other statuses are wrapped unchanged so
// callers can still read the code with status.Code.
package client
