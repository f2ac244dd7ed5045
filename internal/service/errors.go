package service

import "errors"

var (
	// ErrNotConfigured aborts a send before any side effect when SMS is
	// disabled or the gateway credentials are incomplete.
	ErrNotConfigured = errors.New("sms is not enabled or gateway credentials are incomplete")

	// ErrInvalidTarget rejects a relink to a record type outside the
	// allow-list.
	ErrInvalidTarget = errors.New("target record type is not allowed")

	// ErrNoSelection rejects a relink with an empty message selection.
	ErrNoSelection = errors.New("no messages selected")

	// ErrNoMessages reports a relink that matched nothing. Non-fatal:
	// there was simply nothing to do.
	ErrNoMessages = errors.New("no messages found")

	// ErrGateway means the provider rejected or failed the send. The
	// Sending log row is preserved with the error recorded on it.
	ErrGateway = errors.New("gateway send failed")
)
