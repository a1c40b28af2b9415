package gateway

import (
	"errors"
	"fmt"
)

// ChatCreationError means a chat could not be created. Carries the
// server-provided detail when one was available. Shown as a toast.
type ChatCreationError struct {
	Message string
	cause   error
}

func (e *ChatCreationError) Error() string {
	return e.Message
}

func (e *ChatCreationError) Unwrap() error {
	return e.cause
}

// GatewayUnavailableError means the upstream AI provider behind the agent
// is misconfigured or down (HTTP 502/503/504). Shown as a persistent
// in-conversation notice, not a transient toast.
type GatewayUnavailableError struct {
	StatusCode int
}

func (e *GatewayUnavailableError) Error() string {
	return fmt.Sprintf(
		"the agent's AI provider is unavailable (HTTP %d): check the agent's provider configuration or try again later",
		e.StatusCode,
	)
}

// ChatTransportError is a generic network or API failure. Shown as a toast.
// QuotaExhausted marks the free-tier out-of-credits case, which the session
// degrades into a credits CTA message instead of a raw error.
type ChatTransportError struct {
	StatusCode     int
	QuotaExhausted bool
	cause          error
}

func (e *ChatTransportError) Error() string {
	if e.QuotaExhausted {
		return "free message quota exhausted"
	}
	if e.cause != nil {
		return fmt.Sprintf("chat request failed: %v", e.cause)
	}
	return fmt.Sprintf("chat request failed (HTTP %d)", e.StatusCode)
}

func (e *ChatTransportError) Unwrap() error {
	return e.cause
}

// IsQuotaExhausted reports whether err marks an exhausted free-tier quota.
func IsQuotaExhausted(err error) bool {
	var transportErr *ChatTransportError
	return errors.As(err, &transportErr) && transportErr.QuotaExhausted
}
