package gateway

import (
	"fmt"
	"net/http"
	"strings"
)

// ConfigError indicates required provider configuration is absent.
// Only key names are carried, never values.
type ConfigError struct {
	MissingKeys []string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("missing environment variables: %s", strings.Join(e.MissingKeys, ", "))
}

func (e *ConfigError) StatusCode() int { return http.StatusInternalServerError }

// ValidationError indicates a malformed or missing request field.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

func (e *ValidationError) StatusCode() int { return http.StatusBadRequest }

// RateLimitError indicates the cooldown window for a recipient is still
// active. Expected and non-exceptional; the caller may retry once the
// window elapses.
type RateLimitError struct {
	Recipient string
}

func (e *RateLimitError) Error() string { return "Alert cooldown active" }

func (e *RateLimitError) StatusCode() int { return http.StatusTooManyRequests }

// ProviderError indicates the SMS provider rejected the send.
type ProviderError struct {
	Code    int
	Message string
}

func (e *ProviderError) Error() string { return e.Message }

func (e *ProviderError) StatusCode() int { return http.StatusInternalServerError }

// TransportError indicates a network or parse failure talking to the
// provider. Reported identically to ProviderError.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return e.Err.Error() }

func (e *TransportError) StatusCode() int { return http.StatusInternalServerError }

func (e *TransportError) Unwrap() error { return e.Err }
