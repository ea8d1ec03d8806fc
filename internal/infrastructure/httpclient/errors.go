package httpclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sony/gobreaker"
)

// StatusError is returned when the remote service answers with an
// unexpected status code.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if msg := errorMessage(e.Body); msg != "" {
		return fmt.Sprintf("status %d: %s", e.Code, msg)
	}
	return fmt.Sprintf("status %d", e.Code)
}

// IsStatus returns whether err is a *StatusError with the given code.
func IsStatus(err error, code int) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.Code == code
}

// IsBreakerOpen returns whether the request was refused by the circuit
// breaker of the remote host.
func IsBreakerOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) ||
		errors.Is(err, gobreaker.ErrTooManyRequests)
}

// errorMessage extracts the message of a {"error": "..."} body, or returns the
// trimmed body otherwise.
func errorMessage(body string) string {
	var resp struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal([]byte(body), &resp); err == nil && resp.Error != "" {
		return resp.Error
	}
	return strings.TrimSpace(body)
}
