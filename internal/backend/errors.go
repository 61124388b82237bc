package backend

import (
	"errors"
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
)

var (
	// ErrMissingPath: upload answered 2xx but without a path, which is still a failure.
	ErrMissingPath = errors.New("upload response has no path")
	ErrUnsupported = errors.New("operation not supported by provider")
)

// HTTPError is a non-2xx backend answer. Body is the raw response body.
type HTTPError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s failed (status %d): %s", e.Op, e.StatusCode, e.Body)
}

// NetworkError means the request never got a response.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s request: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Reason renders an error for a user-facing notification.
func Reason(err error) string {
	var httpErr *HTTPError
	var netErr *NetworkError
	switch {
	case errors.As(err, &httpErr):
		if httpErr.Body == "" {
			return fmt.Sprintf("backend answered %d", httpErr.StatusCode)
		}
		return serverMessage(httpErr.Body)
	case errors.As(err, &netErr):
		return "backend unreachable"
	default:
		return err.Error()
	}
}

// serverMessage pulls "error" (or "message") out of a JSON error body; anything else is shown as is.
func serverMessage(body string) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if !strings.HasPrefix(strings.TrimSpace(body), "{") || json.Unmarshal([]byte(body), &payload) != nil {
		return body
	}
	switch {
	case payload.Error != "":
		return payload.Error
	case payload.Message != "":
		return payload.Message
	default:
		return body
	}
}
