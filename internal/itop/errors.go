package itop

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingConfig indicates required connection settings are absent.
	ErrMissingConfig = errors.New("itop connection settings missing")

	// ErrUnavailable indicates the iTop server could not be reached.
	ErrUnavailable = errors.New("itop server unavailable")

	// ErrTimeout indicates the request exceeded the configured timeout.
	ErrTimeout = errors.New("itop request timed out")

	// ErrInvalidResponse indicates the response body was not the JSON
	// envelope the REST API documents.
	ErrInvalidResponse = errors.New("invalid itop response")
)

// HTTPError is returned when the web server answers with a non-200 status.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	body := e.Body
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	return fmt.Sprintf("itop returned HTTP %d: %s", e.StatusCode, body)
}

// RemoteError carries a non-zero code from the REST envelope.
type RemoteError struct {
	Code    int
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("itop error %d: %s", e.Code, e.Message)
}

// IsUnknownClass reports whether the remote rejected the class name.
func IsUnknownClass(err error) bool {
	var re *RemoteError
	if !errors.As(err, &re) {
		return false
	}
	return containsFold(re.Message, "unknown class") || containsFold(re.Message, "class not found")
}

func errorCode(err error) string {
	var httpErr *HTTPError
	var remoteErr *RemoteError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrTimeout):
		return "TIMEOUT"
	case errors.Is(err, ErrUnavailable):
		return "UNAVAILABLE"
	case errors.Is(err, ErrInvalidResponse):
		return "INVALID_RESPONSE"
	case errors.As(err, &httpErr):
		return fmt.Sprintf("HTTP_%d", httpErr.StatusCode)
	case errors.As(err, &remoteErr):
		return fmt.Sprintf("REMOTE_%d", remoteErr.Code)
	default:
		return "UNKNOWN"
	}
}
