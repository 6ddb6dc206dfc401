package resilience

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"
)

// TransportError reports a network call that did not complete: dial
// failures, timeouts, or a response body that could not be read.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// NewTransportError wraps err as a TransportError for the named operation.
func NewTransportError(op string, err error) *TransportError {
	return &TransportError{Op: op, Err: err}
}

// RemoteError reports a completed call that the remote service rejected,
// either with a non-success status or an explicit error payload.
// StatusCode is the HTTP status; it is 200 for error payloads.
type RemoteError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: remote: status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: remote: status %d: %s", e.Op, e.StatusCode, e.Message)
}

// NewRemoteError builds a RemoteError.
func NewRemoteError(op string, statusCode int, message string) *RemoteError {
	return &RemoteError{Op: op, StatusCode: statusCode, Message: message}
}

// DataShapeError reports a response that is missing the structure the
// caller expects. Callers treat it as "no usable entries".
type DataShapeError struct {
	Op     string
	Detail string
}

func (e *DataShapeError) Error() string {
	return fmt.Sprintf("%s: data shape: %s", e.Op, e.Detail)
}

// NewDataShapeError builds a DataShapeError.
func NewDataShapeError(op, detail string) *DataShapeError {
	return &DataShapeError{Op: op, Detail: detail}
}

// Error kinds reported by Classify.
const (
	KindTransport = "transport"
	KindRemote    = "remote"
	KindDataShape = "data_shape"
	KindUnknown   = "unknown"
)

// Classify maps err onto the taxonomy above.
func Classify(err error) string {
	var te *TransportError
	var re *RemoteError
	var de *DataShapeError
	switch {
	case errors.As(err, &te):
		return KindTransport
	case errors.As(err, &re):
		return KindRemote
	case errors.As(err, &de):
		return KindDataShape
	default:
		return KindUnknown
	}
}

// IsTransient returns true if the error (or any error in its chain) is a
// TransportError, a RemoteError with a retryable status, or matches common
// transient network error patterns.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var te *TransportError
	if errors.As(err, &te) {
		return true
	}

	var re *RemoteError
	if errors.As(err, &re) {
		return IsTransientHTTPStatus(re.StatusCode)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	msg := strings.ToLower(err.Error())
	transientPatterns := []string{
		"connection reset by peer",
		"broken pipe",
		"temporary failure in name resolution",
		"tls handshake timeout",
		"i/o timeout",
		"server closed idle connection",
	}
	for _, p := range transientPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}

	return false
}

// IsTransientHTTPStatus returns true if the HTTP status code indicates a
// transient server-side issue that is safe to retry.
func IsTransientHTTPStatus(statusCode int) bool {
	switch statusCode {
	case 408, // Request Timeout
		429, // Too Many Requests
		500, // Internal Server Error
		502, // Bad Gateway
		503, // Service Unavailable
		504: // Gateway Timeout
		return true
	default:
		return false
	}
}
