package http

import (
	"fmt"
	"net"

	"github.com/pkg/errors"
)

// ConnectionError reports that no HTTP response was received: DNS failures,
// refused connections, TLS errors, timeouts and truncated bodies. A response
// with any status code is never a ConnectionError.
type ConnectionError struct {
	Method string
	URL    string
	Err    error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("%s %s: connection failed: %v", e.Method, e.URL, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the failure was a deadline being exceeded.
func (e *ConnectionError) Timeout() bool {
	var netErr net.Error
	if errors.As(e.Err, &netErr) {
		return netErr.Timeout()
	}
	return false
}
