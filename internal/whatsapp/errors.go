package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Reason classifies why a gateway call failed.
type Reason string

const (
	ReasonTimeout       Reason = "TIMEOUT"
	ReasonUnreachable   Reason = "UNREACHABLE"
	ReasonAuthFailed    Reason = "AUTH_FAILED"
	ReasonUpstreamError Reason = "UPSTREAM_ERROR"
)

// GatewayError is returned by every failed Client call.
type GatewayError struct {
	Op     string
	Reason Reason
	Status int
	Err    error
}

func (e *GatewayError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("gateway %s: %s (HTTP %d): %v", e.Op, e.Reason, e.Status, e.Err)
	}
	return fmt.Sprintf("gateway %s: %s: %v", e.Op, e.Reason, e.Err)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// ReasonOf extracts the failure reason from err. Errors that did not come
// from the gateway client report UPSTREAM_ERROR.
func ReasonOf(err error) Reason {
	var gerr *GatewayError
	if errors.As(err, &gerr) {
		return gerr.Reason
	}
	return ReasonUpstreamError
}

func reasonForStatus(status int) Reason {
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return ReasonAuthFailed
	}
	return ReasonUpstreamError
}

func reasonForTransport(err error) Reason {
	if errors.Is(err, context.DeadlineExceeded) {
		return ReasonTimeout
	}
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return ReasonTimeout
	}
	return ReasonUnreachable
}
