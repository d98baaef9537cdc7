package upstream

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	stripe "github.com/stripe/stripe-go/v81"
)

// Sentinel errors making up the upstream failure taxonomy. Callers branch on
// these with errors.Is instead of inspecting transport details.
var (
	// ErrTimeout covers the bounded wait elapsing and transport-level
	// timeout signals (deadline, connection reset, header timeout).
	ErrTimeout = errors.New("upstream call timed out")
	// ErrNotFound means the upstream declared the entity absent.
	ErrNotFound = errors.New("upstream entity not found")
	// ErrFilteringUnsupported is the upstream's rejection of the direct
	// payout filter for manually settled payouts.
	ErrFilteringUnsupported = errors.New("upstream rejected payout filtering")
)

// Error wraps any upstream failure outside the sentinel taxonomy, keeping the
// original code and message for diagnostics.
type Error struct {
	Code    string
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("upstream error %s: %s", e.Code, e.Message)
	}
	return "upstream error: " + e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// transportTimeoutSignals are substrings of transport errors normalized into
// ErrTimeout
var transportTimeoutSignals = []string{
	"connection reset",
	"connection refused",
	"timeout awaiting response headers",
	"client.timeout exceeded",
	"context deadline exceeded",
}

// Classify normalizes an upstream failure into the taxonomy. It is
// idempotent: already-classified errors pass through unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrTimeout) || errors.Is(err, ErrNotFound) || errors.Is(err, ErrFilteringUnsupported) {
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTimeout
	}

	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		if stripeErr.HTTPStatusCode == 404 || stripeErr.Code == stripe.ErrorCodeResourceMissing {
			return ErrNotFound
		}
		if isFilteringRejection(stripeErr.Msg) {
			return ErrFilteringUnsupported
		}
		return &Error{Code: string(stripeErr.Code), Message: stripeErr.Msg, cause: err}
	}

	msg := strings.ToLower(err.Error())
	for _, signal := range transportTimeoutSignals {
		if strings.Contains(msg, signal) {
			return ErrTimeout
		}
	}
	return &Error{Message: err.Error(), cause: err}
}

// isFilteringRejection matches the upstream's declared "filtering on manual
// payouts is not allowed" condition. The message wording has drifted across
// upstream API versions, so match loosely on the stable parts.
func isFilteringRejection(msg string) bool {
	m := strings.ToLower(msg)
	if !strings.Contains(m, "filter") {
		return false
	}
	return strings.Contains(m, "manual") || strings.Contains(m, "automatic") || strings.Contains(m, "not allowed")
}
