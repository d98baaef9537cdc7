package dto

import "net/http"

// Error codes returned by the gateway API
const (
	// ErrCodePayoutNotFound covers both absent payouts and payouts owned by
	// another tenant; the two are indistinguishable on the wire.
	ErrCodePayoutNotFound = "PAYOUT_NOT_FOUND"
	// ErrCodeUpstreamError is used when the upstream API failed
	ErrCodeUpstreamError = "UPSTREAM_ERROR"
	// ErrCodeUpstreamTimeout is used when the upstream API exceeded its bound
	ErrCodeUpstreamTimeout = "UPSTREAM_TIMEOUT"
	// ErrCodeUnauthorized is used when the API key is missing or invalid
	ErrCodeUnauthorized = "UNAUTHORIZED"
	// ErrCodeRateLimited is used when the per-tenant rate limit is exceeded
	ErrCodeRateLimited = "RATE_LIMIT_EXCEEDED"
	// ErrCodeBadRequest is used for malformed query parameters
	ErrCodeBadRequest = "BAD_REQUEST"
	// ErrCodeInternal is used for unexpected server errors
	ErrCodeInternal = "INTERNAL_ERROR"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodePayoutNotFound:  http.StatusNotFound,
	ErrCodeUpstreamError:   http.StatusBadGateway,
	ErrCodeUpstreamTimeout: http.StatusGatewayTimeout,
	ErrCodeUnauthorized:    http.StatusUnauthorized,
	ErrCodeRateLimited:     http.StatusTooManyRequests,
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeInternal:        http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Returns 500 Internal Server Error if the error code is not found.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
