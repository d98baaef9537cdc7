// Package dto defines the wire-level request and response shapes of the
// gateway API.
package dto

// Response represents a standard API response
type Response struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     *ErrorInfo  `json:"error,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
}

// ErrorInfo represents error details
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewSuccessResponse creates a success response
func NewSuccessResponse(data interface{}) Response {
	return Response{
		Success: true,
		Data:    data,
	}
}

// NewErrorResponse creates an error response
func NewErrorResponse(code, message string) Response {
	return Response{
		Success: false,
		Error: &ErrorInfo{
			Code:    code,
			Message: message,
		},
	}
}

// ListResponse is the payout listing envelope. The serving annotations
// (cached, stale, degraded_reason) describe how the payload was produced and
// are omitted when they carry no information.
type ListResponse struct {
	Success        bool        `json:"success"`
	Data           interface{} `json:"data"`
	TotalCount     int         `json:"total_count"`
	HasMore        bool        `json:"has_more"`
	Cached         bool        `json:"cached,omitempty"`
	Stale          bool        `json:"stale,omitempty"`
	DegradedReason string      `json:"degraded_reason,omitempty"`
}

// TransactionsResponse is the payout transaction listing envelope
type TransactionsResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
	HasMore bool        `json:"has_more"`
}

// ListPayoutsRequest carries the payout listing query parameters
type ListPayoutsRequest struct {
	Limit         int    `form:"limit" binding:"omitempty,min=1"`
	Offset        int    `form:"offset" binding:"omitempty,min=0"`
	StartingAfter string `form:"starting_after"`
	EndingBefore  string `form:"ending_before"`
	Search        string `form:"search"`
	Status        string `form:"status" binding:"omitempty,oneof=pending in_transit paid canceled failed"`
	Type          string `form:"type" binding:"omitempty,oneof=automatic manual"`
	From          string `form:"from" binding:"omitempty,datefilter"`
	To            string `form:"to" binding:"omitempty,datefilter"`
	TenantID      string `form:"tenant_id"`
	Refresh       bool   `form:"refresh"`
}

// ListTransactionsRequest carries the transaction listing query parameters
type ListTransactionsRequest struct {
	Limit int `form:"limit" binding:"omitempty,min=1"`
}
