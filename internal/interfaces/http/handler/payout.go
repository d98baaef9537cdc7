package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apppayout "github.com/payrail/payout-gateway/internal/application/payout"
	"github.com/payrail/payout-gateway/internal/infrastructure/upstream"
	"github.com/payrail/payout-gateway/internal/interfaces/http/dto"
	"github.com/payrail/payout-gateway/internal/interfaces/http/middleware"
)

// errorBody builds an error envelope carrying the request id
func errorBody(c *gin.Context, code, message string) dto.Response {
	resp := dto.NewErrorResponse(code, message)
	resp.RequestID = c.GetString("request_id")
	return resp
}

// PayoutHandler serves the payout listing, detail, and transaction routes
type PayoutHandler struct {
	queries    *apppayout.QueryService
	resolution *apppayout.ResolutionService
	logger     *zap.Logger
}

// NewPayoutHandler creates a new PayoutHandler
func NewPayoutHandler(queries *apppayout.QueryService, resolution *apppayout.ResolutionService, logger *zap.Logger) *PayoutHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PayoutHandler{
		queries:    queries,
		resolution: resolution,
		logger:     logger,
	}
}

// List handles GET /api/v1/payouts. The route never fails on upstream
// trouble; degraded payloads carry stale and degraded_reason annotations
// instead.
func (h *PayoutHandler) List(c *gin.Context) {
	var req dto.ListPayoutsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(c, dto.ErrCodeBadRequest, err.Error()))
		return
	}

	result := h.queries.List(c.Request.Context(), middleware.GetTenantID(c), apppayout.ListQuery{
		Limit:         req.Limit,
		Offset:        req.Offset,
		StartingAfter: req.StartingAfter,
		EndingBefore:  req.EndingBefore,
		Search:        req.Search,
		Status:        req.Status,
		Type:          req.Type,
		From:          req.From,
		To:            req.To,
		TenantID:      req.TenantID,
		Refresh:       req.Refresh,
	})

	c.JSON(http.StatusOK, dto.ListResponse{
		Success:        result.Payload.Success,
		Data:           result.Payload.Data,
		TotalCount:     result.Payload.TotalCount,
		HasMore:        result.Payload.HasMore,
		Cached:         result.Cached,
		Stale:          result.Stale,
		DegradedReason: result.DegradedReason,
	})
}

// Get handles GET /api/v1/payouts/:id
func (h *PayoutHandler) Get(c *gin.Context) {
	view, err := h.queries.Get(c.Request.Context(), middleware.GetTenantID(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(view))
}

// ListTransactions handles GET /api/v1/payouts/:id/transactions
func (h *PayoutHandler) ListTransactions(c *gin.Context) {
	var req dto.ListTransactionsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(c, dto.ErrCodeBadRequest, err.Error()))
		return
	}

	result, err := h.resolution.ListTransactions(c.Request.Context(), middleware.GetTenantID(c), c.Param("id"), req.Limit)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.TransactionsResponse{
		Success: true,
		Data:    result.Data,
		HasMore: result.HasMore,
	})
}

// respondError maps service errors onto the wire. Detail and transaction
// routes fail closed, unlike the listing.
func (h *PayoutHandler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apppayout.ErrPayoutNotFound):
		c.JSON(http.StatusNotFound, errorBody(c, dto.ErrCodePayoutNotFound, "payout not found"))
	case errors.Is(err, upstream.ErrTimeout):
		c.JSON(http.StatusGatewayTimeout, errorBody(c, dto.ErrCodeUpstreamTimeout, "upstream request timed out"))
	default:
		h.logger.Error("upstream request failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, errorBody(c, dto.ErrCodeUpstreamError, "upstream request failed"))
	}
}
