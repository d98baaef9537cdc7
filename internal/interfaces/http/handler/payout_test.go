package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apppayout "github.com/payrail/payout-gateway/internal/application/payout"
	"github.com/payrail/payout-gateway/internal/domain/payout"
	"github.com/payrail/payout-gateway/internal/infrastructure/cache"
	"github.com/payrail/payout-gateway/internal/infrastructure/upstream"
	"github.com/payrail/payout-gateway/internal/interfaces/http/middleware"
)

type stubClient struct {
	listPayoutsFn func(ctx context.Context, params upstream.ListPayoutsParams) (*upstream.PayoutPage, error)
	retrieveFn    func(ctx context.Context, id string) (*payout.Payout, error)
	listTxFn      func(ctx context.Context, params upstream.ListBalanceTransactionsParams) (*upstream.BalanceTransactionPage, error)
}

func (c *stubClient) ListPayouts(ctx context.Context, params upstream.ListPayoutsParams) (*upstream.PayoutPage, error) {
	if c.listPayoutsFn == nil {
		return &upstream.PayoutPage{}, nil
	}
	return c.listPayoutsFn(ctx, params)
}

func (c *stubClient) RetrievePayout(ctx context.Context, id string) (*payout.Payout, error) {
	if c.retrieveFn == nil {
		return nil, upstream.ErrNotFound
	}
	return c.retrieveFn(ctx, id)
}

func (c *stubClient) ListBalanceTransactions(ctx context.Context, params upstream.ListBalanceTransactionsParams) (*upstream.BalanceTransactionPage, error) {
	if c.listTxFn == nil {
		return &upstream.BalanceTransactionPage{}, nil
	}
	return c.listTxFn(ctx, params)
}

func newTestRouter(client upstream.Client) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()
	queries := apppayout.NewQueryService(client, cache.NewMemoryStore(), time.Minute, false, logger)
	resolution := apppayout.NewResolutionService(client, false, logger)
	h := NewPayoutHandler(queries, resolution, logger)

	router := gin.New()
	router.Use(middleware.Tenant())
	v1 := router.Group("/api/v1")
	v1.GET("/payouts", h.List)
	v1.GET("/payouts/:id", h.Get)
	v1.GET("/payouts/:id/transactions", h.ListTransactions)
	return router
}

func doRequest(router *gin.Engine, path, tenant string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", path, nil)
	if tenant != "" {
		req.Header.Set(middleware.TenantHeaderKey, tenant)
	}
	router.ServeHTTP(w, req)
	return w
}

func acmePayout(id string) payout.Payout {
	return payout.Payout{
		ID:        id,
		Amount:    5000,
		Currency:  "usd",
		Status:    payout.StatusPaid,
		Automatic: true,
		Created:   1756000000,
		Metadata:  map[string]string{"tenant_id": "acme"},
	}
}

func TestListPayouts_ReturnsTenantRecords(t *testing.T) {
	client := &stubClient{
		listPayoutsFn: func(ctx context.Context, params upstream.ListPayoutsParams) (*upstream.PayoutPage, error) {
			return &upstream.PayoutPage{Payouts: []payout.Payout{acmePayout("po_1"), acmePayout("po_2")}}, nil
		},
	}
	router := newTestRouter(client)

	w := doRequest(router, "/api/v1/payouts", "acme")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Success    bool              `json:"success"`
		Data       []json.RawMessage `json:"data"`
		TotalCount int               `json:"total_count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Len(t, body.Data, 2)
	assert.Equal(t, 2, body.TotalCount)
}

func TestListPayouts_InvalidLimitRejected(t *testing.T) {
	router := newTestRouter(&stubClient{})

	w := doRequest(router, "/api/v1/payouts?limit=0", "acme")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "BAD_REQUEST")
}

func TestListPayouts_InvalidStatusRejected(t *testing.T) {
	router := newTestRouter(&stubClient{})

	w := doRequest(router, "/api/v1/payouts?status=settled", "acme")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListPayouts_InvalidDateFilterRejected(t *testing.T) {
	router := newTestRouter(&stubClient{})

	w := doRequest(router, "/api/v1/payouts?from=not-a-date", "acme")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListPayouts_DateFilterSpellingsAccepted(t *testing.T) {
	router := newTestRouter(&stubClient{})

	for _, from := range []string{"2026-08-01", "2026-08-01T00:00:00Z", "1756425600"} {
		w := doRequest(router, "/api/v1/payouts?from="+from, "acme")
		assert.Equal(t, http.StatusOK, w.Code, from)
	}
}

func TestListPayouts_UpstreamTimeoutDegradesTo200(t *testing.T) {
	client := &stubClient{
		listPayoutsFn: func(ctx context.Context, params upstream.ListPayoutsParams) (*upstream.PayoutPage, error) {
			return nil, upstream.ErrTimeout
		},
	}
	router := newTestRouter(client)

	w := doRequest(router, "/api/v1/payouts", "acme")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Success        bool              `json:"success"`
		Data           []json.RawMessage `json:"data"`
		Stale          bool              `json:"stale"`
		DegradedReason string            `json:"degraded_reason"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Empty(t, body.Data)
	assert.True(t, body.Stale)
	assert.Equal(t, "stripe_timeout", body.DegradedReason)
}

func TestGetPayout_Found(t *testing.T) {
	client := &stubClient{
		retrieveFn: func(ctx context.Context, id string) (*payout.Payout, error) {
			p := acmePayout(id)
			return &p, nil
		},
	}
	router := newTestRouter(client)

	w := doRequest(router, "/api/v1/payouts/po_1", "acme")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":"po_1"`)
}

func TestGetPayout_NotFound(t *testing.T) {
	router := newTestRouter(&stubClient{})

	w := doRequest(router, "/api/v1/payouts/po_missing", "acme")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "PAYOUT_NOT_FOUND")
}

func TestGetPayout_ForeignTenantLooksMissing(t *testing.T) {
	client := &stubClient{
		retrieveFn: func(ctx context.Context, id string) (*payout.Payout, error) {
			p := acmePayout(id)
			return &p, nil
		},
	}
	router := newTestRouter(client)

	w := doRequest(router, "/api/v1/payouts/po_1", "globex")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "PAYOUT_NOT_FOUND")
}

func TestGetPayout_TimeoutSurfacedAs504(t *testing.T) {
	client := &stubClient{
		retrieveFn: func(ctx context.Context, id string) (*payout.Payout, error) {
			return nil, upstream.ErrTimeout
		},
	}
	router := newTestRouter(client)

	w := doRequest(router, "/api/v1/payouts/po_1", "acme")
	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
	assert.Contains(t, w.Body.String(), "UPSTREAM_TIMEOUT")
}

func TestGetPayout_UpstreamErrorSurfacedAs502(t *testing.T) {
	client := &stubClient{
		retrieveFn: func(ctx context.Context, id string) (*payout.Payout, error) {
			return nil, &upstream.Error{Code: "api_error", Message: "internal upstream failure"}
		},
	}
	router := newTestRouter(client)

	w := doRequest(router, "/api/v1/payouts/po_1", "acme")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "UPSTREAM_ERROR")
}

func TestListTransactions_ReturnsMatches(t *testing.T) {
	client := &stubClient{
		retrieveFn: func(ctx context.Context, id string) (*payout.Payout, error) {
			p := acmePayout(id)
			return &p, nil
		},
		listTxFn: func(ctx context.Context, params upstream.ListBalanceTransactionsParams) (*upstream.BalanceTransactionPage, error) {
			return &upstream.BalanceTransactionPage{Transactions: []payout.BalanceTransaction{
				{ID: "txn_1", Type: "charge", Amount: 1200, PayoutID: "po_1"},
				{ID: "txn_2", Type: "refund", Amount: -300, PayoutID: "po_1"},
			}}, nil
		},
	}
	router := newTestRouter(client)

	w := doRequest(router, "/api/v1/payouts/po_1/transactions", "acme")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Success bool              `json:"success"`
		Data    []json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Len(t, body.Data, 2)
}

func TestListTransactions_UnknownPayout(t *testing.T) {
	router := newTestRouter(&stubClient{})

	w := doRequest(router, "/api/v1/payouts/po_missing/transactions", "acme")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListTransactions_InvalidLimitRejected(t *testing.T) {
	router := newTestRouter(&stubClient{})

	w := doRequest(router, "/api/v1/payouts/po_1/transactions?limit=-1", "acme")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
