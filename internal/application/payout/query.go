// Package payout implements the gateway's two engines: the payout query
// engine (cached, degrading listing) and the transaction resolution engine
// (strategy selection with cross-fallback).
package payout

import (
	"strconv"
	"time"

	"github.com/payrail/payout-gateway/internal/domain/payout"
)

// Listing limits. The upstream caps pages at 100, which also caps what a
// single gateway query can return.
const (
	defaultLimit = 100
	maxLimit     = 100
)

// ListQuery carries the caller's listing filters. Zero values mean "not set".
//
// Offset pagination is compensated client-side (the upstream has no native
// offset) by over-fetching limit+offset records; accuracy degrades for deep
// offsets because the over-fetch is capped at the upstream page bound.
// Cursor pagination is the accurate path, and cursors disable the offset.
type ListQuery struct {
	Limit         int
	Offset        int
	StartingAfter string
	EndingBefore  string
	Search        string
	Status        string
	Type          string
	From          string // RFC3339, YYYY-MM-DD, or unix seconds; invalid values are dropped
	To            string
	TenantID      string // overrides the header tenant for filtering only
	Refresh       bool   // bypass the cache read; a successful fetch still writes
}

func (q *ListQuery) hasCursor() bool {
	return q.StartingAfter != "" || q.EndingBefore != ""
}

// normalizedLimit clamps the limit to [1, maxLimit], defaulting when unset
func (q *ListQuery) normalizedLimit() int {
	if q.Limit <= 0 {
		return defaultLimit
	}
	if q.Limit > maxLimit {
		return maxLimit
	}
	return q.Limit
}

// normalizedOffset is ignored entirely when a cursor is present
func (q *ListQuery) normalizedOffset() int {
	if q.Offset < 0 || q.hasCursor() {
		return 0
	}
	return q.Offset
}

// parseDateFilter turns a caller-supplied date into unix seconds. Invalid
// values are dropped silently rather than rejected; a bad date filter should
// widen the query, not fail it.
func parseDateFilter(raw string) int64 {
	if raw == "" {
		return 0
	}
	if secs, err := strconv.ParseInt(raw, 10, 64); err == nil && secs > 0 {
		return secs
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Unix()
		}
	}
	return 0
}

// cacheParams is the full normalized parameter set hashed into the cache
// key. Refresh is deliberately absent: a refreshed fetch must overwrite the
// entry a non-refresh read consults.
func (q *ListQuery) cacheParams() map[string]string {
	return map[string]string{
		"limit":          strconv.Itoa(q.normalizedLimit()),
		"offset":         strconv.Itoa(q.normalizedOffset()),
		"starting_after": q.StartingAfter,
		"ending_before":  q.EndingBefore,
		"search":         payout.NormalizeTenant(q.Search),
		"status":         q.Status,
		"type":           q.Type,
		"from":           strconv.FormatInt(parseDateFilter(q.From), 10),
		"to":             strconv.FormatInt(parseDateFilter(q.To), 10),
		"tenant_id":      payout.NormalizeTenant(q.TenantID),
	}
}

// PayoutView is the shaped payout record returned to callers
type PayoutView struct {
	ID               string                `json:"id"`
	Amount           int64                 `json:"amount"`
	Currency         string                `json:"currency"`
	Status           payout.Status         `json:"status"`
	Type             payout.SettlementType `json:"type"`
	Automatic        bool                  `json:"automatic"`
	Created          int64                 `json:"created"`
	ArrivalDate      int64                 `json:"arrival_date,omitempty"`
	Description      string                `json:"description,omitempty"`
	Metadata         map[string]string     `json:"metadata,omitempty"`
	TransactionCount int                   `json:"transaction_count"`
}

func shapePayout(p *payout.Payout) PayoutView {
	return PayoutView{
		ID:               p.ID,
		Amount:           p.Amount,
		Currency:         p.Currency,
		Status:           p.Status,
		Type:             p.SettlementType(),
		Automatic:        p.Automatic,
		Created:          p.Created,
		ArrivalDate:      p.ArrivalDate,
		Description:      p.Description,
		Metadata:         p.Metadata,
		TransactionCount: p.TransactionCount(),
	}
}

// ListPayload is the cacheable listing response body
type ListPayload struct {
	Success    bool         `json:"success"`
	Data       []PayoutView `json:"data"`
	TotalCount int          `json:"total_count"`
	HasMore    bool         `json:"has_more"`
}

// ListResult is a listing payload plus its serving annotations. The
// annotations are per-request and never cached.
type ListResult struct {
	Payload        ListPayload
	Cached         bool
	Stale          bool
	DegradedReason string
}

// Degradation reasons reported on stale or empty fallback responses
const (
	DegradedReasonTimeout = "stripe_timeout"
	DegradedReasonError   = "stripe_error"
)
