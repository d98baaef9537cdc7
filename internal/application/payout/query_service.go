package payout

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/payrail/payout-gateway/internal/domain/payout"
	"github.com/payrail/payout-gateway/internal/infrastructure/cache"
	"github.com/payrail/payout-gateway/internal/infrastructure/telemetry"
	"github.com/payrail/payout-gateway/internal/infrastructure/upstream"
)

// ErrPayoutNotFound is returned when a payout does not exist or is not
// visible to the requesting tenant. The two cases are intentionally
// indistinguishable so a caller cannot probe for other tenants' records.
var ErrPayoutNotFound = errors.New("payout not found")

// listRoute is the logical route component of listing cache keys
const listRoute = "payouts:list"

// QueryService is the payout query engine: cache lookup, upstream fetch,
// tenant and local filtering, pagination shaping, and stale-or-empty
// degradation on upstream failure.
type QueryService struct {
	client            upstream.Client
	store             cache.Store
	ttl               time.Duration
	allowUnattributed bool
	logger            *zap.Logger
}

// NewQueryService creates the query engine. ttl bounds cache freshness;
// allowUnattributed decides whether records without tenant metadata are
// visible to every tenant.
func NewQueryService(client upstream.Client, store cache.Store, ttl time.Duration, allowUnattributed bool, logger *zap.Logger) *QueryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueryService{
		client:            client,
		store:             store,
		ttl:               ttl,
		allowUnattributed: allowUnattributed,
		logger:            logger,
	}
}

// List executes a tenant-scoped payout listing. It never returns a hard
// error: upstream failures degrade to a stale cached payload or an empty
// success payload, labeled with a degradation reason.
func (s *QueryService) List(ctx context.Context, tenant string, q ListQuery) *ListResult {
	ctx, span := telemetry.StartSpan(ctx, "payout.list",
		telemetry.Attr(telemetry.SpanAttrTenant, payout.NormalizeTenant(tenant)))
	defer span.End()

	requester := payout.NormalizeTenant(tenant)
	filterTenant := requester
	// The tenant_id query parameter narrows an unscoped query. A scoped
	// requester is pinned to its own records regardless of the parameter.
	if requester == "" {
		if override := payout.NormalizeTenant(q.TenantID); override != "" {
			filterTenant = override
		}
	}

	key := cache.BuildKey(requester, listRoute, q.cacheParams())
	if !q.Refresh {
		if payload, ok := s.cachedPayload(ctx, key, false); ok {
			span.SetAttributes(telemetry.Attr(telemetry.SpanAttrCacheHit, true))
			return &ListResult{Payload: *payload, Cached: true}
		}
	}

	limit := q.normalizedLimit()
	offset := q.normalizedOffset()

	// The upstream has no offset; over-fetch enough records to skip
	// client-side, capped at the upstream page bound.
	pageSize := int64(limit)
	if !q.hasCursor() {
		pageSize = int64(limit + offset)
		if pageSize > maxLimit {
			pageSize = maxLimit
		}
	}

	page, err := s.client.ListPayouts(ctx, upstream.ListPayoutsParams{
		Limit:         pageSize,
		StartingAfter: q.StartingAfter,
		EndingBefore:  q.EndingBefore,
		Status:        q.Status,
		CreatedGTE:    parseDateFilter(q.From),
		CreatedLTE:    parseDateFilter(q.To),
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return s.degrade(ctx, key, err)
	}

	records := page.Payouts
	if !q.hasCursor() && offset > 0 {
		if offset >= len(records) {
			records = nil
		} else {
			records = records[offset:]
		}
	}

	data := make([]PayoutView, 0, limit)
	for i := range records {
		p := &records[i]
		if !payout.MatchesTenant(p.Metadata, filterTenant, s.allowUnattributed) {
			continue
		}
		if q.Type != "" && string(p.SettlementType()) != q.Type {
			continue
		}
		if !matchesSearch(p, q.Search) {
			continue
		}
		data = append(data, shapePayout(p))
		if len(data) == limit {
			break
		}
	}

	payload := ListPayload{
		Success:    true,
		Data:       data,
		TotalCount: len(data),
		HasMore:    page.HasMore,
	}
	s.storePayload(ctx, key, &payload)
	return &ListResult{Payload: payload}
}

// Get fetches a single payout for the tenant. Unlike List it fails closed:
// a caller asking for one specific record needs to know whether the fetch
// actually happened.
func (s *QueryService) Get(ctx context.Context, tenant, id string) (*PayoutView, error) {
	ctx, span := telemetry.StartSpan(ctx, "payout.get",
		telemetry.Attr(telemetry.SpanAttrTenant, payout.NormalizeTenant(tenant)),
		telemetry.Attr(telemetry.SpanAttrPayoutID, id))
	defer span.End()

	p, err := s.client.RetrievePayout(ctx, id)
	if err != nil {
		if errors.Is(err, upstream.ErrNotFound) {
			return nil, ErrPayoutNotFound
		}
		return nil, err
	}
	if !payout.MatchesTenant(p.Metadata, tenant, s.allowUnattributed) {
		s.logger.Debug("payout hidden by tenant attribution",
			zap.String("payout_id", id),
			zap.String("tenant", payout.NormalizeTenant(tenant)))
		return nil, ErrPayoutNotFound
	}
	view := shapePayout(p)
	return &view, nil
}

// degrade serves the failure path: a stale cached payload when one exists,
// an empty success payload otherwise. Listing availability wins over
// freshness by design.
func (s *QueryService) degrade(ctx context.Context, key string, cause error) *ListResult {
	reason := DegradedReasonError
	if errors.Is(cause, upstream.ErrTimeout) {
		reason = DegradedReasonTimeout
	}
	s.logger.Warn("upstream listing failed, degrading",
		zap.String("reason", reason),
		zap.Error(cause))

	if payload, ok := s.cachedPayload(ctx, key, true); ok {
		return &ListResult{Payload: *payload, Cached: true, Stale: true, DegradedReason: reason}
	}
	return &ListResult{
		Payload:        ListPayload{Success: true, Data: []PayoutView{}},
		Stale:          true,
		DegradedReason: reason,
	}
}

func (s *QueryService) cachedPayload(ctx context.Context, key string, stale bool) (*ListPayload, bool) {
	var raw []byte
	var ok bool
	if stale {
		raw, ok = s.store.GetStale(ctx, key)
	} else {
		raw, ok = s.store.Get(ctx, key)
	}
	if !ok {
		return nil, false
	}
	var payload ListPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		s.logger.Warn("dropping undecodable cache entry", zap.String("key", key), zap.Error(err))
		s.store.Delete(ctx, key)
		return nil, false
	}
	return &payload, true
}

func (s *QueryService) storePayload(ctx context.Context, key string, payload *ListPayload) {
	raw, err := json.Marshal(payload)
	if err != nil {
		s.logger.Warn("failed to marshal listing payload for cache", zap.Error(err))
		return
	}
	s.store.Set(ctx, key, raw, s.ttl)
}

// matchesSearch does a case-insensitive substring match over the fields a
// caller can plausibly search by: id, description, and both tenant metadata
// spellings.
func matchesSearch(p *payout.Payout, search string) bool {
	needle := strings.ToLower(strings.TrimSpace(search))
	if needle == "" {
		return true
	}
	haystacks := []string{
		p.ID,
		p.Description,
		p.Metadata[payout.MetadataTenantKey],
		p.Metadata[payout.MetadataTenantAliasKey],
	}
	for _, h := range haystacks {
		if h != "" && strings.Contains(strings.ToLower(h), needle) {
			return true
		}
	}
	return false
}
