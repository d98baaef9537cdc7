package payout

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/payrail/payout-gateway/internal/domain/payout"
	"github.com/payrail/payout-gateway/internal/infrastructure/telemetry"
	"github.com/payrail/payout-gateway/internal/infrastructure/upstream"
)

// Scan windows around the payout's creation time, in seconds. Manual
// settlements bundle transactions accumulated over a longer period before a
// single disbursement, so their back-window is much wider; automatic
// settlements are tightly time-boxed and a narrow symmetric window suffices
// for the indexing-lag fallback.
const (
	day = 24 * 60 * 60

	automaticScanBack    = 7 * day
	automaticScanForward = 7 * day
	manualScanBack       = 30 * day
	manualScanForward    = 1 * day

	scanPageSize = 100
)

// TransactionsResult is the transaction listing returned to callers
type TransactionsResult struct {
	Data    []payout.BalanceTransaction `json:"data"`
	HasMore bool                        `json:"has_more"`
}

// ResolutionService is the transaction resolution engine. Given a payout it
// picks the retrieval strategy matching its settlement mode, with a
// cross-fallback when the upstream rejects the chosen strategy at runtime.
type ResolutionService struct {
	client            upstream.Client
	allowUnattributed bool
	logger            *zap.Logger
}

// NewResolutionService creates the transaction resolution engine
func NewResolutionService(client upstream.Client, allowUnattributed bool, logger *zap.Logger) *ResolutionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResolutionService{
		client:            client,
		allowUnattributed: allowUnattributed,
		logger:            logger,
	}
}

// ListTransactions resolves the balance transactions disbursed by a payout.
// Unknown payouts and payouts belonging to other tenants both come back as
// ErrPayoutNotFound. Upstream failures surface; only the known
// "filtering unsupported" rejection is recovered locally.
func (s *ResolutionService) ListTransactions(ctx context.Context, tenant, payoutID string, limit int) (*TransactionsResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "payout.transactions",
		telemetry.Attr(telemetry.SpanAttrTenant, payout.NormalizeTenant(tenant)),
		telemetry.Attr(telemetry.SpanAttrPayoutID, payoutID))
	defer span.End()

	p, err := s.client.RetrievePayout(ctx, payoutID)
	if err != nil {
		if errors.Is(err, upstream.ErrNotFound) {
			return nil, ErrPayoutNotFound
		}
		return nil, err
	}
	if !payout.MatchesTenant(p.Metadata, tenant, s.allowUnattributed) {
		return nil, ErrPayoutNotFound
	}

	if limit <= 0 || limit > maxLimit {
		limit = defaultLimit
	}

	if p.Automatic {
		span.SetAttributes(telemetry.Attr(telemetry.SpanAttrStrategy, "direct_filter"))
		return s.resolveAutomatic(ctx, p, limit)
	}
	span.SetAttributes(telemetry.Attr(telemetry.SpanAttrStrategy, "date_scan"))
	return s.resolveByScan(ctx, p, limit, manualScanBack, manualScanForward)
}

// resolveAutomatic tries the upstream's direct payout filter first. A
// successful but empty page triggers one widening scan to compensate for
// upstream indexing lag; a filtering-unsupported rejection means the
// declared settlement type disagreed with the upstream's actual constraint,
// and the runtime rejection wins: reroute to the manual scan.
func (s *ResolutionService) resolveAutomatic(ctx context.Context, p *payout.Payout, limit int) (*TransactionsResult, error) {
	page, err := s.client.ListBalanceTransactions(ctx, upstream.ListBalanceTransactionsParams{
		Limit:    int64(limit),
		PayoutID: p.ID,
	})
	if err != nil {
		if errors.Is(err, upstream.ErrFilteringUnsupported) {
			s.logger.Info("direct payout filter rejected, falling back to date scan",
				zap.String("payout_id", p.ID))
			return s.resolveByScan(ctx, p, limit, manualScanBack, manualScanForward)
		}
		return nil, err
	}
	if len(page.Transactions) > 0 {
		return &TransactionsResult{Data: page.Transactions, HasMore: page.HasMore}, nil
	}

	// Direct filter succeeded but found nothing; widen around the payout
	// creation time as a best effort against indexing lag.
	s.logger.Debug("direct payout filter returned no records, widening",
		zap.String("payout_id", p.ID))
	return s.resolveByScan(ctx, p, limit, automaticScanBack, automaticScanForward)
}

// resolveByScan lists transactions created inside a window around the
// payout's creation time and keeps the ones referencing the payout. A
// filtering-unsupported rejection here is terminal: the scan carries no
// payout filter, so the rejection cannot be routed around, and an empty
// result is returned instead of an error.
func (s *ResolutionService) resolveByScan(ctx context.Context, p *payout.Payout, limit int, back, forward int64) (*TransactionsResult, error) {
	page, err := s.client.ListBalanceTransactions(ctx, upstream.ListBalanceTransactionsParams{
		Limit:      scanPageSize,
		CreatedGTE: p.Created - back,
		CreatedLTE: p.Created + forward,
	})
	if err != nil {
		if errors.Is(err, upstream.ErrFilteringUnsupported) {
			s.logger.Warn("date scan rejected by upstream, returning empty set",
				zap.String("payout_id", p.ID))
			return &TransactionsResult{Data: []payout.BalanceTransaction{}}, nil
		}
		return nil, err
	}

	matched := make([]payout.BalanceTransaction, 0, limit)
	for _, tx := range page.Transactions {
		if tx.ReferencesPayout(p.ID) {
			matched = append(matched, tx)
			if len(matched) == limit {
				break
			}
		}
	}
	return &TransactionsResult{Data: matched, HasMore: page.HasMore}, nil
}
