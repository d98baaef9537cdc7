package upstream

import (
	"context"
	"time"

	stripe "github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/balancetransaction"
	stripepayout "github.com/stripe/stripe-go/v81/payout"
	"go.uber.org/zap"

	"github.com/payrail/payout-gateway/internal/domain/payout"
)

// StripeClient implements Client against the Stripe API
type StripeClient struct {
	timeout time.Duration
	logger  *zap.Logger
}

// NewStripeClient configures the stripe-go library and returns a Client.
// timeout is the per-call bound; the manual resolution path issues up to
// three sequential calls, so overall request deadlines must be sized above
// three times this value.
func NewStripeClient(apiKey string, timeout time.Duration, logger *zap.Logger) *StripeClient {
	stripe.Key = apiKey
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StripeClient{
		timeout: timeout,
		logger:  logger,
	}
}

// ListPayouts implements Client
func (c *StripeClient) ListPayouts(ctx context.Context, params ListPayoutsParams) (*PayoutPage, error) {
	page, err := bounded(ctx, c.timeout, func(callCtx context.Context) (*PayoutPage, error) {
		listParams := &stripe.PayoutListParams{}
		listParams.Context = callCtx
		listParams.Single = true
		listParams.Limit = stripe.Int64(ClampPageSize(params.Limit))
		if params.StartingAfter != "" {
			listParams.StartingAfter = stripe.String(params.StartingAfter)
		}
		if params.EndingBefore != "" {
			listParams.EndingBefore = stripe.String(params.EndingBefore)
		}
		if params.Status != "" {
			listParams.Status = stripe.String(params.Status)
		}
		if params.CreatedGTE != 0 || params.CreatedLTE != 0 {
			listParams.CreatedRange = &stripe.RangeQueryParams{
				GreaterThanOrEqual: params.CreatedGTE,
				LesserThanOrEqual:  params.CreatedLTE,
			}
		}

		iter := stripepayout.List(listParams)
		page := &PayoutPage{}
		for iter.Next() {
			page.Payouts = append(page.Payouts, fromStripePayout(iter.Payout()))
		}
		if err := iter.Err(); err != nil {
			return nil, err
		}
		if list := iter.PayoutList(); list != nil {
			page.HasMore = list.HasMore
		}
		return page, nil
	})
	if err != nil {
		c.logger.Warn("stripe payout list failed",
			zap.String("starting_after", params.StartingAfter),
			zap.Error(err))
		return nil, err
	}
	return page, nil
}

// RetrievePayout implements Client
func (c *StripeClient) RetrievePayout(ctx context.Context, id string) (*payout.Payout, error) {
	p, err := bounded(ctx, c.timeout, func(callCtx context.Context) (*payout.Payout, error) {
		getParams := &stripe.PayoutParams{}
		getParams.Context = callCtx
		sp, err := stripepayout.Get(id, getParams)
		if err != nil {
			return nil, err
		}
		mapped := fromStripePayout(sp)
		return &mapped, nil
	})
	if err != nil {
		c.logger.Warn("stripe payout retrieve failed", zap.String("payout_id", id), zap.Error(err))
		return nil, err
	}
	return p, nil
}

// ListBalanceTransactions implements Client
func (c *StripeClient) ListBalanceTransactions(ctx context.Context, params ListBalanceTransactionsParams) (*BalanceTransactionPage, error) {
	page, err := bounded(ctx, c.timeout, func(callCtx context.Context) (*BalanceTransactionPage, error) {
		listParams := &stripe.BalanceTransactionListParams{}
		listParams.Context = callCtx
		listParams.Single = true
		listParams.Limit = stripe.Int64(ClampPageSize(params.Limit))
		if params.PayoutID != "" {
			listParams.Payout = stripe.String(params.PayoutID)
		}
		if params.CreatedGTE != 0 || params.CreatedLTE != 0 {
			listParams.CreatedRange = &stripe.RangeQueryParams{
				GreaterThanOrEqual: params.CreatedGTE,
				LesserThanOrEqual:  params.CreatedLTE,
			}
		}

		iter := balancetransaction.List(listParams)
		page := &BalanceTransactionPage{}
		for iter.Next() {
			page.Transactions = append(page.Transactions, fromStripeBalanceTransaction(iter.BalanceTransaction()))
		}
		if err := iter.Err(); err != nil {
			return nil, err
		}
		if list := iter.BalanceTransactionList(); list != nil {
			page.HasMore = list.HasMore
		}
		return page, nil
	})
	if err != nil {
		c.logger.Warn("stripe balance transaction list failed",
			zap.String("payout_id", params.PayoutID),
			zap.Error(err))
		return nil, err
	}
	return page, nil
}

func fromStripePayout(p *stripe.Payout) payout.Payout {
	return payout.Payout{
		ID:          p.ID,
		Amount:      p.Amount,
		Currency:    string(p.Currency),
		Status:      payout.Status(p.Status),
		Automatic:   p.Automatic,
		Created:     p.Created,
		ArrivalDate: p.ArrivalDate,
		Description: p.Description,
		Metadata:    p.Metadata,
	}
}

func fromStripeBalanceTransaction(t *stripe.BalanceTransaction) payout.BalanceTransaction {
	mapped := payout.BalanceTransaction{
		ID:      t.ID,
		Type:    string(t.Type),
		Amount:  t.Amount,
		Net:     t.Net,
		Created: t.Created,
	}
	// The payout reference lives on the transaction source; only
	// payout-sourced transaction types reference a payout.
	switch t.Type {
	case stripe.BalanceTransactionTypePayout,
		stripe.BalanceTransactionTypePayoutCancel,
		stripe.BalanceTransactionTypePayoutFailure:
		if t.Source != nil {
			mapped.PayoutID = t.Source.ID
		}
	}
	return mapped
}
