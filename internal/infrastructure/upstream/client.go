// Package upstream adapts the Stripe payouts API behind a small port the
// query and resolution engines consume. Every call runs under a bounded wait
// and every failure is normalized into a fixed taxonomy.
package upstream

import (
	"context"
	"errors"
	"time"

	"github.com/payrail/payout-gateway/internal/domain/payout"
)

// maxPageSize is the upstream's hard cap on list page sizes
const maxPageSize = 100

// ListPayoutsParams selects a page of payouts. Zero values mean "not set".
// Status and the created range are pushed to the upstream natively; tenant,
// type, and search filters are not, and are applied by the engine after
// fetch.
type ListPayoutsParams struct {
	Limit         int64
	StartingAfter string
	EndingBefore  string
	Status        string
	CreatedGTE    int64 // unix seconds
	CreatedLTE    int64 // unix seconds
}

// PayoutPage is one upstream page of payouts
type PayoutPage struct {
	Payouts []payout.Payout
	HasMore bool
}

// ListBalanceTransactionsParams selects a page of balance transactions,
// either by direct payout filter or by created range.
type ListBalanceTransactionsParams struct {
	Limit      int64
	PayoutID   string // direct filter; rejected upstream for manual payouts
	CreatedGTE int64
	CreatedLTE int64
}

// BalanceTransactionPage is one upstream page of balance transactions
type BalanceTransactionPage struct {
	Transactions []payout.BalanceTransaction
	HasMore      bool
}

// Client is the upstream capability the engines depend on
type Client interface {
	ListPayouts(ctx context.Context, params ListPayoutsParams) (*PayoutPage, error)
	RetrievePayout(ctx context.Context, id string) (*payout.Payout, error)
	ListBalanceTransactions(ctx context.Context, params ListBalanceTransactionsParams) (*BalanceTransactionPage, error)
}

// ClampPageSize bounds a requested page size to the upstream's [1, 100] range
func ClampPageSize(n int64) int64 {
	if n < 1 {
		return 1
	}
	if n > maxPageSize {
		return maxPageSize
	}
	return n
}

// bounded races fn against the configured wait. On overrun the logical wait
// is cancelled and the call fails as ErrTimeout; the underlying network call
// is left to finish on its own and its eventual result is discarded.
func bounded[T any](ctx context.Context, timeout time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		value T
		err   error
	}
	done := make(chan outcome, 1)
	go func() {
		v, err := fn(callCtx)
		done <- outcome{value: v, err: err}
	}()

	select {
	case <-callCtx.Done():
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return zero, ErrTimeout
		}
		return zero, callCtx.Err()
	case out := <-done:
		if out.err != nil {
			return zero, Classify(out.err)
		}
		return out.value, nil
	}
}
