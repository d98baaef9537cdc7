package payout

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/payrail/payout-gateway/internal/domain/payout"
	"github.com/payrail/payout-gateway/internal/infrastructure/upstream"
)

var resolutionNow = time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC).Unix()

func retrievingPayout(p payout.Payout) func(string) (*payout.Payout, error) {
	return func(id string) (*payout.Payout, error) {
		if id != p.ID {
			return nil, upstream.ErrNotFound
		}
		copied := p
		return &copied, nil
	}
}

func newTestResolutionService(client upstream.Client, allowUnattributed bool) *ResolutionService {
	return NewResolutionService(client, allowUnattributed, zap.NewNop())
}

func TestListTransactionsUnknownPayout(t *testing.T) {
	client := &fakeClient{retrieveFn: func(string) (*payout.Payout, error) {
		return nil, upstream.ErrNotFound
	}}
	svc := newTestResolutionService(client, false)

	_, err := svc.ListTransactions(context.Background(), "acme", "po_missing", 0)
	assert.ErrorIs(t, err, ErrPayoutNotFound)
}

func TestListTransactionsForeignPayoutLooksAbsent(t *testing.T) {
	client := &fakeClient{retrieveFn: retrievingPayout(payout.Payout{
		ID:       "po_1",
		Metadata: tenantMeta("globex"),
	})}
	svc := newTestResolutionService(client, false)

	_, err := svc.ListTransactions(context.Background(), "acme", "po_1", 0)
	assert.ErrorIs(t, err, ErrPayoutNotFound)
	assert.Empty(t, client.listTxCalls, "no transaction call may leak past the tenant check")
}

func TestListTransactionsAutomaticUsesDirectFilter(t *testing.T) {
	client := &fakeClient{
		retrieveFn: retrievingPayout(payout.Payout{
			ID:        "po_auto",
			Automatic: true,
			Created:   resolutionNow,
			Metadata:  tenantMeta("acme"),
		}),
		listTxFn: func(params upstream.ListBalanceTransactionsParams) (*upstream.BalanceTransactionPage, error) {
			return &upstream.BalanceTransactionPage{
				Transactions: []payout.BalanceTransaction{
					{ID: "txn_1", PayoutID: "po_auto"},
					{ID: "txn_2", PayoutID: "po_auto"},
				},
				HasMore: true,
			}, nil
		},
	}
	svc := newTestResolutionService(client, false)

	result, err := svc.ListTransactions(context.Background(), "acme", "po_auto", 0)
	require.NoError(t, err)
	assert.Len(t, result.Data, 2)
	assert.True(t, result.HasMore)

	require.Len(t, client.listTxCalls, 1)
	assert.Equal(t, "po_auto", client.listTxCalls[0].PayoutID)
	assert.Zero(t, client.listTxCalls[0].CreatedGTE)
}

func TestListTransactionsAutomaticEmptyWidensToScan(t *testing.T) {
	client := &fakeClient{
		retrieveFn: retrievingPayout(payout.Payout{
			ID:        "po_auto",
			Automatic: true,
			Created:   resolutionNow,
			Metadata:  tenantMeta("acme"),
		}),
	}
	client.listTxFn = func(params upstream.ListBalanceTransactionsParams) (*upstream.BalanceTransactionPage, error) {
		if params.PayoutID != "" {
			return &upstream.BalanceTransactionPage{}, nil
		}
		return &upstream.BalanceTransactionPage{
			Transactions: []payout.BalanceTransaction{
				{ID: "txn_in", PayoutID: "po_auto", Created: resolutionNow - day},
				{ID: "txn_other", PayoutID: "po_other", Created: resolutionNow - day},
			},
		}, nil
	}
	svc := newTestResolutionService(client, false)

	result, err := svc.ListTransactions(context.Background(), "acme", "po_auto", 0)
	require.NoError(t, err)
	require.Len(t, result.Data, 1)
	assert.Equal(t, "txn_in", result.Data[0].ID)

	require.Len(t, client.listTxCalls, 2)
	scan := client.listTxCalls[1]
	assert.Empty(t, scan.PayoutID)
	assert.Equal(t, resolutionNow-automaticScanBack, scan.CreatedGTE)
	assert.Equal(t, resolutionNow+automaticScanForward, scan.CreatedLTE)
}

func TestListTransactionsAutomaticRejectionFallsBackToManualWindow(t *testing.T) {
	client := &fakeClient{
		retrieveFn: retrievingPayout(payout.Payout{
			ID:        "po_mislabeled",
			Automatic: true,
			Created:   resolutionNow,
			Metadata:  tenantMeta("acme"),
		}),
	}
	client.listTxFn = func(params upstream.ListBalanceTransactionsParams) (*upstream.BalanceTransactionPage, error) {
		if params.PayoutID != "" {
			return nil, upstream.ErrFilteringUnsupported
		}
		return &upstream.BalanceTransactionPage{
			Transactions: []payout.BalanceTransaction{
				{ID: "txn_1", PayoutID: "po_mislabeled"},
			},
		}, nil
	}
	svc := newTestResolutionService(client, false)

	result, err := svc.ListTransactions(context.Background(), "acme", "po_mislabeled", 0)
	require.NoError(t, err)
	require.Len(t, result.Data, 1)

	// The runtime rejection wins over the declared settlement type, so the
	// fallback scan uses the wider manual window.
	require.Len(t, client.listTxCalls, 2)
	scan := client.listTxCalls[1]
	assert.Equal(t, resolutionNow-manualScanBack, scan.CreatedGTE)
	assert.Equal(t, resolutionNow+manualScanForward, scan.CreatedLTE)
}

func TestListTransactionsManualScansCreationWindow(t *testing.T) {
	client := &fakeClient{
		retrieveFn: retrievingPayout(payout.Payout{
			ID:       "po_manual",
			Created:  resolutionNow,
			Metadata: tenantMeta("acme"),
		}),
		listTxFn: func(params upstream.ListBalanceTransactionsParams) (*upstream.BalanceTransactionPage, error) {
			return &upstream.BalanceTransactionPage{
				Transactions: []payout.BalanceTransaction{
					{ID: "txn_1", PayoutID: "po_manual", Created: resolutionNow - 20*day},
					{ID: "txn_stray", PayoutID: "po_other", Created: resolutionNow - 5*day},
					{ID: "txn_2", PayoutID: "po_manual", Created: resolutionNow - 2*day},
					{ID: "txn_3", PayoutID: "po_manual", Created: resolutionNow},
				},
			}, nil
		},
	}
	svc := newTestResolutionService(client, false)

	result, err := svc.ListTransactions(context.Background(), "acme", "po_manual", 0)
	require.NoError(t, err)
	require.Len(t, result.Data, 3)
	assert.Equal(t, "txn_1", result.Data[0].ID)
	assert.Equal(t, "txn_2", result.Data[1].ID)
	assert.Equal(t, "txn_3", result.Data[2].ID)

	require.Len(t, client.listTxCalls, 1)
	scan := client.listTxCalls[0]
	assert.Empty(t, scan.PayoutID, "manual resolution must not use the direct payout filter")
	assert.Equal(t, resolutionNow-manualScanBack, scan.CreatedGTE)
	assert.Equal(t, resolutionNow+manualScanForward, scan.CreatedLTE)
}

func TestListTransactionsManualScanRejectionIsTerminal(t *testing.T) {
	client := &fakeClient{
		retrieveFn: retrievingPayout(payout.Payout{
			ID:       "po_manual",
			Created:  resolutionNow,
			Metadata: tenantMeta("acme"),
		}),
		listTxFn: func(params upstream.ListBalanceTransactionsParams) (*upstream.BalanceTransactionPage, error) {
			return nil, upstream.ErrFilteringUnsupported
		},
	}
	svc := newTestResolutionService(client, false)

	result, err := svc.ListTransactions(context.Background(), "acme", "po_manual", 0)
	require.NoError(t, err)
	assert.Empty(t, result.Data)
	assert.NotNil(t, result.Data)
	assert.False(t, result.HasMore)
	assert.Len(t, client.listTxCalls, 1)
}

func TestListTransactionsSurfacesUpstreamErrors(t *testing.T) {
	client := &fakeClient{
		retrieveFn: retrievingPayout(payout.Payout{
			ID:       "po_manual",
			Created:  resolutionNow,
			Metadata: tenantMeta("acme"),
		}),
		listTxFn: func(params upstream.ListBalanceTransactionsParams) (*upstream.BalanceTransactionPage, error) {
			return nil, upstream.ErrTimeout
		},
	}
	svc := newTestResolutionService(client, false)

	_, err := svc.ListTransactions(context.Background(), "acme", "po_manual", 0)
	assert.ErrorIs(t, err, upstream.ErrTimeout)
}

func TestListTransactionsHonorsLimit(t *testing.T) {
	txs := make([]payout.BalanceTransaction, 0, 10)
	for i := 0; i < 10; i++ {
		txs = append(txs, payout.BalanceTransaction{
			ID:       "txn_" + string(rune('a'+i)),
			PayoutID: "po_manual",
			Created:  resolutionNow,
		})
	}
	client := &fakeClient{
		retrieveFn: retrievingPayout(payout.Payout{
			ID:       "po_manual",
			Created:  resolutionNow,
			Metadata: tenantMeta("acme"),
		}),
		listTxFn: func(params upstream.ListBalanceTransactionsParams) (*upstream.BalanceTransactionPage, error) {
			return &upstream.BalanceTransactionPage{Transactions: txs}, nil
		},
	}
	svc := newTestResolutionService(client, false)

	result, err := svc.ListTransactions(context.Background(), "acme", "po_manual", 4)
	require.NoError(t, err)
	assert.Len(t, result.Data, 4)
}

func TestListTransactionsUnattributedPayout(t *testing.T) {
	client := &fakeClient{
		retrieveFn: retrievingPayout(payout.Payout{
			ID:      "po_bare",
			Created: resolutionNow,
		}),
		listTxFn: func(params upstream.ListBalanceTransactionsParams) (*upstream.BalanceTransactionPage, error) {
			return &upstream.BalanceTransactionPage{}, nil
		},
	}

	strict := newTestResolutionService(client, false)
	_, err := strict.ListTransactions(context.Background(), "acme", "po_bare", 0)
	assert.ErrorIs(t, err, ErrPayoutNotFound)

	permissive := newTestResolutionService(client, true)
	result, err := permissive.ListTransactions(context.Background(), "acme", "po_bare", 0)
	require.NoError(t, err)
	assert.Empty(t, result.Data)
}
