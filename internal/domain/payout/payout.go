// Package payout holds the domain model for upstream payout records and the
// tenant attribution rules that decide which tenant a record belongs to.
package payout

import "strconv"

// Status represents the upstream payout lifecycle state
type Status string

const (
	StatusPending   Status = "pending"
	StatusInTransit Status = "in_transit"
	StatusPaid      Status = "paid"
	StatusCanceled  Status = "canceled"
	StatusFailed    Status = "failed"
)

// SettlementType distinguishes automatic from manual disbursement.
// The two modes have different upstream transaction-filtering capabilities.
type SettlementType string

const (
	SettlementAutomatic SettlementType = "automatic"
	SettlementManual    SettlementType = "manual"
)

// MetadataTransactionCountKey is the metadata key carrying the number of
// transactions bundled into the payout, written by the disbursement job
const MetadataTransactionCountKey = "transaction_count"

// Payout is an upstream payout record. Amounts are integer minor units.
// Payouts are immutable once fetched; the gateway only shapes copies.
type Payout struct {
	ID          string            `json:"id"`
	Amount      int64             `json:"amount"`
	Currency    string            `json:"currency"`
	Status      Status            `json:"status"`
	Automatic   bool              `json:"automatic"`
	Created     int64             `json:"created"`
	ArrivalDate int64             `json:"arrival_date,omitempty"`
	Description string            `json:"description,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// SettlementType derives the settlement mode from the upstream automatic flag
func (p *Payout) SettlementType() SettlementType {
	if p.Automatic {
		return SettlementAutomatic
	}
	return SettlementManual
}

// TransactionCount derives the bundled transaction count from metadata.
// Missing or unparsable values count as zero.
func (p *Payout) TransactionCount() int {
	raw, ok := p.Metadata[MetadataTransactionCountKey]
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// BalanceTransaction is an upstream ledger entry. PayoutID references the
// payout that disbursed it and is empty for entries not tied to a payout.
type BalanceTransaction struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Amount   int64  `json:"amount"`
	Net      int64  `json:"net"`
	PayoutID string `json:"payout_id,omitempty"`
	Created  int64  `json:"created"`
}

// ReferencesPayout reports whether the transaction was disbursed by the
// given payout
func (t *BalanceTransaction) ReferencesPayout(payoutID string) bool {
	return payoutID != "" && t.PayoutID == payoutID
}
