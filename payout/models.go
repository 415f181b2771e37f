package payout

import (
	"github.com/xraph/granary/id"
	"github.com/xraph/granary/types"
)

// Receipt records one successful transfer made during a distribution:
// which member was paid, how much, and for what contributed weight.
type Receipt struct {
	types.Entity
	ID         id.ReceiptID `json:"id"`
	Pool       id.PoolID    `json:"pool"`
	Member     id.MemberID  `json:"member"`
	Amount     types.Money  `json:"amount"`
	QuantityKg int64        `json:"quantity_kg"`
}

// NewReceipt creates a Receipt with a fresh ID and timestamps.
func NewReceipt(pool id.PoolID, member id.MemberID, amount types.Money, quantityKg int64) *Receipt {
	return &Receipt{
		Entity:     types.NewEntity(),
		ID:         id.NewReceiptID(),
		Pool:       pool,
		Member:     member,
		Amount:     amount,
		QuantityKg: quantityKg,
	}
}

// Summary reports the outcome of one distribution call.
type Summary struct {
	// MembersPaid is the number of transfers made during this call.
	MembersPaid int `json:"members_paid"`
	// Distributed is the sum of shares transferred during this call.
	Distributed types.Money `json:"distributed"`
	// Dust is the escrowed remainder no entry can claim after floor
	// division: TotalReceived minus every PaidAmount on the ledger.
	Dust types.Money `json:"dust"`
	// Receipts holds one entry per transfer made during this call,
	// in walk order.
	Receipts []*Receipt `json:"receipts"`
}

// Details is the per-member payout view: contribution fields plus payment
// state. Zero-valued when the member holds no active contribution.
type Details struct {
	DisplayName  string      `json:"display_name"`
	ContactPhone string      `json:"contact_phone"`
	QuantityKg   int64       `json:"quantity_kg"`
	Paid         bool        `json:"paid"`
	PaidAmount   types.Money `json:"paid_amount"`
}

// ListOpts filters receipt listings.
type ListOpts struct {
	Member id.MemberID // only receipts paid to this member; zero lists all
	Limit  int
	Offset int
}
