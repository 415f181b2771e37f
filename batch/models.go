package batch

import (
	"github.com/xraph/granary/id"
	"github.com/xraph/granary/types"
)

// Batch is the pool-level state: the unit price the batch sells at and the
// escrow slot for the buyer's payment. One row per pool.
//
// TotalReceived is overwritten by each accepted payment, never accumulated —
// the engine tracks one payment cycle at a time.
type Batch struct {
	types.Entity
	ID            id.PoolID   `json:"id"`
	Label         string      `json:"label"`
	Currency      string      `json:"currency"`
	PricePerUnit  types.Money `json:"price_per_unit"`
	Buyer         id.MemberID `json:"buyer"`
	TotalReceived types.Money `json:"total_received"`
}

// New creates a Batch for the given pool with zeroed price and escrow.
func New(poolID id.PoolID, currency string) *Batch {
	return &Batch{
		Entity:        types.NewEntity(),
		ID:            poolID,
		Currency:      currency,
		PricePerUnit:  types.Zero(currency),
		TotalReceived: types.Zero(currency),
	}
}

// Priced reports whether a unit price has been set.
func (b *Batch) Priced() bool { return b.PricePerUnit.IsPositive() }

// Sold reports whether a payment has been received for the batch.
func (b *Batch) Sold() bool { return !b.TotalReceived.IsZero() }
