package contribution

import (
	"github.com/xraph/granary/id"
	"github.com/xraph/granary/types"
)

// Contribution is one member's stake in the pooled batch: a quantity of
// produce in kilograms plus the payout bookkeeping for that stake. A member
// holds at most one active Contribution; quantity is immutable after creation.
type Contribution struct {
	types.Entity
	Member       id.MemberID `json:"member"`
	DisplayName  string      `json:"display_name"`
	ContactPhone string      `json:"contact_phone"`
	QuantityKg   int64       `json:"quantity_kg"`
	Paid         bool        `json:"paid"`
	PaidAmount   types.Money `json:"paid_amount"`
	Position     int         `json:"position"`
}

// New creates a Contribution with fresh timestamps. DisplayName and
// ContactPhone are opaque text; callers validate QuantityKg > 0.
func New(member id.MemberID, displayName, contactPhone string, quantityKg int64) *Contribution {
	return &Contribution{
		Entity:       types.NewEntity(),
		Member:       member,
		DisplayName:  displayName,
		ContactPhone: contactPhone,
		QuantityKg:   quantityKg,
	}
}

// Payable reports whether a distribution walk should pay this entry:
// not yet paid and carrying a positive quantity.
func (c *Contribution) Payable() bool {
	return !c.Paid && c.QuantityKg > 0
}
