package sqlite

import (
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/granary/batch"
	"github.com/xraph/granary/contribution"
	"github.com/xraph/granary/id"
	"github.com/xraph/granary/payout"
	"github.com/xraph/granary/types"
)

// ==================== Batch models ====================

type batchModel struct {
	grove.BaseModel `grove:"table:granary_batches"`

	ID                  string    `grove:"id,pk"`
	Label               string    `grove:"label"`
	Currency            string    `grove:"currency"`
	PriceAmountCents    int64     `grove:"price_amount_cents"`
	PriceCurrency       string    `grove:"price_currency"`
	Buyer               string    `grove:"buyer"`
	ReceivedAmountCents int64     `grove:"received_amount_cents"`
	ReceivedCurrency    string    `grove:"received_currency"`
	CreatedAt           time.Time `grove:"created_at"`
	UpdatedAt           time.Time `grove:"updated_at"`
}

func toBatchModel(b *batch.Batch) *batchModel {
	return &batchModel{
		ID:                  b.ID.String(),
		Label:               b.Label,
		Currency:            b.Currency,
		PriceAmountCents:    b.PricePerUnit.Amount,
		PriceCurrency:       b.PricePerUnit.Currency,
		Buyer:               b.Buyer.String(),
		ReceivedAmountCents: b.TotalReceived.Amount,
		ReceivedCurrency:    b.TotalReceived.Currency,
		CreatedAt:           b.CreatedAt,
		UpdatedAt:           b.UpdatedAt,
	}
}

func fromBatchModel(m *batchModel) (*batch.Batch, error) {
	poolID, err := id.ParsePoolID(m.ID)
	if err != nil {
		return nil, err
	}

	buyer := id.Nil
	if m.Buyer != "" {
		buyer, err = id.ParseMemberID(m.Buyer)
		if err != nil {
			return nil, err
		}
	}

	return &batch.Batch{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:            poolID,
		Label:         m.Label,
		Currency:      m.Currency,
		PricePerUnit:  types.Money{Amount: m.PriceAmountCents, Currency: m.PriceCurrency},
		Buyer:         buyer,
		TotalReceived: types.Money{Amount: m.ReceivedAmountCents, Currency: m.ReceivedCurrency},
	}, nil
}

// ==================== Contribution models ====================

type contributionModel struct {
	grove.BaseModel `grove:"table:granary_contributions"`

	RowKey          string    `grove:"row_key,pk"`
	PoolID          string    `grove:"pool_id"`
	MemberID        string    `grove:"member_id"`
	DisplayName     string    `grove:"display_name"`
	ContactPhone    string    `grove:"contact_phone"`
	QuantityKg      int64     `grove:"quantity_kg"`
	Paid            bool      `grove:"paid"`
	PaidAmountCents int64     `grove:"paid_amount_cents"`
	PaidCurrency    string    `grove:"paid_currency"`
	Position        int       `grove:"position"`
	CreatedAt       time.Time `grove:"created_at"`
	UpdatedAt       time.Time `grove:"updated_at"`
}

// contributionRowKey builds the synthetic primary key: one row per member
// per pool.
func contributionRowKey(poolID id.PoolID, member id.MemberID) string {
	return poolID.String() + ":" + member.String()
}

func toContributionModel(poolID id.PoolID, c *contribution.Contribution) *contributionModel {
	return &contributionModel{
		RowKey:          contributionRowKey(poolID, c.Member),
		PoolID:          poolID.String(),
		MemberID:        c.Member.String(),
		DisplayName:     c.DisplayName,
		ContactPhone:    c.ContactPhone,
		QuantityKg:      c.QuantityKg,
		Paid:            c.Paid,
		PaidAmountCents: c.PaidAmount.Amount,
		PaidCurrency:    c.PaidAmount.Currency,
		Position:        c.Position,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
}

func fromContributionModel(m *contributionModel) (*contribution.Contribution, error) {
	member, err := id.ParseMemberID(m.MemberID)
	if err != nil {
		return nil, err
	}

	return &contribution.Contribution{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		Member:       member,
		DisplayName:  m.DisplayName,
		ContactPhone: m.ContactPhone,
		QuantityKg:   m.QuantityKg,
		Paid:         m.Paid,
		PaidAmount:   types.Money{Amount: m.PaidAmountCents, Currency: m.PaidCurrency},
		Position:     m.Position,
	}, nil
}

// ==================== Receipt models ====================

type receiptModel struct {
	grove.BaseModel `grove:"table:granary_receipts"`

	ID          string    `grove:"id,pk"`
	PoolID      string    `grove:"pool_id"`
	MemberID    string    `grove:"member_id"`
	AmountCents int64     `grove:"amount_cents"`
	Currency    string    `grove:"currency"`
	QuantityKg  int64     `grove:"quantity_kg"`
	CreatedAt   time.Time `grove:"created_at"`
	UpdatedAt   time.Time `grove:"updated_at"`
}

func toReceiptModel(r *payout.Receipt) *receiptModel {
	return &receiptModel{
		ID:          r.ID.String(),
		PoolID:      r.Pool.String(),
		MemberID:    r.Member.String(),
		AmountCents: r.Amount.Amount,
		Currency:    r.Amount.Currency,
		QuantityKg:  r.QuantityKg,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func fromReceiptModel(m *receiptModel) (*payout.Receipt, error) {
	receiptID, err := id.ParseReceiptID(m.ID)
	if err != nil {
		return nil, err
	}
	poolID, err := id.ParsePoolID(m.PoolID)
	if err != nil {
		return nil, err
	}
	member, err := id.ParseMemberID(m.MemberID)
	if err != nil {
		return nil, err
	}

	return &payout.Receipt{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:         receiptID,
		Pool:       poolID,
		Member:     member,
		Amount:     types.Money{Amount: m.AmountCents, Currency: m.Currency},
		QuantityKg: m.QuantityKg,
	}, nil
}
