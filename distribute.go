package granary

import (
	"context"
	"fmt"
	"time"

	"github.com/xraph/granary/contribution"
	"github.com/xraph/granary/id"
	"github.com/xraph/granary/payout"
	"github.com/xraph/granary/types"
)

// prevState captures the payout fields of an entry before the walk settles
// it, so a failed transfer can restore every touched entry.
type prevState struct {
	entry      *contribution.Contribution
	paid       bool
	paidAmount types.Money
	updatedAt  time.Time
}

// Distribute walks the ledger in order and pays every unpaid entry its
// proportional share of the escrowed payment: floor(total × quantity ÷
// aggregate). Entry state settles before its transfer fires, so code called
// from inside the payout rail observes the entry as already paid. One failed
// transfer aborts the walk, restores every entry the walk touched, and
// surfaces ErrTransferFailed; funds already moved stay moved.
//
// Floor division strands a remainder in escrow — always smaller than the
// number of active entries, in smallest currency units. The summary reports
// it as dust.
//
// Fails with ErrNoPaymentReceived before any payment is escrowed,
// ErrEmptyBatch when nothing has been contributed, and ErrNoTransferer when
// no payout rail is configured. A walk that finds every entry already paid
// succeeds with an empty summary.
func (g *Granary) Distribute(ctx context.Context) (*payout.Summary, error) {
	if !g.gate.TryLock() {
		return nil, ErrReentrancyRejected
	}
	defer g.gate.Unlock()

	g.mu.Lock()
	if g.batch.TotalReceived.IsZero() {
		g.mu.Unlock()
		return nil, ErrNoPaymentReceived
	}
	if g.ledger.AggregateKg() == 0 {
		g.mu.Unlock()
		return nil, ErrEmptyBatch
	}
	if g.transfer == nil {
		g.mu.Unlock()
		return nil, ErrNoTransferer
	}

	// The gate is held for the whole walk, so membership and totals cannot
	// change underneath it.
	total := g.batch.TotalReceived
	aggregate := g.ledger.AggregateKg()
	members := g.ledger.Members()
	g.mu.Unlock()

	var (
		touched  []prevState
		receipts []*payout.Receipt
	)

	for _, member := range members {
		g.mu.Lock()
		c, ok := g.ledger.Get(member)
		if !ok || !c.Payable() {
			g.mu.Unlock()
			continue
		}

		share, ok := total.ProRata(c.QuantityKg, aggregate)
		if !ok {
			g.mu.Unlock()
			g.rollback(touched)
			return nil, ErrArithmeticOverflow
		}

		// Settle the entry before the interaction.
		touched = append(touched, prevState{
			entry:      c,
			paid:       c.Paid,
			paidAmount: c.PaidAmount,
			updatedAt:  c.UpdatedAt,
		})
		c.Paid = true
		c.PaidAmount = share
		c.Touch()
		quantity := c.QuantityKg
		g.mu.Unlock()

		// The state lock is released here: the rail may call back into the
		// engine, and reads will observe this entry as paid.
		if err := g.transfer.Transfer(ctx, member, share); err != nil {
			g.rollback(touched)
			g.plugins.EmitTransferFailed(ctx, member, share, err)
			g.logger.Error("transfer failed, walk rolled back",
				"pool", g.poolID,
				"member", member,
				"amount", share,
				"error", err,
			)
			return nil, fmt.Errorf("granary: transfer to %s: %w: %w", member, ErrTransferFailed, err)
		}

		receipts = append(receipts, payout.NewReceipt(g.poolID, member, share, quantity))
		g.plugins.EmitPaymentDistributed(ctx, member, share)
	}

	// Every transfer succeeded; settle totals and persist.
	distributed := types.Zero(total.Currency)
	for _, r := range receipts {
		distributed = distributed.Add(r.Amount)
	}

	g.mu.Lock()
	var claimed int64
	for _, c := range g.ledger.All() {
		if c.Paid {
			claimed += c.PaidAmount.Amount
		}
	}
	dust := types.Money{Amount: g.batch.TotalReceived.Amount - claimed, Currency: total.Currency}

	rows := make([]*contribution.Contribution, 0, len(touched))
	for _, t := range touched {
		row := *t.entry
		rows = append(rows, &row)
	}
	g.mu.Unlock()

	// A walk that found nothing payable has nothing to persist.
	if len(rows) > 0 {
		if err := g.store.PutContributions(ctx, g.poolID, rows); err != nil {
			return nil, fmt.Errorf("granary: persist paid contributions: %w", err)
		}
	}
	if len(receipts) > 0 {
		if err := g.store.AppendReceipts(ctx, receipts); err != nil {
			return nil, fmt.Errorf("granary: persist receipts: %w", err)
		}
	}

	summary := &payout.Summary{
		MembersPaid: len(receipts),
		Distributed: distributed,
		Dust:        dust,
		Receipts:    receipts,
	}

	g.plugins.EmitDistributionCompleted(ctx, summary.MembersPaid, distributed, dust)
	g.logger.Info("distribution completed",
		"pool", g.poolID,
		"members_paid", summary.MembersPaid,
		"distributed", distributed,
		"dust", dust,
	)

	return summary, nil
}

// rollback restores the payout fields of every entry the walk touched, in
// reverse walk order.
func (g *Granary) rollback(touched []prevState) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for i := len(touched) - 1; i >= 0; i-- {
		t := touched[i]
		t.entry.Paid = t.paid
		t.entry.PaidAmount = t.paidAmount
		t.entry.UpdatedAt = t.updatedAt
	}
}

// PaymentDetails returns the payout view of one member: contribution fields
// plus payment state. A member with no active entry gets zero values; lookup
// never fails.
func (g *Granary) PaymentDetails(member id.MemberID) payout.Details {
	g.mu.RLock()
	defer g.mu.RUnlock()

	c, ok := g.ledger.Get(member)
	if !ok {
		return payout.Details{}
	}
	return payout.Details{
		DisplayName:  c.DisplayName,
		ContactPhone: c.ContactPhone,
		QuantityKg:   c.QuantityKg,
		Paid:         c.Paid,
		PaidAmount:   c.PaidAmount,
	}
}

// Receipts lists the payout receipts recorded for this pool.
func (g *Granary) Receipts(ctx context.Context, opts payout.ListOpts) ([]*payout.Receipt, error) {
	return g.store.ListReceipts(ctx, g.poolID, opts)
}
