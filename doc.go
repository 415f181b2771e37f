// Package granary pools weighed produce from member farmers into a single
// batch, sells the batch to one buyer at a per-kilogram price, and splits the
// buyer's lump-sum payment back across members in proportion to the weight
// each contributed.
//
// Granary is a library, not a service: import it into your Go application
// and drive it directly. One Granary instance manages one pool. It provides:
//
//   - An ordered contribution ledger with O(1) add, lookup, and removal
//   - Per-kilogram pricing with overflow-checked batch totals
//   - Single-slot escrow: one buyer, one lump-sum payment, overwritten on re-sale
//   - Proportional floor-division payouts through a pluggable transfer rail
//   - Full rollback of the payout walk when a transfer fails
//   - Storage backends for memory, SQLite, PostgreSQL, and MongoDB
//   - Lifecycle plugins for audit trails and metrics
//
// # Quick Start
//
//	import (
//		"github.com/xraph/granary"
//		"github.com/xraph/granary/store/memory"
//	)
//
//	g := granary.New(memory.New(),
//		granary.WithLabel("2026 long rains maize"),
//		granary.WithTransferer(rail), // your mobile-money or bank rail
//	)
//
//	if err := g.Start(ctx); err != nil {
//		log.Fatal(err)
//	}
//	defer g.Stop()
//
//	// Weigh produce in.
//	g.AddContribution(ctx, wanjiku, "Wanjiku", "+254700000001", 120)
//	g.AddContribution(ctx, baraka, "Baraka", "+254700000002", 80)
//
//	// Price the batch and take the buyer's payment into escrow.
//	g.SetPricePerUnit(ctx, granary.KES(5000)) // KSh50.00 per kg
//	total, _ := g.TotalPrice()
//	g.ReceivePayment(ctx, buyer, total)
//
//	// Pay every member their share.
//	summary, err := g.Distribute(ctx)
//
// # Core Concepts
//
// Contributions: each member holds at most one active entry in the ledger,
// recording display name, contact phone, and quantity in kilograms. Removing
// a member swaps the last entry into the freed slot, so ledger order is
// arrival order except where a removal has compacted it.
//
// Escrow: the batch holds one buyer and one received amount. A second
// payment replaces the first; amounts never accumulate. Payment is accepted
// only when it covers the full batch price.
//
// Distribution: each unpaid entry receives floor(total × quantity ÷
// aggregate). Entry state settles before its transfer fires, and a failed
// transfer restores every entry the walk touched. Floor division strands a
// remainder in escrow — the dust — always smaller than the number of active
// entries in smallest currency units.
//
// # Arithmetic
//
// All money is integer minor units (cents, kobo) in a single currency per
// pool. Every addition and multiplication on the hot path is overflow-checked
// and fails with ErrArithmeticOverflow rather than wrapping. No floats
// anywhere.
//
// # Integration
//
// The extension package adapts a Granary instance to Forge applications:
// config-driven store selection, dependency injection, and health checks.
// The audit and observability packages ship plugins that record every
// lifecycle event; implement plugin.Plugin to add your own.
//
// # TypeID
//
// All identifiers are TypeIDs — type-prefixed, K-sortable UUIDv7 strings:
//
//	pool_01h4xs2qd8f9abcdef123456    pool
//	mbr_01h4xs3re9g0bcdefg234567    member
//	rcpt_01h4xs4sf0h1cdefgh345678    receipt
//
// K-sortability means receipt IDs sort by creation order, which keeps payout
// history stable even when timestamps collide within one distribution walk.
package granary
