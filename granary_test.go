package granary_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/xraph/granary"
	"github.com/xraph/granary/id"
	"github.com/xraph/granary/store/memory"
	"github.com/xraph/granary/types"
)

// recordingRail is a payout.Transferer that captures every transfer, fails
// for chosen members, and can call back into the engine mid-transfer.
type recordingRail struct {
	transfers []railTransfer
	failFor   map[string]error
	callback  func(ctx context.Context, member id.MemberID, amount types.Money) error
}

type railTransfer struct {
	member id.MemberID
	amount types.Money
}

func (r *recordingRail) Transfer(ctx context.Context, member id.MemberID, amount types.Money) error {
	if err := r.failFor[member.String()]; err != nil {
		return err
	}
	if r.callback != nil {
		if err := r.callback(ctx, member, amount); err != nil {
			return err
		}
	}
	r.transfers = append(r.transfers, railTransfer{member, amount})
	return nil
}

func newGranary(t *testing.T, opts ...granary.Option) *granary.Granary {
	t.Helper()
	g := granary.New(memory.New(), opts...)
	if err := g.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { _ = g.Stop() })
	return g
}

// contribute records a fresh member with the given quantity or fails the test.
func contribute(t *testing.T, g *granary.Granary, qty int64) id.MemberID {
	t.Helper()
	member := id.NewMemberID()
	if err := g.AddContribution(context.Background(), member, "", "", qty); err != nil {
		t.Fatalf("AddContribution(%d): %v", qty, err)
	}
	return member
}

func TestAddContribution(t *testing.T) {
	g := newGranary(t)
	member := id.NewMemberID()

	if err := g.AddContribution(context.Background(), member, "Wanjiku", "+254700000001", 120); err != nil {
		t.Fatalf("AddContribution: %v", err)
	}

	if g.Count() != 1 {
		t.Errorf("Count: got %d, want 1", g.Count())
	}
	if g.AggregateKg() != 120 {
		t.Errorf("AggregateKg: got %d, want 120", g.AggregateKg())
	}

	c := g.GetContribution(member)
	if c.DisplayName != "Wanjiku" || c.ContactPhone != "+254700000001" || c.QuantityKg != 120 {
		t.Errorf("entry fields: got %+v", c)
	}
	if c.Paid || !c.PaidAmount.IsZero() {
		t.Errorf("new entry already paid: %+v", c)
	}
	if c.Position != 0 {
		t.Errorf("Position: got %d, want 0", c.Position)
	}
}

func TestAddContributionInvalidQuantity(t *testing.T) {
	tests := []struct {
		name string
		qty  int64
	}{
		{"Zero", 0},
		{"Negative", -5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newGranary(t)
			contribute(t, g, 10)

			err := g.AddContribution(context.Background(), id.NewMemberID(), "", "", tt.qty)
			if !errors.Is(err, granary.ErrInvalidQuantity) {
				t.Fatalf("error: got %v, want ErrInvalidQuantity", err)
			}
			if g.Count() != 1 || g.AggregateKg() != 10 {
				t.Errorf("state changed: count=%d aggregate=%d", g.Count(), g.AggregateKg())
			}
		})
	}
}

func TestAddContributionNilMember(t *testing.T) {
	g := newGranary(t)

	err := g.AddContribution(context.Background(), id.Nil, "", "", 5)
	if !granary.IsValidation(err) {
		t.Fatalf("error: got %v, want a validation error", err)
	}
}

func TestAddContributionDuplicate(t *testing.T) {
	g := newGranary(t)
	member := id.NewMemberID()

	if err := g.AddContribution(context.Background(), member, "first", "", 3); err != nil {
		t.Fatalf("first add: %v", err)
	}
	err := g.AddContribution(context.Background(), member, "second", "", 9)
	if !errors.Is(err, granary.ErrDuplicateParticipant) {
		t.Fatalf("error: got %v, want ErrDuplicateParticipant", err)
	}

	// State equals the state after the first call only.
	if g.AggregateKg() != 3 {
		t.Errorf("AggregateKg: got %d, want 3", g.AggregateKg())
	}
	if c := g.GetContribution(member); c.DisplayName != "first" {
		t.Errorf("entry overwritten: got %q", c.DisplayName)
	}
}

func TestAddContributionAggregateOverflow(t *testing.T) {
	g := newGranary(t)
	contribute(t, g, math.MaxInt64)

	err := g.AddContribution(context.Background(), id.NewMemberID(), "", "", 1)
	if !errors.Is(err, granary.ErrArithmeticOverflow) {
		t.Fatalf("error: got %v, want ErrArithmeticOverflow", err)
	}
	if g.Count() != 1 {
		t.Errorf("Count: got %d, want 1", g.Count())
	}
}

func TestAddContributionCheckOrder(t *testing.T) {
	g := newGranary(t)
	member := id.NewMemberID()
	if err := g.AddContribution(context.Background(), member, "", "", math.MaxInt64); err != nil {
		t.Fatalf("add: %v", err)
	}

	// Quantity is checked before duplication, duplication before overflow.
	if err := g.AddContribution(context.Background(), member, "", "", 0); !errors.Is(err, granary.ErrInvalidQuantity) {
		t.Errorf("duplicate with invalid quantity: got %v, want ErrInvalidQuantity", err)
	}
	if err := g.AddContribution(context.Background(), member, "", "", 1); !errors.Is(err, granary.ErrDuplicateParticipant) {
		t.Errorf("duplicate with overflowing quantity: got %v, want ErrDuplicateParticipant", err)
	}
}

func TestRemoveContribution(t *testing.T) {
	g := newGranary(t)
	a := contribute(t, g, 1)
	b := contribute(t, g, 2)
	c := contribute(t, g, 3)
	d := contribute(t, g, 4)

	if err := g.RemoveContribution(context.Background(), b); err != nil {
		t.Fatalf("RemoveContribution: %v", err)
	}

	// The former tail takes the freed slot: a, d, c.
	want := []id.MemberID{a, d, c}
	got := g.Members()
	if len(got) != len(want) {
		t.Fatalf("Members length: got %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].String() != want[i].String() {
			t.Errorf("order[%d]: got %s, want %s", i, got[i], want[i])
		}
	}
	if g.AggregateKg() != 8 {
		t.Errorf("AggregateKg: got %d, want 8", g.AggregateKg())
	}
}

func TestRemoveContributionAbsent(t *testing.T) {
	g := newGranary(t)
	contribute(t, g, 5)

	if err := g.RemoveContribution(context.Background(), id.NewMemberID()); err != nil {
		t.Fatalf("removing an absent member must be a no-op, got %v", err)
	}
	if g.Count() != 1 || g.AggregateKg() != 5 {
		t.Errorf("state changed: count=%d aggregate=%d", g.Count(), g.AggregateKg())
	}
}

func TestContributionAt(t *testing.T) {
	g := newGranary(t)
	a := contribute(t, g, 3)

	got, err := g.ContributionAt(0)
	if err != nil {
		t.Fatalf("ContributionAt(0): %v", err)
	}
	if got.Member.String() != a.String() {
		t.Errorf("member: got %s, want %s", got.Member, a)
	}

	for _, i := range []int{-1, 1, 99} {
		if _, err := g.ContributionAt(i); !errors.Is(err, granary.ErrIndexOutOfRange) {
			t.Errorf("ContributionAt(%d): got %v, want ErrIndexOutOfRange", i, err)
		}
	}
}

func TestSetPricePerUnit(t *testing.T) {
	g := newGranary(t)
	contribute(t, g, 10)

	if err := g.SetPricePerUnit(context.Background(), types.KES(5000)); err != nil {
		t.Fatalf("SetPricePerUnit: %v", err)
	}
	if got := g.PricePerUnit(); got.Amount != 5000 {
		t.Errorf("PricePerUnit: got %s, want KSh50.00", got)
	}

	tests := []struct {
		name  string
		price types.Money
		want  error
	}{
		{"Zero", types.KES(0), granary.ErrInvalidPrice},
		{"Negative", types.KES(-100), granary.ErrInvalidPrice},
		{"Wrong currency", types.USD(100), granary.ErrCurrencyMismatch},
		{"Invalid beats mismatch", types.USD(0), granary.ErrInvalidPrice},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := g.SetPricePerUnit(context.Background(), tt.price); !errors.Is(err, tt.want) {
				t.Fatalf("error: got %v, want %v", err, tt.want)
			}
			// A rejected update leaves the prior price in place.
			if got := g.PricePerUnit(); got.Amount != 5000 {
				t.Errorf("price changed: got %s", got)
			}
		})
	}
}

func TestTotalPrice(t *testing.T) {
	g := newGranary(t)
	contribute(t, g, 3)
	contribute(t, g, 7)

	if err := g.SetPricePerUnit(context.Background(), types.KES(2)); err != nil {
		t.Fatalf("SetPricePerUnit: %v", err)
	}

	total, err := g.TotalPrice()
	if err != nil {
		t.Fatalf("TotalPrice: %v", err)
	}
	if total.Amount != 20 || total.Currency != "kes" {
		t.Errorf("TotalPrice: got %s, want 20 kes minor units", total)
	}
}

func TestTotalPriceOverflow(t *testing.T) {
	g := newGranary(t)
	contribute(t, g, 3)
	if err := g.SetPricePerUnit(context.Background(), types.KES(math.MaxInt64)); err != nil {
		t.Fatalf("SetPricePerUnit: %v", err)
	}

	if _, err := g.TotalPrice(); !errors.Is(err, granary.ErrArithmeticOverflow) {
		t.Fatalf("error: got %v, want ErrArithmeticOverflow", err)
	}
}

func TestReceivePayment(t *testing.T) {
	g := newGranary(t)
	contribute(t, g, 3)
	contribute(t, g, 7)
	if err := g.SetPricePerUnit(context.Background(), types.KES(2)); err != nil {
		t.Fatalf("SetPricePerUnit: %v", err)
	}

	buyer := id.NewMemberID()
	if err := g.ReceivePayment(context.Background(), buyer, types.KES(19)); !errors.Is(err, granary.ErrInsufficientPayment) {
		t.Fatalf("short payment: got %v, want ErrInsufficientPayment", err)
	}
	if !g.TotalReceived().IsZero() || !g.Buyer().IsNil() {
		t.Error("rejected payment mutated escrow")
	}

	if err := g.ReceivePayment(context.Background(), buyer, types.KES(20)); err != nil {
		t.Fatalf("exact payment: %v", err)
	}
	if got := g.TotalReceived(); got.Amount != 20 {
		t.Errorf("TotalReceived: got %s, want 20", got)
	}
	if g.Buyer().String() != buyer.String() {
		t.Errorf("Buyer: got %s, want %s", g.Buyer(), buyer)
	}
}

func TestReceivePaymentEmptyBatch(t *testing.T) {
	g := newGranary(t)

	// An empty pool is reported before the currency is examined.
	err := g.ReceivePayment(context.Background(), id.NewMemberID(), types.USD(100))
	if !errors.Is(err, granary.ErrEmptyBatch) {
		t.Fatalf("error: got %v, want ErrEmptyBatch", err)
	}
}

func TestReceivePaymentCurrencyMismatch(t *testing.T) {
	g := newGranary(t)
	contribute(t, g, 5)

	err := g.ReceivePayment(context.Background(), id.NewMemberID(), types.USD(100))
	if !errors.Is(err, granary.ErrCurrencyMismatch) {
		t.Fatalf("error: got %v, want ErrCurrencyMismatch", err)
	}
	if !g.TotalReceived().IsZero() {
		t.Error("rejected payment mutated escrow")
	}
}

func TestReceivePaymentNilBuyer(t *testing.T) {
	g := newGranary(t)
	contribute(t, g, 5)

	err := g.ReceivePayment(context.Background(), id.Nil, types.KES(100))
	if !granary.IsValidation(err) {
		t.Fatalf("error: got %v, want a validation error", err)
	}
}

func TestReceivePaymentOverwrites(t *testing.T) {
	g := newGranary(t)
	contribute(t, g, 5)

	first := id.NewMemberID()
	second := id.NewMemberID()
	if err := g.ReceivePayment(context.Background(), first, types.KES(100)); err != nil {
		t.Fatalf("first payment: %v", err)
	}
	if err := g.ReceivePayment(context.Background(), second, types.KES(150)); err != nil {
		t.Fatalf("second payment: %v", err)
	}

	// The escrow slot is overwritten, never accumulated.
	if got := g.TotalReceived(); got.Amount != 150 {
		t.Errorf("TotalReceived: got %s, want 150", got)
	}
	if g.Buyer().String() != second.String() {
		t.Errorf("Buyer: got %s, want %s", g.Buyer(), second)
	}
}

func TestWithCurrency(t *testing.T) {
	g := newGranary(t, granary.WithCurrency("USD"))

	if got := g.Currency(); got != "usd" {
		t.Errorf("Currency: got %q, want %q", got, "usd")
	}
	contribute(t, g, 5)
	if err := g.SetPricePerUnit(context.Background(), types.KES(100)); !errors.Is(err, granary.ErrCurrencyMismatch) {
		t.Errorf("KES price on a usd pool: got %v, want ErrCurrencyMismatch", err)
	}
	if err := g.SetPricePerUnit(context.Background(), types.USD(100)); err != nil {
		t.Errorf("USD price on a usd pool: %v", err)
	}
}

func TestLabel(t *testing.T) {
	g := newGranary(t, granary.WithLabel("2026 long rains maize"))

	if got := g.Label(); got != "2026 long rains maize" {
		t.Errorf("Label: got %q", got)
	}
	if err := g.SetLabel(context.Background(), "2026 short rains beans"); err != nil {
		t.Fatalf("SetLabel: %v", err)
	}
	if got := g.Label(); got != "2026 short rains beans" {
		t.Errorf("Label after set: got %q", got)
	}
}

func TestRehydrate(t *testing.T) {
	store := memory.New()
	poolID := id.NewPoolID()
	ctx := context.Background()

	g1 := granary.New(store, granary.WithPoolID(poolID), granary.WithLabel("first season"))
	if err := g1.Start(ctx); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	t.Cleanup(func() { _ = g1.Stop() })

	a := id.NewMemberID()
	b := id.NewMemberID()
	c := id.NewMemberID()
	for i, m := range []id.MemberID{a, b, c} {
		if err := g1.AddContribution(ctx, m, "", "", int64(i+1)); err != nil {
			t.Fatalf("AddContribution: %v", err)
		}
	}
	// Removal compacts the order to a, c before the restart.
	if err := g1.RemoveContribution(ctx, b); err != nil {
		t.Fatalf("RemoveContribution: %v", err)
	}
	if err := g1.SetPricePerUnit(ctx, types.KES(7)); err != nil {
		t.Fatalf("SetPricePerUnit: %v", err)
	}
	buyer := id.NewMemberID()
	if err := g1.ReceivePayment(ctx, buyer, types.KES(28)); err != nil {
		t.Fatalf("ReceivePayment: %v", err)
	}

	g2 := granary.New(store, granary.WithPoolID(poolID))
	if err := g2.Start(ctx); err != nil {
		t.Fatalf("second Start: %v", err)
	}
	t.Cleanup(func() { _ = g2.Stop() })

	if g2.Count() != 2 || g2.AggregateKg() != 4 {
		t.Errorf("reloaded state: count=%d aggregate=%d", g2.Count(), g2.AggregateKg())
	}
	got := g2.Members()
	want := []id.MemberID{a, c}
	if len(got) != len(want) {
		t.Fatalf("Members length: got %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].String() != want[i].String() {
			t.Errorf("walk order[%d]: got %s, want %s", i, got[i], want[i])
		}
	}
	if g2.PricePerUnit().Amount != 7 {
		t.Errorf("PricePerUnit: got %s", g2.PricePerUnit())
	}
	if g2.Buyer().String() != buyer.String() {
		t.Errorf("Buyer: got %s, want %s", g2.Buyer(), buyer)
	}
	if g2.TotalReceived().Amount != 28 {
		t.Errorf("TotalReceived: got %s", g2.TotalReceived())
	}
	if g2.Label() != "first season" {
		t.Errorf("Label: got %q", g2.Label())
	}
}

// eventLog records which lifecycle hooks fired, in order.
type eventLog struct {
	events []string
}

func (p *eventLog) Name() string { return "event-log" }

func (p *eventLog) OnContributionRecorded(_ context.Context, _ id.MemberID, _ int64) error {
	p.events = append(p.events, "contribution.recorded")
	return nil
}

func (p *eventLog) OnContributionRemoved(_ context.Context, _ id.MemberID, _ int64) error {
	p.events = append(p.events, "contribution.removed")
	return nil
}

func (p *eventLog) OnBatchSold(_ context.Context, _ id.MemberID, _ types.Money) error {
	p.events = append(p.events, "batch.sold")
	return nil
}

func (p *eventLog) OnDistributionCompleted(_ context.Context, _ int, _, _ types.Money) error {
	p.events = append(p.events, "distribution.completed")
	return nil
}

func TestPluginEvents(t *testing.T) {
	log := &eventLog{}
	rail := &recordingRail{}
	g := newGranary(t, granary.WithPlugin(log), granary.WithTransferer(rail))
	ctx := context.Background()

	member := contribute(t, g, 5)
	if err := g.ReceivePayment(ctx, id.NewMemberID(), types.KES(10)); err != nil {
		t.Fatalf("ReceivePayment: %v", err)
	}
	if _, err := g.Distribute(ctx); err != nil {
		t.Fatalf("Distribute: %v", err)
	}
	if err := g.RemoveContribution(ctx, member); err != nil {
		t.Fatalf("RemoveContribution: %v", err)
	}
	// Removing an absent member fires nothing.
	if err := g.RemoveContribution(ctx, member); err != nil {
		t.Fatalf("second RemoveContribution: %v", err)
	}

	want := []string{"contribution.recorded", "batch.sold", "distribution.completed", "contribution.removed"}
	if len(log.events) != len(want) {
		t.Fatalf("events: got %v, want %v", log.events, want)
	}
	for i := range want {
		if log.events[i] != want[i] {
			t.Errorf("event[%d]: got %q, want %q", i, log.events[i], want[i])
		}
	}
}
