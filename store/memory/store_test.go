package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/xraph/granary"
	"github.com/xraph/granary/batch"
	"github.com/xraph/granary/contribution"
	"github.com/xraph/granary/id"
	"github.com/xraph/granary/payout"
	"github.com/xraph/granary/types"
)

func TestBatchRoundTrip(t *testing.T) {
	s := New()
	ctx := context.Background()
	poolID := id.NewPoolID()

	if _, err := s.GetBatch(ctx, poolID); !errors.Is(err, granary.ErrBatchNotFound) {
		t.Fatalf("GetBatch on empty store: got %v, want ErrBatchNotFound", err)
	}

	b := batch.New(poolID, "usd")
	b.Label = "maize, august"
	b.PricePerUnit = types.USD(200)
	if err := s.PutBatch(ctx, b); err != nil {
		t.Fatalf("PutBatch failed: %v", err)
	}

	got, err := s.GetBatch(ctx, poolID)
	if err != nil {
		t.Fatalf("GetBatch failed: %v", err)
	}
	if got.Label != "maize, august" || !got.PricePerUnit.Equal(types.USD(200)) {
		t.Errorf("round-trip mismatch: %+v", got)
	}

	// Stored row is a copy: mutating the original must not leak in.
	b.Label = "changed"
	got, _ = s.GetBatch(ctx, poolID)
	if got.Label != "maize, august" {
		t.Error("store aliased the caller's batch")
	}
}

func TestContributionsPositionOrder(t *testing.T) {
	s := New()
	ctx := context.Background()
	poolID := id.NewPoolID()

	// Insert out of position order; List must sort by Position.
	c2 := contribution.New(id.NewMemberID(), "", "", 7)
	c2.Position = 2
	c0 := contribution.New(id.NewMemberID(), "", "", 3)
	c0.Position = 0
	c1 := contribution.New(id.NewMemberID(), "", "", 5)
	c1.Position = 1

	if err := s.PutContributions(ctx, poolID, []*contribution.Contribution{c2, c0, c1}); err != nil {
		t.Fatalf("PutContributions failed: %v", err)
	}

	got, err := s.ListContributions(ctx, poolID)
	if err != nil {
		t.Fatalf("ListContributions failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("length: got %d, want 3", len(got))
	}
	for i, c := range got {
		if c.Position != i {
			t.Errorf("slot %d holds position %d", i, c.Position)
		}
	}
}

func TestPutContributionUpserts(t *testing.T) {
	s := New()
	ctx := context.Background()
	poolID := id.NewPoolID()

	c := contribution.New(id.NewMemberID(), "", "", 4)
	if err := s.PutContribution(ctx, poolID, c); err != nil {
		t.Fatalf("PutContribution failed: %v", err)
	}

	c.Paid = true
	c.PaidAmount = types.USD(800)
	if err := s.PutContribution(ctx, poolID, c); err != nil {
		t.Fatalf("second PutContribution failed: %v", err)
	}

	got, _ := s.ListContributions(ctx, poolID)
	if len(got) != 1 {
		t.Fatalf("length: got %d, want 1", len(got))
	}
	if !got[0].Paid || !got[0].PaidAmount.Equal(types.USD(800)) {
		t.Errorf("upsert did not overwrite: %+v", got[0])
	}
}

func TestDeleteContribution(t *testing.T) {
	s := New()
	ctx := context.Background()
	poolID := id.NewPoolID()
	c := contribution.New(id.NewMemberID(), "", "", 4)

	if err := s.DeleteContribution(ctx, poolID, c.Member); !errors.Is(err, granary.ErrContributionNotFound) {
		t.Fatalf("delete on empty store: got %v, want ErrContributionNotFound", err)
	}

	_ = s.PutContribution(ctx, poolID, c)
	if err := s.DeleteContribution(ctx, poolID, c.Member); err != nil {
		t.Fatalf("DeleteContribution failed: %v", err)
	}

	got, _ := s.ListContributions(ctx, poolID)
	if len(got) != 0 {
		t.Errorf("contribution still present after delete")
	}
}

func TestReceiptsFilterAndPage(t *testing.T) {
	s := New()
	ctx := context.Background()
	poolID := id.NewPoolID()
	other := id.NewPoolID()
	alice := id.NewMemberID()
	bob := id.NewMemberID()

	_ = s.AppendReceipts(ctx, []*payout.Receipt{
		payout.NewReceipt(poolID, alice, types.USD(600), 3),
		payout.NewReceipt(poolID, bob, types.USD(1400), 7),
		payout.NewReceipt(other, alice, types.USD(99), 1),
	})

	all, err := s.ListReceipts(ctx, poolID, payout.ListOpts{})
	if err != nil {
		t.Fatalf("ListReceipts failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("pool filter: got %d receipts, want 2", len(all))
	}

	aliceOnly, _ := s.ListReceipts(ctx, poolID, payout.ListOpts{Member: alice})
	if len(aliceOnly) != 1 || !aliceOnly[0].Amount.Equal(types.USD(600)) {
		t.Errorf("member filter: got %v", aliceOnly)
	}

	paged, _ := s.ListReceipts(ctx, poolID, payout.ListOpts{Limit: 1, Offset: 1})
	if len(paged) != 1 || paged[0].Member.String() != bob.String() {
		t.Errorf("paging: got %v", paged)
	}
}

func TestLifecycle(t *testing.T) {
	s := New()
	ctx := context.Background()

	if err := s.Migrate(ctx); err != nil {
		t.Errorf("Migrate: %v", err)
	}
	if err := s.Ping(ctx); err != nil {
		t.Errorf("Ping: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}
