package store

import (
	"context"

	"github.com/xraph/granary/batch"
	"github.com/xraph/granary/contribution"
	"github.com/xraph/granary/id"
	"github.com/xraph/granary/payout"
)

// Store is the unified storage interface for all Granary entities.
// The engine owns the live state in memory and writes through to the store;
// List methods exist to rehydrate that state on startup and to serve receipt
// history.
type Store interface {
	// Batch methods
	PutBatch(ctx context.Context, b *batch.Batch) error
	GetBatch(ctx context.Context, poolID id.PoolID) (*batch.Batch, error)

	// Contribution methods
	PutContribution(ctx context.Context, poolID id.PoolID, c *contribution.Contribution) error
	PutContributions(ctx context.Context, poolID id.PoolID, cs []*contribution.Contribution) error
	DeleteContribution(ctx context.Context, poolID id.PoolID, member id.MemberID) error
	ListContributions(ctx context.Context, poolID id.PoolID) ([]*contribution.Contribution, error)

	// Receipt methods
	AppendReceipts(ctx context.Context, receipts []*payout.Receipt) error
	ListReceipts(ctx context.Context, poolID id.PoolID, opts payout.ListOpts) ([]*payout.Receipt, error)

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
