// Package plugin provides an extensible plugin system for Granary.
// Plugins can hook into various lifecycle events to extend functionality.
package plugin

import (
	"context"

	"github.com/xraph/granary/id"
	"github.com/xraph/granary/types"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the engine starts.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, g interface{}) error
}

// OnShutdown is called when the engine is shutting down.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Ledger hooks
// ──────────────────────────────────────────────────

// OnContributionRecorded is called after a contribution enters the ledger.
type OnContributionRecorded interface {
	Plugin
	OnContributionRecorded(ctx context.Context, member id.MemberID, quantityKg int64) error
}

// OnContributionRemoved is called after a contribution leaves the ledger.
// It does not fire when removal targets an absent member.
type OnContributionRemoved interface {
	Plugin
	OnContributionRemoved(ctx context.Context, member id.MemberID, quantityKg int64) error
}

// ──────────────────────────────────────────────────
// Pricing and escrow hooks
// ──────────────────────────────────────────────────

// OnPriceUpdated is called after the unit price changes.
type OnPriceUpdated interface {
	Plugin
	OnPriceUpdated(ctx context.Context, oldPrice, newPrice types.Money) error
}

// OnBatchSold is called after a payment is accepted into escrow.
type OnBatchSold interface {
	Plugin
	OnBatchSold(ctx context.Context, buyer id.MemberID, amount types.Money) error
}

// ──────────────────────────────────────────────────
// Distribution hooks
// ──────────────────────────────────────────────────

// OnPaymentDistributed is called after each successful transfer during a
// distribution walk.
type OnPaymentDistributed interface {
	Plugin
	OnPaymentDistributed(ctx context.Context, member id.MemberID, amount types.Money) error
}

// OnTransferFailed is called when a transfer reports failure, aborting the
// distribution walk.
type OnTransferFailed interface {
	Plugin
	OnTransferFailed(ctx context.Context, member id.MemberID, amount types.Money, cause error) error
}

// OnDistributionCompleted is called after a distribution walk commits.
type OnDistributionCompleted interface {
	Plugin
	OnDistributionCompleted(ctx context.Context, membersPaid int, distributed, dust types.Money) error
}
