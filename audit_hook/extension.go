// Package audithook bridges Granary lifecycle events to an audit trail backend.
//
// It defines a local Recorder interface so the package does not import
// Chronicle directly. Callers inject a RecorderFunc adapter that bridges
// to Chronicle at wiring time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xraph/granary/id"
	"github.com/xraph/granary/plugin"
	"github.com/xraph/granary/types"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin                  = (*Extension)(nil)
	_ plugin.OnContributionRecorded  = (*Extension)(nil)
	_ plugin.OnContributionRemoved   = (*Extension)(nil)
	_ plugin.OnPriceUpdated          = (*Extension)(nil)
	_ plugin.OnBatchSold             = (*Extension)(nil)
	_ plugin.OnPaymentDistributed    = (*Extension)(nil)
	_ plugin.OnTransferFailed        = (*Extension)(nil)
	_ plugin.OnDistributionCompleted = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
// This matches chronicle.Emitter but is defined locally so that the
// audit_hook package does not import Chronicle directly — callers inject
// the concrete *chronicle.Chronicle at wiring time.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
// It mirrors chronicle/audit.Event but avoids a module dependency.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges Granary lifecycle events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Ledger hooks
// ──────────────────────────────────────────────────

// OnContributionRecorded implements plugin.OnContributionRecorded.
func (e *Extension) OnContributionRecorded(ctx context.Context, member id.MemberID, quantityKg int64) error {
	return e.record(ctx, ActionContributionRecorded, SeverityInfo, OutcomeSuccess,
		ResourceContribution, member.String(), CategoryLedger, nil,
		"member_id", member.String(),
		"quantity_kg", quantityKg,
	)
}

// OnContributionRemoved implements plugin.OnContributionRemoved.
func (e *Extension) OnContributionRemoved(ctx context.Context, member id.MemberID, quantityKg int64) error {
	return e.record(ctx, ActionContributionRemoved, SeverityInfo, OutcomeSuccess,
		ResourceContribution, member.String(), CategoryLedger, nil,
		"member_id", member.String(),
		"quantity_kg", quantityKg,
	)
}

// ──────────────────────────────────────────────────
// Pricing and escrow hooks
// ──────────────────────────────────────────────────

// OnPriceUpdated implements plugin.OnPriceUpdated.
func (e *Extension) OnPriceUpdated(ctx context.Context, oldPrice, newPrice types.Money) error {
	return e.record(ctx, ActionPriceUpdated, SeverityInfo, OutcomeSuccess,
		ResourceBatch, "", CategoryEscrow, nil,
		"old_price", oldPrice.String(),
		"new_price", newPrice.String(),
	)
}

// OnBatchSold implements plugin.OnBatchSold.
func (e *Extension) OnBatchSold(ctx context.Context, buyer id.MemberID, amount types.Money) error {
	return e.record(ctx, ActionBatchSold, SeverityInfo, OutcomeSuccess,
		ResourceBatch, buyer.String(), CategoryEscrow, nil,
		"buyer_id", buyer.String(),
		"amount", amount.String(),
	)
}

// ──────────────────────────────────────────────────
// Payout hooks
// ──────────────────────────────────────────────────

// OnPaymentDistributed implements plugin.OnPaymentDistributed.
func (e *Extension) OnPaymentDistributed(ctx context.Context, member id.MemberID, amount types.Money) error {
	return e.record(ctx, ActionPayoutSent, SeverityInfo, OutcomeSuccess,
		ResourcePayout, member.String(), CategoryPayout, nil,
		"member_id", member.String(),
		"amount", amount.String(),
	)
}

// OnTransferFailed implements plugin.OnTransferFailed.
func (e *Extension) OnTransferFailed(ctx context.Context, member id.MemberID, amount types.Money, cause error) error {
	return e.record(ctx, ActionPayoutFailed, SeverityCritical, OutcomeFailure,
		ResourcePayout, member.String(), CategoryPayout, cause,
		"member_id", member.String(),
		"amount", amount.String(),
	)
}

// OnDistributionCompleted implements plugin.OnDistributionCompleted.
func (e *Extension) OnDistributionCompleted(ctx context.Context, membersPaid int, distributed, dust types.Money) error {
	return e.record(ctx, ActionDistributionCompleted, SeverityInfo, OutcomeSuccess,
		ResourcePayout, "", CategoryPayout, nil,
		"members_paid", membersPaid,
		"distributed", distributed.String(),
		"dust", dust.String(),
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
