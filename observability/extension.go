// Package observability provides a metrics extension for Granary that records
// lifecycle event counts via a pluggable MetricFactory.
package observability

import (
	"context"

	"github.com/xraph/granary/id"
	"github.com/xraph/granary/plugin"
	"github.com/xraph/granary/types"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin                  = (*MetricsExtension)(nil)
	_ plugin.OnInit                  = (*MetricsExtension)(nil)
	_ plugin.OnContributionRecorded  = (*MetricsExtension)(nil)
	_ plugin.OnContributionRemoved   = (*MetricsExtension)(nil)
	_ plugin.OnPriceUpdated          = (*MetricsExtension)(nil)
	_ plugin.OnBatchSold             = (*MetricsExtension)(nil)
	_ plugin.OnPaymentDistributed    = (*MetricsExtension)(nil)
	_ plugin.OnTransferFailed        = (*MetricsExtension)(nil)
	_ plugin.OnDistributionCompleted = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records pool lifecycle metrics.
// Register it as a Granary plugin to automatically track pool activity.
type MetricsExtension struct {
	factory MetricFactory

	// Ledger metrics
	ContributionsRecorded Counter
	ContributionsRemoved  Counter
	ContributionWeight    Histogram

	// Pricing and escrow metrics
	PriceUpdates  Counter
	BatchesSold   Counter
	PaymentAmount Histogram

	// Payout metrics
	PayoutsSent            Counter
	PayoutsFailed          Counter
	PayoutAmount           Histogram
	DistributionsCompleted Counter
	DistributionMembers    Histogram
	DistributionDust       Histogram

	// Error metrics
	StoreErrors  Counter
	PluginErrors Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
// Use app.Metrics() in forge extensions, or NewPrometheusFactory for a
// standalone Prometheus registry.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		// Ledger metrics
		ContributionsRecorded: factory.Counter("granary.contribution.recorded"),
		ContributionsRemoved:  factory.Counter("granary.contribution.removed"),
		ContributionWeight:    factory.Histogram("granary.contribution.weight_kg"),

		// Pricing and escrow metrics
		PriceUpdates:  factory.Counter("granary.price.updated"),
		BatchesSold:   factory.Counter("granary.batch.sold"),
		PaymentAmount: factory.Histogram("granary.batch.payment_amount"),

		// Payout metrics
		PayoutsSent:            factory.Counter("granary.payout.sent"),
		PayoutsFailed:          factory.Counter("granary.payout.failed"),
		PayoutAmount:           factory.Histogram("granary.payout.amount"),
		DistributionsCompleted: factory.Counter("granary.distribution.completed"),
		DistributionMembers:    factory.Histogram("granary.distribution.members_paid"),
		DistributionDust:       factory.Histogram("granary.distribution.dust"),

		// Error metrics
		StoreErrors:  factory.Counter("granary.store.errors"),
		PluginErrors: factory.Counter("granary.plugin.errors"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ interface{}) error {
	// No initialization needed
	return nil
}

// ──────────────────────────────────────────────────
// Ledger hooks
// ──────────────────────────────────────────────────

// OnContributionRecorded implements plugin.OnContributionRecorded.
func (m *MetricsExtension) OnContributionRecorded(_ context.Context, _ id.MemberID, quantityKg int64) error {
	m.ContributionsRecorded.Inc()
	m.ContributionWeight.Observe(float64(quantityKg))
	return nil
}

// OnContributionRemoved implements plugin.OnContributionRemoved.
func (m *MetricsExtension) OnContributionRemoved(_ context.Context, _ id.MemberID, _ int64) error {
	m.ContributionsRemoved.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Pricing and escrow hooks
// ──────────────────────────────────────────────────

// OnPriceUpdated implements plugin.OnPriceUpdated.
func (m *MetricsExtension) OnPriceUpdated(_ context.Context, _, _ types.Money) error {
	m.PriceUpdates.Inc()
	return nil
}

// OnBatchSold implements plugin.OnBatchSold.
func (m *MetricsExtension) OnBatchSold(_ context.Context, _ id.MemberID, amount types.Money) error {
	m.BatchesSold.Inc()
	m.PaymentAmount.Observe(float64(amount.Amount))
	return nil
}

// ──────────────────────────────────────────────────
// Payout hooks
// ──────────────────────────────────────────────────

// OnPaymentDistributed implements plugin.OnPaymentDistributed.
func (m *MetricsExtension) OnPaymentDistributed(_ context.Context, _ id.MemberID, amount types.Money) error {
	m.PayoutsSent.Inc()
	m.PayoutAmount.Observe(float64(amount.Amount))
	return nil
}

// OnTransferFailed implements plugin.OnTransferFailed.
func (m *MetricsExtension) OnTransferFailed(_ context.Context, _ id.MemberID, _ types.Money, _ error) error {
	m.PayoutsFailed.Inc()
	return nil
}

// OnDistributionCompleted implements plugin.OnDistributionCompleted.
func (m *MetricsExtension) OnDistributionCompleted(_ context.Context, membersPaid int, _, dust types.Money) error {
	m.DistributionsCompleted.Inc()
	m.DistributionMembers.Observe(float64(membersPaid))
	m.DistributionDust.Observe(float64(dust.Amount))
	return nil
}
