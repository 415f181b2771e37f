package audithook

// Action constants for audit events.
const (
	// Ledger actions
	ActionContributionRecorded = "contribution.recorded"
	ActionContributionRemoved  = "contribution.removed"

	// Pricing and escrow actions
	ActionPriceUpdated = "price.updated"
	ActionBatchSold    = "batch.sold"

	// Payout actions
	ActionPayoutSent            = "payout.sent"
	ActionPayoutFailed          = "payout.failed"
	ActionDistributionCompleted = "distribution.completed"
)

// Resource constants for audit events.
const (
	ResourceContribution = "contribution"
	ResourceBatch        = "batch"
	ResourcePayout       = "payout"
)

// Category constants for audit events.
const (
	CategoryLedger = "ledger"
	CategoryEscrow = "escrow"
	CategoryPayout = "payout"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomePartial = "partial"
)
