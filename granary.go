package granary

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/xraph/granary/batch"
	"github.com/xraph/granary/contribution"
	"github.com/xraph/granary/id"
	"github.com/xraph/granary/payout"
	"github.com/xraph/granary/plugin"
	"github.com/xraph/granary/store"
	"github.com/xraph/granary/types"
)

// DefaultCurrency is the pool currency used when no WithCurrency option is
// given (ISO 4217, lowercase).
const DefaultCurrency = "kes"

// Granary is the pooling engine: it keeps the contribution ledger and the
// batch escrow in memory, writes every change through to the store, and pays
// the pool out through the configured transfer rail.
type Granary struct {
	store   store.Store
	plugins *plugin.Registry
	logger  *slog.Logger

	// Payout rail
	transfer payout.Transferer

	// Pool identity
	poolID   id.PoolID
	currency string
	label    string

	skipMigrate bool

	// gate admits one mutating operation at a time and stays held across
	// external transfer calls. TryLock instead of Lock: a call that arrives
	// while the gate is held — reentrant or concurrent — is rejected with
	// ErrReentrancyRejected instead of deadlocking behind a transfer.
	gate sync.Mutex

	// mu guards ledger and batch. It is released around transfer calls so
	// read operations invoked from inside a transfer observe settled state.
	mu     sync.RWMutex
	ledger *contribution.Ledger
	batch  *batch.Batch
}

// New creates a new Granary instance.
func New(s store.Store, opts ...Option) *Granary {
	g := &Granary{
		store:    s,
		plugins:  plugin.NewRegistry(),
		logger:   slog.Default(),
		poolID:   id.NewPoolID(),
		currency: DefaultCurrency,
	}

	for _, opt := range opts {
		opt(g)
	}

	g.ledger = contribution.NewLedger()
	g.batch = batch.New(g.poolID, g.currency)
	g.batch.Label = g.label

	return g
}

// Option configures a Granary instance.
type Option func(*Granary)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Granary) {
		g.logger = logger
		g.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(g *Granary) {
		_ = g.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithTransferer sets the payout rail Distribute pays members through.
func WithTransferer(t payout.Transferer) Option {
	return func(g *Granary) {
		g.transfer = t
	}
}

// WithPoolID reopens an existing pool instead of minting a fresh one.
func WithPoolID(poolID id.PoolID) Option {
	return func(g *Granary) {
		g.poolID = poolID
	}
}

// WithCurrency sets the pool currency (ISO 4217). Prices and payments must
// carry this currency. When reopening a stored pool, the stored currency
// wins.
func WithCurrency(currency string) Option {
	return func(g *Granary) {
		g.currency = strings.ToLower(currency)
	}
}

// WithLabel sets the free-text batch label for a fresh pool.
func WithLabel(label string) Option {
	return func(g *Granary) {
		g.label = label
	}
}

// WithoutMigrate skips store schema migration during Start, for deployments
// that manage migrations out of band. State is still rehydrated.
func WithoutMigrate() Option {
	return func(g *Granary) {
		g.skipMigrate = true
	}
}

// Start migrates the store and rehydrates pool state from it.
func (g *Granary) Start(ctx context.Context) error {
	if !g.skipMigrate {
		if err := g.store.Migrate(ctx); err != nil {
			return err
		}
	}

	if err := g.rehydrate(ctx); err != nil {
		return err
	}

	g.plugins.EmitInit(ctx, g)

	g.mu.RLock()
	members := g.ledger.Len()
	aggregate := g.ledger.AggregateKg()
	g.mu.RUnlock()

	g.logger.Info("granary started",
		"pool", g.poolID,
		"members", members,
		"aggregate_kg", aggregate,
	)

	return nil
}

// rehydrate loads the batch row and the contribution rows for the pool,
// creating the batch row when the pool is new. Contributions come back in
// position order, so rebuilding the ledger reproduces the walk order.
func (g *Granary) rehydrate(ctx context.Context) error {
	b, err := g.store.GetBatch(ctx, g.poolID)
	switch {
	case errors.Is(err, ErrBatchNotFound):
		g.mu.RLock()
		fresh := *g.batch
		g.mu.RUnlock()
		if err := g.store.PutBatch(ctx, &fresh); err != nil {
			return fmt.Errorf("granary: persist new batch: %w", err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("granary: load batch: %w", err)
	}

	cs, err := g.store.ListContributions(ctx, g.poolID)
	if err != nil {
		return fmt.Errorf("granary: load contributions: %w", err)
	}

	ledger := contribution.NewLedger()
	for _, c := range cs {
		ledger.Add(c)
	}

	g.mu.Lock()
	g.batch = b
	g.currency = b.Currency
	g.ledger = ledger
	g.mu.Unlock()

	return nil
}

// Stop shuts down the Granary.
func (g *Granary) Stop() error {
	ctx := context.Background()
	g.plugins.EmitShutdown(ctx)

	return g.store.Close()
}

// Pool returns the pool identifier this engine operates on.
func (g *Granary) Pool() id.PoolID { return g.poolID }

// Currency returns the pool currency code.
func (g *Granary) Currency() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.currency
}

// ──────────────────────────────────────────────────
// Contribution Ledger
// ──────────────────────────────────────────────────

// AddContribution records a member's contribution of quantityKg to the pool.
// Fails with ErrInvalidQuantity when quantityKg is not positive,
// ErrDuplicateParticipant when the member already holds an active entry, and
// ErrArithmeticOverflow when the aggregate would overflow.
func (g *Granary) AddContribution(ctx context.Context, member id.MemberID, displayName, contactPhone string, quantityKg int64) error {
	if !g.gate.TryLock() {
		return ErrReentrancyRejected
	}
	defer g.gate.Unlock()

	if member.IsNil() {
		return ValidationError{Field: "member", Message: "member id is required"}
	}

	g.mu.Lock()
	if quantityKg <= 0 {
		g.mu.Unlock()
		return ErrInvalidQuantity
	}
	if g.ledger.Contains(member) {
		g.mu.Unlock()
		return ErrDuplicateParticipant
	}
	if _, ok := types.CheckedAdd(g.ledger.AggregateKg(), quantityKg); !ok {
		g.mu.Unlock()
		return ErrArithmeticOverflow
	}

	c := contribution.New(member, displayName, contactPhone, quantityKg)
	g.ledger.Add(c)
	row := *c
	g.mu.Unlock()

	if err := g.store.PutContribution(ctx, g.poolID, &row); err != nil {
		return fmt.Errorf("granary: persist contribution: %w", err)
	}

	g.plugins.EmitContributionRecorded(ctx, member, quantityKg)
	g.logger.Debug("contribution recorded",
		"member", member,
		"quantity_kg", quantityKg,
	)
	return nil
}

// RemoveContribution drops the member's contribution from the pool. Removing
// an absent member is a silent no-op: the ledger ends in the desired state
// either way.
func (g *Granary) RemoveContribution(ctx context.Context, member id.MemberID) error {
	if !g.gate.TryLock() {
		return ErrReentrancyRejected
	}
	defer g.gate.Unlock()

	g.mu.Lock()
	c, ok := g.ledger.Get(member)
	if !ok {
		g.mu.Unlock()
		return nil
	}
	slot := c.Position
	qty, _ := g.ledger.Remove(member)

	// Swap-with-last moved the former tail into the freed slot; its stored
	// position must follow.
	var moved *contribution.Contribution
	if mc, ok := g.ledger.At(slot); ok {
		row := *mc
		moved = &row
	}
	g.mu.Unlock()

	if err := g.store.DeleteContribution(ctx, g.poolID, member); err != nil && !errors.Is(err, ErrContributionNotFound) {
		return fmt.Errorf("granary: delete contribution: %w", err)
	}
	if moved != nil {
		if err := g.store.PutContribution(ctx, g.poolID, moved); err != nil {
			return fmt.Errorf("granary: persist moved contribution: %w", err)
		}
	}

	g.plugins.EmitContributionRemoved(ctx, member, qty)
	g.logger.Debug("contribution removed",
		"member", member,
		"quantity_kg", qty,
	)
	return nil
}

// GetContribution returns a copy of the member's entry, or a zero-valued
// Contribution when the member holds none. Lookup never fails.
func (g *Granary) GetContribution(member id.MemberID) contribution.Contribution {
	g.mu.RLock()
	defer g.mu.RUnlock()

	c, ok := g.ledger.Get(member)
	if !ok {
		return contribution.Contribution{}
	}
	return *c
}

// Count returns the number of active contributions.
func (g *Granary) Count() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.ledger.Len()
}

// ContributionAt returns a copy of the entry at slot i in walk order. Fails
// with ErrIndexOutOfRange when i does not address an active entry.
func (g *Granary) ContributionAt(i int) (contribution.Contribution, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	c, ok := g.ledger.At(i)
	if !ok {
		return contribution.Contribution{}, ErrIndexOutOfRange
	}
	return *c, nil
}

// Members returns the member identities in walk order.
func (g *Granary) Members() []id.MemberID {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.ledger.Members()
}

// AggregateKg returns the total contributed quantity.
func (g *Granary) AggregateKg() int64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.ledger.AggregateKg()
}

// ──────────────────────────────────────────────────
// Pricing
// ──────────────────────────────────────────────────

// SetPricePerUnit sets the sale price for one kilogram of the pooled batch.
// Fails with ErrInvalidPrice when the amount is not positive and
// ErrCurrencyMismatch when the price is not in the pool currency.
func (g *Granary) SetPricePerUnit(ctx context.Context, price types.Money) error {
	if !g.gate.TryLock() {
		return ErrReentrancyRejected
	}
	defer g.gate.Unlock()

	g.mu.Lock()
	if !price.IsPositive() {
		g.mu.Unlock()
		return ErrInvalidPrice
	}
	if price.Currency != g.currency {
		g.mu.Unlock()
		return ErrCurrencyMismatch
	}

	old := g.batch.PricePerUnit
	g.batch.PricePerUnit = price
	g.batch.Touch()
	row := *g.batch
	g.mu.Unlock()

	if err := g.store.PutBatch(ctx, &row); err != nil {
		return fmt.Errorf("granary: persist batch: %w", err)
	}

	g.plugins.EmitPriceUpdated(ctx, old, price)
	g.logger.Info("price updated",
		"pool", g.poolID,
		"old", old,
		"new", price,
	)
	return nil
}

// PricePerUnit returns the current price for one kilogram.
func (g *Granary) PricePerUnit() types.Money {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.batch.PricePerUnit
}

// TotalPrice returns the asking price for the whole batch: the aggregate
// quantity times the unit price. Fails with ErrArithmeticOverflow when the
// product does not fit an int64.
func (g *Granary) TotalPrice() (types.Money, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.totalPriceLocked()
}

// totalPriceLocked computes the batch asking price; callers hold mu.
func (g *Granary) totalPriceLocked() (types.Money, error) {
	total, ok := g.batch.PricePerUnit.MulChecked(g.ledger.AggregateKg())
	if !ok {
		return types.Money{}, ErrArithmeticOverflow
	}
	return total, nil
}

// ──────────────────────────────────────────────────
// Escrow
// ──────────────────────────────────────────────────

// ReceivePayment accepts the buyer's lump-sum payment for the whole batch
// and records it in escrow. A later payment overwrites the slot, it never
// accumulates. Fails with ErrEmptyBatch when nothing has been contributed,
// ErrCurrencyMismatch when the payment is not in the pool currency, and
// ErrInsufficientPayment when the amount does not cover the batch price.
func (g *Granary) ReceivePayment(ctx context.Context, buyer id.MemberID, amount types.Money) error {
	if !g.gate.TryLock() {
		return ErrReentrancyRejected
	}
	defer g.gate.Unlock()

	if buyer.IsNil() {
		return ValidationError{Field: "buyer", Message: "buyer id is required"}
	}

	g.mu.Lock()
	if g.ledger.AggregateKg() == 0 {
		g.mu.Unlock()
		return ErrEmptyBatch
	}
	if amount.Currency != g.currency {
		g.mu.Unlock()
		return ErrCurrencyMismatch
	}
	total, err := g.totalPriceLocked()
	if err != nil {
		g.mu.Unlock()
		return err
	}
	if amount.LessThan(total) {
		g.mu.Unlock()
		return ErrInsufficientPayment
	}

	g.batch.Buyer = buyer
	g.batch.TotalReceived = amount
	g.batch.Touch()
	row := *g.batch
	g.mu.Unlock()

	if err := g.store.PutBatch(ctx, &row); err != nil {
		return fmt.Errorf("granary: persist batch: %w", err)
	}

	g.plugins.EmitBatchSold(ctx, buyer, amount)
	g.logger.Info("batch sold",
		"pool", g.poolID,
		"buyer", buyer,
		"amount", amount,
	)
	return nil
}

// Buyer returns the identity that paid for the batch, or the nil ID when no
// payment has been received.
func (g *Granary) Buyer() id.MemberID {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.batch.Buyer
}

// TotalReceived returns the escrowed payment amount.
func (g *Granary) TotalReceived() types.Money {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.batch.TotalReceived
}

// ──────────────────────────────────────────────────
// Batch Label
// ──────────────────────────────────────────────────

// SetLabel sets the batch label. The label is opaque descriptive text —
// a season, a crop, a collection point — and is never validated.
func (g *Granary) SetLabel(ctx context.Context, label string) error {
	if !g.gate.TryLock() {
		return ErrReentrancyRejected
	}
	defer g.gate.Unlock()

	g.mu.Lock()
	g.batch.Label = label
	g.batch.Touch()
	row := *g.batch
	g.mu.Unlock()

	if err := g.store.PutBatch(ctx, &row); err != nil {
		return fmt.Errorf("granary: persist batch: %w", err)
	}
	return nil
}

// Label returns the batch label.
func (g *Granary) Label() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.batch.Label
}
