package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/sqlitedriver"
	"github.com/xraph/grove/migrate"

	granary "github.com/xraph/granary"
	"github.com/xraph/granary/batch"
	"github.com/xraph/granary/contribution"
	"github.com/xraph/granary/id"
	"github.com/xraph/granary/payout"
	granarystore "github.com/xraph/granary/store"
)

// compile-time interface check
var _ granarystore.Store = (*Store)(nil)

// Store implements store.Store using SQLite via Grove ORM.
type Store struct {
	db  *grove.DB
	sdb *sqlitedriver.SqliteDB
}

// New creates a new SQLite store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		sdb: sqlitedriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.sdb)
	if err != nil {
		return fmt.Errorf("granary/sqlite: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("granary/sqlite: migration failed: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Batch Store ====================

func (s *Store) PutBatch(ctx context.Context, b *batch.Batch) error {
	m := toBatchModel(b)
	m.UpdatedAt = now()
	_, err := s.sdb.NewInsert(m).
		OnConflict("(id) DO UPDATE").
		Set("label = EXCLUDED.label").
		Set("currency = EXCLUDED.currency").
		Set("price_amount_cents = EXCLUDED.price_amount_cents").
		Set("price_currency = EXCLUDED.price_currency").
		Set("buyer = EXCLUDED.buyer").
		Set("received_amount_cents = EXCLUDED.received_amount_cents").
		Set("received_currency = EXCLUDED.received_currency").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

func (s *Store) GetBatch(ctx context.Context, poolID id.PoolID) (*batch.Batch, error) {
	m := new(batchModel)
	err := s.sdb.NewSelect(m).
		Where("id = ?", poolID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, granary.ErrBatchNotFound
		}
		return nil, err
	}
	return fromBatchModel(m)
}

// ==================== Contribution Store ====================

func (s *Store) PutContribution(ctx context.Context, poolID id.PoolID, c *contribution.Contribution) error {
	m := toContributionModel(poolID, c)
	m.UpdatedAt = now()
	_, err := s.sdb.NewInsert(m).
		OnConflict("(row_key) DO UPDATE").
		Set("display_name = EXCLUDED.display_name").
		Set("contact_phone = EXCLUDED.contact_phone").
		Set("quantity_kg = EXCLUDED.quantity_kg").
		Set("paid = EXCLUDED.paid").
		Set("paid_amount_cents = EXCLUDED.paid_amount_cents").
		Set("paid_currency = EXCLUDED.paid_currency").
		Set("position = EXCLUDED.position").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

func (s *Store) PutContributions(ctx context.Context, poolID id.PoolID, cs []*contribution.Contribution) error {
	if len(cs) == 0 {
		return nil
	}
	models := make([]contributionModel, len(cs))
	for i, c := range cs {
		models[i] = *toContributionModel(poolID, c)
		models[i].UpdatedAt = now()
	}
	_, err := s.sdb.NewInsert(&models).
		OnConflict("(row_key) DO UPDATE").
		Set("display_name = EXCLUDED.display_name").
		Set("contact_phone = EXCLUDED.contact_phone").
		Set("quantity_kg = EXCLUDED.quantity_kg").
		Set("paid = EXCLUDED.paid").
		Set("paid_amount_cents = EXCLUDED.paid_amount_cents").
		Set("paid_currency = EXCLUDED.paid_currency").
		Set("position = EXCLUDED.position").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

func (s *Store) DeleteContribution(ctx context.Context, poolID id.PoolID, member id.MemberID) error {
	res, err := s.sdb.NewDelete((*contributionModel)(nil)).
		Where("row_key = ?", contributionRowKey(poolID, member)).
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return granary.ErrContributionNotFound
	}
	return nil
}

func (s *Store) ListContributions(ctx context.Context, poolID id.PoolID) ([]*contribution.Contribution, error) {
	var models []contributionModel
	q := s.sdb.NewSelect(&models).
		Where("pool_id = ?", poolID.String()).
		OrderExpr("position ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*contribution.Contribution, len(models))
	for i := range models {
		c, err := fromContributionModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = c
	}
	return result, nil
}

// ==================== Receipt Store ====================

func (s *Store) AppendReceipts(ctx context.Context, receipts []*payout.Receipt) error {
	if len(receipts) == 0 {
		return nil
	}
	models := make([]receiptModel, len(receipts))
	for i, r := range receipts {
		models[i] = *toReceiptModel(r)
	}
	_, err := s.sdb.NewInsert(&models).Exec(ctx)
	return err
}

func (s *Store) ListReceipts(ctx context.Context, poolID id.PoolID, opts payout.ListOpts) ([]*payout.Receipt, error) {
	var models []receiptModel
	q := s.sdb.NewSelect(&models).Where("pool_id = ?", poolID.String())

	if !opts.Member.IsNil() {
		q = q.Where("member_id = ?", opts.Member.String())
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	// Receipt IDs are K-sortable, so id order is creation order even when
	// timestamps collide within one distribution walk.
	q = q.OrderExpr("id ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*payout.Receipt, len(models))
	for i := range models {
		r, err := fromReceiptModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = r
	}
	return result, nil
}

// ==================== Helpers ====================

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
