package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	granary "github.com/xraph/granary"
	"github.com/xraph/granary/batch"
	"github.com/xraph/granary/contribution"
	"github.com/xraph/granary/id"
	"github.com/xraph/granary/payout"
	granarystore "github.com/xraph/granary/store"
)

// Collection name constants.
const (
	colBatches       = "granary_batches"
	colContributions = "granary_contributions"
	colReceipts      = "granary_receipts"
)

// compile-time interface check
var _ granarystore.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates indexes for all granary collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := migrationIndexes()

	for col, models := range indexes {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("granary/mongo: migrate %s indexes: %w", col, err)
		}
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

	_, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		SetUpdate(bson.M{"$set": bson.M{
			"_id":                   m.ID,
			"label":                 m.Label,
			"currency":              m.Currency,
			"price_amount_cents":    m.PriceAmountCents,
			"price_currency":        m.PriceCurrency,
			"buyer":                 m.Buyer,
			"received_amount_cents": m.ReceivedAmountCents,
			"received_currency":     m.ReceivedCurrency,
			"created_at":            m.CreatedAt,
			"updated_at":            m.UpdatedAt,
		}}).
		Upsert().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("granary/mongo: put batch: %w", err)
	}
	return nil
}

func (s *Store) GetBatch(ctx context.Context, poolID id.PoolID) (*batch.Batch, error) {
	var m batchModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": poolID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, granary.ErrBatchNotFound
		}
		return nil, fmt.Errorf("granary/mongo: get batch: %w", err)
	}
	return fromBatchModel(&m)
}

// ==================== Contribution Store ====================

func (s *Store) PutContribution(ctx context.Context, poolID id.PoolID, c *contribution.Contribution) error {
	m := toContributionModel(poolID, c)
	m.UpdatedAt = now()

	_, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.RowKey}).
		SetUpdate(bson.M{"$set": bson.M{
			"_id":               m.RowKey,
			"pool_id":           m.PoolID,
			"member_id":         m.MemberID,
			"display_name":      m.DisplayName,
			"contact_phone":     m.ContactPhone,
			"quantity_kg":       m.QuantityKg,
			"paid":              m.Paid,
			"paid_amount_cents": m.PaidAmountCents,
			"paid_currency":     m.PaidCurrency,
			"position":          m.Position,
			"created_at":        m.CreatedAt,
			"updated_at":        m.UpdatedAt,
		}}).
		Upsert().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("granary/mongo: put contribution: %w", err)
	}
	return nil
}

func (s *Store) PutContributions(ctx context.Context, poolID id.PoolID, cs []*contribution.Contribution) error {
	for _, c := range cs {
		if err := s.PutContribution(ctx, poolID, c); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) DeleteContribution(ctx context.Context, poolID id.PoolID, member id.MemberID) error {
	res, err := s.mdb.NewDelete((*contributionModel)(nil)).
		Filter(bson.M{"_id": contributionRowKey(poolID, member)}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("granary/mongo: delete contribution: %w", err)
	}
	if res.DeletedCount() == 0 {
		return granary.ErrContributionNotFound
	}
	return nil
}

func (s *Store) ListContributions(ctx context.Context, poolID id.PoolID) ([]*contribution.Contribution, error) {
	var models []contributionModel

	err := s.mdb.NewFind(&models).
		Filter(bson.M{"pool_id": poolID.String()}).
		Sort(bson.D{{Key: "position", Value: 1}}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("granary/mongo: list contributions: %w", err)
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
	for _, r := range receipts {
		m := toReceiptModel(r)
		_, err := s.mdb.NewInsert(m).Exec(ctx)
		if err != nil {
			// Receipts are written once; a replayed append is harmless.
			if mongo.IsDuplicateKeyError(err) {
				continue
			}
			return fmt.Errorf("granary/mongo: append receipt: %w", err)
		}
	}
	return nil
}

func (s *Store) ListReceipts(ctx context.Context, poolID id.PoolID, opts payout.ListOpts) ([]*payout.Receipt, error) {
	var models []receiptModel

	filter := bson.M{"pool_id": poolID.String()}
	if !opts.Member.IsNil() {
		filter["member_id"] = opts.Member.String()
	}

	// Receipt IDs are K-sortable, so _id order is creation order even when
	// timestamps collide within one distribution walk.
	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "_id", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("granary/mongo: list receipts: %w", err)
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

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all granary collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colBatches: {},
		colContributions: {
			{
				Keys:    bson.D{{Key: "pool_id", Value: 1}, {Key: "member_id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "pool_id", Value: 1}, {Key: "position", Value: 1}}},
		},
		colReceipts: {
			{Keys: bson.D{{Key: "pool_id", Value: 1}}},
			{Keys: bson.D{{Key: "pool_id", Value: 1}, {Key: "member_id", Value: 1}}},
		},
	}
}
