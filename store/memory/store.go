package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/xraph/granary"
	"github.com/xraph/granary/batch"
	"github.com/xraph/granary/contribution"
	"github.com/xraph/granary/id"
	"github.com/xraph/granary/payout"
	granarystore "github.com/xraph/granary/store"
)

// compile-time interface check
var _ granarystore.Store = (*Store)(nil)

// Store is an in-memory store.Store. Unlike the database backends it has no
// external process, which makes it the default for tests and embedded use.
// Rows are stored as value copies so the store behaves like the serializing
// backends: mutations of live engine state never leak in without a Put.
type Store struct {
	mu sync.RWMutex

	// Batch storage: pool → batch
	batches map[string]*batch.Batch

	// Contribution storage: pool → member → contribution
	contributions map[string]map[string]*contribution.Contribution

	// Receipt storage, append order
	receipts []*payout.Receipt
}

func New() *Store {
	return &Store{
		batches:       make(map[string]*batch.Batch),
		contributions: make(map[string]map[string]*contribution.Contribution),
		receipts:      make([]*payout.Receipt, 0),
	}
}

// Batch Store implementation

func (s *Store) PutBatch(_ context.Context, b *batch.Batch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *b
	s.batches[b.ID.String()] = &cp
	return nil
}

func (s *Store) GetBatch(_ context.Context, poolID id.PoolID) (*batch.Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if b, ok := s.batches[poolID.String()]; ok {
		cp := *b
		return &cp, nil
	}
	return nil, granary.ErrBatchNotFound
}

// Contribution Store implementation

func (s *Store) PutContribution(_ context.Context, poolID id.PoolID, c *contribution.Contribution) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.putContributionLocked(poolID, c)
	return nil
}

func (s *Store) PutContributions(_ context.Context, poolID id.PoolID, cs []*contribution.Contribution) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range cs {
		s.putContributionLocked(poolID, c)
	}
	return nil
}

func (s *Store) putContributionLocked(poolID id.PoolID, c *contribution.Contribution) {
	pool, ok := s.contributions[poolID.String()]
	if !ok {
		pool = make(map[string]*contribution.Contribution)
		s.contributions[poolID.String()] = pool
	}

	cp := *c
	pool[c.Member.String()] = &cp
}

func (s *Store) DeleteContribution(_ context.Context, poolID id.PoolID, member id.MemberID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pool, ok := s.contributions[poolID.String()]
	if !ok {
		return granary.ErrContributionNotFound
	}
	if _, exists := pool[member.String()]; !exists {
		return granary.ErrContributionNotFound
	}

	delete(pool, member.String())
	return nil
}

func (s *Store) ListContributions(_ context.Context, poolID id.PoolID) ([]*contribution.Contribution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pool := s.contributions[poolID.String()]
	result := make([]*contribution.Contribution, 0, len(pool))
	for _, c := range pool {
		cp := *c
		result = append(result, &cp)
	}

	// Position order reproduces the engine's iteration order on reload.
	sort.Slice(result, func(i, j int) bool { return result[i].Position < result[j].Position })

	return result, nil
}

// Receipt Store implementation

func (s *Store) AppendReceipts(_ context.Context, receipts []*payout.Receipt) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range receipts {
		cp := *r
		s.receipts = append(s.receipts, &cp)
	}
	return nil
}

func (s *Store) ListReceipts(_ context.Context, poolID id.PoolID, opts payout.ListOpts) ([]*payout.Receipt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*payout.Receipt, 0)
	for _, r := range s.receipts {
		if r.Pool.String() != poolID.String() {
			continue
		}
		if !opts.Member.IsNil() && r.Member.String() != opts.Member.String() {
			continue
		}
		cp := *r
		result = append(result, &cp)
	}

	// Apply limit/offset
	start := opts.Offset
	if start > len(result) {
		start = len(result)
	}
	end := start + opts.Limit
	if opts.Limit == 0 || end > len(result) {
		end = len(result)
	}

	return result[start:end], nil
}

// Core methods

func (s *Store) Migrate(_ context.Context) error {
	return nil // No migration needed for memory store
}

func (s *Store) Ping(_ context.Context) error {
	return nil // Always available
}

func (s *Store) Close() error {
	return nil // Nothing to close
}
