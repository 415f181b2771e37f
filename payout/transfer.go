package payout

import (
	"context"

	"github.com/xraph/granary/id"
	"github.com/xraph/granary/types"
)

// Transferer delivers funds to a member. Implementations sit outside the
// engine — mobile-money rails, bank transfer APIs, internal wallets — and may
// run arbitrary code, including calling back into the engine. Transfer either
// succeeds or reports an error before the distribution walk proceeds; the
// engine treats a reported failure as fatal for the whole walk.
type Transferer interface {
	Transfer(ctx context.Context, member id.MemberID, amount types.Money) error
}

// TransfererFunc adapts an ordinary function to the Transferer interface.
type TransfererFunc func(ctx context.Context, member id.MemberID, amount types.Money) error

// Transfer calls f.
func (f TransfererFunc) Transfer(ctx context.Context, member id.MemberID, amount types.Money) error {
	return f(ctx, member, amount)
}
