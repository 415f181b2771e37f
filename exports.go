package granary

import "github.com/xraph/granary/types"

// Re-export common types for convenience so users don't have to import the
// types package for everyday calls.

// Money is re-exported from the types package.
type Money = types.Money

// Entity is re-exported from the types package.
type Entity = types.Entity

// Re-export Money constructors
var (
	USD  = types.USD
	EUR  = types.EUR
	GBP  = types.GBP
	KES  = types.KES
	NGN  = types.NGN
	TZS  = types.TZS
	UGX  = types.UGX
	Zero = types.Zero
	Sum  = types.Sum
)

// Re-export Entity constructor
var NewEntity = types.NewEntity
