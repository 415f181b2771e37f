package granary

import "github.com/xraph/granary/id"

// ID is the identifier type used across Granary entities. IDs are TypeIDs:
// type-prefixed, K-sortable UUIDv7 strings such as pool_01h4xs2qd8f9abcdef123456.
type ID = id.ID

// Prefix names the entity type encoded in an ID.
type Prefix = id.Prefix
