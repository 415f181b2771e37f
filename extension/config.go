package extension

import granary "github.com/xraph/granary"

// Store backend names accepted by Config.Store.
const (
	StoreMemory   = "memory"
	StoreSqlite   = "sqlite"
	StorePostgres = "postgres"
	StoreMongo    = "mongo"
)

// Config holds the Granary extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.granary" or "granary" keys).
type Config struct {
	// Store selects the storage backend: "memory" (default), "sqlite",
	// "postgres", or "mongo". The SQL and Mongo backends need a grove
	// database supplied via WithGroveDatabase.
	Store string `json:"store" mapstructure:"store" yaml:"store"`

	// DisableMigrate prevents schema migration on start. Pool state is
	// still rehydrated from the store.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// PoolID reopens an existing pool instead of minting a fresh one.
	PoolID string `json:"pool_id" mapstructure:"pool_id" yaml:"pool_id"`

	// Currency is the pool currency code, ISO 4217 (default: "kes").
	Currency string `json:"currency" mapstructure:"currency" yaml:"currency"`

	// Label is the free-text batch label.
	Label string `json:"label" mapstructure:"label" yaml:"label"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Store:    StoreMemory,
		Currency: granary.DefaultCurrency,
	}
}
