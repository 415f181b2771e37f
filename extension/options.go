package extension

import (
	"github.com/xraph/grove"

	granary "github.com/xraph/granary"
	"github.com/xraph/granary/payout"
	"github.com/xraph/granary/plugin"
	"github.com/xraph/granary/store"
)

// Option configures the Granary Forge extension.
type Option func(*Extension)

// WithStore sets the store for the engine, bypassing config-driven selection.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithGroveDatabase supplies the grove database used to construct the
// sqlite, postgres, or mongo store selected by Config.Store.
func WithGroveDatabase(db *grove.DB) Option {
	return func(e *Extension) {
		e.db = db
	}
}

// WithEngineOption passes a granary.Option through to the underlying engine.
func WithEngineOption(opt granary.Option) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, opt)
	}
}

// WithPlugin registers a granary plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, granary.WithPlugin(p))
	}
}

// WithTransferer sets the payout rail the engine distributes through.
func WithTransferer(t payout.Transferer) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, granary.WithTransferer(t))
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithStoreBackend selects the storage backend by name: "memory", "sqlite",
// "postgres", or "mongo".
func WithStoreBackend(name string) Option {
	return func(e *Extension) { e.config.Store = name }
}

// WithDisableMigrate prevents schema migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithPoolID reopens an existing pool instead of minting a fresh one.
func WithPoolID(poolID string) Option {
	return func(e *Extension) { e.config.PoolID = poolID }
}

// WithCurrency sets the pool currency code.
func WithCurrency(currency string) Option {
	return func(e *Extension) { e.config.Currency = currency }
}

// WithLabel sets the free-text batch label.
func WithLabel(label string) Option {
	return func(e *Extension) { e.config.Label = label }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}
