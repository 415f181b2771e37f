// Package extension provides the Forge extension adapter for Granary.
//
// It implements the forge.Extension interface to integrate Granary
// into a Forge application with automatic dependency discovery,
// DI registration, and lifecycle management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.granary" or "granary" keys.
package extension

import (
	"context"
	"errors"
	"fmt"

	"github.com/xraph/forge"
	"github.com/xraph/grove"
	"github.com/xraph/vessel"

	granary "github.com/xraph/granary"
	"github.com/xraph/granary/id"
	"github.com/xraph/granary/store"
	"github.com/xraph/granary/store/memory"
	"github.com/xraph/granary/store/mongo"
	"github.com/xraph/granary/store/postgres"
	"github.com/xraph/granary/store/sqlite"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "granary"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Produce pooling and payout engine"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts Granary as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config     Config
	engine     *granary.Granary
	store      store.Store
	db         *grove.DB
	engineOpts []granary.Option
}

// New creates a new Granary Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying Granary instance.
// This is nil until Register is called.
func (e *Extension) Engine() *granary.Granary { return e.engine }

// Register implements [forge.Extension]. It loads configuration,
// initializes the engine, and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	// Build the store from config if none was provided programmatically.
	if e.store == nil {
		s, err := e.buildStore()
		if err != nil {
			return err
		}
		e.store = s
	}

	opts, err := e.buildEngineOpts()
	if err != nil {
		return err
	}

	e.engine = granary.New(e.store, opts...)

	return vessel.Provide(fapp.Container(), func() (*granary.Granary, error) {
		return e.engine, nil
	})
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("granary: extension not initialized")
	}

	if err := e.engine.Start(ctx); err != nil {
		return err
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(_ context.Context) error {
	if e.engine != nil {
		if err := e.engine.Stop(); err != nil {
			e.MarkStopped()
			return err
		}
	}
	e.MarkStopped()
	return nil
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return errors.New("granary: store not initialized")
	}
	return e.store.Ping(ctx)
}

// buildStore constructs the storage backend named by the config.
func (e *Extension) buildStore() (store.Store, error) {
	switch e.config.Store {
	case "", StoreMemory:
		return memory.New(), nil
	case StoreSqlite:
		if e.db == nil {
			return nil, granary.ValidationError{Field: "store", Message: "sqlite store requires a grove database; use WithGroveDatabase"}
		}
		return sqlite.New(e.db), nil
	case StorePostgres:
		if e.db == nil {
			return nil, granary.ValidationError{Field: "store", Message: "postgres store requires a grove database; use WithGroveDatabase"}
		}
		return postgres.New(e.db), nil
	case StoreMongo:
		if e.db == nil {
			return nil, granary.ValidationError{Field: "store", Message: "mongo store requires a grove database; use WithGroveDatabase"}
		}
		return mongo.New(e.db), nil
	default:
		return nil, granary.ValidationError{Field: "store", Message: fmt.Sprintf("unknown store backend %q", e.config.Store)}
	}
}

// buildEngineOpts constructs granary.Option values from the resolved config.
func (e *Extension) buildEngineOpts() ([]granary.Option, error) {
	opts := make([]granary.Option, 0, len(e.engineOpts)+4)

	if e.config.PoolID != "" {
		poolID, err := id.ParsePoolID(e.config.PoolID)
		if err != nil {
			return nil, granary.ValidationError{Field: "pool_id", Message: err.Error()}
		}
		opts = append(opts, granary.WithPoolID(poolID))
	}
	if e.config.Currency != "" {
		opts = append(opts, granary.WithCurrency(e.config.Currency))
	}
	if e.config.Label != "" {
		opts = append(opts, granary.WithLabel(e.config.Label))
	}
	if e.config.DisableMigrate {
		opts = append(opts, granary.WithoutMigrate())
	}

	// Append any pass-through engine options.
	opts = append(opts, e.engineOpts...)

	return opts, nil
}

// --- Config Loading (mirrors grove/shield extension pattern) ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	// Try loading from config file.
	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("granary: configuration is required but not found in config files; " +
				"ensure 'extensions.granary' or 'granary' key exists in your config")
		}

		// Use programmatic config merged with defaults.
		e.config = e.mergeWithDefaults(programmaticConfig)
	} else {
		// Config loaded from YAML -- merge with programmatic options.
		e.config = e.mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("granary: configuration loaded",
		forge.F("store", e.config.Store),
		forge.F("disable_migrate", e.config.DisableMigrate),
		forge.F("pool_id", e.config.PoolID),
		forge.F("currency", e.config.Currency),
		forge.F("label", e.config.Label),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()
	var cfg Config

	// Try "extensions.granary" first (namespaced pattern).
	if cm.IsSet("extensions.granary") {
		if err := cm.Bind("extensions.granary", &cfg); err == nil {
			e.Logger().Debug("granary: loaded config from file",
				forge.F("key", "extensions.granary"),
			)
			return cfg, true
		}
		e.Logger().Warn("granary: failed to bind extensions.granary config",
			forge.F("error", "bind failed"),
		)
	}

	// Try legacy "granary" key.
	if cm.IsSet("granary") {
		if err := cm.Bind("granary", &cfg); err == nil {
			e.Logger().Debug("granary: loaded config from file",
				forge.F("key", "granary"),
			)
			return cfg, true
		}
		e.Logger().Warn("granary: failed to bind granary config",
			forge.F("error", "bind failed"),
		)
	}

	return Config{}, false
}

// mergeWithDefaults fills zero-valued fields with defaults.
func (e *Extension) mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.Store == "" {
		cfg.Store = defaults.Store
	}
	if cfg.Currency == "" {
		cfg.Currency = defaults.Currency
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence for most fields; programmatic bool flags fill gaps.
func (e *Extension) mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	// Programmatic bool flags override when true.
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}

	// String fields: YAML takes precedence.
	if yamlConfig.Store == "" && programmaticConfig.Store != "" {
		yamlConfig.Store = programmaticConfig.Store
	}
	if yamlConfig.PoolID == "" && programmaticConfig.PoolID != "" {
		yamlConfig.PoolID = programmaticConfig.PoolID
	}
	if yamlConfig.Currency == "" && programmaticConfig.Currency != "" {
		yamlConfig.Currency = programmaticConfig.Currency
	}
	if yamlConfig.Label == "" && programmaticConfig.Label != "" {
		yamlConfig.Label = programmaticConfig.Label
	}

	// Fill remaining zeros with defaults.
	return e.mergeWithDefaults(yamlConfig)
}
