package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/xraph/granary/id"
	"github.com/xraph/granary/types"
)

// Registry manages all registered plugins and provides efficient dispatch.
// It uses type-cached discovery for O(1) dispatch performance.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger

	// Type-cached plugin lists for efficient dispatch
	onInit                  []OnInit
	onShutdown              []OnShutdown
	onContributionRecorded  []OnContributionRecorded
	onContributionRemoved   []OnContributionRemoved
	onPriceUpdated          []OnPriceUpdated
	onBatchSold             []OnBatchSold
	onPaymentDistributed    []OnPaymentDistributed
	onTransferFailed        []OnTransferFailed
	onDistributionCompleted []OnDistributionCompleted
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger: slog.Default(),
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Check for duplicate
	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	// Type-switch to cache interfaces
	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnContributionRecorded); ok {
		r.onContributionRecorded = append(r.onContributionRecorded, v)
	}
	if v, ok := p.(OnContributionRemoved); ok {
		r.onContributionRemoved = append(r.onContributionRemoved, v)
	}
	if v, ok := p.(OnPriceUpdated); ok {
		r.onPriceUpdated = append(r.onPriceUpdated, v)
	}
	if v, ok := p.(OnBatchSold); ok {
		r.onBatchSold = append(r.onBatchSold, v)
	}
	if v, ok := p.(OnPaymentDistributed); ok {
		r.onPaymentDistributed = append(r.onPaymentDistributed, v)
	}
	if v, ok := p.(OnTransferFailed); ok {
		r.onTransferFailed = append(r.onTransferFailed, v)
	}
	if v, ok := p.(OnDistributionCompleted); ok {
		r.onDistributionCompleted = append(r.onDistributionCompleted, v)
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", r.getImplementedInterfaces(p),
	)

	return nil
}

// getImplementedInterfaces returns a list of interfaces implemented by the plugin.
func (r *Registry) getImplementedInterfaces(p Plugin) []string {
	var interfaces []string
	v := reflect.TypeOf(p)

	// Check each interface
	checkInterface := func(iface reflect.Type, name string) {
		if v.Implements(iface) {
			interfaces = append(interfaces, name)
		}
	}

	// List all interfaces to check
	checkInterface(reflect.TypeOf((*OnInit)(nil)).Elem(), "OnInit")
	checkInterface(reflect.TypeOf((*OnShutdown)(nil)).Elem(), "OnShutdown")
	checkInterface(reflect.TypeOf((*OnContributionRecorded)(nil)).Elem(), "OnContributionRecorded")
	checkInterface(reflect.TypeOf((*OnContributionRemoved)(nil)).Elem(), "OnContributionRemoved")
	checkInterface(reflect.TypeOf((*OnPriceUpdated)(nil)).Elem(), "OnPriceUpdated")
	checkInterface(reflect.TypeOf((*OnBatchSold)(nil)).Elem(), "OnBatchSold")
	checkInterface(reflect.TypeOf((*OnPaymentDistributed)(nil)).Elem(), "OnPaymentDistributed")
	checkInterface(reflect.TypeOf((*OnTransferFailed)(nil)).Elem(), "OnTransferFailed")
	checkInterface(reflect.TypeOf((*OnDistributionCompleted)(nil)).Elem(), "OnDistributionCompleted")

	return interfaces
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, g interface{}) {
	r.mu.RLock()
	plugins := r.onInit
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnInit(ctx, g)
		}); err != nil {
			r.logger.Warn("plugin OnInit failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	plugins := r.onShutdown
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnShutdown(ctx)
		}); err != nil {
			r.logger.Warn("plugin OnShutdown failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitContributionRecorded emits a contribution recorded event.
func (r *Registry) EmitContributionRecorded(ctx context.Context, member id.MemberID, quantityKg int64) {
	r.mu.RLock()
	plugins := r.onContributionRecorded
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnContributionRecorded(ctx, member, quantityKg)
		}); err != nil {
			r.logger.Warn("plugin OnContributionRecorded failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitContributionRemoved emits a contribution removed event.
func (r *Registry) EmitContributionRemoved(ctx context.Context, member id.MemberID, quantityKg int64) {
	r.mu.RLock()
	plugins := r.onContributionRemoved
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnContributionRemoved(ctx, member, quantityKg)
		}); err != nil {
			r.logger.Warn("plugin OnContributionRemoved failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitPriceUpdated emits a price updated event.
func (r *Registry) EmitPriceUpdated(ctx context.Context, oldPrice, newPrice types.Money) {
	r.mu.RLock()
	plugins := r.onPriceUpdated
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnPriceUpdated(ctx, oldPrice, newPrice)
		}); err != nil {
			r.logger.Warn("plugin OnPriceUpdated failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitBatchSold emits a batch sold event.
func (r *Registry) EmitBatchSold(ctx context.Context, buyer id.MemberID, amount types.Money) {
	r.mu.RLock()
	plugins := r.onBatchSold
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnBatchSold(ctx, buyer, amount)
		}); err != nil {
			r.logger.Warn("plugin OnBatchSold failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitPaymentDistributed emits a payment distributed event.
func (r *Registry) EmitPaymentDistributed(ctx context.Context, member id.MemberID, amount types.Money) {
	r.mu.RLock()
	plugins := r.onPaymentDistributed
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnPaymentDistributed(ctx, member, amount)
		}); err != nil {
			r.logger.Warn("plugin OnPaymentDistributed failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitTransferFailed emits a transfer failed event.
func (r *Registry) EmitTransferFailed(ctx context.Context, member id.MemberID, amount types.Money, cause error) {
	r.mu.RLock()
	plugins := r.onTransferFailed
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnTransferFailed(ctx, member, amount, cause)
		}); err != nil {
			r.logger.Warn("plugin OnTransferFailed failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitDistributionCompleted emits a distribution completed event.
func (r *Registry) EmitDistributionCompleted(ctx context.Context, membersPaid int, distributed, dust types.Money) {
	r.mu.RLock()
	plugins := r.onDistributionCompleted
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnDistributionCompleted(ctx, membersPaid, distributed, dust)
		}); err != nil {
			r.logger.Warn("plugin OnDistributionCompleted failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins should never block the payout pipeline.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
