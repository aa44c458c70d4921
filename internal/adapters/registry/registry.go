// Package registry is the chain adapter registry: immutable after
// InitializeDefaults runs, safely shared across goroutines.
package registry

import (
	"fmt"
	"sync"

	"github.com/chainwatch/price-compare/internal/adapters/base"
	"github.com/chainwatch/price-compare/internal/adapters/chains"
	adapterconfig "github.com/chainwatch/price-compare/internal/adapters/config"
	"github.com/chainwatch/price-compare/internal/fetch"
)

// Registry maps a chain slug to its adapter.
type Registry struct {
	mu       sync.RWMutex
	adapters map[adapterconfig.ChainID]base.ChainAdapter
}

// DefaultRegistry is the process-wide registry instance.
var DefaultRegistry = New()

// New creates an empty registry.
func New() *Registry {
	return &Registry{adapters: make(map[adapterconfig.ChainID]base.ChainAdapter)}
}

// Register registers an adapter for a chain ID.
func (r *Registry) Register(chainID adapterconfig.ChainID, adapter base.ChainAdapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[chainID] = adapter
}

// Get retrieves an adapter by chain ID.
func (r *Registry) Get(chainID adapterconfig.ChainID) (base.ChainAdapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters[chainID]
	return a, ok
}

// Snapshot returns a copy of the registered chain -> adapter map, safe
// for a caller to range over without holding the registry's lock.
func (r *Registry) Snapshot() map[adapterconfig.ChainID]base.ChainAdapter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[adapterconfig.ChainID]base.ChainAdapter, len(r.adapters))
	for id, a := range r.adapters {
		out[id] = a
	}
	return out
}

// List returns all registered chain IDs.
func (r *Registry) List() []adapterconfig.ChainID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]adapterconfig.ChainID, 0, len(r.adapters))
	for id := range r.adapters {
		ids = append(ids, id)
	}
	return ids
}

// InitializeDefaults registers the shufersal and victory adapters
// against the default registry, sharing one fetch client per chain.
func InitializeDefaults() error {
	for _, id := range adapterconfig.ChainIDs {
		cfg, ok := adapterconfig.GetChainConfig(id)
		if !ok {
			return fmt.Errorf("no config for chain %s", id)
		}
		client := fetch.NewDefaultClient()

		var adapter base.ChainAdapter
		switch id {
		case adapterconfig.ChainShufersal:
			adapter = chains.NewShufersalAdapter(client)
		case adapterconfig.ChainVictory:
			adapter = chains.NewVictoryAdapter(client)
		default:
			return fmt.Errorf("no adapter implementation for chain: %s", cfg.ID)
		}
		DefaultRegistry.Register(id, adapter)
	}
	return nil
}

// GetAdapter is a convenience accessor on the default registry.
func GetAdapter(chainID adapterconfig.ChainID) (base.ChainAdapter, error) {
	a, ok := DefaultRegistry.Get(chainID)
	if !ok {
		return nil, fmt.Errorf("no adapter registered for chain: %s", chainID)
	}
	return a, nil
}
