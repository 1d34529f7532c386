// Package sources builds the byte sources behind file nodes from their JSON
// source definitions, e.g. {"type": "http", "url": "https://..."}.
package sources

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/brettbedarf/namefs"
)

// Registry maps a source "type" to the provider that builds it
type Registry struct {
	mu        sync.RWMutex
	providers map[string]namefs.SourceProvider
}

var _ namefs.SourceProvider = (*Registry)(nil)

func NewRegistry() *Registry {
	return &Registry{providers: map[string]namefs.SourceProvider{}}
}

// Register ties a provider to a "type" key. The first registration of a key
// wins.
func (r *Registry) Register(sourceType string, p namefs.SourceProvider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.providers[sourceType]; ok {
		return
	}
	r.providers[sourceType] = p
}

func (r *Registry) GetProvider(sourceType string) (namefs.SourceProvider, error) {
	r.mu.RLock()
	p, ok := r.providers[sourceType]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no provider for source type %q", sourceType)
	}
	return p, nil
}

// NewSource picks the provider based on the "type" field of raw and hands
// it the full definition.
func (r *Registry) NewSource(raw []byte) (namefs.ByteSource, error) {
	var meta struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, err
	}
	if meta.Type == "" {
		return nil, fmt.Errorf("source definition is missing a type")
	}
	p, err := r.GetProvider(meta.Type)
	if err != nil {
		return nil, err
	}
	return p.NewSource(raw)
}
