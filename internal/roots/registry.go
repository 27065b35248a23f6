package roots

import (
	"slices"
	"sync"

	"github.com/kokistudios/dartmcp/internal/ui"
)

// Registry is the append-only set of directories believed to hold Dart projects.
// It is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	roots []string
}

// NewRegistry returns a registry seeded with the given roots, skipping empties and duplicates.
func NewRegistry(initial ...string) *Registry {
	r := &Registry{}
	for _, root := range initial {
		r.Register(root)
	}
	return r
}

// Register adds root unless it is empty or already present (exact string match).
func (r *Registry) Register(root string) {
	if root == "" {
		return
	}

	r.mu.Lock()
	if slices.Contains(r.roots, root) {
		r.mu.Unlock()
		return
	}
	r.roots = append(r.roots, root)
	r.mu.Unlock()

	ui.Debug("added project root", "root", root)
}

// List returns a snapshot of the registered roots in insertion order.
// A nil registry has no roots.
func (r *Registry) List() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string{}, r.roots...)
}

// Len returns the number of registered roots.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.roots)
}
