package asset

import (
	"sync"
	"time"
)

// Registry owns the session's asset collections. Per-kind insertion order is
// append-only. Removing an item never cascades into scenes that reference it;
// the export planner is responsible for surfacing dangling references.
type Registry struct {
	mu    sync.RWMutex
	items map[Kind][]*Item
	clock func() time.Time
	idGen func() string
}

func NewRegistry() *Registry {
	return &Registry{
		items: make(map[Kind][]*Item),
		clock: time.Now,
		idGen: NewID,
	}
}

// Add registers a new item under the given kind and returns the stored copy.
func (r *Registry) Add(kind Kind, name, sourceRef string, durationSeconds *float64) (*Item, error) {
	if _, err := ParseKind(string(kind)); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	item := &Item{
		ID:        r.idGen(),
		Name:      name,
		Kind:      kind,
		SourceRef: sourceRef,
		CreatedAt: r.clock(),
	}
	if durationSeconds != nil {
		d := *durationSeconds
		item.DurationSeconds = &d
	}

	r.items[kind] = append(r.items[kind], item)

	cp := *item
	return &cp, nil
}

// Remove deletes the item if present. Removing an absent id is a no-op.
func (r *Registry) Remove(kind Kind, id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	list := r.items[kind]
	for i, item := range list {
		if item.ID == id {
			r.items[kind] = append(list[:i], list[i+1:]...)
			return
		}
	}
}

// Find looks up an item by kind and id.
func (r *Registry) Find(kind Kind, id string) (*Item, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, item := range r.items[kind] {
		if item.ID == id {
			cp := *item
			return &cp, true
		}
	}
	return nil, false
}

// FindAny looks up an item by id across all kinds. Scene media references do
// not carry the kind, so export resolution needs the cross-kind lookup.
func (r *Registry) FindAny(id string) (*Item, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, list := range r.items {
		for _, item := range list {
			if item.ID == id {
				cp := *item
				return &cp, true
			}
		}
	}
	return nil, false
}

// List returns the items of a kind in insertion order.
func (r *Registry) List(kind Kind) []*Item {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := r.items[kind]
	out := make([]*Item, len(list))
	for i, item := range list {
		cp := *item
		out[i] = &cp
	}
	return out
}

// Count returns the number of items of a kind.
func (r *Registry) Count(kind Kind) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items[kind])
}
