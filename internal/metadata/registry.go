package metadata

import (
	"sort"
	"sync"
)

// Registry is a read-mostly, in-memory index of entry types, rebuilt after
// every admin mutation. Entry types handed out must be treated as read-only;
// Clone one before mutating it.
type Registry struct {
	mu       sync.RWMutex
	byID     map[int]*EntryType
	byHandle map[string]*EntryType
	byUID    map[string]*EntryType
}

func NewRegistry() *Registry {
	return &Registry{
		byID:     make(map[int]*EntryType),
		byHandle: make(map[string]*EntryType),
		byUID:    make(map[string]*EntryType),
	}
}

// GetByID returns the entry type with the given id, or nil.
func (r *Registry) GetByID(id int) *EntryType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byID[id]
}

// GetByHandle returns the entry type with the given handle, or nil.
func (r *Registry) GetByHandle(handle string) *EntryType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byHandle[handle]
}

// GetByUID returns the entry type with the given uid, or nil.
func (r *Registry) GetByUID(uid string) *EntryType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byUID[uid]
}

// All returns every entry type ordered by handle.
func (r *Registry) All() []*EntryType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]*EntryType, 0, len(r.byHandle))
	for _, et := range r.byHandle {
		types = append(types, et)
	}
	sort.Slice(types, func(i, j int) bool { return types[i].Handle < types[j].Handle })
	return types
}

// Load replaces the registry contents.
func (r *Registry) Load(types []*EntryType) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.byID = make(map[int]*EntryType, len(types))
	r.byHandle = make(map[string]*EntryType, len(types))
	r.byUID = make(map[string]*EntryType, len(types))
	for _, et := range types {
		if et.ID != nil {
			r.byID[*et.ID] = et
		}
		r.byHandle[et.Handle] = et
		if et.UID != "" {
			r.byUID[et.UID] = et
		}
	}
}
