package archive

import (
	"maps"
	"sync"
)

// Archive is a named key/value string table backed by one message file or
// database partition. Reads share a lock; writes stage a private copy and
// replace the backing map only when the mutation asks to be committed, so the
// table is never observed half-written.
type Archive struct {
	name string

	mu    sync.RWMutex
	data  map[string]string
	dirty bool
}

// New creates an archive holding a copy of data.
func New(name string, data map[string]string) *Archive {
	m := make(map[string]string, len(data))
	maps.Copy(m, data)
	return &Archive{name: name, data: m}
}

// Name returns the archive's logical name.
func (a *Archive) Name() string { return a.name }

// Read calls fn with the current contents under a shared lock. fn must not
// retain or modify the map.
func (a *Archive) Read(fn func(data map[string]string)) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	fn(a.data)
}

// Write hands fn a copy of the contents while holding the exclusive lock. If
// fn returns true the copy becomes the new contents and the archive is marked
// dirty; otherwise it is discarded. Write reports whether it committed.
func (a *Archive) Write(fn func(data map[string]string) bool) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	staged := make(map[string]string, len(a.data)+1)
	maps.Copy(staged, a.data)
	if !fn(staged) {
		return false
	}
	a.data = staged
	a.dirty = true
	return true
}

// Snapshot returns a copy of the current contents.
func (a *Archive) Snapshot() map[string]string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return maps.Clone(a.data)
}

// Len returns the number of keys.
func (a *Archive) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.data)
}

// Dirty reports whether a write was committed since the last MarkClean.
func (a *Archive) Dirty() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.dirty
}

// MarkClean clears the dirty flag after the contents have been persisted.
func (a *Archive) MarkClean() {
	a.mu.Lock()
	a.dirty = false
	a.mu.Unlock()
}
