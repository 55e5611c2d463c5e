// session/registry.go
package session

import (
	"sync"
)

// Registry maps a user identity (username) to the set of connection ids it
// currently holds. A user on two devices has two entries in one set; the
// entry disappears when the last connection goes away.
type Registry struct {
	entries map[string]map[string]struct{} // username -> set of session ids
	mutex   sync.RWMutex
}

func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]map[string]struct{}),
	}
}

func (r *Registry) Add(username, sessionID string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	set, exists := r.entries[username]
	if !exists {
		set = make(map[string]struct{})
		r.entries[username] = set
	}
	set[sessionID] = struct{}{}
}

func (r *Registry) Remove(username, sessionID string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	set, exists := r.entries[username]
	if !exists {
		return
	}
	delete(set, sessionID)
	if len(set) == 0 {
		delete(r.entries, username)
	}
}

// Sessions returns the connection ids held by the user.
func (r *Registry) Sessions(username string) []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	set, exists := r.entries[username]
	if !exists {
		return nil
	}
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	return ids
}

func (r *Registry) IsOnline(username string) bool {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	_, exists := r.entries[username]
	return exists
}
