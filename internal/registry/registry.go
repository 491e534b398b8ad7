package registry

import (
	"regexp"
	"sync"
)

// nicknamePattern enforces a 2-15 character name starting with a letter,
// drawn from a small allow-list of punctuation beyond alphanumerics.
var nicknamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9!@#$%&]{1,14}$`)

// ValidNickname reports whether name satisfies the registry's naming rule,
// without attempting to reserve it.
func ValidNickname(name string) bool {
	return nicknamePattern.MatchString(name)
}

// Entry is one registry record. Handle identifies the owning worker (the
// caller supplies any comparable value, typically a *chatserver.Session
// pointer); Payload is an opaque value the caller can retrieve later, used
// by the broadcaster to reach the session's transport without the
// registry needing to know about sessions at all.
type Entry struct {
	Handle   any
	Nickname string
	Payload  any
}

// Registry is the concurrent client registry (C4). All mutations happen
// under a single mutex, per the registry's stated invariant; there is no
// sharding.
type Registry struct {
	mu             sync.Mutex
	maxConnections int
	byHandle       map[any]*Entry
	byNick         map[string]*Entry
}

// New builds an empty Registry bounded at maxConnections entries.
func New(maxConnections int) *Registry {
	return &Registry{
		maxConnections: maxConnections,
		byHandle:       make(map[any]*Entry),
		byNick:         make(map[string]*Entry),
	}
}

// Admit inserts a new, not-yet-authenticated entry for handle. It refuses
// once the registry holds maxConnections entries.
func (r *Registry) Admit(handle any, payload any) (*Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.byHandle) >= r.maxConnections {
		return nil, ErrCapacityExceeded
	}
	e := &Entry{Handle: handle, Payload: payload}
	r.byHandle[handle] = e
	return e, nil
}

// SetNickname validates and assigns name to the entry owned by handle. It
// rejects a malformed name or one already claimed by another entry.
func (r *Registry) SetNickname(handle any, name string) error {
	if !ValidNickname(name) {
		return ErrInvalidNickname
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.byHandle[handle]
	if !ok {
		return ErrNotFound
	}
	if existing, taken := r.byNick[name]; taken && existing != e {
		return ErrConflict
	}
	if e.Nickname != "" {
		delete(r.byNick, e.Nickname)
	}
	e.Nickname = name
	r.byNick[name] = e
	return nil
}

// LookupByHandle returns the entry owned by handle, if any.
func (r *Registry) LookupByHandle(handle any) (*Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.byHandle[handle]
	return e, ok
}

// LookupByNickname returns the entry currently holding name, if any.
func (r *Registry) LookupByNickname(name string) (*Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.byNick[name]
	return e, ok
}

// Remove detaches handle's entry from both indexes. The caller is
// responsible for closing the transport outside the lock.
func (r *Registry) Remove(handle any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.byHandle[handle]
	if !ok {
		return
	}
	delete(r.byHandle, handle)
	if e.Nickname != "" {
		delete(r.byNick, e.Nickname)
	}
}

// ForEachAuthenticated calls f once for every currently-authenticated
// entry. It takes a short snapshot under the registry lock rather than
// holding the lock for the whole scan, so the acceptor and workers are
// never blocked behind a slow fan-out.
func (r *Registry) ForEachAuthenticated(f func(*Entry)) {
	r.mu.Lock()
	snapshot := make([]*Entry, 0, len(r.byNick))
	for _, e := range r.byNick {
		snapshot = append(snapshot, e)
	}
	r.mu.Unlock()
	for _, e := range snapshot {
		f(e)
	}
}

// Size returns the current number of admitted entries, authenticated or
// not.
func (r *Registry) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byHandle)
}

// AuthenticatedCount returns the number of entries currently holding a
// nickname.
func (r *Registry) AuthenticatedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byNick)
}
