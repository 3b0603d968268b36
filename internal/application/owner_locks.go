package application

import "sync"

// OwnerLocks serializes conflict-checked writes per owner so that no other
// write of the same owner can land between the check and the write. Entries
// are dropped once no goroutine holds or waits for them.
type OwnerLocks struct {
	mu    sync.Mutex
	locks map[string]*ownerLock
}

type ownerLock struct {
	mu   sync.Mutex
	refs int
}

// NewOwnerLocks constructs an empty lock set.
func NewOwnerLocks() *OwnerLocks {
	return &OwnerLocks{locks: make(map[string]*ownerLock)}
}

// Lock blocks until the owner's lock is held and returns the release func.
// A nil receiver hands out no-op locks.
func (l *OwnerLocks) Lock(owner string) func() {
	if l == nil {
		return func() {}
	}

	l.mu.Lock()
	entry, ok := l.locks[owner]
	if !ok {
		entry = &ownerLock{}
		l.locks[owner] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			entry.mu.Unlock()
			l.mu.Lock()
			entry.refs--
			if entry.refs == 0 {
				delete(l.locks, owner)
			}
			l.mu.Unlock()
		})
	}
}

func (l *OwnerLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
