package services

import "sync"

// UserLocks serializes join, cancel and ban-sweep operations per user so a
// ban cannot race a join and leave the user enqueued. Lock granularity is
// a single user ID; partition locks live in the queue store.
type UserLocks struct {
	mu    sync.Mutex
	locks map[string]*userLock
}

type userLock struct {
	mu   sync.Mutex
	refs int
}

func NewUserLocks() *UserLocks {
	return &UserLocks{locks: make(map[string]*userLock)}
}

// Lock acquires the per-user mutex, creating it on first use
func (l *UserLocks) Lock(userID string) {
	l.mu.Lock()
	u := l.locks[userID]
	if u == nil {
		u = &userLock{}
		l.locks[userID] = u
	}
	u.refs++
	l.mu.Unlock()

	u.mu.Lock()
}

// Unlock releases the per-user mutex and frees it once unreferenced
func (l *UserLocks) Unlock(userID string) {
	l.mu.Lock()
	u := l.locks[userID]
	u.refs--
	if u.refs == 0 {
		delete(l.locks, userID)
	}
	l.mu.Unlock()

	u.mu.Unlock()
}
