package ride

import (
	"sync"

	"github.com/google/uuid"
)

// lockMap is a mutex per ride id. Entries live only while somebody holds or waits for them.
type lockMap struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*refLock
}

type refLock struct {
	mu   sync.Mutex
	refs int
}

func newLockMap() *lockMap {
	return &lockMap{locks: make(map[uuid.UUID]*refLock)}
}

// Lock blocks until the ride is free and returns the unlock func.
func (m *lockMap) Lock(id uuid.UUID) (unlock func()) {
	m.mu.Lock()
	l, ok := m.locks[id]
	if !ok {
		l = &refLock{}
		m.locks[id] = l
	}
	l.refs++
	m.mu.Unlock()

	l.mu.Lock()

	return func() {
		l.mu.Unlock()

		m.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(m.locks, id)
		}
		m.mu.Unlock()
	}
}

func (m *lockMap) size() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.locks)
}
