package post

import "sync"

// postLocks serializes read-modify-write cycles per post. Different posts don't block each other.
type postLocks struct {
	mu sync.Mutex
	m  map[PostId]*postLock
}

type postLock struct {
	mu   sync.Mutex
	refs int
}

func newPostLocks() *postLocks {
	return &postLocks{m: make(map[PostId]*postLock)}
}

// lock blocks until id is free and returns the unlock func.
func (l *postLocks) lock(id PostId) func() {
	l.mu.Lock()
	pl, ok := l.m[id]
	if !ok {
		pl = &postLock{}
		l.m[id] = pl
	}
	pl.refs++
	l.mu.Unlock()

	pl.mu.Lock()
	return func() {
		pl.mu.Unlock()
		l.mu.Lock()
		pl.refs--
		if pl.refs == 0 {
			delete(l.m, id)
		}
		l.mu.Unlock()
	}
}
