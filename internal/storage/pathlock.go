package storage

import "sync"

// pathLocks provides advisory per-path mutual exclusion. It closes the
// check-then-act windows in create and move: two concurrent creates of the
// same path serialize instead of both passing the existence check.
type pathLocks struct {
	mu    sync.Mutex
	locks map[string]*pathLock
}

type pathLock struct {
	mu   sync.Mutex
	refs int
}

func newPathLocks() *pathLocks {
	return &pathLocks{locks: make(map[string]*pathLock)}
}

// lock acquires the lock for a cleaned relative path and returns the release
// function.
func (p *pathLocks) lock(path string) func() {
	p.mu.Lock()
	l, ok := p.locks[path]
	if !ok {
		l = &pathLock{}
		p.locks[path] = l
	}
	l.refs++
	p.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		p.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(p.locks, path)
		}
		p.mu.Unlock()
	}
}

// lockPair acquires locks for two paths in a stable order so that two
// concurrent moves touching the same pair cannot deadlock.
func (p *pathLocks) lockPair(a, b string) func() {
	if a == b {
		return p.lock(a)
	}
	if a > b {
		a, b = b, a
	}
	ua := p.lock(a)
	ub := p.lock(b)
	return func() {
		ub()
		ua()
	}
}
