package builder

import "sync"

// lockTable provides per-project-name mutual exclusion. A project's lock is
// held from the moment a build is accepted until its background task
// finishes, so two triggers for the same name can never interleave their
// fetch, scaffold and build steps on the same directory.
type lockTable struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func newLockTable() *lockTable {
	return &lockTable{held: make(map[string]struct{})}
}

// tryAcquire takes the lock for name if it is free. It never blocks: a
// concurrent trigger is rejected, not queued.
func (t *lockTable) tryAcquire(name string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.held[name]; ok {
		return false
	}
	t.held[name] = struct{}{}
	return true
}

func (t *lockTable) release(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.held, name)
}
