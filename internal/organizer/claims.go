package organizer

import "sync"

// claimSet hands out per-destination locks. Entries are reference counted
// and dropped once the last holder releases.
type claimSet struct {
	mu    sync.Mutex
	locks map[string]*claim
}

type claim struct {
	mu   sync.Mutex
	refs int
}

func newClaimSet() *claimSet {
	return &claimSet{locks: make(map[string]*claim)}
}

func (c *claimSet) acquire(key string) func() {
	c.mu.Lock()
	cl, ok := c.locks[key]
	if !ok {
		cl = &claim{}
		c.locks[key] = cl
	}
	cl.refs++
	c.mu.Unlock()

	cl.mu.Lock()
	return func() {
		cl.mu.Unlock()
		c.mu.Lock()
		cl.refs--
		if cl.refs == 0 {
			delete(c.locks, key)
		}
		c.mu.Unlock()
	}
}

func (c *claimSet) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.locks)
}
