package qiwi

import "sync"

// Cache is an identity map from bill id to Bill. It guarantees at most
// one instance per id: reconciling a payload for a known id patches the
// existing instance in place, so external holders keep observing the
// freshest state through the same pointer. Concurrent reconciliations are
// last-write-wins.
type Cache struct {
	manager *Manager

	mu    sync.Mutex
	bills map[string]*Bill
}

func newCache(manager *Manager) *Cache {
	return &Cache{
		manager: manager,
		bills:   make(map[string]*Bill),
	}
}

// Get returns the cached bill for the id, or nil.
func (c *Cache) Get(billID string) *Bill {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bills[billID]
}

// Add reconciles a server payload into the cache: a known id is patched
// in place and the existing instance returned, an unknown id produces a
// new Bill.
func (c *Cache) Add(p BillPayload) (*Bill, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.bills[p.BillID]; ok {
		if err := existing.patch(p); err != nil {
			return nil, err
		}
		return existing, nil
	}

	bill, err := newBill(c.manager, p)
	if err != nil {
		return nil, err
	}
	c.bills[bill.id] = bill
	return bill, nil
}

// Len returns the number of cached bills.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.bills)
}
