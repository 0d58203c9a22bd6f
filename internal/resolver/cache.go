package resolver

import (
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"pointake/internal/domain"
)

// soldToEntry is a cached customer decision with the candidate set it was made from.
type soldToEntry struct {
	id         string
	candidates []domain.Customer
}

// Caches memoizes resolutions for one batch run. Entries are write-once and are
// never invalidated; the whole value is dropped with the run.
type Caches struct {
	mu     sync.RWMutex
	soldTo map[string]soldToEntry
	shipTo map[string]string
	flight singleflight.Group
}

// NewCaches returns empty caches for a new run.
func NewCaches() *Caches {
	return &Caches{
		soldTo: make(map[string]soldToEntry),
		shipTo: make(map[string]string),
	}
}

func soldToKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func shipToKey(customerID, address string) string {
	return customerID + "_" + strings.ToLower(strings.TrimSpace(address))
}

func (c *Caches) getSoldTo(key string) (soldToEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.soldTo[key]
	return e, ok
}

// putSoldTo stores e unless key is already set and returns the stored entry.
func (c *Caches) putSoldTo(key string, e soldToEntry) soldToEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	if prev, ok := c.soldTo[key]; ok {
		return prev
	}
	c.soldTo[key] = e
	return e
}

func (c *Caches) getShipTo(key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.shipTo[key]
	return v, ok
}

func (c *Caches) putShipTo(key, code string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if prev, ok := c.shipTo[key]; ok {
		return prev
	}
	c.shipTo[key] = code
	return code
}

// Len returns the number of cached sold-to and ship-to entries.
func (c *Caches) Len() (soldTo, shipTo int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.soldTo), len(c.shipTo)
}
