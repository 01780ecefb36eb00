package driver

import "sync"

// minimal per-process cache by unit path + digest
type cached struct {
	digest  Digest
	payload *Payload
}

// UnitCache keeps link payloads in memory for repeated runs in one process.
type UnitCache struct {
	mu     sync.RWMutex
	byPath map[string]cached
}

// NewUnitCache creates a UnitCache with the given capacity hint.
func NewUnitCache(capHint int) *UnitCache {
	return &UnitCache{byPath: make(map[string]cached, capHint)}
}

// Get returns the payload stored for path if it was made from digest.
func (c *UnitCache) Get(path string, digest Digest) (*Payload, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.RLock()
	rec, ok := c.byPath[path]
	c.mu.RUnlock()
	if !ok || rec.digest != digest {
		return nil, false
	}
	return rec.payload, true
}

// Put replaces the entry for p.Path.
func (c *UnitCache) Put(p *Payload) {
	if c == nil || p == nil {
		return
	}
	c.mu.Lock()
	c.byPath[p.Path] = cached{digest: p.Digest, payload: p}
	c.mu.Unlock()
}
