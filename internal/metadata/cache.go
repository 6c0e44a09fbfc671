package metadata

import (
	"encoding/json"
	"sync"
)

// Cache holds client-supplied metadata keyed by file base name. Formats
// whose metadata lives in container structures this package does not
// parse (JPEG EXIF, video containers) depend on it entirely; for PNG
// and JSON it short-circuits a disk read.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*Payload
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]*Payload)}
}

// Put stores raw metadata JSON for a file. A wrapper carrying "prompt"
// or "workflow" keys is split; anything else is classified by shape.
// Unusable input is dropped and reported false.
func (c *Cache) Put(name string, raw []byte) bool {
	p := c.interpret(raw)
	if p.Empty() {
		return false
	}
	c.mu.Lock()
	c.entries[name] = p
	c.mu.Unlock()
	return true
}

func (c *Cache) interpret(raw []byte) *Payload {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return &Payload{}
	}
	_, hasPrompt := top["prompt"]
	_, hasWorkflow := top["workflow"]
	if hasPrompt || hasWorkflow {
		return &Payload{API: top["prompt"], Workflow: top["workflow"]}
	}
	return ClassifyJSON(raw)
}

// Get returns the cached payload for a file base name.
func (c *Cache) Get(name string) (*Payload, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.entries[name]
	return p, ok
}

// Forget drops one entry.
func (c *Cache) Forget(name string) {
	c.mu.Lock()
	delete(c.entries, name)
	c.mu.Unlock()
}

// Len reports the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
