//go:build !baremetal

package blinkservice

import "sync"

// On hosts the callbacks arrive on D-Bus goroutines.
type critical struct {
	mu sync.Mutex
}

func (c *critical) lock()   { c.mu.Lock() }
func (c *critical) unlock() { c.mu.Unlock() }
