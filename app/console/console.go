// Package console delivers raw log chunks to registered sinks. Delivery never blocks on a sink
// error and never rejects input, a failing sink just misses the chunk.
package console

import (
	"io"
	"sort"
	"sync"
)

// Console is a registry of named sinks, itself an io.Writer fanning chunks out to all of them
type Console struct {
	mu    sync.RWMutex
	sinks map[string]io.Writer
}

// New makes Console without sinks
func New() *Console {
	return &Console{sinks: map[string]io.Writer{}}
}

// Register adds sink under name, replacing the one registered with the same name
func (c *Console) Register(name string, w io.Writer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sinks[name] = w
}

// Unregister removes sink by name
func (c *Console) Unregister(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sinks, name)
}

// Names returns sorted names of registered sinks
func (c *Console) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	res := make([]string, 0, len(c.sinks))
	for name := range c.sinks {
		res = append(res, name)
	}
	sort.Strings(res)
	return res
}

// Write passes p to every sink and always reports success. Errors are not logged here,
// the logger itself may be one of the writers feeding the console.
func (c *Console) Write(p []byte) (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, w := range c.sinks {
		_, _ = w.Write(p)
	}
	return len(p), nil
}
