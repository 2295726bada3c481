// Package region provides memory blocks for the capture ring. A block may come back with content
// left by a previous process, nothing here interprets that content.
package region

import (
	"errors"
	"fmt"
)

// ErrSize returned for a non-positive region size
var ErrSize = errors.New("invalid region size")

// Region is a fixed size block of memory living for the process lifetime
type Region interface {
	Bytes() []byte
	Sync() error
	Close() error
}

// Heap is a process private region, zeroed on allocation and lost on exit
type Heap struct {
	data []byte
}

// NewHeap allocates a heap region
func NewHeap(size int) (*Heap, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrSize, size)
	}
	return &Heap{data: make([]byte, size)}, nil
}

// Bytes returns the whole block
func (h *Heap) Bytes() []byte { return h.data }

// Sync does nothing, heap memory has no backing store
func (h *Heap) Sync() error { return nil }

// Close does nothing
func (h *Heap) Close() error { return nil }

func (h *Heap) String() string { return fmt.Sprintf("heap:%d", len(h.data)) }
