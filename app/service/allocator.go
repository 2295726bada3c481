package service

import (
	"fmt"
	"os"

	"github.com/umputun/kmsglast/app/region"
)

// FileAllocator maps a shared file, content survives a restart of the process but not of the host
type FileAllocator struct {
	Path string
}

// Allocate maps size bytes of the file, keeping its content if the size matches.
// A new or resized file is allocated only if there is room for it.
func (a FileAllocator) Allocate(size int) (region.Region, error) {
	if fi, err := os.Stat(a.Path); err != nil || fi.Size() != int64(size) {
		if err := region.CheckSpace(a.Path, size); err != nil {
			return nil, fmt.Errorf("can't allocate %s: %w", a.Path, err)
		}
	}
	return region.Open(a.Path, size)
}

// HeapAllocator provides process private memory, nothing survives a restart
type HeapAllocator struct{}

// Allocate makes a zeroed heap region
func (HeapAllocator) Allocate(size int) (region.Region, error) {
	return region.NewHeap(size)
}
