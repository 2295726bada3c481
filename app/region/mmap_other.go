//go:build !(linux || darwin || freebsd || netbsd || openbsd)

package region

import (
	"errors"
	"fmt"
)

// ErrUnsupported returned by Open on platforms without shared file mappings
var ErrUnsupported = errors.New("shared mapping not supported")

// Mapped is not available on this platform
type Mapped struct{}

// Open always fails here, callers fall back to an inert recorder
func Open(path string, size int) (*Mapped, error) {
	return nil, fmt.Errorf("%w: %s (%d bytes)", ErrUnsupported, path, size)
}

// Bytes returns nil
func (m *Mapped) Bytes() []byte { return nil }

// Reused returns false
func (m *Mapped) Reused() bool { return false }

// Sync does nothing
func (m *Mapped) Sync() error { return nil }

// Close does nothing
func (m *Mapped) Close() error { return nil }
