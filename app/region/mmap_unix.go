//go:build linux || darwin || freebsd || netbsd || openbsd

package region

import (
	"fmt"
	"os"
	"path/filepath"

	log "github.com/go-pkgz/lgr"
	"golang.org/x/sys/unix"
)

// Mapped is a shared file mapping. Pages written by one process are seen by the next process mapping
// the same file, so the content survives a restart. On tmpfs (/dev/shm) it is gone after a reboot.
type Mapped struct {
	path   string
	data   []byte
	reused bool
}

// Open maps the file at path, creating or resizing it to size bytes. Existing content of a file with
// the right size is kept as is.
func Open(path string, size int) (*Mapped, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrSize, size)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("can't make region directory for %s: %w", path, err)
	}

	fh, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600) //nolint:gosec // path comes from the operator
	if err != nil {
		return nil, fmt.Errorf("can't open region file %s: %w", path, err)
	}
	defer fh.Close() // the mapping stays valid after close

	fi, err := fh.Stat()
	if err != nil {
		return nil, fmt.Errorf("can't stat region file %s: %w", path, err)
	}

	reused := fi.Size() == int64(size)
	if !reused {
		log.Printf("[DEBUG] region file %s size %d, resizing to %d", path, fi.Size(), size)
		if err = fh.Truncate(int64(size)); err != nil {
			return nil, fmt.Errorf("can't resize region file %s: %w", path, err)
		}
	}

	data, err := unix.Mmap(int(fh.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("can't map region file %s: %w", path, err)
	}
	return &Mapped{path: path, data: data, reused: reused}, nil
}

// Bytes returns the mapped block
func (m *Mapped) Bytes() []byte { return m.data }

// Reused reports whether the file existed with the expected size, i.e. may hold a previous session
func (m *Mapped) Reused() bool { return m.reused }

// Sync flushes dirty pages to the backing file. Not needed to survive a process restart, only
// for files on real disks expected to outlive a host crash.
func (m *Mapped) Sync() error {
	if m.data == nil {
		return nil
	}
	if err := unix.Msync(m.data, unix.MS_SYNC); err != nil {
		return fmt.Errorf("can't sync region %s: %w", m.path, err)
	}
	return nil
}

// Close unmaps the block, Bytes must not be used afterwards
func (m *Mapped) Close() error {
	if m.data == nil {
		return nil
	}
	if err := unix.Munmap(m.data); err != nil {
		return fmt.Errorf("can't unmap region %s: %w", m.path, err)
	}
	m.data = nil
	return nil
}

func (m *Mapped) String() string { return fmt.Sprintf("mmap:%s:%d", m.path, len(m.data)) }
