// Package snapshot keeps the sanitized content salvaged from the previous session. The snapshot is
// built once, stays immutable afterwards and can only be erased. Reads and erase are serialized,
// so a reader never sees a length that doesn't match the storage.
package snapshot

import (
	"errors"
	"io"
	"sync"
	"time"
)

// ErrBuilt returned on the second Build call
var ErrBuilt = errors.New("snapshot already built")

// Source is what the previous session left, the ring region in practice
type Source interface {
	Capacity() int
	Salvage(dst []byte) int
	Reset()
}

// Snapshot is the linear buffer holding the previous session. Zero length means no history.
type Snapshot struct {
	mu      sync.RWMutex
	data    []byte
	length  int
	built   bool
	builtAt time.Time
}

// New makes an empty snapshot able to hold capacity bytes
func New(capacity int) *Snapshot {
	return &Snapshot{data: make([]byte, max(capacity, 0))}
}

// Build copies the sanitized previous content from src and then resets src for the new session.
// The reset happens strictly after the copy, src must not be written to before Build returns.
// It returns the snapshot length, 0 for an invalid or empty source.
func (s *Snapshot) Build(src Source) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.built {
		return s.length, ErrBuilt
	}

	s.length = src.Salvage(s.data)
	src.Reset()
	s.built = true
	s.builtAt = time.Now()
	return s.length, nil
}

// Len returns number of valid bytes
func (s *Snapshot) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.length
}

// Capacity returns the size of the storage
func (s *Snapshot) Capacity() int {
	return len(s.data)
}

// BuiltAt returns the time of Build, zero if not built
func (s *Snapshot) BuiltAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.builtAt
}

// ReadAt copies up to len(p) bytes starting at off. The offset is clamped into [0, length] and the
// count so that off+count never passes length. io.EOF is returned when fewer than len(p) bytes were
// available, reading past the end is not a fault.
func (s *Snapshot) ReadAt(p []byte, off int64) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	length := int64(s.length)
	off = min(max(off, 0), length)
	n := copy(p, s.data[off:length])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Bytes returns a copy of the content
func (s *Snapshot) Bytes() []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]byte, s.length)
	copy(res, s.data[:s.length])
	return res
}

// Erase discards the content. Erased snapshot never grows back.
func (s *Snapshot) Erase() {
	s.mu.Lock()
	s.length = 0
	s.mu.Unlock()
}

// Write erases the snapshot whatever p holds and reports all of p as consumed
func (s *Snapshot) Write(p []byte) (int, error) {
	s.Erase()
	return len(p), nil
}

// Open returns a File positioned at the start
func (s *Snapshot) Open() *File {
	return &File{snap: s}
}
