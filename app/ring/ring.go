package ring

import (
	"errors"
	"fmt"
)

// ErrRegionTooSmall returned by New if the region can't hold the cursor trailer and at least one data byte
var ErrRegionTooSmall = errors.New("region too small")

// Ring is a circular byte buffer with line granular eviction, backed by a caller provided region.
// Write is safe for concurrent use and never fails. The ring itself doesn't own the region.
type Ring struct {
	lock  spinlock
	data  []byte
	meta  []byte
	size  int
	stats Stats
}

// Stats counts what happened to the ring since the last Reset
type Stats struct {
	Written      uint64 `json:"written"`       // bytes accepted by Write
	EvictedBytes uint64 `json:"evicted_bytes"` // bytes dropped to make room
	EvictedLines uint64 `json:"evicted_lines"` // evictions that dropped a complete line
	Truncations  uint64 `json:"truncations"`   // evictions without a newline available, a single byte dropped
	Dropped      uint64 `json:"dropped"`       // bytes discarded because the region held no valid ring
}

// New makes Ring on top of region. The region content is not touched, so whatever the previous
// session left can still be recovered with Salvage before Reset.
func New(region []byte) (*Ring, error) {
	if len(region) <= MetaSize {
		return nil, fmt.Errorf("%w: %d bytes, need more than %d", ErrRegionTooSmall, len(region), MetaSize)
	}
	size := len(region) - MetaSize
	return &Ring{data: region[:size:size], meta: region[size:], size: size}, nil
}

// Capacity returns size of the data area
func (r *Ring) Capacity() int {
	return r.size
}

// State returns the cursor trailer as currently stored in the region
func (r *Ring) State() State {
	r.lock.acquire()
	defer r.lock.release()
	return decodeState(r.meta)
}

// Len returns the number of retained bytes, 0 if the region doesn't hold a valid ring
func (r *Ring) Len() int {
	r.lock.acquire()
	defer r.lock.release()
	st := decodeState(r.meta)
	if !Valid(st, r.size) {
		return 0
	}
	return span(int(st.Head), int(st.Tail), r.size)
}

// Stats returns a copy of the ring counters
func (r *Ring) Stats() Stats {
	r.lock.acquire()
	defer r.lock.release()
	return r.stats
}

// Write appends p, evicting the oldest lines as needed. It satisfies io.Writer and always
// reports the whole input as written. Nothing inside allocates or blocks.
// A region failing Valid is left as is and p is dropped, only Reset starts a session.
func (r *Ring) Write(p []byte) (int, error) {
	r.lock.acquire()
	defer r.lock.release()

	st := decodeState(r.meta)
	if !Valid(st, r.size) {
		r.stats.Dropped += uint64(len(p))
		return len(p), nil
	}

	head, tail := int(st.Head), int(st.Tail)
	for _, b := range p {
		r.data[head] = b
		head++
		if head == r.size {
			head = 0
		}
		if head == tail {
			tail = r.evict(tail)
		}
	}

	encodeCursors(r.meta, head, tail)
	r.stats.Written += uint64(len(p))
	return len(p), nil
}

// evict is called when head caught up with tail. It drops everything up to and including the
// oldest newline, keeping at least the byte just written. Without such newline a single byte goes.
func (r *Ring) evict(tail int) int {
	pos := tail
	for i := 0; i < r.size-1; i++ {
		b := r.data[pos]
		pos++
		if pos == r.size {
			pos = 0
		}
		if b == '\n' {
			r.stats.EvictedBytes += uint64(i + 1)
			r.stats.EvictedLines++
			return pos
		}
	}

	r.stats.EvictedBytes++
	r.stats.Truncations++
	tail++
	if tail == r.size {
		tail = 0
	}
	return tail
}

// Salvage copies the content between tail and head into dst, passing every byte through Sanitize,
// and returns the number of bytes copied. A region failing Valid yields 0. If dst is shorter than
// the content the oldest bytes are skipped. Cursors are not modified.
func (r *Ring) Salvage(dst []byte) int {
	r.lock.acquire()
	defer r.lock.release()

	st := decodeState(r.meta)
	if !Valid(st, r.size) {
		return 0
	}

	head, tail := int(st.Head), int(st.Tail)
	n := span(head, tail, r.size)
	if n > len(dst) {
		tail = (tail + n - len(dst)) % r.size
		n = len(dst)
	}

	for i := 0; i < n; i++ {
		dst[i] = Sanitize(r.data[tail])
		tail++
		if tail == r.size {
			tail = 0
		}
	}
	return n
}

// Reset starts a new session: both cursors go to the start of data and the marker is written.
func (r *Ring) Reset() {
	r.lock.acquire()
	defer r.lock.release()
	encodeCursors(r.meta, 0, 0)
	encodeMarker(r.meta)
	r.stats = Stats{}
}
