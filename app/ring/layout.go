// Package ring implements the capture ring buffer kept in a memory region that may survive a restart.
// The region is laid out as [data: capacity bytes][head: uint64][tail: uint64][marker: uint32], all
// integers little endian. Head and tail are offsets into data, never pointers. Nothing read from a region
// is trusted until Valid accepts it, the bytes may be left over from a previous session or be garbage.
package ring

import "encoding/binary"

const (
	// Magic is the sentinel written once per session, used by the next session to accept the region
	Magic uint32 = 0x4B4D5347

	// DefaultCapacity is the size of the data area used when nothing else is configured
	DefaultCapacity = 8192

	// MetaSize is the size of the cursor trailer following the data area
	MetaSize = 8 + 8 + 4
)

const (
	offHead   = 0
	offTail   = 8
	offMarker = 16
)

// Size returns the region size required for a ring with the given data capacity
func Size(capacity int) int {
	return capacity + MetaSize
}

// State is the raw cursor trailer as found in a region
type State struct {
	Head   uint64
	Tail   uint64
	Marker uint32
}

// Valid reports whether st can be trusted as cursors into a data area of the given capacity.
// Offsets are compared as unsigned values, so negative or huge garbage fails the bounds test.
func Valid(st State, capacity int) bool {
	if capacity <= 0 {
		return false
	}
	return st.Marker == Magic && st.Head < uint64(capacity) && st.Tail < uint64(capacity)
}

func decodeState(meta []byte) State {
	return State{
		Head:   binary.LittleEndian.Uint64(meta[offHead:]),
		Tail:   binary.LittleEndian.Uint64(meta[offTail:]),
		Marker: binary.LittleEndian.Uint32(meta[offMarker:]),
	}
}

func encodeCursors(meta []byte, head, tail int) {
	binary.LittleEndian.PutUint64(meta[offHead:], uint64(head))
	binary.LittleEndian.PutUint64(meta[offTail:], uint64(tail))
}

func encodeMarker(meta []byte) {
	binary.LittleEndian.PutUint32(meta[offMarker:], Magic)
}

// span is the number of bytes between tail and head going forward, wrapping at size
func span(head, tail, size int) int {
	if tail > head {
		return size - (tail - head)
	}
	return head - tail
}
