package snapshot

import (
	"errors"
	"fmt"
	"io"
)

// ErrInvalidSeek returned by Seek for a negative resulting position or unknown whence
var ErrInvalidSeek = errors.New("invalid seek")

// File is a position tracking view of a Snapshot, like an open file descriptor.
// Read advances the position by the bytes actually returned, Write erases the snapshot.
// File is not safe for concurrent use, the Snapshot under it is.
type File struct {
	snap *Snapshot
	pos  int64
}

// Read reads from the current position
func (f *File) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	n, err := f.snap.ReadAt(p, f.pos)
	f.pos += int64(n)
	if n > 0 && errors.Is(err, io.EOF) {
		return n, nil // report EOF on the next call
	}
	return n, err
}

// Write erases the snapshot and consumes p whole
func (f *File) Write(p []byte) (int, error) {
	return f.snap.Write(p)
}

// Seek sets the position relative to start, current position or the current length.
// Positions beyond the length are allowed and read nothing.
func (f *File) Seek(offset int64, whence int) (int64, error) {
	var base int64
	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		base = f.pos
	case io.SeekEnd:
		base = int64(f.snap.Len())
	default:
		return f.pos, fmt.Errorf("%w: whence %d", ErrInvalidSeek, whence)
	}

	pos := base + offset
	if pos < 0 {
		return f.pos, fmt.Errorf("%w: position %d", ErrInvalidSeek, pos)
	}
	f.pos = pos
	return pos, nil
}

// Pos returns the current position
func (f *File) Pos() int64 {
	return f.pos
}
