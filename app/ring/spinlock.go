package ring

import (
	"runtime"
	"sync/atomic"
)

// spinlock busy-waits instead of parking the goroutine. Sections guarded by it are bounded
// by the ring capacity and must not block or allocate.
type spinlock struct {
	state atomic.Uint32
}

func (l *spinlock) acquire() {
	for !l.state.CompareAndSwap(0, 1) {
		runtime.Gosched()
	}
}

// tryToAcquire returns true if the lock was free and is now held
func (l *spinlock) tryToAcquire() bool {
	return l.state.CompareAndSwap(0, 1)
}

// release frees the lock, calling it on a free lock has no effect
func (l *spinlock) release() {
	l.state.Store(0)
}
