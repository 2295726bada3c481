package snapshot

import (
	"encoding/binary"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/kmsglast/app/ring"
)

func TestSnapshot_Build(t *testing.T) {
	t.Run("hello world round trip", func(t *testing.T) {
		const capacity = 64
		region := make([]byte, ring.Size(capacity))
		copy(region, "hello\nworld")
		meta := region[capacity:]
		binary.LittleEndian.PutUint64(meta[0:], 11) // head after "world"
		binary.LittleEndian.PutUint64(meta[8:], 0)  // tail at start
		binary.LittleEndian.PutUint32(meta[16:], ring.Magic)
		r, err := ring.New(region)
		require.NoError(t, err)

		snap := New(capacity)
		n, err := snap.Build(r)
		require.NoError(t, err)
		assert.Equal(t, 11, n)
		assert.Equal(t, 11, snap.Len())
		assert.Equal(t, "hello\nworld", string(snap.Bytes()))
		assert.False(t, snap.BuiltAt().IsZero())

		st := r.State()
		assert.Equal(t, ring.State{Head: 0, Tail: 0, Marker: ring.Magic}, st, "ring reset for the new session")
	})

	t.Run("wrapped previous content", func(t *testing.T) {
		const capacity = 8
		region := make([]byte, ring.Size(capacity))
		copy(region, "ld\x01xxhe\n")
		meta := region[capacity:]
		binary.LittleEndian.PutUint64(meta[0:], 3)
		binary.LittleEndian.PutUint64(meta[8:], 5)
		binary.LittleEndian.PutUint32(meta[16:], ring.Magic)
		r, err := ring.New(region)
		require.NoError(t, err)

		snap := New(capacity)
		n, err := snap.Build(r)
		require.NoError(t, err)
		assert.Equal(t, 8-(5-3), n)
		assert.Equal(t, "he\nld!", string(snap.Bytes()))
	})

	t.Run("invalid marker", func(t *testing.T) {
		region := make([]byte, ring.Size(16))
		copy(region, "garbage garbage")
		binary.LittleEndian.PutUint64(region[16:], 5)
		r, err := ring.New(region)
		require.NoError(t, err)

		snap := New(16)
		n, err := snap.Build(r)
		require.NoError(t, err)
		assert.Equal(t, 0, n)
		assert.True(t, ring.Valid(r.State(), 16), "reset happens for invalid content too")
	})

	t.Run("cursor out of range", func(t *testing.T) {
		region := make([]byte, ring.Size(16))
		meta := region[16:]
		binary.LittleEndian.PutUint64(meta[0:], 16)
		binary.LittleEndian.PutUint32(meta[16:], ring.Magic)
		r, err := ring.New(region)
		require.NoError(t, err)

		snap := New(16)
		n, err := snap.Build(r)
		require.NoError(t, err)
		assert.Equal(t, 0, n)
	})

	t.Run("once", func(t *testing.T) {
		src := &sourceMock{content: "abc"}
		snap := New(16)
		n, err := snap.Build(src)
		require.NoError(t, err)
		assert.Equal(t, 3, n)

		n, err = snap.Build(src)
		require.ErrorIs(t, err, ErrBuilt)
		assert.Equal(t, 3, n)
		assert.Equal(t, []string{"salvage", "reset"}, src.calls, "second build doesn't touch the source")
	})
}

func TestSnapshot_ReadAt(t *testing.T) {
	snap := built(t, "0123456789")

	tests := []struct {
		name    string
		off     int64
		size    int
		want    string
		wantEOF bool
	}{
		{"whole", 0, 10, "0123456789", false},
		{"partial", 2, 3, "234", false},
		{"count clamped", 7, 10, "789", true},
		{"offset at length", 10, 4, "", true},
		{"offset beyond length", 100, 4, "", true},
		{"negative offset clamped", -5, 2, "01", false},
		{"empty buffer", 3, 0, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := make([]byte, tt.size)
			n, err := snap.ReadAt(p, tt.off)
			assert.Equal(t, tt.want, string(p[:n]))
			if tt.wantEOF {
				assert.ErrorIs(t, err, io.EOF)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestSnapshot_Write(t *testing.T) {
	snap := built(t, "previous session\n")
	n, err := snap.Write([]byte("anything at all"))
	require.NoError(t, err)
	assert.Equal(t, 15, n)
	assert.Equal(t, 0, snap.Len())

	p := make([]byte, 8)
	n, err = snap.ReadAt(p, 0)
	assert.Equal(t, 0, n)
	assert.ErrorIs(t, err, io.EOF)

	n, err = snap.Write(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, 0, snap.Len())
}

func TestSnapshot_ConcurrentReadErase(t *testing.T) {
	content := "abcdefghijklmnopqrstuvwxyz\n"
	snap := built(t, content)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				b, err := io.ReadAll(snap.Open())
				assert.NoError(t, err)
				if len(b) > 0 {
					assert.Equal(t, content, string(b))
				}
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		snap.Erase()
	}()
	wg.Wait()
	assert.Equal(t, 0, snap.Len())
}

func built(t *testing.T, content string) *Snapshot {
	t.Helper()
	snap := New(64)
	n, err := snap.Build(&sourceMock{content: content})
	require.NoError(t, err)
	require.Equal(t, len(content), n)
	return snap
}

type sourceMock struct {
	content string
	calls   []string
}

func (s *sourceMock) Capacity() int { return len(s.content) }

func (s *sourceMock) Salvage(dst []byte) int {
	s.calls = append(s.calls, "salvage")
	return copy(dst, s.content)
}

func (s *sourceMock) Reset() { s.calls = append(s.calls, "reset") }
