package snapshot

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFile_Read(t *testing.T) {
	snap := built(t, "line one\nline two\n")

	t.Run("partial reads advance position", func(t *testing.T) {
		f := snap.Open()
		p := make([]byte, 5)
		var got []byte
		for {
			n, err := f.Read(p)
			got = append(got, p[:n]...)
			if err == io.EOF {
				break
			}
			require.NoError(t, err)
		}
		assert.Equal(t, "line one\nline two\n", string(got))
		assert.Equal(t, int64(18), f.Pos())
	})

	t.Run("read all", func(t *testing.T) {
		b, err := io.ReadAll(snap.Open())
		require.NoError(t, err)
		assert.Equal(t, "line one\nline two\n", string(b))
	})

	t.Run("zero length read", func(t *testing.T) {
		f := snap.Open()
		n, err := f.Read(nil)
		require.NoError(t, err)
		assert.Equal(t, 0, n)
		assert.Equal(t, int64(0), f.Pos())
	})
}

func TestFile_Seek(t *testing.T) {
	snap := built(t, "0123456789")
	f := snap.Open()

	pos, err := f.Seek(4, io.SeekStart)
	require.NoError(t, err)
	assert.Equal(t, int64(4), pos)

	pos, err = f.Seek(2, io.SeekCurrent)
	require.NoError(t, err)
	assert.Equal(t, int64(6), pos)

	b, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "6789", string(b))

	pos, err = f.Seek(-3, io.SeekEnd)
	require.NoError(t, err)
	assert.Equal(t, int64(7), pos)

	pos, err = f.Seek(100, io.SeekStart)
	require.NoError(t, err)
	assert.Equal(t, int64(100), pos)
	n, err := f.Read(make([]byte, 4))
	assert.Equal(t, 0, n)
	assert.ErrorIs(t, err, io.EOF)

	_, err = f.Seek(-1, io.SeekStart)
	require.ErrorIs(t, err, ErrInvalidSeek)
	assert.Equal(t, int64(100), f.Pos(), "failed seek keeps position")

	_, err = f.Seek(0, 42)
	require.ErrorIs(t, err, ErrInvalidSeek)
}

func TestFile_Write(t *testing.T) {
	snap := built(t, "some content")
	f := snap.Open()
	_, err := f.Seek(5, io.SeekStart)
	require.NoError(t, err)

	n, err := f.Write([]byte("xyz"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 0, snap.Len())

	n, err = f.Read(make([]byte, 10))
	assert.Equal(t, 0, n)
	assert.ErrorIs(t, err, io.EOF)

	pos, err := f.Seek(0, io.SeekEnd)
	require.NoError(t, err)
	assert.Equal(t, int64(0), pos)
}
