package region

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHeap(t *testing.T) {
	h, err := NewHeap(128)
	require.NoError(t, err)
	assert.Len(t, h.Bytes(), 128)
	assert.NoError(t, h.Sync())
	assert.NoError(t, h.Close())
	assert.Equal(t, "heap:128", h.String())

	_, err = NewHeap(0)
	require.ErrorIs(t, err, ErrSize)
}
