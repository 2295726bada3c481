package console

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrefixer_Write(t *testing.T) {
	out := bytes.NewBuffer(nil)
	prefixer := NewPrefixer(out, "journalctl -kf --no-pager")

	n, err := prefixer.Write([]byte("first line of the output\n"))
	require.NoError(t, err)
	assert.Equal(t, 25, n)

	n, err = prefixer.Write([]byte("second line of the output\nthird "))
	require.NoError(t, err)
	assert.Equal(t, 32, n)

	n, err = prefixer.Write([]byte("continues\n"))
	require.NoError(t, err)
	assert.Equal(t, 10, n)

	n, err = prefixer.Write(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	expectedOutput :=
		"{journalctl -kf -...} first line of the output\n" +
			"{journalctl -kf -...} second line of the output\n" +
			"{journalctl -kf -...} third continues\n"
	assert.Equal(t, expectedOutput, out.String())
}

func TestPrefixer_SingleWritePerChunk(t *testing.T) {
	rec := &chunkRecorder{}
	prefixer := NewPrefixer(rec, "app")
	_, err := prefixer.Write([]byte("a\nb\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"{app} a\n{app} b\n"}, rec.chunks)
}

func TestPrefixer_WriteFailed(t *testing.T) {
	prefixer := NewPrefixer(failingWriter{}, "app")
	n, err := prefixer.Write([]byte("a\n"))
	require.Error(t, err)
	assert.Equal(t, 0, n)
}

func TestPrefixForTag(t *testing.T) {
	assert.Equal(t, []byte("{ls -la} "), prefixForTag("ls -la"))
	assert.Equal(t, []byte("{cat /var/lib/pid} "), prefixForTag("cat /var/lib/pid"))
	assert.Equal(t, []byte("{du /var/lib/moni...} "), prefixForTag("du /var/lib/monitoring"))
}

