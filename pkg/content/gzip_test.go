package content

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompressDecompress(t *testing.T) {
	t.Parallel()

	body := []byte("hello hello hello hello hello")
	packed := Compress(body)

	got, err := Decompress(packed)
	require.NoError(t, err)
	assert.Equal(t, body, got)
}

func TestCompress_ShrinksRepetitiveInput(t *testing.T) {
	t.Parallel()

	body := bytes.Repeat([]byte{0}, 1<<20)
	packed := Compress(body)
	assert.Less(t, len(packed), len(body))
}

func TestDecompress_MalformedInput(t *testing.T) {
	t.Parallel()

	_, err := Decompress([]byte("definitely not gzip"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDecodeFailed)
}

func TestDecompress_TruncatedStream(t *testing.T) {
	t.Parallel()

	packed := Compress([]byte("some content that will be cut short"))
	_, err := Decompress(packed[:len(packed)-4])
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDecodeFailed)
}
