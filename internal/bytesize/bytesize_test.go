package bytesize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Parallel()

	cases := []struct {
		input string
		want  ByteSize
	}{
		{"0", 0},
		{"1024", 1024},
		{"1Ki", KiB},
		{"10Mi", 10 * MiB},
		{"200Mi", 200 * MiB},
		{"1GiB", GiB},
		{"100MB", 100 * MB},
		{"1.5Ki", 1536},
		{" 64 kib ", 64 * KiB},
	}

	for _, tc := range cases {
		got, err := Parse(tc.input)
		require.NoError(t, err, "input %q", tc.input)
		assert.Equal(t, tc.want, got, "input %q", tc.input)
	}
}

func TestParseInvalid(t *testing.T) {
	t.Parallel()

	for _, input := range []string{"", "  ", "abc", "10XB", "-5Mi", "Mi10"} {
		_, err := Parse(input)
		assert.Error(t, err, "input %q", input)
	}
}

func TestUnmarshalText(t *testing.T) {
	t.Parallel()

	var b ByteSize
	require.NoError(t, b.UnmarshalText([]byte("10Mi")))
	assert.Equal(t, 10*MiB, b)

	assert.Error(t, b.UnmarshalText([]byte("nonsense")))
}

func TestString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "512B", ByteSize(512).String())
	assert.Equal(t, "1.00KiB", KiB.String())
	assert.Equal(t, "10.00MiB", (10 * MiB).String())
	assert.Equal(t, "2.00GiB", (2 * GiB).String())
}
