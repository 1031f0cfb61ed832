package textutil_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Sumatoshi-tech/pyprune/pkg/textutil"
)

func TestIsBinary(t *testing.T) {
	t.Parallel()

	assert.False(t, textutil.IsBinary(nil))
	assert.False(t, textutil.IsBinary([]byte("import os\n")))
	assert.True(t, textutil.IsBinary([]byte("\x00start")))
	assert.True(t, textutil.IsBinary([]byte("import\x00os")))
}

func TestIsBinary_SniffBoundary(t *testing.T) {
	t.Parallel()

	data := make([]byte, textutil.BinarySniffLength+100)
	for i := range data {
		data[i] = 'a'
	}

	data[textutil.BinarySniffLength+50] = 0x00
	assert.False(t, textutil.IsBinary(data))

	data[textutil.BinarySniffLength-1] = 0x00
	assert.True(t, textutil.IsBinary(data))
}

func TestCountLines_MatchesSplitLines(t *testing.T) {
	t.Parallel()

	for _, src := range []string{"", "a", "a\n", "a\r\nb", "\n\n", "x = 1\nimport os"} {
		assert.Len(t, textutil.SplitLines([]byte(src)), textutil.CountLines([]byte(src)), "%q", src)
	}
}
