package chunkcodec

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindowsRejectsNonPositiveChunkSize(t *testing.T) {
	_, err := Windows(10, 0)
	require.Error(t, err)
	_, err = Windows(10, -1)
	require.Error(t, err)
}

func TestWindowsZeroSizeSourceYieldsOneEmptyWindow(t *testing.T) {
	w, err := Windows(0, 100)
	require.NoError(t, err)
	require.Len(t, w, 1)
	assert.Equal(t, Window{Index: 0, Offset: 0, Length: 0}, w[0])
}

func TestWindowsBoundaryChunkCounts(t *testing.T) {
	for _, tc := range []struct {
		size, chunkSize int64
		wantCount       int
	}{
		{100, 100, 1},
		{99, 100, 1},
		{101, 100, 2},
		{250, 100, 3},
	} {
		w, err := Windows(tc.size, tc.chunkSize)
		require.NoError(t, err)
		assert.Lenf(t, w, tc.wantCount, "size=%d chunkSize=%d", tc.size, tc.chunkSize)
	}
}

func TestWindowsFormGapFreePrefixSum(t *testing.T) {
	w, err := Windows(250, 100)
	require.NoError(t, err)
	require.Len(t, w, 3)
	assert.Equal(t, []int64{100, 100, 50}, []int64{w[0].Length, w[1].Length, w[2].Length})
	assert.Equal(t, []int64{0, 100, 200}, []int64{w[0].Offset, w[1].Offset, w[2].Offset})
	var sum int64
	for _, win := range w {
		sum += win.Length
	}
	assert.EqualValues(t, 250, sum)
}

func TestReadWindowAndReassembleRoundTrip(t *testing.T) {
	data := strings.Repeat("A", 250)
	src := bytes.NewReader([]byte(data))

	windows, err := Windows(int64(len(data)), 100)
	require.NoError(t, err)

	var chunks [][]byte
	for _, w := range windows {
		b, err := ReadWindow(src, w)
		require.NoError(t, err)
		chunks = append(chunks, b)
	}

	var out bytes.Buffer
	require.NoError(t, Reassemble(&out, chunks))
	assert.Equal(t, data, out.String())
}

func TestReadWindowZeroLength(t *testing.T) {
	src := bytes.NewReader(nil)
	b, err := ReadWindow(src, Window{Index: 0, Offset: 0, Length: 0})
	require.NoError(t, err)
	assert.Empty(t, b)
}
