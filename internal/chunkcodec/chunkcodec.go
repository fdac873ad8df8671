// Package chunkcodec splits a random-access byte source into fixed-size
// windows and reassembles them, the way rclone's own backend/chunker splits
// a composite file into numbered chunk objects — except here the split is a
// pure, stateless function over a size, not a wrapping Fs.
package chunkcodec

import (
	"io"

	"github.com/puffious/rclone-pool/internal/poolerrors"
)

// Window describes one chunk's position within the source: its index,
// absolute byte offset, and length. It carries no bytes itself — callers
// read Length bytes starting at Offset from whatever source they have.
type Window struct {
	Index  int
	Offset int64
	Length int64
}

// Windows computes the ordered sequence of chunk windows for a source of
// the given size and chunkSize, without reading any bytes. Callers stream
// the actual bytes themselves, keeping peak memory at O(chunkSize).
//
// A zero-byte source yields exactly one zero-length window at index 0, so
// every empty file still has a chunk to place, consistently applied by
// download/downloadRange and manifest validation.
func Windows(size, chunkSize int64) ([]Window, error) {
	if chunkSize <= 0 {
		return nil, poolerrors.Newf(poolerrors.KindInvalidChunkSize, "chunk size must be positive, got %d", chunkSize)
	}
	if size == 0 {
		return []Window{{Index: 0, Offset: 0, Length: 0}}, nil
	}
	count := (size + chunkSize - 1) / chunkSize
	windows := make([]Window, 0, count)
	var offset int64
	for i := int64(0); offset < size; i++ {
		length := chunkSize
		if remaining := size - offset; remaining < length {
			length = remaining
		}
		windows = append(windows, Window{Index: int(i), Offset: offset, Length: length})
		offset += length
	}
	return windows, nil
}

// Source is a random-access byte provider: exactly the shape an *os.File or
// a bytes.Reader already satisfies.
type Source interface {
	io.ReaderAt
}

// ReadWindow reads exactly w.Length bytes for w out of src.
func ReadWindow(src Source, w Window) ([]byte, error) {
	buf := make([]byte, w.Length)
	if w.Length == 0 {
		return buf, nil
	}
	if _, err := src.ReadAt(buf, w.Offset); err != nil && err != io.EOF {
		return nil, poolerrors.Wrap(poolerrors.KindTransportError, err, "read chunk window")
	}
	return buf, nil
}

// Reassemble concatenates chunk bytes (already in index order) into dst,
// the streaming counterpart of Windows: callers pull one window's bytes at
// a time from wherever they're stored and write them through in order.
func Reassemble(dst io.Writer, chunks [][]byte) error {
	for _, c := range chunks {
		if _, err := dst.Write(c); err != nil {
			return poolerrors.Wrap(poolerrors.KindTransportError, err, "reassemble chunk")
		}
	}
	return nil
}
