package pool

import (
	"context"
	"io"
	"sync"

	"github.com/puffious/rclone-pool/internal/manifest"
	"github.com/puffious/rclone-pool/internal/poolerrors"
)

// Download fetches every chunk in index order and streams it to dest.
// Terminal errors bubble as ChunkMissing or
// TransportError; bytes already written to dest before the failure are
// permitted to remain (the caller is told the download failed via the
// returned error).
func (p *Pool) Download(ctx context.Context, filePath string, dest io.Writer) error {
	m, err := p.store.Load(ctx, filePath)
	if err != nil {
		return err
	}
	for _, c := range m.Chunks {
		if c.Size == 0 {
			continue
		}
		buf, err := p.transport.GetBytes(ctx, c.Remote, c.Path)
		if err != nil {
			return poolerrors.Wrapf(poolerrors.KindChunkMissing, err, "chunk %d of %s", c.Index, filePath)
		}
		if _, err := dest.Write(buf); err != nil {
			return poolerrors.Wrap(poolerrors.KindTransportError, err, "write to destination")
		}
	}
	return nil
}

// fetch is one planned partial read of a chunk.
type fetch struct {
	chunkIdx int
	remote   string
	path     string
	skip     int64
	take     int64
}

// planRange computes the downloadRange fetch plan: for each chunk
// overlapping [absStart, absStart+length), the (skip, take) window to read
// from it. Chunks are assumed sorted by offset (as stored).
func planRange(chunks []manifest.ChunkDescriptor, absStart, length int64) []fetch {
	var plan []fetch
	remaining := length
	cursor := absStart
	for _, c := range chunks {
		if remaining <= 0 {
			break
		}
		cEnd := c.Offset + c.Size
		if cursor >= cEnd {
			continue
		}
		if c.Offset >= cursor+remaining {
			break
		}
		skip := cursor - c.Offset
		if skip < 0 {
			skip = 0
		}
		take := c.Size - skip
		if take > remaining {
			take = remaining
		}
		if take <= 0 {
			continue
		}
		plan = append(plan, fetch{chunkIdx: c.Index, remote: c.Remote, path: c.Path, skip: skip, take: take})
		cursor += take
		remaining -= take
	}
	return plan
}

// DownloadRange translates an absolute byte range into partial chunk
// fetches, issued concurrently (bounded by
// MaxParallelWorkers) but emitted to the caller in cursor order. A negative
// absStart or non-positive length fails with InvalidRange, and an absStart
// beyond the file's size fails with UnsatisfiableRange. Otherwise length is
// clamped to end-of-file; a range collapsing to zero bytes returns an empty
// slice.
func (p *Pool) DownloadRange(ctx context.Context, filePath string, absStart, length int64) ([]byte, error) {
	m, err := p.store.Load(ctx, filePath)
	if err != nil {
		return nil, err
	}
	if absStart < 0 || length <= 0 {
		return nil, poolerrors.New(poolerrors.KindInvalidRange, "range start must be non-negative and length positive")
	}
	if absStart > m.FileSize {
		return nil, poolerrors.Newf(poolerrors.KindUnsatisfiableRange, "range start %d beyond file size %d", absStart, m.FileSize)
	}
	if absStart+length > m.FileSize {
		length = m.FileSize - absStart
	}
	if length == 0 {
		return []byte{}, nil
	}

	plan := planRange(m.Chunks, absStart, length)
	results := make([][]byte, len(plan))

	maxParallel := 1
	if p.cfg != nil && p.cfg.MaxParallelWorkers > 0 {
		maxParallel = p.cfg.MaxParallelWorkers
	}
	sem := make(chan struct{}, maxParallel)
	var wg sync.WaitGroup
	errs := make([]error, len(plan))
	for i, f := range plan {
		i, f := i, f
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			b, err := p.transport.GetRange(ctx, f.remote, f.path, f.skip, f.take)
			if err != nil {
				errs[i] = poolerrors.Wrapf(poolerrors.KindChunkMissing, err, "chunk %d of %s", f.chunkIdx, filePath)
				return
			}
			results[i] = b
		}()
	}
	wg.Wait()

	for _, e := range errs {
		if e != nil {
			return nil, e
		}
	}

	out := make([]byte, 0, length)
	for _, r := range results {
		out = append(out, r...)
	}
	return out, nil
}
