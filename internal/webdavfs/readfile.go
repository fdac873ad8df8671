package webdavfs

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/puffious/rclone-pool/internal/manifest"
	"github.com/puffious/rclone-pool/internal/pool"
)

// readFile is a read-only webdav.File over one manifest's chunks. Reads
// are served through Pool.DownloadRange, so net/http's Range handling
// (driven by Seek) only ever fetches the chunks a given request actually
// needs.
type readFile struct {
	ctx  context.Context
	pool *pool.Pool
	m    *manifest.Manifest
	pos  int64
}

func newReadFile(ctx context.Context, p *pool.Pool, m *manifest.Manifest) *readFile {
	return &readFile{ctx: ctx, pool: p, m: m}
}

func (f *readFile) Read(p []byte) (int, error) {
	if f.pos >= f.m.FileSize {
		return 0, io.EOF
	}
	want := int64(len(p))
	if want == 0 {
		return 0, nil
	}
	if f.pos+want > f.m.FileSize {
		want = f.m.FileSize - f.pos
	}
	buf, err := f.pool.DownloadRange(f.ctx, f.m.FilePath, f.pos, want)
	if err != nil {
		return 0, err
	}
	n := copy(p, buf)
	f.pos += int64(n)
	return n, nil
}

func (f *readFile) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = f.pos + offset
	case io.SeekEnd:
		abs = f.m.FileSize + offset
	default:
		return 0, fmt.Errorf("webdavfs: invalid whence %d", whence)
	}
	if abs < 0 {
		return 0, fmt.Errorf("webdavfs: negative seek position %d", abs)
	}
	f.pos = abs
	return abs, nil
}

func (f *readFile) Write(p []byte) (int, error) {
	return 0, os.ErrPermission
}

func (f *readFile) Close() error { return nil }

func (f *readFile) Readdir(count int) ([]os.FileInfo, error) {
	return nil, fmt.Errorf("%s: not a directory", f.m.FilePath)
}

func (f *readFile) Stat() (os.FileInfo, error) {
	return fileInfoFromManifest(f.m), nil
}
