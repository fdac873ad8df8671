package webdavfs

import (
	"context"
	"fmt"
	"os"
	"path"
	"time"

	"github.com/puffious/rclone-pool/internal/pool"
)

// writeFile buffers a PUT body to a temp file under the pool's configured
// tempDir, then uploads it as a new manifest on Close, mirroring how
// Pool.Upload itself stages chunks before placing them.
type writeFile struct {
	ctx    context.Context
	pool   *pool.Pool
	path   string
	now    func() float64
	tmp    *os.File
	closed bool
}

func newWriteFile(ctx context.Context, p *pool.Pool, virtualPath string, now func() float64) (*writeFile, error) {
	if err := os.MkdirAll(p.TempDir(), 0o700); err != nil {
		return nil, err
	}
	f, err := os.CreateTemp(p.TempDir(), "put-*")
	if err != nil {
		return nil, err
	}
	return &writeFile{ctx: ctx, pool: p, path: virtualPath, now: now, tmp: f}, nil
}

func (f *writeFile) Write(p []byte) (int, error) {
	return f.tmp.Write(p)
}

func (f *writeFile) Read(p []byte) (int, error) {
	return 0, os.ErrPermission
}

func (f *writeFile) Seek(offset int64, whence int) (int64, error) {
	return f.tmp.Seek(offset, whence)
}

func (f *writeFile) Readdir(count int) ([]os.FileInfo, error) {
	return nil, fmt.Errorf("%s: not a directory", f.path)
}

func (f *writeFile) Stat() (os.FileInfo, error) {
	info, err := f.tmp.Stat()
	if err != nil {
		return nil, err
	}
	return FileInfo{name: path.Base(f.path), size: info.Size(), modTime: time.Unix(int64(f.now()), 0)}, nil
}

func (f *writeFile) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true
	defer os.Remove(f.tmp.Name())
	if err := f.tmp.Close(); err != nil {
		return err
	}
	_, err := f.pool.Upload(f.ctx, f.tmp.Name(), f.path, true, f.now())
	return err
}
