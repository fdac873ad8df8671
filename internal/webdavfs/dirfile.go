package webdavfs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"

	"github.com/puffious/rclone-pool/internal/pool"
)

// dirFile is a webdav.File over a synthesized directory: its entries are
// recomputed from the pool's manifests the first time Readdir is called.
type dirFile struct {
	ctx     context.Context
	pool    *pool.Pool
	path    string
	entries []os.FileInfo
	loaded  bool
	pos     int
}

func newDirFile(ctx context.Context, p *pool.Pool, dirPath string) *dirFile {
	return &dirFile{ctx: ctx, pool: p, path: dirPath}
}

func (f *dirFile) load() error {
	if f.loaded {
		return nil
	}
	fsys := &FS{Pool: f.pool}
	children, err := fsys.children(f.ctx, f.path)
	if err != nil {
		return err
	}
	f.entries = make([]os.FileInfo, len(children))
	for i, c := range children {
		f.entries[i] = c
	}
	f.loaded = true
	return nil
}

func (f *dirFile) Read(p []byte) (int, error) {
	return 0, fmt.Errorf("%s: is a directory", f.path)
}

func (f *dirFile) Seek(offset int64, whence int) (int64, error) {
	return 0, fmt.Errorf("%s: is a directory", f.path)
}

func (f *dirFile) Write(p []byte) (int, error) {
	return 0, os.ErrPermission
}

func (f *dirFile) Close() error { return nil }

func (f *dirFile) Readdir(count int) ([]os.FileInfo, error) {
	if err := f.load(); err != nil {
		return nil, err
	}
	if count <= 0 {
		out := f.entries[f.pos:]
		f.pos = len(f.entries)
		return out, nil
	}
	end := f.pos + count
	if end > len(f.entries) {
		end = len(f.entries)
	}
	out := f.entries[f.pos:end]
	f.pos = end
	if len(out) == 0 {
		return nil, io.EOF
	}
	return out, nil
}

func (f *dirFile) Stat() (os.FileInfo, error) {
	return dirInfo(path.Base(f.path)), nil
}
