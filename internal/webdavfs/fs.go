// Package webdavfs adapts a *pool.Pool to golang.org/x/net/webdav's
// FileSystem interface, so the pool's chunked, manifest-backed files can be
// served over WebDAV without the protocol engine knowing anything about
// chunking, remotes, or manifests.
package webdavfs

import (
	"context"
	"os"
	"path"
	"strings"
	"time"

	"golang.org/x/net/webdav"

	"github.com/puffious/rclone-pool/internal/pool"
	"github.com/puffious/rclone-pool/internal/poolerrors"
)

// FS is a webdav.FileSystem backed by a Pool. Directories are never
// persisted; they're synthesized on demand from the set of manifest paths
// sharing a prefix.
type FS struct {
	Pool *pool.Pool

	// Now supplies the creation timestamp for uploads; overridable in
	// tests, defaults to the wall clock.
	Now func() float64
}

// New builds an FS over p.
func New(p *pool.Pool) *FS {
	return &FS{Pool: p, Now: func() float64 { return float64(time.Now().Unix()) }}
}

func clean(name string) string {
	if name == "" {
		return "/"
	}
	return path.Clean("/" + strings.TrimPrefix(name, "/"))
}

// Mkdir is a no-op: directories are virtual and MKCOL never changes state.
func (fs *FS) Mkdir(ctx context.Context, name string, perm os.FileMode) error {
	return nil
}

// OpenFile opens name for reading or, when the write flags are set,
// returns a handle that buffers the written bytes and uploads them as a
// new manifest on Close.
func (fs *FS) OpenFile(ctx context.Context, name string, flag int, perm os.FileMode) (webdav.File, error) {
	name = clean(name)
	if flag&(os.O_WRONLY|os.O_RDWR) != 0 {
		return newWriteFile(ctx, fs.Pool, name, fs.Now)
	}
	return fs.openRead(ctx, name)
}

func (fs *FS) openRead(ctx context.Context, name string) (webdav.File, error) {
	if name == "/" {
		return newDirFile(ctx, fs.Pool, name), nil
	}
	m, err := fs.Pool.Store().Load(ctx, name)
	if err == nil {
		return newReadFile(ctx, fs.Pool, m), nil
	}
	if poolerrors.Kind(err) != poolerrors.KindManifestNotFound {
		return nil, err
	}
	if ok, derr := fs.isDir(ctx, name); derr == nil && ok {
		return newDirFile(ctx, fs.Pool, name), nil
	}
	return nil, os.ErrNotExist
}

// Stat resolves name to either a file manifest or a synthesized directory.
func (fs *FS) Stat(ctx context.Context, name string) (os.FileInfo, error) {
	name = clean(name)
	if name == "/" {
		return dirInfo("/"), nil
	}
	m, err := fs.Pool.Store().Load(ctx, name)
	if err == nil {
		return fileInfoFromManifest(m), nil
	}
	if poolerrors.Kind(err) != poolerrors.KindManifestNotFound {
		return nil, err
	}
	if ok, derr := fs.isDir(ctx, name); derr == nil && ok {
		return dirInfo(name), nil
	}
	return nil, os.ErrNotExist
}

// RemoveAll deletes the manifest at name. Virtual directories cannot be
// removed directly; deleting every file under one makes it disappear on
// its own.
func (fs *FS) RemoveAll(ctx context.Context, name string) error {
	name = clean(name)
	err := fs.Pool.Delete(ctx, name)
	if poolerrors.Kind(err) == poolerrors.KindManifestNotFound {
		return os.ErrNotExist
	}
	return err
}

// Rename renames a file's manifest in place; chunks are never moved.
func (fs *FS) Rename(ctx context.Context, oldName, newName string) error {
	_, err := fs.Pool.Move(ctx, clean(oldName), clean(newName))
	return err
}

// isDir reports whether any manifest's path is nested under dirPath.
func (fs *FS) isDir(ctx context.Context, dirPath string) (bool, error) {
	children, err := fs.children(ctx, dirPath)
	if err != nil {
		return false, err
	}
	return len(children) > 0, nil
}

// children returns the immediate entries (files and synthesized
// subdirectories) one level under dirPath.
func (fs *FS) children(ctx context.Context, dirPath string) ([]FileInfo, error) {
	prefix := dirPath
	if prefix != "/" {
		prefix += "/"
	}
	summaries, err := fs.Pool.List(ctx, prefix)
	if err != nil {
		return nil, err
	}

	seenDirs := map[string]bool{}
	var out []FileInfo
	for _, s := range summaries {
		rest := strings.TrimPrefix(s.FilePath, prefix)
		if rest == "" {
			continue
		}
		if idx := strings.IndexByte(rest, '/'); idx >= 0 {
			sub := rest[:idx]
			if !seenDirs[sub] {
				seenDirs[sub] = true
				out = append(out, dirInfo(sub))
			}
			continue
		}
		out = append(out, FileInfo{
			name:    rest,
			size:    s.FileSize,
			modTime: time.Unix(int64(s.CreatedAt), 0),
		})
	}
	return out, nil
}

var _ webdav.FileSystem = (*FS)(nil)
