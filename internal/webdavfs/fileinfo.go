package webdavfs

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path"
	"time"

	"golang.org/x/net/webdav"

	"github.com/puffious/rclone-pool/internal/manifest"
)

// FileInfo implements os.FileInfo for both real pool files and the
// synthesized directories derived from their path components. It also
// implements webdav.ETager and webdav.ContentTyper so the webdav.Handler
// can surface ETags and content types without re-deriving them.
type FileInfo struct {
	name    string
	size    int64
	modTime time.Time
	isDir   bool
}

func fileInfoFromManifest(m *manifest.Manifest) FileInfo {
	return FileInfo{
		name:    m.FileName,
		size:    m.FileSize,
		modTime: time.Unix(int64(m.CreatedAt), 0),
	}
}

func dirInfo(name string) FileInfo {
	return FileInfo{name: path.Base(name), isDir: true}
}

func (fi FileInfo) Name() string { return fi.name }
func (fi FileInfo) Size() int64  { return fi.size }

func (fi FileInfo) Mode() os.FileMode {
	if fi.isDir {
		return os.ModeDir | 0o755
	}
	return 0o644
}

func (fi FileInfo) ModTime() time.Time { return fi.modTime }
func (fi FileInfo) IsDir() bool        { return fi.isDir }
func (fi FileInfo) Sys() interface{}   { return nil }

// ETag implements webdav.ETager. Directories have none.
func (fi FileInfo) ETag(ctx context.Context) (string, error) {
	if fi.isDir {
		return "", webdav.ErrNotImplemented
	}
	return fmt.Sprintf(`"%x-%x"`, fi.modTime.Unix(), fi.size), nil
}

// ContentType implements webdav.ContentTyper.
func (fi FileInfo) ContentType(ctx context.Context) (string, error) {
	if fi.isDir {
		return "httpd/unix-directory", nil
	}
	if ctype := mime.TypeByExtension(path.Ext(fi.name)); ctype != "" {
		return ctype, nil
	}
	return "application/octet-stream", nil
}

var (
	_ os.FileInfo         = FileInfo{}
	_ webdav.ETager       = FileInfo{}
	_ webdav.ContentTyper = FileInfo{}
)
