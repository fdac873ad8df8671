package manifest

import (
	"os"
	"path/filepath"

	"github.com/puffious/rclone-pool/internal/rclog"
)

// DiskCache is the optional on-disk backing for the manifest cache: one
// file per manifest, corrupt entries ignored and re-fetched rather than
// treated as fatal.
type DiskCache interface {
	Get(filePath string) (*Manifest, bool)
	Put(m *Manifest)
	Delete(filePath string)
}

// FileDiskCache stores one JSON file per manifest under dir, keyed by the
// same Sanitize(filePath) name used on remotes.
type FileDiskCache struct {
	dir string
}

// NewFileDiskCache builds a FileDiskCache rooted at dir, creating it if
// necessary.
func NewFileDiskCache(dir string) (*FileDiskCache, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	return &FileDiskCache{dir: dir}, nil
}

func (c *FileDiskCache) pathFor(filePath string) string {
	return filepath.Join(c.dir, Sanitize(filePath)+".json")
}

// Get reads and parses the cached manifest for filePath. A missing or
// corrupt entry is treated as a cache miss, never an error.
func (c *FileDiskCache) Get(filePath string) (*Manifest, bool) {
	raw, err := os.ReadFile(c.pathFor(filePath))
	if err != nil {
		return nil, false
	}
	m, err := Unmarshal(raw)
	if err != nil {
		rclog.Debugf("manifest disk cache: ignoring corrupt entry for %s: %v", filePath, err)
		return nil, false
	}
	return m, true
}

// Put writes m to its cache file, overwriting any prior entry.
func (c *FileDiskCache) Put(m *Manifest) {
	raw, err := m.Marshal()
	if err != nil {
		rclog.Debugf("manifest disk cache: not caching %s: %v", m.FilePath, err)
		return
	}
	if err := os.WriteFile(c.pathFor(m.FilePath), raw, 0o600); err != nil {
		rclog.Debugf("manifest disk cache: write failed for %s: %v", m.FilePath, err)
	}
}

// Delete removes the cache file for filePath, if any.
func (c *FileDiskCache) Delete(filePath string) {
	_ = os.Remove(c.pathFor(filePath))
}
