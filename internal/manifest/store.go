package manifest

import (
	"context"
	"strings"
	"sync"

	"github.com/puffious/rclone-pool/internal/poolerrors"
	"github.com/puffious/rclone-pool/internal/rclog"
	"github.com/puffious/rclone-pool/internal/transport"
)

// Store creates, saves (to every configured remote), loads (from the
// first responsive one), deletes, and enumerates manifests, backed by an
// in-memory index and an optional disk cache.
type Store struct {
	remotes        []string
	manifestPrefix string
	transport      transport.Transport
	maxParallel    int
	disk           DiskCache // nil disables the optional on-disk cache

	mu    sync.RWMutex
	index map[string]*Manifest // filePath -> manifest
}

// NewStore builds a Store. disk may be nil to disable the on-disk cache
// tier.
func NewStore(remotes []string, manifestPrefix string, t transport.Transport, maxParallel int, disk DiskCache) *Store {
	if maxParallel <= 0 {
		maxParallel = 1
	}
	return &Store{
		remotes:        append([]string{}, remotes...),
		manifestPrefix: manifestPrefix,
		transport:      t,
		maxParallel:    maxParallel,
		disk:           disk,
		index:          make(map[string]*Manifest),
	}
}

// Create builds and validates a new in-memory Manifest; it does not persist
// anything (call Save for that).
func (s *Store) Create(filePath string, fileSize, chunkSize int64, chunks []ChunkDescriptor, now float64, checksum string) (*Manifest, error) {
	return New(filePath, fileSize, chunkSize, chunks, now, checksum)
}

func (s *Store) manifestObjectPath(filePath string) string {
	return s.manifestPrefix + "/" + Name(filePath)
}

func (s *Store) cachePut(m *Manifest) {
	s.mu.Lock()
	s.index[m.FilePath] = m
	s.mu.Unlock()
	if s.disk != nil {
		s.disk.Put(m)
	}
}

func (s *Store) cacheGet(filePath string) (*Manifest, bool) {
	s.mu.RLock()
	m, ok := s.index[filePath]
	s.mu.RUnlock()
	if ok {
		return m, true
	}
	if s.disk != nil {
		return s.disk.Get(filePath)
	}
	return nil, false
}

func (s *Store) cacheDelete(filePath string) {
	s.mu.Lock()
	delete(s.index, filePath)
	s.mu.Unlock()
	if s.disk != nil {
		s.disk.Delete(filePath)
	}
}

// Save writes the serialized manifest to every configured remote
// concurrently (bounded by maxParallel), waits for every write to finish,
// and caches it if at least one succeeded. Returns the set of remotes that
// succeeded.
// Fails with ManifestSaveFailed only if zero remotes accepted it: one
// successful write is enough durability.
func (s *Store) Save(ctx context.Context, m *Manifest) ([]string, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	raw, err := m.Marshal()
	if err != nil {
		return nil, err
	}
	objPath := s.manifestObjectPath(m.FilePath)

	var (
		mu        sync.Mutex
		succeeded []string
		wg        sync.WaitGroup
		sem       = make(chan struct{}, s.maxParallel)
	)
	for _, remote := range s.remotes {
		remote := remote
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			if err := s.transport.PutBytes(ctx, raw, remote, objPath); err != nil {
				rclog.Noticef("manifest save: remote %s failed for %s: %v", remote, m.FilePath, err)
				return
			}
			mu.Lock()
			succeeded = append(succeeded, remote)
			mu.Unlock()
		}()
	}
	wg.Wait()

	if len(succeeded) == 0 {
		return nil, poolerrors.Newf(poolerrors.KindManifestSaveFailed, "manifest for %s was not accepted by any of %d remotes", m.FilePath, len(s.remotes))
	}
	s.cachePut(m)
	return succeeded, nil
}

// Load returns the manifest for filePath, checking the cache first and
// otherwise trying each configured remote in order until one parses
// successfully. Fails with ManifestNotFound if every remote is exhausted.
func (s *Store) Load(ctx context.Context, filePath string) (*Manifest, error) {
	if m, ok := s.cacheGet(filePath); ok {
		return m, nil
	}
	objPath := s.manifestObjectPath(filePath)
	var lastErr error
	for _, remote := range s.remotes {
		raw, err := s.transport.GetBytes(ctx, remote, objPath)
		if err != nil {
			lastErr = err
			rclog.Debugf("manifest load: remote %s miss for %s: %v", remote, filePath, err)
			continue
		}
		m, err := Unmarshal(raw)
		if err != nil {
			lastErr = err
			rclog.Noticef("manifest load: remote %s has a corrupt manifest for %s: %v", remote, filePath, err)
			continue
		}
		s.cachePut(m)
		return m, nil
	}
	return nil, poolerrors.Wrapf(poolerrors.KindManifestNotFound, lastErr, "no remote has a manifest for %s", filePath)
}

// List enumerates manifests whose FilePath has the given prefix (""
// matches everything), by listing manifest object names on the first
// remote that responds to ListFiles, then loading each one to recover its
// FilePath (the on-remote name is a flattened, lossy encoding — see
// Sanitize — so filtering has to happen after decoding).
func (s *Store) List(ctx context.Context, dirPrefix string) ([]*Manifest, error) {
	var names []string
	var chosenRemote string
	var lastErr error
	for _, remote := range s.remotes {
		n, err := s.transport.ListFiles(ctx, remote, s.manifestPrefix)
		if err != nil {
			lastErr = err
			continue
		}
		names, chosenRemote = n, remote
		break
	}
	if chosenRemote == "" {
		return nil, poolerrors.Wrap(poolerrors.KindTransportError, lastErr, "no remote responded to list manifests")
	}

	var (
		mu      sync.Mutex
		out     []*Manifest
		wg      sync.WaitGroup
		sem     = make(chan struct{}, s.maxParallel)
	)
	for _, name := range names {
		if !strings.HasSuffix(name, ".manifest.json") {
			continue
		}
		name := name
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			raw, err := s.transport.GetBytes(ctx, chosenRemote, s.manifestPrefix+"/"+name)
			if err != nil {
				rclog.Noticef("manifest list: could not read %s: %v", name, err)
				return
			}
			m, err := Unmarshal(raw)
			if err != nil {
				rclog.Noticef("manifest list: corrupt manifest %s: %v", name, err)
				return
			}
			if dirPrefix != "" && !strings.HasPrefix(m.FilePath, dirPrefix) {
				return
			}
			s.cachePut(m)
			mu.Lock()
			out = append(out, m)
			mu.Unlock()
		}()
	}
	wg.Wait()
	return out, nil
}

// Delete removes the manifest file from every configured remote
// (per-remote failures are logged but non-fatal) and drops it from the
// cache.
func (s *Store) Delete(ctx context.Context, filePath string) {
	objPath := s.manifestObjectPath(filePath)
	var wg sync.WaitGroup
	for _, remote := range s.remotes {
		remote := remote
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.transport.Delete(ctx, remote, objPath); err != nil {
				rclog.Noticef("manifest delete: remote %s failed for %s: %v", remote, filePath, err)
			}
		}()
	}
	wg.Wait()
	s.cacheDelete(filePath)
}

// RebuildCache re-enumerates every manifest from the remotes and replaces
// the in-memory index with exactly what was found. The disk cache, if
// enabled, has each found manifest written to it; entries for manifests
// that are no longer on any remote are not removed from it.
func (s *Store) RebuildCache(ctx context.Context) error {
	all, err := s.List(ctx, "")
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.index = make(map[string]*Manifest, len(all))
	for _, m := range all {
		s.index[m.FilePath] = m
	}
	s.mu.Unlock()
	return nil
}
