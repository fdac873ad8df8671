package transport

import (
	"context"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/puffious/rclone-pool/internal/poolerrors"
)

// Fake is an in-memory Transport double used by tests throughout this
// module, the same role rclone's fstest mocks play for exercising backend
// logic without touching real cloud storage.
type Fake struct {
	mu    sync.Mutex
	data  map[string][]byte // remote+path -> bytes
	usage map[string]About  // remote -> About
	down  map[string]bool   // remote -> force every call to fail
}

// NewFake builds an empty Fake transport; remotes default to 1TiB free
// until SetAbout overrides them.
func NewFake() *Fake {
	return &Fake{
		data:  map[string][]byte{},
		usage: map[string]About{},
		down:  map[string]bool{},
	}
}

// SetAbout overrides the About() response for a remote.
func (f *Fake) SetAbout(remote string, a About) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.usage[remote] = a
}

// SetDown makes every operation against remote fail, simulating an
// unreachable remote.
func (f *Fake) SetDown(remote string, down bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.down[remote] = down
}

// Contents returns a copy of the raw bytes stored at remote:path, for
// assertions in tests.
func (f *Fake) Contents(remote, path string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.data[remote+path]
	if !ok {
		return nil, false
	}
	cp := make([]byte, len(b))
	copy(cp, b)
	return cp, true
}

func (f *Fake) checkDown(remote string) error {
	if f.down[remote] {
		return poolerrors.Newf(poolerrors.KindTransportError, "remote %s is down", remote)
	}
	return nil
}

func (f *Fake) Put(ctx context.Context, localPath, remote, path string) error {
	b, err := os.ReadFile(localPath)
	if err != nil {
		return poolerrors.Wrap(poolerrors.KindTransportError, err, "read local file")
	}
	return f.PutBytes(ctx, b, remote, path)
}

func (f *Fake) PutBytes(ctx context.Context, data []byte, remote, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.checkDown(remote); err != nil {
		return err
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	f.data[remote+path] = cp
	return nil
}

func (f *Fake) Get(ctx context.Context, remote, path, localPath string) error {
	b, err := f.GetBytes(ctx, remote, path)
	if err != nil {
		return err
	}
	return os.WriteFile(localPath, b, 0o600)
}

func (f *Fake) GetBytes(ctx context.Context, remote, path string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.checkDown(remote); err != nil {
		return nil, err
	}
	b, ok := f.data[remote+path]
	if !ok {
		return nil, poolerrors.Newf(poolerrors.KindTransportError, "no such object %s%s", remote, path)
	}
	cp := make([]byte, len(b))
	copy(cp, b)
	return cp, nil
}

func (f *Fake) GetRange(ctx context.Context, remote, path string, offset, length int64) ([]byte, error) {
	b, err := f.GetBytes(ctx, remote, path)
	if err != nil {
		return nil, err
	}
	end := offset + length
	if offset < 0 || offset > int64(len(b)) {
		return nil, poolerrors.Newf(poolerrors.KindTransportError, "range out of bounds")
	}
	if end > int64(len(b)) {
		end = int64(len(b))
	}
	return b[offset:end], nil
}

func (f *Fake) Delete(ctx context.Context, remote, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.checkDown(remote); err != nil {
		return err
	}
	delete(f.data, remote+path)
	return nil
}

func (f *Fake) ListFiles(ctx context.Context, remote, prefix string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.checkDown(remote); err != nil {
		return nil, err
	}
	var out []string
	for k := range f.data {
		if !strings.HasPrefix(k, remote) {
			continue
		}
		p := strings.TrimPrefix(k, remote)
		if strings.HasPrefix(p, prefix) {
			out = append(out, strings.TrimPrefix(p, prefix+"/"))
		}
	}
	sort.Strings(out)
	return out, nil
}

func (f *Fake) ListDirs(ctx context.Context, remote, prefix string) ([]string, error) {
	return nil, nil
}

func (f *Fake) About(ctx context.Context, remote string) (About, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.checkDown(remote); err != nil {
		return About{}, err
	}
	if a, ok := f.usage[remote]; ok {
		return a, nil
	}
	const oneTiB = int64(1) << 40
	return About{Used: 0, Free: oneTiB, Total: oneTiB}, nil
}

func (f *Fake) Exists(ctx context.Context, remote, path string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.checkDown(remote); err != nil {
		return false, err
	}
	_, ok := f.data[remote+path]
	return ok, nil
}

var _ Transport = (*Fake)(nil)
