package pool

import (
	"context"

	"github.com/puffious/rclone-pool/internal/rclog"
)

// Delete best-effort removes every chunk, then the manifest itself,
// rolling the balancer's usage table back as chunks go.
func (p *Pool) Delete(ctx context.Context, filePath string) error {
	return p.locks.withLock(filePath, func() error {
		m, err := p.store.Load(ctx, filePath)
		if err != nil {
			return err
		}
		for _, c := range m.Chunks {
			if err := p.transport.Delete(ctx, c.Remote, c.Path); err != nil {
				rclog.Noticef("delete: could not remove chunk %d of %s on %s: %v", c.Index, filePath, c.Remote, err)
				continue
			}
			p.balancer.Record(c.Remote, -c.Size)
		}
		p.store.Delete(ctx, filePath)
		return nil
	})
}
