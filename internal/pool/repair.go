package pool

import (
	"context"
	"os"

	"github.com/puffious/rclone-pool/internal/chunkcodec"
	"github.com/puffious/rclone-pool/internal/manifest"
)

// Repair re-uploads, for each chunk Verify finds missing, its byte range
// from localSource to a freshly balancer-picked remote, rewrites that
// descriptor, and re-saves the manifest to every remote. If the save can't
// land anywhere, the in-memory manifest (and the balancer bookkeeping for
// the new placement) is rolled back.
func (p *Pool) Repair(ctx context.Context, filePath, localSource string) (*manifest.Manifest, error) {
	var result *manifest.Manifest
	err := p.locks.withLock(filePath, func() error {
		var err error
		result, err = p.repair(ctx, filePath, localSource)
		return err
	})
	return result, err
}

func (p *Pool) repair(ctx context.Context, filePath, localSource string) (*manifest.Manifest, error) {
	report, err := p.Verify(ctx, filePath, VerifyQuick)
	if err != nil {
		return nil, err
	}
	m, err := p.store.Load(ctx, filePath)
	if err != nil {
		return nil, err
	}
	if len(report.Missing) == 0 {
		return m, nil
	}

	src, err := os.Open(localSource)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	fixed := append([]manifest.ChunkDescriptor{}, m.Chunks...)
	var newPlacements []placement

	for _, missing := range report.Missing {
		buf, err := chunkcodec.ReadWindow(src, chunkcodec.Window{
			Index: missing.Index, Offset: missing.Offset, Length: missing.Size,
		})
		if err != nil {
			return nil, err
		}
		remote, err := p.balancer.PickAndRecord(missing.Size)
		if err != nil {
			return nil, err
		}
		newPlacements = append(newPlacements, placement{remote: remote, size: missing.Size})

		tmp, err := p.writeTemp(buf)
		if err != nil {
			return nil, err
		}
		putErr := p.transport.Put(ctx, tmp, remote, missing.Path)
		_ = os.Remove(tmp)
		if putErr != nil {
			return nil, putErr
		}
		fixed[missing.Index].Remote = remote
	}

	repaired := *m
	repaired.Chunks = fixed
	if err := repaired.Validate(); err != nil {
		rollbackPlacements(p, newPlacements)
		return nil, err
	}

	if _, err := p.store.Save(ctx, &repaired); err != nil {
		rollbackPlacements(p, newPlacements)
		return nil, err
	}
	return &repaired, nil
}

// placement records a fresh chunk placement made during repair, so it can
// be rolled back in the balancer's usage table if the manifest save fails.
type placement struct {
	remote string
	size   int64
}

func rollbackPlacements(p *Pool, placements []placement) {
	for _, pl := range placements {
		p.balancer.Record(pl.remote, -pl.size)
	}
}
