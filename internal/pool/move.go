package pool

import (
	"context"

	"github.com/puffious/rclone-pool/internal/manifest"
	"github.com/puffious/rclone-pool/internal/poolerrors"
)

// Move renames a file's manifest from oldPath to newPath. Chunks are not
// touched, only the manifest's file_path and its on-remote manifest object
// name change. Fails with AlreadyExists if a manifest already sits at
// newPath.
func (p *Pool) Move(ctx context.Context, oldPath, newPath string) (*manifest.Manifest, error) {
	var result *manifest.Manifest
	err := p.locks.withLock(oldPath, func() error {
		return p.locks.withLock(newPath, func() error {
			var err error
			result, err = p.move(ctx, oldPath, newPath)
			return err
		})
	})
	return result, err
}

func (p *Pool) move(ctx context.Context, oldPath, newPath string) (*manifest.Manifest, error) {
	if _, err := p.store.Load(ctx, newPath); err == nil {
		return nil, poolerrors.Newf(poolerrors.KindAlreadyExists, "manifest already exists for %s", newPath)
	}

	src, err := p.store.Load(ctx, oldPath)
	if err != nil {
		return nil, err
	}

	moved := *src
	moved.FilePath = newPath
	moved.RemoteDir, moved.FileName = manifest.Split(newPath)
	if err := moved.Validate(); err != nil {
		return nil, err
	}

	if _, err := p.store.Save(ctx, &moved); err != nil {
		return nil, err
	}
	p.store.Delete(ctx, oldPath)
	return &moved, nil
}
