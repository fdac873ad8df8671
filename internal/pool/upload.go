package pool

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"os"
	"strings"

	"github.com/puffious/rclone-pool/internal/chunkcodec"
	"github.com/puffious/rclone-pool/internal/manifest"
	"github.com/puffious/rclone-pool/internal/poolerrors"
	"github.com/puffious/rclone-pool/internal/rclog"
)

// writeTemp copies data into a uniquely named file under the Pool's
// tempDir, which is usually RAM-backed (e.g. /dev/shm). The caller is
// responsible for removing the returned path on every exit path.
func (p *Pool) writeTemp(data []byte) (string, error) {
	if err := os.MkdirAll(p.cfg.TempDir, 0o700); err != nil {
		return "", poolerrors.Wrap(poolerrors.KindTempFull, err, "create temp dir")
	}
	f, err := os.CreateTemp(p.cfg.TempDir, "chunk-*")
	if err != nil {
		return "", poolerrors.Wrap(poolerrors.KindTempFull, err, "create temp chunk file")
	}
	defer f.Close()
	if _, err := f.Write(data); err != nil {
		_ = os.Remove(f.Name())
		return "", poolerrors.Wrap(poolerrors.KindTempFull, err, "write temp chunk")
	}
	return f.Name(), nil
}

// Upload splits localPath into chunks, places each on a balancer-chosen
// remote, then builds and durably saves the manifest.
// When a manifest already exists for filePath, overwrite controls whether
// the call fails with AlreadyExists or replaces it, deleting the prior
// chunks only after the new manifest is durable.
func (p *Pool) Upload(ctx context.Context, localPath, filePath string, overwrite bool, now float64) (*manifest.Manifest, error) {
	var result *manifest.Manifest
	err := p.locks.withLock(filePath, func() error {
		var err error
		result, err = p.upload(ctx, localPath, filePath, overwrite, now)
		return err
	})
	return result, err
}

func (p *Pool) upload(ctx context.Context, localPath, filePath string, overwrite bool, now float64) (*manifest.Manifest, error) {
	if !strings.HasPrefix(filePath, "/") {
		return nil, poolerrors.Newf(poolerrors.KindUploadFailed, "file path %q must start with /", filePath)
	}

	prior, err := p.store.Load(ctx, filePath)
	hadPrior := err == nil
	if hadPrior && !overwrite {
		return nil, poolerrors.Newf(poolerrors.KindAlreadyExists, "manifest already exists for %s", filePath)
	}

	info, err := os.Stat(localPath)
	if err != nil {
		return nil, poolerrors.Wrap(poolerrors.KindUploadFailed, err, "stat source file")
	}
	fileSize := info.Size()

	src, err := os.Open(localPath)
	if err != nil {
		return nil, poolerrors.Wrap(poolerrors.KindUploadFailed, err, "open source file")
	}
	defer src.Close()

	windows, err := chunkcodec.Windows(fileSize, p.cfg.ChunkSize)
	if err != nil {
		return nil, err
	}

	sum := md5.New()
	var uploaded []manifest.ChunkDescriptor
	rollback := func() {
		for _, c := range uploaded {
			if derr := p.transport.Delete(ctx, c.Remote, c.Path); derr != nil {
				rclog.Noticef("upload rollback: could not delete %s%s: %v", c.Remote, c.Path, derr)
			}
			p.balancer.Record(c.Remote, -c.Size)
		}
	}

	for _, w := range windows {
		buf, err := chunkcodec.ReadWindow(src, w)
		if err != nil {
			rollback()
			return nil, poolerrors.Wrap(poolerrors.KindUploadFailed, err, "read chunk from source")
		}
		sum.Write(buf)

		remote, err := p.balancer.PickAndRecord(w.Length)
		if err != nil {
			rollback()
			return nil, err
		}

		objPath := p.cfg.DataPrefix + "/" + manifest.ChunkName(filePath, w.Index)
		tmp, err := p.writeTemp(buf)
		if err != nil {
			p.balancer.Record(remote, -w.Length)
			rollback()
			return nil, err
		}
		putErr := p.transport.Put(ctx, tmp, remote, objPath)
		_ = os.Remove(tmp)
		if putErr != nil {
			p.balancer.Record(remote, -w.Length)
			rollback()
			return nil, poolerrors.Wrap(poolerrors.KindUploadFailed, putErr, "upload chunk")
		}

		uploaded = append(uploaded, manifest.ChunkDescriptor{
			Index:  w.Index,
			Remote: remote,
			Path:   objPath,
			Size:   w.Length,
			Offset: w.Offset,
		})
	}

	checksum := "md5:" + hex.EncodeToString(sum.Sum(nil))
	m, err := p.store.Create(filePath, fileSize, p.cfg.ChunkSize, uploaded, now, checksum)
	if err != nil {
		rollback()
		return nil, err
	}
	if _, err := p.store.Save(ctx, m); err != nil {
		rollback()
		return nil, err
	}

	if hadPrior {
		kept := map[string]bool{}
		for _, c := range m.Chunks {
			kept[c.Remote+c.Path] = true
		}
		for _, c := range prior.Chunks {
			if kept[c.Remote+c.Path] {
				continue
			}
			if derr := p.transport.Delete(ctx, c.Remote, c.Path); derr != nil {
				rclog.Noticef("upload overwrite: could not delete old chunk %s%s: %v", c.Remote, c.Path, derr)
			}
		}
	}

	return m, nil
}
