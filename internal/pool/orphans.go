package pool

import (
	"context"

	"github.com/puffious/rclone-pool/internal/rclog"
)

// Orphan names a data-prefix object on a remote that no loaded manifest
// references.
type Orphan struct {
	Remote string
	Path   string
}

// Orphans scans every configured remote's data prefix and reports objects
// no manifest references: each remote's listFiles(dataPrefix) minus the
// union of every manifest's chunk paths. With delete set, it removes each
// orphan as it's found.
func (p *Pool) Orphans(ctx context.Context, delete bool) ([]Orphan, error) {
	manifests, err := p.store.List(ctx, "")
	if err != nil {
		return nil, err
	}
	referenced := map[string]bool{} // remote+path
	for _, m := range manifests {
		for _, c := range m.Chunks {
			referenced[c.Remote+c.Path] = true
		}
	}

	var orphans []Orphan
	for _, u := range p.balancer.Report() {
		remote := u.Remote
		names, err := p.transport.ListFiles(ctx, remote, p.cfg.DataPrefix)
		if err != nil {
			rclog.Noticef("orphans: could not list %s: %v", remote, err)
			continue
		}
		for _, name := range names {
			objPath := p.cfg.DataPrefix + "/" + name
			if referenced[remote+objPath] {
				continue
			}
			orphans = append(orphans, Orphan{Remote: remote, Path: objPath})
			if delete {
				if err := p.transport.Delete(ctx, remote, objPath); err != nil {
					rclog.Noticef("orphans: could not delete %s%s: %v", remote, objPath, err)
				}
			}
		}
	}
	return orphans, nil
}
