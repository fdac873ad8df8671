package pool

import (
	"context"
	"sort"

	"github.com/puffious/rclone-pool/internal/rclog"
)

// Migration describes one chunk move planned (or performed) by Rebalance.
type Migration struct {
	FilePath   string
	ChunkIndex int
	FromRemote string
	ToRemote   string
	Size       int64
}

type chunkRef struct {
	filePath string
	index    int
	size     int64
}

// Rebalance computes ideal = totalChunkCount / remoteCount, then for each
// remote holding more than its ideal share, moves its surplus chunks onto
// underloaded remotes. It is idempotent: running it again once every
// remote is within its ideal share plans zero migrations. With dryRun set,
// the plan is computed and returned but nothing is moved.
func (p *Pool) Rebalance(ctx context.Context, dryRun bool) ([]Migration, error) {
	manifests, err := p.store.List(ctx, "")
	if err != nil {
		return nil, err
	}

	byRemote := map[string][]chunkRef{}
	var total int
	for _, m := range manifests {
		for _, c := range m.Chunks {
			byRemote[c.Remote] = append(byRemote[c.Remote], chunkRef{filePath: m.FilePath, index: c.Index, size: c.Size})
			total++
		}
	}

	remotes := make([]string, 0, len(byRemote))
	for _, u := range p.balancer.Report() {
		remotes = append(remotes, u.Remote)
	}
	if len(remotes) == 0 {
		return nil, nil
	}
	ideal := total / len(remotes)

	counts := map[string]int{}
	for _, r := range remotes {
		counts[r] = len(byRemote[r])
	}

	var plan []Migration
	for _, from := range remotes {
		for counts[from] > ideal {
			refs := byRemote[from]
			if len(refs) == 0 {
				break
			}
			ref := refs[len(refs)-1]
			byRemote[from] = refs[:len(refs)-1]

			to := pickUnderloaded(remotes, counts, ideal, from)
			if to == "" {
				break
			}
			plan = append(plan, Migration{FilePath: ref.filePath, ChunkIndex: ref.index, FromRemote: from, ToRemote: to, Size: ref.size})
			counts[from]--
			counts[to]++
		}
	}

	if dryRun || len(plan) == 0 {
		return plan, nil
	}
	return plan, p.applyMigrations(ctx, plan)
}

// pickUnderloaded returns the remote (other than from) with the fewest
// chunks, among those below ideal, ties broken by configured order.
func pickUnderloaded(remotes []string, counts map[string]int, ideal int, from string) string {
	best := ""
	bestCount := 0
	for _, r := range remotes {
		if r == from {
			continue
		}
		if counts[r] >= ideal {
			continue
		}
		if best == "" || counts[r] < bestCount {
			best, bestCount = r, counts[r]
		}
	}
	return best
}

// applyMigrations performs each planned chunk move: fetch from the old
// remote, write to the new one, update and re-save the manifest, then
// remove the old copy only once the new manifest is durable.
func (p *Pool) applyMigrations(ctx context.Context, plan []Migration) error {
	byFile := map[string][]Migration{}
	for _, mig := range plan {
		byFile[mig.FilePath] = append(byFile[mig.FilePath], mig)
	}

	for filePath, migs := range byFile {
		err := p.locks.withLock(filePath, func() error {
			m, err := p.store.Load(ctx, filePath)
			if err != nil {
				return err
			}
			sort.Slice(migs, func(i, j int) bool { return migs[i].ChunkIndex < migs[j].ChunkIndex })

			type oldCopy struct{ remote, path string }
			var toDelete []oldCopy

			for _, mig := range migs {
				c := m.Chunks[mig.ChunkIndex]
				data, err := p.transport.GetBytes(ctx, c.Remote, c.Path)
				if err != nil {
					rclog.Noticef("rebalance: could not read %s chunk %d for migration: %v", filePath, mig.ChunkIndex, err)
					continue
				}
				if err := p.transport.PutBytes(ctx, data, mig.ToRemote, c.Path); err != nil {
					rclog.Noticef("rebalance: could not write %s chunk %d to %s: %v", filePath, mig.ChunkIndex, mig.ToRemote, err)
					continue
				}
				toDelete = append(toDelete, oldCopy{remote: c.Remote, path: c.Path})
				m.Chunks[mig.ChunkIndex].Remote = mig.ToRemote
				p.balancer.Record(mig.ToRemote, c.Size)
				p.balancer.Record(c.Remote, -c.Size)
			}

			if _, err := p.store.Save(ctx, m); err != nil {
				return err
			}
			for _, old := range toDelete {
				if err := p.transport.Delete(ctx, old.remote, old.path); err != nil {
					rclog.Noticef("rebalance: could not delete old copy on %s: %v", old.remote, err)
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}
