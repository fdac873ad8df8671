// Package balancer tracks per-remote usage and picks the placement target
// for each chunk. It is the same shape as rclone's backend/union/policy
// (a small Policy interface with named, registered variants such as lfs and
// mfs) narrowed to the two operations the pool actually needs: pick a
// remote, then record what landed on it.
package balancer

import (
	"context"
	"sync"

	"github.com/puffious/rclone-pool/internal/poolerrors"
	"github.com/puffious/rclone-pool/internal/rclog"
	"github.com/puffious/rclone-pool/internal/transport"
)

// remoteState is the in-memory usage table entry for one remote.
type remoteState struct {
	used     int64
	free     int64
	eligible bool // false when About() failed at seed time
}

// Balancer owns the {remote -> usedBytes} table and selects a placement
// target under a pluggable Strategy.
type Balancer struct {
	mu       sync.Mutex
	order    []string // configured order, for deterministic tie-breaking
	state    map[string]*remoteState
	strategy Strategy
	cursor   int // used only by round-robin strategies
}

// New builds a Balancer for the given configured remote list and strategy
// name ("least_used" or "round_robin_least_used").
func New(remotes []string, strategyName string) (*Balancer, error) {
	strat, err := lookupStrategy(strategyName)
	if err != nil {
		return nil, err
	}
	b := &Balancer{
		order:    append([]string{}, remotes...),
		state:    make(map[string]*remoteState, len(remotes)),
		strategy: strat,
	}
	for _, r := range remotes {
		b.state[r] = &remoteState{}
	}
	return b, nil
}

// Seed populates the usage table from Transport.About for every configured
// remote. A remote whose About call fails is marked ineligible, as if its
// used space were infinite.
func (b *Balancer) Seed(ctx context.Context, t transport.Transport) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, r := range b.order {
		about, err := t.About(ctx, r)
		if err != nil {
			rclog.Noticef("balancer: About(%s) failed, marking ineligible: %v", r, err)
			b.state[r] = &remoteState{eligible: false}
			continue
		}
		b.state[r] = &remoteState{used: about.Used, free: about.Free, eligible: true}
	}
}

// Pick selects the remote for a chunk of chunkSize bytes under the
// configured strategy. Fails with NoEligibleRemote if none qualify.
func (b *Balancer) Pick(chunkSize int64) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.strategy.Pick(b, chunkSize)
}

// Record adjusts a remote's usage table entry by delta (positive for a
// placement, negative for a rollback or deletion). Callers that need a
// pick and its matching record to happen as one atomic step should call
// PickAndRecord instead.
func (b *Balancer) Record(remote string, delta int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record(remote, delta)
}

func (b *Balancer) record(remote string, delta int64) {
	s, ok := b.state[remote]
	if !ok {
		return
	}
	s.used += delta
	s.free -= delta
}

// PickAndRecord performs Pick followed by Record(remote, +size) as one
// atomic section, so concurrent callers never race past Pick using stale
// usage numbers.
func (b *Balancer) PickAndRecord(chunkSize int64) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	remote, err := b.strategy.Pick(b, chunkSize)
	if err != nil {
		return "", err
	}
	b.record(remote, chunkSize)
	return remote, nil
}

// Usage is a point-in-time snapshot of one remote's table entry.
type Usage struct {
	Remote   string
	Used     int64
	Free     int64
	Eligible bool
}

// Report returns the current table, in configured order.
func (b *Balancer) Report() []Usage {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Usage, 0, len(b.order))
	for _, r := range b.order {
		s := b.state[r]
		out = append(out, Usage{Remote: r, Used: s.used, Free: s.free, Eligible: s.eligible})
	}
	return out
}

// eligibleFor reports whether remote can currently accept a chunk of size.
func (b *Balancer) eligibleFor(remote string, size int64) bool {
	s, ok := b.state[remote]
	return ok && s.eligible && s.free >= size
}

var errNoEligibleRemote = poolerrors.New(poolerrors.KindNoEligibleRemote, "no remote has enough free space for this chunk")
