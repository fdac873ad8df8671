// Package pool is the orchestrator: it composes ChunkCodec, Balancer,
// ManifestStore, and Transport into the public upload/download/list/delete/
// verify/repair/status operations.
package pool

import (
	"context"

	"github.com/puffious/rclone-pool/internal/balancer"
	"github.com/puffious/rclone-pool/internal/manifest"
	"github.com/puffious/rclone-pool/internal/poolconfig"
	"github.com/puffious/rclone-pool/internal/transport"
)

// Pool is the top-level orchestrator tying a configured remote set to one
// logical, chunked, redundant storage namespace.
type Pool struct {
	cfg       *poolconfig.Config
	transport transport.Transport
	balancer  *balancer.Balancer
	store     *manifest.Store
	locks     *pathLocks
}

// New builds a Pool from cfg and t, seeding the balancer from Transport.About.
// The manifest store is built without the optional on-disk cache tier, so
// its index lives in memory only.
func New(ctx context.Context, cfg *poolconfig.Config, t transport.Transport) (*Pool, error) {
	remotes := cfg.ActiveRemotes()
	b, err := balancer.New(remotes, cfg.BalancingStrategy)
	if err != nil {
		return nil, err
	}
	b.Seed(ctx, t)

	store := manifest.NewStore(remotes, cfg.ManifestPrefix, t, cfg.MaxParallelWorkers, nil)

	return &Pool{
		cfg:       cfg,
		transport: t,
		balancer:  b,
		store:     store,
		locks:     newPathLocks(),
	}, nil
}

// Balancer exposes the Pool's balancer for status reporting.
func (p *Pool) Balancer() *balancer.Balancer { return p.balancer }

// Store exposes the Pool's manifest store for callers that need direct
// access (e.g. the WebDAV frontend, which loads manifests through it).
func (p *Pool) Store() *manifest.Store { return p.store }

// TempDir returns the configured scratch directory chunk and request-body
// buffers are written under.
func (p *Pool) TempDir() string { return p.cfg.TempDir }
