package pool

import "github.com/puffious/rclone-pool/internal/balancer"

// Status returns a cheap wrapper around the balancer's cached usage view
// (itself seeded from Transport.About at startup).
func (p *Pool) Status() []balancer.Usage {
	return p.balancer.Report()
}
