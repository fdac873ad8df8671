package balancer

import (
	"fmt"
	"strings"
)

// Strategy picks the target remote for a chunk from the Balancer's current
// table. Implementations register under a name rather than being selected
// by duck typing.
type Strategy interface {
	Pick(b *Balancer, chunkSize int64) (string, error)
}

var strategies = map[string]Strategy{}

func registerStrategy(name string, s Strategy) {
	strategies[name] = s
}

func lookupStrategy(name string) (Strategy, error) {
	s, ok := strategies[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("balancer: unknown strategy %q", name)
	}
	return s, nil
}

func init() {
	registerStrategy("least_used", &leastUsed{})
	registerStrategy("round_robin_least_used", &roundRobinLeastUsed{})
}

// leastUsed is the base strategy: the eligible remote with the smallest
// usedBytes, ties broken by configured order.
type leastUsed struct{}

func (leastUsed) Pick(b *Balancer, chunkSize int64) (string, error) {
	best := ""
	var bestUsed int64
	for _, r := range b.order {
		if !b.eligibleFor(r, chunkSize) {
			continue
		}
		s := b.state[r]
		if best == "" || s.used < bestUsed {
			best, bestUsed = r, s.used
		}
	}
	if best == "" {
		return "", errNoEligibleRemote
	}
	return best, nil
}

// roundRobinLeastUsed is the rotating-cursor variant: start from the
// cursor, consider one full rotation of remotes, and among the
// eligible ones in that window prefer the lowest usedBytes (ties broken by
// rotation order, i.e. whichever is encountered first from the cursor).
// The cursor then advances to just past the chosen remote.
type roundRobinLeastUsed struct{}

func (roundRobinLeastUsed) Pick(b *Balancer, chunkSize int64) (string, error) {
	n := len(b.order)
	if n == 0 {
		return "", errNoEligibleRemote
	}
	bestIdx := -1
	var bestUsed int64
	for i := 0; i < n; i++ {
		idx := (b.cursor + i) % n
		r := b.order[idx]
		if !b.eligibleFor(r, chunkSize) {
			continue
		}
		s := b.state[r]
		if bestIdx == -1 || s.used < bestUsed {
			bestIdx, bestUsed = idx, s.used
		}
	}
	if bestIdx == -1 {
		return "", errNoEligibleRemote
	}
	b.cursor = (bestIdx + 1) % n
	return b.order[bestIdx], nil
}
