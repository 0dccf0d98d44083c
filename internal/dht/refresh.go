package dht

import (
	"context"
	"time"
)

// RunBucketRefresh periodically refreshes the routing table by looking up
// random targets. Minimal version: random IDs, not per-bucket ranges.
func (d *DHT) RunBucketRefresh(ctx context.Context, n Sender, interval time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Minute
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	cfg := DefaultLookupConfig()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			target := RandomNodeID()
			_, _ = d.IterativeFindNode(n, target.Hex(), cfg)
		}
	}
}
