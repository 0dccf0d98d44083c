package dht

import (
	"sort"
	"time"

	"github.com/KushDesai04/swapbytes/internal/proto"
)

type LookupConfig struct {
	Alpha      int
	K          int
	RPCTimeout time.Duration
	MaxRounds  int
}

func DefaultLookupConfig() LookupConfig {
	return LookupConfig{
		Alpha:      3,
		K:          20,
		RPCTimeout: 1200 * time.Millisecond,
		MaxRounds:  32,
	}
}

func (cfg *LookupConfig) applyDefaults() {
	if cfg.Alpha <= 0 {
		cfg.Alpha = 3
	}
	if cfg.K <= 0 {
		cfg.K = 20
	}
	if cfg.RPCTimeout <= 0 {
		cfg.RPCTimeout = 1200 * time.Millisecond
	}
	if cfg.MaxRounds <= 0 {
		cfg.MaxRounds = 32
	}
}

// IterativeFindNode converges on the k closest nodes to target, querying
// alpha candidates per round.
func (d *DHT) IterativeFindNode(n Sender, targetHex string, cfg LookupConfig) ([]proto.DHTNode, error) {
	cfg.applyDefaults()

	target, err := ParseNodeIDHex(targetHex)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	queries := 0
	defer func() { d.metrics.ObserveLookup("FIND_NODE", queries, time.Since(start), true) }()

	type cand struct {
		node proto.DHTNode
		dist NodeID
	}

	// seed from routing table
	seed := d.rt.Closest(target, cfg.K)
	best := make([]cand, 0, cfg.K)
	seen := make(map[string]bool)
	for _, ni := range seed {
		best = append(best, cand{
			node: proto.DHTNode{NodeID: ni.NodeIDHex, PeerID: ni.PeerID, Addr: ni.Addr, Name: ni.Name},
			dist: Xor(ni.NodeID, target),
		})
		seen[ni.NodeIDHex] = true
	}

	queried := make(map[string]bool)

	sortBest := func() {
		sort.Slice(best, func(i, j int) bool { return DistanceLess(best[i].dist, best[j].dist) })
	}
	sortBest()

	// helper to choose next alpha
	pickNext := func() []proto.DHTNode {
		out := make([]proto.DHTNode, 0, cfg.Alpha)
		for _, c := range best {
			if len(out) == cfg.Alpha {
				break
			}
			if queried[c.node.NodeID] {
				continue
			}
			queried[c.node.NodeID] = true
			out = append(out, c.node)
		}
		return out
	}

	closerFound := true
	rounds := 0

	for closerFound && rounds < cfg.MaxRounds {
		rounds++
		closerFound = false

		toQuery := pickNext()
		if len(toQuery) == 0 {
			break
		}

		type result struct {
			resp proto.DHTWire
			ok   bool
		}
		queries += len(toQuery)
		resCh := make(chan result, len(toQuery))

		for _, peer := range toQuery {
			go func(pid string) {
				resp, err := d.QueryFindNode(n, pid, targetHex, cfg.RPCTimeout)
				if err != nil {
					resCh <- result{ok: false}
					return
				}
				resCh <- result{resp: resp, ok: true}
			}(peer.PeerID)
		}

		for i := 0; i < len(toQuery); i++ {
			r := <-resCh
			if !r.ok || r.resp.Kind != "NODES" {
				continue
			}
			for _, nd := range r.resp.Nodes {
				if nd.NodeID == "" || seen[nd.NodeID] {
					continue
				}
				seen[nd.NodeID] = true

				id, err := ParseNodeIDHex(nd.NodeID)
				if err != nil {
					continue
				}
				d.rt.Upsert(id, nd.PeerID, nd.Addr, nd.Name)

				best = append(best, cand{node: nd, dist: Xor(id, target)})
				closerFound = true
			}
		}

		sortBest()
		if len(best) > cfg.K {
			best = best[:cfg.K]
		}
	}

	out := make([]proto.DHTNode, 0, len(best))
	for _, c := range best {
		out = append(out, c.node)
	}
	return out, nil
}
