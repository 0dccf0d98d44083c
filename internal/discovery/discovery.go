package discovery

import "github.com/KushDesai04/swapbytes/internal/p2p"

type Strategy interface {
	Discover(n *p2p.Node) []string // returns list of addresses to try
}
