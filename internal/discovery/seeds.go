package discovery

import "github.com/KushDesai04/swapbytes/internal/p2p"

var DefaultSeeds = []string{
	// "seed1.swapbytes.net:4001",
	// "seed2.swapbytes.net:4001",
}

type SeedStrategy struct{}

func (s *SeedStrategy) Discover(_ *p2p.Node) []string {
	return append([]string{}, DefaultSeeds...)
}
