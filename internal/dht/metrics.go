package dht

import (
	"sync/atomic"
	"time"
)

// Metrics is intentionally tiny and dependency-free.
// Implementations must be thread-safe.
type Metrics interface {
	IncRPC(kind string, ok bool)
	ObserveLookup(kind string, queries int, duration time.Duration, ok bool)
	SetRoutingTableSize(n int)
}

// NoopMetrics is the default.
type NoopMetrics struct{}

func (NoopMetrics) IncRPC(kind string, ok bool)                                             {}
func (NoopMetrics) ObserveLookup(kind string, queries int, duration time.Duration, ok bool) {}
func (NoopMetrics) SetRoutingTableSize(n int)                                               {}

// AtomicMetrics counts without locks; good enough for a status line.
type AtomicMetrics struct {
	RPCs        atomic.Int64
	RPCFailures atomic.Int64
	Lookups     atomic.Int64
	LookupHits  atomic.Int64
	TableSize   atomic.Int64
}

func (m *AtomicMetrics) IncRPC(kind string, ok bool) {
	m.RPCs.Add(1)
	if !ok {
		m.RPCFailures.Add(1)
	}
}

func (m *AtomicMetrics) ObserveLookup(kind string, queries int, duration time.Duration, ok bool) {
	m.Lookups.Add(1)
	if ok {
		m.LookupHits.Add(1)
	}
}

func (m *AtomicMetrics) SetRoutingTableSize(n int) {
	m.TableSize.Store(int64(n))
}
