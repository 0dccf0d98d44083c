package chatnode

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/KushDesai04/swapbytes/internal/netx"
	"github.com/KushDesai04/swapbytes/internal/p2p"
)

// memPrinter captures ui output for assertions.
type memPrinter struct {
	mu sync.Mutex
	b  strings.Builder
}

func (p *memPrinter) Printf(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(&p.b, format, args...)
}

func (p *memPrinter) Println(args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(&p.b, args...)
}

func (p *memPrinter) String() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.b.String()
}

// newTestApp builds an app around an unstarted node with an in-memory DHT.
// The handlers under test never need a live listener.
func newTestApp(t *testing.T, nick string) (*App, *memPrinter) {
	t.Helper()

	id, err := p2p.NewIdentity()
	if err != nil {
		t.Fatalf("identity: %v", err)
	}
	n, err := p2p.NewNode(p2p.NodeConfig{
		Name:     nick,
		Network:  netx.NewTCPNetwork(),
		BindAddr: ":0",
		Protocol: "swapbytes-test/1",
		Identity: id,
	})
	if err != nil {
		t.Fatalf("node: %v", err)
	}
	if err := n.EnableDHT(); err != nil {
		t.Fatalf("dht: %v", err)
	}
	n.Subscribe(defaultTopic)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	ui := &memPrinter{}
	a := &App{
		cfg:     Config{DownloadDir: t.TempDir()},
		ui:      ui,
		Node:    n,
		stopLAN: make(chan struct{}),
		ctx:     ctx,
		cancel:  cancel,
		lines:   make(chan string, 16),
		pending: newPendingTable(time.Second),
	}
	return a, ui
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
