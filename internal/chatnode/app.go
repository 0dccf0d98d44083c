package chatnode

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/KushDesai04/swapbytes/internal/dht"
	"github.com/KushDesai04/swapbytes/internal/discovery"
	"github.com/KushDesai04/swapbytes/internal/netx"
	"github.com/KushDesai04/swapbytes/internal/p2p"
	"github.com/KushDesai04/swapbytes/internal/proto"
	"github.com/KushDesai04/swapbytes/internal/telemetry"
)

// defaultTopic is the public room every node subscribes to on startup and
// falls back to after leaving a private room.
const defaultTopic = "default"

const (
	pendingSweepEvery = 5 * time.Second
	registerDelay     = 2 * time.Second
)

// App owns the single event loop everything else hangs off: console lines,
// gossip, exchange traffic, DHT query results and connection events are all
// serviced by Run, one at a time. The pending table, room state and invite
// state are only ever touched from that loop.
type App struct {
	cfg    Config
	ui     Printer
	logger telemetry.Logger

	Node *p2p.Node

	// Discovery lifecycle
	stopLAN chan struct{}

	// Context for DHT queries issued by the loop.
	ctx    context.Context
	cancel context.CancelFunc

	lines chan string

	// Exchange events held back while a prompt owns the console.
	deferred []p2p.ExchangeEvent

	pending *pendingTable

	room       *roomState
	invite     *outgoingInvite
	registered bool
}

func New(cfg Config, logger telemetry.Logger) (*App, error) {
	id := cfg.Identity
	if id == nil {
		var err error
		id, err = p2p.NewIdentity()
		if err != nil {
			return nil, err
		}
	}

	n, err := p2p.NewNode(p2p.NodeConfig{
		Name:       cfg.Nickname,
		Network:    netx.NewTCPNetwork(),
		BindAddr:   cfg.Bind,
		Bootstraps: cfg.Bootstraps,
		Protocol:   "swapbytes/0.1.0",
		Logger:     logger,
		Debug:      cfg.Debug,
		Identity:   id,
	})
	if err != nil {
		return nil, err
	}

	var opts []dht.Option
	if cfg.RecordStore != nil {
		opts = append(opts, dht.WithRecordStore(cfg.RecordStore))
	}
	if cfg.AddrStorePath != "" {
		opts = append(opts, dht.WithStore(cfg.AddrStorePath))
	}
	if err := n.EnableDHT(opts...); err != nil {
		return nil, err
	}

	n.Subscribe(defaultTopic)

	ctx, cancel := context.WithCancel(context.Background())
	return &App{
		cfg:     cfg,
		ui:      NewStdPrinter(os.Stdout),
		logger:  logger,
		Node:    n,
		stopLAN: make(chan struct{}),
		ctx:     ctx,
		cancel:  cancel,
		lines:   make(chan string, 16),
		pending: newPendingTable(defaultPendingTTL),
	}, nil
}

func (a *App) Start() error {
	if err := a.Node.Start(); err != nil {
		return err
	}

	if a.cfg.LANDiscovery {
		lanCfg := discovery.DefaultLANConfig()
		if a.cfg.LANPort > 0 {
			lanCfg.Port = a.cfg.LANPort
		}

		if err := discovery.StartLANResponder(a.stopLAN, lanCfg, string(a.Node.ListenAddr()), a.Node.Name()); err != nil {
			a.logf("LAN responder failed: %v", err)
		}

		psPath := a.cfg.PeerStorePath
		if psPath == "" {
			psPath = discovery.DefaultPeerStorePath()
		}
		ps := discovery.NewPeerStore(psPath)
		mgr := discovery.NewManager(ps, &discovery.LANStrategy{Config: lanCfg}, &discovery.SeedStrategy{})
		mgr.Run(a.Node)
	}

	return nil
}

// Run drives the event loop until ctx is cancelled or stdin closes.
func (a *App) Run(ctx context.Context) error {
	PrintBanner(a.ui, a.Node)

	go a.readStdin(ctx)

	sweep := time.NewTicker(pendingSweepEvery)
	defer sweep.Stop()

	// Registration waits a beat so bootstrap connections have a chance to
	// come up before the first lookup goes out.
	register := time.NewTimer(registerDelay)
	defer register.Stop()

	for {
		a.drainDeferred()

		select {
		case <-ctx.Done():
			return nil

		case line, ok := <-a.lines:
			if !ok {
				return nil
			}
			a.handleLine(line)

		case env, ok := <-a.Node.Incoming():
			if !ok {
				return nil
			}
			a.handleEnvelope(env)

		case ev, ok := <-a.Node.Exchanges():
			if !ok {
				return nil
			}
			a.handleExchange(ev)

		case res, ok := <-a.Node.DHT().Results():
			if !ok {
				return nil
			}
			a.handleQueryResult(res)

		case ev, ok := <-a.Node.Events():
			if !ok {
				return nil
			}
			a.handleNetEvent(ev)

		case <-register.C:
			a.startRegistration()

		case <-sweep.C:
			a.expirePending()
		}
	}
}

func (a *App) StopAll() {
	select {
	case <-a.stopLAN:
		// already closed by someone
	default:
		close(a.stopLAN)
	}
	a.cancel()
	a.Node.Stop()
}

func (a *App) handleExchange(ev p2p.ExchangeEvent) {
	switch ev.Ex.Kind {
	case proto.ExchangeRoomInvite:
		a.handleRoomInvite(ev)
	case proto.ExchangeRoomAccept, proto.ExchangeRoomReject:
		a.handleInviteResponse(ev)
	case proto.ExchangeFileRequest:
		a.handleFileRequest(ev)
	case proto.ExchangeFileResponse:
		a.handleFileResponse(ev)
	case proto.ExchangeFileOffer:
		a.handleFileOffer(ev)
	case proto.ExchangeFileOfferResponse:
		a.handleFileOfferResponse(ev)
	default:
		a.logf("unhandled exchange %s from %s", ev.Ex.Kind, shortID(ev.FromPeerID))
	}
}

// handleQueryResult resumes whatever operation the query belonged to. A
// result with no matching entry is the completion of a write we already
// stopped caring about, or one that expired.
func (a *App) handleQueryResult(res dht.QueryResult) {
	op, ok := a.pending.Resolve(res.ID)
	if !ok {
		if res.Err != nil {
			a.logf("unmatched query %s failed: %v", res.ID, res.Err)
		}
		return
	}

	switch op.Kind {
	case opIncomingMessage:
		a.resumeIncomingMessage(op, res)
	case opNicknameLookup:
		a.resumeNicknameLookup(op, res)
	case opPeerDataLookup:
		a.resumePeerDataLookup(op, res)
	case opRatingUpdate:
		a.resumeRatingUpdate(op, res)
	case opRegister:
		a.resumeRegistration(op, res)
	case opWriteAck:
		if res.Err != nil {
			a.ui.Printf("[DHT] %s: write failed: %v\n", op.Note, res.Err)
			return
		}
		a.ui.Printf("[DHT] %s\n", op.Note)
	}
}

// expirePending runs the failure path of every operation whose result never
// arrived.
func (a *App) expirePending() {
	for _, e := range a.pending.Expire(time.Now()) {
		op := e.Op
		switch op.Kind {
		case opIncomingMessage:
			a.printChat(identityLabel(op.Sender), op.Text, op.Timestamp)
		case opNicknameLookup:
			a.ui.Printf("[ROOM] lookup of %q timed out\n", op.TargetNickname)
		case opPeerDataLookup:
			a.ui.Println("[ROOM] peer lookup timed out, connect aborted")
		case opRatingUpdate:
			a.ui.Println("[RATE] rating update timed out, dropped")
		case opRegister:
			a.registered = false
			a.ui.Println("[DHT] registration lookup timed out, will retry")
			a.startRegistration()
		case opWriteAck:
			a.logf("write %q timed out", op.Note)
		}
	}
}

func (a *App) handleNetEvent(ev p2p.Event) {
	switch ev.Type {
	case p2p.EventPeerConnected:
		a.ui.Printf("[NET] peer connected: %s (%s)\n", ev.PeerName, ev.PeerAddr)
	case p2p.EventPeerDisconnected:
		a.ui.Printf("[NET] peer disconnected: %s\n", shortID(ev.PeerID))
	}
}

func (a *App) drainDeferred() {
	for len(a.deferred) > 0 {
		ev := a.deferred[0]
		a.deferred = a.deferred[1:]
		a.handleExchange(ev)
	}
}

func (a *App) logf(format string, args ...any) {
	if a.logger != nil {
		a.logger.Printf(format, args...)
		return
	}
	log.Printf(format+"\n", args...)
}

// For "settle" waits after quit
func sleepBrief() { time.Sleep(100 * time.Millisecond) }
