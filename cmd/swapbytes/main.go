package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/KushDesai04/swapbytes/internal/chatnode"
	"github.com/KushDesai04/swapbytes/internal/config"
	"github.com/KushDesai04/swapbytes/internal/netx"
	"github.com/KushDesai04/swapbytes/internal/p2p"
	"github.com/KushDesai04/swapbytes/internal/paths"
	"github.com/KushDesai04/swapbytes/internal/storage/recordbolt"
)

func main() {
	name := flag.String("name", "", "nickname (overrides config)")
	bind := flag.String("bind", "", "bind address (e.g. :0 for random port)")
	bootstrapStr := flag.String("bootstrap", "", "comma-separated bootstrap addresses host:port")
	configPath := flag.String("config", "", "path to config.toml")
	debug := flag.Bool("debug", false, "verbose node logging")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	if *name != "" {
		cfg.Node.Nickname = *name
	}
	if *bind != "" {
		cfg.Node.Listen = *bind
	}
	if *debug {
		cfg.Node.Debug = true
	}
	if *bootstrapStr != "" {
		cfg.Network.BootstrapPeers = strings.Split(*bootstrapStr, ",")
	}

	if cfg.Node.Nickname == "" {
		cfg.Node.Nickname = promptNickname()
	}

	var bootstraps []netx.Addr
	for _, part := range cfg.Network.BootstrapPeers {
		part = strings.TrimSpace(part)
		if part != "" {
			bootstraps = append(bootstraps, netx.Addr(part))
		}
	}

	logger := log.New(os.Stdout, "", log.LstdFlags)

	identityPath := cfg.Node.IdentityPath
	if identityPath == "" {
		identityPath = paths.Path("identity.json")
	}
	id, err := p2p.LoadOrCreateIdentity(identityPath)
	if err != nil {
		log.Fatalf("identity: %v", err)
	}

	recordPath := cfg.DHT.RecordDBPath
	if recordPath == "" {
		recordPath = paths.Path("records.db")
	}
	records, err := recordbolt.Open(recordPath)
	if err != nil {
		log.Fatalf("open record store: %v", err)
	}
	defer records.Close()

	addrStorePath := cfg.DHT.AddrStorePath
	if addrStorePath == "" {
		addrStorePath = paths.Path("dht-peers.json")
	}

	app, err := chatnode.New(chatnode.Config{
		Nickname:      cfg.Node.Nickname,
		Bind:          cfg.Node.Listen,
		Bootstraps:    bootstraps,
		Debug:         cfg.Node.Debug,
		LANDiscovery:  cfg.Network.LANDiscovery,
		LANPort:       cfg.Network.LANPort,
		DownloadDir:   cfg.Files.DownloadDir,
		RecordTTL:     time.Duration(cfg.DHT.TTLSeconds) * time.Second,
		Identity:      id,
		RecordStore:   records,
		AddrStorePath: addrStorePath,
	}, logger)
	if err != nil {
		log.Fatalf("create node: %v", err)
	}

	if err := app.Start(); err != nil {
		log.Fatalf("start node: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx); err != nil {
		log.Printf("run: %v", err)
	}
	app.StopAll()
}

func promptNickname() string {
	sc := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("choose a nickname: ")
		if !sc.Scan() {
			fmt.Println()
			os.Exit(1)
		}
		nick := strings.TrimSpace(sc.Text())
		if nick != "" {
			return nick
		}
	}
}
