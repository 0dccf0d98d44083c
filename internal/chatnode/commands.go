package chatnode

import (
	"bufio"
	"context"
	"os"
	"strings"
	"time"

	"github.com/KushDesai04/swapbytes/internal/proto"
)

func (a *App) readStdin(ctx context.Context) {
	sc := bufio.NewScanner(os.Stdin)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		select {
		case a.lines <- line:
		case <-ctx.Done():
			return
		}
	}
	close(a.lines)
}

func (a *App) handleLine(line string) {
	if strings.HasPrefix(line, "/") {
		a.handleCommand(line)
		return
	}
	a.sendChat(line)
}

func (a *App) handleCommand(line string) {
	switch {
	case strings.HasPrefix(line, "/quit"), strings.HasPrefix(line, "/exit"):
		a.ui.Println("quitting...")
		a.StopAll()
		sleepBrief()
		os.Exit(0)

	case strings.HasPrefix(line, "/connect"):
		nick := strings.TrimSpace(strings.TrimPrefix(line, "/connect"))
		if nick == "" {
			a.ui.Println("usage: /connect <nickname>")
			return
		}
		a.startConnect(nick)

	case line == "/leave":
		a.leaveRoom()

	case strings.HasPrefix(line, "/request"):
		path := strings.TrimSpace(strings.TrimPrefix(line, "/request"))
		if path == "" {
			a.ui.Println("usage: /request <path>")
			return
		}
		a.requestFile(path)

	case strings.HasPrefix(line, "/offer"):
		path := strings.TrimSpace(strings.TrimPrefix(line, "/offer"))
		if path == "" {
			a.ui.Println("usage: /offer <path>")
			return
		}
		a.offerFile(path)

	case line == "/peers":
		a.printPeers()

	case line == "/me":
		a.printMe()

	case line == "/help":
		PrintCommands(a.ui)

	default:
		a.ui.Println("unknown command")
		PrintCommands(a.ui)
	}
}

// sendChat publishes a plain line to the current topic. Private-room traffic
// is sealed so relaying third parties cannot read it.
func (a *App) sendChat(text string) {
	chat := proto.ChatMessage{
		Sender:    a.Node.Identity().SignPub,
		Text:      text,
		Timestamp: time.Now().Unix(),
	}

	topic := defaultTopic
	body := proto.MustMarshal(chat)
	if a.room != nil {
		topic = a.room.Topic
		sealed, err := a.sealRoomMessage(body)
		if err != nil {
			a.ui.Printf("[ROOM] seal failed: %v\n", err)
			return
		}
		body = sealed
	}
	a.Node.Publish(topic, body)
}

func (a *App) printPeers() {
	peers := a.Node.SnapshotPeers()
	if len(peers) == 0 {
		a.ui.Println("no peers connected")
		return
	}

	a.ui.Println()
	a.ui.Println("Connected peers:")
	a.ui.Printf("%-16s  %-10s  %-10s  %s\n", "NAME", "USERID", "NETID", "ADDR")
	a.ui.Printf("%-16s  %-10s  %-10s  %s\n", "----", "------", "-----", "----")

	for _, p := range peers {
		name := p.Name
		if name == "" {
			name = shortID(p.NetworkID)
		}
		coloredName := formatName(name, p.NetworkID)

		shortUser := "-"
		if p.UserID != "" {
			shortUser = shortID(p.UserID)
		}
		shortNet := shortID(p.NetworkID)

		a.ui.Printf("%-16s  %-10s  %-10s  %s\n", coloredName, shortUser, shortNet, p.Addr)
	}
	a.ui.Println()
}

func (a *App) printMe() {
	id := a.Node.Identity()

	a.ui.Println()
	a.ui.Println("== You ==")
	a.ui.Printf("  Nickname:   %s\n", a.Node.Name())
	a.ui.Printf("  UserID:     %s\n", id.UserID)
	a.ui.Printf("  NetworkID:  %s\n", id.ID)
	a.ui.Printf("  Listen on:  %s\n", a.Node.ListenAddr())
	a.ui.Printf("  Peers:      %d\n", a.Node.PeerCount())
	if a.room != nil {
		a.ui.Printf("  Room:       with %s\n", a.room.Peer.Nickname)
	} else {
		a.ui.Printf("  Room:       %s\n", defaultTopic)
	}
	a.ui.Println()
}
