package chatnode

import (
	"github.com/KushDesai04/swapbytes/internal/p2p"
	"github.com/KushDesai04/swapbytes/internal/uiutil"
)

func shortID(id string) string                { return uiutil.ShortID(id) }
func formatName(name, fallback string) string { return uiutil.FormatName(name, fallback) }

const (
	ansiDim   = uiutil.AnsiDim
	ansiReset = uiutil.AnsiReset
)

func PrintBanner(p Printer, n *p2p.Node) {
	p.Println()
	p.Println("SwapBytes node started.")
	p.Printf("Nickname:       %s\n", n.Name())
	p.Printf("Identity:       %s\n", shortID(n.Identity().UserID))
	p.Printf("Addr:           %s\n", n.ListenAddr())
	p.Println()
	PrintCommands(p)
	p.Println()
}

func PrintCommands(p Printer) {
	p.Println("Commands:")
	p.Println("    /connect <nickname>    - invite a peer to a private room")
	p.Println("    /leave                 - leave the private room (rates the peer)")
	p.Println("    /request <path>        - ask the room peer for a file")
	p.Println("    /offer <path>          - send a file to the room peer")
	p.Println("    /peers                 - show connected peers")
	p.Println("    /me                    - prints your info")
	p.Println("    /help                  - show this list")
	p.Println("    /exit                  - quit")
	p.Println("    <anything else>        - chat in the current room")
}
