package chatnode

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/KushDesai04/swapbytes/internal/p2p"
	"github.com/KushDesai04/swapbytes/internal/proto"
)

// requestFile starts the pull flow: ask the room peer for a file by path.
// The answer is a FileResponse echoing our request id; empty data means
// rejected or not found.
func (a *App) requestFile(path string) {
	if a.room == nil {
		a.ui.Println("[FILE] /request only works inside a private room")
		return
	}

	req := proto.Exchange{
		RequestID: uuid.NewString(),
		Kind:      proto.ExchangeFileRequest,
		Path:      path,
		Requester: a.Node.Identity().SignPub,
	}
	if err := a.Node.SendExchangeToUser(a.room.Peer.UserID, req); err != nil {
		a.ui.Printf("[FILE] request failed: %v\n", err)
		return
	}
	a.ui.Printf("[FILE] requested %q from %s\n", path, a.room.Peer.Nickname)
}

// offerFile starts the push flow: read the file and send it outright; the
// peer decides whether to keep it.
func (a *App) offerFile(path string) {
	if a.room == nil {
		a.ui.Println("[FILE] /offer only works inside a private room")
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		a.ui.Printf("[FILE] cannot read %q: %v\n", path, err)
		return
	}

	offer := proto.Exchange{
		RequestID: uuid.NewString(),
		Kind:      proto.ExchangeFileOffer,
		Filename:  filepath.Base(path),
		Data:      data,
	}
	if err := a.Node.SendExchangeToUser(a.room.Peer.UserID, offer); err != nil {
		a.ui.Printf("[FILE] offer failed: %v\n", err)
		return
	}
	a.ui.Printf("[FILE] offered %q (%d bytes) to %s\n", offer.Filename, len(data), a.room.Peer.Nickname)
}

// handleFileRequest answers a pull from the peer. Declines and unreadable
// files both produce an empty response; the requester cannot tell them
// apart, which is fine.
func (a *App) handleFileRequest(ev p2p.ExchangeEvent) {
	from := ev.FromName
	if from == "" {
		from = shortID(ev.FromPeerID)
	}

	resp := proto.Exchange{
		RequestID: ev.Ex.RequestID,
		Kind:      proto.ExchangeFileResponse,
	}

	send := a.promptYesNo(fmt.Sprintf("[FILE] %s requests %q. Send? [y/n] ", formatName(from, ev.FromPeerID), ev.Ex.Path))
	if send {
		data, err := os.ReadFile(ev.Ex.Path)
		if err != nil {
			a.ui.Printf("[FILE] cannot read %q: %v\n", ev.Ex.Path, err)
		} else {
			resp.Data = data
			resp.Filename = filepath.Base(ev.Ex.Path)
		}
	}

	if err := a.Node.SendExchange(ev.FromPeerID, resp); err != nil {
		a.ui.Printf("[FILE] response to %s failed (request %s): %v\n", shortID(ev.FromPeerID), shortID(ev.Ex.RequestID), err)
		return
	}
	if len(resp.Data) > 0 {
		a.ui.Printf("[FILE] sent %q (%d bytes)\n", resp.Filename, len(resp.Data))
	} else {
		a.ui.Println("[FILE] declined")
	}
}

// handleFileResponse finishes the pull flow on the requester side.
func (a *App) handleFileResponse(ev p2p.ExchangeEvent) {
	if len(ev.Ex.Data) == 0 {
		a.ui.Printf("[FILE] request %s: rejected or not found\n", shortID(ev.Ex.RequestID))
		return
	}
	a.saveFile(ev.Ex.RequestID, ev.Ex.Filename, ev.Ex.Data)
}

// handleFileOffer answers a push from the peer. The file only touches disk
// after the acceptance response went out.
func (a *App) handleFileOffer(ev p2p.ExchangeEvent) {
	from := ev.FromName
	if from == "" {
		from = shortID(ev.FromPeerID)
	}

	accept := a.promptYesNo(fmt.Sprintf("[FILE] %s offers %q (%d bytes). Accept? [y/n] ", formatName(from, ev.FromPeerID), ev.Ex.Filename, len(ev.Ex.Data)))

	resp := proto.Exchange{
		RequestID: ev.Ex.RequestID,
		Kind:      proto.ExchangeFileOfferResponse,
		Accepted:  accept,
	}
	if err := a.Node.SendExchange(ev.FromPeerID, resp); err != nil {
		a.ui.Printf("[FILE] response to %s failed (request %s): %v\n", shortID(ev.FromPeerID), shortID(ev.Ex.RequestID), err)
		return
	}

	if !accept {
		a.ui.Println("[FILE] offer declined")
		return
	}
	a.saveFile(ev.Ex.RequestID, ev.Ex.Filename, ev.Ex.Data)
}

func (a *App) handleFileOfferResponse(ev p2p.ExchangeEvent) {
	from := ev.FromName
	if from == "" {
		from = shortID(ev.FromPeerID)
	}
	if ev.Ex.Accepted {
		a.ui.Printf("[FILE] %s accepted your file\n", from)
	} else {
		a.ui.Printf("[FILE] %s declined your file\n", from)
	}
}

func (a *App) saveFile(requestID, filename string, data []byte) {
	dir := a.cfg.DownloadDir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		a.ui.Printf("[FILE] cannot create %q: %v\n", dir, err)
		return
	}

	path := filepath.Join(dir, downloadName(requestID, filename))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		a.ui.Printf("[FILE] save failed: %v\n", err)
		return
	}
	a.ui.Printf("[FILE] saved %d bytes to %s\n", len(data), path)
}

// downloadName derives the local filename from the request id and the
// sender-supplied name, stripped of any path components.
func downloadName(requestID, filename string) string {
	base := filepath.Base(filename)
	if base == "." || base == string(filepath.Separator) || base == "" {
		base = "download"
	}
	return shortID(requestID) + "-" + base
}
