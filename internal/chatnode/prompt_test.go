package chatnode

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/KushDesai04/swapbytes/internal/dht"
)

// Network events must keep flowing while a prompt waits on the console: a
// chat message whose sender lookup completes mid-prompt is still printed
// before the user answers.
func TestPromptServicesNetworkEvents(t *testing.T) {
	a, ui := newTestApp(t, "bob")

	sender := bytes.Repeat([]byte{0xAB}, 32)
	qid := a.Node.DHT().Get(a.ctx, a.Node, dht.KeyFromBytes(sender))
	a.pending.Register(qid, pendingOp{
		Kind:      opIncomingMessage,
		Sender:    sender,
		Text:      "mid-prompt hello",
		Timestamp: time.Now().Unix(),
	})

	answered := make(chan bool, 1)
	go func() { answered <- a.promptYesNo("accept? ") }()

	// The lookup result arrives on Results() while the prompt is blocked on
	// the console; the prompt loop must deliver the chat line anyway.
	waitFor(t, "chat printed during prompt", func() bool {
		return strings.Contains(ui.String(), "mid-prompt hello")
	})

	a.lines <- "y"
	if !<-answered {
		t.Fatal("prompt should still return the typed answer")
	}
	if a.pending.Len() != 0 {
		t.Fatalf("query should have resolved during the prompt, %d left", a.pending.Len())
	}
}
