package chatnode

import (
	"strconv"
	"strings"
)

// promptLine blocks until the user answers, while keeping the network
// serviced: gossip, query results and connection events are handled inline,
// and exchange traffic that could itself open a prompt is held back until
// the current one resolves.
func (a *App) promptLine(question string) (string, bool) {
	a.ui.Printf("%s", question)
	for {
		select {
		case line, ok := <-a.lines:
			if !ok {
				return "", false
			}
			return line, true

		case env, ok := <-a.Node.Incoming():
			if ok {
				a.handleEnvelope(env)
			}

		case ev, ok := <-a.Node.Exchanges():
			if ok {
				a.deferred = append(a.deferred, ev)
			}

		case res, ok := <-a.Node.DHT().Results():
			if ok {
				a.handleQueryResult(res)
			}

		case ev, ok := <-a.Node.Events():
			if ok {
				a.handleNetEvent(ev)
			}
		}
	}
}

// promptYesNo re-prompts until it gets a y or n. A closed console counts as
// no.
func (a *App) promptYesNo(question string) bool {
	for {
		line, ok := a.promptLine(question)
		if !ok {
			return false
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true
		case "n", "no":
			return false
		}
		a.ui.Println("please answer y or n")
	}
}

// promptRating re-prompts until it gets -1, 0 or 1. A closed console counts
// as 0.
func (a *App) promptRating(question string) int {
	for {
		line, ok := a.promptLine(question)
		if !ok {
			return 0
		}
		v, err := strconv.Atoi(strings.TrimSpace(line))
		if err == nil && v >= -1 && v <= 1 {
			return v
		}
		a.ui.Println("please answer -1, 0 or 1")
	}
}
