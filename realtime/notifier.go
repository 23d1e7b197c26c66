package realtime

import "github.com/camden-git/attendsysbackend/recognition"

// Notifier broadcasts recognition loop outcomes as hub events. It implements
// recognition.Notifier; Broadcast never blocks, so the loop cannot stall on a
// slow client.
type Notifier struct {
	Hub *Hub
}

// Ensure Notifier implements recognition.Notifier
var _ recognition.Notifier = (*Notifier)(nil)

// NewNotifier creates a hub-backed notifier
func NewNotifier(hub *Hub) *Notifier {
	return &Notifier{Hub: hub}
}

func (n *Notifier) NoFace(sessionID uint) {
	n.Hub.Broadcast(Event{Type: "recognition", SessionID: sessionID, Status: StatusNoFace})
}

func (n *Notifier) NoMatch(sessionID uint) {
	n.Hub.Broadcast(Event{Type: "recognition", SessionID: sessionID, Status: StatusNoMatch})
}

func (n *Notifier) Suggested(sessionID uint, best recognition.Candidate, others []recognition.Candidate) {
	n.Hub.Broadcast(Event{Type: "recognition", SessionID: sessionID, Status: StatusSuggestion, Student: &best, Suggestions: others})
}

func (n *Notifier) Marked(sessionID uint, best recognition.Candidate) {
	n.Hub.Broadcast(Event{Type: "recognition", SessionID: sessionID, Status: StatusMarked, Student: &best})
}

func (n *Notifier) AttemptFailed(sessionID uint, err error) {
	n.Hub.Broadcast(Event{Type: "recognition", SessionID: sessionID, Status: StatusError, Error: err.Error()})
}
