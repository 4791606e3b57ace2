package testutil

import (
	"sync"

	"codevault/internal/vcs"
)

// RecordingNotifier keeps every event it is given. Safe for concurrent use.
type RecordingNotifier struct {
	mu     sync.Mutex
	events []vcs.Event
}

func NewRecordingNotifier() *RecordingNotifier {
	return &RecordingNotifier{}
}

func (n *RecordingNotifier) Notify(ev vcs.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
}

// Events returns a copy of the recorded events in delivery order.
func (n *RecordingNotifier) Events() []vcs.Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]vcs.Event(nil), n.events...)
}
