// Package notify fans vcs events out to live subscribers.
package notify

import (
	"sync"
	"sync/atomic"

	"codevault/internal/vcs"
)

// DefaultBufferSize is used when NewBroadcaster is given a non-positive size.
const DefaultBufferSize = 64

// AllTeams subscribes to events of every team.
const AllTeams int64 = 0

// Subscription receives the events published after it was created.
type Subscription struct {
	id      uint64
	teamID  int64
	events  chan vcs.Event
	dropped atomic.Uint64
}

// Events is closed when the subscription ends.
func (s *Subscription) Events() <-chan vcs.Event { return s.events }

// TeamID is the team filter, or AllTeams.
func (s *Subscription) TeamID() int64 { return s.teamID }

// Dropped counts events discarded because the buffer was full.
func (s *Subscription) Dropped() uint64 { return s.dropped.Load() }

// Broadcaster implements vcs.Notifier. Delivery is non-blocking and
// at-most-once per subscriber; there is no replay for late subscribers.
type Broadcaster struct {
	mu         sync.RWMutex
	subs       map[uint64]*Subscription
	nextID     uint64
	bufferSize int
	closed     bool
	logger     vcs.Logger
}

// NewBroadcaster creates a Broadcaster whose subscribers buffer bufferSize events.
func NewBroadcaster(bufferSize int, logger vcs.Logger) *Broadcaster {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	if logger == nil {
		logger = vcs.NewNopLogger()
	}
	return &Broadcaster{
		subs:       make(map[uint64]*Subscription),
		bufferSize: bufferSize,
		logger:     logger,
	}
}

// Subscribe registers a subscriber for teamID (AllTeams for every team).
// Subscribing to a closed Broadcaster returns an already-closed subscription.
func (b *Broadcaster) Subscribe(teamID int64) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	sub := &Subscription{
		id:     b.nextID,
		teamID: teamID,
		events: make(chan vcs.Event, b.bufferSize),
	}
	if b.closed {
		close(sub.events)
		return sub
	}
	b.subs[sub.id] = sub
	return sub
}

// Unsubscribe removes sub and closes its channel. Safe to call more than once.
func (b *Broadcaster) Unsubscribe(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subs[sub.id]; !ok {
		return
	}
	delete(b.subs, sub.id)
	close(sub.events)
}

// Notify delivers ev to every matching subscriber without blocking.
func (b *Broadcaster) Notify(ev vcs.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sub := range b.subs {
		if sub.teamID != AllTeams && sub.teamID != ev.TeamID {
			continue
		}
		select {
		case sub.events <- ev:
		default:
			sub.dropped.Add(1)
			b.logger.Warn("dropped event for slow subscriber",
				"subscriber", sub.id, "team_id", ev.TeamID, "commit_id", ev.CommitID)
		}
	}
}

// Count returns the number of live subscribers.
func (b *Broadcaster) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close ends every subscription. Later Notify calls are no-ops.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for id, sub := range b.subs {
		close(sub.events)
		delete(b.subs, id)
	}
}

var _ vcs.Notifier = (*Broadcaster)(nil)
