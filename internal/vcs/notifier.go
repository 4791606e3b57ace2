package vcs

import "time"

// EventType names the kind of change carried by an Event.
type EventType string

const (
	EventCommit EventType = "commit"
	EventRevert EventType = "revert"
)

// Event is pushed to observers after a publish or revert.
type Event struct {
	Type         EventType `json:"type"`
	FileID       int64     `json:"file_id"`
	TeamID       int64     `json:"team_id"`
	CommitID     int64     `json:"commit_id"`
	Branch       Branch    `json:"branch"`
	Message      string    `json:"message"`
	Hash         string    `json:"hash"`
	AuthorID     *int64    `json:"author_id,omitempty"`
	RevertedFrom string    `json:"reverted_from,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// Notifier delivers events to whoever is listening at the moment of the call.
// Delivery is best-effort: Notify must not block and reports no errors.
type Notifier interface {
	Notify(ev Event)
}

// NopNotifier drops every event.
type NopNotifier struct{}

func (NopNotifier) Notify(Event) {}
