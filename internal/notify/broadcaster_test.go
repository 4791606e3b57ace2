package notify

import (
	"sync"
	"testing"
	"time"

	"codevault/internal/vcs"
)

func event(teamID, commitID int64) vcs.Event {
	return vcs.Event{Type: vcs.EventCommit, TeamID: teamID, CommitID: commitID, Branch: vcs.Main}
}

func TestBroadcaster_TeamFilter(t *testing.T) {
	b := NewBroadcaster(4, nil)
	defer b.Close()

	team1 := b.Subscribe(1)
	team2 := b.Subscribe(2)
	all := b.Subscribe(AllTeams)

	b.Notify(event(1, 10))
	b.Notify(event(2, 20))

	if got := len(team1.Events()); got != 1 {
		t.Errorf("team1 buffered %d events, want 1", got)
	}
	if ev := <-team1.Events(); ev.CommitID != 10 {
		t.Errorf("team1 got commit %d, want 10", ev.CommitID)
	}
	if ev := <-team2.Events(); ev.CommitID != 20 {
		t.Errorf("team2 got commit %d, want 20", ev.CommitID)
	}
	if got := len(all.Events()); got != 2 {
		t.Errorf("all-teams subscriber buffered %d events, want 2", got)
	}
}

func TestBroadcaster_DropsWhenFull(t *testing.T) {
	b := NewBroadcaster(2, nil)
	defer b.Close()

	slow := b.Subscribe(1)

	done := make(chan struct{})
	go func() {
		for i := int64(0); i < 10; i++ {
			b.Notify(event(1, i))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Notify blocked on a full subscriber")
	}

	if slow.Dropped() != 8 {
		t.Errorf("Dropped() = %d, want 8", slow.Dropped())
	}
	// the oldest events are the ones kept
	if ev := <-slow.Events(); ev.CommitID != 0 {
		t.Errorf("first event = %d, want 0", ev.CommitID)
	}
}

func TestBroadcaster_LateSubscriberSeesNoPastEvents(t *testing.T) {
	b := NewBroadcaster(4, nil)
	defer b.Close()

	b.Notify(event(1, 1))
	late := b.Subscribe(1)

	select {
	case ev := <-late.Events():
		t.Errorf("late subscriber received %+v", ev)
	default:
	}
}

func TestBroadcaster_Unsubscribe(t *testing.T) {
	b := NewBroadcaster(4, nil)
	defer b.Close()

	sub := b.Subscribe(1)
	if b.Count() != 1 {
		t.Fatalf("Count() = %d, want 1", b.Count())
	}

	b.Unsubscribe(sub)
	b.Unsubscribe(sub)
	if b.Count() != 0 {
		t.Errorf("Count() = %d, want 0", b.Count())
	}
	if _, ok := <-sub.Events(); ok {
		t.Error("channel still open after Unsubscribe")
	}

	// no panic sending after unsubscribe
	b.Notify(event(1, 1))
}

func TestBroadcaster_Close(t *testing.T) {
	b := NewBroadcaster(4, nil)
	a := b.Subscribe(1)
	c := b.Subscribe(AllTeams)

	b.Close()
	b.Close()

	for _, sub := range []*Subscription{a, c} {
		if _, ok := <-sub.Events(); ok {
			t.Error("channel still open after Close")
		}
	}
	if b.Count() != 0 {
		t.Errorf("Count() = %d, want 0", b.Count())
	}

	b.Notify(event(1, 1))
	after := b.Subscribe(1)
	if _, ok := <-after.Events(); ok {
		t.Error("subscription after Close should be closed")
	}
	b.Unsubscribe(after)
}

func TestBroadcaster_ConcurrentUse(t *testing.T) {
	b := NewBroadcaster(1, nil)
	defer b.Close()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(team int64) {
			defer wg.Done()
			sub := b.Subscribe(team)
			b.Unsubscribe(sub)
		}(int64(i))
		go func(team int64) {
			defer wg.Done()
			b.Notify(event(team, team))
		}(int64(i))
	}
	wg.Wait()
}
