package server

import (
	"testing"
	"time"
)

func TestEventBroadcasterSubscribeAndBroadcast(t *testing.T) {
	eb := NewEventBroadcaster()
	ch := eb.Subscribe("job-1")

	event := ProgressEvent{JobID: "job-1", State: StateRunning, StagesTrained: 1, Timestamp: time.Now()}
	eb.Broadcast(event)

	select {
	case got := <-ch:
		if got.StagesTrained != 1 {
			t.Errorf("StagesTrained = %d, want 1", got.StagesTrained)
		}
	default:
		t.Fatal("expected a buffered event")
	}

	eb.Unsubscribe("job-1", ch)
	if _, open := <-ch; open {
		t.Error("channel should be closed after Unsubscribe")
	}
}

func TestEventBroadcasterReplaysLastEventOnSubscribe(t *testing.T) {
	eb := NewEventBroadcaster()
	eb.Broadcast(ProgressEvent{JobID: "job-2", StagesTrained: 3})

	ch := eb.Subscribe("job-2")
	select {
	case got := <-ch:
		if got.StagesTrained != 3 {
			t.Errorf("replayed event StagesTrained = %d, want 3", got.StagesTrained)
		}
	default:
		t.Fatal("expected the last event to be replayed to a new subscriber")
	}
}

func TestEventBroadcasterCleanupJob(t *testing.T) {
	eb := NewEventBroadcaster()
	ch := eb.Subscribe("job-3")
	eb.CleanupJob("job-3")

	if _, open := <-ch; open {
		t.Error("channel should be closed after CleanupJob")
	}
}
