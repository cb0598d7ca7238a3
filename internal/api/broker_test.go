package api

import (
	"testing"
	"time"
)

func TestBrokerPublishSubscribe(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe("p1")

	b.Publish("p1", PlanEvent{Type: "plan.progress", Data: map[string]any{"bestCost": 42}})

	select {
	case got := <-ch:
		if got.Type != "plan.progress" {
			t.Fatalf("type: %s", got.Type)
		}
		if got.Data["bestCost"].(int) != 42 {
			t.Fatalf("payload: %+v", got.Data)
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatal("timeout waiting for event")
	}

	b.Unsubscribe("p1", ch)
	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("channel should be closed after unsubscribe")
		}
	case <-time.After(50 * time.Millisecond):
		t.Fatal("channel not closed")
	}
}

func TestBrokerIsolatesPlans(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe("p1")
	defer b.Unsubscribe("p1", ch)

	b.Publish("p2", PlanEvent{Type: "plan.started"})
	select {
	case evt := <-ch:
		t.Fatalf("event for other plan leaked: %+v", evt)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBrokerDropsWhenSubscriberSlow(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe("p1")
	defer b.Unsubscribe("p1", ch)

	// Channel buffers 8; the rest must be dropped without blocking.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 50; i++ {
			b.Publish("p1", PlanEvent{Type: "plan.progress"})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
}
