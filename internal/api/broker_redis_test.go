package api

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func TestRedisBrokerRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	b, err := NewRedisBroker("redis://" + mr.Addr())
	if err != nil {
		t.Fatalf("NewRedisBroker: %v", err)
	}

	ch := b.Subscribe("p1")
	other := b.Subscribe("p2")

	b.Publish("p1", PlanEvent{Type: "plan.completed", Data: map[string]any{"planId": "p1"}})

	select {
	case got := <-ch:
		if got.Type != "plan.completed" {
			t.Fatalf("type: %s", got.Type)
		}
		if got.Data["planId"].(string) != "p1" {
			t.Fatalf("payload: %+v", got.Data)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}

	select {
	case evt := <-other:
		t.Fatalf("event for other plan leaked: %+v", evt)
	case <-time.After(50 * time.Millisecond):
	}

	b.Unsubscribe("p1", ch)
	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("channel should close after unsubscribe")
		}
	case <-time.After(time.Second):
		t.Fatal("channel not closed")
	}
	b.Unsubscribe("p2", other)
}
