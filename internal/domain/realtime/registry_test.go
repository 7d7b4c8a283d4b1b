package realtime

import (
	"context"
	"testing"
)

func TestRegistryPublishFanOut(t *testing.T) {
	r := NewRegistry()
	ch1, t1 := r.Attach()
	ch2, t2 := r.Attach()
	defer r.Detach(t1)
	defer r.Detach(t2)

	r.Publish(context.Background(), Event{Kind: EventSaleApplied, SaleID: "s1"})

	for _, ch := range []<-chan Event{ch1, ch2} {
		select {
		case ev := <-ch:
			if ev.Kind != EventSaleApplied || ev.SaleID != "s1" {
				t.Errorf("event = %+v", ev)
			}
		default:
			t.Error("session did not receive the event")
		}
	}
}

func TestRegistryDetachStopsDelivery(t *testing.T) {
	r := NewRegistry()
	ch, token := r.Attach()
	r.Detach(token)

	if _, open := <-ch; open {
		t.Error("channel still open after detach")
	}
	// Detaching twice is a no-op.
	r.Detach(token)
	r.Publish(context.Background(), Event{Kind: EventStockChanged})
}

func TestRegistrySlowSessionDropsEvents(t *testing.T) {
	r := NewRegistry()
	ch, token := r.Attach()
	defer r.Detach(token)

	// Fill the buffer and keep publishing; Publish must never block.
	for i := 0; i < 40; i++ {
		r.Publish(context.Background(), Event{Kind: EventSaleApplied})
	}
	if len(ch) != cap(ch) {
		t.Errorf("buffered = %d, want full buffer %d", len(ch), cap(ch))
	}
}

func TestRegistryClose(t *testing.T) {
	r := NewRegistry()
	ch, _ := r.Attach()
	r.Close()

	if _, open := <-ch; open {
		t.Error("channel still open after Close")
	}

	late, token := r.Attach()
	if token != -1 {
		t.Errorf("token after Close = %d, want -1", token)
	}
	if _, open := <-late; open {
		t.Error("Attach after Close returned an open channel")
	}
	// Idempotent.
	r.Close()
}
