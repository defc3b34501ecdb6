package broadcast

import (
	"testing"
	"time"
)

func event(auctionID string, seq uint64) Event {
	return Event{
		Type:      EventBidPlaced,
		AuctionID: auctionID,
		Sequence:  seq,
		Timestamp: time.Now().UTC(),
	}
}

func TestPublishReachesAuctionAndGlobalTopics(t *testing.T) {
	h := NewHub()
	defer h.Close()

	perAuction := h.Subscribe("a1")
	global := h.Subscribe(TopicAll)
	other := h.Subscribe("a2")

	h.Publish(event("a1", 1))

	select {
	case ev := <-perAuction.C:
		if ev.AuctionID != "a1" || ev.Sequence != 1 {
			t.Fatalf("unexpected event %+v", ev)
		}
	default:
		t.Fatal("per-auction subscriber missed the event")
	}
	select {
	case <-global.C:
	default:
		t.Fatal("global subscriber missed the event")
	}
	select {
	case ev := <-other.C:
		t.Fatalf("unrelated topic received %+v", ev)
	default:
	}
}

func TestEventsArriveInPublishOrder(t *testing.T) {
	h := NewHub()
	defer h.Close()

	sub := h.Subscribe("a1")
	for seq := uint64(1); seq <= 10; seq++ {
		h.Publish(event("a1", seq))
	}
	for want := uint64(1); want <= 10; want++ {
		select {
		case ev := <-sub.C:
			if ev.Sequence != want {
				t.Fatalf("got sequence %d, want %d", ev.Sequence, want)
			}
		default:
			t.Fatalf("missing event %d", want)
		}
	}
}

func TestSlowSubscriberIsDroppedNotBlocking(t *testing.T) {
	h := NewHub()
	defer h.Close()

	slow := h.Subscribe("a1")
	healthy := h.Subscribe("a1")

	// Overflow the slow subscriber's buffer while the healthy one keeps
	// draining. Publish is synchronous and must never block.
	received := 0
	for seq := uint64(1); seq <= defaultBuffer+10; seq++ {
		h.Publish(event("a1", seq))
		select {
		case _, ok := <-healthy.C:
			if !ok {
				t.Fatal("healthy subscriber was dropped")
			}
			received++
		default:
			t.Fatalf("healthy subscriber missed event %d", seq)
		}
	}
	if received != defaultBuffer+10 {
		t.Fatalf("healthy subscriber received %d events, want %d", received, defaultBuffer+10)
	}

	// The slow subscriber was evicted once it fell defaultBuffer behind;
	// its channel holds the buffered events and is then closed.
	drained := 0
	for range slow.C {
		drained++
	}
	if drained != defaultBuffer {
		t.Fatalf("slow subscriber drained %d buffered events, want %d", drained, defaultBuffer)
	}
}

func TestUnsubscribeIsIdempotentAndCloses(t *testing.T) {
	h := NewHub()
	defer h.Close()

	sub := h.Subscribe("a1")
	h.Unsubscribe(sub)
	h.Unsubscribe(sub) // second call must not panic

	if _, ok := <-sub.C; ok {
		t.Fatal("channel should be closed after unsubscribe")
	}

	// Publishing to a topic with no remaining subscribers is a no-op.
	h.Publish(event("a1", 1))
}

func TestCloseDropsAllSubscribers(t *testing.T) {
	h := NewHub()
	a := h.Subscribe("a1")
	b := h.Subscribe(TopicAll)

	h.Close()
	if _, ok := <-a.C; ok {
		t.Fatal("subscriber a still open after Close")
	}
	if _, ok := <-b.C; ok {
		t.Fatal("subscriber b still open after Close")
	}

	// Subscribing after Close yields a closed channel rather than a leak.
	c := h.Subscribe("a1")
	if _, ok := <-c.C; ok {
		t.Fatal("post-Close subscription should be closed immediately")
	}
}
