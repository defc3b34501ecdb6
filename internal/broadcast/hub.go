package broadcast

import (
	"log"
	"sync"
)

// TopicAll receives every event regardless of auction. Per-auction topics
// use the auction id itself.
const TopicAll = "*"

// defaultBuffer is the per-subscriber channel depth. A subscriber that falls
// this many events behind is dropped rather than allowed to stall publishers.
const defaultBuffer = 64

// Subscriber receives events for one topic. C is closed when the subscriber
// is dropped or the hub shuts down; after that the client must resubscribe
// and re-fetch current state.
type Subscriber struct {
	C     <-chan Event
	topic string
	ch    chan Event
}

// Hub fans events out to per-auction and global topics. Publish never
// blocks: each subscriber has a buffered channel and a subscriber whose
// buffer is full is evicted, so a slow or disconnected observer cannot stall
// bid processing. Per-topic ordering is the caller's publish order, which
// the engine already serializes per auction.
type Hub struct {
	mu     sync.RWMutex
	topics map[string]map[*Subscriber]struct{}
	closed bool
}

// NewHub returns an empty hub ready for use.
func NewHub() *Hub {
	return &Hub{topics: make(map[string]map[*Subscriber]struct{})}
}

// Subscribe registers a new subscriber for the given topic. Use TopicAll to
// observe every auction.
func (h *Hub) Subscribe(topic string) *Subscriber {
	sub := &Subscriber{topic: topic, ch: make(chan Event, defaultBuffer)}
	sub.C = sub.ch

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(sub.ch)
		return sub
	}
	set, ok := h.topics[topic]
	if !ok {
		set = make(map[*Subscriber]struct{})
		h.topics[topic] = set
	}
	set[sub] = struct{}{}
	return sub
}

// Unsubscribe removes the subscriber and closes its channel. Safe to call
// more than once.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.remove(sub)
}

// Publish delivers the event to the auction's topic and to TopicAll.
func (h *Hub) Publish(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.deliver(h.topics[ev.AuctionID], ev)
	h.deliver(h.topics[TopicAll], ev)
}

// Close drops every subscriber. Events published afterwards are discarded.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for _, set := range h.topics {
		for sub := range set {
			close(sub.ch)
		}
	}
	h.topics = make(map[string]map[*Subscriber]struct{})
}

// deliver pushes the event to every subscriber in the set, evicting any
// whose buffer is full. Caller holds h.mu.
func (h *Hub) deliver(set map[*Subscriber]struct{}, ev Event) {
	for sub := range set {
		select {
		case sub.ch <- ev:
		default:
			log.Printf("broadcast: dropping slow subscriber on topic %s", sub.topic)
			h.remove(sub)
		}
	}
}

// remove deletes the subscriber from its topic set and closes its channel.
// Caller holds h.mu.
func (h *Hub) remove(sub *Subscriber) {
	set, ok := h.topics[sub.topic]
	if !ok {
		return
	}
	if _, ok := set[sub]; !ok {
		return
	}
	delete(set, sub)
	if len(set) == 0 {
		delete(h.topics, sub.topic)
	}
	close(sub.ch)
}
