package broadcast

import (
	"context"
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// eventQueueName is the durable queue downstream consumers (notification
// workers, analytics) read auction events from.
const eventQueueName = "auction.events"

// AMQPRelay mirrors every hub event onto a durable RabbitMQ queue. It sits
// behind the hub like any other subscriber, so a broker outage can never
// slow the bidding path: the relay's own buffer fills, the hub evicts it,
// and it resubscribes after reconnecting.
type AMQPRelay struct {
	url string
	hub *Hub
}

// NewAMQPRelay builds a relay reading from hub and publishing to the broker
// at url.
func NewAMQPRelay(url string, hub *Hub) *AMQPRelay {
	return &AMQPRelay{url: url, hub: hub}
}

// Run connects to the broker and forwards events until ctx is cancelled.
// Connection failures back off exponentially up to 30s and the relay
// resubscribes to the hub on every reconnect, picking up from the live
// stream rather than attempting replay.
func (r *AMQPRelay) Run(ctx context.Context) {
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return
		}
		conn, err := amqp.Dial(r.url)
		if err != nil {
			log.Printf("amqp-relay: dial failed: %v; retrying in %s", err, backoff)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		if err := r.forward(ctx, conn); err != nil {
			log.Printf("amqp-relay: forwarding stopped: %v; reconnecting", err)
		}
		_ = conn.Close()
	}
}

// forward declares the queue and pushes hub events until the subscription
// closes, the channel errors, or ctx is cancelled.
func (r *AMQPRelay) forward(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer func() { _ = ch.Close() }()

	// Durable queue so events survive broker restarts even though the hub
	// itself keeps nothing.
	if _, err := ch.QueueDeclare(eventQueueName, true, false, false, false, nil); err != nil {
		return err
	}

	sub := r.hub.Subscribe(TopicAll)
	defer r.hub.Unsubscribe(sub)

	for {
		select {
		case ev, ok := <-sub.C:
			if !ok {
				return nil
			}
			body, err := json.Marshal(ev)
			if err != nil {
				log.Printf("amqp-relay: marshal event: %v", err)
				continue
			}
			pub := amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent,
				Timestamp:    ev.Timestamp,
				Type:         ev.Type,
				Body:         body,
			}
			if err := ch.PublishWithContext(ctx, "", eventQueueName, false, false, pub); err != nil {
				return err
			}
		case <-ctx.Done():
			return nil
		}
	}
}
