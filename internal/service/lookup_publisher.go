// Package service holds the side effects handlers trigger but do not wait
// on: lookup event publishing and OTP delivery.
package service

import (
	"context"
	"encoding/json"
	"net"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/swasthya/internal/logging"
	q "github.com/iliyamo/swasthya/internal/queue"
)

// LookupPublisher sends facility lookup events to the broker.
type LookupPublisher interface {
	PublishLookup(ctx context.Context, ev q.FacilityLookupEvent) error
}

// NopPublisher drops every event.  It is used when lookup events are
// disabled.
type NopPublisher struct{}

func (NopPublisher) PublishLookup(context.Context, q.FacilityLookupEvent) error { return nil }

// AMQPPublisher publishes to the facility.lookup queue.  A connection is
// dialled per event; lookups are infrequent enough that holding a channel
// open is not worth the reconnect handling.
type AMQPPublisher struct {
	URL string
	Log logging.Logger
}

func NewAMQPPublisher(url string, log logging.Logger) *AMQPPublisher {
	if log == nil {
		log = logging.Discard()
	}
	return &AMQPPublisher{URL: url, Log: log}
}

// PublishLookup publishes ev as a persistent JSON message.  Errors are
// logged and returned so the caller can choose to ignore them.
func (p *AMQPPublisher) PublishLookup(ctx context.Context, ev q.FacilityLookupEvent) error {
	conn, err := amqp.DialConfig(p.URL, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      dialContext(ctx),
	})
	if err != nil {
		p.Log.WithError(err).Warn("rabbitmq: dial failed")
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.Log.WithError(err).Warn("rabbitmq: channel open failed")
		return err
	}
	defer func() { _ = ch.Close() }()

	// Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(
		q.LookupQueueName, // name
		true,              // durable
		false,             // autoDelete
		false,             // exclusive
		false,             // noWait
		nil,               // args
	); err != nil {
		p.Log.WithError(err).Warn("rabbitmq: queue declare failed")
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // store on disk
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", q.LookupQueueName, false, false, pub); err != nil {
		p.Log.WithError(err).Warn("rabbitmq: publish failed")
		return err
	}
	return nil
}

// PublishAsync publishes ev in the background with its own timeout so the
// request that produced it is never held up.
func PublishAsync(p LookupPublisher, ev q.FacilityLookupEvent, log logging.Logger) {
	if p == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := p.PublishLookup(ctx, ev); err != nil && log != nil {
			log.WithError(err).WithField("state", ev.State).Debug("lookup event dropped")
		}
	}()
}

// dialContext bounds the TCP connect and the AMQP handshake by ctx.  The
// library clears the deadline once the connection is open.
func dialContext(ctx context.Context) func(network, addr string) (net.Conn, error) {
	return func(network, addr string) (net.Conn, error) {
		var d net.Dialer
		conn, err := d.DialContext(ctx, network, addr)
		if err != nil {
			return nil, err
		}
		if dl, ok := ctx.Deadline(); ok {
			if err := conn.SetDeadline(dl); err != nil {
				_ = conn.Close()
				return nil, err
			}
		}
		return conn, nil
	}
}
