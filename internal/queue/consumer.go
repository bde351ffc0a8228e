package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/swasthya/internal/logging"
)

const lookupLogFile = "lookup.log"

// LookupConsumer drains the facility.lookup queue into <dir>/lookup.log.
type LookupConsumer struct {
	url string
	dir string
	log logging.Logger

	mu sync.Mutex // serialises appends to the log file
}

// NewLookupConsumer returns a consumer for the broker at url that writes
// into dir.
func NewLookupConsumer(url, dir string, log logging.Logger) *LookupConsumer {
	if dir == "" {
		dir = "logs"
	}
	if log == nil {
		log = logging.Discard()
	}
	return &LookupConsumer{url: url, dir: dir, log: log}
}

// Run connects to RabbitMQ, declares the queue (durable), and consumes
// until ctx is cancelled.  Broker failures are retried with exponential
// backoff capped at 30s; a message that cannot be handled is rejected
// without requeue so the loop keeps going.
func (lc *LookupConsumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(lc.url)
		if err != nil {
			lc.log.WithError(err).WithField("retry_in", backoff.String()).Warn("lookup-consumer: failed to dial broker")
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		err = lc.consumeLoop(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		lc.log.WithError(err).Warn("lookup-consumer: consume loop ended; reconnecting")
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (lc *LookupConsumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		lc.log.WithError(err).Warn("lookup-consumer: set QoS failed")
	}

	if _, err := ch.QueueDeclare(LookupQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.ConsumeWithContext(ctx, LookupQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := lc.HandleMessage(d.Body); err != nil {
			lc.log.WithError(err).Error("lookup-consumer: handle message failed")
			_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

// HandleMessage decodes one event and appends it to the log file.
func (lc *LookupConsumer) HandleMessage(body []byte) error {
	var ev FacilityLookupEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.State == "" {
		return errors.New("event has no state")
	}

	lc.mu.Lock()
	defer lc.mu.Unlock()

	if err := os.MkdirAll(lc.dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", lc.dir, err)
	}
	f, err := os.OpenFile(filepath.Join(lc.dir, lookupLogFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(FormatLine(ev)); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// FormatLine renders ev as a single newline-terminated log line.
func FormatLine(ev FacilityLookupEvent) string {
	return fmt.Sprintf("[%s] Facility lookup | state=%s | source=%s | facilities=%d | lat=%s | lon=%s\n",
		ev.ResolvedAt, ev.State, ev.Source, ev.FacilityCount, optCoord(ev.Lat), optCoord(ev.Lon))
}

func optCoord(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
