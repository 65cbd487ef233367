package notify

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Dispatcher is an unbounded FIFO with a single consumer goroutine.
// Enqueue never blocks; messages queued before Start are held and drained
// once the consumer runs. Failed deliveries are logged and discarded —
// no retry, no dead-letter, no backpressure.
type Dispatcher struct {
	notifier Notifier
	logger   *slog.Logger

	mu      sync.Mutex
	cond    *sync.Cond
	queue   []Message
	stopped bool
	started bool
}

func NewDispatcher(notifier Notifier, logger *slog.Logger) *Dispatcher {
	d := &Dispatcher{
		notifier: notifier,
		logger:   logger,
	}
	d.cond = sync.NewCond(&d.mu)
	return d
}

// Enqueue appends a message and returns immediately.
func (d *Dispatcher) Enqueue(subject, body, recipient string) {
	msg := Message{
		ID:        uuid.New(),
		Subject:   subject,
		Body:      body,
		Recipient: recipient,
	}
	d.mu.Lock()
	d.queue = append(d.queue, msg)
	d.mu.Unlock()
	d.cond.Signal()
	d.logger.Debug("notification queued", "id", msg.ID, "recipient", recipient)
}

// Len reports the number of undelivered messages.
func (d *Dispatcher) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queue)
}

// Start launches the consumer. Safe to call once; the consumer runs until
// Stop is called or ctx is cancelled, draining whatever is queued.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	if d.started {
		d.mu.Unlock()
		return
	}
	d.started = true
	d.mu.Unlock()

	go func() {
		<-ctx.Done()
		d.Stop()
	}()
	go d.consume()
}

// Stop wakes the consumer and lets it exit after the queue empties.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	d.stopped = true
	d.mu.Unlock()
	d.cond.Broadcast()
}

// consume drains the queue until Stop. Deliveries run on a fresh context
// so in-flight messages still go out during shutdown.
func (d *Dispatcher) consume() {
	for {
		d.mu.Lock()
		for len(d.queue) == 0 && !d.stopped {
			d.cond.Wait()
		}
		if len(d.queue) == 0 && d.stopped {
			d.mu.Unlock()
			return
		}
		msg := d.queue[0]
		d.queue = d.queue[1:]
		d.mu.Unlock()

		if err := d.notifier.Send(context.Background(), msg); err != nil {
			d.logger.Error("notification delivery failed",
				"id", msg.ID, "recipient", msg.Recipient, "err", err)
			continue
		}
		d.logger.Info("notification delivered", "id", msg.ID, "recipient", msg.Recipient)
	}
}
