// Package bus provides the asynchronous publish/subscribe event bus that
// carries task lifecycle messages between the orchestrator and its
// subscribers (progress UIs, loggers, audit trails).
package bus

import (
	"sync"

	"github.com/ShayCichocki/orchid/pkg/models"
)

// HistoryLimit caps the retained message history; the oldest messages are
// dropped beyond this.
const HistoryLimit = 1000

// Handler receives messages for one subscription. The bus never invokes the
// same subscriber's handlers concurrently, and delivery order matches publish
// order.
type Handler func(msg models.Message)

// Stats is a snapshot of bus counters.
type Stats struct {
	// Published counts every accepted message.
	Published uint64 `json:"published"`
	// Delivered counts handler invocations.
	Delivered uint64 `json:"delivered"`
	// Subscribers counts active subscriptions.
	Subscribers int `json:"subscribers"`
	// HistorySize is the current retained history length.
	HistorySize int `json:"history_size"`
}

type subscription struct {
	id      string
	handler Handler
}

// Bus is an in-process event bus. A single background goroutine drains the
// publish queue and fans each message out to the subscribers registered for
// its type, honoring the message recipient: an empty recipient broadcasts, a
// non-empty recipient restricts delivery to the matching subscriber ID.
type Bus struct {
	mu   sync.Mutex
	cond *sync.Cond
	idle *sync.Cond
	// queue holds published, undelivered messages. Unbounded so Publish
	// never blocks the caller.
	queue []models.Message
	// subscribers maps message type to active subscriptions.
	subscribers map[models.MessageType][]subscription
	// history retains the last HistoryLimit messages for audit/replay.
	history []models.Message

	published uint64
	delivered uint64
	inflight  bool
	closed    bool
	drained   chan struct{}

	// logf reports recovered handler panics. No-op by default.
	logf func(format string, args ...any)
}

// New creates a started Bus. Close must be called to release the delivery
// goroutine.
func New() *Bus {
	b := &Bus{
		subscribers: make(map[models.MessageType][]subscription),
		drained:     make(chan struct{}),
		logf:        func(format string, args ...any) {},
	}
	b.cond = sync.NewCond(&b.mu)
	b.idle = sync.NewCond(&b.mu)
	go b.deliverLoop()
	return b
}

// SetLogf sets the function used to report recovered subscriber panics.
func (b *Bus) SetLogf(logf func(format string, args ...any)) {
	if logf == nil {
		return
	}
	b.mu.Lock()
	b.logf = logf
	b.mu.Unlock()
}

// Subscribe registers a handler for one message type under a subscriber ID.
// Subscribing the same (type, id) pair again replaces the previous handler.
func (b *Bus) Subscribe(msgType models.MessageType, subscriberID string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subscribers[msgType]
	for i, sub := range subs {
		if sub.id == subscriberID {
			subs[i].handler = handler
			return
		}
	}
	b.subscribers[msgType] = append(subs, subscription{id: subscriberID, handler: handler})
}

// Unsubscribe removes the handler for a (type, id) pair, if present.
func (b *Bus) Unsubscribe(msgType models.MessageType, subscriberID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subscribers[msgType]
	for i, sub := range subs {
		if sub.id == subscriberID {
			b.subscribers[msgType] = append(subs[:i], subs[i+1:]...)
			return
		}
	}
}

// Publish enqueues a message for asynchronous delivery and appends it to the
// bounded history. Publish never blocks and never runs handlers on the
// caller's goroutine. Messages published after Close are dropped.
func (b *Bus) Publish(msg models.Message) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}

	b.published++
	b.history = append(b.history, msg)
	if len(b.history) > HistoryLimit {
		b.history = b.history[len(b.history)-HistoryLimit:]
	}

	b.queue = append(b.queue, msg)
	b.cond.Signal()
}

// deliverLoop is the single delivery goroutine. One consumer guarantees FIFO
// delivery per subscriber and that no subscriber runs concurrently with
// itself.
func (b *Bus) deliverLoop() {
	for {
		b.mu.Lock()
		for len(b.queue) == 0 && !b.closed {
			b.cond.Wait()
		}
		if len(b.queue) == 0 && b.closed {
			b.idle.Broadcast()
			b.mu.Unlock()
			close(b.drained)
			return
		}

		msg := b.queue[0]
		b.queue = b.queue[1:]
		b.inflight = true
		subs := make([]subscription, len(b.subscribers[msg.Type]))
		copy(subs, b.subscribers[msg.Type])
		logf := b.logf
		b.mu.Unlock()

		for _, sub := range subs {
			if msg.Recipient != "" && msg.Recipient != sub.id {
				continue
			}
			b.invoke(sub, msg, logf)
		}

		b.mu.Lock()
		b.inflight = false
		if len(b.queue) == 0 {
			b.idle.Broadcast()
		}
		b.mu.Unlock()
	}
}

// invoke runs one handler, recovering panics so a broken subscriber never
// stops delivery to the others.
func (b *Bus) invoke(sub subscription, msg models.Message, logf func(string, ...any)) {
	defer func() {
		if r := recover(); r != nil {
			logf("[bus] subscriber %s panicked on %s: %v", sub.id, msg.Type, r)
		}
	}()

	sub.handler(msg)

	b.mu.Lock()
	b.delivered++
	b.mu.Unlock()
}

// Flush blocks until every message published before the call has been
// delivered. Used at workflow teardown and by tests.
func (b *Bus) Flush() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for len(b.queue) > 0 || b.inflight {
		b.idle.Wait()
	}
}

// History returns a copy of the retained message history, oldest first.
func (b *Bus) History() []models.Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]models.Message, len(b.history))
	copy(out, b.history)
	return out
}

// Stats returns a snapshot of bus counters.
func (b *Bus) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()

	count := 0
	for _, subs := range b.subscribers {
		count += len(subs)
	}
	return Stats{
		Published:   b.published,
		Delivered:   b.delivered,
		Subscribers: count,
		HistorySize: len(b.history),
	}
}

// Close drains queued messages, then stops the delivery goroutine.
// Safe to call more than once.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		<-b.drained
		return
	}
	b.closed = true
	b.cond.Signal()
	b.mu.Unlock()
	<-b.drained
}
