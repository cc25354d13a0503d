package services

import (
	"log"
	"sync"
)

// CaptureEvent fans out once per rewarded capture. Suppressed duplicate
// uploads never publish, so subscribers only need to be idempotent against
// redelivery, not against double rewards.
type CaptureEvent struct {
	UserID    string
	Label     string
	ImageURL  string
	Exp       int64
	IsUnique  bool
	IsCurrent bool
}

const subscriberQueueSize = 256

// EventBus is the in-process publish point for capture events. Each
// subscriber gets its own bounded queue and consumer goroutine; Publish never
// blocks on a slow consumer and a subscriber failure never reaches the
// publishing request.
type EventBus struct {
	mu          sync.Mutex
	subscribers []*subscriber
	wg          sync.WaitGroup
	closed      bool
}

type subscriber struct {
	name  string
	queue chan CaptureEvent
}

func NewEventBus() *EventBus {
	return &EventBus{}
}

// Subscribe registers a handler under a name used in logs. The handler runs
// on its own goroutine; errors are logged and swallowed.
func (b *EventBus) Subscribe(name string, handler func(CaptureEvent) error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	sub := &subscriber{name: name, queue: make(chan CaptureEvent, subscriberQueueSize)}
	b.subscribers = append(b.subscribers, sub)
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for event := range sub.queue {
			b.deliver(sub.name, handler, event)
		}
	}()
}

func (b *EventBus) deliver(name string, handler func(CaptureEvent) error, event CaptureEvent) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("❌ Subscriber %s panicked on %s/%s: %v", name, event.UserID, event.Label, r)
		}
	}()
	if err := handler(event); err != nil {
		log.Printf("❌ Subscriber %s failed on %s/%s: %v", name, event.UserID, event.Label, err)
	}
}

// Publish fans the event out without blocking. A full subscriber queue drops
// the event for that subscriber with a warning; the capture request has
// already committed its reward and must not wait.
func (b *EventBus) Publish(event CaptureEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	for _, sub := range b.subscribers {
		select {
		case sub.queue <- event:
		default:
			log.Printf("⚠️  Subscriber %s queue full, dropping event for %s", sub.name, event.UserID)
		}
	}
}

// Close stops accepting events and waits for queued deliveries to drain.
func (b *EventBus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	for _, sub := range b.subscribers {
		close(sub.queue)
	}
	b.mu.Unlock()
	b.wg.Wait()
}
