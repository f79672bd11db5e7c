package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// subscriberQueueSize bounds each subscriber's outbound channel so a slow
// consumer can never make Publish block the caller holding a game lock
// (spec §5: publication must be non-blocking from the mutator's perspective).
const subscriberQueueSize = 64

// MemoryBus is an in-memory, process-local implementation of Bus. Ordering
// within one game's topic is preserved because Publish delivers to that
// topic's subscribers synchronously, in call order; cross-game ordering is
// not guaranteed, matching spec §4.I/§5.
type MemoryBus struct {
	mu          sync.RWMutex
	subscribers map[string][]subscriber
	closed      bool
}

type subscriber struct {
	id string
	ch chan Event
}

type subscription struct {
	bus      *MemoryBus
	gameCode string
	id       string
}

// NewMemoryBus creates an empty in-memory event bus.
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{subscribers: make(map[string][]subscriber)}
}

// Publish delivers event to every subscriber of its game code topic and to
// wildcard ("*") subscribers. Delivery is non-blocking: a full subscriber
// queue drops the event for that subscriber rather than stalling the
// publisher.
func (b *MemoryBus) Publish(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}

	b.deliver(event, b.subscribers[event.Code()])
	b.deliver(event, b.subscribers["*"])
}

func (b *MemoryBus) deliver(event Event, subs []subscriber) {
	for _, s := range subs {
		select {
		case s.ch <- event:
		default:
		}
	}
}

// Subscribe opens a channel of events for gameCode ("*" for every game).
func (b *MemoryBus) Subscribe(gameCode string) (Subscription, <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := uuid.NewString()
	ch := make(chan Event, subscriberQueueSize)
	b.subscribers[gameCode] = append(b.subscribers[gameCode], subscriber{id: id, ch: ch})

	return &subscription{bus: b, gameCode: gameCode, id: id}, ch
}

// Close marks the bus closed and drops every subscriber.
func (b *MemoryBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true
	for _, subs := range b.subscribers {
		for _, s := range subs {
			close(s.ch)
		}
	}
	b.subscribers = make(map[string][]subscriber)
}

// Unsubscribe removes the subscription and closes its channel.
func (s *subscription) Unsubscribe() {
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()

	subs := s.bus.subscribers[s.gameCode]
	for i, sub := range subs {
		if sub.id == s.id {
			close(sub.ch)
			s.bus.subscribers[s.gameCode] = append(subs[:i], subs[i+1:]...)
			return
		}
	}
}

// WarmUp performs the throwaway publish spec §4.I asks for at process
// startup, before the HTTP listener accepts connections, so the first real
// publish doesn't pay for lazily-initialized internals.
func (b *MemoryBus) WarmUp() {
	sub, ch := b.Subscribe("__warmup__")
	defer sub.Unsubscribe()

	b.Publish(NewLobbyFull("__warmup__", "WARMUP", time.Now(), "__warmup__"))
	<-ch
}
