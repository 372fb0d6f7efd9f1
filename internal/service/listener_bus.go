package service

import (
	"sync"

	"go.uber.org/zap"

	"github.com/streamguard/streamguard/internal/domain"
	"github.com/streamguard/streamguard/internal/metrics"
)

// Listener receives every alert event create and status update.
type Listener func(event *domain.AlertEvent)

// ListenerBus fans events out to in-process observers. Listeners are
// invoked synchronously; a panicking listener is recovered and logged
// so the others still run and the triggering pipeline is not aborted.
type ListenerBus struct {
	mu        sync.RWMutex
	nextID    int
	listeners map[int]Listener
	logger    *zap.Logger
}

// NewListenerBus creates an empty bus.
func NewListenerBus(logger *zap.Logger) *ListenerBus {
	return &ListenerBus{
		listeners: make(map[int]Listener),
		logger:    logger,
	}
}

// Subscribe registers a listener and returns its unsubscribe function.
// Unsubscribing twice is harmless.
func (b *ListenerBus) Subscribe(fn Listener) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.listeners[id] = fn
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.listeners, id)
		b.mu.Unlock()
	}
}

// Publish delivers the event to every subscribed listener. Each
// listener receives its own copy so observers cannot mutate shared
// engine state.
func (b *ListenerBus) Publish(event *domain.AlertEvent) {
	b.mu.RLock()
	listeners := make([]Listener, 0, len(b.listeners))
	for _, fn := range b.listeners {
		listeners = append(listeners, fn)
	}
	b.mu.RUnlock()

	for _, fn := range listeners {
		b.invoke(fn, event)
	}
}

func (b *ListenerBus) invoke(fn Listener, event *domain.AlertEvent) {
	defer func() {
		if r := recover(); r != nil {
			metrics.ListenerPanicsRecovered.Inc()
			b.logger.Error("listener panicked",
				zap.String("event_id", event.ID),
				zap.Any("panic", r),
			)
		}
	}()
	ev := *event
	fn(&ev)
}

// Len returns the number of subscribed listeners.
func (b *ListenerBus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners)
}
