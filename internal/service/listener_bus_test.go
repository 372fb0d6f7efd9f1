package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/streamguard/streamguard/internal/domain"
)

func TestListenerBusSubscribePublish(t *testing.T) {
	bus := NewListenerBus(zap.NewNop())

	var received []*domain.AlertEvent
	unsubscribe := bus.Subscribe(func(event *domain.AlertEvent) {
		received = append(received, event)
	})

	bus.Publish(&domain.AlertEvent{ID: "evt_1"})
	assert.Len(t, received, 1)
	assert.Equal(t, "evt_1", received[0].ID)

	unsubscribe()
	bus.Publish(&domain.AlertEvent{ID: "evt_2"})
	assert.Len(t, received, 1, "unsubscribed listener must not receive events")

	// Unsubscribing twice is harmless.
	unsubscribe()
	assert.Zero(t, bus.Len())
}

func TestListenerBusPanicIsolation(t *testing.T) {
	bus := NewListenerBus(zap.NewNop())

	var called int
	bus.Subscribe(func(event *domain.AlertEvent) {
		panic("listener boom")
	})
	bus.Subscribe(func(event *domain.AlertEvent) {
		called++
	})

	assert.NotPanics(t, func() {
		bus.Publish(&domain.AlertEvent{ID: "evt_1"})
	})
	assert.Equal(t, 1, called, "remaining listeners still run after a panic")
}

func TestListenerBusDeliversCopies(t *testing.T) {
	bus := NewListenerBus(zap.NewNop())

	bus.Subscribe(func(event *domain.AlertEvent) {
		event.Status = domain.StatusResolved
	})

	original := &domain.AlertEvent{ID: "evt_1", Status: domain.StatusTriggered}
	bus.Publish(original)

	assert.Equal(t, domain.StatusTriggered, original.Status, "listener mutation must not leak")
}
