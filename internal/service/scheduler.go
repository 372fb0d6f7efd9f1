package service

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Start begins the periodic evaluation loop. Idempotent: calling Start
// while running is a no-op.
func (e *AlertEngine) Start() {
	e.runMu.Lock()
	defer e.runMu.Unlock()

	if e.running {
		return
	}
	e.stopChan = make(chan struct{})
	e.running = true
	go e.run(e.stopChan)

	e.logger.Info("alert engine started", zap.Duration("interval", e.interval))
}

// Stop cancels future ticks. Idempotent. In-flight deliveries are not
// cancelled: a tick already underway completes and still updates state
// and persists.
func (e *AlertEngine) Stop() {
	e.runMu.Lock()
	defer e.runMu.Unlock()

	if !e.running {
		return
	}
	close(e.stopChan)
	e.running = false

	e.logger.Info("alert engine stopped")
}

// Running reports whether the scheduler is in the Running state.
func (e *AlertEngine) Running() bool {
	e.runMu.Lock()
	defer e.runMu.Unlock()
	return e.running
}

func (e *AlertEngine) run(stop <-chan struct{}) {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			e.tick()
		case <-stop:
			return
		}
	}
}

// tick runs one evaluation pass. Ticks never overlap: if the previous
// pass is still running the new one is skipped.
func (e *AlertEngine) tick() {
	if !e.tickMu.TryLock() {
		e.logger.Debug("previous evaluation tick still running, skipping")
		return
	}
	defer e.tickMu.Unlock()

	e.EvaluateAll(context.Background(), nil)
}
