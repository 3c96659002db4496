// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Hearthwire

package otgw

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Watchdog fires a callback after a period of inactivity on the connection.
// Every observed line of traffic resets it via Inform. When it fires it
// disarms itself; it stays disarmed until Start is called again.
type Watchdog struct {
	mu      sync.Mutex
	timer   *time.Timer
	timeout time.Duration
	cb      func()
	active  bool
	gen     uint64

	log *zap.SugaredLogger
}

// NewWatchdog creates a stopped watchdog. A nil logger disables logging.
func NewWatchdog(log *zap.SugaredLogger) *Watchdog {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Watchdog{log: log}
}

// IsActive reports whether the watchdog is armed.
func (w *Watchdog) IsActive() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.active
}

// Start arms the watchdog. Returns false if it is already armed.
func (w *Watchdog) Start(cb func(), timeout time.Duration) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.active {
		return false
	}
	w.cb = cb
	w.timeout = timeout
	w.active = true
	w.gen++
	gen := w.gen
	w.timer = time.AfterFunc(timeout, func() { w.fire(gen) })
	return true
}

// Inform resets the inactivity timer. A no-op when the watchdog is stopped,
// so a Stop racing with queued Inform calls cannot resurrect the timer.
func (w *Watchdog) Inform() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.active {
		return
	}
	w.timer.Stop()
	w.gen++
	gen := w.gen
	w.timer = time.AfterFunc(w.timeout, func() { w.fire(gen) })
	w.log.Debug("watchdog timer reset")
}

// Stop disarms the watchdog without invoking the callback.
func (w *Watchdog) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopLocked()
}

func (w *Watchdog) stopLocked() {
	if !w.active {
		return
	}
	w.timer.Stop()
	w.timer = nil
	w.active = false
}

// fire runs in the timer goroutine. The generation counter discards firings
// that lost a race against Inform or Stop.
func (w *Watchdog) fire(gen uint64) {
	w.mu.Lock()
	if !w.active || gen != w.gen {
		w.mu.Unlock()
		return
	}
	cb := w.cb
	w.stopLocked()
	w.mu.Unlock()
	w.log.Debug("watchdog triggered")
	cb()
}
