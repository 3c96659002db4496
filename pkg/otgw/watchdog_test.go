// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Hearthwire

package otgw

import (
	"testing"
	"time"
)

func TestWatchdog_FiresAfterTimeout(t *testing.T) {
	w := NewWatchdog(nil)
	fired := make(chan struct{})
	if !w.Start(func() { close(fired) }, 20*time.Millisecond) {
		t.Fatal("Start on a fresh watchdog should succeed")
	}

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("watchdog did not fire")
	}
	// Firing disarms the watchdog.
	if w.IsActive() {
		t.Error("watchdog should be disarmed after firing")
	}
}

func TestWatchdog_StartWhileArmed(t *testing.T) {
	w := NewWatchdog(nil)
	if !w.Start(func() {}, time.Minute) {
		t.Fatal("first Start should succeed")
	}
	defer w.Stop()
	if w.Start(func() {}, time.Minute) {
		t.Error("Start on an armed watchdog should report false")
	}
}

func TestWatchdog_InformPostponesFiring(t *testing.T) {
	w := NewWatchdog(nil)
	fired := make(chan struct{})
	w.Start(func() { close(fired) }, 50*time.Millisecond)

	// Keep informing for well past the timeout.
	for i := 0; i < 5; i++ {
		time.Sleep(20 * time.Millisecond)
		w.Inform()
	}
	select {
	case <-fired:
		t.Fatal("watchdog fired despite activity")
	default:
	}

	// Silence lets it fire.
	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("watchdog did not fire after activity stopped")
	}
}

func TestWatchdog_StopPreventsFiring(t *testing.T) {
	w := NewWatchdog(nil)
	fired := make(chan struct{})
	w.Start(func() { close(fired) }, 20*time.Millisecond)
	w.Stop()
	if w.IsActive() {
		t.Error("watchdog should be inactive after Stop")
	}

	select {
	case <-fired:
		t.Fatal("watchdog fired after Stop")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestWatchdog_InformAfterStopIsNoop(t *testing.T) {
	w := NewWatchdog(nil)
	fired := make(chan struct{})
	w.Start(func() { close(fired) }, 20*time.Millisecond)
	w.Stop()
	w.Inform()

	select {
	case <-fired:
		t.Fatal("Inform after Stop resurrected the timer")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestWatchdog_RestartAfterFire(t *testing.T) {
	w := NewWatchdog(nil)
	first := make(chan struct{})
	w.Start(func() { close(first) }, 10*time.Millisecond)
	<-first

	second := make(chan struct{})
	if !w.Start(func() { close(second) }, 10*time.Millisecond) {
		t.Fatal("Start after a firing should succeed")
	}
	select {
	case <-second:
	case <-time.After(time.Second):
		t.Fatal("restarted watchdog did not fire")
	}
}
