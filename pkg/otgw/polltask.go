// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Hearthwire

package otgw

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// pollTask periodically requests a report the gateway does not push on its
// own. The gateway only reports GPIO pin states on request, for example, so
// while a pin is configured as an input its state has to be polled.
type pollTask struct {
	name     string
	gw       *Gateway
	report   Report
	defaults map[Source]map[string]any
	should   func() bool
	interval time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}

	log *zap.SugaredLogger
}

func newPollTask(name string, gw *Gateway, report Report, defaults map[Source]map[string]any, should func() bool, interval time.Duration, log *zap.SugaredLogger) *pollTask {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &pollTask{
		name:     name,
		gw:       gw,
		report:   report,
		defaults: defaults,
		should:   should,
		interval: interval,
		log:      log,
	}
}

// startOrStopAsNeeded reconciles the running state with the run condition.
func (t *pollTask) startOrStopAsNeeded() {
	if t.should() {
		t.start()
	} else {
		t.stop()
	}
}

func (t *pollTask) start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.cancel = cancel
	t.done = make(chan struct{})
	t.log.Debugw("polling routine started", "task", t.name)
	go t.loop(ctx, t.done)
}

// stop halts polling and restores the task's default values, so stale
// polled state does not linger in the snapshot.
func (t *pollTask) stop() {
	t.mu.Lock()
	cancel, done := t.cancel, t.done
	t.cancel, t.done = nil, nil
	t.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
	if t.defaults != nil {
		t.gw.status.SubmitFull(t.defaults)
	}
	t.log.Debugw("polling routine stopped", "task", t.name)
}

func (t *pollTask) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	for {
		if _, err := t.gw.GetReport(ctx, t.report); err != nil {
			if ctx.Err() != nil {
				return
			}
			t.log.Debugw("poll failed", "task", t.name, "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
