// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Hearthwire

package otgw

import (
	"reflect"
	"sync"

	"go.uber.org/zap"
)

// Snapshot is a point-in-time copy of the gateway status: one field map per
// device partition. Snapshots handed to subscribers are deep copies and may
// be retained or mutated freely.
type Snapshot map[Source]map[string]any

func newSnapshot() Snapshot {
	return Snapshot{
		SourceBoiler:     {},
		SourceGateway:    {},
		SourceThermostat: {},
	}
}

func (s Snapshot) clone() Snapshot {
	out := make(Snapshot, len(s))
	for part, fields := range s {
		cp := make(map[string]any, len(fields))
		for k, v := range fields {
			cp[k] = v
		}
		out[part] = cp
	}
	return out
}

// StatusCallback receives a full status snapshot on every content change.
type StatusCallback func(Snapshot)

// statusQueueSize bounds the broadcast queue and each subscription's
// delivery queue. Submissions beyond it are dropped and logged; the
// change-suppression in the broadcast loop means a dropped snapshot is
// recovered by the next submission.
const statusQueueSize = 64

// Subscription identifies one registered status callback. Every subscription
// owns a delivery queue drained by its own goroutine, so each subscriber sees
// snapshots in submission order and a slow one never stalls the rest.
type Subscription struct {
	cb    StatusCallback
	queue chan Snapshot
}

func (s *Subscription) deliver() {
	for snap := range s.queue {
		s.cb(snap)
	}
}

// StatusManager holds the latest known status per device and fans out
// snapshots to subscribers whenever the content changes. All mutation goes
// through Submit, SubmitFull and Delete; readers only ever see copies.
type StatusManager struct {
	mu     sync.Mutex
	status Snapshot

	subMu sync.Mutex
	subs  map[*Subscription]struct{}

	updates   chan Snapshot
	done      chan struct{}
	closeOnce sync.Once

	log *zap.SugaredLogger
}

// NewStatusManager creates a status manager and starts its broadcast loop.
// A nil logger disables logging.
func NewStatusManager(log *zap.SugaredLogger) *StatusManager {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	m := &StatusManager{
		status:  newSnapshot(),
		subs:    map[*Subscription]struct{}{},
		updates: make(chan Snapshot, statusQueueSize),
		done:    make(chan struct{}),
		log:     log,
	}
	go m.broadcastLoop()
	return m
}

// Snapshot returns a deep copy of the current status.
func (m *StatusManager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status.clone()
}

// Submit merges fields into the given partition and queues a broadcast.
// Unknown partitions are rejected with a log entry.
func (m *StatusManager) Submit(part Source, fields map[string]any) bool {
	if fields == nil {
		m.log.Errorw("status update is not a field map", "partition", part)
		return false
	}
	m.mu.Lock()
	dst, ok := m.status[part]
	if !ok {
		m.mu.Unlock()
		m.log.Errorw("invalid status partition for update", "partition", part)
		return false
	}
	for k, v := range fields {
		dst[k] = v
	}
	snap := m.status.clone()
	m.mu.Unlock()
	m.enqueue(snap)
	return true
}

// SubmitFull merges fields into multiple partitions at once. The whole
// update is validated before any partition is touched.
func (m *StatusManager) SubmitFull(update map[Source]map[string]any) bool {
	m.mu.Lock()
	for part, fields := range update {
		if _, ok := m.status[part]; !ok {
			m.mu.Unlock()
			m.log.Errorw("invalid status partition for update", "partition", part)
			return false
		}
		if fields == nil {
			m.mu.Unlock()
			m.log.Errorw("status update is not a field map", "partition", part)
			return false
		}
	}
	for part, fields := range update {
		dst := m.status[part]
		for k, v := range fields {
			dst[k] = v
		}
	}
	snap := m.status.clone()
	m.mu.Unlock()
	m.enqueue(snap)
	return true
}

// Delete removes a field from a partition. A broadcast is queued only when
// the field was actually present.
func (m *StatusManager) Delete(part Source, field string) bool {
	m.mu.Lock()
	dst, ok := m.status[part]
	if !ok {
		m.mu.Unlock()
		return false
	}
	if _, ok := dst[field]; !ok {
		m.mu.Unlock()
		return false
	}
	delete(dst, field)
	snap := m.status.clone()
	m.mu.Unlock()
	m.enqueue(snap)
	return true
}

// Reset clears all partitions and drops queued, undelivered broadcasts.
func (m *StatusManager) Reset() {
	m.mu.Lock()
	m.status = newSnapshot()
	m.mu.Unlock()
	for {
		select {
		case <-m.updates:
		default:
			return
		}
	}
}

// Subscribe registers a callback for future status updates and returns its
// subscription handle. A nil callback, or a closed manager, returns nil.
func (m *StatusManager) Subscribe(cb StatusCallback) *Subscription {
	if cb == nil {
		return nil
	}
	sub := &Subscription{cb: cb, queue: make(chan Snapshot, statusQueueSize)}
	m.subMu.Lock()
	if m.subs == nil {
		m.subMu.Unlock()
		return nil
	}
	m.subs[sub] = struct{}{}
	m.subMu.Unlock()
	go sub.deliver()
	return sub
}

// Unsubscribe cancels a subscription returned by Subscribe. Returns false if
// the subscription is nil or already cancelled.
func (m *StatusManager) Unsubscribe(sub *Subscription) bool {
	if sub == nil {
		return false
	}
	m.subMu.Lock()
	defer m.subMu.Unlock()
	if _, ok := m.subs[sub]; !ok {
		return false
	}
	delete(m.subs, sub)
	close(sub.queue)
	return true
}

// Close stops the broadcast loop and cancels all subscriptions. The manager
// must not be used afterwards.
func (m *StatusManager) Close() {
	m.closeOnce.Do(func() {
		close(m.done)
		m.subMu.Lock()
		for sub := range m.subs {
			close(sub.queue)
		}
		m.subs = nil
		m.subMu.Unlock()
	})
}

func (m *StatusManager) enqueue(snap Snapshot) {
	select {
	case m.updates <- snap:
	default:
		m.log.Warnw("status broadcast queue full, dropping snapshot")
	}
}

// broadcastLoop dequeues snapshots and fans them out, suppressing updates
// whose content is identical to the previously delivered snapshot.
func (m *StatusManager) broadcastLoop() {
	m.log.Debug("starting status reporting routine")
	var last Snapshot
	for {
		select {
		case <-m.done:
			return
		case snap := <-m.updates:
			if last != nil && reflect.DeepEqual(last, snap) {
				continue
			}
			last = snap
			m.subMu.Lock()
			for sub := range m.subs {
				// Each subscriber gets its own copy. The queue keeps
				// deliveries ordered; a full queue drops the snapshot,
				// which the next change recovers.
				select {
				case sub.queue <- snap.clone():
				default:
					m.log.Warnw("subscriber queue full, dropping snapshot")
				}
			}
			m.subMu.Unlock()
		}
	}
}
