// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Hearthwire

package otgw

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Transport is the byte stream the session runs over: a serial port, TCP
// socket or equivalent.
type Transport interface {
	io.ReadWriteCloser
}

// Dialer opens a transport to the gateway at the given address.
type Dialer func(ctx context.Context, address string) (Transport, error)

// Connection lifecycle tuning.
const (
	// DefaultConnectionTimeout bounds a single connect attempt, from
	// transport open to first observed line.
	DefaultConnectionTimeout = 5 * time.Second
	// DefaultWatchdogTimeout is the inactivity period after which the
	// connection is presumed dead and reconnected.
	DefaultWatchdogTimeout = 3 * time.Second

	minRetryInterval = 5 * time.Second
	maxRetryInterval = 60 * time.Second
)

// session owns one transport and the per-connection protocol components.
// It is created on a successful dial and torn down as a unit.
type session struct {
	transport Transport
	framer    *FrameReader
	decoder   *MessageDecoder
	commands  *CommandProcessor
	status    *StatusManager

	connected atomic.Bool
	writeMu   sync.Mutex

	activity     chan struct{}
	activityOnce sync.Once
	closeOnce    sync.Once

	log *zap.SugaredLogger
}

func newSession(t Transport, status *StatusManager, onActivity func(), log *zap.SugaredLogger) *session {
	s := &session{
		transport: t,
		status:    status,
		activity:  make(chan struct{}),
		log:       log,
	}
	s.commands = NewCommandProcessor(s, log)
	s.decoder = NewMessageDecoder(s.commands, status, log)
	s.framer = NewFrameReader(s.decoder.Submit, s.commands.SubmitResponse, func() {
		s.activityOnce.Do(func() { close(s.activity) })
		if onActivity != nil {
			onActivity()
		}
	}, log)
	s.connected.Store(true)
	go s.readLoop()
	return s
}

// Connected implements commandWriter.
func (s *session) Connected() bool {
	return s.connected.Load()
}

// WriteLine implements commandWriter: sends one CRLF-terminated line.
func (s *session) WriteLine(line string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_, err := s.transport.Write([]byte(line + "\r\n"))
	return err
}

func (s *session) readLoop() {
	buf := make([]byte, 512)
	for {
		n, err := s.transport.Read(buf)
		if n > 0 {
			s.framer.Feed(buf[:n])
		}
		if err != nil {
			if s.connected.Load() {
				s.log.Errorw("disconnected", "error", err)
			}
			s.close()
			return
		}
	}
}

// waitReady sends the lightweight summary probe and waits for the first
// line of any kind to arrive, bounded by ctx.
func (s *session) waitReady(ctx context.Context) error {
	// The probe reply itself counts as activity; a single retry suffices.
	go func() {
		if _, err := s.commands.Issue(ctx, CmdSummary, 0, 1); err != nil {
			s.log.Debugw("connect probe unresolved", "error", err)
		}
	}()
	select {
	case <-s.activity:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// close tears the session down exactly once: pending command aborted,
// queues drained, transport closed, status cleared.
func (s *session) close() {
	s.closeOnce.Do(func() {
		s.connected.Store(false)
		s.transport.Close()
		s.commands.Close()
		s.commands.ClearQueue()
		s.decoder.Stop()
		s.decoder.ClearQueue()
		s.status.Reset()
	})
}

// ConnectionManager makes, maintains and monitors the connection to the
// gateway. A lost connection is redialed indefinitely with backoff; the
// watchdog reconnects when the line goes silent.
type ConnectionManager struct {
	mu            sync.Mutex
	dial          Dialer
	status        *StatusManager
	watchdog      *Watchdog
	session       *session
	address       string
	wdTimeout     time.Duration
	cancelConnect context.CancelFunc
	lastErr       string

	log *zap.SugaredLogger
}

// NewConnectionManager creates a manager dialing through dial. A zero
// watchdogTimeout selects DefaultWatchdogTimeout.
func NewConnectionManager(dial Dialer, status *StatusManager, watchdogTimeout time.Duration, log *zap.SugaredLogger) *ConnectionManager {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if watchdogTimeout <= 0 {
		watchdogTimeout = DefaultWatchdogTimeout
	}
	return &ConnectionManager{
		dial:      dial,
		status:    status,
		watchdog:  NewWatchdog(log),
		wdTimeout: watchdogTimeout,
		log:       log,
	}
}

// Connected reports whether a live session exists.
func (m *ConnectionManager) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session != nil && m.session.Connected()
}

// Connect dials the gateway, retrying transport failures indefinitely with
// backoff, and blocks until connected or ctx is cancelled. An existing or
// in-progress connection is torn down first.
func (m *ConnectionManager) Connect(ctx context.Context, address string) error {
	m.mu.Lock()
	if m.session != nil || m.cancelConnect != nil {
		m.mu.Unlock()
		m.log.Debugw("reconnecting to gateway", "address", address)
		m.Disconnect()
		m.mu.Lock()
	}
	connCtx, cancel := context.WithCancel(ctx)
	m.cancelConnect = cancel
	m.address = address
	m.mu.Unlock()

	s, err := m.attemptConnect(connCtx, address)

	m.mu.Lock()
	// A Disconnect may have cancelled connCtx after the attempt produced a
	// live session; that session must not be installed.
	ctxErr := connCtx.Err()
	if m.cancelConnect != nil {
		m.cancelConnect()
		m.cancelConnect = nil
	}
	if err != nil {
		m.mu.Unlock()
		return err
	}
	if ctxErr != nil {
		m.mu.Unlock()
		s.close()
		return ctxErr
	}
	m.session = s
	m.lastErr = ""
	m.mu.Unlock()

	m.log.Debugw("connected to gateway", "address", address)
	m.watchdog.Start(m.reconnectOnTimeout, m.wdTimeout)
	return nil
}

// attemptConnect loops dial attempts with backoff until one produces a
// session that shows line activity within the connection timeout.
func (m *ConnectionManager) attemptConnect(ctx context.Context, address string) (*session, error) {
	retry := minRetryInterval
	for {
		t, err := m.dial(ctx, address)
		if err == nil {
			s := newSession(t, m.status, m.watchdog.Inform, m.log)
			probeCtx, cancel := context.WithTimeout(ctx, DefaultConnectionTimeout)
			err = s.waitReady(probeCtx)
			cancel()
			if err == nil {
				return s, nil
			}
			s.close()
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			m.logAttemptError(address, "the gateway is not responding, will keep trying", err)
		} else {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			m.logAttemptError(address, "could not connect to the gateway, will keep trying", err)
		}
		select {
		case <-time.After(retry):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		if retry = retry * 3 / 2; retry > maxRetryInterval {
			retry = maxRetryInterval
		}
	}
}

// logAttemptError logs a connect failure once per distinct error, so an
// unattended retry loop does not flood the log.
func (m *ConnectionManager) logAttemptError(address, msg string, err error) {
	m.mu.Lock()
	repeat := m.lastErr == err.Error()
	m.lastErr = err.Error()
	m.mu.Unlock()
	if repeat {
		return
	}
	m.log.Errorw(msg, "address", address, "error", err)
}

// Disconnect stops the watchdog, cancels any in-progress connect and tears
// down the active session.
func (m *ConnectionManager) Disconnect() {
	m.watchdog.Stop()
	m.mu.Lock()
	if m.cancelConnect != nil {
		m.cancelConnect()
		m.cancelConnect = nil
	}
	s := m.session
	m.session = nil
	m.mu.Unlock()
	if s != nil {
		s.close()
	}
}

// Reconnect disconnects and redials the last-used address.
func (m *ConnectionManager) Reconnect(ctx context.Context) error {
	m.mu.Lock()
	address := m.address
	m.mu.Unlock()
	if address == "" {
		m.log.Error("reconnect called before connect")
		return ErrNeverConnected
	}
	m.log.Debug("scheduling reconnect")
	m.Disconnect()
	return m.Connect(ctx, address)
}

func (m *ConnectionManager) reconnectOnTimeout() {
	if err := m.Reconnect(context.Background()); err != nil {
		m.log.Errorw("watchdog reconnect failed", "error", err)
	}
}

// Issue forwards a command to the active session's command processor.
func (m *ConnectionManager) Issue(ctx context.Context, cmd Command, value any, retries int) (Result, error) {
	m.mu.Lock()
	s := m.session
	m.mu.Unlock()
	if s == nil || !s.Connected() {
		return Result{}, ErrNotConnected
	}
	return s.commands.Issue(ctx, cmd, value, retries)
}
