// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Hearthwire

package otgw

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// fakeTransport is an in-memory Transport. Written lines are recorded and,
// when a respond function is set, answered on the read side like the real
// gateway would.
type fakeTransport struct {
	mu      sync.Mutex
	writes  []string
	inbox   chan []byte
	done    chan struct{}
	once    sync.Once
	respond func(line string) []string
}

func newFakeTransport(respond func(line string) []string) *fakeTransport {
	return &fakeTransport{
		inbox:   make(chan []byte, 64),
		done:    make(chan struct{}),
		respond: respond,
	}
}

func (t *fakeTransport) Read(p []byte) (int, error) {
	select {
	case data := <-t.inbox:
		return copy(p, data), nil
	case <-t.done:
		return 0, io.EOF
	}
}

func (t *fakeTransport) Write(p []byte) (int, error) {
	select {
	case <-t.done:
		return 0, io.ErrClosedPipe
	default:
	}
	line := strings.TrimSuffix(string(p), "\r\n")
	t.mu.Lock()
	t.writes = append(t.writes, line)
	respond := t.respond
	t.mu.Unlock()
	if respond != nil {
		for _, reply := range respond(line) {
			t.emit(reply)
		}
	}
	return len(p), nil
}

func (t *fakeTransport) Close() error {
	t.once.Do(func() { close(t.done) })
	return nil
}

// emit pushes one line onto the read side.
func (t *fakeTransport) emit(line string) {
	select {
	case t.inbox <- []byte(line + "\r\n"):
	case <-t.done:
	}
}

// echoGateway answers the connect probe and echoes command values back in
// the standard response form.
func echoGateway(line string) []string {
	cmd, value, ok := strings.Cut(line, "=")
	if !ok {
		return nil
	}
	if cmd == "PS" {
		return []string{"PS: " + value}
	}
	return []string{cmd + ": " + value}
}

func TestConnectionManager_ConnectAndIssue(t *testing.T) {
	tr := newFakeTransport(echoGateway)
	status := NewStatusManager(nil)
	defer status.Close()
	m := NewConnectionManager(func(context.Context, string) (Transport, error) {
		return tr, nil
	}, status, time.Minute, nil)
	defer m.Disconnect()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := m.Connect(ctx, "fake:1234"); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	if !m.Connected() {
		t.Fatal("manager should report connected")
	}

	res, err := m.Issue(ctx, CmdTargetTemp, "20.50", 0)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if res.Value != "20.50" {
		t.Errorf("expected 20.50, got %q", res.Value)
	}
}

func TestConnectionManager_DisconnectAbortsCommands(t *testing.T) {
	tr := newFakeTransport(echoGateway)
	status := NewStatusManager(nil)
	defer status.Close()
	m := NewConnectionManager(func(context.Context, string) (Transport, error) {
		return tr, nil
	}, status, time.Minute, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := m.Connect(ctx, "fake:1234"); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	m.Disconnect()
	if m.Connected() {
		t.Error("manager should report disconnected")
	}
	if _, err := m.Issue(ctx, CmdTargetTemp, "20.50", 0); !errors.Is(err, ErrNotConnected) {
		t.Errorf("expected ErrNotConnected, got %v", err)
	}
}

func TestConnectionManager_DisconnectDuringConnect(t *testing.T) {
	tr := newFakeTransport(echoGateway)
	status := NewStatusManager(nil)
	defer status.Close()

	var dialOnce sync.Once
	dialStarted := make(chan struct{})
	m := NewConnectionManager(func(context.Context, string) (Transport, error) {
		dialOnce.Do(func() { close(dialStarted) })
		return tr, nil
	}, status, time.Minute, nil)
	defer m.Disconnect()

	done := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		done <- m.Connect(ctx, "fake:1234")
	}()

	<-dialStarted
	m.Disconnect()
	<-done

	// Whether Disconnect landed before or after the session came up, no
	// session may survive it and the transport must be closed.
	if m.Connected() {
		t.Error("session survived a Disconnect issued during Connect")
	}
	select {
	case <-tr.done:
	default:
		t.Error("transport left open after Disconnect")
	}
}

func TestConnectionManager_ConnectCancelled(t *testing.T) {
	status := NewStatusManager(nil)
	defer status.Close()
	m := NewConnectionManager(func(context.Context, string) (Transport, error) {
		return nil, errors.New("connection refused")
	}, status, time.Minute, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := m.Connect(ctx, "fake:1234")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline error, got %v", err)
	}
	if m.Connected() {
		t.Error("manager must not report connected")
	}
}

func TestConnectionManager_ReconnectBeforeConnect(t *testing.T) {
	status := NewStatusManager(nil)
	defer status.Close()
	m := NewConnectionManager(func(context.Context, string) (Transport, error) {
		return nil, errors.New("unused")
	}, status, time.Minute, nil)

	if err := m.Reconnect(context.Background()); !errors.Is(err, ErrNeverConnected) {
		t.Errorf("expected ErrNeverConnected, got %v", err)
	}
}

func TestConnectionManager_TransportLossDropsSession(t *testing.T) {
	tr := newFakeTransport(echoGateway)
	status := NewStatusManager(nil)
	defer status.Close()
	m := NewConnectionManager(func(context.Context, string) (Transport, error) {
		return tr, nil
	}, status, time.Minute, nil)
	defer m.Disconnect()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := m.Connect(ctx, "fake:1234"); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	status.Submit(SourceBoiler, map[string]any{DataCHWaterTemp: 50.0})

	tr.Close()
	deadline := time.Now().Add(2 * time.Second)
	for m.Connected() {
		if time.Now().After(deadline) {
			t.Fatal("manager still connected after transport loss")
		}
		time.Sleep(5 * time.Millisecond)
	}
	// Session teardown clears the status store.
	if len(status.Snapshot()[SourceBoiler]) != 0 {
		t.Error("status not reset on disconnect")
	}
}

func TestConnectionManager_WatchdogReconnects(t *testing.T) {
	var dials atomic.Int32
	status := NewStatusManager(nil)
	defer status.Close()
	m := NewConnectionManager(func(context.Context, string) (Transport, error) {
		dials.Add(1)
		tr := newFakeTransport(nil)
		// One line of traffic right after connect, then silence.
		go tr.emit("B40193200")
		return tr, nil
	}, status, 50*time.Millisecond, nil)
	defer m.Disconnect()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := m.Connect(ctx, "fake:1234"); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for dials.Load() < 2 {
		if time.Now().After(deadline) {
			t.Fatal("watchdog never triggered a reconnect")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
