// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Hearthwire

// Package transport provides byte-stream transports for the OpenTherm
// Gateway: a local serial port, a TCP socket (for serial-over-ethernet
// bridges like ser2net) and a WebSocket relay.
package transport

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.bug.st/serial"

	"github.com/hearthwire/otgw/pkg/otgw"
)

// DefaultBaudRate is the OpenTherm Gateway's serial speed.
const DefaultBaudRate = 9600

const (
	wsHandshakeTimeout = 10 * time.Second
	tcpDialTimeout     = 10 * time.Second
)

// SerialConnection wraps a serial port.
type SerialConnection struct {
	port serial.Port
}

func (s *SerialConnection) Read(p []byte) (int, error)  { return s.port.Read(p) }
func (s *SerialConnection) Write(p []byte) (int, error) { return s.port.Write(p) }
func (s *SerialConnection) Close() error                { return s.port.Close() }

// Serial returns a dialer opening a local serial device at baudRate, 8N1.
// A baudRate of 0 selects DefaultBaudRate.
func Serial(baudRate int) otgw.Dialer {
	if baudRate <= 0 {
		baudRate = DefaultBaudRate
	}
	return func(_ context.Context, device string) (otgw.Transport, error) {
		mode := &serial.Mode{
			BaudRate: baudRate,
			DataBits: 8,
			Parity:   serial.NoParity,
			StopBits: serial.OneStopBit,
		}
		port, err := serial.Open(device, mode)
		if err != nil {
			return nil, fmt.Errorf("open serial port %s: %w", device, err)
		}
		return &SerialConnection{port: port}, nil
	}
}

// TCP returns a dialer connecting to a host:port serial bridge.
func TCP() otgw.Dialer {
	return func(ctx context.Context, address string) (otgw.Transport, error) {
		d := net.Dialer{Timeout: tcpDialTimeout}
		conn, err := d.DialContext(ctx, "tcp", address)
		if err != nil {
			return nil, fmt.Errorf("connect to %s: %w", address, err)
		}
		return conn, nil
	}
}

// WebSocketConnection adapts a message-based WebSocket to the byte-stream
// interface, buffering each received message.
type WebSocketConnection struct {
	conn      *websocket.Conn
	buf       []byte
	bufOffset int
}

func (w *WebSocketConnection) Read(p []byte) (int, error) {
	if w.bufOffset < len(w.buf) {
		n := copy(p, w.buf[w.bufOffset:])
		w.bufOffset += n
		return n, nil
	}
	for {
		messageType, data, err := w.conn.ReadMessage()
		if err != nil {
			return 0, err
		}
		// The gateway protocol is ASCII; relays send it as either kind.
		if messageType != websocket.BinaryMessage && messageType != websocket.TextMessage {
			continue
		}
		w.buf = data
		w.bufOffset = 0
		n := copy(p, w.buf)
		w.bufOffset = n
		return n, nil
	}
}

func (w *WebSocketConnection) Write(p []byte) (int, error) {
	if err := w.conn.WriteMessage(websocket.TextMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (w *WebSocketConnection) Close() error {
	return w.conn.Close()
}

// WebSocket returns a dialer connecting to a ws:// or wss:// relay.
func WebSocket(skipTLSVerify bool) otgw.Dialer {
	return func(ctx context.Context, wsURL string) (otgw.Transport, error) {
		u, err := url.Parse(wsURL)
		if err != nil {
			return nil, fmt.Errorf("invalid URL: %w", err)
		}
		switch u.Scheme {
		case "ws", "wss":
		default:
			return nil, fmt.Errorf("unsupported URL scheme: %s (use ws:// or wss://)", u.Scheme)
		}
		dialer := websocket.Dialer{
			HandshakeTimeout: wsHandshakeTimeout,
		}
		if u.Scheme == "wss" {
			dialer.TLSClientConfig = &tls.Config{
				InsecureSkipVerify: skipTLSVerify,
			}
		}
		conn, resp, err := dialer.DialContext(ctx, wsURL, nil)
		if err != nil {
			if resp != nil {
				return nil, fmt.Errorf("websocket connection failed (HTTP %d): %w", resp.StatusCode, err)
			}
			return nil, fmt.Errorf("websocket connection failed: %w", err)
		}
		return &WebSocketConnection{conn: conn}, nil
	}
}

// ForAddress picks a dialer from the shape of the address: ws:// and
// wss:// URLs use the WebSocket transport, host:port pairs use TCP, and
// everything else is treated as a serial device path.
func ForAddress(address string) otgw.Dialer {
	if strings.HasPrefix(address, "ws://") || strings.HasPrefix(address, "wss://") {
		return WebSocket(false)
	}
	if host, port, err := net.SplitHostPort(address); err == nil && host != "" && port != "" {
		return TCP()
	}
	return Serial(DefaultBaudRate)
}
