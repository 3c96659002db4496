// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Hearthwire

package otgw

import (
	"context"
	"fmt"
	"regexp"
	"sync"

	"go.uber.org/zap"
)

// responseQueueSize bounds the command response queue. Responses beyond it
// are dropped; command traffic must never block line ingestion.
const responseQueueSize = 16

// DefaultRetries is the retry count used by the Gateway convenience methods.
const DefaultRetries = 3

var (
	versionLineRe = regexp.MustCompile(`^OpenTherm Gateway \d+(\.\d+)*`)
	benignErrorRe = regexp.MustCompile(`^Error 0[1-4]$`)
)

// Result is the resolved reply to a command. Extra carries the second line
// of the two-line summary reply and is empty otherwise.
type Result struct {
	Value string
	Extra string
}

// commandWriter is the slice of the connection the command processor needs:
// a connectivity check and raw line writes.
type commandWriter interface {
	Connected() bool
	WriteLine(line string) error
}

// CommandProcessor serializes commands to the gateway and correlates their
// responses. Responses are matched by arrival order on a shared queue, not
// by request ID, so at most one command may be in flight at a time; the
// gate channel enforces that while keeping Issue cancellable.
type CommandProcessor struct {
	gate      chan struct{}
	respq     chan string
	conn      commandWriter
	done      chan struct{}
	closeOnce sync.Once
	log       *zap.SugaredLogger
}

// NewCommandProcessor creates a command processor writing through conn.
func NewCommandProcessor(conn commandWriter, log *zap.SugaredLogger) *CommandProcessor {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &CommandProcessor{
		gate:  make(chan struct{}, 1),
		respq: make(chan string, responseQueueSize),
		conn:  conn,
		done:  make(chan struct{}),
		log:   log,
	}
}

// Issue sends a command and blocks until its response resolves, the context
// is cancelled, or the connection closes. A recognized two-letter error
// response consumes one retry and triggers a resend; the typed protocol
// error is returned once retries are exhausted. Unrecognized lines trigger
// a resend without consuming a retry.
func (p *CommandProcessor) Issue(ctx context.Context, cmd Command, value any, retries int) (Result, error) {
	select {
	case p.gate <- struct{}{}:
		defer func() { <-p.gate }()
	case <-ctx.Done():
		return Result{}, ctx.Err()
	case <-p.done:
		return Result{}, ErrNotConnected
	}

	if !p.conn.Connected() {
		p.log.Debugw("transport closed, not sending command", "cmd", cmd)
		return Result{}, ErrNotConnected
	}
	p.ClearQueue()

	val := formatValue(value)
	line := fmt.Sprintf("%s=%s", cmd, val)
	p.log.Debugw("sending command", "cmd", cmd, "value", val)
	if err := p.conn.WriteLine(line); err != nil {
		return Result{}, fmt.Errorf("write command %s: %w", cmd, err)
	}
	expect := expectedResponse(cmd, val)

	resend := func(got string) error {
		p.log.Warnw("command failed, retrying", "cmd", cmd, "response", got)
		return p.conn.WriteLine(line)
	}

	for {
		msg, err := p.next(ctx)
		if err != nil {
			return Result{}, err
		}
		p.log.Debugw("got possible response", "cmd", cmd, "response", msg)

		// Some errors appear by themselves on one line.
		if perr, ok := protocolErrors[msg]; ok {
			if retries == 0 {
				return Result{}, perr
			}
			retries--
			if err := resend(msg); err != nil {
				return Result{}, err
			}
			continue
		}

		if cmd == CmdMode && val == "R" {
			// Device reset; responses are firmware boot output until the
			// identification line appears.
			for !versionLineRe.MatchString(msg) {
				if msg, err = p.next(ctx); err != nil {
					return Result{}, err
				}
			}
			return Result{Value: msg}, nil
		}

		if m := expect.FindStringSubmatch(msg); m != nil {
			if perr, ok := protocolErrors[m[1]]; ok {
				// Some errors are considered a response.
				if retries == 0 {
					return Result{}, perr
				}
				retries--
				if err := resend(msg); err != nil {
					return Result{}, err
				}
				continue
			}
			if cmd == CmdSummary && m[1] == "1" {
				// The summary reply carries a second line.
				part2, err := p.next(ctx)
				if err != nil {
					return Result{}, err
				}
				return Result{Value: m[1], Extra: part2}, nil
			}
			return Result{Value: m[1]}, nil
		}

		if benignErrorRe.MatchString(msg) {
			p.log.Infow("received gateway error; harmless during a reset",
				"response", msg)
		} else {
			p.log.Warnw("unknown message in command queue", "response", msg)
		}
		if err := resend(msg); err != nil {
			return Result{}, err
		}
	}
}

func (p *CommandProcessor) next(ctx context.Context) (string, error) {
	select {
	case msg := <-p.respq:
		return msg, nil
	case <-ctx.Done():
		return "", ctx.Err()
	case <-p.done:
		return "", ErrNotConnected
	}
}

// SubmitResponse queues a classified response line for the in-flight
// command. On overflow the line is dropped and logged.
func (p *CommandProcessor) SubmitResponse(line string) {
	select {
	case p.respq <- line:
		p.log.Debugw("response submitted", "queued", len(p.respq))
	default:
		p.log.Errorw("response queue full, discarded line", "line", line)
	}
}

// ClearQueue drains leftover response lines from a previous command.
func (p *CommandProcessor) ClearQueue() {
	for {
		select {
		case msg := <-p.respq:
			p.log.Debugw("clearing leftover response", "line", msg)
		default:
			return
		}
	}
}

// Close aborts any pending Issue call with ErrNotConnected and rejects
// future calls. Called on disconnect.
func (p *CommandProcessor) Close() {
	p.closeOnce.Do(func() { close(p.done) })
}

// formatValue renders a command value for the wire. Floating values are
// fixed to two decimals, everything else uses its natural string form.
func formatValue(value any) string {
	switch v := value.(type) {
	case float64:
		return fmt.Sprintf("%.2f", v)
	case float32:
		return fmt.Sprintf("%.2f", v)
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// expectedResponse returns the response pattern for a command.
func expectedResponse(cmd Command, value string) *regexp.Regexp {
	if cmd == CmdReport {
		return regexp.MustCompile(fmt.Sprintf(`^%s:\s*([A-Z]{2}|%s=[^$]+)$`, cmd, regexp.QuoteMeta(value)))
	}
	// CH2 control commands report only the value instead of the standard
	// "<cmd>: <value>" form on current firmware. Accept both.
	if cmd == CmdControlHeating2 || cmd == CmdControlSetpoint2 {
		return regexp.MustCompile(fmt.Sprintf(`^(?:%s:\s*)?(0|1|[0-9]+\.[0-9]{2}|[A-Z]{2})$`, cmd))
	}
	return regexp.MustCompile(fmt.Sprintf(`^%s:\s*([^$]+)$`, cmd))
}
