// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Hearthwire

package otgw

import (
	"context"
	"regexp"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// decodeQueueSize bounds the frame queue between the reader and the decode
// loop. Frames beyond it are dropped so the reader never stalls.
const decodeQueueSize = 128

// quirkReportTimeout bounds the internal report command issued by the
// override quirk.
const quirkReportTimeout = 10 * time.Second

var overrideReplyRe = regexp.MustCompile(`(?i)^O=(N|[CT]([0-9]+\.[0-9]+))$`)

// commandIssuer is the slice of the command processor the decoder needs for
// its quirk handling.
type commandIssuer interface {
	Issue(ctx context.Context, cmd Command, value any, retries int) (Result, error)
}

// MessageDecoder drains classified frames one at a time, in arrival order,
// and turns them into status store updates via the decode registry.
// OpenTherm field updates are order-dependent, so the decode loop is never
// parallelized.
type MessageDecoder struct {
	queue    chan Frame
	done     chan struct{}
	commands commandIssuer
	status   *StatusManager
	log      *zap.SugaredLogger
}

// NewMessageDecoder creates a decoder and starts its decode loop.
func NewMessageDecoder(commands commandIssuer, status *StatusManager, log *zap.SugaredLogger) *MessageDecoder {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	d := &MessageDecoder{
		queue:    make(chan Frame, decodeQueueSize),
		done:     make(chan struct{}),
		commands: commands,
		status:   status,
		log:      log,
	}
	go d.loop()
	return d
}

// Submit queues a frame for decoding. On overflow the frame is dropped and
// logged; decoding must never block the reader.
func (d *MessageDecoder) Submit(f Frame) {
	select {
	case d.queue <- f:
		d.log.Debugw("added frame to message queue", "queued", len(d.queue))
	default:
		d.log.Errorw("message queue full, discarding frame",
			"origin", string(f.Origin), "id", f.ID)
	}
}

// ClearQueue discards all queued, undecoded frames.
func (d *MessageDecoder) ClearQueue() {
	for {
		select {
		case <-d.queue:
		default:
			return
		}
	}
}

// Stop terminates the decode loop. The decoder must not be used afterwards.
func (d *MessageDecoder) Stop() {
	close(d.done)
}

func (d *MessageDecoder) loop() {
	for {
		select {
		case <-d.done:
			return
		case f := <-d.queue:
			d.decode(f)
		}
	}
}

func (d *MessageDecoder) decode(f Frame) {
	actions, ok := actionsFor(f.ID, f.Type)
	if !ok {
		return
	}
	var part Source
	switch f.Origin {
	case OriginThermostat, OriginAnswer:
		part = SourceThermostat
	default: // OriginBoiler, OriginRequest
		part = SourceBoiler
	}
	d.log.Debugw("processing frame",
		"origin", string(f.Origin), "id", f.ID, "msb", f.MSB, "lsb", f.LSB)

	update := map[string]any{}
	for _, a := range actions {
		if !d.runAction(a, f, part, update) {
			// A quirk handled (or suppressed) the frame itself.
			return
		}
	}
	if len(update) == 0 {
		return
	}
	d.status.Submit(part, update)
}

// runAction applies one decode action, merging its outputs into update.
// Returns false when the frame's accumulated update must be discarded.
func (d *MessageDecoder) runAction(a decodeAction, f Frame, part Source, update map[string]any) bool {
	pick := func() byte {
		if a.loc == locLSB {
			return f.LSB
		}
		return f.MSB
	}
	switch a.prim {
	case primFlag8:
		bits := flag8(pick())
		for i, name := range a.fields {
			if name == "" {
				continue
			}
			update[name] = bits[i]
		}
	case primU8:
		update[a.fields[0]] = int(pick())
	case primS8:
		update[a.fields[0]] = int(int8(pick()))
	case primF88:
		update[a.fields[0]] = f88(f.MSB, f.LSB)
	case primU16:
		update[a.fields[0]] = int(u16(f.MSB, f.LSB))
	case primS16:
		update[a.fields[0]] = int(s16(f.MSB, f.LSB))
	case quirkOverrideReport:
		d.quirkOverride(part, f)
		return false
	case quirkRoomSetpointAck:
		d.quirkRoomSetpointAck(part, f)
		return false
	}
	return true
}

// quirkOverride handles the remote-override-setpoint Data-ID. Some iSense
// thermostats keep the gateway echoing a stale override after the override
// has been cancelled, so when that model is detected the gateway itself is
// asked for the authoritative override state.
func (d *MessageDecoder) quirkOverride(part Source, f Frame) {
	value := f88(f.MSB, f.LSB)
	if value <= 0 {
		d.status.Delete(part, DataRoomSetpointOverride)
		return
	}
	snap := d.status.Snapshot()
	if snap[SourceGateway][GatewayThermostatDetect] == string(DetectISense) && f.Origin == OriginAnswer {
		ctx, cancel := context.WithTimeout(context.Background(), quirkReportTimeout)
		defer cancel()
		res, err := d.commands.Issue(ctx, CmdReport, string(ReportSetpointOverride), 3)
		if err != nil {
			d.log.Debugw("override report failed", "error", err)
			return
		}
		m := overrideReplyRe.FindStringSubmatch(res.Value)
		if m == nil {
			return
		}
		if m[1] == "N" || m[1] == "n" {
			d.status.Delete(part, DataRoomSetpointOverride)
			return
		}
		ovrd, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			return
		}
		d.status.Submit(part, map[string]any{DataRoomSetpointOverride: ovrd})
		return
	}
	d.status.Submit(part, map[string]any{DataRoomSetpointOverride: value})
}

// quirkRoomSetpointAck handles room-setpoint acknowledgements. On the
// thermostat side these are always WriteAcks and may carry invalid data,
// so only the boiler partition is updated.
func (d *MessageDecoder) quirkRoomSetpointAck(part Source, f Frame) {
	if part == SourceThermostat {
		return
	}
	d.status.Submit(part, map[string]any{DataRoomSetpoint: f88(f.MSB, f.LSB)})
}

// Decode primitives. Bit 0 of flag8 is the least significant bit.

func flag8(b byte) [8]bool {
	var out [8]bool
	for i := 0; i < 8; i++ {
		out[i] = b&1 == 1
		b >>= 1
	}
	return out
}

func u16(msb, lsb byte) uint16 {
	return uint16(msb)<<8 | uint16(lsb)
}

func s16(msb, lsb byte) int16 {
	return int16(u16(msb, lsb))
}

func f88(msb, lsb byte) float64 {
	return float64(s16(msb, lsb)) / 256
}
