// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Hearthwire

package otgw

import (
	"bytes"
	"encoding/hex"
	"regexp"

	"go.uber.org/zap"
)

// Frame is one OpenTherm message as relayed by the gateway: the origin
// letter plus the four frame bytes. Frames are produced by the FrameReader
// and consumed immediately by the MessageDecoder.
type Frame struct {
	Origin Origin
	Type   MessageType
	ID     MessageID
	MSB    byte
	LSB    byte
}

var (
	messageLineRe = regexp.MustCompile(`^(T|B|R|A|E)([0-9A-F]{8})$`)
	bootNoiseRe   = regexp.MustCompile(`^[0-9A-F]{1,8}$`)
)

const eot = 0x04

// FrameReader reassembles the gateway's byte stream into CRLF-terminated
// lines and classifies each line as a binary message or a command response.
// It is driven from a single reader goroutine and is not safe for
// concurrent Feed calls.
type FrameReader struct {
	buf   []byte
	lines int

	onFrame    func(Frame)
	onResponse func(string)
	onActivity func()

	log *zap.SugaredLogger
}

// NewFrameReader creates a frame reader. Classified binary frames go to
// onFrame, everything else to onResponse; onActivity is invoked for every
// complete line. Any callback may be nil.
func NewFrameReader(onFrame func(Frame), onResponse func(string), onActivity func(), log *zap.SugaredLogger) *FrameReader {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &FrameReader{
		onFrame:    onFrame,
		onResponse: onResponse,
		onActivity: onActivity,
		log:        log,
	}
}

// Reset returns the reader to its fresh-connection state: buffered bytes
// are discarded and boot-artifact detection is re-enabled.
func (r *FrameReader) Reset() {
	r.buf = nil
	r.lines = 0
}

// Active reports whether at least one complete line has been seen since
// the last Reset.
func (r *FrameReader) Active() bool {
	return r.lines > 0
}

// Feed appends raw bytes and processes every complete line in the buffer.
// A line containing the EOT byte has everything up to and including it
// discarded; a line that is not 7-bit-clean ASCII discards the rest of the
// buffer for this call.
func (r *FrameReader) Feed(data []byte) {
	r.buf = append(r.buf, data...)
	for {
		idx := bytes.Index(r.buf, []byte("\r\n"))
		if idx < 0 {
			return
		}
		line := r.buf[:idx]
		r.buf = r.buf[idx+2:]
		if len(line) == 0 {
			continue
		}
		if i := bytes.IndexByte(line, eot); i >= 0 {
			line = line[i+1:]
			if len(line) == 0 {
				continue
			}
		}
		if !isASCII(line) {
			r.log.Debug("invalid data received, ignoring")
			r.buf = nil
			return
		}
		r.lineReceived(string(line))
	}
}

func (r *FrameReader) lineReceived(line string) {
	r.lines++
	r.log.Debugw("received line", "number", r.lines, "line", line)
	if r.onActivity != nil {
		r.onActivity()
	}
	if m := messageLineRe.FindStringSubmatch(line); m != nil {
		r.classifyMessage(m[1][0], m[2])
		return
	}
	if r.lines == 1 && bootNoiseRe.MatchString(line) {
		// Partial message on a fresh connection.
		r.lines = 0
		r.log.Debugw("ignoring boot artifact", "line", line)
		return
	}
	r.log.Debugw("submitting response line", "number", r.lines)
	if r.onResponse != nil {
		r.onResponse(line)
	}
}

func (r *FrameReader) classifyMessage(origin byte, hexFrame string) {
	raw, err := hex.DecodeString(hexFrame)
	if err != nil {
		// Unreachable given the match pattern.
		return
	}
	if Origin(origin) == OriginError {
		r.log.Infow("gateway received an erroneous message, ignoring",
			"frame", hexFrame)
		return
	}
	mtype := MessageType((raw[0] >> 4) & 0x7)
	switch mtype {
	case ReadData, WriteData, ReadAck, WriteAck:
	default:
		return
	}
	if r.onFrame != nil {
		r.onFrame(Frame{
			Origin: Origin(origin),
			Type:   mtype,
			ID:     MessageID(raw[1]),
			MSB:    raw[2],
			LSB:    raw[3],
		})
	}
}

func isASCII(b []byte) bool {
	for _, c := range b {
		if c > 0x7F {
			return false
		}
	}
	return true
}
