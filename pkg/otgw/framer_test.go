// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Hearthwire

package otgw

import (
	"reflect"
	"testing"
)

type framerRecorder struct {
	frames    []Frame
	responses []string
	activity  int
}

func newRecordedFramer() (*FrameReader, *framerRecorder) {
	rec := &framerRecorder{}
	r := NewFrameReader(
		func(f Frame) { rec.frames = append(rec.frames, f) },
		func(line string) { rec.responses = append(rec.responses, line) },
		func() { rec.activity++ },
		nil,
	)
	return r, rec
}

func TestFrameReader_BinaryLine(t *testing.T) {
	r, rec := newRecordedFramer()
	r.Feed([]byte("B40193200\r\n"))

	if len(rec.frames) != 1 {
		t.Fatalf("expected 1 frame, got %d", len(rec.frames))
	}
	want := Frame{Origin: OriginBoiler, Type: ReadAck, ID: MsgTBoiler, MSB: 0x32, LSB: 0x00}
	if rec.frames[0] != want {
		t.Errorf("frame mismatch: got %+v, want %+v", rec.frames[0], want)
	}
	if len(rec.responses) != 0 {
		t.Errorf("unexpected response lines: %v", rec.responses)
	}
	if rec.activity != 1 {
		t.Errorf("expected 1 activity callback, got %d", rec.activity)
	}
}

func TestFrameReader_SplitAcrossFeeds(t *testing.T) {
	r, rec := newRecordedFramer()
	r.Feed([]byte("T800"))
	r.Feed([]byte("00200\r"))
	r.Feed([]byte("\nTT: 20.50\r\n"))

	if len(rec.frames) != 1 {
		t.Fatalf("expected 1 frame, got %d", len(rec.frames))
	}
	if rec.frames[0].Origin != OriginThermostat || rec.frames[0].ID != MsgStatus {
		t.Errorf("unexpected frame %+v", rec.frames[0])
	}
	if !reflect.DeepEqual(rec.responses, []string{"TT: 20.50"}) {
		t.Errorf("unexpected responses %v", rec.responses)
	}
}

func TestFrameReader_MessageTypes(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		frames   int
		wantType MessageType
	}{
		{"read data", "T00000000\r\n", 1, ReadData},
		{"write data", "T10100000\r\n", 1, WriteData},
		{"read ack", "B40000A00\r\n", 1, ReadAck},
		{"write ack", "A50100000\r\n", 1, WriteAck},
		{"invalid msg type dropped", "B20000000\r\n", 0, 0},
		{"data invalid dropped", "B70000000\r\n", 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, rec := newRecordedFramer()
			r.Feed([]byte(tt.line))
			if len(rec.frames) != tt.frames {
				t.Fatalf("expected %d frames, got %d", tt.frames, len(rec.frames))
			}
			if tt.frames == 1 && rec.frames[0].Type != tt.wantType {
				t.Errorf("expected type %d, got %d", tt.wantType, rec.frames[0].Type)
			}
			if len(rec.responses) != 0 {
				t.Errorf("binary lines must never become responses: %v", rec.responses)
			}
		})
	}
}

func TestFrameReader_ErrorOriginDropped(t *testing.T) {
	r, rec := newRecordedFramer()
	r.Feed([]byte("E40193200\r\n"))
	if len(rec.frames) != 0 || len(rec.responses) != 0 {
		t.Errorf("gateway-flagged frames must be dropped: frames=%v responses=%v",
			rec.frames, rec.responses)
	}
	if rec.activity != 1 {
		t.Errorf("dropped frames still count as line activity, got %d", rec.activity)
	}
}

func TestFrameReader_BootArtifact(t *testing.T) {
	r, rec := newRecordedFramer()
	// A partial hex dump on the very first line is connect noise.
	r.Feed([]byte("193200\r\nB40193200\r\n"))
	if len(rec.responses) != 0 {
		t.Errorf("boot artifact must not become a response: %v", rec.responses)
	}
	if len(rec.frames) != 1 {
		t.Fatalf("expected the following frame to decode, got %d", len(rec.frames))
	}

	// The same shape later in the stream is a response line.
	r.Feed([]byte("193200\r\n"))
	if !reflect.DeepEqual(rec.responses, []string{"193200"}) {
		t.Errorf("expected late hex line as response, got %v", rec.responses)
	}
}

func TestFrameReader_ResetReenablesBootDetection(t *testing.T) {
	r, rec := newRecordedFramer()
	r.Feed([]byte("B40193200\r\n"))
	if !r.Active() {
		t.Fatal("reader should be active after a complete line")
	}

	r.Reset()
	if r.Active() {
		t.Fatal("reader should be inactive after Reset")
	}
	r.Feed([]byte("3200\r\n"))
	if len(rec.responses) != 0 {
		t.Errorf("boot artifact after Reset must be ignored, got %v", rec.responses)
	}
}

func TestFrameReader_EOTDiscardsPrefix(t *testing.T) {
	r, rec := newRecordedFramer()
	r.Feed([]byte("garbage\x04B40193200\r\n"))
	if len(rec.frames) != 1 {
		t.Fatalf("expected the bytes after EOT to decode, got %d frames", len(rec.frames))
	}
	if len(rec.responses) != 0 {
		t.Errorf("unexpected responses %v", rec.responses)
	}
}

func TestFrameReader_EOTOnlyLineSkipped(t *testing.T) {
	r, rec := newRecordedFramer()
	r.Feed([]byte("noise\x04\r\nB40193200\r\n"))
	if rec.activity != 1 {
		t.Errorf("an emptied line must not count as activity, got %d", rec.activity)
	}
	if len(rec.frames) != 1 {
		t.Errorf("expected 1 frame, got %d", len(rec.frames))
	}
}

func TestFrameReader_NonASCIIDiscardsBuffer(t *testing.T) {
	r, rec := newRecordedFramer()
	r.Feed([]byte("\xfe\xff\r\nB40193200\r\n"))
	if len(rec.frames) != 0 {
		t.Errorf("bytes after a non-ASCII line in the same feed must be dropped: %v", rec.frames)
	}

	// The reader recovers on the next feed.
	r.Feed([]byte("B40193200\r\n"))
	if len(rec.frames) != 1 {
		t.Errorf("expected recovery after discard, got %d frames", len(rec.frames))
	}
}

func TestFrameReader_ResponseClassification(t *testing.T) {
	r, rec := newRecordedFramer()
	r.Feed([]byte("B40193200\r\nPR: A=OpenTherm Gateway 4.2.5\r\nError 03\r\n"))
	want := []string{"PR: A=OpenTherm Gateway 4.2.5", "Error 03"}
	if !reflect.DeepEqual(rec.responses, want) {
		t.Errorf("responses mismatch: got %v, want %v", rec.responses, want)
	}
}

func TestFrameReader_ReplayAfterReset(t *testing.T) {
	input := []byte("3200\r\nT80000200\r\nB40193200\r\nPR: M=G\r\nError 01\r\n")

	r, rec := newRecordedFramer()
	r.Feed(input)
	frames, responses := rec.frames, rec.responses

	r.Reset()
	rec.frames, rec.responses = nil, nil
	r.Feed(input)

	if !reflect.DeepEqual(rec.frames, frames) {
		t.Errorf("frame sequence changed after Reset: %v vs %v", rec.frames, frames)
	}
	if !reflect.DeepEqual(rec.responses, responses) {
		t.Errorf("response sequence changed after Reset: %v vs %v", rec.responses, responses)
	}
}

func TestFrameReader_NilCallbacks(t *testing.T) {
	r := NewFrameReader(nil, nil, nil, nil)
	// Must not panic.
	r.Feed([]byte("B40193200\r\nPR: A=x\r\n"))
	if !r.Active() {
		t.Error("reader should be active")
	}
}
