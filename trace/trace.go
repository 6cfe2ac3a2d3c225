// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package trace records the per-tick reports of an xr.Driver.
//
// A Recorder is installed with xr.WithFrameObserver(rec.Observe). The
// recorded run is written as a CBOR stream: one Header item followed by
// one Frame item per tick, using Core Deterministic Encoding so the same
// run always produces the same bytes. Read decodes such a stream and
// Dump prints it as text.
package trace

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"

	"github.com/gogpu/xr"
)

// Version is the stream format version written in every header.
const Version = 1

// ErrVersion is returned by Read for streams of another format version.
var ErrVersion = errors.New("trace: unsupported stream version")

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("trace: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("trace: CBOR decoder initialization failed: " + err.Error())
	}
}

// Header opens a stream.
type Header struct {
	Version     int    `cbor:"version"`
	Session     string `cbor:"session"`
	Application string `cbor:"application,omitempty"`
}

// View is one rendered eye of a frame.
type View struct {
	Index  int    `cbor:"index"`
	Image  uint32 `cbor:"image"`
	Width  uint32 `cbor:"width"`
	Height uint32 `cbor:"height"`
}

// Frame is the record of one host tick.
type Frame struct {
	Tick          uint64        `cbor:"tick"`
	State         string        `cbor:"state"`
	Event         string        `cbor:"event,omitempty"`
	Initialized   bool          `cbor:"initialized"`
	Suspended     bool          `cbor:"suspended,omitempty"`
	Waited        bool          `cbor:"waited,omitempty"`
	DisplayTime   int64         `cbor:"display_time,omitempty"`
	DisplayPeriod time.Duration `cbor:"display_period,omitempty"`
	ShouldRender  bool          `cbor:"should_render,omitempty"`
	Submitted     bool          `cbor:"submitted,omitempty"`
	Layers        int           `cbor:"layers,omitempty"`
	Views         []View        `cbor:"views,omitempty"`
	Poses         int           `cbor:"poses,omitempty"`
	Haptics       int           `cbor:"haptics,omitempty"`
	InputErrors   int           `cbor:"input_errors,omitempty"`
	Err           string        `cbor:"err,omitempty"`
}

// FromReport converts a driver report.
func FromReport(r xr.FrameReport) Frame {
	f := Frame{
		Tick:          r.Tick,
		State:         r.State.String(),
		Event:         r.Event,
		Initialized:   r.Initialized,
		Suspended:     r.Suspended,
		Waited:        r.WaitedFrame,
		DisplayTime:   int64(r.DisplayTime),
		DisplayPeriod: r.DisplayPeriod,
		ShouldRender:  r.ShouldRender,
		Submitted:     r.Submitted,
		Layers:        r.Layers,
		Poses:         r.PoseUpdates,
		Haptics:       r.Haptics,
		InputErrors:   r.InputErrors,
		Err:           r.Err,
	}
	for _, v := range r.Views {
		f.Views = append(f.Views, View{Index: v.Index, Image: v.Image, Width: v.Width, Height: v.Height})
	}
	return f
}

// Trace is a decoded stream.
type Trace struct {
	Header Header
	Frames []Frame
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithSession sets the session id instead of a fresh UUIDv7.
func WithSession(id uuid.UUID) Option {
	return func(r *Recorder) { r.header.Session = id.String() }
}

// WithApplication records the application name in the header.
func WithApplication(name string) Option {
	return func(r *Recorder) { r.header.Application = name }
}

// Recorder collects frames. It is safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	header Header
	frames []Frame
}

// NewRecorder returns an empty recorder.
func NewRecorder(opts ...Option) *Recorder {
	r := &Recorder{header: Header{Version: Version}}
	for _, opt := range opts {
		opt(r)
	}
	if r.header.Session == "" {
		r.header.Session = uuid.Must(uuid.NewV7()).String()
	}
	return r
}

// Observe records one report. Pass it to xr.WithFrameObserver.
func (r *Recorder) Observe(rep xr.FrameReport) {
	f := FromReport(rep)
	r.mu.Lock()
	r.frames = append(r.frames, f)
	r.mu.Unlock()
}

// Session returns the session id written in the header.
func (r *Recorder) Session() string { return r.header.Session }

// Trace returns a copy of what was recorded so far.
func (r *Recorder) Trace() *Trace {
	r.mu.Lock()
	defer r.mu.Unlock()
	return &Trace{Header: r.header, Frames: append([]Frame(nil), r.frames...)}
}

// WriteTo writes the recorded stream to w.
func (r *Recorder) WriteTo(w io.Writer) (int64, error) {
	return r.Trace().WriteTo(w)
}

// WriteTo writes t as a CBOR stream.
func (t *Trace) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	enc := encMode.NewEncoder(cw)
	if err := enc.Encode(t.Header); err != nil {
		return cw.n, fmt.Errorf("trace: encode header: %w", err)
	}
	for i := range t.Frames {
		if err := enc.Encode(&t.Frames[i]); err != nil {
			return cw.n, fmt.Errorf("trace: encode frame %d: %w", t.Frames[i].Tick, err)
		}
	}
	return cw.n, nil
}

// Read decodes a stream written by WriteTo.
func Read(r io.Reader) (*Trace, error) {
	dec := decMode.NewDecoder(bufio.NewReader(r))
	t := &Trace{}
	if err := dec.Decode(&t.Header); err != nil {
		return nil, fmt.Errorf("trace: decode header: %w", err)
	}
	if t.Header.Version != Version {
		return nil, fmt.Errorf("%w %d", ErrVersion, t.Header.Version)
	}
	for {
		var f Frame
		err := dec.Decode(&f)
		if errors.Is(err, io.EOF) {
			return t, nil
		}
		if err != nil {
			return nil, fmt.Errorf("trace: decode frame %d: %w", len(t.Frames), err)
		}
		t.Frames = append(t.Frames, f)
	}
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
