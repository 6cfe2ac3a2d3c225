// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package trace

import (
	"fmt"
	"io"
	"strings"
)

// Summary counts what happened over a trace.
type Summary struct {
	Ticks     int
	Frames    int
	Rendered  int
	Views     int
	Poses     int
	Haptics   int
	Errors    int
	LastState string
}

// Summary returns the totals of t.
func (t *Trace) Summary() Summary {
	var s Summary
	for _, f := range t.Frames {
		s.Ticks++
		if f.Submitted {
			s.Frames++
		}
		if f.Layers > 0 {
			s.Rendered++
		}
		s.Views += len(f.Views)
		s.Poses += f.Poses
		s.Haptics += f.Haptics
		if f.Err != "" {
			s.Errors++
		}
		s.LastState = f.State
	}
	return s
}

func (s Summary) String() string {
	return fmt.Sprintf("ticks=%d frames=%d rendered=%d views=%d poses=%d haptics=%d errors=%d state=%s",
		s.Ticks, s.Frames, s.Rendered, s.Views, s.Poses, s.Haptics, s.Errors, s.LastState)
}

// Dump writes t as text, one line per tick.
func (t *Trace) Dump(w io.Writer) error {
	var b strings.Builder
	fmt.Fprintf(&b, "session %s", t.Header.Session)
	if t.Header.Application != "" {
		fmt.Fprintf(&b, " (%s)", t.Header.Application)
	}
	b.WriteByte('\n')
	for _, f := range t.Frames {
		fmt.Fprintf(&b, "%4d %-12s", f.Tick, f.State)
		switch {
		case !f.Initialized:
			b.WriteString(" init")
		case f.Suspended:
			b.WriteString(" suspended")
		case f.Submitted:
			fmt.Fprintf(&b, " t=%d layers=%d", f.DisplayTime, f.Layers)
			for _, v := range f.Views {
				fmt.Fprintf(&b, " [%d:%d %dx%d]", v.Index, v.Image, v.Width, v.Height)
			}
		default:
			b.WriteString(" idle")
		}
		if f.Event != "" {
			fmt.Fprintf(&b, " event=%s", f.Event)
		}
		if f.Poses > 0 {
			fmt.Fprintf(&b, " poses=%d", f.Poses)
		}
		if f.Haptics > 0 {
			fmt.Fprintf(&b, " haptics=%d", f.Haptics)
		}
		if f.InputErrors > 0 {
			fmt.Fprintf(&b, " input_errors=%d", f.InputErrors)
		}
		if f.Err != "" {
			fmt.Fprintf(&b, " err=%q", f.Err)
		}
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "%s\n", t.Summary())
	_, err := io.WriteString(w, b.String())
	return err
}
