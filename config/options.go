// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/xr"
	"github.com/gogpu/xr/xrtest"
)

var formats = map[string]gputypes.TextureFormat{
	"rgba8unorm": gputypes.TextureFormatRGBA8Unorm,
	"bgra8unorm": gputypes.TextureFormatBGRA8Unorm,
}

var levels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

var grips = map[string]xr.GripOffset{
	"":      {},
	"none":  {},
	"index": xr.IndexGripOffset,
}

// Validate checks every section and returns all problems joined.
func (c *Config) Validate() error {
	var errs []error
	d := c.Driver
	if _, err := ParseVersion(d.GraphicsVersion); err != nil {
		errs = append(errs, err)
	}
	if d.NearZ <= 0 || d.FarZ <= d.NearZ {
		errs = append(errs, fmt.Errorf("config: clip range %v..%v invalid", d.NearZ, d.FarZ))
	}
	if _, err := xr.NormalizePath(d.InteractionProfile); err != nil {
		errs = append(errs, fmt.Errorf("config: interaction profile: %w", err))
	}
	if d.BindingCapacity <= 0 || d.SwapchainAttempts <= 0 || d.ImageWaitAttempts <= 0 {
		errs = append(errs, errors.New("config: capacities and attempts must be positive"))
	}
	if d.ImageWaitTimeout <= 0 {
		errs = append(errs, errors.New("config: image_wait_timeout must be positive"))
	}

	s := c.Simulator
	if s.Frames < 0 {
		errs = append(errs, errors.New("config: frames must not be negative"))
	}
	if len(s.Views) != xr.StereoViewCount {
		errs = append(errs, fmt.Errorf("config: %d views, want %d", len(s.Views), xr.StereoViewCount))
	}
	for i, v := range s.Views {
		if v.Width == 0 || v.Height == 0 {
			errs = append(errs, fmt.Errorf("config: view %d has zero size", i))
		}
	}
	if s.Images <= 0 {
		errs = append(errs, errors.New("config: images must be positive"))
	}
	if len(s.Formats) == 0 {
		errs = append(errs, errors.New("config: no swapchain formats"))
	}
	for _, f := range s.Formats {
		if _, ok := formats[strings.ToLower(f)]; !ok {
			errs = append(errs, fmt.Errorf("config: unknown format %q", f))
		}
	}
	if s.DisplayPeriod <= 0 {
		errs = append(errs, errors.New("config: display_period must be positive"))
	}
	seen := map[uint64]bool{}
	for _, h := range s.Hands {
		if seen[h.ID] {
			errs = append(errs, fmt.Errorf("config: duplicate hand id %d", h.ID))
		}
		seen[h.ID] = true
		if _, err := xr.NormalizePath(h.Path); err != nil {
			errs = append(errs, fmt.Errorf("config: hand %d: %w", h.ID, err))
		}
	}
	for _, e := range s.Events {
		if _, err := xr.ParseSessionState(e.State); err != nil {
			errs = append(errs, fmt.Errorf("config: event at frame %d: %w", e.Frame, err))
		}
	}

	if _, ok := levels[strings.ToLower(c.Log.Level)]; !ok {
		errs = append(errs, fmt.Errorf("config: unknown log level %q", c.Log.Level))
	}
	if _, ok := grips[c.Driver.GripOffset]; !ok {
		errs = append(errs, fmt.Errorf("config: unknown grip offset %q", c.Driver.GripOffset))
	}
	if f := c.Log.Format; f != "text" && f != "json" {
		errs = append(errs, fmt.Errorf("config: unknown log format %q", f))
	}
	return errors.Join(errs...)
}

// ParseVersion parses "major.minor.patch"; missing parts are zero.
func ParseVersion(s string) (xr.Version, error) {
	parts := strings.Split(s, ".")
	if s == "" || len(parts) > 3 {
		return 0, fmt.Errorf("config: invalid version %q", s)
	}
	var n [3]uint32
	for i, p := range parts {
		v, err := strconv.ParseUint(p, 10, 32)
		if err != nil {
			return 0, fmt.Errorf("config: invalid version %q", s)
		}
		n[i] = uint32(v)
	}
	return xr.MakeVersion(n[0], n[1], n[2]), nil
}

// Options returns the driver options. The config must be valid.
func (c *Config) Options() []xr.Option {
	d := c.Driver
	version, _ := ParseVersion(d.GraphicsVersion)
	opts := []xr.Option{
		xr.WithApplicationName(d.ApplicationName),
		xr.WithGraphicsVersion(version),
		xr.WithClipPlanes(d.NearZ, d.FarZ),
		xr.WithInteractionProfile(d.InteractionProfile),
		xr.WithBindingCapacity(d.BindingCapacity),
		xr.WithSwapchainAttempts(d.SwapchainAttempts),
		xr.WithImageWaitTimeout(d.ImageWaitTimeout.D()),
		xr.WithImageWaitAttempts(d.ImageWaitAttempts),
	}
	if d.ValidationLayer != nil {
		opts = append(opts, xr.WithValidationLayer(*d.ValidationLayer))
	}
	if d.DebugMessenger != nil {
		opts = append(opts, xr.WithDebugMessenger(*d.DebugMessenger))
	}
	if g := grips[d.GripOffset]; g != (xr.GripOffset{}) {
		opts = append(opts, xr.WithGripOffset(g))
	}
	return opts
}

// Runtime returns the scripted runtime configuration of the simulator
// section. The config must be valid.
func (c *Config) Runtime() xrtest.Config {
	s := c.Simulator
	rc := xrtest.DefaultConfig()
	rc.RuntimeName = "xrsim"
	rc.Views = rc.Views[:0]
	for _, v := range s.Views {
		rc.Views = append(rc.Views, xrtest.StereoView(v.Width, v.Height))
	}
	rc.ImagesPerSwapchain = s.Images
	rc.Formats = rc.Formats[:0]
	for _, f := range s.Formats {
		rc.Formats = append(rc.Formats, formats[strings.ToLower(f)])
	}
	rc.DisplayPeriod = s.DisplayPeriod.D()
	rc.AutoStates = s.AutoStates
	rc.SkipRender = s.SkipRender
	if n := len(s.Events) + 8; n > rc.EventCapacity {
		rc.EventCapacity = n
	}
	return rc
}

// EventsAt returns the session states scheduled before frame.
func (s Simulator) EventsAt(frame int) []xr.SessionState {
	var states []xr.SessionState
	for _, e := range s.Events {
		if e.Frame == frame {
			st, _ := xr.ParseSessionState(e.State)
			states = append(states, st)
		}
	}
	return states
}

// Location returns the tracked location of a hand.
func (h Hand) Location() xr.SpaceLocation {
	return xr.SpaceLocation{
		Flags: xr.SpaceLocationOrientationValid | xr.SpaceLocationPositionValid |
			xr.SpaceLocationOrientationTracked | xr.SpaceLocationPositionTracked,
		Pose: xr.Posef{
			Orientation: xr.Quaternionf{W: 1},
			Position:    xr.Vector3f{X: h.Position[0], Y: h.Position[1], Z: h.Position[2]},
		},
	}
}

// Logger returns a logger writing to w as configured.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: levels[strings.ToLower(c.Log.Level)]}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// FrameBudget returns how long the simulated run takes at the
// configured display period.
func (s Simulator) FrameBudget() time.Duration {
	return time.Duration(s.Frames) * s.DisplayPeriod.D()
}
