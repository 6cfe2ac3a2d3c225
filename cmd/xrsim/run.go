// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/gogpu/xr"
	"github.com/gogpu/xr/config"
	"github.com/gogpu/xr/gfx/soft"
	"github.com/gogpu/xr/trace"
	"github.com/gogpu/xr/xrtest"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Frames int
	Scale  float32
	Mirror string
	Trace  string
}

// RunResult is the summary printed after a run.
type RunResult struct {
	Session   string `json:"session"`
	Ticks     int    `json:"ticks"`
	Frames    int    `json:"frames"`
	Rendered  int    `json:"rendered"`
	Views     int    `json:"views"`
	Poses     int    `json:"poses"`
	Haptics   int    `json:"haptics"`
	Errors    int    `json:"errors"`
	State     string `json:"state"`
	Submitted int    `json:"submitted"`
}

var handColors = []color.RGBA{
	{R: 0xff, G: 0x40, B: 0x40, A: 0xff},
	{R: 0x40, G: 0xff, B: 0x40, A: 0xff},
	{R: 0xff, G: 0xff, B: 0x40, A: 0xff},
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Tick the driver for a number of frames",
		Long: `Tick the driver against the scripted runtime and print a summary.

Each tick is PreDraw followed by Draw. The first tick brings the
session up. Scheduled session events are pushed before their frame.
A fatal frame-protocol error ends the run with a non-zero exit.

Examples:
  xrsim run
  xrsim run --config headset.yaml --frames 300
  xrsim run --mirror mirror.png --trace run.cbor --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSim(opts, cmd)
		},
	}

	cmd.Flags().IntVarP(&opts.Frames, "frames", "n", 0, "ticks to run (default from config)")
	cmd.Flags().Float32Var(&opts.Scale, "scale", 1, "offscreen resolution scale")
	cmd.Flags().StringVar(&opts.Mirror, "mirror", "", "write the last eye images side by side to this PNG")
	cmd.Flags().StringVar(&opts.Trace, "trace", "", "write the CBOR frame trace to this file")

	return cmd
}

func runSim(opts *RunOptions, cmd *cobra.Command) error {
	cfg, err := opts.load(cmd)
	if err != nil {
		return err
	}
	frames := cfg.Simulator.Frames
	if opts.Frames > 0 {
		frames = opts.Frames
	}

	sim := newSimulation(cfg, opts.Scale)
	runErr := sim.run(frames)
	if shutdownErr := sim.driver.Shutdown(); shutdownErr != nil {
		xr.Logger().Warn("xrsim: shutdown", "err", shutdownErr)
	}

	if opts.Trace != "" {
		if err := writeTrace(opts.Trace, sim.recorder); err != nil {
			return err
		}
	}
	if opts.Mirror != "" {
		if err := writeMirror(opts.Mirror, sim, cfg); err != nil {
			return err
		}
	}

	tr := sim.recorder.Trace()
	s := tr.Summary()
	res := RunResult{
		Session:   tr.Header.Session,
		Ticks:     s.Ticks,
		Frames:    s.Frames,
		Rendered:  s.Rendered,
		Views:     s.Views,
		Poses:     s.Poses,
		Haptics:   s.Haptics,
		Errors:    s.Errors,
		State:     s.LastState,
		Submitted: len(sim.runtime.Frames()),
	}
	if err := printResult(cmd.OutOrStdout(), opts.Format, res); err != nil {
		return err
	}
	return runErr
}

// simulation is one configured driver with its collaborators.
type simulation struct {
	cfg      *config.Config
	runtime  *xrtest.Runtime
	graphics *soft.Graphics
	renderer *soft.Renderer
	recorder *trace.Recorder
	driver   *xr.Driver
}

func newSimulation(cfg *config.Config, scale float32) *simulation {
	rc := cfg.Runtime()
	s := &simulation{
		cfg:      cfg,
		runtime:  xrtest.New(rc),
		graphics: soft.New(soft.WithFormat(rc.Formats[0])),
		recorder: trace.NewRecorder(trace.WithApplication(cfg.Driver.ApplicationName)),
	}
	s.renderer = soft.NewRenderer(s.graphics, soft.WithResolutionScale(scale))

	opts := append(cfg.Options(),
		xr.WithRenderer(s.renderer),
		xr.WithFrameObserver(s.recorder.Observe),
	)
	s.driver = xr.New(s.runtime, s.graphics, opts...)

	for i, h := range cfg.Simulator.Hands {
		m := soft.NewMarker(h.ID, h.Path, handColors[i%len(handColors)])
		if err := s.driver.AddEntity(m); err != nil {
			xr.Logger().Warn("xrsim: hand not tracked", "id", h.ID, "path", h.Path, "err", err)
			continue
		}
		s.renderer.Track(m)
		s.runtime.SetPose(h.Path, h.Location())
		s.runtime.SetFloat(xr.ActionName(h.ID, "trigger"), xr.ActionStateFloat{CurrentState: h.Trigger, IsActive: true})
		s.runtime.SetFloat(xr.ActionName(h.ID, "lever"), xr.ActionStateFloat{CurrentState: h.Lever, IsActive: true})
	}
	return s
}

// run ticks the driver. Setup failures are retried by the next tick;
// a fatal error stops the run.
func (s *simulation) run(ticks int) error {
	for i := range ticks {
		for _, st := range s.cfg.Simulator.EventsAt(i) {
			if err := s.runtime.PushState(st); err != nil {
				xr.Logger().Warn("xrsim: event dropped", "frame", i, "state", st, "err", err)
			}
		}
		if err := s.tick(); err != nil {
			return err
		}
	}
	return nil
}

func (s *simulation) tick() error {
	err := s.driver.PreDraw()
	if err == nil {
		err = s.driver.Draw()
	}
	var fatal *xr.FatalError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &fatal):
		xr.Logger().Error("xrsim: fatal", "err", err)
		return err
	case errors.Is(err, xr.ErrInstanceLossPending):
		xr.Logger().Warn("xrsim: instance lost, restarting")
		return s.driver.Shutdown()
	default:
		xr.Logger().Warn("xrsim: tick", "err", err)
		return nil
	}
}

func writeTrace(path string, rec *trace.Recorder) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create trace: %w", err)
	}
	if _, err := rec.WriteTo(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeMirror(path string, s *simulation, cfg *config.Config) error {
	var w, h int
	for _, v := range cfg.Simulator.Views {
		w += int(v.Width)
		h = max(h, int(v.Height))
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	s.renderer.Mirror(img, len(cfg.Simulator.Views))

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create mirror: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode mirror: %w", err)
	}
	return f.Close()
}

func printResult(w io.Writer, format string, res RunResult) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	_, err := fmt.Fprintf(w, "session %s\nticks=%d frames=%d rendered=%d views=%d poses=%d haptics=%d errors=%d state=%s\n",
		res.Session, res.Ticks, res.Frames, res.Rendered, res.Views, res.Poses, res.Haptics, res.Errors, res.State)
	return err
}
