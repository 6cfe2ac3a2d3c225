package xr

import (
	"errors"
	"fmt"
	"time"
)

// FrameReport summarizes one host tick. It is delivered to the
// WithFrameObserver callback at the end of every Draw.
type FrameReport struct {
	Tick        uint64
	State       SessionState
	Event       string
	Initialized bool
	Suspended   bool

	WaitedFrame   bool
	DisplayTime   Time
	DisplayPeriod time.Duration
	ShouldRender  bool
	Submitted     bool
	Layers        int
	Views         []ViewReport

	PoseUpdates int
	Haptics     int
	InputErrors int
	Err         string
}

// ViewReport describes one rendered view of a frame.
type ViewReport struct {
	Index  int
	Image  uint32
	Width  uint32
	Height uint32
}

// FrameLoop is the session state machine and the per-frame protocol:
// poll, wait, begin, render each view, end.
type FrameLoop struct {
	ctx        *SessionContext
	session    *SessionManager
	swapchains *Swapchains
	composer   *Composer
	renderer   Renderer

	state       SessionState
	suspended   bool
	lossPending bool
	fatal       *FatalError

	frame      FrameState
	frameReady bool
	views      []View
	report     *FrameReport
}

func newFrameLoop(ctx *SessionContext, session *SessionManager, swapchains *Swapchains, composer *Composer, renderer Renderer) *FrameLoop {
	return &FrameLoop{
		ctx:        ctx,
		session:    session,
		swapchains: swapchains,
		composer:   composer,
		renderer:   renderer,
		report:     &FrameReport{},
	}
}

// State returns the last reported session state.
func (l *FrameLoop) State() SessionState { return l.state }

// Visible reports whether the runtime last declared the session visible.
func (l *FrameLoop) Visible() bool { return l.state.Visible() }

// Suspended reports whether the frame protocol is paused after stopping.
func (l *FrameLoop) Suspended() bool { return l.suspended }

// LossPending reports whether the runtime announced instance loss.
func (l *FrameLoop) LossPending() bool { return l.lossPending }

// FrameState returns the state returned by the last successful wait.
func (l *FrameLoop) FrameState() FrameState { return l.frame }

// Err returns the fatal error that poisoned the loop, or nil.
func (l *FrameLoop) Err() error {
	if l.fatal == nil {
		return nil
	}
	return l.fatal
}

func (l *FrameLoop) poison(err error) error {
	if l.fatal == nil {
		l.fatal = &FatalError{Err: err}
		Logger().Error("xr: frame protocol failed", "err", err)
	}
	return l.fatal
}

// PollEvent dequeues at most one runtime event and applies it. An empty
// queue yields a nil event and no error.
func (l *FrameLoop) PollEvent() (Event, error) {
	c := l.ctx
	ev, err := c.Runtime.PollEvent(c.Instance)
	if err != nil {
		if errors.Is(err, EventUnavailable) {
			return nil, nil
		}
		return nil, c.check("poll event", err)
	}
	l.HandleEvent(ev)
	return ev, nil
}

// HandleEvent applies one event to the state machine.
func (l *FrameLoop) HandleEvent(ev Event) {
	l.report.Event = ev.String()
	switch e := ev.(type) {
	case InstanceLossPending:
		Logger().Warn("xr: instance loss pending", "loss_time", e.LossTime)
		l.lossPending = true
		l.state = StateLossPending
	case SessionStateChanged:
		l.state = e.State
		Logger().Debug("xr: session state changed", "state", e.State, "visible", l.Visible())
		switch {
		case e.State.Ending():
			if !l.suspended {
				l.session.endSession()
				l.suspended = true
			}
		case e.State == StateReady && l.suspended:
			if err := l.session.resumeSession(); err != nil {
				Logger().Warn("xr: resume session failed", "err", err)
				return
			}
			l.suspended = false
		}
	default:
		Logger().Debug("xr: event", "event", ev.String())
	}
}

// WaitFrame throttles the tick to the compositor and records the
// predicted display time. On failure the frame is skipped.
func (l *FrameLoop) WaitFrame() error {
	l.frameReady = false
	c := l.ctx
	fs, err := c.Runtime.WaitFrame(c.Session)
	if err != nil {
		return c.check("wait frame", err)
	}
	l.frame = fs
	l.frameReady = true
	l.report.WaitedFrame = true
	l.report.DisplayTime = fs.PredictedDisplayTime
	l.report.DisplayPeriod = fs.PredictedDisplayPeriod
	l.report.ShouldRender = fs.ShouldRender
	return nil
}

// skipFrame drops the waited frame without beginning it.
func (l *FrameLoop) skipFrame() { l.frameReady = false }

func (l *FrameLoop) locateViews() ([]View, error) {
	c := l.ctx
	if cap(l.views) < c.ViewCount() {
		l.views = make([]View, c.ViewCount())
	}
	views := l.views[:c.ViewCount()]
	_, n, err := c.Runtime.LocateViews(c.Session, ViewLocateInfo{
		ViewConfigurationType: c.ViewType,
		DisplayTime:           l.frame.PredictedDisplayTime,
		Space:                 c.LocalSpace,
	}, views)
	if err != nil {
		return nil, c.check("locate views", err)
	}
	if int(n) != len(views) {
		return nil, &EnumerationError{What: "located views", Capacity: uint32(len(views)), Reported: n}
	}
	return views, nil
}

// RenderFrame runs begin-frame, the per-view compose/acquire/render/
// release sequence and end-frame. Locating the views may fail without
// consequence; any failure after begin-frame poisons the loop.
func (l *FrameLoop) RenderFrame(origin Mat4) error {
	if l.fatal != nil {
		return l.fatal
	}
	if !l.frameReady {
		return nil
	}
	l.frameReady = false
	c := l.ctx

	views, err := l.locateViews()
	if err != nil {
		Logger().Warn("xr: locate views failed", "err", err)
		return nil
	}

	if err := c.Runtime.BeginFrame(c.Session); err != nil {
		return l.poison(c.check("begin frame", err))
	}

	layer := make([]CompositionLayerProjectionView, 0, len(views))
	targets := l.swapchains.Targets()
	for i, v := range views {
		t := targets[i]
		frame := ViewFrame{Width: t.Width, Height: t.Height}
		l.composer.Compose(i, v, origin, &frame)
		if !l.frame.ShouldRender {
			continue
		}
		if err := l.renderView(i, &frame); err != nil {
			return l.poison(err)
		}
		layer = append(layer, LayerView(v, t.Swapchain, t.Width, t.Height))
	}

	if n := l.swapchains.Outstanding(); n != 0 {
		return l.poison(fmt.Errorf("xr: %d swapchain images not released before end frame", n))
	}

	info := FrameEndInfo{
		DisplayTime:          l.frame.PredictedDisplayTime,
		EnvironmentBlendMode: c.BlendMode,
	}
	if l.frame.ShouldRender {
		info.Layers = []CompositionLayerProjection{{Space: c.LocalSpace, Views: layer}}
	}
	if err := c.Runtime.EndFrame(c.Session, info); err != nil {
		return l.poison(c.check("end frame", err))
	}
	l.report.Submitted = true
	l.report.Layers = len(info.Layers)
	return nil
}

func (l *FrameLoop) renderView(i int, frame *ViewFrame) error {
	h, err := l.swapchains.Acquire(i)
	if err != nil {
		return err
	}
	frame.Framebuffer = h.Framebuffer
	frame.Image = h.Image
	if l.renderer != nil {
		l.renderer.RenderView(frame)
	}
	if err := l.swapchains.Release(i); err != nil {
		return err
	}
	l.report.Views = append(l.report.Views, ViewReport{
		Index:  i,
		Image:  h.Index,
		Width:  frame.Width,
		Height: frame.Height,
	})
	return nil
}

// reset returns the loop to its initial state. A fatal error survives.
func (l *FrameLoop) reset() {
	l.state = StateUnknown
	l.suspended = false
	l.lossPending = false
	l.frame = FrameState{}
	l.frameReady = false
	l.views = nil
}
