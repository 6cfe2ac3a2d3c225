package xr

import (
	"errors"
	"fmt"
)

// Driver connects a host application to a VR runtime. The host calls
// PreDraw and Draw once per tick from a single goroutine.
//
// Driver methods are not safe for concurrent use.
type Driver struct {
	opts     options
	ctx      *SessionContext
	graphics Graphics

	session    *SessionManager
	swapchains *Swapchains
	registry   *Registry
	composer   *Composer
	loop       *FrameLoop

	entities []*trackedEntity
	ready    bool
	tick     uint64
}

type trackedEntity struct {
	entity Entity
	bundle *ActionBundle
}

// New creates a driver for runtime rt rendering through graphics.
// Nothing is created on the runtime until the first Draw.
func New(rt Runtime, graphics Graphics, opts ...Option) *Driver {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	d := &Driver{
		opts:     o,
		ctx:      &SessionContext{Runtime: rt},
		graphics: graphics,
	}
	d.session = newSessionManager(d.ctx, graphics, &d.opts)
	d.swapchains = newSwapchains(d.ctx, graphics, &d.opts)
	d.registry = NewRegistry(d.ctx, d.opts.bindingCapacity)
	d.composer = NewComposer(StereoViewCount, d.opts.nearZ, d.opts.farZ)
	d.loop = newFrameLoop(d.ctx, d.session, d.swapchains, d.composer, d.opts.renderer)
	return d
}

// Context returns the shared session context.
func (d *Driver) Context() *SessionContext { return d.ctx }

// Swapchains returns the swapchain manager.
func (d *Driver) Swapchains() *Swapchains { return d.swapchains }

// Registry returns the action registry.
func (d *Driver) Registry() *Registry { return d.registry }

// Composer returns the view composer.
func (d *Driver) Composer() *Composer { return d.composer }

// Initialized reports whether the session, swapchains and actions are set up.
func (d *Driver) Initialized() bool { return d.ready }

// State returns the last session state reported by the runtime.
func (d *Driver) State() SessionState { return d.loop.State() }

// Visible reports whether the session was last declared visible.
func (d *Driver) Visible() bool { return d.loop.Visible() }

// Err returns the fatal error that stopped the driver, or nil.
func (d *Driver) Err() error { return d.loop.Err() }

// AddEntity tracks a controller entity. Entities must be added before
// the driver initializes; their actions are registered during setup.
func (d *Driver) AddEntity(e Entity) error {
	if d.ready || d.registry.Attached() {
		return fmt.Errorf("%w: add entity %d after attach", ErrProtocolOrder, e.EntityID())
	}
	if _, err := NormalizePath(e.SubactionPath()); err != nil {
		return err
	}
	want := (len(d.entities) + 1) * bindingsPerEntity
	if want > d.opts.bindingCapacity {
		return &CapacityError{What: "binding table", Capacity: d.opts.bindingCapacity, Requested: want}
	}
	d.entities = append(d.entities, &trackedEntity{entity: e})
	return nil
}

// Initialize runs session setup, swapchain creation and action
// registration. Each stage is skipped once it has succeeded, so a failed
// call can simply be repeated. Draw calls it while uninitialized.
func (d *Driver) Initialize() error {
	if d.ready {
		return nil
	}
	if d.ctx.Runtime == nil {
		return ErrNotInitialized
	}
	if err := d.session.Initialize(); err != nil {
		return err
	}
	if err := d.swapchains.Setup(); err != nil {
		return &SetupError{Step: "swapchains", Err: err}
	}
	if err := d.setupActions(); err != nil {
		return &SetupError{Step: "actions", Err: err}
	}
	d.composer.Reset(d.ctx.ViewCount())
	d.ready = true
	Logger().Info("xr: driver initialized",
		"views", d.ctx.ViewCount(),
		"format", d.swapchains.Format(),
		"entities", len(d.registry.Bundles()))
	return nil
}

func (d *Driver) setupActions() error {
	r := d.registry
	if err := r.CreateActionSet(d.opts.applicationName); err != nil {
		return err
	}
	if !r.Submitted() {
		kept := d.entities[:0]
		for _, te := range d.entities {
			if te.bundle == nil {
				b, err := r.RegisterEntity(te.entity.EntityID(), te.entity.SubactionPath())
				var capErr *CapacityError
				switch {
				case errors.As(err, &capErr), errors.Is(err, ErrInvalidPath):
					Logger().Warn("xr: entity dropped", "entity", te.entity.EntityID(), "err", err)
					continue
				case err != nil:
					return err
				}
				te.bundle = b
			}
			kept = append(kept, te)
		}
		d.entities = kept
		if err := r.SubmitBindings(d.opts.profile); err != nil {
			return err
		}
	}
	return r.Attach()
}

// PreDraw runs the first half of a tick: poll one event, wait for the
// frame, sync actions and poll every entity. It does nothing until the
// driver is initialized. Recoverable failures are logged and skip the
// frame.
func (d *Driver) PreDraw() error {
	if err := d.loop.Err(); err != nil {
		return err
	}
	d.tick++
	*d.loop.report = FrameReport{Tick: d.tick}
	if !d.ready {
		return nil
	}
	if d.loop.LossPending() {
		return ErrInstanceLossPending
	}

	if _, err := d.loop.PollEvent(); err != nil {
		Logger().Warn("xr: poll event failed", "err", err)
		return nil
	}
	if d.loop.LossPending() {
		return ErrInstanceLossPending
	}
	if d.loop.Suspended() {
		return nil
	}

	if err := d.loop.WaitFrame(); err != nil {
		Logger().Warn("xr: wait frame failed", "err", err)
		return nil
	}
	if err := d.registry.Sync(); err != nil {
		Logger().Warn("xr: sync actions failed", "err", err)
		d.loop.skipFrame()
		return nil
	}
	d.pollEntities()
	return nil
}

func (d *Driver) pollEntities() {
	origin := d.origin()
	grip := d.opts.grip.Matrix()
	t := d.loop.FrameState().PredictedDisplayTime
	report := d.loop.report
	for _, te := range d.entities {
		if te.bundle == nil {
			continue
		}
		st, err := d.registry.Poll(te.bundle, d.ctx.LocalSpace, t)
		if err != nil {
			report.InputErrors++
		}
		if st.PoseValid {
			te.entity.SetPose(origin.Multiply(PoseMatrix(st.Location.Pose)).Multiply(grip))
			report.PoseUpdates++
		}
		if st.HapticFired {
			report.Haptics++
		}
		if recv, ok := te.entity.(InputReceiver); ok {
			recv.SetInput(st)
		}
	}
}

func (d *Driver) origin() Mat4 {
	if op, ok := d.opts.renderer.(OriginProvider); ok {
		return op.Origin()
	}
	return Identity()
}

// Draw runs the second half of a tick. While uninitialized it retries
// setup and returns the setup error, which is not fatal. Otherwise it
// renders and submits the frame waited for in PreDraw. A *FatalError
// return means the driver can no longer submit frames.
func (d *Driver) Draw() error {
	err := d.draw()
	d.emitReport(err)
	return err
}

func (d *Driver) draw() error {
	if err := d.loop.Err(); err != nil {
		return err
	}
	if !d.ready {
		return d.Initialize()
	}
	if d.loop.LossPending() {
		return ErrInstanceLossPending
	}
	return d.loop.RenderFrame(d.origin())
}

func (d *Driver) emitReport(err error) {
	if d.opts.observer == nil {
		return
	}
	r := *d.loop.report
	r.State = d.loop.State()
	r.Initialized = d.ready
	r.Suspended = d.loop.Suspended()
	if err != nil {
		r.Err = err.Error()
	}
	d.opts.observer(r)
}

// Shutdown releases swapchains, actions, the session and the instance.
// Added entities are kept and registered again by the next Initialize.
// A fatal error is not cleared.
func (d *Driver) Shutdown() error {
	d.swapchains.Destroy()
	d.registry.reset()
	for _, te := range d.entities {
		te.bundle = nil
	}
	err := d.session.destroy()
	d.loop.reset()
	d.ready = false
	return err
}
