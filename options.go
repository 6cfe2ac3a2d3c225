package xr

import "time"

// Defaults applied by New.
const (
	DefaultNearZ              float32 = 0.1
	DefaultFarZ               float32 = 1000.0
	DefaultInteractionProfile         = "/interaction_profiles/valve/index_controller"
	DefaultBindingCapacity            = 64
	DefaultSwapchainAttempts          = 3
	DefaultImageWaitTimeout           = time.Millisecond
	DefaultImageWaitAttempts          = 8
)

// DefaultGraphicsVersion is the graphics API version the driver asks for.
var DefaultGraphicsVersion = MakeVersion(4, 5, 0)

// Option configures a Driver during creation.
//
// Example:
//
//	d := xr.New(runtime, graphics,
//	    xr.WithRenderer(r),
//	    xr.WithClipPlanes(0.05, 500),
//	)
type Option func(*options)

type options struct {
	renderer          Renderer
	applicationName   string
	engineName        string
	validationLayer   bool
	debugMessenger    bool
	graphicsVersion   Version
	nearZ, farZ       float32
	profile           string
	bindingCapacity   int
	swapchainAttempts int
	imageWaitTimeout  time.Duration
	imageWaitAttempts int
	observer          func(FrameReport)
	grip              GripOffset
}

func defaultOptions() options {
	return options{
		applicationName:   "gogpu xr",
		engineName:        "gogpu",
		validationLayer:   true,
		debugMessenger:    true,
		graphicsVersion:   DefaultGraphicsVersion,
		nearZ:             DefaultNearZ,
		farZ:              DefaultFarZ,
		profile:           DefaultInteractionProfile,
		bindingCapacity:   DefaultBindingCapacity,
		swapchainAttempts: DefaultSwapchainAttempts,
		imageWaitTimeout:  DefaultImageWaitTimeout,
		imageWaitAttempts: DefaultImageWaitAttempts,
	}
}

// WithRenderer sets the renderer that draws each eye.
// Without a renderer frames are still submitted, with whatever the
// swapchain images contain.
func WithRenderer(r Renderer) Option {
	return func(o *options) {
		o.renderer = r
	}
}

// WithApplicationName sets the application name reported to the runtime.
func WithApplicationName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.applicationName = name
		}
	}
}

// WithValidationLayer enables the core validation API layer when the
// loader offers it. Enabled by default.
func WithValidationLayer(enabled bool) Option {
	return func(o *options) {
		o.validationLayer = enabled
	}
}

// WithDebugMessenger subscribes to runtime debug messages and forwards
// them to the xr logger. Enabled by default.
func WithDebugMessenger(enabled bool) Option {
	return func(o *options) {
		o.debugMessenger = enabled
	}
}

// WithGraphicsVersion sets the graphics API version that must fall
// within the runtime's supported range.
func WithGraphicsVersion(v Version) Option {
	return func(o *options) {
		o.graphicsVersion = v
	}
}

// WithClipPlanes sets the near and far clip distances of every eye's
// projection. Invalid pairs are ignored.
func WithClipPlanes(nearZ, farZ float32) Option {
	return func(o *options) {
		if nearZ > 0 && farZ > nearZ {
			o.nearZ, o.farZ = nearZ, farZ
		}
	}
}

// WithInteractionProfile sets the controller profile bindings are
// suggested for.
func WithInteractionProfile(profile string) Option {
	return func(o *options) {
		if profile != "" {
			o.profile = profile
		}
	}
}

// WithBindingCapacity sets the size of the suggested-binding table.
// Each entity uses four entries.
func WithBindingCapacity(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.bindingCapacity = n
		}
	}
}

// WithSwapchainAttempts bounds how many times the per-view swapchain
// creation loop restarts after a failure.
func WithSwapchainAttempts(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.swapchainAttempts = n
		}
	}
}

// WithImageWaitTimeout sets the timeout of one swapchain image wait.
func WithImageWaitTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.imageWaitTimeout = d
		}
	}
}

// WithImageWaitAttempts bounds how many timed-out waits are retried
// before the frame is declared lost.
func WithImageWaitAttempts(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.imageWaitAttempts = n
		}
	}
}

// WithFrameObserver registers a callback receiving one report per tick.
func WithFrameObserver(fn func(FrameReport)) Option {
	return func(o *options) {
		o.observer = fn
	}
}

// WithGripOffset applies g to every located grip pose before it is set
// on an entity. The default is no offset.
func WithGripOffset(g GripOffset) Option {
	return func(o *options) {
		o.grip = g
	}
}
