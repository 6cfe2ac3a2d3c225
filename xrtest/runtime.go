// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package xrtest provides a scriptable in-memory VR runtime implementing
// xr.Runtime. It validates the call protocol like a real runtime would,
// records submitted frames and haptic pulses, and lets tests inject
// failures, events, poses and trigger values.
package xrtest

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"
	"code.hybscloud.com/lfq"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/xr"
)

// Runtime is a scripted xr.Runtime. It is not safe for concurrent use,
// except PushEvent which may be called from one producer goroutine while
// the driver polls.
type Runtime struct {
	cfg Config

	handles atomix.Uint32
	events  lfq.SPSC[xr.Event]

	faults map[string]*fault
	grow   map[string]bool
	calls  map[string]int

	instance  xr.Instance
	system    xr.SystemID
	session   xr.Session
	messenger func(xr.DebugMessage)
	running   bool

	spaces     map[xr.Space]string
	swapchains map[xr.Swapchain]*swapchain

	paths     map[string]xr.Path
	pathNames map[xr.Path]string
	sets      map[xr.ActionSet]bool
	actions   map[xr.Action]actionInfo
	suggested map[xr.Path][]xr.SuggestedBinding
	attached  bool
	synced    int

	poses  map[string]xr.SpaceLocation
	floats map[string]xr.ActionStateFloat
	views  []xr.View

	now        xr.Time
	waited     bool
	frameBegun bool
	frames     []xr.FrameEndInfo
	haptics    []Haptic
}

type fault struct {
	skip      int
	remaining int // <0: forever
	err       error
}

type swapchain struct {
	info     xr.SwapchainCreateInfo
	images   []xr.SwapchainImage
	next     uint32
	acquired []uint32
	waited   bool
}

type actionInfo struct {
	set  xr.ActionSet
	name string
	typ  xr.ActionType
}

// Haptic is one recorded haptic pulse.
type Haptic struct {
	Action    string
	Subaction string
	Vibration xr.HapticVibration
}

var _ xr.Runtime = (*Runtime)(nil)

// New returns a runtime configured by cfg.
func New(cfg Config) *Runtime {
	cfg.fillDefaults()
	r := &Runtime{
		cfg:        cfg,
		faults:     make(map[string]*fault),
		grow:       make(map[string]bool),
		calls:      make(map[string]int),
		spaces:     make(map[xr.Space]string),
		swapchains: make(map[xr.Swapchain]*swapchain),
		paths:      make(map[string]xr.Path),
		pathNames:  make(map[xr.Path]string),
		sets:       make(map[xr.ActionSet]bool),
		actions:    make(map[xr.Action]actionInfo),
		suggested:  make(map[xr.Path][]xr.SuggestedBinding),
		poses:      make(map[string]xr.SpaceLocation),
		floats:     make(map[string]xr.ActionStateFloat),
	}
	r.events.Init(cfg.EventCapacity)
	r.views = make([]xr.View, len(cfg.Views))
	for i := range r.views {
		r.views[i] = xr.View{Pose: xr.IdentityPose(), Fov: cfg.Fov}
	}
	return r
}

// Config returns the effective configuration.
func (r *Runtime) Config() Config { return r.cfg }

func (r *Runtime) handle() uint64 { return uint64(r.handles.Add(1)) }

// Fail makes every later call of op return err.
func (r *Runtime) Fail(op string, err error) { r.faults[op] = &fault{remaining: -1, err: err} }

// FailTimes makes the next n calls of op return err.
func (r *Runtime) FailTimes(op string, n int, err error) {
	r.faults[op] = &fault{remaining: n, err: err}
}

// FailAfter lets the next skip calls of op succeed and makes the one
// after them return err.
func (r *Runtime) FailAfter(op string, skip int, err error) {
	r.faults[op] = &fault{skip: skip, remaining: 1, err: err}
}

// Heal removes any failure injected for op.
func (r *Runtime) Heal(op string) { delete(r.faults, op) }

// GrowEnumeration makes the fill call of enumeration op report one more
// item than the count call did.
func (r *Runtime) GrowEnumeration(op string) { r.grow[op] = true }

// Calls returns how often op was called.
func (r *Runtime) Calls(op string) int { return r.calls[op] }

func (r *Runtime) enter(op string) error {
	r.calls[op]++
	f, ok := r.faults[op]
	if !ok {
		return nil
	}
	if f.skip > 0 {
		f.skip--
		return nil
	}
	if f.remaining > 0 {
		f.remaining--
		if f.remaining == 0 {
			delete(r.faults, op)
		}
	}
	return f.err
}

func fill[T any](r *Runtime, op string, src, dst []T) (uint32, error) {
	n := uint32(len(src))
	if len(dst) == 0 {
		return n, nil
	}
	if r.grow[op] {
		return n + 1, xr.ErrorSizeInsufficient
	}
	if len(dst) < len(src) {
		return n, xr.ErrorSizeInsufficient
	}
	return uint32(copy(dst, src)), nil
}

// PushEvent queues an event for PollEvent. It returns iox.ErrWouldBlock
// when the queue is full.
func (r *Runtime) PushEvent(ev xr.Event) error {
	return r.events.Enqueue(&ev)
}

// PushState queues a session state change for the current session.
func (r *Runtime) PushState(state xr.SessionState) error {
	return r.PushEvent(xr.SessionStateChanged{Session: r.session, State: state, Time: r.now})
}

// Emit delivers a debug message to the subscribed messenger, if any.
func (r *Runtime) Emit(msg xr.DebugMessage) {
	if r.messenger != nil {
		r.messenger(msg)
	}
}

// SetPose sets the location reported for the grip pose of a top-level
// user path such as "/user/hand/left".
func (r *Runtime) SetPose(subactionPath string, loc xr.SpaceLocation) {
	r.poses[subactionPath] = loc
}

// SetFloat sets the state reported for the float action named name.
func (r *Runtime) SetFloat(name string, st xr.ActionStateFloat) { r.floats[name] = st }

// SetView sets the pose and field of view located for view i.
func (r *Runtime) SetView(i int, v xr.View) { r.views[i] = v }

// Frames returns the end-frame submissions so far.
func (r *Runtime) Frames() []xr.FrameEndInfo { return r.frames }

// Haptics returns the haptic pulses applied so far.
func (r *Runtime) Haptics() []Haptic { return r.haptics }

// Suggested returns the bindings suggested for an interaction profile.
func (r *Runtime) Suggested(profile string) []xr.SuggestedBinding {
	return r.suggested[r.paths[profile]]
}

// PathString returns the string a path was created from.
func (r *Runtime) PathString(p xr.Path) string { return r.pathNames[p] }

// ActionName returns the name of an action.
func (r *Runtime) ActionName(a xr.Action) string { return r.actions[a].name }

// Attached reports whether action sets were attached to the session.
func (r *Runtime) Attached() bool { return r.attached }

// Running reports whether the session is between begin and end.
func (r *Runtime) Running() bool { return r.running }

// Outstanding returns the number of acquired images not yet released.
func (r *Runtime) Outstanding() int {
	n := 0
	for _, sc := range r.swapchains {
		n += len(sc.acquired)
	}
	return n
}

// LiveSwapchains returns the number of swapchains not yet destroyed.
func (r *Runtime) LiveSwapchains() int { return len(r.swapchains) }

// Instance returns the current instance handle, zero when none exists.
func (r *Runtime) Instance() xr.Instance { return r.instance }

// Session returns the current session handle, zero when none exists.
func (r *Runtime) Session() xr.Session { return r.session }

func (r *Runtime) checkInstance(instance xr.Instance) error {
	if instance == 0 || instance != r.instance {
		return xr.ErrorHandleInvalid
	}
	return nil
}

func (r *Runtime) checkSession(session xr.Session) error {
	if session == 0 || session != r.session {
		return xr.ErrorHandleInvalid
	}
	return nil
}

// EnumerateInstanceExtensionProperties implements xr.Runtime.
func (r *Runtime) EnumerateInstanceExtensionProperties(props []xr.ExtensionProperties) (uint32, error) {
	const op = "EnumerateInstanceExtensionProperties"
	if err := r.enter(op); err != nil {
		return 0, err
	}
	return fill(r, op, r.cfg.Extensions, props)
}

// EnumerateAPILayerProperties implements xr.Runtime.
func (r *Runtime) EnumerateAPILayerProperties(props []xr.APILayerProperties) (uint32, error) {
	const op = "EnumerateAPILayerProperties"
	if err := r.enter(op); err != nil {
		return 0, err
	}
	return fill(r, op, r.cfg.APILayers, props)
}

// CreateInstance implements xr.Runtime.
func (r *Runtime) CreateInstance(info xr.InstanceCreateInfo) (xr.Instance, error) {
	if err := r.enter("CreateInstance"); err != nil {
		return 0, err
	}
	if r.instance != 0 {
		return 0, xr.ErrorLimitReached
	}
	for _, ext := range info.Extensions {
		if !slices.ContainsFunc(r.cfg.Extensions, func(e xr.ExtensionProperties) bool { return e.Name == ext }) {
			return 0, xr.ErrorExtensionNotPresent
		}
	}
	for _, layer := range info.APILayers {
		if !slices.ContainsFunc(r.cfg.APILayers, func(l xr.APILayerProperties) bool { return l.Name == layer }) {
			return 0, xr.ErrorAPILayerNotPresent
		}
	}
	r.instance = xr.Instance(r.handle())
	return r.instance, nil
}

// DestroyInstance implements xr.Runtime.
func (r *Runtime) DestroyInstance(instance xr.Instance) error {
	if err := r.enter("DestroyInstance"); err != nil {
		return err
	}
	if err := r.checkInstance(instance); err != nil {
		return err
	}
	r.instance, r.system, r.messenger = 0, 0, nil
	clear(r.paths)
	clear(r.pathNames)
	clear(r.sets)
	clear(r.actions)
	clear(r.suggested)
	return nil
}

// GetInstanceProperties implements xr.Runtime.
func (r *Runtime) GetInstanceProperties(instance xr.Instance) (xr.InstanceProperties, error) {
	if err := r.enter("GetInstanceProperties"); err != nil {
		return xr.InstanceProperties{}, err
	}
	if err := r.checkInstance(instance); err != nil {
		return xr.InstanceProperties{}, err
	}
	return xr.InstanceProperties{RuntimeName: r.cfg.RuntimeName, RuntimeVersion: r.cfg.RuntimeVersion}, nil
}

// CreateDebugMessenger implements xr.Runtime.
func (r *Runtime) CreateDebugMessenger(instance xr.Instance, callback func(xr.DebugMessage)) (xr.DebugMessenger, error) {
	if err := r.enter("CreateDebugMessenger"); err != nil {
		return 0, err
	}
	if err := r.checkInstance(instance); err != nil {
		return 0, err
	}
	r.messenger = callback
	return xr.DebugMessenger(r.handle()), nil
}

// ResultString implements xr.Runtime.
func (r *Runtime) ResultString(_ xr.Instance, result xr.Result) string {
	return result.String()
}

// GetSystem implements xr.Runtime.
func (r *Runtime) GetSystem(instance xr.Instance, formFactor xr.FormFactor) (xr.SystemID, error) {
	if err := r.enter("GetSystem"); err != nil {
		return 0, err
	}
	if err := r.checkInstance(instance); err != nil {
		return 0, err
	}
	if formFactor != xr.FormFactorHeadMountedDisplay {
		return 0, xr.ErrorFormFactorUnsupported
	}
	if r.system == 0 {
		r.system = xr.SystemID(r.handle())
	}
	return r.system, nil
}

func (r *Runtime) checkSystem(instance xr.Instance, system xr.SystemID) error {
	if err := r.checkInstance(instance); err != nil {
		return err
	}
	if system == 0 || system != r.system {
		return xr.ErrorSystemInvalid
	}
	return nil
}

// GetSystemProperties implements xr.Runtime.
func (r *Runtime) GetSystemProperties(instance xr.Instance, system xr.SystemID) (xr.SystemProperties, error) {
	if err := r.enter("GetSystemProperties"); err != nil {
		return xr.SystemProperties{}, err
	}
	if err := r.checkSystem(instance, system); err != nil {
		return xr.SystemProperties{}, err
	}
	p := r.cfg.System
	p.SystemID = system
	return p, nil
}

// EnumerateViewConfigurations implements xr.Runtime.
func (r *Runtime) EnumerateViewConfigurations(instance xr.Instance, system xr.SystemID, types []xr.ViewConfigurationType) (uint32, error) {
	const op = "EnumerateViewConfigurations"
	if err := r.enter(op); err != nil {
		return 0, err
	}
	if err := r.checkSystem(instance, system); err != nil {
		return 0, err
	}
	return fill(r, op, r.cfg.ViewConfigurations, types)
}

func (r *Runtime) checkViewType(t xr.ViewConfigurationType) error {
	if !slices.Contains(r.cfg.ViewConfigurations, t) {
		return xr.ErrorViewConfigurationTypeUnsupported
	}
	return nil
}

// GetViewConfigurationProperties implements xr.Runtime.
func (r *Runtime) GetViewConfigurationProperties(instance xr.Instance, system xr.SystemID, viewType xr.ViewConfigurationType) (xr.ViewConfigurationProperties, error) {
	if err := r.enter("GetViewConfigurationProperties"); err != nil {
		return xr.ViewConfigurationProperties{}, err
	}
	if err := r.checkSystem(instance, system); err != nil {
		return xr.ViewConfigurationProperties{}, err
	}
	if err := r.checkViewType(viewType); err != nil {
		return xr.ViewConfigurationProperties{}, err
	}
	return xr.ViewConfigurationProperties{Type: viewType, FovMutable: true}, nil
}

// EnumerateEnvironmentBlendModes implements xr.Runtime.
func (r *Runtime) EnumerateEnvironmentBlendModes(instance xr.Instance, system xr.SystemID, viewType xr.ViewConfigurationType, modes []xr.EnvironmentBlendMode) (uint32, error) {
	const op = "EnumerateEnvironmentBlendModes"
	if err := r.enter(op); err != nil {
		return 0, err
	}
	if err := r.checkSystem(instance, system); err != nil {
		return 0, err
	}
	if err := r.checkViewType(viewType); err != nil {
		return 0, err
	}
	return fill(r, op, r.cfg.BlendModes, modes)
}

// EnumerateViewConfigurationViews implements xr.Runtime.
func (r *Runtime) EnumerateViewConfigurationViews(instance xr.Instance, system xr.SystemID, viewType xr.ViewConfigurationType, views []xr.ViewConfigurationView) (uint32, error) {
	const op = "EnumerateViewConfigurationViews"
	if err := r.enter(op); err != nil {
		return 0, err
	}
	if err := r.checkSystem(instance, system); err != nil {
		return 0, err
	}
	if err := r.checkViewType(viewType); err != nil {
		return 0, err
	}
	return fill(r, op, r.cfg.Views, views)
}

// GetGraphicsRequirements implements xr.Runtime.
func (r *Runtime) GetGraphicsRequirements(instance xr.Instance, system xr.SystemID) (xr.GraphicsRequirements, error) {
	if err := r.enter("GetGraphicsRequirements"); err != nil {
		return xr.GraphicsRequirements{}, err
	}
	if err := r.checkSystem(instance, system); err != nil {
		return xr.GraphicsRequirements{}, err
	}
	return r.cfg.Requirements, nil
}

// CreateSession implements xr.Runtime.
func (r *Runtime) CreateSession(instance xr.Instance, info xr.SessionCreateInfo) (xr.Session, error) {
	if err := r.enter("CreateSession"); err != nil {
		return 0, err
	}
	if err := r.checkSystem(instance, info.System); err != nil {
		return 0, err
	}
	if info.Binding.Provider == nil {
		return 0, xr.ErrorGraphicsDeviceInvalid
	}
	if r.session != 0 {
		return 0, xr.ErrorLimitReached
	}
	r.session = xr.Session(r.handle())
	if r.cfg.AutoStates {
		_ = r.PushState(xr.StateIdle)
		_ = r.PushState(xr.StateReady)
	}
	return r.session, nil
}

// DestroySession implements xr.Runtime.
func (r *Runtime) DestroySession(session xr.Session) error {
	if err := r.enter("DestroySession"); err != nil {
		return err
	}
	if err := r.checkSession(session); err != nil {
		return err
	}
	r.session = 0
	r.running = false
	r.attached = false
	r.waited, r.frameBegun = false, false
	clear(r.spaces)
	clear(r.swapchains)
	return nil
}

// EnumerateReferenceSpaces implements xr.Runtime.
func (r *Runtime) EnumerateReferenceSpaces(session xr.Session, spaces []xr.ReferenceSpaceType) (uint32, error) {
	const op = "EnumerateReferenceSpaces"
	if err := r.enter(op); err != nil {
		return 0, err
	}
	if err := r.checkSession(session); err != nil {
		return 0, err
	}
	return fill(r, op, r.cfg.ReferenceSpaces, spaces)
}

// CreateReferenceSpace implements xr.Runtime.
func (r *Runtime) CreateReferenceSpace(session xr.Session, spaceType xr.ReferenceSpaceType, _ xr.Posef) (xr.Space, error) {
	if err := r.enter("CreateReferenceSpace"); err != nil {
		return 0, err
	}
	if err := r.checkSession(session); err != nil {
		return 0, err
	}
	if !slices.Contains(r.cfg.ReferenceSpaces, spaceType) {
		return 0, xr.ErrorReferenceSpaceUnsupported
	}
	s := xr.Space(r.handle())
	r.spaces[s] = ""
	return s, nil
}

// BeginSession implements xr.Runtime.
func (r *Runtime) BeginSession(session xr.Session, viewType xr.ViewConfigurationType) error {
	if err := r.enter("BeginSession"); err != nil {
		return err
	}
	if err := r.checkSession(session); err != nil {
		return err
	}
	if r.running {
		return xr.ErrorSessionRunning
	}
	if err := r.checkViewType(viewType); err != nil {
		return err
	}
	r.running = true
	if r.cfg.AutoStates {
		_ = r.PushState(xr.StateSynchronized)
		_ = r.PushState(xr.StateVisible)
		_ = r.PushState(xr.StateFocused)
	}
	return nil
}

// EndSession implements xr.Runtime.
func (r *Runtime) EndSession(session xr.Session) error {
	if err := r.enter("EndSession"); err != nil {
		return err
	}
	if err := r.checkSession(session); err != nil {
		return err
	}
	if !r.running {
		return xr.ErrorSessionNotRunning
	}
	r.running = false
	r.waited, r.frameBegun = false, false
	if r.cfg.AutoStates {
		_ = r.PushState(xr.StateIdle)
	}
	return nil
}

// PollEvent implements xr.Runtime. An empty queue reports
// xr.EventUnavailable.
func (r *Runtime) PollEvent(instance xr.Instance) (xr.Event, error) {
	if err := r.enter("PollEvent"); err != nil {
		return nil, err
	}
	if err := r.checkInstance(instance); err != nil {
		return nil, err
	}
	ev, err := r.events.Dequeue()
	if err != nil {
		if iox.IsWouldBlock(err) {
			return nil, xr.EventUnavailable
		}
		return nil, fmt.Errorf("xrtest: event queue: %w", err)
	}
	return ev, nil
}

// WaitFrame implements xr.Runtime. Time advances by one display period.
func (r *Runtime) WaitFrame(session xr.Session) (xr.FrameState, error) {
	if err := r.enter("WaitFrame"); err != nil {
		return xr.FrameState{}, err
	}
	if err := r.checkSession(session); err != nil {
		return xr.FrameState{}, err
	}
	if !r.running {
		return xr.FrameState{}, xr.ErrorSessionNotRunning
	}
	r.now += xr.Time(r.cfg.DisplayPeriod)
	r.waited = true
	return xr.FrameState{
		PredictedDisplayTime:   r.now,
		PredictedDisplayPeriod: r.cfg.DisplayPeriod,
		ShouldRender:           !r.cfg.SkipRender,
	}, nil
}

// BeginFrame implements xr.Runtime.
func (r *Runtime) BeginFrame(session xr.Session) error {
	if err := r.enter("BeginFrame"); err != nil {
		return err
	}
	if err := r.checkSession(session); err != nil {
		return err
	}
	if !r.running {
		return xr.ErrorSessionNotRunning
	}
	if !r.waited {
		return xr.ErrorCallOrderInvalid
	}
	r.waited = false
	r.frameBegun = true
	return nil
}

// EndFrame implements xr.Runtime. Layers are validated and recorded.
func (r *Runtime) EndFrame(session xr.Session, info xr.FrameEndInfo) error {
	if err := r.enter("EndFrame"); err != nil {
		return err
	}
	if err := r.checkSession(session); err != nil {
		return err
	}
	if !r.frameBegun {
		return xr.ErrorCallOrderInvalid
	}
	if r.Outstanding() != 0 {
		return xr.ErrorCallOrderInvalid
	}
	for _, layer := range info.Layers {
		if _, ok := r.spaces[layer.Space]; !ok {
			return xr.ErrorHandleInvalid
		}
		for _, v := range layer.Views {
			sc, ok := r.swapchains[v.SubImage.Swapchain]
			if !ok {
				return xr.ErrorHandleInvalid
			}
			ext := v.SubImage.ImageRect.Extent
			if ext.Width <= 0 || ext.Height <= 0 ||
				uint32(ext.Width) > sc.info.Width || uint32(ext.Height) > sc.info.Height {
				return xr.ErrorSwapchainRectInvalid
			}
		}
	}
	r.frameBegun = false

	rec := xr.FrameEndInfo{
		DisplayTime:          info.DisplayTime,
		EnvironmentBlendMode: info.EnvironmentBlendMode,
	}
	for _, layer := range info.Layers {
		rec.Layers = append(rec.Layers, xr.CompositionLayerProjection{
			Space: layer.Space,
			Views: slices.Clone(layer.Views),
		})
	}
	r.frames = append(r.frames, rec)
	return nil
}

// LocateViews implements xr.Runtime.
func (r *Runtime) LocateViews(session xr.Session, info xr.ViewLocateInfo, views []xr.View) (xr.ViewStateFlags, uint32, error) {
	if err := r.enter("LocateViews"); err != nil {
		return 0, 0, err
	}
	if err := r.checkSession(session); err != nil {
		return 0, 0, err
	}
	if err := r.checkViewType(info.ViewConfigurationType); err != nil {
		return 0, 0, err
	}
	if _, ok := r.spaces[info.Space]; !ok {
		return 0, 0, xr.ErrorHandleInvalid
	}
	if len(views) < len(r.views) {
		return 0, uint32(len(r.views)), xr.ErrorSizeInsufficient
	}
	n := copy(views, r.views)
	flags := xr.ViewStateOrientationValid | xr.ViewStatePositionValid |
		xr.ViewStateOrientationTracked | xr.ViewStatePositionTracked
	return flags, uint32(n), nil
}

// EnumerateSwapchainFormats implements xr.Runtime.
func (r *Runtime) EnumerateSwapchainFormats(session xr.Session, formats []gputypes.TextureFormat) (uint32, error) {
	const op = "EnumerateSwapchainFormats"
	if err := r.enter(op); err != nil {
		return 0, err
	}
	if err := r.checkSession(session); err != nil {
		return 0, err
	}
	return fill(r, op, r.cfg.Formats, formats)
}

// CreateSwapchain implements xr.Runtime.
func (r *Runtime) CreateSwapchain(session xr.Session, info xr.SwapchainCreateInfo) (xr.Swapchain, error) {
	if err := r.enter("CreateSwapchain"); err != nil {
		return 0, err
	}
	if err := r.checkSession(session); err != nil {
		return 0, err
	}
	if !slices.Contains(r.cfg.Formats, info.Format) {
		return 0, xr.ErrorSwapchainFormatUnsupported
	}
	if info.Width == 0 || info.Height == 0 {
		return 0, xr.ErrorValidationFailure
	}
	h := xr.Swapchain(r.handle())
	sc := &swapchain{info: info, images: make([]xr.SwapchainImage, r.cfg.ImagesPerSwapchain)}
	for i := range sc.images {
		sc.images[i] = xr.SwapchainImage{Texture: uint32(r.handle())}
	}
	r.swapchains[h] = sc
	return h, nil
}

// DestroySwapchain implements xr.Runtime.
func (r *Runtime) DestroySwapchain(h xr.Swapchain) error {
	if err := r.enter("DestroySwapchain"); err != nil {
		return err
	}
	if _, ok := r.swapchains[h]; !ok {
		return xr.ErrorHandleInvalid
	}
	delete(r.swapchains, h)
	return nil
}

// EnumerateSwapchainImages implements xr.Runtime.
func (r *Runtime) EnumerateSwapchainImages(h xr.Swapchain, images []xr.SwapchainImage) (uint32, error) {
	const op = "EnumerateSwapchainImages"
	if err := r.enter(op); err != nil {
		return 0, err
	}
	sc, ok := r.swapchains[h]
	if !ok {
		return 0, xr.ErrorHandleInvalid
	}
	return fill(r, op, sc.images, images)
}

// AcquireSwapchainImage implements xr.Runtime. Images are handed out
// round robin.
func (r *Runtime) AcquireSwapchainImage(h xr.Swapchain) (uint32, error) {
	if err := r.enter("AcquireSwapchainImage"); err != nil {
		return 0, err
	}
	sc, ok := r.swapchains[h]
	if !ok {
		return 0, xr.ErrorHandleInvalid
	}
	if len(sc.acquired) == len(sc.images) {
		return 0, xr.ErrorCallOrderInvalid
	}
	idx := sc.next
	sc.next = (sc.next + 1) % uint32(len(sc.images))
	sc.acquired = append(sc.acquired, idx)
	return idx, nil
}

// WaitSwapchainImage implements xr.Runtime.
func (r *Runtime) WaitSwapchainImage(h xr.Swapchain, _ time.Duration) error {
	if err := r.enter("WaitSwapchainImage"); err != nil {
		return err
	}
	sc, ok := r.swapchains[h]
	if !ok {
		return xr.ErrorHandleInvalid
	}
	if len(sc.acquired) == 0 || sc.waited {
		return xr.ErrorCallOrderInvalid
	}
	sc.waited = true
	return nil
}

// ReleaseSwapchainImage implements xr.Runtime.
func (r *Runtime) ReleaseSwapchainImage(h xr.Swapchain) error {
	if err := r.enter("ReleaseSwapchainImage"); err != nil {
		return err
	}
	sc, ok := r.swapchains[h]
	if !ok {
		return xr.ErrorHandleInvalid
	}
	if !sc.waited {
		return xr.ErrorCallOrderInvalid
	}
	sc.acquired = sc.acquired[1:]
	sc.waited = false
	return nil
}

// StringToPath implements xr.Runtime.
func (r *Runtime) StringToPath(instance xr.Instance, path string) (xr.Path, error) {
	if err := r.enter("StringToPath"); err != nil {
		return 0, err
	}
	if err := r.checkInstance(instance); err != nil {
		return 0, err
	}
	if !strings.HasPrefix(path, "/") || strings.HasSuffix(path, "/") || strings.Contains(path, "//") {
		return 0, xr.ErrorPathFormatInvalid
	}
	if p, ok := r.paths[path]; ok {
		return p, nil
	}
	p := xr.Path(r.handle())
	r.paths[path] = p
	r.pathNames[p] = path
	return p, nil
}

// CreateActionSet implements xr.Runtime.
func (r *Runtime) CreateActionSet(instance xr.Instance, info xr.ActionSetCreateInfo) (xr.ActionSet, error) {
	if err := r.enter("CreateActionSet"); err != nil {
		return 0, err
	}
	if err := r.checkInstance(instance); err != nil {
		return 0, err
	}
	if info.Name == "" {
		return 0, xr.ErrorNameInvalid
	}
	if info.LocalizedName == "" {
		return 0, xr.ErrorLocalizedNameInvalid
	}
	s := xr.ActionSet(r.handle())
	r.sets[s] = true
	return s, nil
}

// CreateAction implements xr.Runtime.
func (r *Runtime) CreateAction(set xr.ActionSet, info xr.ActionCreateInfo) (xr.Action, error) {
	if err := r.enter("CreateAction"); err != nil {
		return 0, err
	}
	if !r.sets[set] {
		return 0, xr.ErrorHandleInvalid
	}
	if r.attached {
		return 0, xr.ErrorActionSetsAlreadyAttached
	}
	if info.Name == "" {
		return 0, xr.ErrorNameInvalid
	}
	for _, a := range r.actions {
		if a.set == set && a.name == info.Name {
			return 0, xr.ErrorNameDuplicated
		}
	}
	a := xr.Action(r.handle())
	r.actions[a] = actionInfo{set: set, name: info.Name, typ: info.Type}
	return a, nil
}

// SuggestInteractionProfileBindings implements xr.Runtime.
func (r *Runtime) SuggestInteractionProfileBindings(instance xr.Instance, profile xr.Path, bindings []xr.SuggestedBinding) error {
	if err := r.enter("SuggestInteractionProfileBindings"); err != nil {
		return err
	}
	if err := r.checkInstance(instance); err != nil {
		return err
	}
	if r.attached {
		return xr.ErrorActionSetsAlreadyAttached
	}
	if _, ok := r.pathNames[profile]; !ok {
		return xr.ErrorPathInvalid
	}
	for _, b := range bindings {
		if _, ok := r.actions[b.Action]; !ok {
			return xr.ErrorHandleInvalid
		}
		if _, ok := r.pathNames[b.Binding]; !ok {
			return xr.ErrorPathInvalid
		}
	}
	r.suggested[profile] = slices.Clone(bindings)
	return nil
}

// AttachSessionActionSets implements xr.Runtime.
func (r *Runtime) AttachSessionActionSets(session xr.Session, sets []xr.ActionSet) error {
	if err := r.enter("AttachSessionActionSets"); err != nil {
		return err
	}
	if err := r.checkSession(session); err != nil {
		return err
	}
	if r.attached {
		return xr.ErrorActionSetsAlreadyAttached
	}
	for _, s := range sets {
		if !r.sets[s] {
			return xr.ErrorHandleInvalid
		}
	}
	r.attached = true
	return nil
}

// CreateActionSpace implements xr.Runtime.
func (r *Runtime) CreateActionSpace(session xr.Session, action xr.Action, subactionPath xr.Path, _ xr.Posef) (xr.Space, error) {
	if err := r.enter("CreateActionSpace"); err != nil {
		return 0, err
	}
	if err := r.checkSession(session); err != nil {
		return 0, err
	}
	a, ok := r.actions[action]
	if !ok {
		return 0, xr.ErrorHandleInvalid
	}
	if a.typ != xr.ActionTypePoseInput {
		return 0, xr.ErrorActionTypeMismatch
	}
	s := xr.Space(r.handle())
	r.spaces[s] = r.pathNames[subactionPath]
	return s, nil
}

// SyncActions implements xr.Runtime.
func (r *Runtime) SyncActions(session xr.Session, active []xr.ActiveActionSet) error {
	if err := r.enter("SyncActions"); err != nil {
		return err
	}
	if err := r.checkSession(session); err != nil {
		return err
	}
	if !r.attached {
		return xr.ErrorActionSetNotAttached
	}
	for _, a := range active {
		if !r.sets[a.ActionSet] {
			return xr.ErrorHandleInvalid
		}
	}
	r.synced++
	return nil
}

// Syncs returns the number of successful action syncs.
func (r *Runtime) Syncs() int { return r.synced }

func (r *Runtime) checkAction(session xr.Session, action xr.Action, want xr.ActionType) (actionInfo, error) {
	if err := r.checkSession(session); err != nil {
		return actionInfo{}, err
	}
	if !r.attached {
		return actionInfo{}, xr.ErrorActionSetNotAttached
	}
	a, ok := r.actions[action]
	if !ok {
		return actionInfo{}, xr.ErrorHandleInvalid
	}
	if a.typ != want {
		return actionInfo{}, xr.ErrorActionTypeMismatch
	}
	return a, nil
}

// GetActionStatePose implements xr.Runtime. A pose is active once a
// location was set for its subaction path.
func (r *Runtime) GetActionStatePose(session xr.Session, action xr.Action, subactionPath xr.Path) (xr.ActionStatePose, error) {
	if err := r.enter("GetActionStatePose"); err != nil {
		return xr.ActionStatePose{}, err
	}
	if _, err := r.checkAction(session, action, xr.ActionTypePoseInput); err != nil {
		return xr.ActionStatePose{}, err
	}
	_, ok := r.poses[r.pathNames[subactionPath]]
	return xr.ActionStatePose{IsActive: ok}, nil
}

// GetActionStateFloat implements xr.Runtime.
func (r *Runtime) GetActionStateFloat(session xr.Session, action xr.Action, _ xr.Path) (xr.ActionStateFloat, error) {
	if err := r.enter("GetActionStateFloat"); err != nil {
		return xr.ActionStateFloat{}, err
	}
	a, err := r.checkAction(session, action, xr.ActionTypeFloatInput)
	if err != nil {
		return xr.ActionStateFloat{}, err
	}
	return r.floats[a.name], nil
}

// LocateSpace implements xr.Runtime. Reference spaces locate at identity;
// action spaces report the pose set with SetPose, or no valid bits.
func (r *Runtime) LocateSpace(space, base xr.Space, _ xr.Time) (xr.SpaceLocation, error) {
	if err := r.enter("LocateSpace"); err != nil {
		return xr.SpaceLocation{}, err
	}
	path, ok := r.spaces[space]
	if !ok {
		return xr.SpaceLocation{}, xr.ErrorHandleInvalid
	}
	if _, ok := r.spaces[base]; !ok {
		return xr.SpaceLocation{}, xr.ErrorHandleInvalid
	}
	if path == "" {
		return xr.SpaceLocation{
			Flags: xr.SpaceLocationOrientationValid | xr.SpaceLocationPositionValid,
			Pose:  xr.IdentityPose(),
		}, nil
	}
	loc, ok := r.poses[path]
	if !ok {
		return xr.SpaceLocation{Pose: xr.IdentityPose()}, nil
	}
	return loc, nil
}

// ApplyHapticFeedback implements xr.Runtime.
func (r *Runtime) ApplyHapticFeedback(session xr.Session, action xr.Action, subactionPath xr.Path, vibration xr.HapticVibration) error {
	if err := r.enter("ApplyHapticFeedback"); err != nil {
		return err
	}
	a, err := r.checkAction(session, action, xr.ActionTypeVibrationOutput)
	if err != nil {
		return err
	}
	r.haptics = append(r.haptics, Haptic{
		Action:    a.name,
		Subaction: r.pathNames[subactionPath],
		Vibration: vibration,
	})
	return nil
}
