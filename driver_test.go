package xr_test

import (
	"errors"
	"testing"

	"github.com/gogpu/xr"
	"github.com/gogpu/xr/xrtest"
)

type harness struct {
	rt *xrtest.Runtime
	g  *xrtest.Graphics
	d  *xr.Driver
}

func newHarness(t *testing.T, cfg xrtest.Config, opts ...xr.Option) *harness {
	t.Helper()
	rt := xrtest.New(cfg)
	g := xrtest.NewGraphics()
	return &harness{rt: rt, g: g, d: xr.New(rt, g, opts...)}
}

// tick runs one host tick and returns the first error.
func (h *harness) tick() error {
	if err := h.d.PreDraw(); err != nil {
		return err
	}
	return h.d.Draw()
}

func (h *harness) mustTick(t *testing.T, n int) {
	t.Helper()
	for i := range n {
		if err := h.tick(); err != nil {
			t.Fatalf("tick %d: %v", i, err)
		}
	}
}

func validPose(x float32) xr.SpaceLocation {
	return xr.SpaceLocation{
		Flags: xr.SpaceLocationOrientationValid | xr.SpaceLocationPositionValid,
		Pose:  xr.Posef{Orientation: xr.Quaternionf{W: 1}, Position: xr.Vector3f{X: x}},
	}
}

func TestDriverInitialize(t *testing.T) {
	h := newHarness(t, xrtest.DefaultConfig())
	if err := h.d.Initialize(); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	ctx := h.d.Context()
	if ctx.ViewCount() != 2 {
		t.Errorf("ViewCount() = %d, want 2", ctx.ViewCount())
	}
	if ctx.ViewType != xr.ViewConfigurationPrimaryStereo {
		t.Errorf("ViewType = %v, want primary stereo", ctx.ViewType)
	}
	if !ctx.Running() || !h.rt.Running() {
		t.Error("session not running after Initialize")
	}
	if h.rt.LiveSwapchains() != 2 {
		t.Errorf("LiveSwapchains() = %d, want 2", h.rt.LiveSwapchains())
	}
	if h.g.Live() != 6 {
		t.Errorf("framebuffers = %d, want 6", h.g.Live())
	}
	if !h.rt.Attached() {
		t.Error("action sets not attached")
	}
	if err := h.d.Initialize(); err != nil {
		t.Errorf("second Initialize() error = %v", err)
	}
	if n := h.rt.Calls("CreateInstance"); n != 1 {
		t.Errorf("CreateInstance calls = %d, want 1", n)
	}
}

func TestDriverSetupWithoutStereo(t *testing.T) {
	cfg := xrtest.DefaultConfig()
	cfg.ViewConfigurations = []xr.ViewConfigurationType{xr.ViewConfigurationPrimaryMono}
	h := newHarness(t, cfg)

	err := h.d.Initialize()
	if !errors.Is(err, xr.ErrStereoUnsupported) {
		t.Fatalf("Initialize() error = %v, want ErrStereoUnsupported", err)
	}
	var setupErr *xr.SetupError
	if !errors.As(err, &setupErr) || setupErr.Step != "view configuration" {
		t.Errorf("error = %v, want view configuration SetupError", err)
	}
	if h.d.Context().ViewCount() != 0 {
		t.Error("view configuration committed after failure")
	}
	if xr.IsFatal(err) {
		t.Error("setup failure must not be fatal")
	}
	if err := h.d.Shutdown(); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
	if h.rt.Instance() != 0 {
		t.Error("instance left behind after Shutdown")
	}
}

func TestDriverSetupMissingExtension(t *testing.T) {
	cfg := xrtest.DefaultConfig()
	cfg.Extensions = nil
	h := newHarness(t, cfg)
	if err := h.d.Initialize(); !errors.Is(err, xr.ErrExtensionUnsupported) {
		t.Errorf("Initialize() error = %v, want ErrExtensionUnsupported", err)
	}
	if h.rt.Calls("CreateInstance") != 0 {
		t.Error("instance created without the binding extension")
	}
}

func TestDriverSetupVersionOutOfRange(t *testing.T) {
	h := newHarness(t, xrtest.DefaultConfig(), xr.WithGraphicsVersion(xr.MakeVersion(2, 1, 0)))
	var verErr *xr.VersionError
	if err := h.d.Initialize(); !errors.As(err, &verErr) {
		t.Fatalf("Initialize() error = %v, want *VersionError", err)
	}
	if verErr.Min != xr.MakeVersion(3, 3, 0) {
		t.Errorf("Min = %v, want 3.3.0", verErr.Min)
	}
}

func TestDriverSetupEnumerationGrowth(t *testing.T) {
	h := newHarness(t, xrtest.DefaultConfig())
	h.rt.GrowEnumeration("EnumerateViewConfigurationViews")
	var enumErr *xr.EnumerationError
	if err := h.d.Initialize(); !errors.As(err, &enumErr) {
		t.Fatalf("Initialize() error = %v, want *EnumerationError", err)
	}
	if enumErr.Capacity != 2 || enumErr.Reported != 3 {
		t.Errorf("EnumerationError = %+v, want 2 -> 3", enumErr)
	}
}

func TestDriverValidationLayer(t *testing.T) {
	h := newHarness(t, xrtest.DefaultConfig(), xr.WithValidationLayer(false))
	if err := h.d.Initialize(); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	cfg := xrtest.DefaultConfig()
	cfg.APILayers = nil
	h = newHarness(t, cfg)
	if err := h.d.Initialize(); err != nil {
		t.Fatalf("Initialize() without layers error = %v", err)
	}
}

func TestDriverDebugMessengerUnsupported(t *testing.T) {
	h := newHarness(t, xrtest.DefaultConfig())
	h.rt.Fail("CreateDebugMessenger", xr.ErrorFunctionUnsupported)
	if err := h.d.Initialize(); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if h.d.Context().Messenger != 0 {
		t.Error("Messenger set although unsupported")
	}
}

func TestDriverSwapchainRetry(t *testing.T) {
	h := newHarness(t, xrtest.DefaultConfig(), xr.WithSwapchainAttempts(3))
	h.rt.FailTimes("CreateSwapchain", 2, xr.ErrorRuntimeFailure)
	if err := h.d.Initialize(); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if h.rt.LiveSwapchains() != 2 {
		t.Errorf("LiveSwapchains() = %d, want 2", h.rt.LiveSwapchains())
	}
	if h.g.Live() != 6 {
		t.Errorf("framebuffers = %d, want 6", h.g.Live())
	}
}

func TestDriverSwapchainRetryBounded(t *testing.T) {
	h := newHarness(t, xrtest.DefaultConfig(), xr.WithSwapchainAttempts(3))
	h.rt.Fail("CreateSwapchain", xr.ErrorRuntimeFailure)

	err := h.d.Initialize()
	var scErr *xr.SwapchainError
	if !errors.As(err, &scErr) {
		t.Fatalf("Initialize() error = %v, want *SwapchainError", err)
	}
	if scErr.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3", scErr.Attempts)
	}
	if n := h.rt.Calls("CreateSwapchain"); n != 3 {
		t.Errorf("CreateSwapchain calls = %d, want 3", n)
	}
	if h.rt.LiveSwapchains() != 0 || h.g.Live() != 0 {
		t.Error("failed attempts leaked swapchains or framebuffers")
	}

	h.rt.Heal("CreateSwapchain")
	if err := h.d.Initialize(); err != nil {
		t.Fatalf("Initialize() after heal error = %v", err)
	}
	if n := h.rt.Calls("CreateSession"); n != 1 {
		t.Errorf("CreateSession calls = %d, want 1", n)
	}
}

func TestDriverAddEntity(t *testing.T) {
	h := newHarness(t, xrtest.DefaultConfig(), xr.WithBindingCapacity(8))
	if err := h.d.AddEntity(xrtest.NewEntity(1, "/user/hand/left")); err != nil {
		t.Fatalf("AddEntity(left) error = %v", err)
	}
	if err := h.d.AddEntity(xrtest.NewEntity(2, "/user/hand/right")); err != nil {
		t.Fatalf("AddEntity(right) error = %v", err)
	}
	var capErr *xr.CapacityError
	if err := h.d.AddEntity(xrtest.NewEntity(3, "/user/head")); !errors.As(err, &capErr) {
		t.Errorf("AddEntity past capacity error = %v, want *CapacityError", err)
	}
	if err := h.d.AddEntity(xrtest.NewEntity(4, "user/hand")); !errors.Is(err, xr.ErrInvalidPath) {
		t.Errorf("AddEntity(bad path) error = %v, want ErrInvalidPath", err)
	}

	if err := h.d.Initialize(); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if got := len(h.rt.Suggested(xr.DefaultInteractionProfile)); got != 8 {
		t.Errorf("suggested bindings = %d, want 8", got)
	}
	if err := h.d.AddEntity(xrtest.NewEntity(5, "/user/hand/left")); !errors.Is(err, xr.ErrProtocolOrder) {
		t.Errorf("AddEntity after attach error = %v, want ErrProtocolOrder", err)
	}
}

func TestRegistryRegisterAfterAttach(t *testing.T) {
	h := newHarness(t, xrtest.DefaultConfig())
	if err := h.d.Initialize(); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	r := h.d.Registry()
	if _, err := r.RegisterEntity(9, "/user/hand/left"); !errors.Is(err, xr.ErrProtocolOrder) {
		t.Errorf("RegisterEntity after attach error = %v, want ErrProtocolOrder", err)
	}
	if err := r.SubmitBindings(xr.DefaultInteractionProfile); !errors.Is(err, xr.ErrProtocolOrder) {
		t.Errorf("SubmitBindings after attach error = %v, want ErrProtocolOrder", err)
	}
	if err := r.Attach(); !errors.Is(err, xr.ErrProtocolOrder) {
		t.Errorf("second Attach error = %v, want ErrProtocolOrder", err)
	}
}

func TestRegistryBindings(t *testing.T) {
	h := newHarness(t, xrtest.DefaultConfig())
	e := xrtest.NewEntity(7, "/user/hand/right")
	if err := h.d.AddEntity(e); err != nil {
		t.Fatal(err)
	}
	if err := h.d.Initialize(); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	want := map[string]string{
		"ent_7_handpose": "/user/hand/right/input/grip/pose",
		"ent_7_trigger":  "/user/hand/right/input/trigger/value",
		"ent_7_lever":    "/user/hand/right/input/thumbstick/y",
		"ent_7_haptic":   "/user/hand/right/output/haptic",
	}
	got := map[string]string{}
	for _, b := range h.rt.Suggested(xr.DefaultInteractionProfile) {
		got[h.rt.ActionName(b.Action)] = h.rt.PathString(b.Binding)
	}
	for name, path := range want {
		if got[name] != path {
			t.Errorf("binding %s = %q, want %q", name, got[name], path)
		}
	}
	if n := h.d.Registry().Table().Len(); n != 4 {
		t.Errorf("table Len() = %d, want 4", n)
	}
	if !h.d.Registry().Table().Frozen() {
		t.Error("table not frozen after attach")
	}
}

func TestDriverFrame(t *testing.T) {
	var reports []xr.FrameReport
	h := newHarness(t, xrtest.DefaultConfig(), xr.WithFrameObserver(func(r xr.FrameReport) {
		reports = append(reports, r)
	}))
	e := xrtest.NewEntity(1, "/user/hand/left")
	if err := h.d.AddEntity(e); err != nil {
		t.Fatal(err)
	}
	h.rt.SetPose("/user/hand/left", validPose(0.2))

	// The first tick only initializes.
	h.mustTick(t, 1)
	if !h.d.Initialized() {
		t.Fatal("driver not initialized after first tick")
	}
	if len(h.rt.Frames()) != 0 {
		t.Fatalf("frames after init tick = %d, want 0", len(h.rt.Frames()))
	}

	h.mustTick(t, 1)
	if len(e.Poses) != 1 {
		t.Errorf("pose updates = %d, want 1", len(e.Poses))
	}
	if got := e.Poses[0].TransformPoint(xr.Vector3f{}); got.X != 0.2 {
		t.Errorf("entity position = %v, want x = 0.2", got)
	}
	if h.g.Binds != 2 || h.g.Unbinds != 2 {
		t.Errorf("binds/unbinds = %d/%d, want 2/2", h.g.Binds, h.g.Unbinds)
	}
	if h.g.Bound() != 0 {
		t.Error("framebuffer left bound")
	}
	frames := h.rt.Frames()
	if len(frames) != 1 {
		t.Fatalf("frames = %d, want 1", len(frames))
	}
	if len(frames[0].Layers) != 1 || len(frames[0].Layers[0].Views) != 2 {
		t.Fatalf("frame layers = %+v, want one layer with two views", frames[0].Layers)
	}
	if frames[0].Layers[0].Space != h.d.Context().LocalSpace {
		t.Error("layer not submitted in the local space")
	}
	if h.rt.Outstanding() != 0 {
		t.Errorf("Outstanding() = %d, want 0", h.rt.Outstanding())
	}

	if len(reports) != 2 {
		t.Fatalf("reports = %d, want 2", len(reports))
	}
	last := reports[1]
	if !last.Submitted || last.Layers != 1 || len(last.Views) != 2 || last.PoseUpdates != 1 {
		t.Errorf("report = %+v", last)
	}
}

func TestDriverActionSetupResumes(t *testing.T) {
	tests := []struct {
		name    string
		fail    func(rt *xrtest.Runtime)
		actions int
	}{
		{"action space", func(rt *xrtest.Runtime) {
			rt.FailTimes("CreateActionSpace", 1, xr.ErrorRuntimeFailure)
		}, 4},
		{"third action", func(rt *xrtest.Runtime) {
			rt.FailAfter("CreateAction", 2, xr.ErrorRuntimeFailure)
		}, 5},
		{"binding path", func(rt *xrtest.Runtime) {
			rt.FailAfter("StringToPath", 1, xr.ErrorRuntimeFailure)
		}, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, xrtest.DefaultConfig())
			e := xrtest.NewEntity(1, "/user/hand/left")
			if err := h.d.AddEntity(e); err != nil {
				t.Fatal(err)
			}
			h.rt.SetPose("/user/hand/left", validPose(0))
			tt.fail(h.rt)

			var setup *xr.SetupError
			if err := h.tick(); !errors.As(err, &setup) || setup.Step != "actions" {
				t.Fatalf("first tick error = %v, want actions *SetupError", err)
			}
			if err := h.tick(); err != nil {
				t.Fatalf("second tick error = %v", err)
			}
			if !h.d.Initialized() {
				t.Fatal("driver not initialized after retry")
			}
			if n := h.rt.Calls("CreateAction"); n != tt.actions {
				t.Errorf("CreateAction calls = %d, want %d", n, tt.actions)
			}
			if n := h.rt.Calls("CreateActionSpace"); n > 2 {
				t.Errorf("CreateActionSpace calls = %d, want at most 2", n)
			}
			if got := len(h.rt.Suggested(xr.DefaultInteractionProfile)); got != 4 {
				t.Errorf("suggested bindings = %d, want 4", got)
			}

			h.mustTick(t, 1)
			if len(e.Poses) != 1 {
				t.Errorf("pose updates = %d, want 1", len(e.Poses))
			}
		})
	}
}

func TestDriverInputErrorsReported(t *testing.T) {
	var reports []xr.FrameReport
	h := newHarness(t, xrtest.DefaultConfig(), xr.WithFrameObserver(func(r xr.FrameReport) {
		reports = append(reports, r)
	}))
	for _, e := range []*xrtest.Entity{xrtest.NewEntity(1, "/user/hand/left"), xrtest.NewEntity(2, "/user/hand/right")} {
		if err := h.d.AddEntity(e); err != nil {
			t.Fatal(err)
		}
	}
	h.mustTick(t, 1)
	h.rt.Fail("GetActionStateFloat", xr.ErrorRuntimeFailure)
	h.mustTick(t, 1)

	if len(reports) != 2 {
		t.Fatalf("reports = %d, want 2", len(reports))
	}
	if reports[0].InputErrors != 0 || reports[1].InputErrors != 2 {
		t.Errorf("input errors = %d, %d; want 0, 2", reports[0].InputErrors, reports[1].InputErrors)
	}
	if !reports[1].Submitted {
		t.Error("frame not submitted after input failures")
	}
}

func TestDriverGripOffset(t *testing.T) {
	h := newHarness(t, xrtest.DefaultConfig(), xr.WithGripOffset(xr.GripOffset{Origin: xr.Vector3f{Z: 0.1}}))
	e := xrtest.NewEntity(1, "/user/hand/left")
	if err := h.d.AddEntity(e); err != nil {
		t.Fatal(err)
	}
	h.rt.SetPose("/user/hand/left", validPose(0.2))
	h.mustTick(t, 2)

	if len(e.Poses) != 1 {
		t.Fatalf("pose updates = %d, want 1", len(e.Poses))
	}
	got := e.Poses[0].TransformPoint(xr.Vector3f{})
	if got.X != 0.2 || got.Z != -0.1 {
		t.Errorf("entity position = %v, want (0.2, 0, -0.1)", got)
	}
}

func TestDriverImagesRoundRobin(t *testing.T) {
	h := newHarness(t, xrtest.DefaultConfig())
	h.mustTick(t, 5)
	images := map[uint32]bool{}
	for _, a := range h.g.Attachments {
		images[a.Image.Texture] = true
	}
	if len(images) != 6 {
		t.Errorf("distinct images attached = %d, want 6", len(images))
	}
	if len(h.rt.Frames()) != 4 {
		t.Errorf("frames = %d, want 4", len(h.rt.Frames()))
	}
}

func TestDriverNoEventIdempotent(t *testing.T) {
	h := newHarness(t, xrtest.DefaultConfig())
	h.mustTick(t, 1)
	state := h.d.State()
	h.mustTick(t, 3)
	if h.d.State() != state {
		t.Errorf("State() = %v, want %v", h.d.State(), state)
	}
	if len(h.rt.Frames()) != 3 {
		t.Errorf("frames = %d, want 3", len(h.rt.Frames()))
	}
}

func TestDriverPoseOrientationOnly(t *testing.T) {
	h := newHarness(t, xrtest.DefaultConfig())
	e := xrtest.NewEntity(1, "/user/hand/left")
	if err := h.d.AddEntity(e); err != nil {
		t.Fatal(err)
	}
	h.rt.SetPose("/user/hand/left", xr.SpaceLocation{
		Flags: xr.SpaceLocationOrientationValid,
		Pose:  xr.IdentityPose(),
	})
	h.mustTick(t, 2)
	if len(e.Poses) != 1 {
		t.Errorf("pose updates = %d, want 1", len(e.Poses))
	}
}

func TestDriverPoseInvalid(t *testing.T) {
	h := newHarness(t, xrtest.DefaultConfig())
	e := xrtest.NewEntity(1, "/user/hand/left")
	if err := h.d.AddEntity(e); err != nil {
		t.Fatal(err)
	}
	h.rt.SetPose("/user/hand/left", xr.SpaceLocation{Flags: xr.SpaceLocationPositionValid})
	h.mustTick(t, 2)
	if len(e.Poses) != 0 {
		t.Errorf("pose updates = %d, want 0", len(e.Poses))
	}
	if len(e.Inputs) != 1 || e.Inputs[0].PoseValid {
		t.Errorf("inputs = %+v, want one invalid state", e.Inputs)
	}
}

func TestDriverHapticThreshold(t *testing.T) {
	tests := []struct {
		value float32
		fired bool
	}{
		{0.5, false},
		{0.75, false},
		{0.76, true},
		{1, true},
	}
	for _, tt := range tests {
		h := newHarness(t, xrtest.DefaultConfig())
		e := xrtest.NewEntity(1, "/user/hand/left")
		if err := h.d.AddEntity(e); err != nil {
		t.Fatal(err)
	}
		h.rt.SetFloat(xr.ActionName(1, "trigger"), xr.ActionStateFloat{CurrentState: tt.value, IsActive: true})
		h.mustTick(t, 2)

		got := len(h.rt.Haptics()) == 1
		if got != tt.fired {
			t.Errorf("trigger %v: haptic fired = %v, want %v", tt.value, got, tt.fired)
			continue
		}
		if got {
			hp := h.rt.Haptics()[0]
			if hp.Vibration.Amplitude != xr.GrabHapticAmplitude || hp.Vibration.Duration != xr.MinHapticDuration {
				t.Errorf("vibration = %+v", hp.Vibration)
			}
			if hp.Subaction != "/user/hand/left" {
				t.Errorf("haptic subaction = %q", hp.Subaction)
			}
		}
		if e.Inputs[0].Grab.CurrentState != tt.value {
			t.Errorf("grab = %v, want %v", e.Inputs[0].Grab.CurrentState, tt.value)
		}
	}
}

func TestDriverInactiveTriggerNoHaptic(t *testing.T) {
	h := newHarness(t, xrtest.DefaultConfig())
	if err := h.d.AddEntity(xrtest.NewEntity(1, "/user/hand/left")); err != nil {
		t.Fatal(err)
	}
	h.rt.SetFloat(xr.ActionName(1, "trigger"), xr.ActionStateFloat{CurrentState: 1})
	h.mustTick(t, 2)
	if n := len(h.rt.Haptics()); n != 0 {
		t.Errorf("haptics = %d, want 0", n)
	}
}

func TestDriverLever(t *testing.T) {
	h := newHarness(t, xrtest.DefaultConfig())
	e := xrtest.NewEntity(3, "/user/hand/right")
	if err := h.d.AddEntity(e); err != nil {
		t.Fatal(err)
	}
	h.rt.SetFloat(xr.ActionName(3, "lever"), xr.ActionStateFloat{CurrentState: -0.4, IsActive: true})
	h.mustTick(t, 2)
	if len(e.Inputs) != 1 || e.Inputs[0].Lever.CurrentState != -0.4 {
		t.Errorf("inputs = %+v, want lever -0.4", e.Inputs)
	}
}

func TestDriverSessionLifecycle(t *testing.T) {
	h := newHarness(t, xrtest.DefaultConfig())
	h.mustTick(t, 2)

	_ = h.rt.PushState(xr.StateFocused)
	h.mustTick(t, 1)
	if h.d.State() != xr.StateFocused || !h.d.Visible() {
		t.Errorf("State() = %v, want focused and visible", h.d.State())
	}

	_ = h.rt.PushState(xr.StateStopping)
	h.mustTick(t, 1)
	if h.rt.Running() {
		t.Error("session still running after stopping")
	}
	frames := len(h.rt.Frames())
	h.mustTick(t, 3)
	if len(h.rt.Frames()) != frames {
		t.Error("frames submitted while suspended")
	}

	_ = h.rt.PushState(xr.StateReady)
	h.mustTick(t, 1)
	if !h.rt.Running() {
		t.Fatal("session not resumed after ready")
	}
	h.mustTick(t, 1)
	if len(h.rt.Frames()) != frames+2 {
		t.Errorf("frames = %d, want %d", len(h.rt.Frames()), frames+2)
	}
	if n := h.rt.Calls("EndSession"); n != 1 {
		t.Errorf("EndSession calls = %d, want 1", n)
	}
}

func TestDriverAutoStates(t *testing.T) {
	cfg := xrtest.DefaultConfig()
	cfg.AutoStates = true
	h := newHarness(t, cfg)
	h.mustTick(t, 6)
	if h.d.State() != xr.StateFocused {
		t.Errorf("State() = %v, want focused", h.d.State())
	}
	if h.d.Context().ViewCount() != 2 || len(h.rt.Frames()) != 5 {
		t.Errorf("frames = %d, want 5", len(h.rt.Frames()))
	}
}

func TestDriverShouldRenderFalse(t *testing.T) {
	cfg := xrtest.DefaultConfig()
	cfg.SkipRender = true
	h := newHarness(t, cfg)
	h.mustTick(t, 3)

	frames := h.rt.Frames()
	if len(frames) != 2 {
		t.Fatalf("frames = %d, want 2", len(frames))
	}
	for _, f := range frames {
		if len(f.Layers) != 0 {
			t.Errorf("layers = %d, want 0", len(f.Layers))
		}
	}
	if h.g.Binds != 0 {
		t.Errorf("binds = %d, want 0", h.g.Binds)
	}

	// Views are still composed while rendering is skipped.
	h.rt.SetView(0, xr.View{Pose: xr.Posef{Orientation: xr.Quaternionf{W: 1}, Position: xr.Vector3f{X: 1}}, Fov: cfg.Fov})
	h.mustTick(t, 1)
	if h.d.Composer().PreviousInverseModel(0).IsIdentity() {
		t.Error("view history not updated when rendering is skipped")
	}
}

func TestDriverImageWaitTimeoutRetried(t *testing.T) {
	h := newHarness(t, xrtest.DefaultConfig(), xr.WithImageWaitAttempts(4))
	h.mustTick(t, 1)
	h.rt.FailTimes("WaitSwapchainImage", 3, xr.TimeoutExpired)
	h.mustTick(t, 1)
	if len(h.rt.Frames()) != 1 {
		t.Errorf("frames = %d, want 1", len(h.rt.Frames()))
	}
}

func TestDriverImageWaitTimeoutFatal(t *testing.T) {
	h := newHarness(t, xrtest.DefaultConfig(), xr.WithImageWaitAttempts(2))
	h.mustTick(t, 1)
	h.rt.Fail("WaitSwapchainImage", xr.TimeoutExpired)
	err := h.tick()
	if !xr.IsFatal(err) {
		t.Fatalf("tick() error = %v, want fatal", err)
	}
	if n := h.rt.Calls("WaitSwapchainImage"); n != 2 {
		t.Errorf("WaitSwapchainImage calls = %d, want 2", n)
	}
}

func TestDriverFatalPoisons(t *testing.T) {
	h := newHarness(t, xrtest.DefaultConfig())
	h.mustTick(t, 2)
	h.rt.FailTimes("EndFrame", 1, xr.ErrorSessionLost)

	err := h.tick()
	if !xr.IsFatal(err) || !errors.Is(err, xr.ErrorSessionLost) {
		t.Fatalf("tick() error = %v, want fatal session lost", err)
	}
	if h.d.Err() == nil {
		t.Error("Err() = nil after fatal failure")
	}
	waits := h.rt.Calls("WaitFrame")
	if err := h.tick(); !xr.IsFatal(err) {
		t.Errorf("tick after fatal = %v, want fatal", err)
	}
	if h.rt.Calls("WaitFrame") != waits {
		t.Error("frame protocol continued after fatal failure")
	}
}

func TestDriverBeginFrameFatal(t *testing.T) {
	h := newHarness(t, xrtest.DefaultConfig())
	h.mustTick(t, 1)
	h.rt.Fail("BeginFrame", xr.ErrorRuntimeFailure)
	if err := h.tick(); !xr.IsFatal(err) {
		t.Errorf("tick() error = %v, want fatal", err)
	}
}

func TestDriverLocateViewsFailureSkipsFrame(t *testing.T) {
	h := newHarness(t, xrtest.DefaultConfig())
	h.mustTick(t, 1)
	h.rt.FailTimes("LocateViews", 1, xr.ErrorRuntimeFailure)
	h.mustTick(t, 1)
	if len(h.rt.Frames()) != 0 {
		t.Errorf("frames = %d, want 0", len(h.rt.Frames()))
	}
	h.mustTick(t, 1)
	if len(h.rt.Frames()) != 1 {
		t.Errorf("frames after recovery = %d, want 1", len(h.rt.Frames()))
	}
}

func TestDriverWaitFrameFailureSkipsFrame(t *testing.T) {
	h := newHarness(t, xrtest.DefaultConfig())
	h.mustTick(t, 1)
	h.rt.FailTimes("WaitFrame", 1, xr.ErrorRuntimeFailure)
	h.mustTick(t, 2)
	if n := h.rt.Calls("BeginFrame"); n != 1 {
		t.Errorf("BeginFrame calls = %d, want 1", n)
	}
}

func TestDriverInstanceLoss(t *testing.T) {
	h := newHarness(t, xrtest.DefaultConfig())
	h.mustTick(t, 2)
	_ = h.rt.PushEvent(xr.InstanceLossPending{LossTime: 100})

	if err := h.d.PreDraw(); !errors.Is(err, xr.ErrInstanceLossPending) {
		t.Fatalf("PreDraw() error = %v, want ErrInstanceLossPending", err)
	}
	if err := h.d.Draw(); !errors.Is(err, xr.ErrInstanceLossPending) {
		t.Errorf("Draw() error = %v, want ErrInstanceLossPending", err)
	}
	if h.d.State() != xr.StateLossPending {
		t.Errorf("State() = %v, want loss pending", h.d.State())
	}

	if err := h.d.Shutdown(); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	h.mustTick(t, 2)
	if len(h.rt.Frames()) != 2 {
		t.Errorf("frames after recreate = %d, want 2", len(h.rt.Frames()))
	}
}

func TestDriverShutdown(t *testing.T) {
	h := newHarness(t, xrtest.DefaultConfig())
	e := xrtest.NewEntity(1, "/user/hand/left")
	if err := h.d.AddEntity(e); err != nil {
		t.Fatal(err)
	}
	h.mustTick(t, 3)

	if err := h.d.Shutdown(); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if h.rt.LiveSwapchains() != 0 || h.g.Live() != 0 {
		t.Errorf("swapchains/framebuffers left = %d/%d", h.rt.LiveSwapchains(), h.g.Live())
	}
	if h.rt.Session() != 0 || h.rt.Instance() != 0 {
		t.Error("session or instance left behind")
	}
	if h.d.Initialized() {
		t.Error("Initialized() = true after Shutdown")
	}

	// Entities survive and are registered again.
	h.mustTick(t, 1)
	if !h.rt.Attached() || len(h.d.Registry().Bundles()) != 1 {
		t.Errorf("entities not registered again after re-initialize")
	}
}

func TestDriverDebugMessagesForwarded(t *testing.T) {
	h := newHarness(t, xrtest.DefaultConfig())
	if err := h.d.Initialize(); err != nil {
		t.Fatal(err)
	}
	// The messenger is wired; emitting must not panic with the silent logger.
	h.rt.Emit(xr.DebugMessage{Severity: xr.DebugSeverityWarning, FunctionName: "xrEndFrame", Message: "test"})
	if h.d.Context().Messenger == 0 {
		t.Error("Messenger not created")
	}
}

func TestDriverDrawRetriesSetup(t *testing.T) {
	h := newHarness(t, xrtest.DefaultConfig())
	h.rt.FailTimes("CreateSession", 1, xr.ErrorRuntimeFailure)

	err := h.tick()
	var setupErr *xr.SetupError
	if !errors.As(err, &setupErr) || setupErr.Step != "session" {
		t.Fatalf("tick() error = %v, want session SetupError", err)
	}
	if xr.IsFatal(err) {
		t.Error("setup failure reported as fatal")
	}
	h.mustTick(t, 2)
	if !h.d.Initialized() || len(h.rt.Frames()) != 1 {
		t.Errorf("initialized = %v, frames = %d", h.d.Initialized(), len(h.rt.Frames()))
	}
}
