package xr

import (
	"context"
	"errors"
	"log/slog"
	"slices"
)

// SessionManager brings a session up: capability negotiation, instance,
// system, view configuration, graphics requirements, session, local
// space and session begin, in that order.
type SessionManager struct {
	ctx      *SessionContext
	graphics Graphics
	opts     *options

	initialized bool
	// next is the first step not yet completed.
	next int
}

func newSessionManager(ctx *SessionContext, graphics Graphics, opts *options) *SessionManager {
	return &SessionManager{ctx: ctx, graphics: graphics, opts: opts}
}

// Initialized reports whether Initialize completed successfully.
func (m *SessionManager) Initialized() bool { return m.initialized }

// Initialize performs session bring-up. Once it has succeeded further
// calls are no-ops. A failing step returns a *SetupError and leaves the
// objects created by earlier steps in place; the next call resumes at
// the failed step. Driver.Shutdown releases everything.
func (m *SessionManager) Initialize() error {
	if m.initialized {
		return nil
	}

	steps := []struct {
		name string
		run  func() error
	}{
		{"extensions", m.checkExtensions},
		{"instance", m.createInstance},
		{"debug messenger", m.subscribeDebug},
		{"system", m.getSystem},
		{"view configuration", m.selectViewConfiguration},
		{"graphics requirements", m.checkGraphicsRequirements},
		{"session", m.createSession},
		{"reference space", m.createLocalSpace},
		{"begin session", m.beginSession},
	}
	for ; m.next < len(steps); m.next++ {
		step := steps[m.next]
		if err := step.run(); err != nil {
			Logger().Warn("xr: session setup failed", "step", step.name, "err", err)
			return &SetupError{Step: step.name, Err: err}
		}
	}

	m.initialized = true
	return nil
}

// reset forgets a completed initialization; used by Driver.Shutdown.
func (m *SessionManager) reset() { m.initialized, m.next = false, 0 }

func (m *SessionManager) checkExtensions() error {
	c := m.ctx
	exts, err := enumerate("instance extensions", c.Runtime.EnumerateInstanceExtensionProperties)
	if err != nil {
		return c.check("enumerate instance extensions", err)
	}
	Logger().Debug("xr: runtime extensions", "count", len(exts))

	supported := slices.ContainsFunc(exts, func(e ExtensionProperties) bool {
		return e.Name == GraphicsBindingExtension
	})
	if !supported {
		return ErrExtensionUnsupported
	}
	return nil
}

func (m *SessionManager) apiLayers() ([]string, error) {
	c := m.ctx
	layers, err := enumerate("api layers", c.Runtime.EnumerateAPILayerProperties)
	if err != nil {
		return nil, c.check("enumerate api layers", err)
	}
	names := make([]string, 0, len(layers))
	for _, l := range layers {
		names = append(names, l.Name)
	}
	Logger().Debug("xr: loader api layers", "layers", names)

	if m.opts.validationLayer && slices.Contains(names, CoreValidationLayer) {
		return []string{CoreValidationLayer}, nil
	}
	return nil, nil
}

func (m *SessionManager) createInstance() error {
	c := m.ctx
	layers, err := m.apiLayers()
	if err != nil {
		return err
	}

	info := InstanceCreateInfo{
		Application: ApplicationInfo{
			ApplicationName:    m.opts.applicationName,
			ApplicationVersion: 1,
			EngineName:         m.opts.engineName,
			APIVersion:         MakeVersion(1, 0, 0),
		},
		Extensions: []string{GraphicsBindingExtension},
		APILayers:  layers,
	}
	if c.Instance == 0 {
		inst, err := c.Runtime.CreateInstance(info)
		if err != nil {
			return c.check("create instance", err)
		}
		c.Instance = inst
	}

	props, err := c.Runtime.GetInstanceProperties(c.Instance)
	if err != nil {
		return c.check("get instance properties", err)
	}
	Logger().Info("xr: runtime",
		"name", props.RuntimeName,
		"version", props.RuntimeVersion.String(),
		"layers", layers)
	return nil
}

func (m *SessionManager) subscribeDebug() error {
	if !m.opts.debugMessenger {
		return nil
	}
	c := m.ctx
	messenger, err := c.Runtime.CreateDebugMessenger(c.Instance, forwardDebugMessage)
	if err != nil {
		if resultOf(err) == ErrorFunctionUnsupported {
			Logger().Debug("xr: debug messenger unavailable")
			return nil
		}
		return c.check("create debug messenger", err)
	}
	c.Messenger = messenger
	return nil
}

func forwardDebugMessage(msg DebugMessage) {
	level := slog.LevelDebug
	switch {
	case msg.Severity >= DebugSeverityError:
		level = slog.LevelError
	case msg.Severity >= DebugSeverityWarning:
		level = slog.LevelWarn
	case msg.Severity >= DebugSeverityInfo:
		level = slog.LevelInfo
	}
	Logger().Log(context.Background(), level, "xr: runtime message", "function", msg.FunctionName, "message", msg.Message)
}

func (m *SessionManager) getSystem() error {
	c := m.ctx
	sys, err := c.Runtime.GetSystem(c.Instance, FormFactorHeadMountedDisplay)
	if err != nil {
		return c.check("get system", err)
	}
	c.System = sys

	props, err := c.Runtime.GetSystemProperties(c.Instance, sys)
	if err != nil {
		return c.check("get system properties", err)
	}
	Logger().Info("xr: system",
		"name", props.SystemName,
		"vendor", props.VendorID,
		"max_layers", props.MaxLayerCount,
		"max_swapchain", [2]uint32{props.MaxSwapchainImageWidth, props.MaxSwapchainImageHeight},
		"orientation_tracking", props.OrientationTracking,
		"position_tracking", props.PositionTracking)
	return nil
}

func (m *SessionManager) selectViewConfiguration() error {
	c := m.ctx
	rt := c.Runtime

	types, err := enumerate("view configurations", func(buf []ViewConfigurationType) (uint32, error) {
		return rt.EnumerateViewConfigurations(c.Instance, c.System, buf)
	})
	if err != nil {
		return c.check("enumerate view configurations", err)
	}

	stereo := false
	for _, t := range types {
		props, err := rt.GetViewConfigurationProperties(c.Instance, c.System, t)
		if err != nil {
			return c.check("get view configuration properties", err)
		}
		if t == ViewConfigurationPrimaryStereo && props.Type == ViewConfigurationPrimaryStereo {
			stereo = true
			Logger().Debug("xr: stereo view configuration", "fov_mutable", props.FovMutable)
			continue
		}
		Logger().Debug("xr: ignoring view configuration", "type", props.Type)
	}
	if !stereo {
		return ErrStereoUnsupported
	}

	modes, err := enumerate("environment blend modes", func(buf []EnvironmentBlendMode) (uint32, error) {
		return rt.EnumerateEnvironmentBlendModes(c.Instance, c.System, ViewConfigurationPrimaryStereo, buf)
	})
	if err != nil {
		return c.check("enumerate environment blend modes", err)
	}
	blend := BlendModeOpaque
	if len(modes) > 0 {
		blend = modes[0]
	}

	views, err := enumerate("view configuration views", func(buf []ViewConfigurationView) (uint32, error) {
		return rt.EnumerateViewConfigurationViews(c.Instance, c.System, ViewConfigurationPrimaryStereo, buf)
	})
	if err != nil {
		return c.check("enumerate view configuration views", err)
	}
	if len(views) != StereoViewCount {
		return ErrStereoUnsupported
	}
	for i, v := range views {
		Logger().Debug("xr: view",
			"index", i,
			"recommended", [2]uint32{v.RecommendedImageRectWidth, v.RecommendedImageRectHeight},
			"max", [2]uint32{v.MaxImageRectWidth, v.MaxImageRectHeight},
			"samples", v.RecommendedSwapchainSampleCount)
	}

	// Commit only once everything checked out, so a failed attempt never
	// leaves a half-selected configuration behind.
	c.ViewType = ViewConfigurationPrimaryStereo
	c.Views = views
	c.BlendMode = blend
	return nil
}

func (m *SessionManager) checkGraphicsRequirements() error {
	c := m.ctx
	reqs, err := c.Runtime.GetGraphicsRequirements(c.Instance, c.System)
	if err != nil {
		return c.check("get graphics requirements", err)
	}
	want := m.opts.graphicsVersion
	if want < reqs.MinAPIVersionSupported || want > reqs.MaxAPIVersionSupported {
		return &VersionError{
			Desired: want,
			Min:     reqs.MinAPIVersionSupported,
			Max:     reqs.MaxAPIVersionSupported,
		}
	}
	return nil
}

func (m *SessionManager) createSession() error {
	c := m.ctx
	if m.graphics == nil {
		return ErrNilDeviceProvider
	}
	sess, err := c.Runtime.CreateSession(c.Instance, SessionCreateInfo{
		System:  c.System,
		Binding: GraphicsBinding{Provider: m.graphics},
	})
	if err != nil {
		return c.check("create session", err)
	}
	c.Session = sess
	return nil
}

func (m *SessionManager) createLocalSpace() error {
	c := m.ctx
	spaces, err := enumerate("reference spaces", func(buf []ReferenceSpaceType) (uint32, error) {
		return c.Runtime.EnumerateReferenceSpaces(c.Session, buf)
	})
	if err != nil {
		return c.check("enumerate reference spaces", err)
	}
	Logger().Debug("xr: reference spaces", "spaces", spaces)
	if !slices.Contains(spaces, ReferenceSpaceLocal) {
		return ErrLocalSpaceUnsupported
	}

	space, err := c.Runtime.CreateReferenceSpace(c.Session, ReferenceSpaceLocal, IdentityPose())
	if err != nil {
		return c.check("create local space", err)
	}
	c.LocalSpace = space
	return nil
}

func (m *SessionManager) beginSession() error {
	c := m.ctx
	if err := c.Runtime.BeginSession(c.Session, c.ViewType); err != nil {
		return c.check("begin session", err)
	}
	c.running = true
	Logger().Info("xr: session started")
	return nil
}

// endSession ends a running session. Errors are logged only.
func (m *SessionManager) endSession() {
	c := m.ctx
	if !c.running {
		return
	}
	c.running = false
	if err := c.Runtime.EndSession(c.Session); err != nil {
		Logger().Warn("xr: end session failed", "err", c.check("end session", err))
		return
	}
	Logger().Info("xr: session ended")
}

// resumeSession begins the session again after it was ended.
func (m *SessionManager) resumeSession() error {
	if m.ctx.running {
		return nil
	}
	return m.beginSession()
}

// destroy releases the session and instance. Safe on partial setup.
func (m *SessionManager) destroy() error {
	c := m.ctx
	var errs []error
	if c.Session != 0 {
		m.endSession()
		if err := c.Runtime.DestroySession(c.Session); err != nil {
			errs = append(errs, c.check("destroy session", err))
		}
	}
	if c.Instance != 0 {
		if err := c.Runtime.DestroyInstance(c.Instance); err != nil {
			errs = append(errs, c.check("destroy instance", err))
		}
	}
	*c = SessionContext{Runtime: c.Runtime}
	m.reset()
	return errors.Join(errs...)
}
