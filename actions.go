package xr

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// GrabHapticThreshold is the grab value above which a haptic pulse fires.
const GrabHapticThreshold float32 = 0.75

// GrabHapticAmplitude is the amplitude of the grab pulse.
const GrabHapticAmplitude float32 = 0.5

// ActionSetName is the name of the single action set.
const ActionSetName = "mainset"

// Binding path suffixes appended to an entity's subaction path.
const (
	GripPoseSuffix     = "/input/grip/pose"
	TriggerValueSuffix = "/input/trigger/value"
	ThumbstickYSuffix  = "/input/thumbstick/y"
	HapticOutputSuffix = "/output/haptic"
)

const (
	bindingsPerEntity   = 4
	maxPathLength       = 256
	maxActionNameLength = 64
)

// InputState is the polled input of one entity for one tick.
type InputState struct {
	// Location is the located grip pose in the local space.
	Location SpaceLocation
	// PoseValid is true when the orientation of Location is valid.
	PoseValid bool
	// PoseActive reports whether the pose action is bound and active.
	PoseActive bool

	Grab  ActionStateFloat
	Lever ActionStateFloat

	// HapticFired is true when a haptic pulse was requested this tick.
	HapticFired bool
}

// ActionBundle is the set of actions created for one entity.
type ActionBundle struct {
	EntityID      uint64
	SubactionPath string

	Path   Path
	Grab   Action
	Lever  Action
	Pose   Action
	Haptic Action
	Space  Space
}

// Registry creates the per-entity actions of the single action set and
// collects their suggested bindings. The protocol is strictly ordered:
// RegisterEntity any number of times, SubmitBindings once, Attach once.
type Registry struct {
	ctx   *SessionContext
	table *BindingTable
	title cases.Caser

	set       ActionSet
	bundles   []*ActionBundle
	pending   map[uint64]*ActionBundle
	paths     map[string]Path
	submitted bool
	attached  bool
}

// NewRegistry returns a registry whose binding table holds capacity entries.
func NewRegistry(ctx *SessionContext, capacity int) *Registry {
	return &Registry{
		ctx:   ctx,
		table: NewBindingTable(capacity),
		title:   cases.Title(language.English),
		pending: make(map[uint64]*ActionBundle),
		paths:   make(map[string]Path),
	}
}

// Table returns the suggested-binding table.
func (r *Registry) Table() *BindingTable { return r.table }

// Bundles returns the registered bundles in registration order.
func (r *Registry) Bundles() []*ActionBundle { return r.bundles }

// ActionSet returns the action set handle, zero before CreateActionSet.
func (r *Registry) ActionSet() ActionSet { return r.set }

// Submitted reports whether bindings have been suggested.
func (r *Registry) Submitted() bool { return r.submitted }

// Attached reports whether the action set has been attached.
func (r *Registry) Attached() bool { return r.attached }

// CreateActionSet creates the action set all entity actions belong to.
func (r *Registry) CreateActionSet(appName string) error {
	if r.set != 0 {
		return nil
	}
	c := r.ctx
	set, err := c.Runtime.CreateActionSet(c.Instance, ActionSetCreateInfo{
		Name:          ActionSetName,
		LocalizedName: r.title.String(appName + " action set"),
		Priority:      0,
	})
	if err != nil {
		return c.check("create action set", err)
	}
	r.set = set
	return nil
}

// NormalizePath returns the NFC form of a semantic path after checking
// that it is well formed: absolute, lowercase ASCII letters, digits and
// "-_." in each component, no empty components and no trailing slash.
func NormalizePath(path string) (string, error) {
	p := norm.NFC.String(path)
	if len(p) < 2 || len(p) > maxPathLength || p[0] != '/' || p[len(p)-1] == '/' {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}
	for _, comp := range strings.Split(p[1:], "/") {
		if comp == "" || comp == "." || comp == ".." {
			return "", fmt.Errorf("%w: %q", ErrInvalidPath, path)
		}
		for i := 0; i < len(comp); i++ {
			ch := comp[i]
			switch {
			case ch >= 'a' && ch <= 'z', ch >= '0' && ch <= '9', ch == '-', ch == '_', ch == '.':
			default:
				return "", fmt.Errorf("%w: %q", ErrInvalidPath, path)
			}
		}
	}
	return p, nil
}

func (r *Registry) stringToPath(s string) (Path, error) {
	if p, ok := r.paths[s]; ok {
		return p, nil
	}
	c := r.ctx
	p, err := c.Runtime.StringToPath(c.Instance, s)
	if err != nil {
		return NullPath, c.check("string to path "+s, err)
	}
	r.paths[s] = p
	return p, nil
}

// ActionName returns the runtime action name for an entity and role.
func ActionName(id uint64, role string) string {
	return "ent_" + strconv.FormatUint(id, 10) + "_" + role
}

// RegisterEntity creates the grab, lever, pose and haptic actions of an
// entity, an action space for its pose, and appends four suggested
// bindings. Capacity is checked before any runtime object is created.
// After a failure the objects already created are kept and the next call
// for the same id resumes with the first missing one.
func (r *Registry) RegisterEntity(id uint64, subactionPath string) (*ActionBundle, error) {
	if r.attached {
		return nil, fmt.Errorf("%w: register entity %d after attach", ErrProtocolOrder, id)
	}
	if r.submitted {
		return nil, fmt.Errorf("%w: register entity %d after bindings were submitted", ErrProtocolOrder, id)
	}
	if r.set == 0 {
		return nil, ErrNotInitialized
	}
	path, err := NormalizePath(subactionPath)
	if err != nil {
		return nil, err
	}
	if err := r.table.Reserve(bindingsPerEntity); err != nil {
		return nil, err
	}
	if len(ActionName(id, "handpose")) > maxActionNameLength {
		return nil, fmt.Errorf("xr: action name for entity %d too long", id)
	}

	b, ok := r.pending[id]
	if !ok {
		b = &ActionBundle{EntityID: id, SubactionPath: path}
		r.pending[id] = b
	}
	if b.Path == NullPath {
		if b.Path, err = r.stringToPath(b.SubactionPath); err != nil {
			return nil, err
		}
	}

	actions := []struct {
		dst  *Action
		role string
		typ  ActionType
	}{
		{&b.Grab, "trigger", ActionTypeFloatInput},
		{&b.Lever, "lever", ActionTypeFloatInput},
		{&b.Pose, "handpose", ActionTypePoseInput},
		{&b.Haptic, "haptic", ActionTypeVibrationOutput},
	}
	for _, a := range actions {
		if *a.dst != 0 {
			continue
		}
		if *a.dst, err = r.createAction(id, a.role, a.typ, b.Path); err != nil {
			return nil, err
		}
	}

	suffixes := []struct {
		action Action
		suffix string
	}{
		{b.Pose, GripPoseSuffix},
		{b.Grab, TriggerValueSuffix},
		{b.Lever, ThumbstickYSuffix},
		{b.Haptic, HapticOutputSuffix},
	}
	bindings := make([]SuggestedBinding, 0, bindingsPerEntity)
	for _, s := range suffixes {
		p, err := r.stringToPath(b.SubactionPath + s.suffix)
		if err != nil {
			return nil, err
		}
		bindings = append(bindings, SuggestedBinding{Action: s.action, Binding: p})
	}

	if b.Space == 0 {
		c := r.ctx
		space, err := c.Runtime.CreateActionSpace(c.Session, b.Pose, b.Path, IdentityPose())
		if err != nil {
			return nil, c.check("create action space", err)
		}
		b.Space = space
	}

	if err := r.table.Add(bindings...); err != nil {
		return nil, err
	}
	delete(r.pending, id)
	r.bundles = append(r.bundles, b)
	Logger().Debug("xr: entity registered", "entity", id, "path", b.SubactionPath, "bindings", r.table.Len())
	return b, nil
}

func (r *Registry) createAction(id uint64, role string, typ ActionType, sub Path) (Action, error) {
	c := r.ctx
	name := ActionName(id, role)
	a, err := c.Runtime.CreateAction(r.set, ActionCreateInfo{
		Name:           name,
		LocalizedName:  r.title.String(strings.ReplaceAll(name, "_", " ") + " local"),
		Type:           typ,
		SubactionPaths: []Path{sub},
	})
	if err != nil {
		return 0, c.check("create "+typ.String()+" action "+name, err)
	}
	return a, nil
}

// SubmitBindings suggests the collected bindings for an interaction
// profile. It may be called exactly once, before Attach.
func (r *Registry) SubmitBindings(profile string) error {
	if r.attached || r.submitted {
		return fmt.Errorf("%w: bindings already submitted", ErrProtocolOrder)
	}
	p, err := NormalizePath(profile)
	if err != nil {
		return err
	}
	profilePath, err := r.stringToPath(p)
	if err != nil {
		return err
	}
	c := r.ctx
	if err := c.Runtime.SuggestInteractionProfileBindings(c.Instance, profilePath, r.table.Entries()); err != nil {
		return c.check("suggest interaction profile bindings", err)
	}
	r.submitted = true
	Logger().Debug("xr: bindings suggested", "profile", p, "count", r.table.Len())
	return nil
}

// Attach attaches the action set to the session. It may be called
// exactly once, after SubmitBindings. The binding table is frozen.
func (r *Registry) Attach() error {
	if r.attached {
		return fmt.Errorf("%w: action set already attached", ErrProtocolOrder)
	}
	if !r.submitted {
		return fmt.Errorf("%w: attach before bindings were submitted", ErrProtocolOrder)
	}
	c := r.ctx
	if err := c.Runtime.AttachSessionActionSets(c.Session, []ActionSet{r.set}); err != nil {
		return c.check("attach action sets", err)
	}
	r.attached = true
	r.table.freeze()
	return nil
}

// Sync synchronizes the action set for the current frame.
func (r *Registry) Sync() error {
	if !r.attached {
		return fmt.Errorf("%w: sync before attach", ErrProtocolOrder)
	}
	c := r.ctx
	active := []ActiveActionSet{{ActionSet: r.set, SubactionPath: NullPath}}
	if err := c.Runtime.SyncActions(c.Session, active); err != nil {
		return c.check("sync actions", err)
	}
	return nil
}

// Poll queries the pose, grab and lever state of one entity and fires a
// haptic pulse while grab is held past GrabHapticThreshold. A failed
// query is logged and polling continues; all failures are returned
// joined together with the partial state.
func (r *Registry) Poll(b *ActionBundle, base Space, t Time) (InputState, error) {
	c := r.ctx
	var (
		st   InputState
		errs []error
	)
	fail := func(op string, err error) {
		err = c.check(op, err)
		Logger().Warn("xr: input query failed", "entity", b.EntityID, "err", err)
		errs = append(errs, err)
	}

	pose, err := c.Runtime.GetActionStatePose(c.Session, b.Pose, b.Path)
	if err != nil {
		fail("get pose state", err)
	}
	st.PoseActive = pose.IsActive

	loc, err := c.Runtime.LocateSpace(b.Space, base, t)
	if err != nil {
		fail("locate space "+b.SubactionPath, err)
	} else {
		st.Location = loc
		st.PoseValid = loc.Flags&SpaceLocationOrientationValid != 0
	}

	if st.Grab, err = c.Runtime.GetActionStateFloat(c.Session, b.Grab, b.Path); err != nil {
		fail("get grab state", err)
	}

	if st.Grab.IsActive && st.Grab.CurrentState > GrabHapticThreshold {
		vib := HapticVibration{
			Duration:  MinHapticDuration,
			Frequency: FrequencyUnspecified,
			Amplitude: GrabHapticAmplitude,
		}
		if err := c.Runtime.ApplyHapticFeedback(c.Session, b.Haptic, b.Path, vib); err != nil {
			fail("apply haptic feedback", err)
		} else {
			st.HapticFired = true
		}
	}

	if st.Lever, err = c.Runtime.GetActionStateFloat(c.Session, b.Lever, b.Path); err != nil {
		fail("get lever state", err)
	}

	return st, errors.Join(errs...)
}

// reset drops all registry state; used when the session is destroyed.
func (r *Registry) reset() {
	*r = *NewRegistry(r.ctx, r.table.Cap())
}
