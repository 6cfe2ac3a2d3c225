package xr

import (
	"fmt"
	"time"
)

// Opaque runtime handles. The zero value is the null handle.
type (
	Instance       uint64
	SystemID       uint64
	Session        uint64
	Space          uint64
	Swapchain      uint64
	ActionSet      uint64
	Action         uint64
	Path           uint64
	DebugMessenger uint64
)

// NullPath is the null path; used as "any subaction path" when syncing.
const NullPath Path = 0

// Time is a runtime timestamp in nanoseconds.
type Time int64

// Version packs a major.minor.patch triple as 16/16/32 bits.
type Version uint64

// MakeVersion packs a version triple.
func MakeVersion(major, minor, patch uint32) Version {
	return Version(uint64(major&0xffff)<<48 | uint64(minor&0xffff)<<32 | uint64(patch))
}

// Major returns the major component.
func (v Version) Major() uint32 { return uint32(v>>48) & 0xffff }

// Minor returns the minor component.
func (v Version) Minor() uint32 { return uint32(v>>32) & 0xffff }

// Patch returns the patch component.
func (v Version) Patch() uint32 { return uint32(v) }

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major(), v.Minor(), v.Patch())
}

// FormFactor identifies the kind of display system.
type FormFactor uint32

const (
	FormFactorHeadMountedDisplay FormFactor = 1
	FormFactorHandheldDisplay    FormFactor = 2
)

// ViewConfigurationType identifies a view layout.
type ViewConfigurationType uint32

const (
	ViewConfigurationPrimaryMono   ViewConfigurationType = 1
	ViewConfigurationPrimaryStereo ViewConfigurationType = 2
)

// StereoViewCount is the number of views of the primary stereo configuration.
const StereoViewCount = 2

// EnvironmentBlendMode describes how rendered frames blend with the real world.
type EnvironmentBlendMode uint32

const (
	BlendModeOpaque     EnvironmentBlendMode = 1
	BlendModeAdditive   EnvironmentBlendMode = 2
	BlendModeAlphaBlend EnvironmentBlendMode = 3
)

// ReferenceSpaceType names a reference coordinate frame.
type ReferenceSpaceType uint32

const (
	ReferenceSpaceView  ReferenceSpaceType = 1
	ReferenceSpaceLocal ReferenceSpaceType = 2
	ReferenceSpaceStage ReferenceSpaceType = 3
)

func (t ReferenceSpaceType) String() string {
	switch t {
	case ReferenceSpaceView:
		return "view"
	case ReferenceSpaceLocal:
		return "local"
	case ReferenceSpaceStage:
		return "stage"
	default:
		return fmt.Sprintf("space(%d)", uint32(t))
	}
}

// ActionType is the kind of an input or output action.
type ActionType uint32

const (
	ActionTypeBooleanInput    ActionType = 1
	ActionTypeFloatInput      ActionType = 2
	ActionTypeVector2fInput   ActionType = 3
	ActionTypePoseInput       ActionType = 4
	ActionTypeVibrationOutput ActionType = 100
)

func (t ActionType) String() string {
	switch t {
	case ActionTypeBooleanInput:
		return "boolean"
	case ActionTypeFloatInput:
		return "float"
	case ActionTypeVector2fInput:
		return "vector2f"
	case ActionTypePoseInput:
		return "pose"
	case ActionTypeVibrationOutput:
		return "vibration"
	default:
		return fmt.Sprintf("action(%d)", uint32(t))
	}
}

// Vector3f is a position or direction.
type Vector3f struct {
	X, Y, Z float32
}

// Quaternionf is a rotation; W is the scalar part.
type Quaternionf struct {
	X, Y, Z, W float32
}

// Posef is an orientation followed by a position.
type Posef struct {
	Orientation Quaternionf
	Position    Vector3f
}

// IdentityPose returns the pose with no rotation at the origin.
func IdentityPose() Posef {
	return Posef{Orientation: Quaternionf{W: 1}}
}

// Fovf holds the four field-of-view half angles in radians.
// AngleLeft and AngleDown are normally negative.
type Fovf struct {
	AngleLeft, AngleRight, AngleUp, AngleDown float32
}

// Offset2Di is an integer 2D offset.
type Offset2Di struct {
	X, Y int32
}

// Extent2Di is an integer 2D size.
type Extent2Di struct {
	Width, Height int32
}

// Rect2Di is an integer rectangle.
type Rect2Di struct {
	Offset Offset2Di
	Extent Extent2Di
}

// ExtensionProperties describes one instance extension.
type ExtensionProperties struct {
	Name    string
	Version uint32
}

// APILayerProperties describes one API layer known to the loader.
type APILayerProperties struct {
	Name        string
	SpecVersion Version
	Description string
}

// ApplicationInfo identifies the application to the runtime.
type ApplicationInfo struct {
	ApplicationName    string
	ApplicationVersion uint32
	EngineName         string
	EngineVersion      uint32
	APIVersion         Version
}

// InstanceCreateInfo configures instance creation.
type InstanceCreateInfo struct {
	Application ApplicationInfo
	Extensions  []string
	APILayers   []string
}

// InstanceProperties reports runtime identity.
type InstanceProperties struct {
	RuntimeName    string
	RuntimeVersion Version
}

// SystemProperties reports display system limits.
type SystemProperties struct {
	SystemID                SystemID
	SystemName              string
	VendorID                uint32
	MaxLayerCount           uint32
	MaxSwapchainImageWidth  uint32
	MaxSwapchainImageHeight uint32
	OrientationTracking     bool
	PositionTracking        bool
}

// ViewConfigurationProperties describes one view configuration.
type ViewConfigurationProperties struct {
	Type       ViewConfigurationType
	FovMutable bool
}

// ViewConfigurationView holds the per-view image limits.
type ViewConfigurationView struct {
	RecommendedImageRectWidth       uint32
	MaxImageRectWidth               uint32
	RecommendedImageRectHeight      uint32
	MaxImageRectHeight              uint32
	RecommendedSwapchainSampleCount uint32
	MaxSwapchainSampleCount         uint32
}

// GraphicsRequirements bounds the graphics API versions the runtime accepts.
type GraphicsRequirements struct {
	MinAPIVersionSupported Version
	MaxAPIVersionSupported Version
}

// FrameState is the result of waiting for a frame. It is valid only
// between wait-frame and end-frame of the same frame.
type FrameState struct {
	PredictedDisplayTime   Time
	PredictedDisplayPeriod time.Duration
	ShouldRender           bool
}

// ViewStateFlags reports which parts of located views are valid.
type ViewStateFlags uint32

const (
	ViewStateOrientationValid ViewStateFlags = 1 << iota
	ViewStatePositionValid
	ViewStateOrientationTracked
	ViewStatePositionTracked
)

// View is one located eye: pose and field of view. Valid within one frame.
type View struct {
	Pose Posef
	Fov  Fovf
}

// ViewLocateInfo selects which views to locate and when.
type ViewLocateInfo struct {
	ViewConfigurationType ViewConfigurationType
	DisplayTime           Time
	Space                 Space
}

// SpaceLocationFlags reports validity of a located pose.
type SpaceLocationFlags uint32

const (
	SpaceLocationOrientationValid SpaceLocationFlags = 1 << iota
	SpaceLocationPositionValid
	SpaceLocationOrientationTracked
	SpaceLocationPositionTracked
)

// SpaceLocation is the result of locating one space in another.
type SpaceLocation struct {
	Flags SpaceLocationFlags
	Pose  Posef
}

// ActionSetCreateInfo configures an action set.
type ActionSetCreateInfo struct {
	Name          string
	LocalizedName string
	Priority      uint32
}

// ActionCreateInfo configures an action.
type ActionCreateInfo struct {
	Name           string
	LocalizedName  string
	Type           ActionType
	SubactionPaths []Path
}

// SuggestedBinding maps an action to a physical input or output path.
type SuggestedBinding struct {
	Action  Action
	Binding Path
}

// ActiveActionSet selects an action set to sync.
type ActiveActionSet struct {
	ActionSet     ActionSet
	SubactionPath Path
}

// ActionStateFloat is the current value of a float input action.
type ActionStateFloat struct {
	CurrentState         float32
	ChangedSinceLastSync bool
	LastChangeTime       Time
	IsActive             bool
}

// ActionStatePose reports whether a pose action is bound and active.
type ActionStatePose struct {
	IsActive bool
}

// MinHapticDuration asks the runtime for its shortest supported pulse.
const MinHapticDuration time.Duration = -1

// FrequencyUnspecified lets the runtime pick the vibration frequency.
const FrequencyUnspecified float32 = 0

// HapticVibration describes one vibration pulse.
type HapticVibration struct {
	Duration  time.Duration
	Frequency float32
	Amplitude float32
}

// SwapchainUsageFlags describe how swapchain images will be used.
type SwapchainUsageFlags uint32

const (
	SwapchainUsageColorAttachment SwapchainUsageFlags = 1 << iota
	SwapchainUsageDepthStencilAttachment
	SwapchainUsageTransferSrc
	SwapchainUsageTransferDst
	SwapchainUsageSampled
)

// SwapchainImage is a runtime-owned image. Texture is the native texture
// name in the bound graphics API.
type SwapchainImage struct {
	Texture uint32
}

// SwapchainSubImage references a region of one swapchain.
type SwapchainSubImage struct {
	Swapchain       Swapchain
	ImageRect       Rect2Di
	ImageArrayIndex uint32
}

// CompositionLayerProjectionView is one eye of a projection layer.
type CompositionLayerProjectionView struct {
	Pose     Posef
	Fov      Fovf
	SubImage SwapchainSubImage
}

// CompositionLayerProjection is a stereo projection layer.
type CompositionLayerProjection struct {
	Space Space
	Views []CompositionLayerProjectionView
}

// FrameEndInfo is submitted with end-frame.
type FrameEndInfo struct {
	DisplayTime          Time
	EnvironmentBlendMode EnvironmentBlendMode
	Layers               []CompositionLayerProjection
}
