package xr

import (
	"time"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
)

// GraphicsBindingExtension is the instance extension a runtime must
// expose to accept a gogpu device as the session's graphics binding.
const GraphicsBindingExtension = "XR_GOGPU_device_binding"

// CoreValidationLayer is enabled when the loader offers it and the
// driver was configured to use it.
const CoreValidationLayer = "XR_APILAYER_LUNARG_core_validation"

// GraphicsBinding binds a session to the host's GPU device.
type GraphicsBinding struct {
	Provider gpucontext.DeviceProvider
}

// SessionCreateInfo configures session creation.
type SessionCreateInfo struct {
	System  SystemID
	Binding GraphicsBinding
}

// SwapchainCreateInfo configures one swapchain.
type SwapchainCreateInfo struct {
	Usage       SwapchainUsageFlags
	Format      gputypes.TextureFormat
	SampleCount uint32
	Width       uint32
	Height      uint32
	FaceCount   uint32
	ArraySize   uint32
	MipCount    uint32
}

// DebugMessage is one message delivered to a debug messenger.
type DebugMessage struct {
	Severity     DebugSeverity
	FunctionName string
	Message      string
}

// DebugSeverity classifies debug messages.
type DebugSeverity uint32

const (
	DebugSeverityVerbose DebugSeverity = 1 << (4 * iota)
	DebugSeverityInfo
	DebugSeverityWarning
	DebugSeverityError
)

// Runtime is the VR runtime as seen by the driver. Its methods map one to
// one onto runtime entry points and block the calling tick until they
// return.
//
// Enumeration methods follow the two-call idiom: called with an empty
// slice they return the number of available items; called with a
// non-empty slice they fill it and return the number written, or return
// the required count together with ErrorSizeInsufficient when the slice
// is too small.
//
// Failures are reported as errors; implementations should return a
// Result failure code (possibly wrapped) so the driver can render it with
// ResultString.
type Runtime interface {
	EnumerateInstanceExtensionProperties(props []ExtensionProperties) (uint32, error)
	EnumerateAPILayerProperties(props []APILayerProperties) (uint32, error)
	CreateInstance(info InstanceCreateInfo) (Instance, error)
	DestroyInstance(instance Instance) error
	GetInstanceProperties(instance Instance) (InstanceProperties, error)
	CreateDebugMessenger(instance Instance, callback func(DebugMessage)) (DebugMessenger, error)
	ResultString(instance Instance, result Result) string

	GetSystem(instance Instance, formFactor FormFactor) (SystemID, error)
	GetSystemProperties(instance Instance, system SystemID) (SystemProperties, error)
	EnumerateViewConfigurations(instance Instance, system SystemID, types []ViewConfigurationType) (uint32, error)
	GetViewConfigurationProperties(instance Instance, system SystemID, viewType ViewConfigurationType) (ViewConfigurationProperties, error)
	EnumerateEnvironmentBlendModes(instance Instance, system SystemID, viewType ViewConfigurationType, modes []EnvironmentBlendMode) (uint32, error)
	EnumerateViewConfigurationViews(instance Instance, system SystemID, viewType ViewConfigurationType, views []ViewConfigurationView) (uint32, error)
	GetGraphicsRequirements(instance Instance, system SystemID) (GraphicsRequirements, error)

	CreateSession(instance Instance, info SessionCreateInfo) (Session, error)
	DestroySession(session Session) error
	EnumerateReferenceSpaces(session Session, spaces []ReferenceSpaceType) (uint32, error)
	CreateReferenceSpace(session Session, spaceType ReferenceSpaceType, pose Posef) (Space, error)
	BeginSession(session Session, viewType ViewConfigurationType) error
	EndSession(session Session) error

	// PollEvent returns EventUnavailable (as error) when the queue is empty.
	PollEvent(instance Instance) (Event, error)

	WaitFrame(session Session) (FrameState, error)
	BeginFrame(session Session) error
	EndFrame(session Session, info FrameEndInfo) error
	LocateViews(session Session, info ViewLocateInfo, views []View) (ViewStateFlags, uint32, error)

	EnumerateSwapchainFormats(session Session, formats []gputypes.TextureFormat) (uint32, error)
	CreateSwapchain(session Session, info SwapchainCreateInfo) (Swapchain, error)
	DestroySwapchain(swapchain Swapchain) error
	EnumerateSwapchainImages(swapchain Swapchain, images []SwapchainImage) (uint32, error)
	AcquireSwapchainImage(swapchain Swapchain) (uint32, error)
	// WaitSwapchainImage returns TimeoutExpired (as error) when the image
	// did not become available within timeout.
	WaitSwapchainImage(swapchain Swapchain, timeout time.Duration) error
	ReleaseSwapchainImage(swapchain Swapchain) error

	StringToPath(instance Instance, path string) (Path, error)
	CreateActionSet(instance Instance, info ActionSetCreateInfo) (ActionSet, error)
	CreateAction(set ActionSet, info ActionCreateInfo) (Action, error)
	SuggestInteractionProfileBindings(instance Instance, profile Path, bindings []SuggestedBinding) error
	AttachSessionActionSets(session Session, sets []ActionSet) error
	CreateActionSpace(session Session, action Action, subactionPath Path, pose Posef) (Space, error)
	SyncActions(session Session, active []ActiveActionSet) error
	GetActionStatePose(session Session, action Action, subactionPath Path) (ActionStatePose, error)
	GetActionStateFloat(session Session, action Action, subactionPath Path) (ActionStateFloat, error)
	LocateSpace(space, base Space, t Time) (SpaceLocation, error)
	ApplyHapticFeedback(session Session, action Action, subactionPath Path, vibration HapticVibration) error
}
