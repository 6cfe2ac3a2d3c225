package xr

import "github.com/gogpu/gpucontext"

// Framebuffer is an off-screen render target owned by the Graphics
// collaborator. The driver only passes it back.
type Framebuffer uint32

// Graphics is the host graphics context. It supplies the GPU device the
// session binds to and receives framebuffer bind/attach calls for every
// acquired swapchain image.
//
// The driver RECEIVES the device from the host, it never creates one.
type Graphics interface {
	gpucontext.DeviceProvider

	// CreateFramebuffers allocates n framebuffers, one per swapchain image.
	CreateFramebuffers(n int) ([]Framebuffer, error)

	// DestroyFramebuffers releases framebuffers created above.
	DestroyFramebuffers(fbs []Framebuffer)

	// BindFramebuffer makes fb the current draw target.
	BindFramebuffer(fb Framebuffer)

	// AttachImage attaches a runtime-owned swapchain image as the color
	// attachment of the currently bound framebuffer.
	AttachImage(fb Framebuffer, image SwapchainImage, width, height uint32)

	// UnbindFramebuffer restores the default framebuffer.
	UnbindFramebuffer()
}

// Entity is a VR-tracked object of the host scene.
type Entity interface {
	// EntityID is a stable identifier; it names the entity's actions.
	EntityID() uint64

	// SubactionPath is the top-level user path, e.g. "/user/hand/left".
	SubactionPath() string

	// SetPose receives the tracked model matrix once per tick while the
	// pose is valid.
	SetPose(model Mat4)
}

// InputReceiver is implemented by entities that want the raw input state
// polled each tick.
type InputReceiver interface {
	SetInput(state InputState)
}

// ViewFrame is everything the renderer needs to draw one eye.
type ViewFrame struct {
	Index  int
	Width  uint32
	Height uint32

	Projection Mat4
	// Model is the eye's world transform (origin * tracked pose).
	Model Mat4
	// PreviousInverseModel is Model inverted as of the previous frame;
	// used for reprojection and motion vectors.
	PreviousInverseModel Mat4

	Framebuffer Framebuffer
	Image       SwapchainImage
}

// Renderer draws one eye into the given framebuffer. The framebuffer
// already has the swapchain image attached as its color attachment.
type Renderer interface {
	RenderView(frame *ViewFrame)
}

// OriginProvider is implemented by renderers whose camera rig carries a
// world transform. Origin is applied before every tracked pose.
type OriginProvider interface {
	Origin() Mat4
}
