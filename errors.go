package xr

import (
	"errors"
	"fmt"
)

// Sentinel errors.
var (
	// ErrExtensionUnsupported is returned when the runtime lacks the
	// graphics binding extension.
	ErrExtensionUnsupported = errors.New("xr: graphics binding extension unsupported")

	// ErrStereoUnsupported is returned when the runtime does not offer the
	// primary stereo view configuration with exactly two views.
	ErrStereoUnsupported = errors.New("xr: stereo view configuration unsupported")

	// ErrLocalSpaceUnsupported is returned when the session cannot create
	// a local reference space.
	ErrLocalSpaceUnsupported = errors.New("xr: local reference space unsupported")

	// ErrNilDeviceProvider is returned when the graphics collaborator has
	// no device provider to bind the session to.
	ErrNilDeviceProvider = errors.New("xr: nil graphics device provider")

	// ErrNoSwapchainFormat is returned when the runtime reports no formats.
	ErrNoSwapchainFormat = errors.New("xr: runtime reports no swapchain formats")

	// ErrProtocolOrder is returned when a binding or attach call arrives
	// out of order: registration or submission after attach, a second
	// submission, or attach before submission.
	ErrProtocolOrder = errors.New("xr: action protocol order violated")

	// ErrInvalidPath is returned for malformed semantic paths.
	ErrInvalidPath = errors.New("xr: invalid path")

	// ErrImageAcquired is returned when a view's image is acquired twice
	// without a release in between.
	ErrImageAcquired = errors.New("xr: swapchain image already acquired")

	// ErrImageNotAcquired is returned when releasing a view that holds no image.
	ErrImageNotAcquired = errors.New("xr: swapchain image not acquired")

	// ErrInstanceLossPending is returned by every tick once the runtime
	// announced instance loss. The host should Shutdown and may retry.
	ErrInstanceLossPending = errors.New("xr: instance loss pending")

	// ErrFatal marks frame-protocol failures after which no frame can be
	// submitted safely. Every FatalError matches it.
	ErrFatal = errors.New("xr: fatal frame protocol failure")

	// ErrNotInitialized is returned by operations that need a live session.
	ErrNotInitialized = errors.New("xr: session not initialized")
)

// RuntimeError is a failed runtime call. Text is the runtime's own
// rendering of the result code.
type RuntimeError struct {
	Op     string
	Result Result
	Text   string
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("xr: %s failed [%s]", e.Op, e.Text)
}

// Unwrap exposes the result code for errors.Is / errors.As.
func (e *RuntimeError) Unwrap() error { return e.Result }

// SetupError wraps the failure of one session bring-up step.
type SetupError struct {
	Step string
	Err  error
}

func (e *SetupError) Error() string {
	return "xr: setup step " + e.Step + ": " + e.Err.Error()
}

func (e *SetupError) Unwrap() error { return e.Err }

// CapacityError is returned when a fixed-capacity table would overflow.
type CapacityError struct {
	What      string
	Capacity  int
	Requested int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("xr: %s capacity %d exceeded (requested %d)", e.What, e.Capacity, e.Requested)
}

// EnumerationError is returned when a runtime reports more items on the
// fill call of a two-call enumeration than the count call announced.
type EnumerationError struct {
	What     string
	Capacity uint32
	Reported uint32
}

func (e *EnumerationError) Error() string {
	return fmt.Sprintf("xr: %s enumeration grew from %d to %d", e.What, e.Capacity, e.Reported)
}

// VersionError is returned when the desired graphics API version falls
// outside the runtime's supported range.
type VersionError struct {
	Desired Version
	Min     Version
	Max     Version
}

func (e *VersionError) Error() string {
	return fmt.Sprintf("xr: graphics version %s outside supported range %s - %s", e.Desired, e.Min, e.Max)
}

// SwapchainError is returned when swapchain creation kept failing after
// every attempt.
type SwapchainError struct {
	Attempts int
	View     int
	Err      error
}

func (e *SwapchainError) Error() string {
	return fmt.Sprintf("xr: swapchain creation for view %d failed after %d attempts: %v", e.View, e.Attempts, e.Err)
}

func (e *SwapchainError) Unwrap() error { return e.Err }

// FatalError is a frame-protocol failure. Once returned, the driver
// refuses further frame work; hosts are expected to exit.
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string { return "xr: fatal: " + e.Err.Error() }

// Unwrap returns both ErrFatal and the cause.
func (e *FatalError) Unwrap() []error { return []error{ErrFatal, e.Err} }

// IsFatal reports whether err poisons the driver.
func IsFatal(err error) bool { return errors.Is(err, ErrFatal) }
