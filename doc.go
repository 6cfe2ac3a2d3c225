// Package xr drives a head-mounted display from a GoGPU application.
//
// # Overview
//
// xr negotiates a session with a VR runtime, keeps the host's tick in
// step with the display compositor, owns one swapchain per eye and
// exposes controller poses, trigger values and haptic output through
// per-entity actions. The runtime is reached through the [Runtime]
// interface; the host GPU device arrives through [Graphics], which embeds
// gpucontext.DeviceProvider. The driver never creates a device itself.
//
// # Quick Start
//
//	d := xr.New(runtime, graphics, xr.WithRenderer(renderer))
//	d.AddEntity(leftHand)
//	d.AddEntity(rightHand)
//
//	for {
//	    if err := d.PreDraw(); err != nil {
//	        break
//	    }
//	    scene.Update()
//	    if err := d.Draw(); xr.IsFatal(err) {
//	        break
//	    }
//	}
//	d.Shutdown()
//
// # Frame Protocol
//
// Every tick runs PreDraw then Draw:
//   - PreDraw polls one runtime event, waits for the next frame, syncs the
//     action set and polls each entity's pose and triggers.
//   - Draw locates both views, begins the frame, and for each eye composes
//     the matrices, acquires an image, calls the renderer and releases the
//     image. It then ends the frame with one projection layer.
//
// Setup happens lazily: Draw retries [Driver.Initialize] until it
// succeeds. Failures after begin-frame are fatal ([FatalError]); the
// driver refuses further frames and the host is expected to exit.
//
// # Session States
//
// Runtime state changes arrive as events and are applied one per tick.
// A stopping session is ended and the frame protocol pauses; a later
// transition to ready begins it again. Instance loss makes PreDraw and
// Draw return [ErrInstanceLossPending]; call [Driver.Shutdown] and retry
// with a new driver or the same one.
//
// # Coordinate System
//
// Matrices are column-major, right-handed, OpenGL clip conventions
// (depth -1..1). Poses are in the local reference space, optionally
// transformed by the renderer's [OriginProvider].
package xr
