// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package soft is a CPU implementation of the xr.Graphics collaborator.
//
// Swapchain images are plain *image.RGBA buffers keyed by the texture
// name the runtime hands out. Framebuffers record which image is
// attached as their color attachment, so a Renderer can draw into the
// image of the framebuffer it is given.
//
// Like the GPU renderers, soft RECEIVES its device from the host. Without
// a DeviceProvider it reports a null device, which is enough for
// runtimes that only need the graphics binding to be present.
package soft

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/xr"
)

// ErrUnknownFramebuffer is returned for framebuffers this context did
// not create or already destroyed.
var ErrUnknownFramebuffer = errors.New("soft: unknown framebuffer")

// Option configures a Graphics.
type Option func(*Graphics)

// WithDeviceProvider makes the context report the host's device.
func WithDeviceProvider(p gpucontext.DeviceProvider) Option {
	return func(g *Graphics) {
		g.provider = p
	}
}

// WithFormat sets the pixel order of the swapchain images. Only
// RGBA8Unorm and BGRA8Unorm are supported; other formats are ignored.
func WithFormat(f gputypes.TextureFormat) Option {
	return func(g *Graphics) {
		if Supports(f) {
			g.format = f
		}
	}
}

// Supports reports whether soft can store images of format f.
func Supports(f gputypes.TextureFormat) bool {
	return f == gputypes.TextureFormatRGBA8Unorm || f == gputypes.TextureFormatBGRA8Unorm
}

type framebuffer struct {
	texture uint32
	color   *image.RGBA
}

// Graphics is a software graphics context.
// It is not safe for concurrent use.
type Graphics struct {
	provider gpucontext.DeviceProvider
	format   gputypes.TextureFormat

	next         xr.Framebuffer
	framebuffers map[xr.Framebuffer]*framebuffer
	textures     map[uint32]*image.RGBA
	bound        xr.Framebuffer
}

var _ xr.Graphics = (*Graphics)(nil)

// New returns a software graphics context.
func New(opts ...Option) *Graphics {
	g := &Graphics{
		format:       gputypes.TextureFormatRGBA8Unorm,
		framebuffers: make(map[xr.Framebuffer]*framebuffer),
		textures:     make(map[uint32]*image.RGBA),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Device returns the host device, or nil without a provider.
func (g *Graphics) Device() gpucontext.Device {
	if g.provider == nil {
		return nil
	}
	return g.provider.Device()
}

// Queue returns the host queue, or nil without a provider.
func (g *Graphics) Queue() gpucontext.Queue {
	if g.provider == nil {
		return nil
	}
	return g.provider.Queue()
}

// Adapter returns the host adapter, or nil without a provider.
func (g *Graphics) Adapter() gpucontext.Adapter {
	if g.provider == nil {
		return nil
	}
	return g.provider.Adapter()
}

// AdapterInfo returns the host adapter's metadata, or a software
// adapter without a provider.
func (g *Graphics) AdapterInfo() gpucontext.AdapterInfo {
	if g.provider == nil {
		return gpucontext.AdapterInfo{Name: "soft", Type: gpucontext.AdapterTypeSoftware}
	}
	return g.provider.AdapterInfo()
}

// SurfaceFormat returns the pixel order of swapchain images.
func (g *Graphics) SurfaceFormat() gputypes.TextureFormat { return g.format }

// CreateFramebuffers implements xr.Graphics.
func (g *Graphics) CreateFramebuffers(n int) ([]xr.Framebuffer, error) {
	if n <= 0 {
		return nil, fmt.Errorf("soft: invalid framebuffer count %d", n)
	}
	fbs := make([]xr.Framebuffer, n)
	for i := range fbs {
		g.next++
		fbs[i] = g.next
		g.framebuffers[g.next] = &framebuffer{}
	}
	return fbs, nil
}

// DestroyFramebuffers implements xr.Graphics. The attached images are
// released with their framebuffers.
func (g *Graphics) DestroyFramebuffers(fbs []xr.Framebuffer) {
	for _, fb := range fbs {
		f, ok := g.framebuffers[fb]
		if !ok {
			continue
		}
		if f.texture != 0 {
			delete(g.textures, f.texture)
		}
		delete(g.framebuffers, fb)
		if g.bound == fb {
			g.bound = 0
		}
	}
}

// BindFramebuffer implements xr.Graphics.
func (g *Graphics) BindFramebuffer(fb xr.Framebuffer) {
	if _, ok := g.framebuffers[fb]; !ok {
		xr.Logger().Warn("soft: bind of unknown framebuffer", "framebuffer", fb)
		return
	}
	g.bound = fb
}

// AttachImage implements xr.Graphics. The texture's storage is allocated
// on first use and reallocated when its size changes.
func (g *Graphics) AttachImage(fb xr.Framebuffer, img xr.SwapchainImage, width, height uint32) {
	f, ok := g.framebuffers[fb]
	if !ok || g.bound != fb {
		xr.Logger().Warn("soft: attach to unbound framebuffer", "framebuffer", fb, "texture", img.Texture)
		return
	}
	rgba := g.textures[img.Texture]
	if rgba == nil || rgba.Rect.Dx() != int(width) || rgba.Rect.Dy() != int(height) {
		rgba = image.NewRGBA(image.Rect(0, 0, int(width), int(height)))
		g.textures[img.Texture] = rgba
	}
	f.texture = img.Texture
	f.color = rgba
}

// UnbindFramebuffer implements xr.Graphics.
func (g *Graphics) UnbindFramebuffer() { g.bound = 0 }

// Bound returns the bound framebuffer, zero when none.
func (g *Graphics) Bound() xr.Framebuffer { return g.bound }

// Framebuffers returns the number of live framebuffers.
func (g *Graphics) Framebuffers() int { return len(g.framebuffers) }

// Target returns the color attachment of fb.
func (g *Graphics) Target(fb xr.Framebuffer) (*image.RGBA, error) {
	f, ok := g.framebuffers[fb]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownFramebuffer, fb)
	}
	if f.color == nil {
		return nil, fmt.Errorf("soft: framebuffer %d has no attachment", fb)
	}
	return f.color, nil
}

// Texture returns the storage of a swapchain image, nil if it was never
// attached.
func (g *Graphics) Texture(name uint32) *image.RGBA { return g.textures[name] }

// Encode converts c to the pixel order of the swapchain format.
func (g *Graphics) Encode(c color.RGBA) color.RGBA {
	if g.format == gputypes.TextureFormatBGRA8Unorm {
		c.R, c.B = c.B, c.R
	}
	return c
}
