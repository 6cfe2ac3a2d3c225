// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package xrtest

import (
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/xr"
)

type nullDevice struct{}

func (nullDevice) Poll(bool) {}
func (nullDevice) Destroy()  {}

type nullQueue struct{}

type nullAdapter struct{}

// Attachment records one AttachImage call.
type Attachment struct {
	Framebuffer xr.Framebuffer
	Image       xr.SwapchainImage
	Width       uint32
	Height      uint32
}

// Graphics is a recording xr.Graphics with a null device.
type Graphics struct {
	next  xr.Framebuffer
	live  map[xr.Framebuffer]bool
	bound xr.Framebuffer

	Binds       int
	Unbinds     int
	Attachments []Attachment

	// FailCreate, when set, is returned by CreateFramebuffers.
	FailCreate error
}

var _ xr.Graphics = (*Graphics)(nil)

// NewGraphics returns an empty recording graphics context.
func NewGraphics() *Graphics {
	return &Graphics{live: make(map[xr.Framebuffer]bool)}
}

func (g *Graphics) Device() gpucontext.Device             { return nullDevice{} }
func (g *Graphics) Queue() gpucontext.Queue               { return nullQueue{} }
func (g *Graphics) Adapter() gpucontext.Adapter           { return nullAdapter{} }
func (g *Graphics) SurfaceFormat() gputypes.TextureFormat { return gputypes.TextureFormatRGBA8Unorm }

func (g *Graphics) AdapterInfo() gpucontext.AdapterInfo {
	return gpucontext.AdapterInfo{Name: "xrtest", Type: gpucontext.AdapterTypeUnknown}
}

// CreateFramebuffers implements xr.Graphics.
func (g *Graphics) CreateFramebuffers(n int) ([]xr.Framebuffer, error) {
	if g.FailCreate != nil {
		return nil, g.FailCreate
	}
	fbs := make([]xr.Framebuffer, n)
	for i := range fbs {
		g.next++
		fbs[i] = g.next
		g.live[g.next] = true
	}
	return fbs, nil
}

// DestroyFramebuffers implements xr.Graphics.
func (g *Graphics) DestroyFramebuffers(fbs []xr.Framebuffer) {
	for _, fb := range fbs {
		delete(g.live, fb)
	}
}

// BindFramebuffer implements xr.Graphics.
func (g *Graphics) BindFramebuffer(fb xr.Framebuffer) {
	g.bound = fb
	g.Binds++
}

// AttachImage implements xr.Graphics.
func (g *Graphics) AttachImage(fb xr.Framebuffer, image xr.SwapchainImage, width, height uint32) {
	g.Attachments = append(g.Attachments, Attachment{Framebuffer: fb, Image: image, Width: width, Height: height})
}

// UnbindFramebuffer implements xr.Graphics.
func (g *Graphics) UnbindFramebuffer() {
	g.bound = 0
	g.Unbinds++
}

// Bound returns the currently bound framebuffer, zero when none.
func (g *Graphics) Bound() xr.Framebuffer { return g.bound }

// Live returns the number of framebuffers not yet destroyed.
func (g *Graphics) Live() int { return len(g.live) }

// Entity is a controller entity recording every pose and input it receives.
type Entity struct {
	ID   uint64
	Path string

	Poses  []xr.Mat4
	Inputs []xr.InputState
}

var (
	_ xr.Entity        = (*Entity)(nil)
	_ xr.InputReceiver = (*Entity)(nil)
)

// NewEntity returns an entity with the given id and subaction path.
func NewEntity(id uint64, path string) *Entity { return &Entity{ID: id, Path: path} }

func (e *Entity) EntityID() uint64             { return e.ID }
func (e *Entity) SubactionPath() string        { return e.Path }
func (e *Entity) SetPose(m xr.Mat4)            { e.Poses = append(e.Poses, m) }
func (e *Entity) SetInput(state xr.InputState) { e.Inputs = append(e.Inputs, state) }
