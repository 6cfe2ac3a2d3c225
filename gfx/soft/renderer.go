// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package soft

import (
	"image"
	"image/color"
	"image/draw"

	xdraw "golang.org/x/image/draw"

	"github.com/gogpu/xr"
)

// Default eye clear colors.
var (
	LeftClear  = color.RGBA{R: 0x20, G: 0x30, B: 0x60, A: 0xff}
	RightClear = color.RGBA{R: 0x60, G: 0x30, B: 0x20, A: 0xff}
)

// Marker is a tracked entity drawn as a square at its position.
// It implements xr.Entity.
type Marker struct {
	ID    uint64
	Path  string
	Color color.RGBA

	position xr.Vector3f
	tracked  bool
}

var _ xr.Entity = (*Marker)(nil)

// NewMarker returns a marker for a controller at a top-level user path.
func NewMarker(id uint64, path string, c color.RGBA) *Marker {
	return &Marker{ID: id, Path: path, Color: c}
}

func (m *Marker) EntityID() uint64      { return m.ID }
func (m *Marker) SubactionPath() string { return m.Path }

// SetPose records the marker's world position.
func (m *Marker) SetPose(model xr.Mat4) {
	m.position = model.TransformPoint(xr.Vector3f{})
	m.tracked = true
}

// Position returns the last tracked position and whether one was seen.
func (m *Marker) Position() (xr.Vector3f, bool) { return m.position, m.tracked }

// RendererOption configures a Renderer.
type RendererOption func(*Renderer)

// WithClearColors sets the per-eye clear colors.
func WithClearColors(left, right color.RGBA) RendererOption {
	return func(r *Renderer) {
		r.clear = [2]color.RGBA{left, right}
	}
}

// WithResolutionScale renders each eye at scale times the swapchain
// size and filters the result into the swapchain image.
func WithResolutionScale(scale float32) RendererOption {
	return func(r *Renderer) {
		if scale > 0 {
			r.scale = scale
		}
	}
}

// WithMarkerSize sets the edge length of marker squares in output pixels.
func WithMarkerSize(px int) RendererOption {
	return func(r *Renderer) {
		if px > 0 {
			r.markerSize = px
		}
	}
}

// Renderer clears each eye, draws the markers and blits the result into
// the swapchain image attached to the frame's framebuffer. It implements
// xr.Renderer and xr.OriginProvider.
type Renderer struct {
	g          *Graphics
	clear      [2]color.RGBA
	scale      float32
	markerSize int
	markers    []*Marker
	origin     xr.Mat4

	output *image.RGBA
	last   map[int]*image.RGBA
	views  int
}

var (
	_ xr.Renderer       = (*Renderer)(nil)
	_ xr.OriginProvider = (*Renderer)(nil)
)

// NewRenderer returns a renderer drawing into the images of g.
func NewRenderer(g *Graphics, opts ...RendererOption) *Renderer {
	r := &Renderer{
		g:          g,
		clear:      [2]color.RGBA{LeftClear, RightClear},
		scale:      1,
		markerSize: 4,
		origin:     xr.Identity(),
		last:       make(map[int]*image.RGBA),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Track adds markers to draw.
func (r *Renderer) Track(markers ...*Marker) { r.markers = append(r.markers, markers...) }

// SetOrigin sets the camera rig transform applied before tracked poses.
func (r *Renderer) SetOrigin(m xr.Mat4) { r.origin = m }

// Origin implements xr.OriginProvider.
func (r *Renderer) Origin() xr.Mat4 { return r.origin }

// Views returns the number of views rendered so far.
func (r *Renderer) Views() int { return r.views }

// RenderView implements xr.Renderer.
func (r *Renderer) RenderView(frame *xr.ViewFrame) {
	dst, err := r.g.Target(frame.Framebuffer)
	if err != nil {
		xr.Logger().Warn("soft: render view", "view", frame.Index, "err", err)
		return
	}

	w := int(float32(frame.Width) * r.scale)
	h := int(float32(frame.Height) * r.scale)
	if w <= 0 || h <= 0 {
		return
	}
	r.resize(w, h)

	bg := r.clear[frame.Index%len(r.clear)]
	draw.Draw(r.output, r.output.Bounds(), image.NewUniform(r.g.Encode(bg)), image.Point{}, draw.Src)

	viewProj := frame.Projection.Multiply(frame.Model.Invert())
	for _, m := range r.markers {
		pos, ok := m.Position()
		if !ok {
			continue
		}
		ndc, visible := viewProj.ProjectPoint(pos)
		if !visible || ndc.Z < -1 || ndc.Z > 1 {
			continue
		}
		x := int((ndc.X + 1) / 2 * float32(w))
		y := int((1 - ndc.Y) / 2 * float32(h))
		half := r.markerSize / 2
		sq := image.Rect(x-half, y-half, x-half+r.markerSize, y-half+r.markerSize)
		draw.Draw(r.output, sq.Intersect(r.output.Bounds()), image.NewUniform(r.g.Encode(m.Color)), image.Point{}, draw.Src)
	}

	xdraw.BiLinear.Scale(dst, dst.Bounds(), r.output, r.output.Bounds(), xdraw.Src, nil)
	r.last[frame.Index] = dst
	r.views++
}

func (r *Renderer) resize(w, h int) {
	if r.output != nil && r.output.Rect.Dx() == w && r.output.Rect.Dy() == h {
		return
	}
	r.output = image.NewRGBA(image.Rect(0, 0, w, h))
}

// Mirror draws the last image of each eye side by side into dst, the
// desktop mirror window of a headset.
func (r *Renderer) Mirror(dst draw.Image, views int) {
	b := dst.Bounds()
	if views <= 0 {
		return
	}
	cell := b.Dx() / views
	for i := range views {
		src := r.last[i]
		if src == nil {
			continue
		}
		rect := image.Rect(b.Min.X+i*cell, b.Min.Y, b.Min.X+(i+1)*cell, b.Max.Y)
		xdraw.ApproxBiLinear.Scale(dst, rect, src, src.Bounds(), xdraw.Src, nil)
	}
}
