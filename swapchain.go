package xr

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
)

// ViewTarget is one eye's swapchain with its image list and the
// framebuffers created for those images.
type ViewTarget struct {
	Swapchain    Swapchain
	Width        uint32
	Height       uint32
	Images       []SwapchainImage
	Framebuffers []Framebuffer

	acquired bool
	index    uint32
}

// ImageHandle identifies the image acquired for one view this frame.
type ImageHandle struct {
	View        int
	Index       uint32
	Image       SwapchainImage
	Framebuffer Framebuffer
}

// Swapchains manages one swapchain per view and the framebuffer pool
// bound to their images.
type Swapchains struct {
	ctx      *SessionContext
	graphics Graphics
	opts     *options

	format  gputypes.TextureFormat
	targets []ViewTarget
}

func newSwapchains(ctx *SessionContext, graphics Graphics, opts *options) *Swapchains {
	return &Swapchains{ctx: ctx, graphics: graphics, opts: opts}
}

// Format returns the selected swapchain format.
func (s *Swapchains) Format() gputypes.TextureFormat { return s.format }

// Targets returns the per-view targets. The slice must not be modified.
func (s *Swapchains) Targets() []ViewTarget { return s.targets }

// Ready reports whether swapchains exist for every view.
func (s *Swapchains) Ready() bool {
	return len(s.targets) > 0 && len(s.targets) == s.ctx.ViewCount()
}

// Setup selects the first runtime format and creates the per-view
// swapchains. A failure on any view destroys everything created so far
// and restarts from view 0, at most WithSwapchainAttempts times.
func (s *Swapchains) Setup() error {
	if s.Ready() {
		return nil
	}
	c := s.ctx

	formats, err := enumerate("swapchain formats", func(buf []gputypes.TextureFormat) (uint32, error) {
		return c.Runtime.EnumerateSwapchainFormats(c.Session, buf)
	})
	if err != nil {
		return c.check("enumerate swapchain formats", err)
	}
	if len(formats) == 0 {
		return ErrNoSwapchainFormat
	}
	s.format = formats[0]
	Logger().Debug("xr: swapchain format", "format", s.format, "offered", len(formats))

	var (
		lastErr  error
		lastView int
	)
	for attempt := 1; attempt <= s.opts.swapchainAttempts; attempt++ {
		view, err := s.createAll()
		if err == nil {
			return nil
		}
		lastErr, lastView = err, view
		Logger().Warn("xr: swapchain creation failed",
			"attempt", attempt,
			"view", view,
			"err", err)
		s.Destroy()
	}
	return &SwapchainError{Attempts: s.opts.swapchainAttempts, View: lastView, Err: lastErr}
}

// createAll creates a target for every view, returning the failing view.
func (s *Swapchains) createAll() (int, error) {
	views := s.ctx.Views
	s.targets = make([]ViewTarget, 0, len(views))
	for i, v := range views {
		t, err := s.create(v)
		if err != nil {
			return i, err
		}
		s.targets = append(s.targets, t)
	}
	return 0, nil
}

func (s *Swapchains) create(v ViewConfigurationView) (ViewTarget, error) {
	c := s.ctx
	info := SwapchainCreateInfo{
		Usage:       SwapchainUsageColorAttachment,
		Format:      s.format,
		SampleCount: 1,
		Width:       v.RecommendedImageRectWidth,
		Height:      v.RecommendedImageRectHeight,
		FaceCount:   1,
		ArraySize:   1,
		MipCount:    1,
	}
	sc, err := c.Runtime.CreateSwapchain(c.Session, info)
	if err != nil {
		return ViewTarget{}, c.check("create swapchain", err)
	}
	t := ViewTarget{Swapchain: sc, Width: info.Width, Height: info.Height}

	images, err := enumerate("swapchain images", func(buf []SwapchainImage) (uint32, error) {
		return c.Runtime.EnumerateSwapchainImages(sc, buf)
	})
	if err != nil {
		s.destroyTarget(&t)
		return ViewTarget{}, c.check("enumerate swapchain images", err)
	}
	t.Images = images

	fbs, err := s.graphics.CreateFramebuffers(len(images))
	if err != nil {
		s.destroyTarget(&t)
		return ViewTarget{}, fmt.Errorf("xr: create framebuffers: %w", err)
	}
	t.Framebuffers = fbs

	Logger().Debug("xr: swapchain created",
		"size", [2]uint32{t.Width, t.Height},
		"images", len(images))
	return t, nil
}

// Acquire acquires the next image of a view, waits for it and attaches
// it to the matching framebuffer. Wait timeouts are retried up to
// WithImageWaitAttempts times.
func (s *Swapchains) Acquire(view int) (ImageHandle, error) {
	if view < 0 || view >= len(s.targets) {
		return ImageHandle{}, fmt.Errorf("xr: view %d out of range", view)
	}
	t := &s.targets[view]
	if t.acquired {
		return ImageHandle{}, ErrImageAcquired
	}
	c := s.ctx

	idx, err := c.Runtime.AcquireSwapchainImage(t.Swapchain)
	if err != nil {
		return ImageHandle{}, c.check("acquire swapchain image", err)
	}
	if int(idx) >= len(t.Images) || int(idx) >= len(t.Framebuffers) {
		return ImageHandle{}, fmt.Errorf("xr: acquired image index %d out of range", idx)
	}
	t.acquired = true
	t.index = idx

	if err := s.wait(t.Swapchain); err != nil {
		return ImageHandle{}, err
	}

	h := ImageHandle{
		View:        view,
		Index:       idx,
		Image:       t.Images[idx],
		Framebuffer: t.Framebuffers[idx],
	}
	s.graphics.BindFramebuffer(h.Framebuffer)
	s.graphics.AttachImage(h.Framebuffer, h.Image, t.Width, t.Height)
	s.graphics.UnbindFramebuffer()
	return h, nil
}

func (s *Swapchains) wait(sc Swapchain) error {
	c := s.ctx
	var err error
	for range s.opts.imageWaitAttempts {
		err = c.Runtime.WaitSwapchainImage(sc, s.opts.imageWaitTimeout)
		if err == nil {
			return nil
		}
		if !errors.Is(err, TimeoutExpired) {
			return c.check("wait swapchain image", err)
		}
		Logger().Debug("xr: swapchain image wait timed out", "timeout", s.opts.imageWaitTimeout)
	}
	return c.check("wait swapchain image", err)
}

// Release releases the image acquired for view.
func (s *Swapchains) Release(view int) error {
	if view < 0 || view >= len(s.targets) {
		return fmt.Errorf("xr: view %d out of range", view)
	}
	t := &s.targets[view]
	if !t.acquired {
		return ErrImageNotAcquired
	}
	t.acquired = false
	if err := s.ctx.Runtime.ReleaseSwapchainImage(t.Swapchain); err != nil {
		return s.ctx.check("release swapchain image", err)
	}
	return nil
}

// Outstanding returns the number of acquired but unreleased images.
func (s *Swapchains) Outstanding() int {
	n := 0
	for i := range s.targets {
		if s.targets[i].acquired {
			n++
		}
	}
	return n
}

// Destroy releases every framebuffer and swapchain.
func (s *Swapchains) Destroy() {
	for i := range s.targets {
		s.destroyTarget(&s.targets[i])
	}
	s.targets = nil
}

func (s *Swapchains) destroyTarget(t *ViewTarget) {
	if len(t.Framebuffers) > 0 {
		s.graphics.DestroyFramebuffers(t.Framebuffers)
		t.Framebuffers = nil
	}
	if t.Swapchain != 0 {
		if err := s.ctx.Runtime.DestroySwapchain(t.Swapchain); err != nil {
			Logger().Warn("xr: destroy swapchain failed", "err", s.ctx.check("destroy swapchain", err))
		}
		t.Swapchain = 0
	}
	t.Images = nil
	t.acquired = false
}
