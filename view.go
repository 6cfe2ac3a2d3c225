package xr

// Composer turns located views into per-eye matrices and the projection
// views of the composition layer. It keeps each view's inverse model
// matrix from the previous frame.
type Composer struct {
	nearZ, farZ float32
	previous    []Mat4
}

// NewComposer returns a composer for viewCount views. A zero or invalid
// clip range falls back to DefaultNearZ and DefaultFarZ.
func NewComposer(viewCount int, nearZ, farZ float32) *Composer {
	if nearZ <= 0 || farZ <= nearZ {
		nearZ, farZ = DefaultNearZ, DefaultFarZ
	}
	c := &Composer{nearZ: nearZ, farZ: farZ}
	c.Reset(viewCount)
	return c
}

// Reset sizes the history for viewCount views, all set to identity.
func (c *Composer) Reset(viewCount int) {
	c.previous = make([]Mat4, viewCount)
	for i := range c.previous {
		c.previous[i] = Identity()
	}
}

// ClipPlanes returns the near and far clip distances.
func (c *Composer) ClipPlanes() (nearZ, farZ float32) { return c.nearZ, c.farZ }

// Projection returns the off-axis projection for a field of view.
func (c *Composer) Projection(fov Fovf) Mat4 {
	return FovProjection(fov, c.nearZ, c.farZ)
}

// PreviousInverseModel returns the inverse model stored for view i.
func (c *Composer) PreviousInverseModel(i int) Mat4 {
	if i < 0 || i >= len(c.previous) {
		return Identity()
	}
	return c.previous[i]
}

// Compose fills the matrices of frame for view i and records the new
// inverse model as the history of that view. The model is
// origin * translate(position) * rotate(orientation).
func (c *Composer) Compose(i int, view View, origin Mat4, frame *ViewFrame) {
	for len(c.previous) <= i {
		c.previous = append(c.previous, Identity())
	}
	model := origin.Multiply(PoseMatrix(view.Pose))

	frame.Index = i
	frame.Projection = c.Projection(view.Fov)
	frame.Model = model
	frame.PreviousInverseModel = c.previous[i]

	c.previous[i] = model.Invert()
}

// LayerView returns the projection view submitted for view i. The
// sub-image covers the view's full recommended rect.
func LayerView(view View, sc Swapchain, width, height uint32) CompositionLayerProjectionView {
	return CompositionLayerProjectionView{
		Pose: view.Pose,
		Fov:  view.Fov,
		SubImage: SwapchainSubImage{
			Swapchain: sc,
			ImageRect: Rect2Di{
				Extent: Extent2Di{Width: int32(width), Height: int32(height)},
			},
		},
	}
}
