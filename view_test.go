package xr

import (
	"math"
	"testing"
)

func quarterFov() Fovf {
	q := float32(math.Pi / 4)
	return Fovf{AngleLeft: -q, AngleRight: q, AngleUp: q, AngleDown: -q}
}

func TestComposerProjectionUnitScale(t *testing.T) {
	c := NewComposer(2, 0, 0)
	if n, f := c.ClipPlanes(); n != DefaultNearZ || f != DefaultFarZ {
		t.Errorf("ClipPlanes() = %v, %v; want defaults", n, f)
	}
	m := c.Projection(quarterFov())
	if abs32(m[0][0]-1) > eps || abs32(m[1][1]-1) > eps {
		t.Errorf("projection scale = (%v, %v), want (1, 1)", m[0][0], m[1][1])
	}
}

func TestComposerComposeHistory(t *testing.T) {
	c := NewComposer(2, 0.1, 100)
	pose := Posef{Orientation: Quaternionf{W: 1}, Position: Vector3f{X: 0.032}}
	view := View{Pose: pose, Fov: quarterFov()}

	var first ViewFrame
	c.Compose(1, view, Identity(), &first)
	if !first.PreviousInverseModel.IsIdentity() {
		t.Errorf("first frame history = %v, want identity", first.PreviousInverseModel)
	}
	if first.Index != 1 {
		t.Errorf("Index = %d, want 1", first.Index)
	}

	var second ViewFrame
	c.Compose(1, view, Identity(), &second)
	want := first.Model.Invert()
	if !second.PreviousInverseModel.ApproxEqual(want, eps) {
		t.Errorf("second frame history = %v, want %v", second.PreviousInverseModel, want)
	}
	if !c.PreviousInverseModel(0).IsIdentity() {
		t.Error("view 0 history changed by composing view 1")
	}
}

func TestComposerOriginApplied(t *testing.T) {
	c := NewComposer(2, 0.1, 100)
	origin := Translate(Vector3f{Y: 1.7})
	view := View{Pose: Posef{Orientation: Quaternionf{W: 1}, Position: Vector3f{X: 1}}, Fov: quarterFov()}

	var f ViewFrame
	c.Compose(0, view, origin, &f)
	got := f.Model.TransformPoint(Vector3f{})
	if abs32(got.X-1) > eps || abs32(got.Y-1.7) > eps {
		t.Errorf("eye position = %v, want (1, 1.7, 0)", got)
	}
}

func TestComposerGrowsHistory(t *testing.T) {
	c := NewComposer(0, 0.1, 100)
	var f ViewFrame
	c.Compose(3, View{Pose: IdentityPose(), Fov: quarterFov()}, Identity(), &f)
	for i := 0; i < 3; i++ {
		if !c.PreviousInverseModel(i).IsIdentity() {
			t.Errorf("PreviousInverseModel(%d) not identity", i)
		}
	}
}

func TestLayerViewFullRect(t *testing.T) {
	v := View{Pose: IdentityPose(), Fov: quarterFov()}
	lv := LayerView(v, 7, 1440, 1600)
	r := lv.SubImage.ImageRect
	if r.Offset.X != 0 || r.Offset.Y != 0 || r.Extent.Width != 1440 || r.Extent.Height != 1600 {
		t.Errorf("ImageRect = %+v, want full 1440x1600", r)
	}
	if lv.SubImage.Swapchain != 7 || lv.Fov != v.Fov {
		t.Errorf("LayerView = %+v", lv)
	}
}
