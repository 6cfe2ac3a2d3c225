package xr

import "math"

// Mat4 is a 4x4 matrix in column-major order: m[col][row].
// The translation of an affine transform lives in m[3][0..2], which is
// the layout GPU uniform buffers expect.
type Mat4 [4][4]float32

// Identity returns the identity matrix.
func Identity() Mat4 {
	return Mat4{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 0, 1, 0},
		{0, 0, 0, 1},
	}
}

// Translate creates a translation matrix.
func Translate(v Vector3f) Mat4 {
	m := Identity()
	m[3][0] = v.X
	m[3][1] = v.Y
	m[3][2] = v.Z
	return m
}

// Rotation creates a rotation matrix from a unit quaternion.
func Rotation(q Quaternionf) Mat4 {
	x, y, z, w := q.X, q.Y, q.Z, q.W
	return Mat4{
		{1 - 2*(y*y+z*z), 2 * (x*y + w*z), 2 * (x*z - w*y), 0},
		{2 * (x*y - w*z), 1 - 2*(x*x+z*z), 2 * (y*z + w*x), 0},
		{2 * (x*z + w*y), 2 * (y*z - w*x), 1 - 2*(x*x+y*y), 0},
		{0, 0, 0, 1},
	}
}

// RotationX creates a rotation of rad radians about +X.
func RotationX(rad float32) Mat4 {
	s, c := sincos32(rad)
	m := Identity()
	m[1][1], m[1][2] = c, s
	m[2][1], m[2][2] = -s, c
	return m
}

// RotationY creates a rotation of rad radians about +Y.
func RotationY(rad float32) Mat4 {
	s, c := sincos32(rad)
	m := Identity()
	m[0][0], m[0][2] = c, -s
	m[2][0], m[2][2] = s, c
	return m
}

// RotationZ creates a rotation of rad radians about +Z.
func RotationZ(rad float32) Mat4 {
	s, c := sincos32(rad)
	m := Identity()
	m[0][0], m[0][1] = c, s
	m[1][0], m[1][1] = -s, c
	return m
}

func sincos32(rad float32) (s, c float32) {
	s64, c64 := math.Sincos(float64(rad))
	return float32(s64), float32(c64)
}

// GripOffset moves a located grip pose to the origin of a controller
// model. Rotation holds X, Y and Z angles in degrees.
type GripOffset struct {
	Rotation Vector3f
	Origin   Vector3f
}

// IndexGripOffset matches the grip of the Valve Index controller model.
var IndexGripOffset = GripOffset{
	Rotation: Vector3f{X: 15.392, Y: 2.071, Z: 0.303},
	Origin:   Vector3f{Y: -0.015, Z: 0.13},
}

// Matrix returns the inverse grip transform: rotate by -Rotation about X,
// Y and Z in turn, then translate by -Origin. The zero offset yields the
// identity.
func (g GripOffset) Matrix() Mat4 {
	const deg = math.Pi / 180
	return RotationX(-g.Rotation.X * deg).
		Multiply(RotationY(-g.Rotation.Y * deg)).
		Multiply(RotationZ(-g.Rotation.Z * deg)).
		Multiply(Translate(Vector3f{X: -g.Origin.X, Y: -g.Origin.Y, Z: -g.Origin.Z}))
}

// PoseMatrix builds the model matrix of a pose: translation first, then
// rotation (T * R).
func PoseMatrix(p Posef) Mat4 {
	return Identity().Multiply(Translate(p.Position)).Multiply(Rotation(p.Orientation))
}

// Multiply returns m * other.
func (m Mat4) Multiply(other Mat4) Mat4 {
	var r Mat4
	for c := 0; c < 4; c++ {
		for row := 0; row < 4; row++ {
			var sum float32
			for k := 0; k < 4; k++ {
				sum += m[k][row] * other[c][k]
			}
			r[c][row] = sum
		}
	}
	return r
}

// TransformPoint applies m to a point (w = 1).
func (m Mat4) TransformPoint(p Vector3f) Vector3f {
	return Vector3f{
		X: m[0][0]*p.X + m[1][0]*p.Y + m[2][0]*p.Z + m[3][0],
		Y: m[0][1]*p.X + m[1][1]*p.Y + m[2][1]*p.Z + m[3][1],
		Z: m[0][2]*p.X + m[1][2]*p.Y + m[2][2]*p.Z + m[3][2],
	}
}

// ProjectPoint applies m to a point and divides by w. ok is false when
// the point lies on or behind the eye plane (w <= 0).
func (m Mat4) ProjectPoint(p Vector3f) (ndc Vector3f, ok bool) {
	w := m[0][3]*p.X + m[1][3]*p.Y + m[2][3]*p.Z + m[3][3]
	if w <= 0 {
		return Vector3f{}, false
	}
	v := m.TransformPoint(p)
	return Vector3f{X: v.X / w, Y: v.Y / w, Z: v.Z / w}, true
}

// Invert returns the inverse matrix.
// Returns the identity matrix if m is not invertible.
func (m Mat4) Invert() Mat4 {
	var a [16]float64
	for c := 0; c < 4; c++ {
		for r := 0; r < 4; r++ {
			a[c*4+r] = float64(m[c][r])
		}
	}

	var inv [16]float64
	inv[0] = a[5]*a[10]*a[15] - a[5]*a[11]*a[14] - a[9]*a[6]*a[15] + a[9]*a[7]*a[14] + a[13]*a[6]*a[11] - a[13]*a[7]*a[10]
	inv[4] = -a[4]*a[10]*a[15] + a[4]*a[11]*a[14] + a[8]*a[6]*a[15] - a[8]*a[7]*a[14] - a[12]*a[6]*a[11] + a[12]*a[7]*a[10]
	inv[8] = a[4]*a[9]*a[15] - a[4]*a[11]*a[13] - a[8]*a[5]*a[15] + a[8]*a[7]*a[13] + a[12]*a[5]*a[11] - a[12]*a[7]*a[9]
	inv[12] = -a[4]*a[9]*a[14] + a[4]*a[10]*a[13] + a[8]*a[5]*a[14] - a[8]*a[6]*a[13] - a[12]*a[5]*a[10] + a[12]*a[6]*a[9]
	inv[1] = -a[1]*a[10]*a[15] + a[1]*a[11]*a[14] + a[9]*a[2]*a[15] - a[9]*a[3]*a[14] - a[13]*a[2]*a[11] + a[13]*a[3]*a[10]
	inv[5] = a[0]*a[10]*a[15] - a[0]*a[11]*a[14] - a[8]*a[2]*a[15] + a[8]*a[3]*a[14] + a[12]*a[2]*a[11] - a[12]*a[3]*a[10]
	inv[9] = -a[0]*a[9]*a[15] + a[0]*a[11]*a[13] + a[8]*a[1]*a[15] - a[8]*a[3]*a[13] - a[12]*a[1]*a[11] + a[12]*a[3]*a[9]
	inv[13] = a[0]*a[9]*a[14] - a[0]*a[10]*a[13] - a[8]*a[1]*a[14] + a[8]*a[2]*a[13] + a[12]*a[1]*a[10] - a[12]*a[2]*a[9]
	inv[2] = a[1]*a[6]*a[15] - a[1]*a[7]*a[14] - a[5]*a[2]*a[15] + a[5]*a[3]*a[14] + a[13]*a[2]*a[7] - a[13]*a[3]*a[6]
	inv[6] = -a[0]*a[6]*a[15] + a[0]*a[7]*a[14] + a[4]*a[2]*a[15] - a[4]*a[3]*a[14] - a[12]*a[2]*a[7] + a[12]*a[3]*a[6]
	inv[10] = a[0]*a[5]*a[15] - a[0]*a[7]*a[13] - a[4]*a[1]*a[15] + a[4]*a[3]*a[13] + a[12]*a[1]*a[7] - a[12]*a[3]*a[5]
	inv[14] = -a[0]*a[5]*a[14] + a[0]*a[6]*a[13] + a[4]*a[1]*a[14] - a[4]*a[2]*a[13] - a[12]*a[1]*a[6] + a[12]*a[2]*a[5]
	inv[3] = -a[1]*a[6]*a[11] + a[1]*a[7]*a[10] + a[5]*a[2]*a[11] - a[5]*a[3]*a[10] - a[9]*a[2]*a[7] + a[9]*a[3]*a[6]
	inv[7] = a[0]*a[6]*a[11] - a[0]*a[7]*a[10] - a[4]*a[2]*a[11] + a[4]*a[3]*a[10] + a[8]*a[2]*a[7] - a[8]*a[3]*a[6]
	inv[11] = -a[0]*a[5]*a[11] + a[0]*a[7]*a[9] + a[4]*a[1]*a[11] - a[4]*a[3]*a[9] - a[8]*a[1]*a[7] + a[8]*a[3]*a[5]
	inv[15] = a[0]*a[5]*a[10] - a[0]*a[6]*a[9] - a[4]*a[1]*a[10] + a[4]*a[2]*a[9] + a[8]*a[1]*a[6] - a[8]*a[2]*a[5]

	det := a[0]*inv[0] + a[1]*inv[4] + a[2]*inv[8] + a[3]*inv[12]
	if math.Abs(det) < 1e-12 {
		return Identity()
	}

	invDet := 1.0 / det
	var r Mat4
	for c := 0; c < 4; c++ {
		for row := 0; row < 4; row++ {
			r[c][row] = float32(inv[c*4+row] * invDet)
		}
	}
	return r
}

// IsIdentity returns true if m is exactly the identity matrix.
func (m Mat4) IsIdentity() bool {
	return m == Identity()
}

// ApproxEqual reports whether every element of m and other differ by at
// most eps.
func (m Mat4) ApproxEqual(other Mat4, eps float32) bool {
	for c := 0; c < 4; c++ {
		for r := 0; r < 4; r++ {
			d := m[c][r] - other[c][r]
			if d > eps || d < -eps {
				return false
			}
		}
	}
	return true
}

// AsymmetricPerspective builds an off-axis OpenGL-style projection from
// the tangents of the four field-of-view half angles.
func AsymmetricPerspective(tanLeft, tanRight, tanUp, tanDown, nearZ, farZ float32) Mat4 {
	tanWidth := tanRight - tanLeft
	tanHeight := tanUp - tanDown
	offsetZ := nearZ

	var m Mat4
	m[0][0] = 2 / tanWidth
	m[2][0] = (tanRight + tanLeft) / tanWidth

	m[1][1] = 2 / tanHeight
	m[2][1] = (tanUp + tanDown) / tanHeight

	m[2][2] = -(farZ + offsetZ) / (farZ - nearZ)
	m[3][2] = -(farZ * (nearZ + offsetZ)) / (farZ - nearZ)

	m[2][3] = -1
	return m
}

// FovProjection builds the projection for a located view's field of view.
func FovProjection(fov Fovf, nearZ, farZ float32) Mat4 {
	return AsymmetricPerspective(
		tan32(fov.AngleLeft),
		tan32(fov.AngleRight),
		tan32(fov.AngleUp),
		tan32(fov.AngleDown),
		nearZ, farZ,
	)
}

func tan32(a float32) float32 { return float32(math.Tan(float64(a))) }
