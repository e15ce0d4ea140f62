package types

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// A 4x4 column-major transformation matrix.
type Mat4 mgl32.Mat4

// Create identity matrix.
func Ident4() Mat4 {
	return Mat4(mgl32.Ident4())
}

// Create a translation matrix.
func Translate4(t Vec3) Mat4 {
	return Mat4(mgl32.Translate3D(t[0], t[1], t[2]))
}

// Create a scale matrix.
func Scale4(s Vec3) Mat4 {
	return Mat4(mgl32.Scale3D(s[0], s[1], s[2]))
}

// Create a rotation matrix from yaw (Y), pitch (X) and roll (Z) angles in radians.
func Rotate4(yaw, pitch, roll float32) Mat4 {
	q := mgl32.AnglesToQuat(yaw, pitch, roll, mgl32.YXZ)
	return Mat4(q.Normalize().Mat4())
}

// Create a rotation matrix from a unit quaternion stored as x, y, z, w.
func QuatRotate4(xyzw [4]float32) Mat4 {
	q := mgl32.Quat{W: xyzw[3], V: mgl32.Vec3{xyzw[0], xyzw[1], xyzw[2]}}
	return Mat4(q.Normalize().Mat4())
}

// Compose a translate * rotate * scale transformation.
func TRS(translation Vec3, rotation Mat4, scale Vec3) Mat4 {
	return Translate4(translation).Mul4(rotation).Mul4(Scale4(scale))
}

// Multiply two matrices.
func (m Mat4) Mul4(m2 Mat4) Mat4 {
	return Mat4(mgl32.Mat4(m).Mul4(mgl32.Mat4(m2)))
}

// Get matrix inverse. A singular matrix yields the zero matrix.
func (m Mat4) Inv() Mat4 {
	return Mat4(mgl32.Mat4(m).Inv())
}

// Get matrix transpose.
func (m Mat4) Transpose() Mat4 {
	return Mat4(mgl32.Mat4(m).Transpose())
}

// Transform a point (w = 1).
func (m Mat4) MulPoint(p Vec3) Vec3 {
	v := mgl32.Mat4(m).Mul4x1(mgl32.Vec4{p[0], p[1], p[2], 1})
	if w := v[3]; w != 1 && w != 0 {
		return Vec3{v[0] / w, v[1] / w, v[2] / w}
	}
	return Vec3{v[0], v[1], v[2]}
}

// Transform a direction (w = 0).
func (m Mat4) MulDir(d Vec3) Vec3 {
	v := mgl32.Mat4(m).Mul4x1(mgl32.Vec4{d[0], d[1], d[2], 0})
	return Vec3{v[0], v[1], v[2]}
}

// Get the matrix for transforming normals (inverse transpose).
func (m Mat4) NormalMat() Mat4 {
	return m.Inv().Transpose()
}

// Returns true if m is the identity matrix.
func (m Mat4) IsIdent() bool {
	ident := Ident4()
	for i := range m {
		if math32.Abs(m[i]-ident[i]) > floatCmpEpsilon {
			return false
		}
	}
	return true
}

// Convert a column-major float64 matrix (e.g. from an asset file) to a Mat4.
func Mat4FromFloat64(m [16]float64) Mat4 {
	var out Mat4
	for i, v := range m {
		out[i] = float32(v)
	}
	return out
}
