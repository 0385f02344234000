package math3d

import (
	"fmt"
	"math"
)

// Matrix44 is a row-major affine transform. Vectors are multiplied as rows,
// so the translation lives in the fourth row.
type Matrix44 struct {
	m11, m12, m13, m14 float64
	m21, m22, m23, m24 float64
	m31, m32, m33, m34 float64
	m41, m42, m43, m44 float64
}

func MakeMatrix44(v Vector3, ea EulerAngles) *Matrix44 {
	m := &Matrix44{}
	m.SetRotation(ea)
	m.SetTranslation(v)
	return m
}

// RotationMatrix returns a matrix which only rotates, by the given angles.
func RotationMatrix(ea EulerAngles) Matrix44 {
	return *MakeMatrix44(ZeroVector3, ea)
}

func (m Matrix44) String() string {
	return fmt.Sprintf(
		"&M44{%+.4f %+.4f %+.4f %+.4f | %+.4f %+.4f %+.4f %+.4f | %+.4f %+.4f %+.4f %+.4f | %+.4f %+.4f %+.4f %+.4f}",
		m.m11, m.m12, m.m13, m.m14,
		m.m21, m.m22, m.m23, m.m24,
		m.m31, m.m32, m.m33, m.m34,
		m.m41, m.m42, m.m43, m.m44)
}

// Elements returns the matrix as a 4x4 array, mostly for tests and dumping.
func (m Matrix44) Elements() [4][4]float64 {
	return [4][4]float64{
		{m.m11, m.m12, m.m13, m.m14},
		{m.m21, m.m22, m.m23, m.m24},
		{m.m31, m.m32, m.m33, m.m34},
		{m.m41, m.m42, m.m43, m.m44},
	}
}

// SetRotation overwrites the rotation part of the matrix (and resets the
// translation) from the given Euler angles.
func (m *Matrix44) SetRotation(ea EulerAngles) {
	cy := math.Cos(ea.Heading)
	sy := math.Sin(ea.Heading)
	cx := math.Cos(ea.Pitch)
	sx := math.Sin(ea.Pitch)
	cz := math.Cos(ea.Bank)
	sz := math.Sin(ea.Bank)

	m.m11 = cy * cz
	m.m12 = (cx * sz) + ((sx * cz) * sy)
	m.m13 = (sx * sz) - ((cx * cz) * sy)
	m.m14 = 0

	m.m21 = -cy * sz
	m.m22 = (cx * cz) - ((sx * sz) * sy)
	m.m23 = (sx * cz) + ((cx * sz) * sy)
	m.m24 = 0

	m.m31 = sy
	m.m32 = -sx * cy
	m.m33 = cx * cy
	m.m34 = 0

	m.m41 = 0
	m.m42 = 0
	m.m43 = 0
	m.m44 = 1
}

// SetTranslation sets the translation of a matrix by overwriting the fourth
// row. Other cells are left alone.
func (m *Matrix44) SetTranslation(v Vector3) {
	m.m41 = v.X
	m.m42 = v.Y
	m.m43 = v.Z
}
