package light

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Transform places a device in scene space: scale first, then rotation
// (pitch/yaw/roll, in degrees), then translation. Pure value type.
type Transform struct {
	Location mgl64.Vec3
	Scale    mgl64.Vec3
	Rotation mgl64.Vec3
}

// IdentityTransform returns the no-op transform (unit scale).
func IdentityTransform() Transform {
	return Transform{Scale: mgl64.Vec3{1, 1, 1}}
}

// Apply maps a device-local box into scene space. Rotation is applied to
// the scaled corners and the result re-wrapped as an AABB.
func (t Transform) Apply(b Box) Box {
	scaled := Box{
		Min: mgl64.Vec3{b.Min.X() * t.Scale.X(), b.Min.Y() * t.Scale.Y(), b.Min.Z() * t.Scale.Z()},
		Max: mgl64.Vec3{b.Max.X() * t.Scale.X(), b.Max.Y() * t.Scale.Y(), b.Max.Z() * t.Scale.Z()},
	}
	if t.Rotation == (mgl64.Vec3{}) {
		return Box{Min: scaled.Min.Add(t.Location), Max: scaled.Max.Add(t.Location)}
	}
	rot := mgl64.AnglesToQuat(
		mgl64.DegToRad(t.Rotation.X()),
		mgl64.DegToRad(t.Rotation.Y()),
		mgl64.DegToRad(t.Rotation.Z()),
		mgl64.XYZ,
	)
	corners := scaled.corners()
	for i, c := range corners {
		corners[i] = rot.Rotate(c).Add(t.Location)
	}
	return wrap(corners)
}
