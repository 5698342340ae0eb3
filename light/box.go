package light

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Box is an axis-aligned volume in which a device emits light. Boxes are
// the addressing unit for colors: the flattened color buffer is index
// aligned with the flattened box buffer.
type Box struct {
	Min mgl64.Vec3
	Max mgl64.Vec3
}

// UnitBox is the canonical device-local emission volume of a single light
// point: a cube of edge length 1 centered on the origin.
func UnitBox() Box {
	return Box{
		Min: mgl64.Vec3{-0.5, -0.5, -0.5},
		Max: mgl64.Vec3{0.5, 0.5, 0.5},
	}
}

// Center returns the box midpoint.
func (b Box) Center() mgl64.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Size returns the edge lengths.
func (b Box) Size() mgl64.Vec3 {
	return b.Max.Sub(b.Min)
}

// corners returns the eight corner points.
func (b Box) corners() [8]mgl64.Vec3 {
	var out [8]mgl64.Vec3
	i := 0
	for _, x := range [2]float64{b.Min.X(), b.Max.X()} {
		for _, y := range [2]float64{b.Min.Y(), b.Max.Y()} {
			for _, z := range [2]float64{b.Min.Z(), b.Max.Z()} {
				out[i] = mgl64.Vec3{x, y, z}
				i++
			}
		}
	}
	return out
}

// wrap returns the smallest Box containing all points.
func wrap(points [8]mgl64.Vec3) Box {
	box := Box{Min: points[0], Max: points[0]}
	for _, p := range points[1:] {
		for axis := 0; axis < 3; axis++ {
			if p[axis] < box.Min[axis] {
				box.Min[axis] = p[axis]
			}
			if p[axis] > box.Max[axis] {
				box.Max[axis] = p[axis]
			}
		}
	}
	return box
}
