package light

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
)

func TestIdentityTransform(t *testing.T) {
	b := UnitBox()
	got := IdentityTransform().Apply(b)
	assert.Equal(t, b, got)
}

func TestTransformTranslate(t *testing.T) {
	tr := IdentityTransform()
	tr.Location = mgl64.Vec3{2, 3, -1}

	got := tr.Apply(UnitBox())
	assert.InDelta(t, 1.5, got.Min.X(), 1e-9)
	assert.InDelta(t, 2.5, got.Max.X(), 1e-9)
	assert.InDelta(t, 2.5, got.Min.Y(), 1e-9)
	assert.InDelta(t, -1.5, got.Min.Z(), 1e-9)
}

func TestTransformScale(t *testing.T) {
	tr := IdentityTransform()
	tr.Scale = mgl64.Vec3{4, 2, 1}

	got := tr.Apply(UnitBox())
	assert.InDelta(t, 4.0, got.Size().X(), 1e-9)
	assert.InDelta(t, 2.0, got.Size().Y(), 1e-9)
	assert.InDelta(t, 1.0, got.Size().Z(), 1e-9)
	assert.InDelta(t, 0.0, got.Center().X(), 1e-9)
}

func TestTransformRotateYaw90(t *testing.T) {
	// A box elongated along X, yawed 90 degrees, ends up elongated along Z.
	tr := IdentityTransform()
	tr.Scale = mgl64.Vec3{10, 1, 1}
	tr.Rotation = mgl64.Vec3{0, 90, 0}

	got := tr.Apply(UnitBox())
	assert.InDelta(t, 1.0, got.Size().X(), 1e-9)
	assert.InDelta(t, 1.0, got.Size().Y(), 1e-9)
	assert.InDelta(t, 10.0, got.Size().Z(), 1e-9)
}

func TestTransformRotateThenTranslate(t *testing.T) {
	tr := IdentityTransform()
	tr.Rotation = mgl64.Vec3{0, 0, 45}
	tr.Location = mgl64.Vec3{100, 0, 0}

	got := tr.Apply(UnitBox())
	// Rotation happens about the origin, translation afterwards.
	assert.InDelta(t, 100.0, got.Center().X(), 1e-9)
	assert.InDelta(t, 0.0, got.Center().Y(), 1e-9)
}

func TestColorClamping(t *testing.T) {
	c := NewColor(-30, 1.5, -0.2)
	assert.InDelta(t, 330.0, c.H, 1e-9)
	assert.Equal(t, 1.0, c.S)
	assert.Equal(t, 0.0, c.L)
	assert.True(t, c.IsOff())

	c = NewColor(725, 0.5, 0.5)
	assert.InDelta(t, 5.0, c.H, 1e-9)
	assert.False(t, c.IsOff())
}

func TestColorRGB255(t *testing.T) {
	r, g, b := Color{}.RGB255()
	assert.Equal(t, uint8(0), r)
	assert.Equal(t, uint8(0), g)
	assert.Equal(t, uint8(0), b)

	r, g, b = NewColor(0, 0, 1).RGB255()
	assert.Equal(t, uint8(255), r)
	assert.Equal(t, uint8(255), g)
	assert.Equal(t, uint8(255), b)
}

func TestColorXy(t *testing.T) {
	_, _, brightness := NewColor(120, 1, 0.5).Xy()
	assert.InDelta(t, 50.0, brightness, 1e-9)

	x, y, _ := NewColor(0, 0, 1).Xy()
	// Desaturated colors sit near the white point.
	assert.InDelta(t, 0.3127, x, 0.01)
	assert.InDelta(t, 0.3290, y, 0.01)
}
