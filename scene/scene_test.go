package scene

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"lautenbacher.net/lumen/light"
)

func TestNewScene(t *testing.T) {
	s := New("Evening")
	assert.Equal(t, "Evening", s.Name)
	assert.NotEmpty(t, s.ID)

	other := New("Evening")
	assert.NotEqual(t, s.ID, other.ID, "ids must be unique")
}

func TestCloneIsIndependent(t *testing.T) {
	s := New("Party")
	s.Devices = append(s.Devices, light.DeviceInScene{Transform: light.IdentityTransform()})

	c := s.Clone()
	assert.Equal(t, s.ID, c.ID)
	assert.Len(t, c.Devices, 1)

	c.Devices = append(c.Devices, light.DeviceInScene{})
	c.Devices[0].Transform.Location[0] = 42

	assert.Len(t, s.Devices, 1, "clone growth must not leak back")
	assert.Equal(t, 0.0, s.Devices[0].Transform.Location.X(), "clone edits must not leak back")
}
