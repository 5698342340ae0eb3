package light

import (
	"strings"
)

// ProviderType tags every device and provider with the backend it belongs
// to. The tag doubles as the prefix of every device uid, so a uid alone is
// enough to route a stored device back to its provider.
type ProviderType string

const (
	ProviderHue   ProviderType = "hue"
	ProviderMQTT  ProviderType = "mqtt"
	ProviderStrip ProviderType = "strip"
	ProviderTerm  ProviderType = "term"
)

// MakeUID builds the canonical unique id for a device of the given type.
func MakeUID(t ProviderType, rest string) string {
	return string(t) + "-" + rest
}

// ProviderTypeFromUID derives the backend type from a device uid. An id
// without the type prefix yields the empty type, which no provider claims.
func ProviderTypeFromUID(uid string) ProviderType {
	t, _, found := strings.Cut(uid, "-")
	if !found {
		return ""
	}
	return ProviderType(t)
}

// Device is a handle to one physical light unit. Devices are owned by
// their provider; scenes only reference them and must tolerate the
// provider dropping the referent.
type Device interface {
	// UID is globally unique and starts with the provider type tag.
	UID() string
	Type() ProviderType
	// LightBoundingBoxes returns the device-local emission volumes, one
	// per addressable light point. The count may change between calls.
	LightBoundingBoxes() []Box
}

// Less is the generic device ordering: by backend type, then by uid. It is
// only used to order devices of differing backend types deterministically;
// same-type ordering is the provider's business.
func Less(a, b Device) bool {
	if ta, tb := a.Type(), b.Type(); ta != tb {
		return ta < tb
	}
	return a.UID() < b.UID()
}

// DeviceInScene pairs a (shared, non-owning) device reference with its
// placement in the scene.
type DeviceInScene struct {
	Device    Device
	Transform Transform
}

// LightBoundingBoxes returns the device's emission volumes mapped into
// scene space. A stale entry (nil device) yields nothing.
func (d DeviceInScene) LightBoundingBoxes() []Box {
	if d.Device == nil {
		return nil
	}
	local := d.Device.LightBoundingBoxes()
	if len(local) == 0 {
		return nil
	}
	out := make([]Box, len(local))
	for i, b := range local {
		out[i] = d.Transform.Apply(b)
	}
	return out
}
