package light

import (
	"lautenbacher.net/lumen/store"
)

// UpdateParams is one backend's view into the per-tick flattened buffers:
// subslices of the worker-owned box/device/color arrays covering exactly
// the contiguous run of that backend's devices. The three views are always
// index aligned and of equal length; an empty view is a normal state for a
// backend with no devices in the active scene.
//
// The dirty flags report whether the buffer layout was rebuilt since the
// last update this backend saw. Colors are rewritten by effects every tick
// regardless.
type UpdateParams struct {
	Boxes   []Box
	Devices []Device
	Colors  []Color

	BoxesDirty   bool
	DevicesDirty bool
	ColorsDirty  bool
}

// Len returns the number of light points in the view.
func (p UpdateParams) Len() int {
	return len(p.Devices)
}

// Empty reports whether the view covers no devices.
func (p UpdateParams) Empty() bool {
	return len(p.Devices) == 0
}

// Provider is a backend driver: one instance per backend type. The engine
// starts all providers before spinning the tick worker and stops them after
// the worker has exited. Update is called once per tick, even when the view
// is empty or unchanged. It has no error return; transport errors are the
// provider's own to log, retry or drop.
type Provider interface {
	Type() ProviderType

	// Start and Stop own the device lifecycle. Both are idempotent under
	// the engine's calling discipline.
	Start() error
	Stop()

	// Compare orders two devices of this backend's type. Total order.
	Compare(a, b DeviceInScene) bool

	// Update consumes this backend's per-tick view.
	Update(params UpdateParams)

	// ResolveDevice maps a stored uid back to a live device, or nil.
	ResolveDevice(uid string) Device

	// Save and Load persist backend-specific state into the provider's own
	// section of the settings file.
	Save(settings *store.Settings) error
	Load(settings *store.Settings) error
}
