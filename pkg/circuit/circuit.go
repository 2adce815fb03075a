// Package circuit implements the circuit preprocessor of spec section
// 4.3: it turns a symbolic component list into the immutable simulation
// plan the transient integrator and DC solver both consume - node
// indexing, current-variable enumeration, state-variable registry, and
// the assembled base conductance matrix.
package circuit

import (
	"github.com/nyquist-labs/spicekernel/pkg/device"
	"github.com/nyquist-labs/spicekernel/pkg/spiceerr"
)

// groundAliases are the node names spec section 3 reserves as the
// reference node, excluded from the matrix entirely.
var groundAliases = map[string]bool{
	"0":   true,
	"gnd": true,
	"GND": true,
}

// Circuit is the programmatic builder of spec section 6: an ordered,
// append-only component list plus the preprocessing step that turns it
// into a Plan.
type Circuit struct {
	name       string
	components []device.Device
}

// New creates an empty, named circuit.
func New(name string) *Circuit {
	return &Circuit{name: name}
}

// AddComponent appends a single component to the circuit.
func (c *Circuit) AddComponent(d device.Device) {
	c.components = append(c.components, d)
}

// AddComponents appends a batch of components, preserving order.
func (c *Circuit) AddComponents(ds []device.Device) {
	c.components = append(c.components, ds...)
}

// Components returns the circuit's component list in insertion order.
// The slice is a copy; mutating it does not affect the circuit.
func (c *Circuit) Components() []device.Device {
	out := make([]device.Device, len(c.components))
	copy(out, c.components)
	return out
}

// Name returns the circuit's name.
func (c *Circuit) Name() string { return c.name }

// Preprocess runs the six-step plan of spec section 4.3 over the
// circuit's current component list. Preprocessing is idempotent:
// calling it twice on the same component list without mutating the
// components in between yields bit-identical buffers, since every
// assigned index is a pure function of component order.
func (c *Circuit) Preprocess(opts ...Option) (*Plan, error) {
	if len(c.components) == 0 {
		return nil, spiceerr.New(spiceerr.InvalidNetlist, "circuit %s: no components to preprocess", c.name)
	}
	return build(c.components, opts...)
}
