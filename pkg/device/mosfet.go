package device

import (
	"github.com/nyquist-labs/spicekernel/internal/consts"
	"github.com/nyquist-labs/spicekernel/pkg/numeric"
	"github.com/nyquist-labs/spicekernel/pkg/spiceerr"
)

const (
	MOSCutoff = iota
	MOSLinear
	MOSSaturation
)

// MOSFET is the event-driven three-region device of spec section 4.2:
// an n-channel square-law model with nodes (gate, drain, source). This
// is deliberately far smaller than the reference's many-parameter
// Level 1-3 BSIM-style model (that model belongs to a SPICE device
// library, not the closed component set this specification defines);
// the region logic and the saturation companion linearization follow
// the same stamp-from-operating-point shape, parameterized by
// (Vth, Kp, Lambda, RdsOn) instead.
//
// Stamp's contract (spec section 4.2) does not pass node voltages, so
// the saturation-region companion conductance and equivalent current
// are computed once per step in Resolve (which the event layer always
// calls with the latest node voltages before re-stamping) and cached
// here for Stamp/UpdateRHS to read back.
type MOSFET struct {
	BaseDevice
	Vth          float64
	Kp           float64
	Lambda       float64
	RdsOn        float64
	region       int
	gateOverride bool
	externalGate float64

	satGds float64
	satIeq float64
}

var _ EventDevice = (*MOSFET)(nil)
var _ Settable = (*MOSFET)(nil)

// NewMOSFET builds an n-channel device over (gate, drain, source).
func NewMOSFET(name string, nodeNames []string, vth, kp, lambda float64) (*MOSFET, error) {
	if len(nodeNames) != 3 {
		return nil, spiceerr.New(spiceerr.InvalidComponent, "MOSFET %s: requires exactly 3 nodes (gate, drain, source), got %d", name, len(nodeNames))
	}
	if kp <= 0 {
		return nil, spiceerr.New(spiceerr.InvalidComponent, "MOSFET %s: Kp must be positive, got %v", name, kp)
	}
	return &MOSFET{
		BaseDevice: NewBaseDevice(name, vth, nodeNames),
		Vth:        vth,
		Kp:         kp,
		Lambda:     lambda,
		RdsOn:      consts.DefaultMosfetRdsOn,
		region:     MOSCutoff,
	}, nil
}

func (q *MOSFET) Kind() Kind                 { return KindMOSFET }
func (q *MOSFET) NeedsCurrentVariable() bool { return false }
func (q *MOSFET) Mode() int                  { return q.region }
func (q *MOSFET) SetMode(m int)              { q.region = m }
func (q *MOSFET) Priority() int              { return PriorityMOSFET }

// SetValue switches the device into externally-commanded (switch-like)
// mode, overriding the gate node voltage with a fixed drive value -
// the PWM path spec section 4.2 calls for.
func (q *MOSFET) SetValue(v float64) {
	q.gateOverride = true
	q.externalGate = v
}

func (q *MOSFET) gateVoltage(nodeVoltages []float64) float64 {
	if q.gateOverride {
		return q.externalGate
	}
	return nodeAt(nodeVoltages, q.NodeList[0])
}

// ZeroCrossing reports the cutoff/conducting boundary Vgs - Vth; the
// event layer bisects on this to land exactly at the turn-on instant.
func (q *MOSFET) ZeroCrossing(nodeVoltages []float64) float64 {
	vgs := q.gateVoltage(nodeVoltages) - nodeAt(nodeVoltages, q.NodeList[2])
	return vgs - q.Vth
}

// Resolve determines the operating region from the last solved node
// voltages, updates q.region, and - in saturation - caches the
// linearized companion conductance/current the next Stamp/UpdateRHS
// call will use. Called by the event layer before each re-stamp.
func (q *MOSFET) Resolve(nodeVoltages []float64) {
	drain, source := q.NodeList[1], q.NodeList[2]
	vgs := q.gateVoltage(nodeVoltages) - nodeAt(nodeVoltages, source)
	vds := nodeAt(nodeVoltages, drain) - nodeAt(nodeVoltages, source)
	vov := vgs - q.Vth

	switch {
	case vov <= 0:
		q.region = MOSCutoff
	case vds < vov:
		q.region = MOSLinear
	default:
		q.region = MOSSaturation
		id0 := 0.5 * q.Kp * vov * vov * (1 + q.Lambda*vds)
		q.satGds = 0.5 * q.Kp * vov * vov * q.Lambda
		q.satIeq = id0 - q.satGds*vds
	}
}

func (q *MOSFET) Stamp(m *numeric.Dense, ctx *Context) error {
	drain, source := q.NodeList[1], q.NodeList[2]

	var g float64
	switch q.region {
	case MOSCutoff:
		g = 1.0 / consts.DefaultMosfetRoff
	case MOSLinear:
		g = 1.0 / q.RdsOn
	case MOSSaturation:
		g = q.satGds
	}

	m.AddElement(drain, drain, g)
	m.AddElement(drain, source, -g)
	m.AddElement(source, drain, -g)
	m.AddElement(source, source, g)
	return nil
}

// UpdateRHS contributes the saturation-region equivalent current
// source; cutoff and linear have no RHS term.
func (q *MOSFET) UpdateRHS(m *numeric.Dense, x []float64, t float64, ctx *Context) error {
	if q.region != MOSSaturation {
		return nil
	}
	drain, source := q.NodeList[1], q.NodeList[2]
	m.AddRHS(drain, -q.satIeq)
	m.AddRHS(source, q.satIeq)
	return nil
}
