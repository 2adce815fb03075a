package device

import (
	"github.com/nyquist-labs/spicekernel/internal/consts"
	"github.com/nyquist-labs/spicekernel/pkg/numeric"
	"github.com/nyquist-labs/spicekernel/pkg/spiceerr"
)

const (
	DiodeOff = iota
	DiodeOn
)

// Diode is the ideal event-driven device of spec section 4.2: OFF
// stamps R_off, ON stamps R_on plus a Thevenin-equivalent forward-drop
// source. This replaces the reference's exponential Shockley-equation
// Newton-Raphson model, which spec section 4.2 does not call for.
type Diode struct {
	BaseDevice
	Vf   float64
	Ron  float64
	Roff float64
	mode int
}

var _ EventDevice = (*Diode)(nil)

func NewDiode(name string, nodeNames []string, vf, ron, roff float64) (*Diode, error) {
	if len(nodeNames) != 2 {
		return nil, spiceerr.New(spiceerr.InvalidComponent, "diode %s: requires exactly 2 nodes (anode, cathode), got %d", name, len(nodeNames))
	}
	if vf < 0 {
		return nil, spiceerr.New(spiceerr.InvalidComponent, "diode %s: forward voltage must be non-negative, got %v", name, vf)
	}
	if roff <= ron {
		return nil, spiceerr.New(spiceerr.InvalidComponent, "diode %s: Roff (%v) must exceed Ron (%v)", name, roff, ron)
	}
	return &Diode{
		BaseDevice: NewBaseDevice(name, vf, nodeNames),
		Vf:         vf,
		Ron:        ron,
		Roff:       roff,
		mode:       DiodeOff,
	}, nil
}

func NewDefaultDiode(name string, nodeNames []string) (*Diode, error) {
	return NewDiode(name, nodeNames, consts.DefaultDiodeVf, consts.DefaultDiodeRon, consts.DefaultDiodeRoff)
}

func (d *Diode) Kind() Kind                 { return KindDiode }
func (d *Diode) NeedsCurrentVariable() bool { return false }
func (d *Diode) Mode() int                  { return d.mode }
func (d *Diode) SetMode(m int)              { d.mode = m }
func (d *Diode) Priority() int              { return PriorityDiode }

// ZeroCrossing is f(V_anode, V_cathode) = V_anode - V_cathode - V_f; a
// sign change indicates the diode should switch mode.
func (d *Diode) ZeroCrossing(nodeVoltages []float64) float64 {
	anode, cathode := d.NodeList[0], d.NodeList[1]
	vAnode, vCathode := nodeAt(nodeVoltages, anode), nodeAt(nodeVoltages, cathode)
	return vAnode - vCathode - d.Vf
}

func (d *Diode) Stamp(m *numeric.Dense, ctx *Context) error {
	anode, cathode := d.NodeList[0], d.NodeList[1]

	var g float64
	if d.mode == DiodeOn {
		g = 1.0 / d.Ron
	} else {
		g = 1.0 / d.Roff
	}

	m.AddElement(anode, anode, g)
	m.AddElement(anode, cathode, -g)
	m.AddElement(cathode, anode, -g)
	m.AddElement(cathode, cathode, g)
	return nil
}

// UpdateRHS contributes the forward-drop Thevenin source when ON:
// a diode conducting with V=Vf+Ron*I is equivalent, for the constant
// conductance g=1/Ron already stamped, to an extra current of g*Vf
// pushed from cathode to anode.
func (d *Diode) UpdateRHS(m *numeric.Dense, x []float64, t float64, ctx *Context) error {
	if d.mode != DiodeOn {
		return nil
	}
	anode, cathode := d.NodeList[0], d.NodeList[1]
	g := 1.0 / d.Ron
	m.AddRHS(anode, g*d.Vf)
	m.AddRHS(cathode, -g*d.Vf)
	return nil
}
