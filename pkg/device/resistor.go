package device

import (
	"github.com/nyquist-labs/spicekernel/internal/consts"
	"github.com/nyquist-labs/spicekernel/pkg/numeric"
	"github.com/nyquist-labs/spicekernel/pkg/spiceerr"
)

// Resistor stamps a symmetric conductance G = 1/R, adjusted for
// temperature the way the reference scales it at setup.
type Resistor struct {
	BaseDevice
	TempCoeff1  float64
	TempCoeff2  float64
	NominalTemp float64
}

// NewResistor rejects non-positive resistance at construction time
// per spec section 7 (InvalidComponent).
func NewResistor(name string, nodeNames []string, ohms float64) (*Resistor, error) {
	if len(nodeNames) != 2 {
		return nil, spiceerr.New(spiceerr.InvalidComponent, "resistor %s: requires exactly 2 nodes, got %d", name, len(nodeNames))
	}
	if ohms <= 0 {
		return nil, spiceerr.New(spiceerr.InvalidComponent, "resistor %s: resistance must be positive, got %v", name, ohms)
	}
	return &Resistor{
		BaseDevice:  NewBaseDevice(name, ohms, nodeNames),
		NominalTemp: consts.RoomTemp,
	}, nil
}

func (r *Resistor) Kind() Kind                 { return KindResistor }
func (r *Resistor) NeedsCurrentVariable() bool { return false }

func (r *Resistor) temperatureAdjusted(temp float64) float64 {
	dt := temp - r.NominalTemp
	factor := 1.0 + r.TempCoeff1*dt + r.TempCoeff2*dt*dt
	return r.Value * factor
}

func (r *Resistor) Stamp(m *numeric.Dense, ctx *Context) error {
	n1, n2 := r.NodeList[0], r.NodeList[1]
	g := 1.0 / r.temperatureAdjusted(ctx.Temp)

	m.AddElement(n1, n1, g)
	m.AddElement(n1, n2, -g)
	m.AddElement(n2, n1, -g)
	m.AddElement(n2, n2, g)
	return nil
}

func (r *Resistor) UpdateRHS(m *numeric.Dense, x []float64, t float64, ctx *Context) error {
	return nil
}
