package device

import (
	"github.com/nyquist-labs/spicekernel/pkg/numeric"
	"github.com/nyquist-labs/spicekernel/pkg/spiceerr"
	"github.com/nyquist-labs/spicekernel/pkg/waveform"
)

// VoltageSource is an independent voltage source: spec section 4.2
// requires an auxiliary current variable i_V and stamps the +1/-1
// incidence pair in its row and column. The reference left PULSE and
// PWL unimplemented on the voltage-source path (only its current-source
// sibling had them) - here both share the same waveform.Descriptor, so
// every encoding works on both source types.
type VoltageSource struct {
	BaseDevice
	Waveform waveform.Descriptor
}

var _ Settable = (*VoltageSource)(nil)
var _ BranchCurrentSource = (*VoltageSource)(nil)

func NewVoltageSource(name string, nodeNames []string, wf waveform.Descriptor) (*VoltageSource, error) {
	if len(nodeNames) != 2 {
		return nil, spiceerr.New(spiceerr.InvalidComponent, "voltage source %s: requires exactly 2 nodes, got %d", name, len(nodeNames))
	}
	return &VoltageSource{
		BaseDevice: NewBaseDevice(name, wf.Eval(0), nodeNames),
		Waveform:   wf,
	}, nil
}

func (v *VoltageSource) Kind() Kind                 { return KindVoltageSource }
func (v *VoltageSource) NeedsCurrentVariable() bool { return true }

func (v *VoltageSource) Stamp(m *numeric.Dense, ctx *Context) error {
	n1, n2 := v.NodeList[0], v.NodeList[1]
	bIdx := v.BranchIndex()

	m.AddElement(bIdx, n1, 1)
	m.AddElement(n1, bIdx, 1)
	m.AddElement(bIdx, n2, -1)
	m.AddElement(n2, bIdx, -1)
	return nil
}

func (v *VoltageSource) UpdateRHS(m *numeric.Dense, x []float64, t float64, ctx *Context) error {
	m.AddRHS(v.BranchIndex(), v.Waveform.Eval(t))
	return nil
}

// SetValue overrides the source with a fixed DC value, the "mutable
// drive input" channel spec section 9 calls for (PWM gate drive).
func (v *VoltageSource) SetValue(value float64) {
	v.Value = value
	v.Waveform = waveform.NewDC(value)
}
