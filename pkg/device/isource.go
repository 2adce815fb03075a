package device

import (
	"github.com/nyquist-labs/spicekernel/pkg/numeric"
	"github.com/nyquist-labs/spicekernel/pkg/spiceerr"
	"github.com/nyquist-labs/spicekernel/pkg/waveform"
)

// CurrentSource is an independent current source: it stamps nothing
// into G and contributes +/-value on the RHS of its two nodes.
// Current is defined flowing from node 2 into node 1 through the
// source.
type CurrentSource struct {
	BaseDevice
	Waveform waveform.Descriptor
}

var _ Settable = (*CurrentSource)(nil)

func NewCurrentSource(name string, nodeNames []string, wf waveform.Descriptor) (*CurrentSource, error) {
	if len(nodeNames) != 2 {
		return nil, spiceerr.New(spiceerr.InvalidComponent, "current source %s: requires exactly 2 nodes, got %d", name, len(nodeNames))
	}
	return &CurrentSource{
		BaseDevice: NewBaseDevice(name, wf.Eval(0), nodeNames),
		Waveform:   wf,
	}, nil
}

func (i *CurrentSource) Kind() Kind                 { return KindCurrentSource }
func (i *CurrentSource) NeedsCurrentVariable() bool { return false }

func (i *CurrentSource) Stamp(m *numeric.Dense, ctx *Context) error { return nil }

func (i *CurrentSource) UpdateRHS(m *numeric.Dense, x []float64, t float64, ctx *Context) error {
	n1, n2 := i.NodeList[0], i.NodeList[1]
	current := i.Waveform.Eval(t)
	m.AddRHS(n1, current)
	m.AddRHS(n2, -current)
	return nil
}

func (i *CurrentSource) SetValue(value float64) {
	i.Value = value
	i.Waveform = waveform.NewDC(value)
}
