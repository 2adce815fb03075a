package device

import (
	"github.com/nyquist-labs/spicekernel/internal/consts"
	"github.com/nyquist-labs/spicekernel/pkg/numeric"
	"github.com/nyquist-labs/spicekernel/pkg/spiceerr"
)

const (
	SwitchOpen = iota
	SwitchClosed
)

// Switch is the ideal externally-commanded switch of spec section
// 4.2: boolean state, no controlling voltage of its own. Its state is
// changed through SetValue (0 -> open, nonzero -> closed), the same
// "mutable drive input" channel independent sources use for PWM gating.
type Switch struct {
	BaseDevice
	Ron   float64
	Roff  float64
	state int
}

var _ EventDevice = (*Switch)(nil)
var _ Settable = (*Switch)(nil)

func NewSwitch(name string, nodeNames []string, ron, roff float64) (*Switch, error) {
	if len(nodeNames) != 2 {
		return nil, spiceerr.New(spiceerr.InvalidComponent, "switch %s: requires exactly 2 nodes, got %d", name, len(nodeNames))
	}
	if roff <= ron {
		return nil, spiceerr.New(spiceerr.InvalidComponent, "switch %s: Roff (%v) must exceed Ron (%v)", name, roff, ron)
	}
	return &Switch{
		BaseDevice: NewBaseDevice(name, 0, nodeNames),
		Ron:        ron,
		Roff:       roff,
		state:      SwitchOpen,
	}, nil
}

func NewDefaultSwitch(name string, nodeNames []string) (*Switch, error) {
	return NewSwitch(name, nodeNames, consts.DefaultSwitchRon, consts.DefaultSwitchRoff)
}

func (s *Switch) Kind() Kind                 { return KindSwitch }
func (s *Switch) NeedsCurrentVariable() bool { return false }
func (s *Switch) Mode() int                  { return s.state }
func (s *Switch) SetMode(m int)              { s.state = m }
func (s *Switch) Priority() int              { return PrioritySwitch }

// SetValue treats any nonzero drive value as "closed" - the control
// map entry a PWM gate signal would write each step.
func (s *Switch) SetValue(v float64) {
	s.Value = v
	if v != 0 {
		s.state = SwitchClosed
	} else {
		s.state = SwitchOpen
	}
}

// ZeroCrossing has no physical meaning for an externally commanded
// switch (there is no voltage threshold); it always reports "no
// pending transition" so the event layer never tries to bisect it.
func (s *Switch) ZeroCrossing(nodeVoltages []float64) float64 { return 0 }

func (s *Switch) Stamp(m *numeric.Dense, ctx *Context) error {
	n1, n2 := s.NodeList[0], s.NodeList[1]

	var g float64
	if s.state == SwitchClosed {
		g = 1.0 / s.Ron
	} else {
		g = 1.0 / s.Roff
	}

	m.AddElement(n1, n1, g)
	m.AddElement(n1, n2, -g)
	m.AddElement(n2, n1, -g)
	m.AddElement(n2, n2, g)
	return nil
}

func (s *Switch) UpdateRHS(m *numeric.Dense, x []float64, t float64, ctx *Context) error { return nil }
