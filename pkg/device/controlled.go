package device

import (
	"github.com/nyquist-labs/spicekernel/pkg/numeric"
	"github.com/nyquist-labs/spicekernel/pkg/spiceerr"
)

// VCVS is a voltage-controlled voltage source: V(out1,out2) =
// gain * V(ctrl1,ctrl2). It requires an auxiliary current variable,
// the same incidence pattern as an independent voltage source, with
// the RHS replaced by a gain-scaled row against the control nodes.
type VCVS struct {
	BaseDevice
	OutNodes  []int
	CtrlNodes []int
	Gain      float64
}

var _ BranchCurrentSource = (*VCVS)(nil)

func NewVCVS(name string, outNodes, ctrlNodes []string, gain float64) (*VCVS, error) {
	if len(outNodes) != 2 || len(ctrlNodes) != 2 {
		return nil, spiceerr.New(spiceerr.InvalidComponent, "VCVS %s: requires 2 output and 2 control nodes", name)
	}
	allNames := append(append([]string{}, outNodes...), ctrlNodes...)
	return &VCVS{
		BaseDevice: NewBaseDevice(name, gain, allNames),
		Gain:       gain,
	}, nil
}

func (e *VCVS) Kind() Kind                 { return KindVCVS }
func (e *VCVS) NeedsCurrentVariable() bool { return true }

// resolveSplit is shared by VCVS/VCCS: BaseDevice.NodeList is resolved
// once, in the order the constructor listed the names (out1,out2,ctrl1,ctrl2).
func (e *VCVS) resolveSplit() (out1, out2, c1, c2 int) {
	n := e.NodeList
	return n[0], n[1], n[2], n[3]
}

func (e *VCVS) Stamp(m *numeric.Dense, ctx *Context) error {
	out1, out2, c1, c2 := e.resolveSplit()
	bIdx := e.BranchIndex()

	m.AddElement(out1, bIdx, 1)
	m.AddElement(out2, bIdx, -1)
	m.AddElement(bIdx, out1, 1)
	m.AddElement(bIdx, out2, -1)
	m.AddElement(bIdx, c1, -e.Gain)
	m.AddElement(bIdx, c2, e.Gain)
	return nil
}

func (e *VCVS) UpdateRHS(m *numeric.Dense, x []float64, t float64, ctx *Context) error { return nil }

// VCCS is a voltage-controlled current source: I(out1,out2) =
// gain * V(ctrl1,ctrl2), drawn out of out1 and delivered into out2
// through the source. It needs no
// auxiliary unknown: the controlling voltage is just two more
// off-diagonal conductance entries.
type VCCS struct {
	BaseDevice
	Gain float64
}

func NewVCCS(name string, outNodes, ctrlNodes []string, gain float64) (*VCCS, error) {
	if len(outNodes) != 2 || len(ctrlNodes) != 2 {
		return nil, spiceerr.New(spiceerr.InvalidComponent, "VCCS %s: requires 2 output and 2 control nodes", name)
	}
	allNames := append(append([]string{}, outNodes...), ctrlNodes...)
	return &VCCS{
		BaseDevice: NewBaseDevice(name, gain, allNames),
		Gain:       gain,
	}, nil
}

func (e *VCCS) Kind() Kind                 { return KindVCCS }
func (e *VCCS) NeedsCurrentVariable() bool { return false }

func (e *VCCS) Stamp(m *numeric.Dense, ctx *Context) error {
	n := e.NodeList
	out1, out2, c1, c2 := n[0], n[1], n[2], n[3]

	m.AddElement(out1, c1, e.Gain)
	m.AddElement(out1, c2, -e.Gain)
	m.AddElement(out2, c1, -e.Gain)
	m.AddElement(out2, c2, e.Gain)
	return nil
}

func (e *VCCS) UpdateRHS(m *numeric.Dense, x []float64, t float64, ctx *Context) error { return nil }

// CCVS is a current-controlled voltage source: V(out1,out2) =
// gain * I(monitored), where the monitored element is a branch-current-
// bearing device (a voltage source or an inductor in its companion
// form). It requires its own auxiliary current variable in addition to
// reading the monitored branch row.
type CCVS struct {
	BaseDevice
	Gain      float64
	monitored BranchCurrentSource
}

var _ BranchCurrentSource = (*CCVS)(nil)

func NewCCVS(name string, outNodes []string, monitored BranchCurrentSource, gain float64) (*CCVS, error) {
	if len(outNodes) != 2 {
		return nil, spiceerr.New(spiceerr.InvalidComponent, "CCVS %s: requires 2 output nodes", name)
	}
	if monitored == nil {
		return nil, spiceerr.New(spiceerr.InvalidComponent, "CCVS %s: monitored element must carry a branch current", name)
	}
	return &CCVS{
		BaseDevice: NewBaseDevice(name, gain, outNodes),
		Gain:       gain,
		monitored:  monitored,
	}, nil
}

func (e *CCVS) Kind() Kind                 { return KindCCVS }
func (e *CCVS) NeedsCurrentVariable() bool { return true }

func (e *CCVS) Stamp(m *numeric.Dense, ctx *Context) error {
	out1, out2 := e.NodeList[0], e.NodeList[1]
	bIdx := e.BranchIndex()

	m.AddElement(out1, bIdx, 1)
	m.AddElement(out2, bIdx, -1)
	m.AddElement(bIdx, out1, 1)
	m.AddElement(bIdx, out2, -1)
	m.AddElement(bIdx, e.monitored.BranchIndex(), -e.Gain)
	return nil
}

func (e *CCVS) UpdateRHS(m *numeric.Dense, x []float64, t float64, ctx *Context) error { return nil }

// CCCS is a current-controlled current source: I(out1,out2) =
// gain * I(monitored), flowing from out2 into out1.
type CCCS struct {
	BaseDevice
	Gain          float64
	monitored     BranchCurrentSource
	monitoredPrev float64
}

func NewCCCS(name string, outNodes []string, monitored BranchCurrentSource, gain float64) (*CCCS, error) {
	if len(outNodes) != 2 {
		return nil, spiceerr.New(spiceerr.InvalidComponent, "CCCS %s: requires 2 output nodes", name)
	}
	if monitored == nil {
		return nil, spiceerr.New(spiceerr.InvalidComponent, "CCCS %s: monitored element must carry a branch current", name)
	}
	return &CCCS{
		BaseDevice: NewBaseDevice(name, gain, outNodes),
		Gain:       gain,
		monitored:  monitored,
	}, nil
}

var _ HistoryRecorder = (*CCCS)(nil)

func (e *CCCS) Kind() Kind                 { return KindCCCS }
func (e *CCCS) NeedsCurrentVariable() bool { return false }

func (e *CCCS) Stamp(m *numeric.Dense, ctx *Context) error { return nil }

// UpdateRHS scales the monitored element's most recently solved branch
// current, cached via RecordSolution after each network solve
// (CCCS's dependency is on another device's solved row, not on the
// state vector x, so it cannot be read from x directly).
func (e *CCCS) UpdateRHS(m *numeric.Dense, x []float64, t float64, ctx *Context) error {
	out1, out2 := e.NodeList[0], e.NodeList[1]
	current := e.Gain * e.monitoredPrev
	m.AddRHS(out1, current)
	m.AddRHS(out2, -current)
	return nil
}

// RecordSolution implements HistoryRecorder: it caches the monitored
// element's solved branch current from the full node/branch solution
// vector v, for use in the following step's UpdateRHS.
func (e *CCCS) RecordSolution(v []float64) {
	idx := e.monitored.BranchIndex()
	if idx >= 0 && idx < len(v) {
		e.monitoredPrev = v[idx]
	}
}
