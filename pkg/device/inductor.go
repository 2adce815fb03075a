package device

import (
	"github.com/nyquist-labs/spicekernel/pkg/numeric"
	"github.com/nyquist-labs/spicekernel/pkg/spiceerr"
)

// InductorForm selects which of the two companion treatments spec
// section 4.2 allows. Both remain available; StateCurrentForm is the
// default because it pairs naturally with the explicit forward-Euler
// state update of spec section 4.5.
type InductorForm int

const (
	// StateCurrentForm stamps nothing into G; the inductor current is
	// a state variable contributed as a current source on the RHS,
	// and its derivative is V_across/L.
	StateCurrentForm InductorForm = iota
	// CompanionResistorForm adds an auxiliary branch-current unknown
	// and a backward-Euler history voltage source, R_eq = L/h.
	CompanionResistorForm
)

// Inductor models an ideal inductor under either of spec section
// 4.2's two interchangeable treatments. Current is defined flowing
// from node 1 to node 2 through the device.
type Inductor struct {
	BaseDevice
	Form           InductorForm
	initialCurrent float64
	prevCurrent    float64 // CompanionResistorForm history term, kept out of the centralized state vector since the branch current is solved directly each step
}

var _ Stateful = (*Inductor)(nil)
var _ StateUpdater = (*Inductor)(nil)
var _ BranchCurrentSource = (*Inductor)(nil)
var _ HistoryRecorder = (*Inductor)(nil)

func NewInductor(name string, nodeNames []string, henries float64, form InductorForm) (*Inductor, error) {
	if len(nodeNames) != 2 {
		return nil, spiceerr.New(spiceerr.InvalidComponent, "inductor %s: requires exactly 2 nodes, got %d", name, len(nodeNames))
	}
	if henries <= 0 {
		return nil, spiceerr.New(spiceerr.InvalidComponent, "inductor %s: inductance must be positive, got %v", name, henries)
	}
	return &Inductor{
		BaseDevice: NewBaseDevice(name, henries, nodeNames),
		Form:       form,
	}, nil
}

func (l *Inductor) SetInitialCondition(i0 float64) {
	l.initialCurrent = i0
	l.prevCurrent = i0
}

func (l *Inductor) Kind() Kind { return KindInductor }

func (l *Inductor) NeedsCurrentVariable() bool {
	return l.Form == CompanionResistorForm
}

func (l *Inductor) StateKind() StateKind {
	if l.Form == StateCurrentForm {
		return CurrentState
	}
	return NoState
}

func (l *Inductor) InitialState() float64 { return l.initialCurrent }

func (l *Inductor) Stamp(m *numeric.Dense, ctx *Context) error {
	n1, n2 := l.NodeList[0], l.NodeList[1]

	switch l.Form {
	case StateCurrentForm:
		// No linear contribution: the current is a state variable
		// surfaced entirely through UpdateRHS.
		return nil

	case CompanionResistorForm:
		bIdx := l.BranchIndex()
		m.AddElement(n1, bIdx, 1)
		m.AddElement(bIdx, n1, 1)
		m.AddElement(n2, bIdx, -1)
		m.AddElement(bIdx, n2, -1)

		dt := ctx.TimeStep
		if dt <= 0 {
			dt = 1e-9
		}
		geq := l.Value / dt
		m.AddElement(bIdx, bIdx, -geq)
		return nil
	}
	return nil
}

// UpdateRHS contributes the present inductor current as a current
// source (StateCurrentForm) or the backward-Euler history term
// (CompanionResistorForm).
func (l *Inductor) UpdateRHS(m *numeric.Dense, x []float64, t float64, ctx *Context) error {
	n1, n2 := l.NodeList[0], l.NodeList[1]

	switch l.Form {
	case StateCurrentForm:
		il := x[l.StateIndex()]
		m.AddRHS(n1, -il)
		m.AddRHS(n2, il)
		return nil

	case CompanionResistorForm:
		dt := ctx.TimeStep
		if dt <= 0 {
			dt = 1e-9
		}
		geq := l.Value / dt
		m.AddRHS(l.BranchIndex(), -geq*l.prevCurrent)
		return nil
	}
	return nil
}

// RecordBranchCurrent stores the solved branch current for the next
// step's history term (CompanionResistorForm only).
func (l *Inductor) RecordBranchCurrent(i float64) { l.prevCurrent = i }

// RecordSolution implements HistoryRecorder: CompanionResistorForm's
// history term is its own branch row in the full solution vector v.
func (l *Inductor) RecordSolution(v []float64) {
	if l.Form != CompanionResistorForm {
		return
	}
	idx := l.BranchIndex()
	if idx >= 0 && idx < len(v) {
		l.prevCurrent = v[idx]
	}
}

// UpdateState computes dIl/dt = V_across/L for the StateCurrentForm.
func (l *Inductor) UpdateState(nodeVoltages []float64, x []float64, idx int, dt, t float64, ctx *Context) float64 {
	n1, n2 := l.NodeList[0], l.NodeList[1]
	vAcross := nodeAt(nodeVoltages, n1) - nodeAt(nodeVoltages, n2)
	return vAcross / l.Value
}

// Voltage recovers V_across for result reporting and LTE estimation.
func (l *Inductor) Voltage(nodeVoltages []float64) float64 {
	n1, n2 := l.NodeList[0], l.NodeList[1]
	return nodeAt(nodeVoltages, n1) - nodeAt(nodeVoltages, n2)
}
