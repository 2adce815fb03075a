// Package device defines the component contract of spec section 4.2 and
// the concrete device library: resistor, capacitor, inductor, coupled
// inductors, independent sources, the four controlled sources, the
// ideal diode, the MOSFET, and the ideal switch.
//
// The reference implementation this package is descended from leaned
// on runtime polymorphism ("has a stamp method?", "is this a state
// variable?") checked ad hoc at call sites. Here that is replaced by a
// closed Kind enum plus a handful of narrow capability interfaces -
// Device is the mandatory core, Stateful/StateUpdater/Settable/
// EventDevice/BranchCurrentSource are opt-in traits a concrete device
// implements only when it needs them.
package device

import (
	"github.com/nyquist-labs/spicekernel/pkg/numeric"
)

// Kind is the closed set of component types spec section 3 enumerates.
type Kind int

const (
	KindResistor Kind = iota
	KindCapacitor
	KindInductor
	KindCoupledInductors
	KindVoltageSource
	KindCurrentSource
	KindVCVS
	KindVCCS
	KindCCVS
	KindCCCS
	KindDiode
	KindMOSFET
	KindSwitch
)

func (k Kind) String() string {
	switch k {
	case KindResistor:
		return "resistor"
	case KindCapacitor:
		return "capacitor"
	case KindInductor:
		return "inductor"
	case KindCoupledInductors:
		return "coupled-inductors"
	case KindVoltageSource:
		return "vsource"
	case KindCurrentSource:
		return "isource"
	case KindVCVS:
		return "vcvs"
	case KindVCCS:
		return "vccs"
	case KindCCVS:
		return "ccvs"
	case KindCCCS:
		return "cccs"
	case KindDiode:
		return "diode"
	case KindMOSFET:
		return "mosfet"
	case KindSwitch:
		return "switch"
	default:
		return "unknown"
	}
}

// StateKind names the integrated quantity of a dynamic element.
type StateKind int

const (
	NoState StateKind = iota
	VoltageState
	CurrentState
)

// Context is the per-step ambient data every stamp/update call sees:
// spec section 4.2's (node_map, vsrc_map) folded together with the
// clock and regularization parameters, mirroring the shape of the
// reference's CircuitStatus.
type Context struct {
	Time     float64
	TimeStep float64
	Gmin     float64
	Temp     float64
}

// Device is the mandatory contract every component implements. Nodes
// are resolved node indices (ground is -1); BaseDevice stores them
// after the preprocessor's SetNodes call.
type Device interface {
	Name() string
	Kind() Kind
	NodeNames() []string
	Nodes() []int
	SetNodes(nodes []int)

	// NeedsCurrentVariable reports whether this device requires an
	// auxiliary branch-current unknown (V source, inductor companion
	// form, VCVS, CCVS).
	NeedsCurrentVariable() bool

	// Stamp emits the device's constant conductance contribution. It
	// is called once at preprocess time for purely linear devices and
	// once per step for any device that also implements EventDevice.
	Stamp(m *numeric.Dense, ctx *Context) error

	// UpdateRHS emits the device's right-hand-side contribution given
	// the previous solved state x and the current time t.
	UpdateRHS(m *numeric.Dense, x []float64, t float64, ctx *Context) error
}

// Stateful is implemented by devices that own an integrated state
// variable (capacitor voltage, inductor current).
type Stateful interface {
	StateKind() StateKind
	InitialState() float64
}

// StateUpdater lets a dynamic device compute its own state derivative
// from the freshly solved node voltages, per spec section 4.2's
// update_state. idx is this device's slot in the state vector.
type StateUpdater interface {
	UpdateState(nodeVoltages []float64, x []float64, idx int, dt, t float64, ctx *Context) (derivative float64)
}

// Settable is the narrow "mutable drive input" design note channel:
// independent sources, switches and the MOSFET (external gate drive)
// expose it, for PWM-style gate and waveform overrides driven through
// a control map.
type Settable interface {
	SetValue(v float64)
}

// BranchCurrentSource marks a device that owns an auxiliary
// current-variable row, letting CCCS/CCVS controlled sources read its
// solved branch current by index.
type BranchCurrentSource interface {
	BranchIndex() int
	SetBranchIndex(i int)
}

// StateIndexer is implemented alongside Stateful by any device whose
// UpdateRHS needs to read its own slot in the state vector x - the
// preprocessor assigns the index once, during state-variable
// enumeration (spec section 4.3 item 3), before any Stamp/UpdateRHS
// call ever runs.
type StateIndexer interface {
	StateIndex() int
	SetStateIndex(i int)
}

// EventDevice marks a device whose operating mode can change mid-run
// (diode, MOSFET, switch). ZeroCrossing returns a signed scalar whose
// sign change between two solves indicates a transition; Priority
// breaks ties between simultaneous events per spec section 4.4
// (switches > diodes > MOSFETs - lower numeric priority wins).
type EventDevice interface {
	Device
	ZeroCrossing(nodeVoltages []float64) float64
	Mode() int
	SetMode(mode int)
	Priority() int
}

const (
	PrioritySwitch = iota
	PriorityDiode
	PriorityMOSFET
)

// HistoryRecorder is implemented by devices whose UpdateRHS depends on
// another device's solved branch current rather than on the state
// vector x (the inductor's backward-Euler companion history term, a
// CCCS's monitored current). The transient loop calls
// RecordSolution with the full node+branch solution vector v once
// after every solve, before the next step's UpdateRHS runs, so these
// devices never need to reach into x for a quantity x doesn't carry.
type HistoryRecorder interface {
	RecordSolution(v []float64)
}

// BaseDevice factors the bookkeeping every concrete device shares:
// name, resolved node indices, node names, and a headline parameter
// value (resistance, capacitance, and so on).
type BaseDevice struct {
	DeviceName   string
	NodeList     []int
	NodeNameList []string
	Value        float64
	stateIdx     int
	branchIdx    int
}

func NewBaseDevice(name string, value float64, nodeNames []string) BaseDevice {
	return BaseDevice{
		DeviceName:   name,
		Value:        value,
		NodeNameList: nodeNames,
		NodeList:     make([]int, len(nodeNames)),
		stateIdx:     -1,
		branchIdx:    -1,
	}
}

func (d *BaseDevice) Name() string         { return d.DeviceName }
func (d *BaseDevice) NodeNames() []string  { return d.NodeNameList }
func (d *BaseDevice) Nodes() []int         { return d.NodeList }
func (d *BaseDevice) SetNodes(nodes []int) { d.NodeList = nodes }
func (d *BaseDevice) GetValue() float64    { return d.Value }

func (d *BaseDevice) StateIndex() int     { return d.stateIdx }
func (d *BaseDevice) SetStateIndex(i int) { d.stateIdx = i }

func (d *BaseDevice) BranchIndex() int     { return d.branchIdx }
func (d *BaseDevice) SetBranchIndex(i int) { d.branchIdx = i }
