package circuit

import (
	"strconv"

	"github.com/nyquist-labs/spicekernel/internal/consts"
	"github.com/nyquist-labs/spicekernel/pkg/device"
	"github.com/nyquist-labs/spicekernel/pkg/numeric"
	"github.com/nyquist-labs/spicekernel/pkg/spiceerr"
)

// StateVariable is one entry in the state-variable registry of spec
// section 4.3 item 3: a scalar integrated over time, owned by exactly
// one dynamic component.
type StateVariable struct {
	Component string
	Kind      device.StateKind
	Initial   float64
	Parameter float64 // C (farads) or L (henries)
	NodeI     int
	NodeJ     int
	Owner     device.Device
}

// groupMembership records that a state-owning inductor belongs to a
// CoupledInductorGroup, so the transient integrator replaces its
// individual V/L derivative with the group's joint solve.
type groupMembership struct {
	Group *device.CoupledInductorGroup
	Index int
}

// Plan is the immutable output of preprocessing: everything the
// transient integrator and DC solver need, built once and reused every
// step without reallocation (spec section 5, resource policy).
type Plan struct {
	Name string

	NodeIndex   map[string]int // node name -> index in [0, NodeCount); ground excluded
	NodeCount   int
	BranchCount int
	Size        int // NodeCount + BranchCount, the matrix dimension

	StateVars    []StateVariable
	InitialState []float64

	Matrix *numeric.Dense // linear-device-only base matrix, gmin loaded

	Devices        []device.Device
	EventDevices   []device.EventDevice    // nonlinear devices, sorted switches > diodes > MOSFETs
	HistoryDevices []device.HistoryRecorder // devices needing RecordSolution after every solve
	CoupledGroups  []*device.CoupledInductorGroup

	groupOf map[device.Device]groupMembership

	Warnings []string

	Gmin float64
	Temp float64 // simulation temperature (K), fed to temperature-dependent device models
}

// HasNonlinear reports whether any component requires per-step event
// detection and re-stamping (spec section 4.4).
func (p *Plan) HasNonlinear() bool { return len(p.EventDevices) > 0 }

// GroupOf reports the CoupledInductorGroup a state-owning inductor
// belongs to, if any, and its index within that group's member slice.
func (p *Plan) GroupOf(d device.Device) (*device.CoupledInductorGroup, int, bool) {
	m, ok := p.groupOf[d]
	if !ok {
		return nil, 0, false
	}
	return m.Group, m.Index, true
}

// Option configures a single preprocessing run.
type Option func(*options)

type options struct {
	gmin float64
	temp float64
}

// WithGmin overrides the default diagonal regularizer.
func WithGmin(gmin float64) Option {
	return func(o *options) { o.gmin = gmin }
}

// WithTemp overrides the default simulation temperature (Kelvin), used
// by temperature-dependent device models such as the resistor's
// TempCoeff1/TempCoeff2 scaling.
func WithTemp(temp float64) Option {
	return func(o *options) { o.temp = temp }
}

func resolveOptions(opts []Option) options {
	o := options{gmin: consts.Gmin, temp: consts.RoomTemp}
	for _, apply := range opts {
		apply(&o)
	}
	return o
}

// build runs the six preprocessing steps of spec section 4.3 over an
// ordered component list.
func build(components []device.Device, opts ...Option) (*Plan, error) {
	cfg := resolveOptions(opts)

	if err := checkDuplicateNames(components); err != nil {
		return nil, err
	}

	nodeIndex := enumerateNodes(components)

	branchCount, err := resolveNodesAndBranches(components, nodeIndex)
	if err != nil {
		return nil, err
	}

	stateVars, initialState := enumerateStateVariables(components)

	size := len(nodeIndex) + branchCount
	matrix := numeric.NewDense(size)

	eventDevices, historyDevices, groups, groupOf := classifyDevices(components)

	for _, d := range components {
		if _, isEvent := d.(device.EventDevice); isEvent {
			continue // nonlinear devices stamp per step from the event layer, not into the base snapshot
		}
		if err := d.Stamp(matrix, &device.Context{Gmin: cfg.gmin, Temp: cfg.temp}); err != nil {
			return nil, spiceerr.Wrap(spiceerr.InvalidNetlist, err, "stamping device %s", d.Name())
		}
	}
	matrix.LoadGmin(cfg.gmin)

	warnings := validate(matrix, len(nodeIndex), components)

	plan := &Plan{
		NodeIndex:      nodeIndex,
		NodeCount:      len(nodeIndex),
		BranchCount:    branchCount,
		Size:           size,
		StateVars:      stateVars,
		InitialState:   initialState,
		Matrix:         matrix,
		Devices:        append([]device.Device(nil), components...),
		EventDevices:   eventDevices,
		HistoryDevices: historyDevices,
		CoupledGroups:  groups,
		groupOf:        groupOf,
		Warnings:       warnings,
		Gmin:           cfg.gmin,
		Temp:           cfg.temp,
	}
	return plan, nil
}

func checkDuplicateNames(components []device.Device) error {
	seen := make(map[string]bool, len(components))
	for _, d := range components {
		if seen[d.Name()] {
			return spiceerr.New(spiceerr.InvalidNetlist, "duplicate component name %q", d.Name())
		}
		seen[d.Name()] = true
	}
	return nil
}

// enumerateNodes collects every non-ground node name in first-seen
// order across the component list (spec section 4.3 item 1).
func enumerateNodes(components []device.Device) map[string]int {
	index := make(map[string]int)
	for _, d := range components {
		for _, name := range d.NodeNames() {
			if groundAliases[name] {
				continue
			}
			if _, ok := index[name]; !ok {
				index[name] = len(index)
			}
		}
	}
	return index
}

// resolveNodesAndBranches resolves every device's node names to
// indices (ground -> -1), calls SetNodes, and allocates auxiliary
// current-variable rows/columns for devices that need them (spec
// section 4.3 item 2).
func resolveNodesAndBranches(components []device.Device, nodeIndex map[string]int) (int, error) {
	branchCount := 0
	nodeCount := len(nodeIndex)

	for _, d := range components {
		names := d.NodeNames()
		resolved := make([]int, len(names))
		for i, name := range names {
			if groundAliases[name] {
				resolved[i] = -1
				continue
			}
			resolved[i] = nodeIndex[name]
		}
		d.SetNodes(resolved)

		if d.NeedsCurrentVariable() {
			bs, ok := d.(device.BranchCurrentSource)
			if !ok {
				return 0, spiceerr.New(spiceerr.InvalidComponent, "device %s needs a current variable but does not implement BranchCurrentSource", d.Name())
			}
			bs.SetBranchIndex(nodeCount + branchCount)
			branchCount++
		}
	}
	return branchCount, nil
}

// enumerateStateVariables builds the ordered state-variable registry
// and seeds the initial state vector (spec section 4.3 item 3).
func enumerateStateVariables(components []device.Device) ([]StateVariable, []float64) {
	var vars []StateVariable
	var initial []float64

	for _, d := range components {
		sf, ok := d.(device.Stateful)
		if !ok || sf.StateKind() == device.NoState {
			continue
		}
		si, ok := d.(device.StateIndexer)
		if !ok {
			continue
		}
		si.SetStateIndex(len(vars))

		nodes := d.Nodes()
		nodeI, nodeJ := -1, -1
		if len(nodes) > 0 {
			nodeI = nodes[0]
		}
		if len(nodes) > 1 {
			nodeJ = nodes[1]
		}

		param := 0.0
		if gv, ok := d.(interface{ GetValue() float64 }); ok {
			param = gv.GetValue()
		}

		vars = append(vars, StateVariable{
			Component: d.Name(),
			Kind:      sf.StateKind(),
			Initial:   sf.InitialState(),
			Parameter: param,
			NodeI:     nodeI,
			NodeJ:     nodeJ,
			Owner:     d,
		})
		initial = append(initial, sf.InitialState())
	}
	return vars, initial
}

// classifyDevices partitions the component list into the nonlinear
// event-driven subset (sorted by priority), the history-recording
// subset, and the coupled-inductor groups, building the membership
// lookup the transient integrator uses to skip a grouped inductor's
// individual state update.
func classifyDevices(components []device.Device) ([]device.EventDevice, []device.HistoryRecorder, []*device.CoupledInductorGroup, map[device.Device]groupMembership) {
	var events []device.EventDevice
	var history []device.HistoryRecorder
	var groups []*device.CoupledInductorGroup
	membership := make(map[device.Device]groupMembership)

	for _, d := range components {
		if ev, ok := d.(device.EventDevice); ok {
			events = append(events, ev)
		}
		if hr, ok := d.(device.HistoryRecorder); ok {
			history = append(history, hr)
		}
		if g, ok := d.(*device.CoupledInductorGroup); ok {
			groups = append(groups, g)
			for i, member := range g.Members() {
				membership[device.Device(member)] = groupMembership{Group: g, Index: i}
			}
		}
	}

	sortByPriority(events)
	return events, history, groups, membership
}

func sortByPriority(events []device.EventDevice) {
	// Insertion sort: event lists are small (a handful of switching
	// devices per circuit), and this keeps devices with equal priority
	// in their original relative order.
	for i := 1; i < len(events); i++ {
		for j := i; j > 0 && events[j].Priority() < events[j-1].Priority(); j-- {
			events[j], events[j-1] = events[j-1], events[j]
		}
	}
}

// validate implements spec section 4.3 item 5: non-fatal structural
// warnings about the assembled matrix.
func validate(m *numeric.Dense, nodeCount int, components []device.Device) []string {
	var warnings []string

	for i := 0; i < nodeCount; i++ {
		if !m.HasDiagonalEntry(i) {
			warnings = append(warnings, "node with index "+strconv.Itoa(i)+" has no diagonal conductance entry (possibly floating)")
		}
	}
	if !m.Symmetric(1e-12) {
		warnings = append(warnings, "resistive sub-block is asymmetric beyond tolerance")
	}
	if !hasGroundReference(components) {
		warnings = append(warnings, "circuit has no ground reference (node 0/gnd not used by any component)")
	}
	return warnings
}

// hasGroundReference reports whether any component names a ground
// alias among its nodes, per spec section 4.3 item 5's third mandatory
// check.
func hasGroundReference(components []device.Device) bool {
	for _, d := range components {
		for _, name := range d.NodeNames() {
			if groundAliases[name] {
				return true
			}
		}
	}
	return false
}
