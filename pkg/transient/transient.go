// Package transient implements the time-stepping integrator of spec
// section 4.5: explicit forward-Euler state update on an implicit
// resistive network, plus the stepping interface and full-run
// orchestrator of spec section 6.
package transient

import (
	"math"

	"github.com/nyquist-labs/spicekernel/pkg/circuit"
	"github.com/nyquist-labs/spicekernel/pkg/device"
	"github.com/nyquist-labs/spicekernel/pkg/eventlayer"
	"github.com/nyquist-labs/spicekernel/pkg/numeric"
	"github.com/nyquist-labs/spicekernel/pkg/spiceerr"
)

// Rule selects the integration scheme applied to state derivatives.
// ForwardEuler is the default and the only one fully wired per spec
// section 9 (RK4/BDF2 are listed as optional, deferred follow-ups).
type Rule int

const (
	ForwardEuler Rule = iota
	RK4
)

// StepResult is what Init/Step/RunTransient hand back each step (spec
// section 6's stepping interface).
type StepResult struct {
	Time          float64
	NodeVoltages  []float64
	StateVars     []float64
	Method        numeric.Method
	EventOccurred bool
}

// Params configures a transient run (spec section 6's run_transient).
type Params struct {
	StartTime   float64
	StopTime    float64
	TimeStep    float64
	MaxTimeStep float64
	Rule        Rule
	ControlFn   func(t float64) map[string]float64
	// Progress is called every N steps; returning true requests
	// termination, checked between steps (spec section 5).
	Progress      func(step int, t float64) bool
	ProgressEvery int
}

// Engine owns one run's working buffers: the plan, the live (possibly
// restamped) matrix, state vector, and previous solution, none of
// which are shared across runs (spec section 5, no global state).
type Engine struct {
	plan   *circuit.Plan
	byName map[string]device.Device

	matrix *numeric.Dense // working copy, restamped in place when nonlinear
	state  []float64
	prevV  []float64
	time   float64
	dt     float64
	rule   Rule
}

// Init builds an Engine from a preprocessed plan and a fixed step h,
// per spec section 6's stepping interface.
func Init(plan *circuit.Plan, dt float64) (*Engine, error) {
	if dt <= 0 {
		return nil, spiceerr.New(spiceerr.InvalidComponent, "transient init: time step must be positive, got %v", dt)
	}
	byName := make(map[string]device.Device, len(plan.Devices))
	for _, d := range plan.Devices {
		byName[d.Name()] = d
	}

	e := &Engine{
		plan:   plan,
		byName: byName,
		matrix: plan.Matrix.Snapshot(),
		state:  append([]float64(nil), plan.InitialState...),
		dt:     dt,
		rule:   ForwardEuler,
	}

	v, err := e.solveAt(0, e.state)
	if err != nil {
		return nil, err
	}
	e.prevV = v
	return e, nil
}

// Destroy releases the engine's buffers. The Go runtime reclaims them
// on its own; this exists to mirror the explicit init/destroy pairing
// spec section 6 names for parity with embedders that pool engines.
func (e *Engine) Destroy() {
	e.plan = nil
	e.byName = nil
	e.matrix = nil
	e.state = nil
	e.prevV = nil
}

// Step advances the engine by one fixed interval h, applying controls
// (if any), per the eight-step algorithm of spec section 4.5.
func (e *Engine) Step(controls map[string]float64) (StepResult, error) {
	applyControls(e.byName, controls)

	ctx := &device.Context{Time: e.time, TimeStep: e.dt, Gmin: e.plan.Gmin, Temp: e.plan.Temp}

	if e.plan.HasNonlinear() {
		if err := eventlayer.Restamp(e.matrix, e.plan.Matrix, e.plan.EventDevices, e.prevV, ctx); err != nil {
			return StepResult{}, err
		}
	} else {
		e.matrix.ClearRHS()
	}

	if err := e.updateRHS(e.matrix, e.state, e.time, ctx); err != nil {
		return StepResult{}, err
	}

	result, err := numeric.Solve(e.matrix, e.prevV)
	if err != nil {
		return StepResult{}, spiceerr.Wrap(spiceerr.DidNotConverge, err, "transient step at t=%v", e.time)
	}
	v := result.Solution

	eventOccurred := false
	if e.plan.HasNonlinear() {
		if ev := eventlayer.Detect(e.plan.EventDevices, e.prevV, v); ev != nil {
			localized, vEvent, err := eventlayer.Localize(ev, e.time, e.time+e.dt, func(t float64) ([]float64, error) {
				return e.solveAt(t, e.state)
			})
			if err == nil {
				ev.SetMode(flippedMode(ev))
				e.time = localized
				v = vEvent
				eventOccurred = true
			}
			// Localization failure is non-fatal here: the step still
			// completes with the tentative solution, and the next
			// step's Detect call gets another chance at the boundary.
		}
	}

	for _, hr := range e.plan.HistoryDevices {
		hr.RecordSolution(v)
	}

	if err := checkFinite(v); err != nil {
		return StepResult{}, err
	}

	nextState, err := e.advanceState(v, e.state, e.dt, e.time)
	if err != nil {
		return StepResult{}, err
	}

	e.prevV = v
	e.state = nextState
	if !eventOccurred {
		e.time += e.dt
	}

	return StepResult{
		Time:          e.time,
		NodeVoltages:  append([]float64(nil), v...),
		StateVars:     append([]float64(nil), e.state...),
		Method:        result.Method,
		EventOccurred: eventOccurred,
	}, nil
}

func flippedMode(ev device.EventDevice) int {
	if ev.Mode() == 0 {
		return 1
	}
	return 0
}

// solveAt assembles and solves the linear system at time t against a
// fixed state x, without mutating the engine - used by event
// localization to probe interior times during bisection.
func (e *Engine) solveAt(t float64, x []float64) ([]float64, error) {
	ctx := &device.Context{Time: t, TimeStep: e.dt, Gmin: e.plan.Gmin, Temp: e.plan.Temp}
	m := e.plan.Matrix.Snapshot()

	if e.plan.HasNonlinear() {
		if err := eventlayer.Restamp(m, e.plan.Matrix, e.plan.EventDevices, e.prevV, ctx); err != nil {
			return nil, err
		}
	}
	if err := e.updateRHS(m, x, t, ctx); err != nil {
		return nil, err
	}
	result, err := numeric.Solve(m, e.prevV)
	if err != nil {
		return nil, spiceerr.Wrap(spiceerr.DidNotConverge, err, "probing solution at t=%v", t)
	}
	return result.Solution, nil
}

func (e *Engine) updateRHS(m *numeric.Dense, x []float64, t float64, ctx *device.Context) error {
	for _, d := range e.plan.Devices {
		if err := d.UpdateRHS(m, x, t, ctx); err != nil {
			return spiceerr.Wrap(spiceerr.InvalidComponent, err, "updating RHS for %s", d.Name())
		}
	}
	return nil
}

// advanceState computes every state variable's derivative and
// integrates it forward by dt (spec section 4.5 steps 6-7). Inductors
// belonging to a CoupledInductorGroup get their derivative from the
// group's joint solve instead of their own UpdateState.
func (e *Engine) advanceState(v, x []float64, dt, t float64) ([]float64, error) {
	next := append([]float64(nil), x...)
	ctx := &device.Context{Time: t, TimeStep: dt, Gmin: e.plan.Gmin, Temp: e.plan.Temp}

	groupDerivs := make(map[*device.CoupledInductorGroup][]float64)

	for i, sv := range e.plan.StateVars {
		owner := sv.Owner
		updater, ok := owner.(device.StateUpdater)
		if !ok {
			continue
		}

		var deriv float64
		if group, idx, inGroup := e.plan.GroupOf(owner); inGroup {
			derivs, cached := groupDerivs[group]
			if !cached {
				derivs = group.JointDerivatives(v)
				groupDerivs[group] = derivs
			}
			deriv = derivs[idx]
		} else {
			deriv = updater.UpdateState(v, x, i, dt, t, ctx)
		}

		next[i] = x[i] + dt*deriv
	}
	return next, nil
}

func applyControls(byName map[string]device.Device, controls map[string]float64) {
	for name, val := range controls {
		d, ok := byName[name]
		if !ok {
			continue
		}
		if s, ok := d.(device.Settable); ok {
			s.SetValue(val)
		}
	}
}

func checkFinite(v []float64) error {
	for _, val := range v {
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return spiceerr.New(spiceerr.NumericalBlowup, "non-finite value %v in solution", val)
		}
	}
	return nil
}

// Result is the full trajectory RunTransient returns: a time vector
// plus, for each recorded node and state variable, its trajectory -
// spec section 6's standardized string-keyed map return type.
type Result struct {
	Times         []float64
	NodeVoltages  map[string][]float64
	StateVars     map[string][]float64
	Warnings      []string
	TerminatedAt  int // step index the run stopped at, len(Times)-1 on success
	EventCount    int
}

// RunTransient orchestrates a full run per spec section 4.5's "running
// a full transient": one bootstrapping step at t_start, then stepping
// until t >= t_stop.
func RunTransient(plan *circuit.Plan, p Params) (*Result, error) {
	dt := p.TimeStep
	if dt <= 0 {
		return nil, spiceerr.New(spiceerr.InvalidComponent, "run_transient: time_step must be positive")
	}

	e, err := Init(plan, dt)
	if err != nil {
		return nil, err
	}
	defer e.Destroy()
	e.time = p.StartTime
	if e.time != 0 {
		v, err := e.solveAt(e.time, e.state)
		if err != nil {
			return nil, err
		}
		e.prevV = v
	}

	nodeNames := make([]string, plan.NodeCount)
	for name, idx := range plan.NodeIndex {
		nodeNames[idx] = name
	}

	res := &Result{
		NodeVoltages: make(map[string][]float64, plan.NodeCount),
		StateVars:    make(map[string][]float64, len(plan.StateVars)),
		Warnings:     append([]string(nil), plan.Warnings...),
	}
	for _, name := range nodeNames {
		res.NodeVoltages[name] = nil
	}
	for _, sv := range plan.StateVars {
		res.StateVars[sv.Component] = nil
	}

	record := func(t float64, v, x []float64) {
		res.Times = append(res.Times, t)
		for i, name := range nodeNames {
			res.NodeVoltages[name] = append(res.NodeVoltages[name], v[i])
		}
		for i, sv := range plan.StateVars {
			res.StateVars[sv.Component] = append(res.StateVars[sv.Component], x[i])
		}
	}
	record(e.time, e.prevV, e.state)

	step := 0
	for e.time < p.StopTime {
		var controls map[string]float64
		if p.ControlFn != nil {
			controls = p.ControlFn(e.time)
		}

		sr, err := e.Step(controls)
		if err != nil {
			res.TerminatedAt = step
			return res, err
		}
		if sr.EventOccurred {
			res.EventCount++
		}
		record(sr.Time, sr.NodeVoltages, sr.StateVars)
		step++

		if p.Progress != nil && p.ProgressEvery > 0 && step%p.ProgressEvery == 0 {
			if p.Progress(step, sr.Time) {
				break
			}
		}
	}
	res.TerminatedAt = len(res.Times) - 1
	return res, nil
}
