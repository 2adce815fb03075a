// Package dcsolve implements the DC operating-point solver of spec
// section 4.6: capacitors open, inductors shorted, Newton-like mode
// iteration for nonlinear devices starting every diode OFF and every
// MOSFET in cutoff.
package dcsolve

import (
	"github.com/nyquist-labs/spicekernel/pkg/circuit"
	"github.com/nyquist-labs/spicekernel/pkg/device"
	"github.com/nyquist-labs/spicekernel/pkg/eventlayer"
	"github.com/nyquist-labs/spicekernel/pkg/numeric"
	"github.com/nyquist-labs/spicekernel/pkg/spiceerr"
)

const maxModeIterations = 100

// Result is the standardized string-keyed return type of spec section
// 6's solve_dc.
type Result struct {
	NodeVoltages   map[string]float64
	BranchCurrents map[string]float64
	Converged      bool
	Iterations     int
	Warnings       []string
}

// Solve finds the DC operating point of plan's circuit. Capacitors
// contribute no current (their large-admittance stamp already forces
// V_node toward the state Vc=0 initial condition, which for a cold-
// start DC solve is exactly the "open circuit" approximation) and
// inductors in StateCurrentForm contribute zero current source (a
// short, per spec section 4.6); both behaviors fall directly out of
// evaluating UpdateRHS with a zero state vector.
func Solve(plan *circuit.Plan) (*Result, error) {
	zeroState := make([]float64, len(plan.InitialState))
	ctx := &device.Context{Gmin: plan.Gmin, Temp: plan.Temp}

	resetNonlinearModes(plan.EventDevices)

	m := plan.Matrix.Snapshot()
	var v []float64
	iterations := 0

	for iterations = 0; iterations < maxModeIterations; iterations++ {
		if plan.HasNonlinear() {
			if err := eventlayer.Restamp(m, plan.Matrix, plan.EventDevices, v, ctx); err != nil {
				return nil, err
			}
		} else {
			m.ClearRHS()
		}

		for _, d := range plan.Devices {
			if err := d.UpdateRHS(m, zeroState, 0, ctx); err != nil {
				return nil, spiceerr.Wrap(spiceerr.InvalidComponent, err, "DC update_rhs for %s", d.Name())
			}
		}

		result, err := numeric.Solve(m, v)
		if err != nil {
			return nil, spiceerr.Wrap(spiceerr.DidNotConverge, err, "DC solve at mode iteration %d", iterations)
		}
		v = result.Solution

		if !plan.HasNonlinear() {
			break
		}
		if !anyModeChanged(plan.EventDevices, v) {
			break
		}
	}

	converged := iterations < maxModeIterations
	nodeVoltages := make(map[string]float64, plan.NodeCount)
	for name, idx := range plan.NodeIndex {
		nodeVoltages[name] = v[idx]
	}

	branchCurrents := make(map[string]float64)
	for _, d := range plan.Devices {
		bcs, ok := d.(device.BranchCurrentSource)
		if !ok {
			continue
		}
		idx := bcs.BranchIndex()
		if idx >= 0 && idx < len(v) {
			branchCurrents[d.Name()] = v[idx]
		}
	}

	return &Result{
		NodeVoltages:   nodeVoltages,
		BranchCurrents: branchCurrents,
		Converged:      converged,
		Iterations:     iterations,
		Warnings:       append([]string(nil), plan.Warnings...),
	}, nil
}

// resetNonlinearModes starts every event device at its spec-mandated
// cold-start mode: diodes OFF, MOSFETs in cutoff, switches left as
// externally commanded (their mode is a drive input, not a solved state).
func resetNonlinearModes(events []device.EventDevice) {
	for _, ev := range events {
		switch ev.(type) {
		case *device.Diode:
			ev.SetMode(device.DiodeOff)
		case *device.MOSFET:
			ev.SetMode(device.MOSCutoff)
		}
	}
}

func anyModeChanged(events []device.EventDevice, v []float64) bool {
	changed := false
	for _, ev := range events {
		// Switches are externally commanded (spec section 4.2): their
		// mode is a drive input, not something the operating-point
		// iteration may flip.
		if _, isSwitch := ev.(*device.Switch); isSwitch {
			continue
		}

		before := ev.Mode()
		if resolver, ok := ev.(interface{ Resolve([]float64) }); ok {
			resolver.Resolve(v)
		} else {
			crossing := ev.ZeroCrossing(v)
			if crossing > 0 {
				ev.SetMode(onMode(ev))
			} else {
				ev.SetMode(offMode(ev))
			}
		}
		if ev.Mode() != before {
			changed = true
		}
	}
	return changed
}

func onMode(ev device.EventDevice) int {
	switch ev.(type) {
	case *device.Diode:
		return device.DiodeOn
	default:
		return 1
	}
}

func offMode(ev device.EventDevice) int {
	switch ev.(type) {
	case *device.Diode:
		return device.DiodeOff
	default:
		return 0
	}
}
