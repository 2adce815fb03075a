// Package eventlayer implements the nonlinear/event layer of spec
// section 4.4: re-stamping mode-dependent devices every step and
// bisecting across a sign change in a device's zero-crossing function
// to localize the instant it switched mode.
package eventlayer

import (
	"github.com/nyquist-labs/spicekernel/internal/consts"
	"github.com/nyquist-labs/spicekernel/pkg/device"
	"github.com/nyquist-labs/spicekernel/pkg/numeric"
	"github.com/nyquist-labs/spicekernel/pkg/spiceerr"
)

// Event records one mode transition the layer localized within a step.
type Event struct {
	Device device.EventDevice
	Time   float64
}

// Restamp rebuilds m from the linear snapshot plus every event
// device's current-mode stamp, calling Resolve first on any device
// that exposes it (the MOSFET's per-step operating-point linearization).
func Restamp(m *numeric.Dense, snapshot *numeric.Dense, events []device.EventDevice, nodeVoltages []float64, ctx *device.Context) error {
	m.CopyFrom(snapshot)
	for _, ev := range events {
		if resolver, ok := ev.(interface{ Resolve([]float64) }); ok {
			resolver.Resolve(nodeVoltages)
		}
		if err := ev.Stamp(m, ctx); err != nil {
			return spiceerr.Wrap(spiceerr.InvalidComponent, err, "restamping %s", ev.Name())
		}
	}
	return nil
}

// Detect reports the first event device, in priority order, whose
// zero-crossing function changed sign between the previous and the
// tentative new solution. events must already be priority-sorted
// (switches, then diodes, then MOSFETs) as Plan.EventDevices is.
func Detect(events []device.EventDevice, prevV, newV []float64) device.EventDevice {
	for _, ev := range events {
		prevSign := ev.ZeroCrossing(prevV)
		newSign := ev.ZeroCrossing(newV)
		if signChanged(prevSign, newSign) {
			return ev
		}
	}
	return nil
}

func signChanged(a, b float64) bool {
	if a == 0 || b == 0 {
		return a != b
	}
	return (a < 0) != (b < 0)
}

// Localize bisects [tLo, tHi] to find the instant ev's zero-crossing
// function passes through zero, per spec section 4.4 (at most
// EventBisectMaxIter iterations, EventBisectTol tolerance). solveAt
// must return the node-voltage solution the circuit would have at time
// t, given the current state vector; it is supplied by the transient
// loop since only it knows how to assemble and solve at an arbitrary
// interior time.
func Localize(ev device.EventDevice, tLo, tHi float64, solveAt func(t float64) ([]float64, error)) (float64, []float64, error) {
	vLo, err := solveAt(tLo)
	if err != nil {
		return 0, nil, err
	}
	vHi, err := solveAt(tHi)
	if err != nil {
		return 0, nil, err
	}

	fLo := ev.ZeroCrossing(vLo)
	fHi := ev.ZeroCrossing(vHi)
	if !signChanged(fLo, fHi) {
		return 0, nil, spiceerr.New(spiceerr.EventLocalizationFailed, "event on %s: no sign change across bracket", ev.Name())
	}

	for i := 0; i < consts.EventBisectMaxIter; i++ {
		tMid := 0.5 * (tLo + tHi)
		vMid, err := solveAt(tMid)
		if err != nil {
			return 0, nil, err
		}
		fMid := ev.ZeroCrossing(vMid)

		if abs(fMid) < consts.EventBisectTol || (tHi-tLo) < consts.EventBisectTol {
			return tMid, vMid, nil
		}
		if signChanged(fLo, fMid) {
			tHi, fHi, vHi = tMid, fMid, vMid
		} else {
			tLo, fLo, vLo = tMid, fMid, vMid
		}
	}
	return 0, nil, spiceerr.New(spiceerr.EventLocalizationFailed, "event on %s: exceeded %d bisection iterations", ev.Name(), consts.EventBisectMaxIter)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
