// Package format adapts the engineering-notation printers the
// original util package used for AC Bode-plot output into the
// time-domain reporting this core needs: node voltages, branch
// currents, and time values printed with an appropriate SI prefix.
//
// AC analysis (magnitude/phase) is a spec Non-goal, so the
// magnitude/phase and frequency formatters it once fed are dropped;
// the value and time formatters survive because the CLI and any
// embedder still need to print a transient trajectory.
package format

import (
	"fmt"
	"math"
)

// Value formats a physical quantity with the SI prefix its magnitude
// calls for, e.g. Value(0.0047, "F") -> "4.700 mF". The prefix ladder
// stops at nano: the power-electronics circuits this core targets
// (spec.md's buck/boost/LLC converters) never produce node voltages or
// branch currents at pico/femto scale, unlike the teacher's formatter,
// which also had to carry AC small-signal magnitudes down to that
// range.
func Value(value float64, unit string) string {
	absValue := math.Abs(value)
	switch {
	case absValue >= 1:
		return fmt.Sprintf("%.3f %s", value, unit)
	case absValue >= 1e-3:
		return fmt.Sprintf("%.3f m%s", value*1e3, unit)
	case absValue >= 1e-6:
		return fmt.Sprintf("%.3f u%s", value*1e6, unit)
	case absValue >= 1e-9:
		return fmt.Sprintf("%.3f n%s", value*1e9, unit)
	default:
		return fmt.Sprintf("%.3e %s", value, unit)
	}
}

// Time formats a simulation timestamp with the SI prefix its
// magnitude calls for, matching the netlist boundary's engineering
// suffix convention in reverse.
func Time(t float64) string {
	switch {
	case t >= 1:
		return fmt.Sprintf("%.6f s", t)
	case t >= 1e-3:
		return fmt.Sprintf("%.6f ms", t*1e3)
	case t >= 1e-6:
		return fmt.Sprintf("%.6f us", t*1e6)
	default:
		return fmt.Sprintf("%.6f ns", t*1e9)
	}
}

// Voltage and Current are thin Value wrappers for the two quantities
// the transient/dcsolve results print most often.
func Voltage(v float64) string { return Value(v, "V") }
func Current(i float64) string { return Value(i, "A") }
