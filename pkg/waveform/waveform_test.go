package waveform_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nyquist-labs/spicekernel/pkg/waveform"
)

func TestDCConstant(t *testing.T) {
	d := waveform.NewDC(5.0)
	assert.Equal(t, 5.0, d.Eval(0))
	assert.Equal(t, 5.0, d.Eval(100))
}

func TestSineAtKnownPoints(t *testing.T) {
	d := waveform.NewSine(0, 10, 1000, 0, 0)
	assert.InDelta(t, 0.0, d.Eval(0), 1e-9)
	quarterPeriod := 1.0 / 1000.0 / 4.0
	assert.InDelta(t, 10.0, d.Eval(quarterPeriod), 1e-6)
}

func TestSineDelayHoldsOffset(t *testing.T) {
	d := waveform.NewSine(1, 10, 1000, 1e-3, 0)
	assert.Equal(t, 1.0, d.Eval(0))
	assert.Equal(t, 1.0, d.Eval(5e-4))
}

func TestPulseShape(t *testing.T) {
	d := waveform.NewPulse(0, 5, 0, 1e-6, 1e-6, 4e-6, 10e-6)
	assert.InDelta(t, 0.0, d.Eval(0), 1e-9)
	assert.InDelta(t, 5.0, d.Eval(3e-6), 1e-9)
	assert.InDelta(t, 0.0, d.Eval(9e-6), 1e-9)
}

func TestPulseRepeatsWithPeriod(t *testing.T) {
	d := waveform.NewPulse(0, 5, 0, 0, 0, 5e-6, 10e-6)
	assert.InDelta(t, d.Eval(2e-6), d.Eval(12e-6), 1e-9)
}

func TestPWLBreakpointsAndInterpolation(t *testing.T) {
	times := []float64{0, 1, 2}
	values := []float64{0, 10, 10}
	d := waveform.NewPWL(times, values)
	assert.InDelta(t, 0.0, d.Eval(0), 1e-9)
	assert.InDelta(t, 5.0, d.Eval(0.5), 1e-9)
	assert.InDelta(t, 10.0, d.Eval(1.5), 1e-9)
	assert.InDelta(t, 10.0, d.Eval(3), 1e-9) // clamps past last breakpoint
}

func TestExpRisesAndDecays(t *testing.T) {
	d := waveform.NewExp(0, 5, 0, 1e-6, 5e-6, 1e-6)
	assert.InDelta(t, 0.0, d.Eval(0), 1e-9)
	assert.Greater(t, d.Eval(2e-6), 0.0)
	assert.Less(t, d.Eval(2e-6), 5.0)
}

