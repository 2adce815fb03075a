package transient

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nyquist-labs/spicekernel/pkg/circuit"
	"github.com/nyquist-labs/spicekernel/pkg/device"
	"github.com/nyquist-labs/spicekernel/pkg/waveform"
)

func rcPlan(t *testing.T) *circuit.Plan {
	t.Helper()
	v, err := device.NewVoltageSource("V1", []string{"in", "0"}, waveform.NewDC(5))
	require.NoError(t, err)
	r, err := device.NewResistor("R1", []string{"in", "out"}, 1000)
	require.NoError(t, err)
	c, err := device.NewCapacitor("C1", []string{"out", "0"}, 1e-6)
	require.NoError(t, err)

	ckt := circuit.New("rc")
	ckt.AddComponents([]device.Device{v, r, c})
	plan, err := ckt.Preprocess()
	require.NoError(t, err)
	return plan
}

func TestRunTransientRCChargeMatchesAnalyticCurve(t *testing.T) {
	plan := rcPlan(t)

	res, err := RunTransient(plan, Params{
		StartTime: 0,
		StopTime:  5e-3,
		TimeStep:  1e-6,
	})
	require.NoError(t, err)

	vc := res.StateVars["C1"]
	require.NotEmpty(t, vc)

	tau := 1000.0 * 1e-6
	analytic := func(tm float64) float64 { return 5 * (1 - math.Exp(-tm/tau)) }

	idxAt := func(target float64) int {
		best, bestDiff := 0, math.Inf(1)
		for i, tm := range res.Times {
			d := math.Abs(tm - target)
			if d < bestDiff {
				best, bestDiff = i, d
			}
		}
		return best
	}

	i1ms := idxAt(1e-3)
	i5ms := idxAt(5e-3)
	assert.InDelta(t, analytic(1e-3), vc[i1ms], 0.05*5)
	assert.InDelta(t, analytic(5e-3), vc[i5ms], 0.05*5)
}

func TestStepAdvancesTimeByFixedInterval(t *testing.T) {
	plan := rcPlan(t)
	e, err := Init(plan, 1e-6)
	require.NoError(t, err)
	defer e.Destroy()

	sr, err := e.Step(nil)
	require.NoError(t, err)
	assert.InDelta(t, 1e-6, sr.Time, 1e-15)
}

func TestStepRejectsNonPositiveDt(t *testing.T) {
	plan := rcPlan(t)
	_, err := Init(plan, 0)
	assert.Error(t, err)
}

func dividerPlan(t *testing.T) *circuit.Plan {
	t.Helper()
	v, err := device.NewVoltageSource("V1", []string{"1", "0"}, waveform.NewDC(10))
	require.NoError(t, err)
	r1, err := device.NewResistor("R1", []string{"1", "2"}, 1000)
	require.NoError(t, err)
	r2, err := device.NewResistor("R2", []string{"2", "0"}, 1000)
	require.NoError(t, err)

	ckt := circuit.New("divider")
	ckt.AddComponents([]device.Device{v, r1, r2})
	plan, err := ckt.Preprocess()
	require.NoError(t, err)
	return plan
}

func TestStepOhmsLawOnResistorDivider(t *testing.T) {
	plan := dividerPlan(t)
	e, err := Init(plan, 1e-6)
	require.NoError(t, err)
	defer e.Destroy()

	sr, err := e.Step(nil)
	require.NoError(t, err)

	v1 := sr.NodeVoltages[plan.NodeIndex["1"]]
	v2 := sr.NodeVoltages[plan.NodeIndex["2"]]
	assert.InDelta(t, 10.0, v1, 1e-6)
	assert.InDelta(t, 5.0, v2, 1e-6)
}

func rlcPlan(t *testing.T) *circuit.Plan {
	t.Helper()
	v, err := device.NewVoltageSource("V1", []string{"in", "0"}, waveform.NewDC(1))
	require.NoError(t, err)
	r, err := device.NewResistor("R1", []string{"in", "mid"}, 10)
	require.NoError(t, err)
	l, err := device.NewInductor("L1", []string{"mid", "out"}, 1e-3, device.StateCurrentForm)
	require.NoError(t, err)
	c, err := device.NewCapacitor("C1", []string{"out", "0"}, 1e-6)
	require.NoError(t, err)

	ckt := circuit.New("rlc")
	ckt.AddComponents([]device.Device{v, r, l, c})
	plan, err := ckt.Preprocess()
	require.NoError(t, err)
	return plan
}

func TestRunTransientRLCStepSettlesNearSourceVoltage(t *testing.T) {
	plan := rlcPlan(t)

	res, err := RunTransient(plan, Params{
		StartTime: 0,
		StopTime:  2e-3,
		TimeStep:  1e-7,
	})
	require.NoError(t, err)

	vout := res.StateVars["C1"]
	require.NotEmpty(t, vout)
	assert.InDelta(t, 1.0, vout[len(vout)-1], 0.1)
}

func buckConverterAveragePlan(t *testing.T) *circuit.Plan {
	t.Helper()
	vEq, err := device.NewVoltageSource("Veq", []string{"in", "0"}, waveform.NewDC(12))
	require.NoError(t, err)
	l1, err := device.NewInductor("L1", []string{"in", "out"}, 150e-6, device.StateCurrentForm)
	require.NoError(t, err)
	l1.SetInitialCondition(1.2)
	d1, err := device.NewDiode("D1", []string{"0", "out"}, 0.7, 10e-3, 1e6)
	require.NoError(t, err)
	c1, err := device.NewCapacitor("C1", []string{"out", "0"}, 47e-6)
	require.NoError(t, err)
	c1.SetInitialCondition(12)
	rl, err := device.NewResistor("Rload", []string{"out", "0"}, 10)
	require.NoError(t, err)

	ckt := circuit.New("buck")
	ckt.AddComponents([]device.Device{vEq, l1, d1, c1, rl})
	plan, err := ckt.Preprocess()
	require.NoError(t, err)
	return plan
}

func TestRunTransientBuckConverterAverageModelHoldsSteadyState(t *testing.T) {
	plan := buckConverterAveragePlan(t)

	res, err := RunTransient(plan, Params{
		StartTime: 0,
		StopTime:  200e-6,
		TimeStep:  1e-7,
	})
	require.NoError(t, err)

	vout := res.StateVars["C1"]
	iL := res.StateVars["L1"]
	require.NotEmpty(t, vout)
	require.NotEmpty(t, iL)

	assert.InDelta(t, 12.0, vout[len(vout)-1], 12.0*0.05)
	assert.InDelta(t, 1.2, iL[len(iL)-1], 1.2*0.05)
}

func halfWaveRectifierPlan(t *testing.T) *circuit.Plan {
	t.Helper()
	v, err := device.NewVoltageSource("Vin", []string{"1", "0"}, waveform.NewSine(0, 5, 1000, 0, 0))
	require.NoError(t, err)
	r1, err := device.NewResistor("R1", []string{"1", "2"}, 100)
	require.NoError(t, err)
	d1, err := device.NewDiode("D1", []string{"2", "3"}, 0.7, 0.568, 1e6)
	require.NoError(t, err)
	c1, err := device.NewCapacitor("C1", []string{"3", "0"}, 10e-6)
	require.NoError(t, err)
	rl, err := device.NewResistor("RL", []string{"3", "0"}, 1000)
	require.NoError(t, err)

	ckt := circuit.New("rectifier")
	ckt.AddComponents([]device.Device{v, r1, d1, c1, rl})
	plan, err := ckt.Preprocess()
	require.NoError(t, err)
	return plan
}

func TestRunTransientHalfWaveRectifierClampsOutputBelowInputPeak(t *testing.T) {
	plan := halfWaveRectifierPlan(t)

	res, err := RunTransient(plan, Params{
		StartTime: 0,
		StopTime:  5e-3,
		TimeStep:  5e-6,
	})
	require.NoError(t, err)

	vout := res.StateVars["C1"]
	require.NotEmpty(t, vout)

	max := vout[0]
	for _, v := range vout {
		if v > max {
			max = v
		}
	}
	assert.Less(t, max, 5.0)
	assert.Greater(t, max, 0.0)
}

func TestApplyControlsDrivesSettableDevice(t *testing.T) {
	sw, err := device.NewSwitch("S1", []string{"a", "0"}, 1e-3, 1e6)
	require.NoError(t, err)
	byName := map[string]device.Device{"S1": sw}

	applyControls(byName, map[string]float64{"S1": 1})
	assert.Equal(t, device.SwitchClosed, sw.Mode())

	applyControls(byName, map[string]float64{"S1": 0})
	assert.Equal(t, device.SwitchOpen, sw.Mode())
}
