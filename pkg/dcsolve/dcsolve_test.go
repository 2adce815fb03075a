package dcsolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nyquist-labs/spicekernel/pkg/circuit"
	"github.com/nyquist-labs/spicekernel/pkg/device"
	"github.com/nyquist-labs/spicekernel/pkg/waveform"
)

func TestSolveResistorDividerExactToTolerance(t *testing.T) {
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

	res, err := Solve(plan)
	require.NoError(t, err)
	assert.True(t, res.Converged)
	assert.InDelta(t, 10.0, res.NodeVoltages["1"], 1e-6)
	assert.InDelta(t, 5.0, res.NodeVoltages["2"], 1e-6)
	assert.InDelta(t, -5e-3, res.BranchCurrents["V1"], 1e-6)
}

func TestSolveDiodeLimiter(t *testing.T) {
	v, err := device.NewVoltageSource("V1", []string{"1", "0"}, waveform.NewDC(5))
	require.NoError(t, err)
	r1, err := device.NewResistor("R1", []string{"1", "2"}, 1000)
	require.NoError(t, err)
	d1, err := device.NewDiode("D1", []string{"2", "0"}, 0.7, 1e-3, 1e6)
	require.NoError(t, err)

	ckt := circuit.New("limiter")
	ckt.AddComponents([]device.Device{v, r1, d1})
	plan, err := ckt.Preprocess()
	require.NoError(t, err)

	res, err := Solve(plan)
	require.NoError(t, err)
	assert.True(t, res.Converged)
	assert.InDelta(t, 5.0, res.NodeVoltages["1"], 1e-6)
	assert.InDelta(t, 0.7, res.NodeVoltages["2"], 0.05)
}

func TestSolveStartsDiodesOff(t *testing.T) {
	d1, err := device.NewDiode("D1", []string{"a", "0"}, 0.7, 1e-3, 1e6)
	require.NoError(t, err)
	d1.SetMode(device.DiodeOn)

	r, err := device.NewResistor("R1", []string{"a", "0"}, 1000)
	require.NoError(t, err)

	ckt := circuit.New("reset")
	ckt.AddComponents([]device.Device{r, d1})
	plan, err := ckt.Preprocess()
	require.NoError(t, err)

	res, err := Solve(plan)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Iterations)
	assert.Equal(t, device.DiodeOff, d1.Mode())
}
