package circuit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nyquist-labs/spicekernel/pkg/device"
	"github.com/nyquist-labs/spicekernel/pkg/waveform"
)

func dividerComponents(t *testing.T) []device.Device {
	t.Helper()
	v, err := device.NewVoltageSource("V1", []string{"in", "0"}, waveform.NewDC(5))
	require.NoError(t, err)
	r1, err := device.NewResistor("R1", []string{"in", "out"}, 1000)
	require.NoError(t, err)
	r2, err := device.NewResistor("R2", []string{"out", "0"}, 1000)
	require.NoError(t, err)
	return []device.Device{v, r1, r2}
}

func TestPreprocessAssignsNodesAndBranches(t *testing.T) {
	c := New("divider")
	c.AddComponents(dividerComponents(t))

	plan, err := c.Preprocess()
	require.NoError(t, err)

	assert.Equal(t, 2, plan.NodeCount, "in and out, ground excluded")
	assert.Equal(t, 1, plan.BranchCount, "the voltage source needs one current variable")
	assert.Equal(t, 3, plan.Size)
	assert.Contains(t, plan.NodeIndex, "in")
	assert.Contains(t, plan.NodeIndex, "out")
	assert.NotContains(t, plan.NodeIndex, "0")
}

func TestPreprocessIsIdempotent(t *testing.T) {
	components := dividerComponents(t)
	c1 := New("a")
	c1.AddComponents(components)
	plan1, err := c1.Preprocess()
	require.NoError(t, err)

	c2 := New("b")
	c2.AddComponents(components)
	plan2, err := c2.Preprocess()
	require.NoError(t, err)

	assert.Equal(t, plan1.NodeIndex, plan2.NodeIndex)
	assert.Equal(t, plan1.BranchCount, plan2.BranchCount)
	for i := 0; i < plan1.Size; i++ {
		for j := 0; j < plan1.Size; j++ {
			assert.InDelta(t, plan1.Matrix.At(i, j), plan2.Matrix.At(i, j), 1e-15)
		}
	}
}

func TestPreprocessRejectsDuplicateNames(t *testing.T) {
	r1, _ := device.NewResistor("R1", []string{"a", "0"}, 100)
	r2, _ := device.NewResistor("R1", []string{"a", "b"}, 200)
	c := New("dup")
	c.AddComponents([]device.Device{r1, r2})

	_, err := c.Preprocess()
	assert.Error(t, err)
}

func TestPreprocessRejectsEmptyCircuit(t *testing.T) {
	c := New("empty")
	_, err := c.Preprocess()
	assert.Error(t, err)
}

func TestPreprocessStampsSymmetricResistiveBlock(t *testing.T) {
	c := New("divider")
	c.AddComponents(dividerComponents(t))

	plan, err := c.Preprocess()
	require.NoError(t, err)
	assert.True(t, plan.Matrix.Symmetric(1e-12))
}

func TestPreprocessWarnsOnFloatingNode(t *testing.T) {
	r, _ := device.NewResistor("R1", []string{"a", "0"}, 100)
	iso, _ := device.NewResistor("R2", []string{"iso", "iso2"}, 100)
	c := New("floating")
	c.AddComponents([]device.Device{r, iso})

	plan, err := c.Preprocess()
	require.NoError(t, err)
	assert.NotEmpty(t, plan.Warnings)
}

func TestPreprocessWarnsWhenNoGroundReference(t *testing.T) {
	r1, _ := device.NewResistor("R1", []string{"a", "b"}, 100)
	r2, _ := device.NewResistor("R2", []string{"b", "a"}, 200)
	c := New("floating-loop")
	c.AddComponents([]device.Device{r1, r2})

	plan, err := c.Preprocess()
	require.NoError(t, err)
	assert.Contains(t, plan.Warnings, "circuit has no ground reference (node 0/gnd not used by any component)")
}

func TestPreprocessNoGroundWarningWhenGroundPresent(t *testing.T) {
	c := New("divider")
	c.AddComponents(dividerComponents(t))
	plan, err := c.Preprocess()
	require.NoError(t, err)
	for _, w := range plan.Warnings {
		assert.NotContains(t, w, "no ground reference")
	}
}

func TestPreprocessWithTempShiftsResistorStamp(t *testing.T) {
	r, err := device.NewResistor("R1", []string{"a", "0"}, 1000)
	require.NoError(t, err)
	r.TempCoeff1 = 2e-3

	cNominal := New("nominal")
	cNominal.AddComponents([]device.Device{r})
	planNominal, err := cNominal.Preprocess(WithTemp(r.NominalTemp))
	require.NoError(t, err)

	r2, err := device.NewResistor("R1", []string{"a", "0"}, 1000)
	require.NoError(t, err)
	r2.TempCoeff1 = 2e-3
	cHot := New("hot")
	cHot.AddComponents([]device.Device{r2})
	planHot, err := cHot.Preprocess(WithTemp(r.NominalTemp + 100))
	require.NoError(t, err)

	idx := planNominal.NodeIndex["a"]
	assert.NotEqual(t, planNominal.Matrix.At(idx, idx), planHot.Matrix.At(idx, idx))
}

func TestPreprocessGroupsCoupledInductors(t *testing.T) {
	l1, _ := device.NewInductor("L1", []string{"a", "0"}, 1e-3, device.StateCurrentForm)
	l2, _ := device.NewInductor("L2", []string{"b", "0"}, 1e-3, device.StateCurrentForm)
	group, err := device.NewCoupledInductorGroup("K1", []*device.Inductor{l1, l2})
	require.NoError(t, err)
	require.NoError(t, group.SetCoupling(0, 1, 0.8))

	c := New("xfmr")
	c.AddComponents([]device.Device{l1, l2, group})

	plan, err := c.Preprocess()
	require.NoError(t, err)
	require.Len(t, plan.CoupledGroups, 1)

	g, idx, ok := plan.GroupOf(l1)
	require.True(t, ok)
	assert.Equal(t, 0, idx)
	assert.Same(t, group, g)
}
