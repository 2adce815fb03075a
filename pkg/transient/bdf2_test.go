package transient

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBDF2CoefficientsAtUnitRatioMatchFixedStepBDF2(t *testing.T) {
	// At r=1 (equal steps) the classic fixed-step BDF2 coefficients
	// are alpha=3/2, beta=-2, gamma=1/2.
	alpha, beta, gamma := BDF2Coefficients(1.0)
	assert.InDelta(t, 1.5, alpha, 1e-12)
	assert.InDelta(t, -2.0, beta, 1e-12)
	assert.InDelta(t, 0.5, gamma, 1e-12)
}

func TestBDF2CoefficientsVaryWithRatio(t *testing.T) {
	alpha, _, _ := BDF2Coefficients(2.0)
	assert.InDelta(t, 5.0/3.0, alpha, 1e-12)
}
