package numeric

import (
	"math"

	"github.com/nyquist-labs/spicekernel/internal/consts"
	"github.com/nyquist-labs/spicekernel/pkg/spiceerr"
)

// GaussSeidel is the fallback iterative solver of spec section 4.1: a
// successive-over-relaxation variant whose relaxation factor adapts
// downward (0.95x) whenever the residual grows, bounded above by the
// super-relaxation cap of 1.5.
func GaussSeidel(d *Dense, x0 []float64, maxIter int, tol float64) (x []float64, iterations int, err error) {
	n := d.n
	if maxIter <= 0 {
		maxIter = consts.IterMaxIterations
	}
	if tol <= 0 {
		tol = consts.IterResidualTol
	}

	x = make([]float64, n)
	copy(x, x0)

	diag := make([]float64, n)
	for i := 0; i < n; i++ {
		diag[i] = d.Diag(i)
		if math.Abs(diag[i]) < consts.DirectPivotFloor {
			diag[i] += consts.DiagRegularize
		}
	}

	omega := consts.SORRelaxInit
	prevResidual := math.Inf(1)

	for iter := 1; iter <= maxIter; iter++ {
		for i := 0; i < n; i++ {
			sum := d.rhs[i]
			for j := 0; j < n; j++ {
				if j == i {
					continue
				}
				aij := d.At(i, j)
				if aij != 0 {
					sum -= aij * x[j]
				}
			}
			gs := sum / diag[i]
			x[i] = x[i] + omega*(gs-x[i])
		}

		residual := residualNorm(d, x)
		if residual < tol {
			return x, iter, nil
		}

		if residual > prevResidual {
			omega *= consts.SORRelaxDecay
		} else if omega < consts.SORRelaxCap {
			omega = math.Min(omega*1.01, consts.SORRelaxCap)
		}
		prevResidual = residual
	}

	return nil, maxIter, spiceerr.New(spiceerr.DidNotConverge, "Gauss-Seidel: exceeded %d iterations", maxIter)
}
