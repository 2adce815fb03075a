package numeric

import (
	"math"

	"github.com/nyquist-labs/spicekernel/internal/consts"
	"github.com/nyquist-labs/spicekernel/pkg/spiceerr"
)

// Jacobi is the first-choice iterative solver of spec section 4.1: it
// fails with DidNotConverge after maxIter (default 1000) or if any
// diagonal magnitude falls below 1e-15.
func Jacobi(d *Dense, x0 []float64, maxIter int, tol float64) (x []float64, iterations int, err error) {
	n := d.n
	if maxIter <= 0 {
		maxIter = consts.IterMaxIterations
	}
	if tol <= 0 {
		tol = consts.IterResidualTol
	}

	x = make([]float64, n)
	copy(x, x0)
	next := make([]float64, n)

	diag := make([]float64, n)
	for i := 0; i < n; i++ {
		diag[i] = d.Diag(i)
		if math.Abs(diag[i]) < 1e-15 {
			return nil, 0, spiceerr.New(spiceerr.DidNotConverge, "Jacobi: diagonal |G[%d][%d]| below 1e-15", i, i)
		}
	}

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
			next[i] = sum / diag[i]
		}

		residual := residualNorm(d, next)
		copy(x, next)

		if residual < tol {
			return x, iter, nil
		}
	}

	return nil, maxIter, spiceerr.New(spiceerr.DidNotConverge, "Jacobi: exceeded %d iterations", maxIter)
}

// residualNorm computes ||Ax - b||2 for the current candidate x.
func residualNorm(d *Dense, x []float64) float64 {
	n := d.n
	sumSq := 0.0
	for i := 0; i < n; i++ {
		ax := 0.0
		for j := 0; j < n; j++ {
			aij := d.At(i, j)
			if aij != 0 {
				ax += aij * x[j]
			}
		}
		diff := ax - d.rhs[i]
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq)
}
