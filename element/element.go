// Package element implements the linear three-node triangle (constant strain
// triangle) used by the elasticity assembly and the error estimator.
package element

import (
	"errors"

	"gonum.org/v1/gonum/mat"
)

const (
	NVp  = 3       // Vertices per element
	NDim = 2       // Spatial dimension
	NDOF = NVp * 2 // Displacement DOFs per element, ordered x0,y0,x1,y1,x2,y2
	NSig = 3       // Voigt components: xx, yy, xy
)

// DegenerateTol bounds |detJ| relative to the squared element size
const DegenerateTol = 1e-12

var (
	ErrDegenerate = errors.New("degenerate triangle")
	ErrInverted   = errors.New("inverted triangle")
)

// Point is a 2-D coordinate
type Point = [2]float64

// ReferenceGradient returns the shape function gradients on the reference
// triangle, rows d/dr and d/ds, columns N0, N1, N2
func ReferenceGradient() *mat.Dense {
	return mat.NewDense(NDim, NVp, []float64{
		-1, 1, 0,
		-1, 0, 1,
	})
}

// DOFs maps the three vertex indices to the six global DOF indices
func DOFs(v [3]int) [NDOF]int {
	return [NDOF]int{2 * v[0], 2*v[0] + 1, 2 * v[1], 2*v[1] + 1, 2 * v[2], 2*v[2] + 1}
}

// Gather pulls an element vector out of a global DOF vector
func Gather(u []float64, v [3]int) []float64 {
	d := make([]float64, NDOF)
	for i, I := range DOFs(v) {
		d[i] = u[I]
	}
	return d
}
