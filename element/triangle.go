package element

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Triangle holds the geometric state of one affine triangle. Everything is
// constant over the element.
type Triangle struct {
	X    [NVp]Point
	J    *mat.Dense // 2x2, rows x1-x0 and x2-x0
	DetJ float64    // det(J^T), twice the signed area
	DNdx *mat.Dense // 2x3 physical gradients (J^-1)^T * ReferenceGradient
	B    *mat.Dense // 3x6 strain-displacement operator
}

// NewTriangle computes the Jacobian and the B operator. Vertices must be
// ordered counter-clockwise.
func NewTriangle(x0, x1, x2 Point) (*Triangle, error) {
	t := &Triangle{X: [NVp]Point{x0, x1, x2}}
	t.J = mat.NewDense(NDim, NDim, []float64{
		x1[0] - x0[0], x1[1] - x0[1],
		x2[0] - x0[0], x2[1] - x0[1],
	})
	t.DetJ = mat.Det(t.J.T())

	scale := 0.
	for _, e := range [][2]float64{{t.J.At(0, 0), t.J.At(0, 1)}, {t.J.At(1, 0), t.J.At(1, 1)}} {
		scale = math.Max(scale, e[0]*e[0]+e[1]*e[1])
	}
	if scale == 0 || math.Abs(t.DetJ) <= DegenerateTol*scale {
		return nil, fmt.Errorf("%w: vertices %v %v %v", ErrDegenerate, x0, x1, x2)
	}
	if t.DetJ < 0 {
		return nil, fmt.Errorf("%w: detJ=%g for vertices %v %v %v", ErrInverted, t.DetJ, x0, x1, x2)
	}

	var invJ mat.Dense
	if err := invJ.Inverse(t.J); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDegenerate, err)
	}
	t.DNdx = mat.NewDense(NDim, NVp, nil)
	t.DNdx.Mul(invJ.T(), ReferenceGradient())

	t.B = mat.NewDense(NSig, NDOF, nil)
	for n := 0; n < NVp; n++ {
		dx, dy := t.DNdx.At(0, n), t.DNdx.At(1, n)
		t.B.Set(0, 2*n, dx)
		t.B.Set(1, 2*n+1, dy)
		t.B.Set(2, 2*n, dy)
		t.B.Set(2, 2*n+1, dx)
	}
	return t, nil
}

// Area is half of detJ
func (t *Triangle) Area() float64 { return t.DetJ / 2 }

// Centroid is the vertex average
func (t *Triangle) Centroid() Point {
	return Point{
		(t.X[0][0] + t.X[1][0] + t.X[2][0]) / 3,
		(t.X[0][1] + t.X[1][1] + t.X[2][1]) / 3,
	}
}

// Strain returns B*d for the element displacement d (length 6)
func (t *Triangle) Strain(d []float64) *mat.VecDense {
	var eps mat.VecDense
	eps.MulVec(t.B, mat.NewVecDense(NDOF, d))
	return &eps
}

// Stress returns C*B*d
func (t *Triangle) Stress(C mat.Matrix, d []float64) *mat.VecDense {
	var sig mat.VecDense
	sig.MulVec(C, t.Strain(d))
	return &sig
}

// Divergence returns B^T*sig without the area weight
func (t *Triangle) Divergence(sig mat.Vector) []float64 {
	var r mat.VecDense
	r.MulVec(t.B.T(), sig)
	return r.RawVector().Data
}

// InternalForce returns (detJ/2) * B^T * C * B * d
func (t *Triangle) InternalForce(C mat.Matrix, d []float64) []float64 {
	f := t.Divergence(t.Stress(C, d))
	for i := range f {
		f[i] *= t.DetJ / 2
	}
	return f
}

// Stiffness returns (detJ/2) * B^T * C * B, symmetrised
func (t *Triangle) Stiffness(C mat.Matrix) *mat.SymDense {
	var cb, k mat.Dense
	cb.Mul(C, t.B)
	k.Mul(t.B.T(), &cb)
	ke := mat.NewSymDense(NDOF, nil)
	for i := 0; i < NDOF; i++ {
		for j := i; j < NDOF; j++ {
			ke.SetSym(i, j, 0.5*(k.At(i, j)+k.At(j, i))*t.DetJ/2)
		}
	}
	return ke
}

// BodyForce distributes the load rho*g on the y DOFs, one third per vertex
func (t *Triangle) BodyForce(rho, g float64) []float64 {
	w := t.DetJ / 6 * rho * g
	return []float64{0, w, 0, w, 0, w}
}
