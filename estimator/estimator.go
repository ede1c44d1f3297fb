// Package estimator computes the element-wise residual and edge-jump error
// indicator of a CST displacement field and marks elements for refinement.
package estimator

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/notargets/ElastAMR/element"
	"github.com/notargets/ElastAMR/material"
	"github.com/notargets/ElastAMR/mesh"
)

var ErrDegenerateEdge = errors.New("edge vector vanishes after regularisation")

// Params are the estimator constants
type Params struct {
	Threshold   float64 // Mark when e_rel exceeds this
	EdgeEpsilon float64 // Added to both components of every edge vector
	Density     float64
	Gravity     float64
}

// DefaultParams matches the reference L-domain run
func DefaultParams() Params {
	return Params{Threshold: 0.1, EdgeEpsilon: 1e-4, Density: 0.1, Gravity: 10}
}

// Result holds the per-element indicators
type Result struct {
	Marked   []int     // Elements with e_rel > Threshold, ascending
	EtaK     []float64 // Absolute indicator per element
	Eta      float64   // Sum of EtaK
	ERel     []float64 // EtaK / |d|, NaN where not Defined
	Defined  []bool    // Element has a free vertex and nonzero local displacement
	MeanSize float64   // Mean of the regularised longest edge
}

// edgeNormal returns the regularised length of q-p and the unit vector
// perpendicular to it
func edgeNormal(p, q element.Point, eps float64) (float64, [2]float64, error) {
	vx, vy := q[0]-p[0]+eps, q[1]-p[1]+eps
	if vx == 0 && vy == 0 {
		return 0, [2]float64{}, ErrDegenerateEdge
	}
	h := math.Hypot(vx, vy)
	if vx == 0 {
		// limit of the formula below as vx -> 0+
		return h, [2]float64{-math.Copysign(1, vy), 0}, nil
	}
	b := math.Sqrt(1 / (1 + vy*vy/(vx*vx)))
	a := -b * vy / vx
	return h, [2]float64{a, b}, nil
}

// jump is |n . dbasis|, the local flux jump proxy of an edge with normal n
func jump(n [2]float64, dbasis *mat.Dense) float64 {
	var r mat.VecDense
	r.MulVec(dbasis.T(), mat.NewVecDense(2, n[:]))
	return floats.Norm(r.RawVector().Data, 2)
}

// Estimate evaluates the indicator for every element of m at displacement u.
// onBoundary flags the Dirichlet vertices.
func Estimate(m *mesh.Mesh, el *material.Elastic, u []float64, onBoundary []bool, p Params) (*Result, error) {
	ne := m.NumElements()
	if len(u) != m.NumDOF() {
		return nil, fmt.Errorf("displacement has %d entries, mesh has %d DOFs", len(u), m.NumDOF())
	}
	if len(onBoundary) != m.NumVertices() {
		return nil, fmt.Errorf("%d boundary flags for %d vertices", len(onBoundary), m.NumVertices())
	}
	var (
		C      = el.C()
		K      = el.StiffnessScale()
		dbasis = element.ReferenceGradient()
		res    = &Result{
			EtaK:    make([]float64, ne),
			ERel:    make([]float64, ne),
			Defined: make([]bool, ne),
		}
		sumH float64
	)
	for k, v := range m.E {
		x := m.Vertices(k)
		t, err := element.NewTriangle(x[0], x[1], x[2])
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", k, err)
		}
		d := element.Gather(u, v)

		// edges (v0,v1), (v1,v2), (v2,v0); the third is measured from v0
		var (
			h, J2 float64
			ends  = [3][2]int{{0, 1}, {1, 2}, {0, 2}}
		)
		for i, e := range ends {
			l, n, err := edgeNormal(x[e[0]], x[e[1]], p.EdgeEpsilon)
			if err != nil {
				return nil, fmt.Errorf("element %d edge %d: %w", k, i+1, err)
			}
			h = math.Max(h, l)
			if onBoundary[v[e[0]]] && onBoundary[v[e[1]]] {
				continue
			}
			j := jump(n, dbasis)
			J2 += j * j
		}
		sumH += h

		r := t.Divergence(t.Stress(C, d))
		floats.Add(r, t.BodyForce(p.Density, p.Gravity))
		R := floats.Norm(r, 2)

		res.EtaK[k] = h*h/(24*K)*R*R + h/(24*K)*J2
		res.Eta += res.EtaK[k]

		res.ERel[k] = math.NaN()
		free := !onBoundary[v[0]] || !onBoundary[v[1]] || !onBoundary[v[2]]
		if nd := floats.Norm(d, 2); free && nd > 0 {
			res.ERel[k] = res.EtaK[k] / nd
			res.Defined[k] = true
			if res.ERel[k] > p.Threshold {
				res.Marked = append(res.Marked, k)
			}
		}
	}
	res.MeanSize = sumH / float64(ne)
	return res, nil
}

// MaxERel is the largest defined e_rel among elems, and false when none is defined
func (r *Result) MaxERel(elems []int) (float64, bool) {
	best, ok := math.Inf(-1), false
	for _, k := range elems {
		if r.Defined[k] && r.ERel[k] > best {
			best, ok = r.ERel[k], true
		}
	}
	return best, ok
}
