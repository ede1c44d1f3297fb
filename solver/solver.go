// Package solver splits the DOFs into constrained and free sets and solves
// the reduced linear system for the displacement.
package solver

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/notargets/ElastAMR/assembly"
	"github.com/notargets/ElastAMR/builder"
	"github.com/notargets/ElastAMR/mesh"
)

var (
	ErrNoConstraints  = errors.New("no vertex matches the boundary condition")
	ErrAllConstrained = errors.New("every vertex matches the boundary condition")
	ErrSingular       = errors.New("reduced stiffness is singular")
)

// DOFSet partitions 0..2nv-1. Both lists are ascending and disjoint.
type DOFSet struct {
	Constrained []int
	Free        []int
	OnBoundary  []bool // Per vertex: clamped
}

// NumDOF is the total size
func (d *DOFSet) NumDOF() int { return len(d.Constrained) + len(d.Free) }

// TopEdge selects vertices with |y - y0| < tol
func TopEdge(y0, tol float64) func(p [2]float64) bool {
	return func(p [2]float64) bool { return math.Abs(p[1]-y0) < tol }
}

// Partition clamps both DOFs of every vertex selected by isConstrained
func Partition(m *mesh.Mesh, isConstrained func(p [2]float64) bool) (*DOFSet, error) {
	d := &DOFSet{OnBoundary: make([]bool, m.NumVertices())}
	for v, p := range m.V {
		dofs := []int{2 * v, 2*v + 1}
		if isConstrained(p) {
			d.OnBoundary[v] = true
			d.Constrained = append(d.Constrained, dofs...)
		} else {
			d.Free = append(d.Free, dofs...)
		}
	}
	switch {
	case len(d.Constrained) == 0:
		return nil, ErrNoConstraints
	case len(d.Free) == 0:
		return nil, fmt.Errorf("%w: %d vertices", ErrAllConstrained, m.NumVertices())
	}
	return d, nil
}

// Solution is the displacement together with the reduced quantities
type Solution struct {
	U     []float64 // Full displacement, zero on constrained DOFs
	RHS   []float64 // Fext_f - Fb_f
	Fint  []float64 // Fint_f, carried but not part of RHS
	NFree int
	Cond  float64 // Condition estimate of K_ff
}

// Solve extracts K_ff and solves K_ff u_f = Fext_f - Fb_f by Cholesky
func Solve(sys *assembly.System, fext, fb []float64, dofs *DOFSet) (*Solution, error) {
	n := sys.NDOF()
	if len(fext) != n || len(fb) != n || dofs.NumDOF() != n {
		return nil, fmt.Errorf("size mismatch: K %d, fext %d, fb %d, dofs %d",
			n, len(fext), len(fb), dofs.NumDOF())
	}
	kff, err := builder.Submatrix(sys.K, dofs.Free, dofs.Free)
	if err != nil {
		return nil, fmt.Errorf("extract K_ff: %w", err)
	}
	a, err := builder.ToSymDense(kff)
	if err != nil {
		return nil, err
	}
	nf := len(dofs.Free)
	rhs := builder.GatherVec(fext, dofs.Free)
	floats.Sub(rhs, builder.GatherVec(fb, dofs.Free))

	var ch mat.Cholesky
	if ok := ch.Factorize(a); !ok {
		return nil, fmt.Errorf("%w: %d free DOFs, check that the constraints remove all rigid-body modes",
			ErrSingular, nf)
	}
	var uf mat.VecDense
	if err := ch.SolveVecTo(&uf, mat.NewVecDense(nf, rhs)); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return nil, fmt.Errorf("%w: %v", ErrSingular, err)
		}
	}

	u := make([]float64, n)
	builder.ScatterVec(u, dofs.Free, uf.RawVector().Data)
	return &Solution{
		U:     u,
		RHS:   rhs,
		Fint:  builder.GatherVec(sys.Fint, dofs.Free),
		NFree: nf,
		Cond:  ch.Cond(),
	}, nil
}

// Reactions returns K*u - (fext - fb) at the constrained DOFs, in the order
// of dofs.Constrained
func Reactions(K mat.Matrix, u, fext, fb []float64, dofs *DOFSet) []float64 {
	f := make([]float64, len(fext))
	floats.SubTo(f, fext, fb)
	r := assembly.Residual(K, u, f)
	return builder.GatherVec(r, dofs.Constrained)
}
