package solver

import (
	"errors"
	"math"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/notargets/ElastAMR/assembly"
	"github.com/notargets/ElastAMR/builder"
	"github.com/notargets/ElastAMR/material"
	"github.com/notargets/ElastAMR/mesh"
)

type problem struct {
	m    *mesh.Mesh
	sys  *assembly.System
	fext []float64
	fb   []float64
	dofs *DOFSet
}

func setup(t *testing.T, c, gravity float64) problem {
	t.Helper()
	m, err := mesh.NewAdapter(c, c/10, 100000).Initial()
	require.NoError(t, err)
	el, err := material.New(10, 0.3, material.PlaneStress)
	require.NoError(t, err)
	load := assembly.Load{Point: [2]float64{1, 0.5}, Direction: 1, Magnitude: -0.09}
	sys, err := assembly.Assemble(m, el, load, nil)
	require.NoError(t, err)
	fext, err := assembly.ExternalForce(m, load)
	require.NoError(t, err)
	fb, err := assembly.BodyForce(m, 0.1, gravity)
	require.NoError(t, err)
	dofs, err := Partition(m, TopEdge(1, 1e-12))
	require.NoError(t, err)
	return problem{m: m, sys: sys, fext: fext, fb: fb, dofs: dofs}
}

func TestPartitionTopEdge(t *testing.T) {
	p := setup(t, 0.02, 10)
	d := p.dofs
	assert.Equal(t, p.m.NumDOF(), d.NumDOF())
	assert.True(t, sort.IntsAreSorted(d.Constrained))
	assert.True(t, sort.IntsAreSorted(d.Free))

	seen := make(map[int]bool)
	for _, i := range append(append([]int{}, d.Constrained...), d.Free...) {
		assert.False(t, seen[i], "DOF %d listed twice", i)
		seen[i] = true
	}
	for _, i := range d.Constrained {
		assert.Equal(t, 1., p.m.V[i/2][1])
	}
	// (0.5,1) and (0,1) are polygon points 4 and 5
	assert.True(t, d.OnBoundary[4])
	assert.True(t, d.OnBoundary[5])
	assert.False(t, d.OnBoundary[2])
}

func TestPartitionRejectsDegenerateConditions(t *testing.T) {
	p := setup(t, 0.05, 10)
	_, err := Partition(p.m, TopEdge(2, 1e-12))
	assert.True(t, errors.Is(err, ErrNoConstraints))
	_, err = Partition(p.m, func([2]float64) bool { return true })
	assert.True(t, errors.Is(err, ErrAllConstrained))
}

func TestReducedStiffnessIsSPD(t *testing.T) {
	p := setup(t, 0.05, 10)
	kff, err := builder.Submatrix(p.sys.K, p.dofs.Free, p.dofs.Free)
	require.NoError(t, err)
	a, err := builder.ToSymDense(kff)
	require.NoError(t, err)
	var es mat.EigenSym
	require.True(t, es.Factorize(a, false))
	for _, v := range es.Values(nil) {
		assert.Greater(t, v, 0.)
	}
}

func TestSolveSatisfiesReducedSystem(t *testing.T) {
	p := setup(t, 0.02, 10)
	sol, err := Solve(p.sys, p.fext, p.fb, p.dofs)
	require.NoError(t, err)
	require.Len(t, sol.U, p.m.NumDOF())
	assert.Equal(t, len(p.dofs.Free), sol.NFree)
	assert.Len(t, sol.Fint, sol.NFree)

	for _, i := range p.dofs.Constrained {
		assert.Equal(t, 0., sol.U[i])
	}
	r := assembly.Residual(p.sys.K, sol.U, make([]float64, len(sol.U)))
	rf := builder.GatherVec(r, p.dofs.Free)
	assert.InDeltaSlice(t, sol.RHS, rf, 1e-10)

	// global equilibrium: reactions balance the applied loads
	R := Reactions(p.sys.K, sol.U, p.fext, p.fb, p.dofs)
	rx, ry := 0., 0.
	for k, i := range p.dofs.Constrained {
		if i%2 == 0 {
			rx += R[k]
		} else {
			ry += R[k]
		}
	}
	assert.InDelta(t, 0, rx, 1e-10)
	assert.InDelta(t, 0.09+0.1*10*0.75, ry, 1e-10)
}

func TestLoadedDOFMovesWithTheLoad(t *testing.T) {
	p := setup(t, 0.02, 0)
	sol, err := Solve(p.sys, p.fext, p.fb, p.dofs)
	require.NoError(t, err)
	assert.Less(t, sol.U[p.sys.LoadedDOF], 0.)
	for _, v := range sol.U {
		assert.False(t, math.IsNaN(v))
	}
}

func TestSolveSingular(t *testing.T) {
	// vertex 4 belongs to no element, so its DOFs have zero stiffness
	m := &mesh.Mesh{
		V: [][2]float64{{0, 0}, {1, 0}, {1, 1}, {0, 1}, {2, 2}},
		E: [][3]int{{0, 1, 2}, {0, 2, 3}},
	}
	el, err := material.New(10, 0.3, material.PlaneStress)
	require.NoError(t, err)
	load := assembly.Load{Point: [2]float64{1, 0}, Direction: 1, Magnitude: -1}
	sys, err := assembly.Assemble(m, el, load, nil)
	require.NoError(t, err)
	fext, err := assembly.ExternalForce(m, load)
	require.NoError(t, err)
	dofs, err := Partition(m, TopEdge(1, 1e-12))
	require.NoError(t, err)

	_, err = Solve(sys, fext, make([]float64, m.NumDOF()), dofs)
	assert.True(t, errors.Is(err, ErrSingular))

	_, err = Solve(sys, fext[:3], make([]float64, m.NumDOF()), dofs)
	assert.Error(t, err)
}
