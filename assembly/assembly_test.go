package assembly

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/notargets/ElastAMR/material"
	"github.com/notargets/ElastAMR/mesh"
)

func lMesh(t *testing.T, c float64) *mesh.Mesh {
	t.Helper()
	m, err := mesh.NewAdapter(c, c/10, 100000).Initial()
	require.NoError(t, err)
	return m
}

func steel(t *testing.T) *material.Elastic {
	t.Helper()
	el, err := material.New(10, 0.3, material.PlaneStress)
	require.NoError(t, err)
	return el
}

var cornerLoad = Load{Point: [2]float64{1, 0.5}, Direction: 1, Magnitude: -0.09}

func TestAssembleStiffnessSymmetric(t *testing.T) {
	m := lMesh(t, 0.05)
	sys, err := Assemble(m, steel(t), cornerLoad, nil)
	require.NoError(t, err)
	n := m.NumDOF()
	assert.Equal(t, n, sys.NDOF())
	assert.Equal(t, 5, sys.LoadedDOF)

	K := mat.DenseCopyOf(sys.K)
	for i := 0; i < n; i++ {
		for j := 0; j < i; j++ {
			if math.Abs(K.At(i, j)-K.At(j, i)) > 1e-12 {
				t.Fatalf("K(%d,%d)=%g but K(%d,%d)=%g", i, j, K.At(i, j), j, i, K.At(j, i))
			}
		}
	}
	// rigid translations carry no force
	for dir := 0; dir < 2; dir++ {
		u := make([]float64, n)
		for v := 0; v < m.NumVertices(); v++ {
			u[2*v+dir] = 1
		}
		r := Residual(sys.K, u, make([]float64, n))
		assert.InDelta(t, 0, floats.Norm(r, math.Inf(1)), 1e-12)
	}
	assert.InDeltaSlice(t, make([]float64, n), sys.Fint, 1e-15)
}

func TestConstantStrainPatch(t *testing.T) {
	m := lMesh(t, 0.02)
	el := steel(t)
	const a, b, c, d = 1e-3, -2e-3, 5e-4, 3e-3
	u := make([]float64, m.NumDOF())
	for v, x := range m.V {
		u[2*v] = a*x[0] + b*x[1]
		u[2*v+1] = c*x[0] + d*x[1]
	}
	want := el.Stress(mat.NewVecDense(3, []float64{a, d, b + c}))

	sig, err := ElementStresses(m, el, u)
	require.NoError(t, err)
	for k, s := range sig {
		assert.InDeltaSlicef(t, want.RawVector().Data, s[:], 1e-12, "element %d", k)
	}

	fint, norm, err := InternalForce(m, el, u)
	require.NoError(t, err)
	assert.Greater(t, norm, 0.)
	conn, err := mesh.NewConnectivity(m)
	require.NoError(t, err)
	onBoundary := make([]bool, m.NumVertices())
	for _, e := range conn.BoundaryEdges(m) {
		onBoundary[e[0]], onBoundary[e[1]] = true, true
	}
	for v := range m.V {
		if onBoundary[v] {
			continue
		}
		assert.InDeltaf(t, 0, fint[2*v], 1e-12, "interior vertex %d x", v)
		assert.InDeltaf(t, 0, fint[2*v+1], 1e-12, "interior vertex %d y", v)
	}

	// Fint of Assemble agrees with InternalForce and with K*u
	sys, err := Assemble(m, el, cornerLoad, u)
	require.NoError(t, err)
	assert.InDeltaSlice(t, fint, sys.Fint, 1e-12)
	ku := Residual(sys.K, u, make([]float64, len(u)))
	assert.InDeltaSlice(t, fint, ku, 1e-12)
}

func TestParallelMatchesSequential(t *testing.T) {
	m := lMesh(t, 0.01)
	el := steel(t)
	u := make([]float64, m.NumDOF())
	for i := range u {
		u[i] = math.Sin(float64(i))
	}
	seq, err := Assemble(m, el, cornerLoad, u)
	require.NoError(t, err)
	for _, w := range []int{2, 3, 8} {
		par, err := Assemble(m, el, cornerLoad, u, WithWorkers(w))
		require.NoError(t, err)
		assert.Equal(t, seq.LoadedDOF, par.LoadedDOF)
		assert.InDeltaSlice(t, seq.Fint, par.Fint, 1e-12)
		assert.True(t, mat.EqualApprox(seq.K, par.K, 1e-12), "workers=%d", w)
		assert.Equal(t, seq.K.NNZ(), par.K.NNZ())
	}
}

func TestLoadedDOFLookup(t *testing.T) {
	m := &mesh.Mesh{
		V: [][2]float64{{0, 0}, {1, 0}, {0, 1}, {1, 1}, {0.5, 0.5}},
		E: [][3]int{{0, 1, 2}, {1, 3, 2}},
	}
	dof, err := LoadedDOF(m, Load{Point: [2]float64{1, 1}, Direction: 0})
	require.NoError(t, err)
	assert.Equal(t, 6, dof)

	_, err = LoadedDOF(m, Load{Point: [2]float64{0.5, 0.5}, Direction: 1})
	assert.True(t, errors.Is(err, ErrLoadPointNotFound), "unused vertex must not match")
	_, err = LoadedDOF(m, Load{Point: [2]float64{1, 1 + 1e-15}, Direction: 1})
	assert.True(t, errors.Is(err, ErrLoadPointNotFound))
	_, err = LoadedDOF(m, Load{Point: [2]float64{1, 1}, Direction: 2})
	assert.Error(t, err)

	dup := &mesh.Mesh{
		V: [][2]float64{{0, 0}, {1, 0}, {0, 1}, {1, 1}, {1, 0}},
		E: [][3]int{{0, 1, 2}, {4, 3, 2}},
	}
	_, err = LoadedDOF(dup, Load{Point: [2]float64{1, 0}, Direction: 1})
	assert.True(t, errors.Is(err, ErrAmbiguousLoadPoint))
	_, err = Assemble(dup, steel(t), Load{Point: [2]float64{1, 0}, Direction: 1}, nil)
	assert.True(t, errors.Is(err, ErrAmbiguousLoadPoint))

	f, err := ExternalForce(m, Load{Point: [2]float64{0, 1}, Direction: 1, Magnitude: -2})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 0, 0, 0, -2, 0, 0, 0, 0}, f)
}

func TestBodyForceTotals(t *testing.T) {
	m := lMesh(t, 0.02)
	fb, err := BodyForce(m, 0.1, 10)
	require.NoError(t, err)
	sx, sy := 0., 0.
	for v := range m.V {
		sx += fb[2*v]
		sy += fb[2*v+1]
	}
	assert.InDelta(t, 0, sx, 1e-15)
	assert.InDelta(t, 0.1*10*0.75, sy, 1e-12)
}

func TestAssembleRejectsBadInput(t *testing.T) {
	m := lMesh(t, 0.05)
	_, err := Assemble(m, steel(t), cornerLoad, make([]float64, 3))
	assert.Error(t, err)
	_, _, err = InternalForce(m, steel(t), nil)
	assert.Error(t, err)

	flat := &mesh.Mesh{
		V: [][2]float64{{0, 0}, {1, 0}, {2, 0}},
		E: [][3]int{{0, 1, 2}},
	}
	_, err = BodyForce(flat, 1, 1)
	assert.Error(t, err)
}
