// Package assembly builds the global stiffness operator and force vectors of
// a triangulated body from its CST elements.
package assembly

import (
	"errors"
	"fmt"
	"math"

	"github.com/james-bowman/sparse"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/notargets/ElastAMR/builder"
	"github.com/notargets/ElastAMR/element"
	"github.com/notargets/ElastAMR/material"
	"github.com/notargets/ElastAMR/mesh"
	"github.com/notargets/ElastAMR/partitions"
)

var (
	ErrLoadPointNotFound  = errors.New("load point is not a mesh vertex")
	ErrAmbiguousLoadPoint = errors.New("load point matches several vertices")
)

// Load is a single point force at a mesh vertex
type Load struct {
	Point     [2]float64
	Direction int // 0 = x, 1 = y
	Magnitude float64
}

// System is the assembled global state
type System struct {
	LoadedDOF int         // DOF carrying the point load
	K         *sparse.CSR // Tangent stiffness, 2nv x 2nv, duplicates summed
	Fint      []float64   // Internal force B^T sigma integrated over the elements
}

// NDOF is the size of the global system
func (s *System) NDOF() int {
	r, _ := s.K.Dims()
	return r
}

type options struct {
	workers int
}

// Option configures Assemble
type Option func(*options)

// WithWorkers assembles with up to n element partitions running concurrently
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// LoadedDOF locates the load point among the vertices used by elements and
// returns 2v+direction
func LoadedDOF(m *mesh.Mesh, load Load) (int, error) {
	if load.Direction != 0 && load.Direction != 1 {
		return -1, fmt.Errorf("load direction %d is neither 0 (x) nor 1 (y)", load.Direction)
	}
	used := make([]bool, m.NumVertices())
	for _, e := range m.E {
		for _, v := range e {
			used[v] = true
		}
	}
	var hits []int
	for _, v := range m.FindVertices(load.Point) {
		if used[v] {
			hits = append(hits, v)
		}
	}
	switch len(hits) {
	case 0:
		return -1, fmt.Errorf("%w: (%g, %g)", ErrLoadPointNotFound, load.Point[0], load.Point[1])
	case 1:
		return 2*hits[0] + load.Direction, nil
	default:
		return -1, fmt.Errorf("%w: (%g, %g) is vertices %v",
			ErrAmbiguousLoadPoint, load.Point[0], load.Point[1], hits)
	}
}

// ExternalForce is the global load vector with its single nonzero entry
func ExternalForce(m *mesh.Mesh, load Load) ([]float64, error) {
	dof, err := LoadedDOF(m, load)
	if err != nil {
		return nil, err
	}
	f := make([]float64, m.NumDOF())
	f[dof] = load.Magnitude
	return f, nil
}

func triangle(m *mesh.Mesh, k int) (*element.Triangle, error) {
	x := m.Vertices(k)
	t, err := element.NewTriangle(x[0], x[1], x[2])
	if err != nil {
		return nil, fmt.Errorf("element %d: %w", k, err)
	}
	return t, nil
}

// Assemble evaluates every element at the displacement u and accumulates the
// stiffness and internal force. A nil u is the zero state.
func Assemble(m *mesh.Mesh, el *material.Elastic, load Load, u []float64, opts ...Option) (*System, error) {
	o := options{workers: 1}
	for _, opt := range opts {
		opt(&o)
	}
	ndof := m.NumDOF()
	if u == nil {
		u = make([]float64, ndof)
	}
	if len(u) != ndof {
		return nil, fmt.Errorf("displacement has %d entries, mesh has %d DOFs", len(u), ndof)
	}
	dof, err := LoadedDOF(m, load)
	if err != nil {
		return nil, err
	}

	layout, err := partitions.NewPartitionBuilder(m.NumElements(), o.workers).BuildPartitions()
	if err != nil {
		return nil, err
	}
	C := el.C()
	kb := make([]*builder.MatrixBuilder, layout.NumPartitions)
	fint := make([][]float64, layout.NumPartitions)
	err = layout.Each(func(p partitions.Partition) error {
		b := builder.NewMatrixBuilder(p.NumElements * element.NDOF * element.NDOF)
		f := make([]float64, ndof)
		for _, k := range p.Elements {
			t, err := triangle(m, k)
			if err != nil {
				return err
			}
			dofs := element.DOFs(m.E[k])
			d := element.Gather(u, m.E[k])
			b.Add(dofs[:], dofs[:], t.Stiffness(C))
			for i, fi := range t.InternalForce(C, d) {
				f[dofs[i]] += fi
			}
		}
		kb[p.ID], fint[p.ID] = b, f
		return nil
	})
	if err != nil {
		return nil, err
	}

	// merge in partition order
	all := kb[0]
	for _, b := range kb[1:] {
		all.Merge(b)
	}
	for _, f := range fint[1:] {
		floats.Add(fint[0], f)
	}
	K, err := all.Finalize(ndof, ndof)
	if err != nil {
		return nil, err
	}
	return &System{LoadedDOF: dof, K: K, Fint: fint[0]}, nil
}

// BodyForce integrates the uniform force rho*g on the y DOFs
func BodyForce(m *mesh.Mesh, rho, g float64) ([]float64, error) {
	fb := make([]float64, m.NumDOF())
	for k := range m.E {
		t, err := triangle(m, k)
		if err != nil {
			return nil, err
		}
		dofs := element.DOFs(m.E[k])
		for i, fi := range t.BodyForce(rho, g) {
			fb[dofs[i]] += fi
		}
	}
	return fb, nil
}

// InternalForce recovers the element stresses of u and returns the assembled
// internal force with its max norm
func InternalForce(m *mesh.Mesh, el *material.Elastic, u []float64) ([]float64, float64, error) {
	if len(u) != m.NumDOF() {
		return nil, 0, fmt.Errorf("displacement has %d entries, mesh has %d DOFs", len(u), m.NumDOF())
	}
	C := el.C()
	fint := make([]float64, m.NumDOF())
	for k, e := range m.E {
		t, err := triangle(m, k)
		if err != nil {
			return nil, 0, err
		}
		dofs := element.DOFs(e)
		for i, fi := range t.InternalForce(C, element.Gather(u, e)) {
			fint[dofs[i]] += fi
		}
	}
	return fint, floats.Norm(fint, math.Inf(1)), nil
}

// ElementStresses returns sigma = (xx, yy, xy) of every element
func ElementStresses(m *mesh.Mesh, el *material.Elastic, u []float64) ([][3]float64, error) {
	if len(u) != m.NumDOF() {
		return nil, fmt.Errorf("displacement has %d entries, mesh has %d DOFs", len(u), m.NumDOF())
	}
	C := el.C()
	sig := make([][3]float64, m.NumElements())
	for k, e := range m.E {
		t, err := triangle(m, k)
		if err != nil {
			return nil, err
		}
		s := t.Stress(C, element.Gather(u, e))
		sig[k] = [3]float64{s.AtVec(0), s.AtVec(1), s.AtVec(2)}
	}
	return sig, nil
}

// Residual is K*u - f
func Residual(K mat.Matrix, u, f []float64) []float64 {
	r := mat.NewVecDense(len(f), nil)
	r.MulVec(K, mat.NewVecDense(len(u), u))
	out := make([]float64, len(f))
	floats.SubTo(out, r.RawVector().Data, f)
	return out
}
