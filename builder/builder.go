// Package builder accumulates sparse matrices in coordinate form and extracts
// arbitrary sub-blocks of them.
package builder

import (
	"fmt"
	"sort"

	"github.com/james-bowman/sparse"
	"gonum.org/v1/gonum/mat"
)

// MatrixBuilder collects (row, col, value) triplets. Repeated pairs are kept
// until Finalize, where they are summed.
type MatrixBuilder struct {
	rows []int
	cols []int
	vals []float64
}

// NewMatrixBuilder preallocates room for capacity triplets
func NewMatrixBuilder(capacity int) *MatrixBuilder {
	return &MatrixBuilder{
		rows: make([]int, 0, capacity),
		cols: make([]int, 0, capacity),
		vals: make([]float64, 0, capacity),
	}
}

// Put appends a single triplet
func (b *MatrixBuilder) Put(i, j int, v float64) {
	b.rows = append(b.rows, i)
	b.cols = append(b.cols, j)
	b.vals = append(b.vals, v)
}

// Add appends every entry of sub, placed at rows x cols
func (b *MatrixBuilder) Add(rows, cols []int, sub mat.Matrix) {
	r, c := sub.Dims()
	if r != len(rows) || c != len(cols) {
		panic(fmt.Sprintf("builder: sub-matrix is %dx%d but %d rows and %d cols were given",
			r, c, len(rows), len(cols)))
	}
	for i, I := range rows {
		for j, J := range cols {
			b.Put(I, J, sub.At(i, j))
		}
	}
}

// Merge appends all triplets of other
func (b *MatrixBuilder) Merge(other *MatrixBuilder) {
	b.rows = append(b.rows, other.rows...)
	b.cols = append(b.cols, other.cols...)
	b.vals = append(b.vals, other.vals...)
}

// Len is the number of triplets stored, duplicates included
func (b *MatrixBuilder) Len() int { return len(b.vals) }

// Reset drops all triplets and keeps the storage
func (b *MatrixBuilder) Reset() {
	b.rows, b.cols, b.vals = b.rows[:0], b.cols[:0], b.vals[:0]
}

// Canonical returns the triplets sorted by (row, col) with duplicates summed
func (b *MatrixBuilder) Canonical() Triplets {
	return Canonicalize(Triplets{Rows: b.rows, Cols: b.cols, Vals: b.vals})
}

// Finalize canonicalises the triplets into an r x c CSR matrix
func (b *MatrixBuilder) Finalize(r, c int) (*sparse.CSR, error) {
	t := b.Canonical()
	t.R, t.C = r, c
	return t.ToCSR()
}

// Triplets is a coordinate representation with explicit shape
type Triplets struct {
	R, C int
	Rows []int
	Cols []int
	Vals []float64
}

// Canonicalize sorts by (row, col) and sums repeated pairs. The input slices
// are not modified.
func Canonicalize(t Triplets) Triplets {
	order := make([]int, len(t.Vals))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ia, ib := order[a], order[b]
		if t.Rows[ia] != t.Rows[ib] {
			return t.Rows[ia] < t.Rows[ib]
		}
		return t.Cols[ia] < t.Cols[ib]
	})
	out := Triplets{R: t.R, C: t.C}
	for _, k := range order {
		last := len(out.Vals) - 1
		if last >= 0 && out.Rows[last] == t.Rows[k] && out.Cols[last] == t.Cols[k] {
			out.Vals[last] += t.Vals[k]
			continue
		}
		out.Rows = append(out.Rows, t.Rows[k])
		out.Cols = append(out.Cols, t.Cols[k])
		out.Vals = append(out.Vals, t.Vals[k])
	}
	return out
}

// At sums the stored values at (i, j)
func (t Triplets) At(i, j int) float64 {
	v := 0.
	for k := range t.Vals {
		if t.Rows[k] == i && t.Cols[k] == j {
			v += t.Vals[k]
		}
	}
	return v
}

// ToCSR builds the compressed matrix. Entries must lie inside R x C.
func (t Triplets) ToCSR() (*sparse.CSR, error) {
	if t.R <= 0 || t.C <= 0 {
		return nil, fmt.Errorf("invalid matrix shape %dx%d", t.R, t.C)
	}
	for k := range t.Vals {
		if t.Rows[k] < 0 || t.Rows[k] >= t.R || t.Cols[k] < 0 || t.Cols[k] >= t.C {
			return nil, fmt.Errorf("entry (%d,%d) outside %dx%d matrix", t.Rows[k], t.Cols[k], t.R, t.C)
		}
	}
	c := Canonicalize(t)
	return sparse.NewCOO(c.R, c.C, c.Rows, c.Cols, c.Vals).ToCSR(), nil
}

// FromCSR lists the stored entries of m in row-major order
func FromCSR(m *sparse.CSR) Triplets {
	r, c := m.Dims()
	t := Triplets{R: r, C: c}
	m.DoNonZero(func(i, j int, v float64) {
		t.Rows = append(t.Rows, i)
		t.Cols = append(t.Cols, j)
		t.Vals = append(t.Vals, v)
	})
	return Canonicalize(t)
}

// ToSymDense copies a square matrix into dense symmetric storage, averaging
// the two triangles
func ToSymDense(m mat.Matrix) (*mat.SymDense, error) {
	r, c := m.Dims()
	if r != c {
		return nil, fmt.Errorf("matrix is %dx%d, not square", r, c)
	}
	s := mat.NewSymDense(r, nil)
	for i := 0; i < r; i++ {
		for j := i; j < r; j++ {
			s.SetSym(i, j, 0.5*(m.At(i, j)+m.At(j, i)))
		}
	}
	return s, nil
}
