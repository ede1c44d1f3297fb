package builder

import (
	"fmt"

	"github.com/james-bowman/sparse"
)

// indexMap returns old->new positions for the selected indices, -1 elsewhere
func indexMap(n int, sel []int, what string) ([]int, error) {
	g := make([]int, n)
	for i := range g {
		g[i] = -1
	}
	for k, i := range sel {
		if i < 0 || i >= n {
			return nil, fmt.Errorf("%s index %d outside [0,%d)", what, i, n)
		}
		if g[i] >= 0 {
			return nil, fmt.Errorf("%s index %d selected twice", what, i)
		}
		g[i] = k
	}
	return g, nil
}

// SubTriplets gathers the rows x cols block of t. Position k of the result
// corresponds to rows[k] (cols[k]); the subsets need not be sorted or
// contiguous.
func SubTriplets(t Triplets, rows, cols []int) (Triplets, error) {
	gr, err := indexMap(t.R, rows, "row")
	if err != nil {
		return Triplets{}, err
	}
	gc, err := indexMap(t.C, cols, "column")
	if err != nil {
		return Triplets{}, err
	}
	out := Triplets{R: len(rows), C: len(cols)}
	for k, v := range t.Vals {
		i, j := gr[t.Rows[k]], gc[t.Cols[k]]
		if i < 0 || j < 0 {
			continue
		}
		out.Rows = append(out.Rows, i)
		out.Cols = append(out.Cols, j)
		out.Vals = append(out.Vals, v)
	}
	return out, nil
}

// Submatrix extracts the rows x cols block of m
func Submatrix(m *sparse.CSR, rows, cols []int) (*sparse.CSR, error) {
	if len(rows) == 0 || len(cols) == 0 {
		return nil, fmt.Errorf("empty selection: %d rows, %d cols", len(rows), len(cols))
	}
	sub, err := SubTriplets(FromCSR(m), rows, cols)
	if err != nil {
		return nil, err
	}
	return sub.ToCSR()
}

// Expand places sub back at rows x cols of an r x c matrix, zero elsewhere
func Expand(sub *sparse.CSR, rows, cols []int, r, c int) (*sparse.CSR, error) {
	sr, sc := sub.Dims()
	if sr != len(rows) || sc != len(cols) {
		return nil, fmt.Errorf("sub-matrix is %dx%d but %d rows and %d cols were given",
			sr, sc, len(rows), len(cols))
	}
	t := Triplets{R: r, C: c}
	sub.DoNonZero(func(i, j int, v float64) {
		t.Rows = append(t.Rows, rows[i])
		t.Cols = append(t.Cols, cols[j])
		t.Vals = append(t.Vals, v)
	})
	return t.ToCSR()
}

// GatherVec returns v[idx[0]], v[idx[1]], ...
func GatherVec(v []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for k, i := range idx {
		out[k] = v[i]
	}
	return out
}

// ScatterVec writes vals into dst at idx
func ScatterVec(dst []float64, idx []int, vals []float64) {
	for k, i := range idx {
		dst[i] = vals[k]
	}
}
