// Package mesh builds and refines conforming triangulations of polygonal
// domains and answers the geometric queries the solver needs.
package mesh

import (
	"fmt"
	"math"
	"strings"
)

// Mesh is a conforming triangulation. Vertex i owns DOFs 2i and 2i+1;
// triangles are counter-clockwise.
type Mesh struct {
	V [][2]float64 // Vertex coordinates
	E [][3]int     // Triangle vertex indices
}

// NumVertices is nv
func (m *Mesh) NumVertices() int { return len(m.V) }

// NumElements is ne
func (m *Mesh) NumElements() int { return len(m.E) }

// NumDOF is 2*nv
func (m *Mesh) NumDOF() int { return 2 * len(m.V) }

// Vertices returns the coordinates of triangle k in local order
func (m *Mesh) Vertices(k int) [3][2]float64 {
	e := m.E[k]
	return [3][2]float64{m.V[e[0]], m.V[e[1]], m.V[e[2]]}
}

// Area is the signed area of triangle k
func (m *Mesh) Area(k int) float64 {
	return SignedArea(m.Vertices(k))
}

// MeanArea averages the element areas
func (m *Mesh) MeanArea() float64 {
	if len(m.E) == 0 {
		return 0
	}
	sum := 0.
	for k := range m.E {
		sum += m.Area(k)
	}
	return sum / float64(len(m.E))
}

// TotalArea sums the element areas
func (m *Mesh) TotalArea() float64 {
	sum := 0.
	for k := range m.E {
		sum += m.Area(k)
	}
	return sum
}

// VertexElements lists the triangles touching each vertex
func (m *Mesh) VertexElements() [][]int {
	ve := make([][]int, len(m.V))
	for k, e := range m.E {
		for _, v := range e {
			ve[v] = append(ve[v], k)
		}
	}
	return ve
}

// FindVertices returns every vertex whose coordinates equal p exactly
func (m *Mesh) FindVertices(p [2]float64) []int {
	var found []int
	for i, v := range m.V {
		if v == p {
			found = append(found, i)
		}
	}
	return found
}

// SignedArea is half the cross product of the two edges leaving x[0]
func SignedArea(x [3][2]float64) float64 {
	return 0.5 * ((x[1][0]-x[0][0])*(x[2][1]-x[0][1]) - (x[2][0]-x[0][0])*(x[1][1]-x[0][1]))
}

// Centroid is the vertex average
func Centroid(x [3][2]float64) [2]float64 {
	return [2]float64{(x[0][0] + x[1][0] + x[2][0]) / 3, (x[0][1] + x[1][1] + x[2][1]) / 3}
}

// MaxEdge is the longest edge length of a triangle
func MaxEdge(x [3][2]float64) float64 {
	h := 0.
	for i := 0; i < 3; i++ {
		a, b := x[i], x[(i+1)%3]
		h = math.Max(h, math.Hypot(b[0]-a[0], b[1]-a[1]))
	}
	return h
}

// MeanSize averages the longest edge of every triangle
func (m *Mesh) MeanSize() float64 {
	if len(m.E) == 0 {
		return 0
	}
	sum := 0.
	for k := range m.E {
		sum += MaxEdge(m.Vertices(k))
	}
	return sum / float64(len(m.E))
}

func (m *Mesh) String() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Mesh: %d vertices, %d triangles, %d DOFs\n", m.NumVertices(), m.NumElements(), m.NumDOF()))
	sb.WriteString(fmt.Sprintf("  total area %.6g, mean area %.4g, mean size %.4g\n", m.TotalArea(), m.MeanArea(), m.MeanSize()))
	return sb.String()
}
