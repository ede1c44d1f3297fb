package mesh

import (
	"errors"
	"fmt"
	"math"
)

var ErrNonConforming = errors.New("non-conforming mesh")

// Connectivity holds triangle adjacency. Local edge f joins E[k][f] and
// E[k][(f+1)%3]. A boundary edge connects to its own element and edge.
type Connectivity struct {
	EToE [][3]int // Neighbour element across edge f
	EToF [][3]int // Local edge index of that edge in the neighbour
}

// NewConnectivity matches edges through their sorted vertex pair
func NewConnectivity(m *Mesh) (*Connectivity, error) {
	c := &Connectivity{
		EToE: make([][3]int, len(m.E)),
		EToF: make([][3]int, len(m.E)),
	}
	type side struct{ elem, face int }
	seen := make(map[edgeKey]side, 3*len(m.E))
	count := make(map[edgeKey]int, 3*len(m.E))
	for k, e := range m.E {
		for f := 0; f < 3; f++ {
			c.EToE[k][f], c.EToF[k][f] = k, f
			key := keyOf(e[f], e[(f+1)%3])
			count[key]++
			if count[key] > 2 {
				return nil, fmt.Errorf("%w: edge %d-%d shared by more than two triangles",
					ErrNonConforming, key.a, key.b)
			}
			if s, ok := seen[key]; ok {
				c.EToE[k][f], c.EToF[k][f] = s.elem, s.face
				c.EToE[s.elem][s.face], c.EToF[s.elem][s.face] = k, f
				continue
			}
			seen[key] = side{k, f}
		}
	}
	return c, nil
}

// IsBoundary reports whether edge f of element k has no neighbour
func (c *Connectivity) IsBoundary(k, f int) bool {
	return c.EToE[k][f] == k && c.EToF[k][f] == f
}

// BoundaryEdges lists the vertex pairs of all boundary edges
func (c *Connectivity) BoundaryEdges(m *Mesh) [][2]int {
	var edges [][2]int
	for k, e := range m.E {
		for f := 0; f < 3; f++ {
			if c.IsBoundary(k, f) {
				edges = append(edges, [2]int{e[f], e[(f+1)%3]})
			}
		}
	}
	return edges
}

// Validate checks index ranges, orientation, vertex usage and conformity.
// When domain is non-nil the boundary length and the total area must match
// it, which rules out cracks and overlaps.
func Validate(m *Mesh, domain *Polygon) error {
	if len(m.E) == 0 {
		return fmt.Errorf("%w: no triangles", ErrNonConforming)
	}
	used := make([]bool, len(m.V))
	for k, e := range m.E {
		for _, v := range e {
			if v < 0 || v >= len(m.V) {
				return fmt.Errorf("%w: triangle %d references vertex %d", ErrNonConforming, k, v)
			}
			used[v] = true
		}
		if m.Area(k) <= 0 {
			return fmt.Errorf("%w: triangle %d has area %g", ErrNonConforming, k, m.Area(k))
		}
	}
	for v, ok := range used {
		if !ok {
			return fmt.Errorf("%w: vertex %d is not used", ErrNonConforming, v)
		}
	}
	c, err := NewConnectivity(m)
	if err != nil {
		return err
	}
	for k, e := range m.E {
		for f := 0; f < 3; f++ {
			if c.IsBoundary(k, f) {
				continue
			}
			n, g := c.EToE[k][f], c.EToF[k][f]
			// neighbours traverse a shared edge in opposite directions
			if m.E[n][g] != e[(f+1)%3] || m.E[n][(g+1)%3] != e[f] {
				return fmt.Errorf("%w: triangles %d and %d disagree on orientation", ErrNonConforming, k, n)
			}
		}
	}
	if domain == nil {
		return nil
	}
	area, err := domain.Area()
	if err != nil {
		return err
	}
	if got := m.TotalArea(); math.Abs(got-area) > 1e-10*area {
		return fmt.Errorf("%w: mesh area %g, domain area %g", ErrNonConforming, got, area)
	}
	length := 0.
	for _, e := range c.BoundaryEdges(m) {
		a, b := m.V[e[0]], m.V[e[1]]
		length += math.Hypot(b[0]-a[0], b[1]-a[1])
	}
	if per := domain.Perimeter(); math.Abs(length-per) > 1e-10*per {
		return fmt.Errorf("%w: boundary length %g, domain perimeter %g", ErrNonConforming, length, per)
	}
	return nil
}
