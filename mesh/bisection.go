package mesh

import (
	"errors"
	"fmt"
)

// Unconstrained marks an element without an area budget in Refine
const Unconstrained = -1.0

var ErrTooManyTriangles = errors.New("triangle budget exceeded")

// RefinementFunc reports whether a triangle with the given vertices and area
// must be split
type RefinementFunc func(vertices [3][2]float64, area float64) bool

// Generator is the meshing contract: a boundary polygon in, a conforming
// triangulation out, plus a refine mode driven by per-element area budgets.
type Generator interface {
	Build(p Polygon, needsRefinement RefinementFunc) (*Mesh, error)
	Refine(m *Mesh, maxArea []float64) (*Mesh, error)
}

// Bisection triangulates by ear clipping and refines with conforming
// longest-edge bisection: the longest-edge propagation path of each split
// triangle is bisected first, so no hanging vertices are ever created.
type Bisection struct {
	MaxTriangles int
}

// NewBisection returns a generator bounded by maxTriangles elements
func NewBisection(maxTriangles int) *Bisection {
	return &Bisection{MaxTriangles: maxTriangles}
}

// Build triangulates p and splits until no triangle satisfies needsRefinement.
// Vertex i of the result is p.Points[i] for every polygon point.
func (g *Bisection) Build(p Polygon, needsRefinement RefinementFunc) (*Mesh, error) {
	tris, err := earClip(p)
	if err != nil {
		return nil, err
	}
	pts := make([][2]float64, len(p.Points))
	copy(pts, p.Points)
	w := newWorkMesh(&Mesh{V: pts, E: tris}, nil, g.MaxTriangles)
	if needsRefinement != nil {
		err = w.refineWhile(func(id int) bool {
			x := w.vertices(id)
			return needsRefinement(x, SignedArea(x))
		})
		if err != nil {
			return nil, err
		}
	}
	return w.compact(), nil
}

// Refine splits every triangle k whose area exceeds maxArea[k]; entries equal
// to Unconstrained (any negative value) leave the triangle alone unless a
// neighbour's split requires it. Descendants inherit the budget.
func (g *Bisection) Refine(m *Mesh, maxArea []float64) (*Mesh, error) {
	if len(maxArea) != len(m.E) {
		return nil, fmt.Errorf("refine: %d area budgets for %d triangles", len(maxArea), len(m.E))
	}
	w := newWorkMesh(m, maxArea, g.MaxTriangles)
	err := w.refineWhile(func(id int) bool {
		b := w.budget[id]
		return b > 0 && SignedArea(w.vertices(id)) > b
	})
	if err != nil {
		return nil, err
	}
	return w.compact(), nil
}

type edgeKey struct{ a, b int }

func keyOf(a, b int) edgeKey {
	if a > b {
		a, b = b, a
	}
	return edgeKey{a, b}
}

type workMesh struct {
	pts    [][2]float64
	tris   [][3]int
	alive  []bool
	budget []float64
	edges  map[edgeKey][]int
	nalive int
	max    int
}

func newWorkMesh(m *Mesh, budget []float64, max int) *workMesh {
	w := &workMesh{
		pts:   append([][2]float64(nil), m.V...),
		edges: make(map[edgeKey][]int, 3*len(m.E)),
		max:   max,
	}
	for k, t := range m.E {
		b := Unconstrained
		if budget != nil {
			b = budget[k]
		}
		w.add(t, b)
	}
	return w
}

func (w *workMesh) vertices(id int) [3][2]float64 {
	t := w.tris[id]
	return [3][2]float64{w.pts[t[0]], w.pts[t[1]], w.pts[t[2]]}
}

func (w *workMesh) add(t [3]int, budget float64) int {
	id := len(w.tris)
	w.tris = append(w.tris, t)
	w.alive = append(w.alive, true)
	w.budget = append(w.budget, budget)
	for f := 0; f < 3; f++ {
		k := keyOf(t[f], t[(f+1)%3])
		w.edges[k] = append(w.edges[k], id)
	}
	w.nalive++
	return id
}

func (w *workMesh) remove(id int) {
	t := w.tris[id]
	for f := 0; f < 3; f++ {
		k := keyOf(t[f], t[(f+1)%3])
		ids := w.edges[k]
		for i, o := range ids {
			if o == id {
				ids = append(ids[:i], ids[i+1:]...)
				break
			}
		}
		if len(ids) == 0 {
			delete(w.edges, k)
		} else {
			w.edges[k] = ids
		}
	}
	w.alive[id] = false
	w.nalive--
}

func (w *workMesh) len2(k edgeKey) float64 {
	a, b := w.pts[k.a], w.pts[k.b]
	dx, dy := b[0]-a[0], b[1]-a[1]
	return dx*dx + dy*dy
}

// longer is a strict total order on edges: length, then vertex indices
func (w *workMesh) longer(p, q edgeKey) bool {
	lp, lq := w.len2(p), w.len2(q)
	if lp != lq {
		return lp > lq
	}
	if p.a != q.a {
		return p.a > q.a
	}
	return p.b > q.b
}

// longest returns the local index f of the longest edge (t[f], t[f+1])
func (w *workMesh) longest(id int) int {
	t := w.tris[id]
	best := 0
	for f := 1; f < 3; f++ {
		if w.longer(keyOf(t[f], t[(f+1)%3]), keyOf(t[best], t[(best+1)%3])) {
			best = f
		}
	}
	return best
}

func (w *workMesh) neighbor(id int, k edgeKey) int {
	for _, o := range w.edges[k] {
		if o != id {
			return o
		}
	}
	return -1
}

func localEdge(t [3]int, k edgeKey) int {
	for f := 0; f < 3; f++ {
		if keyOf(t[f], t[(f+1)%3]) == k {
			return f
		}
	}
	return -1
}

// split replaces triangle id by the two halves through vertex m on edge f
func (w *workMesh) split(id, f, m int) {
	t := w.tris[id]
	a, b, c := t[f], t[(f+1)%3], t[(f+2)%3]
	budget := w.budget[id]
	w.remove(id)
	w.add([3]int{a, m, c}, budget)
	w.add([3]int{m, b, c}, budget)
}

// bisect splits triangle id across its longest edge, first bisecting the
// neighbour until that edge is also the neighbour's longest.
func (w *workMesh) bisect(id int) error {
	for w.alive[id] {
		if w.max > 0 && w.nalive >= w.max {
			return fmt.Errorf("%w: more than %d triangles", ErrTooManyTriangles, w.max)
		}
		f := w.longest(id)
		t := w.tris[id]
		k := keyOf(t[f], t[(f+1)%3])
		nb := w.neighbor(id, k)
		if nb >= 0 {
			if fn := w.longest(nb); keyOf(w.tris[nb][fn], w.tris[nb][(fn+1)%3]) != k {
				if err := w.bisect(nb); err != nil {
					return err
				}
				continue
			}
		}
		pa, pb := w.pts[k.a], w.pts[k.b]
		m := len(w.pts)
		w.pts = append(w.pts, [2]float64{(pa[0] + pb[0]) / 2, (pa[1] + pb[1]) / 2})
		w.split(id, f, m)
		if nb >= 0 {
			w.split(nb, localEdge(w.tris[nb], k), m)
		}
		return nil
	}
	return nil
}

// refineWhile bisects every live triangle selected by need, repeating on the
// new triangles until none is selected
func (w *workMesh) refineWhile(need func(id int) bool) error {
	for {
		var marked []int
		for id := range w.tris {
			if w.alive[id] && need(id) {
				marked = append(marked, id)
			}
		}
		if len(marked) == 0 {
			return nil
		}
		for _, id := range marked {
			if err := w.bisect(id); err != nil {
				return err
			}
		}
	}
}

func (w *workMesh) compact() *Mesh {
	m := &Mesh{V: w.pts, E: make([][3]int, 0, w.nalive)}
	for id, t := range w.tris {
		if w.alive[id] {
			m.E = append(m.E, t)
		}
	}
	return m
}
