package mesh

import (
	"errors"
	"fmt"
	"math"
)

var ErrBadPolygon = errors.New("invalid boundary polygon")

// Polygon is a boundary description: points plus closed facets between them
type Polygon struct {
	Points [][2]float64
	Facets [][2]int
}

// RoundTrip connects start..end in sequence and closes the loop
func RoundTrip(start, end int) [][2]int {
	facets := make([][2]int, 0, end-start+1)
	for i := start; i < end; i++ {
		facets = append(facets, [2]int{i, i + 1})
	}
	return append(facets, [2]int{end, start})
}

// LShape is the hexagonal L-shaped domain with its re-entrant corner at (0.5, 0.5)
func LShape() Polygon {
	pts := [][2]float64{{0, 0}, {1, 0}, {1, 0.5}, {0.5, 0.5}, {0.5, 1}, {0, 1}}
	return Polygon{Points: pts, Facets: RoundTrip(0, len(pts)-1)}
}

// Loop orders the facets into a single closed vertex cycle
func (p Polygon) Loop() ([]int, error) {
	n := len(p.Facets)
	if n < 3 {
		return nil, fmt.Errorf("%w: %d facets", ErrBadPolygon, n)
	}
	next := make(map[int][]int)
	for _, f := range p.Facets {
		for _, v := range f {
			if v < 0 || v >= len(p.Points) {
				return nil, fmt.Errorf("%w: facet %v references missing point", ErrBadPolygon, f)
			}
		}
		next[f[0]] = append(next[f[0]], f[1])
		next[f[1]] = append(next[f[1]], f[0])
	}
	for v, nb := range next {
		if len(nb) != 2 {
			return nil, fmt.Errorf("%w: point %d has %d facets (only one simple closed loop is supported)",
				ErrBadPolygon, v, len(nb))
		}
	}
	loop := []int{p.Facets[0][0]}
	prev, cur := -1, p.Facets[0][0]
	for {
		nb := next[cur]
		nxt := nb[0]
		if nxt == prev {
			nxt = nb[1]
		}
		if nxt == loop[0] {
			break
		}
		loop = append(loop, nxt)
		prev, cur = cur, nxt
		if len(loop) > n {
			break
		}
	}
	if len(loop) != n {
		return nil, fmt.Errorf("%w: facets form more than one loop", ErrBadPolygon)
	}
	return loop, nil
}

// Area is the absolute enclosed area
func (p Polygon) Area() (float64, error) {
	loop, err := p.Loop()
	if err != nil {
		return 0, err
	}
	return math.Abs(loopArea(p.Points, loop)), nil
}

// Perimeter is the summed facet length
func (p Polygon) Perimeter() float64 {
	sum := 0.
	for _, f := range p.Facets {
		a, b := p.Points[f[0]], p.Points[f[1]]
		sum += math.Hypot(b[0]-a[0], b[1]-a[1])
	}
	return sum
}

func loopArea(pts [][2]float64, loop []int) float64 {
	a := 0.
	for i, v := range loop {
		w := loop[(i+1)%len(loop)]
		a += pts[v][0]*pts[w][1] - pts[w][0]*pts[v][1]
	}
	return a / 2
}

func cross(o, a, b [2]float64) float64 {
	return (a[0]-o[0])*(b[1]-o[1]) - (a[1]-o[1])*(b[0]-o[0])
}

func insideOrOn(p, a, b, c [2]float64) bool {
	return cross(a, b, p) >= 0 && cross(b, c, p) >= 0 && cross(c, a, p) >= 0
}

func minAngle(a, b, c [2]float64) float64 {
	ang := func(o, p, q [2]float64) float64 {
		u := [2]float64{p[0] - o[0], p[1] - o[1]}
		v := [2]float64{q[0] - o[0], q[1] - o[1]}
		return math.Abs(math.Atan2(u[0]*v[1]-u[1]*v[0], u[0]*v[0]+u[1]*v[1]))
	}
	return math.Min(ang(a, b, c), math.Min(ang(b, c, a), ang(c, a, b)))
}

// earClip triangulates the polygon without adding points. Among the available
// ears the one with the largest minimum angle is cut first.
func earClip(p Polygon) ([][3]int, error) {
	loop, err := p.Loop()
	if err != nil {
		return nil, err
	}
	area := loopArea(p.Points, loop)
	if area == 0 {
		return nil, fmt.Errorf("%w: zero area", ErrBadPolygon)
	}
	if area < 0 {
		for i, j := 0, len(loop)-1; i < j; i, j = i+1, j-1 {
			loop[i], loop[j] = loop[j], loop[i]
		}
	}
	pts := p.Points
	tris := make([][3]int, 0, len(loop)-2)
	for len(loop) > 3 {
		best, bestQ := -1, -1.
		for i := range loop {
			a := loop[(i+len(loop)-1)%len(loop)]
			b, c := loop[i], loop[(i+1)%len(loop)]
			if cross(pts[a], pts[b], pts[c]) <= 0 {
				continue
			}
			ear := true
			for _, v := range loop {
				if v == a || v == b || v == c {
					continue
				}
				if insideOrOn(pts[v], pts[a], pts[b], pts[c]) {
					ear = false
					break
				}
			}
			if !ear {
				continue
			}
			if q := minAngle(pts[a], pts[b], pts[c]); q > bestQ {
				best, bestQ = i, q
			}
		}
		if best < 0 {
			return nil, fmt.Errorf("%w: no ear found (self-intersecting boundary?)", ErrBadPolygon)
		}
		a := loop[(best+len(loop)-1)%len(loop)]
		tris = append(tris, [3]int{a, loop[best], loop[(best+1)%len(loop)]})
		loop = append(loop[:best], loop[best+1:]...)
	}
	if cross(pts[loop[0]], pts[loop[1]], pts[loop[2]]) <= 0 {
		return nil, fmt.Errorf("%w: degenerate final ear", ErrBadPolygon)
	}
	return append(tris, [3]int{loop[0], loop[1], loop[2]}), nil
}
