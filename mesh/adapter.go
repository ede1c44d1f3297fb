package mesh

import (
	"fmt"
	"math"
)

// AreaLaw returns the predicate area > c + c*|centroid|_inf: elements stay
// small near the origin and grow with distance from it
func AreaLaw(c float64) RefinementFunc {
	return func(x [3][2]float64, area float64) bool {
		g := Centroid(x)
		maxArea := c + c*math.Max(math.Abs(g[0]), math.Abs(g[1]))
		return area > maxArea
	}
}

// Adapter prepares the size fields handed to a Generator
type Adapter struct {
	Generator   Generator
	Domain      Polygon
	AreaScale   float64 // c of AreaLaw
	RefinedArea float64 // area budget for marked elements
}

// NewAdapter wires the L-shaped domain to the native bisection generator
func NewAdapter(areaScale, refinedArea float64, maxTriangles int) *Adapter {
	return &Adapter{
		Generator:   NewBisection(maxTriangles),
		Domain:      LShape(),
		AreaScale:   areaScale,
		RefinedArea: refinedArea,
	}
}

// Initial meshes the domain under the area law
func (a *Adapter) Initial() (*Mesh, error) {
	m, err := a.Generator.Build(a.Domain, AreaLaw(a.AreaScale))
	if err != nil {
		return nil, fmt.Errorf("initial mesh: %w", err)
	}
	return m, nil
}

// Budgets gives RefinedArea to marked elements and Unconstrained elsewhere
func (a *Adapter) Budgets(m *Mesh, marked []int) ([]float64, error) {
	budget := make([]float64, m.NumElements())
	for k := range budget {
		budget[k] = Unconstrained
	}
	for _, k := range marked {
		if k < 0 || k >= len(budget) {
			return nil, fmt.Errorf("marked element %d outside [0,%d)", k, len(budget))
		}
		budget[k] = a.RefinedArea
	}
	return budget, nil
}

// RefineMarked regenerates m with only the marked elements forced below
// RefinedArea
func (a *Adapter) RefineMarked(m *Mesh, marked []int) (*Mesh, error) {
	budget, err := a.Budgets(m, marked)
	if err != nil {
		return nil, err
	}
	refined, err := a.Generator.Refine(m, budget)
	if err != nil {
		return nil, fmt.Errorf("refine mesh: %w", err)
	}
	return refined, nil
}
