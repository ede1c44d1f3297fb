// Package output renders meshes and nodal fields as PNG figures and writes
// the text summary of a run.
package output

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/notargets/ElastAMR/mesh"
)

const figureSize = 7 * vg.Inch

var (
	meshColor     = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	deformedColor = color.RGBA{R: 255, G: 127, B: 14, A: 255}
)

func newPlot(title string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "x"
	p.Y.Label.Text = "y"
	return p
}

// addEdges draws every mesh edge once, at the vertex positions pts
func addEdges(p *plot.Plot, m *mesh.Mesh, pts [][2]float64, c color.Color) error {
	seen := make(map[[2]int]bool, 3*m.NumElements())
	for _, e := range m.E {
		for f := 0; f < 3; f++ {
			a, b := e[f], e[(f+1)%3]
			if a > b {
				a, b = b, a
			}
			if seen[[2]int{a, b}] {
				continue
			}
			seen[[2]int{a, b}] = true
			l, err := plotter.NewLine(plotter.XYs{
				{X: pts[a][0], Y: pts[a][1]},
				{X: pts[b][0], Y: pts[b][1]},
			})
			if err != nil {
				return err
			}
			l.LineStyle.Width = vg.Points(0.5)
			l.LineStyle.Color = c
			p.Add(l)
		}
	}
	return nil
}

func save(p *plot.Plot, filename string) error {
	if dir := filepath.Dir(filename); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	if filepath.Ext(filename) == "" {
		filename += ".png"
	}
	return p.Save(figureSize, figureSize, filename)
}

// MeshPNG draws the triangulation
func MeshPNG(m *mesh.Mesh, title, filename string) error {
	p := newPlot(title)
	if err := addEdges(p, m, m.V, meshColor); err != nil {
		return err
	}
	return save(p, filename)
}

// Displaced returns the vertex positions moved by scale*u
func Displaced(m *mesh.Mesh, u []float64, scale float64) ([][2]float64, error) {
	if len(u) != m.NumDOF() {
		return nil, fmt.Errorf("displacement has %d entries, mesh has %d DOFs", len(u), m.NumDOF())
	}
	pts := make([][2]float64, m.NumVertices())
	for v, x := range m.V {
		pts[v] = [2]float64{x[0] + scale*u[2*v], x[1] + scale*u[2*v+1]}
	}
	return pts, nil
}

// DeformedPNG overlays the mesh displaced by scale*u on the undeformed mesh
func DeformedPNG(m *mesh.Mesh, u []float64, scale float64, title, filename string) error {
	pts, err := Displaced(m, u, scale)
	if err != nil {
		return err
	}
	p := newPlot(title)
	if err = addEdges(p, m, m.V, meshColor); err != nil {
		return err
	}
	if err = addEdges(p, m, pts, deformedColor); err != nil {
		return err
	}
	return save(p, filename)
}

// NodalMagnitude is |(f_2v, f_2v+1)| for every vertex v
func NodalMagnitude(f []float64) []float64 {
	out := make([]float64, len(f)/2)
	for v := range out {
		out[v] = math.Hypot(f[2*v], f[2*v+1])
	}
	return out
}

// FieldPNG colours every vertex by its value over the mesh edges
func FieldPNG(m *mesh.Mesh, values []float64, title, filename string) error {
	if len(values) != m.NumVertices() {
		return fmt.Errorf("%d values for %d vertices", len(values), m.NumVertices())
	}
	p := newPlot(title)
	if err := addEdges(p, m, m.V, color.Gray{Y: 200}); err != nil {
		return err
	}

	lo, hi := floats.Min(values), floats.Max(values)
	if hi <= lo {
		hi = lo + 1
	}
	cm := moreland.SmoothBlueRed()
	cm.SetMin(lo)
	cm.SetMax(hi)
	colors := make([]color.Color, len(values))
	for i, v := range values {
		c, err := cm.At(v)
		if err != nil {
			return fmt.Errorf("vertex %d: %w", i, err)
		}
		colors[i] = c
	}

	xys := make(plotter.XYs, m.NumVertices())
	for v, x := range m.V {
		xys[v] = plotter.XY{X: x[0], Y: x[1]}
	}
	s, err := plotter.NewScatter(xys)
	if err != nil {
		return err
	}
	s.GlyphStyleFunc = func(i int) draw.GlyphStyle {
		return draw.GlyphStyle{Color: colors[i], Radius: vg.Points(2.5), Shape: draw.CircleGlyph{}}
	}
	p.Add(s)
	p.Legend.Add(fmt.Sprintf("min %.3e", lo))
	p.Legend.Add(fmt.Sprintf("max %.3e", hi))
	return save(p, filename)
}
