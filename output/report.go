package output

import (
	"fmt"
	"io"
	"math"
	"path/filepath"
	"sort"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"

	"github.com/notargets/ElastAMR/amr"
)

// WriteReport prints the per-level summary of a run
func WriteReport(w io.Writer, rep *amr.Report) error {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "═══════════════════════════════════════════════════════════════")
	fmt.Fprintln(w, "     L-DOMAIN ELASTICITY WITH ADAPTIVE REFINEMENT")
	fmt.Fprintln(w, "═══════════════════════════════════════════════════════════════")
	fmt.Fprintf(w, "  %v\n", rep.Material)
	fmt.Fprintf(w, "  Load %g along %s at (%g, %g), body force %g*%g\n\n",
		rep.Config.Load.Magnitude, rep.Config.Load.Direction, rep.Config.Load.X, rep.Config.Load.Y,
		rep.Config.Body.Density, rep.Config.Body.Gravity)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  Level\tVertices\tTriangles\tDOFs\tFree\t|Fint|_inf\teta\tMarked\tMean size\tCorner e_rel")
	for _, l := range rep.Levels {
		corner := "-"
		if !math.IsNaN(l.CornerERel) {
			corner = fmt.Sprintf("%.4e", l.CornerERel)
		}
		fmt.Fprintf(tw, "  %d\t%d\t%d\t%d\t%d\t%.6e\t%.6e\t%d\t%.4f\t%s\n",
			l.Index, l.Mesh.NumVertices(), l.Mesh.NumElements(), l.NumDOF(), len(l.DOFs.Free),
			l.FintNorm, l.Estimate.Eta, len(l.Estimate.Marked), l.Estimate.MeanSize, corner)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(rep.Levels) > 1 {
		first, last := rep.Levels[0], rep.Final()
		fmt.Fprintln(w)
		fmt.Fprintf(w, "  L_inf norm of Fint, original mesh: %.6e\n", first.FintNorm)
		fmt.Fprintf(w, "  L_inf norm of Fint, refined mesh:  %.6e\n", last.FintNorm)
	}
	if chart := IndicatorChart(rep.Final()); chart != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, chart)
	}
	_, err := fmt.Fprintln(w)
	return err
}

// IndicatorChart draws the element indicators of a level, largest first
func IndicatorChart(l *amr.Level) string {
	eta := append([]float64(nil), l.Estimate.EtaK...)
	if len(eta) < 2 {
		return ""
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(eta)))
	return asciigraph.Plot(eta,
		asciigraph.Height(10),
		asciigraph.Width(60),
		asciigraph.Caption(fmt.Sprintf("eta_K of level %d, sorted (%d elements)", l.Index, len(eta))))
}

// WriteFigures saves the mesh, deformed mesh and internal force figures of
// every level into dir and returns the files written
func WriteFigures(dir string, rep *amr.Report) ([]string, error) {
	var files []string
	for _, l := range rep.Levels {
		name := func(what string) string {
			return filepath.Join(dir, fmt.Sprintf("level%d_%s.png", l.Index, what))
		}
		f := name("mesh")
		if err := MeshPNG(l.Mesh, fmt.Sprintf("Mesh, level %d", l.Index), f); err != nil {
			return files, err
		}
		files = append(files, f)

		f = name("deformed")
		if err := DeformedPNG(l.Mesh, l.U, 1, "Undeformed and deformed meshes", f); err != nil {
			return files, err
		}
		files = append(files, f)

		f = name("fint")
		if err := FieldPNG(l.Mesh, NodalMagnitude(l.Fint), "Internal force magnitude", f); err != nil {
			return files, err
		}
		files = append(files, f)
	}
	return files, nil
}
