package output

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/ElastAMR/amr"
	"github.com/notargets/ElastAMR/config"
	"github.com/notargets/ElastAMR/mesh"
)

func square() *mesh.Mesh {
	return &mesh.Mesh{
		V: [][2]float64{{0, 0}, {1, 0}, {1, 1}, {0, 1}},
		E: [][3]int{{0, 1, 2}, {0, 2, 3}},
	}
}

func TestDisplacedAndMagnitude(t *testing.T) {
	m := square()
	u := []float64{0, 0, 0.1, 0, 0, -0.2, 0.3, 0.4}
	pts, err := Displaced(m, u, 2)
	require.NoError(t, err)
	assert.Equal(t, [2]float64{1.2, 0}, pts[1])
	assert.Equal(t, [2]float64{1, 0.6}, pts[2])
	_, err = Displaced(m, u[:3], 1)
	assert.Error(t, err)

	assert.InDeltaSlice(t, []float64{0, 0.1, 0.2, 0.5}, NodalMagnitude(u), 1e-15)
}

func TestFiguresAreWritten(t *testing.T) {
	dir := t.TempDir()
	m := square()
	u := []float64{0, 0, 0.1, 0, 0, -0.2, 0.3, 0.4}

	f := filepath.Join(dir, "sub", "mesh.png")
	require.NoError(t, MeshPNG(m, "mesh", f))
	require.NoError(t, DeformedPNG(m, u, 1, "deformed", filepath.Join(dir, "deformed")))
	require.NoError(t, FieldPNG(m, []float64{1, 1, 1, 1}, "flat field", filepath.Join(dir, "field.png")))
	for _, name := range []string{filepath.Join("sub", "mesh.png"), "deformed.png", "field.png"} {
		st, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err, name)
		assert.Greater(t, st.Size(), int64(0))
	}
	assert.Error(t, FieldPNG(m, []float64{1}, "bad", filepath.Join(dir, "bad.png")))
}

func TestReportAndFiguresOfRun(t *testing.T) {
	cfg := config.Default()
	cfg.Mesh.AreaScale = 0.05
	cfg.Mesh.RefinedArea = 0.01
	rep, err := amr.Run(cfg, amr.Options{})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, rep))
	out := buf.String()
	assert.Contains(t, out, "Level")
	assert.Contains(t, out, "Corner e_rel")
	assert.Contains(t, out, "plane-stress")
	assert.Contains(t, out, "eta_K of level")
	if len(rep.Levels) > 1 {
		assert.Contains(t, out, "refined mesh")
	}

	files, err := WriteFigures(t.TempDir(), rep)
	require.NoError(t, err)
	assert.Len(t, files, 3*len(rep.Levels))
	for _, f := range files {
		_, err := os.Stat(f)
		assert.NoError(t, err)
	}
}
