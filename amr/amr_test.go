package amr

import (
	"bytes"
	"log"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/ElastAMR/config"
)

func TestLDomainScenario(t *testing.T) {
	cfg := config.Default()
	cfg.Load.Magnitude = 1
	cfg.Body.Gravity = 0
	cfg.Output.Plots = false

	var buf bytes.Buffer
	rep, err := Run(cfg, Options{Logger: log.New(&buf, "", 0)})
	require.NoError(t, err)
	require.Len(t, rep.Levels, 2)

	for _, lev := range rep.Levels {
		m := lev.Mesh
		require.Len(t, lev.U, 2*m.NumVertices())
		for v, x := range m.V {
			if x[1] == 1 {
				assert.Equal(t, 0., lev.U[2*v], "vertex %d", v)
				assert.Equal(t, 0., lev.U[2*v+1], "vertex %d", v)
			}
		}
		assert.Equal(t, 2*m.FindVertices([2]float64{1, 0.5})[0]+1, lev.LoadedDOF)
		assert.Greater(t, lev.U[lev.LoadedDOF], 0., "level %d", lev.Index)
		assert.Greater(t, lev.FintNorm, 0.)
		assert.NotEmpty(t, CornerElements(m))
	}

	coarse, fine := rep.Levels[0], rep.Final()
	assert.NotEmpty(t, coarse.Estimate.Marked)
	assert.Greater(t, fine.Mesh.NumVertices(), coarse.Mesh.NumVertices())
	assert.LessOrEqual(t, fine.Estimate.MeanSize, coarse.Estimate.MeanSize)
	assert.Contains(t, buf.String(), "Level 0")
	assert.Contains(t, buf.String(), "Level 1")
}

func TestRunCycles(t *testing.T) {
	cfg := config.Default()
	cfg.Cycles = 0
	cfg.Mesh.AreaScale = 0.02
	rep, err := Run(cfg, Options{})
	require.NoError(t, err)
	require.Len(t, rep.Levels, 1)
	lev := rep.Final()
	assert.Equal(t, 0, lev.Index)
	assert.Len(t, lev.Stress, lev.Mesh.NumElements())
	assert.Equal(t, lev.Mesh.NumDOF(), lev.NumDOF())
	if !math.IsNaN(lev.CornerERel) {
		assert.Greater(t, lev.CornerERel, 0.)
	}

	// gravity alone pulls the free corner down
	cfg.Load.Magnitude = 0
	rep, err = Run(cfg, Options{})
	require.NoError(t, err)
	assert.Less(t, rep.Final().U[rep.Final().LoadedDOF], 0.)
}

func TestRunRejectsBadConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Material.PoissonRatio = 0.5
	_, err := Run(cfg, Options{})
	assert.Error(t, err)

	cfg = config.Default()
	cfg.Load.X = 0.75
	cfg.Load.Y = 0.123
	_, err = Run(cfg, Options{})
	assert.Error(t, err)

	cfg = config.Default()
	cfg.Material.Mode = "axisymmetric"
	_, err = Run(cfg, Options{})
	assert.Error(t, err)
}
