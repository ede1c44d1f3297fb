// Package amr sequences the adaptive L-domain analysis: mesh, solve, recover
// stresses, estimate and mark, refine, and solve again.
package amr

import (
	"fmt"
	"io"
	"log"
	"math"

	"github.com/notargets/ElastAMR/assembly"
	"github.com/notargets/ElastAMR/config"
	"github.com/notargets/ElastAMR/estimator"
	"github.com/notargets/ElastAMR/material"
	"github.com/notargets/ElastAMR/mesh"
	"github.com/notargets/ElastAMR/solver"
)

// ReentrantCorner is the concave vertex of the L-shaped domain
var ReentrantCorner = [2]float64{0.5, 0.5}

// Options carries the ambient dependencies of a run
type Options struct {
	Logger *log.Logger // Progress output; nil discards it
}

// Level is the state of one refinement level after its solve and estimate
type Level struct {
	Index     int
	Mesh      *mesh.Mesh
	DOFs      *solver.DOFSet
	LoadedDOF int
	U         []float64
	Fint      []float64 // Internal force recovered from U
	FintNorm  float64   // |Fint|_inf
	Stress    [][3]float64
	Cond      float64 // Condition estimate of K_ff
	Estimate  *estimator.Result

	CornerERel float64 // Max defined e_rel of elements touching the corner, NaN if none
}

// NumDOF is 2nv of the level's mesh
func (l *Level) NumDOF() int { return l.Mesh.NumDOF() }

// Report collects every level of a run, coarsest first
type Report struct {
	Config   config.Config
	Material *material.Elastic
	Levels   []*Level
}

// Final is the last level computed
func (r *Report) Final() *Level { return r.Levels[len(r.Levels)-1] }

type run struct {
	cfg     config.Config
	el      *material.Elastic
	load    assembly.Load
	adapter *mesh.Adapter
	params  estimator.Params
	log     *log.Logger
}

// Run performs the initial solve and cfg.Cycles estimate/refine/solve passes
func Run(cfg config.Config, opts Options) (*Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	r, err := newRun(cfg, opts)
	if err != nil {
		return nil, err
	}

	r.log.Printf("Material: %v", r.el)
	m, err := r.adapter.Initial()
	if err != nil {
		return nil, err
	}
	rep := &Report{Config: cfg, Material: r.el}
	lev, err := r.solve(0, m)
	if err != nil {
		return nil, err
	}
	rep.Levels = append(rep.Levels, lev)

	for c := 1; c <= cfg.Cycles; c++ {
		marked := lev.Estimate.Marked
		if len(marked) == 0 {
			r.log.Printf("Level %d: no element above e_rel %g, stopping", lev.Index, r.params.Threshold)
			break
		}
		r.log.Printf("Refining %d marked elements to area %g", len(marked), cfg.Mesh.RefinedArea)
		m, err = r.adapter.RefineMarked(lev.Mesh, marked)
		if err != nil {
			return nil, err
		}
		if lev, err = r.solve(c, m); err != nil {
			return nil, err
		}
		rep.Levels = append(rep.Levels, lev)
	}
	return rep, nil
}

func newRun(cfg config.Config, opts Options) (*run, error) {
	mode, err := material.ParseMode(cfg.Material.Mode)
	if err != nil {
		return nil, err
	}
	el, err := material.New(cfg.Material.YoungsModulus, cfg.Material.PoissonRatio, mode)
	if err != nil {
		return nil, err
	}
	dir, err := cfg.LoadDirection()
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &run{
		cfg: cfg,
		el:  el,
		load: assembly.Load{
			Point:     [2]float64{cfg.Load.X, cfg.Load.Y},
			Direction: dir,
			Magnitude: cfg.Load.Magnitude,
		},
		adapter: mesh.NewAdapter(cfg.Mesh.AreaScale, cfg.Mesh.RefinedArea, cfg.Mesh.MaxTriangles),
		params: estimator.Params{
			Threshold:   cfg.Estimator.Threshold,
			EdgeEpsilon: cfg.Estimator.EdgeEpsilon,
			Density:     cfg.Body.Density,
			Gravity:     cfg.Body.Gravity,
		},
		log: logger,
	}, nil
}

// solve runs assemble, solve, stress recovery and estimate on m
func (r *run) solve(index int, m *mesh.Mesh) (*Level, error) {
	r.log.Printf("Level %d: %d vertices, %d triangles, %d DOFs",
		index, m.NumVertices(), m.NumElements(), m.NumDOF())

	sys, err := assembly.Assemble(m, r.el, r.load, nil, assembly.WithWorkers(r.cfg.Workers))
	if err != nil {
		return nil, fmt.Errorf("level %d: %w", index, err)
	}
	fext, err := assembly.ExternalForce(m, r.load)
	if err != nil {
		return nil, fmt.Errorf("level %d: %w", index, err)
	}
	fb, err := assembly.BodyForce(m, r.cfg.Body.Density, r.cfg.Body.Gravity)
	if err != nil {
		return nil, fmt.Errorf("level %d: %w", index, err)
	}
	dofs, err := solver.Partition(m, solver.TopEdge(r.cfg.Boundary.Y, r.cfg.Boundary.Tolerance))
	if err != nil {
		return nil, fmt.Errorf("level %d: %w", index, err)
	}
	sol, err := solver.Solve(sys, fext, fb, dofs)
	if err != nil {
		return nil, fmt.Errorf("level %d: %w", index, err)
	}
	r.log.Printf("Level %d: %d free DOFs, cond(K_ff) %.3e, u[%d] = %.6e",
		index, sol.NFree, sol.Cond, sys.LoadedDOF, sol.U[sys.LoadedDOF])

	fint, norm, err := assembly.InternalForce(m, r.el, sol.U)
	if err != nil {
		return nil, fmt.Errorf("level %d: %w", index, err)
	}
	stress, err := assembly.ElementStresses(m, r.el, sol.U)
	if err != nil {
		return nil, fmt.Errorf("level %d: %w", index, err)
	}
	est, err := estimator.Estimate(m, r.el, sol.U, dofs.OnBoundary, r.params)
	if err != nil {
		return nil, fmt.Errorf("level %d: %w", index, err)
	}
	corner := math.NaN()
	if v, ok := est.MaxERel(CornerElements(m)); ok {
		corner = v
	}
	r.log.Printf("Level %d: |Fint|_inf %.6e, eta %.6e, %d marked, mean size %.4f",
		index, norm, est.Eta, len(est.Marked), est.MeanSize)

	return &Level{
		Index:      index,
		Mesh:       m,
		DOFs:       dofs,
		LoadedDOF:  sys.LoadedDOF,
		U:          sol.U,
		Fint:       fint,
		FintNorm:   norm,
		Stress:     stress,
		Cond:       sol.Cond,
		Estimate:   est,
		CornerERel: corner,
	}, nil
}

// CornerElements lists the elements sharing the re-entrant corner vertex
func CornerElements(m *mesh.Mesh) []int {
	var elems []int
	ve := m.VertexElements()
	for _, v := range m.FindVertices(ReentrantCorner) {
		elems = append(elems, ve[v]...)
	}
	return elems
}
