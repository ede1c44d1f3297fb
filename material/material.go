// Package material provides the isotropic linear elastic constitutive model
// for two-dimensional analyses.
package material

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Mode selects the two-dimensional idealisation
type Mode uint8

const (
	PlaneStress Mode = iota
	PlaneStrain
)

func (m Mode) String() string {
	switch m {
	case PlaneStress:
		return "plane-stress"
	case PlaneStrain:
		return "plane-strain"
	}
	return fmt.Sprintf("Mode(%d)", uint8(m))
}

// ParseMode accepts the names produced by Mode.String
func ParseMode(s string) (Mode, error) {
	switch s {
	case "plane-stress", "stress", "":
		return PlaneStress, nil
	case "plane-strain", "strain":
		return PlaneStrain, nil
	}
	return PlaneStress, fmt.Errorf("unknown material mode %q", s)
}

// Elastic relates engineering strain (exx, eyy, gxy) to stress (sxx, syy, sxy)
type Elastic struct {
	E    float64 // Young's modulus
	Nu   float64 // Poisson ratio
	Mode Mode

	c *mat.SymDense
}

// New validates the parameters and builds the 3x3 elasticity matrix
func New(E, nu float64, mode Mode) (*Elastic, error) {
	if !(E > 0) {
		return nil, fmt.Errorf("young's modulus must be positive, got %g", E)
	}
	if math.Abs(nu) >= 1 || nu == 0.5 {
		return nil, fmt.Errorf("poisson ratio %g out of range (|nu| < 1, nu != 0.5)", nu)
	}
	var c *mat.SymDense
	switch mode {
	case PlaneStress:
		s := E / (1 - nu*nu)
		c = mat.NewSymDense(3, []float64{
			s, s * nu, 0,
			s * nu, s, 0,
			0, 0, s * (1 - nu),
		})
	case PlaneStrain:
		s := E / ((1 - 2*nu) * (1 + nu))
		c = mat.NewSymDense(3, []float64{
			s * (1 - nu), s * nu, 0,
			s * nu, s * (1 - nu), 0,
			0, 0, s * (1 - 2*nu) / 2,
		})
	default:
		return nil, fmt.Errorf("unsupported material mode %v", mode)
	}
	return &Elastic{E: E, Nu: nu, Mode: mode, c: c}, nil
}

// C returns a copy of the elasticity matrix
func (m *Elastic) C() *mat.SymDense {
	c := mat.NewSymDense(3, nil)
	c.CopySym(m.c)
	return c
}

// Stress returns C*eps
func (m *Elastic) Stress(eps mat.Vector) *mat.VecDense {
	var sig mat.VecDense
	sig.MulVec(m.c, eps)
	return &sig
}

// StiffnessScale is E/(1-nu), the normalisation used by the error estimator
func (m *Elastic) StiffnessScale() float64 {
	return m.E / (1 - m.Nu)
}

func (m *Elastic) String() string {
	return fmt.Sprintf("%v E=%g nu=%g", m.Mode, m.E, m.Nu)
}
