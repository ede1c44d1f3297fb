package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds every constant of an L-domain AMR run. Default reproduces the
// reference program; a YAML file only needs the fields it overrides.
type Config struct {
	Material  MaterialConfig  `yaml:"material"`
	Load      LoadConfig      `yaml:"load"`
	Body      BodyConfig      `yaml:"body"`
	Boundary  BoundaryConfig  `yaml:"boundary"`
	Mesh      MeshConfig      `yaml:"mesh"`
	Estimator EstimatorConfig `yaml:"estimator"`
	Output    OutputConfig    `yaml:"output"`

	Cycles  int `yaml:"cycles"`  // Number of estimate/refine/solve passes after the first solve
	Workers int `yaml:"workers"` // Assembly partitions run concurrently; 1 is sequential
}

// MaterialConfig describes the isotropic linear elastic material
type MaterialConfig struct {
	YoungsModulus float64 `yaml:"youngs_modulus"`
	PoissonRatio  float64 `yaml:"poisson_ratio"`
	Mode          string  `yaml:"mode"` // "plane-stress" or "plane-strain"
}

// LoadConfig locates the single point load
type LoadConfig struct {
	X         float64 `yaml:"x"`
	Y         float64 `yaml:"y"`
	Direction string  `yaml:"direction"` // "x" or "y"
	Magnitude float64 `yaml:"magnitude"`
}

// BodyConfig is the uniform gravity-like body force rho*g on the y DOFs
type BodyConfig struct {
	Density float64 `yaml:"density"`
	Gravity float64 `yaml:"gravity"`
}

// BoundaryConfig selects the clamped vertices |y - Y| < Tolerance
type BoundaryConfig struct {
	Y         float64 `yaml:"y"`
	Tolerance float64 `yaml:"tolerance"`
}

// MeshConfig controls the initial area law and the forced area of marked elements
type MeshConfig struct {
	AreaScale    float64 `yaml:"area_scale"`    // c in max_area = c + c*|centroid|_inf
	RefinedArea  float64 `yaml:"refined_area"`  // area budget of marked elements
	MaxTriangles int     `yaml:"max_triangles"` // generator safety bound
}

// EstimatorConfig holds the marking threshold and the edge regularisation
type EstimatorConfig struct {
	Threshold   float64 `yaml:"threshold"`
	EdgeEpsilon float64 `yaml:"edge_epsilon"`
}

// OutputConfig controls figures and reports
type OutputConfig struct {
	Dir   string `yaml:"dir"`
	Plots bool   `yaml:"plots"`
}

// Default returns the configuration of the reference L-domain run
func Default() Config {
	return Config{
		Material: MaterialConfig{
			YoungsModulus: 10,
			PoissonRatio:  0.3,
			Mode:          "plane-stress",
		},
		Load: LoadConfig{
			X:         1,
			Y:         0.5,
			Direction: "y",
			Magnitude: -0.09,
		},
		Body: BodyConfig{
			Density: 0.1,
			Gravity: 10,
		},
		Boundary: BoundaryConfig{
			Y:         1,
			Tolerance: 1e-12,
		},
		Mesh: MeshConfig{
			AreaScale:    0.01,
			RefinedArea:  0.001,
			MaxTriangles: 200000,
		},
		Estimator: EstimatorConfig{
			Threshold:   0.1,
			EdgeEpsilon: 1e-4,
		},
		Output: OutputConfig{
			Dir:   "Figs",
			Plots: true,
		},
		Cycles:  1,
		Workers: 1,
	}
}

// Load reads a YAML file on top of Default and validates the result
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err = Decode(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Decode unmarshals YAML into cfg, rejecting unknown keys, then validates
func Decode(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decoding yaml: %w", err)
	}
	return cfg.Validate()
}

// Marshal renders the configuration as YAML
func (c Config) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// LoadDirection returns 0 for x and 1 for y
func (c Config) LoadDirection() (int, error) {
	switch c.Load.Direction {
	case "x", "X":
		return 0, nil
	case "y", "Y":
		return 1, nil
	}
	return -1, fmt.Errorf("load direction %q: want x or y", c.Load.Direction)
}

// Validate checks ranges; material-specific checks are repeated by material.New
func (c Config) Validate() error {
	if c.Material.YoungsModulus <= 0 {
		return fmt.Errorf("youngs_modulus must be positive, got %g", c.Material.YoungsModulus)
	}
	if nu := c.Material.PoissonRatio; math.Abs(nu) >= 1 || nu == 0.5 {
		return fmt.Errorf("poisson_ratio %g out of range", nu)
	}
	if _, err := c.LoadDirection(); err != nil {
		return err
	}
	if c.Boundary.Tolerance <= 0 {
		return fmt.Errorf("boundary tolerance must be positive, got %g", c.Boundary.Tolerance)
	}
	if c.Mesh.AreaScale <= 0 || c.Mesh.RefinedArea <= 0 {
		return fmt.Errorf("mesh areas must be positive: area_scale=%g refined_area=%g",
			c.Mesh.AreaScale, c.Mesh.RefinedArea)
	}
	if c.Mesh.MaxTriangles <= 0 {
		return fmt.Errorf("max_triangles must be positive, got %d", c.Mesh.MaxTriangles)
	}
	if c.Estimator.Threshold <= 0 {
		return fmt.Errorf("estimator threshold must be positive, got %g", c.Estimator.Threshold)
	}
	if c.Estimator.EdgeEpsilon < 0 {
		return fmt.Errorf("edge_epsilon must not be negative, got %g", c.Estimator.EdgeEpsilon)
	}
	if c.Cycles < 0 {
		return fmt.Errorf("cycles must not be negative, got %d", c.Cycles)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	return nil
}
