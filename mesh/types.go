package mesh

import "gonum.org/v1/gonum/spatial/r3"

// Mesh holds the geometry of a single 3D object: an ordered vertex list
// and triangular faces indexing into it. Meshes are immutable once
// built; transforms produce a new Mesh with the faces carried over
// unchanged (topology is invariant under rigid and scale transforms).
type Mesh struct {
	Name     string
	Vertices []r3.Vec
	Faces    []Face
}

// Face is a triangle given as three vertex indices.
type Face [3]int

// BoundingBox is an axis-aligned box derived from a mesh's vertices.
type BoundingBox struct {
	Min r3.Vec
	Max r3.Vec
}

// Size returns the per-axis extents of the box.
func (b BoundingBox) Size() r3.Vec {
	return r3.Sub(b.Max, b.Min)
}

// Center returns the midpoint of the box.
func (b BoundingBox) Center() r3.Vec {
	return r3.Scale(0.5, r3.Add(b.Min, b.Max))
}

// Diagonal returns the length of the box diagonal.
func (b BoundingBox) Diagonal() float64 {
	return r3.Norm(b.Size())
}

// FittingConfig holds pipeline defaults from the config file.
// Zero values mean "use the built-in default".
type FittingConfig struct {
	MaxIterations int                `yaml:"maxIterations,omitempty" json:"maxIterations,omitempty"`
	Tolerance     float64            `yaml:"tolerance,omitempty" json:"tolerance,omitempty"`
	VerticalLift  *float64           `yaml:"verticalLift,omitempty" json:"verticalLift,omitempty"` // Optional override; nil means the default lift
	GenderScales  map[string]float64 `yaml:"genderScales,omitempty" json:"genderScales,omitempty"`
}

// MQTTConfig holds MQTT connection settings.
type MQTTConfig struct {
	Broker        string `yaml:"broker,omitempty" json:"broker,omitempty"`
	PublishPrefix string `yaml:"publishPrefix,omitempty" json:"publishPrefix,omitempty"`
	ClientID      string `yaml:"clientId,omitempty" json:"clientId,omitempty"`
	Username      string `yaml:"username,omitempty" json:"username,omitempty"`
	Password      string `yaml:"password,omitempty" json:"password,omitempty"`
}

// Config represents the full configuration file.
type Config struct {
	MQTT    MQTTConfig    `yaml:"mqtt,omitempty" json:"mqtt,omitempty"`
	Fitting FittingConfig `yaml:"fitting,omitempty" json:"fitting,omitempty"`
}

// FitParamsFor builds per-run fitting parameters from the config,
// starting from DefaultFitParams and applying configured overrides.
func (c *Config) FitParamsFor(gender Gender) FitParams {
	params := DefaultFitParams(gender)
	if c == nil {
		return params
	}
	if c.Fitting.MaxIterations > 0 {
		params.ICP.MaxIterations = c.Fitting.MaxIterations
	}
	if c.Fitting.Tolerance > 0 {
		params.ICP.Tolerance = c.Fitting.Tolerance
	}
	if c.Fitting.VerticalLift != nil {
		params.VerticalLift = *c.Fitting.VerticalLift
	}
	if len(c.Fitting.GenderScales) > 0 {
		scales := make(GenderScales, len(c.Fitting.GenderScales))
		for tag, coeff := range c.Fitting.GenderScales {
			scales[Gender(tag)] = coeff
		}
		params.GenderScales = scales
	}
	return params
}

// FittingEvent summarizes one completed fitting run for downstream
// consumers (visualizers, archival).
type FittingEvent struct {
	Garment    string  `json:"garment"`
	Gender     string  `json:"gender"`
	Converged  bool    `json:"converged"`
	Iterations int     `json:"iterations"`
	Error      float64 `json:"error"`
	Scale      float64 `json:"scale"`
	Timestamp  int64   `json:"timestamp"`
}
