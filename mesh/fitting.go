package mesh

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// Gender selects the scale-coefficient row applied after ICP refinement.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderUnisex Gender = "unisex"
)

// GenderScales maps a gender tag to the uniform scale multiplier applied
// to the composed fitting transform. Pure data; unknown tags fall back
// to the unisex row.
type GenderScales map[Gender]float64

// DefaultGenderScales returns the built-in coefficient table.
func DefaultGenderScales() GenderScales {
	return GenderScales{
		GenderMale:   1.11,
		GenderFemale: 1.04,
		GenderUnisex: 1.0,
	}
}

func (s GenderScales) coefficient(g Gender) float64 {
	if c, ok := s[g]; ok {
		return c
	}
	if c, ok := s[GenderUnisex]; ok {
		return c
	}
	return 1.0
}

// FitParams configures a single fitting run. Constructed once per run
// and read-only; the pipeline holds no process-wide defaults.
type FitParams struct {
	Gender       Gender
	ICP          ICPConfig    // Zero MaxIterations means DefaultICPConfig
	GenderScales GenderScales // nil means DefaultGenderScales
	VerticalLift float64      // Fraction of body height added to the initial vertical placement
}

// DefaultFitParams returns the stock parameters for a gender tag.
func DefaultFitParams(gender Gender) FitParams {
	return FitParams{
		Gender:       gender,
		ICP:          DefaultICPConfig(),
		GenderScales: DefaultGenderScales(),
		VerticalLift: 0.1,
	}
}

// FitResult is the outcome of a fitting run.
type FitResult struct {
	Garment   *Mesh     // Transformed copy of the input garment
	Transform Transform // Full composed transform applied to the original garment
	Gender    Gender    // Gender tag the scale coefficient was taken for
	ICP       ICPResult
}

// FitGarment fits a garment mesh onto a body mesh: bounding-box scale
// and centroid placement first, ICP refinement second, gender scale
// coefficient last. The fully composed transform is applied to the
// original garment, which is never mutated.
//
// Returns ErrInvalidMesh for malformed inputs and ErrFittingFailed when
// either bounding-box diagonal is zero. ICP non-convergence is not an
// error; inspect FitResult.ICP.Converged.
func FitGarment(body, garment *Mesh, params FitParams) (*FitResult, error) {
	if err := body.Validate(); err != nil {
		return nil, fmt.Errorf("body: %w", err)
	}
	if err := garment.Validate(); err != nil {
		return nil, fmt.Errorf("garment: %w", err)
	}

	bodyBox, err := body.BoundingBox()
	if err != nil {
		return nil, err
	}
	garmentBox, err := garment.BoundingBox()
	if err != nil {
		return nil, err
	}

	if garmentBox.Diagonal() == 0 {
		return nil, fmt.Errorf("%w: garment %q bounding box has zero diagonal", ErrFittingFailed, garment.Name)
	}
	if bodyBox.Diagonal() == 0 {
		return nil, fmt.Errorf("%w: body %q bounding box has zero diagonal", ErrFittingFailed, body.Name)
	}

	// Initial estimate: match bounding-box diagonals and centroids.
	scale := bodyBox.Diagonal() / garmentBox.Diagonal()
	bodyCentroid := Centroid(body.Vertices)
	garmentCentroid := Centroid(garment.Vertices)

	translation := r3.Sub(bodyCentroid, r3.Scale(scale, garmentCentroid))
	translation.Y += params.VerticalLift * bodyBox.Size().Y

	initial := Transform{Rotation: IdentityMat3(), Translation: translation, Scale: scale}

	icpConfig := params.ICP
	if icpConfig.MaxIterations <= 0 {
		icpConfig = DefaultICPConfig()
	}

	positioned := garment.ApplyTransform(initial)
	icpResult := AlignPoints(positioned.Vertices, body.Vertices, icpConfig)

	total := Compose(icpResult.Transform, initial)

	scales := params.GenderScales
	if scales == nil {
		scales = DefaultGenderScales()
	}
	total.Scale *= scales.coefficient(params.Gender)

	return &FitResult{
		Garment:   garment.ApplyTransform(total),
		Transform: total,
		Gender:    params.Gender,
		ICP:       icpResult,
	}, nil
}
