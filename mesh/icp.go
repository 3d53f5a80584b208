package mesh

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// ICPConfig holds configuration for the ICP algorithm. Distances are in
// the same units as the input point sets.
type ICPConfig struct {
	MaxIterations int                  // Iteration budget
	Tolerance     float64              // Convergence threshold on the mean correspondence distance
	WithScale     bool                 // Estimate uniform scale in each increment
	Finder        CorrespondenceFinder // Nearest-neighbor strategy; nil means brute force
}

// DefaultICPConfig returns the defaults used by the fitting pipeline.
func DefaultICPConfig() ICPConfig {
	return ICPConfig{
		MaxIterations: 100,
		Tolerance:     1e-5,
	}
}

// ICPResult contains the result of an ICP alignment.
type ICPResult struct {
	Transform  Transform // Cumulative transform mapping source onto target
	Error      float64   // Final mean correspondence distance
	History    []float64 // Mean correspondence distance after each iteration
	Iterations int       // Number of iterations performed
	Converged  bool      // False when the iteration budget ran out first
}

// AlignPoints aligns source onto target with iterative closest point:
// find correspondences, estimate the incremental least-squares
// transform, apply it to the working points, accumulate it into the
// cumulative transform, and repeat. Convergence is declared when the
// error change between consecutive iterations falls below the
// tolerance, or the error itself does.
//
// AlignPoints never fails: an empty input or a degenerate incremental
// estimate terminates the loop and the current cumulative transform is
// returned best-effort with Converged=false. The error sequence is
// typically non-increasing, but adversarial correspondence changes can
// raise it transiently; that is accepted rather than guarded against.
func AlignPoints(source, target []r3.Vec, config ICPConfig) ICPResult {
	result := ICPResult{Transform: Identity(), Error: math.Inf(1)}
	if len(source) == 0 || len(target) == 0 {
		return result
	}

	finder := config.Finder
	if finder == nil {
		finder = BruteForceFinder{}
	}

	cumulative := Identity()
	working := append([]r3.Vec(nil), source...)
	prevErr := math.Inf(1)

	for iter := 0; iter < config.MaxIterations; iter++ {
		result.Iterations = iter + 1

		corr := finder.FindCorrespondences(working, target)
		matched := make([]r3.Vec, len(working))
		for i, ti := range corr.TargetIdx {
			matched[i] = target[ti]
		}

		incremental, err := EstimateTransform(working, matched, config.WithScale)
		if err != nil {
			// Correspondences collapsed to a degenerate configuration;
			// keep the best-effort transform accumulated so far.
			break
		}

		working = TransformPoints(working, incremental)
		cumulative = Compose(incremental, cumulative)

		// Residual against this iteration's matches after moving.
		meanDist := 0.0
		for i, p := range working {
			meanDist += r3.Norm(r3.Sub(p, matched[i]))
		}
		meanDist /= float64(len(working))

		result.Transform = cumulative
		result.Error = meanDist
		result.History = append(result.History, meanDist)

		if meanDist < config.Tolerance || math.Abs(prevErr-meanDist) < config.Tolerance {
			result.Converged = true
			break
		}
		prevErr = meanDist
	}

	return result
}

// AlignMeshes runs AlignPoints over the vertex sets of two meshes.
func AlignMeshes(source, target *Mesh, config ICPConfig) ICPResult {
	return AlignPoints(source.Vertices, target.Vertices, config)
}
