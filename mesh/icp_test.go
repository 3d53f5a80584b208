package mesh

import (
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

// gridPoints returns a 5x5x5 lattice centered on the origin with unit
// spacing. Any displacement below half the spacing keeps every point
// closest to its own lattice site, which makes nearest-neighbor
// correspondences exact and ICP recovery deterministic.
func gridPoints() []r3.Vec {
	points := make([]r3.Vec, 0, 125)
	for x := -2; x <= 2; x++ {
		for y := -2; y <= 2; y++ {
			for z := -2; z <= 2; z++ {
				points = append(points, r3.Vec{X: float64(x), Y: float64(y), Z: float64(z)})
			}
		}
	}
	return points
}

func maxAlignmentError(source, target []r3.Vec, tr Transform) float64 {
	worst := 0.0
	for i, p := range source {
		d := r3.Norm(r3.Sub(TransformPoint(p, tr), target[i]))
		if d > worst {
			worst = d
		}
	}
	return worst
}

func TestAlignPoints_AlreadyAligned(t *testing.T) {
	grid := gridPoints()
	result := AlignPoints(grid, grid, DefaultICPConfig())

	if !result.Converged {
		t.Fatal("expected convergence on identical point sets")
	}
	if result.Iterations != 1 {
		t.Errorf("Iterations = %d, want 1", result.Iterations)
	}
	if result.Error > 1e-12 {
		t.Errorf("Error = %g, want ~0", result.Error)
	}
}

func TestAlignPoints_TranslationRecovery(t *testing.T) {
	target := gridPoints()
	offset := r3.Vec{X: 0.3, Y: 0.2, Z: 0.1}
	source := make([]r3.Vec, len(target))
	for i, p := range target {
		source[i] = r3.Add(p, offset)
	}

	for name, finder := range finders() {
		config := DefaultICPConfig()
		config.Finder = finder
		result := AlignPoints(source, target, config)

		if !result.Converged {
			t.Fatalf("%s: expected convergence", name)
		}
		if worst := maxAlignmentError(source, target, result.Transform); worst > 1e-9 {
			t.Errorf("%s: worst residual %g after translation recovery", name, worst)
		}
	}
}

func TestAlignPoints_RotationRecovery(t *testing.T) {
	target := gridPoints()
	// 5 degrees moves the farthest lattice point by ~0.25, well inside
	// the half-spacing bound.
	rot := AxisAngleRotation(r3.Vec{Z: 1}, 5*math.Pi/180)
	source := make([]r3.Vec, len(target))
	for i, p := range target {
		source[i] = rot.MulVec(p)
	}

	result := AlignPoints(source, target, DefaultICPConfig())
	if !result.Converged {
		t.Fatal("expected convergence")
	}
	if worst := maxAlignmentError(source, target, result.Transform); worst > 1e-9 {
		t.Errorf("worst residual %g after rotation recovery", worst)
	}
}

func TestAlignPoints_ScaleRecovery(t *testing.T) {
	target := gridPoints()
	source := make([]r3.Vec, len(target))
	for i, p := range target {
		source[i] = r3.Scale(1.1, p)
	}

	config := DefaultICPConfig()
	config.WithScale = true
	result := AlignPoints(source, target, config)

	if !result.Converged {
		t.Fatal("expected convergence")
	}
	if math.Abs(result.Transform.Scale-1/1.1) > 1e-9 {
		t.Errorf("Scale = %g, want %g", result.Transform.Scale, 1/1.1)
	}
	if worst := maxAlignmentError(source, target, result.Transform); worst > 1e-9 {
		t.Errorf("worst residual %g after scale recovery", worst)
	}
}

func TestAlignPoints_NoisyCloud(t *testing.T) {
	target := gridPoints()
	pairs, monotone := 0, 0
	for seed := int64(0); seed < 10; seed++ {
		rng := rand.New(rand.NewSource(seed))
		source := make([]r3.Vec, len(target))
		for i, p := range target {
			source[i] = r3.Add(p, r3.Vec{
				X: (rng.Float64() - 0.5) * 0.2,
				Y: (rng.Float64() - 0.5) * 0.2,
				Z: (rng.Float64() - 0.5) * 0.2,
			})
		}

		config := ICPConfig{MaxIterations: 30, Tolerance: 1e-12, Finder: KDTreeFinder{}}
		result := AlignPoints(source, target, config)

		if len(result.History) == 0 {
			t.Fatalf("seed %d: empty history", seed)
		}
		first := result.History[0]
		last := result.History[len(result.History)-1]
		if last > first+1e-9 {
			t.Errorf("seed %d: error rose from %g to %g", seed, first, last)
		}
		// Residual noise cannot be aligned away entirely, but the fit
		// must not drift beyond the noise amplitude.
		if result.Error > 0.2 {
			t.Errorf("seed %d: final error %g too large", seed, result.Error)
		}

		for i := 1; i < len(result.History); i++ {
			pairs++
			if result.History[i] <= result.History[i-1]+1e-12 {
				monotone++
			}
		}
	}

	// The error sequence is non-increasing in the vast majority of
	// steps; correspondence flips may raise it transiently.
	if pairs > 0 && float64(monotone)/float64(pairs) < 0.95 {
		t.Errorf("error decreased in only %d of %d consecutive pairs", monotone, pairs)
	}
}

func TestAlignPoints_BudgetExhausted(t *testing.T) {
	target := gridPoints()
	source := make([]r3.Vec, len(target))
	for i, p := range target {
		source[i] = r3.Add(p, r3.Vec{X: 0.1})
	}

	result := AlignPoints(source, target, ICPConfig{MaxIterations: 3, Tolerance: 0})
	if result.Converged {
		t.Error("Converged = true with zero tolerance")
	}
	if result.Iterations != 3 {
		t.Errorf("Iterations = %d, want 3", result.Iterations)
	}
	if len(result.History) != 3 {
		t.Errorf("History has %d entries, want 3", len(result.History))
	}
}

func TestAlignPoints_EmptyInput(t *testing.T) {
	result := AlignPoints(nil, gridPoints(), DefaultICPConfig())
	if result.Converged {
		t.Error("Converged = true on empty source")
	}
	if result.Iterations != 0 {
		t.Errorf("Iterations = %d, want 0", result.Iterations)
	}
	if !math.IsInf(result.Error, 1) {
		t.Errorf("Error = %g, want +Inf", result.Error)
	}

	result = AlignPoints(gridPoints(), nil, DefaultICPConfig())
	if result.Iterations != 0 {
		t.Errorf("Iterations = %d on empty target, want 0", result.Iterations)
	}
}

func TestAlignMeshes(t *testing.T) {
	target := &Mesh{Name: "body", Vertices: gridPoints()}
	offset := r3.Vec{X: 0.2, Y: -0.1, Z: 0.3}
	sourceVerts := make([]r3.Vec, len(target.Vertices))
	for i, p := range target.Vertices {
		sourceVerts[i] = r3.Add(p, offset)
	}
	source := &Mesh{Name: "garment", Vertices: sourceVerts}

	result := AlignMeshes(source, target, DefaultICPConfig())
	if !result.Converged {
		t.Fatal("expected convergence")
	}
	if worst := maxAlignmentError(source.Vertices, target.Vertices, result.Transform); worst > 1e-9 {
		t.Errorf("worst residual %g", worst)
	}
}
