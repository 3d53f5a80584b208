package mesh

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Mat3 is a 3x3 matrix in row-major order, used for rotations.
type Mat3 [3][3]float64

// IdentityMat3 returns the 3x3 identity matrix.
func IdentityMat3() Mat3 {
	return Mat3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
}

// MulVec applies the matrix to a vector.
func (m Mat3) MulVec(p r3.Vec) r3.Vec {
	return r3.Vec{
		X: m[0][0]*p.X + m[0][1]*p.Y + m[0][2]*p.Z,
		Y: m[1][0]*p.X + m[1][1]*p.Y + m[1][2]*p.Z,
		Z: m[2][0]*p.X + m[2][1]*p.Y + m[2][2]*p.Z,
	}
}

// Mul composes two matrices: m.Mul(n).MulVec(p) == m.MulVec(n.MulVec(p)).
func (m Mat3) Mul(n Mat3) Mat3 {
	var out Mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i][j] = m[i][0]*n[0][j] + m[i][1]*n[1][j] + m[i][2]*n[2][j]
		}
	}
	return out
}

// Det returns the determinant.
func (m Mat3) Det() float64 {
	return m[0][0]*(m[1][1]*m[2][2]-m[1][2]*m[2][1]) -
		m[0][1]*(m[1][0]*m[2][2]-m[1][2]*m[2][0]) +
		m[0][2]*(m[1][0]*m[2][1]-m[1][1]*m[2][0])
}

// AxisAngleRotation builds the rotation matrix for a rotation of angle
// radians about the given axis (Rodrigues' formula). The axis need not
// be normalized.
func AxisAngleRotation(axis r3.Vec, angle float64) Mat3 {
	u := r3.Unit(axis)
	c := math.Cos(angle)
	s := math.Sin(angle)
	t := 1 - c
	return Mat3{
		{c + u.X*u.X*t, u.X*u.Y*t - u.Z*s, u.X*u.Z*t + u.Y*s},
		{u.Y*u.X*t + u.Z*s, c + u.Y*u.Y*t, u.Y*u.Z*t - u.X*s},
		{u.Z*u.X*t - u.Y*s, u.Z*u.Y*t + u.X*s, c + u.Z*u.Z*t},
	}
}

// Transform is a similarity transform: p' = Scale * Rotation * p + Translation.
// Rotation is kept orthonormal with determinant +1 by construction.
type Transform struct {
	Rotation    Mat3
	Translation r3.Vec
	Scale       float64
}

// Identity returns the identity transform.
func Identity() Transform {
	return Transform{Rotation: IdentityMat3(), Scale: 1}
}

// TransformPoint applies a transform to a single point.
func TransformPoint(p r3.Vec, t Transform) r3.Vec {
	return r3.Add(r3.Scale(t.Scale, t.Rotation.MulVec(p)), t.Translation)
}

// TransformPoints applies a transform to multiple points.
func TransformPoints(points []r3.Vec, t Transform) []r3.Vec {
	out := make([]r3.Vec, len(points))
	for i, p := range points {
		out[i] = TransformPoint(p, t)
	}
	return out
}

// Compose combines two transforms: applying the result is equivalent to
// applying inner first, then outer.
func Compose(outer, inner Transform) Transform {
	return Transform{
		Rotation:    outer.Rotation.Mul(inner.Rotation),
		Translation: r3.Add(r3.Scale(outer.Scale, outer.Rotation.MulVec(inner.Translation)), outer.Translation),
		Scale:       outer.Scale * inner.Scale,
	}
}

// EstimateTransform computes the best-fit transform mapping source onto
// target via the Kabsch/Umeyama method: center both point sets on their
// centroids, build the 3x3 cross-covariance matrix, take its SVD, and
// derive the rotation as V*U^T with a determinant correction that flips
// the last column of V when the result would be a reflection. The
// translation is target centroid - scale * R * source centroid. When
// withScale is set, scale is the ratio of RMS distances from the
// centroids (target / source); otherwise it is fixed at 1.
//
// Index i of source corresponds to index i of target. Returns
// ErrDegenerateInput when fewer than 3 pairs are given, the lengths
// differ, or the pairs are collinear/coincident.
func EstimateTransform(source, target []r3.Vec, withScale bool) (Transform, error) {
	n := len(source)
	if n != len(target) {
		return Identity(), fmt.Errorf("%w: %d source points vs %d target points", ErrDegenerateInput, n, len(target))
	}
	if n < 3 {
		return Identity(), fmt.Errorf("%w: need at least 3 point pairs, got %d", ErrDegenerateInput, n)
	}

	srcCentroid := Centroid(source)
	tgtCentroid := Centroid(target)

	h := mat.NewDense(3, 3, nil)
	var srcVar, tgtVar float64
	for i := range source {
		s := r3.Sub(source[i], srcCentroid)
		d := r3.Sub(target[i], tgtCentroid)
		sv := [3]float64{s.X, s.Y, s.Z}
		dv := [3]float64{d.X, d.Y, d.Z}
		for r := 0; r < 3; r++ {
			for c := 0; c < 3; c++ {
				h.Set(r, c, h.At(r, c)+sv[r]*dv[c])
			}
		}
		srcVar += r3.Norm2(s)
		tgtVar += r3.Norm2(d)
	}

	var svd mat.SVD
	if !svd.Factorize(h, mat.SVDFull) {
		return Identity(), fmt.Errorf("%w: covariance SVD did not converge", ErrDegenerateInput)
	}
	// Collinear or coincident pairs give a covariance of rank < 2, which
	// leaves the rotation underdetermined.
	singular := svd.Values(nil)
	if singular[1] <= singular[0]*1e-10 {
		return Identity(), fmt.Errorf("%w: point pairs are collinear", ErrDegenerateInput)
	}

	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	var r mat.Dense
	r.Mul(&v, u.T())

	rot := mat3FromDense(&r)
	if rot.Det() < 0 {
		// Reflection: negate the last column of V to force a proper rotation.
		d := mat.NewDiagDense(3, []float64{1, 1, -1})
		var vd mat.Dense
		vd.Mul(&v, d)
		r.Mul(&vd, u.T())
		rot = mat3FromDense(&r)
	}

	scale := 1.0
	if withScale {
		if srcVar <= 0 {
			return Identity(), fmt.Errorf("%w: source points are coincident", ErrDegenerateInput)
		}
		scale = math.Sqrt(tgtVar / srcVar)
	}

	translation := r3.Sub(tgtCentroid, r3.Scale(scale, rot.MulVec(srcCentroid)))

	return Transform{Rotation: rot, Translation: translation, Scale: scale}, nil
}

func mat3FromDense(d *mat.Dense) Mat3 {
	var m Mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			m[i][j] = d.At(i, j)
		}
	}
	return m
}
