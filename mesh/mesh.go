package mesh

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Validate checks the structural invariants of the mesh.
func (m *Mesh) Validate() error {
	if len(m.Vertices) == 0 {
		return fmt.Errorf("%w: mesh %q has no vertices", ErrInvalidMesh, m.Name)
	}
	for i, f := range m.Faces {
		for _, idx := range f {
			if idx < 0 || idx >= len(m.Vertices) {
				return fmt.Errorf("%w: face %d references vertex %d of %d", ErrInvalidMesh, i, idx, len(m.Vertices))
			}
		}
	}
	return nil
}

// BoundingBox computes the axis-aligned bounding box over all vertices.
// It is derived on demand, so it always reflects the current vertex set.
func (m *Mesh) BoundingBox() (BoundingBox, error) {
	if len(m.Vertices) == 0 {
		return BoundingBox{}, fmt.Errorf("%w: bounding box of empty mesh %q", ErrInvalidMesh, m.Name)
	}
	box := BoundingBox{Min: m.Vertices[0], Max: m.Vertices[0]}
	for _, v := range m.Vertices[1:] {
		box.Min.X = math.Min(box.Min.X, v.X)
		box.Min.Y = math.Min(box.Min.Y, v.Y)
		box.Min.Z = math.Min(box.Min.Z, v.Z)
		box.Max.X = math.Max(box.Max.X, v.X)
		box.Max.Y = math.Max(box.Max.Y, v.Y)
		box.Max.Z = math.Max(box.Max.Z, v.Z)
	}
	return box, nil
}

// Centroid returns the mean of all vertices.
func (m *Mesh) Centroid() (r3.Vec, error) {
	if len(m.Vertices) == 0 {
		return r3.Vec{}, fmt.Errorf("%w: centroid of empty mesh %q", ErrInvalidMesh, m.Name)
	}
	return Centroid(m.Vertices), nil
}

// ApplyTransform returns a new mesh with every vertex transformed and
// the faces copied unchanged. The receiver is not mutated.
func (m *Mesh) ApplyTransform(t Transform) *Mesh {
	faces := make([]Face, len(m.Faces))
	copy(faces, m.Faces)
	return &Mesh{
		Name:     m.Name,
		Vertices: TransformPoints(m.Vertices, t),
		Faces:    faces,
	}
}

// Centroid calculates the center of mass of a set of points.
func Centroid(points []r3.Vec) r3.Vec {
	if len(points) == 0 {
		return r3.Vec{}
	}
	var sum r3.Vec
	for _, p := range points {
		sum = r3.Add(sum, p)
	}
	return r3.Scale(1/float64(len(points)), sum)
}
