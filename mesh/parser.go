package mesh

import (
	"encoding/json"
	"fmt"
	"os"

	"gonum.org/v1/gonum/spatial/r3"
)

// MeshDocument is the JSON interchange form of a Mesh: vertices as
// [x,y,z] triples and faces as vertex-index triples. This is the
// service's own wire format, supplied by external loaders; the core
// does not parse 3D asset formats.
type MeshDocument struct {
	Name     string       `json:"name,omitempty"`
	Vertices [][3]float64 `json:"vertices"`
	Faces    [][3]int     `json:"faces,omitempty"`
}

// ToMesh converts the document to a validated Mesh.
func (d *MeshDocument) ToMesh() (*Mesh, error) {
	m := &Mesh{
		Name:     d.Name,
		Vertices: make([]r3.Vec, len(d.Vertices)),
		Faces:    make([]Face, len(d.Faces)),
	}
	for i, v := range d.Vertices {
		m.Vertices[i] = r3.Vec{X: v[0], Y: v[1], Z: v[2]}
	}
	for i, f := range d.Faces {
		m.Faces[i] = Face{f[0], f[1], f[2]}
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// DocumentFromMesh converts a Mesh to its interchange form.
func DocumentFromMesh(m *Mesh) *MeshDocument {
	d := &MeshDocument{
		Name:     m.Name,
		Vertices: make([][3]float64, len(m.Vertices)),
		Faces:    make([][3]int, len(m.Faces)),
	}
	for i, v := range m.Vertices {
		d.Vertices[i] = [3]float64{v.X, v.Y, v.Z}
	}
	for i, f := range m.Faces {
		d.Faces[i] = [3]int{f[0], f[1], f[2]}
	}
	return d
}

// ParseMeshJSON parses a mesh document and converts it to a Mesh.
func ParseMeshJSON(data []byte) (*Mesh, error) {
	var doc MeshDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing mesh JSON: %w", err)
	}
	return doc.ToMesh()
}

// ParseMeshFile reads and parses a mesh document file.
func ParseMeshFile(path string) (*Mesh, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading mesh file: %w", err)
	}
	m, err := ParseMeshJSON(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// EncodeMeshJSON renders a mesh as an interchange document.
func EncodeMeshJSON(m *Mesh) ([]byte, error) {
	data, err := json.Marshal(DocumentFromMesh(m))
	if err != nil {
		return nil, fmt.Errorf("encoding mesh JSON: %w", err)
	}
	return data, nil
}

// WriteMeshFile writes a mesh to a document file.
func WriteMeshFile(path string, m *Mesh) error {
	data, err := EncodeMeshJSON(m)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing mesh file: %w", err)
	}
	return nil
}
