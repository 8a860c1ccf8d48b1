package meshsink

import "github.com/taigrr/diagsplit/geom"

// Vertex holds the attributes DiagSplit's sink contract fills in per
// vertex, plus the optional ptex face/uv pair used when Params.Ptex is
// set.
type Vertex struct {
	Position geom.Vec3
	Normal   geom.Vec3

	PtexFaceID int
	PtexUV     geom.Vec2
}

// Triangle is a single output triangle, referencing three indices into
// Mesh.Vertices.
type Triangle struct {
	V [3]int
}

// Mesh is a concrete, in-memory Sink: the diced, crack-free output of a
// SplitPatches call. It mirrors the teacher's render-side Mesh type but
// accumulates incrementally as DiagSplit discovers vertex counts rather
// than being built all at once from a loaded asset.
type Mesh struct {
	Name      string
	Vertices  []Vertex
	Triangles []Triangle

	BoundsMin geom.Vec3
	BoundsMax geom.Vec3
}

// NewMesh returns an empty mesh ready to be used as a Sink.
func NewMesh(name string) *Mesh {
	return &Mesh{Name: name}
}

// ReserveMesh grows backing storage without changing length, to reduce
// reallocation as DiagSplit discovers the final counts incrementally.
func (m *Mesh) ReserveMesh(numVerts, numTriangles int) {
	if cap(m.Vertices) < numVerts {
		grown := make([]Vertex, len(m.Vertices), numVerts)
		copy(grown, m.Vertices)
		m.Vertices = grown
	}
	if cap(m.Triangles) < numTriangles {
		grown := make([]Triangle, len(m.Triangles), numTriangles)
		copy(grown, m.Triangles)
		m.Triangles = grown
	}
}

// AllocVerts appends n zero-valued vertices and returns the index of the
// first one.
func (m *Mesh) AllocVerts(n int) int {
	start := len(m.Vertices)
	m.Vertices = append(m.Vertices, make([]Vertex, n)...)
	return start
}

// SetVertex fills in a previously allocated vertex's position and
// normal.
func (m *Mesh) SetVertex(index int, pos, normal geom.Vec3) {
	m.Vertices[index].Position = pos
	m.Vertices[index].Normal = normal
}

// SetPtexCoord fills in a previously allocated vertex's ptex face id and
// local uv, implementing PtexSink.
func (m *Mesh) SetPtexCoord(index int, faceID int, uv geom.Vec2) {
	m.Vertices[index].PtexFaceID = faceID
	m.Vertices[index].PtexUV = uv
}

// AddTriangle appends one triangle.
func (m *Mesh) AddTriangle(v0, v1, v2 int) {
	m.Triangles = append(m.Triangles, Triangle{V: [3]int{v0, v1, v2}})
}

// CalculateBounds recomputes BoundsMin/BoundsMax from the current
// vertex set.
func (m *Mesh) CalculateBounds() {
	m.BoundsMin = geom.EmptyAABB().Min
	m.BoundsMax = geom.EmptyAABB().Max
	box := geom.EmptyAABB()
	for _, v := range m.Vertices {
		box = box.GrowPoint(v.Position)
	}
	m.BoundsMin, m.BoundsMax = box.Min, box.Max
}

// VertexCount returns the number of vertices currently in the mesh.
func (m *Mesh) VertexCount() int { return len(m.Vertices) }

// TriangleCount returns the number of triangles currently in the mesh.
func (m *Mesh) TriangleCount() int { return len(m.Triangles) }
