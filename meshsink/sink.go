// Package meshsink defines the output contract DiagSplit and EdgeDice
// write into, and provides an in-memory implementation used by tests and
// the CLI preview path.
package meshsink

import "github.com/taigrr/diagsplit/geom"

// Sink is the destination mesh an EdgeDice pass fills in. It owns vertex
// index allocation: AllocVerts reserves n contiguous indices and grows
// the sink's backing storage to fit, so the caller never needs its own
// vertex counter.
type Sink interface {
	// ReserveMesh is an early, approximate size hint a caller may send
	// before the exact counts are known, to reduce reallocation churn.
	ReserveMesh(numVerts, numTriangles int)

	// AllocVerts reserves n contiguous vertex slots and returns the
	// index of the first one.
	AllocVerts(n int) int

	// SetVertex fills in the attributes of a previously allocated
	// vertex index.
	SetVertex(index int, pos, normal geom.Vec3)

	// AddTriangle appends one triangle referencing three vertex
	// indices, in counter-clockwise winding order.
	AddTriangle(v0, v1, v2 int)
}

// PtexSink is an optional extension a Sink may implement to receive
// per-corner ptex face/uv attributes (§7 Supplemented Features).
type PtexSink interface {
	SetPtexCoord(index int, faceID int, uv geom.Vec2)
}
