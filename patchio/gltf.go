package patchio

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/qmuntal/gltf"

	"github.com/taigrr/diagsplit/geom"
	"github.com/taigrr/diagsplit/lighttree"
	"github.com/taigrr/diagsplit/subd"
)

// Scene is the result of loading a GLTF/GLB document: the patch cage
// DiagSplit consumes, plus the emissive primitives the light tree is
// built from.
type Scene struct {
	Patches    []subd.Patch
	Primitives []lighttree.Primitive
	// NumDistant is the suffix of Primitives that are distant/background
	// lights, per lighttree.Build's trailing-slice convention.
	NumDistant int
}

// khrLight mirrors the subset of the KHR_lights_punctual extension this
// loader understands: type, color, intensity, range, and the spot cone
// angles. The gltf package has no first-class support for this
// extension, so it is decoded from the document's raw extension JSON the
// same way the teacher's loader falls back to manual accessor reads for
// anything qmuntal/gltf doesn't model directly.
type khrLight struct {
	Type      string     `json:"type"`
	Color     [3]float32 `json:"color"`
	Intensity float32    `json:"intensity"`
	Range     float32    `json:"range"`
	Spot      *struct {
		InnerConeAngle float32 `json:"innerConeAngle"`
		OuterConeAngle float32 `json:"outerConeAngle"`
	} `json:"spot"`
}

type khrLightsPunctual struct {
	Lights []khrLight `json:"lights"`
}

type khrNodeLight struct {
	Light int `json:"light"`
}

const khrLightsPunctualExt = "KHR_lights_punctual"

// LoadScene loads a GLTF/GLB file, pairs up its triangles into quad
// patches where an exact shared-edge pairing exists (falling back to a
// degenerate quad per leftover triangle), and extracts KHR_lights_punctual
// lamps plus emissive-material triangles as light tree primitives.
func LoadScene(path string) (*Scene, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gltf: %w", err)
	}

	lights, err := parseLights(doc)
	if err != nil {
		return nil, fmt.Errorf("parse lights extension: %w", err)
	}

	scene := &Scene{}
	nextCornerID := 0

	for _, m := range doc.Meshes {
		for _, prim := range m.Primitives {
			if prim.Mode != gltf.PrimitiveTriangles && prim.Mode != 0 {
				continue
			}
			posIdx, ok := prim.Attributes[gltf.POSITION]
			if !ok {
				continue
			}
			positions, err := readVec3Accessor(doc, posIdx)
			if err != nil {
				return nil, fmt.Errorf("read positions: %w", err)
			}
			var normals []geom.Vec3
			if normIdx, ok := prim.Attributes[gltf.NORMAL]; ok {
				normals, err = readVec3Accessor(doc, normIdx)
				if err != nil {
					return nil, fmt.Errorf("read normals: %w", err)
				}
			}
			if len(normals) == 0 {
				normals = computeFlatNormals(positions)
			}

			var indices []int
			if prim.Indices != nil {
				indices, err = readIndices(doc, *prim.Indices)
				if err != nil {
					return nil, fmt.Errorf("read indices: %w", err)
				}
			} else {
				indices = make([]int, len(positions))
				for i := range indices {
					indices[i] = i
				}
			}

			emission, hasEmission := materialEmission(doc, prim.Material)

			triCount := len(indices) / 3
			used := make([]bool, triCount)
			corner := make([]int, len(positions))
			for i := range corner {
				corner[i] = nextCornerID
				nextCornerID++
			}

			for t := 0; t < triCount; t++ {
				if used[t] {
					continue
				}
				a, b, c := indices[t*3], indices[t*3+1], indices[t*3+2]

				if hasEmission {
					scene.Primitives = append(scene.Primitives, lighttree.NewTrianglePrimitive(
						len(scene.Primitives), 0,
						positions[a], positions[b], positions[c],
						emission, false, false))
				}

				pair := findQuadPair(indices, used, t, a, b, c)
				if pair >= 0 {
					used[t] = true
					used[pair] = true
					d := thirdIndex(indices, pair, a, b, c)
					scene.Patches = append(scene.Patches, QuadPatch{
						P00: positions[a], P10: positions[b], P11: positions[d], P01: positions[c],
						N00: normals[a], N10: normals[b], N11: normals[d], N01: normals[c],
						CornerIDsValue: [4]int{corner[a], corner[b], corner[d], corner[c]},
					})
					if hasEmission {
						scene.Primitives = append(scene.Primitives, lighttree.NewTrianglePrimitive(
							len(scene.Primitives), 0,
							positions[b], positions[d], positions[c],
							emission, false, false))
					}
					continue
				}

				used[t] = true
				scene.Patches = append(scene.Patches, QuadPatch{
					P00: positions[a], P10: positions[b], P11: positions[c], P01: positions[c],
					N00: normals[a], N10: normals[b], N11: normals[c], N01: normals[c],
					CornerIDsValue: [4]int{corner[a], corner[b], corner[c], corner[c]},
				})
			}
		}
	}

	for _, n := range doc.Nodes {
		lightIdx, ok := nodeLightIndex(n)
		if !ok || lightIdx >= len(lights) {
			continue
		}
		scene.Primitives = append(scene.Primitives, lampPrimitiveFromNode(len(scene.Primitives), n, lights[lightIdx]))
	}

	return scene, nil
}

// findQuadPair looks for an unused triangle sharing exactly the edge
// (b,c) with triangle t, the signature of two triangles diagonally
// split from one quad. Returns its index or -1.
func findQuadPair(indices []int, used []bool, t, a, b, c int) int {
	_ = a
	for u := t + 1; u < len(used); u++ {
		if used[u] {
			continue
		}
		ua, ub, uc := indices[u*3], indices[u*3+1], indices[u*3+2]
		if sharesEdge(b, c, ua, ub, uc) {
			return u
		}
	}
	return -1
}

func sharesEdge(b, c, ua, ub, uc int) bool {
	has := func(v int) bool { return v == ua || v == ub || v == uc }
	return has(b) && has(c)
}

func thirdIndex(indices []int, tri int, a, b, c int) int {
	for _, v := range indices[tri*3 : tri*3+3] {
		if v != b && v != c {
			return v
		}
	}
	return a
}

func computeFlatNormals(positions []geom.Vec3) []geom.Vec3 {
	normals := make([]geom.Vec3, len(positions))
	for i := 0; i+2 < len(positions); i += 3 {
		e1 := positions[i+1].Sub(positions[i])
		e2 := positions[i+2].Sub(positions[i])
		n := e1.Cross(e2).Normalize()
		normals[i], normals[i+1], normals[i+2] = n, n, n
	}
	return normals
}

func materialEmission(doc *gltf.Document, materialIdx *int) (geom.Vec3, bool) {
	if materialIdx == nil || *materialIdx >= len(doc.Materials) {
		return geom.Zero3(), false
	}
	mat := doc.Materials[*materialIdx]
	e := mat.EmissiveFactor
	if e[0] == 0 && e[1] == 0 && e[2] == 0 {
		return geom.Zero3(), false
	}
	strength := float64(1)
	if mat.Extensions != nil {
		if raw, ok := mat.Extensions["KHR_materials_emissive_strength"]; ok {
			var es struct {
				EmissiveStrength float64 `json:"emissiveStrength"`
			}
			if b, err := json.Marshal(raw); err == nil {
				if json.Unmarshal(b, &es) == nil && es.EmissiveStrength > 0 {
					strength = es.EmissiveStrength
				}
			}
		}
	}
	return geom.V3(float64(e[0])*strength, float64(e[1])*strength, float64(e[2])*strength), true
}

func parseLights(doc *gltf.Document) ([]khrLight, error) {
	if doc.Extensions == nil {
		return nil, nil
	}
	raw, ok := doc.Extensions[khrLightsPunctualExt]
	if !ok {
		return nil, nil
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	var ext khrLightsPunctual
	if err := json.Unmarshal(b, &ext); err != nil {
		return nil, err
	}
	return ext.Lights, nil
}

func nodeLightIndex(n *gltf.Node) (int, bool) {
	if n.Extensions == nil {
		return 0, false
	}
	raw, ok := n.Extensions[khrLightsPunctualExt]
	if !ok {
		return 0, false
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return 0, false
	}
	var nl khrNodeLight
	if json.Unmarshal(b, &nl) != nil {
		return 0, false
	}
	return nl.Light, true
}

func lampPrimitiveFromNode(primID int, n *gltf.Node, l khrLight) lighttree.Primitive {
	pos := geom.V3(float64(n.Translation[0]), float64(n.Translation[1]), float64(n.Translation[2]))
	dir := nodeForward(n)

	p := lighttree.LampParams{
		Position:  pos,
		Direction: dir,
		Radius:    0.01,
		Strength:  float64(l.Intensity),
	}
	if l.Range > 0 {
		p.Radius = float64(l.Range)
	}

	switch l.Type {
	case "point":
		p.Type = lighttree.LampPoint
	case "spot":
		p.Type = lighttree.LampSpot
		if l.Spot != nil {
			p.SpotAngle = 2 * float64(l.Spot.OuterConeAngle)
			inner := float64(l.Spot.InnerConeAngle)
			outer := float64(l.Spot.OuterConeAngle)
			if outer > 0 {
				p.SpotSmooth = (outer - inner) / outer
			}
		}
	case "directional":
		p.Type = lighttree.LampDistant
	default:
		p.Type = lighttree.LampPoint
	}

	return lighttree.NewLampPrimitive(primID, 0, p)
}

// nodeForward returns a node's local -Z axis after its quaternion
// rotation, the direction GLTF lights and cameras point along.
func nodeForward(n *gltf.Node) geom.Vec3 {
	q := n.Rotation
	if q == [4]float32{} {
		q = [4]float32{0, 0, 0, 1}
	}
	x, y, z, w := float64(q[0]), float64(q[1]), float64(q[2]), float64(q[3])
	fwd := geom.V3(0, 0, -1)
	// Standard quaternion-vector rotation v' = v + 2w(q x v) + 2(q x (q x v)).
	qv := geom.V3(x, y, z)
	t := qv.Cross(fwd).Scale(2)
	return fwd.Add(t.Scale(w)).Add(qv.Cross(t))
}

func readVec3Accessor(doc *gltf.Document, accessorIdx int) ([]geom.Vec3, error) {
	accessor := doc.Accessors[accessorIdx]
	if accessor.Type != gltf.AccessorVec3 {
		return nil, fmt.Errorf("expected VEC3, got %v", accessor.Type)
	}
	data, err := readAccessorData(doc, accessor)
	if err != nil {
		return nil, err
	}
	floats, ok := data.([][3]float32)
	if !ok {
		return nil, fmt.Errorf("unexpected data type for VEC3")
	}
	result := make([]geom.Vec3, len(floats))
	for i, f := range floats {
		result[i] = geom.V3(float64(f[0]), float64(f[1]), float64(f[2]))
	}
	return result, nil
}

func readIndices(doc *gltf.Document, accessorIdx int) ([]int, error) {
	accessor := doc.Accessors[accessorIdx]
	data, err := readAccessorData(doc, accessor)
	if err != nil {
		return nil, err
	}
	switch v := data.(type) {
	case []uint8:
		out := make([]int, len(v))
		for i, x := range v {
			out[i] = int(x)
		}
		return out, nil
	case []uint16:
		out := make([]int, len(v))
		for i, x := range v {
			out[i] = int(x)
		}
		return out, nil
	case []uint32:
		out := make([]int, len(v))
		for i, x := range v {
			out[i] = int(x)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unexpected index type: %T", data)
	}
}

func readAccessorData(doc *gltf.Document, accessor *gltf.Accessor) (any, error) {
	if accessor.BufferView == nil {
		return nil, fmt.Errorf("accessor has no buffer view")
	}
	bufferView := doc.BufferViews[*accessor.BufferView]
	buffer := doc.Buffers[bufferView.Buffer]

	var bufData []byte
	if buffer.URI == "" {
		bufData = buffer.Data
	} else {
		return nil, fmt.Errorf("external buffers not supported")
	}
	if bufData == nil {
		return nil, fmt.Errorf("buffer has no data")
	}

	start := bufferView.ByteOffset + accessor.ByteOffset
	stride := bufferView.ByteStride
	count := accessor.Count

	switch accessor.Type {
	case gltf.AccessorVec3:
		if stride == 0 {
			stride = 12
		}
		result := make([][3]float32, count)
		for i := range count {
			offset := start + i*stride
			for j := range 3 {
				result[i][j] = readFloat32(bufData[offset+j*4:])
			}
		}
		return result, nil

	case gltf.AccessorScalar:
		if stride == 0 {
			switch accessor.ComponentType {
			case gltf.ComponentUbyte:
				stride = 1
			case gltf.ComponentUshort:
				stride = 2
			case gltf.ComponentUint:
				stride = 4
			}
		}
		switch accessor.ComponentType {
		case gltf.ComponentUbyte:
			result := make([]uint8, count)
			for i := range count {
				result[i] = bufData[start+i*stride]
			}
			return result, nil
		case gltf.ComponentUshort:
			result := make([]uint16, count)
			for i := range count {
				offset := start + i*stride
				result[i] = uint16(bufData[offset]) | uint16(bufData[offset+1])<<8
			}
			return result, nil
		case gltf.ComponentUint:
			result := make([]uint32, count)
			for i := range count {
				offset := start + i*stride
				result[i] = uint32(bufData[offset]) |
					uint32(bufData[offset+1])<<8 |
					uint32(bufData[offset+2])<<16 |
					uint32(bufData[offset+3])<<24
			}
			return result, nil
		}
	}
	return nil, fmt.Errorf("unsupported accessor type: %v / %v", accessor.Type, accessor.ComponentType)
}

func readFloat32(b []byte) float32 {
	bits := uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
	return math.Float32frombits(bits)
}
