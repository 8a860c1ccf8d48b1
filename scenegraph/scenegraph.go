// Package scenegraph provides the minimal scene iteration contract that
// feeds both DiagSplit and the light tree builder from one loaded scene:
// a flat list of tessellable objects and a flat list of lamps.
package scenegraph

import (
	"github.com/taigrr/diagsplit/lighttree"
	"github.com/taigrr/diagsplit/patchio"
	"github.com/taigrr/diagsplit/subd"
)

// Object is one tessellable surface in the scene: its patch cage plus
// whatever emissive triangle primitives that cage itself contributes to
// the light tree (e.g. an emissive-material mesh, as opposed to a
// dedicated lamp).
type Object struct {
	Name    string
	Patches []subd.Patch
	Emitted []lighttree.Primitive
}

// Lamp is a standalone light source not backed by surface geometry.
type Lamp struct {
	Name      string
	Primitive lighttree.Primitive
}

// SceneIterator exposes a loaded scene's objects and lamps to the CLI
// and to anything else that needs to drive both cores from one source.
type SceneIterator interface {
	Objects() []Object
	Lights() []Lamp
}

// Scene is the in-memory SceneIterator built by FromGLTF.
type Scene struct {
	objects []Object
	lamps   []Lamp
}

var _ SceneIterator = (*Scene)(nil)

func (s *Scene) Objects() []Object { return s.objects }
func (s *Scene) Lights() []Lamp    { return s.lamps }

// FromGLTF loads a GLTF/GLB file via patchio.LoadScene and reshapes it
// into the Objects()/Lights() split SceneIterator exposes: the file's
// surface-derived patches and their emissive triangles become one
// Object, and its KHR_lights_punctual lamps become separate Lamp entries.
func FromGLTF(path string) (*Scene, error) {
	loaded, err := patchio.LoadScene(path)
	if err != nil {
		return nil, err
	}

	scene := &Scene{}

	var surfaceEmission []lighttree.Primitive
	for _, p := range loaded.Primitives {
		if p.IsTriangle {
			surfaceEmission = append(surfaceEmission, p)
		} else {
			scene.lamps = append(scene.lamps, Lamp{
				Name:      lampName(p),
				Primitive: p,
			})
		}
	}

	if len(loaded.Patches) > 0 || len(surfaceEmission) > 0 {
		scene.objects = append(scene.objects, Object{
			Name:    path,
			Patches: loaded.Patches,
			Emitted: surfaceEmission,
		})
	}

	return scene, nil
}

// AllPrimitives flattens a SceneIterator's surface emission and lamps
// into the single ordered slice lighttree.Build expects, with distant
// lamps moved to the end so the caller can pass their count as
// numDistant.
func AllPrimitives(s SceneIterator) (prims []lighttree.Primitive, numDistant int) {
	var local, distant []lighttree.Primitive
	for _, obj := range s.Objects() {
		local = append(local, obj.Emitted...)
	}
	for _, lamp := range s.Lights() {
		if lamp.Primitive.LampType == lighttree.LampDistant || lamp.Primitive.LampType == lighttree.LampBackground {
			distant = append(distant, lamp.Primitive)
		} else {
			local = append(local, lamp.Primitive)
		}
	}
	prims = append(local, distant...)
	return prims, len(distant)
}

func lampName(p lighttree.Primitive) string {
	switch p.LampType {
	case lighttree.LampArea:
		return "area"
	case lighttree.LampPoint:
		return "point"
	case lighttree.LampSpot:
		return "spot"
	case lighttree.LampBackground:
		return "background"
	default:
		return "distant"
	}
}
