// diagsplit - adaptive patch tessellation and light tree builder CLI.
//
// Loads a GLTF/GLB scene (or a built-in synthetic quad when no path is
// given), runs DiagSplit + EdgeDice to dice its patch cage into a
// micro-polygon mesh, builds a SAOH light tree from its emissive
// triangles and lamps, and reports the resulting statistics. Optionally
// writes a Graphviz .dot dump of the light tree and/or a wireframe PNG
// preview of the diced mesh.
package main

import (
	"flag"
	"fmt"
	"math"
	"os"

	"github.com/charmbracelet/harmonica"

	"github.com/taigrr/diagsplit/dotdump"
	"github.com/taigrr/diagsplit/geom"
	"github.com/taigrr/diagsplit/lighttree"
	"github.com/taigrr/diagsplit/meshsink"
	"github.com/taigrr/diagsplit/patchio"
	"github.com/taigrr/diagsplit/pkg/math3d"
	"github.com/taigrr/diagsplit/pkg/render"
	"github.com/taigrr/diagsplit/scenegraph"
	"github.com/taigrr/diagsplit/subd"
)

var (
	dicingRate      = flag.Float64("dicing-rate", 8.0, "target micro-polygon edge length, in pixels when -camera-dicing is set")
	splitThreshold  = flag.Float64("split-threshold", 1.0, "max length-sum vs length-max disagreement before an edge's factor is re-estimated per half")
	maxLevel        = flag.Int("max-level", 18, "max edge factor as a power-of-two multiple of the parametric distance")
	maxLightsInLeaf = flag.Int("max-lights-in-leaf", 8, "max primitives per light tree leaf")
	dotPath         = flag.String("dot", "", "write a Graphviz digraph of the built light tree to this path")
	wireframePath   = flag.String("wireframe", "", "write a wireframe PNG preview of the diced mesh to this path")
	cameraMode      = flag.String("camera", "fixed", "preview camera mode: fixed or orbit")
	ansiPreview     = flag.Bool("ansi", false, "print an ANSI half-block preview of the wireframe to stderr")
	cameraDicing    = flag.Bool("camera-dicing", false, "measure -dicing-rate in raster pixels through the preview camera instead of world units")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "diagsplit - adaptive patch tessellation + light tree CLI\n\n")
		fmt.Fprintf(os.Stderr, "Usage: diagsplit [options] [model.glb]\n\n")
		fmt.Fprintf(os.Stderr, "With no model given, dices a single synthetic quad patch.\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	var modelPath string
	if flag.NArg() > 0 {
		modelPath = flag.Arg(0)
	}

	if err := run(modelPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(modelPath string) error {
	var patches []subd.Patch
	var primitives []lighttree.Primitive
	var numDistant int

	if modelPath != "" {
		scene, err := scenegraph.FromGLTF(modelPath)
		if err != nil {
			return fmt.Errorf("load scene: %w", err)
		}
		for _, obj := range scene.Objects() {
			patches = append(patches, obj.Patches...)
		}
		primitives, numDistant = scenegraph.AllPrimitives(scene)
	} else {
		patches, primitives = syntheticScene()
	}

	params := subd.DefaultParams()
	params.DicingRate = *dicingRate
	params.SplitThreshold = *splitThreshold
	params.MaxLevel = *maxLevel

	var dicingCamera *render.Camera
	if *cameraDicing {
		const previewHeight = 480
		cageMin, cageMax := patchCageBounds(patches)
		dicingCamera = render.NewCamera()
		dicingCamera.SetRasterSize(previewHeight)
		dicingCamera.FitToBounds(toM3(cageMin), toM3(cageMax), 1.5, 0)
		params.Camera = dicingCamera
	}

	mesh := meshsink.NewMesh("diced")
	if err := subd.SplitPatches(patches, params, mesh); err != nil {
		return fmt.Errorf("split patches: %w", err)
	}
	mesh.CalculateBounds()

	fmt.Fprintf(os.Stderr, "diced %d patches into %d vertices, %d triangles\n",
		len(patches), mesh.VertexCount(), mesh.TriangleCount())

	var tree *lighttree.Tree
	if len(primitives) > 0 {
		tree = lighttree.Build(primitives, numDistant, *maxLightsInLeaf)
		fmt.Fprintf(os.Stderr, "built light tree: %d primitives (%d distant), %d nodes\n",
			len(primitives), numDistant, len(tree.Nodes))
	}

	if *dotPath != "" {
		if tree == nil {
			fmt.Fprintf(os.Stderr, "skipping -dot: scene has no light primitives\n")
		} else if err := writeDot(*dotPath, tree); err != nil {
			return fmt.Errorf("write dot: %w", err)
		}
	}

	if *wireframePath != "" || *ansiPreview {
		fb := renderWireframe(mesh, tree, *cameraMode)
		if *wireframePath != "" {
			if err := fb.SavePNG(*wireframePath); err != nil {
				return fmt.Errorf("write wireframe: %w", err)
			}
		}
		if *ansiPreview {
			if err := render.WriteANSI(os.Stderr, fb); err != nil {
				return fmt.Errorf("write ansi preview: %w", err)
			}
		}
		fmt.Fprintf(os.Stderr, "wireframe covers %.1f%% of the frame\n", fb.DrawnFraction(render.RGB(20, 20, 26))*100)
	}

	return nil
}

func writeDot(path string, tree *lighttree.Tree) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return dotdump.Write(f, tree)
}

// syntheticScene builds the fallback demo scene: one flat quad patch with
// a single emissive triangle, enough to exercise both cores with no
// external assets.
func syntheticScene() ([]subd.Patch, []lighttree.Primitive) {
	quad := patchio.QuadPatch{
		P00: geom.V3(-1, 0, -1), P10: geom.V3(1, 0, -1), P11: geom.V3(1, 0, 1), P01: geom.V3(-1, 0, 1),
		N00: geom.V3(0, 1, 0), N10: geom.V3(0, 1, 0), N11: geom.V3(0, 1, 0), N01: geom.V3(0, 1, 0),
		CornerIDsValue: [4]int{0, 1, 2, 3},
	}
	emitter := lighttree.NewTrianglePrimitive(0, 0,
		geom.V3(-0.2, 0.01, -0.2), geom.V3(0.2, 0.01, -0.2), geom.V3(0, 0.01, 0.2),
		geom.V3(5, 5, 5), false, false)
	return []subd.Patch{quad}, []lighttree.Primitive{emitter}
}

// meshAdapter makes a meshsink.Mesh satisfy render.BoundedMeshRenderer by
// converting geom.Vec3/Vec2 to the render stack's math3d equivalents at
// the boundary between the two vector types.
type meshAdapter struct{ mesh *meshsink.Mesh }

func (a meshAdapter) VertexCount() int   { return a.mesh.VertexCount() }
func (a meshAdapter) TriangleCount() int { return a.mesh.TriangleCount() }

func (a meshAdapter) GetVertex(i int) (pos, normal math3d.Vec3, uv math3d.Vec2) {
	v := a.mesh.Vertices[i]
	return toM3(v.Position), toM3(v.Normal), math3d.V2(v.PtexUV.X, v.PtexUV.Y)
}

func (a meshAdapter) GetFace(i int) [3]int { return a.mesh.Triangles[i].V }

func (a meshAdapter) GetBounds() (min, max math3d.Vec3) {
	return toM3(a.mesh.BoundsMin), toM3(a.mesh.BoundsMax)
}

func toM3(v geom.Vec3) math3d.Vec3 { return math3d.V3(v.X, v.Y, v.Z) }

// patchCageBounds estimates the world bounds of a patch cage from its
// corners, before any dicing has run. Used to place a preview camera that
// can drive -camera-dicing's raster-pixel edge measurement, since the
// diced mesh's own (exact) bounds aren't known until after that pass.
func patchCageBounds(patches []subd.Patch) (min, max geom.Vec3) {
	box := geom.EmptyAABB()
	corners := [4][2]float64{{0, 0}, {1, 0}, {1, 1}, {0, 1}}
	for _, p := range patches {
		for _, uv := range corners {
			pos, _, _, _ := p.Eval(uv[0], uv[1])
			box = box.GrowPoint(pos)
		}
	}
	return box.Min, box.Max
}

func renderWireframe(mesh *meshsink.Mesh, tree *lighttree.Tree, mode string) *render.Framebuffer {
	const width, height = 640, 480
	fb := render.NewFramebuffer(width, height)
	fb.Clear(render.RGB(20, 20, 26))

	camera := render.NewCamera()
	camera.SetAspectRatio(float64(width) / float64(height))
	camera.SetClipPlanes(0.01, 1000)
	camera.SetRasterSize(height)

	angle := 0.0
	if mode == "orbit" {
		// Smooth the camera's orbit angle toward a full revolution with a
		// damped spring, the same role harmonica plays for the teacher's
		// interactive rotation decay, now driving a fixed preview frame
		// partway through the orbit instead of a live per-frame update.
		spring := harmonica.NewSpring(harmonica.FPS(60), 2.0, 1.0)
		pos, vel := 0.0, 0.0
		target := 2 * math.Pi
		for i := 0; i < 30; i++ {
			pos, vel = spring.Update(pos, vel, target)
		}
		angle = pos
	}

	camera.FitToBounds(toM3(mesh.BoundsMin), toM3(mesh.BoundsMax), 1.5, angle)

	rasterizer := render.NewRasterizer(camera, fb)
	rasterizer.ClearDepth()
	rasterizer.DrawMeshWireframe(meshAdapter{mesh}, math3d.Identity(), render.RGB(0, 255, 128))

	if tree != nil {
		wf := render.NewWireframe(camera, fb)
		for _, n := range tree.Nodes {
			if !n.IsLeaf() {
				continue
			}
			wf.DrawAABB(toM3(n.Bbox.Min), toM3(n.Bbox.Max), render.RGB(255, 200, 0))
		}
	}

	return fb
}
