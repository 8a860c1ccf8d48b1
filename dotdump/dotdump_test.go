package dotdump

import (
	"bytes"
	"strings"
	"testing"

	"github.com/taigrr/diagsplit/geom"
	"github.com/taigrr/diagsplit/lighttree"
)

func TestWriteProducesValidDigraphShape(t *testing.T) {
	prims := make([]lighttree.Primitive, 20)
	for i := range prims {
		half := geom.V3(0.1, 0, 0)
		c := geom.V3(float64(i), 0, 0)
		prims[i] = lighttree.NewTrianglePrimitive(i, i, c.Sub(half), c.Add(half), c.Add(geom.V3(0, 0.1, 0)), geom.V3(1, 1, 1), false, false)
	}
	tree := lighttree.Build(prims, 0, 4)

	var buf bytes.Buffer
	if err := Write(&buf, tree); err != nil {
		t.Fatalf("Write: %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "digraph g {") {
		t.Error("output should start with digraph g {")
	}
	if !strings.HasSuffix(strings.TrimSpace(out), "}") {
		t.Error("output should end with closing brace")
	}
	if !strings.Contains(out, "node0") {
		t.Error("expected root node0 in output")
	}
}
