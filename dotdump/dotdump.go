// Package dotdump writes a Graphviz digraph describing a built light
// tree, grounded on the original engine's klight_tree_plot_to_file debug
// dump: one record-shape node per Tree.Nodes entry (bbox, cone, energy,
// bit trail) with left/right port edges down to its children.
package dotdump

import (
	"fmt"
	"io"

	"github.com/taigrr/diagsplit/lighttree"
)

// Write renders tree as a Graphviz "digraph g { ... }" source to w.
func Write(w io.Writer, tree *lighttree.Tree) error {
	if _, err := fmt.Fprintf(w, "digraph g {\ngraph [\n  rankdir = \"LR\"\n];\n"); err != nil {
		return err
	}
	for i, n := range tree.Nodes {
		if err := writeNode(w, i, n); err != nil {
			return err
		}
	}
	for i, n := range tree.Nodes {
		if err := writeRelations(w, i, n); err != nil {
			return err
		}
	}
	_, err := fmt.Fprint(w, "}\n")
	return err
}

func nodeID(i int) string { return fmt.Sprintf("node%d", i) }

func writeNode(w io.Writer, i int, n lighttree.Node) error {
	label := fmt.Sprintf("<f0> knode %d", i)
	label += fmt.Sprintf("|<f1> min (%f %f %f)", n.Bbox.Min.X, n.Bbox.Min.Y, n.Bbox.Min.Z)
	label += fmt.Sprintf("|<f2> max (%f %f %f)", n.Bbox.Max.X, n.Bbox.Max.Y, n.Bbox.Max.Z)
	label += fmt.Sprintf("|<f3> bcone.axis (%f %f %f)", n.Bcone.Axis.X, n.Bcone.Axis.Y, n.Bcone.Axis.Z)
	label += fmt.Sprintf("|<f4> theta_o %f, theta_e %f", n.Bcone.ThetaO, n.Bcone.ThetaE)
	label += fmt.Sprintf("|<f5> energy %f", n.Energy)
	if n.IsLeaf() {
		label += fmt.Sprintf("|<f6> first prim %d", n.FirstPrimIndex)
		label += fmt.Sprintf("|<f7> num prims %d", n.NumPrims)
	} else {
		label += "|<left> left"
		label += "|<right> right"
	}
	label += fmt.Sprintf("|<f8> bit trail %d", n.BitTrail)

	_, err := fmt.Fprintf(w, "\"%s\" [\n  label = \"%s\"\n  shape = \"record\"\n];\n", nodeID(i), label)
	return err
}

func writeRelations(w io.Writer, i int, n lighttree.Node) error {
	if n.IsLeaf() {
		return nil
	}
	left := i + 1
	right := n.RightChildIndex
	if _, err := fmt.Fprintf(w, "\"%s\":left -> \"%s\":f0;\n", nodeID(i), nodeID(left)); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\"%s\":right -> \"%s\":f0;\n", nodeID(i), nodeID(right))
	return err
}
