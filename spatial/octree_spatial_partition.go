package spatial

import (
	"slices"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/surfgrid/mesh"
	"gonum.org/v1/gonum/spatial/r3"
)

// Octree Spatial Partition
//
// A fits-or-splits octree implementing the Index interface. The particularities
// are:
//   - the root is the smallest cube sharing the center of the global bounds,
//   - an element goes down to the one octant that fully contains its box and
//     stays at the current node when it straddles a center plane, so every
//     element is stored exactly once,
//   - a node splits only when it holds more than Capacity elements and it is
//     above MaxDepth; children are created only for octants that receive
//     elements,
//   - elements whose box is not inside the root stay at the root.

const (
	ErrTypeIndexBuild = "index_build_error"

	noChild int32 = -1

	DefaultOctreeCapacity = 8
	DefaultOctreeMaxDepth = 10
)

// TreeNode is an octree node stored in the tree arena.
type TreeNode struct {
	Box   mesh.Box
	Level int

	// Arena positions of the children, noChild when the octant is empty.
	Children [8]int32

	// Element positions stored at this node.
	Elements []int
}

// IsLeaf reports whether the node has no children.
func (n *TreeNode) IsLeaf() bool {
	for _, c := range n.Children {
		if c != noChild {
			return false
		}
	}
	return true
}

type Octree struct {
	Capacity int
	MaxDepth int

	nodes []TreeNode
	boxes []mesh.Box
}

func NewOctree(capacity, maxDepth int) *Octree {
	if capacity <= 0 {
		capacity = DefaultOctreeCapacity
	}
	if maxDepth < 0 {
		maxDepth = DefaultOctreeMaxDepth
	}

	return &Octree{
		Capacity: capacity,
		MaxDepth: maxDepth,
	}
}

func (o *Octree) Kind() Kind {
	return KindOctree
}

func (o *Octree) Build(bounds mesh.Box, boxes []mesh.Box) error {
	start := time.Now()

	for i, b := range boxes {
		if err := b.Validate(); err != nil {
			return errors.New("invalid element box").
				WithType(ErrTypeIndexBuild).
				WithTag("index_kind", KindOctree).
				WithTag("element", i).
				Wrap(err)
		}
	}

	o.boxes = boxes
	o.nodes = o.nodes[:0]

	if bounds.IsEmpty() {
		for _, b := range boxes {
			bounds = bounds.Union(b)
		}
	}

	root := o.newNode(mesh.EmptyBox(), 0)
	if len(boxes) == 0 {
		instrumentIndexBuild(KindOctree, len(boxes), start)
		return nil
	}
	o.nodes[root].Box = bounds.Cube()

	inside := make([]int, 0, len(boxes))
	for i, b := range boxes {
		if o.nodes[root].Box.ContainsBox(b) {
			inside = append(inside, i)
		} else {
			o.nodes[root].Elements = append(o.nodes[root].Elements, i)
		}
	}

	o.insert(root, inside)
	instrumentIndexBuild(KindOctree, len(boxes), start)
	return nil
}

func (o *Octree) newNode(box mesh.Box, level int) int32 {
	o.nodes = append(o.nodes, TreeNode{
		Box:      box,
		Level:    level,
		Children: [8]int32{noChild, noChild, noChild, noChild, noChild, noChild, noChild, noChild},
	})
	return int32(len(o.nodes) - 1)
}

// insert places the given elements under the node at position n. The node
// box is expected to contain every element box.
func (o *Octree) insert(n int32, elems []int) {
	node := &o.nodes[n]
	if len(node.Elements)+len(elems) <= o.Capacity ||
		node.Level >= o.MaxDepth ||
		node.Box.IsPoint() {
		node.Elements = append(node.Elements, elems...)
		return
	}

	center := node.Box.Center()
	var octants [8][]int
	for _, e := range elems {
		i, ok := octantOf(center, o.boxes[e])
		if !ok {
			node.Elements = append(node.Elements, e)
			continue
		}
		octants[i] = append(octants[i], e)
	}

	box := node.Box
	level := node.Level
	for i, sub := range octants {
		if len(sub) == 0 {
			continue
		}

		// newNode can grow the arena, node must not be used past this point.
		child := o.newNode(box.Octant(i), level+1)
		o.nodes[n].Children[i] = child
		o.insert(child, sub)
	}
}

// octantOf returns the octant that fully contains b, false when b touches or
// crosses one of the center planes.
func octantOf(center r3.Vec, b mesh.Box) (int, bool) {
	octant := 0
	for axis := 0; axis < 3; axis++ {
		c := mesh.Component(center, axis)
		switch {
		case mesh.Component(b.Max, axis) < c:
		case mesh.Component(b.Min, axis) > c:
			octant |= 1 << axis
		default:
			return 0, false
		}
	}
	return octant, true
}

func (o *Octree) QueryOverlap(b mesh.Box) []int {
	if len(o.nodes) == 0 || b.IsEmpty() {
		return nil
	}

	var res []int
	stack := []int32{0}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		node := &o.nodes[n]

		// the root also holds the elements outside its box.
		if n != 0 && !node.Box.Intersects(b) {
			continue
		}

		for _, e := range node.Elements {
			if o.boxes[e].Intersects(b) {
				res = append(res, e)
			}
		}

		if !node.Box.Intersects(b) {
			continue
		}
		for _, c := range node.Children {
			if c != noChild {
				stack = append(stack, c)
			}
		}
	}

	slices.Sort(res)
	instrumentQuery(KindOctree, len(res))
	return res
}

func (o *Octree) QueryPoint(p r3.Vec) []int {
	return o.QueryOverlap(mesh.BoxFromPoint(p))
}

// Walk visits the nodes depth first, parents before children. Returning
// false from fn skips the children of the visited node.
func (o *Octree) Walk(fn func(n *TreeNode) bool) {
	if len(o.nodes) == 0 {
		return
	}

	var walk func(n int32)
	walk = func(n int32) {
		node := &o.nodes[n]
		if !fn(node) {
			return
		}
		for _, c := range node.Children {
			if c != noChild {
				walk(c)
			}
		}
	}
	walk(0)
}

func (o *Octree) DebugInfo() DebugInfo {
	info := DebugInfo{
		Kind:     KindOctree,
		Elements: len(o.boxes),
	}
	if len(o.nodes) == 0 {
		return info
	}

	info.Min = o.nodes[0].Box.Min
	info.Max = o.nodes[0].Box.Max

	stored := 0
	o.Walk(func(n *TreeNode) bool {
		info.Nodes++
		stored += len(n.Elements)
		info.Depth = max(info.Depth, n.Level)
		info.MaxElementsPerNode = max(info.MaxElementsPerNode, len(n.Elements))

		if n.IsLeaf() && n.Level >= o.MaxDepth && len(n.Elements) > o.Capacity {
			info.SaturatedLeaves++
			info.SaturatedElements += len(n.Elements)
		}
		return true
	})
	info.AvgElementsPerNode = float64(stored) / float64(info.Nodes)
	return info
}
