package cluster

import (
	"math"
	"sort"
)

// KDItem is one indexed coordinate with a reference back into the
// feature slice it was built from.
type KDItem struct {
	X, Y float64
	Idx  int32
}

// KDNode is a flat-array tree node. Leaves hold a contiguous span of
// Count items starting at PointIdx; internal nodes hold the median item
// at PointIdx and split on Axis.
type KDNode struct {
	PointIdx int32
	Left     int32
	Right    int32
	Axis     uint8
	Count    int32
	Bounds   Bounds
}

// KDTree is a static 2-D tree over lng/lat used to pull viewport
// candidates without scanning the whole set.
type KDTree struct {
	Nodes    []KDNode
	Items    []KDItem
	NodeSize int
	Bounds   Bounds
}

// Bounds is an axis-aligned lng/lat box.
type Bounds struct {
	MinX, MinY, MaxX, MaxY float64
}

// EmptyBounds returns bounds that any Extend call will replace.
func EmptyBounds() Bounds {
	return Bounds{
		MinX: math.Inf(1),
		MinY: math.Inf(1),
		MaxX: math.Inf(-1),
		MaxY: math.Inf(-1),
	}
}

// Extend expands bounds to include another point.
func (b *Bounds) Extend(x, y float64) {
	b.MinX = math.Min(b.MinX, x)
	b.MinY = math.Min(b.MinY, y)
	b.MaxX = math.Max(b.MaxX, x)
	b.MaxY = math.Max(b.MaxY, y)
}

// Intersects reports whether two boxes overlap.
func (b Bounds) Intersects(o Bounds) bool {
	return b.MinX <= o.MaxX && o.MinX <= b.MaxX &&
		b.MinY <= o.MaxY && o.MinY <= b.MaxY
}

// Contains reports whether the point lies inside the box.
func (b Bounds) Contains(x, y float64) bool {
	return x >= b.MinX && x <= b.MaxX && y >= b.MinY && y <= b.MaxY
}

// NewKDTree builds a tree over the items. The input slice is copied.
func NewKDTree(items []KDItem, nodeSize int) *KDTree {
	if nodeSize <= 0 {
		nodeSize = 64
	}
	tree := &KDTree{
		Nodes:    make([]KDNode, 0, 2*len(items)),
		Items:    make([]KDItem, len(items)),
		NodeSize: nodeSize,
		Bounds:   EmptyBounds(),
	}
	copy(tree.Items, items)

	for _, it := range items {
		tree.Bounds.Extend(it.X, it.Y)
	}
	if len(items) > 0 {
		tree.buildNodes(0, len(items)-1, 0)
	}
	return tree
}

func (t *KDTree) buildNodes(start, end, depth int) int32 {
	if start > end {
		return -1
	}

	nodeIdx := int32(len(t.Nodes))
	t.Nodes = append(t.Nodes, KDNode{})

	if end-start < t.NodeSize {
		node := &t.Nodes[nodeIdx]
		node.PointIdx = int32(start)
		node.Count = int32(end - start + 1)
		node.Left = -1
		node.Right = -1
		node.Bounds = spanBounds(t.Items[start : end+1])
		return nodeIdx
	}

	axis := depth % 2
	median := (start + end) / 2
	sortItemsRange(t.Items[start:end+1], axis)

	// The append calls in the recursion may move the backing array, so
	// node fields are written through the index, not a held pointer.
	t.Nodes[nodeIdx].PointIdx = int32(median)
	t.Nodes[nodeIdx].Axis = uint8(axis)
	t.Nodes[nodeIdx].Left = t.buildNodes(start, median-1, depth+1)
	t.Nodes[nodeIdx].Right = t.buildNodes(median+1, end, depth+1)
	t.Nodes[nodeIdx].Bounds = spanBounds(t.Items[start : end+1])
	return nodeIdx
}

func spanBounds(items []KDItem) Bounds {
	b := EmptyBounds()
	for _, it := range items {
		b.Extend(it.X, it.Y)
	}
	return b
}

func sortItemsRange(items []KDItem, axis int) {
	if axis == 0 {
		sort.Slice(items, func(i, j int) bool {
			if items[i].X != items[j].X {
				return items[i].X < items[j].X
			}
			return items[i].Idx < items[j].Idx
		})
	} else {
		sort.Slice(items, func(i, j int) bool {
			if items[i].Y != items[j].Y {
				return items[i].Y < items[j].Y
			}
			return items[i].Idx < items[j].Idx
		})
	}
}

// Range returns the Idx of every item inside the box.
func (t *KDTree) Range(b Bounds) []int32 {
	if len(t.Nodes) == 0 || !t.Bounds.Intersects(b) {
		return nil
	}
	var out []int32
	t.rangeNode(0, b, &out)
	return out
}

func (t *KDTree) rangeNode(nodeIdx int32, b Bounds, out *[]int32) {
	if nodeIdx < 0 {
		return
	}
	node := t.Nodes[nodeIdx]
	if !node.Bounds.Intersects(b) {
		return
	}

	if node.Count > 0 {
		for _, it := range t.Items[node.PointIdx : node.PointIdx+node.Count] {
			if b.Contains(it.X, it.Y) {
				*out = append(*out, it.Idx)
			}
		}
		return
	}

	median := t.Items[node.PointIdx]
	if b.Contains(median.X, median.Y) {
		*out = append(*out, median.Idx)
	}
	t.rangeNode(node.Left, b, out)
	t.rangeNode(node.Right, b, out)
}
