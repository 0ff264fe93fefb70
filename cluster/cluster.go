package cluster

import (
	"math"
	"sort"

	"github.com/funvill/cultural-archiver-sub005/feature"
	"github.com/funvill/cultural-archiver-sub005/viewport"
)

// Options controls viewport clustering.
type Options struct {
	// Radius is the screen-space merge distance in pixels. Two artworks
	// closer than this at the current zoom belong to the same cluster.
	Radius float64
	// MinPoints is the smallest group rendered as a cluster. Smaller
	// groups fall back to individual markers.
	MinPoints int
	// TileSize is the base map tile extent used by the projection.
	TileSize int
	// NodeSize is the KD-tree leaf bucket size.
	NodeSize int
	MinZoom  int
	MaxZoom  int
}

func (o Options) withDefaults() Options {
	if o.Radius <= 0 {
		o.Radius = 40
	}
	if o.MinPoints < 2 {
		o.MinPoints = 2
	}
	if o.TileSize <= 0 {
		o.TileSize = 512
	}
	if o.NodeSize <= 0 {
		o.NodeSize = 64
	}
	if o.MaxZoom <= 0 {
		o.MaxZoom = 16
	}
	if o.MinZoom < 0 {
		o.MinZoom = 0
	}
	if o.MinZoom > o.MaxZoom {
		o.MinZoom = o.MaxZoom
	}
	return o
}

// Index holds a loaded artwork set and answers viewport clustering queries.
// Loading replaces the set wholesale; clusters are recomputed from scratch
// on every query rather than diffed incrementally.
type Index struct {
	opts     Options
	features []feature.Feature
	tree     *KDTree
	dropped  int
}

// NewIndex creates an empty index with defaulted options.
func NewIndex(opts Options) *Index {
	return &Index{opts: opts.withDefaults()}
}

// Options returns the defaulted options the index runs with.
func (ix *Index) Options() Options { return ix.opts }

// Load replaces the indexed feature set. Features with non-finite
// coordinates are dropped; the live submission feed is allowed to be
// partial, so this is not an error.
func (ix *Index) Load(features []feature.Feature) {
	kept := make([]feature.Feature, 0, len(features))
	for _, f := range features {
		if !f.Valid() {
			continue
		}
		kept = append(kept, f)
	}
	ix.dropped = len(features) - len(kept)
	ix.features = kept

	items := make([]KDItem, len(kept))
	for i, f := range kept {
		items[i] = KDItem{X: f.Longitude, Y: f.Latitude, Idx: int32(i)}
	}
	ix.tree = NewKDTree(items, ix.opts.NodeSize)
}

// Len returns the number of indexed features.
func (ix *Index) Len() int { return len(ix.features) }

// Dropped returns how many features the last Load discarded for having
// non-finite coordinates.
func (ix *Index) Dropped() int { return ix.dropped }

// Features returns the indexed features.
func (ix *Index) Features() []feature.Feature { return ix.features }

// ClusterAt groups the indexed features for one viewport. Points within
// Options.Radius pixels of each other at the viewport zoom are merged
// transitively (connected components under the distance relation), so the
// result is independent of input order: the same set and viewport always
// produce the same membership. Every indexed feature inside the padded
// viewport appears exactly once, either as itself or inside exactly one
// cluster. Output order is not meaningful.
func (ix *Index) ClusterAt(vp viewport.Viewport) []feature.Feature {
	if ix.tree == nil || len(ix.features) == 0 {
		return nil
	}

	scale := float64(ix.opts.TileSize) * math.Exp2(vp.Zoom)
	candidates := ix.candidatesFor(vp, scale)
	if len(candidates) == 0 {
		return nil
	}

	// Project candidates to pixel space at the viewport zoom.
	px := make([][2]float64, len(candidates))
	for i, idx := range candidates {
		f := ix.features[idx]
		x, y := Project(f.Longitude, f.Latitude)
		px[i] = [2]float64{x * scale, y * scale}
	}

	comps := components(px, ix.opts.Radius)

	out := make([]feature.Feature, 0, len(comps))
	for _, members := range comps {
		if len(members) < ix.opts.MinPoints {
			for _, i := range members {
				out = append(out, ix.features[candidates[i]])
			}
			continue
		}
		out = append(out, ix.buildCluster(candidates, members))
	}

	// Stable output keeps repeated queries byte-identical for consumers
	// that diff responses, even though order carries no meaning.
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// candidatesFor returns the indexes of features inside the viewport padded
// by the merge radius, sorted ascending.
func (ix *Index) candidatesFor(vp viewport.Viewport, scale float64) []int32 {
	cx, cy := Project(vp.Longitude, vp.Latitude)
	cxp, cyp := cx*scale, cy*scale

	padX := float64(vp.Width)/2 + ix.opts.Radius
	padY := float64(vp.Height)/2 + ix.opts.Radius

	minLng, maxLat := Unproject(clamp01((cxp-padX)/scale), clamp01((cyp-padY)/scale))
	maxLng, minLat := Unproject(clamp01((cxp+padX)/scale), clamp01((cyp+padY)/scale))

	candidates := ix.tree.Range(Bounds{MinX: minLng, MinY: minLat, MaxX: maxLng, MaxY: maxLat})
	sort.Slice(candidates, func(i, j int) bool { return candidates[i] < candidates[j] })
	return candidates
}

func (ix *Index) buildCluster(candidates []int32, members []int) feature.Feature {
	var sumX, sumY float64
	var count uint32
	ids := make([]string, 0, len(members))

	for _, i := range members {
		f := ix.features[candidates[i]]
		w := float64(f.Count())
		sumX += f.Longitude * w
		sumY += f.Latitude * w
		count += f.Count()
		ids = append(ids, f.ID)
	}
	sort.Strings(ids)

	inv := 1.0 / float64(count)
	return feature.Feature{
		// Derived from the smallest member so the id is stable across
		// runs and input orderings.
		ID:         "cluster-" + ids[0],
		Longitude:  sumX * inv,
		Latitude:   sumY * inv,
		Cluster:    true,
		PointCount: count,
		Members:    ids,
	}
}

// components partitions projected points into connected components under
// "pixel distance <= radius". Neighbor candidates come from a uniform grid
// with radius-sized cells, so only the 3x3 neighborhood needs checking.
func components(px [][2]float64, radius float64) [][]int {
	n := len(px)
	uf := newUnionFind(n)

	cell := radius
	if cell <= 0 {
		cell = 1
	}
	grid := make(map[[2]int32][]int, n)
	key := func(p [2]float64) [2]int32 {
		return [2]int32{int32(math.Floor(p[0] / cell)), int32(math.Floor(p[1] / cell))}
	}
	for i, p := range px {
		grid[key(p)] = append(grid[key(p)], i)
	}

	r2 := radius * radius
	for i, p := range px {
		k := key(p)
		for dx := int32(-1); dx <= 1; dx++ {
			for dy := int32(-1); dy <= 1; dy++ {
				for _, j := range grid[[2]int32{k[0] + dx, k[1] + dy}] {
					if j <= i {
						continue
					}
					ddx := px[j][0] - p[0]
					ddy := px[j][1] - p[1]
					if ddx*ddx+ddy*ddy <= r2 {
						uf.union(i, j)
					}
				}
			}
		}
	}

	byRoot := make(map[int][]int)
	for i := 0; i < n; i++ {
		root := uf.find(i)
		byRoot[root] = append(byRoot[root], i)
	}
	comps := make([][]int, 0, len(byRoot))
	for _, members := range byRoot {
		comps = append(comps, members)
	}
	return comps
}

type unionFind struct {
	parent []int
	rank   []int
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{parent: make([]int, n), rank: make([]int, n)}
	for i := range uf.parent {
		uf.parent[i] = i
	}
	return uf
}

func (uf *unionFind) find(i int) int {
	for uf.parent[i] != i {
		uf.parent[i] = uf.parent[uf.parent[i]]
		i = uf.parent[i]
	}
	return i
}

func (uf *unionFind) union(a, b int) {
	ra, rb := uf.find(a), uf.find(b)
	if ra == rb {
		return
	}
	if uf.rank[ra] < uf.rank[rb] {
		ra, rb = rb, ra
	}
	uf.parent[rb] = ra
	if uf.rank[ra] == uf.rank[rb] {
		uf.rank[ra]++
	}
}

// Project converts lng/lat degrees to normalized spherical-mercator
// coordinates in [0,1]. Multiply by TileSize*2^zoom for pixel space.
func Project(lng, lat float64) (x, y float64) {
	sin := math.Sin(lat * math.Pi / 180)
	x = (lng + 180) / 360
	y = 0.5 - 0.25*math.Log((1+sin)/(1-sin))/math.Pi
	return x, y
}

// Unproject converts normalized mercator coordinates back to lng/lat.
func Unproject(x, y float64) (lng, lat float64) {
	lng = x*360 - 180
	lat = math.Atan(math.Sinh(math.Pi*(1-2*y))) * 180 / math.Pi
	return lng, lat
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
