// Package atlas precomputes the sprite sheet the overlay samples for
// singleton marker icons. An atlas is immutable once built; when the
// category set changes the caller builds a fresh one rather than patching
// the old sheet under a draw in flight.
package atlas

import (
	"image"
	"math"
	"sort"
	"strings"

	"github.com/gogpu/gg"

	"github.com/funvill/cultural-archiver-sub005/feature"
)

// DefaultCellSize is the sprite edge length in pixels.
const DefaultCellSize = 32

// fallbackKey is the reserved region every unknown category resolves to.
const fallbackKey = "__fallback"

// Region is one sprite's placement in the sheet, in both pixel and
// normalized texture coordinates.
type Region struct {
	X, Y, Size     int
	U0, V0, U1, V1 float64
}

// Atlas maps categories to sprite regions over a single RGBA sheet.
type Atlas struct {
	img     image.Image
	regions map[string]Region
	fall    Region
	cell    int
	key     string
}

// Key returns a stable identity for a category set: same set, same key,
// same layout. Callers cache atlases by it.
func Key(categories []string) string {
	sorted := dedupeSorted(categories)
	return strings.Join(sorted, "\x1f")
}

// Build rasterizes one swatch per category into a sheet. Categories are
// deduplicated and sorted first, so texture coordinates depend only on the
// set, never on argument order. The fallback swatch always occupies the
// first cell.
func Build(categories []string, colors feature.ColorTable, cell int) *Atlas {
	if cell <= 0 {
		cell = DefaultCellSize
	}
	sorted := dedupeSorted(categories)

	n := len(sorted) + 1 // +1 for the fallback swatch
	cols := int(math.Ceil(math.Sqrt(float64(n))))
	rows := (n + cols - 1) / cols

	dc := gg.NewContext(cols*cell, rows*cell)
	defer dc.Close()
	dc.ClearWithColor(gg.Transparent)

	a := &Atlas{
		regions: make(map[string]Region, len(sorted)),
		cell:    cell,
		key:     strings.Join(sorted, "\x1f"),
	}

	w := float64(cols * cell)
	h := float64(rows * cell)
	place := func(i int) Region {
		x := (i % cols) * cell
		y := (i / cols) * cell
		return Region{
			X: x, Y: y, Size: cell,
			U0: float64(x) / w,
			V0: float64(y) / h,
			U1: float64(x+cell) / w,
			V1: float64(y+cell) / h,
		}
	}
	drawSwatch := func(r Region, hex string) {
		cx := float64(r.X) + float64(cell)/2
		cy := float64(r.Y) + float64(cell)/2
		radius := float64(cell)/2 - 2
		dc.SetHexColor(hex)
		dc.DrawCircle(cx, cy, radius)
		dc.FillPreserve()
		dc.SetRGBA(1, 1, 1, 0.9)
		dc.SetLineWidth(2)
		dc.Stroke()
	}

	a.fall = place(0)
	drawSwatch(a.fall, feature.DefaultColor)
	for i, cat := range sorted {
		r := place(i + 1)
		drawSwatch(r, colors.Color(cat))
		a.regions[cat] = r
	}

	a.img = dc.Image()
	return a
}

// Lookup resolves a category to its sprite region. A category that was
// never registered gets the fallback swatch; rendering always proceeds
// with something visible.
func (a *Atlas) Lookup(category string) Region {
	if r, ok := a.regions[category]; ok {
		return r
	}
	return a.fall
}

// Contains reports whether the category has its own sprite.
func (a *Atlas) Contains(category string) bool {
	_, ok := a.regions[category]
	return ok
}

// Image returns the backing sprite sheet.
func (a *Atlas) Image() image.Image { return a.img }

// CellSize returns the sprite edge length.
func (a *Atlas) CellSize() int { return a.cell }

// Len returns the number of category sprites, excluding the fallback.
func (a *Atlas) Len() int { return len(a.regions) }

// Key returns the category-set identity this atlas was built for.
func (a *Atlas) Key() string { return a.key }

func dedupeSorted(categories []string) []string {
	seen := make(map[string]struct{}, len(categories))
	out := make([]string, 0, len(categories))
	for _, c := range categories {
		if c == "" || c == fallbackKey {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
