package feature

import "sort"

// ClusterAccentColor is the single fixed color for cluster circles.
const ClusterAccentColor = "#f28c28"

// DefaultColor is used for singleton markers whose category has no entry
// in the color table.
const DefaultColor = "#7a7a7a"

// MaxColorEntries caps the category color table. Submission categories are
// user-influenced, so the table is bounded to keep the atlas bounded.
const MaxColorEntries = 64

// ColorTable maps a category to its marker hex color.
type ColorTable map[string]string

// DefaultColors covers the artwork categories the catalogue ships with.
var DefaultColors = ColorTable{
	"sculpture":    "#4264fb",
	"mural":        "#e55e5e",
	"installation": "#3bb2d0",
	"statue":       "#8a5cf5",
	"mosaic":       "#56b881",
	"graffiti":     "#d98f2b",
	"fountain":     "#2b8fd9",
}

// Color resolves a category to a hex color, falling back to DefaultColor
// for unknown categories. Never an error.
func (t ColorTable) Color(category string) string {
	if c, ok := t[category]; ok && c != "" {
		return c
	}
	return DefaultColor
}

// Capped returns a copy of the table truncated to MaxColorEntries. Entries
// are kept in sorted category order so the cap is deterministic.
func (t ColorTable) Capped() ColorTable {
	if len(t) <= MaxColorEntries {
		out := make(ColorTable, len(t))
		for k, v := range t {
			out[k] = v
		}
		return out
	}
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make(ColorTable, MaxColorEntries)
	for _, k := range keys[:MaxColorEntries] {
		out[k] = t[k]
	}
	return out
}

// Categories returns the table's category keys, sorted.
func (t ColorTable) Categories() []string {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
