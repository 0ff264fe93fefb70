package overlay

import (
	"fmt"
	"math"
	"strconv"
)

// Marker and label sizing is bucketed into eight base-map zoom bands so
// circles and their count labels scale together. Sizes shrink as zoom
// increases: zoomed out, markers stay large enough to tap on a phone.

type zoomBand struct {
	maxZoom     float64 // band applies while baseZoom < maxZoom
	clusterBase float64 // starting radius for cluster circles, px
	fontSize    float64 // cluster label font size, px
	marker      float64 // singleton marker radius, px
}

var zoomBands = [8]zoomBand{
	{maxZoom: 4, clusterBase: 30, fontSize: 16, marker: 16},
	{maxZoom: 6, clusterBase: 27, fontSize: 15, marker: 14},
	{maxZoom: 8, clusterBase: 24, fontSize: 14, marker: 13},
	{maxZoom: 10, clusterBase: 22, fontSize: 13, marker: 12},
	{maxZoom: 12, clusterBase: 20, fontSize: 12, marker: 11},
	{maxZoom: 14, clusterBase: 18, fontSize: 12, marker: 10},
	{maxZoom: 16, clusterBase: 16, fontSize: 11, marker: 9},
	{maxZoom: math.Inf(1), clusterBase: 14, fontSize: 10, marker: 8},
}

// Singleton marker radii are clamped to an explicit pixel range.
const (
	minMarkerRadius = 6
	maxMarkerRadius = 16
)

// Cluster radius growth per aggregated artwork, applied on a log scale so
// thousand-point clusters stay in the same visual family as ten-point ones.
const clusterLogScale = 6.0

// Label-fit estimate: average glyph width as a fraction of the font size,
// plus fixed padding inside the circle.
const (
	labelCharWidth = 0.7
	labelPadding   = 25.0
)

func band(baseZoom float64) zoomBand {
	for _, b := range zoomBands {
		if baseZoom < b.maxZoom {
			return b
		}
	}
	return zoomBands[len(zoomBands)-1]
}

// markerRadius returns the singleton circle radius for a base-map zoom.
func markerRadius(baseZoom float64) float64 {
	r := band(baseZoom).marker
	if r < minMarkerRadius {
		return minMarkerRadius
	}
	if r > maxMarkerRadius {
		return maxMarkerRadius
	}
	return r
}

// labelFontSize returns the cluster count font size for a base-map zoom.
func labelFontSize(baseZoom float64) float64 {
	return band(baseZoom).fontSize
}

// minRadiusToFitLabel returns the smallest circle radius whose diameter
// covers the label's estimated width plus padding, so the count never
// visually overflows the circle.
func minRadiusToFitLabel(label string, fontSize float64) float64 {
	est := labelCharWidth * fontSize * float64(len(label))
	return (est + labelPadding) / 2
}

// clusterRadius computes a cluster circle's radius. A precomputed radius
// wins; otherwise the zoom-band base grows with log(count) and is floored
// at whatever the label needs.
func clusterRadius(count uint32, baseZoom float64, precomputed float64) float64 {
	if precomputed > 0 {
		return precomputed
	}
	b := band(baseZoom)
	r := b.clusterBase + math.Log(float64(count)+1)*clusterLogScale
	if fit := minRadiusToFitLabel(abbreviateCount(count), b.fontSize); r < fit {
		return fit
	}
	return r
}

// abbreviateCount renders a cluster count for its label: exact below
// 1000, one decimal with a "k" suffix at or above (1234 -> "1.2k").
func abbreviateCount(n uint32) string {
	if n < 1000 {
		return strconv.FormatUint(uint64(n), 10)
	}
	return fmt.Sprintf("%.1fk", float64(n)/1000)
}
