package cluster

import (
	"fmt"
	"testing"

	"github.com/funvill/cultural-archiver-sub005/viewport"
)

var benchBounds = Bounds{MinX: -125, MinY: 25, MaxX: -67, MaxY: 49}

// benchmarkClusterAt measures one viewport query at a fixed zoom against a
// pre-built index, the hot path the map client hits on every pan.
func benchmarkClusterAt(b *testing.B, numPoints int, zoom float64) {
	ix := NewIndex(Options{})
	ix.Load(GenerateArtworks(numPoints, benchBounds, 42))

	vp := viewport.Viewport{
		Longitude: (benchBounds.MinX + benchBounds.MaxX) / 2,
		Latitude:  (benchBounds.MinY + benchBounds.MaxY) / 2,
		Zoom:      zoom,
		Width:     1920,
		Height:    1080,
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ix.ClusterAt(vp)
	}
}

func BenchmarkClusterAt(b *testing.B) {
	for _, numPoints := range []int{1000, 10000, 100000} {
		for _, zoom := range []float64{4, 8, 12} {
			b.Run(fmt.Sprintf("points=%d/zoom=%.0f", numPoints, zoom), func(b *testing.B) {
				benchmarkClusterAt(b, numPoints, zoom)
			})
		}
	}
}

func BenchmarkLoad(b *testing.B) {
	for _, numPoints := range []int{10000, 100000} {
		artworks := GenerateArtworks(numPoints, benchBounds, 42)
		b.Run(fmt.Sprintf("points=%d", numPoints), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				ix := NewIndex(Options{})
				ix.Load(artworks)
			}
		})
	}
}
