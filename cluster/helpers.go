package cluster

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/funvill/cultural-archiver-sub005/feature"
)

// CategorySummary describes one clustered viewport result for the
// moderation dashboard's "what's in view" panel.
type CategorySummary struct {
	TotalArtworks int                `json:"totalArtworks"`
	NumClusters   int                `json:"numClusters"`
	NumSingletons int                `json:"numSingletons"`
	Categories    map[string]float64 `json:"categories"` // percent per category
}

// CalculateCategorySummary aggregates a ClusterAt result. Clusters carry
// no category, so the distribution covers singletons only.
func CalculateCategorySummary(features []feature.Feature) CategorySummary {
	summary := CategorySummary{Categories: make(map[string]float64)}

	counts := make(map[string]int)
	singles := 0
	for _, f := range features {
		if f.Cluster {
			summary.NumClusters++
		} else {
			summary.NumSingletons++
			if f.Category != "" {
				counts[f.Category]++
				singles++
			}
		}
		summary.TotalArtworks += int(f.Count())
	}

	for cat, n := range counts {
		summary.Categories[cat] = float64(n) / float64(singles) * 100
	}
	return summary
}

var artworkCategories = []string{
	"sculpture", "mural", "installation", "statue", "mosaic", "graffiti", "fountain",
}

// GenerateArtworks creates n synthetic artwork features uniformly spread
// over the bounds. Pass a fixed seed for reproducible sets.
func GenerateArtworks(n int, bounds Bounds, seed int64) []feature.Feature {
	r := rand.New(rand.NewSource(seed))
	features := make([]feature.Feature, n)
	for i := 0; i < n; i++ {
		cat := artworkCategories[r.Intn(len(artworkCategories))]
		features[i] = feature.Feature{
			ID:        fmt.Sprintf("artwork-%06d", i+1),
			Longitude: bounds.MinX + r.Float64()*(bounds.MaxX-bounds.MinX),
			Latitude:  bounds.MinY + r.Float64()*(bounds.MaxY-bounds.MinY),
			Category:  cat,
			Properties: map[string]interface{}{
				"title":  fmt.Sprintf("Untitled #%d", i+1),
				"artist": fmt.Sprintf("artist-%03d", r.Intn(500)),
			},
		}
	}
	return features
}

// GenerateArtworksAround scatters n artworks within radiusMeters of a
// center point, the shape of a downtown art walk.
func GenerateArtworksAround(n int, lng, lat, radiusMeters float64, seed int64) []feature.Feature {
	const metersPerDegreeLat = 111320.0
	r := rand.New(rand.NewSource(seed))

	features := make([]feature.Feature, n)
	for i := 0; i < n; i++ {
		dist := radiusMeters * math.Sqrt(r.Float64())
		angle := r.Float64() * 2 * math.Pi
		dLat := dist * math.Cos(angle) / metersPerDegreeLat
		dLng := dist * math.Sin(angle) / (metersPerDegreeLat * math.Cos(lat*math.Pi/180))
		features[i] = feature.Feature{
			ID:        fmt.Sprintf("artwork-%06d", i+1),
			Longitude: lng + dLng,
			Latitude:  lat + dLat,
			Category:  artworkCategories[r.Intn(len(artworkCategories))],
		}
	}
	return features
}
